package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ConsumerRegistry routes events to consumers by topic pattern.
type ConsumerRegistry struct {
	mu        sync.RWMutex
	consumers map[string][]registration
	nextID    int
	logger    *slog.Logger
}

// registration ties a consumer to the Register call that added it, so a
// consumer listed under several matching patterns is dispatched once.
type registration struct {
	id       int
	consumer EventConsumer
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		consumers: make(map[string][]registration),
		logger:    logger,
	}
}

// Register adds consumer under each of its patterns.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reg := registration{id: r.nextID, consumer: consumer}
	for _, pattern := range consumer.EventTypes() {
		r.consumers[pattern] = append(r.consumers[pattern], reg)
		r.logger.Debug("registered consumer", "pattern", pattern)
	}
}

// Patterns returns the registered patterns in sorted order.
func (r *ConsumerRegistry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedPatternsLocked()
}

// Match returns the consumers whose patterns match routingKey. A consumer
// registered under several matching patterns is returned once.
func (r *ConsumerRegistry) Match(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []EventConsumer
	seen := make(map[int]bool)
	for _, pattern := range r.sortedPatternsLocked() {
		if !MatchTopic(pattern, routingKey) {
			continue
		}
		for _, reg := range r.consumers[pattern] {
			if !seen[reg.id] {
				seen[reg.id] = true
				out = append(out, reg.consumer)
			}
		}
	}
	return out
}

func (r *ConsumerRegistry) sortedPatternsLocked() []string {
	out := make([]string, 0, len(r.consumers))
	for p := range r.consumers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Dispatch hands event to every matching consumer. All consumers run even
// when one fails; the failures are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.Match(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.Debug("no consumers for routing key", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, c := range consumers {
		if err := c.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%T: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// ConsumerCount returns the number of (pattern, consumer) registrations.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, cs := range r.consumers {
		n += len(cs)
	}
	return n
}

// MatchTopic implements AMQP topic matching: "*" matches exactly one word,
// "#" matches zero or more words.
func MatchTopic(pattern, routingKey string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return len(key) == 0
}
