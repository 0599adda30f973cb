// Package recommender calls the external scheduling optimizer over gRPC.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrUnavailable is returned when the recommender cannot be reached or the
// circuit breaker is open.
var ErrUnavailable = errors.New("recommender unavailable")

// Config configures the client.
type Config struct {
	Addr             string
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultConfig returns the default client settings for addr.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:             addr,
		Timeout:          2 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Client implements domain.Recommender over gRPC.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*structpb.Struct]
	metrics observability.Metrics
	logger  *slog.Logger
}

// Dial connects to the recommender at cfg.Addr.
func Dial(cfg Config, metrics observability.Metrics, logger *slog.Logger, opts ...grpc.DialOption) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("recommender address is required")
	}
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommender client: %w", err)
	}
	return NewClient(conn, cfg, metrics, logger), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn, cfg Config, metrics observability.Metrics, logger *slog.Logger) *Client {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "recommender",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("recommender breaker state changed",
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		conn:    conn,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker[*structpb.Struct](settings),
		metrics: metrics,
		logger:  logger,
	}
}

// Recommend asks the optimizer for a new start time for b. An empty
// recommendation means the optimizer had nothing to offer.
func (c *Client) Recommend(ctx context.Context, b *domain.Booking, arrival domain.ArrivalType) (domain.Recommendation, error) {
	req, err := encodeRequest(requestFromBooking(b, arrival))
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("encode recommend request: %w", err)
	}

	var notFound bool
	out, err := c.breaker.Execute(func() (*structpb.Struct, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp := new(structpb.Struct)
		if err := c.conn.Invoke(callCtx, recommendMethod, req, resp); err != nil {
			if status.Code(err) == codes.NotFound {
				notFound = true
				return nil, nil
			}
			return nil, err
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.Counter(observability.MetricRecommenderCalls, 1, observability.T("result", "open"))
		return domain.Recommendation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		c.metrics.Counter(observability.MetricRecommenderCalls, 1, observability.T("result", "error"))
		return domain.Recommendation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case notFound:
		c.metrics.Counter(observability.MetricRecommenderCalls, 1, observability.T("result", "empty"))
		return domain.Recommendation{}, nil
	}

	resp, err := decodeResponse(out)
	if err != nil {
		c.metrics.Counter(observability.MetricRecommenderCalls, 1, observability.T("result", "invalid"))
		return domain.Recommendation{}, fmt.Errorf("decode recommend response: %w", err)
	}

	result := "ok"
	if resp.Start.IsZero() {
		result = "empty"
	}
	c.metrics.Counter(observability.MetricRecommenderCalls, 1, observability.T("result", result))
	return domain.Recommendation{Start: resp.Start, ProviderIDs: resp.ProviderIDs}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
