package app

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/holidays"
	"github.com/felixgeelhaar/autoresolve/pkg/config"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// buildHolidaySource composes the sources named in HOLIDAY_SOURCES. Each remote
// calendar sits behind a circuit breaker and, when Redis is available, its own
// cache.
func buildHolidaySource(cfg *config.Config, redisClient *redis.Client, metrics observability.Metrics, logger *slog.Logger) (domain.HolidaySource, error) {
	cached := redisClient != nil && cfg.HolidayCacheTTL > 0
	remote := func(name string, src domain.HolidaySource) holidays.NamedSource {
		var out domain.HolidaySource = holidays.NewBreakerSource(name, src, holidays.DefaultBreakerConfig(), logger)
		if cached {
			out = holidays.NewCachedSource(name, out, holidays.NewRedisCacheStore(redisClient), cfg.HolidayCacheTTL, metrics, logger)
		}
		return holidays.NamedSource{Name: name, Source: out}
	}

	var sources []holidays.NamedSource
	for _, name := range cfg.HolidaySources {
		switch name {
		case "rules":
			sources = append(sources, holidays.NamedSource{Name: name, Source: holidays.NewRuleSource()})

		case "file":
			src, err := holidays.LoadFile(cfg.HolidayFile)
			if err != nil {
				return nil, err
			}
			sources = append(sources, holidays.NamedSource{Name: name, Source: src})

		case "caldav":
			src, err := holidays.NewCalDAVSource(holidays.CalDAVConfig{
				URL:      cfg.CalDAVURL,
				Username: cfg.CalDAVUsername,
				Password: cfg.CalDAVPassword,
			}, logger)
			if err != nil {
				return nil, err
			}
			sources = append(sources, remote(name, src))

		case "google":
			if cfg.GoogleAPIToken == "" {
				return nil, fmt.Errorf("holiday source google requires GOOGLE_API_TOKEN")
			}
			src := holidays.NewGoogleSourceWithToken(cfg.GoogleAPIToken, cfg.GoogleBaseURL)
			sources = append(sources, remote(name, src))

		default:
			return nil, fmt.Errorf("unknown holiday source %q", name)
		}
	}
	if len(sources) == 0 {
		sources = append(sources, holidays.NamedSource{Name: "rules", Source: holidays.NewRuleSource()})
	}

	logger.Info("holiday sources configured", "sources", cfg.HolidaySources, "cached", cached)
	return holidays.NewCompositeSource(logger, sources...), nil
}
