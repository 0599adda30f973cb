package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/commands"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/workers"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/guard"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/notify"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/persistence"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/recommender"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/autoresolve/pkg/config"
	"github.com/felixgeelhaar/autoresolve/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	DB    database.Connection
	Repos *persistence.Repositories

	// Redis (optional)
	RedisClient *redis.Client

	// Events
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	OutboxProcessor   *outbox.Processor

	// Collaborators
	Holidays          domain.HolidaySource
	RecommenderClient *recommender.Client
	Rescheduler       *persistence.Rescheduler
	Trigger           *persistence.CancellationTrigger
	Notifier          *notify.OutboxNotifier

	// Services
	Blackouts   *services.BlackoutCalendar
	Eligibility *services.EligibilityEvaluator
	Selector    *services.DateSelector
	Canceller   *services.CancellationExecutor

	// Command Handlers
	ResolveBookingHandler *commands.ResolveBookingHandler
	RunBatchHandler       *commands.RunBatchHandler

	// Query Handlers
	ListOutcomesHandler   *queries.ListOutcomesHandler
	CheckBlackoutHandler  *queries.CheckBlackoutHandler
	ListCandidatesHandler *queries.ListCandidatesHandler

	// Workers
	ResolutionWorker *workers.ResolutionWorker

	closers []func() error
}

// NewContainer connects to the configured backends and wires every component.
// Redis, RabbitMQ and the recommender are optional.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.connectDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.setupEvents(); err != nil {
		c.Close()
		return nil, err
	}

	holidays, err := buildHolidaySource(cfg, c.RedisClient, c.Metrics, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Holidays = holidays

	var rec domain.Recommender
	if cfg.RecommenderAddr != "" {
		rcfg := recommender.DefaultConfig(cfg.RecommenderAddr)
		rcfg.Timeout = cfg.RecommenderTimeout
		client, err := recommender.Dial(rcfg, c.Metrics, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.RecommenderClient = client
		c.closers = append(c.closers, client.Close)
		rec = client
		logger.Info("recommender configured", "addr", cfg.RecommenderAddr)
	}

	c.wireResolution(rec)
	return c, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	cfg := c.Config
	driver, err := database.ParseDriver(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	conn, err := database.Open(ctx, database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = conn
	c.closers = append(c.closers, conn.Close)
	c.Logger.Info("connected to database", "driver", driver)

	// SQLite is the zero-configuration mode and migrates itself.
	if driver == database.DriverSQLite {
		if _, err := c.Migrate(ctx); err != nil {
			c.Close()
			return err
		}
	}

	repos, err := persistence.NewRepositories(conn)
	if err != nil {
		c.Close()
		return err
	}
	c.Repos = repos
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))
	return nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, running without holiday cache and in-flight guard", "error", err)
		return nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, running without holiday cache and in-flight guard", "error", err)
		return nil
	}
	c.RedisClient = client
	c.closers = append(c.closers, client.Close)
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

// setupEvents picks the outbox publisher: RabbitMQ when configured, otherwise
// the in-process bus that hands events straight to local consumers.
func (c *Container) setupEvents() error {
	cfg := c.Config
	c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
	c.InProcessEventBus.RegisterConsumer(notify.NewConsumer(notify.NewLogSender(c.Logger), c.Logger))

	switch {
	case cfg.RabbitMQURL == "":
		c.EventPublisher = c.InProcessEventBus
		c.Logger.Info("no broker configured, delivering events in process")
	default:
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		} else {
			c.EventPublisher = publisher
			c.closers = append(c.closers, publisher.Close)
		}
	}

	c.OutboxProcessor = outbox.NewProcessor(c.Repos.Outbox, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		RetentionDays:    cfg.OutboxRetentionDays,
		CleanupInterval:  cfg.OutboxCleanupInterval,
	}, c.Metrics, c.Logger)
	return nil
}

func (c *Container) wireResolution(rec domain.Recommender) {
	cfg, logger, repos := c.Config, c.Logger, c.Repos

	c.Rescheduler = persistence.NewRescheduler(repos.UnitOfWork, repos.Bookings, repos.Outbox, logger)
	c.Trigger = persistence.NewCancellationTrigger(repos.UnitOfWork, repos.Bookings, repos.Outbox)
	c.Notifier = notify.NewOutboxNotifier(repos.Outbox)

	raceGuard := guard.Chain{guard.NewProviderGuard(repos.Bookings)}
	if c.RedisClient != nil {
		raceGuard = append(raceGuard, guard.NewInflightGuard(guard.NewRedisLockStore(c.RedisClient), cfg.ResolverInflightTTL))
	}

	c.Blackouts = services.NewBlackoutCalendar(c.Holidays, logger)
	c.Eligibility = services.NewEligibilityEvaluator(repos.Regions, repos.Bookings, cfg.DefaultWindowMinutes, logger)
	c.Selector = services.NewDefaultDateSelector(rec, repos.Regions, c.Blackouts, logger)
	c.Canceller = services.NewCancellationExecutor(
		repos.UnitOfWork,
		persistence.FullRefundCalculator{},
		c.Trigger,
		repos.Cancellations,
		repos.Outcomes,
		c.Notifier,
		time.Now,
		logger,
	)

	c.ResolveBookingHandler = commands.NewResolveBookingHandler(
		raceGuard,
		repos.Regions,
		c.Eligibility,
		c.Selector,
		c.Rescheduler,
		c.Canceller,
		repos.Outcomes,
		cfg.DefaultMaxAttempts,
		time.Now,
		logger,
	)
	c.RunBatchHandler = commands.NewRunBatchHandler(
		c.Eligibility,
		c.ResolveBookingHandler,
		cfg.ResolverConcurrency,
		c.Metrics,
		time.Now,
		logger,
	)

	c.ListOutcomesHandler = queries.NewListOutcomesHandler(repos.Outcomes)
	c.CheckBlackoutHandler = queries.NewCheckBlackoutHandler(c.Blackouts)
	c.ListCandidatesHandler = queries.NewListCandidatesHandler(c.Eligibility, time.Now)

	c.ResolutionWorker = workers.NewResolutionWorker(c.RunBatchHandler, workers.ResolutionWorkerConfig{
		Interval: cfg.ResolverInterval,
	}, logger)
}

// Migrate applies pending schema migrations.
func (c *Container) Migrate(ctx context.Context) ([]string, error) {
	applied, err := migrations.Run(ctx, c.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		c.Logger.Info("migrations applied", "versions", applied)
	}
	return applied, nil
}

// SeedRegions applies a region seed file and returns the number of regions
// written.
func (c *Container) SeedRegions(ctx context.Context, path string) (int, error) {
	seed, err := persistence.LoadSeed(path)
	if err != nil {
		return 0, err
	}
	if err := seed.Apply(ctx, c.Repos.UnitOfWork, c.Repos.Regions); err != nil {
		return 0, err
	}
	c.Logger.Info("region seed applied", "path", path, "regions", len(seed.Regions))
	return len(seed.Regions), nil
}

// Close releases all resources in reverse order of acquisition.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.ResolutionWorker != nil {
		c.ResolutionWorker.Stop()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if err := errors.Join(errs...); err != nil {
		c.Logger.Warn("error closing resources", "error", err)
	}
}
