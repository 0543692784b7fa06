// Package app wires application dependencies for the billing binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexthire/billing/internal/billing/application/commands"
	"github.com/nexthire/billing/internal/billing/application/queries"
	"github.com/nexthire/billing/internal/billing/domain"
	"github.com/nexthire/billing/internal/billing/infrastructure/cache"
	"github.com/nexthire/billing/internal/billing/infrastructure/persistence"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
	_ "github.com/nexthire/billing/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/nexthire/billing/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/nexthire/billing/internal/shared/infrastructure/eventbus"
	"github.com/nexthire/billing/internal/shared/infrastructure/migrations"
	"github.com/nexthire/billing/internal/shared/infrastructure/outbox"
	"github.com/nexthire/billing/pkg/config"
	"github.com/nexthire/billing/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn database.Connection

	// Redis
	RedisClient *redis.Client

	// Repositories
	TransactionRepo   domain.TransactionRepository
	AccountRepo       domain.AccountRepository
	CatalogRepo       domain.CatalogRepository
	CreditHistoryRepo domain.CreditHistoryRepository
	OutboxRepo        outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Publishers
	EventPublisher eventbus.Publisher

	// Command handlers
	InitiatePaymentHandler *commands.InitiatePaymentHandler
	ConfirmPaymentHandler  *commands.ConfirmPaymentHandler
	GrantCreditsHandler    *commands.GrantCreditsHandler

	// Query handlers
	ListPlansHandler          *queries.ListPlansHandler
	ListCreditPackagesHandler *queries.ListCreditPackagesHandler
	GetBalanceHandler         *queries.GetBalanceHandler
	ListPaymentHistoryHandler *queries.ListPaymentHistoryHandler
	ListCreditHistoryHandler  *queries.ListCreditHistoryHandler

	// Outbox processor
	OutboxProcessor *outbox.Processor

	// Health checks
	Health *observability.HealthRegistry

	// Metrics sink shared by handlers and consumers
	Metrics observability.Metrics
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Connect to the database (driver detected from the URL)
	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c.DBConn = conn
	logger.Info("connected to database", "driver", conn.Driver())

	// Apply schema migrations
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				_ = conn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, catalog caching disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					_ = conn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, catalog caching disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	repos := persistence.NewRepositories(conn)
	c.TransactionRepo = repos.Transactions
	c.AccountRepo = repos.Accounts
	c.CreditHistoryRepo = repos.CreditHistory
	c.CatalogRepo = cache.NewCachedCatalogRepository(repos.Catalog, c.RedisClient, cfg.CatalogCacheTTL, logger)

	if conn.Driver() == database.DriverSQLite {
		c.OutboxRepo = outbox.NewSQLiteRepository(conn)
	} else {
		c.OutboxRepo = outbox.NewPostgresRepository(conn)
	}

	c.UnitOfWork = database.NewUnitOfWork(conn)

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	// Create command handlers
	upi := commands.UPIConfig{
		PayeeAddress: cfg.UPIPayeeAddress,
		PayeeName:    cfg.UPIPayeeName,
	}
	c.Metrics = observability.NewInMemoryMetrics()

	c.InitiatePaymentHandler = commands.NewInitiatePaymentHandler(c.TransactionRepo, c.AccountRepo, c.CatalogRepo, c.OutboxRepo, c.UnitOfWork, upi)
	c.ConfirmPaymentHandler = commands.NewConfirmPaymentHandler(c.TransactionRepo, c.AccountRepo, c.CreditHistoryRepo, c.OutboxRepo, c.UnitOfWork)
	c.GrantCreditsHandler = commands.NewGrantCreditsHandler(c.AccountRepo, c.CreditHistoryRepo, c.UnitOfWork).
		WithMetrics(c.Metrics)

	// Create query handlers
	c.ListPlansHandler = queries.NewListPlansHandler(c.CatalogRepo)
	c.ListCreditPackagesHandler = queries.NewListCreditPackagesHandler(c.CatalogRepo)
	c.GetBalanceHandler = queries.NewGetBalanceHandler(c.AccountRepo, cfg.LowCreditThreshold)
	c.ListPaymentHistoryHandler = queries.NewListPaymentHistoryHandler(c.TransactionRepo)
	c.ListCreditHistoryHandler = queries.NewListCreditHistoryHandler(c.CreditHistoryRepo)

	// Create outbox processor
	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger).
		WithMetrics(c.Metrics)

	// Register health checks
	c.Health = observability.NewHealthRegistry()
	c.Health.Register("database", databaseHealthCheck(conn))
	if c.RedisClient != nil {
		c.Health.Register("redis", redisHealthCheck(c.RedisClient))
	}

	return c, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}

func databaseHealthCheck(conn database.Connection) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := conn.Ping(checkCtx); err != nil {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusUnhealthy,
				Message: err.Error(),
			}
		}
		return observability.HealthCheckResult{
			Status:  observability.HealthStatusHealthy,
			Details: map[string]any{"driver": string(conn.Driver())},
		}
	}
}

func redisHealthCheck(client *redis.Client) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := client.Ping(checkCtx).Err(); err != nil {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusDegraded,
				Message: err.Error(),
			}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	}
}
