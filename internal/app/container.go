package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/ledger/internal/accounting"
	closepkg "github.com/odyssey-erp/ledger/internal/close"
	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
	"github.com/odyssey-erp/ledger/internal/masterdata/counterparties"
	"github.com/odyssey-erp/ledger/internal/masterdata/organizations"
	"github.com/odyssey-erp/ledger/internal/observability"
	"github.com/odyssey-erp/ledger/internal/platform/cache"
	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Container owns the process-wide connections and the services built on them.
type Container struct {
	Config  *Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Cache   *cache.Cache
	Metrics *observability.Metrics

	Ledger         *accounting.Module
	Organizations  *organizations.Service
	Companies      *companies.Service
	Counterparties *counterparties.Service
	Tasks          *closepkg.Service
	Idempotency    *shared.IdempotencyStore
}

// NewContainer connects to Postgres and Redis and wires every service.
// A Redis outage only disables report caching.
func NewContainer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var (
		redisClient *redis.Client
		reportCache *cache.Cache
	)
	if cfg.RedisAddr != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			reportCache = cache.New(redisClient, cfg.ReportCacheTTL)
		}
	}

	metrics := observability.NewMetrics()
	audit := shared.NewAuditLogger(pool)
	idem := shared.NewIdempotencyStore(pool)

	ledger := accounting.NewModule(accounting.Deps{
		Pool:        pool,
		Cache:       reportCache,
		Audit:       audit,
		Idempotency: idem,
		Metrics:     metrics.Ledger(),
	})

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		Redis:          redisClient,
		Cache:          reportCache,
		Metrics:        metrics,
		Ledger:         ledger,
		Organizations:  organizations.NewService(organizations.NewRepository(pool)),
		Companies:      companies.NewService(companies.NewRepository(pool)),
		Counterparties: counterparties.NewService(counterparties.NewRepository(pool), ledger.Dimensions),
		Tasks:          closepkg.NewService(closepkg.NewRepository(pool), audit),
		Idempotency:    idem,
	}, nil
}

// Close releases the connections held by the container.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
