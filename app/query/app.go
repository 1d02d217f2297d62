package query

import (
	"context"

	"github.com/KeithSSmith/switcheolytics-api/app/query/types"
	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/balance"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db/clickhouse"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db/memory"
	"github.com/KeithSSmith/switcheolytics-api/pkg/logging"
	"go.uber.org/zap"
)

// backend is what both store drivers provide.
type backend interface {
	analytics.FeeStore
	analytics.AddressStore
	analytics.OfferStore
	analytics.Counter
	types.Store
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	store, err := openStore(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("Unable to initialize store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	return NewApp(logger, cfg, store)
}

// NewApp wires the engine over store.
func NewApp(logger *zap.Logger, cfg Config, store backend) *types.App {
	engine := analytics.NewEngine(logger, analytics.Stores{
		Fees:      store,
		Addresses: store,
		Offers:    store,
		Counter:   store,
	}, analytics.Options{
		Parallelism:       cfg.Parallelism,
		Backfill:          cfg.Backfill,
		TradePairs:        analytics.NewTradePairs(cfg.TradePairs...),
		BlockHeightOffset: cfg.BlockHeightOffset,
		TrackedAsset:      cfg.Burn.TrackedAsset,
	})

	if cfg.BurnEnabled {
		balances := balance.New(balance.Opts{BaseURL: cfg.BalanceAPIURL, Timeout: cfg.BalanceTimeout})
		engine.WithBurn(analytics.NewBurnReconciler(logger, cfg.Burn, balances))
		logger.Info("Burn reconciliation enabled",
			zap.String("burn_address", cfg.Burn.BurnAddress),
			zap.String("tracked_asset", cfg.Burn.TrackedAsset),
			zap.Bool("strict_balance", cfg.Burn.StrictBalance))
	} else {
		logger.Info("Burn reconciliation disabled")
	}

	return &types.App{
		Engine:         engine,
		Store:          store,
		Addr:           cfg.Addr,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	}
}

func openStore(ctx context.Context, logger *zap.Logger, cfg Config) (backend, error) {
	if cfg.StoreDriver == DriverMemory {
		logger.Info("Using in-memory store", zap.String("fixtures", cfg.StoreFixtures))
		return memory.Load(cfg.StoreFixtures)
	}
	return db.NewStore(ctx, logger, clickhouse.ConfigFromEnv())
}
