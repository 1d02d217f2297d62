package query

import (
	"fmt"
	"time"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/fixed8"
	"github.com/KeithSSmith/switcheolytics-api/pkg/utils"
	"github.com/go-jose/go-jose/v4/json"
)

// Store drivers.
const (
	DriverClickHouse = "clickhouse"
	DriverMemory     = "memory"
)

var defaultTradePairs = []string{"SWTH_NEO", "GAS_NEO", "RPX_NEO", "DBC_NEO", "QLC_NEO", "SOUL_NEO", "TKY_NEO", "ZPT_NEO", "EFX_NEO", "MCT_NEO", "ONT_NEO", "APH_NEO"}

// Config is the process configuration read from the environment.
type Config struct {
	Addr           string
	StoreDriver    string
	StoreFixtures  string
	RequestTimeout time.Duration
	Parallelism    int

	BurnEnabled    bool
	BalanceAPIURL  string
	BalanceTimeout time.Duration
	Burn           analytics.BurnConfig

	Backfill          analytics.Backfill
	TradePairs        []string
	BlockHeightOffset int64
}

// LoadConfig reads every query service variable.
func LoadConfig() (Config, error) {
	cfg := Config{
		Addr:           utils.Env("ADDR", ":3001"),
		StoreDriver:    utils.Env("STORE_DRIVER", DriverClickHouse),
		StoreFixtures:  utils.Env("STORE_FIXTURES", ""),
		RequestTimeout: utils.EnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		Parallelism:    utils.EnvInt("QUERY_PARALLELISM", 8),

		BurnEnabled:    utils.EnvBool("BURN_ENABLED", true),
		BalanceAPIURL:  utils.Env("BALANCE_API_URL", "https://api.neoscan.io/api/main_net"),
		BalanceTimeout: utils.EnvDuration("BALANCE_TIMEOUT", 10*time.Second),
		Burn: analytics.BurnConfig{
			TrackedAsset:  utils.Env("BURN_TRACKED_ASSET", "SWTH"),
			BurnAddress:   utils.Env("BURN_ADDRESS", "AFmseVrdL9f9oyCzZefL9tG6UbvhPbdYzM"),
			LegacyV1Burn:  utils.EnvInt64("BURN_LEGACY_V1", 0),
			LedgerStart:   utils.EnvInt64("LEDGER_START_EPOCH", 0),
			StrictBalance: utils.EnvBool("BURN_BALANCE_STRICT", false),
		},

		TradePairs:        utils.EnvList("TRADE_PAIRS", defaultTradePairs),
		BlockHeightOffset: utils.EnvInt64("BLOCK_HEIGHT_OFFSET", 2_000_000),
	}

	switch cfg.StoreDriver {
	case DriverClickHouse:
	case DriverMemory:
		if cfg.StoreFixtures == "" {
			return Config{}, fmt.Errorf("STORE_FIXTURES is required with STORE_DRIVER=%s", DriverMemory)
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if raw := utils.Env("FEE_BACKFILL", ""); raw != "" {
		var backfill analytics.Backfill
		if err := json.Unmarshal([]byte(raw), &backfill); err != nil {
			return Config{}, fmt.Errorf("parse FEE_BACKFILL: %w", err)
		}
		for asset, points := range backfill {
			for _, p := range points {
				if _, err := fixed8.FromDecimal(p.FeeAmount); err != nil {
					return Config{}, fmt.Errorf("FEE_BACKFILL %s %s: %w", asset, p.BlockDate, err)
				}
			}
		}
		cfg.Backfill = backfill
	}

	return cfg, nil
}
