package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/KeithSSmith/switcheolytics-api/pkg/fixed8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrBurnDisabled is returned when the engine was built without a burn reconciler.
	ErrBurnDisabled = errors.New("burn reconciliation is not enabled")
	// ErrBalanceUnavailable wraps balance lookup failures in strict mode.
	ErrBalanceUnavailable = errors.New("burn address balance unavailable")
)

// Holding is one asset balance of an address, Amount in display units.
type Holding struct {
	Asset       string          `json:"asset"`
	AssetSymbol string          `json:"asset_symbol"`
	Amount      decimal.Decimal `json:"amount"`
}

// BalanceSource looks up the current holdings of a public address.
type BalanceSource interface {
	Balance(ctx context.Context, address string) ([]Holding, error)
}

// BurnConfig holds the constants of the burn reconciliation.
type BurnConfig struct {
	TrackedAsset string
	BurnAddress  string
	// LegacyV1Burn is the raw amount burned before structured fee records existed.
	LegacyV1Burn int64
	// LedgerStart is the start epoch of the all_epoch window.
	LedgerStart int64
	// StrictBalance fails the report when the balance lookup fails instead of counting zero.
	StrictBalance bool
}

// BurnReport is the per-window burn breakdown. All values are raw fixed-point integers.
type BurnReport struct {
	V2       map[string]int64 `json:"V2"`
	V3       map[string]int64 `json:"V3"`
	AllBurnt map[string]int64 `json:"all_burnt"`
}

// BurnReconciler combines both fee schemes, the burn address balance and the V1 constant
// into one total burned figure.
type BurnReconciler struct {
	cfg      BurnConfig
	balances BalanceSource
	logger   *zap.Logger
}

// NewBurnReconciler returns a reconciler reading the burn address through balances.
func NewBurnReconciler(logger *zap.Logger, cfg BurnConfig, balances BalanceSource) *BurnReconciler {
	return &BurnReconciler{cfg: cfg, balances: balances, logger: logger}
}

// Reconcile computes the burn report over every window of cat plus all_epoch.
//
// all_burnt of a rolling window is the V2 + V3 flow inside that window only. The burn address
// balance and the V1 constant are cumulative and only enter all_burnt[all_epoch].
func (b *BurnReconciler) Reconcile(ctx context.Context, agg *FeeAggregator, cat Catalog) (BurnReport, error) {
	addressBalance, err := b.burnAddressBalance(ctx)
	if err != nil {
		return BurnReport{}, err
	}

	windows := cat.With(WindowAllEpoch, b.cfg.LedgerStart).Windows()

	v2, err := agg.AggregateWindows(ctx, windows, FeeQuery{
		Scheme: SchemeLegacy,
		Asset:  b.cfg.TrackedAsset,
		Reduce: ReduceSum,
	})
	if err != nil {
		return BurnReport{}, fmt.Errorf("v2 burn sums: %w", err)
	}

	v3, err := agg.AggregateWindows(ctx, windows, FeeQuery{
		Scheme: SchemeBurn,
		Asset:  b.cfg.TrackedAsset,
		Reduce: ReduceSum,
	})
	if err != nil {
		return BurnReport{}, fmt.Errorf("v3 burn sums: %w", err)
	}

	report := BurnReport{
		V2:       make(map[string]int64, len(windows)),
		V3:       make(map[string]int64, len(windows)),
		AllBurnt: make(map[string]int64, len(windows)),
	}
	for _, w := range windows {
		report.V2[w.Name] = v2[w.Name][b.cfg.TrackedAsset]
		report.V3[w.Name] = v3[w.Name][b.cfg.TrackedAsset]
	}

	for _, w := range cat.Rolling() {
		report.AllBurnt[w.Name] = report.V2[w.Name] + report.V3[w.Name]
	}
	report.AllBurnt[WindowAllEpoch] = b.cfg.LegacyV1Burn + addressBalance +
		report.V2[WindowAllEpoch] + report.V3[WindowAllEpoch]

	b.logger.Debug("Burn report computed",
		zap.Int("windows", len(windows)),
		zap.Int64("address_balance", addressBalance),
		zap.Int64("total_burned", report.AllBurnt[WindowAllEpoch]),
	)

	return report, nil
}

// burnAddressBalance returns the raw tracked-asset balance held by the burn address.
// A failed lookup counts as zero unless StrictBalance is set; a missing sub-balance always counts as zero.
func (b *BurnReconciler) burnAddressBalance(ctx context.Context) (int64, error) {
	holdings, err := b.balances.Balance(ctx, b.cfg.BurnAddress)
	if err != nil {
		if b.cfg.StrictBalance {
			return 0, fmt.Errorf("%w: %w", ErrBalanceUnavailable, err)
		}
		b.logger.Warn("Burn address balance lookup failed, counting zero",
			zap.String("address", b.cfg.BurnAddress),
			zap.Error(err),
		)
		return 0, nil
	}

	for _, h := range holdings {
		if h.AssetSymbol == b.cfg.TrackedAsset || (h.AssetSymbol == "" && h.Asset == b.cfg.TrackedAsset) {
			raw, err := fixed8.FromDecimal(h.Amount)
			if err != nil {
				return 0, fmt.Errorf("burn address balance: %w", err)
			}
			return raw, nil
		}
	}

	b.logger.Warn("Burn address holds no tracked asset, counting zero",
		zap.String("address", b.cfg.BurnAddress),
		zap.String("asset", b.cfg.TrackedAsset),
	)
	return 0, nil
}
