// Package analytics computes the dashboard reports over ingested exchange activity.
//
// Every report reads the clock once, builds a Catalog from that reading and passes it to all
// aggregations of the request. The engine holds collaborators only and keeps no state between
// requests.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// Clock returns the current epoch in seconds.
type Clock func() int64

// SystemClock reads the wall clock.
func SystemClock() int64 {
	return time.Now().Unix()
}

// Stores bundles the read-side collaborators of the engine.
type Stores struct {
	Fees      FeeStore
	Addresses AddressStore
	Offers    OfferStore
	Counter   Counter
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Anchors           []Anchor
	Parallelism       int
	Backfill          Backfill
	TradePairs        TradePairs
	BlockHeightOffset int64
	TrackedAsset      string
	Clock             Clock
}

const (
	defaultParallelism  = 8
	defaultTrackedAsset = "SWTH"
)

// Engine serves every analytics report.
type Engine struct {
	logger      *zap.Logger
	stores      Stores
	opts        Options
	pool        pond.Pool
	fees        *FeeAggregator
	series      *SeriesMerger
	leaderboard LeaderboardBuilder
	burn        *BurnReconciler
}

// NewEngine wires an engine over stores. Close releases its worker pool.
func NewEngine(logger *zap.Logger, stores Stores, opts Options) *Engine {
	if opts.Parallelism <= 0 {
		opts.Parallelism = defaultParallelism
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Anchors == nil {
		opts.Anchors = DefaultAnchors
	}
	if opts.TrackedAsset == "" {
		opts.TrackedAsset = defaultTrackedAsset
	}

	pool := pond.NewPool(opts.Parallelism)

	return &Engine{
		logger: logger,
		stores: stores,
		opts:   opts,
		pool:   pool,
		fees:   NewFeeAggregator(stores.Fees, pool),
		series: NewSeriesMerger(opts.Backfill),
	}
}

// WithBurn enables the burn report.
func (e *Engine) WithBurn(b *BurnReconciler) *Engine {
	e.burn = b
	return e
}

// BurnEnabled reports whether a burn reconciler is attached.
func (e *Engine) BurnEnabled() bool {
	return e.burn != nil
}

// Catalog builds the window catalog from a single clock reading.
func (e *Engine) Catalog() Catalog {
	return NewCatalog(e.opts.Clock(), e.opts.Anchors...)
}

// Close stops the worker pool, waiting for running queries.
func (e *Engine) Close() {
	e.pool.StopAndWait()
}

// FeeAmounts returns window -> asset -> summed legacy fee amount (raw fixed-point).
func (e *Engine) FeeAmounts(ctx context.Context) (map[string]map[string]int64, error) {
	return e.windowed(ctx, "fee amounts", FeeQuery{Scheme: SchemeLegacy, Reduce: ReduceSum})
}

// FeeCounts returns window -> asset -> number of legacy fee records.
func (e *Engine) FeeCounts(ctx context.Context) (map[string]map[string]int64, error) {
	return e.windowed(ctx, "fee counts", FeeQuery{Scheme: SchemeLegacy, Reduce: ReduceCount})
}

func (e *Engine) windowed(ctx context.Context, report string, q FeeQuery) (map[string]map[string]int64, error) {
	start := time.Now()
	cat := e.Catalog()

	out, err := e.fees.AggregateWindows(ctx, cat.Windows(), q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", report, err)
	}

	e.logger.Debug("Windowed report computed",
		zap.String("report", report),
		zap.Int("windows", len(out)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// FeeGraph returns the per-asset daily fee series in display units.
func (e *Engine) FeeGraph(ctx context.Context) (map[string][]TimeSeriesPoint, error) {
	start := time.Now()
	out, err := e.series.Merge(ctx, e.fees)
	if err != nil {
		return nil, fmt.Errorf("fee graph: %w", err)
	}
	e.logger.Debug("Fee graph computed", zap.Int("assets", len(out)), zap.Duration("duration", time.Since(start)))
	return out, nil
}

// Burn returns the burn report, or ErrBurnDisabled when no reconciler is attached.
func (e *Engine) Burn(ctx context.Context) (BurnReport, error) {
	if e.burn == nil {
		return BurnReport{}, ErrBurnDisabled
	}
	report, err := e.burn.Reconcile(ctx, e.fees, e.Catalog())
	if err != nil {
		return BurnReport{}, fmt.Errorf("burn report: %w", err)
	}
	return report, nil
}

// Leaderboard ranks addresses along dim.
func (e *Engine) Leaderboard(ctx context.Context, dim Dimension) (map[string][]LeaderboardEntry, error) {
	docs, err := e.stores.Addresses.AddressDocuments(ctx, dim.Field)
	if err != nil {
		return nil, fmt.Errorf("%s leaderboard: %w", dim.Name, err)
	}
	return e.leaderboard.Rank(docs, dim), nil
}

// RichList ranks addresses by total tracked-asset balance.
func (e *Engine) RichList(ctx context.Context) (map[string][]RichListEntry, error) {
	docs, err := e.stores.Addresses.AddressDocuments(ctx, FieldRichList)
	if err != nil {
		return nil, fmt.Errorf("rich list: %w", err)
	}
	return e.leaderboard.RankRichList(docs, e.opts.TrackedAsset), nil
}

// OpenOffers lists open offers with their resolved trade pair.
func (e *Engine) OpenOffers(ctx context.Context) ([]OpenOffer, error) {
	return ListOpenOffers(ctx, e.stores.Offers, e.opts.TradePairs)
}

// IngestedCount returns the row count of collection. Blocks are offset by BlockHeightOffset,
// the height at which ingestion started.
func (e *Engine) IngestedCount(ctx context.Context, collection string) (int64, error) {
	n, err := e.stores.Counter.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	if collection == CollectionBlocks {
		n += e.opts.BlockHeightOffset
	}
	return n, nil
}
