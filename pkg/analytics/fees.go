package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"
)

// ContractVersion is the exchange contract generation that produced a fee record.
type ContractVersion string

const (
	ContractV1 ContractVersion = "V1"
	ContractV2 ContractVersion = "V2"
	ContractV3 ContractVersion = "V3"
)

// FeeRecord is one ingested fill fee. Amounts are raw fixed-point integers (see pkg/fixed8).
// FeeAmount and TakerFeeBurnAmount are nil when the ingester stored no value.
type FeeRecord struct {
	FeeAssetName       string          `json:"fee_asset_name"`
	FeeAmount          *int64          `json:"fee_amount"`
	ContractVersion    ContractVersion `json:"contract_version"`
	TakerFeeAssetName  string          `json:"taker_fee_asset_name,omitempty"`
	TakerFeeBurnAmount *int64          `json:"taker_fee_burn_amount,omitempty"`
	TakerFeeBurn       bool            `json:"taker_fee_burn,omitempty"`
	BlockTime          int64           `json:"block_time"`
	BlockDate          string          `json:"block_date"`
}

// Scheme selects one of the two fee accounting conventions.
// A V3 record can match both schemes at once.
type Scheme int

const (
	// SchemeLegacy matches records with a fee_amount, grouped by fee_asset_name.
	SchemeLegacy Scheme = iota
	// SchemeBurn matches records with taker_fee_burn set and a taker_fee_burn_amount,
	// grouped by taker_fee_asset_name.
	SchemeBurn
)

func (s Scheme) String() string {
	switch s {
	case SchemeLegacy:
		return "legacy"
	case SchemeBurn:
		return "burn"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// InScheme reports whether r carries the fields required by s.
func (r FeeRecord) InScheme(s Scheme) bool {
	switch s {
	case SchemeLegacy:
		return r.FeeAmount != nil
	case SchemeBurn:
		return r.TakerFeeBurn && r.TakerFeeBurnAmount != nil
	default:
		return false
	}
}

// AssetFor returns the asset the record is denominated in under s.
func (r FeeRecord) AssetFor(s Scheme) string {
	if s == SchemeBurn {
		return r.TakerFeeAssetName
	}
	return r.FeeAssetName
}

// AmountFor returns the raw amount under s, zero when the record is outside s.
func (r FeeRecord) AmountFor(s Scheme) int64 {
	switch {
	case s == SchemeLegacy && r.FeeAmount != nil:
		return *r.FeeAmount
	case s == SchemeBurn && r.TakerFeeBurnAmount != nil:
		return *r.TakerFeeBurnAmount
	default:
		return 0
	}
}

// GroupBy picks the grouping key of an aggregate.
type GroupBy int

const (
	GroupByAsset GroupBy = iota
	GroupByAssetDate
)

// Reducer picks the reduction applied per group.
type Reducer int

const (
	ReduceSum Reducer = iota
	ReduceCount
)

// FeeQuery describes one aggregate over the fees collection.
// Window nil means all time; Asset empty means every asset.
type FeeQuery struct {
	Scheme  Scheme
	Window  *Window
	Asset   string
	GroupBy GroupBy
	Reduce  Reducer
}

// Matches is the filter predicate of q evaluated against a single record.
// Stores that cannot push the predicate down evaluate it row by row.
func (q FeeQuery) Matches(r FeeRecord) bool {
	if !r.InScheme(q.Scheme) {
		return false
	}
	if q.Asset != "" && r.AssetFor(q.Scheme) != q.Asset {
		return false
	}
	if q.Window != nil && !q.Window.Contains(r.BlockTime) {
		return false
	}
	return true
}

// ForWindow returns a copy of q bounded by w.
func (q FeeQuery) ForWindow(w Window) FeeQuery {
	q.Window = &w
	return q
}

// FeeGroup is one row of an aggregate. Date is empty unless grouped by date.
type FeeGroup struct {
	Asset string
	Date  string
	Value int64
}

// FeeStore is the read side of the fees collection.
type FeeStore interface {
	// AggregateFees runs q and returns one row per distinct group present in matching records.
	AggregateFees(ctx context.Context, q FeeQuery) ([]FeeGroup, error)
	// DistinctFeeAssets lists every asset symbol that appears under s.
	DistinctFeeAssets(ctx context.Context, s Scheme) ([]string, error)
}

// DatedAmount is a raw per-day value of a single asset.
type DatedAmount struct {
	Date  string
	Value int64
}

// FeeAggregator turns FeeStore rows into per-asset maps.
type FeeAggregator struct {
	store FeeStore
	pool  pond.Pool
}

// NewFeeAggregator returns an aggregator over store. Per-window queries are fanned out on pool;
// a nil pool runs them sequentially.
func NewFeeAggregator(store FeeStore, pool pond.Pool) *FeeAggregator {
	return &FeeAggregator{store: store, pool: pool}
}

// Aggregate returns asset -> reduced value. Assets with no matching record are absent.
func (a *FeeAggregator) Aggregate(ctx context.Context, q FeeQuery) (map[string]int64, error) {
	q.GroupBy = GroupByAsset
	rows, err := a.store.AggregateFees(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s fees: %w", q.Scheme, err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Asset] += row.Value
	}
	return out, nil
}

// Daily returns asset -> per-date values in store order.
func (a *FeeAggregator) Daily(ctx context.Context, q FeeQuery) (map[string][]DatedAmount, error) {
	q.GroupBy = GroupByAssetDate
	rows, err := a.store.AggregateFees(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily %s fees: %w", q.Scheme, err)
	}

	out := make(map[string][]DatedAmount)
	for _, row := range rows {
		out[row.Asset] = append(out[row.Asset], DatedAmount{Date: row.Date, Value: row.Value})
	}
	return out, nil
}

// DistinctAssets returns the union of assets seen under every given scheme, first seen first.
func (a *FeeAggregator) DistinctAssets(ctx context.Context, schemes ...Scheme) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range schemes {
		assets, err := a.store.DistinctFeeAssets(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("distinct %s fee assets: %w", s, err)
		}
		for _, asset := range assets {
			if _, ok := seen[asset]; ok {
				continue
			}
			seen[asset] = struct{}{}
			out = append(out, asset)
		}
	}
	return out, nil
}

// AggregateWindows runs base once per window and returns window name -> asset -> value.
// Every window is always present, possibly with an empty map.
func (a *FeeAggregator) AggregateWindows(ctx context.Context, windows []Window, base FeeQuery) (map[string]map[string]int64, error) {
	results := xsync.NewMap[string, map[string]int64]()

	if a.pool == nil {
		for _, w := range windows {
			values, err := a.Aggregate(ctx, base.ForWindow(w))
			if err != nil {
				return nil, fmt.Errorf("window %s: %w", w.Name, err)
			}
			results.Store(w.Name, values)
		}
		return collect(results, len(windows)), nil
	}

	group := a.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var (
		errMu    sync.Mutex
		firstErr error
	)
	for _, w := range windows {
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			values, err := a.Aggregate(groupCtx, base.ForWindow(w))
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("window %s: %w", w.Name, err)
				}
				errMu.Unlock()
				return err
			}
			results.Store(w.Name, values)
			return nil
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return collect(results, len(windows)), nil
}

func collect(m *xsync.Map[string, map[string]int64], size int) map[string]map[string]int64 {
	out := make(map[string]map[string]int64, size)
	m.Range(func(name string, values map[string]int64) bool {
		out[name] = values
		return true
	})
	return out
}
