package analytics

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/KeithSSmith/switcheolytics-api/pkg/fixed8"
	"github.com/shopspring/decimal"
)

// TimeSeriesPoint is one day of fees for an asset, FeeAmount in display units.
type TimeSeriesPoint struct {
	BlockDate string  `json:"block_date"`
	FeeAmount float64 `json:"fee_amount"`
}

// BackfillPoint is a manually curated fee figure for a date without ledger records.
type BackfillPoint struct {
	BlockDate string          `json:"block_date"`
	FeeAmount decimal.Decimal `json:"fee_amount"`
}

// Backfill maps asset symbol to its curated history.
type Backfill map[string][]BackfillPoint

// SeriesMerger builds one date-ordered fee series per asset out of both fee schemes.
type SeriesMerger struct {
	backfill Backfill
}

// NewSeriesMerger returns a merger that appends backfill to the series of the matching assets.
func NewSeriesMerger(backfill Backfill) *SeriesMerger {
	return &SeriesMerger{backfill: backfill}
}

// Merge returns asset -> points sorted ascending by date.
// Every asset known under either scheme is present, possibly with an empty series.
func (m *SeriesMerger) Merge(ctx context.Context, agg *FeeAggregator) (map[string][]TimeSeriesPoint, error) {
	assets, err := agg.DistinctAssets(ctx, SchemeLegacy, SchemeBurn)
	if err != nil {
		return nil, fmt.Errorf("series assets: %w", err)
	}

	legacy, err := agg.Daily(ctx, FeeQuery{Scheme: SchemeLegacy, Reduce: ReduceSum})
	if err != nil {
		return nil, fmt.Errorf("legacy series: %w", err)
	}
	burn, err := agg.Daily(ctx, FeeQuery{Scheme: SchemeBurn, Reduce: ReduceSum})
	if err != nil {
		return nil, fmt.Errorf("burn series: %w", err)
	}

	raw := make(map[string][]DatedAmount, len(assets))
	for _, asset := range assets {
		raw[asset] = append([]DatedAmount{}, legacy[asset]...)
	}
	// Assets the distinct lookup missed still keep their legacy points.
	for asset, points := range legacy {
		if _, ok := raw[asset]; !ok {
			raw[asset] = append([]DatedAmount{}, points...)
		}
	}

	for asset, points := range burn {
		raw[asset] = mergeAdditive(raw[asset], points)
	}

	for asset, points := range m.backfill {
		for _, p := range points {
			value, err := fixed8.FromDecimal(p.FeeAmount)
			if err != nil {
				return nil, fmt.Errorf("backfill %s %s: %w", asset, p.BlockDate, err)
			}
			raw[asset] = append(raw[asset], DatedAmount{Date: p.BlockDate, Value: value})
		}
	}

	out := make(map[string][]TimeSeriesPoint, len(raw))
	for asset, points := range raw {
		slices.SortStableFunc(points, func(a, b DatedAmount) int {
			return strings.Compare(a.Date, b.Date)
		})
		series := make([]TimeSeriesPoint, 0, len(points))
		for _, p := range points {
			series = append(series, TimeSeriesPoint{BlockDate: p.Date, FeeAmount: fixed8.ToFloat(p.Value)})
		}
		out[asset] = series
	}
	return out, nil
}

// mergeAdditive folds extra into base: a point whose date already exists is added to it,
// any other point is appended.
func mergeAdditive(base, extra []DatedAmount) []DatedAmount {
	for _, p := range extra {
		merged := false
		for i := range base {
			if base[i].Date == p.Date {
				base[i].Value += p.Value
				merged = true
				break
			}
		}
		if !merged {
			base = append(base, p)
		}
	}
	return base
}
