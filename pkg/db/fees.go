package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
)

// schemeColumns are the fees columns each scheme reads.
type schemeColumns struct {
	asset     string
	amount    string
	predicate string
}

func columnsFor(s analytics.Scheme) (schemeColumns, error) {
	switch s {
	case analytics.SchemeLegacy:
		return schemeColumns{
			asset:     "fee_asset_name",
			amount:    "fee_amount",
			predicate: "fee_amount IS NOT NULL",
		}, nil
	case analytics.SchemeBurn:
		return schemeColumns{
			asset:     "taker_fee_asset_name",
			amount:    "taker_fee_burn_amount",
			predicate: "taker_fee_burn = 1 AND taker_fee_burn_amount IS NOT NULL",
		}, nil
	default:
		return schemeColumns{}, fmt.Errorf("unsupported fee scheme %s", s)
	}
}

type feeGroupRow struct {
	Asset string `ch:"asset"`
	Date  string `ch:"day"`
	Value int64  `ch:"value"`
}

// AggregateFees implements analytics.FeeStore.
func (s *Store) AggregateFees(ctx context.Context, q analytics.FeeQuery) ([]analytics.FeeGroup, error) {
	query, args, err := feeAggregateQuery(s.Database, q)
	if err != nil {
		return nil, err
	}

	var rows []feeGroupRow
	if err := s.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query %s fee aggregate failed: %w", q.Scheme, err)
	}

	out := make([]analytics.FeeGroup, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.FeeGroup(r))
	}
	return out, nil
}

// feeAggregateQuery renders q with the same predicate as analytics.FeeQuery.Matches.
func feeAggregateQuery(database string, q analytics.FeeQuery) (string, []any, error) {
	cols, err := columnsFor(q.Scheme)
	if err != nil {
		return "", nil, err
	}

	value := fmt.Sprintf("toInt64(ifNull(sum(%s), 0))", cols.amount)
	if q.Reduce == analytics.ReduceCount {
		value = "toInt64(count())"
	}

	day, groupBy := "''", "asset"
	if q.GroupBy == analytics.GroupByAssetDate {
		day, groupBy = "toString(block_date)", "asset, day"
	}

	where, args := feeFilter(cols, q)

	query := fmt.Sprintf(`
		SELECT
			coalesce(%s, '') AS asset,
			%s AS day,
			%s AS value
		FROM "%s"."fees"
		WHERE %s
		GROUP BY %s
		ORDER BY %s
	`, cols.asset, day, value, database, where, groupBy, groupBy)

	return query, args, nil
}

func feeFilter(cols schemeColumns, q analytics.FeeQuery) (string, []any) {
	clauses := []string{cols.predicate}
	args := make([]any, 0, 3)
	if q.Asset != "" {
		clauses = append(clauses, cols.asset+" = ?")
		args = append(args, q.Asset)
	}
	if q.Window != nil {
		clauses = append(clauses, "block_time >= ?", "block_time <= ?")
		args = append(args, q.Window.Start, q.Window.End)
	}
	return strings.Join(clauses, " AND "), args
}

type assetRow struct {
	Asset string `ch:"asset"`
}

// DistinctFeeAssets implements analytics.FeeStore.
func (s *Store) DistinctFeeAssets(ctx context.Context, scheme analytics.Scheme) ([]string, error) {
	query, err := distinctAssetsQuery(s.Database, scheme)
	if err != nil {
		return nil, err
	}

	var rows []assetRow
	if err := s.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query distinct %s fee assets failed: %w", scheme, err)
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Asset)
	}
	return out, nil
}

func distinctAssetsQuery(database string, scheme analytics.Scheme) (string, error) {
	cols, err := columnsFor(scheme)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`
		SELECT DISTINCT coalesce(%s, '') AS asset
		FROM "%s"."fees"
		WHERE %s
		ORDER BY asset
	`, cols.asset, database, cols.predicate), nil
}
