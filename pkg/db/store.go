package db

import (
	"context"
	"fmt"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db/clickhouse"
	"go.uber.org/zap"
)

// Store reads the ingested collections from ClickHouse. It implements every analytics store
// interface and never writes.
type Store struct {
	clickhouse.Client
}

// NewStore connects to the analytics database described by cfg.
func NewStore(ctx context.Context, logger *zap.Logger, cfg clickhouse.Config) (*Store, error) {
	client, err := clickhouse.New(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Client: client}, nil
}

var (
	_ analytics.FeeStore     = (*Store)(nil)
	_ analytics.AddressStore = (*Store)(nil)
	_ analytics.OfferStore   = (*Store)(nil)
	_ analytics.Counter      = (*Store)(nil)
)

// countable lists the collections Count accepts.
var countable = map[string]bool{
	analytics.CollectionBlocks:       true,
	analytics.CollectionTransactions: true,
	analytics.CollectionFees:         true,
}

// Count implements analytics.Counter.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	query, err := countQuery(s.Database, collection)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("query count %s failed: %w", collection, err)
	}
	return n, nil
}

func countQuery(database, collection string) (string, error) {
	if !countable[collection] {
		return "", fmt.Errorf("collection %q cannot be counted", collection)
	}
	return fmt.Sprintf(`SELECT toInt64(count()) AS n FROM "%s"."%s"`, database, collection), nil
}

type offerRow struct {
	ID             string `ch:"offer_hash"`
	MakerAddress   string `ch:"maker_address"`
	AmountFilled   int64  `ch:"amount_filled"`
	OfferAssetName string `ch:"offer_asset_name"`
	OfferAmount    int64  `ch:"offer_amount"`
	WantAssetName  string `ch:"want_asset_name"`
	WantAmount     int64  `ch:"want_amount"`
}

// OpenOffers implements analytics.OfferStore.
func (s *Store) OpenOffers(ctx context.Context) ([]analytics.OfferRecord, error) {
	var rows []offerRow
	if err := s.Select(ctx, &rows, openOffersQuery(s.Database)); err != nil {
		return nil, fmt.Errorf("query open offers failed: %w", err)
	}

	out := make([]analytics.OfferRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.OfferRecord(r))
	}
	return out, nil
}

func openOffersQuery(database string) string {
	return fmt.Sprintf(`
		SELECT
			offer_hash,
			maker_address,
			amount_filled,
			offer_asset_name,
			offer_amount,
			want_asset_name,
			want_amount
		FROM "%s"."offer_hash"
		WHERE status = 'open'
		ORDER BY offer_hash
	`, database)
}
