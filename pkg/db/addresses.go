package db

import (
	"context"
	"fmt"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/go-jose/go-jose/v4/json"
)

// addressFields are the embedded JSON columns of the addresses table.
var addressFields = map[string]bool{
	analytics.FieldFeesPaid:          true,
	analytics.FieldTakes:             true,
	analytics.FieldMakes:             true,
	analytics.FieldTradeCount:        true,
	analytics.FieldTotalAmountTraded: true,
	analytics.FieldRichList:          true,
}

type addressRow struct {
	Address string `ch:"address"`
	Payload string `ch:"payload"`
}

// AddressDocuments implements analytics.AddressStore. Each embedded map is stored as a JSON
// string column; rows are ordered by address.
func (s *Store) AddressDocuments(ctx context.Context, field string) ([]analytics.AddressDocument, error) {
	query, err := addressQuery(s.Database, field)
	if err != nil {
		return nil, err
	}

	var rows []addressRow
	if err := s.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query addresses %s failed: %w", field, err)
	}

	out := make([]analytics.AddressDocument, 0, len(rows))
	for _, r := range rows {
		doc, err := decodeAddressPayload(r.Address, field, r.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func addressQuery(database, field string) (string, error) {
	if !addressFields[field] {
		return "", fmt.Errorf("unknown address field %q", field)
	}
	return fmt.Sprintf(`
		SELECT
			address,
			assumeNotNull(%s) AS payload
		FROM "%s"."addresses"
		WHERE %s IS NOT NULL AND %s != 'null'
		ORDER BY address
	`, field, database, field, field), nil
}

func decodeAddressPayload(address, field, payload string) (analytics.AddressDocument, error) {
	doc := analytics.AddressDocument{ID: address}

	if field == analytics.FieldRichList {
		var rl analytics.RichListBalance
		if err := json.Unmarshal([]byte(payload), &rl); err != nil {
			return doc, fmt.Errorf("decode %s of %s: %w", field, address, err)
		}
		doc.RichList = &rl
		return doc, nil
	}

	var m analytics.Metrics
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return doc, fmt.Errorf("decode %s of %s: %w", field, address, err)
	}
	doc.Metrics = map[string]analytics.Metrics{field: m}
	return doc, nil
}
