// Package memory is an in-process implementation of the analytics stores.
//
// It evaluates the same predicates as the ClickHouse store row by row and is used by tests
// and by STORE_DRIVER=memory for local runs over a JSON fixture.
package memory

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/go-jose/go-jose/v4/json"
)

// Store holds immutable snapshots of the ingested collections. It is safe for concurrent reads.
type Store struct {
	fees      []analytics.FeeRecord
	addresses []analytics.AddressDocument
	offers    []Offer
	counts    map[string]int64
}

// Offer is an offer_hash row together with its status.
type Offer struct {
	analytics.OfferRecord
	Status string `json:"status"`
}

// Data is the content of a store.
type Data struct {
	Fees      []analytics.FeeRecord
	Addresses []analytics.AddressDocument
	Offers    []Offer
	// Counts overrides the row count of a collection. The fees count defaults to len(Fees).
	Counts map[string]int64
}

// New returns a store over a copy of data.
func New(data Data) *Store {
	s := &Store{
		fees:      slices.Clone(data.Fees),
		addresses: slices.Clone(data.Addresses),
		offers:    slices.Clone(data.Offers),
		counts:    make(map[string]int64, len(data.Counts)+1),
	}
	s.counts[analytics.CollectionFees] = int64(len(s.fees))
	for k, v := range data.Counts {
		s.counts[k] = v
	}
	return s
}

// Load reads a JSON fixture file, see Decode for the format.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	data, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return New(data), nil
}

// AggregateFees implements analytics.FeeStore. Groups are returned in first-seen order.
func (s *Store) AggregateFees(ctx context.Context, q analytics.FeeQuery) ([]analytics.FeeGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type key struct{ asset, date string }
	index := make(map[key]int)
	out := make([]analytics.FeeGroup, 0)

	for _, r := range s.fees {
		if !q.Matches(r) {
			continue
		}
		k := key{asset: r.AssetFor(q.Scheme)}
		if q.GroupBy == analytics.GroupByAssetDate {
			k.date = r.BlockDate
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, analytics.FeeGroup{Asset: k.asset, Date: k.date})
		}
		switch q.Reduce {
		case analytics.ReduceCount:
			out[i].Value++
		default:
			out[i].Value += r.AmountFor(q.Scheme)
		}
	}
	return out, nil
}

// DistinctFeeAssets implements analytics.FeeStore.
func (s *Store) DistinctFeeAssets(ctx context.Context, scheme analytics.Scheme) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range s.fees {
		if !r.InScheme(scheme) {
			continue
		}
		asset := r.AssetFor(scheme)
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, asset)
	}
	return out, nil
}

// AddressDocuments implements analytics.AddressStore in insertion order.
func (s *Store) AddressDocuments(ctx context.Context, field string) ([]analytics.AddressDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]analytics.AddressDocument, 0)
	for _, doc := range s.addresses {
		if field == analytics.FieldRichList {
			if doc.RichList != nil {
				out = append(out, doc)
			}
			continue
		}
		if m, ok := doc.Metrics[field]; ok && m != nil {
			out = append(out, doc)
		}
	}
	return out, nil
}

// OpenOffers implements analytics.OfferStore.
func (s *Store) OpenOffers(ctx context.Context) ([]analytics.OfferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]analytics.OfferRecord, 0)
	for _, o := range s.offers {
		if o.Status == "open" {
			out = append(out, o.OfferRecord)
		}
	}
	return out, nil
}

// Count implements analytics.Counter. Unknown collections count zero.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.counts[collection], nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// fixture is the on-disk layout.
type fixture struct {
	Fees      []analytics.FeeRecord        `json:"fees"`
	Addresses []map[string]json.RawMessage `json:"addresses"`
	Offers    []Offer                      `json:"offers"`
	Counts    map[string]int64             `json:"counts"`
}

// Decode parses a fixture document:
//
//	{
//	  "fees":      [{"fee_asset_name": "SWTH", "fee_amount": 100000000, "block_time": 0, "block_date": "2018-08-01", ...}],
//	  "addresses": [{"_id": "A1", "takes": {"NEO": 3}, "rich_list": {"smart_contract": 1, "on_chain": 2, "total": 3}}],
//	  "offers":    [{"offer_hash": "h", "status": "open", "maker_address": "A1", ...}],
//	  "counts":    {"blocks": 10, "transactions": 20}
//	}
//
// Every address key other than _id and rich_list is an embedded asset map; null maps are dropped.
func Decode(raw []byte) (Data, error) {
	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Data{}, err
	}

	data := Data{Fees: f.Fees, Offers: f.Offers, Counts: f.Counts}
	for i, fields := range f.Addresses {
		doc, err := decodeAddress(fields)
		if err != nil {
			return Data{}, fmt.Errorf("address %d: %w", i, err)
		}
		data.Addresses = append(data.Addresses, doc)
	}
	return data, nil
}

func decodeAddress(fields map[string]json.RawMessage) (analytics.AddressDocument, error) {
	var doc analytics.AddressDocument
	idRaw, ok := fields["_id"]
	if !ok {
		return doc, fmt.Errorf("missing _id")
	}
	if err := json.Unmarshal(idRaw, &doc.ID); err != nil {
		return doc, fmt.Errorf("_id: %w", err)
	}

	for name, value := range fields {
		if name == "_id" || isNull(value) {
			continue
		}
		if name == analytics.FieldRichList {
			var rl analytics.RichListBalance
			if err := json.Unmarshal(value, &rl); err != nil {
				return doc, fmt.Errorf("%s: %w", name, err)
			}
			doc.RichList = &rl
			continue
		}
		var m analytics.Metrics
		if err := json.Unmarshal(value, &m); err != nil {
			return doc, fmt.Errorf("%s: %w", name, err)
		}
		if doc.Metrics == nil {
			doc.Metrics = make(map[string]analytics.Metrics)
		}
		doc.Metrics[name] = m
	}
	return doc, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
