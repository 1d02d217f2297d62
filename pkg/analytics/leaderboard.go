package analytics

import (
	"context"
	"slices"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/shopspring/decimal"
)

// KeySet is an immutable set of embedded map keys. The zero value is empty.
type KeySet struct {
	keys map[string]struct{}
}

// NoExclusions excludes nothing.
var NoExclusions = KeySet{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...string) KeySet {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return KeySet{keys: m}
}

// Contains reports whether key is in the set.
func (s KeySet) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the set size.
func (s KeySet) Len() int {
	return len(s.keys)
}

// bookkeepingKeys are non-asset counters the ingester stores next to asset keys.
var bookkeepingKeys = NewKeySet("wants", "offers")

// RichListBalance is the rich_list embedded object of an address.
type RichListBalance struct {
	SmartContract decimal.Decimal `json:"smart_contract"`
	OnChain       decimal.Decimal `json:"on_chain"`
	Total         decimal.Decimal `json:"total"`
}

// Metrics is one embedded asset -> value map. Values are exact decimals.
type Metrics map[string]decimal.Decimal

// AddressDocument is one row of the addresses collection.
// Metrics maps an embedded field name (fees_paid, takes, ...) to its asset -> value map;
// a field that is absent or null has no entry.
type AddressDocument struct {
	ID       string
	Metrics  map[string]Metrics
	RichList *RichListBalance
}

// Address collection fields.
const (
	FieldFeesPaid          = "fees_paid"
	FieldTakes             = "takes"
	FieldMakes             = "makes"
	FieldTradeCount        = "trade_count"
	FieldTotalAmountTraded = "total_amount_traded"
	FieldRichList          = "rich_list"
)

// AddressStore is the read side of the addresses collection.
type AddressStore interface {
	// AddressDocuments returns every address whose field is non-null, in a deterministic order.
	AddressDocuments(ctx context.Context, field string) ([]AddressDocument, error)
}

// Dimension is one leaderboard: the embedded map to invert, the output metric name
// and the keys to skip.
type Dimension struct {
	Name    string
	Field   string
	Metric  string
	Exclude KeySet
}

// Leaderboard dimensions served by the API.
var (
	DimensionFees        = Dimension{Name: "fees", Field: FieldFeesPaid, Metric: "fee_amount", Exclude: NoExclusions}
	DimensionTakes       = Dimension{Name: "takes", Field: FieldTakes, Metric: "trades", Exclude: bookkeepingKeys}
	DimensionMakes       = Dimension{Name: "makes", Field: FieldMakes, Metric: "trades", Exclude: bookkeepingKeys}
	DimensionTradeCount  = Dimension{Name: "trades_count", Field: FieldTradeCount, Metric: "trades", Exclude: NoExclusions}
	DimensionTradeAmount = Dimension{Name: "trades_amount", Field: FieldTotalAmountTraded, Metric: "trade_amount", Exclude: NoExclusions}
)

// number encodes a decimal as a bare JSON number, digit for digit.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

// LeaderboardEntry is one ranked address. It encodes as {"address": ..., <Metric>: value}.
type LeaderboardEntry struct {
	Address string
	Metric  string
	Value   decimal.Decimal
}

func (e LeaderboardEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"address": e.Address,
		e.Metric:  number(e.Value),
	})
}

// RichListEntry is one ranked address of the rich list.
type RichListEntry struct {
	Address       string
	SmartContract decimal.Decimal
	OnChain       decimal.Decimal
	Total         decimal.Decimal
}

func (e RichListEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Address       string `json:"address"`
		SmartContract number `json:"smart_contract"`
		OnChain       number `json:"on_chain"`
		Total         number `json:"total"`
	}{e.Address, number(e.SmartContract), number(e.OnChain), number(e.Total)})
}

// LeaderboardBuilder inverts address-keyed embedded maps into per-asset rankings.
type LeaderboardBuilder struct{}

// Rank buckets every non-excluded key of the dimension's embedded map by asset and sorts each
// bucket descending by value. Ties keep document order. Assets nobody holds have no bucket.
func (LeaderboardBuilder) Rank(docs []AddressDocument, dim Dimension) map[string][]LeaderboardEntry {
	out := make(map[string][]LeaderboardEntry)
	for _, doc := range docs {
		metrics, ok := doc.Metrics[dim.Field]
		if !ok || metrics == nil {
			continue
		}
		// keys are visited sorted so output does not depend on map iteration order.
		keys := make([]string, 0, len(metrics))
		for k := range metrics {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, asset := range keys {
			if dim.Exclude.Contains(asset) {
				continue
			}
			out[asset] = append(out[asset], LeaderboardEntry{
				Address: doc.ID,
				Metric:  dim.Metric,
				Value:   metrics[asset],
			})
		}
	}
	for asset := range out {
		rankBy(out[asset], func(e LeaderboardEntry) decimal.Decimal { return e.Value })
	}
	return out
}

// RankRichList puts every address with a rich_list under the single asset key, ordered by total.
func (LeaderboardBuilder) RankRichList(docs []AddressDocument, asset string) map[string][]RichListEntry {
	out := make(map[string][]RichListEntry)
	for _, doc := range docs {
		if doc.RichList == nil {
			continue
		}
		out[asset] = append(out[asset], RichListEntry{
			Address:       doc.ID,
			SmartContract: doc.RichList.SmartContract,
			OnChain:       doc.RichList.OnChain,
			Total:         doc.RichList.Total,
		})
	}
	if entries, ok := out[asset]; ok {
		rankBy(entries, func(e RichListEntry) decimal.Decimal { return e.Total })
	}
	return out
}

// rankBy stable-sorts entries descending by value.
func rankBy[T any](entries []T, value func(T) decimal.Decimal) {
	slices.SortStableFunc(entries, func(a, b T) int {
		return value(b).Cmp(value(a))
	})
}
