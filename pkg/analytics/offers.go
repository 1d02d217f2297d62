package analytics

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTradePair means an open offer trades a pair outside the configured list.
// The listing is aborted rather than returned partially.
var ErrUnknownTradePair = errors.New("unknown trade pair")

// OfferRecord is one row of the offer_hash collection. Amounts are raw fixed-point integers.
type OfferRecord struct {
	ID             string `json:"offer_hash"`
	MakerAddress   string `json:"maker_address"`
	AmountFilled   int64  `json:"amount_filled"`
	OfferAssetName string `json:"offer_asset_name"`
	OfferAmount    int64  `json:"offer_amount"`
	WantAssetName  string `json:"want_asset_name"`
	WantAmount     int64  `json:"want_amount"`
}

// OfferStore is the read side of the offer_hash collection.
type OfferStore interface {
	// OpenOffers returns every offer whose status is open.
	OpenOffers(ctx context.Context) ([]OfferRecord, error)
}

// OpenOffer is the listing shape of an open offer. Amounts stay raw fixed-point integers.
type OpenOffer struct {
	Address        string `json:"address"`
	AmountFilled   int64  `json:"amount_filled"`
	TradePair      string `json:"trade_pair"`
	OfferAmount    int64  `json:"offer_amount"`
	OfferAssetName string `json:"offer_asset_name"`
	WantAmount     int64  `json:"want_amount"`
	WantAssetName  string `json:"want_asset_name"`
}

// TradePairs is the immutable set of known trade pairs such as SWTH_NEO.
type TradePairs struct {
	pairs KeySet
}

// NewTradePairs returns the set of given pair names.
func NewTradePairs(pairs ...string) TradePairs {
	return TradePairs{pairs: NewKeySet(pairs...)}
}

// Resolve returns the pair name of an offer: offer_want if known, else want_offer.
func (p TradePairs) Resolve(offerAsset, wantAsset string) (string, error) {
	if pair := offerAsset + "_" + wantAsset; p.pairs.Contains(pair) {
		return pair, nil
	}
	if pair := wantAsset + "_" + offerAsset; p.pairs.Contains(pair) {
		return pair, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnknownTradePair, offerAsset, wantAsset)
}

// ListOpenOffers maps open offers to their listing shape. Offers without an id are skipped.
func ListOpenOffers(ctx context.Context, store OfferStore, pairs TradePairs) ([]OpenOffer, error) {
	records, err := store.OpenOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("open offers: %w", err)
	}

	out := make([]OpenOffer, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		pair, err := pairs.Resolve(r.OfferAssetName, r.WantAssetName)
		if err != nil {
			return nil, fmt.Errorf("offer %s: %w", r.ID, err)
		}
		out = append(out, OpenOffer{
			Address:        r.MakerAddress,
			AmountFilled:   r.AmountFilled,
			TradePair:      pair,
			OfferAmount:    r.OfferAmount,
			OfferAssetName: r.OfferAssetName,
			WantAmount:     r.WantAmount,
			WantAssetName:  r.WantAssetName,
		})
	}
	return out, nil
}

// Ingested collections that can be counted.
const (
	CollectionBlocks       = "blocks"
	CollectionTransactions = "transactions"
	CollectionFees         = "fees"
)

// Counter counts the rows of an ingested collection.
type Counter interface {
	Count(ctx context.Context, collection string) (int64, error)
}
