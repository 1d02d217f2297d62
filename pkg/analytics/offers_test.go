package analytics_test

import (
	"context"
	"testing"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offer(id, offerAsset, wantAsset, status string) memory.Offer {
	return memory.Offer{
		OfferRecord: analytics.OfferRecord{
			ID:             id,
			MakerAddress:   "maker-" + id,
			AmountFilled:   10,
			OfferAssetName: offerAsset,
			OfferAmount:    300_000_000,
			WantAssetName:  wantAsset,
			WantAmount:     100_000_000,
		},
		Status: status,
	}
}

func TestTradePairsResolve(t *testing.T) {
	pairs := analytics.NewTradePairs("SWTH_NEO", "GAS_NEO")

	tests := []struct {
		offer, want string
		pair        string
		err         bool
	}{
		{offer: "SWTH", want: "NEO", pair: "SWTH_NEO"},
		{offer: "NEO", want: "SWTH", pair: "SWTH_NEO"},
		{offer: "NEO", want: "GAS", pair: "GAS_NEO"},
		{offer: "SWTH", want: "GAS", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.offer+"/"+tt.want, func(t *testing.T) {
			pair, err := pairs.Resolve(tt.offer, tt.want)
			if tt.err {
				assert.ErrorIs(t, err, analytics.ErrUnknownTradePair)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pair, pair)
		})
	}
}

func TestListOpenOffers(t *testing.T) {
	store := memory.New(memory.Data{Offers: []memory.Offer{
		offer("h1", "NEO", "SWTH", "open"),
		offer("h2", "SWTH", "NEO", "filled"),
		offer("", "SWTH", "NEO", "open"),
		offer("h3", "SWTH", "NEO", "open"),
	}})

	got, err := analytics.ListOpenOffers(context.Background(), store, analytics.NewTradePairs("SWTH_NEO"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, analytics.OpenOffer{
		Address:        "maker-h1",
		AmountFilled:   10,
		TradePair:      "SWTH_NEO",
		OfferAmount:    300_000_000,
		OfferAssetName: "NEO",
		WantAmount:     100_000_000,
		WantAssetName:  "SWTH",
	}, got[0])
	assert.Equal(t, "maker-h3", got[1].Address)
}

func TestListOpenOffersUnknownPairFailsWholeListing(t *testing.T) {
	store := memory.New(memory.Data{Offers: []memory.Offer{
		offer("h1", "SWTH", "NEO", "open"),
		offer("h2", "SWTH", "RPX", "open"),
	}})

	got, err := analytics.ListOpenOffers(context.Background(), store, analytics.NewTradePairs("SWTH_NEO"))
	assert.ErrorIs(t, err, analytics.ErrUnknownTradePair)
	assert.Contains(t, err.Error(), "SWTH/RPX")
	assert.Nil(t, got)
}
