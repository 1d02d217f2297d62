package analytics_test

import (
	"context"
	"testing"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, store *memory.Store, clockCalls *int) *analytics.Engine {
	t.Helper()
	e := analytics.NewEngine(zaptest.NewLogger(t), analytics.Stores{
		Fees:      store,
		Addresses: store,
		Offers:    store,
		Counter:   store,
	}, analytics.Options{
		Parallelism:       2,
		TradePairs:        analytics.NewTradePairs("SWTH_NEO"),
		BlockHeightOffset: 2_000_000,
		Clock: func() int64 {
			if clockCalls != nil {
				*clockCalls++
			}
			return testNow
		},
	})
	t.Cleanup(e.Close)
	return e
}

func TestEngineReadsClockOncePerReport(t *testing.T) {
	calls := 0
	e := newEngine(t, memory.New(memory.Data{Fees: []analytics.FeeRecord{
		legacyFee("SWTH", 1, testNow, "a"),
	}}), &calls)

	_, err := e.FeeAmounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = e.FeeCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestEngineFeeReports(t *testing.T) {
	e := newEngine(t, memory.New(memory.Data{Fees: []analytics.FeeRecord{
		legacyFee("SWTH", 100_000_000, testNow-3600, "2023-11-14"),
		legacyFee("SWTH", 50_000_000, testNow-7*86400-3600, "2023-11-07"),
	}}), nil)

	amounts, err := e.FeeAmounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150_000_000), amounts[analytics.WindowThirty]["SWTH"])
	for _, name := range []string{"day", "week", "thirty", "sixty", "ninety", "august", "january"} {
		assert.Contains(t, amounts, name)
	}
	assert.NotContains(t, amounts, analytics.WindowAllEpoch)

	counts, err := e.FeeCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[analytics.WindowWeek]["SWTH"])
	assert.Equal(t, int64(2), counts[analytics.WindowNinety]["SWTH"])

	graph, err := e.FeeGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.TimeSeriesPoint{
		{BlockDate: "2023-11-07", FeeAmount: 0.5},
		{BlockDate: "2023-11-14", FeeAmount: 1},
	}, graph["SWTH"])
}

func TestEngineBurnIsOptional(t *testing.T) {
	store := memory.New(memory.Data{Fees: []analytics.FeeRecord{burnFee("SWTH", 5, testNow, "a")}})
	e := newEngine(t, store, nil)

	assert.False(t, e.BurnEnabled())
	_, err := e.Burn(context.Background())
	assert.ErrorIs(t, err, analytics.ErrBurnDisabled)

	balances := &mockBalanceSource{}
	balances.On("Balance", mock.Anything, burnAddress).Return([]analytics.Holding{}, nil)
	e.WithBurn(newReconciler(t, balances, false))

	assert.True(t, e.BurnEnabled())
	report, err := e.Burn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.AllBurnt[analytics.WindowDay])
	assert.Equal(t, int64(5_005), report.AllBurnt[analytics.WindowAllEpoch])
}

func TestEngineLeaderboardsAndCounts(t *testing.T) {
	store := memory.New(memory.Data{
		Addresses: []analytics.AddressDocument{
			doc("A1", "takes", map[string]int64{"NEO": 3, "wants": 1}),
			{ID: "A2", Metrics: map[string]analytics.Metrics{"takes": {"NEO": decimal.NewFromInt(5)}}, RichList: richList(0, 4, 4)},
		},
		Offers: []memory.Offer{offer("h1", "SWTH", "NEO", "open")},
		Fees:   []analytics.FeeRecord{legacyFee("SWTH", 1, 0, "a")},
		Counts: map[string]int64{analytics.CollectionBlocks: 10, analytics.CollectionTransactions: 42},
	})
	e := newEngine(t, store, nil)
	ctx := context.Background()

	takes, err := e.Leaderboard(ctx, analytics.DimensionTakes)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A1"}, addresses(takes["NEO"]))

	rich, err := e.RichList(ctx)
	require.NoError(t, err)
	require.Len(t, rich["SWTH"], 1)
	assert.Equal(t, "A2", rich["SWTH"][0].Address)

	offers, err := e.OpenOffers(ctx)
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	blocks, err := e.IngestedCount(ctx, analytics.CollectionBlocks)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_010), blocks)

	txns, err := e.IngestedCount(ctx, analytics.CollectionTransactions)
	require.NoError(t, err)
	assert.Equal(t, int64(42), txns)

	fills, err := e.IngestedCount(ctx, analytics.CollectionFees)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fills)
}
