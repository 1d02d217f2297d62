package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KeithSSmith/switcheolytics-api/app/query/types"
	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/db/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const now int64 = 1_700_000_000

type staticBalances []analytics.Holding

func (s staticBalances) Balance(context.Context, string) ([]analytics.Holding, error) {
	return s, nil
}

type downStore struct {
	*memory.Store
}

func (downStore) Ping(context.Context) error { return errors.New("down") }

func (downStore) AggregateFees(context.Context, analytics.FeeQuery) ([]analytics.FeeGroup, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func amount(v int64) *int64 { return &v }

func fixtureStore() *memory.Store {
	return memory.New(memory.Data{
		Fees: []analytics.FeeRecord{
			{FeeAssetName: "SWTH", FeeAmount: amount(100_000_000), ContractVersion: analytics.ContractV2, BlockTime: now - 3600, BlockDate: "2023-11-14"},
			{FeeAssetName: "SWTH", FeeAmount: amount(50_000_000), ContractVersion: analytics.ContractV2, BlockTime: now - 7*86400 - 3600, BlockDate: "2023-11-07"},
			{ContractVersion: analytics.ContractV3, TakerFeeAssetName: "SWTH", TakerFeeBurn: true, TakerFeeBurnAmount: amount(25_000_000), BlockTime: now - 60, BlockDate: "2023-11-14"},
		},
		Addresses: []analytics.AddressDocument{
			{ID: "A1", Metrics: map[string]analytics.Metrics{"takes": {"NEO": decimal.NewFromInt(3), "wants": decimal.NewFromInt(1)}}},
			{ID: "A2", Metrics: map[string]analytics.Metrics{"takes": {"NEO": decimal.NewFromInt(5)}}, RichList: &analytics.RichListBalance{
				SmartContract: decimal.NewFromInt(1), OnChain: decimal.NewFromInt(2), Total: decimal.NewFromInt(3),
			}},
			{ID: "A3", Metrics: map[string]analytics.Metrics{"total_amount_traded": {"SWTH": decimal.RequireFromString("12345678901234567")}}},
		},
		Offers: []memory.Offer{{
			OfferRecord: analytics.OfferRecord{ID: "h1", MakerAddress: "A1", OfferAssetName: "NEO", OfferAmount: 5, WantAssetName: "SWTH", WantAmount: 7},
			Status:      "open",
		}},
		Counts: map[string]int64{analytics.CollectionBlocks: 5, analytics.CollectionTransactions: 9},
	})
}

type storeBackend interface {
	analytics.FeeStore
	analytics.AddressStore
	analytics.OfferStore
	analytics.Counter
	types.Store
}

func newTestApp(t *testing.T, store storeBackend, burn bool, pairs ...string) *types.App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine := analytics.NewEngine(logger, analytics.Stores{Fees: store, Addresses: store, Offers: store, Counter: store}, analytics.Options{
		Parallelism:       2,
		TradePairs:        analytics.NewTradePairs(pairs...),
		BlockHeightOffset: 2_000_000,
		Clock:             func() int64 { return now },
	})
	t.Cleanup(engine.Close)
	if burn {
		engine.WithBurn(analytics.NewBurnReconciler(logger, analytics.BurnConfig{
			TrackedAsset: "SWTH",
			BurnAddress:  "burn",
			LegacyV1Burn: 1_000,
		}, staticBalances{{AssetSymbol: "SWTH", Amount: decimal.RequireFromString("0.00000002")}}))
	}
	return &types.App{Engine: engine, Store: store, RequestTimeout: time.Second, Logger: logger}
}

func serve(t *testing.T, app *types.App, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	router, err := NewController(app).NewRouter()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	WithCORS(router).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestFeeAmountRoute(t *testing.T) {
	rec := serve(t, newTestApp(t, fixtureStore(), false), http.MethodGet, "/switcheo/fee/amount")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	body := decode[map[string]map[string]int64](t, rec)
	assert.Equal(t, int64(100_000_000), body["day"]["SWTH"])
	assert.Equal(t, int64(100_000_000), body["week"]["SWTH"])
	assert.Equal(t, int64(150_000_000), body["thirty"]["SWTH"])
	assert.Len(t, body, 7)
}

func TestFeeCountRoute(t *testing.T) {
	rec := serve(t, newTestApp(t, fixtureStore(), false), http.MethodGet, "/switcheo/fee/count")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]map[string]int64](t, rec)
	assert.Equal(t, int64(1), body["day"]["SWTH"])
	assert.Equal(t, int64(2), body["ninety"]["SWTH"])
}

func TestFeeGraphRoute(t *testing.T) {
	rec := serve(t, newTestApp(t, fixtureStore(), false), http.MethodGet, "/switcheo/fee/amount/graph")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"SWTH":[{"block_date":"2023-11-07","fee_amount":0.5},{"block_date":"2023-11-14","fee_amount":1.25}]}`, rec.Body.String())
}

func TestBurnRoute(t *testing.T) {
	rec := serve(t, newTestApp(t, fixtureStore(), false), http.MethodGet, "/switcheo/burn")
	assert.Equal(t, http.StatusNotFound, rec.Code, "route is not mounted without burn")

	rec = serve(t, newTestApp(t, fixtureStore(), true), http.MethodGet, "/switcheo/burn")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]map[string]int64](t, rec)
	assert.Equal(t, int64(100_000_000), body["V2"]["day"])
	assert.Equal(t, int64(25_000_000), body["V3"]["day"])
	assert.Equal(t, int64(125_000_000), body["all_burnt"]["day"])
	assert.Equal(t, int64(1_000+2+150_000_000+25_000_000), body["all_burnt"]["all_epoch"])
}

func TestLeaderboardRoutes(t *testing.T) {
	app := newTestApp(t, fixtureStore(), false)

	rec := serve(t, app, http.MethodGet, "/switcheo/addresses/takes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"NEO":[{"address":"A2","trades":5},{"address":"A1","trades":3}]}`, rec.Body.String())

	rec = serve(t, app, http.MethodGet, "/switcheo/addresses/trades/amount")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trade_amount":12345678901234567`)

	for _, path := range []string{"/switcheo/addresses/fees", "/switcheo/addresses/makes", "/switcheo/addresses/trades/count"} {
		rec := serve(t, app, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{}`, rec.Body.String(), path)
	}

	rec = serve(t, app, http.MethodGet, "/switcheo/richlist")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"SWTH":[{"address":"A2","smart_contract":1,"on_chain":2,"total":3}]}`, rec.Body.String())
}

func TestOpenOffersRoute(t *testing.T) {
	rec := serve(t, newTestApp(t, fixtureStore(), false, "SWTH_NEO"), http.MethodGet, "/switcheo/offers/open")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"address":"A1","amount_filled":0,"trade_pair":"SWTH_NEO","offer_amount":5,"offer_asset_name":"NEO","want_amount":7,"want_asset_name":"SWTH"}]`, rec.Body.String())

	rec = serve(t, newTestApp(t, fixtureStore(), false, "GAS_NEO"), http.MethodGet, "/switcheo/offers/open")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "unknown trade pair")
}

func TestIngestedRoutes(t *testing.T) {
	app := newTestApp(t, fixtureStore(), false)

	tests := []struct {
		path string
		want string
	}{
		{"/switcheo/ingested/blockheight", `{"switcheo_blockheight":2000005}`},
		{"/switcheo/ingested/transactions", `{"switcheo_txn_height":9}`},
		{"/switcheo/ingested/fills", `{"switcheo_fee_height":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(t, app, http.MethodGet, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestHealthRoute(t *testing.T) {
	rec := serve(t, newTestApp(t, fixtureStore(), false), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(t, newTestApp(t, downStore{fixtureStore()}, false), http.MethodGet, "/health")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	rec := serve(t, newTestApp(t, downStore{fixtureStore()}, false), http.MethodGet, "/switcheo/fee/amount")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"upstream unavailable"}`, rec.Body.String())
}

func TestNotFoundAndPreflight(t *testing.T) {
	app := newTestApp(t, fixtureStore(), false)

	rec := serve(t, app, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = serve(t, app, http.MethodOptions, "/switcheo/fee/amount")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
