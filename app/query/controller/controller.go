package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/KeithSSmith/switcheolytics-api/app/query/types"
	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	s := r.PathPrefix("/switcheo").Subrouter()

	s.HandleFunc("/fee/amount", c.HandleFeeAmounts).Methods(http.MethodGet)
	s.HandleFunc("/fee/count", c.HandleFeeCounts).Methods(http.MethodGet)
	s.HandleFunc("/fee/amount/graph", c.HandleFeeGraph).Methods(http.MethodGet)
	if c.App.Engine.BurnEnabled() {
		s.HandleFunc("/burn", c.HandleBurn).Methods(http.MethodGet)
	}

	s.HandleFunc("/addresses/fees", c.leaderboard(analytics.DimensionFees)).Methods(http.MethodGet)
	s.HandleFunc("/addresses/takes", c.leaderboard(analytics.DimensionTakes)).Methods(http.MethodGet)
	s.HandleFunc("/addresses/makes", c.leaderboard(analytics.DimensionMakes)).Methods(http.MethodGet)
	s.HandleFunc("/addresses/trades/count", c.leaderboard(analytics.DimensionTradeCount)).Methods(http.MethodGet)
	s.HandleFunc("/addresses/trades/amount", c.leaderboard(analytics.DimensionTradeAmount)).Methods(http.MethodGet)
	s.HandleFunc("/richlist", c.HandleRichList).Methods(http.MethodGet)

	s.HandleFunc("/offers/open", c.HandleOpenOffers).Methods(http.MethodGet)

	s.HandleFunc("/ingested/blockheight", c.ingested(analytics.CollectionBlocks, "switcheo_blockheight")).Methods(http.MethodGet)
	s.HandleFunc("/ingested/transactions", c.ingested(analytics.CollectionTransactions, "switcheo_txn_height")).Methods(http.MethodGet)
	s.HandleFunc("/ingested/fills", c.ingested(analytics.CollectionFees, "switcheo_fee_height")).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return r, nil
}

// WithCORS is a middleware that adds permissive CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestContext bounds a request by the configured timeout.
func (c *Controller) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if c.App.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), c.App.RequestTimeout)
}

// fail logs err and replies with the status that matches it.
func (c *Controller) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	message := "upstream unavailable"
	switch {
	case errors.Is(err, analytics.ErrUnknownTradePair):
		status, message = http.StatusInternalServerError, err.Error()
	case errors.Is(err, analytics.ErrBurnDisabled):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		// client went away
		return
	}

	c.App.Logger.Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))
	writeError(w, status, message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
