// Package balance reads public address holdings from a NEOscan compatible explorer API.
package balance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/KeithSSmith/switcheolytics-api/pkg/utils"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/shopspring/decimal"
)

// ErrBreakerOpen is returned while the client refuses calls after repeated failures.
var ErrBreakerOpen = errors.New("balance api circuit breaker open")

const balancePath = "/v1/get_balance/"

// Client fetches balances with a single attempt per call. After BreakerFailures consecutive
// failures it fails fast for BreakerCooldown.
type Client struct {
	baseURL string
	client  *http.Client

	mu               sync.Mutex
	failures         int
	openUntil        time.Time
	breakerThreshold int
	breakerCooldown  time.Duration
	now              func() time.Time
}

// Opts is the set of options for a new Client.
type Opts struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// New creates a Client with the given options.
func New(o Opts) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 30 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	return &Client{
		baseURL:          strings.TrimRight(o.BaseURL, "/"),
		client:           client,
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
		now:              time.Now,
	}
}

var _ analytics.BalanceSource = (*Client)(nil)

type balanceResponse struct {
	Address string         `json:"address"`
	Balance []balanceEntry `json:"balance"`
}

type balanceEntry struct {
	Asset       string          `json:"asset"`
	AssetSymbol string          `json:"asset_symbol"`
	AssetHash   string          `json:"asset_hash"`
	Amount      decimal.Decimal `json:"amount"`
}

// Balance implements analytics.BalanceSource.
func (c *Client) Balance(ctx context.Context, address string) ([]analytics.Holding, error) {
	if c.isOpen() {
		return nil, ErrBreakerOpen
	}

	holdings, err := c.fetch(ctx, address)
	if err != nil {
		// the caller giving up is not an upstream failure
		if ctx.Err() == nil {
			c.noteFailure()
		}
		return nil, err
	}
	c.noteSuccess()
	return holdings, nil
}

func (c *Client) fetch(ctx context.Context, address string) ([]analytics.Holding, error) {
	endpoint := c.baseURL + balancePath + url.PathEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get balance of %s: %w", address, err)
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get balance of %s: http %d: %s", address, resp.StatusCode, utils.Snippet(resp.Body, 256))
	}

	var out balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode balance of %s: %w", address, err)
	}

	holdings := make([]analytics.Holding, 0, len(out.Balance))
	for _, b := range out.Balance {
		asset := b.Asset
		if asset == "" {
			asset = b.AssetHash
		}
		holdings = append(holdings, analytics.Holding{
			Asset:       asset,
			AssetSymbol: b.AssetSymbol,
			Amount:      b.Amount,
		})
	}
	return holdings, nil
}

func (c *Client) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openUntil.IsZero() {
		return false
	}
	if c.now().After(c.openUntil) {
		c.openUntil = time.Time{}
		c.failures = 0
		return false
	}
	return true
}

func (c *Client) noteFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.breakerThreshold {
		c.openUntil = c.now().Add(c.breakerCooldown)
	}
}

func (c *Client) noteSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
}
