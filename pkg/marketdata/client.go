package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/time/rate"

	"alertlab/pkg/mintaddr"
	"alertlab/pkg/ohlcv"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultRateLimitRPS = 5.0
	maxRetryAttempts    = 5
	retryBaseBackoff    = 200 * time.Millisecond
	retryMaxBackoff     = 10 * time.Second
	retryJitterFraction = 0.20
)

// FetchFailed wraps a non-retryable upstream failure (HTTP 400/401/403,
// or retries exhausted).
type FetchFailed struct {
	StatusCode int
	Err        error
}

func (e *FetchFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("marketdata: fetch failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("marketdata: fetch failed: %v", e.Err)
}

func (e *FetchFailed) Unwrap() error { return e.Err }

// apiKey pairs a raw key with its own token bucket, so keys sharing one
// provider rotate independently instead of a single shared limiter
// starving every key equally.
type apiKey struct {
	value   string
	limiter *rate.Limiter
}

// Client is a rate-limited, retrying HTTP client for one market-data
// provider, rotating across a pool of API keys.
type Client struct {
	httpClient *http.Client
	baseURL    string
	name       string

	mu       sync.Mutex
	keys     []*apiKey
	nextKey  int
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client (used by tests to
// inject a go-vcr recorder transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client from a validated ProviderConfig.
func NewClient(cfg ProviderConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("marketdata: baseUrl is required")
	}
	if len(cfg.APIKeys) == 0 {
		return nil, errors.New("marketdata: at least one api key is required")
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = defaultRateLimitRPS
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	keys := make([]*apiKey, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys = append(keys, &apiKey{
			value:   k,
			limiter: rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		})
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		name:       cfg.Name,
		keys:       keys,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// nextAPIKey rotates to the least-recently-used key, blocking on its
// rate limiter so a busy key doesn't cause the caller to fail outright.
func (c *Client) nextAPIKey(ctx context.Context) (*apiKey, error) {
	c.mu.Lock()
	if len(c.keys) == 0 {
		c.mu.Unlock()
		return nil, errors.New("marketdata: no api keys configured")
	}
	k := c.keys[c.nextKey%len(c.keys)]
	c.nextKey++
	c.mu.Unlock()

	if err := k.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

// doRequest performs req with exponential backoff and jitter, rotating
// through API keys on retryable failures. 400/401/403 responses fail
// immediately without consuming a retry attempt, matching the
// reference backend's fast-fail-on-auth-errors convention.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	var lastErr error
	backoff := retryBaseBackoff

	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		key, err := c.nextAPIKey(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-Key", key.value)

		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode < 300 {
			return resp, nil
		}

		if err == nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusBadRequest ||
				resp.StatusCode == http.StatusUnauthorized ||
				resp.StatusCode == http.StatusForbidden {
				return nil, &FetchFailed{StatusCode: resp.StatusCode, Err: fmt.Errorf("non-retryable response")}
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		logx.WithContext(ctx).Slowf("marketdata: attempt %d/%d failed provider=%s path=%s err=%v",
			attempt+1, maxRetryAttempts, c.name, path, lastErr)

		if attempt == maxRetryAttempts-1 {
			break
		}
		if !sleepWithJitter(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff *= 2
		if backoff > retryMaxBackoff {
			backoff = retryMaxBackoff
		}
	}

	return nil, &FetchFailed{Err: lastErr}
}

func sleepWithJitter(ctx context.Context, base time.Duration) bool {
	jitter := time.Duration(float64(base) * retryJitterFraction * (rand.Float64()*2 - 1))
	d := base + jitter
	if d < 0 {
		d = base
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ohlcvResponse is the wire shape returned by the "http" provider type.
type ohlcvResponse struct {
	Candles []struct {
		Ts     int64  `json:"ts"`
		Open   string `json:"open"`
		High   string `json:"high"`
		Low    string `json:"low"`
		Close  string `json:"close"`
		Volume string `json:"volume"`
		Trades int64  `json:"trades"`
	} `json:"candles"`
}

// FetchCandles retrieves OHLCV candles for mint in [fromUnix, toUnix] at
// the given interval.
func (c *Client) FetchCandles(ctx context.Context, mint mintaddr.Address, intervalSeconds, fromUnix, toUnix int64) ([]ohlcv.Candle, error) {
	path := fmt.Sprintf("/candles?mint=%s&chain=%s&interval=%d&from=%d&to=%d",
		mint.String(), mint.Chain().String(), intervalSeconds, fromUnix, toUnix)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed ohlcvResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("marketdata: decode candles response: %w", err)
	}

	out := make([]ohlcv.Candle, 0, len(parsed.Candles))
	for _, raw := range parsed.Candles {
		open, _ := decimal.NewFromString(raw.Open)
		high, _ := decimal.NewFromString(raw.High)
		low, _ := decimal.NewFromString(raw.Low)
		closeP, _ := decimal.NewFromString(raw.Close)
		vol, _ := decimal.NewFromString(raw.Volume)
		out = append(out, ohlcv.Candle{
			Chain:           mint.Chain(),
			Mint:            mint,
			IntervalSeconds: intervalSeconds,
			TsUnix:          raw.Ts,
			Open:            open,
			High:            high,
			Low:             low,
			Close:           closeP,
			Volume:          vol,
			TradeCount:      raw.Trades,
		})
	}
	return out, nil
}

type supplyResponse struct {
	CirculatingSupply string `json:"circulatingSupply"`
}

// CirculatingSupply implements mintprice.SupplyLookup.
func (c *Client) CirculatingSupply(ctx context.Context, mint mintaddr.Address) (decimal.Decimal, error) {
	path := fmt.Sprintf("/token?mint=%s&chain=%s", mint.String(), mint.Chain().String())
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	var parsed supplyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("marketdata: decode supply response: %w", err)
	}
	supply, err := decimal.NewFromString(parsed.CirculatingSupply)
	if err != nil {
		return decimal.Zero, fmt.Errorf("marketdata: malformed supply %q: %w", parsed.CirculatingSupply, err)
	}
	return supply, nil
}
