package pricefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"btc-fund-manager/config"
	"btc-fund-manager/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SourceCoinGecko identifies quotes produced by this adapter.
const SourceCoinGecko = "coingecko"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 64 << 10

// retryIntervals are the waits between attempts on throttled or 5xx responses.
var retryIntervals = []time.Duration{250 * time.Millisecond, time.Second}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CoinGecko implements ports.PriceSource against the CoinGecko simple price API.
type CoinGecko struct {
	baseURL    string
	coinID     string
	vsCurrency string
	timeout    time.Duration
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewCoinGecko creates a CoinGecko price source from config.
func NewCoinGecko(cfg config.PriceConfig, httpClient HTTPClient, log zerolog.Logger) *CoinGecko {
	return &CoinGecko{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		coinID:     strings.ToLower(cfg.CoinID),
		vsCurrency: strings.ToLower(cfg.VsCurrency),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		log:        log,
	}
}

// CacheKey names the pair this source quotes, e.g. "bitcoin:brl".
func (c *CoinGecko) CacheKey() string {
	return c.coinID + ":" + c.vsCurrency
}

// SpotPrice fetches the current price. Every failure wraps domain.ErrPriceUnavailable.
func (c *CoinGecko) SpotPrice(ctx context.Context) (*domain.PriceQuote, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= len(retryIntervals); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v (last error: %v)", domain.ErrPriceUnavailable, ctx.Err(), lastErr)
			case <-time.After(retryIntervals[attempt-1]):
			}
		}

		quote, retry, err := c.fetch(ctx)
		if err == nil {
			return quote, nil
		}
		lastErr = err
		if !retry {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("coingecko: request failed, retrying")
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, lastErr)
}

// fetch performs one request. retry reports whether the failure is transient.
func (c *CoinGecko) fetch(ctx context.Context) (quote *domain.PriceQuote, retry bool, err error) {
	params := url.Values{
		"ids":           {c.coinID},
		"vs_currencies": {c.vsCurrency},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, transient, fmt.Errorf("status %d", resp.StatusCode)
	}

	price, err := c.parse(body)
	if err != nil {
		return nil, false, err
	}

	return &domain.PriceQuote{
		Price:     price,
		Currency:  strings.ToUpper(c.vsCurrency),
		Source:    SourceCoinGecko,
		FetchedAt: time.Now().UTC(),
	}, false, nil
}

// parse extracts {coin: {currency: price}} keeping the number exact.
func (c *CoinGecko) parse(body []byte) (decimal.Decimal, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]map[string]json.Number
	if err := dec.Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode body: %w", err)
	}

	raw, ok := payload[c.coinID][c.vsCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing %s.%s in response", c.coinID, c.vsCurrency)
	}

	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	price = price.RoundBank(domain.PriceScale)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", price)
	}
	return price, nil
}
