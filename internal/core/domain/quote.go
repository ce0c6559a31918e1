package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned by price sources that cannot produce a quote.
var ErrPriceUnavailable = errors.New("spot price unavailable")

// PriceQuote is a BTC spot price in fiat at a point in time.
type PriceQuote struct {
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}
