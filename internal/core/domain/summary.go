package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeBalance means withdrawals exceed deposits in BTC. Withdrawals are
	// checked when they are recorded, so this is an upstream invariant violation.
	ErrNegativeBalance = errors.New("ledger inconsistency: net BTC balance is negative")
	ErrUnknownKind     = errors.New("ledger inconsistency: unknown transaction kind")
)

// BalanceSummary is derived from a client's ledger on every read.
type BalanceSummary struct {
	TransactionCount    int             `json:"transaction_count"`
	DepositCount        int             `json:"deposit_count"`
	TotalDepositedCents int64           `json:"total_deposited_cents"`
	TotalWithdrawnCents int64           `json:"total_withdrawn_cents"`
	DepositedBTC        decimal.Decimal `json:"deposited_btc"`
	WithdrawnBTC        decimal.Decimal `json:"withdrawn_btc"`
	NetBTC              decimal.Decimal `json:"net_btc"`
	AvgDepositPrice     decimal.Decimal `json:"avg_deposit_price"`

	// Valuation is nil when no spot price was available.
	Valuation *Valuation `json:"valuation"`
}

// Valuation prices a BTC holding at a spot quote.
type Valuation struct {
	SpotPrice         decimal.Decimal `json:"spot_price"`
	QuotedAt          time.Time       `json:"quoted_at"`
	CurrentValueCents int64           `json:"current_value_cents"`
	ProfitLossCents   int64           `json:"profit_loss_cents"`
}

// ValuationAvailable reports whether the summary carries a current valuation.
func (s *BalanceSummary) ValuationAvailable() bool {
	return s.Valuation != nil
}

// Summarize folds a ledger into a BalanceSummary in the order given.
// A nil quote yields a summary without valuation.
func Summarize(txns []Transaction, quote *PriceQuote) (*BalanceSummary, error) {
	var (
		depositCents, withdrawCents int64
		depositBTC, withdrawBTC     = decimal.Zero, decimal.Zero
		depositPriceSum             = decimal.Zero
		depositCount                int
		err                         error
	)

	for i := range txns {
		t := &txns[i]
		switch t.Kind {
		case TransactionKindDeposit:
			if depositCents, err = addCents(depositCents, t.AmountCents); err != nil {
				return nil, fmt.Errorf("deposits up to %s: %w", t.ID, err)
			}
			depositBTC = depositBTC.Add(t.BTCAmount)
			depositPriceSum = depositPriceSum.Add(t.PriceAtTime)
			depositCount++
		case TransactionKindWithdrawal:
			if withdrawCents, err = addCents(withdrawCents, t.AmountCents); err != nil {
				return nil, fmt.Errorf("withdrawals up to %s: %w", t.ID, err)
			}
			withdrawBTC = withdrawBTC.Add(t.BTCAmount)
		default:
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownKind, t.Kind, t.ID)
		}
	}

	net := depositBTC.Sub(withdrawBTC)
	if net.IsNegative() {
		return nil, fmt.Errorf("%w: %s BTC", ErrNegativeBalance, net.StringFixed(BTCScale))
	}

	avg := decimal.Zero
	if depositCount > 0 {
		avg = depositPriceSum.Div(decimal.NewFromInt(int64(depositCount))).RoundBank(PriceScale)
	}

	valuation, err := Value(net, depositCents, quote)
	if err != nil {
		return nil, err
	}

	return &BalanceSummary{
		TransactionCount:    len(txns),
		DepositCount:        depositCount,
		TotalDepositedCents: depositCents,
		TotalWithdrawnCents: withdrawCents,
		DepositedBTC:        depositBTC,
		WithdrawnBTC:        withdrawBTC,
		NetBTC:              net,
		AvgDepositPrice:     avg,
		Valuation:           valuation,
	}, nil
}

// Value prices netBTC at quote and compares it with investedCents.
// Returns nil, nil when quote is nil or carries a non-positive price, and
// ErrAmountOutOfRange when the value or the profit/loss exceeds int64 cents.
func Value(netBTC decimal.Decimal, investedCents int64, quote *PriceQuote) (*Valuation, error) {
	if quote == nil || !quote.Price.IsPositive() {
		return nil, nil
	}
	current, err := ToCents(netBTC.Mul(quote.Price))
	if err != nil {
		return nil, fmt.Errorf("valuation: %w", err)
	}
	profitLoss, err := addCents(current, -investedCents)
	if err != nil {
		return nil, fmt.Errorf("profit/loss: %w", err)
	}
	return &Valuation{
		SpotPrice:         quote.Price,
		QuotedAt:          quote.FetchedAt,
		CurrentValueCents: current,
		ProfitLossCents:   profitLoss,
	}, nil
}
