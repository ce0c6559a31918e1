package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a ledger entry.
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "DEPOSIT"
	TransactionKindWithdrawal TransactionKind = "WITHDRAWAL"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	return k == TransactionKindDeposit || k == TransactionKindWithdrawal
}

const (
	// BTCScale is the number of fractional digits kept for BTC amounts (satoshis).
	BTCScale int32 = 8
	// PriceScale is the number of fractional digits kept for BRL prices.
	PriceScale int32 = 2
)

var (
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidPrice  = errors.New("price must be positive")

	// ErrAmountOutOfRange means a value does not fit the ledger columns:
	// BTC NUMERIC(20,8) or cents BIGINT.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrLedgerBusy means the client's ledger lock could not be taken in time.
	ErrLedgerBusy = errors.New("ledger busy: client lock not acquired")
)

var (
	hundred = decimal.NewFromInt(100)

	// maxBTC is the exclusive upper bound of a NUMERIC(20,8) BTC amount.
	maxBTC = decimal.New(1, 12)
)

// Transaction is an immutable ledger entry. AmountCents, BTCAmount and
// PriceAtTime are fixed at creation and never recomputed.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	ClientID    uuid.UUID       `json:"client_id"`
	Kind        TransactionKind `json:"kind"`
	AmountCents int64           `json:"amount_cents"`
	BTCAmount   decimal.Decimal `json:"btc_amount"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Note        *string         `json:"note,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewTransactionFromFiat builds a ledger entry from a BRL amount in cents.
// The BTC amount is amount / price rounded half-even to 8 digits.
func NewTransactionFromFiat(clientID uuid.UUID, kind TransactionKind, amountCents int64, price decimal.Decimal, occurredAt time.Time) (*Transaction, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	price, err := normalizePrice(price)
	if err != nil {
		return nil, err
	}

	btc := decimal.NewFromInt(amountCents).Div(hundred).Div(price).RoundBank(BTCScale)
	if !btc.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if btc.GreaterThanOrEqual(maxBTC) {
		return nil, fmt.Errorf("%w: %s BTC", ErrAmountOutOfRange, btc.StringFixed(BTCScale))
	}

	return newTransaction(clientID, kind, amountCents, btc, price, occurredAt), nil
}

// NewTransactionFromBTC builds a ledger entry from a BTC amount. The fiat
// amount is btc * price rounded half-even to whole cents.
func NewTransactionFromBTC(clientID uuid.UUID, kind TransactionKind, btc decimal.Decimal, price decimal.Decimal, occurredAt time.Time) (*Transaction, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	btc = btc.RoundBank(BTCScale)
	if !btc.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if btc.GreaterThanOrEqual(maxBTC) {
		return nil, fmt.Errorf("%w: %s BTC", ErrAmountOutOfRange, btc.StringFixed(BTCScale))
	}
	price, err := normalizePrice(price)
	if err != nil {
		return nil, err
	}

	cents, err := ToCents(btc.Mul(price))
	if err != nil {
		return nil, err
	}
	return newTransaction(clientID, kind, cents, btc, price, occurredAt), nil
}

func newTransaction(clientID uuid.UUID, kind TransactionKind, cents int64, btc, price decimal.Decimal, occurredAt time.Time) *Transaction {
	now := time.Now().UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	return &Transaction{
		ID:          uuid.New(),
		ClientID:    clientID,
		Kind:        kind,
		AmountCents: cents,
		BTCAmount:   btc,
		PriceAtTime: price,
		OccurredAt:  occurredAt.UTC(),
		CreatedAt:   now,
	}
}

func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	price = price.RoundBank(PriceScale)
	if !price.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	if _, err := ToCents(price); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// ToCents converts a BRL amount to integer cents using round-half-to-even.
// Every fiat value derived from a BTC amount goes through here. Amounts
// outside int64 return ErrAmountOutOfRange.
func ToCents(brl decimal.Decimal) (int64, error) {
	cents := brl.Mul(hundred).RoundBank(0)
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: R$ %s", ErrAmountOutOfRange, brl.StringFixed(PriceScale))
	}
	return cents.IntPart(), nil
}

// addCents sums two cent amounts, failing instead of wrapping.
func addCents(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: cent total exceeds int64", ErrAmountOutOfRange)
	}
	return a + b, nil
}

// IsDeposit returns true for deposits.
func (t *Transaction) IsDeposit() bool {
	return t.Kind == TransactionKindDeposit
}
