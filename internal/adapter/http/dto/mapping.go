package dto

import (
	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL renders an amount in centavos.
func BRL(cents int64) MoneyResponse {
	return MoneyResponse{
		Cents:   cents,
		Display: money.New(cents, money.BRL).Display(),
	}
}

// NewClientResponse maps a client without its ledger size.
func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CPF:       c.CPF,
		WalletRef: c.WalletRef,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewClientListResponse maps a page of the admin client list.
func NewClientListResponse(items []ports.ClientListItem) []ClientResponse {
	out := make([]ClientResponse, 0, len(items))
	for i := range items {
		r := NewClientResponse(&items[i].Client)
		n := items[i].TransactionCount
		r.TransactionCount = &n
		out = append(out, r)
	}
	return out
}

// NewTransactionResponse maps a ledger entry.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		ClientID:    t.ClientID.String(),
		Kind:        string(t.Kind),
		Amount:      BRL(t.AmountCents),
		BTCAmount:   t.BTCAmount.StringFixed(domain.BTCScale),
		PriceAtTime: t.PriceAtTime.StringFixed(domain.PriceScale),
		Note:        t.Note,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
	}
}

// NewTransactionListResponse maps a page of ledger entries.
func NewTransactionListResponse(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, NewTransactionResponse(&txns[i]))
	}
	return out
}

// NewBalanceResponse renders a summary. A missing valuation is rendered as
// null with status UNAVAILABLE, never as zero.
func NewBalanceResponse(s *domain.BalanceSummary) BalanceResponse {
	valuation, status := newValuation(s.Valuation)
	return BalanceResponse{
		TransactionCount: s.TransactionCount,
		DepositCount:     s.DepositCount,
		TotalDeposited:   BRL(s.TotalDepositedCents),
		TotalWithdrawn:   BRL(s.TotalWithdrawnCents),
		DepositedBTC:     s.DepositedBTC.StringFixed(domain.BTCScale),
		WithdrawnBTC:     s.WithdrawnBTC.StringFixed(domain.BTCScale),
		NetBTC:           s.NetBTC.StringFixed(domain.BTCScale),
		AvgDepositPrice:  s.AvgDepositPrice.StringFixed(domain.PriceScale),
		Valuation:        valuation,
		ValuationStatus:  status,
	}
}

// NewFundStatsResponse renders fund-wide stats.
func NewFundStatsResponse(s *ports.FundStats) FundStatsResponse {
	valuation, status := newValuation(s.Valuation)
	return FundStatsResponse{
		ClientCount:     s.ClientCount,
		TotalDeposited:  BRL(s.TotalDepositedCents),
		TotalWithdrawn:  BRL(s.TotalWithdrawnCents),
		NetBTC:          s.NetBTC.StringFixed(domain.BTCScale),
		Valuation:       valuation,
		ValuationStatus: status,
	}
}

// NewPriceResponse renders a spot quote.
func NewPriceResponse(q *domain.PriceQuote) PriceResponse {
	return PriceResponse{
		Price:     q.Price.StringFixed(domain.PriceScale),
		Display:   priceDisplay(q.Price),
		Currency:  q.Currency,
		Source:    q.Source,
		FetchedAt: q.FetchedAt,
	}
}

// priceDisplay formats a quote as BRL, falling back to the plain decimal when
// it does not fit in int64 cents.
func priceDisplay(price decimal.Decimal) string {
	cents, err := domain.ToCents(price)
	if err != nil {
		return "R$" + price.StringFixed(domain.PriceScale)
	}
	return BRL(cents).Display
}

func newValuation(v *domain.Valuation) (*ValuationResponse, string) {
	if v == nil {
		return nil, ValuationUnavailable
	}
	return &ValuationResponse{
		SpotPrice:    v.SpotPrice.StringFixed(domain.PriceScale),
		QuotedAt:     v.QuotedAt,
		CurrentValue: BRL(v.CurrentValueCents),
		ProfitLoss:   BRL(v.ProfitLossCents),
	}, ValuationAvailable
}

// ParseDecimal parses an optional decimal field that already passed the
// decimal_str rule.
func ParseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
