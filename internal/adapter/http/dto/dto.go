package dto

import "time"

// AdminLoginRequest is the request body for back-office login.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128" sanitize:"-"`
}

// ClientLoginRequest is the request body for client login.
type ClientLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=128" sanitize:"-"`
}

// LoginResponse is the response body for a successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
	Role   string `json:"role"`
}

// CreateClientRequest is the request body for admin client creation and
// public signup.
type CreateClientRequest struct {
	Name      string  `json:"name" binding:"required,min=1,max=120"`
	Email     string  `json:"email" binding:"required,email,max=254"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	CPF       *string `json:"cpf,omitempty" binding:"omitempty,max=20"`
	WalletRef *string `json:"wallet_ref,omitempty" binding:"omitempty,max=120"`
	Password  string  `json:"password" binding:"required,min=6,max=128" sanitize:"-"`
}

// UpdateClientRequest is the request body for a partial client update.
type UpdateClientRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	CPF       *string `json:"cpf,omitempty" binding:"omitempty,max=20"`
	WalletRef *string `json:"wallet_ref,omitempty" binding:"omitempty,max=120"`
}

// ClientResponse is the public view of a client.
type ClientResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            *string   `json:"phone,omitempty"`
	CPF              *string   `json:"cpf,omitempty"`
	WalletRef        *string   `json:"wallet_ref,omitempty"`
	TransactionCount *int64    `json:"transaction_count,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SignupResponse is the response body for a successful signup.
type SignupResponse struct {
	Client ClientResponse `json:"client"`
	Token  string         `json:"token"`
	Expiry int64          `json:"expiry"`
}

// RecordTransactionRequest is the admin request body for a ledger entry.
// Exactly one of AmountCents and BTCAmount must be set. Without Price the
// live spot price is used.
type RecordTransactionRequest struct {
	Kind        string     `json:"kind" binding:"required,kind"`
	AmountCents *int64     `json:"amount_cents,omitempty" binding:"omitempty,gt=0"`
	BTCAmount   *string    `json:"btc_amount,omitempty" binding:"omitempty,decimal_str"`
	Price       *string    `json:"price,omitempty" binding:"omitempty,decimal_str"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
	Note        *string    `json:"note,omitempty" binding:"omitempty,max=500"`
}

// SelfTransactionRequest is a client's own deposit or withdrawal, always at
// the live spot price.
type SelfTransactionRequest struct {
	Kind        string  `json:"kind" binding:"required,kind"`
	AmountCents *int64  `json:"amount_cents,omitempty" binding:"omitempty,gt=0"`
	BTCAmount   *string `json:"btc_amount,omitempty" binding:"omitempty,decimal_str"`
	Note        *string `json:"note,omitempty" binding:"omitempty,max=500"`
}

// MoneyResponse renders a BRL amount as integer cents plus a display string.
type MoneyResponse struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

// TransactionResponse is the public view of a ledger entry.
type TransactionResponse struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"client_id"`
	Kind        string        `json:"kind"`
	Amount      MoneyResponse `json:"amount"`
	BTCAmount   string        `json:"btc_amount"`
	PriceAtTime string        `json:"price_at_time"`
	Note        *string       `json:"note,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Valuation status values.
const (
	ValuationAvailable   = "AVAILABLE"
	ValuationUnavailable = "UNAVAILABLE"
)

// ValuationResponse is a holding priced at the spot quote.
type ValuationResponse struct {
	SpotPrice    string        `json:"spot_price"`
	QuotedAt     time.Time     `json:"quoted_at"`
	CurrentValue MoneyResponse `json:"current_value"`
	ProfitLoss   MoneyResponse `json:"profit_loss"`
}

// BalanceResponse is the rendered balance summary of one client.
type BalanceResponse struct {
	TransactionCount int                `json:"transaction_count"`
	DepositCount     int                `json:"deposit_count"`
	TotalDeposited   MoneyResponse      `json:"total_deposited"`
	TotalWithdrawn   MoneyResponse      `json:"total_withdrawn"`
	DepositedBTC     string             `json:"deposited_btc"`
	WithdrawnBTC     string             `json:"withdrawn_btc"`
	NetBTC           string             `json:"net_btc"`
	AvgDepositPrice  string             `json:"avg_deposit_price"`
	Valuation        *ValuationResponse `json:"valuation"`
	ValuationStatus  string             `json:"valuation_status"`
}

// FundStatsResponse is the rendered fund-wide summary.
type FundStatsResponse struct {
	ClientCount     int64              `json:"client_count"`
	TotalDeposited  MoneyResponse      `json:"total_deposited"`
	TotalWithdrawn  MoneyResponse      `json:"total_withdrawn"`
	NetBTC          string             `json:"net_btc"`
	Valuation       *ValuationResponse `json:"valuation"`
	ValuationStatus string             `json:"valuation_status"`
}

// PriceResponse is the live BTC spot price.
type PriceResponse struct {
	Price     string    `json:"price"`
	Display   string    `json:"display"`
	Currency  string    `json:"currency"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}
