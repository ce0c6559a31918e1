package ports

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

import (
	"context"
	"time"

	"btc-fund-manager/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource returns the current BTC spot price. Implementations return an
// error wrapping domain.ErrPriceUnavailable when no quote can be produced.
type PriceSource interface {
	SpotPrice(ctx context.Context) (*domain.PriceQuote, error)
}

// PriceCache stores the last known quote.
type PriceCache interface {
	Get(ctx context.Context, key string) (*domain.PriceQuote, error) // nil, nil on miss
	Set(ctx context.Context, key string, quote *domain.PriceQuote, ttl time.Duration) error
}

// HashService handles password hashing.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject uuid.UUID
	Role    domain.Role
}

// --- Service Ports (Business Logic) ---

// AuthService defines authentication business logic.
type AuthService interface {
	AdminLogin(ctx context.Context, username, password string) (string, time.Time, error)
	ClientLogin(ctx context.Context, email, password string) (string, time.Time, error)
	// Signup registers a client and returns a token for it.
	Signup(ctx context.Context, req CreateClientRequest) (*domain.Client, string, time.Time, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

// ClientService defines client management.
type ClientService interface {
	Create(ctx context.Context, req CreateClientRequest) (*domain.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, params ClientListParams) ([]ClientListItem, error)
	Update(ctx context.Context, req UpdateClientRequest) (*domain.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateClientRequest holds validated input for client creation.
type CreateClientRequest struct {
	Name      string
	Email     string
	Phone     *string
	CPF       *string
	WalletRef *string
	Password  string
}

// UpdateClientRequest holds a partial client update. Nil fields are left unchanged.
type UpdateClientRequest struct {
	ID        uuid.UUID
	Name      *string
	Email     *string
	Phone     *string
	CPF       *string
	WalletRef *string
}

// TransactionService records and lists ledger entries.
type TransactionService interface {
	Record(ctx context.Context, req RecordTransactionRequest) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// RecordTransactionRequest holds validated input for a deposit or withdrawal.
// Exactly one of AmountCents and BTCAmount is set. A nil Price means the live
// spot price is used.
type RecordTransactionRequest struct {
	ClientID    uuid.UUID
	Kind        domain.TransactionKind
	AmountCents *int64
	BTCAmount   *decimal.Decimal
	Price       *decimal.Decimal
	OccurredAt  *time.Time
	Note        *string
}

// BalanceService computes balance views.
type BalanceService interface {
	GetSummary(ctx context.Context, clientID uuid.UUID) (*domain.BalanceSummary, error)
	GetFundStats(ctx context.Context) (*FundStats, error)
}

// FundStats is the fund-wide counterpart of a client balance summary.
type FundStats struct {
	ClientCount         int64
	TotalDepositedCents int64
	TotalWithdrawnCents int64
	NetBTC              decimal.Decimal
	Valuation           *domain.Valuation // nil when the spot price is unavailable
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
