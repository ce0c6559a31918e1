package ports

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

import (
	"context"
	"time"

	"btc-fund-manager/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AdminRepository defines persistence operations for back-office users.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

// ClientRepository defines persistence operations for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	GetByEmail(ctx context.Context, email string) (*domain.Client, error)
	List(ctx context.Context, params ClientListParams) ([]ClientListItem, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	// LockForUpdate takes a row lock on the client inside tx.
	// Returns false if the client does not exist.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// ClientListParams holds search + cursor pagination for the admin client list.
type ClientListParams struct {
	Query  string
	Limit  int
	Cursor *ClientCursor // last item of the previous page
}

// ClientCursor is the keyset position of a client in the admin list, which
// is ordered newest first with id as tie-breaker.
type ClientCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ClientListItem is a client row with its ledger size.
type ClientListItem struct {
	domain.Client
	TransactionCount int64
}

// TransactionRepository is the ledger store. Entries are insert-only.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ListByClient returns the full ledger of a client in ledger order
	// (occurred_at, created_at, id).
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Transaction, error)
	// ListByClientTx is ListByClient inside tx, used after LockForUpdate.
	ListByClientTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) ([]domain.Transaction, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetFundTotals(ctx context.Context) (*FundTotals, error)
}

// TransactionListParams holds filter + pagination for listing a client's ledger.
type TransactionListParams struct {
	ClientID uuid.UUID
	Kind     *domain.TransactionKind
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// FundTotals aggregates the ledger of every client.
type FundTotals struct {
	ClientCount         int64
	TotalDepositedCents int64
	TotalWithdrawnCents int64
	DepositedBTC        decimal.Decimal
	WithdrawnBTC        decimal.Decimal
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
