package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Numerics travel as text so no precision is lost between PostgreSQL and decimal.Decimal.
const txColumns = `id, client_id, kind, amount_cents, btc_amount::text, price_at_time::text, note, occurred_at, created_at`

const ledgerOrder = `ORDER BY occurred_at, created_at, id`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, client_id, kind, amount_cents, btc_amount, price_at_time, note, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.ClientID, string(t.Kind), t.AmountCents,
		t.BTCAmount.StringFixed(domain.BTCScale), t.PriceAtTime.StringFixed(domain.PriceScale),
		t.Note, t.OccurredAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListByClient returns the complete ledger of a client in ledger order.
func (r *TransactionRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+txColumns+` FROM transactions WHERE client_id = $1 `+ledgerOrder, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client ledger: %w", err)
	}
	return collectTransactions(rows)
}

// ListByClientTx reads the ledger through tx so it sees the same snapshot
// as the row lock taken on the client.
func (r *TransactionRepo) ListByClientTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := tx.Query(ctx, `SELECT `+txColumns+` FROM transactions WHERE client_id = $1 `+ledgerOrder, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client ledger in tx: %w", err)
	}
	return collectTransactions(rows)
}

// CountByClient returns the number of ledger entries of a client.
func (r *TransactionRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE client_id = $1`, clientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// List fetches a page of a client's ledger, newest first, with kind and date filters.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("client_id = $%d", argIdx))
	args = append(args, params.ClientID)
	argIdx++

	if params.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, string(*params.Kind))
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s
		ORDER BY occurred_at DESC, created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		txColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// GetFundTotals aggregates the ledgers of every client.
func (r *TransactionRepo) GetFundTotals(ctx context.Context) (*ports.FundTotals, error) {
	query := `SELECT
		(SELECT COUNT(*) FROM clients) AS client_count,
		COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'DEPOSIT'), 0) AS deposited_cents,
		COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'WITHDRAWAL'), 0) AS withdrawn_cents,
		COALESCE(SUM(btc_amount) FILTER (WHERE kind = 'DEPOSIT'), 0)::text AS deposited_btc,
		COALESCE(SUM(btc_amount) FILTER (WHERE kind = 'WITHDRAWAL'), 0)::text AS withdrawn_btc
		FROM transactions`

	totals := &ports.FundTotals{}
	var depositedBTC, withdrawnBTC string
	err := r.pool.QueryRow(ctx, query).Scan(
		&totals.ClientCount, &totals.TotalDepositedCents, &totals.TotalWithdrawnCents,
		&depositedBTC, &withdrawnBTC,
	)
	if err != nil {
		return nil, fmt.Errorf("get fund totals: %w", err)
	}

	if totals.DepositedBTC, err = decimal.NewFromString(depositedBTC); err != nil {
		return nil, fmt.Errorf("parse deposited btc %q: %w", depositedBTC, err)
	}
	if totals.WithdrawnBTC, err = decimal.NewFromString(withdrawnBTC); err != nil {
		return nil, fmt.Errorf("parse withdrawn btc %q: %w", withdrawnBTC, err)
	}
	return totals, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction scans one row. pgx.ErrNoRows stays detectable with errors.Is.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var kind, btc, price string
	err := row.Scan(
		&t.ID, &t.ClientID, &kind, &t.AmountCents,
		&btc, &price, &t.Note, &t.OccurredAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Kind = domain.TransactionKind(kind)
	if t.BTCAmount, err = decimal.NewFromString(btc); err != nil {
		return nil, fmt.Errorf("parse btc_amount %q of %s: %w", btc, t.ID, err)
	}
	if t.PriceAtTime, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price_at_time %q of %s: %w", price, t.ID, err)
	}
	return t, nil
}
