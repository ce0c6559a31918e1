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
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgLockNotAvailable    = "55P03"
)

const clientColumns = `id, name, email, phone, cpf, wallet_ref, password_hash, created_at, updated_at`

// ClientRepo implements ports.ClientRepository.
type ClientRepo struct {
	pool Pool
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(pool Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

// Create inserts a new client. A taken email yields domain.ErrDuplicateEmail.
func (r *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	query := `INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.CPF, c.WalletRef,
		c.PasswordHash, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID fetches a client by UUID.
func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanClient(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a client by email, case-insensitively.
func (r *ClientRepo) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE lower(email) = lower($1)`
	return r.scanClient(r.pool.QueryRow(ctx, query, email))
}

// List returns clients newest first with their transaction counts.
// Query matches name, email, phone or cpf case-insensitively.
func (r *ClientRepo) List(ctx context.Context, params ports.ClientListParams) ([]ports.ClientListItem, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if q := strings.TrimSpace(params.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(c.name ILIKE $%d OR c.email ILIKE $%d OR c.phone ILIKE $%d OR c.cpf ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(q)+"%")
		argIdx++
	}
	if params.Cursor != nil {
		conditions = append(conditions, fmt.Sprintf("(c.created_at, c.id) < ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, params.Cursor.CreatedAt, params.Cursor.ID)
		argIdx += 2
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT c.id, c.name, c.email, c.phone, c.cpf, c.wallet_ref, c.password_hash,
		c.created_at, c.updated_at, COUNT(t.id) AS transaction_count
		FROM clients c
		LEFT JOIN transactions t ON t.client_id = c.id
		%s
		GROUP BY c.id
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $%d`, where, argIdx)
	args = append(args, params.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var items []ports.ClientListItem
	for rows.Next() {
		var it ports.ClientListItem
		err := rows.Scan(
			&it.ID, &it.Name, &it.Email, &it.Phone, &it.CPF, &it.WalletRef,
			&it.PasswordHash, &it.CreatedAt, &it.UpdatedAt, &it.TransactionCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}
	return items, nil
}

// Update overwrites the profile fields of a client. The password hash is not touched.
func (r *ClientRepo) Update(ctx context.Context, c *domain.Client) error {
	query := `UPDATE clients SET name = $1, email = $2, phone = $3, cpf = $4, wallet_ref = $5, updated_at = $6
		WHERE id = $7`

	tag, err := r.pool.Exec(ctx, query, c.Name, c.Email, c.Phone, c.CPF, c.WalletRef, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client not found: %s", c.ID)
	}
	return nil
}

// Delete removes a client. The foreign key on transactions refuses the
// delete if the client still has ledger entries.
func (r *ClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.ErrClientHasLedger
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client not found: %s", id)
	}
	return nil
}

// LockForUpdate takes a row lock on the client for the lifetime of tx.
func (r *ClientRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM clients WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return false, fmt.Errorf("lock client %s: %w", id, domain.ErrLedgerBusy)
		}
		return false, fmt.Errorf("lock client: %w", err)
	}
	return true, nil
}

func (r *ClientRepo) scanClient(row pgx.Row) (*domain.Client, error) {
	c := &domain.Client{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.CPF, &c.WalletRef,
		&c.PasswordHash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
