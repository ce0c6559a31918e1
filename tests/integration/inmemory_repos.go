package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Admin Repo ---

type inMemoryAdminRepo struct {
	mu     sync.RWMutex
	admins map[string]*domain.Admin
}

func newInMemoryAdminRepo() *inMemoryAdminRepo {
	return &inMemoryAdminRepo{admins: make(map[string]*domain.Admin)}
}

func (r *inMemoryAdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[a.Username]; ok {
		return fmt.Errorf("username already exists")
	}
	r.admins[a.Username] = a
	return nil
}

func (r *inMemoryAdminRepo) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.admins[username]
	if !ok {
		return nil, nil
	}
	return a, nil
}

// --- In-Memory Client Repo ---

type inMemoryClientRepo struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*domain.Client
	txRepo  *inMemoryTransactionRepo

	// rowLocks stands in for SELECT ... FOR UPDATE.
	rowLocks sync.Map // uuid.UUID -> *sync.Mutex
}

func newInMemoryClientRepo(txRepo *inMemoryTransactionRepo) *inMemoryClientRepo {
	r := &inMemoryClientRepo{clients: make(map[uuid.UUID]*domain.Client), txRepo: txRepo}
	txRepo.clients = r
	return r
}

func (r *inMemoryClientRepo) Create(ctx context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *inMemoryClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryClientRepo) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

// clientBefore reports whether c sorts after cur in newest-first order.
func clientBefore(c *domain.Client, cur *ports.ClientCursor) bool {
	if !c.CreatedAt.Equal(cur.CreatedAt) {
		return c.CreatedAt.Before(cur.CreatedAt)
	}
	return strings.Compare(c.ID.String(), cur.ID.String()) < 0
}

func (r *inMemoryClientRepo) List(ctx context.Context, params ports.ClientListParams) ([]ports.ClientListItem, error) {
	r.mu.RLock()
	var matched []domain.Client
	q := strings.ToLower(params.Query)
	for _, c := range r.clients {
		if params.Cursor != nil && !clientBefore(c, params.Cursor) {
			continue
		}
		if q != "" && !clientMatches(c, q) {
			continue
		}
		matched = append(matched, *c)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return !clientBefore(&matched[i], &ports.ClientCursor{CreatedAt: matched[j].CreatedAt, ID: matched[j].ID})
	})
	if len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}

	items := make([]ports.ClientListItem, 0, len(matched))
	for _, c := range matched {
		n, _ := r.txRepo.CountByClient(ctx, c.ID)
		items = append(items, ports.ClientListItem{Client: c, TransactionCount: n})
	}
	return items, nil
}

func clientMatches(c *domain.Client, q string) bool {
	fields := []string{c.Name, c.Email}
	for _, p := range []*string{c.Phone, c.CPF} {
		if p != nil {
			fields = append(fields, *p)
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (r *inMemoryClientRepo) Update(ctx context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; !ok {
		return fmt.Errorf("client not found")
	}
	for id, existing := range r.clients {
		if id != c.ID && strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *inMemoryClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	return nil
}

// LockForUpdate holds the client's row lock until tx commits or rolls back.
func (r *inMemoryClientRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	mtx, ok := tx.(*memTx)
	if !ok {
		return false, errors.New("lock outside of an in-memory transaction")
	}
	c, err := r.GetByID(ctx, id)
	if err != nil || c == nil {
		return false, err
	}

	v, _ := r.rowLocks.LoadOrStore(id, &sync.Mutex{})
	lock := v.(*sync.Mutex)
	lock.Lock()
	mtx.onEnd(lock.Unlock)
	return true, nil
}

func (r *inMemoryClientRepo) count() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.clients))
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	ledger  []domain.Transaction
	clients *inMemoryClientRepo
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledger = append(r.ledger, *t)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.ledger {
		if r.ledger[i].ID == id {
			t := r.ledger[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	txns := []domain.Transaction{}
	for _, t := range r.ledger {
		if t.ClientID == clientID {
			txns = append(txns, t)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(txns, func(i, j int) bool { return ledgerLess(txns[i], txns[j]) })
	return txns, nil
}

func (r *inMemoryTransactionRepo) ListByClientTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) ([]domain.Transaction, error) {
	return r.ListByClient(ctx, clientID)
}

func (r *inMemoryTransactionRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, t := range r.ledger {
		if t.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	all, _ := r.ListByClient(ctx, params.ClientID)

	var result []domain.Transaction
	for i := len(all) - 1; i >= 0; i-- { // newest first
		t := all[i]
		if params.Kind != nil && t.Kind != *params.Kind {
			continue
		}
		if params.From != nil && t.OccurredAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.OccurredAt.After(*params.To) {
			continue
		}
		result = append(result, t)
	}
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := min(start+params.PageSize, len(result))
	return result[start:end], total, nil
}

func (r *inMemoryTransactionRepo) GetFundTotals(ctx context.Context) (*ports.FundTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	totals := &ports.FundTotals{DepositedBTC: decimal.Zero, WithdrawnBTC: decimal.Zero}
	if r.clients != nil {
		totals.ClientCount = r.clients.count()
	}
	for _, t := range r.ledger {
		switch t.Kind {
		case domain.TransactionKindDeposit:
			totals.TotalDepositedCents += t.AmountCents
			totals.DepositedBTC = totals.DepositedBTC.Add(t.BTCAmount)
		case domain.TransactionKindWithdrawal:
			totals.TotalWithdrawnCents += t.AmountCents
			totals.WithdrawnBTC = totals.WithdrawnBTC.Add(t.BTCAmount)
		}
	}
	return totals, nil
}

func ledgerLess(a, b domain.Transaction) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx is a pgx.Tx whose only effect is releasing the row locks taken
// through it when it ends.
type memTx struct {
	mu       sync.Mutex
	releases []func()
	ended    bool
}

func (t *memTx) onEnd(release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases = append(t.releases, release)
}

func (t *memTx) end() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	t.ended = true
	for _, release := range t.releases {
		release()
	}
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.end(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.end(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
