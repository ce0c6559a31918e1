package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	DefaultTransactionPageSize = 20
	MaxTransactionPageSize     = 100

	// maxClockSkew bounds how far in the future occurred_at may be.
	maxClockSkew = 5 * time.Minute
)

// TransactionServiceImpl implements ports.TransactionService.
type TransactionServiceImpl struct {
	transactor ports.DBTransactor
	clientRepo ports.ClientRepository
	txRepo     ports.TransactionRepository
	prices     ports.PriceSource
	log        zerolog.Logger
}

// NewTransactionService creates a new TransactionServiceImpl.
func NewTransactionService(
	transactor ports.DBTransactor,
	clientRepo ports.ClientRepository,
	txRepo ports.TransactionRepository,
	prices ports.PriceSource,
	log zerolog.Logger,
) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		transactor: transactor,
		clientRepo: clientRepo,
		txRepo:     txRepo,
		prices:     prices,
		log:        log,
	}
}

// Record appends a deposit or withdrawal to a client's ledger.
//
// The client row is locked for the duration of the database transaction, so
// concurrent withdrawals for one client are checked against each other.
func (s *TransactionServiceImpl) Record(ctx context.Context, req ports.RecordTransactionRequest) (*domain.Transaction, error) {
	if !req.Kind.Valid() {
		return nil, apperror.Validation("kind must be DEPOSIT or WITHDRAWAL")
	}
	if (req.AmountCents == nil) == (req.BTCAmount == nil) {
		return nil, apperror.Validation("exactly one of amount_cents and btc_amount is required")
	}
	if req.AmountCents != nil && *req.AmountCents <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.BTCAmount != nil && !req.BTCAmount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	var occurredAt time.Time
	if req.OccurredAt != nil {
		if req.OccurredAt.After(time.Now().Add(maxClockSkew)) {
			return nil, apperror.Validation("occurred_at must not be in the future")
		}
		occurredAt = *req.OccurredAt
	}

	price, err := s.resolvePrice(ctx, req.Price)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	if req.AmountCents != nil {
		txn, err = domain.NewTransactionFromFiat(req.ClientID, req.Kind, *req.AmountCents, price, occurredAt)
	} else {
		txn, err = domain.NewTransactionFromBTC(req.ClientID, req.Kind, *req.BTCAmount, price, occurredAt)
	}
	if err != nil {
		return nil, mapDomainError(err)
	}
	if req.Note != nil {
		if note := strings.TrimSpace(*req.Note); note != "" {
			txn.Note = &note
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	found, err := s.clientRepo.LockForUpdate(ctx, dbTx, req.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrLedgerBusy) {
			s.log.Warn().Str("client_id", req.ClientID.String()).Msg("client ledger lock timed out")
			return nil, apperror.ErrLockTimeout(err)
		}
		return nil, apperror.ErrDatabaseError(err)
	}
	if !found {
		return nil, apperror.ErrNotFound("Client")
	}

	if txn.Kind == domain.TransactionKindWithdrawal {
		if err := s.checkAvailable(ctx, dbTx, txn); err != nil {
			return nil, err
		}
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("client_id", txn.ClientID.String()).
		Str("kind", string(txn.Kind)).
		Int64("amount_cents", txn.AmountCents).
		Str("btc_amount", txn.BTCAmount.StringFixed(domain.BTCScale)).
		Str("price", txn.PriceAtTime.StringFixed(domain.PriceScale)).
		Msg("transaction recorded")

	return txn, nil
}

// checkAvailable rejects a withdrawal larger than the client's net BTC.
func (s *TransactionServiceImpl) checkAvailable(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction) error {
	ledger, err := s.txRepo.ListByClientTx(ctx, dbTx, txn.ClientID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}

	summary, err := domain.Summarize(ledger, nil)
	if err != nil {
		return ledgerError(s.log, err, txn.ClientID)
	}

	if txn.BTCAmount.GreaterThan(summary.NetBTC) {
		s.log.Info().
			Str("client_id", txn.ClientID.String()).
			Str("requested_btc", txn.BTCAmount.StringFixed(domain.BTCScale)).
			Str("available_btc", summary.NetBTC.StringFixed(domain.BTCScale)).
			Msg("withdrawal rejected")
		return apperror.ErrInsufficientBTC()
	}
	return nil
}

// List returns one page of a client's ledger, newest first.
func (s *TransactionServiceImpl) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	client, err := s.clientRepo.GetByID(ctx, params.ClientID)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("get client: %w", err))
	}
	if client == nil {
		return nil, 0, apperror.ErrNotFound("Client")
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = DefaultTransactionPageSize
	}
	if params.PageSize > MaxTransactionPageSize {
		params.PageSize = MaxTransactionPageSize
	}
	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return nil, 0, apperror.Validation("from must not be after to")
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, total, nil
}

// resolvePrice returns the manual price if given, else the live spot price.
func (s *TransactionServiceImpl) resolvePrice(ctx context.Context, manual *decimal.Decimal) (decimal.Decimal, error) {
	if manual != nil {
		if !manual.IsPositive() {
			return decimal.Zero, apperror.ErrInvalidPrice()
		}
		return *manual, nil
	}

	quote, err := s.prices.SpotPrice(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("live price unavailable for transaction")
		return decimal.Zero, apperror.ErrPriceUnavailable(err)
	}
	return quote.Price, nil
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return apperror.ErrInvalidAmount()
	case errors.Is(err, domain.ErrInvalidPrice):
		return apperror.ErrInvalidPrice()
	case errors.Is(err, domain.ErrInvalidKind):
		return apperror.Validation("kind must be DEPOSIT or WITHDRAWAL")
	case errors.Is(err, domain.ErrAmountOutOfRange):
		return apperror.ErrAmountOutOfRange()
	default:
		return apperror.InternalError(err)
	}
}
