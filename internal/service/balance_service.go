package service

import (
	"context"
	"errors"
	"fmt"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BalanceServiceImpl implements ports.BalanceService.
type BalanceServiceImpl struct {
	clientRepo ports.ClientRepository
	txRepo     ports.TransactionRepository
	prices     ports.PriceSource
	log        zerolog.Logger
}

// NewBalanceService creates a new BalanceServiceImpl.
func NewBalanceService(
	clientRepo ports.ClientRepository,
	txRepo ports.TransactionRepository,
	prices ports.PriceSource,
	log zerolog.Logger,
) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		clientRepo: clientRepo,
		txRepo:     txRepo,
		prices:     prices,
		log:        log,
	}
}

// GetSummary derives a client's balance from the full ledger and the spot
// price, fetched concurrently. A price failure leaves the valuation
// unavailable; a ledger failure fails the call.
func (s *BalanceServiceImpl) GetSummary(ctx context.Context, clientID uuid.UUID) (*domain.BalanceSummary, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get client: %w", err))
	}
	if client == nil {
		return nil, apperror.ErrNotFound("Client")
	}

	var (
		ledger []domain.Transaction
		quote  *domain.PriceQuote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := s.txRepo.ListByClient(gctx, clientID)
		if err != nil {
			return fmt.Errorf("read ledger: %w", err)
		}
		ledger = txns
		return nil
	})
	g.Go(func() error {
		quote = s.spotPrice(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.InternalError(err)
	}

	summary, err := domain.Summarize(ledger, quote)
	if err != nil {
		return nil, ledgerError(s.log, err, clientID)
	}
	return summary, nil
}

// GetFundStats aggregates every client's ledger and values the fund's net
// BTC with the same rounding as a single client.
func (s *BalanceServiceImpl) GetFundStats(ctx context.Context) (*ports.FundStats, error) {
	var (
		totals *ports.FundTotals
		quote  *domain.PriceQuote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.txRepo.GetFundTotals(gctx)
		if err != nil {
			return fmt.Errorf("fund totals: %w", err)
		}
		totals = t
		return nil
	})
	g.Go(func() error {
		quote = s.spotPrice(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.InternalError(err)
	}

	net := totals.DepositedBTC.Sub(totals.WithdrawnBTC)
	if net.IsNegative() {
		err := fmt.Errorf("%w: fund holds %s BTC", domain.ErrNegativeBalance, net.StringFixed(domain.BTCScale))
		s.log.Error().Err(err).Msg("fund ledger inconsistent")
		return nil, apperror.ErrLedgerInconsistent(err)
	}

	valuation, err := domain.Value(net, totals.TotalDepositedCents, quote)
	if err != nil {
		return nil, ledgerError(s.log, err, uuid.Nil)
	}

	return &ports.FundStats{
		ClientCount:         totals.ClientCount,
		TotalDepositedCents: totals.TotalDepositedCents,
		TotalWithdrawnCents: totals.TotalWithdrawnCents,
		NetBTC:              net,
		Valuation:           valuation,
	}, nil
}

// ledgerError maps a failure to fold a ledger. Totals beyond int64 cents are
// an internal error; anything else is an inconsistency.
func ledgerError(log zerolog.Logger, err error, clientID uuid.UUID) error {
	ev := log.Error().Err(err)
	if clientID != uuid.Nil {
		ev = ev.Str("client_id", clientID.String())
	}
	if errors.Is(err, domain.ErrAmountOutOfRange) {
		ev.Msg("ledger totals out of range")
		return apperror.InternalError(err)
	}
	ev.Msg("ledger inconsistent")
	return apperror.ErrLedgerInconsistent(err)
}

// spotPrice returns nil when no quote can be obtained.
func (s *BalanceServiceImpl) spotPrice(ctx context.Context) *domain.PriceQuote {
	q, err := s.prices.SpotPrice(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("spot price unavailable, valuation omitted")
		return nil
	}
	return q
}
