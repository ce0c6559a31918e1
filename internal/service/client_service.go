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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultClientPageSize = 20
	MaxClientPageSize     = 100
	MinPasswordLength     = 6
)

// ClientServiceImpl implements ports.ClientService.
type ClientServiceImpl struct {
	clientRepo ports.ClientRepository
	txRepo     ports.TransactionRepository
	hashSvc    ports.HashService
	log        zerolog.Logger
}

// NewClientService creates a new ClientServiceImpl.
func NewClientService(
	clientRepo ports.ClientRepository,
	txRepo ports.TransactionRepository,
	hashSvc ports.HashService,
	log zerolog.Logger,
) *ClientServiceImpl {
	return &ClientServiceImpl{
		clientRepo: clientRepo,
		txRepo:     txRepo,
		hashSvc:    hashSvc,
		log:        log,
	}
}

// Create registers a new client with a hashed password.
func (s *ClientServiceImpl) Create(ctx context.Context, req ports.CreateClientRequest) (*domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if email == "" {
		return nil, apperror.Validation("email is required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must have at least %d characters", MinPasswordLength))
	}

	existing, err := s.clientRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	hash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	client := &domain.Client{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        optional(req.Phone),
		CPF:          optional(req.CPF),
		WalletRef:    optional(req.WalletRef),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create client: %w", err))
	}

	s.log.Info().Str("client_id", client.ID.String()).Msg("client created")
	return client, nil
}

// Get returns a client by id.
func (s *ClientServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get client: %w", err))
	}
	if client == nil {
		return nil, apperror.ErrNotFound("Client")
	}
	return client, nil
}

// List returns one cursor page of clients.
func (s *ClientServiceImpl) List(ctx context.Context, params ports.ClientListParams) ([]ports.ClientListItem, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultClientPageSize
	}
	if params.Limit > MaxClientPageSize {
		params.Limit = MaxClientPageSize
	}
	params.Query = strings.TrimSpace(params.Query)

	items, err := s.clientRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list clients: %w", err))
	}
	if items == nil {
		items = []ports.ClientListItem{}
	}
	return items, nil
}

// Update applies the non-nil fields of req. Passwords are not changed here.
func (s *ClientServiceImpl) Update(ctx context.Context, req ports.UpdateClientRequest) (*domain.Client, error) {
	client, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		client.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, apperror.Validation("email must not be empty")
		}
		if email != client.Email {
			other, err := s.clientRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
			}
			if other != nil && other.ID != client.ID {
				return nil, apperror.ErrEmailExists()
			}
		}
		client.Email = email
	}
	if req.Phone != nil {
		client.Phone = optional(req.Phone)
	}
	if req.CPF != nil {
		client.CPF = optional(req.CPF)
	}
	if req.WalletRef != nil {
		client.WalletRef = optional(req.WalletRef)
	}
	client.UpdatedAt = time.Now().UTC()

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("update client: %w", err))
	}

	s.log.Info().Str("client_id", client.ID.String()).Msg("client updated")
	return client, nil
}

// Delete removes a client without ledger entries. Ledger rows are never
// deleted, so a client with transactions is refused.
func (s *ClientServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.txRepo.CountByClient(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("count transactions: %w", err))
	}
	if n > 0 {
		return apperror.ErrClientHasTransactions()
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrClientHasLedger) {
			return apperror.ErrClientHasTransactions()
		}
		return apperror.InternalError(fmt.Errorf("delete client: %w", err))
	}

	s.log.Info().Str("client_id", id.String()).Msg("client deleted")
	return nil
}

// optional trims s and maps blank values to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
