package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	adminRepo  ports.AdminRepository
	clientRepo ports.ClientRepository
	clientSvc  ports.ClientService
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	adminRepo ports.AdminRepository,
	clientRepo ports.ClientRepository,
	clientSvc ports.ClientService,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		adminRepo:  adminRepo,
		clientRepo: clientRepo,
		clientSvc:  clientSvc,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		log:        log,
	}
}

// AdminLogin validates back-office credentials and returns a JWT token.
func (s *AuthServiceImpl) AdminLogin(ctx context.Context, username, password string) (string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find admin: %w", err))
	}
	if admin == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if err := s.verify(password, admin.PasswordHash); err != nil {
		return "", time.Time{}, err
	}

	return s.issue(admin.ID, domain.RoleAdmin)
}

// ClientLogin validates client credentials and returns a JWT token.
func (s *AuthServiceImpl) ClientLogin(ctx context.Context, email, password string) (string, time.Time, error) {
	client, err := s.clientRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find client: %w", err))
	}
	if client == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if err := s.verify(password, client.PasswordHash); err != nil {
		return "", time.Time{}, err
	}

	return s.issue(client.ID, domain.RoleClient)
}

// Signup registers a client through the same rules as admin creation and
// logs the new client in.
func (s *AuthServiceImpl) Signup(ctx context.Context, req ports.CreateClientRequest) (*domain.Client, string, time.Time, error) {
	client, err := s.clientSvc.Create(ctx, req)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiry, err := s.issue(client.ID, domain.RoleClient)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return client, token, expiry, nil
}

// EnsureAdmin creates the bootstrap admin if it does not exist yet.
// An empty password disables the bootstrap.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.log.Warn().Msg("admin bootstrap skipped: no credentials configured")
		return nil
	}

	existing, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := s.hashSvc.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &domain.Admin{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	s.log.Info().Str("username", username).Msg("bootstrap admin created")
	return nil
}

func (s *AuthServiceImpl) verify(password, hash string) error {
	valid, err := s.hashSvc.Verify(password, hash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return apperror.ErrInvalidCredentials()
	}
	return nil
}

func (s *AuthServiceImpl) issue(subject uuid.UUID, role domain.Role) (string, time.Time, error) {
	token, expiry, err := s.tokenSvc.Generate(subject, role)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
