package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateEmail is returned by stores when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrClientHasLedger is returned by stores when a client still has
	// ledger entries referencing it.
	ErrClientHasLedger = errors.New("client has ledger entries")
)

// Client is a fund participant whose ledger is managed by administrators.
type Client struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	CPF          *string   `json:"cpf,omitempty"`
	WalletRef    *string   `json:"wallet_ref,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
