package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who a token was issued to.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// Admin is a back-office operator allowed to manage clients and ledgers.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
