package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore persists identity provider accounts.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (Account, error)
}

// Account is a credential record owned by the identity provider.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the public part of the account.
func (a Account) Identity() *Identity {
	return &Identity{
		UID:         a.ID.String(),
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
	}
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
