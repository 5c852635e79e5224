package model

import (
	"context"
	"time"
)

// RoleUser is the role assigned to self-registered users.
const RoleUser = "user"

// ProfileStore is the per-user document store keyed by identity id.
type ProfileStore interface {
	Get(ctx context.Context, uid string) (Profile, error)
	Create(ctx context.Context, profile Profile) error
	Update(ctx context.Context, uid string, update ProfileUpdate) (Profile, error)
}

// Profile is the user document kept next to the identity.
type Profile struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
