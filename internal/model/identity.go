package model

import (
	"context"
	"strings"
)

// Identity is the raw user record reported by the identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// IdentityEvent is a single auth-state change. A nil Identity means signed out.
type IdentityEvent struct {
	Identity *Identity
}

// ProfileUpdate carries optional display name and photo changes.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// IdentityProvider is the authentication service the storefront signs users in with.
type IdentityProvider interface {
	// Subscribe opens an auth-state stream. The first event is the current state.
	Subscribe() (<-chan IdentityEvent, func())
	CreateUser(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*Identity, error)
	CurrentUser() *Identity
}

// Registrar notifies the backend about a newly registered user.
type Registrar interface {
	Register(identity Identity)
}

// Name returns the display name, falling back to the local part of the email.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if at := strings.IndexByte(i.Email, '@'); at >= 0 {
		return i.Email[:at]
	}
	return i.Email
}
