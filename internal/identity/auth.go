package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

// SignInTracker lets a sign-in put the session back into the unresolved state
// while it runs.
type SignInTracker interface {
	BeginSignIn() bool
	AbortSignIn()
}

// Auth runs the account flows of the storefront.
type Auth struct {
	provider  model.IdentityProvider
	profiles  model.ProfileStore
	registrar model.Registrar
	tracker   SignInTracker
	logger    *logger.Logger
}

// NewAuth creates an Auth service. The tracker is notified around sign-ins.
func NewAuth(
	provider model.IdentityProvider,
	profiles model.ProfileStore,
	registrar model.Registrar,
	tracker SignInTracker,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		provider:  provider,
		profiles:  profiles,
		registrar: registrar,
		tracker:   tracker,
		logger:    logger,
	}
}

// Register creates the account, stores its profile document and notifies the
// backend. The new user is signed in.
func (a *Auth) Register(ctx context.Context, email, password, name string) (*model.Identity, error) {
	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	began := a.tracker.BeginSignIn()
	identity, err := a.provider.CreateUser(ctx, email, password)
	if err != nil {
		if began {
			a.tracker.AbortSignIn()
		}
		a.logger.Info("Auth service: registration rejected",
			"email", email,
			"error", err.Error())
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if name = strings.TrimSpace(name); name != "" {
		named, err := a.provider.UpdateProfile(ctx, model.ProfileUpdate{DisplayName: &name})
		if err != nil {
			a.logger.Error("Auth service: failed to set display name",
				"uid", identity.UID,
				"error", err.Error())
			return nil, fmt.Errorf("failed to set display name: %w", err)
		}
		identity = named
	}

	now := time.Now()
	err = a.profiles.Create(ctx, model.Profile{
		UID:       identity.UID,
		Email:     identity.Email,
		Name:      identity.Name(),
		PhotoURL:  identity.PhotoURL,
		Role:      model.RoleUser,
		IsAdmin:   false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to create profile document",
			"uid", identity.UID,
			"error", err.Error())
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	a.registrar.Register(*identity)

	a.logger.Info("Auth service: user registration completed successfully",
		"uid", identity.UID)

	return identity, nil
}

// Login signs an existing account in.
func (a *Auth) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	a.logger.Debug("Auth service: starting user login",
		"email", email)

	began := a.tracker.BeginSignIn()
	identity, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		if began {
			a.tracker.AbortSignIn()
		}
		a.logger.Info("Auth service: login rejected",
			"email", email,
			"error", err.Error())
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	a.logger.Info("Auth service: login completed successfully",
		"uid", identity.UID)

	return identity, nil
}

// Logout signs the current user out.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// UpdateProfile applies the update to the provider and to the profile
// document. A missing document is created.
func (a *Auth) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Identity, error) {
	identity, err := a.provider.UpdateProfile(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update identity: %w", err)
	}

	_, err = a.profiles.Update(ctx, identity.UID, update)
	if errors.Is(err, model.ErrNotFound) {
		now := time.Now()
		err = a.profiles.Create(ctx, model.Profile{
			UID:       identity.UID,
			Email:     identity.Email,
			Name:      identity.Name(),
			PhotoURL:  identity.PhotoURL,
			Role:      model.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		a.logger.Error("Auth service: failed to update profile document",
			"uid", identity.UID,
			"error", err.Error())
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	a.logger.Info("Auth service: profile updated",
		"uid", identity.UID)

	return identity, nil
}
