// Package identity connects the storefront to its identity provider.
//
// Sync forwards auth-state events from the provider into the session store,
// one at a time and in arrival order. Auth runs the register/login/logout
// flows against the provider and the profile document store. LocalProvider is
// the provider implementation used by this module.
package identity

import (
	"context"
	"sync"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
	"github.com/dtroode/storefront/internal/session"
)

// Sync is the identity sync adapter. It is the only writer of the session's
// resolved/unresolved transitions.
type Sync struct {
	provider model.IdentityProvider
	store    *session.Store
	logger   *logger.Logger

	mu          sync.Mutex
	started     bool
	unsubscribe func()
	done        chan struct{}
}

// NewSync creates a Sync for the given provider and store.
func NewSync(provider model.IdentityProvider, store *session.Store, logger *logger.Logger) *Sync {
	return &Sync{
		provider: provider,
		store:    store,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start opens the single provider subscription for the lifetime of the Sync.
// Events are applied until ctx is done or Stop is called.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return model.ErrAlreadyStarted
	}
	s.started = true

	events, unsubscribe := s.provider.Subscribe()
	s.unsubscribe = unsubscribe

	go s.run(ctx, events)

	s.logger.Debug("Identity sync: subscribed to provider")

	return nil
}

func (s *Sync) run(ctx context.Context, events <-chan model.IdentityEvent) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.apply(ctx, ev)
		}
	}
}

// apply blocks until the store has fully settled the event.
func (s *Sync) apply(ctx context.Context, ev model.IdentityEvent) {
	if ev.Identity != nil {
		s.logger.Debug("Identity sync: applying sign-in event", "uid", ev.Identity.UID)
	} else {
		s.logger.Debug("Identity sync: applying sign-out event")
	}

	if err := s.store.SetUser(ctx, ev.Identity); err != nil {
		s.logger.Error("Identity sync: failed to apply event", "error", err.Error())
	}
}

// Stop closes the subscription and waits for the event loop to exit.
func (s *Sync) Stop() {
	s.mu.Lock()
	started, unsubscribe := s.started, s.unsubscribe
	s.mu.Unlock()

	if !started {
		return
	}
	unsubscribe()
	<-s.done
}

// Done is closed when the event loop has exited.
func (s *Sync) Done() <-chan struct{} {
	return s.done
}

// BeginSignIn marks an absent session unresolved while a sign-in is under
// way, so navigation waits for its outcome. It reports whether it did.
func (s *Sync) BeginSignIn() bool {
	return s.store.BeginResolution()
}

// AbortSignIn restores the previous outcome after a failed sign-in.
func (s *Sync) AbortSignIn() {
	s.store.CancelResolution()
}
