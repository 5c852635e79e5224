// Package session holds the storefront's single source of truth: the current
// session, the cart and the product cache.
//
// A Store is an explicit context object. It is built once per application run,
// handed to the identity sync adapter and the navigation guard, and discarded on
// shutdown. All methods are safe for concurrent use.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

const maxNotices = 32

// DefaultPriceRange is the price filter used before any products were loaded.
var DefaultPriceRange = model.PriceRange{Min: decimal.Zero, Max: decimal.NewFromInt(1000)}

// Store is the session state store.
type Store struct {
	profiles model.ProfileStore
	catalog  model.CatalogClient
	metrics  model.Metrics
	logger   *logger.Logger

	mu sync.RWMutex

	session      model.Session
	lastResolved model.Session
	resolved     chan struct{}
	userIssued   uint64

	cart []model.CartItem

	products    []model.Product
	priceRange  model.PriceRange
	sortKey     model.SortKey
	fetchIssued uint64
	inflight    int

	notices []model.Notice
	changes chan struct{}
}

// New creates a Store with an unresolved session and an empty cart.
func New(profiles model.ProfileStore, catalog model.CatalogClient, metrics model.Metrics, logger *logger.Logger) *Store {
	if metrics == nil {
		metrics = model.NopMetrics{}
	}
	return &Store{
		profiles:   profiles,
		catalog:    catalog,
		metrics:    metrics,
		logger:     logger,
		resolved:   make(chan struct{}),
		priceRange: DefaultPriceRange,
		changes:    make(chan struct{}, 1),
	}
}

// Session returns a copy of the current session.
func (s *Store) Session() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// Resolved returns a channel that is closed once the session is resolved.
// A new channel is handed out after the session re-enters the unresolved state.
func (s *Store) Resolved() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved
}

// WaitResolved blocks until the session is resolved or ctx is done.
func (s *Store) WaitResolved(ctx context.Context) (model.Session, error) {
	for {
		s.mu.RLock()
		sess, ch := s.session.Clone(), s.resolved
		s.mu.RUnlock()

		if sess.Resolved() {
			return sess, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return sess, ctx.Err()
		}
	}
}

// SetUser resolves the session from a provider event. A nil identity resolves
// it as absent. A present identity is merged with its profile document before
// the new value becomes visible.
//
// Completions that were overtaken by a later SetUser call are dropped.
func (s *Store) SetUser(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	s.userIssued++
	seq := s.userIssued
	s.mu.Unlock()

	next := model.AbsentSession()
	if identity != nil {
		next = model.PresentSession(s.mergeProfile(ctx, identity))
	}

	s.mu.Lock()
	if seq != s.userIssued {
		s.mu.Unlock()
		s.logger.Debug("Session store: dropping superseded user update",
			"seq", seq)
		return nil
	}
	s.session = next
	s.lastResolved = next
	s.signalResolvedLocked()
	s.mu.Unlock()

	s.metrics.RecordSessionResolved(next.State)

	if next.User != nil {
		s.logger.Info("Session store: session resolved",
			"state", next.State.String(),
			"uid", next.User.ID,
			"admin", next.User.IsAdmin)
	} else {
		s.logger.Info("Session store: session resolved",
			"state", next.State.String())
	}

	return nil
}

// mergeProfile looks up the profile document of identity. Lookup failures are
// logged and fall back to a non-admin user.
func (s *Store) mergeProfile(ctx context.Context, identity *model.Identity) model.User {
	user := model.User{
		ID:          identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
	}

	profile, err := s.profiles.Get(ctx, identity.UID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.logger.Debug("Session store: no profile document for user",
			"uid", identity.UID)
		return user
	case err != nil:
		s.logger.Warn("Session store: failed to load profile document",
			"uid", identity.UID,
			"error", err.Error())
		return user
	}

	user.IsAdmin = profile.IsAdmin
	if user.DisplayName == "" {
		user.DisplayName = profile.Name
	}
	if user.PhotoURL == "" {
		user.PhotoURL = profile.PhotoURL
	}

	return user
}

// BeginResolution moves an absent session back to unresolved because a new
// sign-in sequence has started. It reports false and changes nothing unless
// the session is currently absent.
func (s *Store) BeginResolution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.State != model.SessionAbsent {
		return false
	}
	s.session = model.Session{}
	s.resolved = make(chan struct{})
	return true
}

// CancelResolution restores the last resolved session if the session is
// still unresolved, releasing anyone waiting on it.
func (s *Store) CancelResolution() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Resolved() || !s.lastResolved.Resolved() {
		return
	}
	s.session = s.lastResolved
	s.signalResolvedLocked()
}

func (s *Store) signalResolvedLocked() {
	select {
	case <-s.resolved:
	default:
		close(s.resolved)
	}
}

// Notices drains the queued user-visible notices.
func (s *Store) Notices() []model.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.notices
	s.notices = nil
	return out
}

func (s *Store) pushNoticeLocked(level model.NoticeLevel, msg string) {
	s.notices = append(s.notices, model.Notice{Level: level, Message: msg, At: time.Now()})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// Changes delivers a coalesced signal whenever persisted state changed.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notifyChanged() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
