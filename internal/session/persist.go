package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

const finalSaveTimeout = 5 * time.Second

// Snapshot returns the persisted part of the store. The session is not part
// of it: after a reload it must be resolved again by the identity provider.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pr := s.priceRange
	return model.Snapshot{
		Cart:       append([]model.CartItem(nil), s.cart...),
		Products:   append([]model.Product(nil), s.products...),
		PriceRange: &pr,
		SortKey:    s.sortKey,
	}
}

// Restore replaces cart and product cache with the snapshot contents.
// Duplicate cart lines are merged.
func (s *Store) Restore(snap model.Snapshot) {
	var cart []model.CartItem
	for _, item := range snap.Cart {
		cart = addLine(cart, item)
	}

	s.mu.Lock()
	s.cart = cart
	s.products = append([]model.Product(nil), snap.Products...)
	s.sortKey = snap.SortKey
	if snap.PriceRange != nil {
		s.priceRange = *snap.PriceRange
	}
	s.mu.Unlock()
}

// Persister saves and restores store snapshots through a StateStore.
type Persister struct {
	store    *Store
	states   model.StateStore
	key      string
	interval time.Duration
	logger   *logger.Logger
}

// NewPersister creates a Persister writing the snapshot under key.
func NewPersister(store *Store, states model.StateStore, key string, interval time.Duration, logger *logger.Logger) *Persister {
	if interval <= 0 {
		interval = time.Second
	}
	return &Persister{
		store:    store,
		states:   states,
		key:      key,
		interval: interval,
		logger:   logger,
	}
}

// Load restores the last saved snapshot. A missing snapshot is not an error.
func (p *Persister) Load(ctx context.Context) error {
	data, err := p.states.Load(ctx, p.key)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Debug("Persister: no saved state", "key", p.key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}

	p.store.Restore(snap)
	p.logger.Debug("Persister: state restored",
		"key", p.key,
		"cart_lines", len(snap.Cart))

	return nil
}

// Save writes the current snapshot.
func (p *Persister) Save(ctx context.Context) error {
	data, err := json.Marshal(p.store.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := p.states.Save(ctx, p.key, data); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// Run saves the snapshot at most once per interval while changes keep coming,
// and once more when ctx is done.
func (p *Persister) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			select {
			case <-p.store.Changes():
				dirty = true
			default:
			}
			if !dirty {
				return nil
			}
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			err := p.Save(saveCtx)
			cancel()
			if err != nil {
				p.logger.Error("Persister: final save failed", "error", err.Error())
			}
			return nil
		case <-p.store.Changes():
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			if err := p.Save(ctx); err != nil {
				p.logger.Error("Persister: save failed", "error", err.Error())
				continue
			}
			dirty = false
		}
	}
}
