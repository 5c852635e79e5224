package session

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dtroode/storefront/internal/model"
)

const fetchFailedNotice = "Could not load products. Please try again."

var hundred = decimal.NewFromInt(100)

// FetchProducts reloads the product cache from the catalog.
//
// On success the cache is replaced wholesale and the price range is derived
// from the new set (an empty set keeps the previous range). On failure the
// cache is left as it was and a notice is queued. Only the most recently
// issued call may update the cache; older responses are dropped.
func (s *Store) FetchProducts(ctx context.Context, sort model.SortKey) error {
	s.mu.Lock()
	s.fetchIssued++
	seq := s.fetchIssued
	s.inflight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	start := time.Now()
	products, err := s.catalog.ListProducts(ctx, sort)
	s.metrics.RecordCatalogFetch(err == nil, time.Since(start))

	if err != nil {
		s.logger.Error("Session store: failed to fetch products",
			"sort", string(sort),
			"error", err.Error())

		s.mu.Lock()
		if seq == s.fetchIssued {
			s.pushNoticeLocked(model.NoticeError, fetchFailedNotice)
		}
		s.mu.Unlock()

		return fmt.Errorf("failed to fetch products: %w", err)
	}

	s.mu.Lock()
	if seq != s.fetchIssued {
		s.mu.Unlock()
		s.logger.Debug("Session store: dropping superseded product response",
			"seq", seq)
		return nil
	}
	s.products = append([]model.Product(nil), products...)
	s.sortKey = sort
	if r, ok := DerivePriceRange(products); ok {
		s.priceRange = r
	}
	s.mu.Unlock()

	s.notifyChanged()

	s.logger.Debug("Session store: products loaded",
		"count", len(products),
		"sort", string(sort))

	return nil
}

// FetchProduct reads a single product from the catalog without caching it.
func (s *Store) FetchProduct(ctx context.Context, id model.ProductID) (model.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		s.logger.Error("Session store: failed to fetch product",
			"id", string(id),
			"error", err.Error())
		return model.Product{}, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return p, nil
}

// DerivePriceRange returns [0, ceil(max/100)*100] over the product prices.
// It reports false for an empty set.
func DerivePriceRange(products []model.Product) (model.PriceRange, bool) {
	if len(products) == 0 {
		return model.PriceRange{}, false
	}

	top := products[0].Price
	for _, p := range products[1:] {
		if p.Price.GreaterThan(top) {
			top = p.Price
		}
	}

	return model.PriceRange{
		Min: decimal.Zero,
		Max: top.Div(hundred).Ceil().Mul(hundred),
	}, true
}

// Products returns a copy of the cached products.
func (s *Store) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Product(nil), s.products...)
}

// PriceRange returns the price range derived from the cached products.
func (s *Store) PriceRange() model.PriceRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priceRange
}

// SortKey returns the sort key the cache was loaded with.
func (s *Store) SortKey() model.SortKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey
}

// IsLoading reports whether a product fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// AddProduct adds quantity units of p to the cart.
func (s *Store) AddProduct(p model.Product, quantity int) {
	s.AddToCart(model.CartItemFromProduct(p, quantity))
}
