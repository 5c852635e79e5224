package session

import (
	"github.com/shopspring/decimal"

	"github.com/dtroode/storefront/internal/model"
)

// AddToCart adds item to the cart. An existing line for the same product has
// its quantity increased instead of being duplicated.
// Quantities below 1 are treated as 1.
func (s *Store) AddToCart(item model.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	s.cart = addLine(s.cart, item)
	s.mu.Unlock()

	s.notifyChanged()
}

func addLine(cart []model.CartItem, item model.CartItem) []model.CartItem {
	for i := range cart {
		if cart[i].ProductID == item.ProductID {
			cart[i].Quantity += item.Quantity
			return cart
		}
	}
	return append(cart, item)
}

// RemoveFromCart removes the line for productID. Unknown ids are ignored.
func (s *Store) RemoveFromCart(productID model.ProductID) {
	s.mu.Lock()
	idx := s.indexLocked(productID)
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.cart = append(s.cart[:idx], s.cart[idx+1:]...)
	s.mu.Unlock()

	s.notifyChanged()
}

// UpdateQuantity overwrites the quantity of an existing line.
// Unknown ids are ignored. The value is not validated; see UpdateQuantityStrict.
func (s *Store) UpdateQuantity(productID model.ProductID, quantity int) {
	s.mu.Lock()
	idx := s.indexLocked(productID)
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.cart[idx].Quantity = quantity
	s.mu.Unlock()

	s.notifyChanged()
}

// UpdateQuantityStrict is UpdateQuantity that rejects quantities below 1.
func (s *Store) UpdateQuantityStrict(productID model.ProductID, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}
	s.UpdateQuantity(productID, quantity)
	return nil
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()

	s.notifyChanged()
}

// Cart returns a copy of the cart lines in insertion order.
func (s *Store) Cart() []model.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CartItem, len(s.cart))
	copy(out, s.cart)
	return out
}

// CartCount is the sum of all line quantities.
func (s *Store) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.cart {
		count += item.Quantity
	}
	return count
}

// CartTotal is the sum of quantity times unit price over all lines.
func (s *Store) CartTotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, item := range s.cart {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s *Store) indexLocked(productID model.ProductID) int {
	for i := range s.cart {
		if s.cart[i].ProductID == productID {
			return i
		}
	}
	return -1
}
