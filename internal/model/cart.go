package model

import "github.com/shopspring/decimal"

// CartItem is a single cart line. ProductID is unique within a cart.
type CartItem struct {
	ProductID ProductID       `json:"id"`
	Name      string          `json:"name,omitempty"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Subtotal returns quantity times unit price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItemFromProduct builds a cart line for a catalog product.
func CartItemFromProduct(p Product, quantity int) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Quantity:  quantity,
		Price:     p.Price,
	}
}
