package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SortKey selects the catalog ordering.
type SortKey string

const (
	SortDefault   SortKey = ""
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNewest    SortKey = "newest"
)

// Valid reports whether the catalog understands the key.
func (k SortKey) Valid() bool {
	switch k {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	}
	return false
}

// ProductID identifies a catalog product. The catalog sends either numbers or strings.
type ProductID string

// UnmarshalJSON accepts both JSON strings and numbers.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// Product is a catalog record.
type Product struct {
	ID            ProductID        `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Rating        *float64         `json:"rating,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
}

// PriceRange is the client-derived price filter bound for the cached products.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// CatalogClient reads products from the catalog API.
type CatalogClient interface {
	ListProducts(ctx context.Context, sort SortKey) ([]Product, error)
	GetProduct(ctx context.Context, id ProductID) (Product, error)
}
