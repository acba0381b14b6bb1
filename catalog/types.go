// Package catalog defines the product data model and the accessor layer
// that pipes raw product data through the extension registry before use.
package catalog

import "errors"

// Predefined errors for catalog lookups.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrSourceNotSet    = errors.New("catalog source not set")
)

// Price is a monetary amount with its currency code.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Image is a product image reference.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Variant is a purchasable variation of a product (size, color, ...).
// A variant's price, when set, takes precedence over the product price.
type Variant struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	SKU     string            `json:"sku,omitempty"`
	Price   *Price            `json:"price,omitempty"`
	Options map[string]string `json:"options,omitempty"`
	InStock bool              `json:"in_stock"`
}

// Product is a single catalog entry.
type Product struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Price       Price          `json:"price"`
	Images      []Image        `json:"images,omitempty"`
	Variants    []Variant      `json:"variants,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	InStock     bool           `json:"in_stock"`
}

// Variant returns the variant with the given id, or nil if absent.
func (p *Product) Variant(id string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// EffectivePrice returns the variant price when the variant is non-nil and
// carries its own price, otherwise the product price. This is the snapshot
// the cart takes at add time.
func (p *Product) EffectivePrice(v *Variant) Price {
	if v != nil && v.Price != nil {
		return *v.Price
	}
	return p.Price
}
