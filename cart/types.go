// Package cart implements the cart state store: line items, derived totals,
// visibility, pluggable total calculation and snapshot persistence.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopcore/shopcore/catalog"
)

// Predefined errors for cart operations.
var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Item is one entry in the cart's item list. The unit price is a snapshot
// taken at add time from the variant if present, else the product.
type Item struct {
	ID        string        `json:"id"`
	ProductID string        `json:"product_id"`
	VariantID string        `json:"variant_id,omitempty"`
	Title     string        `json:"title"`
	Quantity  int           `json:"quantity"`
	UnitPrice catalog.Price `json:"unit_price"`
	AddedAt   time.Time     `json:"added_at"`
}

// LineTotal returns unit price times quantity for this item.
func (i Item) LineTotal() float64 {
	return i.UnitPrice.Amount * float64(i.Quantity)
}

// sameLine reports whether two items refer to the same product+variant pair
// and may therefore be merged.
func (i Item) sameLine(other Item) bool {
	return i.ProductID == other.ProductID && i.VariantID == other.VariantID
}

// Totals is the derived totals record. It is always recomputed as a pure
// function of the current item list, never mutated independently of it.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax,omitempty"`
	Shipping float64 `json:"shipping,omitempty"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Snapshot is the JSON-serializable cart state written to the storage
// backend and handed to update listeners.
type Snapshot struct {
	Items  []Item `json:"items"`
	IsOpen bool   `json:"is_open"`
	Totals Totals `json:"totals"`
}

// Encode serializes the snapshot for storage.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cart snapshot: %w", err)
	}
	return &snap, nil
}
