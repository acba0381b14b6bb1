package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopcore/shopcore/catalog"
	"github.com/shopcore/shopcore/config"
	"github.com/shopcore/shopcore/events"
)

// Cart is the cart state store: an ordered list of line items, an
// open/closed flag, and a totals record recomputed from scratch after every
// item-list mutation. Every committed mutation is persisted to the
// configured storage backend and announced via the OnUpdate hook and the
// event bus when one is attached.
type Cart struct {
	mu       sync.Mutex
	cfg      config.CartConfig
	currency string

	items  []Item
	isOpen bool
	totals Totals

	store Store
	calc  Calculator
	hooks Hooks
	bus   *events.Bus
}

// New creates a cart from the SDK configuration. The default currency and
// the cart section (quantity bounds, merge behavior, tax, storage key) come
// from cfg; the storage backend, calculator, hooks and event bus come from
// options.
func New(cfg *config.Config, opts ...Option) *Cart {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cart{
		cfg:      cfg.Cart,
		currency: cfg.DefaultCurrency,
		items:    make([]Item, 0),
		store:    o.store,
		calc:     o.calc,
		hooks:    o.hooks,
		bus:      o.bus,
	}
	c.totals = c.calc(nil, c.currency, c.cfg)
	return c
}

// Reconfigure swaps the cart section of the configuration (bounds, merge,
// tax, storage key) and the currency, then recomputes and persists totals
// under the new settings.
func (c *Cart) Reconfigure(ctx context.Context, cfg *config.Config) {
	c.mu.Lock()
	c.cfg = cfg.Cart
	c.currency = cfg.DefaultCurrency
	c.commitLocked(ctx)
	c.mu.Unlock()
	c.notify(ctx)
}

// validateQuantity enforces the configured min/max bounds.
func (c *Cart) validateQuantity(quantity int) error {
	if quantity < c.cfg.MinQuantity {
		return fmt.Errorf("%w: %d is below minimum %d", ErrInvalidQuantity, quantity, c.cfg.MinQuantity)
	}
	if c.cfg.MaxQuantity > 0 && quantity > c.cfg.MaxQuantity {
		return fmt.Errorf("%w: %d is above maximum %d", ErrInvalidQuantity, quantity, c.cfg.MaxQuantity)
	}
	return nil
}

// AddItem adds a line item for the product (and optional variant) with a
// freshly generated id and a price snapshot taken from the variant if
// present, else the product. When merging is enabled, lines referring to the
// same product+variant pair are collapsed into one with summed quantity.
// The BeforeAdd guard returning false makes the call a no-op; the returned
// item is then nil.
func (c *Cart) AddItem(ctx context.Context, product catalog.Product, variant *catalog.Variant, quantity int) (*Item, error) {
	if err := c.validateQuantity(quantity); err != nil {
		return nil, err
	}

	variantID := ""
	if variant != nil {
		variantID = variant.ID
	}

	if c.hooks.BeforeAdd != nil && !c.hooks.BeforeAdd(product.ID, variantID, quantity) {
		log.Debug().Str("product", product.ID).Msg("add cancelled by before-add guard")
		return nil, nil
	}

	item := Item{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		VariantID: variantID,
		Title:     product.Title,
		Quantity:  quantity,
		UnitPrice: product.EffectivePrice(variant),
		AddedAt:   time.Now().UTC(),
	}

	c.mu.Lock()
	c.items = append(c.items, item)
	if c.cfg.MergeItems {
		c.mergeLines()
	}
	result := c.findLine(item.ProductID, item.VariantID)
	c.commitLocked(ctx)
	c.mu.Unlock()

	log.Info().Str("product", product.ID).Str("variant", variantID).Int("quantity", quantity).Msg("cart item added")

	if c.hooks.AfterAdd != nil && result != nil {
		c.hooks.AfterAdd(*result)
	}
	c.notify(ctx)
	return result, nil
}

// RemoveItem removes the line item with the given id. Removing an absent id
// is a no-op, not an error. The BeforeRemove guard returning false cancels
// the removal.
func (c *Cart) RemoveItem(ctx context.Context, itemID string) error {
	c.mu.Lock()
	idx := c.indexOf(itemID)
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	item := c.items[idx]
	c.mu.Unlock()

	if c.hooks.BeforeRemove != nil && !c.hooks.BeforeRemove(item) {
		log.Debug().Str("item", itemID).Msg("removal cancelled by before-remove guard")
		return nil
	}

	c.mu.Lock()
	// Re-find: the guard ran unlocked and may have mutated the cart.
	idx = c.indexOf(itemID)
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.commitLocked(ctx)
	c.mu.Unlock()

	log.Info().Str("item", itemID).Msg("cart item removed")
	c.notify(ctx)
	return nil
}

// UpdateQuantity sets the quantity of an existing line item. An absent id
// fails with ErrItemNotFound. When validate is true the same min/max bounds
// as AddItem apply; violations fail with ErrInvalidQuantity and leave the
// item unchanged. The BeforeUpdate guard returning false cancels the update.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID string, quantity int, validate bool) error {
	c.mu.Lock()
	idx := c.indexOf(itemID)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	item := c.items[idx]
	c.mu.Unlock()

	if validate {
		if err := c.validateQuantity(quantity); err != nil {
			return err
		}
	}

	if c.hooks.BeforeUpdate != nil && !c.hooks.BeforeUpdate(item, quantity) {
		log.Debug().Str("item", itemID).Msg("update cancelled by before-update guard")
		return nil
	}

	c.mu.Lock()
	idx = c.indexOf(itemID)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	c.items[idx].Quantity = quantity
	c.commitLocked(ctx)
	c.mu.Unlock()

	log.Info().Str("item", itemID).Int("quantity", quantity).Msg("cart item quantity updated")
	c.notify(ctx)
	return nil
}

// Clear empties the item list unconditionally.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	c.items = c.items[:0]
	c.commitLocked(ctx)
	c.mu.Unlock()

	log.Info().Msg("cart cleared")
	c.notify(ctx)
}

// Open marks the cart visible.
func (c *Cart) Open(ctx context.Context) {
	c.setOpen(ctx, true)
}

// Close marks the cart hidden.
func (c *Cart) Close(ctx context.Context) {
	c.setOpen(ctx, false)
}

// Toggle flips the open/closed flag.
func (c *Cart) Toggle(ctx context.Context) {
	c.mu.Lock()
	open := !c.isOpen
	c.mu.Unlock()
	c.setOpen(ctx, open)
}

func (c *Cart) setOpen(ctx context.Context, open bool) {
	c.mu.Lock()
	changed := c.isOpen != open
	c.isOpen = open
	if changed {
		c.persistLocked(ctx)
	}
	c.mu.Unlock()

	if !changed {
		return
	}
	if c.bus != nil {
		topic := events.TopicCartClosed
		if open {
			topic = events.TopicCartOpened
		}
		c.bus.Publish(ctx, topic, c.Snapshot())
	}
}

// IsOpen reports the visibility flag.
func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// Items returns a copy of the current line items in order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// Totals returns the current derived totals.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Snapshot returns the full JSON-serializable cart state.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Items:  append([]Item(nil), c.items...),
		IsOpen: c.isOpen,
		Totals: c.totals,
	}
}

// Restore loads the persisted snapshot, if any, replacing the current state.
// Intended to run once at provider mount, before the first mutation.
func (c *Cart) Restore(ctx context.Context) error {
	snap, err := c.store.Load(ctx, c.cfg.StorageKey)
	if err != nil {
		return fmt.Errorf("restoring cart: %w", err)
	}
	if snap == nil {
		return nil
	}

	c.mu.Lock()
	c.items = snap.Items
	if c.items == nil {
		c.items = make([]Item, 0)
	}
	c.isOpen = snap.IsOpen
	c.totals = c.calc(c.items, c.currency, c.cfg)
	c.mu.Unlock()

	log.Info().Int("items", len(snap.Items)).Str("key", c.cfg.StorageKey).Msg("cart restored from storage")
	return nil
}

// ReplaceItems swaps the whole item list, e.g. after the restored snapshot
// has been piped through extension data hooks.
func (c *Cart) ReplaceItems(ctx context.Context, items []Item) {
	c.mu.Lock()
	c.items = append([]Item(nil), items...)
	c.commitLocked(ctx)
	c.mu.Unlock()
	c.notify(ctx)
}

// indexOf returns the index of the item with the given id, or -1.
// Callers must hold the lock.
func (c *Cart) indexOf(itemID string) int {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// findLine returns the line item for a product+variant pair, or nil.
// Callers must hold the lock.
func (c *Cart) findLine(productID, variantID string) *Item {
	for i := range c.items {
		if c.items[i].ProductID == productID && c.items[i].VariantID == variantID {
			item := c.items[i]
			return &item
		}
	}
	return nil
}

// mergeLines collapses items referring to the same product+variant pair into
// the earliest line, summing quantities. Callers must hold the lock.
func (c *Cart) mergeLines() {
	merged := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		found := false
		for i := range merged {
			if merged[i].sameLine(item) {
				merged[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, item)
		}
	}
	c.items = merged
}

// commitLocked recomputes totals from scratch and persists the new state.
// Persistence failures are logged, not propagated: storage is best effort
// and must never fail a cart operation. Callers must hold the lock.
func (c *Cart) commitLocked(ctx context.Context) {
	c.totals = c.calc(c.items, c.currency, c.cfg)
	c.persistLocked(ctx)
}

// persistLocked writes the current snapshot to the storage backend.
// Callers must hold the lock.
func (c *Cart) persistLocked(ctx context.Context) {
	snap := Snapshot{
		Items:  append([]Item(nil), c.items...),
		IsOpen: c.isOpen,
		Totals: c.totals,
	}
	if err := c.store.Save(ctx, c.cfg.StorageKey, &snap); err != nil {
		log.Error().Err(err).Str("key", c.cfg.StorageKey).Msg("failed to persist cart snapshot")
	}
}

// notify fires the OnUpdate hook and publishes cart.updated with the full
// new state.
func (c *Cart) notify(ctx context.Context) {
	snap := c.Snapshot()
	if c.hooks.OnUpdate != nil {
		c.hooks.OnUpdate(snap)
	}
	if c.bus != nil {
		c.bus.Publish(ctx, events.TopicCartUpdated, snap)
	}
}
