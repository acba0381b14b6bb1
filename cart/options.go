package cart

import "github.com/shopcore/shopcore/events"

// Hooks are the cart-level guards and notifications. Guards returning false
// turn the operation into a no-op; nil hooks are skipped.
type Hooks struct {
	// BeforeAdd runs before an item is added. Returning false cancels the add.
	BeforeAdd func(productID, variantID string, quantity int) bool
	// AfterAdd runs after a successful add with the resulting line item
	// (post-merge when merging is enabled).
	AfterAdd func(item Item)
	// BeforeRemove runs before an existing item is removed. Returning false
	// cancels the removal.
	BeforeRemove func(item Item) bool
	// BeforeUpdate runs before an existing item's quantity changes.
	// Returning false cancels the update.
	BeforeUpdate func(item Item, newQuantity int) bool
	// OnUpdate runs after every committed mutation with the full new state.
	OnUpdate func(snap Snapshot)
}

type options struct {
	store Store
	calc  Calculator
	hooks Hooks
	bus   *events.Bus
}

// Option configures a Cart.
type Option func(*options)

// WithStore sets the persistence backend. When omitted the cart uses the
// in-memory store; pass NewNoopStore() to disable persistence.
func WithStore(s Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithCalculator replaces the default total calculation.
func WithCalculator(c Calculator) Option {
	return func(o *options) {
		if c != nil {
			o.calc = c
		}
	}
}

// WithHooks sets the cart-level guard and notification hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// WithEventBus makes the cart publish cart.updated / cart.opened /
// cart.closed events on the given bus.
func WithEventBus(b *events.Bus) Option {
	return func(o *options) {
		o.bus = b
	}
}

func defaultOptions() options {
	return options{
		store: NewMemoryStore(),
		calc:  DefaultCalculator,
	}
}
