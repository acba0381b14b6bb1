package cart

import "github.com/shopcore/shopcore/config"

// Calculator computes a Totals record as a pure function of the current item
// list. Implementations must not carry state between calls: the cart
// recomputes totals from scratch after every mutation.
type Calculator func(items []Item, currency string, cfg config.CartConfig) Totals

// DefaultCalculator sums unit price times quantity per line, then applies
// flat-rate tax on the subtotal when tax inclusion is configured.
func DefaultCalculator(items []Item, currency string, cfg config.CartConfig) Totals {
	totals := Totals{Currency: currency}
	for _, item := range items {
		totals.Subtotal += item.LineTotal()
	}
	if cfg.IncludeTax {
		totals.Tax = totals.Subtotal * cfg.TaxRate
	}
	totals.Total = totals.Subtotal + totals.Tax + totals.Shipping
	return totals
}
