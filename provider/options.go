package provider

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/shopcore/shopcore/cart"
	"github.com/shopcore/shopcore/catalog"
	"github.com/shopcore/shopcore/config"
	"github.com/shopcore/shopcore/extension"
)

type providerOptions struct {
	theme         *config.Theme
	extensions    []*extension.Extension
	cartHooks     cart.Hooks
	cartStore     cart.Store
	calculator    cart.Calculator
	redisClient   redis.Cmdable
	catalogSource catalog.Source
	httpClient    *http.Client
}

// Option configures a Provider.
type Option func(*providerOptions)

func defaultProviderOptions() providerOptions {
	return providerOptions{}
}

// WithTheme overlays the given theme sections onto the defaults.
func WithTheme(t *config.Theme) Option {
	return func(o *providerOptions) {
		o.theme = t
	}
}

// WithExtensions supplies the extensions registered at mount, in order.
func WithExtensions(exts ...*extension.Extension) Option {
	return func(o *providerOptions) {
		o.extensions = append(o.extensions, exts...)
	}
}

// WithCartHooks sets the cart-level guard and notification hooks.
func WithCartHooks(h cart.Hooks) Option {
	return func(o *providerOptions) {
		o.cartHooks = h
	}
}

// WithCartStore overrides the storage backend the configuration would pick.
func WithCartStore(s cart.Store) Option {
	return func(o *providerOptions) {
		o.cartStore = s
	}
}

// WithCalculator replaces the default cart total calculation.
func WithCalculator(c cart.Calculator) Option {
	return func(o *providerOptions) {
		o.calculator = c
	}
}

// WithRedisClient provides the Redis client used when the configuration
// selects the durable cart storage backend.
func WithRedisClient(client redis.Cmdable) Option {
	return func(o *providerOptions) {
		o.redisClient = client
	}
}

// WithCatalogSource overrides the catalog source the configuration would
// pick (mock data or HTTP API).
func WithCatalogSource(s catalog.Source) Option {
	return func(o *providerOptions) {
		o.catalogSource = s
	}
}

// WithHTTPClient replaces the fetch client's underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *providerOptions) {
		o.httpClient = hc
	}
}
