// Package provider wires the SDK together: one merged configuration, one
// merged theme, one extension registry, one cart and one catalog service
// per application instance, with mount/update/unmount lifecycle management.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shopcore/shopcore/cart"
	"github.com/shopcore/shopcore/catalog"
	"github.com/shopcore/shopcore/config"
	"github.com/shopcore/shopcore/events"
	"github.com/shopcore/shopcore/extension"
	"github.com/shopcore/shopcore/fetch"
)

// ErrRedisClientRequired is returned when the configuration selects the
// redis cart storage backend but no client was supplied.
var ErrRedisClientRequired = errors.New("cart storage type is redis but no redis client was provided")

// Provider owns the SDK instances for one embedding application. Construct
// one per application; there is no ambient global provider.
type Provider struct {
	mu      sync.Mutex
	cfg     *config.Config
	theme   *config.Theme
	exts    []*extension.Extension
	mounted bool

	registry *extension.Registry
	bus      *events.Bus
	cart     *cart.Cart
	catalog  *catalog.Service
	fetcher  *fetch.Client
}

// New validates the configuration (missing required fields are fatal),
// merges the theme over the defaults and wires the registry, event bus,
// fetch client, cart and catalog service. Nothing is mounted yet: call
// Mount to register extensions and run their mount hooks.
func New(cfg *config.Config, opts ...Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration", config.ErrMissingField)
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}

	o := defaultProviderOptions()
	for _, opt := range opts {
		opt(&o)
	}

	store, err := resolveStore(cfg, &o)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:      cfg,
		theme:    config.DefaultTheme().Merge(o.theme),
		exts:     o.extensions,
		registry: extension.NewRegistry(),
		bus:      events.NewBus(),
	}

	p.cart = cart.New(cfg,
		cart.WithStore(store),
		cart.WithEventBus(p.bus),
		cart.WithHooks(o.cartHooks),
		cart.WithCalculator(o.calculator),
	)
	p.fetcher = fetch.NewClient(p.registry, fetch.WithHTTPClient(o.httpClient))
	p.catalog = catalog.NewService(resolveSource(cfg, &o, p.fetcher), p.registry)

	log.Info().
		Str("mode", cfg.Mode).
		Str("currency", cfg.DefaultCurrency).
		Str("cart_storage", cfg.Cart.StorageType).
		Int("extensions", len(o.extensions)).
		Msg("provider created")
	return p, nil
}

// resolveStore picks the cart persistence backend named by the
// configuration, unless an explicit store option overrides it.
func resolveStore(cfg *config.Config, o *providerOptions) (cart.Store, error) {
	if o.cartStore != nil {
		return o.cartStore, nil
	}
	switch cfg.Cart.StorageType {
	case config.StorageNone:
		return cart.NewNoopStore(), nil
	case config.StorageRedis:
		if o.redisClient == nil {
			return nil, ErrRedisClientRequired
		}
		return cart.NewRedisStore(o.redisClient, cfg.Cart.StorageTTL), nil
	default:
		return cart.NewMemoryStore(), nil
	}
}

// resolveSource picks the catalog source: an explicit option wins, then
// mock mode, then the configured API base URL.
func resolveSource(cfg *config.Config, o *providerOptions, fetcher *fetch.Client) catalog.Source {
	if o.catalogSource != nil {
		return o.catalogSource
	}
	if !cfg.UseMockData && cfg.APIBaseURL != "" {
		return catalog.NewHTTPSource(cfg.APIBaseURL, fetcher)
	}
	return catalog.NewStaticSource()
}

// Mount registers every extension supplied at construction time, initializes
// the registry (running mount hooks in registration order), restores the
// persisted cart and pipes it through the OnCartLoad chain.
// A duplicate extension id aborts the mount.
func (p *Provider) Mount(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mounted {
		return nil
	}

	if err := p.registerAll(ctx, p.exts); err != nil {
		return err
	}
	p.registry.Initialize(ctx, p.cfg, p.theme)

	if err := p.cart.Restore(ctx); err != nil {
		log.Error().Err(err).Msg("cart restore failed, starting empty")
	} else if p.registry.Len() > 0 {
		snap := p.registry.ApplyCartLoad(ctx, p.cart.Snapshot())
		p.cart.ReplaceItems(ctx, snap.Items)
	}

	p.mounted = true
	log.Info().Msg("provider mounted")
	return nil
}

// Update swaps the supplied configuration, theme and extension set, the way
// a prop change re-renders the composition root: every currently-registered
// extension is unregistered (unmount hooks run), the new set is registered,
// the registry is re-initialized, and config-change notifications fire.
// Nil cfg or theme keep the current value; a nil extension slice keeps the
// current set.
func (p *Provider) Update(ctx context.Context, cfg *config.Config, theme *config.Theme, exts []*extension.Extension) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg != nil {
		if err := cfg.Prepare(); err != nil {
			return err
		}
	} else {
		cfg = p.cfg
	}
	if theme != nil {
		p.theme = config.DefaultTheme().Merge(theme)
	}
	if exts == nil {
		exts = p.exts
	}

	p.unregisterAll(ctx)
	if err := p.registerAll(ctx, exts); err != nil {
		return err
	}

	p.cfg = cfg
	p.exts = exts
	p.registry.Initialize(ctx, p.cfg, p.theme)
	p.cart.Reconfigure(ctx, p.cfg)
	p.registry.ApplyConfigChange(ctx, p.cfg)
	p.bus.Publish(ctx, events.TopicConfigChanged, p.cfg)

	log.Info().Int("extensions", len(exts)).Msg("provider updated")
	return nil
}

// Unmount unregisters every extension (unmount hooks run regardless of how
// teardown was triggered) and closes the event bus. Safe to call more than
// once.
func (p *Provider) Unmount(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return
	}
	p.unregisterAll(ctx)
	p.bus.Close()
	p.mounted = false
	log.Info().Msg("provider unmounted")
}

// RegisterExtension registers an extension dynamically after construction.
// If the provider is mounted the extension's mount hook runs immediately.
func (p *Provider) RegisterExtension(ctx context.Context, ext *extension.Extension) error {
	if err := p.registry.Register(ctx, ext); err != nil {
		return err
	}
	p.bus.Publish(ctx, events.TopicExtensionRegistered, ext.ID)
	return nil
}

// UnregisterExtension removes an extension dynamically, running its unmount
// hook. It reports whether the extension existed.
func (p *Provider) UnregisterExtension(ctx context.Context, id string) bool {
	if !p.registry.Unregister(ctx, id) {
		return false
	}
	p.bus.Publish(ctx, events.TopicExtensionUnregistered, id)
	return true
}

// registerAll registers extensions in order, stopping at the first failure.
func (p *Provider) registerAll(ctx context.Context, exts []*extension.Extension) error {
	for _, ext := range exts {
		if err := p.registry.Register(ctx, ext); err != nil {
			return err
		}
		p.bus.Publish(ctx, events.TopicExtensionRegistered, ext.ID)
	}
	return nil
}

// unregisterAll removes every registered extension, publishing churn events.
func (p *Provider) unregisterAll(ctx context.Context) {
	ids := p.registry.IDs()
	p.registry.UnregisterAll(ctx)
	for _, id := range ids {
		p.bus.Publish(ctx, events.TopicExtensionUnregistered, id)
	}
}

// Config returns the current merged configuration.
func (p *Provider) Config() *config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Theme returns the current merged theme.
func (p *Provider) Theme() *config.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// Registry returns the provider's extension registry.
func (p *Provider) Registry() *extension.Registry { return p.registry }

// Cart returns the provider's cart store.
func (p *Provider) Cart() *cart.Cart { return p.cart }

// Catalog returns the provider's catalog accessor.
func (p *Provider) Catalog() *catalog.Service { return p.catalog }

// Bus returns the provider's event bus.
func (p *Provider) Bus() *events.Bus { return p.bus }

// Fetch returns the provider's intercepting fetch client.
func (p *Provider) Fetch() *fetch.Client { return p.fetcher }
