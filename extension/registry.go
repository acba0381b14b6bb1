package extension

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shopcore/shopcore/config"
)

// Registry manages the registration and lifecycle of extensions and
// dispatches their hooks. Before/after/data/api hook categories run in
// registration order; ReplaceComponent runs in reverse registration order.
//
// Construct one Registry per application instance and pass it by reference;
// there is no ambient global instance.
type Registry struct {
	mu    sync.RWMutex
	exts  map[string]*Extension // registered extensions, keyed by id
	order []string              // registration order, dispatch order for most hooks

	cfg         *config.Config // snapshot handed to mount/config-change hooks
	theme       *config.Theme
	initialized bool
}

// NewRegistry creates an empty extension registry.
func NewRegistry() *Registry {
	return &Registry{
		exts:  make(map[string]*Extension),
		order: make([]string, 0),
	}
}

// Register adds an extension at the end of the registration order.
// A duplicate id is a fatal configuration error: ErrDuplicateExtension is
// returned and the registry retains the original extension.
// If the registry has already been initialized, the new extension's mount
// hook runs immediately with the current config and theme.
func (r *Registry) Register(ctx context.Context, ext *Extension) error {
	if err := ext.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.exts[ext.ID]; exists {
		r.mu.Unlock()
		log.Error().Str("extension", ext.ID).Msg("attempted to register duplicate extension")
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, ext.ID)
	}
	r.exts[ext.ID] = ext
	r.order = append(r.order, ext.ID)
	initialized := r.initialized
	cfg, theme := r.cfg, r.theme
	r.mu.Unlock()

	log.Info().Str("extension", ext.ID).Str("version", ext.Version).Msg("extension registered")

	if initialized {
		r.mount(ctx, ext, cfg, theme)
	}
	return nil
}

// Unregister invokes the extension's unmount hook (errors are caught and
// logged, never propagated) and removes it. It reports whether an extension
// with that id existed.
func (r *Registry) Unregister(ctx context.Context, id string) bool {
	r.mu.Lock()
	ext, exists := r.exts[id]
	if !exists {
		r.mu.Unlock()
		log.Warn().Str("extension", id).Msg("attempted to unregister non-existent extension")
		return false
	}
	delete(r.exts, id)
	newOrder := make([]string, 0, len(r.order)-1)
	for _, extID := range r.order {
		if extID != id {
			newOrder = append(newOrder, extID)
		}
	}
	r.order = newOrder
	r.mu.Unlock()

	if fn := ext.Hooks.Lifecycle.OnUnmount; fn != nil {
		r.invoke(ext.ID, "onUnmount", func() error { return fn(ctx) })
	}
	log.Info().Str("extension", id).Msg("extension unregistered")
	return true
}

// UnregisterAll unregisters every extension in registration order, invoking
// unmount hooks, and returns the registry to its pre-initialize state so a
// subsequent register/Initialize cycle mounts each extension exactly once.
// Used by the owning provider on teardown and when swapping extension sets.
func (r *Registry) UnregisterAll(ctx context.Context) {
	for _, id := range r.IDs() {
		r.Unregister(ctx, id)
	}
	r.mu.Lock()
	r.initialized = false
	r.mu.Unlock()
}

// Initialize stores the config/theme snapshot, marks the registry
// initialized and invokes every registered extension's mount hook in
// registration order. It never tears anything down: callers swapping
// extension sets are responsible for unregister/re-register cycles;
// re-initialization only (re)runs mount hooks.
func (r *Registry) Initialize(ctx context.Context, cfg *config.Config, theme *config.Theme) {
	r.mu.Lock()
	r.cfg = cfg
	r.theme = theme
	r.initialized = true
	r.mu.Unlock()

	for _, ext := range r.ordered() {
		r.mount(ctx, ext, cfg, theme)
	}
	log.Info().Int("extensions", r.Len()).Msg("extension registry initialized")
}

// ApplyConfigChange replaces the stored config snapshot and notifies every
// extension implementing OnConfigChange, in registration order.
func (r *Registry) ApplyConfigChange(ctx context.Context, cfg *config.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()

	for _, ext := range r.ordered() {
		fn := ext.Hooks.Lifecycle.OnConfigChange
		if fn == nil {
			continue
		}
		r.invoke(ext.ID, "onConfigChange", func() error { return fn(ctx, cfg) })
	}
}

// Initialized reports whether Initialize has run.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Get retrieves a registered extension by id.
func (r *Registry) Get(id string) (*Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.exts[id]
	return ext, ok
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IDs returns the extension ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ordered returns a snapshot of the extensions in registration order.
// Dispatch iterates the snapshot without holding the lock, so hooks may
// register or unregister extensions without deadlocking.
func (r *Registry) ordered() []*Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Extension, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.exts[id])
	}
	return out
}

// mount runs a single extension's mount hook with fault isolation.
func (r *Registry) mount(ctx context.Context, ext *Extension, cfg *config.Config, theme *config.Theme) {
	fn := ext.Hooks.Lifecycle.OnMount
	if fn == nil {
		return
	}
	r.invoke(ext.ID, "onMount", func() error { return fn(ctx, cfg, theme) })
}

// invoke runs one hook invocation at the dispatch boundary: hook errors and
// panics are logged with the offending extension's id and hook name and
// contained, so no extension can crash the host or abort processing of the
// others. It reports whether the hook completed cleanly.
func (r *Registry) invoke(id, hook string, fn func() error) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("extension", id).Str("hook", hook).Any("panic", p).Msg("extension hook panicked")
			ok = false
		}
	}()
	if err := fn(); err != nil {
		log.Error().Str("extension", id).Str("hook", hook).Err(err).Msg("extension hook failed")
		return false
	}
	return true
}
