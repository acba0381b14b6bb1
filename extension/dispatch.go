package extension

import (
	"context"
	"errors"

	"github.com/shopcore/shopcore/cart"
	"github.com/shopcore/shopcore/catalog"
)

// applyChain threads a value through every extension implementing the given
// hook, in registration order. Each extension receives the previous
// extension's output. When a hook errors or panics the pre-call value is
// kept and the pipeline continues with the next extension.
func applyChain[T any](r *Registry, hook string, value T, pick func(*Extension) func(T) (T, error)) T {
	for _, ext := range r.ordered() {
		fn := pick(ext)
		if fn == nil {
			continue
		}
		r.invoke(ext.ID, hook, func() error {
			next, err := fn(value)
			if err != nil {
				return err
			}
			value = next
			return nil
		})
	}
	return value
}

// ApplyProductLoad pipes a loaded product through the OnProductLoad chain.
func (r *Registry) ApplyProductLoad(ctx context.Context, product catalog.Product) catalog.Product {
	return applyChain(r, "onProductLoad", product, func(e *Extension) func(catalog.Product) (catalog.Product, error) {
		fn := e.Hooks.Data.OnProductLoad
		if fn == nil {
			return nil
		}
		return func(p catalog.Product) (catalog.Product, error) { return fn(ctx, p) }
	})
}

// ApplyProductsLoad pipes a loaded product list through the OnProductsLoad chain.
func (r *Registry) ApplyProductsLoad(ctx context.Context, products []catalog.Product) []catalog.Product {
	return applyChain(r, "onProductsLoad", products, func(e *Extension) func([]catalog.Product) ([]catalog.Product, error) {
		fn := e.Hooks.Data.OnProductsLoad
		if fn == nil {
			return nil
		}
		return func(ps []catalog.Product) ([]catalog.Product, error) { return fn(ctx, ps) }
	})
}

// ApplyCartLoad pipes a restored cart snapshot through the OnCartLoad chain.
func (r *Registry) ApplyCartLoad(ctx context.Context, snap cart.Snapshot) cart.Snapshot {
	return applyChain(r, "onCartLoad", snap, func(e *Extension) func(cart.Snapshot) (cart.Snapshot, error) {
		fn := e.Hooks.Data.OnCartLoad
		if fn == nil {
			return nil
		}
		return func(s cart.Snapshot) (cart.Snapshot, error) { return fn(ctx, s) }
	})
}

// ApplyCartItemLoad pipes a cart line item through the OnCartItemLoad chain.
func (r *Registry) ApplyCartItemLoad(ctx context.Context, item cart.Item) cart.Item {
	return applyChain(r, "onCartItemLoad", item, func(e *Extension) func(cart.Item) (cart.Item, error) {
		fn := e.Hooks.Data.OnCartItemLoad
		if fn == nil {
			return nil
		}
		return func(i cart.Item) (cart.Item, error) { return fn(ctx, i) }
	})
}

// ApplyBeforeRender collects every non-nil fragment returned by BeforeRender
// hooks for the given extension point, in registration order. One
// extension's failure never stops collection from the others.
func (r *Registry) ApplyBeforeRender(ctx context.Context, point ExtensionPoint, props Props) []Fragment {
	return r.collectFragments(ctx, "beforeRender", point, props, func(e *Extension) func(context.Context, ExtensionPoint, Props) (Fragment, error) {
		return e.Hooks.UI.BeforeRender
	})
}

// ApplyAfterRender collects every non-nil fragment returned by AfterRender
// hooks for the given extension point, in registration order.
func (r *Registry) ApplyAfterRender(ctx context.Context, point ExtensionPoint, props Props) []Fragment {
	return r.collectFragments(ctx, "afterRender", point, props, func(e *Extension) func(context.Context, ExtensionPoint, Props) (Fragment, error) {
		return e.Hooks.UI.AfterRender
	})
}

func (r *Registry) collectFragments(ctx context.Context, hook string, point ExtensionPoint, props Props,
	pick func(*Extension) func(context.Context, ExtensionPoint, Props) (Fragment, error)) []Fragment {

	var fragments []Fragment
	for _, ext := range r.ordered() {
		fn := pick(ext)
		if fn == nil {
			continue
		}
		r.invoke(ext.ID, hook, func() error {
			frag, err := fn(ctx, point, props)
			if err != nil {
				return err
			}
			if frag != nil {
				fragments = append(fragments, frag)
			}
			return nil
		})
	}
	return fragments
}

// ApplyReplaceComponent evaluates ReplaceComponent hooks in reverse
// registration order and returns the first non-nil replacement, so the
// last-registered extension wins. The boolean result is false when no
// extension replaces the component and the caller must fall back to its
// default rendering.
func (r *Registry) ApplyReplaceComponent(ctx context.Context, point ExtensionPoint, props Props) (Fragment, bool) {
	exts := r.ordered()
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		fn := ext.Hooks.UI.ReplaceComponent
		if fn == nil {
			continue
		}
		var replacement Fragment
		r.invoke(ext.ID, "replaceComponent", func() error {
			frag, err := fn(ctx, point, props)
			if err != nil {
				return err
			}
			replacement = frag
			return nil
		})
		if replacement != nil {
			return replacement, true
		}
	}
	return nil, false
}

// ApplyBeforeFetch threads the request through every BeforeFetch hook in
// registration order. A hook returning nil is treated as a failure and the
// pre-call request is kept.
func (r *Registry) ApplyBeforeFetch(ctx context.Context, req *FetchRequest) *FetchRequest {
	return applyChain(r, "beforeFetch", req, func(e *Extension) func(*FetchRequest) (*FetchRequest, error) {
		fn := e.Hooks.API.BeforeFetch
		if fn == nil {
			return nil
		}
		return func(in *FetchRequest) (*FetchRequest, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, errors.New("beforeFetch returned nil request")
			}
			return out, nil
		}
	})
}

// ApplyAfterFetch threads the response through every AfterFetch hook in
// registration order.
func (r *Registry) ApplyAfterFetch(ctx context.Context, resp *FetchResponse) *FetchResponse {
	return applyChain(r, "afterFetch", resp, func(e *Extension) func(*FetchResponse) (*FetchResponse, error) {
		fn := e.Hooks.API.AfterFetch
		if fn == nil {
			return nil
		}
		return func(in *FetchResponse) (*FetchResponse, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, errors.New("afterFetch returned nil response")
			}
			return out, nil
		}
	})
}

// ApplyFetchError offers the error to every OnFetchError hook in
// registration order and reports whether any extension handled it. Every
// extension is invoked regardless of earlier results; extensions must not
// depend on cross-extension ordering of side effects here.
func (r *Registry) ApplyFetchError(ctx context.Context, fetchErr error) bool {
	handled := false
	for _, ext := range r.ordered() {
		fn := ext.Hooks.API.OnFetchError
		if fn == nil {
			continue
		}
		r.invoke(ext.ID, "onFetchError", func() error {
			h, err := fn(ctx, fetchErr)
			if err != nil {
				return err
			}
			if h {
				handled = true
			}
			return nil
		})
	}
	return handled
}
