// Package extension defines the extension contract and the registry that
// dispatches extension hooks in defined order with fault isolation.
package extension

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopcore/shopcore/cart"
	"github.com/shopcore/shopcore/catalog"
	"github.com/shopcore/shopcore/config"
)

// Predefined errors for extension registration.
var (
	ErrDuplicateExtension = errors.New("extension id is already registered")
	ErrInvalidExtension   = errors.New("extension is invalid")
)

// ExtensionPoint identifies a UI composition point extensions may hook into.
// The set is closed: hosts dispatch only these points, so an extension
// matching on them is exhaustive by construction.
type ExtensionPoint string

const (
	PointProductCard    ExtensionPoint = "product_card"
	PointProductGrid    ExtensionPoint = "product_grid"
	PointProductDetail  ExtensionPoint = "product_detail"
	PointCartDrawer     ExtensionPoint = "cart_drawer"
	PointCartLineItem   ExtensionPoint = "cart_line_item"
	PointCheckoutButton ExtensionPoint = "checkout_button"
)

// Props carries the host-supplied properties for a UI extension point.
type Props map[string]any

// Fragment is an opaque renderable contributed by an extension. The registry
// never inspects it beyond a nil check; the host decides how to render it.
type Fragment any

// FetchRequest is the request shape threaded through the BeforeFetch chain.
type FetchRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Clone returns a copy with its own header map, so one extension's edits
// never alias another's input.
func (r *FetchRequest) Clone() *FetchRequest {
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

// FetchResponse is the response shape threaded through the AfterFetch chain.
type FetchResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// LifecycleHooks are invoked as the owning provider mounts, reconfigures and
// tears down the registry.
type LifecycleHooks struct {
	OnMount        func(ctx context.Context, cfg *config.Config, theme *config.Theme) error
	OnUnmount      func(ctx context.Context) error
	OnConfigChange func(ctx context.Context, cfg *config.Config) error
}

// DataHooks transform loaded values before the host uses them. Each hook
// receives the current (possibly already-transformed) value and returns a
// replacement of the same shape.
type DataHooks struct {
	OnProductLoad  func(ctx context.Context, product catalog.Product) (catalog.Product, error)
	OnProductsLoad func(ctx context.Context, products []catalog.Product) ([]catalog.Product, error)
	OnCartLoad     func(ctx context.Context, snap cart.Snapshot) (cart.Snapshot, error)
	OnCartItemLoad func(ctx context.Context, item cart.Item) (cart.Item, error)
}

// UIHooks splice extension content into the host's composition points.
// A nil Fragment return means the extension contributes nothing.
type UIHooks struct {
	BeforeRender     func(ctx context.Context, point ExtensionPoint, props Props) (Fragment, error)
	AfterRender      func(ctx context.Context, point ExtensionPoint, props Props) (Fragment, error)
	ReplaceComponent func(ctx context.Context, point ExtensionPoint, props Props) (Fragment, error)
}

// APIHooks intercept fetch calls made through the SDK's fetch client.
type APIHooks struct {
	BeforeFetch  func(ctx context.Context, req *FetchRequest) (*FetchRequest, error)
	AfterFetch   func(ctx context.Context, resp *FetchResponse) (*FetchResponse, error)
	OnFetchError func(ctx context.Context, err error) (bool, error)
}

// Hooks groups the four hook categories. Every hook is independently
// optional; a nil func field is simply skipped during dispatch.
type Hooks struct {
	Lifecycle LifecycleHooks
	Data      DataHooks
	UI        UIHooks
	API       APIHooks
}

// Extension is the sole integration surface third-party code must honor:
// identity, an optional free-form configuration blob, and optional hooks.
type Extension struct {
	ID          string
	Name        string
	Version     string
	Description string
	Author      string
	Config      map[string]any
	Hooks       Hooks
}

// validate checks the identity fields required for registration.
func (e *Extension) validate() error {
	if e == nil {
		return ErrInvalidExtension
	}
	if e.ID == "" {
		return errors.Join(ErrInvalidExtension, errors.New("id must not be empty"))
	}
	return nil
}
