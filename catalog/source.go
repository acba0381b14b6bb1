package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// Source supplies raw product data before extension transforms run.
type Source interface {
	Product(ctx context.Context, id string) (Product, error)
	Products(ctx context.Context) ([]Product, error)
}

// StaticSource serves a fixed product set from memory. It backs mock-data
// mode and tests.
type StaticSource struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]int
}

// NewStaticSource creates a source serving the given products.
func NewStaticSource(products ...Product) *StaticSource {
	s := &StaticSource{
		byID: make(map[string]int, len(products)),
	}
	for _, p := range products {
		s.byID[p.ID] = len(s.products)
		s.products = append(s.products, p)
	}
	return s
}

// Product implements Source.
func (s *StaticSource) Product(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return s.products[idx], nil
}

// Products implements Source.
func (s *StaticSource) Products(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...), nil
}

// Upsert adds or replaces a product in the static set.
func (s *StaticSource) Upsert(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.byID[p.ID]; ok {
		s.products[idx] = p
		return
	}
	s.byID[p.ID] = len(s.products)
	s.products = append(s.products, p)
}

// Fetcher is the slice of the SDK fetch client the HTTP source needs.
// Requests made through it run the extension API hook chain.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// HTTPSource loads products from a JSON API under a base URL:
// GET {base}/products and GET {base}/products/{id}.
type HTTPSource struct {
	baseURL string
	fetcher Fetcher
}

// NewHTTPSource creates a source backed by the given fetcher.
func NewHTTPSource(baseURL string, fetcher Fetcher) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		fetcher: fetcher,
	}
}

// Product implements Source.
func (s *HTTPSource) Product(ctx context.Context, id string) (Product, error) {
	var p Product
	u := fmt.Sprintf("%s/products/%s", s.baseURL, url.PathEscape(id))
	if err := s.fetcher.GetJSON(ctx, u, &p); err != nil {
		return Product{}, fmt.Errorf("loading product %s: %w", id, err)
	}
	return p, nil
}

// Products implements Source.
func (s *HTTPSource) Products(ctx context.Context) ([]Product, error) {
	var ps []Product
	u := fmt.Sprintf("%s/products", s.baseURL)
	if err := s.fetcher.GetJSON(ctx, u, &ps); err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	return ps, nil
}
