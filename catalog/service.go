package catalog

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Transformer is the slice of the extension registry the catalog needs:
// the product data-hook pipelines.
type Transformer interface {
	ApplyProductLoad(ctx context.Context, product Product) Product
	ApplyProductsLoad(ctx context.Context, products []Product) []Product
}

// Service is the accessor layer consuming code reads products through.
// Raw source data is piped through the registry's data-transform hooks
// before use.
type Service struct {
	source      Source
	transformer Transformer
}

// NewService creates a catalog service over the given source. A nil
// transformer disables extension transforms.
func NewService(source Source, transformer Transformer) *Service {
	return &Service{
		source:      source,
		transformer: transformer,
	}
}

// Product loads one product and applies the OnProductLoad chain.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	if s.source == nil {
		return Product{}, ErrSourceNotSet
	}
	p, err := s.source.Product(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if s.transformer != nil {
		p = s.transformer.ApplyProductLoad(ctx, p)
	}
	log.Debug().Str("product", p.ID).Msg("product loaded")
	return p, nil
}

// Products loads the full product list and applies the OnProductsLoad chain.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	if s.source == nil {
		return nil, ErrSourceNotSet
	}
	ps, err := s.source.Products(ctx)
	if err != nil {
		return nil, err
	}
	if s.transformer != nil {
		ps = s.transformer.ApplyProductsLoad(ctx, ps)
	}
	log.Debug().Int("count", len(ps)).Msg("products loaded")
	return ps, nil
}
