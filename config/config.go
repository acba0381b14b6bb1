// Package config defines the SDK configuration and theme models,
// their documented defaults, and validation of required fields.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Runtime modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Cart storage backends.
const (
	StorageNone   = "none"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// DefaultStorageKey is the storage key cart snapshots are persisted under
// when the caller does not pick one. Integrations must pick one key and
// use it consistently.
const DefaultStorageKey = "shopcore_cart"

// Predefined errors for configuration validation.
var (
	ErrMissingField       = errors.New("missing required configuration field")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrInvalidStorageType = errors.New("invalid cart storage type")
	ErrInvalidQuantityCfg = errors.New("invalid cart quantity bounds")
)

// Features holds the optional feature flags. All default to enabled cart,
// disabled everything else.
type Features struct {
	Cart            bool `yaml:"cart"`
	Search          bool `yaml:"search"`
	Recommendations bool `yaml:"recommendations"`
}

// CartConfig controls cart behavior and persistence.
type CartConfig struct {
	MinQuantity int     `yaml:"min_quantity"` // minimum per line item, default 1
	MaxQuantity int     `yaml:"max_quantity"` // 0 means unbounded
	MergeItems  bool    `yaml:"merge_items"`  // merge identical product+variant lines
	IncludeTax  bool    `yaml:"include_tax"`
	TaxRate     float64 `yaml:"tax_rate"` // flat rate applied to subtotal when IncludeTax

	StorageType string        `yaml:"storage_type"` // "none", "memory" or "redis"
	StorageKey  string        `yaml:"storage_key"`
	StorageTTL  time.Duration `yaml:"storage_ttl"` // redis only, 0 means no expiry
}

// Config is the top-level SDK configuration. Mode, DefaultCurrency,
// SupportedCurrencies and DefaultLocale are required; everything else
// falls back to documented defaults.
type Config struct {
	Mode                string   `yaml:"mode"`
	DefaultCurrency     string   `yaml:"default_currency"`
	SupportedCurrencies []string `yaml:"supported_currencies"`
	DefaultLocale       string   `yaml:"default_locale"`

	APIBaseURL  string        `yaml:"api_base_url"`
	UseMockData bool          `yaml:"use_mock_data"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	Debug       bool          `yaml:"debug"`

	Features Features   `yaml:"features"`
	Cart     CartConfig `yaml:"cart"`
}

// Default returns a Config carrying the documented defaults, including the
// boolean defaults (merge-on-add and the cart feature enabled). Required
// fields are left empty and must be filled by the caller. Configs built as
// struct literals start with merge disabled; build on Default() to get the
// documented behavior.
func Default() *Config {
	c := &Config{}
	c.Cart.MergeItems = true
	c.Features.Cart = true
	c.applyDefaults()
	return c
}

// applyDefaults fills every unset non-boolean optional field with its
// documented default.
func (c *Config) applyDefaults() {
	if c.Cart.MinQuantity == 0 {
		c.Cart.MinQuantity = 1
	}
	if c.Cart.StorageType == "" {
		c.Cart.StorageType = StorageMemory
	}
	if c.Cart.StorageKey == "" {
		c.Cart.StorageKey = DefaultStorageKey
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

// Validate checks required fields and value ranges. A missing required field
// is a fatal configuration error naming the field; the embedding application
// must not proceed past it.
func (c *Config) Validate() error {
	if c.Mode == "" {
		return fmt.Errorf("%w: mode", ErrMissingField)
	}
	if c.Mode != ModeDevelopment && c.Mode != ModeProduction {
		return fmt.Errorf("%w: %q, must be %q or %q", ErrInvalidMode, c.Mode, ModeDevelopment, ModeProduction)
	}
	if c.DefaultCurrency == "" {
		return fmt.Errorf("%w: default_currency", ErrMissingField)
	}
	if len(c.SupportedCurrencies) == 0 {
		return fmt.Errorf("%w: supported_currencies", ErrMissingField)
	}
	if c.DefaultLocale == "" {
		return fmt.Errorf("%w: default_locale", ErrMissingField)
	}

	switch c.Cart.StorageType {
	case StorageNone, StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("%w: %q, must be %q, %q or %q",
			ErrInvalidStorageType, c.Cart.StorageType, StorageNone, StorageMemory, StorageRedis)
	}

	if c.Cart.MinQuantity < 1 {
		return fmt.Errorf("%w: min_quantity %d, must be >= 1", ErrInvalidQuantityCfg, c.Cart.MinQuantity)
	}
	if c.Cart.MaxQuantity != 0 && c.Cart.MaxQuantity < c.Cart.MinQuantity {
		return fmt.Errorf("%w: max_quantity %d below min_quantity %d",
			ErrInvalidQuantityCfg, c.Cart.MaxQuantity, c.Cart.MinQuantity)
	}
	if c.Cart.TaxRate < 0 {
		return fmt.Errorf("invalid tax_rate: %f, must be non-negative", c.Cart.TaxRate)
	}
	return nil
}

// Prepare applies defaults and validates in one step. Intended for configs
// built in code rather than loaded from a file.
func (c *Config) Prepare() error {
	c.applyDefaults()
	return c.Validate()
}

// SupportsCurrency reports whether the given currency code is configured.
func (c *Config) SupportsCurrency(code string) bool {
	for _, cur := range c.SupportedCurrencies {
		if cur == code {
			return true
		}
	}
	return false
}

// Load reads a YAML configuration file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Str("mode", cfg.Mode).Msg("configuration loaded")
	return cfg, nil
}
