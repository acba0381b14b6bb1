package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Mode = ModeProduction
	cfg.DefaultCurrency = "USD"
	cfg.SupportedCurrencies = []string{"USD", "EUR"}
	cfg.DefaultLocale = "en-US"
	return cfg
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing mode", func(c *Config) { c.Mode = "" }, "mode"},
		{"missing currency", func(c *Config) { c.DefaultCurrency = "" }, "default_currency"},
		{"missing supported currencies", func(c *Config) { c.SupportedCurrencies = nil }, "supported_currencies"},
		{"missing locale", func(c *Config) { c.DefaultLocale = "" }, "default_locale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrMissingField)
			// The error names the missing field.
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateMode(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "staging"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidMode)
}

func TestValidateStorageType(t *testing.T) {
	cfg := validConfig()
	cfg.Cart.StorageType = "filesystem"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidStorageType)
}

func TestValidateQuantityBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Cart.MinQuantity = 5
	cfg.Cart.MaxQuantity = 3
	require.ErrorIs(t, cfg.Validate(), ErrInvalidQuantityCfg)

	cfg = validConfig()
	cfg.Cart.MaxQuantity = 0 // unbounded is fine
	require.NoError(t, cfg.Validate())
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Cart.MinQuantity)
	assert.Equal(t, 0, cfg.Cart.MaxQuantity)
	assert.True(t, cfg.Cart.MergeItems)
	assert.Equal(t, StorageMemory, cfg.Cart.StorageType)
	assert.Equal(t, DefaultStorageKey, cfg.Cart.StorageKey)
	assert.True(t, cfg.Features.Cart)
	assert.False(t, cfg.Features.Search)
}

func TestSupportsCurrency(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.SupportsCurrency("USD"))
	assert.True(t, cfg.SupportsCurrency("EUR"))
	assert.False(t, cfg.SupportsCurrency("GBP"))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shopcore.yaml")
	data := `
mode: production
default_currency: EUR
supported_currencies: [EUR, USD]
default_locale: de-DE
api_base_url: https://api.example.com
cart:
  min_quantity: 1
  max_quantity: 10
  include_tax: true
  tax_rate: 0.19
  storage_type: none
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, 10, cfg.Cart.MaxQuantity)
	assert.InDelta(t, 0.19, cfg.Cart.TaxRate, 1e-9)
	assert.Equal(t, StorageNone, cfg.Cart.StorageType)
	// Unset optional fields keep their defaults.
	assert.Equal(t, DefaultStorageKey, cfg.Cart.StorageKey)
	assert.True(t, cfg.Cart.MergeItems)
}

func TestLoadMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: production\n"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
