package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/shopcore/catalog"
	"github.com/shopcore/shopcore/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Mode = config.ModeDevelopment
	cfg.DefaultCurrency = "USD"
	cfg.SupportedCurrencies = []string{"USD"}
	cfg.DefaultLocale = "en-US"
	return cfg
}

func testProduct(id string, price float64) catalog.Product {
	return catalog.Product{
		ID:      id,
		Title:   "Product " + id,
		Price:   catalog.Price{Amount: price, Currency: "USD"},
		InStock: true,
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 10, item.UnitPrice.Amount, 1e-9)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, *item, items[0])
}

func TestAddItemVariantPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	p := testProduct("p1", 10)
	p.Variants = []catalog.Variant{{
		ID:      "v1",
		Name:    "large",
		Price:   &catalog.Price{Amount: 12.5, Currency: "USD"},
		InStock: true,
	}}

	item, err := c.AddItem(ctx, p, p.Variant("v1"), 1)
	require.NoError(t, err)
	assert.Equal(t, "v1", item.VariantID)
	assert.InDelta(t, 12.5, item.UnitPrice.Amount, 1e-9)
}

func TestAddItemMergesSameLine(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig()) // merge enabled by default

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	merged, err := c.AddItem(ctx, testProduct("p1", 10), nil, 3)
	require.NoError(t, err)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, merged.Quantity)
}

func TestAddItemNoMergeKeepsSeparateLines(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cart.MergeItems = false
	c := New(cfg)

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, testProduct("p1", 10), nil, 3)
	require.NoError(t, err)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 3, items[1].Quantity)
}

func TestAddItemDifferentVariantsNotMerged(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	p := testProduct("p1", 10)
	p.Variants = []catalog.Variant{
		{ID: "v1", InStock: true},
		{ID: "v2", InStock: true},
	}

	_, err := c.AddItem(ctx, p, p.Variant("v1"), 1)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, p, p.Variant("v2"), 1)
	require.NoError(t, err)

	assert.Len(t, c.Items(), 2)
}

func TestAddItemInvalidQuantity(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cart.MaxQuantity = 5
	c := New(cfg)

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.AddItem(ctx, testProduct("p1", 10), nil, 6)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Empty(t, c.Items())
}

func TestBeforeAddGuardCancels(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig(), WithHooks(Hooks{
		BeforeAdd: func(productID, _ string, _ int) bool {
			return productID != "blocked"
		},
	}))

	item, err := c.AddItem(ctx, testProduct("blocked", 10), nil, 1)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Empty(t, c.Items())

	item, err = c.AddItem(ctx, testProduct("allowed", 10), nil, 1)
	require.NoError(t, err)
	assert.NotNil(t, item)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 1)
	require.NoError(t, err)

	require.NoError(t, c.RemoveItem(ctx, item.ID))
	assert.Empty(t, c.Items())

	// Removing an absent id is idempotent, not an error.
	require.NoError(t, c.RemoveItem(ctx, item.ID))
	require.NoError(t, c.RemoveItem(ctx, "never-existed"))
}

func TestBeforeRemoveGuardCancels(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig(), WithHooks(Hooks{
		BeforeRemove: func(Item) bool { return false },
	}))

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 1)
	require.NoError(t, err)

	require.NoError(t, c.RemoveItem(ctx, item.ID))
	assert.Len(t, c.Items(), 1)
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 1)
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(ctx, item.ID, 4, true))
	assert.Equal(t, 4, c.Items()[0].Quantity)
	assert.InDelta(t, 40, c.Totals().Subtotal, 1e-9)
}

func TestUpdateQuantityItemNotFound(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	before := c.Snapshot()

	err = c.UpdateQuantity(ctx, "ghost", 3, true)
	require.ErrorIs(t, err, ErrItemNotFound)

	// Cart state is unchanged.
	assert.Equal(t, before, c.Snapshot())
}

func TestUpdateQuantityBelowMinimum(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig()) // min quantity 1

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)

	err = c.UpdateQuantity(ctx, item.ID, 0, true)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestUpdateQuantitySkipValidation(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(ctx, item.ID, 0, false))
	assert.Equal(t, 0, c.Items()[0].Quantity)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 1)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, testProduct("p2", 20), nil, 1)
	require.NoError(t, err)

	c.Clear(ctx)
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Totals().Total)
}

func TestVisibilityTransitions(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig())

	assert.False(t, c.IsOpen()) // initial state is closed

	c.Open(ctx)
	assert.True(t, c.IsOpen())

	c.Open(ctx) // idempotent
	assert.True(t, c.IsOpen())

	c.Close(ctx)
	assert.False(t, c.IsOpen())

	c.Toggle(ctx)
	assert.True(t, c.IsOpen())
	c.Toggle(ctx)
	assert.False(t, c.IsOpen())
}

func TestTotalsScenario(t *testing.T) {
	// Config USD, items 10x2 + 5x1, tax disabled: subtotal=25, total=25.
	ctx := context.Background()
	c := New(testConfig())

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, testProduct("p2", 5), nil, 1)
	require.NoError(t, err)

	totals := c.Totals()
	assert.InDelta(t, 25, totals.Subtotal, 1e-9)
	assert.Zero(t, totals.Tax)
	assert.InDelta(t, 25, totals.Total, 1e-9)
	assert.Equal(t, "USD", totals.Currency)
}

func TestTotalsScenarioWithTax(t *testing.T) {
	// Same items with tax rate 0.2 enabled: tax=5, total=30.
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cart.IncludeTax = true
	cfg.Cart.TaxRate = 0.2
	c := New(cfg)

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, testProduct("p2", 5), nil, 1)
	require.NoError(t, err)

	totals := c.Totals()
	assert.InDelta(t, 25, totals.Subtotal, 1e-9)
	assert.InDelta(t, 5, totals.Tax, 1e-9)
	assert.InDelta(t, 30, totals.Total, 1e-9)
}

func TestTotalsRecomputationIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Cart.IncludeTax = true
	cfg.Cart.TaxRate = 0.0825
	c := New(cfg)

	_, err := c.AddItem(ctx, testProduct("p1", 19.99), nil, 3)
	require.NoError(t, err)

	first := DefaultCalculator(c.Items(), "USD", cfg.Cart)
	second := DefaultCalculator(c.Items(), "USD", cfg.Cart)
	assert.Equal(t, first, second)
	assert.Equal(t, c.Totals(), first)
}

func TestCustomCalculator(t *testing.T) {
	ctx := context.Background()
	flatShipping := func(items []Item, currency string, cfg config.CartConfig) Totals {
		totals := DefaultCalculator(items, currency, cfg)
		if len(items) > 0 {
			totals.Shipping = 4.99
			totals.Total += 4.99
		}
		return totals
	}
	c := New(testConfig(), WithCalculator(flatShipping))

	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 1)
	require.NoError(t, err)

	totals := c.Totals()
	assert.InDelta(t, 4.99, totals.Shipping, 1e-9)
	assert.InDelta(t, 14.99, totals.Total, 1e-9)
}

func TestOnUpdateFiresWithFullState(t *testing.T) {
	ctx := context.Background()
	var snaps []Snapshot
	c := New(testConfig(), WithHooks(Hooks{
		OnUpdate: func(snap Snapshot) { snaps = append(snaps, snap) },
	}))

	item, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	require.NoError(t, c.UpdateQuantity(ctx, item.ID, 3, true))
	c.Clear(ctx)

	require.Len(t, snaps, 3)
	assert.InDelta(t, 20, snaps[0].Totals.Subtotal, 1e-9)
	assert.InDelta(t, 30, snaps[1].Totals.Subtotal, 1e-9)
	assert.Empty(t, snaps[2].Items)
}

func TestPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	store := NewMemoryStore()

	c := New(cfg, WithStore(store))
	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 2)
	require.NoError(t, err)
	c.Open(ctx)

	// A second cart over the same store restores the persisted snapshot.
	restored := New(cfg, WithStore(store))
	require.NoError(t, restored.Restore(ctx))

	assert.Equal(t, c.Items(), restored.Items())
	assert.True(t, restored.IsOpen())
	assert.Equal(t, c.Totals(), restored.Totals())
}

func TestRestoreWithoutSnapshotIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(testConfig(), WithStore(NewMemoryStore()))
	require.NoError(t, c.Restore(ctx))
	assert.Empty(t, c.Items())
}

func TestNoopStoreDisablesPersistence(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	store := NewNoopStore()

	c := New(cfg, WithStore(store))
	_, err := c.AddItem(ctx, testProduct("p1", 10), nil, 1)
	require.NoError(t, err)

	restored := New(cfg, WithStore(store))
	require.NoError(t, restored.Restore(ctx))
	assert.Empty(t, restored.Items())
}
