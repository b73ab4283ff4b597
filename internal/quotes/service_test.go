package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldquote/fieldquote/internal/catalog"
	"github.com/fieldquote/fieldquote/internal/pricing"
	"github.com/fieldquote/fieldquote/internal/settings"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	quotes      map[int64]*Quote
	items       map[int64][]pricing.QuoteItem
	nextQuoteID int64

	txError  error
	getError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotes:      make(map[int64]*Quote),
		items:       make(map[int64][]pricing.QuoteItem),
		nextQuoteID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Create(ctx context.Context, q Quote) (int64, error) {
	id := m.nextQuoteID
	m.nextQuoteID++
	q.ID = id
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quotes[id] = &q
	return id, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *q
	out.Items = append([]pricing.QuoteItem(nil), m.items[id]...)
	return &out, nil
}

func (m *mockRepository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var out []Quote
	for _, q := range m.quotes {
		if q.OrgID != req.OrgID {
			continue
		}
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error {
	q, ok := m.quotes[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	q.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) InsertItem(ctx context.Context, quoteID int64, item pricing.QuoteItem) error {
	if _, ok := m.quotes[quoteID]; !ok {
		return ErrNotFound
	}
	m.items[quoteID] = append(m.items[quoteID], item)
	return nil
}

func (m *mockRepository) UpdateItem(ctx context.Context, quoteID int64, item pricing.QuoteItem) error {
	items := m.items[quoteID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepository) DeleteItem(ctx context.Context, quoteID int64, itemID string) error {
	items := m.items[quoteID]
	var kept []pricing.QuoteItem
	found := false
	for _, it := range items {
		if it.ID == itemID {
			found = true
			continue
		}
		if it.ParentQuoteItemID != nil && *it.ParentQuoteItemID == itemID {
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return ErrNotFound
	}
	m.items[quoteID] = kept
	return nil
}

func (m *mockRepository) DraftQuoteIDsByProducts(ctx context.Context, orgID int64, productIDs []int64) ([]int64, error) {
	match := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		match[id] = true
	}
	var out []int64
	for id, q := range m.quotes {
		if q.OrgID != orgID || q.Status != QuoteStatusDraft {
			continue
		}
		for _, it := range m.items[id] {
			if match[it.ProductID] {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

type mockProducts struct {
	products map[int64]*catalog.Product
}

func (m *mockProducts) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	out := *p
	return &out, nil
}

type mockSettings struct {
	settings settings.QuoteSettings
}

func (m *mockSettings) Get(ctx context.Context, orgID int64) (settings.QuoteSettings, error) {
	return m.settings, nil
}

type mockCounter struct {
	count int
}

func (m *mockCounter) QuoteItemPriced() { m.count++ }

// ============================================================================
// FIXTURES
// ============================================================================

func floatPtr(f float64) *float64 { return &f }

func turfProduct() *catalog.Product {
	return &catalog.Product{
		ID:        10,
		OrgID:     1,
		Name:      "Artificial Turf",
		UnitPrice: 2,
		UnitType:  "square_feet",
		IsActive:  true,
	}
}

func newTestService() (*Service, *mockRepository, *mockProducts, *mockSettings, *mockCounter) {
	repo := newMockRepository()
	products := &mockProducts{products: map[int64]*catalog.Product{}}
	set := &mockSettings{settings: settings.Defaults(1)}
	counter := &mockCounter{}
	return NewService(repo, products, set, counter), repo, products, set, counter
}

func newDraftQuote(t *testing.T, svc *Service) *Quote {
	t.Helper()
	q, err := svc.Create(context.Background(), 1, CreateQuoteRequest{CustomerName: "Dana Ortiz"})
	require.NoError(t, err)
	require.Equal(t, QuoteStatusDraft, q.Status)
	return q
}

func areaMeasurement(value float64) pricing.Measurement {
	return pricing.Measurement{Type: pricing.MeasurementArea, Value: value, Unit: "square_feet"}
}

// ============================================================================
// TESTS
// ============================================================================

func TestAddItemPricesLine(t *testing.T) {
	svc, _, products, _, counter := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)

	updated, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(150),
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)

	item := updated.Items[0]
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, int64(10), item.ProductID)
	assert.InDelta(t, 2.0, item.UnitPrice, 1e-9)
	assert.InDelta(t, 150.0, item.Quantity, 1e-9)
	assert.InDelta(t, 300.0, item.LineTotal, 1e-9)
	assert.Equal(t, 1, counter.count)
}

func TestAddItemRejectsNonDraft(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)

	_, err := svc.Send(context.Background(), 1, q.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft")
}

func TestAddItemDefaultVariationApplied(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	p := turfProduct()
	p.Variations = []catalog.Variation{
		{ID: 1, ProductID: 10, Name: "Standard", PriceAdjustment: 0, AdjustmentType: "fixed"},
		{ID: 2, ProductID: 10, Name: "Premium", PriceAdjustment: 1, AdjustmentType: "fixed", IsDefault: true},
	}
	products.products[10] = p
	q := newDraftQuote(t, svc)

	updated, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.InDelta(t, 3.0, updated.Items[0].UnitPrice, 1e-9)
	require.Len(t, updated.Items[0].Variations, 1)
	assert.Equal(t, int64(2), updated.Items[0].Variations[0].VariationID)
}

func TestAddItemRequiredVariationEnforced(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	p := turfProduct()
	p.Variations = []catalog.Variation{
		{ID: 1, ProductID: 10, Name: "4ft", PriceAdjustment: 0, AdjustmentType: "fixed", IsRequired: true},
	}
	products.products[10] = p
	q := newDraftQuote(t, svc)

	_, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a variation")
}

func TestAddItemRejectsForeignAddon(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)

	_, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
		Addons:      []AddonSelectionRequest{{AddonID: 99, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestAddItemEmbeddedAddonFoldsIntoLine(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	p := turfProduct()
	p.Addons = []catalog.Addon{
		{ID: 5, ProductID: 10, Name: "Weed Barrier", PriceValue: 0.5, PriceType: "fixed", CalculationType: "per_unit"},
	}
	products.products[10] = p
	q := newDraftQuote(t, svc)

	updated, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
		Addons:      []AddonSelectionRequest{{AddonID: 5, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)

	// 100 SF * $2 + 100 SF * $0.50
	assert.InDelta(t, 250.0, updated.Items[0].LineTotal, 1e-9)
	require.Len(t, updated.Items[0].Measurement.Addons, 1)
	assert.InDelta(t, 50.0, updated.Items[0].Measurement.Addons[0].Total, 1e-9)
}

func TestAddItemMapPlacedAddonsBecomeChildItems(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	p := turfProduct()
	p.Addons = []catalog.Addon{
		{ID: 7, ProductID: 10, Name: "Drainage Grate", PriceValue: 40, PriceType: "fixed", CalculationType: "total"},
	}
	products.products[10] = p
	q := newDraftQuote(t, svc)

	updated, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
		Addons: []AddonSelectionRequest{{
			AddonID:  7,
			Quantity: 1,
			Locations: []pricing.LatLng{
				{Lat: 40.1, Lng: -105.1},
				{Lat: 40.2, Lng: -105.2},
			},
		}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 3)

	main := updated.Items[0]
	assert.False(t, main.IsAddonItem)
	assert.InDelta(t, 200.0, main.LineTotal, 1e-9)

	for _, child := range updated.Items[1:] {
		assert.True(t, child.IsAddonItem)
		require.NotNil(t, child.ParentQuoteItemID)
		assert.Equal(t, main.ID, *child.ParentQuoteItemID)
		require.NotNil(t, child.AddonID)
		assert.Equal(t, int64(7), *child.AddonID)
		assert.InDelta(t, 40.0, child.LineTotal, 1e-9)
		assert.Len(t, child.Measurement.PointLocations, 1)
	}

	// Value is conserved across main and children.
	assert.InDelta(t, 280.0, updated.Subtotal(), 1e-9)
}

func TestRemoveItemDeletesChildren(t *testing.T) {
	svc, repo, products, _, _ := newTestService()
	p := turfProduct()
	p.Addons = []catalog.Addon{
		{ID: 7, ProductID: 10, Name: "Drainage Grate", PriceValue: 40, PriceType: "fixed", CalculationType: "total"},
	}
	products.products[10] = p
	q := newDraftQuote(t, svc)

	updated, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
		Addons: []AddonSelectionRequest{{
			AddonID:   7,
			Locations: []pricing.LatLng{{Lat: 40.1, Lng: -105.1}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)

	err = svc.RemoveItem(context.Background(), 1, q.ID, updated.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, repo.items[q.ID])
}

func TestStatusTransitions(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	q := newDraftQuote(t, svc)
	ctx := context.Background()

	// Accept straight from draft is rejected.
	_, err := svc.Accept(ctx, 1, q.ID)
	require.Error(t, err)

	sent, err := svc.Send(ctx, 1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusSent, sent.Status)

	// Re-sending is rejected.
	_, err = svc.Send(ctx, 1, q.ID)
	require.Error(t, err)

	accepted, err := svc.Accept(ctx, 1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusAccepted, accepted.Status)

	// Terminal states do not move.
	_, err = svc.Decline(ctx, 1, q.ID)
	require.Error(t, err)
}

func TestGetScopedToOrganisation(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	q := newDraftQuote(t, svc)

	_, err := svc.Get(context.Background(), 2, q.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDetailComposesTotals(t *testing.T) {
	svc, _, products, set, _ := newTestService()
	products.products[10] = turfProduct()
	set.settings.MarkupPercent = 10
	set.settings.TaxPercent = 8
	q := newDraftQuote(t, svc)

	_, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(500),
	})
	require.NoError(t, err)

	detail, err := svc.Detail(context.Background(), 1, q.ID)
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, detail.Subtotal, 1e-9)
	assert.InDelta(t, 1188.0, detail.Total, 1e-9)
	assert.Equal(t, "$1,188.00", detail.DisplayTotal)
	require.Len(t, detail.Consolidation.ConsolidatedMainProducts, 1)
	assert.Len(t, detail.ItemPrices, 1)
	for _, qty := range detail.ItemQuantities {
		assert.Equal(t, "500 SF", qty)
	}
}

func TestDetailRangeOnlyAfterLeavingDraft(t *testing.T) {
	svc, _, products, set, _ := newTestService()
	products.products[10] = turfProduct()
	set.settings.ShowPriceRange = true
	set.settings.RangeLowerPct = 10
	set.settings.RangeUpperPct = 10
	q := newDraftQuote(t, svc)

	_, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(500),
	})
	require.NoError(t, err)

	detail, err := svc.Detail(context.Background(), 1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "$1,000.00", detail.DisplayTotal)

	_, err = svc.Send(context.Background(), 1, q.ID)
	require.NoError(t, err)

	detail, err = svc.Detail(context.Background(), 1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "$900 - $1,100", detail.DisplayTotal)
}

func TestIncrementAdvice(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	p := turfProduct()
	p.SoldInIncrementsOf = floatPtr(10)
	p.IncrementUnitLabel = "roll"
	products.products[10] = p

	resp, err := svc.IncrementAdvice(context.Background(), 1, IncrementAdviceRequest{ProductID: 10, Measured: 47})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.UnitsNeeded)
	assert.InDelta(t, 50.0, resp.TotalCoverage, 1e-9)
	assert.InDelta(t, 3.0, resp.Extra, 1e-9)
	assert.False(t, resp.SignificantWaste)
	assert.Equal(t, "roll", resp.IncrementUnitLabel)
}

func TestIncrementAdviceRejectsNonIncrementProduct(t *testing.T) {
	svc, _, products, _, _ := newTestService()
	products.products[10] = turfProduct()

	_, err := svc.IncrementAdvice(context.Background(), 1, IncrementAdviceRequest{ProductID: 10, Measured: 47})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not sold in increments")
}

func TestRepriceDraftQuotes(t *testing.T) {
	svc, repo, products, _, _ := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.NoError(t, err)

	products.products[10].UnitPrice = 3

	repriced, err := svc.RepriceDraftQuotes(ctx, 1, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 1, repriced)

	items := repo.items[q.ID]
	require.Len(t, items, 1)
	assert.InDelta(t, 3.0, items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 300.0, items[0].LineTotal, 1e-9)
}

func TestRepriceSkipsSentQuotes(t *testing.T) {
	svc, repo, products, _, _ := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.NoError(t, err)
	_, err = svc.Send(ctx, 1, q.ID)
	require.NoError(t, err)

	products.products[10].UnitPrice = 3

	repriced, err := svc.RepriceDraftQuotes(ctx, 1, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 0, repriced)

	items := repo.items[q.ID]
	require.Len(t, items, 1)
	assert.InDelta(t, 2.0, items[0].UnitPrice, 1e-9)
}

func TestRepriceUpdatesMapPlacedAddonItems(t *testing.T) {
	svc, repo, products, _, _ := newTestService()
	p := turfProduct()
	p.Addons = []catalog.Addon{
		{ID: 7, ProductID: 10, Name: "Drainage Grate", PriceValue: 40, PriceType: "fixed", CalculationType: "total"},
	}
	products.products[10] = p
	q := newDraftQuote(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
		Addons: []AddonSelectionRequest{{
			AddonID:   7,
			Locations: []pricing.LatLng{{Lat: 40.1, Lng: -105.1}},
		}},
	})
	require.NoError(t, err)

	products.products[10].Addons[0].PriceValue = 60

	_, err = svc.RepriceDraftQuotes(ctx, 1, []int64{10})
	require.NoError(t, err)

	items := repo.items[q.ID]
	require.Len(t, items, 2)
	for _, it := range items {
		if it.IsAddonItem {
			assert.InDelta(t, 60.0, it.LineTotal, 1e-9)
		}
	}
}

func TestRepriceKeepsPriceWhenProductDeleted(t *testing.T) {
	svc, repo, products, _, _ := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.NoError(t, err)

	delete(products.products, 10)

	// The quote still references product 10, so the reprice pass visits it but
	// leaves the saved price alone.
	repriced, err := svc.RepriceDraftQuotes(ctx, 1, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 1, repriced)

	items := repo.items[q.ID]
	require.Len(t, items, 1)
	assert.InDelta(t, 200.0, items[0].LineTotal, 1e-9)
}

func TestAddItemTxFailureSurfaces(t *testing.T) {
	svc, repo, products, _, _ := newTestService()
	products.products[10] = turfProduct()
	q := newDraftQuote(t, svc)

	repo.txError = errors.New("connection reset")
	_, err := svc.AddItem(context.Background(), 1, q.ID, AddItemRequest{
		ProductID:   10,
		Measurement: areaMeasurement(100),
	})
	require.Error(t, err)
}
