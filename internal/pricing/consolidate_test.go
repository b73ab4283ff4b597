package pricing

import (
	"math"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func mainItem(id string, productID int64, qty, unitPrice float64) QuoteItem {
	return QuoteItem{
		ID:          id,
		ProductID:   productID,
		ProductName: "Product",
		Measurement: Measurement{Type: MeasurementArea, Value: qty},
		UnitPrice:   unitPrice,
		UnitType:    "square_feet",
		Quantity:    qty,
		LineTotal:   unitPrice * qty,
	}
}

func TestConsolidateGroupsByProduct(t *testing.T) {
	items := []QuoteItem{
		mainItem("a", 1, 100, 10),
		mainItem("b", 2, 40, 5),
		mainItem("c", 1, 50, 10),
	}

	got := ConsolidateQuoteItems(items)
	if len(got.ConsolidatedMainProducts) != 2 {
		t.Fatalf("expected 2 groups got %d", len(got.ConsolidatedMainProducts))
	}
	g := got.ConsolidatedMainProducts[0]
	if g.ProductID != 1 {
		t.Fatalf("groups must keep first-seen order, got product %d first", g.ProductID)
	}
	if g.TotalQuantity != 150 {
		t.Fatalf("expected quantity 150 got %v", g.TotalQuantity)
	}
	if g.TotalLineTotal != 1500 {
		t.Fatalf("expected total 1500 got %v", g.TotalLineTotal)
	}
	if len(g.Instances) != 2 {
		t.Fatalf("expected 2 instances got %d", len(g.Instances))
	}
}

func TestConsolidateRebucketsEmbeddedAddons(t *testing.T) {
	item := mainItem("a", 1, 100, 10)
	item.Measurement.Addons = []AddonSelection{{
		Addon:    Addon{ID: 9, Name: "Edging"},
		Quantity: 2,
		Total:    80,
	}}
	item.LineTotal = 1000 + 80

	other := mainItem("b", 1, 50, 10)
	other.Measurement.Addons = []AddonSelection{{
		Addon:    Addon{ID: 9, Name: "Edging"},
		Quantity: 1,
		Total:    40,
	}}
	other.LineTotal = 500 + 40

	got := ConsolidateQuoteItems([]QuoteItem{item, other})
	g := got.ConsolidatedMainProducts[0]

	// The product bucket carries only pre-addon value.
	if g.TotalLineTotal != 1500 {
		t.Fatalf("addon value leaked into product bucket: %v", g.TotalLineTotal)
	}
	if len(g.TraditionalAddons) != 1 {
		t.Fatalf("expected one aggregated addon got %d", len(g.TraditionalAddons))
	}
	a := g.TraditionalAddons[0]
	if a.Quantity != 3 || a.Total != 120 {
		t.Fatalf("expected qty 3 total 120 got %+v", a)
	}
}

func TestConsolidateMapPlacedAddons(t *testing.T) {
	parent := mainItem("parent", 1, 100, 10)
	placement1 := QuoteItem{
		ID: "p1", ProductID: 50, ProductName: "Drain", UnitType: "each",
		UnitPrice: 75, Quantity: 1, LineTotal: 75,
		IsAddonItem: true, ParentQuoteItemID: strPtr("parent"), AddonID: int64Ptr(50),
	}
	placement2 := QuoteItem{
		ID: "p2", ProductID: 50, ProductName: "Drain", UnitType: "each",
		UnitPrice: 75, Quantity: 2, LineTotal: 150,
		IsAddonItem: true, ParentQuoteItemID: strPtr("parent"), AddonID: int64Ptr(50),
	}

	got := ConsolidateQuoteItems([]QuoteItem{parent, placement1, placement2})
	if len(got.ConsolidatedMainProducts) != 1 {
		t.Fatalf("placements must fold into the parent group, got %d groups", len(got.ConsolidatedMainProducts))
	}
	g := got.ConsolidatedMainProducts[0]
	if len(g.MapPlacedAddons) != 1 {
		t.Fatalf("expected one aggregated placement bucket got %d", len(g.MapPlacedAddons))
	}
	a := g.MapPlacedAddons[0]
	if a.Quantity != 3 || a.Total != 225 || a.Placements != 2 {
		t.Fatalf("unexpected placement aggregate %+v", a)
	}
}

func TestConsolidateOrphanAddonKeepsValue(t *testing.T) {
	orphan := QuoteItem{
		ID: "o1", ProductID: 50, ProductName: "Drain", UnitType: "each",
		UnitPrice: 75, Quantity: 1, LineTotal: 75,
		IsAddonItem: true, ParentQuoteItemID: strPtr("gone"),
	}

	got := ConsolidateQuoteItems([]QuoteItem{orphan})
	if len(got.ConsolidatedMainProducts) != 1 {
		t.Fatalf("orphan must surface as its own group")
	}
	if got.ConsolidatedMainProducts[0].MapPlacedAddons[0].Total != 75 {
		t.Fatalf("orphan value lost")
	}
}

func TestConsolidateDistinctVariations(t *testing.T) {
	a := mainItem("a", 1, 10, 10)
	a.Variations = []VariationSelection{{VariationID: 1, Name: "6 ft"}}
	b := mainItem("b", 1, 10, 10)
	b.Variations = []VariationSelection{{VariationID: 1, Name: "6 ft"}, {VariationID: 2, Name: "8 ft"}}

	got := ConsolidateQuoteItems([]QuoteItem{a, b})
	if len(got.ConsolidatedMainProducts[0].Variations) != 2 {
		t.Fatalf("expected 2 distinct variations got %d", len(got.ConsolidatedMainProducts[0].Variations))
	}
}

// Property: consolidation conserves value for any partition of items.
func TestConsolidateConservesGrandTotal(t *testing.T) {
	a := mainItem("a", 1, 100, 10)
	a.Measurement.Addons = []AddonSelection{{Addon: Addon{ID: 9}, Quantity: 1, Total: 80}}
	a.LineTotal = 1080

	items := []QuoteItem{
		a,
		mainItem("b", 2, 40, 5),
		mainItem("c", 1, 60, 10),
		{
			ID: "p1", ProductID: 50, UnitPrice: 75, Quantity: 2, LineTotal: 150,
			IsAddonItem: true, ParentQuoteItemID: strPtr("a"), AddonID: int64Ptr(50), UnitType: "each",
		},
	}

	var want float64
	for _, it := range items {
		want += it.LineTotal
	}

	got := ConsolidateQuoteItems(items)
	var sum float64
	for _, g := range got.ConsolidatedMainProducts {
		sum += g.TotalLineTotal
		for _, ad := range g.TraditionalAddons {
			sum += ad.Total
		}
		for _, ad := range g.MapPlacedAddons {
			sum += ad.Total
		}
	}
	if math.Abs(sum-want) > 1e-9 {
		t.Fatalf("grand total drifted: consolidated %v, flat %v", sum, want)
	}
}

func TestConsolidatePanicsOnCorruptedTotals(t *testing.T) {
	bad := mainItem("a", 1, 100, 10)
	bad.LineTotal = 999999 // does not match unit price x quantity

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic on invariant breach")
		}
		if !strings.Contains(r.(string), "consolidation lost value") {
			t.Fatalf("unexpected panic %v", r)
		}
	}()
	ConsolidateQuoteItems([]QuoteItem{bad})
}

func TestConsolidateEmptyInput(t *testing.T) {
	got := ConsolidateQuoteItems(nil)
	if len(got.ConsolidatedMainProducts) != 0 {
		t.Fatalf("expected empty consolidation")
	}
}
