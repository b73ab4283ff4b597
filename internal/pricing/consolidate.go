package pricing

import (
	"fmt"
	"math"
)

// consolidationEpsilon bounds acceptable float drift when checking that
// consolidation conserves value.
const consolidationEpsilon = 1e-6

// ConsolidateQuoteItems regroups the flat persisted item list of one quote
// into display-ready aggregates.
//
// Main instances group by product ID in first-seen order. A group's line total
// is the sum of pre-addon product totals; add-on contributions re-bucket into
// the group's traditional (embedded) or map-placed add-on lists, so the
// grand total over all buckets equals the plain sum of every input LineTotal.
// A mismatch means corrupted input and panics rather than silently diverging.
//
// Add-on instances whose parent is missing from the input promote to their own
// group; dropping them would lose value.
func ConsolidateQuoteItems(items []QuoteItem) Consolidation {
	var inputTotal float64
	for _, it := range items {
		inputTotal += it.LineTotal
	}

	groups := make(map[int64]*ConsolidatedMainProduct)
	var order []int64
	itemGroup := make(map[string]int64)

	for _, it := range items {
		if it.IsAddonItem {
			continue
		}
		g, ok := groups[it.ProductID]
		if !ok {
			g = &ConsolidatedMainProduct{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Color:       it.Measurement.MapColor,
				UnitType:    it.UnitType,
			}
			groups[it.ProductID] = g
			order = append(order, it.ProductID)
		}
		if g.Color == "" {
			g.Color = it.Measurement.MapColor
		}

		g.Instances = append(g.Instances, it)
		g.TotalQuantity += it.Quantity
		// Pre-addon product total only; add-on value re-buckets below.
		g.TotalLineTotal += it.UnitPrice * it.Quantity
		g.Variations = mergeVariations(g.Variations, it.Variations)
		g.TraditionalAddons = mergeEmbeddedAddons(g.TraditionalAddons, it.Measurement.Addons)
		itemGroup[it.ID] = it.ProductID
	}

	for _, it := range items {
		if !it.IsAddonItem {
			continue
		}
		var g *ConsolidatedMainProduct
		if it.ParentQuoteItemID != nil {
			if pid, ok := itemGroup[*it.ParentQuoteItemID]; ok {
				g = groups[pid]
			}
		}
		if g == nil {
			// Orphan placement: keep its value visible as its own group.
			g = &ConsolidatedMainProduct{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Color:       it.Measurement.MapColor,
				UnitType:    it.UnitType,
			}
			if existing, ok := groups[it.ProductID]; ok {
				g = existing
			} else {
				groups[it.ProductID] = g
				order = append(order, it.ProductID)
			}
		}
		g.MapPlacedAddons = mergeMapPlacedAddon(g.MapPlacedAddons, it)
	}

	out := Consolidation{ConsolidatedMainProducts: make([]ConsolidatedMainProduct, 0, len(order))}
	var bucketed float64
	for _, pid := range order {
		g := groups[pid]
		bucketed += g.TotalLineTotal
		for _, a := range g.TraditionalAddons {
			bucketed += a.Total
		}
		for _, a := range g.MapPlacedAddons {
			bucketed += a.Total
		}
		out.ConsolidatedMainProducts = append(out.ConsolidatedMainProducts, *g)
	}

	tolerance := consolidationEpsilon * math.Max(1, math.Abs(inputTotal))
	if diff := math.Abs(bucketed - inputTotal); diff > tolerance {
		panic(fmt.Sprintf("pricing: consolidation lost value: bucketed %.6f, input %.6f", bucketed, inputTotal))
	}

	return out
}

func mergeVariations(existing []VariationSelection, seen []VariationSelection) []VariationSelection {
	for _, v := range seen {
		dup := false
		for _, e := range existing {
			if e.VariationID == v.VariationID {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, v)
		}
	}
	return existing
}

func mergeEmbeddedAddons(existing []ConsolidatedAddon, selections []AddonSelection) []ConsolidatedAddon {
	for _, sel := range selections {
		qty := float64(sel.Quantity)
		if qty <= 0 {
			qty = 1
		}
		found := false
		for i := range existing {
			if existing[i].AddonID == sel.Addon.ID {
				existing[i].Quantity += qty
				existing[i].Total += sel.Total
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, ConsolidatedAddon{
				AddonID:  sel.Addon.ID,
				Name:     sel.Addon.Name,
				UnitType: sel.Addon.UnitType,
				Quantity: qty,
				Total:    sel.Total,
			})
		}
	}
	return existing
}

func mergeMapPlacedAddon(existing []ConsolidatedAddon, it QuoteItem) []ConsolidatedAddon {
	addonID := it.ProductID
	if it.AddonID != nil {
		addonID = *it.AddonID
	}
	for i := range existing {
		if existing[i].AddonID == addonID {
			existing[i].Quantity += it.Quantity
			existing[i].Total += it.LineTotal
			existing[i].Placements++
			return existing
		}
	}
	return append(existing, ConsolidatedAddon{
		AddonID:    addonID,
		Name:       it.ProductName,
		UnitType:   it.UnitType,
		UnitPrice:  it.UnitPrice,
		Quantity:   it.Quantity,
		Total:      it.LineTotal,
		Placements: 1,
	})
}
