package pricing

import (
	"fmt"
	"sort"
)

// ResolveTierPrice returns the tier price whose [min, max] band contains the
// quantity, with a nil max treated as unbounded. Inactive tiers are ignored.
// Ties resolve to the lowest min band. When no tier matches, the fallback
// price applies; a missing tier is a documented fallback, not an error.
//
// A quantity exactly at a tier's max belongs to that tier, not the next one.
func ResolveTierPrice(quantity float64, tiers []PricingTier, fallback float64) float64 {
	active := make([]PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if t.IsActive {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].MinQuantity < active[j].MinQuantity
	})

	for _, t := range active {
		if quantity < t.MinQuantity {
			continue
		}
		if t.MaxQuantity == nil || quantity <= *t.MaxQuantity {
			return t.TierPrice
		}
	}
	return fallback
}

// ValidateTiers reports malformed tier sets for a product as human-readable
// messages: inverted ranges, overlapping bands, and coverage gaps. It reports
// only; it never reorders or repairs the tiers, and calculation proceeds
// best-effort regardless.
func ValidateTiers(tiers []PricingTier) []string {
	var msgs []string

	active := make([]PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if !t.IsActive {
			continue
		}
		if t.MinQuantity < 0 {
			msgs = append(msgs, fmt.Sprintf("tier starting at %s has a negative minimum quantity", formatQty(t.MinQuantity)))
		}
		if t.MaxQuantity != nil && *t.MaxQuantity <= t.MinQuantity {
			msgs = append(msgs, fmt.Sprintf("tier %s-%s has a maximum at or below its minimum", formatQty(t.MinQuantity), formatQty(*t.MaxQuantity)))
		}
		active = append(active, t)
	}
	if len(active) < 2 {
		return msgs
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].MinQuantity < active[j].MinQuantity
	})

	for i := 0; i < len(active)-1; i++ {
		cur, next := active[i], active[i+1]
		if cur.MaxQuantity == nil {
			msgs = append(msgs, fmt.Sprintf("tier starting at %s is unbounded but is not the last tier", formatQty(cur.MinQuantity)))
			continue
		}
		switch {
		case next.MinQuantity <= *cur.MaxQuantity:
			msgs = append(msgs, fmt.Sprintf("tiers overlap between %s and %s", formatQty(next.MinQuantity), formatQty(*cur.MaxQuantity)))
		case next.MinQuantity > *cur.MaxQuantity+1:
			msgs = append(msgs, fmt.Sprintf("gap in tier coverage between %s and %s", formatQty(*cur.MaxQuantity), formatQty(next.MinQuantity)))
		}
	}
	return msgs
}

func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}
