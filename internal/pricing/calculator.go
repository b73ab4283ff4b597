package pricing

// applyVariation adjusts a unit price by the selected variation. Fixed
// adjustments add to the unit price; percentage adjustments scale it.
func applyVariation(unitPrice float64, v *Variation) float64 {
	if v == nil {
		return unitPrice
	}
	switch v.AdjustmentType {
	case AdjustmentPercentage:
		return unitPrice * (1 + v.PriceAdjustment/100)
	default:
		return unitPrice + v.PriceAdjustment
	}
}

// RequiredVariationFloor returns the lowest unit price reachable through the
// product's required variations. This is the floor price shown before the
// customer has picked one. With no required variations the base unit price
// stands.
func RequiredVariationFloor(p Product, variations []Variation) float64 {
	base := p.UnitPrice
	if p.UseTieredPricing && len(p.Tiers) > 0 {
		base = ResolveTierPrice(0, p.Tiers, p.UnitPrice)
	}

	floor := base
	seen := false
	for i := range variations {
		v := variations[i]
		if !v.IsRequired {
			continue
		}
		adjusted := applyVariation(base, &v)
		if !seen || adjusted < floor {
			floor = adjusted
			seen = true
		}
	}
	return floor
}

// addonTotal resolves the charge for one add-on selection.
//
// Percentage-type add-ons charge a share of the line's pre-addon product
// total. Fixed-type add-ons dispatch on the calculation type; unknown
// calculation types fall back to the flat total rule.
func addonTotal(sel AddonSelection, m Measurement, p Product, v *Variation, basePrice, billingQuantity float64) float64 {
	qty := float64(sel.Quantity)
	if qty <= 0 {
		qty = 1
	}
	effective := sel.Addon.PriceValue + sel.OptionAdjustment

	if sel.Addon.PriceType == AdjustmentPercentage {
		return basePrice * qty * effective / 100
	}

	switch sel.Addon.CalculationType {
	case AddonCalcAreaCalculation:
		area := ResolveAddonArea(m, p, v)
		return effective * area * qty
	case AddonCalcPerUnit:
		return effective * billingQuantity * qty
	default:
		return effective * qty
	}
}

// AddonCharge resolves the price of a single add-on selection against a
// line's pre-addon base price and billing quantity. Map-placed add-ons bill
// through this as their own items, one charge per placement.
func AddonCharge(sel AddonSelection, m Measurement, p Product, v *Variation, basePrice, billingQuantity float64) float64 {
	return addonTotal(sel, m, p, v, basePrice, billingQuantity)
}

// CalculateLinePrice computes the exact price of one quote line: resolved
// billing quantity times the tier- and variation-adjusted unit price, plus
// every selected add-on. Nothing rounds here; only the composed final price
// does.
func CalculateLinePrice(m Measurement, p Product, v *Variation, addons []AddonSelection) LinePrice {
	quantity := ResolveBillingQuantity(m, p, v)

	unitPrice := p.UnitPrice
	if p.UseTieredPricing && len(p.Tiers) > 0 {
		// Tier bands are defined against the raw measured value, before any
		// depth or height expansion.
		unitPrice = ResolveTierPrice(m.Value, p.Tiers, p.UnitPrice)
	}
	unitPrice = applyVariation(unitPrice, v)

	basePrice := unitPrice * quantity

	var addonSum float64
	resolved := make([]AddonSelection, len(addons))
	for i, sel := range addons {
		sel.Total = addonTotal(sel, m, p, v, basePrice, quantity)
		resolved[i] = sel
		addonSum += sel.Total
	}

	return LinePrice{
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		AddonTotal: addonSum,
		LineTotal:  basePrice + addonSum,
		Addons:     resolved,
	}
}
