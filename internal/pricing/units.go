package pricing

// cubicYardDivisor converts square feet times depth in inches to cubic yards:
// 12 in/ft x 27 cuft/cuyd = 324.
const cubicYardDivisor = 324.0

// HeightInFeet normalises a height value to feet. Unknown units are treated
// as feet.
func HeightInFeet(value float64, unit string) float64 {
	switch unit {
	case "inches", "in":
		return value / 12
	case "meters", "m":
		return value * 3.28084
	case "centimeters", "cm":
		return value * 0.0328084
	default:
		return value
	}
}

// effectiveHeight resolves the height used for area expansion, in feet.
// Priority: selected variation height when it affects the area calculation,
// then the product base height when enabled, otherwise none.
func effectiveHeight(p Product, v *Variation) (float64, bool) {
	if v != nil && v.AffectsAreaCalculation && v.HeightValue != nil && *v.HeightValue > 0 {
		return HeightInFeet(*v.HeightValue, v.UnitOfMeasurement), true
	}
	if p.UseHeightInCalculation && p.BaseHeight != nil && *p.BaseHeight > 0 {
		return HeightInFeet(*p.BaseHeight, p.BaseHeightUnit), true
	}
	return 0, false
}

// ResolveBillingQuantity converts a raw measurement into the canonical billing
// quantity for one quote line.
//
// A depth turns an area into cubic yards and wins over any height expansion.
// Otherwise the base value is expanded by the effective height, if any.
func ResolveBillingQuantity(m Measurement, p Product, v *Variation) float64 {
	if m.DepthInches != nil && *m.DepthInches > 0 {
		return m.Value * *m.DepthInches / cubicYardDivisor
	}
	if h, ok := effectiveHeight(p, v); ok {
		return m.Value * h
	}
	return m.Value
}

// ResolveAddonArea resolves the area used by area_calculation add-ons. The
// same height priority applies as in unit resolution; with no height the raw
// measurement value stands in for the area.
func ResolveAddonArea(m Measurement, p Product, v *Variation) float64 {
	if h, ok := effectiveHeight(p, v); ok {
		return m.Value * h
	}
	return m.Value
}

// UnitAbbreviation maps a unit type to its customer-facing abbreviation.
// Unknown unit types fall back to the raw value.
func UnitAbbreviation(unitType string) string {
	switch unitType {
	case "square_feet":
		return "SF"
	case "linear_feet":
		return "LF"
	case "cubic_yards":
		return "CY"
	case "units", "each":
		return "EA"
	case "hours":
		return "HR"
	default:
		return unitType
	}
}
