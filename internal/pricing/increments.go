package pricing

import "math"

// significantWasteRatio is the waste share above which the advisor flags the
// result for user confirmation.
const significantWasteRatio = 0.30

// CalculateIncrementQuantity advises on products sold in discrete increments
// (rolls, pallets). UnitsNeeded is always the integer count of purchasable
// units, rounded up. When partial increments are disallowed, coverage snaps to
// whole increments; when allowed, the final unit may be fractional so coverage
// equals the measured quantity.
//
// The advisor only informs: a significant waste flag never blocks the caller.
func CalculateIncrementQuantity(measured, incrementSize float64, allowPartial bool) IncrementResult {
	if incrementSize <= 0 || measured <= 0 {
		return IncrementResult{}
	}

	unitsNeeded := int(math.Ceil(measured / incrementSize))
	totalCoverage := measured
	if !allowPartial {
		totalCoverage = float64(unitsNeeded) * incrementSize
	}

	extra := totalCoverage - measured
	ratio := 0.0
	if measured > 0 {
		ratio = extra / measured
	}

	return IncrementResult{
		UnitsNeeded:      unitsNeeded,
		TotalCoverage:    totalCoverage,
		Extra:            extra,
		WasteRatio:       ratio,
		SignificantWaste: ratio > significantWasteRatio,
	}
}
