package pricing

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// ComposeFinalPrice applies global markup then tax, in that fixed order, and
// rounds the result half-up to cents. This is the only rounding point in the
// calculation chain.
func ComposeFinalPrice(base, markupPct, taxPct float64) float64 {
	withMarkup := base * (1 + markupPct/100)
	withTax := withMarkup * (1 + taxPct/100)
	return RoundToCents(withTax)
}

// RoundToCents rounds half-up to two decimal places.
func RoundToCents(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}

// roundWhole rounds half-up to a whole currency unit.
func roundWhole(amount float64) float64 {
	return math.Floor(amount + 0.5)
}

// FormatPrice renders an exact amount with the contractor-configured currency
// symbol and decimal precision, with grouped thousands.
func FormatPrice(amount float64, s Settings) string {
	symbol := s.CurrencySymbol
	if symbol == "" {
		symbol = "$"
	}
	precision := s.DecimalPrecision
	if precision < 0 {
		precision = 2
	}
	return symbol + printer.Sprintf("%.*f", precision, amount)
}

// FormatPriceRange renders a customer-facing range around the amount. The
// bounds round to whole currency units independently, not to cents, and the
// range is optionally annotated with the configured percentages.
//
// Callers apply range display only where settings enable it and the quote has
// left draft; line items always display exact prices.
func FormatPriceRange(amount, lowerPct, upperPct float64, s Settings) string {
	symbol := s.CurrencySymbol
	if symbol == "" {
		symbol = "$"
	}
	lower := roundWhole(amount * (1 - lowerPct/100))
	upper := roundWhole(amount * (1 + upperPct/100))

	out := printer.Sprintf("%s%.0f - %s%.0f", symbol, lower, symbol, upper)
	if s.AnnotateRange {
		out += fmt.Sprintf(" (-%s%%/+%s%%)", trimPct(lowerPct), trimPct(upperPct))
	}
	return out
}

func trimPct(pct float64) string {
	if pct == float64(int64(pct)) {
		return fmt.Sprintf("%d", int64(pct))
	}
	return fmt.Sprintf("%.1f", pct)
}
