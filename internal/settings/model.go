package settings

import (
	"time"

	"github.com/fieldquote/fieldquote/internal/pricing"
)

// QuoteSettings is the per-organisation pricing configuration applied when
// composing and displaying quote totals.
type QuoteSettings struct {
	OrgID            int64     `json:"org_id"`
	CurrencySymbol   string    `json:"currency_symbol"`
	DecimalPrecision int       `json:"decimal_precision"`
	MarkupPercent    float64   `json:"markup_percent"`
	TaxPercent       float64   `json:"tax_percent"`
	RangeLowerPct    float64   `json:"range_lower_pct"`
	RangeUpperPct    float64   `json:"range_upper_pct"`
	ShowPriceRange   bool      `json:"show_price_range"`
	AnnotateRange    bool      `json:"annotate_range"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Defaults returns the settings applied before an organisation has saved any.
func Defaults(orgID int64) QuoteSettings {
	return QuoteSettings{
		OrgID:            orgID,
		CurrencySymbol:   "$",
		DecimalPrecision: 2,
		RangeLowerPct:    10,
		RangeUpperPct:    10,
	}
}

// Pricing converts the record into the engine's opaque settings value.
func (s QuoteSettings) Pricing() pricing.Settings {
	return pricing.Settings{
		CurrencySymbol:   s.CurrencySymbol,
		DecimalPrecision: s.DecimalPrecision,
		MarkupPercent:    s.MarkupPercent,
		TaxPercent:       s.TaxPercent,
		RangeLowerPct:    s.RangeLowerPct,
		RangeUpperPct:    s.RangeUpperPct,
		ShowPriceRange:   s.ShowPriceRange,
		AnnotateRange:    s.AnnotateRange,
	}
}
