// Package pricing implements the quote pricing and consolidation engine.
//
// Every operation is a pure function over plain-data inputs: no I/O, no shared
// state, safe to call concurrently. Callers pass already-fetched catalog
// snapshots and are responsible for keeping them consistent for the lifetime
// of one calculation.
package pricing

// MeasurementType classifies how a measurement was captured.
type MeasurementType string

const (
	MeasurementArea   MeasurementType = "area"
	MeasurementLinear MeasurementType = "linear"
	MeasurementPoint  MeasurementType = "point"
)

// LatLng is a geographic coordinate captured by the map collaborator.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Dimensions holds the raw width/length entered when a measurement was typed
// rather than drawn.
type Dimensions struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
}

// Measurement is the raw captured quantity for one quote line. Value is always
// in the product's native unit (square feet, linear feet, or count).
// Immutable once an item is added to a quote.
type Measurement struct {
	Type           MeasurementType  `json:"type"`
	Value          float64          `json:"value"`
	Unit           string           `json:"unit"`
	DepthInches    *float64         `json:"depth_inches,omitempty"`
	Coordinates    []LatLng         `json:"coordinates,omitempty"`
	PointLocations []LatLng         `json:"point_locations,omitempty"`
	MapColor       string           `json:"map_color,omitempty"`
	Dimensions     *Dimensions      `json:"dimensions,omitempty"`
	Addons         []AddonSelection `json:"addons,omitempty"`
}

// AdjustmentType distinguishes fixed and percentage price adjustments.
type AdjustmentType string

const (
	AdjustmentFixed      AdjustmentType = "fixed"
	AdjustmentPercentage AdjustmentType = "percentage"
)

// AddonCalculationType selects the add-on pricing rule.
type AddonCalculationType string

const (
	AddonCalcTotal           AddonCalculationType = "total"
	AddonCalcPerUnit         AddonCalculationType = "per_unit"
	AddonCalcAreaCalculation AddonCalculationType = "area_calculation"
)

// Product is the catalog record a quote line references. Referenced, never
// mutated, by quote items.
type Product struct {
	ID                     int64         `json:"id"`
	Name                   string        `json:"name"`
	UnitPrice              float64       `json:"unit_price"`
	UnitType               string        `json:"unit_type"`
	UseTieredPricing       bool          `json:"use_tiered_pricing"`
	Tiers                  []PricingTier `json:"tiers,omitempty"`
	BaseHeight             *float64      `json:"base_height,omitempty"`
	BaseHeightUnit         string        `json:"base_height_unit,omitempty"`
	UseHeightInCalculation bool          `json:"use_height_in_calculation"`
	SoldInIncrementsOf     *float64      `json:"sold_in_increments_of,omitempty"`
	IncrementUnitLabel     string        `json:"increment_unit_label,omitempty"`
	AllowPartialIncrements bool          `json:"allow_partial_increments"`
}

// Variation is a mutually-selected product option with a price adjustment.
// At most one variation is selected per line item.
type Variation struct {
	ID                     int64          `json:"id"`
	ProductID              int64          `json:"product_id"`
	Name                   string         `json:"name"`
	PriceAdjustment        float64        `json:"price_adjustment"`
	AdjustmentType         AdjustmentType `json:"adjustment_type"`
	HeightValue            *float64       `json:"height_value,omitempty"`
	UnitOfMeasurement      string         `json:"unit_of_measurement,omitempty"`
	AffectsAreaCalculation bool           `json:"affects_area_calculation"`
	IsRequired             bool           `json:"is_required"`
	IsDefault              bool           `json:"is_default"`
}

// Addon is an optional extra charged alongside a product.
type Addon struct {
	ID              int64                `json:"id"`
	ProductID       int64                `json:"product_id"`
	Name            string               `json:"name"`
	PriceValue      float64              `json:"price_value"`
	PriceType       AdjustmentType       `json:"price_type"`
	CalculationType AddonCalculationType `json:"calculation_type"`
	UnitType        string               `json:"unit_type,omitempty"`
}

// AddonSelection pairs an add-on with the per-line selection state: how many
// instances and any option-level price adjustment.
type AddonSelection struct {
	Addon            Addon   `json:"addon"`
	Quantity         int     `json:"quantity"`
	OptionAdjustment float64 `json:"option_adjustment,omitempty"`
	// Total is the fully-resolved charge for this selection, written by
	// CalculateLinePrice and read back by the consolidation engine.
	Total float64 `json:"total"`
}

// PricingTier is a quantity-banded price rule on a product. MaxQuantity nil
// means unbounded.
type PricingTier struct {
	ID          int64    `json:"id"`
	ProductID   int64    `json:"product_id"`
	MinQuantity float64  `json:"min_quantity"`
	MaxQuantity *float64 `json:"max_quantity,omitempty"`
	TierPrice   float64  `json:"tier_price"`
	IsActive    bool     `json:"is_active"`
}

// VariationSelection records the variation chosen for a persisted quote item.
type VariationSelection struct {
	VariationID     int64          `json:"variation_id"`
	Name            string         `json:"name"`
	PriceAdjustment float64        `json:"price_adjustment"`
	AdjustmentType  AdjustmentType `json:"adjustment_type"`
}

// QuoteItem is the persisted unit of billing. LineTotal is always the fully
// resolved price for exactly this item's quantity; consumers never recompute
// it implicitly.
type QuoteItem struct {
	ID                string               `json:"id"`
	ProductID         int64                `json:"product_id"`
	ProductName       string               `json:"product_name"`
	Measurement       Measurement          `json:"measurement"`
	UnitPrice         float64              `json:"unit_price"`
	UnitType          string               `json:"unit_type"`
	Quantity          float64              `json:"quantity"`
	LineTotal         float64              `json:"line_total"`
	Variations        []VariationSelection `json:"variations,omitempty"`
	ParentQuoteItemID *string              `json:"parent_quote_item_id,omitempty"`
	IsAddonItem       bool                 `json:"is_addon_item"`
	AddonID           *int64               `json:"addon_id,omitempty"`
}

// LinePrice is the output of CalculateLinePrice.
type LinePrice struct {
	UnitPrice  float64 `json:"unit_price"`
	Quantity   float64 `json:"quantity"`
	AddonTotal float64 `json:"addon_total"`
	LineTotal  float64 `json:"line_total"`
	// Addons mirrors the input selections with Total resolved per selection.
	Addons []AddonSelection `json:"addons,omitempty"`
}

// Settings is the contractor-configured display and composition configuration.
// Supplied by the configuration collaborator, treated as validated and opaque.
type Settings struct {
	CurrencySymbol   string  `json:"currency_symbol"`
	DecimalPrecision int     `json:"decimal_precision"`
	MarkupPercent    float64 `json:"markup_percent"`
	TaxPercent       float64 `json:"tax_percent"`
	RangeLowerPct    float64 `json:"range_lower_pct"`
	RangeUpperPct    float64 `json:"range_upper_pct"`
	ShowPriceRange   bool    `json:"show_price_range"`
	AnnotateRange    bool    `json:"annotate_range"`
}

// IncrementResult is the increment rounding advisor's report. The advisor
// never blocks; the caller decides whether to re-measure or proceed.
type IncrementResult struct {
	UnitsNeeded      int     `json:"units_needed"`
	TotalCoverage    float64 `json:"total_coverage"`
	Extra            float64 `json:"extra"`
	WasteRatio       float64 `json:"waste_ratio"`
	SignificantWaste bool    `json:"significant_waste"`
}

// ConsolidatedAddon aggregates one add-on across the instances of a product
// group (embedded selections) or across map placements (child items).
type ConsolidatedAddon struct {
	AddonID    int64   `json:"addon_id"`
	Name       string  `json:"name"`
	UnitType   string  `json:"unit_type,omitempty"`
	UnitPrice  float64 `json:"unit_price,omitempty"`
	Quantity   float64 `json:"quantity"`
	Total      float64 `json:"total"`
	Placements int     `json:"placements,omitempty"`
}

// ConsolidatedMainProduct is the display aggregate for one product group.
// View-only, recomputed on every render, never persisted.
type ConsolidatedMainProduct struct {
	ProductID         int64                `json:"product_id"`
	ProductName       string               `json:"product_name"`
	Color             string               `json:"color,omitempty"`
	UnitType          string               `json:"unit_type"`
	TotalQuantity     float64              `json:"total_quantity"`
	TotalLineTotal    float64              `json:"total_line_total"`
	Instances         []QuoteItem          `json:"instances"`
	Variations        []VariationSelection `json:"variations,omitempty"`
	TraditionalAddons []ConsolidatedAddon  `json:"traditional_addons,omitempty"`
	MapPlacedAddons   []ConsolidatedAddon  `json:"map_placed_addons,omitempty"`
}

// Consolidation is the regrouped, display-ready view of a quote's items.
type Consolidation struct {
	ConsolidatedMainProducts []ConsolidatedMainProduct `json:"consolidated_main_products"`
}
