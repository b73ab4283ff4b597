package catalog

// BulkPriceMode selects how a bulk adjustment is applied.
type BulkPriceMode string

const (
	BulkPriceFixed      BulkPriceMode = "fixed"
	BulkPricePercentage BulkPriceMode = "percentage"
)

type CreateProductRequest struct {
	Name                   string   `json:"name" validate:"required,max=200"`
	Description            *string  `json:"description,omitempty"`
	UnitPrice              float64  `json:"unit_price" validate:"gte=0"`
	UnitType               string   `json:"unit_type" validate:"required,max=40"`
	UseTieredPricing       bool     `json:"use_tiered_pricing"`
	BaseHeight             *float64 `json:"base_height,omitempty" validate:"omitempty,gt=0"`
	BaseHeightUnit         string   `json:"base_height_unit,omitempty"`
	UseHeightInCalculation bool     `json:"use_height_in_calculation"`
	SoldInIncrementsOf     *float64 `json:"sold_in_increments_of,omitempty" validate:"omitempty,gt=0"`
	IncrementUnitLabel     string   `json:"increment_unit_label,omitempty"`
	AllowPartialIncrements bool     `json:"allow_partial_increments"`

	Variations []VariationRequest `json:"variations,omitempty" validate:"dive"`
	Addons     []AddonRequest     `json:"addons,omitempty" validate:"dive"`
	Tiers      []TierRequest      `json:"tiers,omitempty" validate:"dive"`
}

type VariationRequest struct {
	Name                   string   `json:"name" validate:"required,max=200"`
	PriceAdjustment        float64  `json:"price_adjustment"`
	AdjustmentType         string   `json:"adjustment_type" validate:"oneof=fixed percentage"`
	HeightValue            *float64 `json:"height_value,omitempty" validate:"omitempty,gt=0"`
	UnitOfMeasurement      string   `json:"unit_of_measurement,omitempty"`
	AffectsAreaCalculation bool     `json:"affects_area_calculation"`
	IsRequired             bool     `json:"is_required"`
	IsDefault              bool     `json:"is_default"`
}

type AddonRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	PriceValue      float64 `json:"price_value"`
	PriceType       string  `json:"price_type" validate:"oneof=fixed percentage"`
	CalculationType string  `json:"calculation_type" validate:"oneof=total per_unit area_calculation"`
	UnitType        string  `json:"unit_type,omitempty"`
}

type TierRequest struct {
	MinQuantity float64  `json:"min_quantity" validate:"gte=0"`
	MaxQuantity *float64 `json:"max_quantity,omitempty"`
	TierPrice   float64  `json:"tier_price" validate:"gte=0"`
	IsActive    bool     `json:"is_active"`
}

type ListProductsRequest struct {
	OrgID    int64
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type BulkPriceRequest struct {
	ProductIDs []int64       `json:"product_ids" validate:"required,min=1,dive,gt=0"`
	Mode       BulkPriceMode `json:"mode" validate:"oneof=fixed percentage"`
	Amount     float64       `json:"amount" validate:"required"`
}

// ProductResponse pairs the saved product with any tier validation messages.
// Messages are advisory: the write has already succeeded.
type ProductResponse struct {
	Product      Product  `json:"product"`
	TierWarnings []string `json:"tier_warnings,omitempty"`
}

type BulkPriceResponse struct {
	UpdatedProductIDs []int64 `json:"updated_product_ids"`
	RepriceQueued     bool    `json:"reprice_queued"`
}
