package catalog

import (
	"time"

	"github.com/fieldquote/fieldquote/internal/pricing"
)

// Product is a catalog record owned by the contractor. Quote items reference
// products but never mutate them.
type Product struct {
	ID                     int64     `json:"id"`
	OrgID                  int64     `json:"org_id"`
	Name                   string    `json:"name"`
	Description            *string   `json:"description,omitempty"`
	UnitPrice              float64   `json:"unit_price"`
	UnitType               string    `json:"unit_type"`
	UseTieredPricing       bool      `json:"use_tiered_pricing"`
	BaseHeight             *float64  `json:"base_height,omitempty"`
	BaseHeightUnit         string    `json:"base_height_unit,omitempty"`
	UseHeightInCalculation bool      `json:"use_height_in_calculation"`
	SoldInIncrementsOf     *float64  `json:"sold_in_increments_of,omitempty"`
	IncrementUnitLabel     string    `json:"increment_unit_label,omitempty"`
	AllowPartialIncrements bool      `json:"allow_partial_increments"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	Variations []Variation `json:"variations,omitempty"`
	Addons     []Addon     `json:"addons,omitempty"`
	Tiers      []Tier      `json:"tiers,omitempty"`
}

// Variation is a selectable product option with a price adjustment.
type Variation struct {
	ID                     int64    `json:"id"`
	ProductID              int64    `json:"product_id"`
	Name                   string   `json:"name"`
	PriceAdjustment        float64  `json:"price_adjustment"`
	AdjustmentType         string   `json:"adjustment_type"`
	HeightValue            *float64 `json:"height_value,omitempty"`
	UnitOfMeasurement      string   `json:"unit_of_measurement,omitempty"`
	AffectsAreaCalculation bool     `json:"affects_area_calculation"`
	IsRequired             bool     `json:"is_required"`
	IsDefault              bool     `json:"is_default"`
}

// Addon is an optional extra offered with a product.
type Addon struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"product_id"`
	Name            string  `json:"name"`
	PriceValue      float64 `json:"price_value"`
	PriceType       string  `json:"price_type"`
	CalculationType string  `json:"calculation_type"`
	UnitType        string  `json:"unit_type,omitempty"`
}

// Tier is a quantity-banded price rule on a product.
type Tier struct {
	ID          int64    `json:"id"`
	ProductID   int64    `json:"product_id"`
	MinQuantity float64  `json:"min_quantity"`
	MaxQuantity *float64 `json:"max_quantity,omitempty"`
	TierPrice   float64  `json:"tier_price"`
	IsActive    bool     `json:"is_active"`
}

// Snapshot converts the catalog record into the engine's read-only product
// view, tiers included.
func (p Product) Snapshot() pricing.Product {
	tiers := make([]pricing.PricingTier, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		tiers = append(tiers, t.Snapshot())
	}
	return pricing.Product{
		ID:                     p.ID,
		Name:                   p.Name,
		UnitPrice:              p.UnitPrice,
		UnitType:               p.UnitType,
		UseTieredPricing:       p.UseTieredPricing,
		Tiers:                  tiers,
		BaseHeight:             p.BaseHeight,
		BaseHeightUnit:         p.BaseHeightUnit,
		UseHeightInCalculation: p.UseHeightInCalculation,
		SoldInIncrementsOf:     p.SoldInIncrementsOf,
		IncrementUnitLabel:     p.IncrementUnitLabel,
		AllowPartialIncrements: p.AllowPartialIncrements,
	}
}

func (v Variation) Snapshot() pricing.Variation {
	return pricing.Variation{
		ID:                     v.ID,
		ProductID:              v.ProductID,
		Name:                   v.Name,
		PriceAdjustment:        v.PriceAdjustment,
		AdjustmentType:         pricing.AdjustmentType(v.AdjustmentType),
		HeightValue:            v.HeightValue,
		UnitOfMeasurement:      v.UnitOfMeasurement,
		AffectsAreaCalculation: v.AffectsAreaCalculation,
		IsRequired:             v.IsRequired,
		IsDefault:              v.IsDefault,
	}
}

func (a Addon) Snapshot() pricing.Addon {
	return pricing.Addon{
		ID:              a.ID,
		ProductID:       a.ProductID,
		Name:            a.Name,
		PriceValue:      a.PriceValue,
		PriceType:       pricing.AdjustmentType(a.PriceType),
		CalculationType: pricing.AddonCalculationType(a.CalculationType),
		UnitType:        a.UnitType,
	}
}

func (t Tier) Snapshot() pricing.PricingTier {
	return pricing.PricingTier{
		ID:          t.ID,
		ProductID:   t.ProductID,
		MinQuantity: t.MinQuantity,
		MaxQuantity: t.MaxQuantity,
		TierPrice:   t.TierPrice,
		IsActive:    t.IsActive,
	}
}
