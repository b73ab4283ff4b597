package quotes

import (
	"time"

	"github.com/fieldquote/fieldquote/internal/pricing"
)

type CreateQuoteRequest struct {
	CustomerName  string  `json:"customer_name" validate:"required,max=200"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
	Address       *string `json:"address,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// AddonSelectionRequest selects an add-on for a new line item. Selections
// with map locations become independent child items, one per placement;
// selections without fold into the parent line's price.
type AddonSelectionRequest struct {
	AddonID          int64            `json:"addon_id" validate:"required,gt=0"`
	Quantity         int              `json:"quantity" validate:"gte=0"`
	OptionAdjustment float64          `json:"option_adjustment"`
	Locations        []pricing.LatLng `json:"locations,omitempty"`
}

type AddItemRequest struct {
	ProductID   int64                   `json:"product_id" validate:"required,gt=0"`
	Measurement pricing.Measurement     `json:"measurement" validate:"required"`
	VariationID *int64                  `json:"variation_id,omitempty" validate:"omitempty,gt=0"`
	Addons      []AddonSelectionRequest `json:"addons,omitempty" validate:"dive"`
}

type ListQuotesRequest struct {
	OrgID    int64
	Status   *QuoteStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// QuoteDetail is the display view: the quote, its consolidated grouping, and
// formatted totals. Line items always display exact prices; the quote total
// renders as a range only once the quote has left draft and the org has
// enabled range display.
type QuoteDetail struct {
	Quote         Quote                 `json:"quote"`
	Consolidation pricing.Consolidation `json:"consolidation"`
	Subtotal      float64               `json:"subtotal"`
	Total         float64               `json:"total"`
	DisplayTotal  string                `json:"display_total"`
	ItemPrices    map[string]string     `json:"item_prices"`
	// ItemQuantities renders each item's billing quantity with the abbreviated
	// unit, e.g. "450 SF".
	ItemQuantities map[string]string `json:"item_quantities"`
}

// IncrementAdviceRequest asks the advisor how many purchasable units cover a
// measured quantity for a product sold in increments.
type IncrementAdviceRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Measured  float64 `json:"measured" validate:"required,gt=0"`
}

type IncrementAdviceResponse struct {
	pricing.IncrementResult
	IncrementUnitLabel string `json:"increment_unit_label,omitempty"`
}
