package quotes

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/fieldquote/fieldquote/internal/catalog"
	"github.com/fieldquote/fieldquote/internal/pricing"
	"github.com/fieldquote/fieldquote/internal/settings"
)

// ProductSource hands out catalog records for pricing. Satisfied by the
// catalog service.
type ProductSource interface {
	Get(ctx context.Context, id int64) (*catalog.Product, error)
}

// SettingsSource supplies the organisation's quote settings. Satisfied by the
// settings service.
type SettingsSource interface {
	Get(ctx context.Context, orgID int64) (settings.QuoteSettings, error)
}

// ItemCounter records priced quote items. Satisfied by the metrics registry;
// may be nil.
type ItemCounter interface {
	QuoteItemPriced()
}

type Service struct {
	repo     Repository
	products ProductSource
	settings SettingsSource
	counter  ItemCounter
}

func NewService(repo Repository, products ProductSource, settings SettingsSource, counter ItemCounter) *Service {
	return &Service{repo: repo, products: products, settings: settings, counter: counter}
}

func (s *Service) Create(ctx context.Context, orgID int64, req CreateQuoteRequest) (*Quote, error) {
	q := Quote{
		OrgID:         orgID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Address:       req.Address,
		Status:        QuoteStatusDraft,
		Notes:         req.Notes,
	}
	id, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, orgID, id int64) (*Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.OrgID != orgID {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

// AddItem prices and appends one line to a draft quote. The selected add-ons
// split two ways: selections without map locations fold into the line's price;
// selections with locations become independent child items, one per placement.
func (s *Service) AddItem(ctx context.Context, orgID, quoteID int64, req AddItemRequest) (*Quote, error) {
	q, err := s.Get(ctx, orgID, quoteID)
	if err != nil {
		return nil, err
	}
	if q.Status != QuoteStatusDraft {
		return nil, fmt.Errorf("quote %d is %s; items can only be added to draft quotes", quoteID, q.Status)
	}

	product, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product.OrgID != orgID || !product.IsActive {
		return nil, errors.New("product is not available")
	}

	variation, err := resolveVariation(product, req.VariationID)
	if err != nil {
		return nil, err
	}

	embedded, mapPlaced, err := splitAddonSelections(product, req.Addons)
	if err != nil {
		return nil, err
	}

	snapshot := product.Snapshot()
	var variationSnap *pricing.Variation
	if variation != nil {
		v := variation.Snapshot()
		variationSnap = &v
	}

	line := pricing.CalculateLinePrice(req.Measurement, snapshot, variationSnap, embedded)

	measurement := req.Measurement
	measurement.Addons = line.Addons

	main := pricing.QuoteItem{
		ID:          uuid.NewString(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Measurement: measurement,
		UnitPrice:   line.UnitPrice,
		UnitType:    product.UnitType,
		Quantity:    line.Quantity,
		LineTotal:   line.LineTotal,
	}
	if variation != nil {
		main.Variations = []pricing.VariationSelection{{
			VariationID:     variation.ID,
			Name:            variation.Name,
			PriceAdjustment: variation.PriceAdjustment,
			AdjustmentType:  pricing.AdjustmentType(variation.AdjustmentType),
		}}
	}

	basePrice := line.UnitPrice * line.Quantity
	children := buildMapPlacedItems(main, req.Measurement, snapshot, variationSnap, basePrice, line.Quantity, mapPlaced)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertItem(ctx, quoteID, main); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		for _, child := range children {
			if err := repo.InsertItem(ctx, quoteID, child); err != nil {
				return fmt.Errorf("insert add-on item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.counter != nil {
		s.counter.QuoteItemPriced()
	}
	return s.repo.Get(ctx, quoteID)
}

// RemoveItem deletes a line from a draft quote together with its map-placed
// child items.
func (s *Service) RemoveItem(ctx context.Context, orgID, quoteID int64, itemID string) error {
	q, err := s.Get(ctx, orgID, quoteID)
	if err != nil {
		return err
	}
	if q.Status != QuoteStatusDraft {
		return fmt.Errorf("quote %d is %s; items can only be removed from draft quotes", quoteID, q.Status)
	}
	return s.repo.DeleteItem(ctx, quoteID, itemID)
}

func (s *Service) Send(ctx context.Context, orgID, quoteID int64) (*Quote, error) {
	return s.transition(ctx, orgID, quoteID, QuoteStatusSent, QuoteStatusDraft)
}

func (s *Service) Accept(ctx context.Context, orgID, quoteID int64) (*Quote, error) {
	return s.transition(ctx, orgID, quoteID, QuoteStatusAccepted, QuoteStatusSent)
}

func (s *Service) Decline(ctx context.Context, orgID, quoteID int64) (*Quote, error) {
	return s.transition(ctx, orgID, quoteID, QuoteStatusDeclined, QuoteStatusSent)
}

func (s *Service) transition(ctx context.Context, orgID, quoteID int64, to QuoteStatus, from ...QuoteStatus) (*Quote, error) {
	q, err := s.Get(ctx, orgID, quoteID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, f := range from {
		if q.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move quote %d from %s to %s", quoteID, q.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, quoteID, to); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quoteID)
}

// Detail builds the display view: the consolidated grouping plus composed
// totals. The total renders as a range only once the quote has left draft and
// the organisation has range display enabled; line items always show exact
// prices.
func (s *Service) Detail(ctx context.Context, orgID, quoteID int64) (*QuoteDetail, error) {
	q, err := s.Get(ctx, orgID, quoteID)
	if err != nil {
		return nil, err
	}

	set, err := s.settings.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	ps := set.Pricing()

	subtotal := q.Subtotal()
	total := pricing.ComposeFinalPrice(subtotal, ps.MarkupPercent, ps.TaxPercent)

	display := pricing.FormatPrice(total, ps)
	if ps.ShowPriceRange && q.Status != QuoteStatusDraft {
		display = pricing.FormatPriceRange(total, ps.RangeLowerPct, ps.RangeUpperPct, ps)
	}

	itemPrices := make(map[string]string, len(q.Items))
	itemQuantities := make(map[string]string, len(q.Items))
	for _, it := range q.Items {
		itemPrices[it.ID] = pricing.FormatPrice(pricing.RoundToCents(it.LineTotal), ps)
		itemQuantities[it.ID] = fmt.Sprintf("%s %s",
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			pricing.UnitAbbreviation(it.UnitType))
	}

	return &QuoteDetail{
		Quote:          *q,
		Consolidation:  pricing.ConsolidateQuoteItems(q.Items),
		Subtotal:       subtotal,
		Total:          total,
		DisplayTotal:   display,
		ItemPrices:     itemPrices,
		ItemQuantities: itemQuantities,
	}, nil
}

// IncrementAdvice reports how many purchasable units cover a measured quantity
// for a product sold in fixed increments. Advisory only; adding the item still
// proceeds regardless of waste.
func (s *Service) IncrementAdvice(ctx context.Context, orgID int64, req IncrementAdviceRequest) (*IncrementAdviceResponse, error) {
	product, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product.OrgID != orgID {
		return nil, catalog.ErrNotFound
	}
	if product.SoldInIncrementsOf == nil || *product.SoldInIncrementsOf <= 0 {
		return nil, errors.New("product is not sold in increments")
	}

	result := pricing.CalculateIncrementQuantity(req.Measured, *product.SoldInIncrementsOf, product.AllowPartialIncrements)
	return &IncrementAdviceResponse{
		IncrementResult:    result,
		IncrementUnitLabel: product.IncrementUnitLabel,
	}, nil
}

// RepriceDraftQuotes recomputes every line of the organisation's draft quotes
// that reference any of the given products, from current catalog state.
// Non-draft quotes are never touched. Returns the number of quotes repriced.
func (s *Service) RepriceDraftQuotes(ctx context.Context, orgID int64, productIDs []int64) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	quoteIDs, err := s.repo.DraftQuoteIDsByProducts(ctx, orgID, productIDs)
	if err != nil {
		return 0, fmt.Errorf("find draft quotes: %w", err)
	}

	repriced := 0
	for _, id := range quoteIDs {
		if err := s.repriceQuote(ctx, id); err != nil {
			return repriced, fmt.Errorf("reprice quote %d: %w", id, err)
		}
		repriced++
	}
	return repriced, nil
}

func (s *Service) repriceQuote(ctx context.Context, quoteID int64) error {
	q, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return err
	}
	if q.Status != QuoteStatusDraft {
		return nil
	}

	// Pre-addon base price per main item, needed to reprice percentage-type
	// map-placed add-ons hanging off it.
	basePrices := make(map[string]float64, len(q.Items))
	mains := make(map[string]pricing.QuoteItem, len(q.Items))

	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, it := range q.Items {
			if it.IsAddonItem {
				continue
			}
			updated, base, err := s.repriceMainItem(ctx, it)
			if err != nil {
				return err
			}
			basePrices[it.ID] = base
			mains[it.ID] = updated
			if err := repo.UpdateItem(ctx, quoteID, updated); err != nil {
				return err
			}
		}

		for _, it := range q.Items {
			if !it.IsAddonItem {
				continue
			}
			updated, changed, err := s.repriceAddonItem(ctx, it, basePrices, mains)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			if err := repo.UpdateItem(ctx, quoteID, updated); err != nil {
				return err
			}
		}
		return nil
	})
}

// repriceMainItem recalculates one main line against the current catalog.
// Products deleted from the catalog keep their existing price. Returns the
// updated item and its pre-addon base price.
func (s *Service) repriceMainItem(ctx context.Context, it pricing.QuoteItem) (pricing.QuoteItem, float64, error) {
	product, err := s.products.Get(ctx, it.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return it, it.UnitPrice * it.Quantity, nil
		}
		return it, 0, err
	}

	snapshot := product.Snapshot()
	variationSnap := currentVariation(product, it.Variations)

	m := it.Measurement
	m.Addons = refreshAddonPrices(product, m.Addons)

	line := pricing.CalculateLinePrice(m, snapshot, variationSnap, m.Addons)

	m.Addons = line.Addons
	it.Measurement = m
	it.UnitPrice = line.UnitPrice
	it.Quantity = line.Quantity
	it.LineTotal = line.LineTotal
	if s.counter != nil {
		s.counter.QuoteItemPriced()
	}
	return it, line.UnitPrice * line.Quantity, nil
}

// repriceAddonItem recharges one map-placed add-on item from the current
// add-on price, against its parent line's refreshed base price.
func (s *Service) repriceAddonItem(ctx context.Context, it pricing.QuoteItem, basePrices map[string]float64, mains map[string]pricing.QuoteItem) (pricing.QuoteItem, bool, error) {
	if it.AddonID == nil || it.ParentQuoteItemID == nil || len(it.Measurement.Addons) == 0 {
		return it, false, nil
	}
	parent, ok := mains[*it.ParentQuoteItemID]
	if !ok {
		return it, false, nil
	}

	product, err := s.products.Get(ctx, it.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return it, false, nil
		}
		return it, false, err
	}

	sel := it.Measurement.Addons[0]
	found := false
	for _, a := range product.Addons {
		if a.ID == *it.AddonID {
			sel.Addon = a.Snapshot()
			found = true
			break
		}
	}
	if !found {
		return it, false, nil
	}

	snapshot := product.Snapshot()
	variationSnap := currentVariation(product, parent.Variations)
	charge := pricing.AddonCharge(sel, parent.Measurement, snapshot, variationSnap, basePrices[parent.ID], parent.Quantity)

	sel.Total = charge
	it.Measurement.Addons = []pricing.AddonSelection{sel}
	it.UnitPrice = charge
	it.LineTotal = charge * it.Quantity
	return it, true, nil
}

// resolveVariation picks the requested variation, or the catalog default when
// none was requested. A product with required variations rejects lines that
// select none.
func resolveVariation(p *catalog.Product, variationID *int64) (*catalog.Variation, error) {
	if variationID != nil {
		for i := range p.Variations {
			if p.Variations[i].ID == *variationID {
				return &p.Variations[i], nil
			}
		}
		return nil, fmt.Errorf("variation %d does not belong to product %d", *variationID, p.ID)
	}

	for i := range p.Variations {
		if p.Variations[i].IsDefault {
			return &p.Variations[i], nil
		}
	}
	for i := range p.Variations {
		if p.Variations[i].IsRequired {
			return nil, fmt.Errorf("product %d requires a variation selection", p.ID)
		}
	}
	return nil, nil
}

// splitAddonSelections resolves requested add-ons against the catalog and
// separates embedded selections from map-placed ones.
func splitAddonSelections(p *catalog.Product, reqs []AddonSelectionRequest) (embedded []pricing.AddonSelection, mapPlaced []mapPlacedSelection, err error) {
	byID := make(map[int64]catalog.Addon, len(p.Addons))
	for _, a := range p.Addons {
		byID[a.ID] = a
	}

	for _, req := range reqs {
		addon, ok := byID[req.AddonID]
		if !ok {
			return nil, nil, fmt.Errorf("add-on %d does not belong to product %d", req.AddonID, p.ID)
		}
		sel := pricing.AddonSelection{
			Addon:            addon.Snapshot(),
			Quantity:         req.Quantity,
			OptionAdjustment: req.OptionAdjustment,
		}
		if len(req.Locations) > 0 {
			mapPlaced = append(mapPlaced, mapPlacedSelection{selection: sel, locations: req.Locations})
			continue
		}
		embedded = append(embedded, sel)
	}
	return embedded, mapPlaced, nil
}

type mapPlacedSelection struct {
	selection pricing.AddonSelection
	locations []pricing.LatLng
}

// buildMapPlacedItems turns map-placed selections into child quote items, one
// per placement, each charged independently against the parent line.
func buildMapPlacedItems(parent pricing.QuoteItem, m pricing.Measurement, p pricing.Product, v *pricing.Variation, basePrice, billingQuantity float64, placed []mapPlacedSelection) []pricing.QuoteItem {
	var out []pricing.QuoteItem
	for _, mp := range placed {
		sel := mp.selection
		sel.Quantity = 1
		charge := pricing.AddonCharge(sel, m, p, v, basePrice, billingQuantity)
		sel.Total = charge

		for _, loc := range mp.locations {
			addonID := sel.Addon.ID
			parentID := parent.ID
			out = append(out, pricing.QuoteItem{
				ID:          uuid.NewString(),
				ProductID:   p.ID,
				ProductName: sel.Addon.Name,
				Measurement: pricing.Measurement{
					Type:           pricing.MeasurementPoint,
					Value:          1,
					Unit:           "each",
					PointLocations: []pricing.LatLng{loc},
					Addons:         []pricing.AddonSelection{sel},
				},
				UnitPrice:         charge,
				UnitType:          "each",
				Quantity:          1,
				LineTotal:         charge,
				ParentQuoteItemID: &parentID,
				IsAddonItem:       true,
				AddonID:           &addonID,
			})
		}
	}
	return out
}

// currentVariation maps a persisted variation selection onto the current
// catalog record, falling back to the persisted adjustment when the variation
// was removed from the catalog.
func currentVariation(p *catalog.Product, selections []pricing.VariationSelection) *pricing.Variation {
	if len(selections) == 0 {
		return nil
	}
	sel := selections[0]
	for _, v := range p.Variations {
		if v.ID == sel.VariationID {
			snap := v.Snapshot()
			return &snap
		}
	}
	return &pricing.Variation{
		ID:              sel.VariationID,
		Name:            sel.Name,
		PriceAdjustment: sel.PriceAdjustment,
		AdjustmentType:  sel.AdjustmentType,
	}
}

// refreshAddonPrices rebases embedded selections on current catalog add-on
// prices. Selections whose add-on no longer exists keep their saved price.
func refreshAddonPrices(p *catalog.Product, selections []pricing.AddonSelection) []pricing.AddonSelection {
	if len(selections) == 0 {
		return selections
	}
	byID := make(map[int64]catalog.Addon, len(p.Addons))
	for _, a := range p.Addons {
		byID[a.ID] = a
	}

	out := make([]pricing.AddonSelection, len(selections))
	for i, sel := range selections {
		if a, ok := byID[sel.Addon.ID]; ok {
			sel.Addon = a.Snapshot()
		}
		out[i] = sel
	}
	return out
}
