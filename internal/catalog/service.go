package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldquote/fieldquote/internal/pricing"
)

// RepriceEnqueuer schedules a background repricing pass over draft quotes
// after catalog prices change.
type RepriceEnqueuer interface {
	EnqueueReprice(ctx context.Context, orgID int64, productIDs []int64) error
}

type Service struct {
	repo     Repository
	enqueuer RepriceEnqueuer
}

func NewService(repo Repository, enqueuer RepriceEnqueuer) *Service {
	return &Service{repo: repo, enqueuer: enqueuer}
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, errors.New("invalid product ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}

// Create saves a product with its children. Tier validation messages come
// back alongside the saved record; malformed tiers are reported, not
// rejected, and calculation falls back best-effort.
func (s *Service) Create(ctx context.Context, orgID int64, req CreateProductRequest) (*ProductResponse, error) {
	p := productFromRequest(orgID, req)
	if err := s.validate(p); err != nil {
		return nil, err
	}

	var productID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		productID = id
		return repo.ReplaceChildren(ctx, id, p.Variations, p.Addons, p.Tiers)
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductResponse{Product: *saved, TierWarnings: tierWarnings(saved.Tiers)}, nil
}

func (s *Service) Update(ctx context.Context, id int64, orgID int64, req CreateProductRequest) (*ProductResponse, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if existing.OrgID != orgID {
		return nil, ErrNotFound
	}

	p := productFromRequest(orgID, req)
	p.IsActive = existing.IsActive
	if err := s.validate(p); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return repo.ReplaceChildren(ctx, id, p.Variations, p.Addons, p.Tiers)
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductResponse{Product: *saved, TierWarnings: tierWarnings(saved.Tiers)}, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid product ID")
	}
	return s.repo.Delete(ctx, id)
}

// BulkAdjustPrices applies a fixed or percentage adjustment across a product
// set and queues a repricing pass for draft quotes referencing them.
func (s *Service) BulkAdjustPrices(ctx context.Context, orgID int64, req BulkPriceRequest) (*BulkPriceResponse, error) {
	if req.Mode == BulkPricePercentage && req.Amount <= -100 {
		return nil, errors.New("percentage adjustment cannot reduce prices below zero")
	}

	updated, err := s.repo.BulkAdjustPrices(ctx, orgID, req.ProductIDs, req.Mode, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("bulk price update: %w", err)
	}

	resp := &BulkPriceResponse{UpdatedProductIDs: updated}
	if len(updated) > 0 && s.enqueuer != nil {
		if err := s.enqueuer.EnqueueReprice(ctx, orgID, updated); err != nil {
			// Prices are already saved; the reprice pass can be re-run.
			return resp, fmt.Errorf("enqueue reprice: %w", err)
		}
		resp.RepriceQueued = true
	}
	return resp, nil
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	if strings.TrimSpace(p.UnitType) == "" {
		return errors.New("product unit type is required")
	}
	if p.UnitPrice < 0 {
		return errors.New("unit price cannot be negative")
	}
	return nil
}

func tierWarnings(tiers []Tier) []string {
	snapshots := make([]pricing.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		snapshots = append(snapshots, t.Snapshot())
	}
	return pricing.ValidateTiers(snapshots)
}

func productFromRequest(orgID int64, req CreateProductRequest) Product {
	p := Product{
		OrgID:                  orgID,
		Name:                   req.Name,
		Description:            req.Description,
		UnitPrice:              req.UnitPrice,
		UnitType:               req.UnitType,
		UseTieredPricing:       req.UseTieredPricing,
		BaseHeight:             req.BaseHeight,
		BaseHeightUnit:         req.BaseHeightUnit,
		UseHeightInCalculation: req.UseHeightInCalculation,
		SoldInIncrementsOf:     req.SoldInIncrementsOf,
		IncrementUnitLabel:     req.IncrementUnitLabel,
		AllowPartialIncrements: req.AllowPartialIncrements,
		IsActive:               true,
	}
	for _, v := range req.Variations {
		p.Variations = append(p.Variations, Variation{
			Name:                   v.Name,
			PriceAdjustment:        v.PriceAdjustment,
			AdjustmentType:         v.AdjustmentType,
			HeightValue:            v.HeightValue,
			UnitOfMeasurement:      v.UnitOfMeasurement,
			AffectsAreaCalculation: v.AffectsAreaCalculation,
			IsRequired:             v.IsRequired,
			IsDefault:              v.IsDefault,
		})
	}
	for _, a := range req.Addons {
		p.Addons = append(p.Addons, Addon{
			Name:            a.Name,
			PriceValue:      a.PriceValue,
			PriceType:       a.PriceType,
			CalculationType: a.CalculationType,
			UnitType:        a.UnitType,
		})
	}
	for _, t := range req.Tiers {
		p.Tiers = append(p.Tiers, Tier{
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			TierPrice:   t.TierPrice,
			IsActive:    t.IsActive,
		})
	}
	return p
}
