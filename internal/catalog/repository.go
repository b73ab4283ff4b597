package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldquote/fieldquote/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, id int64, p Product) error
	Delete(ctx context.Context, id int64) error
	ReplaceChildren(ctx context.Context, productID int64, variations []Variation, addons []Addon, tiers []Tier) error
	BulkAdjustPrices(ctx context.Context, orgID int64, ids []int64, mode BulkPriceMode, amount float64) ([]int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const productColumns = `id, org_id, name, description, unit_price, unit_type, use_tiered_pricing,
	base_height, base_height_unit, use_height_in_calculation,
	sold_in_increments_of, increment_unit_label, allow_partial_increments,
	is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.OrgID, &p.Name, &p.Description, &p.UnitPrice, &p.UnitType, &p.UseTieredPricing,
		&p.BaseHeight, &p.BaseHeightUnit, &p.UseHeightInCalculation,
		&p.SoldInIncrementsOf, &p.IncrementUnitLabel, &p.AllowPartialIncrements,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.Variations, err = r.listVariations(ctx, id); err != nil {
		return nil, err
	}
	if p.Addons, err = r.listAddons(ctx, id); err != nil {
		return nil, err
	}
	if p.Tiers, err = r.listTiers(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) listVariations(ctx context.Context, productID int64) ([]Variation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, name, price_adjustment, adjustment_type,
		       height_value, unit_of_measurement, affects_area_calculation, is_required, is_default
		FROM product_variations WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Variation
	for rows.Next() {
		var v Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceAdjustment, &v.AdjustmentType,
			&v.HeightValue, &v.UnitOfMeasurement, &v.AffectsAreaCalculation, &v.IsRequired, &v.IsDefault); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) listAddons(ctx context.Context, productID int64) ([]Addon, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, name, price_value, price_type, calculation_type, unit_type
		FROM product_addons WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Addon
	for rows.Next() {
		var a Addon
		if err := rows.Scan(&a.ID, &a.ProductID, &a.Name, &a.PriceValue, &a.PriceType, &a.CalculationType, &a.UnitType); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) listTiers(ctx context.Context, productID int64) ([]Tier, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, min_quantity, max_quantity, tier_price, is_active
		FROM pricing_tiers WHERE product_id = $1 ORDER BY min_quantity`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tier
	for rows.Next() {
		var t Tier
		if err := rows.Scan(&t.ID, &t.ProductID, &t.MinQuantity, &t.MaxQuantity, &t.TierPrice, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE org_id = $1`
	countQuery := `SELECT COUNT(*) FROM products WHERE org_id = $1`
	args := []interface{}{req.OrgID}
	argPos := 1

	if req.Search != "" {
		argPos++
		clause := fmt.Sprintf(" AND name ILIKE $%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, "%"+req.Search+"%")
	}
	if req.IsActive != nil {
		argPos++
		clause := fmt.Sprintf(" AND is_active = $%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, *req.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY name"
	if req.Limit > 0 {
		argPos++
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, req.Limit)
	}
	if req.Offset > 0 {
		argPos++
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (org_id, name, description, unit_price, unit_type, use_tiered_pricing,
			base_height, base_height_unit, use_height_in_calculation,
			sold_in_increments_of, increment_unit_label, allow_partial_increments, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, NOW(), NOW())
		RETURNING id`,
		p.OrgID, p.Name, p.Description, p.UnitPrice, p.UnitType, p.UseTieredPricing,
		p.BaseHeight, p.BaseHeightUnit, p.UseHeightInCalculation,
		p.SoldInIncrementsOf, p.IncrementUnitLabel, p.AllowPartialIncrements,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, p Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products SET name = $2, description = $3, unit_price = $4, unit_type = $5,
			use_tiered_pricing = $6, base_height = $7, base_height_unit = $8, use_height_in_calculation = $9,
			sold_in_increments_of = $10, increment_unit_label = $11, allow_partial_increments = $12,
			is_active = $13, updated_at = NOW()
		WHERE id = $1`,
		id, p.Name, p.Description, p.UnitPrice, p.UnitType,
		p.UseTieredPricing, p.BaseHeight, p.BaseHeightUnit, p.UseHeightInCalculation,
		p.SoldInIncrementsOf, p.IncrementUnitLabel, p.AllowPartialIncrements, p.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceChildren(ctx context.Context, productID int64, variations []Variation, addons []Addon, tiers []Tier) error {
	for _, table := range []string{"product_variations", "product_addons", "pricing_tiers"} {
		if _, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE product_id = $1`, productID); err != nil {
			return err
		}
	}

	for _, v := range variations {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO product_variations (product_id, name, price_adjustment, adjustment_type,
				height_value, unit_of_measurement, affects_area_calculation, is_required, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			productID, v.Name, v.PriceAdjustment, v.AdjustmentType,
			v.HeightValue, v.UnitOfMeasurement, v.AffectsAreaCalculation, v.IsRequired, v.IsDefault); err != nil {
			return err
		}
	}
	for _, a := range addons {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO product_addons (product_id, name, price_value, price_type, calculation_type, unit_type)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			productID, a.Name, a.PriceValue, a.PriceType, a.CalculationType, a.UnitType); err != nil {
			return err
		}
	}
	for _, t := range tiers {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO pricing_tiers (product_id, min_quantity, max_quantity, tier_price, is_active)
			VALUES ($1, $2, $3, $4, $5)`,
			productID, t.MinQuantity, t.MaxQuantity, t.TierPrice, t.IsActive); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) BulkAdjustPrices(ctx context.Context, orgID int64, ids []int64, mode BulkPriceMode, amount float64) ([]int64, error) {
	var expr string
	switch mode {
	case BulkPricePercentage:
		expr = `GREATEST(unit_price * (1 + $3 / 100.0), 0)`
	default:
		expr = `GREATEST(unit_price + $3, 0)`
	}

	rows, err := r.db.Query(ctx, `
		UPDATE products SET unit_price = `+expr+`, updated_at = NOW()
		WHERE org_id = $1 AND id = ANY($2) AND is_active
		RETURNING id`, orgID, ids, amount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updated []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}
