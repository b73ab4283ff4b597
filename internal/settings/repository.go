package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("settings not found")

type Repository interface {
	Get(ctx context.Context, orgID int64) (QuoteSettings, error)
	Upsert(ctx context.Context, s QuoteSettings) (QuoteSettings, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID int64) (QuoteSettings, error) {
	const query = `
		SELECT org_id, currency_symbol, decimal_precision, markup_percent, tax_percent,
		       range_lower_pct, range_upper_pct, show_price_range, annotate_range, updated_at
		FROM quote_settings WHERE org_id = $1`

	var s QuoteSettings
	err := r.db.QueryRow(ctx, query, orgID).Scan(
		&s.OrgID, &s.CurrencySymbol, &s.DecimalPrecision, &s.MarkupPercent, &s.TaxPercent,
		&s.RangeLowerPct, &s.RangeUpperPct, &s.ShowPriceRange, &s.AnnotateRange, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuoteSettings{}, ErrNotFound
		}
		return QuoteSettings{}, err
	}
	return s, nil
}

func (r *repository) Upsert(ctx context.Context, s QuoteSettings) (QuoteSettings, error) {
	const query = `
		INSERT INTO quote_settings (org_id, currency_symbol, decimal_precision, markup_percent, tax_percent,
			range_lower_pct, range_upper_pct, show_price_range, annotate_range, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (org_id) DO UPDATE SET
			currency_symbol = EXCLUDED.currency_symbol,
			decimal_precision = EXCLUDED.decimal_precision,
			markup_percent = EXCLUDED.markup_percent,
			tax_percent = EXCLUDED.tax_percent,
			range_lower_pct = EXCLUDED.range_lower_pct,
			range_upper_pct = EXCLUDED.range_upper_pct,
			show_price_range = EXCLUDED.show_price_range,
			annotate_range = EXCLUDED.annotate_range,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		s.OrgID, s.CurrencySymbol, s.DecimalPrecision, s.MarkupPercent, s.TaxPercent,
		s.RangeLowerPct, s.RangeUpperPct, s.ShowPriceRange, s.AnnotateRange,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return QuoteSettings{}, err
	}
	return s, nil
}
