package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldquote/fieldquote/internal/platform/db"
	"github.com/fieldquote/fieldquote/internal/pricing"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, q Quote) (int64, error)
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error
	InsertItem(ctx context.Context, quoteID int64, item pricing.QuoteItem) error
	UpdateItem(ctx context.Context, quoteID int64, item pricing.QuoteItem) error
	DeleteItem(ctx context.Context, quoteID int64, itemID string) error
	DraftQuoteIDsByProducts(ctx context.Context, orgID int64, productIDs []int64) ([]int64, error)
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

const quoteColumns = `id, org_id, customer_name, customer_email, address, status, notes, created_at, updated_at`

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.OrgID, &q.CustomerName, &q.CustomerEmail, &q.Address,
		&q.Status, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (org_id, customer_name, customer_email, address, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		q.OrgID, q.CustomerName, q.CustomerEmail, q.Address, q.Status, q.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if q.Items, err = r.listItems(ctx, id); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) listItems(ctx context.Context, quoteID int64) ([]pricing.QuoteItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, product_name, measurement, unit_price, unit_type,
		       quantity, line_total, variations, parent_quote_item_id, is_addon_item, addon_id
		FROM quote_items WHERE quote_id = $1 ORDER BY created_at, id`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.QuoteItem
	for rows.Next() {
		var (
			it             pricing.QuoteItem
			measurementRaw []byte
			variationsRaw  []byte
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &measurementRaw, &it.UnitPrice, &it.UnitType,
			&it.Quantity, &it.LineTotal, &variationsRaw, &it.ParentQuoteItemID, &it.IsAddonItem, &it.AddonID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(measurementRaw, &it.Measurement); err != nil {
			return nil, fmt.Errorf("decode measurement for item %s: %w", it.ID, err)
		}
		if len(variationsRaw) > 0 {
			if err := json.Unmarshal(variationsRaw, &it.Variations); err != nil {
				return nil, fmt.Errorf("decode variations for item %s: %w", it.ID, err)
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE org_id = $1`
	countQuery := `SELECT COUNT(*) FROM quotes WHERE org_id = $1`
	args := []interface{}{req.OrgID}
	argPos := 1

	if req.Status != nil {
		argPos++
		clause := fmt.Sprintf(" AND status = $%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, *req.Status)
	}
	if req.DateFrom != nil {
		argPos++
		clause := fmt.Sprintf(" AND created_at >= $%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, *req.DateFrom)
	}
	if req.DateTo != nil {
		argPos++
		clause := fmt.Sprintf(" AND created_at <= $%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, *req.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY created_at DESC"
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

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, quoteID int64, item pricing.QuoteItem) error {
	measurementRaw, err := json.Marshal(item.Measurement)
	if err != nil {
		return fmt.Errorf("encode measurement: %w", err)
	}
	variationsRaw, err := json.Marshal(item.Variations)
	if err != nil {
		return fmt.Errorf("encode variations: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO quote_items (id, quote_id, product_id, product_name, measurement, unit_price, unit_type,
			quantity, line_total, variations, parent_quote_item_id, is_addon_item, addon_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())`,
		item.ID, quoteID, item.ProductID, item.ProductName, measurementRaw, item.UnitPrice, item.UnitType,
		item.Quantity, item.LineTotal, variationsRaw, item.ParentQuoteItemID, item.IsAddonItem, item.AddonID)
	return err
}

func (r *repository) UpdateItem(ctx context.Context, quoteID int64, item pricing.QuoteItem) error {
	measurementRaw, err := json.Marshal(item.Measurement)
	if err != nil {
		return fmt.Errorf("encode measurement: %w", err)
	}
	variationsRaw, err := json.Marshal(item.Variations)
	if err != nil {
		return fmt.Errorf("encode variations: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE quote_items SET measurement = $3, unit_price = $4, quantity = $5, line_total = $6, variations = $7
		WHERE id = $1 AND quote_id = $2`,
		item.ID, quoteID, measurementRaw, item.UnitPrice, item.Quantity, item.LineTotal, variationsRaw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes one item and any child items placed under it.
func (r *repository) DeleteItem(ctx context.Context, quoteID int64, itemID string) error {
	if _, err := r.db.Exec(ctx, `
		DELETE FROM quote_items WHERE quote_id = $1 AND parent_quote_item_id = $2`, quoteID, itemID); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1 AND id = $2`, quoteID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DraftQuoteIDsByProducts returns the draft quotes of one organisation that
// hold at least one item referencing any of the given products.
func (r *repository) DraftQuoteIDsByProducts(ctx context.Context, orgID int64, productIDs []int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT q.id
		FROM quotes q
		JOIN quote_items qi ON qi.quote_id = q.id
		WHERE q.org_id = $1 AND q.status = $2 AND qi.product_id = ANY($3)
		ORDER BY q.id`, orgID, QuoteStatusDraft, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
