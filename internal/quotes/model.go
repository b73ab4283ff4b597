package quotes

import (
	"time"

	"github.com/fieldquote/fieldquote/internal/pricing"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusDeclined QuoteStatus = "DECLINED"
)

// Quote is a priced proposal for one customer. Items are append-only:
// removing a line deletes the whole item (and its map-placed children),
// never partially mutates it.
type Quote struct {
	ID            int64       `json:"id"`
	OrgID         int64       `json:"org_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail *string     `json:"customer_email,omitempty"`
	Address       *string     `json:"address,omitempty"`
	Status        QuoteStatus `json:"status"`
	Notes         *string     `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	Items []pricing.QuoteItem `json:"items,omitempty"`
}

// Subtotal is the plain sum of every item's line total, before markup/tax.
func (q *Quote) Subtotal() float64 {
	var sum float64
	for _, it := range q.Items {
		sum += it.LineTotal
	}
	return sum
}
