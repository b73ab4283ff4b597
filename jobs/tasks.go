package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRepriceQuotes recomputes draft quote lines after catalog price
	// changes.
	TaskTypeRepriceQuotes = "quote:reprice"
)

// RepriceQuotesPayload names the organisation and the products whose prices
// changed. Only draft quotes referencing these products are touched.
type RepriceQuotesPayload struct {
	OrgID      int64   `json:"org_id"`
	ProductIDs []int64 `json:"product_ids"`
}

// NewRepriceQuotesTask constructs an Asynq task.
func NewRepriceQuotesTask(payload RepriceQuotesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRepriceQuotes, data), nil
}
