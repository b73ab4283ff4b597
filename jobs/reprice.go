package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// QuoteRepricer is the slice of the quotes service the reprice job needs.
type QuoteRepricer interface {
	RepriceDraftQuotes(ctx context.Context, orgID int64, productIDs []int64) (int, error)
}

// RepriceJob recomputes draft quote prices from current catalog state.
type RepriceJob struct {
	quotes QuoteRepricer
	logger *slog.Logger
}

func NewRepriceJob(quotes QuoteRepricer, logger *slog.Logger) *RepriceJob {
	return &RepriceJob{quotes: quotes, logger: logger}
}

// Handle processes TaskTypeRepriceQuotes tasks.
func (j *RepriceJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RepriceQuotesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.OrgID <= 0 || len(payload.ProductIDs) == 0 {
		return asynq.SkipRetry
	}

	repriced, err := j.quotes.RepriceDraftQuotes(ctx, payload.OrgID, payload.ProductIDs)
	if err != nil {
		j.logger.Error("reprice quotes",
			slog.Int64("org_id", payload.OrgID),
			slog.Int("repriced", repriced),
			slog.Any("error", err))
		return err
	}
	j.logger.Info("repriced draft quotes",
		slog.Int64("org_id", payload.OrgID),
		slog.Int("products", len(payload.ProductIDs)),
		slog.Int("quotes", repriced))
	return nil
}
