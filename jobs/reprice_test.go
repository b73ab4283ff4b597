package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepricer struct {
	orgID      int64
	productIDs []int64
	repriced   int
	err        error
	calls      int
}

func (m *mockRepricer) RepriceDraftQuotes(ctx context.Context, orgID int64, productIDs []int64) (int, error) {
	m.calls++
	m.orgID = orgID
	m.productIDs = productIDs
	return m.repriced, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRepriceJobHandle(t *testing.T) {
	repricer := &mockRepricer{repriced: 2}
	job := NewRepriceJob(repricer, discardLogger())

	task, err := NewRepriceQuotesTask(RepriceQuotesPayload{OrgID: 1, ProductIDs: []int64{10, 11}})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, repricer.calls)
	assert.Equal(t, int64(1), repricer.orgID)
	assert.Equal(t, []int64{10, 11}, repricer.productIDs)
}

func TestRepriceJobSkipsBadPayload(t *testing.T) {
	repricer := &mockRepricer{}
	job := NewRepriceJob(repricer, discardLogger())

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeRepriceQuotes, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, repricer.calls)

	empty, err2 := NewRepriceQuotesTask(RepriceQuotesPayload{OrgID: 1})
	require.NoError(t, err2)
	err = job.Handle(context.Background(), empty)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, repricer.calls)
}

func TestRepriceJobPropagatesErrors(t *testing.T) {
	repricer := &mockRepricer{err: errors.New("db unavailable")}
	job := NewRepriceJob(repricer, discardLogger())

	task, err := NewRepriceQuotesTask(RepriceQuotesPayload{OrgID: 1, ProductIDs: []int64{10}})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
