package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	saved map[int64]QuoteSettings
	gets  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{saved: make(map[int64]QuoteSettings)}
}

func (m *mockRepository) Get(ctx context.Context, orgID int64) (QuoteSettings, error) {
	m.gets++
	s, ok := m.saved[orgID]
	if !ok {
		return QuoteSettings{}, ErrNotFound
	}
	return s, nil
}

func (m *mockRepository) Upsert(ctx context.Context, s QuoteSettings) (QuoteSettings, error) {
	s.UpdatedAt = time.Now()
	m.saved[s.OrgID] = s
	return s, nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepository()
	return NewService(repo, NewCache(client, time.Minute)), repo, mr
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	s, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "$", s.CurrencySymbol)
	assert.Equal(t, 2, s.DecimalPrecision)
	assert.InDelta(t, 10.0, s.RangeLowerPct, 1e-9)
}

func TestGetCachesSavedSettings(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	in := Defaults(1)
	in.MarkupPercent = 15
	_, err := svc.Update(ctx, in)
	require.NoError(t, err)

	first, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, first.MarkupPercent, 1e-9)

	// Second read is served from redis.
	loads := repo.gets
	second, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, loads, repo.gets)
	assert.InDelta(t, 15.0, second.MarkupPercent, 1e-9)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	in := Defaults(1)
	in.TaxPercent = 8
	_, err := svc.Update(ctx, in)
	require.NoError(t, err)

	_, err = svc.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, mr.Exists("fieldquote:settings:1"))

	in.TaxPercent = 9
	_, err = svc.Update(ctx, in)
	require.NoError(t, err)
	assert.False(t, mr.Exists("fieldquote:settings:1"))

	reloaded, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, reloaded.TaxPercent, 1e-9)
}

func TestUpdateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := Defaults(1)
	in.DecimalPrecision = 7
	_, err := svc.Update(ctx, in)
	require.Error(t, err)

	in = Defaults(1)
	in.MarkupPercent = -5
	_, err = svc.Update(ctx, in)
	require.Error(t, err)

	in = Defaults(0)
	_, err = svc.Update(ctx, in)
	require.Error(t, err)
}

func TestDefaultsAreNotCached(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, mr.Exists("fieldquote:settings:42"), "defaults are recomputed, never cached")

	before := repo.gets
	_, err = svc.Get(ctx, 42)
	require.NoError(t, err)
	assert.Greater(t, repo.gets, before)
}
