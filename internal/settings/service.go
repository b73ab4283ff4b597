package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Get returns the organisation's quote settings, falling back to defaults
// when none are saved yet. Cache misses are deduplicated so a burst of quote
// renders issues a single database load.
func (s *Service) Get(ctx context.Context, orgID int64) (QuoteSettings, error) {
	if cached, ok := s.cache.Get(ctx, orgID); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(strconv.FormatInt(orgID, 10), func() (interface{}, error) {
		loaded, err := s.repo.Get(ctx, orgID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Defaults(orgID), nil
			}
			return nil, err
		}
		s.cache.Set(ctx, loaded)
		return loaded, nil
	})
	if err != nil {
		return QuoteSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return v.(QuoteSettings), nil
}

// Update persists new settings and drops the cached copy.
func (s *Service) Update(ctx context.Context, in QuoteSettings) (QuoteSettings, error) {
	if err := validate(in); err != nil {
		return QuoteSettings{}, err
	}
	saved, err := s.repo.Upsert(ctx, in)
	if err != nil {
		return QuoteSettings{}, fmt.Errorf("save settings: %w", err)
	}
	s.cache.Invalidate(ctx, in.OrgID)
	return saved, nil
}

func validate(s QuoteSettings) error {
	if s.OrgID <= 0 {
		return errors.New("invalid organisation ID")
	}
	if s.DecimalPrecision < 0 || s.DecimalPrecision > 4 {
		return errors.New("decimal precision must be between 0 and 4")
	}
	if s.MarkupPercent < 0 || s.TaxPercent < 0 {
		return errors.New("markup and tax percentages cannot be negative")
	}
	if s.RangeLowerPct < 0 || s.RangeUpperPct < 0 {
		return errors.New("range percentages cannot be negative")
	}
	return nil
}
