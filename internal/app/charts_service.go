package app

import (
	"context"

	"golang.org/x/sync/singleflight"

	"weightlog/internal/chart"
	"weightlog/internal/domain"
	"weightlog/internal/logging"
)

// ChartCache stores rendered chart PNGs by content key. A miss is
// (nil, false, nil).
type ChartCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, png []byte) error
}

// ChartsService renders a user's trend chart in their preferred unit.
type ChartsService struct {
	users   domain.UserRepository
	entries domain.EntryRepository
	cache   ChartCache
	sf      singleflight.Group
}

// NewChartsService creates a ChartsService. If cache is nil, every request
// renders.
func NewChartsService(users domain.UserRepository, entries domain.EntryRepository, cache ChartCache) *ChartsService {
	return &ChartsService{users: users, entries: entries, cache: cache}
}

// Render draws the user's entries against their goal weight.
func (s *ChartsService) Render(ctx context.Context, userID int64) (chart.Image, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return chart.Image{}, err
	}
	entries, err := s.entries.ListEntries(ctx, userID)
	if err != nil {
		return chart.Image{}, err
	}
	if len(entries) == 0 || s.cache == nil {
		return chart.Render(entries, user.GoalWeight, user.Metric)
	}

	key := chart.Key(entries, user.GoalWeight, user.Metric)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		log := logging.FromContext(ctx)
		if b, ok, err := s.cache.Get(ctx, key); err != nil {
			log.Warn("chart cache get failed", "err", err)
		} else if ok {
			return chart.Image{PNG: b}, nil
		}
		img, err := chart.Render(entries, user.GoalWeight, user.Metric)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, img.PNG); err != nil {
			log.Warn("chart cache set failed", "err", err)
		}
		return img, nil
	})
	if err != nil {
		return chart.Image{}, err
	}
	return v.(chart.Image), nil
}
