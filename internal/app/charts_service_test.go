package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"weightlog/internal/app"
	"weightlog/internal/domain"
)

type fakeChartCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	gets   int
	sets   int
	getErr error
}

func (c *fakeChartCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *fakeChartCache) Set(_ context.Context, key string, png []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = png
	return nil
}

func chartRepos() (*mockUserRepo, *mockEntryRepo) {
	users := &mockUserRepo{
		getFn: func(_ context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Metric: true, GoalWeight: 65}, nil
		},
	}
	entries := &mockEntryRepo{
		listFn: func(context.Context, int64) ([]domain.Entry, error) {
			return []domain.Entry{
				{ID: 1, Date: domain.NewDate(2024, time.January, 1), Weight: 70.5, IsMetric: true},
				{ID: 2, Date: domain.NewDate(2024, time.January, 2), Weight: 154, IsMetric: false},
			}, nil
		},
	}
	return users, entries
}

func TestChartsService_Render(t *testing.T) {
	users, entries := chartRepos()
	svc := app.NewChartsService(users, entries, nil)

	img, err := svc.Render(context.Background(), 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Blank || len(img.PNG) == 0 {
		t.Fatalf("expected a non-blank chart, got blank=%v len=%d", img.Blank, len(img.PNG))
	}
}

func TestChartsService_RenderEmpty(t *testing.T) {
	users, _ := chartRepos()
	svc := app.NewChartsService(users, &mockEntryRepo{}, &fakeChartCache{})

	img, err := svc.Render(context.Background(), 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !img.Blank {
		t.Error("expected blank chart for no entries")
	}
}

func TestChartsService_UnknownUser(t *testing.T) {
	svc := app.NewChartsService(&mockUserRepo{}, &mockEntryRepo{}, nil)
	if _, err := svc.Render(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
}

func TestChartsService_UsesCache(t *testing.T) {
	users, entries := chartRepos()
	cache := &fakeChartCache{}
	svc := app.NewChartsService(users, entries, cache)
	ctx := context.Background()

	first, err := svc.Render(ctx, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := svc.Render(ctx, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if cache.sets != 1 || cache.gets != 2 {
		t.Errorf("cache gets=%d sets=%d; want 2 and 1", cache.gets, cache.sets)
	}
	if string(first.PNG) != string(second.PNG) {
		t.Error("cached chart differs from rendered chart")
	}
}

func TestChartsService_CacheErrorsAreIgnored(t *testing.T) {
	users, entries := chartRepos()
	cache := &fakeChartCache{getErr: errors.New("redis down")}
	svc := app.NewChartsService(users, entries, cache)

	img, err := svc.Render(context.Background(), 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Blank || len(img.PNG) == 0 {
		t.Error("expected a rendered chart despite cache failure")
	}
}
