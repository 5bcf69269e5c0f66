package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"diet-planner/internal/models"
)

// MemoryStore keeps the catalog in a slice sorted by id.
type MemoryStore struct {
	mu    sync.RWMutex
	foods []models.FoodItem
	// Fail, when set, is returned by every query.
	Fail error
}

func NewMemoryStore(foods ...models.FoodItem) *MemoryStore {
	s := &MemoryStore{}
	s.Add(foods...)
	return s
}

func (s *MemoryStore) Add(foods ...models.FoodItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foods = append(s.foods, foods...)
	slices.SortStableFunc(s.foods, func(a, b models.FoodItem) int {
		return strings.Compare(a.ID, b.ID)
	})
}

func (s *MemoryStore) query(ctx context.Context, match func(models.FoodItem) bool) ([]models.FoodItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	var out []models.FoodItem
	for _, f := range s.foods {
		if match(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *MemoryStore) FilterFoods(ctx context.Context, f Filter) ([]models.FoodItem, error) {
	return s.query(ctx, f.Matches)
}

func (s *MemoryStore) FoodsByCategory(ctx context.Context, category models.Category) ([]models.FoodItem, error) {
	return s.query(ctx, func(f models.FoodItem) bool { return f.Category == category })
}

func (s *MemoryStore) AllFoods(ctx context.Context) ([]models.FoodItem, error) {
	return s.query(ctx, func(models.FoodItem) bool { return true })
}

func (s *MemoryStore) CountFoods(ctx context.Context) (int64, error) {
	all, err := s.AllFoods(ctx)
	return int64(len(all)), err
}
