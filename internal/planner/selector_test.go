package planner

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"diet-planner/internal/catalog"
	"diet-planner/internal/models"
	"diet-planner/pkg/logger"
)

// countingStore records the queries that reach the catalog.
type countingStore struct {
	*catalog.MemoryStore

	mu            sync.Mutex
	filters       []catalog.Filter
	categoryCalls int
}

func newCountingStore(foods ...models.FoodItem) *countingStore {
	return &countingStore{MemoryStore: catalog.NewMemoryStore(foods...)}
}

func (s *countingStore) FilterFoods(ctx context.Context, f catalog.Filter) ([]models.FoodItem, error) {
	s.mu.Lock()
	s.filters = append(s.filters, f)
	s.mu.Unlock()
	return s.MemoryStore.FilterFoods(ctx, f)
}

func (s *countingStore) FoodsByCategory(ctx context.Context, c models.Category) ([]models.FoodItem, error) {
	s.mu.Lock()
	s.categoryCalls++
	s.mu.Unlock()
	return s.MemoryStore.FoodsByCategory(ctx, c)
}

func food(id string, calories, protein, fiber float64) models.FoodItem {
	return models.FoodItem{
		ID: id, Name: "food-" + id, Category: models.Breakfast, Type: models.Veg,
		Calories: calories, Protein: protein, Fiber: fiber, Price: 100,
	}
}

func ids(foods []models.FoodItem) map[string]bool {
	out := make(map[string]bool, len(foods))
	for _, f := range foods {
		out[f.ID] = true
	}
	return out
}

func TestScore(t *testing.T) {
	if got := Score(food("a", 200, 10, 4)); math.Abs(got-12) > 1e-9 {
		t.Errorf("Expected (10*2+4)/(200/100) = 12, got %v", got)
	}
	if got := Score(food("b", 0, 5, 0)); !math.IsInf(got, 1) {
		t.Errorf("Expected +Inf for zero-calorie food with protein, got %v", got)
	}
	if got := Score(food("c", 0, 0, 0)); got != 0 {
		t.Errorf("Expected 0 for an empty zero-calorie food, got %v", got)
	}
}

func TestRankByScoreIsDeterministic(t *testing.T) {
	base := []models.FoodItem{
		food("1", 400, 10, 2),
		food("2", 100, 10, 0),
		food("3", 200, 10, 4),
		food("4", 200, 10, 4), // ties with 3
		food("5", 0, 0, 0),
	}
	first := append([]models.FoodItem(nil), base...)
	second := append([]models.FoodItem(nil), base...)
	RankByScore(first)
	RankByScore(second)

	want := []string{"2", "3", "4", "1", "5"}
	for i := range want {
		if first[i].ID != want[i] || second[i].ID != want[i] {
			t.Fatalf("Expected order %v, got %v / %v", want, first, second)
		}
	}
}

func TestPick(t *testing.T) {
	t.Run("StopsOnceFloorReachedWithTwoItems", func(t *testing.T) {
		got := Pick([]models.FoodItem{food("a", 300, 0, 0), food("b", 250, 0, 0), food("c", 200, 0, 0)}, 500)
		if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
			t.Fatalf("Expected [a b], got %v", got)
		}
	})

	t.Run("SkipsItemsOverCeiling", func(t *testing.T) {
		got := Pick([]models.FoodItem{food("a", 700, 0, 0), food("b", 300, 0, 0), food("c", 200, 0, 0)}, 500)
		if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
			t.Fatalf("Expected [b c], got %v", got)
		}
	})

	t.Run("AtMostFourItems", func(t *testing.T) {
		var ranked []models.FoodItem
		for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
			ranked = append(ranked, food(id, 100, 0, 0))
		}
		if got := Pick(ranked, 1000); len(got) != 4 {
			t.Fatalf("Expected 4 items, got %d", len(got))
		}
	})

	t.Run("OneItemIsNotAnError", func(t *testing.T) {
		got := Pick([]models.FoodItem{food("a", 450, 0, 0), food("b", 400, 0, 0)}, 500)
		if len(got) != 1 {
			t.Fatalf("Expected a single item, got %v", got)
		}
	})

	t.Run("EverythingTooLarge", func(t *testing.T) {
		if got := Pick([]models.FoodItem{food("a", 200, 0, 0), food("b", 300, 0, 0)}, 100); len(got) != 0 {
			t.Fatalf("Expected nothing, got %v", got)
		}
	})
}

func TestSelectSortedFallback(t *testing.T) {
	store := newCountingStore(
		food("p1", 1000, 50, 0),
		food("p2", 1000, 40, 0),
		food("p3", 1000, 30, 0),
		food("p4", 1000, 20, 0),
	)
	sel := NewSelector(catalog.NewAccessor(store, logger.Nop()))

	res := sel.Select(context.Background(), SlotRequest{
		Category: models.Breakfast, Diet: models.PreferBoth, TargetCalories: 100, MealBudget: 500,
	}, rand.New(rand.NewPCG(1, 2)))

	if res.Path != PathSortedFallback {
		t.Errorf("Expected sorted fallback path, got %s", res.Path)
	}
	got := ids(res.Foods)
	if len(res.Foods) != 3 || !got["p1"] || !got["p2"] || !got["p3"] {
		t.Fatalf("Expected the three best-scored foods, got %v", res.Foods)
	}
	if store.categoryCalls != 0 {
		t.Errorf("Category fallback must not run when the primary query returned items")
	}
}

func TestSelectCategoryFallback(t *testing.T) {
	expensive := func(id string, diet models.DietType) models.FoodItem {
		f := food(id, 300, 10, 2)
		f.Type = diet
		f.Price = 5000
		return f
	}
	store := newCountingStore(
		expensive("1", models.NonVeg),
		expensive("2", models.Veg),
		expensive("3", models.Veg),
		expensive("4", models.Veg),
		expensive("5", models.Veg),
	)
	sel := NewSelector(catalog.NewAccessor(store, logger.Nop()))

	res := sel.Select(context.Background(), SlotRequest{
		Category: models.Breakfast, Diet: models.PreferVeg, TargetCalories: 500, MealBudget: 100,
	}, rand.New(rand.NewPCG(1, 2)))

	if res.Path != PathCategory {
		t.Fatalf("Expected category fallback, got %s", res.Path)
	}
	want := []string{"2", "3", "4"}
	if len(res.Foods) != len(want) {
		t.Fatalf("Expected %v, got %v", want, res.Foods)
	}
	for i, id := range want {
		if res.Foods[i].ID != id {
			t.Errorf("Expected catalog order %v, got %v", want, res.Foods)
		}
	}
	if store.categoryCalls != 1 {
		t.Errorf("Expected one category query, got %d", store.categoryCalls)
	}
	if len(store.filters) != 1 || store.filters[0].MaxPrice != 150 {
		t.Errorf("Expected a filtered query with price ceiling 150, got %+v", store.filters)
	}
}

func TestSelectCountBounds(t *testing.T) {
	var foods []models.FoodItem
	for i := 0; i < 12; i++ {
		foods = append(foods, food(string(rune('a'+i)), float64(50+i*40), float64(i%5), float64(i%3)))
	}
	sel := NewSelector(catalog.NewAccessor(catalog.NewMemoryStore(foods...), logger.Nop()))

	for seed := uint64(1); seed <= 50; seed++ {
		for _, target := range []int{50, 200, 400, 900, 2000} {
			res := sel.Select(context.Background(), SlotRequest{
				Category: models.Breakfast, Diet: models.PreferBoth, TargetCalories: target, MealBudget: 1000,
			}, rand.New(rand.NewPCG(seed, seed)))
			if n := len(res.Foods); n < 1 || n > 4 {
				t.Fatalf("seed %d target %d: expected 1..4 foods, got %d", seed, target, n)
			}
		}
	}
}

func TestSelectEmptyCatalog(t *testing.T) {
	sel := NewSelector(catalog.NewAccessor(catalog.NewMemoryStore(), logger.Nop()))
	res := sel.Select(context.Background(), SlotRequest{
		Category: models.Snack, Diet: models.PreferBoth, TargetCalories: 300, MealBudget: 100,
	}, rand.New(rand.NewPCG(1, 1)))
	if len(res.Foods) != 0 || res.Degraded {
		t.Fatalf("Expected an empty, healthy slot, got %+v", res)
	}
}

func TestSelectSkipsFallbackWhenCancelled(t *testing.T) {
	store := newCountingStore(food("1", 200, 10, 2))
	sel := NewSelector(catalog.NewAccessor(store, logger.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := sel.Select(ctx, SlotRequest{
		Category: models.Breakfast, Diet: models.PreferBoth, TargetCalories: 400, MealBudget: 250,
	}, rand.New(rand.NewPCG(1, 1)))

	if len(res.Foods) != 0 || res.Path != PathCancelled || !res.Degraded {
		t.Fatalf("Expected an empty cancelled slot, got %+v", res)
	}
	if store.categoryCalls != 0 {
		t.Errorf("Expected no category query on a cancelled request, got %d", store.categoryCalls)
	}
}
