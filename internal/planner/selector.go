package planner

import (
	"cmp"
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"diet-planner/internal/catalog"
	"diet-planner/internal/models"
)

const (
	// budgetHeadroom lets candidates cost somewhat more than the raw per-meal budget.
	budgetHeadroom = 1.5
	calorieCeiling = 1.2
	calorieFloor   = 0.8
	maxItems       = 4
	minItems       = 2
	fallbackItems  = 3
)

// Path records how a slot's foods were chosen.
type Path string

const (
	PathRanked         Path = "ranked"
	PathSortedFallback Path = "sorted-fallback"
	PathCategory       Path = "category-fallback"
	PathCancelled      Path = "cancelled"
)

// SlotRequest describes one meal slot to fill.
type SlotRequest struct {
	Category       models.Category
	Diet           models.DietPreference
	TargetCalories int
	MealBudget     float64
}

type SlotResult struct {
	Foods []models.FoodItem
	Path  Path
	// Degraded is set when a catalog query failed and was served as empty.
	Degraded bool
}

// Selector fills a single meal slot from the catalog.
type Selector struct {
	catalog *catalog.Accessor
}

func NewSelector(acc *catalog.Accessor) *Selector {
	return &Selector{catalog: acc}
}

// Score is protein and fiber per 100 kcal, protein counted twice.
func Score(f models.FoodItem) float64 {
	nutrients := f.Protein*2 + f.Fiber
	if f.Calories <= 0 {
		if nutrients > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return nutrients / (f.Calories / 100)
}

// RankByScore sorts foods by descending score in place. Ties keep their
// incoming order.
func RankByScore(foods []models.FoodItem) {
	slices.SortStableFunc(foods, func(a, b models.FoodItem) int {
		return cmp.Compare(Score(b), Score(a))
	})
}

// Pick walks ranked foods and keeps those that fit under 1.2x the target,
// up to four, stopping once 0.8x is reached with at least two items.
func Pick(ranked []models.FoodItem, targetCalories int) []models.FoodItem {
	ceiling := float64(targetCalories) * calorieCeiling
	floor := float64(targetCalories) * calorieFloor

	var (
		selected []models.FoodItem
		total    float64
	)
	for _, f := range ranked {
		if total+f.Calories <= ceiling && len(selected) < maxItems {
			selected = append(selected, f)
			total += f.Calories
		}
		if total >= floor && len(selected) >= minItems {
			break
		}
	}
	return selected
}

func shuffle(rng *rand.Rand, foods []models.FoodItem) {
	rng.Shuffle(len(foods), func(i, j int) {
		foods[i], foods[j] = foods[j], foods[i]
	})
}

// Select chooses foods for one slot. rng must not be shared with a
// concurrent caller.
func (s *Selector) Select(ctx context.Context, req SlotRequest, rng *rand.Rand) SlotResult {
	primary := s.catalog.Filtered(ctx, req.Category, req.Diet, req.MealBudget*budgetHeadroom)
	if len(primary.Items) == 0 {
		if ctx.Err() != nil {
			return SlotResult{Path: PathCancelled, Degraded: true}
		}
		return s.categoryFallback(ctx, req, primary.Degraded())
	}

	ranked := slices.Clone(primary.Items)
	shuffle(rng, ranked)
	RankByScore(ranked)

	result := SlotResult{Path: PathRanked, Degraded: primary.Degraded()}
	selected := Pick(ranked, req.TargetCalories)
	if len(selected) == 0 {
		selected = slices.Clone(ranked[:min(fallbackItems, len(ranked))])
		result.Path = PathSortedFallback
	}

	shuffle(rng, selected)
	result.Foods = selected
	return result
}

// categoryFallback ignores price and ranking and returns the first few items
// of the category that match the diet.
func (s *Selector) categoryFallback(ctx context.Context, req SlotRequest, degraded bool) SlotResult {
	res := s.catalog.ByCategory(ctx, req.Category)

	var foods []models.FoodItem
	for _, f := range res.Items {
		if req.Diet != models.PreferBoth && string(f.Type) != string(req.Diet) {
			continue
		}
		foods = append(foods, f)
		if len(foods) == fallbackItems {
			break
		}
	}
	return SlotResult{
		Foods:    foods,
		Path:     PathCategory,
		Degraded: degraded || res.Degraded(),
	}
}
