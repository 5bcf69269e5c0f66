package nutrition

import (
	"math"

	"diet-planner/internal/models"
)

var mealShares = models.PerMeal[float64]{
	Breakfast: 0.25,
	Lunch:     0.35,
	Dinner:    0.25,
	Snack:     0.15,
}

// Allocate splits a daily target into per-meal targets. Each share is rounded
// on its own, so the sum can drift from the target by a calorie or two.
func Allocate(daily int) models.PerMeal[int] {
	var out models.PerMeal[int]
	for _, c := range models.Categories {
		out.Set(c, int(math.Round(float64(daily)*mealShares.Get(c))))
	}
	return out
}
