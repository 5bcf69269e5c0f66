package planner

import "diet-planner/internal/models"

// Aggregate sums nutrients and price over every selected food of the day.
func Aggregate(meals models.PerMeal[[]models.FoodItem]) models.Totals {
	var t models.Totals
	for _, c := range models.Categories {
		for _, f := range meals.Get(c) {
			t.Calories += f.Calories
			t.Protein += f.Protein
			t.Carbs += f.Carbs
			t.Fat += f.Fat
			t.Fiber += f.Fiber
			t.Price += f.Price
		}
	}
	return t
}
