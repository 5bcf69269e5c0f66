package bot

import (
	"fmt"
	"strings"

	"diet-planner/internal/gpt"
	"diet-planner/internal/models"
)

var mealTitles = map[models.Category]string{
	models.Breakfast: "☕ Breakfast",
	models.Lunch:     "☀️ Lunch",
	models.Dinner:    "🌙 Dinner",
	models.Snack:     "🍪 Snacks",
}

const noMealsText = "No meals are available for your preferences and budget right now. Try a higher budget or choose \"Both\" as diet preference."

// renderPlan returns the summary followed by one message per meal section.
// An empty plan renders as a single "no meals" message.
func renderPlan(plan *models.MealPlan) []string {
	if plan.IsEmpty() {
		text := noMealsText
		if len(plan.Degraded) > 0 {
			text = "⚠️ The food catalog could not be reached. " + text
		}
		return []string{text}
	}

	messages := []string{renderSummary(plan)}
	for _, c := range models.Categories {
		messages = append(messages, renderMeal(c, plan.MealCalories.Get(c), plan.Meals.Get(c)))
	}
	return messages
}

func renderSummary(plan *models.MealPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 %s Plan · %s\n\n", plan.GoalLabel, plan.DietLabel)
	fmt.Fprintf(&sb, "🔥 Target: %d kcal/day\n", plan.DailyCalories)
	fmt.Fprintf(&sb, "🍽 Planned: %.0f kcal\n", plan.Totals.Calories)
	fmt.Fprintf(&sb, "💪 Protein: %.0fg · Carbs: %.0fg · Fat: %.0fg · Fiber: %.0fg\n",
		plan.Totals.Protein, plan.Totals.Carbs, plan.Totals.Fat, plan.Totals.Fiber)
	fmt.Fprintf(&sb, "₹ Est. cost: %.0f", plan.Totals.Price)
	if len(plan.Degraded) > 0 {
		names := make([]string, len(plan.Degraded))
		for i, c := range plan.Degraded {
			names[i] = string(c)
		}
		fmt.Fprintf(&sb, "\n\n⚠️ Some meals could not be loaded from the catalog: %s", strings.Join(names, ", "))
	}
	return sb.String()
}

func renderMeal(c models.Category, target int, foods []models.FoodItem) string {
	var calories, protein float64
	for _, f := range foods {
		calories += f.Calories
		protein += f.Protein
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nRecommended: ~%d kcal · Selected: %.0f kcal, %.0fg protein\n", mealTitles[c], target, calories, protein)
	if len(foods) == 0 {
		sb.WriteString("\nNo items available.")
		return sb.String()
	}
	for _, f := range foods {
		fmt.Fprintf(&sb, "\n• %s (%s)\n  %.0f kcal · P %.0fg · C %.0fg · F %.0fg · ₹%.0f\n",
			f.Name, f.Type, f.Calories, f.Protein, f.Carbs, f.Fat, f.Price)
		if len(f.Benefits) > 0 {
			fmt.Fprintf(&sb, "  ✓ %s\n", strings.Join(f.Benefits[:min(3, len(f.Benefits))], ", "))
		}
		if f.SwiggyURL != "" {
			fmt.Fprintf(&sb, "  Swiggy: %s\n", f.SwiggyURL)
		}
		if f.ZomatoURL != "" {
			fmt.Fprintf(&sb, "  Zomato: %s\n", f.ZomatoURL)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderTips(tips []string) string {
	if len(tips) == 0 {
		tips = gpt.StaticTips
	}
	var sb strings.Builder
	sb.WriteString("💡 Tips")
	for _, tip := range tips {
		sb.WriteString("\n• ")
		sb.WriteString(tip)
	}
	return sb.String()
}
