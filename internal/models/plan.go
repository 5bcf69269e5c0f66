package models

import "time"

// PerMeal holds one value per meal slot.
type PerMeal[T any] struct {
	Breakfast T `json:"breakfast"`
	Lunch     T `json:"lunch"`
	Dinner    T `json:"dinner"`
	Snack     T `json:"snack"`
}

func (m *PerMeal[T]) Get(c Category) T {
	switch c {
	case Breakfast:
		return m.Breakfast
	case Lunch:
		return m.Lunch
	case Dinner:
		return m.Dinner
	case Snack:
		return m.Snack
	}
	var zero T
	return zero
}

func (m *PerMeal[T]) Set(c Category, v T) {
	switch c {
	case Breakfast:
		m.Breakfast = v
	case Lunch:
		m.Lunch = v
	case Dinner:
		m.Dinner = v
	case Snack:
		m.Snack = v
	}
}

type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Price    float64 `json:"price"`
}

// MealPlan is rebuilt from scratch for every profile.
type MealPlan struct {
	DailyCalories int                 `json:"daily_calories"`
	BMR           float64             `json:"bmr"`
	TDEE          float64             `json:"tdee"`
	MealCalories  PerMeal[int]        `json:"meal_calories"`
	Meals         PerMeal[[]FoodItem] `json:"meals"`
	Totals        Totals              `json:"totals"`
	// Degraded lists slots whose catalog queries failed and were served as empty.
	Degraded  []Category `json:"degraded,omitempty"`
	GoalLabel string     `json:"goal_label"`
	DietLabel string     `json:"diet_label"`
}

// IsEmpty reports whether no slot has any food. An empty plan is a valid
// result, not an error.
func (p *MealPlan) IsEmpty() bool {
	for _, c := range Categories {
		if len(p.Meals.Get(c)) > 0 {
			return false
		}
	}
	return true
}

type PlanStatus string

const (
	StatusLoading PlanStatus = "loading"
	StatusError   PlanStatus = "error"
	StatusReady   PlanStatus = "ready"
)

// PlanState is what a view renders: a spinner, an error banner or the plan.
// Sequence orders the requests of one session across instances.
type PlanState struct {
	Status    PlanStatus `json:"status"`
	Plan      *MealPlan  `json:"plan,omitempty"`
	Error     string     `json:"error,omitempty"`
	RequestID string     `json:"request_id"`
	Sequence  int64      `json:"sequence"`
	UpdatedAt time.Time  `json:"updated_at"`
}
