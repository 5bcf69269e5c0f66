package models

import "testing"

func validProfile() Profile {
	return Profile{
		Age:            30,
		Sex:            SexMale,
		Weight:         70,
		Height:         175,
		ActivityLevel:  ActivityModerate,
		Goal:           GoalMaintain,
		DietPreference: PreferBoth,
		Budget:         0,
	}
}

func TestProfileValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := validProfile().Validate(); err != nil {
			t.Fatalf("Expected valid profile, got %v", err)
		}
	})

	cases := map[string]func(p *Profile){
		"AgeTooLow":       func(p *Profile) { p.Age = 14 },
		"AgeTooHigh":      func(p *Profile) { p.Age = 101 },
		"UnknownSex":      func(p *Profile) { p.Sex = "other" },
		"WeightTooLow":    func(p *Profile) { p.Weight = 29 },
		"HeightTooHigh":   func(p *Profile) { p.Height = 251 },
		"MissingActivity": func(p *Profile) { p.ActivityLevel = "" },
		"MissingGoal":     func(p *Profile) { p.Goal = "" },
		"UnknownDiet":     func(p *Profile) { p.DietPreference = "vegan" },
		"NegativeBudget":  func(p *Profile) { p.Budget = -1 },
		"BudgetTooHigh":   func(p *Profile) { p.Budget = 5001 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validProfile()
			mutate(&p)
			if err := p.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", name)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	p := validProfile()
	if got := p.GoalLabel(); got != "Maintenance" {
		t.Errorf("Expected Maintenance, got %q", got)
	}
	p.Goal = "bulk"
	if got := p.GoalLabel(); got != "Healthy Eating" {
		t.Errorf("Expected Healthy Eating fallback, got %q", got)
	}
	if got := p.DietLabel(); got != "Veg & Non-Veg" {
		t.Errorf("Expected Veg & Non-Veg, got %q", got)
	}
	p.DietPreference = PreferVeg
	if got := p.DietLabel(); got != "Vegetarian" {
		t.Errorf("Expected Vegetarian, got %q", got)
	}
}

func TestMealPlanIsEmpty(t *testing.T) {
	var plan MealPlan
	if !plan.IsEmpty() {
		t.Fatal("Expected zero plan to be empty")
	}
	plan.Meals.Set(Snack, []FoodItem{{ID: "1"}})
	if plan.IsEmpty() {
		t.Fatal("Expected plan with a snack to be non-empty")
	}
	if len(plan.Meals.Get(Snack)) != 1 {
		t.Errorf("Expected Get to return the stored snack slot")
	}
}
