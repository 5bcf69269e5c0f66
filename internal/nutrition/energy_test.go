package nutrition

import (
	"math"
	"testing"

	"diet-planner/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestBMR(t *testing.T) {
	if got := BMR(70, 175, 30, models.SexMale); !almostEqual(got, 1648.75) {
		t.Errorf("Expected male BMR 1648.75, got %v", got)
	}
	if got := BMR(60, 160, 25, models.SexFemale); !almostEqual(got, 1314) {
		t.Errorf("Expected female BMR 1314, got %v", got)
	}
}

func TestTDEE(t *testing.T) {
	tests := []struct {
		level models.ActivityLevel
		want  float64
	}{
		{models.ActivitySedentary, 1000 * 1.2},
		{models.ActivityLight, 1000 * 1.375},
		{models.ActivityModerate, 1000 * 1.55},
		{models.ActivityActive, 1000 * 1.725},
		{models.ActivityVeryActive, 1000 * 1.9},
		{"", 1000 * 1.2},
		{"couch", 1000 * 1.2},
	}
	for _, tt := range tests {
		if got := TDEE(1000, tt.level); !almostEqual(got, tt.want) {
			t.Errorf("TDEE(1000, %q) = %v, want %v", tt.level, got, tt.want)
		}
	}

	if got := TDEE(1648.75, models.ActivityModerate); !almostEqual(got, 2555.5625) {
		t.Errorf("Expected 2555.56, got %v", got)
	}
}

func TestAdjustForGoal(t *testing.T) {
	const tdee = 2555.56
	if got := AdjustForGoal(tdee, models.GoalLose); !almostEqual(got, 2055.56) {
		t.Errorf("lose: got %v", got)
	}
	if got := AdjustForGoal(tdee, models.GoalGain); !almostEqual(got, 2855.56) {
		t.Errorf("gain: got %v", got)
	}
	if got := AdjustForGoal(tdee, models.GoalMaintain); !almostEqual(got, tdee) {
		t.Errorf("maintain: got %v", got)
	}
	if got := AdjustForGoal(tdee, "recomp"); !almostEqual(got, tdee) {
		t.Errorf("unknown goal: got %v", got)
	}
}

func TestDailyTarget(t *testing.T) {
	e := DailyTarget(models.Profile{
		Age: 30, Sex: models.SexMale, Weight: 70, Height: 175,
		ActivityLevel: models.ActivityModerate, Goal: models.GoalLose,
	})
	if !almostEqual(e.BMR, 1648.75) {
		t.Errorf("Expected BMR 1648.75, got %v", e.BMR)
	}
	// 2555.5625 - 500 = 2055.5625
	if e.DailyCalories != 2056 {
		t.Errorf("Expected 2056 kcal, got %d", e.DailyCalories)
	}
}

func TestAllocate(t *testing.T) {
	got := Allocate(2000)
	want := models.PerMeal[int]{Breakfast: 500, Lunch: 700, Dinner: 500, Snack: 300}
	if got != want {
		t.Errorf("Allocate(2000) = %+v, want %+v", got, want)
	}

	for daily := 1000; daily <= 4000; daily += 7 {
		m := Allocate(daily)
		sum := m.Breakfast + m.Lunch + m.Dinner + m.Snack
		if diff := sum - daily; diff < -2 || diff > 2 {
			t.Fatalf("Allocate(%d) sums to %d", daily, sum)
		}
	}
}
