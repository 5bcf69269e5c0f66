// Package nutrition derives daily and per-meal calorie targets from a profile.
package nutrition

import (
	"math"

	"diet-planner/internal/models"
)

const defaultActivityMultiplier = 1.2

var activityMultipliers = map[models.ActivityLevel]float64{
	models.ActivitySedentary:  1.2,
	models.ActivityLight:      1.375,
	models.ActivityModerate:   1.55,
	models.ActivityActive:     1.725,
	models.ActivityVeryActive: 1.9,
}

// BMR is the Mifflin-St Jeor resting expenditure. Anything that is not
// female uses the male constant.
func BMR(weight, height float64, age int, sex models.Sex) float64 {
	base := 10*weight + 6.25*height - 5*float64(age)
	if sex == models.SexFemale {
		return base - 161
	}
	return base + 5
}

// TDEE scales bmr by the activity multiplier; unknown levels count as sedentary.
func TDEE(bmr float64, level models.ActivityLevel) float64 {
	mult, ok := activityMultipliers[level]
	if !ok {
		mult = defaultActivityMultiplier
	}
	return bmr * mult
}

func AdjustForGoal(tdee float64, goal models.Goal) float64 {
	switch goal {
	case models.GoalLose:
		return tdee - 500
	case models.GoalGain:
		return tdee + 300
	default:
		return tdee
	}
}

// Energy is the intermediate result of a target calculation.
type Energy struct {
	BMR           float64
	TDEE          float64
	DailyCalories int
}

// DailyTarget runs the whole chain for a profile and rounds the final target.
func DailyTarget(p models.Profile) Energy {
	bmr := BMR(p.Weight, p.Height, p.Age, p.Sex)
	tdee := TDEE(bmr, p.ActivityLevel)
	return Energy{
		BMR:           bmr,
		TDEE:          tdee,
		DailyCalories: int(math.Round(AdjustForGoal(tdee, p.Goal))),
	}
}
