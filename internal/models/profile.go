package models

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very-active"
)

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// DietPreference is a DietType plus "both", which disables diet filtering.
type DietPreference string

const (
	PreferVeg    DietPreference = "veg"
	PreferNonVeg DietPreference = "non-veg"
	PreferBoth   DietPreference = "both"
)

// Profile is the biometric input for one planning run.
type Profile struct {
	Age            int            `json:"age" validate:"gte=15,lte=100"`
	Sex            Sex            `json:"sex" validate:"oneof=male female"`
	Weight         float64        `json:"weight" validate:"gte=30,lte=200"`
	Height         float64        `json:"height" validate:"gte=120,lte=250"`
	ActivityLevel  ActivityLevel  `json:"activity_level" validate:"required,oneof=sedentary light moderate active very-active"`
	Goal           Goal           `json:"goal" validate:"required,oneof=lose maintain gain"`
	DietPreference DietPreference `json:"diet_preference" validate:"oneof=veg non-veg both"`
	Budget         float64        `json:"budget" validate:"gte=0,lte=5000"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the ranges a profile form accepts.
func (p Profile) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(p)
}

// GoalLabel is the display name of the plan kind.
func (p Profile) GoalLabel() string {
	switch p.Goal {
	case GoalLose:
		return "Weight Loss"
	case GoalMaintain:
		return "Maintenance"
	case GoalGain:
		return "Weight Gain"
	default:
		return "Healthy Eating"
	}
}

func (p Profile) DietLabel() string {
	switch p.DietPreference {
	case PreferBoth:
		return "Veg & Non-Veg"
	case PreferVeg:
		return "Vegetarian"
	default:
		return "Non-Vegetarian"
	}
}
