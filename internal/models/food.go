package models

type Category string

const (
	Breakfast Category = "breakfast"
	Lunch     Category = "lunch"
	Dinner    Category = "dinner"
	Snack     Category = "snack"
)

// Categories lists the meal slots in display order.
var Categories = []Category{Breakfast, Lunch, Dinner, Snack}

func (c Category) Valid() bool {
	switch c {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

type DietType string

const (
	Veg    DietType = "veg"
	NonVeg DietType = "non-veg"
)

// FoodItem is a catalog record. The catalog owns it; planning never mutates it.
type FoodItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Type        DietType `json:"type"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	Fiber       float64  `json:"fiber"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	SwiggyURL   string   `json:"swiggyUrl,omitempty"`
	ZomatoURL   string   `json:"zomatoUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Benefits    []string `json:"benefits,omitempty"`
}
