// Package catalog reads food records from an external store.
package catalog

import (
	"context"
	"errors"

	"diet-planner/internal/models"
	"diet-planner/pkg/logger"
)

var ErrNotConfigured = errors.New("catalog store is not configured")

// Filter selects foods of one category, optionally one diet type, at or
// below a price ceiling.
type Filter struct {
	Category models.Category
	Diet     models.DietPreference
	MaxPrice float64
}

// Matches applies the filter to a single item.
func (f Filter) Matches(item models.FoodItem) bool {
	if item.Category != f.Category {
		return false
	}
	if f.Diet != models.PreferBoth && string(item.Type) != string(f.Diet) {
		return false
	}
	return item.Price <= f.MaxPrice
}

// Store is the query surface of a catalog backend. Results are ordered by id.
type Store interface {
	FilterFoods(ctx context.Context, f Filter) ([]models.FoodItem, error)
	FoodsByCategory(ctx context.Context, category models.Category) ([]models.FoodItem, error)
	AllFoods(ctx context.Context) ([]models.FoodItem, error)
	CountFoods(ctx context.Context) (int64, error)
}

// Result is a query outcome that never fails. Err keeps the cause when the
// items are empty because the store errored rather than because nothing matched.
type Result struct {
	Items []models.FoodItem
	Err   error
}

func (r Result) Degraded() bool { return r.Err != nil }

// Accessor turns store errors into empty results.
type Accessor struct {
	store  Store
	logger *logger.Logger
}

func NewAccessor(store Store, logger *logger.Logger) *Accessor {
	return &Accessor{store: store, logger: logger.With("component", "catalog")}
}

// logFailure logs at Warn, except for cancelled requests which are routine.
func (a *Accessor) logFailure(msg string, err error, keysAndValues ...interface{}) {
	keysAndValues = append(keysAndValues, "error", err)
	if errors.Is(err, context.Canceled) {
		a.logger.Debug(msg, keysAndValues...)
		return
	}
	a.logger.Warn(msg, keysAndValues...)
}

func (a *Accessor) Filtered(ctx context.Context, category models.Category, diet models.DietPreference, maxPrice float64) Result {
	items, err := a.store.FilterFoods(ctx, Filter{Category: category, Diet: diet, MaxPrice: maxPrice})
	if err != nil {
		a.logFailure("Error fetching foods", err, "category", category, "diet", diet, "maxPrice", maxPrice)
		return Result{Err: err}
	}
	return Result{Items: items}
}

func (a *Accessor) ByCategory(ctx context.Context, category models.Category) Result {
	items, err := a.store.FoodsByCategory(ctx, category)
	if err != nil {
		a.logFailure("Error fetching foods by category", err, "category", category)
		return Result{Err: err}
	}
	return Result{Items: items}
}

func (a *Accessor) All(ctx context.Context) Result {
	items, err := a.store.AllFoods(ctx)
	if err != nil {
		a.logFailure("Error fetching all foods", err)
		return Result{Err: err}
	}
	return Result{Items: items}
}

// Count is the one call that reports errors, since callers use it as a health probe.
func (a *Accessor) Count(ctx context.Context) (int64, error) {
	return a.store.CountFoods(ctx)
}
