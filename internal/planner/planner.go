// Package planner turns a profile into a day of meals picked from the catalog.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"diet-planner/internal/catalog"
	"diet-planner/internal/models"
	"diet-planner/internal/nutrition"
	"diet-planner/pkg/logger"
)

var ErrInvalidProfile = errors.New("invalid profile")

const mealsPerDay = 4

type Options struct {
	// DefaultMealBudget replaces the per-meal budget when the daily budget is zero.
	DefaultMealBudget float64
	// Seed makes selection reproducible. Zero picks a random seed.
	Seed uint64
}

// Planner builds meal plans. It is safe for concurrent use.
type Planner struct {
	selector          *Selector
	defaultMealBudget float64
	logger            *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPlanner(acc *catalog.Accessor, opts Options, logger *logger.Logger) *Planner {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	if opts.DefaultMealBudget <= 0 {
		opts.DefaultMealBudget = 1000
	}
	return &Planner{
		selector:          NewSelector(acc),
		defaultMealBudget: opts.DefaultMealBudget,
		logger:            logger.With("component", "planner"),
		rng:               rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// MealBudget is the per-meal spend ceiling before headroom is applied.
func (p *Planner) MealBudget(dailyBudget float64) float64 {
	if dailyBudget <= 0 {
		return p.defaultMealBudget
	}
	return dailyBudget / mealsPerDay
}

// slotRands derives one generator per slot, in slot order, so a seeded
// planner stays deterministic while slots run concurrently.
func (p *Planner) slotRands() []*rand.Rand {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*rand.Rand, len(models.Categories))
	for i := range out {
		out[i] = rand.New(rand.NewPCG(p.rng.Uint64(), p.rng.Uint64()))
	}
	return out
}

// Generate computes a complete plan. Catalog failures degrade individual
// slots; only an invalid profile, a cancelled context or a failure inside a
// slot fails the whole plan.
func (p *Planner) Generate(ctx context.Context, profile models.Profile) (*models.MealPlan, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	energy := nutrition.DailyTarget(profile)
	targets := nutrition.Allocate(energy.DailyCalories)
	budget := p.MealBudget(profile.Budget)
	rands := p.slotRands()

	results := make([]SlotResult, len(models.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range models.Categories {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("selecting %s: panic: %v", category, r)
				}
			}()
			results[i] = p.selector.Select(gctx, SlotRequest{
				Category:       category,
				Diet:           profile.DietPreference,
				TargetCalories: targets.Get(category),
				MealBudget:     budget,
			}, rands[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.Error("Failed to generate plan", "error", err)
		return nil, err
	}
	// Catalog errors are absorbed into empty slots, so cancellation has to be
	// checked here or a superseded request would look like an empty plan.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan := &models.MealPlan{
		DailyCalories: energy.DailyCalories,
		BMR:           energy.BMR,
		TDEE:          energy.TDEE,
		MealCalories:  targets,
		GoalLabel:     profile.GoalLabel(),
		DietLabel:     profile.DietLabel(),
	}
	for i, category := range models.Categories {
		plan.Meals.Set(category, results[i].Foods)
		if results[i].Degraded {
			plan.Degraded = append(plan.Degraded, category)
		}
		p.logger.Debug("Selected meal", "category", category, "path", results[i].Path,
			"items", len(results[i].Foods), "target", targets.Get(category))
	}
	plan.Totals = Aggregate(plan.Meals)

	return plan, nil
}
