package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"diet-planner/internal/models"
	"diet-planner/pkg/logger"
)

// gatedGenerator blocks each call on the gate registered for the profile's
// age, ignoring cancellation, so a stale result really does arrive late.
type gatedGenerator struct {
	gates   map[int]chan struct{}
	started chan int
}

func (g *gatedGenerator) Generate(_ context.Context, p models.Profile) (*models.MealPlan, error) {
	g.started <- p.Age
	if gate, ok := g.gates[p.Age]; ok {
		<-gate
	}
	if p.Age == 0 {
		return nil, errors.New("boom")
	}
	return &models.MealPlan{DailyCalories: p.Age * 100}, nil
}

func TestTrackerLastRequestWins(t *testing.T) {
	gen := &gatedGenerator{
		gates:   map[int]chan struct{}{20: make(chan struct{})},
		started: make(chan int, 4),
	}
	tracker := NewTracker(gen, NewMemoryStore(), logger.Nop())
	ctx := context.Background()

	type outcome struct {
		plan *models.MealPlan
		err  error
	}
	stale := make(chan outcome, 1)
	go func() {
		plan, _, err := tracker.Run(ctx, "user-1", models.Profile{Age: 20})
		stale <- outcome{plan, err}
	}()
	<-gen.started

	state, ok, _ := tracker.State(ctx, "user-1")
	if !ok || state.Status != models.StatusLoading {
		t.Fatalf("Expected loading state while the first request runs, got %+v", state)
	}

	plan, requestID, err := tracker.Run(ctx, "user-1", models.Profile{Age: 30})
	<-gen.started
	if err != nil {
		t.Fatalf("Expected newest request to succeed, got %v", err)
	}
	if plan.DailyCalories != 3000 {
		t.Errorf("Expected plan of the newest profile, got %d", plan.DailyCalories)
	}

	close(gen.gates[20])
	select {
	case res := <-stale:
		if !errors.Is(res.err, ErrSuperseded) || res.plan != nil {
			t.Fatalf("Expected stale request to be superseded, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale request never returned")
	}

	state, _, _ = tracker.State(ctx, "user-1")
	if state.Status != models.StatusReady || state.Plan == nil || state.Plan.DailyCalories != 3000 {
		t.Fatalf("Expected published plan of the newest profile, got %+v", state)
	}
	if state.RequestID != requestID {
		t.Errorf("Expected request id %q, got %q", requestID, state.RequestID)
	}
}

func TestTrackerKeysAreIndependent(t *testing.T) {
	gen := &gatedGenerator{gates: map[int]chan struct{}{}, started: make(chan int, 4)}
	tracker := NewTracker(gen, NewMemoryStore(), logger.Nop())
	ctx := context.Background()

	if _, _, err := tracker.Run(ctx, "a", models.Profile{Age: 20}); err != nil {
		t.Fatalf("Run a: %v", err)
	}
	if _, _, err := tracker.Run(ctx, "b", models.Profile{Age: 40}); err != nil {
		t.Fatalf("Run b: %v", err)
	}

	a, _, _ := tracker.State(ctx, "a")
	b, _, _ := tracker.State(ctx, "b")
	if a.Plan.DailyCalories != 2000 || b.Plan.DailyCalories != 4000 {
		t.Errorf("Expected independent results, got %d and %d", a.Plan.DailyCalories, b.Plan.DailyCalories)
	}
}

func TestTrackerPublishesErrors(t *testing.T) {
	gen := &gatedGenerator{gates: map[int]chan struct{}{}, started: make(chan int, 1)}
	tracker := NewTracker(gen, NewMemoryStore(), logger.Nop())
	ctx := context.Background()

	if _, _, err := tracker.Run(ctx, "a", models.Profile{Age: 0}); err == nil {
		t.Fatal("Expected generator error")
	}
	state, ok, _ := tracker.State(ctx, "a")
	if !ok || state.Status != models.StatusError || state.Error != "boom" || state.Plan != nil {
		t.Fatalf("Expected error state, got %+v", state)
	}

	if _, ok, _ := tracker.State(ctx, "unknown"); ok {
		t.Error("Expected no state for an unknown key")
	}
}

func TestTrackerLastRequestWinsAcrossInstances(t *testing.T) {
	gen := &gatedGenerator{
		gates:   map[int]chan struct{}{20: make(chan struct{})},
		started: make(chan int, 4),
	}
	shared := NewMemoryStore()
	first := NewTracker(gen, shared, logger.Nop())
	second := NewTracker(gen, shared, logger.Nop())
	ctx := context.Background()

	type outcome struct {
		plan *models.MealPlan
		err  error
	}
	stale := make(chan outcome, 1)
	go func() {
		plan, _, err := first.Run(ctx, "user-1", models.Profile{Age: 20})
		stale <- outcome{plan, err}
	}()
	<-gen.started

	plan, requestID, err := second.Run(ctx, "user-1", models.Profile{Age: 30})
	<-gen.started
	if err != nil || plan.DailyCalories != 3000 {
		t.Fatalf("Expected newest request to succeed, got %+v, %v", plan, err)
	}

	close(gen.gates[20])
	select {
	case res := <-stale:
		if !errors.Is(res.err, ErrSuperseded) || res.plan != nil {
			t.Fatalf("Expected request overtaken on another instance to be superseded, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale request never returned")
	}

	state, _, _ := first.State(ctx, "user-1")
	if state.Status != models.StatusReady || state.Plan == nil || state.Plan.DailyCalories != 3000 {
		t.Fatalf("Expected published plan of the newest profile, got %+v", state)
	}
	if state.RequestID != requestID || state.Sequence != 2 {
		t.Errorf("Expected request %q with sequence 2, got %q / %d", requestID, state.RequestID, state.Sequence)
	}

	// The overtaken tracker must not keep the request registered.
	first.mu.Lock()
	_, pending := first.current["user-1"]
	first.mu.Unlock()
	if pending {
		t.Error("Expected no in-flight request left on the overtaken tracker")
	}
}

func TestMemoryStoreRejectsOlderSequence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older, _ := store.NextSequence(ctx, "k")
	newer, _ := store.NextSequence(ctx, "k")
	if newer <= older {
		t.Fatalf("Expected increasing sequences, got %d then %d", older, newer)
	}

	if ok, err := store.Put(ctx, "k", older, models.PlanState{Status: models.StatusReady}); ok || err != nil {
		t.Errorf("Expected older sequence to be rejected, got ok=%v err=%v", ok, err)
	}
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Error("Expected nothing published for the rejected write")
	}
	if ok, _ := store.Put(ctx, "k", newer, models.PlanState{Status: models.StatusLoading}); !ok {
		t.Error("Expected newest sequence to be accepted")
	}
	if other, _ := store.NextSequence(ctx, "other"); other != 1 {
		t.Errorf("Expected sequences per key, got %d", other)
	}
}
