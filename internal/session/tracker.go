// Package session publishes plan results per client so that only the most
// recent request of a client is ever visible.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"diet-planner/internal/models"
	"diet-planner/pkg/logger"
)

// ErrSuperseded is returned to a request that was overtaken by a newer one
// for the same key. Its result is discarded.
var ErrSuperseded = errors.New("plan request superseded by a newer one")

// Generator is the planning step the tracker runs.
type Generator interface {
	Generate(ctx context.Context, profile models.Profile) (*models.MealPlan, error)
}

type inflight struct {
	requestID string
	seq       int64
	cancel    context.CancelFunc
}

type Tracker struct {
	gen    Generator
	store  Store
	logger *logger.Logger

	mu      sync.Mutex
	current map[string]*inflight
	now     func() time.Time
}

func NewTracker(gen Generator, store Store, logger *logger.Logger) *Tracker {
	return &Tracker{
		gen:     gen,
		store:   store,
		logger:  logger.With("component", "session"),
		current: make(map[string]*inflight),
		now:     time.Now,
	}
}

// begin registers a new request for key and cancels the one it replaces in
// this process. Requests running elsewhere are fenced off by the sequence.
func (t *Tracker) begin(ctx context.Context, key string) (context.Context, *inflight, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seq, err := t.store.NextSequence(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start plan request: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	req := &inflight{requestID: uuid.NewString(), seq: seq, cancel: cancel}
	if prev, ok := t.current[key]; ok {
		prev.cancel()
	}
	t.current[key] = req

	return runCtx, req, nil
}

// publish stores state if req is still the newest request for key. The lock
// is held across the write so an older local request cannot land after a
// newer one; the store rejects requests overtaken on other instances.
func (t *Tracker) publish(ctx context.Context, key string, req *inflight, state models.PlanState, final bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current[key] != req {
		return false
	}
	if final {
		delete(t.current, key)
	}
	state.RequestID = req.requestID
	state.Sequence = req.seq
	state.UpdatedAt = t.now()
	ok, err := t.store.Put(context.WithoutCancel(ctx), key, req.seq, state)
	if err != nil {
		t.logger.Error("Failed to publish plan state", "key", key, "status", state.Status, "error", err)
		return true
	}
	if !ok {
		delete(t.current, key)
	}
	return ok
}

// Run computes a plan for key. Submitting again for the same key cancels
// this run; a cancelled or overtaken run returns ErrSuperseded and publishes
// nothing.
func (t *Tracker) Run(ctx context.Context, key string, profile models.Profile) (*models.MealPlan, string, error) {
	runCtx, req, err := t.begin(ctx, key)
	if err != nil {
		return nil, "", err
	}
	defer req.cancel()

	if !t.publish(ctx, key, req, models.PlanState{Status: models.StatusLoading}, false) {
		t.logger.Debug("Request overtaken before it started", "key", key, "request_id", req.requestID)
		return nil, req.requestID, ErrSuperseded
	}

	plan, err := t.gen.Generate(runCtx, profile)

	state := models.PlanState{Status: models.StatusReady, Plan: plan}
	if err != nil {
		state = models.PlanState{Status: models.StatusError, Error: err.Error()}
	}
	if !t.publish(ctx, key, req, state, true) {
		t.logger.Debug("Dropped stale plan result", "key", key, "request_id", req.requestID)
		return nil, req.requestID, ErrSuperseded
	}
	if err != nil {
		return nil, req.requestID, err
	}
	return plan, req.requestID, nil
}

// State returns the last published state for key.
func (t *Tracker) State(ctx context.Context, key string) (models.PlanState, bool, error) {
	return t.store.Get(ctx, key)
}
