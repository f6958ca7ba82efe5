package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

// MemoryPlanRepository is an in-memory plan store for ephemeral contexts
// (no DATABASE_URL configured) and tests. It is safe for concurrent use and
// satisfies the same contract as PlanRepository.
type MemoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]trip.Plan
}

// NewMemoryPlanRepository constructs an empty MemoryPlanRepository.
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[uuid.UUID]trip.Plan)}
}

// Create assigns a fresh identifier to the plan described by req, stores a
// deep copy, and returns the stored plan.
func (r *MemoryPlanRepository) Create(_ context.Context, req trip.PlanCreateRequest) (trip.Plan, error) {
	id := uuid.New()
	plan := trip.Plan{
		ID:          &id,
		Origin:      req.Origin,
		Destination: req.Destination,
		RouteLabel:  req.RouteLabel,
		Days:        req.Days,
	}

	stored, err := clonePlan(plan)
	if err != nil {
		return trip.Plan{}, err
	}

	r.mu.Lock()
	r.plans[id] = stored
	r.mu.Unlock()

	return plan, nil
}

// Get retrieves a plan by id. Returns nil, nil when the id is unknown.
func (r *MemoryPlanRepository) Get(_ context.Context, id uuid.UUID) (*trip.Plan, error) {
	r.mu.RLock()
	stored, ok := r.plans[id]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	out, err := clonePlan(stored)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// clonePlan deep-copies a plan so callers cannot mutate stored state.
func clonePlan(p trip.Plan) (trip.Plan, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return trip.Plan{}, fmt.Errorf("cloning plan: %w", err)
	}
	var out trip.Plan
	if err := json.Unmarshal(b, &out); err != nil {
		return trip.Plan{}, fmt.Errorf("cloning plan: %w", err)
	}
	return out, nil
}
