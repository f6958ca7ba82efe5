package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

// RouteComputer is the route capability needed by handlers. Implementations
// never fail; degraded results are fallback responses.
type RouteComputer interface {
	Compute(ctx context.Context, req trip.RouteRequest) trip.RouteResponse
}

// PlaceSearcher is the place-search capability needed by handlers.
type PlaceSearcher interface {
	SearchAlongRoute(ctx context.Context, req trip.PlaceSearchRequest) trip.PlaceSearchResponse
}

// PlanGenerator is the AI plan-generation capability needed by handlers.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req trip.PlanGenRequest) trip.PlanGenResponse
}

// PlanStore defines the persistence operations needed by handlers.
// Get returns nil, nil for an unknown id.
type PlanStore interface {
	Create(ctx context.Context, req trip.PlanCreateRequest) (trip.Plan, error)
	Get(ctx context.Context, id uuid.UUID) (*trip.Plan, error)
}

// ResponseCache defines the fingerprint-cache operations needed by handlers.
// Get returns nil, nil on a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}
