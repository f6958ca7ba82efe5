package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

// Querier abstracts the subset of pgxpool.Pool used by PlanRepository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PlanRepository persists plans in PostgreSQL. The full plan is stored as an
// opaque JSONB document alongside indexed origin/destination/label columns.
type PlanRepository struct {
	q Querier
}

// NewPlanRepository constructs a PlanRepository backed by the given pool.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{q: pool}
}

// NewPlanRepositoryWithQuerier constructs a PlanRepository with a custom Querier (for tests).
func NewPlanRepositoryWithQuerier(q Querier) *PlanRepository {
	return &PlanRepository{q: q}
}

// Create assigns a fresh identifier to the plan described by req, persists
// it, and returns the stored plan. Identifiers are never reused.
func (r *PlanRepository) Create(ctx context.Context, req trip.PlanCreateRequest) (trip.Plan, error) {
	id := uuid.New()
	plan := trip.Plan{
		ID:          &id,
		Origin:      req.Origin,
		Destination: req.Destination,
		RouteLabel:  req.RouteLabel,
		Days:        req.Days,
	}

	doc, err := json.Marshal(plan)
	if err != nil {
		return trip.Plan{}, fmt.Errorf("marshaling plan %s: %w", id, err)
	}

	const q = `
		INSERT INTO plans (id, origin, destination, route_label, plan)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.q.Exec(ctx, q, id, plan.Origin, plan.Destination, nullable(plan.RouteLabel), doc); err != nil {
		return trip.Plan{}, fmt.Errorf("inserting plan %s: %w", id, err)
	}

	return plan, nil
}

// Get retrieves a plan by id. Returns nil, nil when the id is unknown.
func (r *PlanRepository) Get(ctx context.Context, id uuid.UUID) (*trip.Plan, error) {
	const q = `
		SELECT plan
		FROM plans
		WHERE id = $1
	`

	var doc []byte
	if err := r.q.QueryRow(ctx, q, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying plan %s: %w", id, err)
	}

	var plan trip.Plan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, fmt.Errorf("unmarshaling plan %s: %w", id, err)
	}
	plan.ID = &id

	return &plan, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
