package provider

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

const plannerPath = "/v1/plan"

// PlannerAdapter generates itineraries via a remote plan-generation backend,
// reverting to a fixed fallback when unconfigured or on any failure. The
// remote response must pass schema validation to be accepted.
type PlannerAdapter struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	validate *validator.Validate
}

// NewPlannerAdapter constructs a PlannerAdapter for the given base URL.
// An empty base URL means every request is answered by the fallback.
func NewPlannerAdapter(baseURL, apiKey string) *PlannerAdapter {
	return &PlannerAdapter{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   newHTTPClient(),
		validate: validator.New(),
	}
}

// GeneratePlan returns an itinerary for the request. It never fails: a
// missing endpoint, transport error, non-2xx status, or schema-invalid
// response yields the fallback.
func (a *PlannerAdapter) GeneratePlan(ctx context.Context, req trip.PlanGenRequest) trip.PlanGenResponse {
	if a.baseURL == "" {
		slog.Debug("planner adapter unconfigured, serving fallback")
		return fallbackPlan(req)
	}

	headers := map[string]string{}
	if a.apiKey != "" {
		headers["Authorization"] = "Bearer " + a.apiKey
	}

	var resp trip.PlanGenResponse
	if err := doPost(ctx, a.client, a.baseURL+plannerPath, headers, req, &resp); err != nil {
		slog.Warn("plan generation failed, serving fallback", "err", err)
		return fallbackPlan(req)
	}

	if err := a.validate.Struct(&resp); err != nil {
		slog.Warn("generated plan failed validation, serving fallback", "err", err)
		return fallbackPlan(req)
	}

	return resp
}
