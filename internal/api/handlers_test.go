package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bifrost-travel/bifrost-api/internal/api"
	"github.com/bifrost-travel/bifrost-api/internal/cache"
	"github.com/bifrost-travel/bifrost-api/internal/provider"
	"github.com/bifrost-travel/bifrost-api/internal/storage"
	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

// ---- mock implementations ----

type mockRoutes struct {
	calls int
	fn    func(ctx context.Context, req trip.RouteRequest) trip.RouteResponse
}

func (m *mockRoutes) Compute(ctx context.Context, req trip.RouteRequest) trip.RouteResponse {
	m.calls++
	return m.fn(ctx, req)
}

type mockPlaces struct {
	calls int
	fn    func(ctx context.Context, req trip.PlaceSearchRequest) trip.PlaceSearchResponse
}

func (m *mockPlaces) SearchAlongRoute(ctx context.Context, req trip.PlaceSearchRequest) trip.PlaceSearchResponse {
	m.calls++
	return m.fn(ctx, req)
}

type mockPlanner struct {
	gotReq trip.PlanGenRequest
	fn     func(ctx context.Context, req trip.PlanGenRequest) trip.PlanGenResponse
}

func (m *mockPlanner) GeneratePlan(ctx context.Context, req trip.PlanGenRequest) trip.PlanGenResponse {
	m.gotReq = req
	return m.fn(ctx, req)
}

type mockStore struct {
	createFn func(ctx context.Context, req trip.PlanCreateRequest) (trip.Plan, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*trip.Plan, error)
}

func (m *mockStore) Create(ctx context.Context, req trip.PlanCreateRequest) (trip.Plan, error) {
	return m.createFn(ctx, req)
}

func (m *mockStore) Get(ctx context.Context, id uuid.UUID) (*trip.Plan, error) {
	return m.getFn(ctx, id)
}

// mapCache is an in-process ResponseCache for handler tests.
type mapCache struct {
	entries map[string][]byte
	getErr  error
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, payload []byte) error {
	c.entries[key] = payload
	return nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultRoutes() *mockRoutes {
	return &mockRoutes{fn: func(_ context.Context, _ trip.RouteRequest) trip.RouteResponse {
		return trip.RouteResponse{
			Polyline:  "poly",
			DistanceM: 1000,
			DurationS: 60,
			Alternatives: []trip.RouteAlternative{
				{Label: "最短", DurationS: 60, DistanceM: 1000, ScenicScore: 55},
			},
		}
	}}
}

func defaultPlaces() *mockPlaces {
	return &mockPlaces{fn: func(_ context.Context, _ trip.PlaceSearchRequest) trip.PlaceSearchResponse {
		return trip.PlaceSearchResponse{Items: []trip.PlaceItem{{ID: "p1", Name: "桜島 展望所", Lat: 31.593, Lng: 130.657}}}
	}}
}

func defaultPlanner() *mockPlanner {
	return &mockPlanner{fn: func(_ context.Context, req trip.PlanGenRequest) trip.PlanGenResponse {
		return trip.PlanGenResponse{Plan: trip.Plan{Origin: req.Origin, Destination: req.Destination}}
	}}
}

type routerDeps struct {
	routes  api.RouteComputer
	places  api.PlaceSearcher
	planner api.PlanGenerator
	store   api.PlanStore
	cache   api.ResponseCache
}

func buildRouter(deps routerDeps) http.Handler {
	if deps.routes == nil {
		deps.routes = defaultRoutes()
	}
	if deps.places == nil {
		deps.places = defaultPlaces()
	}
	if deps.planner == nil {
		deps.planner = defaultPlanner()
	}
	if deps.store == nil {
		deps.store = storage.NewMemoryPlanRepository()
	}
	if deps.cache == nil {
		deps.cache = cache.Noop{}
	}
	log := discardLogger()
	handlers := api.NewHandlers(deps.routes, deps.places, deps.planner, deps.store, deps.cache, log)
	return api.NewRouter(handlers, nil, nil, log)
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- POST /routes/compute ----

// End-to-end against the real adapters with no credentials configured: the
// request must still succeed via the fallback.
func TestComputeRoutes_EndToEnd_NoCredential(t *testing.T) {
	router := buildRouter(routerDeps{
		routes:  provider.NewRoutesAdapter(""),
		places:  provider.NewPlacesAdapter(""),
		planner: provider.NewPlannerAdapter("", ""),
	})

	w := postJSON(t, router, "/routes/compute", map[string]any{
		"origin":       "鹿児島中央駅",
		"destination":  "枕崎駅",
		"preferScenic": true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var got trip.RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.GreaterOrEqual(t, len(got.Alternatives), 2)
	assert.Equal(t, "最短", got.Alternatives[0].Label)
}

func TestComputeRoutes_CacheMissThenHit(t *testing.T) {
	routes := defaultRoutes()
	c := newMapCache()
	router := buildRouter(routerDeps{routes: routes, cache: c})

	body := map[string]any{"origin": "A", "destination": "B"}

	first := postJSON(t, router, "/routes/compute", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, routes.calls)
	assert.Len(t, c.entries, 1)

	second := postJSON(t, router, "/routes/compute", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, routes.calls, "cache hit must not invoke the adapter")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestComputeRoutes_FieldOrderSharesCacheEntry(t *testing.T) {
	routes := defaultRoutes()
	c := newMapCache()
	router := buildRouter(routerDeps{routes: routes, cache: c})

	first := postJSON(t, router, "/routes/compute", json.RawMessage(`{"origin":"A","destination":"B"}`))
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, router, "/routes/compute", json.RawMessage(`{"destination":"B","origin":"A"}`))
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, routes.calls)
	assert.Len(t, c.entries, 1)
}

func TestComputeRoutes_CacheFailureIsNonFatal(t *testing.T) {
	c := newMapCache()
	c.getErr = errors.New("redis down")
	router := buildRouter(routerDeps{cache: c})

	w := postJSON(t, router, "/routes/compute", map[string]any{"origin": "A", "destination": "B"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestComputeRoutes_InvalidBody(t *testing.T) {
	router := buildRouter(routerDeps{})

	req := httptest.NewRequest(http.MethodPost, "/routes/compute", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComputeRoutes_MissingOrigin(t *testing.T) {
	router := buildRouter(routerDeps{})

	w := postJSON(t, router, "/routes/compute", map[string]any{"destination": "B"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---- POST /places/along-route ----

func TestPlacesAlongRoute_MissRoundTrip(t *testing.T) {
	places := defaultPlaces()
	c := newMapCache()
	router := buildRouter(routerDeps{places: places, cache: c})

	body := map[string]any{"polyline": "abc", "categories": []string{"onsen"}}

	first := postJSON(t, router, "/places/along-route", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, places.calls)

	second := postJSON(t, router, "/places/along-route", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, places.calls)

	var got trip.PlaceSearchResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "桜島 展望所", got.Items[0].Name)
}

func TestPlacesAlongRoute_MissingPolyline(t *testing.T) {
	router := buildRouter(routerDeps{})

	w := postJSON(t, router, "/places/along-route", map[string]any{"categories": []string{"cafe"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---- POST /ai/plan ----

func TestGeneratePlan_EnrichesMissingCandidates(t *testing.T) {
	routes := defaultRoutes()
	places := defaultPlaces()
	planner := defaultPlanner()
	router := buildRouter(routerDeps{routes: routes, places: places, planner: planner})

	w := postJSON(t, router, "/ai/plan", map[string]any{
		"origin":      "鹿児島中央駅",
		"destination": "枕崎駅",
		"date":        "2024-05-01",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, routes.calls)
	assert.Equal(t, 1, places.calls)
	require.NotNil(t, planner.gotReq.Candidates)
	require.Len(t, planner.gotReq.Candidates.Routes, 1)
	assert.Equal(t, "最短", planner.gotReq.Candidates.Routes[0].Label)
	require.Len(t, planner.gotReq.Candidates.POIs, 1)
	assert.Equal(t, "桜島 展望所", planner.gotReq.Candidates.POIs[0].Name)
}

func TestGeneratePlan_SuppliedCandidatesSkipEnrichment(t *testing.T) {
	routes := defaultRoutes()
	places := defaultPlaces()
	planner := defaultPlanner()
	router := buildRouter(routerDeps{routes: routes, places: places, planner: planner})

	w := postJSON(t, router, "/ai/plan", map[string]any{
		"origin":      "A",
		"destination": "B",
		"candidates":  map[string]any{"routes": []any{}, "pois": []any{}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Zero(t, routes.calls)
	assert.Zero(t, places.calls)
	require.NotNil(t, planner.gotReq.Candidates)
}

func TestGeneratePlan_ResponseShape(t *testing.T) {
	router := buildRouter(routerDeps{planner: provider.NewPlannerAdapter("", "")})

	w := postJSON(t, router, "/ai/plan", map[string]any{
		"origin":      "鹿児島中央駅",
		"destination": "枕崎駅",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Contains(t, got, "plan")

	var plan trip.Plan
	require.NoError(t, json.Unmarshal(got["plan"], &plan))
	assert.Equal(t, "鹿児島中央駅", plan.Origin)
	assert.NotEmpty(t, plan.Days)
}

// ---- POST /plans and GET /plans/{id} ----

func TestPlans_CreateThenGet(t *testing.T) {
	router := buildRouter(routerDeps{})

	created := postJSON(t, router, "/plans", map[string]any{
		"origin":      "鹿児島中央駅",
		"destination": "枕崎駅",
		"route_label": "海沿い",
		"days":        []any{},
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var plan trip.Plan
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &plan))
	require.NotNil(t, plan.ID)

	got := getPath(router, "/plans/"+plan.ID.String())
	require.Equal(t, http.StatusOK, got.Code)

	var fetched trip.Plan
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &fetched))
	assert.Equal(t, "鹿児島中央駅", fetched.Origin)
	assert.Equal(t, "枕崎駅", fetched.Destination)
	assert.Equal(t, "海沿い", fetched.RouteLabel)
	assert.Equal(t, plan.ID, fetched.ID)
}

func TestPlans_GetUnknownID(t *testing.T) {
	router := buildRouter(routerDeps{})

	w := getPath(router, "/plans/"+uuid.NewString())
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Plan not found"}`, w.Body.String())
}

func TestPlans_GetMalformedID(t *testing.T) {
	router := buildRouter(routerDeps{})

	w := getPath(router, "/plans/not-a-uuid")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Plan not found"}`, w.Body.String())
}

func TestPlans_CreateMissingDestination(t *testing.T) {
	router := buildRouter(routerDeps{})

	w := postJSON(t, router, "/plans", map[string]any{"origin": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlans_CreateStoreError(t *testing.T) {
	store := &mockStore{
		createFn: func(_ context.Context, _ trip.PlanCreateRequest) (trip.Plan, error) {
			return trip.Plan{}, fmt.Errorf("connection refused")
		},
	}
	router := buildRouter(routerDeps{store: store})

	w := postJSON(t, router, "/plans", map[string]any{"origin": "A", "destination": "B"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- health and readiness ----

func TestHealthz(t *testing.T) {
	router := buildRouter(routerDeps{})

	w := getPath(router, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestReadyz_AllHealthy(t *testing.T) {
	log := discardLogger()
	handler := api.ReadyHandlerFunc(&mockPinger{}, &mockPinger{}, log)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz_DegradedOnPingFailure(t *testing.T) {
	log := discardLogger()
	handler := api.ReadyHandlerFunc(&mockPinger{err: errors.New("down")}, &mockPinger{}, log)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "degraded", got["status"])
	assert.Equal(t, "error", got["db"])
	assert.Equal(t, "ok", got["redis"])
}
