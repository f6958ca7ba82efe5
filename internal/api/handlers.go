package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bifrost-travel/bifrost-api/internal/cache"
	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	routes   RouteComputer
	places   PlaceSearcher
	planner  PlanGenerator
	store    PlanStore
	cache    ResponseCache
	log      *slog.Logger
	validate *validator.Validate
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(routes RouteComputer, places PlaceSearcher, planner PlanGenerator, store PlanStore, responseCache ResponseCache, log *slog.Logger) *Handlers {
	return &Handlers{
		routes:   routes,
		places:   places,
		planner:  planner,
		store:    store,
		cache:    responseCache,
		log:      log,
		validate: validator.New(),
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes an already-serialized JSON payload.
func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// decodeValid decodes the request body into dst and validates it.
// On failure it writes a 400 response and returns false.
func (h *Handlers) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "validation failed: " + err.Error()})
		return false
	}
	return true
}

// cacheLookup computes the request fingerprint and checks the cache.
// An empty key means fingerprinting failed and caching is skipped.
func (h *Handlers) cacheLookup(ctx context.Context, namespace string, req any) (key string, hit []byte) {
	key, err := cache.Fingerprint(namespace, req)
	if err != nil {
		h.log.Warn("fingerprint failed, skipping cache", "namespace", namespace, "err", err)
		return "", nil
	}

	hit, err = h.cache.Get(ctx, key)
	if err != nil {
		// Cache trouble is never fatal; treat it as a miss.
		h.log.Error("cache get failed", "key", key, "err", err)
		return key, nil
	}
	return key, hit
}

// cacheStore writes a computed response back to the cache.
func (h *Handlers) cacheStore(ctx context.Context, key string, resp any) []byte {
	payload, err := json.Marshal(resp)
	if err != nil {
		h.log.Error("marshaling response for cache", "key", key, "err", err)
		return nil
	}
	if key == "" {
		return payload
	}
	if err := h.cache.Set(ctx, key, payload); err != nil {
		h.log.Warn("cache set failed", "key", key, "err", err)
	}
	return payload
}

// ComputeRoutes handles POST /routes/compute.
// Cache hit → cached response. Miss → adapter (which never fails) + cache fill.
func (h *Handlers) ComputeRoutes(w http.ResponseWriter, r *http.Request) {
	var req trip.RouteRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	key, hit := h.cacheLookup(r.Context(), cache.NSRoutes, req)
	if hit != nil {
		writeRawJSON(w, http.StatusOK, hit)
		return
	}

	resp := h.routes.Compute(r.Context(), req)
	if payload := h.cacheStore(r.Context(), key, resp); payload != nil {
		writeRawJSON(w, http.StatusOK, payload)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlacesAlongRoute handles POST /places/along-route.
func (h *Handlers) PlacesAlongRoute(w http.ResponseWriter, r *http.Request) {
	var req trip.PlaceSearchRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	key, hit := h.cacheLookup(r.Context(), cache.NSPlaces, req)
	if hit != nil {
		writeRawJSON(w, http.StatusOK, hit)
		return
	}

	resp := h.places.SearchAlongRoute(r.Context(), req)
	if payload := h.cacheStore(r.Context(), key, resp); payload != nil {
		writeRawJSON(w, http.StatusOK, payload)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GeneratePlan handles POST /ai/plan. When the caller supplies no candidates,
// route and place options are computed first and attached to the request.
func (h *Handlers) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req trip.PlanGenRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	if req.Candidates == nil {
		req.Candidates = h.buildCandidates(r.Context(), req)
	}

	writeJSON(w, http.StatusOK, h.planner.GeneratePlan(r.Context(), req))
}

// buildCandidates computes a route between the endpoints and points of
// interest along it. The place search follows the route because it needs the
// computed polyline.
func (h *Handlers) buildCandidates(ctx context.Context, req trip.PlanGenRequest) *trip.PlanCandidates {
	routeReq := trip.RouteRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
	}
	if req.Preferences != nil {
		routeReq.AvoidTolls = req.Preferences.AvoidTolls
	}
	route := h.routes.Compute(ctx, routeReq)

	places := h.places.SearchAlongRoute(ctx, trip.PlaceSearchRequest{Polyline: route.Polyline})

	return &trip.PlanCandidates{
		Routes: route.Alternatives,
		POIs:   places.Items,
	}
}

// CreatePlan handles POST /plans.
func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req trip.PlanCreateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	plan, err := h.store.Create(r.Context(), req)
	if err != nil {
		h.log.Error("plan create failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "failed to store plan"})
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

// GetPlan handles GET /plans/{id}. A malformed or unknown id is a 404, never
// a 500.
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Plan not found"})
		return
	}

	plan, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.log.Error("plan get failed", "id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal server error"})
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Plan not found"})
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Pinger is the connectivity probe satisfied by pgxpool.Pool and the redis
// client adapters. A nil Pinger means the dependency is not configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandlerFunc returns a readiness handler that pings the database and
// Redis concurrently. A nil pinger (in-memory store, noop cache) counts as
// healthy.
func ReadyHandlerFunc(db, redisClient Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "ok"
		redisStatus := "ok"

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if db == nil {
				return nil
			}
			if err := db.Ping(gCtx); err != nil {
				log.Error("readiness ping failed", "dependency", "db", "err", err)
				dbStatus = "error"
			}
			return nil
		})
		g.Go(func() error {
			if redisClient == nil {
				return nil
			}
			if err := redisClient.Ping(gCtx); err != nil {
				log.Error("readiness ping failed", "dependency", "redis", "err", err)
				redisStatus = "error"
			}
			return nil
		})
		_ = g.Wait()

		status := http.StatusOK
		overall := "ok"
		if dbStatus != "ok" || redisStatus != "ok" {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		writeJSON(w, status, map[string]string{"status": overall, "db": dbStatus, "redis": redisStatus})
	}
}
