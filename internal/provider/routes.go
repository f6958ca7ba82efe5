package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

const googleRoutesURL = "https://routes.googleapis.com/directions/v2:computeRoutes"

// sentinelPolyline stands in for an encoded polyline when the provider
// omits one.
const sentinelPolyline = "ENCODED_POLYLINE"

const routesFieldMask = "routes.polyline.encodedPolyline,routes.distanceMeters,routes.duration,routes.travelAdvisory.tollInfo"

// RoutesAdapter computes routes via the Google Routes API, reverting to a
// fixed fallback when unconfigured or on any upstream failure.
type RoutesAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewRoutesAdapter constructs a RoutesAdapter with the given API key.
// An empty key means every request is answered by the fallback.
func NewRoutesAdapter(apiKey string) *RoutesAdapter {
	return &RoutesAdapter{apiKey: apiKey, baseURL: googleRoutesURL, client: newHTTPClient()}
}

// NewRoutesAdapterWithURL constructs a RoutesAdapter pointing at a custom base URL (for tests).
func NewRoutesAdapterWithURL(baseURL, apiKey string) *RoutesAdapter {
	return &RoutesAdapter{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type grWaypoint struct {
	Address string `json:"address"`
}

type grRouteModifiers struct {
	AvoidTolls bool `json:"avoidTolls"`
}

type grComputeBody struct {
	Origin                   grWaypoint        `json:"origin"`
	Destination              grWaypoint        `json:"destination"`
	Intermediates            []grWaypoint      `json:"intermediates,omitempty"`
	TravelMode               string            `json:"travelMode"`
	RoutingPreference        string            `json:"routingPreference"`
	RouteModifiers           *grRouteModifiers `json:"routeModifiers,omitempty"`
	ComputeAlternativeRoutes bool              `json:"computeAlternativeRoutes"`
}

type grRoute struct {
	Polyline *struct {
		EncodedPolyline string `json:"encodedPolyline"`
	} `json:"polyline"`
	DistanceMeters int    `json:"distanceMeters"`
	Duration       string `json:"duration"`
	TravelAdvisory *struct {
		TollInfo json.RawMessage `json:"tollInfo"`
	} `json:"travelAdvisory"`
}

type grComputeResponse struct {
	Routes []grRoute `json:"routes"`
}

// Compute returns the primary route and its alternatives. It never fails:
// a missing key, transport error, or unusable payload yields the fallback.
func (a *RoutesAdapter) Compute(ctx context.Context, req trip.RouteRequest) trip.RouteResponse {
	if a.apiKey == "" {
		slog.Debug("routes adapter unconfigured, serving fallback")
		return fallbackRoute()
	}

	headers := map[string]string{
		"X-Goog-Api-Key":   a.apiKey,
		"X-Goog-FieldMask": routesFieldMask,
	}

	var raw grComputeResponse
	if err := doPost(ctx, a.client, a.baseURL, headers, buildComputeBody(req), &raw); err != nil {
		slog.Warn("route compute failed, serving fallback", "err", err)
		return fallbackRoute()
	}

	resp, err := parseComputeResponse(raw, req)
	if err != nil {
		slog.Warn("route response unusable, serving fallback", "err", err)
		return fallbackRoute()
	}
	return resp
}

func buildComputeBody(req trip.RouteRequest) grComputeBody {
	body := grComputeBody{
		Origin:                   grWaypoint{Address: req.Origin},
		Destination:              grWaypoint{Address: req.Destination},
		TravelMode:               "DRIVE",
		RoutingPreference:        "TRAFFIC_UNAWARE",
		ComputeAlternativeRoutes: true,
	}
	if req.TrafficAware != nil && *req.TrafficAware {
		body.RoutingPreference = "TRAFFIC_AWARE"
	}
	for _, w := range req.Waypoints {
		body.Intermediates = append(body.Intermediates, grWaypoint{Address: w})
	}
	if req.AvoidTolls != nil && *req.AvoidTolls {
		body.RouteModifiers = &grRouteModifiers{AvoidTolls: true}
	}
	return body
}

func parseComputeResponse(raw grComputeResponse, req trip.RouteRequest) (trip.RouteResponse, error) {
	if len(raw.Routes) == 0 {
		return trip.RouteResponse{}, fmt.Errorf("provider returned no routes")
	}

	preferScenic := req.PreferScenic != nil && *req.PreferScenic

	alternatives := make([]trip.RouteAlternative, 0, len(raw.Routes))
	for i, r := range raw.Routes {
		alternatives = append(alternatives, trip.RouteAlternative{
			Label:       alternativeLabel(i),
			DurationS:   parseDurationSeconds(r.Duration),
			DistanceM:   r.DistanceMeters,
			ScenicScore: scenicScore(preferScenic, i),
			Toll:        r.TravelAdvisory != nil && len(r.TravelAdvisory.TollInfo) > 0,
		})
	}

	primary := raw.Routes[0]
	encoded := sentinelPolyline
	if primary.Polyline != nil && primary.Polyline.EncodedPolyline != "" {
		encoded = primary.Polyline.EncodedPolyline
	}

	return trip.RouteResponse{
		Polyline:     encoded,
		DistanceM:    alternatives[0].DistanceM,
		DurationS:    alternatives[0].DurationS,
		Alternatives: alternatives,
	}, nil
}

// alternativeLabel names the route at the given provider rank: the first is
// the shortest, the rest are numbered alternates.
func alternativeLabel(index int) string {
	if index == 0 {
		return "最短"
	}
	return fmt.Sprintf("代替%d", index)
}

// parseDurationSeconds parses the provider's "<digits>s" duration format.
// Anything else yields 0.
func parseDurationSeconds(d string) int {
	if !strings.HasSuffix(d, "s") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(d, "s"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// scenicScore is a placeholder heuristic, not a computed signal: base 70
// when scenic routes are preferred (55 otherwise), minus 10 per rank,
// clamped to [10, 95].
func scenicScore(preferScenic bool, index int) int {
	base := 55
	if preferScenic {
		base = 70
	}
	score := base - 10*index
	if score < 10 {
		return 10
	}
	if score > 95 {
		return 95
	}
	return score
}
