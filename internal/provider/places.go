package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bifrost-travel/bifrost-api/internal/polyline"
	"github.com/bifrost-travel/bifrost-api/internal/trip"
)

const googlePlacesURL = "https://places.googleapis.com/v1/places:searchNearby"

const placesFieldMask = "places.id,places.displayName,places.location,places.rating,places.currentOpeningHours.openNow,places.shortFormattedAddress"

const (
	minCorridorM     = 500
	maxCorridorM     = 5000
	defaultCorridorM = 3000
)

// PlacesAdapter searches points of interest around a route corridor via the
// Google Places API, reverting to a fixed fallback when unconfigured or on
// any upstream failure.
type PlacesAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPlacesAdapter constructs a PlacesAdapter with the given API key.
func NewPlacesAdapter(apiKey string) *PlacesAdapter {
	return &PlacesAdapter{apiKey: apiKey, baseURL: googlePlacesURL, client: newHTTPClient()}
}

// NewPlacesAdapterWithURL constructs a PlacesAdapter pointing at a custom base URL (for tests).
func NewPlacesAdapterWithURL(baseURL, apiKey string) *PlacesAdapter {
	return &PlacesAdapter{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type gpLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type gpCircle struct {
	Center gpLatLng `json:"center"`
	Radius float64  `json:"radius"`
}

type gpSearchBody struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle gpCircle `json:"circle"`
	} `json:"locationRestriction"`
}

type gpPlace struct {
	ID          string `json:"id"`
	DisplayName *struct {
		Text string `json:"text"`
	} `json:"displayName"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
	Rating              json.RawMessage `json:"rating"`
	CurrentOpeningHours *struct {
		OpenNow *bool `json:"openNow"`
	} `json:"currentOpeningHours"`
	ShortFormattedAddress string `json:"shortFormattedAddress"`
}

type gpSearchResponse struct {
	Places []gpPlace `json:"places"`
}

// SearchAlongRoute returns points of interest near the corridor center. It
// never fails: a missing key, undecodable polyline, transport error, or a
// payload with zero usable candidates yields the fallback.
func (a *PlacesAdapter) SearchAlongRoute(ctx context.Context, req trip.PlaceSearchRequest) trip.PlaceSearchResponse {
	if a.apiKey == "" {
		slog.Debug("places adapter unconfigured, serving fallback")
		return fallbackPlaces()
	}

	center, err := polyline.Centroid(req.Polyline)
	if err != nil {
		slog.Warn("corridor center unavailable, serving fallback", "err", err)
		return fallbackPlaces()
	}

	headers := map[string]string{
		"X-Goog-Api-Key":   a.apiKey,
		"X-Goog-FieldMask": placesFieldMask,
	}

	var raw gpSearchResponse
	if err := doPost(ctx, a.client, a.baseURL, headers, buildSearchBody(req, center), &raw); err != nil {
		slog.Warn("place search failed, serving fallback", "err", err)
		return fallbackPlaces()
	}

	items := parsePlaces(raw.Places, req.OpenNow)
	if len(items) == 0 {
		// A successful-but-empty result is indistinguishable from a
		// malformed one by policy.
		slog.Warn("place search yielded no usable candidates, serving fallback")
		return fallbackPlaces()
	}

	return trip.PlaceSearchResponse{Items: items}
}

func buildSearchBody(req trip.PlaceSearchRequest, center polyline.Point) gpSearchBody {
	categories := req.Categories
	if len(categories) == 0 {
		categories = []string{"tourist_attraction"}
	}

	body := gpSearchBody{
		IncludedTypes:  categories,
		MaxResultCount: 20,
	}
	body.LocationRestriction.Circle = gpCircle{
		Center: gpLatLng{Latitude: center.Lat, Longitude: center.Lng},
		Radius: float64(clampCorridor(req.CorridorWidthM)),
	}
	return body
}

func clampCorridor(width *int) int {
	if width == nil {
		return defaultCorridorM
	}
	if *width < minCorridorM {
		return minCorridorM
	}
	if *width > maxCorridorM {
		return maxCorridorM
	}
	return *width
}

// parsePlaces admits candidates that carry an id, a display name, and both
// coordinates; anything else is dropped. A non-numeric rating drops the
// rating field, not the record. When openNow filtering is requested,
// candidates known to be closed are dropped.
func parsePlaces(places []gpPlace, openNow *bool) []trip.PlaceItem {
	items := make([]trip.PlaceItem, 0, len(places))
	for _, p := range places {
		if p.ID == "" || p.DisplayName == nil || p.DisplayName.Text == "" {
			continue
		}
		if p.Location == nil || p.Location.Latitude == nil || p.Location.Longitude == nil {
			continue
		}

		item := trip.PlaceItem{
			ID:      p.ID,
			Name:    p.DisplayName.Text,
			Lat:     *p.Location.Latitude,
			Lng:     *p.Location.Longitude,
			Summary: p.ShortFormattedAddress,
		}

		if len(p.Rating) > 0 {
			var r float64
			if err := json.Unmarshal(p.Rating, &r); err == nil {
				item.Rating = &r
			}
		}

		if p.CurrentOpeningHours != nil && p.CurrentOpeningHours.OpenNow != nil {
			item.OpenNow = p.CurrentOpeningHours.OpenNow
		}

		if openNow != nil && *openNow && item.OpenNow != nil && !*item.OpenNow {
			continue
		}

		items = append(items, item)
	}
	return items
}
