// Package trip holds the canonical request and response types shared by the
// HTTP boundary, the provider adapters, the cache, and the plan store.
package trip

import "github.com/google/uuid"

// RouteRequest describes a route computation between two free-text locations.
type RouteRequest struct {
	Origin       string   `json:"origin" validate:"required"`
	Destination  string   `json:"destination" validate:"required"`
	Waypoints    []string `json:"waypoints,omitempty"`
	AvoidTolls   *bool    `json:"avoidTolls,omitempty"`
	TrafficAware *bool    `json:"trafficAware,omitempty"`
	PreferScenic *bool    `json:"preferScenic,omitempty"`
}

// RouteAlternative is a single candidate route, ordered by provider rank.
// The first alternative is the primary route.
type RouteAlternative struct {
	Label       string `json:"label"`
	DurationS   int    `json:"duration_s"`
	DistanceM   int    `json:"distance_m"`
	ScenicScore int    `json:"scenic_score"`
	Toll        bool   `json:"toll"`
}

// RouteResponse carries the primary route polyline plus all alternatives.
// Distance and duration mirror the primary alternative.
type RouteResponse struct {
	Polyline     string             `json:"polyline"`
	DistanceM    int                `json:"distance_m"`
	DurationS    int                `json:"duration_s"`
	Alternatives []RouteAlternative `json:"alternatives"`
}

// PlaceSearchRequest asks for points of interest inside a corridor around an
// encoded polyline.
type PlaceSearchRequest struct {
	Polyline       string   `json:"polyline" validate:"required"`
	Categories     []string `json:"categories,omitempty"`
	CorridorWidthM *int     `json:"corridor_width_m,omitempty"`
	OpenNow        *bool    `json:"open_now,omitempty"`
}

// PlaceItem is a single point of interest. ID, name, lat, and lng are
// mandatory; records missing any of them are dropped during parsing.
type PlaceItem struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Rating  *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	OpenNow *bool    `json:"open_now,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// PlaceSearchResponse is an ordered list of admitted place items.
type PlaceSearchResponse struct {
	Items []PlaceItem `json:"items"`
}

// PlanSegment is one scheduled block inside a plan day.
type PlanSegment struct {
	StartTime   string     `json:"start_time" validate:"required"`
	EndTime     string     `json:"end_time" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	POI         *PlaceItem `json:"poi,omitempty"`
	TravelMode  string     `json:"travel_mode,omitempty" validate:"omitempty,oneof=drive walk stop"`
}

// PlanDay groups the segments of a single itinerary day.
type PlanDay struct {
	Date     string        `json:"date" validate:"required"`
	Summary  string        `json:"summary,omitempty"`
	Segments []PlanSegment `json:"segments" validate:"dive"`
}

// Plan is a full itinerary. ID is assigned by the store on creation and is
// absent before persistence.
type Plan struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Origin      string     `json:"origin" validate:"required"`
	Destination string     `json:"destination" validate:"required"`
	RouteLabel  string     `json:"route_label,omitempty"`
	Days        []PlanDay  `json:"days" validate:"dive"`
}

// PlanCreateRequest is the payload for persisting a plan directly.
type PlanCreateRequest struct {
	Origin      string    `json:"origin" validate:"required"`
	Destination string    `json:"destination" validate:"required"`
	RouteLabel  string    `json:"route_label,omitempty"`
	Days        []PlanDay `json:"days,omitempty" validate:"dive"`
}

// PlanPreferences tunes AI plan generation.
type PlanPreferences struct {
	Theme         string `json:"theme,omitempty"`
	MaxDistanceKm *int   `json:"max_distance_km,omitempty"`
	TimeBudgetMin *int   `json:"time_budget_min,omitempty"`
	AvoidTolls    *bool  `json:"avoid_tolls,omitempty"`
}

// PlanCandidates carries precomputed route and place options the generator
// may draw on.
type PlanCandidates struct {
	Routes []RouteAlternative `json:"routes"`
	POIs   []PlaceItem        `json:"pois"`
}

// PlanGenRequest asks for an AI-generated itinerary.
type PlanGenRequest struct {
	Origin      string           `json:"origin" validate:"required"`
	Destination string           `json:"destination" validate:"required"`
	Date        string           `json:"date,omitempty"`
	Preferences *PlanPreferences `json:"preferences,omitempty"`
	Candidates  *PlanCandidates  `json:"candidates,omitempty"`
}

// PlanGenResponse wraps the generated plan.
type PlanGenResponse struct {
	Plan Plan `json:"plan" validate:"required"`
}
