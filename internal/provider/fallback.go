package provider

import "github.com/bifrost-travel/bifrost-api/internal/trip"

// The fallback responses below are fixed, deterministic, domain-plausible
// constants. Identical input always yields identical fallback output; tests
// rely on this.

// fallbackRoute returns the offline route response: a shortest route plus a
// coastal alternative between Kagoshima and Makurazaki.
func fallbackRoute() trip.RouteResponse {
	primary := trip.RouteAlternative{
		Label:       "最短",
		DurationS:   5520,
		DistanceM:   86000,
		ScenicScore: 42,
		Toll:        true,
	}
	coastal := trip.RouteAlternative{
		Label:       "海沿い",
		DurationS:   6480,
		DistanceM:   94000,
		ScenicScore: 88,
		Toll:        false,
	}
	return trip.RouteResponse{
		Polyline:     sentinelPolyline,
		DistanceM:    primary.DistanceM,
		DurationS:    primary.DurationS,
		Alternatives: []trip.RouteAlternative{primary, coastal},
	}
}

// fallbackPlaces returns the offline place-search response.
func fallbackPlaces() trip.PlaceSearchResponse {
	return trip.PlaceSearchResponse{
		Items: []trip.PlaceItem{
			{
				ID:      "p1",
				Name:    "桜島 展望所",
				Lat:     31.593,
				Lng:     130.657,
				Rating:  floatPtr(4.7),
				Summary: "桜島を望む展望ポイント",
			},
			{
				ID:      "p2",
				Name:    "指宿温泉 砂むし会館",
				Lat:     31.234,
				Lng:     130.642,
				Rating:  floatPtr(4.5),
				OpenNow: boolPtr(true),
				Summary: "名物の砂むし温泉を体験",
			},
		},
	}
}

// fallbackPlan returns the offline one-day itinerary for the requested
// origin and destination. The request date is kept when present.
func fallbackPlan(req trip.PlanGenRequest) trip.PlanGenResponse {
	date := req.Date
	if date == "" {
		date = "2024-01-01"
	}

	lighthouse := trip.PlaceItem{
		ID:      "p1",
		Name:    "長崎鼻灯台",
		Lat:     31.238,
		Lng:     130.501,
		Summary: "開聞岳と東シナ海を望む絶景ポイント",
	}

	day := trip.PlanDay{
		Date:    date,
		Summary: "海沿いドライブと絶景巡り",
		Segments: []trip.PlanSegment{
			{
				StartTime:   "09:00",
				EndTime:     "10:30",
				Title:       "鹿児島中央駅を出発",
				Description: "レンタカーを借りて枕崎へ向かうドライブ開始。",
				TravelMode:  "drive",
			},
			{
				StartTime:   "11:00",
				EndTime:     "12:30",
				Title:       "長崎鼻灯台でフォトストップ",
				Description: "展望台からの眺めを楽しみ、カフェで休憩。",
				POI:         &lighthouse,
				TravelMode:  "stop",
			},
		},
	}

	return trip.PlanGenResponse{
		Plan: trip.Plan{
			Origin:      req.Origin,
			Destination: req.Destination,
			RouteLabel:  "海沿い",
			Days:        []trip.PlanDay{day},
		},
	}
}

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }
