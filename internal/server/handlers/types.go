package handlers

import (
	"time"

	"github.com/vzahanych/weather-snapshot/internal/condition"
	"github.com/vzahanych/weather-snapshot/internal/snapshot"
)

// WeatherRequest carries the coordinates of a /weather lookup. Presence is
// checked separately so that 0 stays a valid coordinate.
type WeatherRequest struct {
	Lat float64 `form:"lat" json:"lat" validate:"latitude"`
	Lon float64 `form:"lon" json:"lon" validate:"longitude"`
}

// WeatherResponse is the presentation form of a snapshot. DisplayCondition
// fields apply the night variants for the time the response was rendered.
type WeatherResponse struct {
	CurrentDay       string          `json:"current_day"`
	CurrentCondition condition.Label `json:"current_condition,omitempty"`
	DisplayCondition condition.Label `json:"display_condition,omitempty"`
	Message          string          `json:"message,omitempty"`
	CurrentTempC     int             `json:"current_temp_c"`
	FeelsLikeC       int             `json:"feels_like_c"`
	TempMaxC         int             `json:"temp_max_c"`
	TempMinC         int             `json:"temp_min_c"`
	HumidityPct      int             `json:"humidity_pct"`
	HumidityBucket   int             `json:"humidity_bucket"`
	Sunrise          time.Time       `json:"sunrise"`
	Sunset           time.Time       `json:"sunset"`
	Hourly           []HourlyItem    `json:"hourly"`
	Daily            []DailyItem     `json:"daily"`
	GeneratedAt      time.Time       `json:"generated_at"`
	Failed           bool            `json:"failed"`
	Loading          bool            `json:"loading,omitempty"`
}

type HourlyItem struct {
	Hour             int               `json:"hour"`
	Minute           int               `json:"minute"`
	Condition        condition.Label   `json:"condition"`
	DisplayCondition condition.Label   `json:"display_condition"`
	TempC            int               `json:"temp_c"`
	HumidityPct      int               `json:"humidity_pct"`
	HumidityBucket   int               `json:"humidity_bucket"`
	SunEvent         snapshot.SunEvent `json:"sun_event,omitempty"`
}

type DailyItem struct {
	Day            string          `json:"day"`
	Condition      condition.Label `json:"condition"`
	DayTempC       int             `json:"day_temp_c"`
	NightTempC     int             `json:"night_temp_c"`
	HumidityPct    int             `json:"humidity_pct"`
	HumidityBucket int             `json:"humidity_bucket"`
}

type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse is shared by the health, liveness and readiness probes.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
	Snapshot  string `json:"snapshot,omitempty"`
}

// NewWeatherResponse renders snap as seen at now.
func NewWeatherResponse(snap *snapshot.Snapshot, now time.Time) WeatherResponse {
	now = now.In(snap.Sunrise.Location())

	resp := WeatherResponse{
		CurrentDay:       snap.CurrentDay,
		CurrentCondition: snap.CurrentCondition,
		DisplayCondition: snap.ConditionAt(now),
		Message:          snap.Message,
		CurrentTempC:     snap.CurrentTempC,
		FeelsLikeC:       snap.FeelsLikeC,
		TempMaxC:         snap.TempMaxC,
		TempMinC:         snap.TempMinC,
		HumidityPct:      snap.HumidityPct,
		HumidityBucket:   snapshot.HumidityBucket(snap.HumidityPct),
		Sunrise:          snap.Sunrise,
		Sunset:           snap.Sunset,
		Hourly:           make([]HourlyItem, 0, len(snap.Hourly)),
		Daily:            make([]DailyItem, 0, len(snap.Daily)),
		GeneratedAt:      snap.GeneratedAt,
		Failed:           snap.Failed,
	}

	for _, h := range snap.HourlyEntries() {
		resp.Hourly = append(resp.Hourly, HourlyItem{
			Hour:             h.Hour,
			Minute:           h.Minute,
			Condition:        h.Condition,
			DisplayCondition: snap.HourCondition(h),
			TempC:            h.TempC,
			HumidityPct:      h.HumidityPct,
			HumidityBucket:   snapshot.HumidityBucket(h.HumidityPct),
			SunEvent:         snap.SunEventAt(h.Hour),
		})
	}

	for _, d := range snap.DailyEntries() {
		resp.Daily = append(resp.Daily, DailyItem{
			Day:            d.Day,
			Condition:      d.Condition,
			DayTempC:       d.DayTempC,
			NightTempC:     d.NightTempC,
			HumidityPct:    d.HumidityPct,
			HumidityBucket: snapshot.HumidityBucket(d.HumidityPct),
		})
	}

	return resp
}
