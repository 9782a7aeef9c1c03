// Package snapshot turns raw one-call payloads into presentation-ready
// weather snapshots.
package snapshot

import (
	"time"

	"github.com/vzahanych/weather-snapshot/internal/condition"
)

const (
	HourlyCount = 25
	DailyCount  = 8
)

const (
	errorDay     = "Error"
	errorMessage = "Weather fetch error"
	waitDay      = "Wait"
	waitMessage  = "Please wait, getting weather"
)

// Snapshot is one translation result. Treat it as read-only once built;
// use Clone before changing anything.
type Snapshot struct {
	CurrentDay       string          `json:"current_day"`
	CurrentCondition condition.Label `json:"current_condition,omitempty"`
	Message          string          `json:"message,omitempty"`
	CurrentTempC     int             `json:"current_temp_c"`
	FeelsLikeC       int             `json:"feels_like_c"`
	TempMaxC         int             `json:"temp_max_c"`
	TempMinC         int             `json:"temp_min_c"`
	HumidityPct      int             `json:"humidity_pct"`
	Sunrise          time.Time       `json:"sunrise"`
	Sunset           time.Time       `json:"sunset"`
	Hourly           []HourEntry     `json:"hourly"`
	Daily            []DayEntry      `json:"daily"`
	GeneratedAt      time.Time       `json:"generated_at"`
	Failed           bool            `json:"failed"`
}

type HourEntry struct {
	Hour        int             `json:"hour"`
	Minute      int             `json:"minute"`
	Condition   condition.Label `json:"condition"`
	TempC       int             `json:"temp_c"`
	HumidityPct int             `json:"humidity_pct"`
}

type DayEntry struct {
	Day         string          `json:"day"`
	Condition   condition.Label `json:"condition"`
	DayTempC    int             `json:"day_temp_c"`
	NightTempC  int             `json:"night_temp_c"`
	HumidityPct int             `json:"humidity_pct"`
}

// SunEvent marks an hourly slot that shares its hour with sunrise or sunset.
type SunEvent string

const (
	SunEventNone    SunEvent = ""
	SunEventSunrise SunEvent = "sunrise"
	SunEventSunset  SunEvent = "sunset"
)

// ErrorSnapshot is published in place of a snapshot when a refresh fails.
func ErrorSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		CurrentDay:  errorDay,
		Message:     errorMessage,
		Sunrise:     now,
		Sunset:      now,
		Hourly:      []HourEntry{},
		Daily:       []DayEntry{},
		GeneratedAt: now,
		Failed:      true,
	}
}

// Placeholder is the state shown before the first refresh completes.
func Placeholder(now time.Time) *Snapshot {
	return &Snapshot{
		CurrentDay:  waitDay,
		Message:     waitMessage,
		Sunrise:     now,
		Sunset:      now,
		Hourly:      []HourEntry{},
		Daily:       []DayEntry{},
		GeneratedAt: now,
	}
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Hourly = s.HourlyEntries()
	c.Daily = s.DailyEntries()
	return &c
}

func (s *Snapshot) HourlyEntries() []HourEntry {
	out := make([]HourEntry, len(s.Hourly))
	copy(out, s.Hourly)
	return out
}

func (s *Snapshot) DailyEntries() []DayEntry {
	out := make([]DayEntry, len(s.Daily))
	copy(out, s.Daily)
	return out
}

// ConditionAt returns the current condition as it should be shown at t,
// swapping in the night variant outside daylight.
func (s *Snapshot) ConditionAt(t time.Time) condition.Label {
	return s.CurrentCondition.AtTime(s.Sunrise, s.Sunset, t)
}

// HourCondition is the display condition of an hourly entry, judged by the
// entry's own time of day against this snapshot's sunrise and sunset.
func (s *Snapshot) HourCondition(e HourEntry) condition.Label {
	at := time.Date(2000, time.January, 1, e.Hour, e.Minute, 0, 0, time.UTC)
	return e.Condition.AtTime(s.Sunrise, s.Sunset, at)
}

// SunEventAt reports whether hour matches the sunset or sunrise hour.
// Sunset wins when both fall in the same hour.
func (s *Snapshot) SunEventAt(hour int) SunEvent {
	switch {
	case s.Failed:
		return SunEventNone
	case hour == s.Sunset.Hour():
		return SunEventSunset
	case hour == s.Sunrise.Hour():
		return SunEventSunrise
	default:
		return SunEventNone
	}
}

// HumidityBucket rounds a humidity percentage up to the icon step it
// belongs to: 25, 50, 75 or 100. Zero and out-of-range values give 0.
func HumidityBucket(pct int) int {
	switch {
	case pct >= 1 && pct <= 25:
		return 25
	case pct >= 26 && pct <= 50:
		return 50
	case pct >= 51 && pct <= 75:
		return 75
	case pct >= 76:
		return 100
	default:
		return 0
	}
}
