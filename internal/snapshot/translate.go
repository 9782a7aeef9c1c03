package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/vzahanych/weather-snapshot/internal/condition"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
)

var ErrMalformedResponse = errors.New("malformed one-call response")

const kelvinOffset = 273.15

// ToCelsius converts Kelvin to whole Celsius, truncating toward zero.
func ToCelsius(kelvin float64) int {
	return int(kelvin - kelvinOffset)
}

// Translate builds a snapshot from a one-call payload. Times are rendered
// in loc (UTC when nil) and weekday names come from names (English when
// empty). Only the first 25 hourly and 8 daily entries are used. The
// result depends on resp alone, so repeated calls give equal snapshots.
func Translate(resp *onecall.Response, loc *time.Location, names DayNames) (*Snapshot, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if len(resp.Hourly) < HourlyCount {
		return nil, fmt.Errorf("%w: %d hourly entries, need %d", ErrMalformedResponse, len(resp.Hourly), HourlyCount)
	}
	if len(resp.Daily) < DailyCount {
		return nil, fmt.Errorf("%w: %d daily entries, need %d", ErrMalformedResponse, len(resp.Daily), DailyCount)
	}
	if loc == nil {
		loc = time.UTC
	}
	if names.isZero() {
		names = EnglishDayNames
	}

	current, err := classifyFirst(resp.Current.Weather, "current")
	if err != nil {
		return nil, err
	}

	observed := localTime(resp.Current.Dt, loc)

	s := &Snapshot{
		CurrentDay:       names.name(observed.Weekday()),
		CurrentCondition: current,
		CurrentTempC:     ToCelsius(resp.Current.Temp),
		FeelsLikeC:       ToCelsius(resp.Current.FeelsLike),
		HumidityPct:      resp.Current.Humidity,
		Sunrise:          localTime(resp.Current.Sunrise, loc),
		Sunset:           localTime(resp.Current.Sunset, loc),
		Hourly:           make([]HourEntry, 0, HourlyCount),
		Daily:            make([]DayEntry, 0, DailyCount),
		GeneratedAt:      observed,
	}

	for i, h := range resp.Hourly[:HourlyCount] {
		label, err := classifyFirst(h.Weather, fmt.Sprintf("hourly[%d]", i))
		if err != nil {
			return nil, err
		}

		at := localTime(h.Dt, loc)
		temp := ToCelsius(h.Temp)

		if i == 0 || temp > s.TempMaxC {
			s.TempMaxC = temp
		}
		if i == 0 || temp < s.TempMinC {
			s.TempMinC = temp
		}

		s.Hourly = append(s.Hourly, HourEntry{
			Hour:        at.Hour(),
			Minute:      at.Minute(),
			Condition:   label,
			TempC:       temp,
			HumidityPct: h.Humidity,
		})
	}

	for i, d := range resp.Daily[:DailyCount] {
		label, err := classifyFirst(d.Weather, fmt.Sprintf("daily[%d]", i))
		if err != nil {
			return nil, err
		}

		s.Daily = append(s.Daily, DayEntry{
			Day:         names.name(localTime(d.Dt, loc).Weekday()),
			Condition:   label,
			DayTempC:    ToCelsius(d.Temp.Day),
			NightTempC:  ToCelsius(d.Temp.Night),
			HumidityPct: d.Humidity,
		})
	}

	return s, nil
}

func classifyFirst(weather []onecall.Weather, where string) (condition.Label, error) {
	if len(weather) == 0 {
		return 0, fmt.Errorf("%w: %s has no weather entries", ErrMalformedResponse, where)
	}
	label, err := condition.Classify(weather[0].ID)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrMalformedResponse, where, err)
	}
	return label, nil
}

func localTime(unix int64, loc *time.Location) time.Time {
	return time.Unix(unix, 0).In(loc)
}
