// Package onecalltest builds one-call payloads for tests.
package onecalltest

import (
	"time"

	"github.com/vzahanych/weather-snapshot/internal/onecall"
)

const (
	HourlyLen = 25
	DailyLen  = 8
)

// Base is the observation time of the default fixture, a Monday.
var Base = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

// Response returns a well-formed payload with exactly 25 hourly and 8 daily
// entries. Hourly entry i is 280+i Kelvin (6+i °C after truncation), daily
// entries are 290 K by day and 280 K by night.
func Response() *onecall.Response {
	resp := &onecall.Response{
		Lat:      49.8061,
		Lon:      24.8964,
		Timezone: "UTC",
		Current: onecall.Current{
			Dt:        Base.Unix(),
			Sunrise:   time.Date(2024, time.June, 3, 4, 30, 0, 0, time.UTC).Unix(),
			Sunset:    time.Date(2024, time.June, 3, 20, 45, 0, 0, time.UTC).Unix(),
			Temp:      295.0,
			FeelsLike: 294.0,
			Humidity:  60,
			Weather:   []onecall.Weather{Weather(801)},
		},
		Hourly: make([]onecall.Hourly, 0, HourlyLen),
		Daily:  make([]onecall.Daily, 0, DailyLen),
	}

	for i := 0; i < HourlyLen; i++ {
		resp.Hourly = append(resp.Hourly, onecall.Hourly{
			Dt:       Base.Add(time.Duration(i) * time.Hour).Unix(),
			Temp:     280.0 + float64(i),
			Humidity: 40 + i,
			Weather:  []onecall.Weather{Weather(800)},
		})
	}

	for i := 0; i < DailyLen; i++ {
		resp.Daily = append(resp.Daily, onecall.Daily{
			Dt:       Base.AddDate(0, 0, i).Unix(),
			Temp:     onecall.DailyTemp{Day: 290.0, Night: 280.0, Min: 200.0, Max: 350.0},
			Humidity: 55,
			Weather:  []onecall.Weather{Weather(500)},
		})
	}

	return resp
}

func Weather(id int) onecall.Weather {
	return onecall.Weather{ID: id, Main: "Test", Description: "test", Icon: "01d"}
}
