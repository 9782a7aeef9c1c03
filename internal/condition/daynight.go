package condition

import "time"

// IsNight reports whether the clock time of t falls after the sunset clock
// time or before the sunrise clock time. Only hour and minute of sunrise
// and sunset are considered and dates are ignored, so a window that wraps
// past midnight is not special-cased.
func IsNight(sunrise, sunset, t time.Time) bool {
	start := clockMinutes(sunset)
	end := clockMinutes(sunrise)
	now := clockOf(t)

	return now > start || now < end
}

// AtTime returns the label to display at clock time t. Sunny and
// SunnyCloudy turn into Night and NightCloudy during the night window;
// every other label is returned unchanged.
func (l Label) AtTime(sunrise, sunset, t time.Time) Label {
	if l != Sunny && l != SunnyCloudy {
		return l
	}
	if !IsNight(sunrise, sunset, t) {
		return l
	}
	if l == Sunny {
		return Night
	}
	return NightCloudy
}

func clockMinutes(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func clockOf(t time.Time) time.Duration {
	return clockMinutes(t) +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
