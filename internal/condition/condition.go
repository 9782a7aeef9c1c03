package condition

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidCode is returned when a provider weather code is below 100.
var ErrInvalidCode = errors.New("invalid weather code")

// Label is the closed set of weather conditions the service recognizes.
// The zero Label is not a condition; it marks snapshots that carry no
// classified condition (placeholder and error snapshots).
type Label int

const (
	Sunny Label = iota + 1
	SunnyCloudy
	Night
	NightCloudy
	Cloudy
	WindyCloudy
	Windy
	Rain
	Thunderstorm
	ThunderstormNoRain
	Snowy
)

var labelNames = map[Label]string{
	Sunny:              "sunny",
	SunnyCloudy:        "sunny_cloudy",
	Night:              "night",
	NightCloudy:        "night_cloudy",
	Cloudy:             "cloudy",
	WindyCloudy:        "windy_cloudy",
	Windy:              "windy",
	Rain:               "rain",
	Thunderstorm:       "thunderstorm",
	ThunderstormNoRain: "thunderstorm_no_rain",
	Snowy:              "snowy",
}

// Labels returns every condition label in declaration order.
func Labels() []Label {
	return []Label{
		Sunny, SunnyCloudy, Night, NightCloudy, Cloudy,
		WindyCloudy, Windy, Rain, Thunderstorm, ThunderstormNoRain, Snowy,
	}
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether l is one of the declared conditions.
func (l Label) Valid() bool {
	_, ok := labelNames[l]
	return ok
}

// ParseLabel returns the label with the given snake_case name.
func ParseLabel(name string) (Label, error) {
	for l, n := range labelNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown condition label %q", name)
}

func (l Label) MarshalText() ([]byte, error) {
	if l == 0 {
		return []byte{}, nil
	}
	if !l.Valid() {
		return nil, fmt.Errorf("cannot marshal condition label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*l = 0
		return nil
	}
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Classify maps an OpenWeatherMap condition code to a day-variant label.
//
// The first decimal digit selects the condition group and the second or
// third digit refines it. Groups outside 2xx, 3xx, 5xx, 6xx and 8xx fall
// back to Sunny. Night variants are never returned; see Label.AtTime.
func Classify(code int) (Label, error) {
	if code < 100 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCode, code)
	}

	digits := strconv.Itoa(code)
	first := digits[0] - '0'
	second := digits[1] - '0'
	third := digits[2] - '0'

	switch first {
	case 2:
		if second == 0 || second == 2 || second == 3 {
			return Thunderstorm, nil
		}
		return ThunderstormNoRain, nil
	case 3:
		return Rain, nil
	case 5:
		if second >= 1 && second <= 3 {
			return Snowy, nil
		}
		return Rain, nil
	case 6:
		return Snowy, nil
	case 8:
		switch third {
		case 0:
			return Sunny, nil
		case 1, 2:
			return SunnyCloudy, nil
		default:
			return Cloudy, nil
		}
	}

	return Sunny, nil
}
