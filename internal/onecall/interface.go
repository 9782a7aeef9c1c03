package onecall

import (
	"context"
	"fmt"
)

// Provider fetches raw one-call payloads for a coordinate pair.
type Provider interface {
	FetchOneCall(ctx context.Context, coords Coordinates) (*Response, error)
	Name() string
}

// LocationProvider supplies the last known position of the consumer.
type LocationProvider interface {
	LastKnown(ctx context.Context) (Coordinates, error)
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key identifies the coordinates in caches and in-flight tracking.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// StaticLocation always reports the same coordinates.
type StaticLocation Coordinates

func (s StaticLocation) LastKnown(ctx context.Context) (Coordinates, error) {
	return Coordinates(s), nil
}
