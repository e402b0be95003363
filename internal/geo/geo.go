package geo

import (
	"errors"
	"fmt"
)

// Coordinate is an immutable latitude/longitude pair. A new value replaces the
// old one wholesale on every location change; no history is kept here.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

var ErrOutOfRange = errors.New("coordinate out of range")

// Validate checks that the coordinate lies within WGS84 bounds.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: %.5f,%.5f", ErrOutOfRange, c.Lat, c.Lon)
	}
	return nil
}

// Key returns a canonical string key for indexing this coordinate in stores.
// Five decimal places (~1 m) is plenty for a search center.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.5f:%.5f", c.Lat, c.Lon)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}
