package geocode

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/caffind/caffind/internal/geo"
)

// GoogleClient is an optional fallback provider backed by the Google
// Geocoding API. It is only wired in when a Google API key is configured.
type GoogleClient struct {
	name string
}

func NewGoogleClient(apiKey string) *GoogleClient {
	// The geocoder package holds its credential globally.
	geocoder.ApiKey = apiKey
	return &GoogleClient{name: "google"}
}

func (c *GoogleClient) Name() string {
	return c.name
}

// Search resolves the free-text query via Google. The underlying library does
// not take a context, so cancellation is best-effort only.
func (c *GoogleClient) Search(ctx context.Context, query string) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}

	loc, err := geocoder.Geocoding(geocoder.Address{Street: query})
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("google geocoding %q: %w", query, err)
	}

	return geo.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
