package geocode

import (
	"context"
	"errors"
	"log"

	"github.com/caffind/caffind/internal/geo"
)

// ErrNoResults is returned when a query matches no known location.
var ErrNoResults = errors.New("no matching location")

// Provider abstracts a forward-geocoding source (e.g. Nominatim, Google).
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (geo.Coordinate, error)
}

// Chain tries each provider in order and returns the first hit. Provider
// failures are logged and skipped; only if all miss does the caller see an
// error.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Name() string {
	return "chain"
}

func (c *Chain) Search(ctx context.Context, query string) (geo.Coordinate, error) {
	if len(c.providers) == 0 {
		return geo.Coordinate{}, errors.New("no geocoding providers configured")
	}

	var lastErr error
	for _, p := range c.providers {
		coord, err := p.Search(ctx, query)
		if err == nil {
			return coord, nil
		}
		if !errors.Is(err, ErrNoResults) {
			log.Printf("geocoder %s failed for %q: %v", p.Name(), query, err)
		}
		lastErr = err
	}
	return geo.Coordinate{}, lastErr
}
