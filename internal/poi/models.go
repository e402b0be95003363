package poi

import (
	"github.com/caffind/caffind/internal/geo"
)

// Shop is a normalized point-of-interest record. Shops are created fresh on
// every search and replaced wholesale on the next one; no identity persists
// across refreshes.
type Shop struct {
	ID          string         `json:"id"`
	Coordinate  geo.Coordinate `json:"coordinate"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// Amenity values we consider coffee-serving establishments.
var defaultAmenities = []string{"cafe", "restaurant", "fast_food", "bar", "pub"}
