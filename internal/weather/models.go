package weather

import (
	"time"

	"github.com/caffind/caffind/internal/geo"
)

// Snapshot is the normalized current-weather view at a coordinate. It is
// replaced wholesale on each fetch and absent until the first successful one.
type Snapshot struct {
	Coordinate   geo.Coordinate `json:"coordinate"`
	TemperatureC float64        `json:"temperatureC"`
	FeelsLikeC   float64        `json:"feelsLikeC"`
	Condition    string         `json:"condition"`
	Icon         string         `json:"icon"`
	HumidityPct  float64        `json:"humidityPercent"`
	WindSpeedMS  float64        `json:"windSpeedMs"`
	PlaceName    string         `json:"placeName,omitempty"`
	FetchedAt    time.Time      `json:"fetchedAt"` // always UTC
}
