package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/caffind/caffind/internal/geo"
)

type AppConfig struct {
	// Third-party service endpoints and credentials.
	OpenWeatherAPIKey string
	OverpassURL       string
	NominatimURL      string
	OSRMURL           string
	GoogleAPIKey      string

	TranslatorURL        string
	TranslatorTargetLang string
	ChatURL              string

	IdentityURL       string
	IdentityAPIKey    string
	SessionSigningKey string

	// DefaultCenter is the search center used before the first client refresh.
	DefaultCenter geo.Coordinate

	// SearchRadiusM is the fixed POI search radius in meters.
	SearchRadiusM int

	// RefreshInterval controls the background re-refresh of the current center.
	RefreshInterval time.Duration

	// Outbound HTTP timeouts.
	HTTPTimeout    time.Duration
	FetchTimeout   time.Duration // per refresh fetch
	GeocodeTimeout time.Duration // bound on place-name lookups

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per coordinate (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OverpassURL = getenvDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	cfg.NominatimURL = getenvDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search")
	cfg.OSRMURL = getenvDefault("OSRM_URL", "https://router.project-osrm.org")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	cfg.TranslatorURL = os.Getenv("TRANSLATOR_URL")
	cfg.TranslatorTargetLang = getenvDefault("TRANSLATOR_TARGET_LANG", "en")
	cfg.ChatURL = os.Getenv("CHAT_URL")

	cfg.IdentityURL = os.Getenv("IDENTITY_URL")
	cfg.IdentityAPIKey = os.Getenv("IDENTITY_API_KEY")
	cfg.SessionSigningKey = os.Getenv("SESSION_SIGNING_KEY")

	center, err := loadDefaultCenter()
	if err != nil {
		return nil, err
	}
	cfg.DefaultCenter = center

	cfg.SearchRadiusM = getenvInt("SEARCH_RADIUS_M", 1000)

	cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.GeocodeTimeout, err = getenvDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)
	cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// loadDefaultCenter reads the initial search center. Defaults to central
// Ho Chi Minh City.
func loadDefaultCenter() (geo.Coordinate, error) {
	lat, err := getenvFloat("DEFAULT_LAT", 10.7769)
	if err != nil {
		return geo.Coordinate{}, err
	}
	lon, err := getenvFloat("DEFAULT_LON", 106.7009)
	if err != nil {
		return geo.Coordinate{}, err
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if err := coord.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid default center: %w", err)
	}
	return coord, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
