package refresh

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/poi"
	"github.com/caffind/caffind/internal/route"
	"github.com/caffind/caffind/internal/store"
	"github.com/caffind/caffind/internal/translate"
	"github.com/caffind/caffind/internal/weather"
)

// User-facing degradation messages. Transport details stay in the logs.
const (
	msgShopsUnavailable     = "Coffee shops are currently unavailable."
	msgWeatherUnavailable   = "Weather is currently unavailable."
	msgWeatherNotConfigured = "Weather service is not configured."
)

// POIFetcher is the outbound shop search dependency.
type POIFetcher interface {
	Search(ctx context.Context, coord geo.Coordinate) ([]poi.Shop, error)
}

// WeatherFetcher is the outbound current-weather dependency.
type WeatherFetcher interface {
	Current(ctx context.Context, coord geo.Coordinate) (weather.Snapshot, error)
}

// SnapshotSink receives completed refresh results. May be nil.
type SnapshotSink interface {
	SaveSnapshot(coord geo.Coordinate, snapshot store.Snapshot)
}

// State is the orchestrator's view of the world at one instant. Shop and
// weather results live side by side with independent loading flags and error
// slots; either side failing never touches the other.
type State struct {
	Generation    uint64            `json:"generation"`
	Coordinate    geo.Coordinate    `json:"coordinate"`
	HasCoordinate bool              `json:"hasCoordinate"`
	Shops         []poi.Shop        `json:"shops"`
	Weather       *weather.Snapshot `json:"weather,omitempty"`
	Route         *route.Route      `json:"route,omitempty"`
	Translation   *translate.Result `json:"translation,omitempty"`

	LoadingShops   bool   `json:"loadingShops"`
	LoadingWeather bool   `json:"loadingWeather"`
	ShopsError     string `json:"shopsError,omitempty"`
	WeatherError   string `json:"weatherError,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Orchestrator owns the current search center and fans each location change
// out to the shop and weather fetches without waiting for either.
//
// Every refresh bumps a generation counter and the spawned fetches carry it
// along; a result whose generation is no longer current is discarded, so a
// slow response to an old coordinate can never overwrite a newer one.
type Orchestrator struct {
	shops        POIFetcher
	weather      WeatherFetcher
	sink         SnapshotSink
	fetchTimeout time.Duration

	mu    sync.Mutex
	state State
}

// New builds an orchestrator. sink may be nil to skip snapshot persistence.
func New(shops POIFetcher, weatherFetcher WeatherFetcher, sink SnapshotSink, fetchTimeout time.Duration) *Orchestrator {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Orchestrator{
		shops:        shops,
		weather:      weatherFetcher,
		sink:         sink,
		fetchTimeout: fetchTimeout,
	}
}

// Refresh moves the search center and unconditionally starts the shop and
// weather fetches for it. It never blocks on either fetch. Any active route
// belongs to the previous center and is cleared. The new generation is
// returned, mostly for logging and tests.
func (o *Orchestrator) Refresh(coord geo.Coordinate) uint64 {
	o.mu.Lock()
	o.state.Generation++
	gen := o.state.Generation

	o.state.Coordinate = coord
	o.state.HasCoordinate = true
	o.state.Route = nil
	o.state.LoadingShops = true
	o.state.LoadingWeather = true
	o.state.ShopsError = ""
	o.state.WeatherError = ""
	o.state.UpdatedAt = time.Now().UTC()
	o.mu.Unlock()

	go o.fetchShops(gen, coord)
	go o.fetchWeather(gen, coord)

	return gen
}

func (o *Orchestrator) fetchShops(gen uint64, coord geo.Coordinate) {
	ctx, cancel := context.WithTimeout(context.Background(), o.fetchTimeout)
	defer cancel()

	shops, err := o.shops.Search(ctx, coord)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.state.Generation {
		log.Printf("DEBUG: dropping stale shop results for %s (gen %d, now %d)", coord, gen, o.state.Generation)
		return
	}

	if err != nil {
		log.Printf("shop search failed for %s: %v", coord, err)
		o.state.Shops = nil
		o.state.ShopsError = msgShopsUnavailable
	} else {
		o.state.Shops = shops
	}

	o.state.LoadingShops = false
	o.state.UpdatedAt = time.Now().UTC()
	o.persistLocked(coord)
}

func (o *Orchestrator) fetchWeather(gen uint64, coord geo.Coordinate) {
	ctx, cancel := context.WithTimeout(context.Background(), o.fetchTimeout)
	defer cancel()

	snap, err := o.weather.Current(ctx, coord)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.state.Generation {
		log.Printf("DEBUG: dropping stale weather for %s (gen %d, now %d)", coord, gen, o.state.Generation)
		return
	}

	if err != nil {
		log.Printf("weather fetch failed for %s: %v", coord, err)
		o.state.Weather = nil
		if errors.Is(err, weather.ErrMissingAPIKey) {
			o.state.WeatherError = msgWeatherNotConfigured
		} else {
			o.state.WeatherError = msgWeatherUnavailable
		}
	} else {
		o.state.Weather = &snap
	}

	o.state.LoadingWeather = false
	o.state.UpdatedAt = time.Now().UTC()
	o.persistLocked(coord)
}

// persistLocked saves a snapshot once both fetches for the current generation
// have settled and at least one of them produced data. Callers hold o.mu.
func (o *Orchestrator) persistLocked(coord geo.Coordinate) {
	if o.sink == nil || o.state.LoadingShops || o.state.LoadingWeather {
		return
	}
	if len(o.state.Shops) == 0 && o.state.Weather == nil {
		return
	}

	shops := make([]poi.Shop, len(o.state.Shops))
	copy(shops, o.state.Shops)

	var w *weather.Snapshot
	if o.state.Weather != nil {
		c := *o.state.Weather
		w = &c
	}

	o.sink.SaveSnapshot(coord, store.Snapshot{
		Coordinate: coord,
		Shops:      shops,
		Weather:    w,
		Timestamp:  time.Now().UTC(),
	})
}

// SetRoute attaches an active route to the current state. The next refresh
// clears it again.
func (o *Orchestrator) SetRoute(r route.Route) {
	o.mu.Lock()
	o.state.Route = &r
	o.state.UpdatedAt = time.Now().UTC()
	o.mu.Unlock()
}

// ClearRoute drops the active route, if any.
func (o *Orchestrator) ClearRoute() {
	o.mu.Lock()
	o.state.Route = nil
	o.state.UpdatedAt = time.Now().UTC()
	o.mu.Unlock()
}

// StoreTranslation records the latest successful translation. Callers must
// only invoke this on success so a failed attempt leaves the previous result
// in place.
func (o *Orchestrator) StoreTranslation(result translate.Result) {
	o.mu.Lock()
	o.state.Translation = &result
	o.state.UpdatedAt = time.Now().UTC()
	o.mu.Unlock()
}

// Coordinate returns the current search center, if one has been set.
func (o *Orchestrator) Coordinate() (geo.Coordinate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Coordinate, o.state.HasCoordinate
}

// State returns a copy of the current state safe for the caller to keep.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := o.state

	out.Shops = make([]poi.Shop, len(o.state.Shops))
	copy(out.Shops, o.state.Shops)

	if o.state.Weather != nil {
		w := *o.state.Weather
		out.Weather = &w
	}
	if o.state.Route != nil {
		r := *o.state.Route
		out.Route = &r
	}
	if o.state.Translation != nil {
		t := *o.state.Translation
		out.Translation = &t
	}
	return out
}
