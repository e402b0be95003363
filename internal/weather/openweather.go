package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/httpx"
)

// ErrMissingAPIKey is returned when no OpenWeatherMap credential is
// configured. This is a terminal condition; no network request is attempted.
var ErrMissingAPIKey = errors.New("openweather api key is not configured")

// OpenWeatherClient fetches current conditions from OpenWeatherMap.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	httpc   *httpx.Client
}

func NewOpenWeatherClient(httpc *httpx.Client, baseURL, apiKey string) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   httpc,
	}
}

func (c *OpenWeatherClient) Name() string {
	return c.name
}

// Current fetches and normalizes the current weather at the coordinate.
func (c *OpenWeatherClient) Current(ctx context.Context, coord geo.Coordinate) (Snapshot, error) {
	if c.apiKey == "" {
		return Snapshot{}, ErrMissingAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", coord.Lat))
		values.Set("lon", fmt.Sprintf("%f", coord.Lon))
		values.Set("units", "metric")
		values.Set("appid", c.apiKey)

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := c.httpc.Do(ctx, buildRequest)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Coordinate:   coord,
		TemperatureC: orZero(payload.Main.Temp),
		FeelsLikeC:   orZero(payload.Main.FeelsLike),
		HumidityPct:  orZero(payload.Main.Humidity),
		WindSpeedMS:  orZero(payload.Wind.Speed),
		PlaceName:    payload.Name,
		FetchedAt:    time.Now().UTC(),
	}

	if len(payload.Weather) > 0 {
		snap.Condition = payload.Weather[0].Description
		if snap.Condition == "" {
			snap.Condition = payload.Weather[0].Main
		}
		snap.Icon = payload.Weather[0].Icon
	}
	if snap.Condition == "" {
		snap.Condition = "unknown"
	}

	return snap, nil
}

// orZero resolves a possibly-missing numeric field to an explicit zero.
func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
