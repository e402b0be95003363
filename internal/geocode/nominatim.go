package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/httpx"
)

// NominatimClient resolves free-text address queries against a public
// Nominatim instance.
type NominatimClient struct {
	name    string
	baseURL string
	httpc   *httpx.Client
}

func NewNominatimClient(httpc *httpx.Client, baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org/search"
	}
	return &NominatimClient{
		name:    "nominatim",
		baseURL: baseURL,
		httpc:   httpc,
	}
}

func (c *NominatimClient) Name() string {
	return c.name
}

// Search returns the first matching coordinate for the query.
func (c *NominatimClient) Search(ctx context.Context, query string) (geo.Coordinate, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("format", "json")
		values.Set("limit", "1")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		// Nominatim's usage policy requires an identifying agent.
		req.Header.Set("User-Agent", "caffind/1.0")
		return req, nil
	}

	resp, err := c.httpc.Do(ctx, buildRequest)
	if err != nil {
		return geo.Coordinate{}, err
	}
	defer resp.Body.Close()

	// Nominatim returns lat/lon as JSON strings.
	var payload []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Coordinate{}, err
	}
	if len(payload) == 0 {
		return geo.Coordinate{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(payload[0].Lat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("nominatim returned bad latitude %q: %w", payload[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(payload[0].Lon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("nominatim returned bad longitude %q: %w", payload[0].Lon, err)
	}

	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}
