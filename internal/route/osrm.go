package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/httpx"
)

// Profile selects the travel mode for a route request.
type Profile string

const (
	ProfileWalking Profile = "walking"
	ProfileDriving Profile = "driving"
)

// Valid reports whether the profile is one we route for.
func (p Profile) Valid() bool {
	return p == ProfileWalking || p == ProfileDriving
}

var ErrNoRoute = errors.New("no route found")

// Route is a normalized directions result.
type Route struct {
	Profile   Profile        `json:"profile"`
	From      geo.Coordinate `json:"from"`
	To        geo.Coordinate `json:"to"`
	DistanceM float64        `json:"distanceMeters"`
	DurationS float64        `json:"durationSeconds"`
	Geometry  string         `json:"geometry"` // encoded polyline
}

// OSRMClient requests directions from an OSRM-compatible routing service.
type OSRMClient struct {
	name    string
	baseURL string
	httpc   *httpx.Client
}

func NewOSRMClient(httpc *httpx.Client, baseURL string) *OSRMClient {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMClient{
		name:    "osrm",
		baseURL: baseURL,
		httpc:   httpc,
	}
}

func (c *OSRMClient) Name() string {
	return c.name
}

// Directions fetches a route between two coordinates for the given profile.
func (c *OSRMClient) Directions(ctx context.Context, from, to geo.Coordinate, profile Profile) (Route, error) {
	if !profile.Valid() {
		return Route{}, fmt.Errorf("unsupported routing profile %q", profile)
	}

	buildRequest := func() (*http.Request, error) {
		// OSRM takes lon,lat pairs.
		u := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=polyline",
			c.baseURL, profile, from.Lon, from.Lat, to.Lon, to.Lat)
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := c.httpc.Do(ctx, buildRequest)
	if err != nil {
		return Route{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Geometry string  `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Route{}, err
	}

	if payload.Code != "Ok" || len(payload.Routes) == 0 {
		return Route{}, fmt.Errorf("%w: code=%s", ErrNoRoute, payload.Code)
	}

	best := payload.Routes[0]
	return Route{
		Profile:   profile,
		From:      from,
		To:        to,
		DistanceM: best.Distance,
		DurationS: best.Duration,
		Geometry:  best.Geometry,
	}, nil
}
