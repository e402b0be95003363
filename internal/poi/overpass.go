package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/httpx"
)

// OverpassClient queries an Overpass-style interpreter endpoint for nearby
// coffee-serving establishments.
type OverpassClient struct {
	name      string
	baseURL   string
	radiusM   int
	amenities []string
	httpc     *httpx.Client
}

// NewOverpassClient builds a client against the given interpreter endpoint.
// radiusM <= 0 falls back to the standard 1000 m search radius.
func NewOverpassClient(httpc *httpx.Client, baseURL string, radiusM int) *OverpassClient {
	if radiusM <= 0 {
		radiusM = 1000
	}
	return &OverpassClient{
		name:      "overpass",
		baseURL:   baseURL,
		radiusM:   radiusM,
		amenities: defaultAmenities,
		httpc:     httpc,
	}
}

func (c *OverpassClient) Name() string {
	return c.name
}

// Search returns the shops around the coordinate. Way and relation features
// are requested with their center point so area shops still get a coordinate.
func (c *OverpassClient) Search(ctx context.Context, coord geo.Coordinate) ([]Shop, error) {
	query := c.buildQuery(coord)

	buildRequest := func() (*http.Request, error) {
		form := url.Values{}
		form.Set("data", query)

		req, err := http.NewRequest(http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	resp, err := c.httpc.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	shops := make([]Shop, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		shop, err := mapElement(el)
		if err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, nil
}

// buildQuery produces the Overpass QL body: one clause per element type over
// the fixed amenity allow-list, asking for center points of area features.
func (c *OverpassClient) buildQuery(coord geo.Coordinate) string {
	filter := fmt.Sprintf(`["amenity"~"^(%s)$"]`, strings.Join(c.amenities, "|"))
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", c.radiusM, coord.Lat, coord.Lon)

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, elemType := range []string{"node", "way", "relation"} {
		b.WriteString(elemType)
		b.WriteString(around)
		b.WriteString(filter)
		b.WriteString(";")
	}
	b.WriteString(");out center;")
	return b.String()
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// mapElement normalizes one Overpass element into a Shop. Nodes carry direct
// coordinates; ways and relations fall back to their nested center. An element
// with neither is malformed input and rejected outright.
func mapElement(el overpassElement) (Shop, error) {
	var coord geo.Coordinate
	switch {
	case el.Lat != nil && el.Lon != nil:
		coord = geo.Coordinate{Lat: *el.Lat, Lon: *el.Lon}
	case el.Center != nil:
		coord = geo.Coordinate{Lat: el.Center.Lat, Lon: el.Center.Lon}
	default:
		return Shop{}, fmt.Errorf("overpass element %s/%d has no coordinates", el.Type, el.ID)
	}

	name := el.Tags["name"]
	if name == "" {
		name = "Coffee shop"
	}

	return Shop{
		ID:          fmt.Sprintf("%s/%d", el.Type, el.ID),
		Coordinate:  coord,
		Name:        name,
		Description: Describe(el.Tags),
	}, nil
}
