package route

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/httpx"
)

func noRetryClient() *httpx.Client {
	return httpx.New("osrm-test", &http.Client{Timeout: 5 * time.Second}, httpx.BackoffConfig{
		MaxRetries:      0,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
}

func TestDirectionsMapsRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// OSRM paths carry lon,lat ordering.
		if !strings.Contains(r.URL.Path, "/route/v1/walking/106.700000,10.770000;106.710000,10.780000") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"code": "Ok", "routes": [{"distance": 1234.5, "duration": 890.1, "geometry": "abc123"}]}`))
	}))
	defer srv.Close()

	client := NewOSRMClient(noRetryClient(), srv.URL)

	from := geo.Coordinate{Lat: 10.77, Lon: 106.70}
	to := geo.Coordinate{Lat: 10.78, Lon: 106.71}

	r, err := client.Directions(context.Background(), from, to, ProfileWalking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.DistanceM != 1234.5 || r.DurationS != 890.1 || r.Geometry != "abc123" {
		t.Errorf("route mapped wrong: %+v", r)
	}
	if r.Profile != ProfileWalking || r.From != from || r.To != to {
		t.Errorf("route metadata wrong: %+v", r)
	}
}

func TestDirectionsNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	client := NewOSRMClient(noRetryClient(), srv.URL)

	_, err := client.Directions(context.Background(), geo.Coordinate{}, geo.Coordinate{Lat: 1, Lon: 1}, ProfileDriving)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestDirectionsRejectsUnknownProfile(t *testing.T) {
	client := NewOSRMClient(noRetryClient(), "http://unused.invalid")

	_, err := client.Directions(context.Background(), geo.Coordinate{}, geo.Coordinate{}, Profile("cycling"))
	if err == nil {
		t.Fatal("expected error for unsupported profile")
	}
}
