package store

import (
	"errors"
	"testing"
	"time"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/poi"
)

func snapAt(coord geo.Coordinate, ts time.Time) Snapshot {
	return Snapshot{
		Coordinate: coord,
		Shops:      []poi.Shop{{ID: "node/1", Name: "Blue Cup"}},
		Timestamp:  ts,
	}
}

func TestGetLatestReturnsNewest(t *testing.T) {
	s := NewMemoryStore(0, 0)
	coord := geo.Coordinate{Lat: 10, Lon: 106}
	now := time.Now().UTC()

	s.SaveSnapshot(coord, snapAt(coord, now.Add(-time.Hour)))
	s.SaveSnapshot(coord, snapAt(coord, now))

	latest, err := s.GetLatest(coord)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !latest.Timestamp.Equal(now) {
		t.Fatalf("expected newest snapshot, got %v", latest.Timestamp)
	}
}

func TestGetLatestUnknownCoordinate(t *testing.T) {
	s := NewMemoryStore(0, 0)

	_, err := s.GetLatest(geo.Coordinate{Lat: 1, Lon: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	coord := geo.Coordinate{Lat: 10, Lon: 106}
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		s.SaveSnapshot(coord, snapAt(coord, base.Add(time.Duration(i)*time.Minute)))
	}

	snaps, err := s.GetRange(coord, base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected retention to keep 2 snapshots, got %d", len(snaps))
	}
	if !snaps[0].Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("expected oldest entries dropped, first is %v", snaps[0].Timestamp)
	}
}

func TestGetRangeBounds(t *testing.T) {
	s := NewMemoryStore(0, 0)
	coord := geo.Coordinate{Lat: 10, Lon: 106}
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		s.SaveSnapshot(coord, snapAt(coord, base.Add(time.Duration(i)*time.Hour)))
	}

	snaps, err := s.GetRange(coord, base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots in range, got %d", len(snaps))
	}

	_, err = s.GetRange(coord, base.Add(10*time.Hour), base.Add(11*time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty range, got %v", err)
	}
}

func TestCoordinateKeysDoNotCollide(t *testing.T) {
	s := NewMemoryStore(0, 0)
	a := geo.Coordinate{Lat: 10.77, Lon: 106.70}
	b := geo.Coordinate{Lat: 10.78, Lon: 106.70}

	s.SaveSnapshot(a, snapAt(a, time.Now().UTC()))

	if _, err := s.GetLatest(b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for the other coordinate, got %v", err)
	}
}
