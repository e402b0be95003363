package store

import (
	"errors"
	"sync"
	"time"

	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/poi"
	"github.com/caffind/caffind/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a coordinate.
	ErrNotFound = errors.New("no data for coordinate")
)

// Snapshot is a completed refresh result for one search center: whatever the
// shop and weather fetches produced, stamped with when they landed.
type Snapshot struct {
	Coordinate geo.Coordinate    `json:"coordinate"`
	Shops      []poi.Shop        `json:"shops"`
	Weather    *weather.Snapshot `json:"weather,omitempty"`
	Timestamp  time.Time         `json:"timestamp"` // always UTC
}

// snapshotHistory holds a time-ordered list of snapshots for a coordinate.
type snapshotHistory struct {
	snapshots []Snapshot
}

// MemoryStore is a concurrency-safe in-memory history of refresh snapshots.
type MemoryStore struct {
	mu sync.RWMutex

	// key: coordinate key, value: history
	data map[string]*snapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per coordinate
	maxAge     time.Duration // optional max age for snapshots
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*snapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveSnapshot appends a new snapshot for a coordinate and enforces retention.
func (s *MemoryStore) SaveSnapshot(coord geo.Coordinate, snapshot Snapshot) {
	key := coord.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &snapshotHistory{}
		s.data[key] = history
	}

	history.snapshots = append(history.snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.snapshots) > s.maxHistory {
		over := len(history.snapshots) - s.maxHistory
		history.snapshots = history.snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.snapshots); i++ {
			if !history.snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.snapshots = history.snapshots[i:]
		}
	}
}

// GetLatest returns the most recent snapshot for a coordinate.
func (s *MemoryStore) GetLatest(coord geo.Coordinate) (Snapshot, error) {
	key := coord.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.snapshots) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return history.snapshots[len(history.snapshots)-1], nil
}

// GetRange returns all snapshots for a coordinate between from and to (inclusive).
func (s *MemoryStore) GetRange(coord geo.Coordinate, from, to time.Time) ([]Snapshot, error) {
	key := coord.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []Snapshot
	for _, snap := range history.snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
