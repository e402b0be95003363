package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/caffind/caffind/internal/geo"
)

// Refresher is the orchestrator surface the scheduler drives.
type Refresher interface {
	Coordinate() (geo.Coordinate, bool)
	Refresh(coord geo.Coordinate) uint64
}

// Scheduler periodically re-runs the refresh for the current search center so
// the stored weather and shop snapshots stay fresh between user actions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
}

// New creates a new Scheduler.
func New(refresher Refresher, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		coord, ok := s.refresher.Coordinate()
		if !ok {
			log.Println("scheduler: no search center yet; skipping refresh")
			return
		}

		gen := s.refresher.Refresh(coord)
		log.Printf("scheduler: triggered background refresh for %s (gen %d)", coord, gen)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
