package scheduler

import (
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper drops cached entries older than maxAge and reports how many went.
type Sweeper interface {
	Sweep(maxAge time.Duration) int
}

// Scheduler periodically evicts unused entries from the query caches.
// It never refreshes data; fetching stays driven by requests.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	maxAge    time.Duration
}

// New creates a new Scheduler.
func New(interval, maxAge time.Duration, sweeper Sweeper) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		maxAge:    maxAge,
	}
}

// Start schedules the eviction job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		return errors.New("scheduler: no cache to sweep")
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single eviction pass.
func (s *Scheduler) RunOnce() {
	removed := s.sweeper.Sweep(s.maxAge)
	if removed > 0 {
		log.Printf("INFO: scheduler: evicted %d cache entries older than %s", removed, s.maxAge)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
