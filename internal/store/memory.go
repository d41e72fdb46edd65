package store

import (
	"errors"
	"sync"

	"github.com/zenith-desktop/zenith/internal/weather"
)

var (
	// ErrNotFound is returned when no run has been recorded yet.
	ErrNotFound = errors.New("no run recorded")
	// ErrNoSample is returned when the last run did not fetch weather.
	ErrNoSample = errors.New("no weather sample available")
)

// StatusStore is a concurrency-safe holder for the latest run report. Only
// the most recent run is kept.
type StatusStore struct {
	mu     sync.RWMutex
	last   *weather.RunReport
	sample *weather.Sample

	runs     int
	failures int
}

var _ weather.RunRecorder = (*StatusStore)(nil)

// NewStatusStore creates an empty StatusStore.
func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

// Record replaces the latest report. A failed run keeps the previous sample
// so the status API can still serve the last known conditions.
func (s *StatusStore) Record(report weather.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := report
	if report.Sample != nil {
		sample := *report.Sample
		r.Sample = &sample
		s.sample = &sample
	}
	s.last = &r
	s.runs++
	if report.Completed() {
		s.failures = 0
	} else {
		s.failures++
	}
}

// Latest returns a copy of the most recent report.
func (s *StatusStore) Latest() (weather.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return weather.RunReport{}, ErrNotFound
	}
	r := *s.last
	if s.last.Sample != nil {
		sample := *s.last.Sample
		r.Sample = &sample
	}
	return r, nil
}

// LatestSample returns the newest weather sample from any run.
func (s *StatusStore) LatestSample() (weather.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sample == nil {
		return weather.Sample{}, ErrNoSample
	}
	return *s.sample, nil
}

// Counters returns the number of recorded runs and consecutive failures.
func (s *StatusStore) Counters() (runs, consecutiveFailures int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs, s.failures
}
