package session

import (
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Selection holds the location the user picked for this session.
// It is absent until the first Set and is never cleared automatically.
type Selection struct {
	mu       sync.RWMutex
	location *weather.SelectedLocation
}

// NewSelection returns an empty Selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Get returns the selected location and whether one has been set.
func (s *Selection) Get() (weather.SelectedLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.location == nil {
		return weather.SelectedLocation{}, false
	}
	return *s.location, true
}

// Set replaces the selected location. Invalid locations are rejected and
// leave the previous selection in place.
func (s *Selection) Set(loc weather.SelectedLocation) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = &loc
	return nil
}
