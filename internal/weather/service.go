package weather

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/i474232898/weather-dashboard/internal/query"
)

// ServiceOptions configures caching and retries for the two queries.
type ServiceOptions struct {
	WeatherStaleTime time.Duration
	SearchStaleTime  time.Duration
	WeatherRetry     int
	RetryDelay       time.Duration
	Timeout          time.Duration
	Policy           query.Policy
}

// DefaultServiceOptions returns the dashboard defaults: weather is fresh for
// five minutes and retried twice, search results are fresh for ten minutes
// and never retried.
func DefaultServiceOptions() ServiceOptions {
	return ServiceOptions{
		WeatherStaleTime: 5 * time.Minute,
		SearchStaleTime:  10 * time.Minute,
		WeatherRetry:     2,
		RetryDelay:       time.Second,
		Timeout:          30 * time.Second,
		Policy:           query.PolicyBlocking,
	}
}

// Service exposes the forecast and geocoding backends through the query cache.
type Service struct {
	forecaster Forecaster
	geocoder   Geocoder
	policy     query.Policy

	weather *query.Client[Coordinate, WeatherData]
	search  *query.Client[string, []SearchResult]
}

// NewService creates a new Service.
func NewService(forecaster Forecaster, geocoder Geocoder, opts ServiceOptions) *Service {
	s := &Service{
		forecaster: forecaster,
		geocoder:   geocoder,
		policy:     opts.Policy,
	}

	s.weather = query.New(query.Options{
		Name:       "weather",
		StaleTime:  opts.WeatherStaleTime,
		Retry:      opts.WeatherRetry,
		RetryDelay: opts.RetryDelay,
		Retryable:  IsTransient,
		Timeout:    opts.Timeout,
	}, s.fetchWeather)

	s.search = query.New(query.Options{
		Name:      "locations",
		StaleTime: opts.SearchStaleTime,
		Timeout:   opts.Timeout,
	}, s.searchLocations)

	return s
}

// Weather returns the weather state for coord. A nil coordinate disables the
// query: nothing is fetched and the state is idle. The cache is keyed by
// coordinate only, so name just labels the returned data.
func (s *Service) Weather(ctx context.Context, coord *Coordinate, name string) query.State[WeatherData] {
	if coord == nil {
		return s.weather.Query(ctx, Coordinate{}, false, s.policy)
	}

	st := s.weather.Query(ctx, *coord, true, s.policy)
	if st.HasData() {
		st.Data = st.Data.Named(name)
	}
	return st
}

// Search returns the location search state for q. Queries shorter than two
// characters after trimming are disabled.
func (s *Service) Search(ctx context.Context, q string) query.State[[]SearchResult] {
	q = strings.TrimSpace(q)
	enabled := utf8.RuneCountInString(q) >= 2
	return s.search.Query(ctx, q, enabled, s.policy)
}

// WeatherObserver returns an observer over the weather cache.
func (s *Service) WeatherObserver() *query.Observer[Coordinate, WeatherData] {
	return query.NewObserver(s.weather, s.policy)
}

// Sweep drops cache entries older than maxAge from both caches.
func (s *Service) Sweep(maxAge time.Duration) int {
	return s.weather.Sweep(maxAge) + s.search.Sweep(maxAge)
}

// GeocoderName returns the name of the active geocoding backend.
func (s *Service) GeocoderName() string {
	return s.geocoder.Name()
}

func (s *Service) fetchWeather(ctx context.Context, coord Coordinate) (WeatherData, error) {
	log.Printf("DEBUG: fetching weather for %s", coord.Key())
	data, err := s.forecaster.FetchWeather(ctx, coord, "")
	if err != nil {
		log.Printf("ERROR: weather fetch failed for %s: %v", coord.Key(), err)
		return WeatherData{}, err
	}
	return data, nil
}

func (s *Service) searchLocations(ctx context.Context, q string) ([]SearchResult, error) {
	log.Printf("DEBUG: searching locations for %q via %s", q, s.geocoder.Name())
	results, err := s.geocoder.SearchLocations(ctx, q)
	if err != nil {
		log.Printf("ERROR: location search failed for %q: %v", q, err)
		return nil, err
	}
	return results, nil
}
