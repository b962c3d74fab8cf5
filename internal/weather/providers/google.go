package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errNoGoogleKey = errors.New("google geocoder api key is not configured")

// GoogleGeocoder implements weather.Geocoder on top of the Google geocoding API.
// It resolves a query to a single best candidate.
type GoogleGeocoder struct {
	name    string
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder configures the geocoding library with apiKey.
// The library keeps the key in a package variable, so only one key per process is supported.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	if apiKey == "" {
		return nil, errNoGoogleKey
	}
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		name:    "google geocoding",
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}, nil
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

type googleLookup struct {
	result weather.SearchResult
	found  bool
	err    error
}

// SearchLocations forward-geocodes query and enriches the hit with its
// country and region.
func (g *GoogleGeocoder) SearchLocations(ctx context.Context, query string) ([]weather.SearchResult, error) {
	if tooShort(query) {
		return []weather.SearchResult{}, nil
	}

	// The library has no context support; run it aside and stop waiting on cancellation.
	ch := make(chan googleLookup, 1)
	go func() {
		ch <- g.lookup(query)
	}()

	select {
	case <-ctx.Done():
		return nil, &weather.NetworkError{Op: g.name, Err: ctx.Err()}
	case r := <-ch:
		if r.err != nil {
			return nil, &weather.NetworkError{Op: g.name, Err: r.err}
		}
		if !r.found {
			return []weather.SearchResult{}, nil
		}
		return []weather.SearchResult{r.result}, nil
	}
}

func (g *GoogleGeocoder) lookup(query string) googleLookup {
	loc, err := g.forward(geocoder.Address{City: query})
	if err != nil {
		if isNoResults(err) {
			return googleLookup{}
		}
		return googleLookup{err: err}
	}

	result := weather.SearchResult{
		Name:      query,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}

	addresses, err := g.reverse(loc)
	if err == nil && len(addresses) > 0 {
		a := addresses[0]
		if a.City != "" {
			result.Name = a.City
		}
		if a.Country != "" {
			result.Country = &a.Country
		}
		if a.State != "" {
			result.Admin1 = &a.State
		}
	}

	return googleLookup{result: result, found: true}
}

// isNoResults reports whether err is the library's ZERO_RESULTS status, which
// is an empty answer rather than a failure.
func isNoResults(err error) bool {
	return common.HasAny(strings.ToLower(err.Error()), "zero_results", "no results", "not found")
}
