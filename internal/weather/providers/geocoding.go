package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	geocodingBaseURL = "https://geocoding-api.open-meteo.com/v1"

	// MinQueryLength is the shortest query sent to a geocoding backend.
	MinQueryLength = 2
	// MaxSearchResults bounds the candidates returned per query.
	MaxSearchResults = 5

	searchLanguage = "de"
)

// OpenMeteoGeocoder implements weather.Geocoder for the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	name   string
	client *resty.Client
}

// NewOpenMeteoGeocoder creates a geocoder. An empty baseURL uses the public endpoint.
func NewOpenMeteoGeocoder(httpClient *http.Client, baseURL string) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = geocodingBaseURL
	}

	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &OpenMeteoGeocoder{
		name:   "openmeteo geocoding",
		client: client,
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return g.name
}

// SearchLocations returns up to MaxSearchResults candidates for query. Queries
// shorter than MinQueryLength return an empty result without a network call,
// and a response without results is an empty result, not an error.
func (g *OpenMeteoGeocoder) SearchLocations(ctx context.Context, query string) ([]weather.SearchResult, error) {
	if tooShort(query) {
		return []weather.SearchResult{}, nil
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":     query,
			"count":    strconv.Itoa(MaxSearchResults),
			"language": searchLanguage,
			"format":   "json",
		}).
		Get("/search")
	if err != nil {
		return nil, &weather.NetworkError{Op: g.name, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &weather.NetworkError{Op: g.name, StatusCode: resp.StatusCode()}
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   *string `json:"country"`
			Admin1    *string `json:"admin1"`
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, weather.Malformed("decode search results: %v", err)
	}

	results := make([]weather.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		if len(results) == MaxSearchResults {
			break
		}
		results = append(results, weather.SearchResult{
			Name:      r.Name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Country:   r.Country,
			Admin1:    r.Admin1,
		})
	}
	return results, nil
}

func tooShort(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) < MinQueryLength
}
