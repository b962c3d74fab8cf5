package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestSearchLocationsShortQuerySkipsNetwork(t *testing.T) {
	var hits int32
	srv := serveJSON(t, &hits, http.StatusOK, map[string]any{})
	g := NewOpenMeteoGeocoder(srv.Client(), srv.URL)

	for _, q := range []string{"", "a", "ä"} {
		results, err := g.SearchLocations(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", q, err)
		}
		if results == nil || len(results) != 0 {
			t.Fatalf("expected empty result for %q, got %v", q, results)
		}
	}
	if hits != 0 {
		t.Fatalf("expected no network calls, got %d", hits)
	}
}

func TestSearchLocationsMissingResultsIsEmpty(t *testing.T) {
	srv := serveJSON(t, nil, http.StatusOK, map[string]any{"generationtime_ms": 0.5})
	g := NewOpenMeteoGeocoder(srv.Client(), srv.URL)

	results, err := g.SearchLocations(context.Background(), "Xyzzy")
	if err != nil {
		t.Fatalf("missing results must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %v", results)
	}
}

func TestSearchLocationsMapsCandidates(t *testing.T) {
	var params map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		params = map[string]string{
			"name":     r.URL.Query().Get("name"),
			"count":    r.URL.Query().Get("count"),
			"language": r.URL.Query().Get("language"),
			"format":   r.URL.Query().Get("format"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"name":"Berlin","latitude":52.52437,"longitude":13.41053,"country":"Deutschland","admin1":"Berlin"},
			{"name":"Berlin","latitude":39.79,"longitude":-74.93},
			{"name":"B3","latitude":1,"longitude":1},
			{"name":"B4","latitude":1,"longitude":1},
			{"name":"B5","latitude":1,"longitude":1},
			{"name":"B6","latitude":1,"longitude":1}
		]}`))
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.Client(), srv.URL)
	results, err := g.SearchLocations(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != MaxSearchResults {
		t.Fatalf("expected %d results, got %d", MaxSearchResults, len(results))
	}
	first := results[0]
	if first.Name != "Berlin" || first.Latitude != 52.52437 || first.Longitude != 13.41053 {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Country == nil || *first.Country != "Deutschland" || first.Admin1 == nil || *first.Admin1 != "Berlin" {
		t.Fatalf("optional fields not mapped: %+v", first)
	}
	if results[1].Country != nil || results[1].Admin1 != nil {
		t.Fatalf("absent optional fields must stay nil: %+v", results[1])
	}

	want := map[string]string{"name": "Berlin", "count": "5", "language": "de", "format": "json"}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("param %s = %q, want %q", k, params[k], v)
		}
	}
}

func TestSearchLocationsNonSuccessStatus(t *testing.T) {
	srv := serveJSON(t, nil, http.StatusServiceUnavailable, map[string]any{})
	g := NewOpenMeteoGeocoder(srv.Client(), srv.URL)

	_, err := g.SearchLocations(context.Background(), "Berlin")
	if !errors.Is(err, weather.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	var netErr *weather.NetworkError
	if !errors.As(err, &netErr) || netErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestGoogleGeocoderRequiresKey(t *testing.T) {
	if _, err := NewGoogleGeocoder(""); err == nil {
		t.Fatalf("expected an error without api key")
	}

	g, err := NewGoogleGeocoder("test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	results, err := g.SearchLocations(context.Background(), "a")
	if err != nil || len(results) != 0 {
		t.Fatalf("short query must short-circuit, got %v, %v", results, err)
	}
}
