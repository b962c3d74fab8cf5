package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type stubForecaster struct {
	calls int32
	err   error
}

func (s *stubForecaster) FetchWeather(ctx context.Context, coord weather.Coordinate, name string) (weather.WeatherData, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return weather.WeatherData{}, s.err
	}
	return weather.WeatherData{
		Current: weather.Current{Temperature: 20, FeelsLike: 10, WeatherCode: 61, IsDay: true},
		Hourly: weather.HourlySeries{
			Time:          []string{"2025-01-15T12:00"},
			Temperature:   []float64{20},
			WeatherCode:   []int{61},
			Precipitation: []float64{0.4},
		},
		Location: weather.Place{Name: weather.DefaultLocationName, Latitude: coord.Latitude, Longitude: coord.Longitude},
	}, nil
}

type stubGeocoder struct {
	calls int32
	err   error
}

func (s *stubGeocoder) Name() string { return "stub" }

func (s *stubGeocoder) SearchLocations(ctx context.Context, q string) ([]weather.SearchResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	country := "Deutschland"
	return []weather.SearchResult{{Name: q, Latitude: 52.52, Longitude: 13.405, Country: &country}}, nil
}

type testApp struct {
	app        *fiber.App
	forecaster *stubForecaster
	geocoder   *stubGeocoder
}

func newTestApp(t *testing.T, fallback *weather.SelectedLocation) testApp {
	t.Helper()

	f := &stubForecaster{}
	g := &stubGeocoder{}
	opts := weather.DefaultServiceOptions()
	opts.RetryDelay = time.Millisecond
	svc := weather.NewService(f, g, opts)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Handlers{
		Service:   svc,
		Dashboard: dashboard.New(svc, session.NewSelection(), fallback, "en"),
		Settings:  store.NewSettings(store.NewMemoryStore()),
		Language:  "en",
	})
	return testApp{app: app, forecaster: f, geocoder: g}
}

func (a testApp) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func TestWeatherWithoutCoordinatesIsIdle(t *testing.T) {
	a := newTestApp(t, nil)

	status, body := a.do(t, http.MethodGet, "/api/v1/weather", "")
	if status != http.StatusOK || body["status"] != "idle" {
		t.Fatalf("expected idle, got %d %v", status, body)
	}
	if _, ok := body["data"]; ok {
		t.Fatalf("idle state must not carry data")
	}
	if a.forecaster.calls != 0 {
		t.Fatalf("idle query fetched %d times", a.forecaster.calls)
	}
}

func TestWeatherValidation(t *testing.T) {
	a := newTestApp(t, nil)

	for _, target := range []string{
		"/api/v1/weather?lat=52.5",
		"/api/v1/weather?lat=abc&lon=1",
		"/api/v1/weather?lat=91&lon=0",
		"/api/v1/weather?lat=0&lon=181",
		"/api/v1/weather?lat=0&lon=0&unit=kelvin",
	} {
		status, body := a.do(t, http.MethodGet, target, "")
		if status != http.StatusBadRequest || body["error"] != true {
			t.Fatalf("%s: expected 400 error body, got %d %v", target, status, body)
		}
	}
	if a.forecaster.calls != 0 {
		t.Fatalf("invalid requests reached the provider")
	}
}

func TestWeatherReturnsDataAndCaches(t *testing.T) {
	a := newTestApp(t, nil)

	status, body := a.do(t, http.MethodGet, "/api/v1/weather?lat=52.52&lon=13.405&name=Berlin", "")
	if status != http.StatusOK || body["status"] != "success" {
		t.Fatalf("expected success, got %d %v", status, body)
	}
	data := body["data"].(map[string]any)
	if data["location"].(map[string]any)["name"] != "Berlin" {
		t.Fatalf("expected Berlin label, got %v", data["location"])
	}
	summary := body["summary"].(map[string]any)
	if summary["description"] != "Light rain" || summary["icon"] != weather.IconRain {
		t.Fatalf("unexpected summary %v", summary)
	}

	_, body = a.do(t, http.MethodGet, "/api/v1/weather?lat=52.52&lon=13.405&unit=fahrenheit", "")
	current := body["data"].(map[string]any)["current"].(map[string]any)
	if current["temperature"] != 68.0 || body["unit"] != "fahrenheit" {
		t.Fatalf("expected fahrenheit conversion, got %v", current)
	}
	if a.forecaster.calls != 1 {
		t.Fatalf("expected the second request to hit the cache, got %d fetches", a.forecaster.calls)
	}
}

func TestWeatherProviderErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"network":   {&weather.NetworkError{Op: "stub", StatusCode: 500}, http.StatusBadGateway},
		"malformed": {weather.Malformed("missing hourly"), http.StatusBadGateway},
		"circuit":   {&weather.NetworkError{Op: "stub", Err: weather.ErrCircuitOpen}, http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			a := newTestApp(t, nil)
			a.forecaster.err = tc.err

			status, body := a.do(t, http.MethodGet, "/api/v1/weather?lat=1&lon=2", "")
			if status != tc.want || body["error"] != true {
				t.Fatalf("expected %d, got %d %v", tc.want, status, body)
			}
		})
	}
}

func TestSearchLocations(t *testing.T) {
	a := newTestApp(t, nil)

	status, body := a.do(t, http.MethodGet, "/api/v1/locations/search?q=B", "")
	if status != http.StatusOK || body["status"] != "idle" || len(body["results"].([]any)) != 0 {
		t.Fatalf("expected idle empty search, got %d %v", status, body)
	}
	if a.geocoder.calls != 0 {
		t.Fatalf("short query reached the geocoder")
	}

	status, body = a.do(t, http.MethodGet, "/api/v1/locations/search?q=Berlin", "")
	results := body["results"].([]any)
	if status != http.StatusOK || len(results) != 1 {
		t.Fatalf("unexpected search response %d %v", status, body)
	}
	if results[0].(map[string]any)["country"] != "Deutschland" {
		t.Fatalf("expected country in result, got %v", results[0])
	}
}

func TestSearchLocationsError(t *testing.T) {
	a := newTestApp(t, nil)
	a.geocoder.err = &weather.NetworkError{Op: "stub", StatusCode: 503}

	status, _ := a.do(t, http.MethodGet, "/api/v1/locations/search?q=Berlin", "")
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if a.geocoder.calls != 1 {
		t.Fatalf("search must not retry, got %d calls", a.geocoder.calls)
	}
}

func TestSelectedLocation(t *testing.T) {
	a := newTestApp(t, nil)

	if status, _ := a.do(t, http.MethodGet, "/api/v1/locations/selected", ""); status != http.StatusNotFound {
		t.Fatalf("expected 404 without selection, got %d", status)
	}

	status, _ := a.do(t, http.MethodPut, "/api/v1/locations/selected", `{"latitude":95,"longitude":0,"name":"x"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid location, got %d", status)
	}

	status, body := a.do(t, http.MethodPut, "/api/v1/locations/selected", `{"latitude":48.8566,"longitude":2.3522,"name":"Paris"}`)
	if status != http.StatusOK || body["source"] != "selection" {
		t.Fatalf("unexpected put response %d %v", status, body)
	}

	status, body = a.do(t, http.MethodGet, "/api/v1/locations/selected", "")
	if status != http.StatusOK || body["location"].(map[string]any)["name"] != "Paris" {
		t.Fatalf("unexpected selection %d %v", status, body)
	}
}

func TestDashboard(t *testing.T) {
	a := newTestApp(t, &weather.SelectedLocation{Latitude: 52.52, Longitude: 13.405, Name: "Berlin"})

	status, body := a.do(t, http.MethodGet, "/api/v1/dashboard?wait=true", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	view := body["view"].(map[string]any)
	if view["status"] != "success" || view["source"] != "default" {
		t.Fatalf("unexpected view %v", view)
	}
	if view["weather"].(map[string]any)["location"].(map[string]any)["name"] != "Berlin" {
		t.Fatalf("expected Berlin weather, got %v", view["weather"])
	}

	a.do(t, http.MethodPut, "/api/v1/locations/selected", `{"latitude":48.8566,"longitude":2.3522,"name":"Paris"}`)
	_, body = a.do(t, http.MethodGet, "/api/v1/dashboard?wait=true", "")
	view = body["view"].(map[string]any)
	if view["source"] != "selection" || view["location"].(map[string]any)["name"] != "Paris" {
		t.Fatalf("expected Paris selection, got %v", view)
	}
}

func TestDashboardIdleWithoutLocation(t *testing.T) {
	a := newTestApp(t, nil)

	_, body := a.do(t, http.MethodGet, "/api/v1/dashboard?wait=true", "")
	if view := body["view"].(map[string]any); view["status"] != "idle" {
		t.Fatalf("expected idle view, got %v", view)
	}
}

func TestDashboardRefresh(t *testing.T) {
	a := newTestApp(t, &weather.SelectedLocation{Latitude: 52.52, Longitude: 13.405, Name: "Berlin"})

	a.do(t, http.MethodGet, "/api/v1/dashboard?wait=true", "")
	a.do(t, http.MethodGet, "/api/v1/dashboard?wait=true", "")
	if n := atomic.LoadInt32(&a.forecaster.calls); n != 1 {
		t.Fatalf("expected a cached dashboard, got %d fetches", n)
	}

	status, body := a.do(t, http.MethodGet, "/api/v1/dashboard?wait=true&refresh=true", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if view := body["view"].(map[string]any); view["status"] != "success" {
		t.Fatalf("unexpected view %v", view)
	}
	if n := atomic.LoadInt32(&a.forecaster.calls); n != 2 {
		t.Fatalf("refresh must refetch, got %d fetches", n)
	}

	idle := newTestApp(t, nil)
	status, body = idle.do(t, http.MethodGet, "/api/v1/dashboard?refresh=true", "")
	if status != http.StatusOK || body["view"].(map[string]any)["status"] != "idle" {
		t.Fatalf("refresh without a location must stay idle, got %d %v", status, body)
	}
}

func TestConditions(t *testing.T) {
	a := newTestApp(t, nil)

	_, body := a.do(t, http.MethodGet, "/api/v1/conditions/0?is_day=false", "")
	if body["icon"] != weather.IconMoon || body["description"] != "Clear sky" {
		t.Fatalf("unexpected night summary %v", body)
	}

	_, body = a.do(t, http.MethodGet, "/api/v1/conditions/65?lang=de", "")
	if body["description"] != "Starker Regen" || body["icon"] != weather.IconRain {
		t.Fatalf("unexpected German summary %v", body)
	}

	_, body = a.do(t, http.MethodGet, "/api/v1/conditions/999", "")
	if body["description"] != weather.UnknownDescription {
		t.Fatalf("expected unknown description, got %v", body)
	}

	if status, _ := a.do(t, http.MethodGet, "/api/v1/conditions/rain", ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric code, got %d", status)
	}
}

func TestPreferences(t *testing.T) {
	a := newTestApp(t, nil)

	_, body := a.do(t, http.MethodGet, "/api/v1/preferences", "")
	if body["theme"] != "system" || body["temperatureUnit"] != "celsius" {
		t.Fatalf("unexpected defaults %v", body)
	}

	status, body := a.do(t, http.MethodPut, "/api/v1/preferences", `{"theme":"dark"}`)
	if status != http.StatusOK || body["theme"] != "dark" || body["temperatureUnit"] != "celsius" {
		t.Fatalf("unexpected patch result %d %v", status, body)
	}

	if status, _ := a.do(t, http.MethodPut, "/api/v1/preferences", `{"temperatureUnit":"kelvin"}`); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid unit, got %d", status)
	}

	a.do(t, http.MethodPut, "/api/v1/preferences", `{"temperatureUnit":"fahrenheit"}`)
	_, body = a.do(t, http.MethodGet, "/api/v1/weather?lat=1&lon=2", "")
	if body["unit"] != "fahrenheit" {
		t.Fatalf("stored unit must apply to weather, got %v", body["unit"])
	}
}

func TestPreferencesRejectedPatchWritesNothing(t *testing.T) {
	a := newTestApp(t, nil)

	status, body := a.do(t, http.MethodPut, "/api/v1/preferences", `{"theme":"dark","temperatureUnit":"kelvin"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", status, body)
	}
	msg, _ := body["message"].(string)
	if !strings.Contains(msg, `invalid temperature unit "kelvin"`) {
		t.Fatalf("expected a readable message, got %q", msg)
	}

	_, body = a.do(t, http.MethodGet, "/api/v1/preferences", "")
	if body["theme"] != "system" {
		t.Fatalf("rejected patch must not store the theme, got %v", body["theme"])
	}
}
