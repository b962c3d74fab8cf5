package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	forecastBaseURL = "https://api.open-meteo.com/v1"

	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,weather_code,surface_pressure,wind_speed_10m,wind_direction_10m,visibility"
	hourlyFields  = "temperature_2m,weather_code,precipitation"
	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min,sunrise,sunset,uv_index_max,precipitation_sum"

	// Open-Meteo reports local times without an offset when timezone=auto.
	localTimeLayout = "2006-01-02T15:04"
)

// OpenMeteoProvider implements weather.Forecaster for the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	endpoint endpoint
}

// NewOpenMeteoProvider creates a provider against the public endpoint.
func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return NewOpenMeteoProviderWithURL(client, forecastBaseURL)
}

// NewOpenMeteoProviderWithURL creates a provider with a custom base URL.
func NewOpenMeteoProviderWithURL(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = forecastBaseURL
	}
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: newEndpoint("openmeteo forecast", client),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchWeather fetches current conditions, 48 hours and 7 days of forecast for
// coord and normalizes them. An empty name is reported as the current location.
func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, coord weather.Coordinate, name string) (weather.WeatherData, error) {
	if err := coord.Validate(); err != nil {
		return weather.WeatherData{}, err
	}
	if name == "" {
		name = weather.DefaultLocationName
	}

	resp, err := p.endpoint.get(ctx, p.forecastURL(coord))
	if err != nil {
		return weather.WeatherData{}, err
	}
	defer resp.Body.Close()

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherData{}, weather.Malformed("decode forecast: %v", err)
	}

	return payload.normalize(coord, name)
}

func (p *OpenMeteoProvider) forecastURL(coord weather.Coordinate) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	values.Set("current", currentFields)
	values.Set("hourly", hourlyFields)
	values.Set("daily", dailyFields)
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(weather.MaxDailyEntries))

	return fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode())
}

type forecastPayload struct {
	Current *currentPayload `json:"current"`
	Hourly  *hourlyPayload  `json:"hourly"`
	Daily   *dailyPayload   `json:"daily"`
}

type currentPayload struct {
	Time                *string  `json:"time"`
	Temperature         *float64 `json:"temperature_2m"`
	RelativeHumidity    *float64 `json:"relative_humidity_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	IsDay               *int     `json:"is_day"`
	WeatherCode         *int     `json:"weather_code"`
	SurfacePressure     *float64 `json:"surface_pressure"`
	WindSpeed           *float64 `json:"wind_speed_10m"`
	WindDirection       *float64 `json:"wind_direction_10m"`
	Visibility          *float64 `json:"visibility"`
}

type hourlyPayload struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m"`
	WeatherCode   []int     `json:"weather_code"`
	Precipitation []float64 `json:"precipitation"`
}

type dailyPayload struct {
	Time             []string  `json:"time"`
	WeatherCode      []int     `json:"weather_code"`
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	TemperatureMin   []float64 `json:"temperature_2m_min"`
	Sunrise          []string  `json:"sunrise"`
	Sunset           []string  `json:"sunset"`
	UVIndexMax       []float64 `json:"uv_index_max"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
}

func (p forecastPayload) normalize(coord weather.Coordinate, name string) (weather.WeatherData, error) {
	switch {
	case p.Current == nil:
		return weather.WeatherData{}, weather.Malformed("missing current object")
	case p.Hourly == nil:
		return weather.WeatherData{}, weather.Malformed("missing hourly object")
	case p.Daily == nil:
		return weather.WeatherData{}, weather.Malformed("missing daily object")
	}

	if missing := p.Current.missing(); len(missing) > 0 {
		return weather.WeatherData{}, weather.Malformed("current is missing %s", strings.Join(missing, ", "))
	}

	h := p.Hourly
	if !sameLength(len(h.Time), len(h.Temperature), len(h.WeatherCode), len(h.Precipitation)) {
		return weather.WeatherData{}, weather.Malformed("hourly series have different lengths")
	}
	d := p.Daily
	if !sameLength(len(d.Time), len(d.WeatherCode), len(d.TemperatureMax), len(d.TemperatureMin),
		len(d.Sunrise), len(d.Sunset), len(d.UVIndexMax), len(d.PrecipitationSum)) {
		return weather.WeatherData{}, weather.Malformed("daily series have different lengths")
	}

	c := p.Current
	start := hourlyStart(h.Time, *c.Time)
	const hours, days = weather.MaxHourlyEntries, weather.MaxDailyEntries

	return weather.WeatherData{
		Current: weather.Current{
			Temperature:   *c.Temperature,
			FeelsLike:     *c.ApparentTemperature,
			Humidity:      *c.RelativeHumidity,
			Pressure:      *c.SurfacePressure,
			WindSpeed:     *c.WindSpeed,
			WindDirection: *c.WindDirection,
			Visibility:    *c.Visibility,
			WeatherCode:   *c.WeatherCode,
			IsDay:         *c.IsDay == 1,
			Time:          *c.Time,
		},
		Hourly: weather.HourlySeries{
			Time:          common.Window(h.Time, start, hours),
			Temperature:   common.Window(h.Temperature, start, hours),
			WeatherCode:   common.Window(h.WeatherCode, start, hours),
			Precipitation: common.Window(h.Precipitation, start, hours),
		},
		Daily: weather.DailySeries{
			Time:             common.Window(d.Time, 0, days),
			TemperatureMax:   common.Window(d.TemperatureMax, 0, days),
			TemperatureMin:   common.Window(d.TemperatureMin, 0, days),
			WeatherCode:      common.Window(d.WeatherCode, 0, days),
			Sunrise:          common.Window(d.Sunrise, 0, days),
			Sunset:           common.Window(d.Sunset, 0, days),
			UVIndexMax:       common.Window(d.UVIndexMax, 0, days),
			PrecipitationSum: common.Window(d.PrecipitationSum, 0, days),
		},
		Location: weather.Place{
			Name:      name,
			Latitude:  coord.Latitude,
			Longitude: coord.Longitude,
		},
	}, nil
}

func (c *currentPayload) missing() []string {
	var out []string
	check := func(field string, present bool) {
		if !present {
			out = append(out, field)
		}
	}
	check("time", c.Time != nil)
	check("temperature_2m", c.Temperature != nil)
	check("relative_humidity_2m", c.RelativeHumidity != nil)
	check("apparent_temperature", c.ApparentTemperature != nil)
	check("is_day", c.IsDay != nil)
	check("weather_code", c.WeatherCode != nil)
	check("surface_pressure", c.SurfacePressure != nil)
	check("wind_speed_10m", c.WindSpeed != nil)
	check("wind_direction_10m", c.WindDirection != nil)
	check("visibility", c.Visibility != nil)
	return out
}

func sameLength(n int, rest ...int) bool {
	for _, m := range rest {
		if m != n {
			return false
		}
	}
	return true
}

// hourlyStart returns the index of the first hour at or after the observation
// hour. Unparseable times fall back to the start of the series.
func hourlyStart(times []string, observed string) int {
	obs, err := time.Parse(localTimeLayout, observed)
	if err != nil {
		return 0
	}
	hour := obs.Truncate(time.Hour)

	for i, s := range times {
		ts, err := time.Parse(localTimeLayout, s)
		if err != nil {
			return 0
		}
		if !ts.Before(hour) {
			return i
		}
	}
	return len(times)
}
