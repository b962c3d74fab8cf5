package weather

import (
	"fmt"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Series bounds enforced by normalization.
const (
	MaxHourlyEntries = 48
	MaxDailyEntries  = 7
)

// DefaultLocationName labels weather fetched without an explicit place name.
const DefaultLocationName = "Current Location"

// Coordinate identifies a point on the globe. The exact value is the weather cache key.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Key renders the coordinate for logs.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.4f:%.4f", c.Latitude, c.Longitude)
}

// Current holds the current conditions as reported by the provider.
type Current struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	Visibility    float64 `json:"visibility"`
	WeatherCode   int     `json:"weatherCode"`
	IsDay         bool    `json:"isDay"`
	Time          string  `json:"time"` // ISO-8601, provider local time
}

// HourlySeries is a set of parallel sequences aligned by index.
type HourlySeries struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature"`
	WeatherCode   []int     `json:"weatherCode"`
	Precipitation []float64 `json:"precipitation"`
}

// Len returns the number of hourly entries.
func (h HourlySeries) Len() int {
	return len(h.Time)
}

// DailySeries is a set of parallel sequences aligned by index; index 0 is today.
type DailySeries struct {
	Time             []string  `json:"time"`
	TemperatureMax   []float64 `json:"temperatureMax"`
	TemperatureMin   []float64 `json:"temperatureMin"`
	WeatherCode      []int     `json:"weatherCode"`
	Sunrise          []string  `json:"sunrise"`
	Sunset           []string  `json:"sunset"`
	UVIndexMax       []float64 `json:"uvIndexMax"`
	PrecipitationSum []float64 `json:"precipitationSum"`
}

// Len returns the number of daily entries.
func (d DailySeries) Len() int {
	return len(d.Time)
}

// Place names the location a WeatherData was fetched for.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherData is the normalized aggregate produced by a single successful fetch.
// It is never mutated after creation; a refetch replaces it wholesale.
type WeatherData struct {
	Current  Current      `json:"current"`
	Hourly   HourlySeries `json:"hourly"`
	Daily    DailySeries  `json:"daily"`
	Location Place        `json:"location"`
}

// Named returns a copy of d labelled with name. An empty name keeps the label.
func (d WeatherData) Named(name string) WeatherData {
	if name == "" {
		return d
	}
	d.Location.Name = name
	return d
}

// SearchResult is a geocoding candidate.
type SearchResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   *string `json:"country,omitempty"`
	Admin1    *string `json:"admin1,omitempty"`
}

// Selection converts the candidate into a location the user can select.
func (r SearchResult) Selection() SelectedLocation {
	return SelectedLocation{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Name:      r.Name,
	}
}

// SelectedLocation is the location explicitly chosen by the user.
type SelectedLocation struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Name      string  `json:"name" validate:"required"`
}

// Coordinate returns the selected point.
func (l SelectedLocation) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// TemperatureUnit is the unit temperatures are presented in.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// InUnit returns a copy of d with every temperature expressed in unit.
// Provider data is always Celsius; the receiver is left untouched.
func (d WeatherData) InUnit(unit TemperatureUnit) WeatherData {
	if unit != Fahrenheit {
		return d
	}

	out := d
	out.Current.Temperature = toFahrenheit(d.Current.Temperature)
	out.Current.FeelsLike = toFahrenheit(d.Current.FeelsLike)
	out.Hourly.Temperature = mapFloats(d.Hourly.Temperature, toFahrenheit)
	out.Daily.TemperatureMax = mapFloats(d.Daily.TemperatureMax, toFahrenheit)
	out.Daily.TemperatureMin = mapFloats(d.Daily.TemperatureMin, toFahrenheit)
	return out
}

func toFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func mapFloats(in []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
