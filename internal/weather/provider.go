package weather

import (
	"context"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Forecaster abstracts the forecast data source.
type Forecaster interface {
	FetchWeather(ctx context.Context, coord Coordinate, name string) (WeatherData, error)
}

// Geocoder abstracts the place-name search backend.
type Geocoder interface {
	Name() string
	SearchLocations(ctx context.Context, query string) ([]SearchResult, error)
}

// Validate checks that the coordinate is within range.
func (c Coordinate) Validate() error {
	if err := validate.Struct(c); err != nil {
		return Invalid(err)
	}
	return nil
}

// Validate checks the selected location.
func (l SelectedLocation) Validate() error {
	if err := validate.Struct(l); err != nil {
		return Invalid(err)
	}
	return nil
}
