package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Geocoder backends.
const (
	GeocoderOpenMeteo = "openmeteo"
	GeocoderGoogle    = "google"
)

type AppConfig struct {
	Port string `validate:"required"`

	// HTTPTimeout bounds every outbound provider request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	ForecastBaseURL  string `validate:"required,url"`
	GeocodingBaseURL string `validate:"required,url"`

	GeocoderProvider     string `validate:"oneof=openmeteo google"`
	GoogleGeocoderAPIKey string `validate:"required_if=GeocoderProvider google"`

	// Query cache.
	WeatherStaleTime   time.Duration `validate:"gt=0"`
	SearchStaleTime    time.Duration `validate:"gt=0"`
	WeatherRetry       int           `validate:"gte=0"`
	CacheGCTime        time.Duration `validate:"gt=0"`
	CacheSweepInterval time.Duration `validate:"gt=0"`

	// DefaultLocation is shown until the user selects one. Nil disables it.
	DefaultLocation *weather.SelectedLocation

	// Preference persistence. DatabaseURL takes precedence over SQLitePath;
	// with neither set preferences are kept in memory. PREFERENCES_SQLITE_PATH=none
	// turns SQLite off.
	PreferencesDatabaseURL string
	PreferencesSQLitePath  string

	DescriptionLanguage string `validate:"oneof=en de"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	var err error
	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1")
	cfg.GeocodingBaseURL = getenvDefault("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com/v1")
	cfg.GeocoderProvider = getenvDefault("GEOCODER_PROVIDER", GeocoderOpenMeteo)
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	if cfg.WeatherStaleTime, err = getenvDuration("WEATHER_STALE_TIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SearchStaleTime, err = getenvDuration("SEARCH_STALE_TIME", 10*time.Minute); err != nil {
		return nil, err
	}
	cfg.WeatherRetry = getenvInt("WEATHER_RETRY", 2)
	if cfg.CacheGCTime, err = getenvDuration("CACHE_GC_TIME", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if cfg.DefaultLocation, err = loadDefaultLocation(); err != nil {
		return nil, err
	}

	cfg.PreferencesDatabaseURL = os.Getenv("PREFERENCES_DATABASE_URL")
	if path := getenvDefault("PREFERENCES_SQLITE_PATH", "preferences.db"); path != "none" {
		cfg.PreferencesSQLitePath = path
	}
	cfg.DescriptionLanguage = getenvDefault("DESCRIPTION_LANGUAGE", "en")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadDefaultLocation reads the fallback location. Setting
// DEFAULT_LOCATION_NAME to "none" disables it.
func loadDefaultLocation() (*weather.SelectedLocation, error) {
	name := getenvDefault("DEFAULT_LOCATION_NAME", "Berlin")
	if name == "none" {
		return nil, nil
	}

	lat, err := getenvFloat("DEFAULT_LATITUDE", 52.52)
	if err != nil {
		return nil, err
	}
	lon, err := getenvFloat("DEFAULT_LONGITUDE", 13.405)
	if err != nil {
		return nil, err
	}

	loc := &weather.SelectedLocation{Latitude: lat, Longitude: lon, Name: name}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default location: %w", err)
	}
	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
