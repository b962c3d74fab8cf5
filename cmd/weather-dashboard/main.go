package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	forecaster := providers.NewOpenMeteoProviderWithURL(httpClient, cfg.ForecastBaseURL)

	geocoder, err := newGeocoder(cfg, httpClient)
	if err != nil {
		log.Fatalf("failed to create geocoder: %v", err)
	}

	opts := weather.DefaultServiceOptions()
	opts.WeatherStaleTime = cfg.WeatherStaleTime
	opts.SearchStaleTime = cfg.SearchStaleTime
	opts.WeatherRetry = cfg.WeatherRetry
	opts.Timeout = cfg.HTTPTimeout * time.Duration(cfg.WeatherRetry+1)
	service := weather.NewService(forecaster, geocoder, opts)

	prefStore, err := openPreferences(cfg)
	if err != nil {
		log.Fatalf("failed to open preference store: %v", err)
	}
	defer prefStore.Close()

	dash := dashboard.New(service, session.NewSelection(), cfg.DefaultLocation, cfg.DescriptionLanguage)

	// Janitor that evicts cache entries nobody asked for within the GC window.
	sched := scheduler.New(cfg.CacheSweepInterval, cfg.CacheGCTime, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout * time.Duration(cfg.WeatherRetry+2),
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-dashboard",
			"geocoder": service.GeocoderName(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Handlers{
		Service:   service,
		Dashboard: dash,
		Settings:  store.NewSettings(prefStore),
		Language:  cfg.DescriptionLanguage,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newGeocoder(cfg *config.AppConfig, httpClient *http.Client) (weather.Geocoder, error) {
	if cfg.GeocoderProvider == config.GeocoderGoogle {
		return providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	}
	return providers.NewOpenMeteoGeocoder(httpClient, cfg.GeocodingBaseURL), nil
}

// openPreferences picks Postgres when a database URL is configured, then
// SQLite, then memory.
func openPreferences(cfg *config.AppConfig) (store.Store, error) {
	if cfg.PreferencesDatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()
		log.Printf("INFO: storing preferences in postgres")
		return store.NewPostgres(ctx, cfg.PreferencesDatabaseURL)
	}
	if cfg.PreferencesSQLitePath != "" {
		log.Printf("INFO: storing preferences in %s", cfg.PreferencesSQLitePath)
		return store.NewSQLite(cfg.PreferencesSQLitePath)
	}
	log.Printf("INFO: storing preferences in memory")
	return store.NewMemoryStore(), nil
}
