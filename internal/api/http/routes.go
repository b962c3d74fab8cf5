package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Handlers holds the components the HTTP API serves.
type Handlers struct {
	Service   *weather.Service
	Dashboard *dashboard.Dashboard
	Settings  *store.Settings
	Language  string
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h Handlers) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", h.getWeather)
	v1.Get("/locations/search", h.searchLocations)
	v1.Get("/locations/selected", h.getSelected)
	v1.Put("/locations/selected", h.putSelected)
	v1.Get("/dashboard", h.getDashboard)
	v1.Get("/conditions/:code", h.getCondition)
	v1.Get("/preferences", h.getPreferences)
	v1.Put("/preferences", h.putPreferences)
}

// weatherResponse is the wire form of a weather query state.
type weatherResponse struct {
	Status    query.Status         `json:"status"`
	Data      *weather.WeatherData `json:"data,omitempty"`
	Summary   *weather.Summary     `json:"summary,omitempty"`
	Unit      string               `json:"unit,omitempty"`
	Stale     bool                 `json:"stale"`
	UpdatedAt *time.Time           `json:"updatedAt,omitempty"`
}

func (h Handlers) getWeather(c *fiber.Ctx) error {
	coord, err := parseCoordinateQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	unit, err := h.resolveUnit(c)
	if err != nil {
		return toHTTPError(err)
	}

	st := h.Service.Weather(c.UserContext(), coord, c.Query("name"))
	if st.Status == query.StatusError {
		return toHTTPError(st.Err)
	}

	resp := weatherResponse{Status: st.Status, Stale: st.Stale}
	if st.HasData() {
		data := st.Data.InUnit(unit)
		summary := weather.Summarize(data.Current.WeatherCode, data.Current.IsDay, h.language(c))
		updated := st.UpdatedAt
		resp.Data = &data
		resp.Summary = &summary
		resp.Unit = string(unit)
		resp.UpdatedAt = &updated
	}
	return c.JSON(resp)
}

func (h Handlers) searchLocations(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))

	st := h.Service.Search(c.UserContext(), q)
	if st.Status == query.StatusError {
		return toHTTPError(st.Err)
	}

	results := st.Data
	if results == nil {
		results = []weather.SearchResult{}
	}
	return c.JSON(fiber.Map{
		"status":  st.Status,
		"results": results,
	})
}

func (h Handlers) getSelected(c *fiber.Ctx) error {
	loc, source, err := h.Dashboard.Location()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{
		"location": loc,
		"source":   source,
	})
}

func (h Handlers) putSelected(c *fiber.Ctx) error {
	var loc weather.SelectedLocation
	if err := c.BodyParser(&loc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Dashboard.Select(loc); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{
		"location": loc,
		"source":   dashboard.SourceSelection,
	})
}

func (h Handlers) getDashboard(c *fiber.Ctx) error {
	unit, err := h.resolveUnit(c)
	if err != nil {
		return toHTTPError(err)
	}

	if c.QueryBool("refresh", false) {
		if err := h.Dashboard.Refresh(); err != nil && !errors.Is(err, dashboard.ErrNoLocation) {
			return toHTTPError(err)
		}
	}

	view := h.Dashboard.View(c.UserContext(), c.QueryBool("wait", false))
	if view.Weather != nil {
		converted := view.Weather.InUnit(unit)
		view.Weather = &converted
	}
	return c.JSON(fiber.Map{
		"view": view,
		"unit": unit,
	})
}

func (h Handlers) getCondition(c *fiber.Ctx) error {
	code, err := strconv.Atoi(c.Params("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "weather code must be an integer")
	}
	return c.JSON(weather.Summarize(code, c.QueryBool("is_day", true), h.language(c)))
}

func (h Handlers) getPreferences(c *fiber.Ctx) error {
	prefs, err := h.Settings.Load(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(prefs)
}

// preferencesPatch updates only the fields that are present.
type preferencesPatch struct {
	Theme           *store.Theme             `json:"theme"`
	TemperatureUnit *weather.TemperatureUnit `json:"temperatureUnit"`
}

func (h Handlers) putPreferences(c *fiber.Ctx) error {
	var patch preferencesPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	prefs, err := h.Settings.Update(c.UserContext(), patch.Theme, patch.TemperatureUnit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(prefs)
}

// parseCoordinateQuery returns nil when neither lat nor lon is given, which
// disables the weather query.
func parseCoordinateQuery(c *fiber.Ctx) (*weather.Coordinate, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, weather.Invalid(errors.New("lat and lon must be given together"))
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, weather.Invalid(err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, weather.Invalid(err)
	}

	coord := weather.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	return &coord, nil
}

// resolveUnit prefers the unit query parameter over the stored preference.
func (h Handlers) resolveUnit(c *fiber.Ctx) (weather.TemperatureUnit, error) {
	if u := c.Query("unit"); u != "" {
		if err := validate.Var(u, "oneof=celsius fahrenheit"); err != nil {
			return "", weather.Invalid(fmt.Errorf("invalid temperature unit %q", u))
		}
		return weather.TemperatureUnit(u), nil
	}
	return h.Settings.Unit(c.UserContext())
}

func (h Handlers) language(c *fiber.Ctx) string {
	return c.Query("lang", h.Language)
}

// toHTTPError maps domain errors onto HTTP statuses.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, dashboard.ErrNoLocation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrCircuitOpen):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, weather.ErrNetwork), errors.Is(err, weather.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
