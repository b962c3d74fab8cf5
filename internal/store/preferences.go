package store

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Preference keys.
const (
	KeyTheme           = "theme"
	KeyTemperatureUnit = "temperatureUnit"
)

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Preferences is the full set of user preferences with defaults applied.
type Preferences struct {
	Theme           Theme                   `json:"theme"`
	TemperatureUnit weather.TemperatureUnit `json:"temperatureUnit"`
}

// DefaultPreferences returns the values used for keys that were never set.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:           ThemeSystem,
		TemperatureUnit: weather.Celsius,
	}
}

const (
	themeRule = "oneof=light dark system"
	unitRule  = "oneof=celsius fahrenheit"
)

var validate = validator.New()

// Settings reads and writes typed preferences on top of a Store.
type Settings struct {
	store Store
}

// NewSettings creates Settings backed by s.
func NewSettings(s Store) *Settings {
	return &Settings{store: s}
}

// Load returns all preferences. Unset or unrecognised stored values fall back
// to their defaults.
func (s *Settings) Load(ctx context.Context) (Preferences, error) {
	prefs := DefaultPreferences()

	raw, err := s.store.All(ctx)
	if err != nil {
		return prefs, fmt.Errorf("load preferences: %w", err)
	}

	if v, ok := raw[KeyTheme]; ok && validate.Var(v, themeRule) == nil {
		prefs.Theme = Theme(v)
	}
	if v, ok := raw[KeyTemperatureUnit]; ok && validate.Var(v, unitRule) == nil {
		prefs.TemperatureUnit = weather.TemperatureUnit(v)
	}
	return prefs, nil
}

// Save validates and stores every field of p.
// Nothing is written unless every field is valid.
func (s *Settings) Save(ctx context.Context, p Preferences) error {
	if err := checkTheme(p.Theme); err != nil {
		return err
	}
	if err := checkUnit(p.TemperatureUnit); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyTheme, string(p.Theme)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	if err := s.store.Set(ctx, KeyTemperatureUnit, string(p.TemperatureUnit)); err != nil {
		return fmt.Errorf("save temperature unit: %w", err)
	}
	return nil
}

// Update applies the non-nil fields on top of the stored preferences and saves
// the result. An invalid field rejects the whole update.
func (s *Settings) Update(ctx context.Context, theme *Theme, unit *weather.TemperatureUnit) (Preferences, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return p, err
	}
	if theme != nil {
		p.Theme = *theme
	}
	if unit != nil {
		p.TemperatureUnit = *unit
	}
	if err := s.Save(ctx, p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

// Theme returns the stored theme or ThemeSystem.
func (s *Settings) Theme(ctx context.Context) (Theme, error) {
	p, err := s.Load(ctx)
	return p.Theme, err
}

// SetTheme stores the theme.
func (s *Settings) SetTheme(ctx context.Context, t Theme) error {
	if err := checkTheme(t); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyTheme, string(t))
}

// Unit returns the stored temperature unit or Celsius.
func (s *Settings) Unit(ctx context.Context) (weather.TemperatureUnit, error) {
	p, err := s.Load(ctx)
	return p.TemperatureUnit, err
}

// SetUnit stores the temperature unit.
func (s *Settings) SetUnit(ctx context.Context, u weather.TemperatureUnit) error {
	if err := checkUnit(u); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyTemperatureUnit, string(u))
}

func checkTheme(t Theme) error {
	if validate.Var(string(t), themeRule) != nil {
		return weather.Invalid(fmt.Errorf("invalid theme %q", t))
	}
	return nil
}

func checkUnit(u weather.TemperatureUnit) error {
	if validate.Var(string(u), unitRule) != nil {
		return weather.Invalid(fmt.Errorf("invalid temperature unit %q", u))
	}
	return nil
}
