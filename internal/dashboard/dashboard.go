// Package dashboard resolves which location the dashboard shows and tracks
// its weather query across selection changes.
package dashboard

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrNoLocation is returned when there is neither a selection nor a default.
var ErrNoLocation = errors.New("no location selected")

// Source tells where the displayed location came from.
type Source string

const (
	SourceNone      Source = ""
	SourceSelection Source = "selection"
	SourceDefault   Source = "default"
)

// View is a point-in-time snapshot of the dashboard.
type View struct {
	Status    query.Status              `json:"status"`
	Source    Source                    `json:"source,omitempty"`
	Location  *weather.SelectedLocation `json:"location,omitempty"`
	Weather   *weather.WeatherData      `json:"weather,omitempty"`
	Summary   *weather.Summary          `json:"summary,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Err       error                     `json:"-"`
	Stale     bool                      `json:"stale"`
	UpdatedAt *time.Time                `json:"updatedAt,omitempty"`
}

// Dashboard follows the selected location, falling back to a configured
// default when nothing has been selected.
type Dashboard struct {
	selection *session.Selection
	fallback  *weather.SelectedLocation
	observer  *query.Observer[weather.Coordinate, weather.WeatherData]
	lang      string
}

// New creates a Dashboard. fallback may be nil, in which case the dashboard
// stays idle until a location is selected.
func New(service *weather.Service, selection *session.Selection, fallback *weather.SelectedLocation, lang string) *Dashboard {
	return &Dashboard{
		selection: selection,
		fallback:  fallback,
		observer:  service.WeatherObserver(),
		lang:      lang,
	}
}

// Select stores loc as the session selection and starts loading its weather.
func (d *Dashboard) Select(loc weather.SelectedLocation) error {
	if err := d.selection.Set(loc); err != nil {
		return err
	}
	d.observer.Set(loc.Coordinate(), true)
	return nil
}

// Location returns the location the dashboard currently shows.
func (d *Dashboard) Location() (weather.SelectedLocation, Source, error) {
	if loc, ok := d.selection.Get(); ok {
		return loc, SourceSelection, nil
	}
	if d.fallback != nil {
		return *d.fallback, SourceDefault, nil
	}
	return weather.SelectedLocation{}, SourceNone, ErrNoLocation
}

// viewAttempts bounds how often View re-resolves the location when a
// concurrent Select moves the observer away from it.
const viewAttempts = 3

// View returns the dashboard state. With wait set it blocks until the pending
// fetch settles or ctx is done. The returned weather always belongs to the
// returned location.
func (d *Dashboard) View(ctx context.Context, wait bool) View {
	for attempt := 1; ; attempt++ {
		loc, source, err := d.Location()
		if err != nil {
			d.observer.Ensure(weather.Coordinate{}, false)
			return View{Status: query.StatusIdle}
		}

		coord := loc.Coordinate()
		d.observer.Ensure(coord, true)
		if wait {
			d.observer.Wait(ctx)
		}

		key, enabled, st := d.observer.Snapshot()
		if enabled && key == coord {
			return d.render(loc, source, st)
		}
		if attempt == viewAttempts || ctx.Err() != nil {
			log.Printf("DEBUG: dashboard: selection kept moving, returning %s without data", coord.Key())
			return View{Status: query.StatusLoading, Source: source, Location: &loc}
		}
	}
}

// Refresh refetches the weather of the displayed location, bypassing the
// freshness window.
func (d *Dashboard) Refresh() error {
	loc, _, err := d.Location()
	if err != nil {
		return err
	}
	d.observer.Ensure(loc.Coordinate(), true)
	d.observer.Refresh()
	return nil
}

func (d *Dashboard) render(loc weather.SelectedLocation, source Source, st query.State[weather.WeatherData]) View {
	v := View{
		Status:   st.Status,
		Source:   source,
		Location: &loc,
		Stale:    st.Stale,
	}
	switch st.Status {
	case query.StatusSuccess:
		data := st.Data.Named(loc.Name)
		summary := weather.Summarize(data.Current.WeatherCode, data.Current.IsDay, d.lang)
		updated := st.UpdatedAt
		v.Weather = &data
		v.Summary = &summary
		v.UpdatedAt = &updated
	case query.StatusError:
		v.Err = st.Err
		v.Error = st.Err.Error()
	}
	return v
}
