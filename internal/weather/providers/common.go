package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errNoHTTPClient = errors.New("http client not configured")

// statusError carries a non-success status out of the circuit breaker.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// endpoint is a remote GET endpoint guarded by a circuit breaker.
type endpoint struct {
	name    string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func newEndpoint(name string, client *http.Client) endpoint {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return endpoint{
		name:    name,
		client:  client,
		circuit: cb,
	}
}

// get executes a single GET. Every failure is returned as a *weather.NetworkError.
// On success the caller owns the response body.
func (e endpoint) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if e.client == nil {
		return nil, &weather.NetworkError{Op: e.name, Err: errNoHTTPClient}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &weather.NetworkError{Op: e.name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	result, err := e.circuit.Execute(func() (interface{}, error) {
		resp, execErr := e.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &statusError{code: resp.StatusCode}
		}

		return resp, nil
	})

	if err != nil {
		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.NetworkError{Op: e.name, Err: fmt.Errorf("%w: %v", weather.ErrCircuitOpen, err)}
		}
		var se *statusError
		if errors.As(err, &se) {
			return nil, &weather.NetworkError{Op: e.name, StatusCode: se.code}
		}
		return nil, &weather.NetworkError{Op: e.name, Err: err}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &weather.NetworkError{Op: e.name, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	return resp, nil
}
