package query

import "time"

// Status is the lifecycle of a query as seen by its consumer.
type Status string

const (
	// StatusIdle means the query is disabled: nothing was fetched and nothing failed.
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the observable result of a query.
type State[V any] struct {
	Status    Status
	Data      V
	Err       error
	UpdatedAt time.Time
	// Stale is set when Data is older than the freshness window.
	Stale bool
}

// IsLoading reports whether a fetch is pending.
func (s State[V]) IsLoading() bool {
	return s.Status == StatusLoading
}

// HasData reports whether Data holds a fetched value.
func (s State[V]) HasData() bool {
	return s.Status == StatusSuccess
}

func idle[V any]() State[V] {
	return State[V]{Status: StatusIdle}
}

func failed[V any](err error) State[V] {
	return State[V]{Status: StatusError, Err: err}
}

func succeeded[V any](e entry[V], stale bool) State[V] {
	return State[V]{
		Status:    StatusSuccess,
		Data:      e.value,
		UpdatedAt: e.fetchedAt,
		Stale:     stale,
	}
}
