package datasource

import (
	"errors"
	"fmt"
	"net/http"

	"weather-dashboard/models"
)

// FetchError is returned when a request to the weather provider fails,
// either in transport or with a non-success status
type FetchError struct {
	Op         string              // "current", "forecast" or "places"
	City       string              // requested city, empty for coordinate lookups
	Coords     *models.Coordinates // requested coordinates, nil for city lookups
	StatusCode int                 // HTTP status, 0 on transport failure
	Err        error
}

func (e *FetchError) Error() string {
	target := e.City
	if e.Coords != nil {
		target = fmt.Sprintf("%.4f,%.4f", e.Coords.Lat, e.Coords.Lon)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s for %q: status %d: %v", e.Op, target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s for %q: %v", e.Op, target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFound reports whether the provider did not recognise the location
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// NewFetchError builds a FetchError for the given query
func NewFetchError(op string, q Query, status int, err error) *FetchError {
	return &FetchError{Op: op, City: q.City, Coords: q.Coords, StatusCode: status, Err: err}
}

// AsFetchError unwraps err to a *FetchError if there is one
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
