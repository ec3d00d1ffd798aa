// Package geo resolves the user's current position.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"weather-dashboard/models"
)

// Timeout bounds a single position request
const Timeout = 5 * time.Second

// Reason classifies why a position could not be obtained
type Reason int

const (
	PermissionDenied Reason = iota + 1
	PositionUnavailable
	TimedOut
	Unsupported
)

func (r Reason) String() string {
	switch r {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case TimedOut:
		return "timeout"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// GeolocationError is returned when the device position cannot be determined
type GeolocationError struct {
	Reason Reason
	Err    error
}

func (e *GeolocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Reason, e.Err)
	}
	return "geolocation " + e.Reason.String()
}

func (e *GeolocationError) Unwrap() error { return e.Err }

// AsGeolocationError unwraps err to a *GeolocationError if there is one
func AsGeolocationError(err error) (*GeolocationError, bool) {
	var ge *GeolocationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Locator obtains the current device position. No position is cached
// between calls.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// Locate calls l with the standard timeout applied. A deadline is reported
// as a TimedOut GeolocationError.
func Locate(ctx context.Context, l Locator) (models.Coordinates, error) {
	if l == nil {
		return models.Coordinates{}, &GeolocationError{Reason: Unsupported}
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	coords, err := l.Locate(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.Coordinates{}, &GeolocationError{Reason: TimedOut, Err: err}
		}
		return models.Coordinates{}, err
	}
	if !coords.Valid() {
		return models.Coordinates{}, &GeolocationError{
			Reason: PositionUnavailable,
			Err:    fmt.Errorf("coordinates out of range: %v,%v", coords.Lat, coords.Lon),
		}
	}
	return coords, nil
}

// Fixed always reports the same position, e.g. a configured fallback location
type Fixed struct {
	Coords models.Coordinates
}

var _ Locator = Fixed{}

func (f Fixed) Locate(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}
	return f.Coords, nil
}

// LocatorFunc adapts a function to the Locator interface
type LocatorFunc func(ctx context.Context) (models.Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (models.Coordinates, error) {
	return f(ctx)
}

// Browser error codes, as reported by the Geolocation API
var browserReasons = map[string]Reason{
	"1":                    PermissionDenied,
	"permission_denied":    PermissionDenied,
	"2":                    PositionUnavailable,
	"position_unavailable": PositionUnavailable,
	"3":                    TimedOut,
	"timeout":              TimedOut,
	"unsupported":          Unsupported,
}

// FromRequest builds a Locator from the position a browser reported in the
// lat and lon query parameters, or the failure it reported in geo_error.
func FromRequest(r *http.Request) Locator {
	q := r.URL.Query()

	if code := strings.ToLower(strings.TrimSpace(q.Get("geo_error"))); code != "" {
		reason, ok := browserReasons[code]
		if !ok {
			reason = PositionUnavailable
		}
		return failed(&GeolocationError{Reason: reason, Err: fmt.Errorf("browser reported %q", code)})
	}

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return failed(&GeolocationError{Reason: Unsupported, Err: errors.New("no position supplied")})
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return failed(&GeolocationError{Reason: PositionUnavailable, Err: fmt.Errorf("invalid lat: %w", err)})
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return failed(&GeolocationError{Reason: PositionUnavailable, Err: fmt.Errorf("invalid lon: %w", err)})
	}
	return Fixed{Coords: models.Coordinates{Lat: lat, Lon: lon}}
}

func failed(err error) Locator {
	return LocatorFunc(func(context.Context) (models.Coordinates, error) {
		return models.Coordinates{}, err
	})
}
