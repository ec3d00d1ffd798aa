package dashboard

import (
	"fmt"

	"weather-dashboard/datasource"
	"weather-dashboard/geo"
)

// User-visible error messages
const (
	MsgUnexpected     = "An unexpected error occurred. Please try again later."
	MsgLocationDenied = "Location access denied. Please enable location services and try again."
	MsgLocationFailed = "Could not retrieve current location. Please try searching for a city instead."
)

// UserMessage turns a lookup failure into the text shown in the error panel
func UserMessage(err error, city string) string {
	if ge, ok := geo.AsGeolocationError(err); ok {
		if ge.Reason == geo.PermissionDenied {
			return MsgLocationDenied
		}
		return MsgLocationFailed
	}
	if _, ok := datasource.AsFetchError(err); ok {
		if city == "" {
			return MsgLocationFailed
		}
		return fmt.Sprintf("Failed to fetch weather data for %q. Please try another city.", city)
	}
	return MsgUnexpected
}
