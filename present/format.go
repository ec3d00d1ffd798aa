// Package present formats weather values for display.
package present

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"weather-dashboard/units"
)

var titleCaser = cases.Title(language.English)

// roundHalfUp rounds .5 towards positive infinity, so -0.5 becomes 0
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// TemperatureValue converts a kelvin reading to a whole number in unit
func TemperatureValue(kelvin float64, unit units.Unit) int {
	return roundHalfUp(units.FromKelvin(kelvin, unit))
}

// FormatTemperature renders a kelvin reading as e.g. "12°C"
func FormatTemperature(kelvin float64, unit units.Unit) string {
	if !unit.Valid() {
		unit = units.Celsius
	}
	return fmt.Sprintf("%d%s", TemperatureValue(kelvin, unit), unit.Symbol())
}

// FormatWindSpeed renders a speed in metres per second with one decimal
func FormatWindSpeed(speed float64) string {
	return fmt.Sprintf("%.1f m/s", speed)
}

// FormatTime renders t as a 12-hour clock time in a zone utcOffset seconds east of UTC
func FormatTime(t time.Time, utcOffset int) string {
	return t.In(zone(utcOffset)).Format("03:04 PM")
}

// FormatDate renders t as e.g. "Monday, Jan 2" in a zone utcOffset seconds east of UTC
func FormatDate(t time.Time, utcOffset int) string {
	return t.In(zone(utcOffset)).Format("Monday, Jan 2")
}

// FormatDateTime renders t as e.g. "Monday, January 2, 03:04 PM"
func FormatDateTime(t time.Time, utcOffset int) string {
	return t.In(zone(utcOffset)).Format("Monday, January 2, 03:04 PM")
}

func zone(utcOffset int) *time.Location {
	if utcOffset == 0 {
		return time.UTC
	}
	return time.FixedZone("", utcOffset)
}

// TitleCase capitalises each word, e.g. "light rain" becomes "Light Rain"
func TitleCase(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}

// Greeting returns a salutation for an hour of the day (0-23)
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// GreetingAt is Greeting for the local hour at t in the given offset
func GreetingAt(t time.Time, utcOffset int) string {
	return Greeting(t.In(zone(utcOffset)).Hour())
}
