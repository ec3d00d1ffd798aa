// Package units converts the provider's kelvin temperatures into display units.
package units

import (
	"fmt"
	"strings"
)

// Unit is a display temperature unit
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

const absoluteZeroC = 273.15

// KelvinToCelsius converts kelvin to degrees Celsius
func KelvinToCelsius(k float64) float64 {
	return k - absoluteZeroC
}

// KelvinToFahrenheit converts kelvin to degrees Fahrenheit
func KelvinToFahrenheit(k float64) float64 {
	return (k-absoluteZeroC)*9/5 + 32
}

// CelsiusToKelvin is the inverse of KelvinToCelsius
func CelsiusToKelvin(c float64) float64 {
	return c + absoluteZeroC
}

// FahrenheitToKelvin is the inverse of KelvinToFahrenheit
func FahrenheitToKelvin(f float64) float64 {
	return (f-32)*5/9 + absoluteZeroC
}

// FromKelvin converts k into u. Anything other than Fahrenheit is treated as Celsius.
func FromKelvin(k float64, u Unit) float64 {
	if u == Fahrenheit {
		return KelvinToFahrenheit(k)
	}
	return KelvinToCelsius(k)
}

// ToKelvin converts v expressed in u back to kelvin
func ToKelvin(v float64, u Unit) float64 {
	if u == Fahrenheit {
		return FahrenheitToKelvin(v)
	}
	return CelsiusToKelvin(v)
}

// Symbol returns the display suffix for the unit
func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// Valid reports whether u is one of the known units
func (u Unit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

// ParseUnit accepts "celsius", "fahrenheit", "c" or "f" in any case
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "c":
		return Celsius, nil
	case "fahrenheit", "f":
		return Fahrenheit, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q", s)
}
