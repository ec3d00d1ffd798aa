package models

import (
	"time"
)

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair is inside the WGS84 range
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Condition describes the weather at a point in time
type Condition struct {
	ID          int    `json:"id"`          // provider condition code
	Main        string `json:"main"`        // group, e.g. "Rain"
	Description string `json:"description"` // human text, e.g. "light rain"
	Icon        string `json:"icon"`        // icon code, e.g. "10d"
}

// CurrentConditions represents the current weather reported for a place.
// Temperatures are in kelvin.
type CurrentConditions struct {
	City       string      `json:"city"`
	Country    string      `json:"country"`
	Coords     Coordinates `json:"coords"`
	TempK      float64     `json:"tempK"`
	FeelsLikeK float64     `json:"feelsLikeK"`
	TempMinK   float64     `json:"tempMinK"`
	TempMaxK   float64     `json:"tempMaxK"`
	Humidity   int         `json:"humidity"`   // percentage
	Pressure   int         `json:"pressure"`   // in hPa
	Visibility int         `json:"visibility"` // in metres
	WindSpeed  float64     `json:"windSpeed"`  // in m/s
	WindDeg    int         `json:"windDeg"`
	Sunrise    time.Time   `json:"sunrise"`
	Sunset     time.Time   `json:"sunset"`
	UTCOffset  int         `json:"utcOffset"` // seconds east of UTC
	Conditions []Condition `json:"conditions"`
	ObservedAt time.Time   `json:"observedAt"`
}

// Primary returns the first condition, or false when the provider sent none
func (c CurrentConditions) Primary() (Condition, bool) {
	if len(c.Conditions) == 0 {
		return Condition{}, false
	}
	return c.Conditions[0], true
}

// Place is a geocoding match used for autocomplete
type Place struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"localNames,omitempty"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Country    string            `json:"country"`
	State      string            `json:"state,omitempty"`
}
