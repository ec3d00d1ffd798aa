package models

import (
	"time"
)

// ForecastSample represents a single 3-hour forecast point as returned by the provider
type ForecastSample struct {
	Time       time.Time   `json:"time"`       // UTC time this sample is for
	TempK      float64     `json:"tempK"`      // in kelvin
	Humidity   int         `json:"humidity"`   // percentage
	WindSpeed  float64     `json:"windSpeed"`  // in m/s
	Pop        float64     `json:"pop"`        // probability of precipitation, 0..1
	Conditions []Condition `json:"conditions"` // may be empty if the provider omitted it
}

// ForecastData is the raw forecast for a place, samples in provider order
type ForecastData struct {
	Provider  string           `json:"provider"`
	City      string           `json:"city"`
	Country   string           `json:"country"`
	Coords    Coordinates      `json:"coords"`
	UTCOffset int              `json:"utcOffset"` // seconds east of UTC
	Samples   []ForecastSample `json:"samples"`
	Updated   time.Time        `json:"updated"` // when this forecast was fetched
}

// DailyForecast summarises one UTC calendar day of forecast samples.
// MinTemp and MaxTemp are in the display unit the aggregation was run with.
type DailyForecast struct {
	Date      time.Time `json:"date"`      // UTC midnight
	DayOfWeek string    `json:"dayOfWeek"` // short weekday name, e.g. "Mon"
	MinTemp   float64   `json:"minTemp"`
	MaxTemp   float64   `json:"maxTemp"`
	Condition Condition `json:"condition"`
}
