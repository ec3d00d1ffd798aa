package dashboard

import (
	"fmt"
	"time"

	"weather-dashboard/forecast"
	"weather-dashboard/models"
	"weather-dashboard/present"
	"weather-dashboard/units"
)

// State is the phase of the dashboard's lookup cycle
type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
	Ready   State = "ready"
	Error   State = "error"
)

// Snapshot is everything the page shows at one moment.
// A snapshot is never modified once published; every change replaces it whole.
type Snapshot struct {
	State      State                     `json:"state"`
	Generation uint64                    `json:"generation"`
	City       string                    `json:"city"`
	Unit       units.Unit                `json:"unit"`
	Current    *models.CurrentConditions `json:"current,omitempty"`
	Forecast   []models.DailyForecast    `json:"forecast"`
	Display    *Display                  `json:"display,omitempty"`
	Theme      present.Theme             `json:"theme"`
	Message    string                    `json:"message,omitempty"` // user-visible error text
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

// Display holds the formatted strings for the current conditions panel
type Display struct {
	Greeting    string `json:"greeting"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feelsLike"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Description string `json:"description"`
	IconURL     string `json:"iconURL"`
	Wind        string `json:"wind"`
	Humidity    string `json:"humidity"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	LocalDate   string `json:"localDate"`
	LastUpdated string `json:"lastUpdated"`
}

func idleSnapshot(unit units.Unit, now time.Time) *Snapshot {
	return &Snapshot{
		State:     Idle,
		Unit:      unit,
		Forecast:  []models.DailyForecast{},
		Theme:     present.DefaultTheme,
		UpdatedAt: now,
	}
}

// loading keeps the previous data visible while a lookup runs
func (s *Snapshot) loading(generation uint64, city string, now time.Time) *Snapshot {
	next := *s
	next.State = Loading
	next.Generation = generation
	next.City = city
	next.Message = ""
	next.UpdatedAt = now
	return &next
}

// failed replaces the weather panel with an error
func (s *Snapshot) failed(generation uint64, city, message string, now time.Time) *Snapshot {
	return &Snapshot{
		State:      Error,
		Generation: generation,
		City:       city,
		Unit:       s.Unit,
		Forecast:   []models.DailyForecast{},
		Theme:      present.DefaultTheme,
		Message:    message,
		UpdatedAt:  now,
	}
}

// ready builds a snapshot from a completed lookup in the given unit
func ready(generation uint64, city string, unit units.Unit, current models.CurrentConditions, raw models.ForecastData, now time.Time) *Snapshot {
	theme := present.DefaultTheme
	if cond, ok := current.Primary(); ok {
		theme = present.ThemeFor(cond.Icon)
	}

	return &Snapshot{
		State:      Ready,
		Generation: generation,
		City:       city,
		Unit:       unit,
		Current:    &current,
		Forecast:   forecast.Aggregate(raw.Samples, unit),
		Display:    display(current, unit, now),
		Theme:      theme,
		UpdatedAt:  now,
	}
}

// withUnit re-renders the snapshot's temperatures in unit from the raw forecast
func (s *Snapshot) withUnit(unit units.Unit, raw *models.ForecastData, now time.Time) *Snapshot {
	next := *s
	next.Unit = unit
	if s.Current != nil && raw != nil {
		next.Forecast = forecast.Aggregate(raw.Samples, unit)
		next.Display = display(*s.Current, unit, now)
		if s.Display != nil {
			next.Display.LastUpdated = s.Display.LastUpdated
		}
	}
	return &next
}

func display(current models.CurrentConditions, unit units.Unit, now time.Time) *Display {
	d := &Display{
		Greeting:    present.GreetingAt(now, current.UTCOffset),
		Temperature: present.FormatTemperature(current.TempK, unit),
		FeelsLike:   present.FormatTemperature(current.FeelsLikeK, unit),
		High:        present.FormatTemperature(current.TempMaxK, unit),
		Low:         present.FormatTemperature(current.TempMinK, unit),
		Wind:        present.FormatWindSpeed(current.WindSpeed),
		Humidity:    fmt.Sprintf("%d%%", current.Humidity),
		Sunrise:     present.FormatTime(current.Sunrise, current.UTCOffset),
		Sunset:      present.FormatTime(current.Sunset, current.UTCOffset),
		LocalDate:   present.FormatDate(now, current.UTCOffset),
		LastUpdated: present.FormatDateTime(now, 0),
	}
	if cond, ok := current.Primary(); ok {
		d.Description = present.TitleCase(cond.Description)
		d.IconURL = present.IconURL(cond.Icon)
	}
	return d
}
