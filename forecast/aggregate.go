// Package forecast turns the provider's 3-hour samples into daily summaries.
package forecast

import (
	"time"

	"weather-dashboard/models"
	"weather-dashboard/units"
)

// MaxDays is the most daily summaries Aggregate will return
const MaxDays = 5

// Samples whose UTC hour falls in this range represent their day
const (
	middayFrom = 11
	middayTo   = 13
)

// UnknownCondition stands in for a sample that arrived without any condition
var UnknownCondition = models.Condition{
	ID:          0,
	Main:        "Unknown",
	Description: "unknown",
	Icon:        "",
}

type dayGroup struct {
	date    time.Time
	samples []models.ForecastSample
}

// Aggregate groups samples by UTC calendar day and summarises each day.
//
// Days are returned in the order they first appear in samples and the result
// is truncated to MaxDays; it is not re-sorted by date. Min and max are taken
// over the raw kelvin values and converted to unit once.
func Aggregate(samples []models.ForecastSample, unit units.Unit) []models.DailyForecast {
	groups := groupByDay(samples)
	if len(groups) > MaxDays {
		groups = groups[:MaxDays]
	}

	result := make([]models.DailyForecast, 0, len(groups))
	for _, g := range groups {
		minK, maxK := g.samples[0].TempK, g.samples[0].TempK
		for _, s := range g.samples[1:] {
			minK = min(minK, s.TempK)
			maxK = max(maxK, s.TempK)
		}

		result = append(result, models.DailyForecast{
			Date:      g.date,
			DayOfWeek: g.date.Format("Mon"),
			MinTemp:   units.FromKelvin(minK, unit),
			MaxTemp:   units.FromKelvin(maxK, unit),
			Condition: representative(g.samples),
		})
	}
	return result
}

func groupByDay(samples []models.ForecastSample) []*dayGroup {
	var groups []*dayGroup
	index := make(map[time.Time]*dayGroup)

	for _, s := range samples {
		t := s.Time.UTC()
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

		g, ok := index[date]
		if !ok {
			g = &dayGroup{date: date}
			index[date] = g
			groups = append(groups, g)
		}
		g.samples = append(g.samples, s)
	}
	return groups
}

// representative picks the first midday sample, falling back to the first sample
func representative(samples []models.ForecastSample) models.Condition {
	chosen := samples[0]
	for _, s := range samples {
		if h := s.Time.UTC().Hour(); h >= middayFrom && h <= middayTo {
			chosen = s
			break
		}
	}
	return PrimaryCondition(chosen)
}

// PrimaryCondition returns the sample's first condition or UnknownCondition
func PrimaryCondition(s models.ForecastSample) models.Condition {
	if len(s.Conditions) == 0 {
		return UnknownCondition
	}
	return s.Conditions[0]
}
