package datasource

import (
	"context"
	"fmt"
	"strings"

	"weather-dashboard/models"
)

// WeatherSource defines the interface for a provider of current conditions and forecasts.
// Temperatures are always returned in kelvin.
type WeatherSource interface {
	// Name returns the provider's name
	Name() string

	// CurrentByCity fetches current conditions for a city name
	CurrentByCity(ctx context.Context, city string) (models.CurrentConditions, error)

	// CurrentByCoords fetches current conditions at a coordinate pair
	CurrentByCoords(ctx context.Context, coords models.Coordinates) (models.CurrentConditions, error)

	// ForecastByCity fetches the 3-hourly forecast samples for a city name
	ForecastByCity(ctx context.Context, city string) (models.ForecastData, error)

	// ForecastByCoords fetches the 3-hourly forecast samples at a coordinate pair
	ForecastByCoords(ctx context.Context, coords models.Coordinates) (models.ForecastData, error)
}

// PlaceSearcher is implemented by services that can resolve partial place names
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, query string, limit int) ([]models.Place, error)
}

// Query identifies what a lookup is for: a city name or a coordinate pair
type Query struct {
	City   string
	Coords *models.Coordinates
}

// CityQuery builds a lookup by city name
func CityQuery(city string) Query {
	return Query{City: strings.TrimSpace(city)}
}

// CoordsQuery builds a lookup by coordinates
func CoordsQuery(coords models.Coordinates) Query {
	return Query{Coords: &coords}
}

// ByCoords reports whether the lookup is by coordinates
func (q Query) ByCoords() bool {
	return q.Coords != nil
}

// String is used in logs and error messages
func (q Query) String() string {
	if q.Coords != nil {
		return fmt.Sprintf("%.4f,%.4f", q.Coords.Lat, q.Coords.Lon)
	}
	return q.City
}
