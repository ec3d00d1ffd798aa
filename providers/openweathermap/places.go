package openweathermap

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// DefaultPlaceLimit is how many matches the geocoding API is asked for
const DefaultPlaceLimit = 5

type placeResponse struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"local_names"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Country    string            `json:"country"`
	State      string            `json:"state"`
}

// SearchPlaces resolves a partial place name through the direct geocoding API.
// A blank query returns no places without calling the API.
func (c *Client) SearchPlaces(ctx context.Context, query string, limit int) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Place{}, nil
	}
	if limit <= 0 {
		limit = DefaultPlaceLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var resp []placeResponse
	if err := c.get(ctx, "places", datasource.CityQuery(query), geoPath, params, &resp); err != nil {
		return nil, err
	}

	places := make([]models.Place, 0, len(resp))
	for _, p := range resp {
		places = append(places, models.Place{
			Name:       p.Name,
			LocalNames: p.LocalNames,
			Lat:        p.Lat,
			Lon:        p.Lon,
			Country:    p.Country,
			State:      p.State,
		})
	}
	return places, nil
}
