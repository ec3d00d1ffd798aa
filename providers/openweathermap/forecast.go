package openweathermap

import (
	"context"
	"strconv"
	"time"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// forecastResponse represents the /forecast response structure
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"` // Timestamp
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []conditionResponse `json:"weather"`
		Wind    struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"` // Probability of precipitation
	} `json:"list"`
	City struct {
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// ForecastByCity fetches forecast samples for a city name
func (c *Client) ForecastByCity(ctx context.Context, city string) (models.ForecastData, error) {
	return c.forecast(ctx, datasource.CityQuery(city))
}

// ForecastByCoords fetches forecast samples at a coordinate pair
func (c *Client) ForecastByCoords(ctx context.Context, coords models.Coordinates) (models.ForecastData, error) {
	return c.forecast(ctx, datasource.CoordsQuery(coords))
}

func (c *Client) forecast(ctx context.Context, q datasource.Query) (models.ForecastData, error) {
	params := locationParams(q)
	params.Set("cnt", strconv.Itoa(forecastCount))

	var resp forecastResponse
	if err := c.get(ctx, "forecast", q, forecastPath, params, &resp); err != nil {
		return models.ForecastData{}, err
	}

	data := models.ForecastData{
		Provider:  c.Name(),
		City:      resp.City.Name,
		Country:   resp.City.Country,
		Coords:    models.Coordinates{Lat: resp.City.Coord.Lat, Lon: resp.City.Coord.Lon},
		UTCOffset: resp.City.Timezone,
		Samples:   make([]models.ForecastSample, 0, len(resp.List)),
		Updated:   time.Now().UTC(),
	}

	// Samples keep the order the API sent them in
	for _, item := range resp.List {
		data.Samples = append(data.Samples, models.ForecastSample{
			Time:       time.Unix(item.Dt, 0).UTC(),
			TempK:      item.Main.Temp,
			Humidity:   item.Main.Humidity,
			WindSpeed:  item.Wind.Speed,
			Pop:        item.Pop,
			Conditions: conditionModels(item.Weather),
		})
	}

	return data, nil
}
