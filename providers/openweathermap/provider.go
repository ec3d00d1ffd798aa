package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// DefaultBaseURL is the public OpenWeatherMap host
const DefaultBaseURL = "https://api.openweathermap.org"

// DefaultTimeout applies to every request when no other timeout is configured
const DefaultTimeout = 15 * time.Second

const (
	weatherPath  = "/data/2.5/weather"
	forecastPath = "/data/2.5/forecast"
	geoPath      = "/geo/1.0/direct"

	// 5 days of 3-hour steps
	forecastCount = 40
)

// Client talks to the OpenWeatherMap current weather, forecast and geocoding APIs
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Ensure Client implements the datasource interfaces
var (
	_ datasource.WeatherSource = (*Client)(nil)
	_ datasource.PlaceSearcher = (*Client)(nil)
)

// Option customises a Client
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new OpenWeatherMap client
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name of this data source
func (c *Client) Name() string {
	return "OpenWeatherMap"
}

// currentResponse represents the /weather response structure
type currentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []conditionResponse `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"` // in metres
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"` // shift from UTC in seconds
	Name     string `json:"name"`
}

type conditionResponse struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (r conditionResponse) model() models.Condition {
	return models.Condition{ID: r.ID, Main: r.Main, Description: r.Description, Icon: r.Icon}
}

func conditionModels(in []conditionResponse) []models.Condition {
	out := make([]models.Condition, 0, len(in))
	for _, w := range in {
		out = append(out, w.model())
	}
	return out
}

// CurrentByCity fetches current conditions for a city name
func (c *Client) CurrentByCity(ctx context.Context, city string) (models.CurrentConditions, error) {
	return c.current(ctx, datasource.CityQuery(city))
}

// CurrentByCoords fetches current conditions at a coordinate pair
func (c *Client) CurrentByCoords(ctx context.Context, coords models.Coordinates) (models.CurrentConditions, error) {
	return c.current(ctx, datasource.CoordsQuery(coords))
}

func (c *Client) current(ctx context.Context, q datasource.Query) (models.CurrentConditions, error) {
	var resp currentResponse
	if err := c.get(ctx, "current", q, weatherPath, locationParams(q), &resp); err != nil {
		return models.CurrentConditions{}, err
	}

	return models.CurrentConditions{
		City:       resp.Name,
		Country:    resp.Sys.Country,
		Coords:     models.Coordinates{Lat: resp.Coord.Lat, Lon: resp.Coord.Lon},
		TempK:      resp.Main.Temp,
		FeelsLikeK: resp.Main.FeelsLike,
		TempMinK:   resp.Main.TempMin,
		TempMaxK:   resp.Main.TempMax,
		Humidity:   resp.Main.Humidity,
		Pressure:   resp.Main.Pressure,
		Visibility: resp.Visibility,
		WindSpeed:  resp.Wind.Speed,
		WindDeg:    resp.Wind.Deg,
		Sunrise:    time.Unix(resp.Sys.Sunrise, 0).UTC(),
		Sunset:     time.Unix(resp.Sys.Sunset, 0).UTC(),
		UTCOffset:  resp.Timezone,
		Conditions: conditionModels(resp.Weather),
		ObservedAt: time.Unix(resp.Dt, 0).UTC(),
	}, nil
}

// locationParams builds q or lat/lon parameters for a query
func locationParams(q datasource.Query) url.Values {
	params := url.Values{}
	if q.ByCoords() {
		params.Set("lat", strconv.FormatFloat(q.Coords.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(q.Coords.Lon, 'f', -1, 64))
	} else {
		params.Set("q", q.City)
	}
	params.Set("units", "standard")
	return params
}

// apiError is the body OpenWeatherMap sends with non-200 responses
type apiError struct {
	Message string `json:"message"`
}

// get performs a single GET and decodes the JSON body into out.
// Any failure is returned as a *datasource.FetchError for q.
func (c *Client) get(ctx context.Context, op string, q datasource.Query, path string, params url.Values, out any) error {
	params.Set("appid", c.apiKey)
	apiURL := c.baseURL + path + "?" + params.Encode()

	c.logger.Debug("OpenWeatherMap request", "op", op, "query", q.String(), "path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return datasource.NewFetchError(op, q, 0, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return datasource.NewFetchError(op, q, 0, fmt.Errorf("failed to send request: %w", redactKey(err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return datasource.NewFetchError(op, q, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return datasource.NewFetchError(op, q, resp.StatusCode, fmt.Errorf("API returned non-200 status: %s", msg))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return datasource.NewFetchError(op, q, resp.StatusCode, fmt.Errorf("failed to parse API response: %w", err))
	}
	return nil
}

// redactKey strips the request URL, which carries the API key, from transport errors
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
