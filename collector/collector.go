package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// DefaultFetchTimeout bounds one lookup, both requests included
const DefaultFetchTimeout = 15 * time.Second

// Result holds the current conditions and forecast fetched for one lookup
type Result struct {
	Query    datasource.Query
	Current  models.CurrentConditions
	Forecast models.ForecastData
}

// DataCollector fetches everything a lookup needs from a weather source
type DataCollector struct {
	source       datasource.WeatherSource
	logger       *slog.Logger
	fetchTimeout time.Duration
}

// NewDataCollector creates a new data collector over source
func NewDataCollector(source datasource.WeatherSource, logger *slog.Logger) *DataCollector {
	return &DataCollector{
		source:       source,
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
	}
}

// SetFetchTimeout changes the timeout for a whole lookup
func (dc *DataCollector) SetFetchTimeout(timeout time.Duration) {
	if timeout > 0 {
		dc.fetchTimeout = timeout
	}
}

// Source returns the underlying weather source
func (dc *DataCollector) Source() datasource.WeatherSource {
	return dc.source
}

// Collect fetches current conditions and forecast concurrently.
// If either request fails the other is cancelled and no partial result is returned.
func (dc *DataCollector) Collect(ctx context.Context, q datasource.Query) (Result, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, dc.fetchTimeout)
	defer cancel()

	start := time.Now()
	result := Result{Query: q}

	g, gctx := errgroup.WithContext(fetchCtx)

	g.Go(func() error {
		var err error
		if q.ByCoords() {
			result.Current, err = dc.source.CurrentByCoords(gctx, *q.Coords)
		} else {
			result.Current, err = dc.source.CurrentByCity(gctx, q.City)
		}
		return err
	})

	g.Go(func() error {
		var err error
		if q.ByCoords() {
			result.Forecast, err = dc.source.ForecastByCoords(gctx, *q.Coords)
		} else {
			result.Forecast, err = dc.source.ForecastByCity(gctx, q.City)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		dc.logger.Warn("Lookup failed", "source", dc.source.Name(), "query", q.String(), "error", err)
		return Result{}, fmt.Errorf("error fetching from %s for %s: %w", dc.source.Name(), q, err)
	}

	dc.logger.Debug("Lookup complete",
		"source", dc.source.Name(),
		"query", q.String(),
		"samples", len(result.Forecast.Samples),
		"duration", time.Since(start))

	return result, nil
}
