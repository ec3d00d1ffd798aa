package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

// stubSource returns canned data, optionally failing or blocking one of the calls
type stubSource struct {
	currentErr  error
	forecastErr error
	block       bool // forecast waits for cancellation

	forecastCancelled chan struct{}
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) CurrentByCity(ctx context.Context, city string) (models.CurrentConditions, error) {
	if s.currentErr != nil {
		return models.CurrentConditions{}, s.currentErr
	}
	return models.CurrentConditions{City: city, TempK: 290}, nil
}

func (s *stubSource) CurrentByCoords(ctx context.Context, c models.Coordinates) (models.CurrentConditions, error) {
	return models.CurrentConditions{City: "Here", Coords: c}, nil
}

func (s *stubSource) ForecastByCity(ctx context.Context, city string) (models.ForecastData, error) {
	if s.block {
		<-ctx.Done()
		close(s.forecastCancelled)
		return models.ForecastData{}, ctx.Err()
	}
	if s.forecastErr != nil {
		return models.ForecastData{}, s.forecastErr
	}
	return models.ForecastData{City: city, Samples: []models.ForecastSample{{TempK: 280}}}, nil
}

func (s *stubSource) ForecastByCoords(ctx context.Context, c models.Coordinates) (models.ForecastData, error) {
	return models.ForecastData{City: "Here", Coords: c}, nil
}

func newCollector(src datasource.WeatherSource) *DataCollector {
	return NewDataCollector(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCollectByCity(t *testing.T) {
	dc := newCollector(&stubSource{})

	res, err := dc.Collect(context.Background(), datasource.CityQuery("Paris"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if res.Current.City != "Paris" || res.Forecast.City != "Paris" {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.Forecast.Samples) != 1 {
		t.Errorf("expected 1 sample, got %d", len(res.Forecast.Samples))
	}
}

func TestCollectByCoords(t *testing.T) {
	dc := newCollector(&stubSource{})

	coords := models.Coordinates{Lat: 48.85, Lon: 2.35}
	res, err := dc.Collect(context.Background(), datasource.CoordsQuery(coords))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if res.Current.Coords != coords || res.Forecast.Coords != coords {
		t.Errorf("coordinates not passed through: %+v", res)
	}
}

func TestCollectFailsOnEitherError(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		src  *stubSource
	}{
		{"current fails", &stubSource{currentErr: boom}},
		{"forecast fails", &stubSource{forecastErr: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newCollector(tt.src).Collect(context.Background(), datasource.CityQuery("Paris"))
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if res.Current.City != "" || res.Forecast.City != "" {
				t.Errorf("partial result returned: %+v", res)
			}
		})
	}
}

func TestCollectCancelsSiblingOnFailure(t *testing.T) {
	src := &stubSource{
		currentErr:        errors.New("boom"),
		block:             true,
		forecastCancelled: make(chan struct{}),
	}

	if _, err := newCollector(src).Collect(context.Background(), datasource.CityQuery("Paris")); err == nil {
		t.Fatal("expected an error")
	}

	select {
	case <-src.forecastCancelled:
	case <-time.After(time.Second):
		t.Fatal("forecast request was not cancelled")
	}
}

func TestCollectTimeout(t *testing.T) {
	src := &stubSource{block: true, forecastCancelled: make(chan struct{})}
	dc := newCollector(src)
	dc.SetFetchTimeout(20 * time.Millisecond)

	_, err := dc.Collect(context.Background(), datasource.CityQuery("Paris"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
