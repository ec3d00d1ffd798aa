package datasource

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"weather-dashboard/models"
)

func TestFetchErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")

	byCity := NewFetchError("current", CityQuery(" Paris "), 0, cause)
	if !strings.Contains(byCity.Error(), `"Paris"`) {
		t.Errorf("city missing from %q", byCity.Error())
	}
	if !errors.Is(byCity, cause) {
		t.Error("FetchError should unwrap to its cause")
	}

	byCoords := NewFetchError("forecast", CoordsQuery(models.Coordinates{Lat: 1.5, Lon: -2.25}), http.StatusBadGateway, cause)
	msg := byCoords.Error()
	if !strings.Contains(msg, "1.5000,-2.2500") || !strings.Contains(msg, "502") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestNotFound(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusNotFound, true},
		{http.StatusUnauthorized, false},
		{0, false},
	}
	for _, tt := range tests {
		e := &FetchError{StatusCode: tt.status}
		if got := e.NotFound(); got != tt.want {
			t.Errorf("status %d: NotFound() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAsFetchErrorWrapped(t *testing.T) {
	inner := NewFetchError("current", CityQuery("Oslo"), 404, errors.New("not found"))
	wrapped := fmt.Errorf("lookup failed: %w", inner)

	fe, ok := AsFetchError(wrapped)
	if !ok || fe.City != "Oslo" {
		t.Fatalf("AsFetchError = %+v, %v", fe, ok)
	}
	if _, ok := AsFetchError(errors.New("plain")); ok {
		t.Fatal("plain error reported as FetchError")
	}
}

func TestQuery(t *testing.T) {
	if q := CityQuery("Rome"); q.ByCoords() || q.String() != "Rome" {
		t.Errorf("unexpected city query %+v", q)
	}
	if q := CoordsQuery(models.Coordinates{Lat: 10, Lon: 20}); !q.ByCoords() || q.String() != "10.0000,20.0000" {
		t.Errorf("unexpected coords query %+v", q)
	}
}
