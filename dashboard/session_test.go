package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"weather-dashboard/collector"
	"weather-dashboard/datasource"
	"weather-dashboard/events"
	"weather-dashboard/geo"
	"weather-dashboard/models"
	"weather-dashboard/prefs"
	"weather-dashboard/storage"
	"weather-dashboard/units"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func sampleResult(city string) collector.Result {
	return collector.Result{
		Current: models.CurrentConditions{
			City:       city,
			Country:    "GB",
			Coords:     models.Coordinates{Lat: 51.5, Lon: -0.12},
			TempK:      285.15,
			FeelsLikeK: 284.15,
			TempMinK:   283.15,
			TempMaxK:   287.15,
			Humidity:   80,
			WindSpeed:  3.42,
			Conditions: []models.Condition{{ID: 500, Main: "Rain", Description: "light rain", Icon: "10d"}},
		},
		Forecast: models.ForecastData{
			City: city,
			Samples: []models.ForecastSample{
				{Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), TempK: 280},
				{Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), TempK: 285},
				{Time: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), TempK: 270},
			},
		},
	}
}

// fakeCollector answers by city; a city in gates waits until its gate is closed
type fakeCollector struct {
	mutex sync.Mutex
	fail  map[string]error
	gates map[string]chan struct{}
	calls []datasource.Query
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{fail: map[string]error{}, gates: map[string]chan struct{}{}}
}

func (f *fakeCollector) Collect(ctx context.Context, q datasource.Query) (collector.Result, error) {
	f.mutex.Lock()
	f.calls = append(f.calls, q)
	gate := f.gates[q.City]
	err := f.fail[q.City]
	f.mutex.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return collector.Result{}, ctx.Err()
		}
	}
	if err != nil {
		return collector.Result{}, err
	}
	if q.ByCoords() {
		return sampleResult("Here"), nil
	}
	return sampleResult(q.City), nil
}

// recordingPublisher keeps published events
type recordingPublisher struct {
	mutex  sync.Mutex
	events []events.LookupEvent
	err    error
}

func (r *recordingPublisher) PublishLookup(_ context.Context, e events.LookupEvent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

// waitFor polls cond for up to a second
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestSession(c Collector, opts ...Option) (*Session, *prefs.Store) {
	p := prefs.New(storage.NewMemoryStore(), discardLogger())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewSession(c, p, "London", discardLogger(), opts...), p
}

func TestNewSessionIsIdle(t *testing.T) {
	s, _ := newTestSession(newFakeCollector())
	snap := s.Snapshot()
	if snap.State != Idle || snap.Unit != units.Celsius || snap.Forecast == nil {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
}

func TestLookupReady(t *testing.T) {
	pub := &recordingPublisher{}
	s, p := newTestSession(newFakeCollector(), WithPublisher(pub))

	snap, err := s.Lookup(context.Background(), " Paris ")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if snap.State != Ready || snap.City != "Paris" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.Forecast) != 2 {
		t.Fatalf("expected 2 days, got %d", len(snap.Forecast))
	}
	if snap.Theme.Name != "rain-day" {
		t.Errorf("theme = %q", snap.Theme.Name)
	}
	if snap.Display.Temperature != "12°C" || snap.Display.Description != "Light Rain" || snap.Display.Wind != "3.4 m/s" {
		t.Errorf("unexpected display %+v", snap.Display)
	}
	if snap.Display.Greeting != "Good morning" {
		t.Errorf("greeting = %q", snap.Display.Greeting)
	}
	if s.Snapshot() != snap {
		t.Error("returned snapshot is not the published one")
	}

	recent := p.RecentSearches()
	if len(recent) != 1 || recent[0].City != "Paris" {
		t.Errorf("recent searches = %+v", recent)
	}
	if len(pub.events) != 1 || pub.events[0].City != "Paris" || pub.events[0].Condition != "Rain" || pub.events[0].Source != "city" {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestLookupEmptyCity(t *testing.T) {
	c := newFakeCollector()
	s, _ := newTestSession(c)

	if _, err := s.Lookup(context.Background(), "  "); !errors.Is(err, ErrEmptyCity) {
		t.Fatalf("expected ErrEmptyCity, got %v", err)
	}
	if s.Snapshot().State != Idle || len(c.calls) != 0 {
		t.Fatal("blank lookup should not change state or fetch")
	}
}

func TestLookupFailure(t *testing.T) {
	c := newFakeCollector()
	c.fail["Atlantis"] = datasource.NewFetchError("current", datasource.CityQuery("Atlantis"), 404, errors.New("city not found"))
	s, p := newTestSession(c)

	s.Lookup(context.Background(), "Paris")
	snap, err := s.Lookup(context.Background(), "Atlantis")
	if err == nil {
		t.Fatal("expected an error")
	}
	if snap.State != Error {
		t.Fatalf("state = %s, want error", snap.State)
	}
	want := `Failed to fetch weather data for "Atlantis". Please try another city.`
	if snap.Message != want {
		t.Errorf("message = %q", snap.Message)
	}
	if snap.Current != nil || len(snap.Forecast) != 0 || snap.Display != nil {
		t.Error("error snapshot should clear the weather panel")
	}
	if recent := p.RecentSearches(); len(recent) != 1 {
		t.Errorf("failed lookup was recorded: %+v", recent)
	}
}

func TestPublishFailureDoesNotFailLookup(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s, _ := newTestSession(newFakeCollector(), WithPublisher(pub))

	if snap, err := s.Lookup(context.Background(), "Paris"); err != nil || snap.State != Ready {
		t.Fatalf("Lookup = %+v, %v", snap, err)
	}
}

func TestStaleLookupIsDiscarded(t *testing.T) {
	c := newFakeCollector()
	slow := make(chan struct{})
	c.gates["Slowville"] = slow
	s, _ := newTestSession(c)

	staleErr := make(chan error, 1)
	go func() {
		_, err := s.Lookup(context.Background(), "Slowville")
		staleErr <- err
	}()

	// Wait until the slow lookup is in flight
	for {
		c.mutex.Lock()
		n := len(c.calls)
		c.mutex.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	fresh, err := s.Lookup(context.Background(), "Rome")
	if err != nil {
		t.Fatalf("fresh lookup failed: %v", err)
	}

	close(slow)
	if err := <-staleErr; !errors.Is(err, ErrStale) {
		t.Fatalf("stale lookup: err = %v, want ErrStale", err)
	}

	if got := s.Snapshot(); got != fresh || got.City != "Rome" {
		t.Fatalf("stale result replaced the snapshot: %+v", got)
	}
}

func TestStaleFailureIsDiscarded(t *testing.T) {
	c := newFakeCollector()
	slow := make(chan struct{})
	c.gates["Nowhere"] = slow
	c.fail["Nowhere"] = errors.New("boom")
	s, _ := newTestSession(c)

	staleErr := make(chan error, 1)
	go func() {
		_, err := s.Lookup(context.Background(), "Nowhere")
		staleErr <- err
	}()
	for {
		c.mutex.Lock()
		n := len(c.calls)
		c.mutex.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	s.Lookup(context.Background(), "Rome")
	close(slow)

	if err := <-staleErr; !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if s.Snapshot().State != Ready {
		t.Fatal("stale failure replaced a ready snapshot")
	}
}

func TestLoadingState(t *testing.T) {
	c := newFakeCollector()
	gate := make(chan struct{})
	c.gates["Oslo"] = gate
	s, _ := newTestSession(c)

	done := make(chan struct{})
	go func() {
		s.Lookup(context.Background(), "Oslo")
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for s.Snapshot().State != Loading && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if snap := s.Snapshot(); snap.State != Loading || snap.City != "Oslo" {
		t.Fatalf("expected loading snapshot, got %+v", snap)
	}

	close(gate)
	<-done
	if s.Snapshot().State != Ready {
		t.Fatalf("state = %s after completion", s.Snapshot().State)
	}
}

func TestSetUnitReaggregates(t *testing.T) {
	c := newFakeCollector()
	s, p := newTestSession(c)

	before, _ := s.Lookup(context.Background(), "Paris")
	after := s.SetUnit(units.Fahrenheit)

	if len(c.calls) != 1 {
		t.Fatalf("unit toggle refetched: %d calls", len(c.calls))
	}
	if after.Unit != units.Fahrenheit || p.Unit() != units.Fahrenheit {
		t.Fatal("unit not applied or not persisted")
	}
	wantMax := units.KelvinToFahrenheit(285)
	if diff := after.Forecast[0].MaxTemp - wantMax; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("max = %v, want %v", after.Forecast[0].MaxTemp, wantMax)
	}
	if after.Display.Temperature != "54°F" {
		t.Errorf("display temperature = %q", after.Display.Temperature)
	}
	if before.Unit != units.Celsius || before.Display.Temperature != "12°C" {
		t.Error("previous snapshot was mutated")
	}
}

func TestSessionUsesSavedUnit(t *testing.T) {
	p := prefs.New(storage.NewMemoryStore(), discardLogger())
	p.SetUnit(units.Fahrenheit)

	s := NewSession(newFakeCollector(), p, "London", discardLogger())
	snap, _ := s.Lookup(context.Background(), "Paris")
	if snap.Unit != units.Fahrenheit || !strings.HasSuffix(snap.Display.Temperature, "°F") {
		t.Fatalf("saved unit ignored: %+v", snap.Display)
	}
}

func TestRefreshAndRetry(t *testing.T) {
	c := newFakeCollector()
	s, _ := newTestSession(c)

	if snap, _ := s.Refresh(context.Background()); snap.City != "London" {
		t.Errorf("refresh without history looked up %q", snap.City)
	}

	s.Lookup(context.Background(), "Paris")
	if snap, _ := s.Refresh(context.Background()); snap.City != "Paris" {
		t.Errorf("refresh looked up %q, want Paris", snap.City)
	}

	c.fail["Atlantis"] = errors.New("nope")
	s.Lookup(context.Background(), "Atlantis")
	if snap, _ := s.Retry(context.Background()); snap.City != "London" || snap.State != Ready {
		t.Errorf("retry = %+v, want London ready", snap)
	}
}

func TestLookupHere(t *testing.T) {
	pub := &recordingPublisher{}
	s, p := newTestSession(newFakeCollector(), WithPublisher(pub))

	snap, err := s.LookupHere(context.Background(), geo.Fixed{Coords: models.Coordinates{Lat: 1, Lon: 2}})
	if err != nil {
		t.Fatalf("LookupHere failed: %v", err)
	}
	if snap.City != "Here" {
		t.Errorf("city = %q, want the provider's name", snap.City)
	}
	if recent := p.RecentSearches(); len(recent) != 1 || recent[0].City != "Here" {
		t.Errorf("recent = %+v", recent)
	}
	if pub.events[0].Source != "geolocation" {
		t.Errorf("source = %q", pub.events[0].Source)
	}
}

func TestLookupHereDenied(t *testing.T) {
	c := newFakeCollector()
	s, _ := newTestSession(c)

	denied := geo.LocatorFunc(func(context.Context) (models.Coordinates, error) {
		return models.Coordinates{}, &geo.GeolocationError{Reason: geo.PermissionDenied}
	})
	snap, err := s.LookupHere(context.Background(), denied)
	if err == nil || snap.State != Error || snap.Message != MsgLocationDenied {
		t.Fatalf("unexpected result %+v, %v", snap, err)
	}
	if len(c.calls) != 0 {
		t.Error("weather fetched without a position")
	}
}

func TestLookupCoords(t *testing.T) {
	c := newFakeCollector()
	s, _ := newTestSession(c)

	snap, err := s.LookupCoords(context.Background(), models.Coordinates{Lat: 10, Lon: 20})
	if err != nil || snap.State != Ready {
		t.Fatalf("LookupCoords = %+v, %v", snap, err)
	}
	if !c.calls[0].ByCoords() || c.calls[0].Coords.Lat != 10 {
		t.Errorf("unexpected query %+v", c.calls[0])
	}
}

func TestUserMessage(t *testing.T) {
	fetchErr := datasource.NewFetchError("forecast", datasource.CityQuery("Oslo"), 500, errors.New("down"))
	tests := []struct {
		name string
		err  error
		city string
		want string
	}{
		{"fetch by city", fetchErr, "Oslo", `Failed to fetch weather data for "Oslo". Please try another city.`},
		{"fetch by coords", fetchErr, "", MsgLocationFailed},
		{"denied", &geo.GeolocationError{Reason: geo.PermissionDenied}, "", MsgLocationDenied},
		{"unavailable", &geo.GeolocationError{Reason: geo.PositionUnavailable}, "", MsgLocationFailed},
		{"timeout", &geo.GeolocationError{Reason: geo.TimedOut}, "", MsgLocationFailed},
		{"other", errors.New("weird"), "Oslo", MsgUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, tt.city); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCancelledLookupKeepsPreviousPanel(t *testing.T) {
	c := newFakeCollector()
	c.gates["Rome"] = make(chan struct{})
	s, p := newTestSession(c)

	if _, err := s.Lookup(context.Background(), "Paris"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Lookup(ctx, "Rome")
		done <- err
	}()

	waitFor(t, func() bool { return s.Snapshot().State == Loading })
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != Ready || snap.City != "Paris" || snap.Message != "" || snap.Current == nil {
		t.Fatalf("previous panel not restored: state=%s city=%q msg=%q", snap.State, snap.City, snap.Message)
	}
	if recent := p.RecentSearches(); len(recent) != 1 || recent[0].City != "Paris" {
		t.Errorf("recent searches = %+v", recent)
	}
}

func TestCancelledFirstLookupReturnsToIdle(t *testing.T) {
	c := newFakeCollector()
	c.gates["Rome"] = make(chan struct{})
	s, _ := newTestSession(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Lookup(ctx, "Rome"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if snap := s.Snapshot(); snap.State != Idle || snap.Message != "" {
		t.Fatalf("state = %s, message = %q", snap.State, snap.Message)
	}
}

func TestConcurrentSetUnitMatchesSavedUnit(t *testing.T) {
	s, p := newTestSession(newFakeCollector())
	s.Lookup(context.Background(), "Paris")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		unit := units.Celsius
		if i%2 == 0 {
			unit = units.Fahrenheit
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetUnit(unit)
		}()
	}
	wg.Wait()

	if s.Unit() != p.Unit() || s.Snapshot().Unit != p.Unit() {
		t.Fatalf("session unit %s, snapshot unit %s, saved unit %s", s.Unit(), s.Snapshot().Unit, p.Unit())
	}
}
