// Package dashboard drives the weather page: it runs lookups, keeps the
// latest snapshot, and remembers the user's preferences.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"weather-dashboard/collector"
	"weather-dashboard/datasource"
	"weather-dashboard/events"
	"weather-dashboard/geo"
	"weather-dashboard/models"
	"weather-dashboard/prefs"
	"weather-dashboard/units"
)

var (
	// ErrEmptyCity is returned for a lookup with a blank city name
	ErrEmptyCity = errors.New("city name is empty")

	// ErrStale is returned when a newer lookup finished first and this result was dropped
	ErrStale = errors.New("lookup superseded by a newer request")
)

// Collector fetches current conditions and forecast for one lookup
type Collector interface {
	Collect(ctx context.Context, q datasource.Query) (collector.Result, error)
}

// Session holds the state of one dashboard
type Session struct {
	collector   Collector
	prefs       *prefs.Store
	publisher   events.Publisher
	logger      *slog.Logger
	defaultCity string
	now         func() time.Time

	generation atomic.Uint64
	snapshot   atomic.Pointer[Snapshot]

	// mutex orders snapshot replacement and guards the fields below
	mutex    sync.Mutex
	unit     units.Unit
	lastCity string
	lastRaw  *models.ForecastData
	settled  *Snapshot // latest snapshot that is not Loading
}

// Option customises a Session
type Option func(*Session)

// WithPublisher sends an event for each successful lookup
func WithPublisher(p events.Publisher) Option {
	return func(s *Session) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an idle dashboard using the saved unit preference
func NewSession(c Collector, p *prefs.Store, defaultCity string, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		collector:   c,
		prefs:       p,
		publisher:   events.Nop{},
		logger:      logger,
		defaultCity: defaultCity,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unit = p.Unit()
	s.settled = idleSnapshot(s.unit, s.now().UTC())
	s.snapshot.Store(s.settled)
	return s
}

// Snapshot returns the latest published snapshot
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// DefaultCity is the city used on start-up and by Retry
func (s *Session) DefaultCity() string {
	return s.defaultCity
}

// Preferences returns the preference store backing the session
func (s *Session) Preferences() *prefs.Store {
	return s.prefs
}

// Lookup fetches weather for a city name
func (s *Session) Lookup(ctx context.Context, city string) (*Snapshot, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return s.Snapshot(), ErrEmptyCity
	}
	gen := s.begin(city)
	return s.fetch(ctx, gen, datasource.CityQuery(city), "city")
}

// LookupCoords fetches weather at a coordinate pair
func (s *Session) LookupCoords(ctx context.Context, coords models.Coordinates) (*Snapshot, error) {
	gen := s.begin("")
	return s.fetch(ctx, gen, datasource.CoordsQuery(coords), "coords")
}

// LookupHere asks locator for the device position and fetches weather there
func (s *Session) LookupHere(ctx context.Context, locator geo.Locator) (*Snapshot, error) {
	gen := s.begin("")

	coords, err := geo.Locate(ctx, locator)
	if err != nil {
		return s.fail(ctx, gen, "", err)
	}
	return s.fetch(ctx, gen, datasource.CoordsQuery(coords), "geolocation")
}

// Refresh repeats the last successful city lookup, or the default city
func (s *Session) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mutex.Lock()
	city := s.lastCity
	s.mutex.Unlock()

	if city == "" {
		city = s.defaultCity
	}
	return s.Lookup(ctx, city)
}

// Retry recovers from the error panel by looking up the default city
func (s *Session) Retry(ctx context.Context) (*Snapshot, error) {
	return s.Lookup(ctx, s.defaultCity)
}

// Unit returns the current display unit
func (s *Session) Unit() units.Unit {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.unit
}

// SetUnit saves the display unit and re-renders the last forecast without refetching
func (s *Session) SetUnit(unit units.Unit) *Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.prefs.SetUnit(unit)
	s.unit = unit

	now := s.now().UTC()
	s.settled = s.settled.withUnit(unit, s.lastRaw, now)
	next := s.snapshot.Load().withUnit(unit, s.lastRaw, now)
	s.snapshot.Store(next)
	return next
}

// begin starts a new generation and publishes the loading snapshot
func (s *Session) begin(city string) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	gen := s.generation.Add(1)
	s.snapshot.Store(s.snapshot.Load().loading(gen, city, s.now().UTC()))
	return gen
}

func (s *Session) fetch(ctx context.Context, gen uint64, q datasource.Query, source string) (*Snapshot, error) {
	res, err := s.collector.Collect(ctx, q)
	if err != nil {
		return s.fail(ctx, gen, q.City, err)
	}

	// Coordinate lookups are remembered under the name the provider reports
	city := q.City
	if city == "" {
		city = res.Current.City
	}

	s.mutex.Lock()
	if gen != s.generation.Load() {
		s.mutex.Unlock()
		s.logger.Debug("Discarding stale lookup", "query", q.String(), "generation", gen)
		return s.Snapshot(), ErrStale
	}
	raw := res.Forecast
	next := ready(gen, city, s.unit, res.Current, raw, s.now().UTC())
	s.lastRaw = &raw
	s.lastCity = city
	s.settled = next
	s.snapshot.Store(next)
	s.mutex.Unlock()

	s.prefs.RecordSearch(city)
	s.publish(ctx, next, source)

	s.logger.Info("Lookup complete", "city", city, "days", len(next.Forecast), "generation", gen)
	return next, nil
}

// fail publishes an error snapshot unless a newer lookup has started.
// When the caller cancelled ctx the lookup says nothing about the city, so
// the last settled snapshot is put back instead.
func (s *Session) fail(ctx context.Context, gen uint64, city string, err error) (*Snapshot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if gen != s.generation.Load() {
		return s.snapshot.Load(), ErrStale
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		restored := *s.settled
		restored.Generation = gen
		s.snapshot.Store(&restored)

		s.logger.Info("Lookup abandoned by caller", "city", city, "generation", gen)
		return &restored, ctx.Err()
	}

	msg := UserMessage(err, city)
	next := s.snapshot.Load().failed(gen, city, msg, s.now().UTC())
	s.settled = next
	s.snapshot.Store(next)

	s.logger.Warn("Lookup failed", "city", city, "generation", gen, "error", err)
	return next, err
}

func (s *Session) publish(ctx context.Context, snap *Snapshot, source string) {
	cur := snap.Current
	event := events.LookupEvent{
		City:    snap.City,
		Country: cur.Country,
		Lat:     cur.Coords.Lat,
		Lon:     cur.Coords.Lon,
		Unit:    string(snap.Unit),
		TempK:   cur.TempK,
		Source:  source,
		At:      snap.UpdatedAt,
	}
	if cond, ok := cur.Primary(); ok {
		event.Condition = cond.Main
	}

	if err := s.publisher.PublishLookup(ctx, event); err != nil {
		s.logger.Warn("Failed to publish lookup event", "city", snap.City, "error", err)
	}
}
