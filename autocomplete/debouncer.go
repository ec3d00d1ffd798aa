// Package autocomplete debounces place-name suggestions per client session.
package autocomplete

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"weather-dashboard/datasource"
	"weather-dashboard/models"
)

const (
	// DefaultQuietPeriod is how long a query must stand before it is sent
	DefaultQuietPeriod = 300 * time.Millisecond

	// MinQueryLength is the shortest trimmed query that is looked up
	MinQueryLength = 2

	// DefaultLimit is how many places are requested
	DefaultLimit = 5
)

// ErrSuperseded is returned to a call that a newer call for the same session replaced
var ErrSuperseded = errors.New("autocomplete query superseded")

type session struct {
	generation uint64
	cancel     context.CancelFunc
}

// Debouncer sends only the latest query of each session to the place searcher
type Debouncer struct {
	searcher datasource.PlaceSearcher
	logger   *slog.Logger
	quiet    time.Duration
	limit    int

	mutex    sync.Mutex
	sessions map[string]*session
}

// NewDebouncer creates a debouncer with the default quiet period and limit
func NewDebouncer(searcher datasource.PlaceSearcher, logger *slog.Logger) *Debouncer {
	return &Debouncer{
		searcher: searcher,
		logger:   logger,
		quiet:    DefaultQuietPeriod,
		limit:    DefaultLimit,
		sessions: make(map[string]*session),
	}
}

// SetQuietPeriod changes how long a query must stand before it is sent
func (d *Debouncer) SetQuietPeriod(quiet time.Duration) {
	d.quiet = quiet
}

// SetLimit changes how many places are requested
func (d *Debouncer) SetLimit(limit int) {
	if limit > 0 {
		d.limit = limit
	}
}

// Suggest returns places matching query once it has stood for the quiet period.
// A later call for the same session makes this one return ErrSuperseded and
// cancels its upstream request if it was already sent. Queries shorter than
// MinQueryLength return an empty list without a request.
func (d *Debouncer) Suggest(ctx context.Context, sessionID, query string) ([]models.Place, error) {
	return d.SuggestN(ctx, sessionID, query, 0)
}

// SuggestN is Suggest asking the searcher for up to limit places.
// A limit of zero or less uses the debouncer's limit.
func (d *Debouncer) SuggestN(ctx context.Context, sessionID, query string, limit int) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = d.limit
	}

	callCtx, generation := d.begin(ctx, sessionID)
	defer d.finish(sessionID, generation)

	if utf8.RuneCountInString(query) < MinQueryLength {
		return []models.Place{}, nil
	}

	timer := time.NewTimer(d.quiet)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-callCtx.Done():
		return nil, d.cancelled(ctx, sessionID, generation)
	}

	places, err := d.searcher.SearchPlaces(callCtx, query, limit)
	if !d.isLatest(sessionID, generation) {
		d.logger.Debug("Discarding superseded suggestions", "session", sessionID, "query", query)
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	return places, nil
}

// begin registers a new generation for the session and cancels the previous one
func (d *Debouncer) begin(ctx context.Context, sessionID string) (context.Context, uint64) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	s, ok := d.sessions[sessionID]
	if !ok {
		s = &session{}
		d.sessions[sessionID] = s
	}
	if s.cancel != nil {
		s.cancel()
	}

	callCtx, cancel := context.WithCancel(ctx)
	s.generation++
	s.cancel = cancel
	return callCtx, s.generation
}

func (d *Debouncer) finish(sessionID string, generation uint64) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	s, ok := d.sessions[sessionID]
	if !ok || s.generation != generation {
		return
	}
	s.cancel()
	delete(d.sessions, sessionID)
}

func (d *Debouncer) isLatest(sessionID string, generation uint64) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	s, ok := d.sessions[sessionID]
	return ok && s.generation == generation
}

// cancelled picks the error for a call whose context ended before the request
func (d *Debouncer) cancelled(parent context.Context, sessionID string, generation uint64) error {
	if !d.isLatest(sessionID, generation) {
		return ErrSuperseded
	}
	return parent.Err()
}

// Pending reports how many sessions have a query waiting or in flight
func (d *Debouncer) Pending() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.sessions)
}
