// Package prefs keeps the user's display unit and recent city searches.
//
// Every operation degrades to a safe default when the underlying storage
// fails: errors are logged and never returned to the caller.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"weather-dashboard/models"
	"weather-dashboard/storage"
	"weather-dashboard/units"
)

// Storage keys
const (
	RecentSearchesKey  = "weather_app_recent_searches"
	TemperatureUnitKey = "weather_app_temperature_unit"
)

// DefaultMaxRecent is how many recent searches are kept unless configured otherwise
const DefaultMaxRecent = 5

// storageTimeout bounds every storage call so a slow backend cannot stall a lookup
const storageTimeout = 2 * time.Second

// StorageError describes a failed read or write of persisted preferences
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("preferences %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store reads and writes preferences through a storage.Store
type Store struct {
	kv        storage.Store
	maxRecent int
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	// serialises read-modify-write of the recent list
	mutex sync.Mutex
}

// Option customises a Store
type Option func(*Store)

// WithMaxRecent caps the recent-search list at n entries
func WithMaxRecent(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRecent = n
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator, for tests
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a preference store over kv
func New(kv storage.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		maxRecent: DefaultMaxRecent,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxRecent is the configured cap on recent searches
func (s *Store) MaxRecent() int {
	return s.maxRecent
}

// Unit returns the saved display unit, Celsius when absent or unreadable
func (s *Store) Unit() units.Unit {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	raw, err := s.kv.Get(ctx, TemperatureUnitKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.warn(&StorageError{Op: "read", Key: TemperatureUnitKey, Err: err})
		}
		return units.Celsius
	}

	unit, err := units.ParseUnit(raw)
	if err != nil {
		s.warn(&StorageError{Op: "parse", Key: TemperatureUnitKey, Err: err})
		return units.Celsius
	}
	return unit
}

// SetUnit saves the display unit
func (s *Store) SetUnit(unit units.Unit) {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := s.kv.Set(ctx, TemperatureUnitKey, string(unit)); err != nil {
		s.warn(&StorageError{Op: "write", Key: TemperatureUnitKey, Err: err})
	}
}

// RecentSearches returns the saved searches, most recent first
func (s *Store) RecentSearches() []models.RecentSearch {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	return s.readRecent(ctx)
}

// RecordSearch puts city at the front of the recent list.
// An existing entry with the same name in any case is replaced, and the
// list is truncated to the configured maximum.
func (s *Store) RecordSearch(city string) {
	city = strings.TrimSpace(city)
	if city == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	searches := s.readRecent(ctx)

	updated := make([]models.RecentSearch, 0, len(searches)+1)
	updated = append(updated, models.RecentSearch{
		ID:        s.newID(),
		City:      city,
		Timestamp: s.now().UTC(),
	})
	for _, existing := range searches {
		if strings.EqualFold(existing.City, city) {
			continue
		}
		updated = append(updated, existing)
	}
	if len(updated) > s.maxRecent {
		updated = updated[:s.maxRecent]
	}

	data, err := json.Marshal(updated)
	if err != nil {
		s.warn(&StorageError{Op: "encode", Key: RecentSearchesKey, Err: err})
		return
	}
	if err := s.kv.Set(ctx, RecentSearchesKey, string(data)); err != nil {
		s.warn(&StorageError{Op: "write", Key: RecentSearchesKey, Err: err})
	}
}

// ClearRecentSearches removes every saved search
func (s *Store) ClearRecentSearches() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := s.kv.Remove(ctx, RecentSearchesKey); err != nil {
		s.warn(&StorageError{Op: "remove", Key: RecentSearchesKey, Err: err})
	}
}

func (s *Store) readRecent(ctx context.Context) []models.RecentSearch {
	raw, err := s.kv.Get(ctx, RecentSearchesKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.warn(&StorageError{Op: "read", Key: RecentSearchesKey, Err: err})
		}
		return []models.RecentSearch{}
	}

	var searches []models.RecentSearch
	if err := json.Unmarshal([]byte(raw), &searches); err != nil {
		s.warn(&StorageError{Op: "parse", Key: RecentSearchesKey, Err: err})
		return []models.RecentSearch{}
	}
	if searches == nil {
		searches = []models.RecentSearch{}
	}
	if len(searches) > s.maxRecent {
		searches = searches[:s.maxRecent]
	}
	return searches
}

func (s *Store) warn(err *StorageError) {
	s.logger.Warn("Preference storage failed, using default", "op", err.Op, "key", err.Key, "error", err.Err)
}
