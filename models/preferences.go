package models

import (
	"encoding/json"
	"time"
)

// RecentSearch is a persisted record of a successful city lookup
type RecentSearch struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Timestamp time.Time `json:"-"`
}

type recentSearchJSON struct {
	ID        string `json:"id"`
	City      string `json:"city"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// MarshalJSON stores the timestamp as epoch milliseconds
func (r RecentSearch) MarshalJSON() ([]byte, error) {
	return json.Marshal(recentSearchJSON{
		ID:        r.ID,
		City:      r.City,
		Timestamp: r.Timestamp.UnixMilli(),
	})
}

// UnmarshalJSON reads the epoch milliseconds form written by MarshalJSON
func (r *RecentSearch) UnmarshalJSON(data []byte) error {
	var raw recentSearchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	r.City = raw.City
	r.Timestamp = time.UnixMilli(raw.Timestamp).UTC()
	return nil
}
