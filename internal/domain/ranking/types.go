// Package ranking orders library entities by a sortable key and assigns
// 1-based contiguous ranks, including an entity's contextual rank inside a
// secondary collection it belongs to.
package ranking

import "github.com/resonatalabs/resonata-backend/internal/domain/catalog"

// Key identifies a sortable attribute.
type Key string

const (
	KeyPlayCount   Key = "play_count"
	KeyTitle       Key = "title"
	KeyArtist      Key = "artist"
	KeyDateAdded   Key = "date_added"
	KeyLastPlayed  Key = "last_played"
	KeyReleaseDate Key = "release_date"
	KeyDuration    Key = "duration"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// DefaultDirection returns the default direction for a key: descending for
// numeric and date keys (highest play count is rank 1), ascending for
// alphabetic keys.
func DefaultDirection(key Key) Direction {
	switch key {
	case KeyTitle, KeyArtist:
		return Ascending
	default:
		return Descending
	}
}

// SortState tracks the active key and direction for a listing.
type SortState struct {
	Key       Key       `json:"key"`
	Direction Direction `json:"direction"`
}

// NewSortState returns a state on the given key at its default direction.
func NewSortState(key Key) SortState {
	return SortState{Key: key, Direction: DefaultDirection(key)}
}

// Select applies a key choice: re-selecting the active key flips the
// direction, switching keys resets to the new key's default direction.
func (s *SortState) Select(key Key) {
	if s.Key == key {
		if s.Direction == Ascending {
			s.Direction = Descending
		} else {
			s.Direction = Ascending
		}
		return
	}
	s.Key = key
	s.Direction = DefaultDirection(key)
}

// Ranked pairs an entity with its assigned rank.
type Ranked struct {
	Entity catalog.Entity
	Rank   int
}

// RankResult is the outcome of a contextual rank lookup. Total is the size
// of the derived peer collection whether or not the entity was found in it.
type RankResult struct {
	Found bool `json:"found"`
	Rank  int  `json:"rank,omitempty"`
	Total int  `json:"total"`
}
