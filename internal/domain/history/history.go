// Package history persists play events and derives per-song play counts
// and last-played timestamps for sources that do not track them natively.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlayEvent is a single recorded play.
type PlayEvent struct {
	ID        string    `json:"id"`
	SongID    string    `json:"songId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	PlayedAt  time.Time `json:"playedAt"`
	PlayCount int       `json:"playCount"`
}

// Store manages play event persistence.
type Store struct {
	filePath   string
	mu         sync.RWMutex
	entries    []PlayEvent
	maxEntries int
}

// dedupWindow collapses repeat events for the same song into one entry.
const dedupWindow = 5 * time.Second

// NewStore creates a history store backed by a JSON file under dataDir.
func NewStore(dataDir string) *Store {
	s := &Store{
		filePath:   filepath.Join(dataDir, "play_history.json"),
		entries:    []PlayEvent{},
		maxEntries: 5000,
	}
	s.load()
	return s
}

// RecordPlay records a play event for a song. Repeat events inside the
// dedup window bump the existing entry instead of appending a duplicate.
func (s *Store) RecordPlay(songID, title, artist, album string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i := len(s.entries) - 1; i >= 0 && i >= len(s.entries)-5; i-- {
		if s.entries[i].SongID == songID && now.Sub(s.entries[i].PlayedAt) < dedupWindow {
			s.entries[i].PlayedAt = now
			s.entries[i].PlayCount++
			log.Debug().Str("songId", songID).Msg("Updated existing play event")
			s.saveAsync()
			return
		}
	}

	s.entries = append(s.entries, PlayEvent{
		ID:        uuid.New().String(),
		SongID:    songID,
		Title:     title,
		Artist:    artist,
		Album:     album,
		PlayedAt:  now,
		PlayCount: 1,
	})

	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}

	log.Info().Str("songId", songID).Str("title", title).Msg("Recorded play event")
	s.saveAsync()
}

// PlayCount returns the total recorded plays for a song.
func (s *Store) PlayCount(songID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.SongID == songID {
			count += e.PlayCount
		}
	}
	return count
}

// LastPlayed returns the most recent play time for a song, zero if never.
func (s *Store) LastPlayed(songID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	for _, e := range s.entries {
		if e.SongID == songID && e.PlayedAt.After(last) {
			last = e.PlayedAt
		}
	}
	return last
}

// Counts returns play counts and last-played times for every known song in
// one pass, for sources rebuilding a full snapshot.
func (s *Store) Counts() (map[string]int, map[string]time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	lastPlayed := make(map[string]time.Time)
	for _, e := range s.entries {
		counts[e.SongID] += e.PlayCount
		if e.PlayedAt.After(lastPlayed[e.SongID]) {
			lastPlayed[e.SongID] = e.PlayedAt
		}
	}
	return counts, lastPlayed
}

// Recent returns up to limit events, most recent first.
func (s *Store) Recent(limit int) []PlayEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]PlayEvent, len(s.entries))
	copy(events, s.entries)
	sort.Slice(events, func(i, j int) bool {
		return events[i].PlayedAt.After(events[j].PlayedAt)
	})

	if limit <= 0 {
		limit = 50
	}
	if len(events) > limit {
		events = events[:limit]
	}
	return events
}

// Clear removes all recorded events.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []PlayEvent{}
	s.saveAsync()
	log.Info().Msg("Play history cleared")
}

// Flush writes the current entries to disk synchronously, for shutdown.
func (s *Store) Flush() error {
	s.mu.RLock()
	entries := make([]PlayEvent, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	return s.write(entries)
}

func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", s.filePath).Msg("Failed to read play history")
		}
		return
	}

	var entries []PlayEvent
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn().Err(err).Msg("Failed to parse play history")
		return
	}

	s.entries = entries
	log.Info().Int("count", len(entries)).Msg("Loaded play history")
}

// saveAsync saves history to disk without blocking the caller. Callers must
// hold at least a read lock; the write itself happens on a copy.
func (s *Store) saveAsync() {
	entries := make([]PlayEvent, len(s.entries))
	copy(entries, s.entries)

	go func() {
		if err := s.write(entries); err != nil {
			log.Error().Err(err).Msg("Failed to save play history")
		}
	}()
}

func (s *Store) write(entries []PlayEvent) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}
