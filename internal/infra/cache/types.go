// Package cache provides a SQLite-backed persistent copy of the song
// catalog, used to serve a library snapshot before the first source scan
// completes.
package cache

import "time"

// SongData is a song row as stored in the cache. The package deliberately
// carries its own types so callers convert at the boundary.
type SongData struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	Genre        string
	URI          string
	PlayCount    int
	Duration     int
	AddedAt      time.Time
	ReleasedAt   time.Time
	LastPlayedAt time.Time
	ArtworkURI   string
}

// PlaylistData is a playlist row plus its ordered song IDs.
type PlaylistData struct {
	ID         string
	Name       string
	ArtworkURI string
	SongIDs    []string
}

// Stats provides statistics about the cache.
type Stats struct {
	SongCount     int       `json:"songCount"`
	PlaylistCount int       `json:"playlistCount"`
	SchemaVersion string    `json:"schemaVersion"`
	LastFullBuild time.Time `json:"lastFullBuild"`
	LastUpdated   time.Time `json:"lastUpdated"`
	IsBuilding    bool      `json:"isBuilding"`
	BuildProgress int       `json:"buildProgress"` // 0-100
}
