package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/resonatalabs/resonata-backend/internal/infra/cache"
)

// CachedLibrary couples a library with the SQLite cache so a usable
// snapshot is available before the first source scan completes, and
// every successful refresh is persisted for the next start.
type CachedLibrary struct {
	*Library
	db      *cache.DB
	dao     *cache.DAO
	builder *cache.Builder
}

// NewCachedLibrary wraps lib with persistence backed by db. db must be
// open.
func NewCachedLibrary(lib *Library, db *cache.DB) *CachedLibrary {
	return &CachedLibrary{
		Library: lib,
		db:      db,
		dao:     cache.NewDAO(db),
		builder: cache.NewBuilder(db),
	}
}

// WarmStart restores the last persisted snapshot. An empty cache is not
// an error; the library simply stays empty until the first refresh.
func (c *CachedLibrary) WarmStart() error {
	songData, err := c.dao.LoadSongs()
	if err != nil {
		return fmt.Errorf("failed to load cached songs: %w", err)
	}
	if len(songData) == 0 {
		log.Debug().Msg("Cache empty, skipping warm start")
		return nil
	}
	playlistData, err := c.dao.LoadPlaylists()
	if err != nil {
		return fmt.Errorf("failed to load cached playlists: %w", err)
	}

	songs := make([]*Song, len(songData))
	for i, d := range songData {
		songs[i] = songFromData(d)
	}
	playlists := make([]PlaylistInfo, len(playlistData))
	for i, d := range playlistData {
		playlists[i] = PlaylistInfo{
			ID:         d.ID,
			Name:       d.Name,
			ArtworkURI: d.ArtworkURI,
			SongIDs:    d.SongIDs,
		}
	}

	snap := BuildSnapshot(songs, playlists)
	c.Restore(snap)

	log.Info().
		Int("songs", len(snap.Songs)).
		Int("playlists", len(snap.Playlists)).
		Msg("Library restored from cache")
	return nil
}

// Refresh rebuilds the snapshot from the source and persists it. A
// persistence failure is logged but does not fail the refresh.
func (c *CachedLibrary) Refresh(ctx context.Context) error {
	if err := c.Library.Refresh(ctx); err != nil {
		return err
	}
	if err := c.persist(c.Snapshot()); err != nil {
		log.Warn().Err(err).Msg("Failed to persist library snapshot")
	}
	return nil
}

// persist writes the snapshot's songs and playlists to the cache.
func (c *CachedLibrary) persist(snap *Snapshot) error {
	if snap == nil {
		return nil
	}

	songs := make([]*cache.SongData, len(snap.Songs))
	for i, s := range snap.Songs {
		songs[i] = songToData(s)
	}
	playlists := make([]*cache.PlaylistData, len(snap.Playlists))
	for i, pl := range snap.Playlists {
		data := &cache.PlaylistData{
			ID:         pl.ID,
			Name:       pl.Name,
			ArtworkURI: pl.ArtworkURI,
		}
		for _, s := range pl.Songs {
			data.SongIDs = append(data.SongIDs, s.ID)
		}
		playlists[i] = data
	}

	return c.builder.FullBuild(songs, playlists)
}

// CacheStats returns statistics about the persistent cache.
func (c *CachedLibrary) CacheStats() (*cache.Stats, error) {
	return c.db.GetStats()
}

func songToData(s *Song) *cache.SongData {
	return &cache.SongData{
		ID:           s.ID,
		Title:        s.Title,
		Artist:       s.Artist,
		Album:        s.Album,
		Genre:        s.Genre,
		URI:          s.URI,
		PlayCount:    s.PlayCount,
		Duration:     s.Duration,
		AddedAt:      s.AddedAt,
		ReleasedAt:   s.ReleasedAt,
		LastPlayedAt: s.LastPlayedAt,
		ArtworkURI:   s.ArtworkURI,
	}
}

func songFromData(d *cache.SongData) *Song {
	return &Song{
		ID:           d.ID,
		Title:        d.Title,
		Artist:       d.Artist,
		Album:        d.Album,
		Genre:        d.Genre,
		URI:          d.URI,
		PlayCount:    d.PlayCount,
		Duration:     d.Duration,
		AddedAt:      d.AddedAt,
		ReleasedAt:   d.ReleasedAt,
		LastPlayedAt: d.LastPlayedAt,
		ArtworkURI:   d.ArtworkURI,
	}
}
