package cache

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Builder handles rebuilding the cache from a scanned catalog.
type Builder struct {
	db  *DB
	dao *DAO
}

// NewBuilder creates a new cache builder.
func NewBuilder(db *DB) *Builder {
	return &Builder{
		db:  db,
		dao: NewDAO(db),
	}
}

// FullBuild replaces the cache contents with the given songs and
// playlists in a single transaction.
func (b *Builder) FullBuild(songs []*SongData, playlists []*PlaylistData) error {
	startTime := time.Now()
	log.Info().Msg("Starting full cache build")

	b.db.SetBuildingState(true, 0)
	defer b.db.SetBuildingState(false, 100)

	if err := b.db.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	tx, err := b.db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	b.db.SetBuildingState(true, 10)
	for i, song := range songs {
		if err := b.dao.InsertSongTx(tx, song, i); err != nil {
			log.Warn().Err(err).Str("song", song.Title).Msg("Failed to insert song")
		}
	}

	b.db.SetBuildingState(true, 70)
	for i, playlist := range playlists {
		if err := b.dao.InsertPlaylistTx(tx, playlist, i); err != nil {
			log.Warn().Err(err).Str("playlist", playlist.Name).Msg("Failed to insert playlist")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache build: %w", err)
	}

	b.db.SetBuildingState(true, 95)
	if err := b.db.MarkBuildComplete(); err != nil {
		return fmt.Errorf("failed to mark build complete: %w", err)
	}

	log.Info().
		Int("songs", len(songs)).
		Int("playlists", len(playlists)).
		Dur("duration", time.Since(startTime)).
		Msg("Cache build complete")
	return nil
}
