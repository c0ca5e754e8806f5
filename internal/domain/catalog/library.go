package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// SongSource supplies the flat song list and playlist membership. The
// catalog treats it as a read-only snapshot provider and never mutates it.
type SongSource interface {
	ListSongs(ctx context.Context) ([]*Song, error)
	ListPlaylists(ctx context.Context) ([]PlaylistInfo, error)
}

// Library owns the current snapshot for a session. It is handed to whatever
// needs read access instead of living in a package-level singleton. Reads
// see a consistent snapshot; Refresh swaps the whole snapshot atomically.
type Library struct {
	source SongSource

	mu   sync.RWMutex
	snap *Snapshot
}

// NewLibrary creates a library session over the given source. The snapshot
// is empty until the first Refresh (or a warm-start restore).
func NewLibrary(source SongSource) *Library {
	return &Library{
		source: source,
		snap:   &Snapshot{},
	}
}

// Refresh pulls the full song list and playlists from the source, rebuilds
// every aggregate, and publishes the new snapshot. A source failure leaves
// the previous snapshot in place.
func (l *Library) Refresh(ctx context.Context) error {
	songs, err := l.source.ListSongs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Library refresh failed, keeping previous snapshot")
		return err
	}

	playlists, err := l.source.ListPlaylists(ctx)
	if err != nil {
		// Songs without playlists beats no refresh at all.
		log.Debug().Err(err).Msg("Playlist listing failed, refreshing without playlists")
		playlists = nil
	}

	snap := BuildSnapshot(songs, playlists)

	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()

	log.Info().
		Int("songs", len(snap.Songs)).
		Int("albums", len(snap.Albums)).
		Int("artists", len(snap.Artists)).
		Int("genres", len(snap.Genres)).
		Int("playlists", len(snap.Playlists)).
		Msg("Library snapshot rebuilt")
	return nil
}

// Restore publishes a pre-built snapshot, used for warm starts from the
// cache before the source has been queried.
func (l *Library) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()
}

// Snapshot returns the current snapshot. Callers must treat it as
// read-only.
func (l *Library) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Resolve looks up an entity by kind and identifier (deep-link lookups).
// Artist and genre identifiers are their names; the empty name resolves to
// the empty-key bucket like any other.
func (l *Library) Resolve(kind EntityKind, id string) (Entity, bool) {
	snap := l.Snapshot()
	return snap.Resolve(kind, id)
}

// Resolve looks up an entity within this snapshot.
func (s *Snapshot) Resolve(kind EntityKind, id string) (Entity, bool) {
	switch kind {
	case KindSong:
		for _, song := range s.Songs {
			if song.ID == id {
				return SongEntity(song), true
			}
		}
	case KindAlbum:
		for _, album := range s.Albums {
			if album.ID == id {
				return AlbumEntity(album), true
			}
		}
	case KindArtist:
		for _, artist := range s.Artists {
			if artist.Name == id {
				return ArtistEntity(artist), true
			}
		}
	case KindGenre:
		for _, genre := range s.Genres {
			if genre.Name == id {
				return GenreEntity(genre), true
			}
		}
	case KindPlaylist:
		for _, pl := range s.Playlists {
			if pl.ID == id {
				return PlaylistEntity(pl), true
			}
		}
	}
	return Entity{}, false
}
