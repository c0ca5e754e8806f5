package socketio

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/ranking"
	"github.com/resonatalabs/resonata-backend/internal/infra/cache"
)

// collection binds a listing event to its entity kind and push event.
type collection struct {
	kind catalog.EntityKind
	push string
}

var collections = map[string]collection{
	"library:songs:list":     {catalog.KindSong, "pushSongs"},
	"library:albums:list":    {catalog.KindAlbum, "pushAlbums"},
	"library:artists:list":   {catalog.KindArtist, "pushArtists"},
	"library:genres:list":    {catalog.KindGenre, "pushGenres"},
	"library:playlists:list": {catalog.KindPlaylist, "pushPlaylists"},
}

// registerLibraryHandlers registers library browsing and history events
// for one connection.
func (s *Server) registerLibraryHandlers(client *socket.Socket, clientID string) {
	for event, col := range collections {
		col := col
		client.On(event, func(args ...any) {
			s.handleList(client, clientID, col, args...)
		})
	}

	client.On("library:entity:get", func(args ...any) {
		s.handleEntityGet(client, args...)
	})

	client.On("library:overview", func(args ...any) {
		s.handleOverview(client)
	})

	client.On("library:refresh", func(args ...any) {
		s.handleRefresh(client)
	})

	client.On("library:cache:status", func(args ...any) {
		s.handleCacheStatus(client)
	})

	client.On("history:recent", func(args ...any) {
		s.handleHistoryRecent(client, args...)
	})

	client.On("history:record", func(args ...any) {
		s.handleHistoryRecord(client, args...)
	})
}

// handleList serves a ranked listing of one collection.
func (s *Server) handleList(client *socket.Socket, clientID string, col collection, args ...any) {
	req := parseListRequest(col.kind, args...)
	state := s.stateFor(clientID).sortFor(col.kind, req.Select)

	resp := buildList(s.library.Snapshot(), req, state)

	log.Debug().
		Str("kind", string(col.kind)).
		Str("sort", resp.Sort.Key).
		Str("direction", resp.Sort.Direction).
		Int("items", len(resp.Items)).
		Int("total", resp.Pagination.Total).
		Msg("Sending listing")

	client.Emit(col.push, resp)
}

// EntityDetail is the payload for a single entity lookup: the entity
// itself plus its songs ranked by play count.
type EntityDetail struct {
	Found  bool         `json:"found"`
	Entity EntityView   `json:"entity,omitempty"`
	Songs  []EntityView `json:"songs,omitempty"`
}

// handleEntityGet resolves one entity by kind and ID.
func (s *Server) handleEntityGet(client *socket.Socket, args ...any) {
	var kind, id string
	if len(args) > 0 {
		if payload, ok := args[0].(map[string]interface{}); ok {
			kind, _ = payload["kind"].(string)
			id, _ = payload["id"].(string)
		}
	}

	entity, ok := s.library.Resolve(catalog.EntityKind(kind), id)
	if !ok {
		log.Debug().Str("kind", kind).Str("id", id).Msg("Entity not found")
		client.Emit("pushEntity", EntityDetail{})
		return
	}

	detail := EntityDetail{Found: true, Entity: entityView(entity, 0)}
	for _, r := range rankedSongsOf(entity) {
		detail.Songs = append(detail.Songs, entityView(r.Entity, r.Rank))
	}

	client.Emit("pushEntity", detail)
}

// rankedSongsOf ranks a container's songs by play count. Songs themselves
// have no contained songs.
func rankedSongsOf(entity catalog.Entity) []ranking.Ranked {
	var songs []*catalog.Song
	switch entity.Kind {
	case catalog.KindAlbum:
		songs = entity.Album.Songs
	case catalog.KindArtist:
		songs = entity.Artist.Songs
	case catalog.KindGenre:
		songs = entity.Genre.Songs
	case catalog.KindPlaylist:
		songs = entity.Playlist.Songs
	default:
		return nil
	}
	return ranking.RankSongs(songs, ranking.KeyPlayCount, ranking.Descending)
}

// Overview summarises the whole library.
type Overview struct {
	SongCount     int         `json:"songCount"`
	AlbumCount    int         `json:"albumCount"`
	ArtistCount   int         `json:"artistCount"`
	GenreCount    int         `json:"genreCount"`
	PlaylistCount int         `json:"playlistCount"`
	TotalPlays    int         `json:"totalPlays"`
	BuiltAt       time.Time   `json:"builtAt"`
	TopSong       *EntityView `json:"topSong,omitempty"`
	TopAlbum      *EntityView `json:"topAlbum,omitempty"`
	TopArtist     *EntityView `json:"topArtist,omitempty"`
}

// handleOverview serves library-wide counts and the top entries.
func (s *Server) handleOverview(client *socket.Socket) {
	snap := s.library.Snapshot()
	if snap == nil {
		client.Emit("pushOverview", Overview{})
		return
	}

	ov := Overview{
		SongCount:     len(snap.Songs),
		AlbumCount:    len(snap.Albums),
		ArtistCount:   len(snap.Artists),
		GenreCount:    len(snap.Genres),
		PlaylistCount: len(snap.Playlists),
		BuiltAt:       snap.BuiltAt,
	}
	for _, song := range snap.Songs {
		ov.TotalPlays += song.PlayCount
	}

	ov.TopSong = topOf(snap, catalog.KindSong)
	ov.TopAlbum = topOf(snap, catalog.KindAlbum)
	ov.TopArtist = topOf(snap, catalog.KindArtist)

	client.Emit("pushOverview", ov)
}

// topOf returns the play-count leader of a collection.
func topOf(snap *catalog.Snapshot, kind catalog.EntityKind) *EntityView {
	ranked := ranking.Rank(entitiesOf(snap, kind), ranking.KeyPlayCount, ranking.Descending)
	if len(ranked) == 0 {
		return nil
	}
	v := entityView(ranked[0].Entity, ranked[0].Rank)
	return &v
}

// handleRefresh rebuilds the snapshot from the source and notifies all
// clients. Rank results are invalidated so they recompute against the
// new snapshot.
func (s *Server) handleRefresh(client *socket.Socket) {
	log.Info().Msg("Library refresh requested")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.library.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("Library refresh failed")
		client.Emit("pushLibraryError", map[string]string{"error": err.Error()})
		return
	}

	if s.ranks != nil {
		s.ranks.InvalidateAll()
	}
	s.BroadcastLibraryUpdated()
}

// handleCacheStatus reports persistent cache statistics when the library
// is cache-backed.
func (s *Server) handleCacheStatus(client *socket.Socket) {
	lib, ok := s.library.(interface {
		CacheStats() (*cache.Stats, error)
	})
	if !ok {
		client.Emit("pushCacheStatus", map[string]bool{"enabled": false})
		return
	}

	stats, err := lib.CacheStats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read cache stats")
		client.Emit("pushCacheStatus", map[string]bool{"enabled": true})
		return
	}
	client.Emit("pushCacheStatus", stats)
}

// handleHistoryRecent serves the most recent play events.
func (s *Server) handleHistoryRecent(client *socket.Socket, args ...any) {
	if s.history == nil {
		client.Emit("pushHistory", nil)
		return
	}

	limit := 50
	if len(args) > 0 {
		if payload, ok := args[0].(map[string]interface{}); ok {
			if v, ok := payload["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}
		}
	}

	client.Emit("pushHistory", s.history.Recent(limit))
}

// handleHistoryRecord records a play for a song and confirms with the new
// count. The snapshot picks the count up on the next refresh.
func (s *Server) handleHistoryRecord(client *socket.Socket, args ...any) {
	if s.history == nil {
		return
	}

	var songID string
	if len(args) > 0 {
		if payload, ok := args[0].(map[string]interface{}); ok {
			songID, _ = payload["songId"].(string)
		}
	}
	if songID == "" {
		log.Warn().Msg("history:record received without songId")
		return
	}

	entity, ok := s.library.Resolve(catalog.KindSong, songID)
	if !ok {
		log.Debug().Str("songId", songID).Msg("Play recorded for unknown song")
		s.history.RecordPlay(songID, "", "", "")
	} else {
		song := entity.Song
		s.history.RecordPlay(song.ID, song.Title, song.Artist, song.Album)
	}

	client.Emit("pushPlayRecorded", map[string]interface{}{
		"songId":    songID,
		"playCount": s.history.PlayCount(songID),
	})
}
