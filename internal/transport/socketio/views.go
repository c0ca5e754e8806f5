package socketio

import (
	"strings"
	"time"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/ranking"
)

// DefaultLimit is the default page size for listings.
const DefaultLimit = 50

// MaxLimit caps the page size a client may request.
const MaxLimit = 200

// EntityView is the wire representation of a ranked entity.
type EntityView struct {
	Kind         string     `json:"kind"`
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Artist       string     `json:"artist,omitempty"`
	Album        string     `json:"album,omitempty"`
	Genre        string     `json:"genre,omitempty"`
	URI          string     `json:"uri,omitempty"`
	ArtworkURI   string     `json:"artworkUri,omitempty"`
	PlayCount    int        `json:"playCount"`
	Duration     int        `json:"duration,omitempty"`
	SongCount    int        `json:"songCount,omitempty"`
	ArtistCount  int        `json:"artistCount,omitempty"`
	AlbumCount   int        `json:"albumCount,omitempty"`
	AddedAt      *time.Time `json:"addedAt,omitempty"`
	ReleasedAt   *time.Time `json:"releasedAt,omitempty"`
	LastPlayedAt *time.Time `json:"lastPlayedAt,omitempty"`
	Rank         int        `json:"rank"`
}

// SortView reports the sort state a listing was produced under.
type SortView struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

// PageView reports pagination of a listing.
type PageView struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse is the payload for listing pushes.
type ListResponse struct {
	Kind       string       `json:"kind"`
	Items      []EntityView `json:"items"`
	Sort       SortView     `json:"sort"`
	Pagination PageView     `json:"pagination"`
}

// listRequest captures a parsed listing payload. Select, when set, is a
// user sort action and goes through the toggle semantics; an empty Select
// keeps the connection's current sort state.
type listRequest struct {
	Kind   catalog.EntityKind
	Select ranking.Key
	Query  string
	Page   int
	Limit  int
}

// parseListRequest reads a listing payload into a request with defaults.
func parseListRequest(kind catalog.EntityKind, args ...any) listRequest {
	req := listRequest{
		Kind:  kind,
		Page:  1,
		Limit: DefaultLimit,
	}
	if len(args) == 0 {
		return req
	}
	payload, ok := args[0].(map[string]interface{})
	if !ok {
		return req
	}
	if key, ok := payload["sort"].(string); ok && key != "" {
		req.Select = ranking.Key(key)
	}
	if query, ok := payload["query"].(string); ok {
		req.Query = query
	}
	if page, ok := payload["page"].(float64); ok {
		req.Page = int(page)
	}
	if limit, ok := payload["limit"].(float64); ok {
		req.Limit = int(limit)
	}
	return req
}

// buildList produces a ranked, filtered, paginated listing under the
// given sort state. Selection semantics live in connState.sortFor, so
// this is a pure function of its inputs.
func buildList(snap *catalog.Snapshot, req listRequest, state ranking.SortState) ListResponse {
	resp := ListResponse{
		Kind: string(req.Kind),
		Sort: SortView{Key: string(state.Key), Direction: string(state.Direction)},
	}
	if snap == nil {
		resp.Pagination = pageView(req, 0)
		return resp
	}

	entities := entitiesOf(snap, req.Kind)
	if req.Query != "" {
		entities = filterEntities(entities, req.Query)
	}

	ranked := ranking.Rank(entities, state.Key, state.Direction)
	resp.Pagination = pageView(req, len(ranked))

	start := resp.Pagination.Limit * (resp.Pagination.Page - 1)
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + resp.Pagination.Limit
	if end > len(ranked) {
		end = len(ranked)
	}

	resp.Items = make([]EntityView, 0, end-start)
	for _, r := range ranked[start:end] {
		resp.Items = append(resp.Items, entityView(r.Entity, r.Rank))
	}
	return resp
}

func pageView(req listRequest, total int) PageView {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageView{Page: page, Limit: limit, Total: total}
}

// validKey guards against unknown sort keys from clients.
func validKey(key ranking.Key) bool {
	switch key {
	case ranking.KeyPlayCount, ranking.KeyTitle, ranking.KeyArtist,
		ranking.KeyDateAdded, ranking.KeyLastPlayed, ranking.KeyReleaseDate,
		ranking.KeyDuration:
		return true
	}
	return false
}

// entitiesOf wraps one kind of snapshot collection as entities.
func entitiesOf(snap *catalog.Snapshot, kind catalog.EntityKind) []catalog.Entity {
	switch kind {
	case catalog.KindSong:
		out := make([]catalog.Entity, len(snap.Songs))
		for i, s := range snap.Songs {
			out[i] = catalog.SongEntity(s)
		}
		return out
	case catalog.KindAlbum:
		out := make([]catalog.Entity, len(snap.Albums))
		for i, a := range snap.Albums {
			out[i] = catalog.AlbumEntity(a)
		}
		return out
	case catalog.KindArtist:
		out := make([]catalog.Entity, len(snap.Artists))
		for i, a := range snap.Artists {
			out[i] = catalog.ArtistEntity(a)
		}
		return out
	case catalog.KindGenre:
		out := make([]catalog.Entity, len(snap.Genres))
		for i, g := range snap.Genres {
			out[i] = catalog.GenreEntity(g)
		}
		return out
	case catalog.KindPlaylist:
		out := make([]catalog.Entity, len(snap.Playlists))
		for i, p := range snap.Playlists {
			out[i] = catalog.PlaylistEntity(p)
		}
		return out
	}
	return nil
}

// filterEntities keeps entities whose title or artist contains the query,
// case-insensitively.
func filterEntities(entities []catalog.Entity, query string) []catalog.Entity {
	q := strings.ToLower(query)
	var out []catalog.Entity
	for _, e := range entities {
		v := entityView(e, 0)
		if strings.Contains(strings.ToLower(v.Title), q) ||
			strings.Contains(strings.ToLower(v.Artist), q) ||
			strings.Contains(strings.ToLower(v.Album), q) {
			out = append(out, e)
		}
	}
	return out
}

// entityView maps an entity to its wire form.
func entityView(e catalog.Entity, rank int) EntityView {
	v := EntityView{Kind: string(e.Kind), ID: e.ID(), Rank: rank}
	switch e.Kind {
	case catalog.KindSong:
		s := e.Song
		v.Title = s.Title
		v.Artist = s.Artist
		v.Album = s.Album
		v.Genre = s.Genre
		v.URI = s.URI
		v.ArtworkURI = s.ArtworkURI
		v.PlayCount = s.PlayCount
		v.Duration = s.Duration
		v.AddedAt = timePtr(s.AddedAt)
		v.ReleasedAt = timePtr(s.ReleasedAt)
		v.LastPlayedAt = timePtr(s.LastPlayedAt)
	case catalog.KindAlbum:
		a := e.Album
		v.Title = a.Title
		v.Artist = a.Artist
		v.ArtworkURI = a.ArtworkURI
		v.PlayCount = a.PlayCount
		v.SongCount = a.SongCount
	case catalog.KindArtist:
		a := e.Artist
		v.Title = a.Name
		v.PlayCount = a.PlayCount
		v.SongCount = a.SongCount
	case catalog.KindGenre:
		g := e.Genre
		v.Title = g.Name
		v.PlayCount = g.PlayCount
		v.SongCount = g.SongCount
		v.ArtistCount = g.ArtistCount
		v.AlbumCount = g.AlbumCount
	case catalog.KindPlaylist:
		p := e.Playlist
		v.Title = p.Name
		v.ArtworkURI = p.ArtworkURI
		v.PlayCount = p.PlayCount
		v.SongCount = p.SongCount
	}
	return v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
