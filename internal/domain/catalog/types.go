// Package catalog holds the in-memory library snapshot: the flat song list
// and the album/artist/genre/playlist aggregates derived from it.
package catalog

import "time"

// EntityKind identifies one of the five library entity kinds.
type EntityKind string

const (
	KindSong     EntityKind = "song"
	KindAlbum    EntityKind = "album"
	KindArtist   EntityKind = "artist"
	KindGenre    EntityKind = "genre"
	KindPlaylist EntityKind = "playlist"
)

// Song is a single media item as reported by the library source.
type Song struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	Genre        string    `json:"genre"`
	URI          string    `json:"uri"`
	PlayCount    int       `json:"playCount"`
	Duration     int       `json:"duration"` // seconds
	AddedAt      time.Time `json:"addedAt,omitempty"`
	ReleasedAt   time.Time `json:"releasedAt,omitempty"`
	LastPlayedAt time.Time `json:"lastPlayedAt,omitempty"`
	ArtworkURI   string    `json:"artworkUri,omitempty"`
}

// Album groups songs sharing an album title and artist. Songs are shared
// with the snapshot's flat list, never copied.
type Album struct {
	ID         string  `json:"id"` // MD5(title || artist)
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	ArtworkURI string  `json:"artworkUri,omitempty"`
	Songs      []*Song `json:"-"`
	SongCount  int     `json:"songCount"`
	PlayCount  int     `json:"playCount"`
}

// Artist groups songs sharing an artist name.
type Artist struct {
	Name      string  `json:"name"`
	Songs     []*Song `json:"-"`
	SongCount int     `json:"songCount"`
	PlayCount int     `json:"playCount"`
}

// Genre groups songs sharing a genre name, with derived distinct counts.
type Genre struct {
	Name        string  `json:"name"`
	Songs       []*Song `json:"-"`
	SongCount   int     `json:"songCount"`
	PlayCount   int     `json:"playCount"`
	ArtistCount int     `json:"artistCount"`
	AlbumCount  int     `json:"albumCount"`
}

// Playlist is an ordered song collection supplied by the source's playlist
// store. Playlist order is the curated order, distinct from any rank order.
type Playlist struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ArtworkURI string  `json:"artworkUri,omitempty"`
	Songs      []*Song `json:"-"`
	SongCount  int     `json:"songCount"`
	PlayCount  int     `json:"playCount"`
}

// Snapshot is an immutable view of the library at aggregation time.
// A refresh rebuilds it wholesale; nothing updates it in place.
type Snapshot struct {
	Songs     []*Song
	Albums    []*Album
	Artists   []*Artist
	Genres    []*Genre
	Playlists []*Playlist
	BuiltAt   time.Time
}

// Entity is a tagged variant over the five entity kinds. Exactly one of the
// pointer fields matching Kind is non-nil.
type Entity struct {
	Kind     EntityKind
	Song     *Song
	Album    *Album
	Artist   *Artist
	Genre    *Genre
	Playlist *Playlist
}

// SongEntity wraps a song as an Entity.
func SongEntity(s *Song) Entity { return Entity{Kind: KindSong, Song: s} }

// AlbumEntity wraps an album as an Entity.
func AlbumEntity(a *Album) Entity { return Entity{Kind: KindAlbum, Album: a} }

// ArtistEntity wraps an artist as an Entity.
func ArtistEntity(a *Artist) Entity { return Entity{Kind: KindArtist, Artist: a} }

// GenreEntity wraps a genre as an Entity.
func GenreEntity(g *Genre) Entity { return Entity{Kind: KindGenre, Genre: g} }

// PlaylistEntity wraps a playlist as an Entity.
func PlaylistEntity(p *Playlist) Entity { return Entity{Kind: KindPlaylist, Playlist: p} }

// ID returns the identifier used for lookups: song/album/playlist IDs,
// artist/genre names.
func (e Entity) ID() string {
	switch e.Kind {
	case KindSong:
		return e.Song.ID
	case KindAlbum:
		return e.Album.ID
	case KindArtist:
		return e.Artist.Name
	case KindGenre:
		return e.Genre.Name
	case KindPlaylist:
		return e.Playlist.ID
	}
	return ""
}

// PlaylistInfo is a source-side playlist description: a name plus the
// ordered IDs of its member songs.
type PlaylistInfo struct {
	ID         string
	Name       string
	ArtworkURI string
	SongIDs    []string
}
