package ranking

import "github.com/resonatalabs/resonata-backend/internal/domain/catalog"

// ContextualRank computes an entity's rank within a secondary collection it
// belongs to: a song inside a playlist/album/artist/genre, or an album,
// artist, or genre inside a playlist ranked by its aggregate play count
// within that playlist. Peers are ranked descending by play count (the
// default dashboard policy). If the entity is not among the derived peers,
// the result is not-found rather than an error; Total still reports the
// peer-collection size.
func ContextualRank(entity, within catalog.Entity) RankResult {
	peers := peersWithin(within, entity.Kind)
	if peers == nil {
		return RankResult{}
	}

	ranked := Rank(peers, KeyPlayCount, Descending)
	id := entity.ID()
	for _, r := range ranked {
		if r.Entity.ID() == id {
			return RankResult{Found: true, Rank: r.Rank, Total: len(ranked)}
		}
	}
	return RankResult{Total: len(ranked)}
}

// peersWithin derives the peer collection of the given kind inside the
// containing collection. Returns nil when the pairing is not meaningful.
func peersWithin(within catalog.Entity, kind catalog.EntityKind) []catalog.Entity {
	var songs []*catalog.Song
	switch within.Kind {
	case catalog.KindPlaylist:
		songs = within.Playlist.Songs
	case catalog.KindAlbum:
		songs = within.Album.Songs
	case catalog.KindArtist:
		songs = within.Artist.Songs
	case catalog.KindGenre:
		songs = within.Genre.Songs
	default:
		return nil
	}

	if kind == catalog.KindSong {
		peers := make([]catalog.Entity, len(songs))
		for i, s := range songs {
			peers[i] = catalog.SongEntity(s)
		}
		return peers
	}

	// Aggregate peers only make sense inside a playlist: the distinct
	// albums/artists/genres represented there, with play counts summed over
	// the playlist's own songs.
	if within.Kind != catalog.KindPlaylist {
		return nil
	}

	switch kind {
	case catalog.KindAlbum:
		return albumsIn(songs)
	case catalog.KindArtist:
		return artistsIn(songs)
	case catalog.KindGenre:
		return genresIn(songs)
	}
	return nil
}

func albumsIn(songs []*catalog.Song) []catalog.Entity {
	index := make(map[string]*catalog.Album)
	var peers []catalog.Entity
	for _, song := range songs {
		key := song.Album + "\x00" + song.Artist
		album, ok := index[key]
		if !ok {
			album = &catalog.Album{
				ID:     catalog.AlbumID(song.Album, song.Artist),
				Title:  song.Album,
				Artist: song.Artist,
			}
			index[key] = album
			peers = append(peers, catalog.AlbumEntity(album))
		}
		album.Songs = append(album.Songs, song)
		album.SongCount++
		album.PlayCount += song.PlayCount
	}
	return peers
}

func artistsIn(songs []*catalog.Song) []catalog.Entity {
	index := make(map[string]*catalog.Artist)
	var peers []catalog.Entity
	for _, song := range songs {
		artist, ok := index[song.Artist]
		if !ok {
			artist = &catalog.Artist{Name: song.Artist}
			index[song.Artist] = artist
			peers = append(peers, catalog.ArtistEntity(artist))
		}
		artist.Songs = append(artist.Songs, song)
		artist.SongCount++
		artist.PlayCount += song.PlayCount
	}
	return peers
}

func genresIn(songs []*catalog.Song) []catalog.Entity {
	index := make(map[string]*catalog.Genre)
	var peers []catalog.Entity
	for _, song := range songs {
		genre, ok := index[song.Genre]
		if !ok {
			genre = &catalog.Genre{Name: song.Genre}
			index[song.Genre] = genre
			peers = append(peers, catalog.GenreEntity(genre))
		}
		genre.Songs = append(genre.Songs, song)
		genre.SongCount++
		genre.PlayCount += song.PlayCount
	}
	return peers
}
