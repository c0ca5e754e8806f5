package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// BuildSnapshot groups the flat song list into album, artist, and genre
// aggregates and attaches playlists from the source's playlist store.
// Grouping keys are the raw tag values, matched exactly and case-sensitively;
// songs with an empty artist/album/genre share the empty-key bucket, which
// the presentation layer labels "Unknown". Aggregates appear in
// first-encounter order so rank tie-breaks stay reproducible across calls.
func BuildSnapshot(songs []*Song, playlists []PlaylistInfo) *Snapshot {
	snap := &Snapshot{
		Songs:   songs,
		BuiltAt: time.Now(),
	}

	albums := make(map[string]*Album)
	artists := make(map[string]*Artist)
	genres := make(map[string]*Genre)

	for _, song := range songs {
		albumKey := song.Album + "\x00" + song.Artist
		album, ok := albums[albumKey]
		if !ok {
			album = &Album{
				ID:         AlbumID(song.Album, song.Artist),
				Title:      song.Album,
				Artist:     song.Artist,
				ArtworkURI: song.ArtworkURI,
			}
			albums[albumKey] = album
			snap.Albums = append(snap.Albums, album)
		}
		album.Songs = append(album.Songs, song)
		album.SongCount++
		album.PlayCount += song.PlayCount

		artist, ok := artists[song.Artist]
		if !ok {
			artist = &Artist{Name: song.Artist}
			artists[song.Artist] = artist
			snap.Artists = append(snap.Artists, artist)
		}
		artist.Songs = append(artist.Songs, song)
		artist.SongCount++
		artist.PlayCount += song.PlayCount

		genre, ok := genres[song.Genre]
		if !ok {
			genre = &Genre{Name: song.Genre}
			genres[song.Genre] = genre
			snap.Genres = append(snap.Genres, genre)
		}
		genre.Songs = append(genre.Songs, song)
		genre.SongCount++
		genre.PlayCount += song.PlayCount
	}

	// Distinct artist/album counts per genre.
	for _, genre := range snap.Genres {
		seenArtists := make(map[string]bool)
		seenAlbums := make(map[string]bool)
		for _, song := range genre.Songs {
			seenArtists[song.Artist] = true
			seenAlbums[song.Album+"\x00"+song.Artist] = true
		}
		genre.ArtistCount = len(seenArtists)
		genre.AlbumCount = len(seenAlbums)
	}

	songsByID := make(map[string]*Song, len(songs))
	for _, song := range songs {
		songsByID[song.ID] = song
	}

	for _, info := range playlists {
		pl := &Playlist{
			ID:         info.ID,
			Name:       info.Name,
			ArtworkURI: info.ArtworkURI,
		}
		if pl.ID == "" {
			pl.ID = generateID(info.Name)
		}
		for _, songID := range info.SongIDs {
			song, ok := songsByID[songID]
			if !ok {
				// Playlist entries pointing outside the library are dropped,
				// not surfaced as errors.
				continue
			}
			pl.Songs = append(pl.Songs, song)
			pl.SongCount++
			pl.PlayCount += song.PlayCount
		}
		if pl.ArtworkURI == "" && len(pl.Songs) > 0 {
			pl.ArtworkURI = pl.Songs[0].ArtworkURI
		}
		snap.Playlists = append(snap.Playlists, pl)
	}

	return snap
}

// AlbumID derives an album's identifier from its title and artist.
func AlbumID(title, artist string) string {
	return generateID(title + "\x00" + artist)
}

// SongID derives a song's identifier from its URI.
func SongID(uri string) string {
	return generateID(uri)
}

// PlaylistID derives a playlist's identifier from its name.
func PlaylistID(name string) string {
	return generateID(name)
}

// generateID creates a unique ID from a string.
func generateID(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}
