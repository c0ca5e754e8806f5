package ranking

import (
	"sort"
	"time"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
)

// Rank orders entities by the key and direction and assigns contiguous
// 1-based ranks. The sort is stable, so ties keep the input (library
// enumeration) order. Entities missing the key's value sort after all
// present values regardless of direction. Pure function: the input slice is
// not modified and the result is recomputed on every call.
func Rank(entities []catalog.Entity, key Key, dir Direction) []Ranked {
	ranked := make([]Ranked, len(entities))
	for i, e := range entities {
		ranked[i] = Ranked{Entity: e}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i].Entity, ranked[j].Entity, key, dir)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankSongs is a convenience wrapper for the common song-list case.
func RankSongs(songs []*catalog.Song, key Key, dir Direction) []Ranked {
	entities := make([]catalog.Entity, len(songs))
	for i, s := range songs {
		entities[i] = catalog.SongEntity(s)
	}
	return Rank(entities, key, dir)
}

func less(a, b catalog.Entity, key Key, dir Direction) bool {
	switch key {
	case KeyTitle:
		return lessString(titleOf(a), true, titleOf(b), true, dir)
	case KeyArtist:
		av, aok := artistOf(a)
		bv, bok := artistOf(b)
		return lessString(av, aok, bv, bok, dir)
	case KeyDuration:
		av, aok := durationOf(a)
		bv, bok := durationOf(b)
		return lessInt(av, aok, bv, bok, dir)
	case KeyDateAdded, KeyLastPlayed, KeyReleaseDate:
		av, aok := timeOf(a, key)
		bv, bok := timeOf(b, key)
		return lessTime(av, aok, bv, bok, dir)
	default: // KeyPlayCount
		return lessInt(playCountOf(a), true, playCountOf(b), true, dir)
	}
}

// Missing values lose to present values regardless of direction.
func lessString(a string, aok bool, b string, bok bool, dir Direction) bool {
	if aok != bok {
		return aok
	}
	if !aok {
		return false
	}
	if a == b {
		return false
	}
	if dir == Ascending {
		return a < b
	}
	return a > b
}

func lessInt(a int, aok bool, b int, bok bool, dir Direction) bool {
	if aok != bok {
		return aok
	}
	if !aok || a == b {
		return false
	}
	if dir == Ascending {
		return a < b
	}
	return a > b
}

func lessTime(a time.Time, aok bool, b time.Time, bok bool, dir Direction) bool {
	if aok != bok {
		return aok
	}
	if !aok || a.Equal(b) {
		return false
	}
	if dir == Ascending {
		return a.Before(b)
	}
	return a.After(b)
}

func titleOf(e catalog.Entity) string {
	switch e.Kind {
	case catalog.KindSong:
		return e.Song.Title
	case catalog.KindAlbum:
		return e.Album.Title
	case catalog.KindArtist:
		return e.Artist.Name
	case catalog.KindGenre:
		return e.Genre.Name
	case catalog.KindPlaylist:
		return e.Playlist.Name
	}
	return ""
}

func artistOf(e catalog.Entity) (string, bool) {
	switch e.Kind {
	case catalog.KindSong:
		return e.Song.Artist, true
	case catalog.KindAlbum:
		return e.Album.Artist, true
	case catalog.KindArtist:
		return e.Artist.Name, true
	}
	return "", false
}

func playCountOf(e catalog.Entity) int {
	switch e.Kind {
	case catalog.KindSong:
		return e.Song.PlayCount
	case catalog.KindAlbum:
		return e.Album.PlayCount
	case catalog.KindArtist:
		return e.Artist.PlayCount
	case catalog.KindGenre:
		return e.Genre.PlayCount
	case catalog.KindPlaylist:
		return e.Playlist.PlayCount
	}
	return 0
}

func durationOf(e catalog.Entity) (int, bool) {
	if e.Kind == catalog.KindSong {
		return e.Song.Duration, true
	}
	return 0, false
}

// Zero timestamps count as missing: a song with no last-played date sorts
// after every song that has one.
func timeOf(e catalog.Entity, key Key) (time.Time, bool) {
	if e.Kind != catalog.KindSong {
		return time.Time{}, false
	}
	var t time.Time
	switch key {
	case KeyDateAdded:
		t = e.Song.AddedAt
	case KeyLastPlayed:
		t = e.Song.LastPlayedAt
	case KeyReleaseDate:
		t = e.Song.ReleasedAt
	}
	return t, !t.IsZero()
}
