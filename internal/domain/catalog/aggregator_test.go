package catalog

import (
	"testing"
	"time"
)

func testSongs() []*Song {
	return []*Song{
		{ID: "s1", Title: "Taxman", Artist: "Beatles", Album: "Revolver", Genre: "Rock", PlayCount: 10},
		{ID: "s2", Title: "Eleanor Rigby", Artist: "Beatles", Album: "Revolver", Genre: "Rock", PlayCount: 30},
		{ID: "s3", Title: "Come Together", Artist: "Beatles", Album: "Abbey Road", Genre: "Rock", PlayCount: 5},
		{ID: "s4", Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", Genre: "Jazz", PlayCount: 7},
		{ID: "s5", Title: "Untitled", Artist: "", Album: "", Genre: "", PlayCount: 2},
		{ID: "s6", Title: "Untitled 2", Artist: "", Album: "", Genre: "", PlayCount: 3},
	}
}

func TestBuildSnapshot_AlbumTotals(t *testing.T) {
	snap := BuildSnapshot(testSongs(), nil)

	if len(snap.Albums) != 4 {
		t.Fatalf("Expected 4 albums, got %d", len(snap.Albums))
	}

	var revolver *Album
	for _, a := range snap.Albums {
		if a.Title == "Revolver" {
			revolver = a
		}
	}
	if revolver == nil {
		t.Fatal("Revolver album not found")
	}
	if revolver.PlayCount != 40 {
		t.Errorf("Expected Revolver play count 40, got %d", revolver.PlayCount)
	}
	if revolver.SongCount != 2 {
		t.Errorf("Expected Revolver song count 2, got %d", revolver.SongCount)
	}
	if revolver.Artist != "Beatles" {
		t.Errorf("Expected Revolver artist Beatles, got %q", revolver.Artist)
	}
}

func TestBuildSnapshot_UnknownArtistBucket(t *testing.T) {
	snap := BuildSnapshot(testSongs(), nil)

	var beatles, unknown *Artist
	for _, a := range snap.Artists {
		switch a.Name {
		case "Beatles":
			beatles = a
		case "":
			unknown = a
		}
	}

	if beatles == nil {
		t.Fatal("Beatles aggregate not found")
	}
	if beatles.PlayCount != 45 {
		t.Errorf("Expected Beatles play count 45, got %d", beatles.PlayCount)
	}
	if beatles.SongCount != 3 {
		t.Errorf("Expected Beatles song count 3, got %d", beatles.SongCount)
	}

	// Songs with an empty artist share a distinct empty-key bucket.
	if unknown == nil {
		t.Fatal("Empty-artist aggregate not found")
	}
	if unknown.PlayCount != 5 {
		t.Errorf("Expected empty-artist play count 5, got %d", unknown.PlayCount)
	}
	if unknown.SongCount != 2 {
		t.Errorf("Expected empty-artist song count 2, got %d", unknown.SongCount)
	}
}

func TestBuildSnapshot_GenreDistinctCounts(t *testing.T) {
	snap := BuildSnapshot(testSongs(), nil)

	var rock *Genre
	for _, g := range snap.Genres {
		if g.Name == "Rock" {
			rock = g
		}
	}
	if rock == nil {
		t.Fatal("Rock genre not found")
	}
	if rock.ArtistCount != 1 {
		t.Errorf("Expected 1 distinct Rock artist, got %d", rock.ArtistCount)
	}
	if rock.AlbumCount != 2 {
		t.Errorf("Expected 2 distinct Rock albums, got %d", rock.AlbumCount)
	}
	if rock.PlayCount != 45 {
		t.Errorf("Expected Rock play count 45, got %d", rock.PlayCount)
	}
}

func TestBuildSnapshot_CaseSensitiveGrouping(t *testing.T) {
	songs := []*Song{
		{ID: "s1", Title: "A", Artist: "beatles", Album: "X", PlayCount: 1},
		{ID: "s2", Title: "B", Artist: "Beatles", Album: "X", PlayCount: 1},
	}
	snap := BuildSnapshot(songs, nil)

	if len(snap.Artists) != 2 {
		t.Errorf("Expected case-sensitive grouping to yield 2 artists, got %d", len(snap.Artists))
	}
	if len(snap.Albums) != 2 {
		t.Errorf("Expected 2 albums (same title, different artist), got %d", len(snap.Albums))
	}
}

func TestBuildSnapshot_PlaylistOrderAndTotals(t *testing.T) {
	snap := BuildSnapshot(testSongs(), []PlaylistInfo{
		{Name: "Favourites", SongIDs: []string{"s4", "s2", "s1", "missing"}},
	})

	if len(snap.Playlists) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(snap.Playlists))
	}

	pl := snap.Playlists[0]
	if pl.SongCount != 3 {
		t.Fatalf("Expected 3 resolvable playlist songs, got %d", pl.SongCount)
	}

	// Curated order is preserved, never re-sorted.
	want := []string{"s4", "s2", "s1"}
	for i, s := range pl.Songs {
		if s.ID != want[i] {
			t.Errorf("Playlist position %d: expected %s, got %s", i, want[i], s.ID)
		}
	}

	if pl.PlayCount != 47 {
		t.Errorf("Expected playlist play count 47, got %d", pl.PlayCount)
	}
	if pl.ID == "" {
		t.Error("Playlist without source ID should get a derived ID")
	}
}

func TestBuildSnapshot_FirstEncounterOrder(t *testing.T) {
	snap := BuildSnapshot(testSongs(), nil)

	// Aggregates appear in library enumeration order: Beatles before
	// Miles Davis before the empty bucket.
	want := []string{"Beatles", "Miles Davis", ""}
	if len(snap.Artists) != len(want) {
		t.Fatalf("Expected %d artists, got %d", len(want), len(snap.Artists))
	}
	for i, a := range snap.Artists {
		if a.Name != want[i] {
			t.Errorf("Artist position %d: expected %q, got %q", i, want[i], a.Name)
		}
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snap := BuildSnapshot(nil, nil)
	if len(snap.Albums) != 0 || len(snap.Artists) != 0 || len(snap.Genres) != 0 {
		t.Error("Empty song list should yield empty aggregates")
	}
	if snap.BuiltAt.After(time.Now()) {
		t.Error("BuiltAt should be set to aggregation time")
	}
}
