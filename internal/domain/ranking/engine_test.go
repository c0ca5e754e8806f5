package ranking

import (
	"testing"
	"time"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
)

func songEntities(songs ...*catalog.Song) []catalog.Entity {
	entities := make([]catalog.Entity, len(songs))
	for i, s := range songs {
		entities[i] = catalog.SongEntity(s)
	}
	return entities
}

func TestRank_PlayCountDescending(t *testing.T) {
	entities := songEntities(
		&catalog.Song{ID: "1", PlayCount: 10},
		&catalog.Song{ID: "2", PlayCount: 30},
		&catalog.Song{ID: "3", PlayCount: 30},
		&catalog.Song{ID: "4", PlayCount: 0},
	)

	ranked := Rank(entities, KeyPlayCount, Descending)

	if len(ranked) != 4 {
		t.Fatalf("Expected 4 ranked entries, got %d", len(ranked))
	}

	// Ties keep input order: song 2 before song 3.
	wantOrder := []string{"2", "3", "1", "4"}
	for i, r := range ranked {
		if r.Entity.Song.ID != wantOrder[i] {
			t.Errorf("Position %d: expected song %s, got %s", i, wantOrder[i], r.Entity.Song.ID)
		}
		if r.Rank != i+1 {
			t.Errorf("Position %d: expected rank %d, got %d", i, i+1, r.Rank)
		}
	}
}

func TestRank_ContiguousRanks(t *testing.T) {
	entities := songEntities(
		&catalog.Song{ID: "a", PlayCount: 5},
		&catalog.Song{ID: "b", PlayCount: 5},
		&catalog.Song{ID: "c", PlayCount: 5},
	)

	ranked := Rank(entities, KeyPlayCount, Descending)

	seen := make(map[int]bool)
	for _, r := range ranked {
		seen[r.Rank] = true
	}
	for want := 1; want <= len(entities); want++ {
		if !seen[want] {
			t.Errorf("Rank %d missing; ranks must be exactly 1..N", want)
		}
	}
}

func TestRank_GreaterPlayCountMeansSmallerRank(t *testing.T) {
	songs := []*catalog.Song{
		{ID: "a", PlayCount: 3},
		{ID: "b", PlayCount: 17},
		{ID: "c", PlayCount: 9},
		{ID: "d", PlayCount: 17},
		{ID: "e", PlayCount: 1},
	}
	ranked := Rank(songEntities(songs...), KeyPlayCount, Descending)

	rankByID := make(map[string]int)
	countByID := make(map[string]int)
	for _, r := range ranked {
		rankByID[r.Entity.Song.ID] = r.Rank
		countByID[r.Entity.Song.ID] = r.Entity.Song.PlayCount
	}
	for a, ca := range countByID {
		for b, cb := range countByID {
			if ca > cb && rankByID[a] >= rankByID[b] {
				t.Errorf("Song %s (%d plays) should outrank %s (%d plays)", a, ca, b, cb)
			}
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	entities := songEntities(
		&catalog.Song{ID: "1", Title: "B", PlayCount: 4},
		&catalog.Song{ID: "2", Title: "A", PlayCount: 4},
		&catalog.Song{ID: "3", Title: "C", PlayCount: 9},
	)

	first := Rank(entities, KeyPlayCount, Descending)
	second := Rank(entities, KeyPlayCount, Descending)

	for i := range first {
		if first[i].Entity.Song.ID != second[i].Entity.Song.ID || first[i].Rank != second[i].Rank {
			t.Fatalf("Ranking is not idempotent at position %d", i)
		}
	}
}

func TestRank_TitleAscending(t *testing.T) {
	entities := songEntities(
		&catalog.Song{ID: "1", Title: "Zebra"},
		&catalog.Song{ID: "2", Title: "Apple"},
		&catalog.Song{ID: "3", Title: "Mango"},
	)

	ranked := Rank(entities, KeyTitle, Ascending)

	want := []string{"Apple", "Mango", "Zebra"}
	for i, r := range ranked {
		if r.Entity.Song.Title != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], r.Entity.Song.Title)
		}
	}
}

func TestRank_MissingLastPlayedSortsLast(t *testing.T) {
	now := time.Now()
	played := &catalog.Song{ID: "played", LastPlayedAt: now}
	older := &catalog.Song{ID: "older", LastPlayedAt: now.Add(-time.Hour)}
	never := &catalog.Song{ID: "never"}

	// Missing values sort after present ones in both directions.
	for _, dir := range []Direction{Ascending, Descending} {
		ranked := Rank(songEntities(never, played, older), KeyLastPlayed, dir)
		last := ranked[len(ranked)-1]
		if last.Entity.Song.ID != "never" {
			t.Errorf("Direction %s: song without last-played date should rank last, got %s",
				dir, last.Entity.Song.ID)
		}
	}
}

func TestRank_EmptyInput(t *testing.T) {
	ranked := Rank(nil, KeyPlayCount, Descending)
	if len(ranked) != 0 {
		t.Errorf("Expected empty result for empty input, got %d entries", len(ranked))
	}
}

func TestRank_MixedAggregates(t *testing.T) {
	entities := []catalog.Entity{
		catalog.AlbumEntity(&catalog.Album{ID: "a1", Title: "Revolver", PlayCount: 40}),
		catalog.AlbumEntity(&catalog.Album{ID: "a2", Title: "Abbey Road", PlayCount: 55}),
		catalog.AlbumEntity(&catalog.Album{ID: "a3", Title: "Kind of Blue", PlayCount: 12}),
	}

	ranked := Rank(entities, KeyPlayCount, Descending)
	if ranked[0].Entity.Album.Title != "Abbey Road" {
		t.Errorf("Expected Abbey Road first, got %s", ranked[0].Entity.Album.Title)
	}

	byTitle := Rank(entities, KeyTitle, Ascending)
	if byTitle[0].Entity.Album.Title != "Abbey Road" || byTitle[2].Entity.Album.Title != "Revolver" {
		t.Error("Albums not ordered alphabetically by title")
	}
}

func TestDefaultDirection(t *testing.T) {
	tests := []struct {
		key  Key
		want Direction
	}{
		{KeyPlayCount, Descending},
		{KeyDateAdded, Descending},
		{KeyLastPlayed, Descending},
		{KeyReleaseDate, Descending},
		{KeyDuration, Descending},
		{KeyTitle, Ascending},
		{KeyArtist, Ascending},
	}
	for _, tt := range tests {
		if got := DefaultDirection(tt.key); got != tt.want {
			t.Errorf("DefaultDirection(%s) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestSortState_ToggleAndReset(t *testing.T) {
	state := NewSortState(KeyPlayCount)
	if state.Direction != Descending {
		t.Fatalf("Expected play count default descending, got %s", state.Direction)
	}

	// Re-selecting the active key flips direction without changing the key.
	state.Select(KeyPlayCount)
	if state.Key != KeyPlayCount || state.Direction != Ascending {
		t.Errorf("Toggle: got key=%s dir=%s", state.Key, state.Direction)
	}
	state.Select(KeyPlayCount)
	if state.Direction != Descending {
		t.Errorf("Second toggle should flip back, got %s", state.Direction)
	}

	// Switching keys resets to the new key's default.
	state.Select(KeyTitle)
	if state.Key != KeyTitle || state.Direction != Ascending {
		t.Errorf("Switch: got key=%s dir=%s", state.Key, state.Direction)
	}
	state.Select(KeyLastPlayed)
	if state.Direction != Descending {
		t.Errorf("Switch to date key should reset to descending, got %s", state.Direction)
	}
}
