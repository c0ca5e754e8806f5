package socketio

import (
	"sync"
	"testing"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/ranking"
)

func testSnapshot() *catalog.Snapshot {
	songs := []*catalog.Song{
		{ID: "s1", Title: "Alpha", Artist: "Nina", Album: "First", Genre: "Jazz", PlayCount: 5, Duration: 200},
		{ID: "s2", Title: "Beta", Artist: "Nina", Album: "First", Genre: "Jazz", PlayCount: 20, Duration: 180},
		{ID: "s3", Title: "Gamma", Artist: "Otis", Album: "Second", Genre: "Soul", PlayCount: 1, Duration: 240},
	}
	playlists := []catalog.PlaylistInfo{
		{ID: "p1", Name: "Favourites", SongIDs: []string{"s2", "s3"}},
	}
	return catalog.BuildSnapshot(songs, playlists)
}

func TestParseListRequestDefaults(t *testing.T) {
	req := parseListRequest(catalog.KindSong)

	if req.Kind != catalog.KindSong {
		t.Errorf("Expected kind song, got %s", req.Kind)
	}
	if req.Page != 1 {
		t.Errorf("Expected page 1, got %d", req.Page)
	}
	if req.Limit != DefaultLimit {
		t.Errorf("Expected limit %d, got %d", DefaultLimit, req.Limit)
	}
	if req.Select != "" {
		t.Errorf("Expected no sort selection, got %s", req.Select)
	}
}

func TestParseListRequestPayload(t *testing.T) {
	payload := map[string]interface{}{
		"sort":  "title",
		"query": "nina",
		"page":  float64(2),
		"limit": float64(10),
	}
	req := parseListRequest(catalog.KindAlbum, payload)

	if req.Select != ranking.KeyTitle {
		t.Errorf("Expected title selection, got %s", req.Select)
	}
	if req.Query != "nina" {
		t.Errorf("Expected query nina, got %s", req.Query)
	}
	if req.Page != 2 || req.Limit != 10 {
		t.Errorf("Expected page 2 limit 10, got page %d limit %d", req.Page, req.Limit)
	}
}

func TestParseListRequestBadPayload(t *testing.T) {
	req := parseListRequest(catalog.KindSong, "not a map")

	if req.Page != 1 || req.Limit != DefaultLimit {
		t.Errorf("Expected defaults for bad payload, got page %d limit %d", req.Page, req.Limit)
	}
}

func TestBuildListDefaultSort(t *testing.T) {
	snap := testSnapshot()
	state := ranking.NewSortState(ranking.KeyPlayCount)

	resp := buildList(snap, parseListRequest(catalog.KindSong), state)

	if resp.Kind != "song" {
		t.Errorf("Expected kind song, got %s", resp.Kind)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(resp.Items))
	}
	if resp.Items[0].ID != "s2" || resp.Items[0].Rank != 1 {
		t.Errorf("Expected s2 at rank 1, got %s at rank %d", resp.Items[0].ID, resp.Items[0].Rank)
	}
	if resp.Items[2].ID != "s3" {
		t.Errorf("Expected s3 last, got %s", resp.Items[2].ID)
	}
	if resp.Sort.Key != "play_count" || resp.Sort.Direction != "desc" {
		t.Errorf("Unexpected sort view: %+v", resp.Sort)
	}
}

func TestBuildListSortToggle(t *testing.T) {
	snap := testSnapshot()
	cs := newConnState()

	// Selecting the active key flips its direction.
	req := parseListRequest(catalog.KindSong, map[string]interface{}{"sort": "play_count"})
	resp := buildList(snap, req, cs.sortFor(catalog.KindSong, req.Select))
	if resp.Sort.Direction != "asc" {
		t.Fatalf("Expected flipped direction asc, got %s", resp.Sort.Direction)
	}
	if resp.Items[0].ID != "s3" {
		t.Errorf("Expected least played first, got %s", resp.Items[0].ID)
	}

	// Selecting a new key resets to that key's default direction.
	req = parseListRequest(catalog.KindSong, map[string]interface{}{"sort": "title"})
	resp = buildList(snap, req, cs.sortFor(catalog.KindSong, req.Select))
	if resp.Sort.Key != "title" || resp.Sort.Direction != "asc" {
		t.Errorf("Expected title asc, got %s %s", resp.Sort.Key, resp.Sort.Direction)
	}
	if resp.Items[0].Title != "Alpha" {
		t.Errorf("Expected Alpha first, got %s", resp.Items[0].Title)
	}
}

func TestBuildListIgnoresUnknownSortKey(t *testing.T) {
	snap := testSnapshot()
	cs := newConnState()
	req := parseListRequest(catalog.KindSong, map[string]interface{}{"sort": "bogus"})

	resp := buildList(snap, req, cs.sortFor(catalog.KindSong, req.Select))

	if resp.Sort.Key != "play_count" || resp.Sort.Direction != "desc" {
		t.Errorf("Expected sort state unchanged, got %+v", resp.Sort)
	}
}

func TestSortStatePerKind(t *testing.T) {
	cs := newConnState()

	// Toggling songs leaves the album state at its default.
	cs.sortFor(catalog.KindSong, ranking.KeyPlayCount)
	if got := cs.sortFor(catalog.KindSong, ""); got.Direction != ranking.Ascending {
		t.Errorf("Expected song state flipped to asc, got %s", got.Direction)
	}
	if got := cs.sortFor(catalog.KindAlbum, ""); got.Key != ranking.KeyPlayCount || got.Direction != ranking.Descending {
		t.Errorf("Expected album state untouched, got %+v", got)
	}
}

func TestSortForConcurrentSelections(t *testing.T) {
	cs := newConnState()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cs.sortFor(catalog.KindSong, ranking.KeyPlayCount)
			}
		}()
	}
	wg.Wait()

	// 1600 toggles in total, so the state is back at its default.
	if got := cs.sortFor(catalog.KindSong, ""); got.Direction != ranking.Descending {
		t.Errorf("Expected desc after an even number of toggles, got %s", got.Direction)
	}
}

func TestBuildListQueryFilter(t *testing.T) {
	snap := testSnapshot()
	state := ranking.NewSortState(ranking.KeyPlayCount)
	req := parseListRequest(catalog.KindSong, map[string]interface{}{"query": "NINA"})

	resp := buildList(snap, req, state)

	if len(resp.Items) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(resp.Items))
	}
	if resp.Pagination.Total != 2 {
		t.Errorf("Expected total 2, got %d", resp.Pagination.Total)
	}
	// Ranks are relative to the filtered collection.
	if resp.Items[0].ID != "s2" || resp.Items[0].Rank != 1 {
		t.Errorf("Expected s2 at rank 1, got %s at rank %d", resp.Items[0].ID, resp.Items[0].Rank)
	}
}

func TestBuildListPagination(t *testing.T) {
	snap := testSnapshot()
	state := ranking.NewSortState(ranking.KeyPlayCount)
	req := parseListRequest(catalog.KindSong, map[string]interface{}{
		"page":  float64(2),
		"limit": float64(2),
	})

	resp := buildList(snap, req, state)

	if len(resp.Items) != 1 {
		t.Fatalf("Expected 1 item on page 2, got %d", len(resp.Items))
	}
	if resp.Items[0].ID != "s3" || resp.Items[0].Rank != 3 {
		t.Errorf("Expected s3 at rank 3, got %s at rank %d", resp.Items[0].ID, resp.Items[0].Rank)
	}
	if resp.Pagination.Total != 3 {
		t.Errorf("Expected total 3, got %d", resp.Pagination.Total)
	}
}

func TestBuildListPaginationClamps(t *testing.T) {
	snap := testSnapshot()
	state := ranking.NewSortState(ranking.KeyPlayCount)

	req := parseListRequest(catalog.KindSong, map[string]interface{}{
		"page":  float64(-1),
		"limit": float64(100000),
	})
	resp := buildList(snap, req, state)
	if resp.Pagination.Page != 1 {
		t.Errorf("Expected page clamped to 1, got %d", resp.Pagination.Page)
	}
	if resp.Pagination.Limit != MaxLimit {
		t.Errorf("Expected limit clamped to %d, got %d", MaxLimit, resp.Pagination.Limit)
	}

	// A page past the end yields an empty slice, not a panic.
	req = parseListRequest(catalog.KindSong, map[string]interface{}{"page": float64(99)})
	resp = buildList(snap, req, state)
	if len(resp.Items) != 0 {
		t.Errorf("Expected no items past the end, got %d", len(resp.Items))
	}
}

func TestBuildListNilSnapshot(t *testing.T) {
	state := ranking.NewSortState(ranking.KeyPlayCount)

	resp := buildList(nil, parseListRequest(catalog.KindSong), state)

	if len(resp.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(resp.Items))
	}
	if resp.Pagination.Total != 0 {
		t.Errorf("Expected total 0, got %d", resp.Pagination.Total)
	}
}

func TestBuildListAlbums(t *testing.T) {
	snap := testSnapshot()
	state := ranking.NewSortState(ranking.KeyPlayCount)

	resp := buildList(snap, parseListRequest(catalog.KindAlbum), state)

	if len(resp.Items) != 2 {
		t.Fatalf("Expected 2 albums, got %d", len(resp.Items))
	}
	first := resp.Items[0]
	if first.Title != "First" || first.PlayCount != 25 || first.SongCount != 2 {
		t.Errorf("Unexpected top album view: %+v", first)
	}
}

func TestBuildListPlaylists(t *testing.T) {
	snap := testSnapshot()
	state := ranking.NewSortState(ranking.KeyPlayCount)

	resp := buildList(snap, parseListRequest(catalog.KindPlaylist), state)

	if len(resp.Items) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(resp.Items))
	}
	if resp.Items[0].Title != "Favourites" || resp.Items[0].SongCount != 2 {
		t.Errorf("Unexpected playlist view: %+v", resp.Items[0])
	}
}

func TestEntityViewSongTimes(t *testing.T) {
	snap := testSnapshot()

	v := entityView(catalog.SongEntity(snap.Songs[0]), 1)

	if v.AddedAt != nil || v.LastPlayedAt != nil {
		t.Errorf("Expected zero times to map to nil pointers")
	}
	if v.Duration != 200 {
		t.Errorf("Expected duration 200, got %d", v.Duration)
	}
}
