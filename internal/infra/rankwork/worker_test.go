package rankwork

import (
	"context"
	"testing"
	"time"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
)

// snapshotResolver resolves against a fixed snapshot, like the library does.
type snapshotResolver struct {
	snap *catalog.Snapshot
}

func (r *snapshotResolver) Resolve(kind catalog.EntityKind, id string) (catalog.Entity, bool) {
	return r.snap.Resolve(kind, id)
}

func testResolver() *snapshotResolver {
	songs := []*catalog.Song{
		{ID: "s1", Title: "A", Artist: "X", Album: "First", PlayCount: 5},
		{ID: "s2", Title: "B", Artist: "X", Album: "First", PlayCount: 20},
		{ID: "s3", Title: "C", Artist: "X", Album: "First", PlayCount: 1},
	}
	playlists := []catalog.PlaylistInfo{
		{ID: "p1", Name: "Mix", SongIDs: []string{"s1", "s2", "s3"}},
	}
	return &snapshotResolver{snap: catalog.BuildSnapshot(songs, playlists)}
}

func TestProcessBatchComputesRanks(t *testing.T) {
	w := NewWorker(testResolver())

	req := Request{
		EntityKind: catalog.KindSong,
		EntityID:   "s2",
		WithinKind: catalog.KindPlaylist,
		WithinID:   "p1",
	}
	w.Enqueue(req)
	w.processBatch(context.Background())

	res, ok := w.Lookup(req)
	if !ok {
		t.Fatal("result should be available after processing")
	}
	if !res.Found || res.Rank != 1 || res.Total != 3 {
		t.Errorf("got %+v, want rank 1 of 3", res.RankResult)
	}
	if res.ComputedAt.IsZero() {
		t.Error("ComputedAt should be stamped")
	}
	if w.QueueLength() != 0 {
		t.Errorf("queue should be drained, %d left", w.QueueLength())
	}
}

func TestProcessBatchUnresolvable(t *testing.T) {
	w := NewWorker(testResolver())

	req := Request{
		EntityKind: catalog.KindSong,
		EntityID:   "missing",
		WithinKind: catalog.KindPlaylist,
		WithinID:   "p1",
	}
	w.Enqueue(req)
	w.processBatch(context.Background())

	res, ok := w.Lookup(req)
	if !ok {
		t.Fatal("unresolvable requests still produce a result")
	}
	if res.Found || res.Total != 0 {
		t.Errorf("got %+v, want empty not-found result", res.RankResult)
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	w := NewWorker(testResolver())

	req := Request{EntityKind: catalog.KindSong, EntityID: "s1", WithinKind: catalog.KindPlaylist, WithinID: "p1"}
	w.Enqueue(req)
	w.Enqueue(req)
	if w.QueueLength() != 1 {
		t.Errorf("queue length = %d, want 1 after duplicate enqueue", w.QueueLength())
	}
}

func TestBatchSizeLimitsWork(t *testing.T) {
	w := NewWorker(testResolver(), WithBatchSize(2))

	for _, id := range []string{"s1", "s2", "s3"} {
		w.Enqueue(Request{EntityKind: catalog.KindSong, EntityID: id, WithinKind: catalog.KindPlaylist, WithinID: "p1"})
	}
	w.processBatch(context.Background())
	if w.QueueLength() != 1 {
		t.Errorf("queue length = %d, want 1 after one batch of 2", w.QueueLength())
	}
	w.processBatch(context.Background())
	if w.QueueLength() != 0 {
		t.Errorf("queue should be empty, %d left", w.QueueLength())
	}
}

func TestInvalidateAllRequeues(t *testing.T) {
	w := NewWorker(testResolver())

	req := Request{EntityKind: catalog.KindSong, EntityID: "s1", WithinKind: catalog.KindPlaylist, WithinID: "p1"}
	w.Enqueue(req)
	w.processBatch(context.Background())

	w.InvalidateAll()
	if _, ok := w.Lookup(req); ok {
		t.Error("results should be gone after invalidation")
	}
	if w.QueueLength() != 1 {
		t.Errorf("queue length = %d, want request requeued", w.QueueLength())
	}

	w.processBatch(context.Background())
	if _, ok := w.Lookup(req); !ok {
		t.Error("requeued request should be recomputed")
	}
}

func TestPublishCallback(t *testing.T) {
	var published []Result
	w := NewWorker(testResolver(), WithPublishFunc(func(results []Result) {
		published = append(published, results...)
	}))

	w.Enqueue(Request{EntityKind: catalog.KindSong, EntityID: "s1", WithinKind: catalog.KindPlaylist, WithinID: "p1"})
	w.Enqueue(Request{EntityKind: catalog.KindSong, EntityID: "s2", WithinKind: catalog.KindPlaylist, WithinID: "p1"})
	w.processBatch(context.Background())

	if len(published) != 2 {
		t.Errorf("published %d results, want 2", len(published))
	}
}

// Start occupies the calling goroutine for the worker's whole lifetime,
// so callers must run it with go. This pins that contract down.
func TestStartBlocksUntilCancelled(t *testing.T) {
	w := NewWorker(testResolver(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Start returned while the context was still live")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestStartAndStop(t *testing.T) {
	w := NewWorker(testResolver(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for !w.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("worker never reported running")
		case <-time.After(time.Millisecond):
		}
	}

	w.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
