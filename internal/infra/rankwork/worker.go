// Package rankwork precomputes contextual rank results in the background.
// Clients enqueue entity/context pairs; a worker resolves them against the
// current library snapshot in batches and publishes results atomically,
// so lookups never observe a half-computed batch.
package rankwork

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/ranking"
)

// Resolver looks up entities in the current library snapshot.
// *catalog.Library satisfies it.
type Resolver interface {
	Resolve(kind catalog.EntityKind, id string) (catalog.Entity, bool)
}

// Request identifies one contextual rank computation: where does the
// entity place among its peers inside the container.
type Request struct {
	EntityKind catalog.EntityKind `json:"entityKind"`
	EntityID   string             `json:"entityId"`
	WithinKind catalog.EntityKind `json:"withinKind"`
	WithinID   string             `json:"withinId"`
}

func (r Request) key() string {
	return string(r.EntityKind) + "\x00" + r.EntityID + "\x00" + string(r.WithinKind) + "\x00" + r.WithinID
}

// Result carries a computed contextual rank.
type Result struct {
	Request
	ranking.RankResult
	ComputedAt time.Time `json:"computedAt"`
}

// PublishFunc is called with each completed batch.
type PublishFunc func(results []Result)

// Config holds worker tuning parameters.
type Config struct {
	BatchSize int
	Interval  time.Duration
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize: 200,
		Interval:  500 * time.Millisecond,
	}
}

// Worker processes rank requests in the background.
type Worker struct {
	resolver Resolver
	config   Config
	publish  PublishFunc

	mu      sync.Mutex
	queue   []Request
	pending map[string]bool
	results map[string]Result
	running bool
	stopCh  chan struct{}
}

// Option is a functional option for configuring the worker.
type Option func(*Worker)

// WithBatchSize sets the number of requests to process per batch.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		w.config.BatchSize = size
	}
}

// WithInterval sets the interval between batch processing.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		w.config.Interval = interval
	}
}

// WithPublishFunc sets the callback invoked with each completed batch.
func WithPublishFunc(fn PublishFunc) Option {
	return func(w *Worker) {
		w.publish = fn
	}
}

// NewWorker creates a new rank worker.
func NewWorker(resolver Resolver, opts ...Option) *Worker {
	w := &Worker{
		resolver: resolver,
		config:   DefaultConfig(),
		pending:  make(map[string]bool),
		results:  make(map[string]Result),
		stopCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins processing requests in the background.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	log.Info().
		Int("batchSize", w.config.BatchSize).
		Dur("interval", w.config.Interval).
		Msg("Rank worker started")

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Rank worker stopping (context cancelled)")
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			log.Info().Msg("Rank worker stopping (stop requested)")
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		close(w.stopCh)
	}
}

// IsRunning returns whether the worker is currently running.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Enqueue schedules requests for computation. Requests already pending
// are not queued twice.
func (w *Worker) Enqueue(requests ...Request) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, req := range requests {
		key := req.key()
		if w.pending[key] {
			continue
		}
		w.pending[key] = true
		w.queue = append(w.queue, req)
	}
}

// Lookup returns the computed result for a request, if available.
func (w *Worker) Lookup(req Request) (Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res, ok := w.results[req.key()]
	return res, ok
}

// QueueLength reports the number of requests awaiting computation.
func (w *Worker) QueueLength() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// InvalidateAll discards all computed results and requeues them, so ranks
// are recomputed against the current snapshot. Called after a library
// refresh.
func (w *Worker) InvalidateAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	requeued := 0
	for key, res := range w.results {
		if !w.pending[key] {
			w.pending[key] = true
			w.queue = append(w.queue, res.Request)
			requeued++
		}
	}
	w.results = make(map[string]Result)

	log.Debug().Int("requeued", requeued).Msg("Rank results invalidated")
}

// processBatch computes one batch of requests and publishes the results.
func (w *Worker) processBatch(ctx context.Context) {
	w.mu.Lock()
	n := len(w.queue)
	if n == 0 {
		w.mu.Unlock()
		return
	}
	if n > w.config.BatchSize {
		n = w.config.BatchSize
	}
	batch := make([]Request, n)
	copy(batch, w.queue[:n])
	w.queue = w.queue[n:]
	w.mu.Unlock()

	log.Debug().Int("count", len(batch)).Msg("Computing contextual ranks")

	results := make([]Result, 0, len(batch))
	for _, req := range batch {
		if ctx.Err() != nil {
			return
		}
		results = append(results, Result{
			Request:    req,
			RankResult: w.compute(req),
			ComputedAt: time.Now(),
		})
	}

	// publish the whole batch at once; latest computation wins
	w.mu.Lock()
	for _, res := range results {
		key := res.Request.key()
		w.results[key] = res
		delete(w.pending, key)
	}
	w.mu.Unlock()

	if w.publish != nil {
		w.publish(results)
	}
}

// compute resolves both sides of a request and ranks the entity among
// its peers. Unresolvable entities yield a not-found result.
func (w *Worker) compute(req Request) ranking.RankResult {
	entity, ok := w.resolver.Resolve(req.EntityKind, req.EntityID)
	if !ok {
		return ranking.RankResult{}
	}
	within, ok := w.resolver.Resolve(req.WithinKind, req.WithinID)
	if !ok {
		return ranking.RankResult{}
	}
	return ranking.ContextualRank(entity, within)
}
