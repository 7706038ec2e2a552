// Package queue decouples audit writes from the request path.
package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/metrics"
	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

type auditItem struct {
	authEvent *domain.AuthAuditEntry
	change    *domain.ChangeAuditEntry
}

// AuditDispatcher implements ports.AuditRepository by buffering inserts
// through a fixed set of workers sharded on the actor, so a single user's
// trail stays in order while the request path never waits on the database.
// Reads go straight to the underlying repository.
type AuditDispatcher struct {
	repo    ports.AuditRepository
	workers []chan auditItem
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		repo:    repo,
		workers: make([]chan auditItem, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan auditItem, channelBuffer)
	}
	return d
}

// Start launches the worker goroutines. Workers drain their channels and
// stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Close stops accepting new entries and waits for the workers to drain
// what was already enqueued. Safe to call more than once; entries
// enqueued concurrently with Close are dropped, never panicked on.
func (d *AuditDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *AuditDispatcher) InsertAuthEvent(_ context.Context, entry *domain.AuthAuditEntry) error {
	actor := ""
	if entry.UserID != nil {
		actor = *entry.UserID
	}
	d.enqueue(actor, auditItem{authEvent: entry})
	return nil
}

func (d *AuditDispatcher) InsertChange(_ context.Context, entry *domain.ChangeAuditEntry) error {
	actor := ""
	if entry.UserID != nil {
		actor = *entry.UserID
	}
	d.enqueue(actor, auditItem{change: entry})
	return nil
}

func (d *AuditDispatcher) ListAuthEventsByUser(ctx context.Context, userID string, limit int) ([]domain.AuthAuditEntry, error) {
	return d.repo.ListAuthEventsByUser(ctx, userID, limit)
}

// enqueue is non-blocking: when a worker's buffer is full, or the
// dispatcher is shutting down, the entry is dropped with a warning
// rather than stalling the caller.
func (d *AuditDispatcher) enqueue(actor string, item auditItem) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.AuditEntriesDroppedTotal.Inc()
		d.log.Warn().Str("actor", actor).Msg("dispatcher closed, audit entry dropped")
		return
	}
	select {
	case d.workers[d.shardIndex(actor)] <- item:
	default:
		metrics.AuditEntriesDroppedTotal.Inc()
		d.log.Warn().Str("actor", actor).Msg("audit buffer full, entry dropped")
	}
}

// shardIndex maps an actor deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(actor string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actor))
	return int(h.Sum32()) % len(d.workers)
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan auditItem) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-ch:
			if !ok {
				return
			}
			d.flush(ctx, id, item)
		}
	}
}

func (d *AuditDispatcher) flush(ctx context.Context, workerID int, item auditItem) {
	var err error
	switch {
	case item.authEvent != nil:
		err = d.repo.InsertAuthEvent(ctx, item.authEvent)
	case item.change != nil:
		err = d.repo.InsertChange(ctx, item.change)
	}
	if err != nil {
		d.log.Error().Err(err).
			Int("worker_id", workerID).
			Msg("audit write failed")
	}
}
