package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/api/metrics"
	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AuditDispatcher writes session events to the audit repository off the
// request path. Events are sharded by username so each account's history is
// persisted in the order it happened.
type AuditDispatcher struct {
	workers []chan domain.SessionEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They drain their queues and exit once ctx is
// cancelled; Wait blocks until they have.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *AuditDispatcher) Wait() {
	d.wg.Wait()
}

// Record implements ports.AuditRecorder. It never blocks: when the worker's
// queue is full the event is dropped and counted.
func (d *AuditDispatcher) Record(event domain.SessionEvent) {
	idx := d.shardIndex(event.Username)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditEventsDroppedTotal.Inc()
		d.log.Warn().
			Str("type", string(event.Type)).
			Str("username", event.Username).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a username deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(username string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			depth.Dec()
			d.persist(ctx, id, event)
		}
	}
}

// drain flushes whatever is still queued at shutdown using a fresh context,
// since the worker context is already cancelled.
func (d *AuditDispatcher) drain(id int, ch <-chan domain.SessionEvent) {
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case event := <-ch:
			depth.Dec()
			d.persist(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *AuditDispatcher) persist(ctx context.Context, id int, event domain.SessionEvent) {
	if err := d.repo.InsertEvent(ctx, &event); err != nil {
		d.log.Error().Err(err).
			Str("type", string(event.Type)).
			Str("username", event.Username).
			Int("worker_id", id).
			Msg("audit event write failed")
		return
	}
	metrics.AuditEventsWrittenTotal.WithLabelValues(string(event.Type)).Inc()
}
