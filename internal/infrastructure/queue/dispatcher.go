package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher routes session events to a fixed set of workers using consistent
// hashing on the actor key, so events for one actor are stored in order.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.SessionAudit = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// after Close has drained their queues.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record hands an event to the worker responsible for its actor. It never
// blocks: when that worker's queue is full the event is dropped and logged.
func (d *Dispatcher) Record(event domain.SessionEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.workers[d.shardIndex(event.ShardKey())] <- event:
	default:
		d.log.Warn().
			Str("type", string(event.Type)).
			Str("actor_kind", string(event.Kind)).
			Msg("audit queue full, event dropped")
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (d *Dispatcher) Close() {
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

// shardIndex maps an actor key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.store(ctx, id, event)
		}
	}
}

func (d *Dispatcher) store(ctx context.Context, worker int, event domain.SessionEvent) {
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	if err := d.repo.InsertEvent(insertCtx, &event); err != nil {
		d.log.Error().Err(err).
			Str("type", string(event.Type)).
			Str("actor_kind", string(event.Kind)).
			Int("worker_id", worker).
			Msg("session event insert failed")
	}
}
