// Package worker defines workers that drain observation queues into
// the per-track state machines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/mq/queue"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/notify"
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/track"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Observation is what workers read off their queue.
type Observation = model.Observation

// Tracker classifies one observation and advances the owning track.
type Tracker interface {
	Observe(ctx context.Context, obs model.Observation) (*model.FallEvent, error)
}

// Alerter delivers a confirmed fall event to all sinks.
type Alerter interface {
	Dispatch(ctx context.Context, event model.FallEvent) notify.DispatchResult
}

// Queue defines how a worker receives observations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Observation
}

// Worker drains one queue. Because the pool routes every observation
// for a given track to the same worker, arrival order per track is the
// processing order.
type Worker struct {
	queue   Queue
	tracker Tracker
	alerter Alerter
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, tracker Tracker, alerter Alerter, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		tracker:  tracker,
		alerter:  alerter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	observations := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case obs, ok := <-observations:
			if !ok {
				return
			}
			if err := w.process(ctx, obs); err != nil {
				w.logger.Error(ctx, "error processing observation", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process advances one observation through classification, the state
// machine and - on confirmation - dispatch. An ordering violation is
// contained here: the rejected call was a no-op and the worker moves
// on to the next observation.
func (w *Worker) process(ctx context.Context, obs Observation) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	event, err := w.tracker.Observe(ctx, obs)
	if err != nil {
		if track.IsOrderingViolation(err) {
			// Logged by the registry; not a worker failure.
			return nil
		}
		metrics.RecordWorkerError()
		return fmt.Errorf("advance track %d: %w", obs.TrackID, err)
	}

	metrics.RecordObservationProcessed()

	if event != nil {
		result := w.alerter.Dispatch(ctx, *event)
		if !result.Suppressed && !result.Alerted() {
			w.logger.Warn(ctx, "fall event not delivered on any channel",
				logger.String("eventID", event.EventID),
			)
		}
	}
	return nil
}

// Pool routes observations to a fixed set of workers, one bounded
// queue each. Same-track observations always hash to the same worker,
// which is what serializes per-track state mutation while different
// tracks proceed in parallel.
type Pool struct {
	workers []*Worker
	queues  []*queue.InMemoryQueue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers with queueSize slots each.
func NewPool(workerCount, queueSize int, tracker Tracker, alerter Alerter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		queues:  make([]*queue.InMemoryQueue, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.queues[i] = queue.NewInMemoryQueue(
			queue.WithCapacity(queueSize),
			queue.WithBufferSize(queueSize),
		)
		p.workers[i] = NewWorker(
			p.queues[i],
			tracker,
			alerter,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Route enqueues the observation on its track's worker queue.
// Returns false on backpressure.
func (p *Pool) Route(ctx context.Context, obs Observation) bool {
	idx := int(obs.TrackID % int64(len(p.queues)))
	if idx < 0 {
		idx = -idx
	}
	return p.queues[idx].Enqueue(ctx, obs)
}

// Len returns the total number of queued observations across workers.
func (p *Pool) Len(ctx context.Context) int {
	total := 0
	for _, q := range p.queues {
		total += q.Len(ctx)
	}
	return total
}

// Shutdown closes all queues and waits for the workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, q := range p.queues {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
