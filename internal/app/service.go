// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	workerpool "github.com/wikibird2024/intergrate-fall/internal/adapters/mq/worker"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/notify"
	repository "github.com/wikibird2024/intergrate-fall/internal/adapters/repository"
	"github.com/wikibird2024/intergrate-fall/internal/domain/dedupe"
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/posture"
	"github.com/wikibird2024/intergrate-fall/internal/domain/track"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

// Service wires the observation pipeline: classification, per-track
// state machines, alert dispatch and the event store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.EventStore
	registry   *track.Registry
	dispatcher *notify.Dispatcher
	pool       *workerpool.Pool
	channels   []notify.Channel

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	classifierOpts  []posture.Option
	machineOpts     []track.MachineOption
	silenceTimeout  time.Duration
	sweepInterval   time.Duration
	channelTimeout  time.Duration
	deviceCooldown  time.Duration
	maxEventsLimit  int

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(store repository.EventStore, opts ...Option) *Service {
	s := &Service{
		store:          store,
		workerCount:    runtime.NumCPU(),
		queueSize:      4096,
		dedupeSize:     10000,
		silenceTimeout: 10 * time.Second,
		sweepInterval:  2 * time.Second,
		channelTimeout: 3 * time.Second,
		deviceCooldown: 5 * time.Minute,
		maxEventsLimit: 100,
		logger:         nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting fall detection service...")

	classifier := posture.NewGeometricClassifier(s.classifierOpts...)
	machine := track.NewMachine(s.machineOpts...)
	s.registry = track.NewRegistry(classifier, machine,
		track.WithSilenceTimeout(s.silenceTimeout),
	)

	gate := dedupe.NewInMemoryGate(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithCooldown(s.deviceCooldown),
	)
	s.dispatcher = notify.NewDispatcher(s.store,
		notify.WithChannels(s.channels...),
		notify.WithGate(gate),
		notify.WithChannelTimeout(s.channelTimeout),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queueSize, s.registry, s.dispatcher)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pool.Start(runCtx)
	go s.registry.RunSweeper(runCtx, s.sweepInterval)

	s.started = true
	s.logger.Info(ctx, "fall detection service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("channels", len(s.channels)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping fall detection service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}

	// The store is owned by the caller and closed there.
	s.started = false
	s.logger.Info(ctx, "fall detection service stopped")
}

// Ingest submits one observation for asynchronous processing, routing
// it to the worker that owns its track. Returns false on backpressure.
func (s *Service) Ingest(ctx context.Context, obs model.Observation) bool {
	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()

	if pool == nil {
		return false
	}
	return pool.Route(ctx, obs)
}

// Dispatch forwards an externally-built event (device reports) to the
// dispatcher.
func (s *Service) Dispatch(ctx context.Context, event model.FallEvent) notify.DispatchResult {
	s.mu.RLock()
	dispatcher := s.dispatcher
	s.mu.RUnlock()

	if dispatcher == nil {
		return notify.DispatchResult{EventID: event.EventID, Suppressed: true}
	}
	return dispatcher.Dispatch(ctx, event)
}

// RecentEvents returns up to limit stored events, newest first.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]types.EventView, error) {
	if limit <= 0 || limit > s.maxEventsLimit {
		limit = s.maxEventsLimit
	}
	return s.store.Recent(ctx, limit)
}

// Tracks returns the live track phase snapshot.
func (s *Service) Tracks(ctx context.Context) []types.TrackView {
	s.mu.RLock()
	registry := s.registry
	s.mu.RUnlock()

	if registry == nil {
		return nil
	}
	return registry.Snapshot()
}

// AcknowledgeEvent marks a stored event as acknowledged by a caregiver.
func (s *Service) AcknowledgeEvent(ctx context.Context, id int64) error {
	return s.store.UpdateStatus(ctx, id, repository.StatusAcknowledged)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		queueLen := s.pool.Len(ctx)
		activeTracks := s.registry.Count()
		stats["queueLength"] = queueLen
		stats["activeTracks"] = activeTracks
		if n, err := s.store.Count(ctx); err == nil {
			stats["storedEvents"] = n
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveTracks(activeTracks)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
