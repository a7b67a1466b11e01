package track

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/posture"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

// Default registry configuration constants.
const (
	defaultSilenceTimeout = 10 * time.Second
)

// slot pairs a track's state with its lock and the previous
// observation kept as classifier context. One slot per live track;
// the slot mutex is what serializes same-track advances.
type slot struct {
	mu    sync.Mutex
	state *State
	prev  *model.Observation
}

// Registry owns the map of live tracks. Cross-track observations may
// be processed in parallel; the per-slot mutex guarantees per-track
// serialization, and the registry mutex only guards map membership.
type Registry struct {
	mu    sync.RWMutex
	slots map[int64]*slot

	classifier     posture.Classifier
	machine        *Machine
	silenceTimeout time.Duration

	logger logger.Logger
}

// NewRegistry creates a registry with configuration options.
func NewRegistry(classifier posture.Classifier, machine *Machine, opts ...RegistryOption) *Registry {
	r := &Registry{
		slots:          make(map[int64]*slot),
		classifier:     classifier,
		machine:        machine,
		silenceTimeout: defaultSilenceTimeout,
		logger:         logger.Get().Named("tracks"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Observe classifies one observation and advances the owning track's
// state machine, creating the track on first sight. It returns a
// FallEvent when the observation confirms a fall.
func (r *Registry) Observe(ctx context.Context, obs model.Observation) (*model.FallEvent, error) {
	s := r.slot(obs.TrackID)

	s.mu.Lock()
	defer s.mu.Unlock()

	label := r.classifier.Classify(obs, s.prev)
	metrics.RecordPostureLabel(label.Posture.String())

	event, err := r.machine.Advance(s.state, obs, label)
	if err != nil {
		metrics.RecordOrderingViolation()
		r.logger.Warn(ctx, "observation rejected",
			logger.Int64("trackID", obs.TrackID),
			logger.Error(err),
		)
		return nil, err
	}

	s.prev = &obs

	if event != nil {
		metrics.RecordFallConfirmed()
		r.logger.Info(ctx, "fall confirmed",
			logger.Int64("trackID", obs.TrackID),
			logger.String("eventID", event.EventID),
			logger.Float64("confidence", event.Confidence),
		)
	}
	return event, nil
}

// slot returns the track's slot, creating it on first observation.
func (r *Registry) slot(trackID int64) *slot {
	r.mu.RLock()
	s, ok := r.slots[trackID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.slots[trackID]; ok {
		return s
	}
	s = &slot{state: newState(trackID, r.machine.HistoryMax())}
	r.slots[trackID] = s
	metrics.UpdateActiveTracks(len(r.slots))
	return s
}

// Sweep evicts tracks that have been silent for at least the silence
// timeout. No event is emitted on eviction; a lost track is not
// evidence of anything. It takes per-track locks only, so it never
// blocks processing of other tracks.
func (r *Registry) Sweep(ctx context.Context, now time.Time) int {
	r.mu.RLock()
	candidates := make([]int64, 0, len(r.slots))
	for id, s := range r.slots {
		s.mu.Lock()
		stale := !s.state.LastSeenAt.IsZero() && now.Sub(s.state.LastSeenAt) >= r.silenceTimeout
		s.mu.Unlock()
		if stale {
			candidates = append(candidates, id)
		}
	}
	r.mu.RUnlock()

	evicted := 0
	for _, id := range candidates {
		r.mu.Lock()
		s, ok := r.slots[id]
		if ok {
			s.mu.Lock()
			if now.Sub(s.state.LastSeenAt) >= r.silenceTimeout {
				delete(r.slots, id)
				evicted++
			}
			s.mu.Unlock()
		}
		metrics.UpdateActiveTracks(len(r.slots))
		r.mu.Unlock()
	}

	if evicted > 0 {
		metrics.RecordTrackEvictions(evicted)
		r.logger.Debug(ctx, "evicted silent tracks", logger.Int("count", evicted))
	}
	return evicted
}

// RunSweeper sweeps on a ticker until ctx is canceled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(ctx, now)
		}
	}
}

// Count returns the number of live tracks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Snapshot returns a read view of every live track, ordered by id.
func (r *Registry) Snapshot() []types.TrackView {
	r.mu.RLock()
	views := make([]types.TrackView, 0, len(r.slots))
	for _, s := range r.slots {
		s.mu.Lock()
		views = append(views, types.TrackView{
			TrackID:  s.state.TrackID,
			Phase:    s.state.Phase.String(),
			Posture:  s.state.LastPosture.String(),
			LastSeen: s.state.LastSeenAt,
		})
		s.mu.Unlock()
	}
	r.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].TrackID < views[j].TrackID })
	return views
}
