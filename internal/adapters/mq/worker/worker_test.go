package worker_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	workerpool "github.com/wikibird2024/intergrate-fall/internal/adapters/mq/worker"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/notify"
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/track"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// recordingTracker records the order observations arrive per track and
// emits a fall event whenever told to.
type recordingTracker struct {
	mu       sync.Mutex
	perTrack map[int64][]time.Time
	emitOn   map[int64]int // observation index that confirms a fall
	counts   map[int64]int
	stale    bool // reject observations older than the track's last
	lastSeen map[int64]time.Time
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{
		perTrack: make(map[int64][]time.Time),
		emitOn:   make(map[int64]int),
		counts:   make(map[int64]int),
		lastSeen: make(map[int64]time.Time),
	}
}

func (r *recordingTracker) Observe(_ context.Context, obs model.Observation) (*model.FallEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stale && obs.Timestamp.Before(r.lastSeen[obs.TrackID]) {
		return nil, fmt.Errorf("stale: %w", track.ErrOrderingViolation)
	}
	r.lastSeen[obs.TrackID] = obs.Timestamp
	r.perTrack[obs.TrackID] = append(r.perTrack[obs.TrackID], obs.Timestamp)

	idx := r.counts[obs.TrackID]
	r.counts[obs.TrackID] = idx + 1
	if emit, ok := r.emitOn[obs.TrackID]; ok && emit == idx {
		return &model.FallEvent{
			EventID:    fmt.Sprintf("ev-%d-%d", obs.TrackID, idx),
			Source:     model.SourceCamera,
			EntityID:   fmt.Sprintf("camera_person_%d", obs.TrackID),
			TrackID:    obs.TrackID,
			DetectedAt: obs.Timestamp,
		}, nil
	}
	return nil, nil
}

func (r *recordingTracker) observed(trackID int64) []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.perTrack[trackID]))
	copy(out, r.perTrack[trackID])
	return out
}

// recordingAlerter captures dispatched events.
type recordingAlerter struct {
	mu     sync.Mutex
	events []model.FallEvent
}

func (r *recordingAlerter) Dispatch(_ context.Context, event model.FallEvent) notify.DispatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return notify.DispatchResult{
		EventID:  event.EventID,
		Channels: []notify.ChannelResult{{Channel: "fake", Outcome: notify.Delivered}},
	}
}

func (r *recordingAlerter) dispatched() []model.FallEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.FallEvent, len(r.events))
	copy(out, r.events)
	return out
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestPoolProcessing(t *testing.T) {
	Convey("Given a running pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tracker := newRecordingTracker()
		alerter := &recordingAlerter{}
		pool := workerpool.NewPool(4, 64, tracker, alerter)
		pool.Start(ctx)

		Convey("When observations for one track are routed in order", func() {
			start := time.Now()
			for i := 0; i < 10; i++ {
				ok := pool.Route(ctx, model.Observation{
					TrackID:   3,
					Timestamp: start.Add(time.Duration(i) * 100 * time.Millisecond),
				})
				So(ok, ShouldBeTrue)
			}

			So(waitFor(2*time.Second, func() bool {
				return len(tracker.observed(3)) == 10
			}), ShouldBeTrue)

			Convey("Then they are processed in arrival order", func() {
				seen := tracker.observed(3)
				for i := 1; i < len(seen); i++ {
					So(seen[i].After(seen[i-1]), ShouldBeTrue)
				}
			})
		})

		Convey("When a tracker confirmation produces an event", func() {
			tracker.emitOn[5] = 2

			start := time.Now()
			for i := 0; i < 4; i++ {
				So(pool.Route(ctx, model.Observation{
					TrackID:   5,
					Timestamp: start.Add(time.Duration(i) * time.Millisecond),
				}), ShouldBeTrue)
			}

			So(waitFor(2*time.Second, func() bool {
				return len(alerter.dispatched()) == 1
			}), ShouldBeTrue)

			Convey("Then exactly that event is dispatched", func() {
				events := alerter.dispatched()
				So(events, ShouldHaveLength, 1)
				So(events[0].EventID, ShouldEqual, "ev-5-2")
				So(events[0].EntityID, ShouldEqual, "camera_person_5")
			})
		})

		Convey("When a stale observation is rejected by the tracker", func() {
			tracker.stale = true
			start := time.Now()

			So(pool.Route(ctx, model.Observation{TrackID: 7, Timestamp: start}), ShouldBeTrue)
			So(pool.Route(ctx, model.Observation{TrackID: 7, Timestamp: start.Add(-time.Second)}), ShouldBeTrue)
			So(pool.Route(ctx, model.Observation{TrackID: 7, Timestamp: start.Add(time.Second)}), ShouldBeTrue)

			So(waitFor(2*time.Second, func() bool {
				return len(tracker.observed(7)) == 2
			}), ShouldBeTrue)

			Convey("Then the worker keeps processing subsequent observations", func() {
				seen := tracker.observed(7)
				So(seen, ShouldHaveLength, 2)
				So(seen[1], ShouldEqual, start.Add(time.Second))
			})
		})

		Convey("When observations span many tracks", func() {
			start := time.Now()
			const tracks = 12
			const frames = 8
			for i := 0; i < frames; i++ {
				for id := int64(1); id <= tracks; id++ {
					So(pool.Route(ctx, model.Observation{
						TrackID:   id,
						Timestamp: start.Add(time.Duration(i) * 50 * time.Millisecond),
					}), ShouldBeTrue)
				}
			}

			So(waitFor(3*time.Second, func() bool {
				for id := int64(1); id <= tracks; id++ {
					if len(tracker.observed(id)) != frames {
						return false
					}
				}
				return true
			}), ShouldBeTrue)

			Convey("Then each track's frames stayed in order", func() {
				for id := int64(1); id <= tracks; id++ {
					seen := tracker.observed(id)
					for i := 1; i < len(seen); i++ {
						So(seen[i].After(seen[i-1]), ShouldBeTrue)
					}
				}
			})
		})
	})
}

func TestPoolBackpressure(t *testing.T) {
	Convey("Given a pool that is not started", t, func() {
		tracker := newRecordingTracker()
		alerter := &recordingAlerter{}
		pool := workerpool.NewPool(1, 2, tracker, alerter)
		ctx := context.Background()

		Convey("When the single queue fills up", func() {
			So(pool.Route(ctx, model.Observation{TrackID: 1, Timestamp: time.Now()}), ShouldBeTrue)
			So(pool.Route(ctx, model.Observation{TrackID: 1, Timestamp: time.Now()}), ShouldBeTrue)

			Convey("Then further routes are refused without blocking", func() {
				So(pool.Route(ctx, model.Observation{TrackID: 1, Timestamp: time.Now()}), ShouldBeFalse)
				So(pool.Len(ctx), ShouldEqual, 2)
			})
		})
	})
}

func TestPoolShutdown(t *testing.T) {
	Convey("Given a running pool with a backlog", t, func() {
		ctx := context.Background()
		tracker := newRecordingTracker()
		alerter := &recordingAlerter{}
		pool := workerpool.NewPool(2, 64, tracker, alerter)

		start := time.Now()
		for i := 0; i < 20; i++ {
			So(pool.Route(ctx, model.Observation{
				TrackID:   int64(i % 4),
				Timestamp: start.Add(time.Duration(i) * time.Millisecond),
			}), ShouldBeTrue)
		}

		pool.Start(ctx)

		Convey("When shutting down", func() {
			err := pool.Shutdown(ctx)

			Convey("Then the backlog was drained first", func() {
				So(err, ShouldBeNil)
				total := 0
				for id := int64(0); id < 4; id++ {
					total += len(tracker.observed(id))
				}
				So(total, ShouldEqual, 20)
			})
		})
	})
}
