package track_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

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

// fixedClassifier returns a scripted label per call, ignoring geometry.
type fixedClassifier struct {
	mu     sync.Mutex
	labels map[int64][]model.PostureLabel
	next   map[int64]int
}

func newFixedClassifier() *fixedClassifier {
	return &fixedClassifier{
		labels: make(map[int64][]model.PostureLabel),
		next:   make(map[int64]int),
	}
}

func (f *fixedClassifier) script(trackID int64, labels ...model.PostureLabel) {
	f.labels[trackID] = append(f.labels[trackID], labels...)
}

func (f *fixedClassifier) Classify(obs model.Observation, _ *model.Observation) model.PostureLabel {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.labels[obs.TrackID]
	i := f.next[obs.TrackID]
	if i >= len(seq) {
		return model.PostureLabel{Posture: model.PostureStanding, Confidence: 0.9}
	}
	f.next[obs.TrackID] = i + 1
	return seq[i]
}

func lying(conf float64) model.PostureLabel {
	return model.PostureLabel{Posture: model.PostureLyingDown, Confidence: conf}
}

func standing() model.PostureLabel {
	return model.PostureLabel{Posture: model.PostureStanding, Confidence: 0.9}
}

func trackObs(trackID int64, ts time.Time) model.Observation {
	return model.Observation{TrackID: trackID, Timestamp: ts}
}

func TestRegistryObserve(t *testing.T) {
	Convey("Given a registry with a scripted classifier", t, func() {
		ctx := context.Background()
		classifier := newFixedClassifier()
		machine := track.NewMachine(track.WithDwell(time.Second))
		r := track.NewRegistry(classifier, machine)
		start := time.Now()

		Convey("When the first observation for a track arrives", func() {
			classifier.script(1, standing())
			ev, err := r.Observe(ctx, trackObs(1, start))

			Convey("Then the track is created in the normal phase", func() {
				So(err, ShouldBeNil)
				So(ev, ShouldBeNil)
				So(r.Count(), ShouldEqual, 1)
				views := r.Snapshot()
				So(views, ShouldHaveLength, 1)
				So(views[0].Phase, ShouldEqual, "normal")
			})
		})

		Convey("When a track stays grounded past the dwell", func() {
			for i := 0; i < 12; i++ {
				classifier.script(1, lying(0.8))
			}
			var got *model.FallEvent
			for i := 0; i < 12; i++ {
				ev, err := r.Observe(ctx, trackObs(1, start.Add(time.Duration(i)*100*time.Millisecond)))
				So(err, ShouldBeNil)
				if ev != nil {
					So(got, ShouldBeNil)
					got = ev
				}
			}

			Convey("Then exactly one fall event is produced", func() {
				So(got, ShouldNotBeNil)
				So(got.EntityID, ShouldEqual, "camera_person_1")
			})
		})

		Convey("When a stale observation arrives", func() {
			classifier.script(2, standing(), standing())
			_, err := r.Observe(ctx, trackObs(2, start))
			So(err, ShouldBeNil)

			_, err = r.Observe(ctx, trackObs(2, start.Add(-time.Second)))

			Convey("Then the ordering sentinel surfaces", func() {
				So(track.IsOrderingViolation(err), ShouldBeTrue)
			})
		})
	})
}

func TestRegistrySweep(t *testing.T) {
	Convey("Given a registry with a short silence timeout", t, func() {
		ctx := context.Background()
		classifier := newFixedClassifier()
		machine := track.NewMachine()
		r := track.NewRegistry(classifier, machine,
			track.WithSilenceTimeout(5*time.Second),
		)
		start := time.Now()

		classifier.script(1, standing())
		classifier.script(2, standing())
		_, err := r.Observe(ctx, trackObs(1, start))
		So(err, ShouldBeNil)
		_, err = r.Observe(ctx, trackObs(2, start.Add(4*time.Second)))
		So(err, ShouldBeNil)
		So(r.Count(), ShouldEqual, 2)

		Convey("When sweeping before anything is stale", func() {
			evicted := r.Sweep(ctx, start.Add(3*time.Second))

			Convey("Then nothing is evicted", func() {
				So(evicted, ShouldEqual, 0)
				So(r.Count(), ShouldEqual, 2)
			})
		})

		Convey("When sweeping after one track went silent", func() {
			evicted := r.Sweep(ctx, start.Add(6*time.Second))

			Convey("Then only the silent track is evicted", func() {
				So(evicted, ShouldEqual, 1)
				So(r.Count(), ShouldEqual, 1)
				views := r.Snapshot()
				So(views[0].TrackID, ShouldEqual, 2)
			})
		})

		Convey("When an evicted track reappears", func() {
			r.Sweep(ctx, start.Add(20*time.Second))
			So(r.Count(), ShouldEqual, 0)

			// A fresh state must accept an old timestamp; eviction
			// erased the ordering watermark along with the state.
			classifier.script(1, standing())
			_, err := r.Observe(ctx, trackObs(1, start.Add(time.Second)))

			Convey("Then it starts over as a brand new track", func() {
				So(err, ShouldBeNil)
				So(r.Count(), ShouldEqual, 1)
				So(r.Snapshot()[0].Phase, ShouldEqual, "normal")
			})
		})
	})
}

func TestRegistryConcurrentTracks(t *testing.T) {
	Convey("Given many tracks observed concurrently", t, func() {
		ctx := context.Background()
		classifier := newFixedClassifier()
		machine := track.NewMachine(track.WithDwell(time.Second))
		r := track.NewRegistry(classifier, machine)
		start := time.Now()

		const tracks = 16
		const frames = 20

		for id := int64(1); id <= tracks; id++ {
			for i := 0; i < frames; i++ {
				classifier.script(id, lying(0.8))
			}
		}

		Convey("When each track's frames are fed in order from its own goroutine", func() {
			events := make([]int, tracks)
			var wg sync.WaitGroup
			for id := int64(1); id <= tracks; id++ {
				wg.Add(1)
				go func(id int64) {
					defer wg.Done()
					for i := 0; i < frames; i++ {
						ev, err := r.Observe(ctx, trackObs(id, start.Add(time.Duration(i)*100*time.Millisecond)))
						if err != nil {
							return
						}
						if ev != nil {
							events[id-1]++
						}
					}
				}(id)
			}
			wg.Wait()

			Convey("Then every track confirms exactly once", func() {
				So(r.Count(), ShouldEqual, tracks)
				for i := 0; i < tracks; i++ {
					So(events[i], ShouldEqual, 1)
				}
			})
		})
	})
}
