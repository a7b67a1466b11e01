package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/repository"
	service "github.com/wikibird2024/intergrate-fall/internal/app"
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/track"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// standingObs builds a tall-box observation with a full upright skeleton.
func standingObs(trackID int64, ts time.Time) model.Observation {
	return model.Observation{
		TrackID:   trackID,
		Timestamp: ts,
		Box:       model.BoundingBox{X1: 100, Y1: 230, X2: 160, Y2: 400},
		Keypoints: map[string]model.Keypoint{
			model.JointNose:          {X: 130, Y: 240, Confidence: 0.9},
			model.JointLeftShoulder:  {X: 110, Y: 260, Confidence: 0.9},
			model.JointRightShoulder: {X: 150, Y: 260, Confidence: 0.9},
			model.JointLeftHip:       {X: 115, Y: 305, Confidence: 0.9},
			model.JointRightHip:      {X: 145, Y: 305, Confidence: 0.9},
			model.JointLeftAnkle:     {X: 115, Y: 395, Confidence: 0.9},
			model.JointRightAnkle:    {X: 145, Y: 395, Confidence: 0.9},
		},
	}
}

// lyingObs builds a wide-box observation with a horizontal skeleton.
func lyingObs(trackID int64, ts time.Time) model.Observation {
	return model.Observation{
		TrackID:   trackID,
		Timestamp: ts,
		Box:       model.BoundingBox{X1: 100, Y1: 350, X2: 280, Y2: 400},
		Keypoints: map[string]model.Keypoint{
			model.JointNose:          {X: 110, Y: 370, Confidence: 0.9},
			model.JointLeftShoulder:  {X: 130, Y: 370, Confidence: 0.9},
			model.JointRightShoulder: {X: 130, Y: 385, Confidence: 0.9},
			model.JointLeftHip:       {X: 190, Y: 370, Confidence: 0.9},
			model.JointRightHip:      {X: 190, Y: 385, Confidence: 0.9},
			model.JointLeftAnkle:     {X: 270, Y: 370, Confidence: 0.9},
			model.JointRightAnkle:    {X: 270, Y: 385, Confidence: 0.9},
		},
	}
}

// waitForEvents polls the event log until count events are visible.
func waitForEvents(ctx context.Context, svc *service.Service, count int, timeout time.Duration) []types.EventView {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		events, err := svc.RecentEvents(ctx, 100)
		if err == nil && len(events) >= count {
			return events
		}
		time.Sleep(20 * time.Millisecond)
	}
	events, _ := svc.RecentEvents(ctx, 100)
	return events
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(repository.NewMemoryStore())

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(repository.NewMemoryStore(),
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(repository.NewMemoryStore())
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping should clear the started flag", func() {
				svc.Stop()
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a service that has not started", t, func() {
		svc := service.New(repository.NewMemoryStore())

		Convey("When ingesting an observation", func() {
			ok := svc.Ingest(context.Background(), standingObs(1, time.Now()))

			Convey("Then it is refused", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestService_Pipeline(t *testing.T) {
	Convey("Given a running service with a short confirmation dwell", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(store,
			service.WithWorkerCount(1),
			service.WithQueueSize(64),
			service.WithMachineOptions(
				track.WithDwell(300*time.Millisecond),
				track.WithCooldown(30*time.Second),
			),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a person stands and then lies still past the dwell", func() {
			const trackID = int64(7)
			start := time.Now()
			So(svc.Ingest(ctx, standingObs(trackID, start)), ShouldBeTrue)
			for i := 1; i <= 7; i++ {
				ts := start.Add(time.Duration(i) * 100 * time.Millisecond)
				So(svc.Ingest(ctx, lyingObs(trackID, ts)), ShouldBeTrue)
			}

			events := waitForEvents(ctx, svc, 1, 2*time.Second)

			Convey("Then exactly one camera fall event is stored", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Source, ShouldEqual, model.SourceCamera)
				So(events[0].EntityID, ShouldEqual, "camera_person_7")
				So(events[0].TrackID, ShouldEqual, trackID)
				So(events[0].Status, ShouldEqual, repository.StatusPending)
			})

			Convey("And the track shows up in the live snapshot", func() {
				tracks := svc.Tracks(ctx)
				So(tracks, ShouldNotBeEmpty)
				So(tracks[0].TrackID, ShouldEqual, trackID)
			})

			Convey("And acknowledging the event persists the status", func() {
				So(events, ShouldHaveLength, 1)
				So(svc.AcknowledgeEvent(ctx, events[0].ID), ShouldBeNil)
				after, err := svc.RecentEvents(ctx, 10)
				So(err, ShouldBeNil)
				So(after[0].Status, ShouldEqual, repository.StatusAcknowledged)
			})
		})
	})
}

func TestService_Dispatch(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewMemoryStore())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		event := model.FallEvent{
			EventID:    "dev-1",
			Source:     model.SourceDevice,
			EntityID:   "device_42",
			DetectedAt: time.Now(),
			Confidence: 1.0,
			Latitude:   10.776,
			Longitude:  106.7,
			HasGPSFix:  true,
		}

		Convey("When dispatching a device-originated event", func() {
			result := svc.Dispatch(ctx, event)

			Convey("Then it is stored rather than suppressed", func() {
				So(result.Suppressed, ShouldBeFalse)
				events := waitForEvents(ctx, svc, 1, time.Second)
				So(events, ShouldHaveLength, 1)
				So(events[0].Source, ShouldEqual, model.SourceDevice)
			})

			Convey("And a repeat for the same entity inside the cooldown is suppressed", func() {
				repeat := event
				repeat.EventID = "dev-2"
				repeat.DetectedAt = event.DetectedAt.Add(time.Second)
				result := svc.Dispatch(ctx, repeat)
				So(result.Suppressed, ShouldBeTrue)
			})
		})
	})

	Convey("Given a service that has not started", t, func() {
		svc := service.New(repository.NewMemoryStore())

		Convey("When dispatching an event", func() {
			result := svc.Dispatch(context.Background(), model.FallEvent{EventID: "dev-9"})

			Convey("Then it is reported as suppressed", func() {
				So(result.Suppressed, ShouldBeTrue)
			})
		})
	})
}
