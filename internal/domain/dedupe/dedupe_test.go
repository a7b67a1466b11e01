package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	dedupe "github.com/wikibird2024/intergrate-fall/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryGate(t *testing.T) {
	Convey("Given a new in-memory gate", t, func() {
		ctx := context.Background()
		now := time.Now()

		Convey("When creating a gate with default options", func() {
			g := dedupe.NewInMemoryGate()

			Convey("Then it should start empty", func() {
				So(g, ShouldNotBeNil)
				So(g.Size(), ShouldEqual, 0)
			})
		})

		Convey("When an entity alerts for the first time", func() {
			g := dedupe.NewInMemoryGate(dedupe.WithCooldown(5 * time.Minute))
			ok := g.ShouldAlert(ctx, "camera_person_1", now)

			Convey("Then the alert passes and the entity is tracked", func() {
				So(ok, ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And a second alert inside the cooldown is suppressed", func() {
				So(g.ShouldAlert(ctx, "camera_person_1", now.Add(time.Minute)), ShouldBeFalse)
			})

			Convey("And an alert after the cooldown passes again", func() {
				So(g.ShouldAlert(ctx, "camera_person_1", now.Add(6*time.Minute)), ShouldBeTrue)
			})

			Convey("And a different entity is unaffected", func() {
				So(g.ShouldAlert(ctx, "device_42", now.Add(time.Second)), ShouldBeTrue)
				So(g.Size(), ShouldEqual, 2)
			})
		})

		Convey("When a suppressed alert's timestamp is recorded", func() {
			g := dedupe.NewInMemoryGate(dedupe.WithCooldown(5 * time.Minute))
			So(g.ShouldAlert(ctx, "e", now), ShouldBeTrue)
			So(g.ShouldAlert(ctx, "e", now.Add(4*time.Minute)), ShouldBeFalse)

			Convey("Then the cooldown still counts from the last passed alert", func() {
				// 5m30s after the first alert, which was the last one through.
				So(g.ShouldAlert(ctx, "e", now.Add(5*time.Minute+30*time.Second)), ShouldBeTrue)
			})
		})

		Convey("When forgetting an entity", func() {
			g := dedupe.NewInMemoryGate(dedupe.WithCooldown(5 * time.Minute))
			So(g.ShouldAlert(ctx, "e", now), ShouldBeTrue)
			g.Forget(ctx, "e")

			Convey("Then the next alert passes immediately", func() {
				So(g.Size(), ShouldEqual, 0)
				So(g.ShouldAlert(ctx, "e", now.Add(time.Second)), ShouldBeTrue)
			})
		})

		Convey("When the gate reaches its size bound", func() {
			g := dedupe.NewInMemoryGate(
				dedupe.WithMaxSize(3),
				dedupe.WithCooldown(5*time.Minute),
			)
			So(g.ShouldAlert(ctx, "a", now), ShouldBeTrue)
			So(g.ShouldAlert(ctx, "b", now.Add(time.Second)), ShouldBeTrue)
			So(g.ShouldAlert(ctx, "c", now.Add(2*time.Second)), ShouldBeTrue)
			So(g.ShouldAlert(ctx, "d", now.Add(3*time.Second)), ShouldBeTrue)

			Convey("Then the oldest entity was evicted to make room", func() {
				So(g.Size(), ShouldEqual, 3)
				// "a" was evicted, so it alerts again inside what would
				// have been its cooldown.
				So(g.ShouldAlert(ctx, "a", now.Add(4*time.Second)), ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryGateConcurrency(t *testing.T) {
	Convey("Given concurrent alerts for the same entity", t, func() {
		ctx := context.Background()
		g := dedupe.NewInMemoryGate(dedupe.WithCooldown(time.Hour))
		now := time.Now()

		Convey("When many goroutines race on one key", func() {
			const goroutines = 50
			passed := make(chan struct{}, goroutines)
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if g.ShouldAlert(ctx, "shared", now) {
						passed <- struct{}{}
					}
				}()
			}
			wg.Wait()
			close(passed)

			Convey("Then exactly one alert passes", func() {
				So(len(passed), ShouldEqual, 1)
			})
		})

		Convey("When goroutines use distinct keys", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					g.ShouldAlert(ctx, fmt.Sprintf("entity-%d", i), now)
				}(i)
			}
			wg.Wait()

			Convey("Then every key is tracked", func() {
				So(g.Size(), ShouldEqual, 50)
			})
		})
	})
}
