package simfeed

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func obsTime(o Observation) time.Time {
	ts, _ := time.Parse(time.RFC3339Nano, o.TS)
	return ts
}

func TestGenerateEpisode(t *testing.T) {
	Convey("Given one simulated fall episode at 10 fps", t, func() {
		start := time.Now().UTC()
		obs, next := generateEpisode(1, start, 100*time.Millisecond)

		Convey("Then it plays stand, fall, lie, recover in order", func() {
			So(obs, ShouldHaveLength, standingFrames+lyingFrames+recoveryFrames)
			for i := 0; i < standingFrames; i++ {
				box := obs[i].Box
				So(box[2]-box[0], ShouldBeLessThan, box[3]-box[1])
			}
			for i := standingFrames; i < standingFrames+lyingFrames; i++ {
				box := obs[i].Box
				So(box[2]-box[0], ShouldBeGreaterThan, box[3]-box[1])
			}
		})

		Convey("Then timestamps never go backwards", func() {
			for i := 1; i < len(obs); i++ {
				So(obsTime(obs[i]).Before(obsTime(obs[i-1])), ShouldBeFalse)
			}
		})

		Convey("Then the recovery jump outlasts the default entity alert gate cooldown", func() {
			lastLying := obsTime(obs[standingFrames+lyingFrames-1])
			firstRecovery := obsTime(obs[standingFrames+lyingFrames])
			So(firstRecovery.Sub(lastLying), ShouldBeGreaterThan, 5*time.Minute)
		})

		Convey("Then the next episode starts after the gate window too", func() {
			So(next.Sub(start), ShouldBeGreaterThan, 5*time.Minute)
		})
	})
}

func TestGenerateScripts(t *testing.T) {
	Convey("Given a two-track, two-episode run", t, func() {
		config := &Config{Tracks: 2, Episodes: 2, FPS: 10}
		stats := &Stats{}
		scripts, err := generateScripts(context.Background(), config, stats)

		Convey("Then one ordered script per track is produced", func() {
			So(err, ShouldBeNil)
			So(scripts, ShouldHaveLength, 2)
			So(scripts[0].TrackID, ShouldEqual, 1)
			So(scripts[1].TrackID, ShouldEqual, 2)
			perTrack := 2 * (standingFrames + lyingFrames + recoveryFrames)
			So(scripts[0].Observations, ShouldHaveLength, perTrack)
			So(stats.ObservationsGenerated, ShouldEqual, 2*perTrack)
			So(stats.EpisodesSimulated, ShouldEqual, 4)
		})

		Convey("Then successive episodes on one track clear the gate cooldown", func() {
			first := scripts[0].Observations
			episodeLen := standingFrames + lyingFrames + recoveryFrames
			endOfFirstLying := obsTime(first[standingFrames+lyingFrames-1])
			endOfSecondLying := obsTime(first[episodeLen+standingFrames+lyingFrames-1])
			So(endOfSecondLying.Sub(endOfFirstLying), ShouldBeGreaterThan, 5*time.Minute)
		})
	})
}
