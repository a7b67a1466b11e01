package simfeed

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Synthetic body geometry, in pixels. The standing box is tall and
// narrow, the lying box wide and flat, so the service's classifier
// reads the intended posture from aspect ratio alone.
const (
	standingWidth  = 60.0
	standingHeight = 170.0
	lyingWidth     = 180.0
	lyingHeight    = 50.0
	groundY        = 400.0
	originX        = 100.0
	jitterPixels   = 4.0
	keypointConf   = 0.9
)

// Episode phase lengths, in frames of simulated camera time.
const (
	standingFrames = 10
	lyingFrames    = 25
	recoveryFrames = 5

	// recoveryGap must exceed the entity alert gate's cooldown (5m by
	// default), not just the track cooldown, or every episode after the
	// first per track is suppressed instead of stored.
	recoveryGap = 6 * time.Minute
)

// Script is the ordered observation sequence for one simulated person.
// Observations for a track must be submitted in order, so a script is
// the unit of work for the submit pool.
type Script struct {
	TrackID      int64
	Observations []Observation
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// jitter returns a small random pixel offset.
func jitter() float64 {
	return (getRandomFloat() - 0.5) * jitterPixels
}

// generateScripts creates one fall script per track, each containing
// the configured number of fall episodes.
func generateScripts(ctx context.Context, config *Config, stats *Stats) ([]Script, error) {
	logger.Get().Info(ctx, "generating fall scripts",
		logger.Int("tracks", config.Tracks),
		logger.Int("episodes", config.Episodes),
		logger.Int("fps", config.FPS))

	frameInterval := time.Second / time.Duration(config.FPS)
	base := time.Now().UTC()

	scripts := make([]Script, config.Tracks)
	total := 0
	for i := 0; i < config.Tracks; i++ {
		trackID := int64(i + 1)
		script := Script{TrackID: trackID}
		ts := base
		for ep := 0; ep < config.Episodes; ep++ {
			obs, next := generateEpisode(trackID, ts, frameInterval)
			script.Observations = append(script.Observations, obs...)
			ts = next
		}
		scripts[i] = script
		total += len(script.Observations)
	}

	stats.ObservationsGenerated = total
	stats.EpisodesSimulated = config.Tracks * config.Episodes
	logger.Get().Info(ctx, "generated scripts successfully",
		logger.Int("observations", total))

	return scripts, nil
}

// generateEpisode emits one stand -> fall -> lie -> recover sequence
// and returns the timestamp the next episode should start from.
func generateEpisode(trackID int64, start time.Time, frameInterval time.Duration) ([]Observation, time.Time) {
	obs := make([]Observation, 0, standingFrames+lyingFrames+recoveryFrames)
	ts := start

	for i := 0; i < standingFrames; i++ {
		obs = append(obs, standingObservation(trackID, ts))
		ts = ts.Add(frameInterval)
	}
	for i := 0; i < lyingFrames; i++ {
		obs = append(obs, lyingObservation(trackID, ts))
		ts = ts.Add(frameInterval)
	}

	// Recovery frames jump forward so the track cooldown and the
	// entity alert gate have both elapsed in frame time before the
	// track settles back to normal.
	ts = ts.Add(recoveryGap)
	for i := 0; i < recoveryFrames; i++ {
		obs = append(obs, standingObservation(trackID, ts))
		ts = ts.Add(frameInterval)
	}

	return obs, ts.Add(frameInterval)
}

// standingObservation builds a tall-box frame with an upright skeleton.
func standingObservation(trackID int64, ts time.Time) Observation {
	x := originX + jitter()
	top := groundY - standingHeight + jitter()
	return Observation{
		TrackID: trackID,
		TS:      ts.Format(time.RFC3339Nano),
		Box:     []float64{x, top, x + standingWidth, groundY},
		Keypoints: map[string]Keypoint{
			"nose":           {X: x + standingWidth/2, Y: top + 10, Confidence: keypointConf},
			"left_shoulder":  {X: x + 10, Y: groundY - 140, Confidence: keypointConf},
			"right_shoulder": {X: x + standingWidth - 10, Y: groundY - 140, Confidence: keypointConf},
			"left_hip":       {X: x + 15, Y: groundY - 95, Confidence: keypointConf},
			"right_hip":      {X: x + standingWidth - 15, Y: groundY - 95, Confidence: keypointConf},
			"left_ankle":     {X: x + 15, Y: groundY - 5, Confidence: keypointConf},
			"right_ankle":    {X: x + standingWidth - 15, Y: groundY - 5, Confidence: keypointConf},
		},
	}
}

// lyingObservation builds a flat-box frame with a horizontal skeleton.
func lyingObservation(trackID int64, ts time.Time) Observation {
	x := originX + jitter()
	top := groundY - lyingHeight + jitter()
	return Observation{
		TrackID: trackID,
		TS:      ts.Format(time.RFC3339Nano),
		Box:     []float64{x, top, x + lyingWidth, groundY},
		Keypoints: map[string]Keypoint{
			"nose":           {X: x + 10, Y: groundY - 30, Confidence: keypointConf},
			"left_shoulder":  {X: x + 30, Y: groundY - 30, Confidence: keypointConf},
			"right_shoulder": {X: x + 30, Y: groundY - 15, Confidence: keypointConf},
			"left_hip":       {X: x + 90, Y: groundY - 30, Confidence: keypointConf},
			"right_hip":      {X: x + 90, Y: groundY - 15, Confidence: keypointConf},
			"left_ankle":     {X: x + lyingWidth - 10, Y: groundY - 30, Confidence: keypointConf},
			"right_ankle":    {X: x + lyingWidth - 10, Y: groundY - 15, Confidence: keypointConf},
		},
	}
}
