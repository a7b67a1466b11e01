package track

import (
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
)

// State is the mutable temporal state of one tracked person. Exactly
// one instance exists per live track id; the Registry owns creation,
// locking and eviction.
type State struct {
	TrackID     int64
	Phase       Phase
	LastSeenAt  time.Time
	LastAlertAt *time.Time

	// Last label appended to the history, for read-side snapshots.
	LastPosture model.Posture

	// history is the bounded rolling window of recent labels, oldest
	// first. Oldest entries drop silently when full.
	history    []model.PostureSample
	historyMax int

	// Suspect-phase dwell bookkeeping. dwellAccum only advances across
	// grounded-labeled observations; Unknown freezes it.
	suspectSince time.Time
	dwellAccum   time.Duration
	lastTick     time.Time

	// Confidence accumulated over grounded labels in the current
	// suspect window, used for the emitted event's confidence.
	groundedConfSum float64
	groundedConfN   int
}

// newState creates the state for a track's first observation.
func newState(trackID int64, historyMax int) *State {
	return &State{
		TrackID:    trackID,
		Phase:      PhaseNormal,
		historyMax: historyMax,
	}
}

// record appends a sample to the rolling history, dropping the oldest
// entry when full.
func (s *State) record(sample model.PostureSample) {
	if len(s.history) >= s.historyMax {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, sample)
	s.LastPosture = sample.Posture
}

// window returns a copy of the history samples at or after since.
func (s *State) window(since time.Time) []model.PostureSample {
	out := make([]model.PostureSample, 0, len(s.history))
	for _, sample := range s.history {
		if !sample.Timestamp.Before(since) {
			out = append(out, sample)
		}
	}
	return out
}

// resetSuspect clears the dwell bookkeeping when a suspect window
// closes without confirmation or a cooldown resolves.
func (s *State) resetSuspect() {
	s.suspectSince = time.Time{}
	s.dwellAccum = 0
	s.lastTick = time.Time{}
	s.groundedConfSum = 0
	s.groundedConfN = 0
}

// meanGroundedConfidence is the average classifier confidence over the
// grounded labels of the current suspect window.
func (s *State) meanGroundedConfidence() float64 {
	if s.groundedConfN == 0 {
		return 0
	}
	return s.groundedConfSum / float64(s.groundedConfN)
}
