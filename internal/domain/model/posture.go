package model

import "time"

// Posture is the instantaneous posture class derived from a single
// observation.
type Posture int

// Posture values. Unknown is the zero value so a missing or degraded
// classification defaults to it.
const (
	PostureUnknown Posture = iota
	PostureStanding
	PostureSitting
	PostureLyingDown
	PostureFalling
)

// String returns the lowercase name used in logs and payloads.
func (p Posture) String() string {
	switch p {
	case PostureStanding:
		return "standing"
	case PostureSitting:
		return "sitting"
	case PostureLyingDown:
		return "lying_down"
	case PostureFalling:
		return "falling"
	default:
		return "unknown"
	}
}

// Grounded reports whether the posture indicates the person is down
// (the inputs that open or sustain a suspect window).
func (p Posture) Grounded() bool {
	return p == PostureLyingDown || p == PostureFalling
}

// Upright reports whether the posture indicates a recovered person.
func (p Posture) Upright() bool {
	return p == PostureStanding || p == PostureSitting
}

// PostureLabel pairs a posture class with the classifier's confidence
// in it. Derived purely from one observation.
type PostureLabel struct {
	Posture    Posture `json:"posture"`
	Confidence float64 `json:"confidence"`
}

// PostureSample is a timestamped label kept in a track's rolling
// history and snapshotted into a FallEvent's supporting window.
type PostureSample struct {
	Posture    Posture   `json:"posture"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"ts"`
}
