package track

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
)

// Default state machine durations. Policy constants; override through
// options.
const (
	defaultDwell      = 1500 * time.Millisecond
	defaultCooldown   = 30 * time.Second
	defaultHistoryMax = 30
)

// Machine advances per-track state. It holds only configuration, so a
// single instance is shared across tracks; all mutable state lives in
// the State passed to Advance, which the caller must serialize
// per track.
type Machine struct {
	dwell      time.Duration
	cooldown   time.Duration
	historyMax int
}

// NewMachine creates a state machine with configuration options.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		dwell:      defaultDwell,
		cooldown:   defaultCooldown,
		historyMax: defaultHistoryMax,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// HistoryMax exposes the rolling history bound for state construction.
func (m *Machine) HistoryMax() int { return m.historyMax }

// Advance consumes one observation's label for one track, strictly in
// per-track timestamp order. It returns a FallEvent exactly once per
// confirmed fall episode, at the transition into PhaseConfirmed.
//
// An observation older than the state's last seen timestamp is
// rejected with ErrOrderingViolation and leaves the state untouched.
func (m *Machine) Advance(st *State, obs model.Observation, label model.PostureLabel) (*model.FallEvent, error) {
	if obs.Timestamp.Before(st.LastSeenAt) {
		return nil, fmt.Errorf("track %d at %s got %s: %w",
			st.TrackID, st.LastSeenAt.Format(time.RFC3339Nano),
			obs.Timestamp.Format(time.RFC3339Nano), ErrOrderingViolation)
	}

	st.LastSeenAt = obs.Timestamp
	st.record(model.PostureSample{
		Posture:    label.Posture,
		Confidence: label.Confidence,
		Timestamp:  obs.Timestamp,
	})

	switch st.Phase {
	case PhaseNormal:
		// Unknown never moves a track away from Normal.
		if label.Posture.Grounded() {
			st.Phase = PhaseSuspect
			st.suspectSince = obs.Timestamp
			st.lastTick = obs.Timestamp
			st.dwellAccum = 0
			st.groundedConfSum = label.Confidence
			st.groundedConfN = 1
		}
		return nil, nil

	case PhaseSuspect:
		return m.advanceSuspect(st, obs, label), nil

	case PhaseConfirmed:
		// The emission instant has passed; fall through to cooldown
		// semantics from the next observation on.
		st.Phase = PhaseCooldown
		m.advanceCooldown(st, obs, label)
		return nil, nil

	case PhaseCooldown:
		m.advanceCooldown(st, obs, label)
		return nil, nil
	}

	return nil, nil
}

// advanceSuspect accumulates dwell across grounded labels, tolerates
// Unknown without advancing or resetting the clock, and cancels on a
// genuine quick recovery.
func (m *Machine) advanceSuspect(st *State, obs model.Observation, label model.PostureLabel) *model.FallEvent {
	switch {
	case label.Posture.Upright():
		st.Phase = PhaseNormal
		st.resetSuspect()
		return nil

	case label.Posture == model.PostureUnknown:
		// Inconclusive: extend the window, freeze the dwell clock.
		st.lastTick = obs.Timestamp
		return nil
	}

	st.dwellAccum += obs.Timestamp.Sub(st.lastTick)
	st.lastTick = obs.Timestamp
	st.groundedConfSum += label.Confidence
	st.groundedConfN++

	if st.dwellAccum < m.dwell {
		return nil
	}

	st.Phase = PhaseConfirmed
	at := obs.Timestamp
	st.LastAlertAt = &at

	return &model.FallEvent{
		EventID:    uuid.NewString(),
		Source:     model.SourceCamera,
		EntityID:   fmt.Sprintf("camera_person_%d", st.TrackID),
		TrackID:    st.TrackID,
		DetectedAt: obs.Timestamp,
		Confidence: st.meanGroundedConfidence(),
		Window:     st.window(st.suspectSince),
	}
}

// advanceCooldown resolves the episode once the cooldown has elapsed
// and the person is upright again, whichever happens later. Posture
// oscillation during cooldown never re-emits.
func (m *Machine) advanceCooldown(st *State, obs model.Observation, label model.PostureLabel) {
	if st.LastAlertAt == nil {
		// A cooldown phase without an alert timestamp cannot resolve.
		st.Phase = PhaseNormal
		st.resetSuspect()
		return
	}
	if obs.Timestamp.Sub(*st.LastAlertAt) >= m.cooldown && label.Posture.Upright() {
		st.Phase = PhaseNormal
		st.resetSuspect()
	}
}
