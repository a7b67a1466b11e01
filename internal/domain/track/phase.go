// Package track maintains per-track temporal state and turns posture
// label streams into confirmed fall events.
package track

// Phase is the state-machine state of one tracked person.
type Phase int

// Phases cycle Normal -> Suspect -> Confirmed -> Cooldown -> Normal.
const (
	// PhaseNormal is the default; upright and unknown postures keep a
	// track here.
	PhaseNormal Phase = iota

	// PhaseSuspect is entered when a falling or lying-down label first
	// appears and holds while the dwell clock accumulates.
	PhaseSuspect

	// PhaseConfirmed is the transition instant at which the single
	// FallEvent for the episode is emitted.
	PhaseConfirmed

	// PhaseCooldown suppresses further emission for the configured
	// cooldown duration after a confirmed fall.
	PhaseCooldown
)

// String returns the lowercase phase name used in logs and the API.
func (p Phase) String() string {
	switch p {
	case PhaseSuspect:
		return "suspect"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "normal"
	}
}
