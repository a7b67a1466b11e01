package track

import (
	"time"

	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// MachineOption applies a configuration option to the Machine.
type MachineOption func(*Machine)

// WithDwell sets the minimum time a grounded posture must persist
// before a suspect window confirms into a fall.
func WithDwell(d time.Duration) MachineOption {
	return func(m *Machine) {
		if d > 0 {
			m.dwell = d
		}
	}
}

// WithCooldown sets how long emission stays suppressed after a
// confirmed fall.
func WithCooldown(d time.Duration) MachineOption {
	return func(m *Machine) {
		if d > 0 {
			m.cooldown = d
		}
	}
}

// WithHistoryMax bounds the rolling label history kept per track.
func WithHistoryMax(n int) MachineOption {
	return func(m *Machine) {
		if n > 0 {
			m.historyMax = n
		}
	}
}

// RegistryOption applies a configuration option to the Registry.
type RegistryOption func(*Registry)

// WithSilenceTimeout sets how long a track may go without observations
// before the sweeper evicts it.
func WithSilenceTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.silenceTimeout = d
		}
	}
}

// WithRegistryLogger sets a custom logger for the registry.
func WithRegistryLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}
