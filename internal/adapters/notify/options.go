package notify

import (
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/domain/dedupe"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// DispatcherOption applies a configuration option to the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithChannels sets the notification channels to fan out to.
func WithChannels(channels ...Channel) DispatcherOption {
	return func(d *Dispatcher) {
		d.channels = append(d.channels, channels...)
	}
}

// WithGate sets the alert cooldown gate consulted before fan-out.
func WithGate(gate dedupe.Gate) DispatcherOption {
	return func(d *Dispatcher) {
		d.gate = gate
	}
}

// WithChannelTimeout bounds each sink attempt.
func WithChannelTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDispatcherLogger sets a custom logger for the dispatcher.
func WithDispatcherLogger(l logger.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
