// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/notify"
	"github.com/wikibird2024/intergrate-fall/internal/domain/posture"
	"github.com/wikibird2024/intergrate-fall/internal/domain/track"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of observation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the per-worker observation queue size.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the alert gate cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChannels sets the notification channels for dispatch.
func WithChannels(channels ...notify.Channel) Option {
	return func(s *Service) {
		s.channels = append(s.channels, channels...)
	}
}

// WithClassifierOptions forwards threshold options to the classifier.
func WithClassifierOptions(opts ...posture.Option) Option {
	return func(s *Service) {
		s.classifierOpts = append(s.classifierOpts, opts...)
	}
}

// WithMachineOptions forwards duration options to the state machine.
func WithMachineOptions(opts ...track.MachineOption) Option {
	return func(s *Service) {
		s.machineOpts = append(s.machineOpts, opts...)
	}
}

// WithSilenceTimeout sets the track eviction timeout.
func WithSilenceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.silenceTimeout = d
		}
	}
}

// WithSweepInterval sets how often the eviction sweeper runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithChannelTimeout bounds each notification channel attempt.
func WithChannelTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.channelTimeout = d
		}
	}
}

// WithDeviceCooldown sets the alert gate cooldown for device reports.
func WithDeviceCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deviceCooldown = d
		}
	}
}

// WithMaxEventsLimit caps GET /events?limit.
func WithMaxEventsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEventsLimit = n
		}
	}
}
