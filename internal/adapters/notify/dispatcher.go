package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/repository"
	"github.com/wikibird2024/intergrate-fall/internal/domain/dedupe"
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultChannelTimeout = 3 * time.Second
)

// Dispatcher fans one event out to every configured channel and the
// event store in parallel. Each sink runs under its own timeout, so
// the whole dispatch blocks for roughly the slowest single sink, never
// the sum.
type Dispatcher struct {
	channels []Channel
	store    repository.EventStore
	gate     dedupe.Gate
	timeout  time.Duration

	logger logger.Logger
}

// NewDispatcher creates a dispatcher with configuration options.
func NewDispatcher(store repository.EventStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		timeout: defaultChannelTimeout,
		logger:  logger.Get().Named("dispatch"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch delivers one confirmed fall event. The event is never
// silently dropped before fan-out is attempted: every channel gets its
// isolated try, failures are recorded in the result, and nothing
// propagates to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.FallEvent) DispatchResult {
	result := DispatchResult{EventID: event.EventID}

	if d.gate != nil && !d.gate.ShouldAlert(ctx, event.EntityID, event.DetectedAt) {
		result.Suppressed = true
		metrics.RecordAlertSuppressed()
		d.logger.Debug(ctx, "alert suppressed by cooldown gate",
			logger.String("eventID", event.EventID),
			logger.String("entity", event.EntityID),
		)
		return result
	}

	result.Channels = make([]ChannelResult, len(d.channels))

	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			result.Channels[i] = d.send(ctx, ch, event)
		}(i, ch)
	}

	storeCh := make(chan ChannelResult, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		storeCh <- d.append(ctx, event)
	}()

	wg.Wait()
	result.Store = <-storeCh

	d.logger.Info(ctx, "dispatched fall event",
		logger.String("eventID", event.EventID),
		logger.String("entity", event.EntityID),
		logger.Any("alerted", result.Alerted()),
		logger.String("store", result.Store.Outcome.String()),
	)

	return result
}

// send runs one channel attempt under its own timeout and converts
// the error into an outcome. A panic inside a channel implementation
// is contained here as a failure.
func (d *Dispatcher) send(ctx context.Context, ch Channel, event model.FallEvent) (res ChannelResult) {
	res = ChannelResult{Channel: ch.Name()}

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = Failed
			res.Reason = "channel panicked"
			metrics.RecordAlertOutcome(ch.Name(), Failed.String())
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := ch.Send(sendCtx, event)
	metrics.RecordChannelSendLatency(ch.Name(), float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil:
		res.Outcome = Delivered
	case errors.Is(err, context.DeadlineExceeded):
		res.Outcome = TimedOut
		res.Reason = err.Error()
	default:
		res.Outcome = Failed
		res.Reason = err.Error()
	}

	if err != nil {
		d.logger.Warn(ctx, "channel delivery failed",
			logger.String("channel", ch.Name()),
			logger.String("eventID", event.EventID),
			logger.Error(err),
		)
	}
	metrics.RecordAlertOutcome(ch.Name(), res.Outcome.String())
	return res
}

// append writes the event to the store, best-effort durable. A failed
// write is recorded but does not invalidate a delivered notification.
func (d *Dispatcher) append(ctx context.Context, event model.FallEvent) ChannelResult {
	res := ChannelResult{Channel: "store"}
	if d.store == nil {
		res.Outcome = Skipped
		return res
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if _, err := d.store.Append(storeCtx, event); err != nil {
		res.Outcome = Failed
		res.Reason = err.Error()
		metrics.RecordStoreWriteError()
		d.logger.Error(ctx, "event store append failed",
			logger.String("eventID", event.EventID),
			logger.Error(err),
		)
		return res
	}

	res.Outcome = Delivered
	metrics.RecordStoreWrite()
	return res
}
