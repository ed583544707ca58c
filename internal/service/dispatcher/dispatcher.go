package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
)

// drainTimeout bounds notifier calls for events still queued at shutdown.
const drainTimeout = 5 * time.Second

// Queue is the consumer side of the event queue.
type Queue interface {
	// Dequeue blocks until an event is available or ctx is done.
	Dequeue(ctx context.Context) (domain.Event, error)
	// TryDequeue removes the oldest event without blocking.
	TryDequeue() (domain.Event, bool)
}

// Notifier delivers an event to one outbound channel.
type Notifier interface {
	// Name identifies the channel in logs.
	Name() string
	// Notify delivers the event.
	Notify(ctx context.Context, event domain.Event) error
}

// Dispatcher moves events from the queue to the notifiers.
type Dispatcher struct {
	// queue is drained in FIFO order.
	queue Queue
	// notifiers receive every event in order.
	notifiers []Notifier
	// log receives delivery failures.
	log *zap.SugaredLogger

	// delivered counts events every notifier accepted.
	delivered atomic.Uint64
	// failed counts events at least one notifier rejected.
	failed atomic.Uint64
}

// New creates a dispatcher.
func New(queue Queue, log *zap.SugaredLogger, notifiers ...Notifier) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Dispatcher{
		queue:     queue,
		notifiers: notifiers,
		log:       log,
	}
}

// Run dispatches events until ctx is done, then flushes what is still queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		event, err := d.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				d.drain(ctx)
				return nil
			}

			return err
		}

		d.dispatch(ctx, event)
	}
}

// Delivered returns the number of events every notifier accepted.
func (d *Dispatcher) Delivered() uint64 {
	return d.delivered.Load()
}

// Failed returns the number of events at least one notifier rejected.
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// drain delivers queued events after shutdown was requested.
func (d *Dispatcher) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	for {
		event, ok := d.queue.TryDequeue()
		if !ok {
			return
		}

		d.dispatch(drainCtx, event)
	}
}

// dispatch hands event to every notifier.
func (d *Dispatcher) dispatch(ctx context.Context, event domain.Event) {
	ok := true

	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			ok = false

			d.log.Errorw("Failed to deliver event",
				"notifier", notifier.Name(), "event_id", event.ID, "pvname", event.PVName, "error", err)
		}
	}

	if ok {
		d.delivered.Add(1)
	} else {
		d.failed.Add(1)
	}
}
