package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sink delivers one event through a single channel (push, realtime, ...).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e *Event) error
}

// Dispatcher drains a Queue and fans each event out to every sink.
// Delivery failures are logged and never retried.
type Dispatcher struct {
	queue   Queue
	sinks   []Sink
	workers int
	wg      sync.WaitGroup
}

func NewDispatcher(queue Queue, workers int, sinks ...Sink) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{queue: queue, sinks: sinks, workers: workers}
}

// Start launches the workers; they exit when ctx is done or the queue is closed.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			d.run(ctx, worker)
		}(i)
	}
	log.Info().Int("workers", d.workers).Int("sinks", len(d.sinks)).Msg("Notification dispatcher started")
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, worker int) {
	for {
		e, err := d.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Int("worker", worker).Msg("Failed to receive notification event")
			continue
		}
		d.Dispatch(ctx, e)
	}
}

// Dispatch delivers e to every sink.
func (d *Dispatcher) Dispatch(ctx context.Context, e *Event) {
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, e); err != nil {
			log.Warn().
				Err(err).
				Str("sink", sink.Name()).
				Str("type", string(e.Type)).
				Str("recipient_id", e.RecipientID).
				Msg("Notification delivery failed")
		}
	}
}
