// Package analytics implements best-effort prediction logging. Every served
// prediction can be appended asynchronously to one or more sinks; sink
// failures are recorded and swallowed, never surfaced to the caller, and a
// full dispatch buffer drops the event rather than delaying a response.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event is one served prediction as sent to the analytics sinks.
type Event struct {
	Airline    string    `json:"airline"`
	Month      int       `json:"month"`
	FlightType string    `json:"flight_type"`
	Prediction int       `json:"delay_prediction"`
	Source     string    `json:"model_source"`
	Timestamp  time.Time `json:"prediction_timestamp"`
}

// Sink receives prediction events. Implementations must be safe for use from
// a single dispatcher goroutine.
type Sink interface {
	Log(ctx context.Context, ev Event) error
	Name() string
}

// SinkTracker is the narrow metrics surface the dispatcher needs.
type SinkTracker interface {
	SinkFailuresInc()
	EventsDroppedInc()
}

// Dispatcher fans prediction events out to the configured sinks from a
// background worker. Publish never blocks: when the buffer is full the event
// is dropped and counted.
type Dispatcher struct {
	sinks   []Sink
	events  chan Event
	metrics SinkTracker
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	once    sync.Once
}

// NewDispatcher starts a dispatcher over the given sinks. metrics may be nil.
func NewDispatcher(sinks []Sink, bufferSize int, metrics SinkTracker) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sinks:   sinks,
		events:  make(chan Event, bufferSize),
		metrics: metrics,
		cancel:  cancel,
	}
	d.wg.Add(1)
	go d.run(ctx)
	return d
}

// Publish enqueues an event for delivery. It never blocks and never fails;
// a full buffer drops the event.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case d.events <- ev:
	default:
		if d.metrics != nil {
			d.metrics.EventsDroppedInc()
		}
		log.Warn().Str("airline", ev.Airline).Msg("analytics buffer full, event dropped")
	}
}

// Close stops the worker after draining buffered events.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.events)
		d.wg.Wait()
		d.cancel()
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for ev := range d.events {
		for _, sink := range d.sinks {
			if err := sink.Log(ctx, ev); err != nil {
				if d.metrics != nil {
					d.metrics.SinkFailuresInc()
				}
				log.Warn().
					Err(err).
					Str("sink", sink.Name()).
					Str("airline", ev.Airline).
					Msg("analytics sink write failed")
			}
		}
	}
}
