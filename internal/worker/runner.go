// Package worker runs the pipeline stages. Each stage is a Handler
// consuming one queue; the Runner turns its typed result into bus
// decisions: publish the follow-on event, retry, or fail the job.
package worker

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/eventbus"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/metrics"
)

// Handler is one pipeline stage. Handle returns either a follow-on event
// (nil for terminal stages) or a step error; never both. Handle must be
// idempotent: at-least-once delivery means it can run twice with the same
// input.
type Handler interface {
	Queue() string
	Events() []event.Type
	Handle(ctx context.Context, evt event.Event) (*event.Event, *entity.StepError)
}

// Bus is the slice of the event bus the runner needs.
type Bus interface {
	Publish(ctx context.Context, evt event.Event) error
	Republish(ctx context.Context, evt event.Event, attempts int) error
	Consume(ctx context.Context, queue string, types []event.Type, fn eventbus.HandlerFunc) error
}

// Runner drives one handler against its queue. Retries are bounded: a
// transient step failure republishes the input event with an incremented
// attempt count until maxAttempts is reached, then the job fails
// terminally. Permanent step failures skip the retries.
type Runner struct {
	bus         Bus
	handler     Handler
	maxAttempts int
	log         *logrus.Entry
}

func NewRunner(bus Bus, handler Handler, maxAttempts int, log *logrus.Logger) *Runner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Runner{
		bus:         bus,
		handler:     handler,
		maxAttempts: maxAttempts,
		log:         log.WithField("queue", handler.Queue()),
	}
}

// Run blocks consuming the handler's queue until ctx is cancelled or the
// bus connection dies. The returned error is fatal to the process.
func (r *Runner) Run(ctx context.Context) error {
	return r.bus.Consume(ctx, r.handler.Queue(), r.handler.Events(), r.handleDelivery)
}

func (r *Runner) handleDelivery(ctx context.Context, d eventbus.Delivery) eventbus.Verdict {
	timer := prometheus.NewTimer(metrics.HandlerDuration.WithLabelValues(r.handler.Queue()))
	defer timer.ObserveDuration()

	log := r.log.WithFields(logrus.Fields{
		"event_type":     d.Event.Type,
		"event_id":       d.Event.ID,
		"correlation_id": d.Event.CorrelationID(),
		"attempts":       d.Attempts,
	})

	next, stepErr := r.handler.Handle(ctx, d.Event)
	if stepErr == nil {
		if next != nil {
			if err := r.bus.Publish(ctx, *next); err != nil {
				// The work happened but its result is lost; redeliver so
				// the (idempotent) stage runs again and republishes.
				log.WithError(err).Error("could not publish follow-on event")
				return eventbus.NackRequeue
			}
		}
		log.Info("event handled")
		return eventbus.Ack
	}

	log = log.WithError(stepErr.Err).WithField("step", stepErr.Step)

	if !stepErr.Permanent && d.Attempts+1 < r.maxAttempts {
		if err := r.bus.Republish(ctx, d.Event, d.Attempts+1); err != nil {
			log.WithError(err).Error("could not schedule retry")
			return eventbus.NackRequeue
		}
		log.Warn("step failed, retry scheduled")
		return eventbus.Ack
	}

	failed := event.NewProcessingFailed(event.ProcessingFailed{
		JobID:   d.Event.CorrelationID(),
		Service: stepErr.Service,
		Step:    stepErr.Step,
		Error:   stepErr.Err.Error(),
	})
	if err := r.bus.Publish(ctx, failed); err != nil {
		log.WithError(err).Error("could not publish failure event")
		return eventbus.NackRequeue
	}
	log.Error("step failed terminally")
	return eventbus.Ack
}
