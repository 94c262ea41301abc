// Package events delivers accepted roster changes to external systems.
package events

import (
	"context"
	goerrors "errors"
	"time"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/models"
)

// Sink is one delivery target for roster events.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event models.RosterEvent) error
}

// Fanout delivers each event to every sink in order, each under its own
// timeout. A failing sink does not stop delivery to the others.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	logger  logger.Logger
}

func NewFanout(timeout time.Duration, log logger.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "event-fanout"}),
	}
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Publish returns the joined delivery errors, each a SINK_DELIVERY_FAILED
// StandardError.
func (f *Fanout) Publish(ctx context.Context, event models.RosterEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := f.publishOne(ctx, s, event); err != nil {
			metrics.EventSinkFailures.WithLabelValues(s.Name()).Inc()
			f.logger.Error("event delivery failed", map[string]interface{}{
				"sink":     s.Name(),
				"eventId":  event.ID,
				"type":     string(event.Type),
				"activity": event.Activity,
				"error":    err,
			})
			errs = append(errs, apperrors.NewSinkDeliveryFailedError(s.Name(), err))
			continue
		}
		f.logger.Debug("event delivered", map[string]interface{}{
			"sink":    s.Name(),
			"eventId": event.ID,
		})
	}
	return goerrors.Join(errs...)
}

func (f *Fanout) publishOne(ctx context.Context, s Sink, event models.RosterEvent) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	return s.Publish(ctx, event)
}
