// Package activities holds the in-memory activity roster and the signup /
// unregister transitions applied to it.
package activities

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/models"
	"mergington-activities/pkg/registry"
)

// EventSink receives every accepted roster change. Delivery errors are
// logged; they never undo the change.
type EventSink interface {
	Publish(ctx context.Context, event models.RosterEvent) error
}

// activity is one roster entry. mu guards participants; the metadata is
// immutable after construction.
type activity struct {
	mu              sync.Mutex
	description     string
	schedule        string
	maxParticipants int
	participants    []string
}

func (a *activity) snapshot() models.Activity {
	a.mu.Lock()
	defer a.mu.Unlock()
	participants := make([]string, len(a.participants))
	copy(participants, a.participants)
	return models.Activity{
		Description:     a.description,
		Schedule:        a.schedule,
		MaxParticipants: a.maxParticipants,
		Participants:    participants,
	}
}

// Registry owns every activity. The name→activity map is never written
// after NewRegistry returns, so lookups need no lock.
type Registry struct {
	activities map[string]*activity
	sink       EventSink
	logger     logger.Logger
	tracer     trace.Tracer
	obs        *observability.Observability
	now        func() time.Time
}

type Option func(*Registry)

func WithEventSink(sink EventSink) Option {
	return func(r *Registry) { r.sink = sink }
}

func WithLogger(log logger.Logger) Option {
	return func(r *Registry) { r.logger = log }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) { r.tracer = tracer }
}

func WithObservability(obs *observability.Observability) Option {
	return func(r *Registry) { r.obs = obs }
}

// NewRegistry builds a registry from a seed catalog. The catalog is copied;
// later changes to seed do not affect the registry.
func NewRegistry(seed *registry.ActivityRegistry, opts ...Option) (*Registry, error) {
	if seed == nil {
		return nil, apperrors.NewSeedInvalidError("seed catalog is nil")
	}

	r := &Registry{
		activities: make(map[string]*activity, len(seed.Activities)),
		logger:     logger.NewNoOpLogger(),
		tracer:     noop.NewTracerProvider().Tracer("activities"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithFields(map[string]interface{}{"component": "activity-registry"})

	for _, a := range seed.Activities {
		if _, dup := r.activities[a.Name]; dup {
			return nil, apperrors.NewSeedInvalidError(fmt.Sprintf("duplicate activity name: %s", a.Name))
		}
		participants := make([]string, len(a.Participants))
		copy(participants, a.Participants)
		r.activities[a.Name] = &activity{
			description:     a.Description,
			schedule:        a.Schedule,
			maxParticipants: a.MaxParticipants,
			participants:    participants,
		}
	}

	return r, nil
}

// List returns a snapshot of every activity keyed by name.
func (r *Registry) List(ctx context.Context) map[string]models.Activity {
	ctx, span := r.tracer.Start(ctx, "activities.List")
	defer span.End()
	start := time.Now()

	out := make(map[string]models.Activity, len(r.activities))
	for name, a := range r.activities {
		out[name] = a.snapshot()
	}

	r.obs.RecordOperation(ctx, "list", "ok", time.Since(start))
	return out
}

// Get returns a snapshot of a single activity.
func (r *Registry) Get(ctx context.Context, name string) (models.Activity, error) {
	a, ok := r.activities[name]
	if !ok {
		return models.Activity{}, apperrors.NewActivityNotFoundError(name)
	}
	return a.snapshot(), nil
}

// Names returns the activity names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.activities))
	for name := range r.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signup appends email to the named activity's roster. It fails with
// ACTIVITY_NOT_FOUND for an unknown activity and ALREADY_SIGNED_UP when the
// email is already present. Capacity is not enforced.
func (r *Registry) Signup(ctx context.Context, name, email string) (*models.Confirmation, error) {
	ctx, span := r.tracer.Start(ctx, "activities.Signup",
		trace.WithAttributes(attribute.String("activity", name)))
	defer span.End()
	start := time.Now()

	a, ok := r.activities[name]
	if !ok {
		return nil, r.reject(ctx, span, "signup", start, apperrors.NewActivityNotFoundError(name))
	}

	a.mu.Lock()
	if slices.Contains(a.participants, email) {
		a.mu.Unlock()
		return nil, r.reject(ctx, span, "signup", start, apperrors.NewAlreadySignedUpError(name, email))
	}
	a.participants = append(a.participants, email)
	count := len(a.participants)
	a.mu.Unlock()

	metrics.ActivitySignups.WithLabelValues(name).Inc()
	r.obs.RecordOperation(ctx, "signup", "ok", time.Since(start))
	r.logger.Info("participant signed up", map[string]interface{}{
		"activity":     name,
		"email":        email,
		"participants": count,
	})
	r.emit(ctx, models.RosterEventSignedUp, name, email)

	return &models.Confirmation{Message: fmt.Sprintf("Signed up %s for %s", email, name)}, nil
}

// Unregister removes email from the named activity's roster. It fails with
// ACTIVITY_NOT_FOUND for an unknown activity and NOT_SIGNED_UP when the
// email is not present.
func (r *Registry) Unregister(ctx context.Context, name, email string) (*models.Confirmation, error) {
	ctx, span := r.tracer.Start(ctx, "activities.Unregister",
		trace.WithAttributes(attribute.String("activity", name)))
	defer span.End()
	start := time.Now()

	a, ok := r.activities[name]
	if !ok {
		return nil, r.reject(ctx, span, "unregister", start, apperrors.NewActivityNotFoundError(name))
	}

	a.mu.Lock()
	idx := slices.Index(a.participants, email)
	if idx < 0 {
		a.mu.Unlock()
		return nil, r.reject(ctx, span, "unregister", start, apperrors.NewNotSignedUpError(name, email))
	}
	a.participants = slices.Delete(a.participants, idx, idx+1)
	count := len(a.participants)
	a.mu.Unlock()

	metrics.ActivityUnregistrations.WithLabelValues(name).Inc()
	r.obs.RecordOperation(ctx, "unregister", "ok", time.Since(start))
	r.logger.Info("participant unregistered", map[string]interface{}{
		"activity":     name,
		"email":        email,
		"participants": count,
	})
	r.emit(ctx, models.RosterEventUnregistered, name, email)

	return &models.Confirmation{Message: fmt.Sprintf("Unregistered %s from %s", email, name)}, nil
}

func (r *Registry) reject(ctx context.Context, span trace.Span, op string, start time.Time, err *apperrors.StandardError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	metrics.ActivityOperationFailures.WithLabelValues(op, string(err.Code)).Inc()
	r.obs.RecordOperation(ctx, op, string(err.Code), time.Since(start))
	r.logger.Debug("operation rejected", map[string]interface{}{
		"operation": op,
		"errorCode": string(err.Code),
		"details":   err.Details,
	})
	return err
}

func (r *Registry) emit(ctx context.Context, typ models.RosterEventType, name, email string) {
	if r.sink == nil {
		return
	}
	event := models.RosterEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		Activity:   name,
		Email:      email,
		OccurredAt: r.now().UTC(),
	}
	if err := r.sink.Publish(ctx, event); err != nil {
		r.logger.Warn("roster event delivery incomplete", map[string]interface{}{
			"eventId":  event.ID,
			"activity": name,
			"error":    err,
		})
	}
}
