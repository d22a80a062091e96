package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/notify"
	"clinic-dashboard-server/internal/store"
)

var (
	// ErrInvalidRange is returned when an end time is not after its start.
	ErrInvalidRange = errors.New("end time must be after start time")
	// ErrUnknownAppointment is returned when the collection has no such id.
	ErrUnknownAppointment = errors.New("appointment not in dashboard")
)

const (
	msgRescheduled      = "Appointment rescheduled successfully"
	msgRescheduleFailed = "Failed to reschedule appointment"
)

// Rescheduler turns calendar gestures into time-shifted updates.
type Rescheduler struct {
	store    store.Store
	coll     *Collection
	log      *notify.Log
	reporter Reporter
}

// NewRescheduler creates a Rescheduler. A nil reporter discards outcomes.
func NewRescheduler(s store.Store, coll *Collection, log *notify.Log, reporter Reporter) *Rescheduler {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Rescheduler{store: s, coll: coll, log: log, reporter: reporter}
}

// Reschedule persists a new start and end. While the call is in flight the
// move is held as an intent; it is committed on success and dropped on
// failure, leaving the cached time unchanged.
func (r *Rescheduler) Reschedule(ctx context.Context, id models.ID, start, end time.Time) (models.Appointment, error) {
	if !end.After(start) {
		return models.Appointment{}, ErrInvalidRange
	}

	ctx, span := tracer.Start(ctx, "schedule.reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	seq := r.coll.Begin(id)
	r.coll.SetIntent(id, seq, start, end)
	defer r.coll.ClearIntent(id, seq)

	fields := models.AppointmentFields{Date: &start, EndTime: &end}
	started := time.Now()
	updated, err := r.store.Update(ctx, id, fields)
	r.reporter.Report("reschedule", id, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		r.log.Error(msgRescheduleFailed)
		return models.Appointment{}, fmt.Errorf("reschedule appointment %s: %w", id, err)
	}

	updated, cached := settle(r.coll, id, updated, fields)
	if cached {
		r.coll.Commit(id, seq, updated)
	}
	r.log.Success(msgRescheduled)
	return updated, nil
}

// MoveBy handles a drag-drop: the appointment starts at start and keeps its
// current duration.
func (r *Rescheduler) MoveBy(ctx context.Context, id models.ID, start time.Time) (models.Appointment, error) {
	a, ok := r.coll.Get(id)
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: %s", ErrUnknownAppointment, id)
	}
	return r.Reschedule(ctx, id, start, start.Add(a.Duration()))
}

// Draft builds the unsaved appointment for a selected empty slot.
func Draft(start, end time.Time) (models.Appointment, error) {
	if !end.After(start) {
		return models.Appointment{}, ErrInvalidRange
	}
	return models.Appointment{
		Date:    start,
		EndTime: &end,
		Status:  models.StatusPending,
	}, nil
}
