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

// Action is a named status transition.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// ErrUnknownAction is returned for action names outside the workflow.
var ErrUnknownAction = errors.New("unknown appointment action")

type transition struct {
	to      models.AppointmentStatus
	message string
}

// Every action is accepted from every current status.
var transitions = map[Action]transition{
	ActionConfirm:  {to: models.StatusConfirmed, message: "Appointment confirmed successfully"},
	ActionCancel:   {to: models.StatusCancelled, message: "Appointment cancelled"},
	ActionComplete: {to: models.StatusCompleted, message: "Appointment marked as completed"},
}

// ActionResult is the user-facing outcome of ApplyAction.
type ActionResult struct {
	Status  models.AppointmentStatus `json:"status"`
	Message string                   `json:"message"`
}

// Workflow applies status actions through the store.
type Workflow struct {
	store    store.Store
	coll     *Collection
	log      *notify.Log
	reporter Reporter
}

// NewWorkflow creates a Workflow. A nil reporter discards outcomes.
func NewWorkflow(s store.Store, coll *Collection, log *notify.Log, reporter Reporter) *Workflow {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Workflow{store: s, coll: coll, log: log, reporter: reporter}
}

// ApplyAction persists the action's status. On failure the cached
// appointment is left as it was and the returned result carries its
// current status with the failure message.
func (w *Workflow) ApplyAction(ctx context.Context, id models.ID, action Action) (ActionResult, error) {
	t, ok := transitions[action]
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	ctx, span := tracer.Start(ctx, "schedule.apply_action")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.appointment_id", id.String()),
		attribute.String("clinic.action", string(action)),
	)

	seq := w.coll.Begin(id)
	status := t.to
	fields := models.AppointmentFields{Status: &status}

	started := time.Now()
	updated, err := w.store.Update(ctx, id, fields)
	w.reporter.Report(string(action), id, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		msg := fmt.Sprintf("Failed to %s appointment", action)
		w.log.Error(msg)
		current, _ := w.coll.Get(id)
		return ActionResult{Status: current.Status, Message: msg}, fmt.Errorf("%s appointment %s: %w", action, id, err)
	}

	if settled, ok := settle(w.coll, id, updated, fields); ok {
		w.coll.Commit(id, seq, settled)
	}
	w.log.Success(t.message)
	return ActionResult{Status: t.to, Message: t.message}, nil
}

// settle returns the store's record, or the cached record with fields
// applied when the store answered without a body. ok is false when there
// was no body and id is not cached; the result then holds only what was
// sent and must not be committed.
func settle(coll *Collection, id models.ID, updated models.Appointment, fields models.AppointmentFields) (models.Appointment, bool) {
	if updated.ID != "" {
		return updated, true
	}
	local, ok := coll.Get(id)
	local.ID = id
	return fields.Apply(local), ok
}
