package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"clinic-dashboard-server/internal/metrics"
	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/notify"
	"clinic-dashboard-server/internal/store"
)

var tracer = otel.Tracer("clinic.internal.schedule")

const (
	msgLoadFailed   = "Failed to load data. Please try again."
	msgCreated      = "Appointment created successfully"
	msgUpdated      = "Appointment updated successfully"
	msgSaveFailed   = "Failed to save appointment"
	msgDeleted      = "Appointment deleted successfully"
	msgDeleteFailed = "Failed to delete appointment"
)

// Deps wires a Dashboard. Store is required; the rest have usable zero
// values.
type Deps struct {
	Store     store.Store
	Directory store.Directory
	Log       *notify.Log
	Metrics   *metrics.DashboardMetrics
	Logger    *zerolog.Logger
}

// View is everything the dashboard page renders for one instant.
type View struct {
	Filter       Filter               `json:"filter"`
	Stats        SummaryStats         `json:"stats"`
	Appointments []models.Appointment `json:"appointments"`
	Events       []Event              `json:"events"`
	Loaded       bool                 `json:"loaded"`
}

// Dashboard owns the cached appointments, the filter state and the
// notification log, and routes every mutation through the store.
type Dashboard struct {
	store     store.Store
	directory store.Directory
	coll      *Collection
	log       *notify.Log
	metrics   *metrics.DashboardMetrics
	reporter  Reporter
	logger    zerolog.Logger

	workflow    *Workflow
	rescheduler *Rescheduler

	mu     sync.Mutex
	filter Filter
}

// NewDashboard creates an empty Dashboard. Call Refresh to load it.
func NewDashboard(deps Deps) *Dashboard {
	log := deps.Log
	if log == nil {
		log = notify.NewLog(time.Now)
	}
	base := zerolog.Nop()
	if deps.Logger != nil {
		base = *deps.Logger
	}
	logger := base.With().Str("component", "dashboard").Logger()
	reporter := NewReporter(logger, deps.Metrics)
	coll := NewCollection()
	return &Dashboard{
		store:       deps.Store,
		directory:   deps.Directory,
		coll:        coll,
		log:         log,
		metrics:     deps.Metrics,
		reporter:    reporter,
		logger:      logger,
		workflow:    NewWorkflow(deps.Store, coll, log, reporter),
		rescheduler: NewRescheduler(deps.Store, coll, log, reporter),
		filter:      Filter{}.Normalize(),
	}
}

// Refresh reloads every appointment and clears the search term. A caching
// directory is invalidated so the patient and doctor lists reload too. On
// failure the cached list is kept and an error notification is recorded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "schedule.refresh")
	defer span.End()

	d.mu.Lock()
	d.filter.SearchTerm = ""
	d.mu.Unlock()

	if inv, ok := d.directory.(store.Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("directory cache invalidation failed")
		}
	}

	since := d.coll.Version()
	started := time.Now()
	list, err := d.store.FetchAll(ctx)
	d.reporter.Report("fetch", "", time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		d.log.Error(msgLoadFailed)
		return fmt.Errorf("refresh appointments: %w", err)
	}

	d.coll.Replace(list, since)
	d.metrics.SetCached(len(d.coll.Snapshot()))
	span.SetAttributes(attribute.Int("clinic.appointments", len(list)))
	return nil
}

// resync reloads the list without touching the filter or the notification
// log. A failure only logs; the last good list stays cached.
func (d *Dashboard) resync(ctx context.Context) {
	since := d.coll.Version()
	started := time.Now()
	list, err := d.store.FetchAll(ctx)
	d.reporter.Report("fetch", "", time.Since(started), err)
	if err != nil {
		d.logger.Warn().Err(err).Msg("reload after create failed, keeping cached list")
		return
	}
	d.coll.Replace(list, since)
}

// EnsureLoaded refreshes once, the first time the dashboard is viewed.
func (d *Dashboard) EnsureLoaded(ctx context.Context) error {
	if d.coll.Loaded() {
		return nil
	}
	return d.Refresh(ctx)
}

// Filter returns the current filter state.
func (d *Dashboard) Filter() Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// SetFilter validates and installs f, defaulting its empty fields.
func (d *Dashboard) SetFilter(f Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.filter = f.Normalize()
	d.mu.Unlock()
	return nil
}

// ClearSearch resets the search term and keeps the other filters.
func (d *Dashboard) ClearSearch() {
	d.mu.Lock()
	d.filter.SearchTerm = ""
	d.mu.Unlock()
}

// View derives the statistics, filtered list and calendar events at now.
// Stats cover the whole collection; the list and the events follow the
// filter. Events with a move in flight show the requested time.
func (d *Dashboard) View(now time.Time) View {
	f := d.Filter()
	all := d.coll.Snapshot()
	filtered := FilterAppointments(all, f, now)

	events := ProjectEvents(filtered)
	intents := d.coll.Intents()
	for i := range events {
		if in, ok := intents[events[i].ID]; ok {
			events[i].Start = in.Start
			events[i].End = in.End
			events[i].Pending = true
		}
	}

	return View{
		Filter:       f,
		Stats:        Summarize(all, now),
		Appointments: filtered,
		Events:       events,
		Loaded:       d.coll.Loaded(),
	}
}

// Get returns the cached appointment with id.
func (d *Dashboard) Get(id models.ID) (models.Appointment, bool) {
	return d.coll.Get(id)
}

// ApplyAction runs a status workflow action.
func (d *Dashboard) ApplyAction(ctx context.Context, id models.ID, action Action) (ActionResult, error) {
	return d.workflow.ApplyAction(ctx, id, action)
}

// Reschedule moves an appointment to a new start and end.
func (d *Dashboard) Reschedule(ctx context.Context, id models.ID, start, end time.Time) (models.Appointment, error) {
	return d.rescheduler.Reschedule(ctx, id, start, end)
}

// MoveBy moves an appointment to start, keeping its duration.
func (d *Dashboard) MoveBy(ctx context.Context, id models.ID, start time.Time) (models.Appointment, error) {
	return d.rescheduler.MoveBy(ctx, id, start)
}

// Save submits the edit form. An empty id creates a new appointment.
// Display names are taken from the directory when it knows the ids. The
// record as it would stand after the save must end after it starts.
func (d *Dashboard) Save(ctx context.Context, candidate models.Appointment) (models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "schedule.save")
	defer span.End()

	candidate = d.resolveNames(ctx, candidate)
	fields := models.FieldsOf(candidate)

	if candidate.ID == "" {
		if err := store.CheckRange(candidate); err != nil {
			d.log.Error(msgSaveFailed)
			return models.Appointment{}, fmt.Errorf("create appointment: %w", err)
		}
		started := time.Now()
		created, err := d.store.Create(ctx, fields)
		d.reporter.Report("create", "", time.Since(started), err)
		if err != nil {
			span.RecordError(err)
			d.log.Error(msgSaveFailed)
			return models.Appointment{}, fmt.Errorf("create appointment: %w", err)
		}
		if created.ID == "" {
			// No body means no id to cache under; pick the new row up from the store.
			created = fields.Apply(models.Appointment{Status: models.StatusPending})
			d.resync(ctx)
		} else {
			d.coll.Add(created)
		}
		d.metrics.SetCached(len(d.coll.Snapshot()))
		d.log.Success(msgCreated)
		return created, nil
	}

	id := candidate.ID
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))
	if cached, ok := d.coll.Get(id); ok {
		if err := store.CheckRange(fields.Apply(cached)); err != nil {
			d.log.Error(msgSaveFailed)
			return models.Appointment{}, fmt.Errorf("update appointment %s: %w", id, err)
		}
	} else if err := store.CheckRange(candidate); err != nil {
		d.log.Error(msgSaveFailed)
		return models.Appointment{}, fmt.Errorf("update appointment %s: %w", id, err)
	}
	seq := d.coll.Begin(id)
	started := time.Now()
	updated, err := d.store.Update(ctx, id, fields)
	d.reporter.Report("update", id, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		d.log.Error(msgSaveFailed)
		return models.Appointment{}, fmt.Errorf("update appointment %s: %w", id, err)
	}
	updated, cached := settle(d.coll, id, updated, fields)
	if cached {
		d.coll.Commit(id, seq, updated)
	}
	d.log.Success(msgUpdated)
	return updated, nil
}

// Delete removes an appointment from the store and the collection.
func (d *Dashboard) Delete(ctx context.Context, id models.ID) error {
	ctx, span := tracer.Start(ctx, "schedule.delete")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	seq := d.coll.Begin(id)
	started := time.Now()
	err := d.store.Delete(ctx, id)
	d.reporter.Report("delete", id, time.Since(started), err)
	if err != nil {
		span.RecordError(err)
		d.log.Error(msgDeleteFailed)
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	d.coll.CommitDelete(id, seq)
	d.metrics.SetCached(len(d.coll.Snapshot()))
	d.log.Success(msgDeleted)
	return nil
}

// Notifications returns the log, newest first.
func (d *Dashboard) Notifications() []models.Notification {
	return d.log.Entries()
}

// Directory exposes the reference lists, or nil when none is configured.
func (d *Dashboard) Directory() store.Directory {
	return d.directory
}

func (d *Dashboard) resolveNames(ctx context.Context, a models.Appointment) models.Appointment {
	if d.directory == nil {
		return a
	}
	if a.PatientID != "" {
		if patients, err := d.directory.Patients(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("patient directory unavailable, keeping submitted name")
		} else if p, ok := store.Lookup(patients, a.PatientID); ok {
			a.PatientName = p.Name
		}
	}
	if a.DoctorID != "" {
		if doctors, err := d.directory.Doctors(ctx); err != nil {
			d.logger.Warn().Err(err).Msg("doctor directory unavailable, keeping submitted name")
		} else if p, ok := store.Lookup(doctors, a.DoctorID); ok {
			a.DoctorName = p.Name
		}
	}
	return a
}
