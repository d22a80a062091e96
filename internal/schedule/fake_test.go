package schedule

import (
	"context"
	"sync"
	"time"

	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/store"
)

// fakeStore is a func-field mock; unset funcs answer with the zero value.
type fakeStore struct {
	mu      sync.Mutex
	updates []models.AppointmentFields

	FetchAllFunc func(ctx context.Context) ([]models.Appointment, error)
	UpdateFunc   func(ctx context.Context, id models.ID, fields models.AppointmentFields) (models.Appointment, error)
	CreateFunc   func(ctx context.Context, fields models.AppointmentFields) (models.Appointment, error)
	DeleteFunc   func(ctx context.Context, id models.ID) error
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) FetchAll(ctx context.Context) ([]models.Appointment, error) {
	if f.FetchAllFunc != nil {
		return f.FetchAllFunc(ctx)
	}
	return nil, nil
}

func (f *fakeStore) Update(ctx context.Context, id models.ID, fields models.AppointmentFields) (models.Appointment, error) {
	f.mu.Lock()
	f.updates = append(f.updates, fields)
	f.mu.Unlock()
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, fields)
	}
	return models.Appointment{}, nil
}

func (f *fakeStore) Create(ctx context.Context, fields models.AppointmentFields) (models.Appointment, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, fields)
	}
	return models.Appointment{}, nil
}

func (f *fakeStore) Delete(ctx context.Context, id models.ID) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *fakeStore) Updates() []models.AppointmentFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AppointmentFields(nil), f.updates...)
}

type fakeDirectory struct {
	patients []models.Person
	doctors  []models.Person
	err      error
}

var _ store.Directory = (*fakeDirectory)(nil)

func (d *fakeDirectory) Patients(context.Context) ([]models.Person, error) { return d.patients, d.err }
func (d *fakeDirectory) Doctors(context.Context) ([]models.Person, error)  { return d.doctors, d.err }

var baseTime = time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)

func appt(id string, status models.AppointmentStatus, date time.Time) models.Appointment {
	return models.Appointment{
		ID:          models.ID(id),
		PatientID:   "p" + models.ID(id),
		PatientName: "Patient " + id,
		DoctorID:    "d1",
		DoctorName:  "Dr. Smith",
		Date:        date,
		Status:      status,
	}
}

// echoUpdate answers an update with the cached record merged with fields.
func echoUpdate(coll *Collection) func(context.Context, models.ID, models.AppointmentFields) (models.Appointment, error) {
	return func(_ context.Context, id models.ID, fields models.AppointmentFields) (models.Appointment, error) {
		a, _ := coll.Get(id)
		return fields.Apply(a), nil
	}
}
