package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"clinic-dashboard-server/internal/models"
)

// ConflictWindow is how close two appointments of one doctor may start.
const ConflictWindow = 30 * time.Minute

// DatabaseStore persists appointments with gorm. It is used when the
// dashboard runs next to the clinic database instead of the clinic API.
type DatabaseStore struct {
	DB *gorm.DB
}

// NewDatabaseStore creates a DatabaseStore.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{DB: db}
}

var _ Store = (*DatabaseStore)(nil)

// FetchAll returns every appointment ordered by start time.
func (s *DatabaseStore) FetchAll(ctx context.Context) ([]models.Appointment, error) {
	var rows []models.AppointmentRecord
	if err := s.DB.WithContext(ctx).Order("date asc").Find(&rows).Error; err != nil {
		return nil, networkError(err, "Failed to fetch appointments: %v", err)
	}
	out := make([]models.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToAppointment())
	}
	return out, nil
}

// Create validates the required fields, rejects a doctor double-booking and
// stores a new pending appointment unless a status is given.
func (s *DatabaseStore) Create(ctx context.Context, fields models.AppointmentFields) (models.Appointment, error) {
	switch {
	case fields.PatientID == nil || *fields.PatientID == "":
		return models.Appointment{}, validationError("Patient ID is required")
	case fields.DoctorID == nil || *fields.DoctorID == "":
		return models.Appointment{}, validationError("Doctor ID is required")
	case fields.Date == nil || fields.Date.IsZero():
		return models.Appointment{}, validationError("Appointment date is required")
	}

	a := fields.Apply(models.Appointment{Status: models.StatusPending})
	if err := CheckRange(a); err != nil {
		return models.Appointment{}, err
	}
	if err := s.checkConflict(ctx, a, ""); err != nil {
		return models.Appointment{}, err
	}

	row := models.AppointmentRecord{
		PatientID:   a.PatientID.String(),
		PatientName: a.PatientName,
		DoctorID:    a.DoctorID.String(),
		DoctorName:  a.DoctorName,
		Date:        a.Date,
		EndTime:     a.EndTime,
		Status:      a.Status,
		Notes:       a.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Appointment{}, networkError(err, "Failed to create appointment: %v", err)
	}
	return row.ToAppointment(), nil
}

// Update merges the set fields into the stored row.
func (s *DatabaseStore) Update(ctx context.Context, id models.ID, fields models.AppointmentFields) (models.Appointment, error) {
	var row models.AppointmentRecord
	err := s.DB.WithContext(ctx).First(&row, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Appointment{}, notFoundError(id)
	}
	if err != nil {
		return models.Appointment{}, networkError(err, "Database error: %v", err)
	}

	merged := fields.Apply(row.ToAppointment())
	if err := CheckRange(merged); err != nil {
		return models.Appointment{}, err
	}
	if fields.Date != nil || fields.DoctorID != nil {
		if err := s.checkConflict(ctx, merged, row.ID); err != nil {
			return models.Appointment{}, err
		}
	}

	row.PatientID = merged.PatientID.String()
	row.PatientName = merged.PatientName
	row.DoctorID = merged.DoctorID.String()
	row.DoctorName = merged.DoctorName
	row.Date = merged.Date
	row.EndTime = merged.EndTime
	row.Status = merged.Status
	row.Notes = merged.Notes
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return models.Appointment{}, networkError(err, "Failed to update appointment: %v", err)
	}
	return row.ToAppointment(), nil
}

// Delete removes the row, failing with not_found for unknown ids.
func (s *DatabaseStore) Delete(ctx context.Context, id models.ID) error {
	res := s.DB.WithContext(ctx).Delete(&models.AppointmentRecord{}, "id = ?", id.String())
	if res.Error != nil {
		return networkError(res.Error, "Failed to delete appointment: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError(id)
	}
	return nil
}

// CheckRange rejects an appointment whose end is not after its start.
func CheckRange(a models.Appointment) error {
	if a.EndTime != nil && !a.EndTime.After(a.Date) {
		return validationError("End time must be after the start time")
	}
	return nil
}

// checkConflict rejects a second non-cancelled appointment of the same
// doctor starting within ConflictWindow of a.Date.
func (s *DatabaseStore) checkConflict(ctx context.Context, a models.Appointment, selfID string) error {
	q := s.DB.WithContext(ctx).Model(&models.AppointmentRecord{}).
		Where("doctor_id = ? AND date BETWEEN ? AND ? AND status <> ?",
			a.DoctorID.String(), a.Date.Add(-ConflictWindow), a.Date.Add(ConflictWindow), models.StatusCancelled)
	if selfID != "" {
		q = q.Where("id <> ?", selfID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return networkError(err, "Database error: %v", err)
	}
	if count > 0 {
		return validationError("Doctor already has an appointment during this time")
	}
	return nil
}
