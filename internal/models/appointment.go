package models

import (
	"slices"
	"time"
)

// DefaultDuration is the length assumed for appointments without an end time.
const DefaultDuration = time.Hour

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Statuses lists the workflow statuses in display order.
var Statuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the four workflow statuses.
func (s AppointmentStatus) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Appointment is a scheduled encounter as exchanged with the clinic API.
// PatientName and DoctorName are display copies; the ids are authoritative.
type Appointment struct {
	ID          ID                `json:"id"`
	PatientID   ID                `json:"patientId"`
	PatientName string            `json:"patientName"`
	DoctorID    ID                `json:"doctorId"`
	DoctorName  string            `json:"doctorName"`
	Date        time.Time         `json:"date"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// End returns EndTime, or Date plus DefaultDuration when no end is set.
func (a Appointment) End() time.Time {
	if a.EndTime != nil {
		return *a.EndTime
	}
	return a.Date.Add(DefaultDuration)
}

// Duration is the effective length of the appointment.
func (a Appointment) Duration() time.Duration {
	return a.End().Sub(a.Date)
}

// AppointmentFields is a partial appointment. Nil fields are left untouched
// by an update and defaulted by a create.
type AppointmentFields struct {
	PatientID   *ID                `json:"patientId,omitempty"`
	PatientName *string            `json:"patientName,omitempty"`
	DoctorID    *ID                `json:"doctorId,omitempty"`
	DoctorName  *string            `json:"doctorName,omitempty"`
	Date        *time.Time         `json:"date,omitempty"`
	EndTime     *time.Time         `json:"endTime,omitempty"`
	Status      *AppointmentStatus `json:"status,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
}

// Apply merges the set fields into a copy of a.
func (f AppointmentFields) Apply(a Appointment) Appointment {
	if f.PatientID != nil {
		a.PatientID = *f.PatientID
	}
	if f.PatientName != nil {
		a.PatientName = *f.PatientName
	}
	if f.DoctorID != nil {
		a.DoctorID = *f.DoctorID
	}
	if f.DoctorName != nil {
		a.DoctorName = *f.DoctorName
	}
	if f.Date != nil {
		a.Date = *f.Date
	}
	if f.EndTime != nil {
		end := *f.EndTime
		a.EndTime = &end
	}
	if f.Status != nil {
		a.Status = *f.Status
	}
	if f.Notes != nil {
		a.Notes = *f.Notes
	}
	return a
}

// FieldsOf returns the fields of a that an edit form submits.
func FieldsOf(a Appointment) AppointmentFields {
	f := AppointmentFields{
		PatientID:   &a.PatientID,
		PatientName: &a.PatientName,
		DoctorID:    &a.DoctorID,
		DoctorName:  &a.DoctorName,
		Date:        &a.Date,
		Notes:       &a.Notes,
	}
	if a.EndTime != nil {
		end := *a.EndTime
		f.EndTime = &end
	}
	if a.Status != "" {
		status := a.Status
		f.Status = &status
	}
	return f
}

// AppointmentRecord is the database row behind the database store.
type AppointmentRecord struct {
	BaseModel
	PatientID   string            `gorm:"size:36;index" json:"patientId"`
	PatientName string            `gorm:"size:255" json:"patientName"`
	DoctorID    string            `gorm:"size:36;index" json:"doctorId"`
	DoctorName  string            `gorm:"size:255" json:"doctorName"`
	Date        time.Time         `gorm:"index" json:"date"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	Status      AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Notes       string            `gorm:"type:text" json:"notes"`
}

// TableName keeps the table name stable regardless of the struct name.
func (AppointmentRecord) TableName() string { return "appointments" }

// ToAppointment converts the row into the exchanged representation.
func (r AppointmentRecord) ToAppointment() Appointment {
	return Appointment{
		ID:          ID(r.ID),
		PatientID:   ID(r.PatientID),
		PatientName: r.PatientName,
		DoctorID:    ID(r.DoctorID),
		DoctorName:  r.DoctorName,
		Date:        r.Date,
		EndTime:     r.EndTime,
		Status:      r.Status,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
	}
}
