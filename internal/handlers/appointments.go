package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/schedule"
	"clinic-dashboard-server/internal/utils"
)

// AppointmentHandler handles appointment mutations from the dashboard.
type AppointmentHandler struct {
	Dashboard *schedule.Dashboard
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(d *schedule.Dashboard) *AppointmentHandler {
	return &AppointmentHandler{Dashboard: d}
}

// AppointmentRequest is the edit form payload.
type AppointmentRequest struct {
	PatientID   models.ID                `json:"patientId" validate:"required"`
	PatientName string                   `json:"patientName"`
	DoctorID    models.ID                `json:"doctorId" validate:"required"`
	DoctorName  string                   `json:"doctorName"`
	Date        *time.Time               `json:"date" validate:"required"`
	EndTime     *time.Time               `json:"endTime"`
	Status      models.AppointmentStatus `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	Notes       string                   `json:"notes"`
}

func (r AppointmentRequest) appointment(id models.ID) (models.Appointment, error) {
	if r.EndTime != nil && !r.EndTime.After(*r.Date) {
		return models.Appointment{}, errors.New("endTime must be after date")
	}
	return models.Appointment{
		ID:          id,
		PatientID:   r.PatientID,
		PatientName: r.PatientName,
		DoctorID:    r.DoctorID,
		DoctorName:  r.DoctorName,
		Date:        *r.Date,
		EndTime:     r.EndTime,
		Status:      r.Status,
		Notes:       r.Notes,
	}, nil
}

// CreateAppointment saves a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req AppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	candidate, err := req.appointment("")
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	created, err := h.Dashboard.Save(c.Request.Context(), candidate)
	if err != nil {
		utils.StoreFailure(c, "Failed to save appointment", err)
		return
	}
	utils.Created(c, "Appointment created successfully", created)
}

// UpdateAppointment saves the edit form over an existing appointment.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req AppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	candidate, err := req.appointment(models.ID(c.Param("id")))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updated, err := h.Dashboard.Save(c.Request.Context(), candidate)
	if err != nil {
		utils.StoreFailure(c, "Failed to save appointment", err)
		return
	}
	utils.Success(c, "Appointment updated successfully", updated)
}

// DeleteAppointment removes an appointment.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.Dashboard.Delete(c.Request.Context(), models.ID(c.Param("id"))); err != nil {
		utils.StoreFailure(c, "Failed to delete appointment", err)
		return
	}
	utils.Success(c, "Appointment deleted successfully", nil)
}

// ApplyAction runs confirm, cancel or complete.
func (h *AppointmentHandler) ApplyAction(c *gin.Context) {
	action := schedule.Action(c.Param("action"))
	res, err := h.Dashboard.ApplyAction(c.Request.Context(), models.ID(c.Param("id")), action)
	if errors.Is(err, schedule.ErrUnknownAction) {
		utils.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		utils.StoreFailure(c, res.Message, err)
		return
	}
	utils.Success(c, res.Message, res)
}

// RescheduleRequest is an explicit new range.
type RescheduleRequest struct {
	Start *time.Time `json:"start" validate:"required"`
	End   *time.Time `json:"end" validate:"required"`
}

// RescheduleAppointment handles a calendar resize or an explicit new range.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	updated, err := h.Dashboard.Reschedule(c.Request.Context(), models.ID(c.Param("id")), *req.Start, *req.End)
	h.respondReschedule(c, updated, err)
}

// MoveRequest is a drag-drop to a new start.
type MoveRequest struct {
	Start *time.Time `json:"start" validate:"required"`
}

// MoveAppointment handles a drag-drop, keeping the appointment's duration.
func (h *AppointmentHandler) MoveAppointment(c *gin.Context) {
	var req MoveRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	updated, err := h.Dashboard.MoveBy(c.Request.Context(), models.ID(c.Param("id")), *req.Start)
	h.respondReschedule(c, updated, err)
}

func (h *AppointmentHandler) respondReschedule(c *gin.Context, updated models.Appointment, err error) {
	switch {
	case err == nil:
		utils.Success(c, "Appointment rescheduled successfully", updated)
	case errors.Is(err, schedule.ErrInvalidRange):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, schedule.ErrUnknownAppointment):
		utils.NotFound(c, fmt.Sprintf("Appointment %s is not on the dashboard", c.Param("id")))
	default:
		utils.StoreFailure(c, "Failed to reschedule appointment", err)
	}
}

// GetAppointment returns one cached appointment.
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	a, ok := h.Dashboard.Get(models.ID(c.Param("id")))
	if !ok {
		utils.Error(c, http.StatusNotFound, "Appointment not found")
		return
	}
	utils.Success(c, "Appointment fetched successfully", a)
}
