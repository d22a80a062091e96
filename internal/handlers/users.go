package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/store"
	"clinic-dashboard-server/internal/utils"
)

// DirectoryHandler serves the patient and doctor pickers of the edit form.
type DirectoryHandler struct {
	Directory store.Directory
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(dir store.Directory) *DirectoryHandler {
	return &DirectoryHandler{Directory: dir}
}

// GetPatients lists users with a patient role.
func (h *DirectoryHandler) GetPatients(c *gin.Context) {
	h.list(c, "Patients", h.Directory.Patients)
}

// GetDoctors lists users with the doctor role.
func (h *DirectoryHandler) GetDoctors(c *gin.Context) {
	h.list(c, "Doctors", h.Directory.Doctors)
}

func (h *DirectoryHandler) list(c *gin.Context, what string, load func(context.Context) ([]models.Person, error)) {
	people, err := load(c.Request.Context())
	if err != nil {
		utils.StoreFailure(c, "Failed to fetch "+what, err)
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	utils.Success(c, what+" fetched successfully", people)
}
