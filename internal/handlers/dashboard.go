package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-dashboard-server/internal/schedule"
	"clinic-dashboard-server/internal/utils"
)

const msgLoadFailed = "Failed to load data. Please try again."

// DashboardHandler serves the receptionist dashboard view.
type DashboardHandler struct {
	Dashboard *schedule.Dashboard
	Now       func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(d *schedule.Dashboard) *DashboardHandler {
	return &DashboardHandler{Dashboard: d, Now: time.Now}
}

// GetDashboard applies the query filters and returns stats, list and events.
// Omitted query parameters keep their current value.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	f := h.Dashboard.Filter()
	if v, ok := c.GetQuery("search"); ok {
		f.SearchTerm = v
	}
	if v, ok := c.GetQuery("status"); ok {
		f.Status = v
	}
	if v, ok := c.GetQuery("range"); ok {
		f.Range = schedule.DateRange(v)
	}
	if v, ok := c.GetQuery("sort"); ok {
		f.Sort = schedule.SortOrder(v)
	}
	if err := f.Validate(); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// The first load clears the search term, so it runs before the filter
	// from this request is installed.
	if err := h.Dashboard.EnsureLoaded(c.Request.Context()); err != nil {
		utils.StoreFailure(c, msgLoadFailed, err)
		return
	}
	if err := h.Dashboard.SetFilter(f); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.Success(c, "Dashboard fetched successfully", h.Dashboard.View(h.Now()))
}

// Refresh reloads appointments from the store.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.Dashboard.Refresh(c.Request.Context()); err != nil {
		utils.StoreFailure(c, msgLoadFailed, err)
		return
	}
	utils.Success(c, "Dashboard refreshed", h.Dashboard.View(h.Now()))
}

// ClearSearch drops the search term and keeps the other filters.
func (h *DashboardHandler) ClearSearch(c *gin.Context) {
	h.Dashboard.ClearSearch()
	utils.Success(c, "Search cleared", h.Dashboard.View(h.Now()))
}

// GetNotifications returns the notification log, newest first.
func (h *DashboardHandler) GetNotifications(c *gin.Context) {
	utils.Success(c, "Notifications fetched successfully", h.Dashboard.Notifications())
}

// CreateSlotRequest is a calendar selection of an empty range.
type CreateSlotRequest struct {
	Start *time.Time `json:"start" validate:"required"`
	End   *time.Time `json:"end" validate:"required"`
}

// CreateSlot returns the unsaved appointment for a selected slot.
func (h *DashboardHandler) CreateSlot(c *gin.Context) {
	var req CreateSlotRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	draft, err := schedule.Draft(*req.Start, *req.End)
	if errors.Is(err, schedule.ErrInvalidRange) {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.Success(c, "Draft appointment created", draft)
}
