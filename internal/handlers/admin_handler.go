package handlers

import (
	"net/http"

	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/scheduler"
	"github.com/fleetlab/ota-server/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler exposes fleet introspection and rollout administration
type AdminHandler struct {
	db             *gorm.DB
	rolloutService *services.RolloutService
	scheduler      *scheduler.Scheduler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, rolloutService *services.RolloutService, sched *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{
		db:             db,
		rolloutService: rolloutService,
		scheduler:      sched,
	}
}

// ListDevices handles GET /admin/devices
// @Summary List registered devices
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "Devices with their labels"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/devices [get]
func (h *AdminHandler) ListDevices(c *gin.Context) {
	devices := repositories.NewDeviceRepository(h.db)

	list, err := devices.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list devices",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": list,
		"count":   len(list),
	})
}

// ListFirmware handles GET /admin/firmware
// @Summary List registered firmware builds
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "Firmware records, newest first"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/firmware [get]
func (h *AdminHandler) ListFirmware(c *gin.Context) {
	list, err := repositories.NewFirmwareRepository(h.db).List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list firmware",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"firmware": list,
		"count":    len(list),
	})
}

// ListRollouts handles GET /admin/rollouts
// @Summary List rollout campaigns
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "Rollouts with firmware and target label"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/rollouts [get]
func (h *AdminHandler) ListRollouts(c *gin.Context) {
	list, err := repositories.NewRolloutRepository(h.db).List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list rollouts",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rollouts": list,
		"count":    len(list),
	})
}

// CreateRolloutRequest is the admin rollout creation payload
type CreateRolloutRequest struct {
	Name            string  `json:"name" binding:"required"`
	FirmwareVersion string  `json:"firmware_version" binding:"required"`
	TargetLabel     *string `json:"target_label,omitempty"`
	Stage           string  `json:"stage,omitempty"`
	Activate        bool    `json:"activate,omitempty"`
}

// CreateRollout handles POST /admin/rollouts
// @Summary Create a rollout campaign
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateRolloutRequest true "Rollout definition"
// @Success 201 {object} models.Rollout "Created rollout"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Unknown firmware version or label"
// @Failure 409 {object} ErrorResponse "Rollout name already exists"
// @Router /admin/rollouts [post]
func (h *AdminHandler) CreateRollout(c *gin.Context) {
	var req CreateRolloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	rollout, err := h.rolloutService.Create(&services.CreateRequest{
		Name:            req.Name,
		FirmwareVersion: req.FirmwareVersion,
		TargetLabel:     req.TargetLabel,
		Stage:           req.Stage,
		Activate:        req.Activate,
	})
	if err != nil {
		c.JSON(errorStatusCode(err), ErrorResponse{
			Error:   "Rollout creation failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, rollout)
}

// SetRolloutStatusRequest is the rollout status transition payload
type SetRolloutStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetRolloutStatus handles POST /admin/rollouts/:name/status
// @Summary Transition a rollout's lifecycle state
// @Tags admin
// @Accept json
// @Produce json
// @Param name path string true "Rollout name"
// @Param request body SetRolloutStatusRequest true "Target status"
// @Success 200 {object} models.Rollout "Updated rollout"
// @Failure 400 {object} ErrorResponse "Invalid status value"
// @Failure 404 {object} ErrorResponse "Unknown rollout"
// @Router /admin/rollouts/{name}/status [post]
func (h *AdminHandler) SetRolloutStatus(c *gin.Context) {
	var req SetRolloutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	rollout, err := h.rolloutService.SetStatus(c.Param("name"), req.Status)
	if err != nil {
		c.JSON(errorStatusCode(err), ErrorResponse{
			Error:   "Status update failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, rollout)
}

// SyncScheduler handles POST /admin/scheduler/sync
// @Summary Reconcile schedules from the declarative file now
// @Description Re-read the schedules file and align schedule rows and timers without waiting for a restart.
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "Active timer names after the sync"
// @Failure 500 {object} ErrorResponse "Schedules file missing or unreadable"
// @Router /admin/scheduler/sync [post]
func (h *AdminHandler) SyncScheduler(c *gin.Context) {
	if err := h.scheduler.ReconcileFromFile(true); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Scheduler sync failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "synced",
		"timers": h.scheduler.TimerNames(),
	})
}
