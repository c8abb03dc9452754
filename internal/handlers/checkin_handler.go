package handlers

import (
	"errors"
	"net/http"

	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/fleetlab/ota-server/internal/services"
	"github.com/fleetlab/ota-server/internal/validators"
	"github.com/gin-gonic/gin"
)

// CheckinHandler handles HTTP requests from devices polling for updates
type CheckinHandler struct {
	checkinService *services.CheckinService
}

// NewCheckinHandler creates a new check-in handler
func NewCheckinHandler(checkinService *services.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		checkinService: checkinService,
	}
}

// CheckUpdate handles POST /api/v1/check-update
// @Summary Device update poll
// @Description Register or refresh the device and return a firmware manifest when a rollout targets it.
// @Tags devices
// @Accept json
// @Produce json
// @Param request body services.CheckUpdateRequest true "Device state: MAC, current version, labels, metadata"
// @Success 200 {object} services.CheckUpdateResponse "Poll result; manifest set only when an update is offered"
// @Failure 400 {object} ErrorResponse "Invalid request or MAC address"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/check-update [post]
func (h *CheckinHandler) CheckUpdate(c *gin.Context) {
	var req services.CheckUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	response, err := h.checkinService.CheckUpdate(&req, c.ClientIP())
	if err != nil {
		c.JSON(errorStatusCode(err), ErrorResponse{
			Error:   "Check-update failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ReportStatus handles POST /api/v1/report-status
// @Summary Device install outcome report
// @Description Record the outcome of a firmware install. The device's current version advances only on success.
// @Tags devices
// @Accept json
// @Produce json
// @Param request body services.ReportStatusRequest true "Install outcome: MAC, firmware version, status"
// @Success 200 {object} map[string]string "Report recorded"
// @Failure 400 {object} ErrorResponse "Invalid request, MAC address or status value"
// @Failure 404 {object} ErrorResponse "Unknown device or firmware version"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/report-status [post]
func (h *CheckinHandler) ReportStatus(c *gin.Context) {
	var req services.ReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	if err := h.checkinService.ReportStatus(&req); err != nil {
		c.JSON(errorStatusCode(err), ErrorResponse{
			Error:   "Report failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorStatusCode maps service errors to HTTP status codes
func errorStatusCode(err error) int {
	var validationErr *validators.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, repositories.ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
