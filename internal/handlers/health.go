package handlers

import (
	"net/http"
	"time"

	"github.com/fleetlab/ota-server/internal/models"
	"github.com/gin-gonic/gin"
)

// HealthHandler handles the /healthz endpoint for health checks
func HealthHandler(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "ota-server",
	}

	c.JSON(http.StatusOK, response)
}
