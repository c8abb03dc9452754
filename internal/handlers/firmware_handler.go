package handlers

import (
	"net/http"
	"os"

	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FirmwareHandler serves firmware image downloads
type FirmwareHandler struct {
	db *gorm.DB
}

// NewFirmwareHandler creates a new firmware handler
func NewFirmwareHandler(db *gorm.DB) *FirmwareHandler {
	return &FirmwareHandler{db: db}
}

// Download handles GET /firmware/:version/image.bin
// @Summary Download a firmware image
// @Description Stream the firmware binary for the given version. The URL matches the one handed out in update manifests.
// @Tags firmware
// @Produce octet-stream
// @Param version path string true "Firmware version"
// @Success 200 {file} binary "Firmware image"
// @Failure 404 {object} ErrorResponse "Unknown version or missing file"
// @Router /firmware/{version}/image.bin [get]
func (h *FirmwareHandler) Download(c *gin.Context) {
	version := c.Param("version")

	firmware, err := repositories.NewFirmwareRepository(h.db).FindByVersion(version)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Firmware not found",
			Message: "no firmware registered for version " + version,
		})
		return
	}

	// Record exists but the file is gone: still a 404, the manifest URL
	// simply cannot be satisfied
	if _, err := os.Stat(firmware.FilePath); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Firmware file missing",
			Message: "image for version " + version + " is not available",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="image.bin"`)
	c.Header("X-Firmware-SHA256", firmware.SHA256)
	c.File(firmware.FilePath)
}
