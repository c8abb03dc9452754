package manifest

import (
	"fmt"
	"strings"

	"github.com/fleetlab/ota-server/internal/models"
)

// Manifest is the client-facing descriptor of an offered firmware update.
type Manifest struct {
	Version      string  `json:"version"`
	URL          string  `json:"url"`
	SHA256       string  `json:"sha256"`
	SizeBytes    int64   `json:"size_bytes"`
	ReleaseNotes *string `json:"release_notes,omitempty"`

	// PostInstallDelay is reserved for future staggered-install support;
	// the server always sets it to zero today
	PostInstallDelay int `json:"post_install_delay"`
}

// Build turns a firmware record into the manifest served to devices. The
// download URL is absolute, rooted at the configured base URL.
func Build(baseURL string, firmware *models.Firmware) Manifest {
	url := fmt.Sprintf("%s/firmware/%s/image.bin", strings.TrimRight(baseURL, "/"), firmware.Version)
	return Manifest{
		Version:          firmware.Version,
		URL:              url,
		SHA256:           firmware.SHA256,
		SizeBytes:        firmware.SizeBytes,
		ReleaseNotes:     firmware.ReleaseNotes,
		PostInstallDelay: 0,
	}
}
