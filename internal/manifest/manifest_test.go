package manifest

import (
	"testing"

	"github.com/fleetlab/ota-server/internal/models"
)

// TestBuild tests manifest construction from a firmware record
func TestBuild(t *testing.T) {
	notes := "bugfixes"
	firmware := &models.Firmware{
		Version:      "1.2.0",
		SizeBytes:    4096,
		SHA256:       "deadbeef",
		ReleaseNotes: &notes,
	}

	m := Build("https://ota.example.com", firmware)

	if m.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", m.Version, "1.2.0")
	}
	if m.URL != "https://ota.example.com/firmware/1.2.0/image.bin" {
		t.Errorf("URL = %q, want absolute download path", m.URL)
	}
	if m.SHA256 != "deadbeef" || m.SizeBytes != 4096 {
		t.Error("digest and size must be carried from the firmware record")
	}
	if m.ReleaseNotes == nil || *m.ReleaseNotes != "bugfixes" {
		t.Errorf("ReleaseNotes = %v, want bugfixes", m.ReleaseNotes)
	}
	if m.PostInstallDelay != 0 {
		t.Errorf("PostInstallDelay = %d, want 0", m.PostInstallDelay)
	}
}

// TestBuildTrimsTrailingSlash tests base URL normalization
func TestBuildTrimsTrailingSlash(t *testing.T) {
	firmware := &models.Firmware{Version: "1.0.0"}

	m := Build("https://ota.example.com/", firmware)
	want := "https://ota.example.com/firmware/1.0.0/image.bin"
	if m.URL != want {
		t.Errorf("URL = %q, want %q", m.URL, want)
	}
}
