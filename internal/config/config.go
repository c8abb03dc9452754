package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the OTA server. It is built
// once at process start (Load) and passed explicitly to constructors;
// there is no process-wide cached instance.
type Config struct {
	// ListenAddr is the address the HTTP server binds to (e.g. ":8443")
	ListenAddr string

	// APIToken is the shared secret devices must present in the X-OTA-Token
	// header
	APIToken string

	// BaseURL is the externally reachable server URL used to build absolute
	// firmware download links (e.g. "https://ota.example.com")
	BaseURL string

	// DatabasePath is the file path to the SQLite database
	// Example: "./data/ota.db" or ":memory:"
	DatabasePath string

	// StorageRoot is the directory firmware images are stored under
	StorageRoot string

	// MaxFirmwareSizeKB caps accepted firmware images; oversized uploads are
	// rejected and the partial copy removed
	MaxFirmwareSizeKB int64

	// PollIntervalMinutes is the check-in interval hint returned to devices
	PollIntervalMinutes int

	// SchedulesFile is the declarative rollout schedule list (YAML)
	SchedulesFile string

	// Timezone is the IANA zone cron expressions are evaluated in
	Timezone string

	// LogLevel is the zerolog level name (debug, info, warn, error)
	LogLevel string

	// NotifyEnabled turns on rollout event emails via AWS SES
	NotifyEnabled bool

	// NotifyFromEmail is the From address for rollout event emails
	NotifyFromEmail string

	// NotifyRecipients receives rollout event emails
	NotifyRecipients []string

	// AWSRegion is the region for the SES client (e.g. "eu-west-1")
	AWSRegion string
}

// Load builds a Config from environment variables, applying defaults for
// everything except the API token.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:          getEnv("OTA_LISTEN_ADDR", ":8443"),
		APIToken:            os.Getenv("OTA_API_TOKEN"),
		BaseURL:             getEnv("OTA_BASE_URL", "http://localhost:8443"),
		DatabasePath:        getEnv("OTA_DATABASE_PATH", "./data/ota.db"),
		StorageRoot:         getEnv("OTA_STORAGE_ROOT", "firmware_store"),
		MaxFirmwareSizeKB:   getEnvInt64("OTA_MAX_FIRMWARE_SIZE_KB", 3900),
		PollIntervalMinutes: int(getEnvInt64("OTA_POLL_INTERVAL_MINUTES", 10)),
		SchedulesFile:       getEnv("OTA_SCHEDULES_FILE", "config/schedules.yaml"),
		Timezone:            getEnv("OTA_TIMEZONE", "UTC"),
		LogLevel:            getEnv("OTA_LOG_LEVEL", "info"),
		NotifyEnabled:       getEnvBool("OTA_NOTIFY_ENABLED", false),
		NotifyFromEmail:     os.Getenv("OTA_NOTIFY_FROM_EMAIL"),
		NotifyRecipients:    splitList(os.Getenv("OTA_NOTIFY_RECIPIENTS")),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
	}

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("OTA_API_TOKEN is required")
	}
	if cfg.NotifyEnabled && cfg.NotifyFromEmail == "" {
		return nil, fmt.Errorf("OTA_NOTIFY_FROM_EMAIL is required when notifications are enabled")
	}

	return cfg, nil
}

// MaxFirmwareSizeBytes returns the firmware size cap in bytes.
func (c *Config) MaxFirmwareSizeBytes() int64 {
	return c.MaxFirmwareSizeKB * 1024
}

// Location resolves the configured timezone, falling back to UTC when the
// zone name is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
