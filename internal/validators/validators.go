package validators

import (
	"fmt"
	"regexp"
	"strings"
)

// Normalized MAC: 12 lowercase hex characters, no separators
var macRegex = regexp.MustCompile(`^[0-9a-f]{12}$`)

// Semantic versioning regex (basic)
var semverRegex = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidMAC checks if the string is a MAC address in normalized form
// (12 lowercase hex characters, separators stripped)
func IsValidMAC(mac string) bool {
	return macRegex.MatchString(mac)
}

// NormalizeMAC converts a MAC address to normalized form: colons, dashes and
// dots stripped, lowercased. Handles aa:bb:cc:dd:ee:ff, AA-BB-CC-DD-EE-FF,
// aabb.ccdd.eeff and aabbccddeeff inputs.
func NormalizeMAC(mac string) (string, error) {
	if mac == "" {
		return "", NewValidationError("mac", "MAC address is required")
	}

	clean := strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(mac)
	clean = strings.ToLower(clean)

	if !IsValidMAC(clean) {
		return "", NewValidationError("mac", "MAC address must be 12 hexadecimal characters")
	}

	return clean, nil
}

// IsValidSemanticVersion checks if the string follows semantic versioning
// Format: MAJOR.MINOR.PATCH or MAJOR.MINOR.PATCH-prerelease+build
// Examples: 1.0.0, 2.1.3-beta, 1.0.0-alpha+001
func IsValidSemanticVersion(version string) bool {
	if version == "" {
		return false
	}
	return semverRegex.MatchString(version)
}

// ValidateFirmwareVersion validates a firmware version string
func ValidateFirmwareVersion(version string, fieldName string) error {
	if version == "" {
		return NewValidationError(fieldName, "version is required")
	}
	if !IsValidSemanticVersion(version) {
		return NewValidationError(fieldName, "invalid semantic version format (expected: MAJOR.MINOR.PATCH)")
	}
	return nil
}

// ValidateReportStatus validates the status value of a device status report.
// Only terminal outcomes are accepted on the wire; "downloading" entries are
// written by the server itself when an offer is made.
func ValidateReportStatus(status string, fieldName string) error {
	if status == "" {
		return NewValidationError(fieldName, "status is required")
	}
	if status != "success" && status != "failed" {
		return NewValidationError(fieldName, "invalid status (allowed: success, failed)")
	}
	return nil
}

// NormalizeLabelNames trims and deduplicates label names, dropping empties.
// Order of first appearance is preserved.
func NormalizeLabelNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
