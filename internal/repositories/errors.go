package repositories

import "errors"

// Sentinel errors returned by repositories. Callers match with errors.Is to
// map storage outcomes onto boundary responses (404, 409).
var (
	// ErrNotFound is returned when a lookup by unique key finds no row
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a create would violate a uniqueness
	// invariant (firmware version, rollout name)
	ErrConflict = errors.New("record already exists")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
