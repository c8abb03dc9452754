package repositories

import (
	"errors"
	"testing"
)

// TestScheduleUpsertCreatesThenUpdates tests that Upsert is keyed by name
func TestScheduleUpsertCreatesThenUpdates(t *testing.T) {
	db := setupTestDB(t)
	schedules := NewScheduleRepository(db)

	rollout := createTestRollout(t, db, "wave-1", "1.0.0")

	created, err := schedules.Upsert("nightly", "0 3 * * *", true, rollout.ID)
	if err != nil {
		t.Fatalf("Upsert (create) failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected schedule to be persisted with an ID")
	}

	updated, err := schedules.Upsert("nightly", "30 4 * * *", false, rollout.ID)
	if err != nil {
		t.Fatalf("Upsert (update) failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("Upsert created a new row: id %d != %d", updated.ID, created.ID)
	}
	if updated.Cron != "30 4 * * *" || updated.Enabled {
		t.Errorf("schedule not updated: cron %q enabled %v", updated.Cron, updated.Enabled)
	}

	list, err := schedules.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("schedule count = %d, want 1", len(list))
	}
}

// TestScheduleFindByNameNotFound tests the sentinel error
func TestScheduleFindByNameNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewScheduleRepository(db).FindByName("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
