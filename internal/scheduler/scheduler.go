package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/repositories"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ActivationNotifier is notified after a rollout was activated by a timer.
// Implementations must be safe for concurrent use; a nil notifier disables
// notifications.
type ActivationNotifier interface {
	RolloutActivated(ctx context.Context, rollout *models.Rollout)
}

// Scheduler keeps a set of recurring cron timers in sync with the
// declarative schedule list and flips the referenced rollout to active when
// a timer fires. Timer identifiers are schedule names; the live timer set
// after a reconciliation pass is always exactly the enabled subset of the
// declared entries.
type Scheduler struct {
	db            *gorm.DB
	cron          *cron.Cron
	schedulesFile string
	notifier      ActivationNotifier
	log           zerolog.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New creates a scheduler whose cron expressions are evaluated in the given
// timezone. The cron driver is not running until Start is called.
func New(db *gorm.DB, schedulesFile string, loc *time.Location, notifier ActivationNotifier, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		db:            db,
		cron:          cron.New(cron.WithLocation(loc)),
		schedulesFile: schedulesFile,
		notifier:      notifier,
		log:           logger.With().Str("component", "scheduler").Logger(),
		jobs:          make(map[string]cron.EntryID),
	}
}

// Start runs the cron driver in the background and performs an initial
// reconciliation from the schedules file.
func (s *Scheduler) Start() error {
	s.cron.Start()
	s.log.Info().Msg("Rollout scheduler started")
	return s.ReconcileFromFile(true)
}

// Stop halts the cron driver. Running callbacks finish; no new ones fire.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("Rollout scheduler stopped")
}

// ReconcileFromFile loads the declarative schedule list and reconciles
// against it. A missing or unreadable file is the only hard failure; every
// per-entry problem is logged and skipped.
func (s *Scheduler) ReconcileFromFile(applyTimers bool) error {
	entries, err := LoadEntries(s.schedulesFile)
	if err != nil {
		return fmt.Errorf("failed to load schedules file: %w", err)
	}
	return s.Reconcile(entries, applyTimers)
}

// Reconcile aligns persisted schedule rows and live timers with the declared
// entries. With applyTimers false (validation-only mode) no timer is
// inspected or mutated; schedule rows are still upserted. With applyTimers
// true, enabled entries get a registered/replaced timer, disabled entries
// lose theirs, and any live timer not declared in this pass is pruned.
func (s *Scheduler) Reconcile(entries []Entry, applyTimers bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	desired := make(map[string]struct{}, len(entries))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rollouts := repositories.NewRolloutRepository(tx)
		schedules := repositories.NewScheduleRepository(tx)

		for _, entry := range entries {
			if entry.Name == "" || entry.Rollout == "" || entry.Cron == "" {
				s.log.Warn().
					Str("name", entry.Name).
					Str("rollout", entry.Rollout).
					Str("cron", entry.Cron).
					Msg("Invalid schedule definition; skipping")
				continue
			}
			if applyTimers {
				desired[entry.Name] = struct{}{}
			}

			rollout, err := rollouts.FindByName(entry.Rollout)
			if err != nil {
				// Dangling reference: no schedule row is written at all
				s.log.Warn().
					Str("schedule", entry.Name).
					Str("rollout", entry.Rollout).
					Msg("Rollout referenced by schedule not found; skipping")
				continue
			}

			if _, err := schedules.Upsert(entry.Name, entry.Cron, entry.IsEnabled(), rollout.ID); err != nil {
				s.log.Warn().Err(err).
					Str("schedule", entry.Name).
					Msg("Failed to persist schedule; skipping")
				continue
			}

			if !applyTimers {
				continue
			}

			if entry.IsEnabled() {
				s.registerTimer(entry.Name, entry.Rollout, entry.Cron)
			} else {
				s.removeTimer(entry.Name)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule reconciliation failed: %w", err)
	}

	// Prune orphaned timers whose schedule is no longer declared
	if applyTimers {
		for name := range s.jobs {
			if _, ok := desired[name]; ok {
				continue
			}
			s.removeTimer(name)
			s.log.Info().Str("schedule", name).Msg("Removed stale schedule timer")
		}
	}

	return nil
}

// registerTimer adds or replaces the cron timer for a schedule. Failures
// (e.g. a malformed cron expression) are logged, never propagated; the
// reconciliation pass must keep making progress.
func (s *Scheduler) registerTimer(name, rolloutName, cronExpr string) {
	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}

	id, err := s.cron.AddFunc(cronExpr, func() {
		s.ActivateRollout(rolloutName)
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("schedule", name).
			Str("cron", cronExpr).
			Msg("Failed to register schedule timer")
		return
	}

	s.jobs[name] = id
	s.log.Info().
		Str("schedule", name).
		Str("rollout", rolloutName).
		Str("cron", cronExpr).
		Msg("Scheduled rollout activation")
}

// removeTimer drops the timer with the given identifier if one exists.
// Removing an absent timer is a no-op.
func (s *Scheduler) removeTimer(name string) {
	id, ok := s.jobs[name]
	if !ok {
		return
	}
	s.cron.Remove(id)
	delete(s.jobs, name)
}

// TimerNames returns the identifiers of the currently registered timers,
// for introspection and tests.
func (s *Scheduler) TimerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// ActivateRollout is the timer callback: it flips the rollout to active
// (setting is_active, and start_at on first activation) and persists it.
// A missing rollout is logged and ignored; the timer fires on a background
// schedule with no caller to report to, and the next fire retries anyway.
func (s *Scheduler) ActivateRollout(rolloutName string) {
	s.log.Info().Str("rollout", rolloutName).Msg("Activating rollout via scheduler")

	var activated *models.Rollout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rollouts := repositories.NewRolloutRepository(tx)
		rollout, err := rollouts.FindByName(rolloutName)
		if err != nil {
			return err
		}
		if err := rollouts.SetStatus(rollout, models.RolloutStatusActive); err != nil {
			return err
		}
		activated = rollout
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("rollout", rolloutName).
			Msg("Rollout activation skipped")
		return
	}

	s.log.Info().Str("rollout", rolloutName).Msg("Rollout is now active")

	if s.notifier != nil {
		s.notifier.RolloutActivated(context.Background(), activated)
	}
}
