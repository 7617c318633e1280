package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// resetCheckInterval is how often the scheduler looks for a due reset
const resetCheckInterval = time.Minute

// tables in deletion order, children first
var resetTables = []string{"comments", "readings", "book_tags", "book_authors", "books", "tags", "authors", "users"}

// ParseResetSchedule parses a standard 5-field cron expression
func ParseResetSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// ResetData wipes every table and seeds the database again
func ResetData(db *gorm.DB, adminEmail, adminPassword string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, table := range resetTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return Seed(db, adminEmail, adminPassword)
}

// runResetScheduler resets the demo data whenever schedule comes due, until
// ctx is cancelled.
func (s *Server) runResetScheduler(ctx context.Context, schedule cron.Schedule) {
	ticker := time.NewTicker(resetCheckInterval)
	defer ticker.Stop()

	next := schedule.Next(time.Now())
	s.logger.Info().Time("next_reset_at", next).Msg("Demo data reset scheduled")

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}

			if err := ResetData(s.db, s.config.AdminEmail, s.config.AdminPassword); err != nil {
				s.logger.Error().Err(err).Msg("Failed to reset demo data")
			} else {
				s.logger.Info().Msg("Demo data reset")
			}

			next = schedule.Next(now)
			s.logger.Debug().Time("next_reset_at", next).Msg("Updated next reset time")
		}
	}
}
