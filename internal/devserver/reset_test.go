package devserver

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResetSchedule(t *testing.T) {
	schedule, err := ParseResetSchedule("0 3 * * *")
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), schedule.Next(from))

	_, err = ParseResetSchedule("every night")
	assert.Error(t, err)

	_, err = ParseResetSchedule("0 0 3 * * *")
	assert.Error(t, err, "seconds field is not accepted")
}

func TestResetData(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.db.Exec("DELETE FROM book_tags").Error)
	require.NoError(t, s.db.Where("name = ?", "manga").Delete(&Tag{}).Error)
	require.NoError(t, s.db.Create(&Tag{Name: "leftover"}).Error)

	require.NoError(t, ResetData(s.db, testAdminEmail, testPassword))

	var names []string
	require.NoError(t, s.db.Model(&Tag{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"classic", "fantasy", "manga", "science-fiction"}, names)

	var users int64
	require.NoError(t, s.db.Model(&User{}).Count(&users).Error)
	assert.Equal(t, int64(2), users)

	// the admin can still log in after the reset
	loginAs(t, s, testAdminEmail)
}

func TestNew_RejectsBadResetSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.ResetSchedule = "not a cron"

	_, err := New(cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "invalid reset schedule")
}

func TestNew_WithResetSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.ResetSchedule = "*/5 * * * *"

	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, s.resetSchedule)
	t.Cleanup(func() {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
}
