package domain_test

import (
	"testing"

	"github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultScheduleSettings(t *testing.T) {
	userID := uuid.New()
	defaults := domain.ScheduleDefaults{
		WorkdayStart:          "08:30",
		WorkdayEnd:            "17:30",
		BufferHours:           2,
		BreakAfterTaskMinutes: 10,
	}

	settings := domain.NewDefaultScheduleSettings(userID, defaults)

	assert.Equal(t, userID, settings.UserID)
	assert.Equal(t, 2.0, settings.BufferHours)
	assert.Equal(t, 10, settings.BreakAfterTaskMinutes)

	for weekday, hours := range settings.WeeklyWorkHours {
		switch weekday {
		case 0, 6: // Sunday, Saturday
			assert.False(t, hours.Enabled, "weekday %d should be closed", weekday)
		default:
			assert.True(t, hours.Enabled, "weekday %d should be open", weekday)
			assert.Equal(t, "08:30", hours.Start)
			assert.Equal(t, "17:30", hours.End)
		}
	}
}

func TestDefaultScheduleSettings_UsesStandardDefaults(t *testing.T) {
	userID := uuid.New()

	viaHelper := domain.DefaultScheduleSettings(userID)
	viaExplicit := domain.NewDefaultScheduleSettings(userID, domain.StandardScheduleDefaults)

	assert.Equal(t, viaExplicit, viaHelper)
	assert.Equal(t, "09:00", domain.StandardScheduleDefaults.WorkdayStart)
	assert.Equal(t, "18:00", domain.StandardScheduleDefaults.WorkdayEnd)
	assert.Equal(t, 1.0, domain.StandardScheduleDefaults.BufferHours)
	assert.Equal(t, 5, domain.StandardScheduleDefaults.BreakAfterTaskMinutes)
}
