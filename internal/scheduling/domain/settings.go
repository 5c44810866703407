package domain

import "github.com/google/uuid"

// BreakInterval is a recurring break within a workday, expressed as
// "HH:MM" clock times.
type BreakInterval struct {
	Start string
	End   string
}

// WorkdayHours describes one weekday's available working window.
//
// Enabled false, or a malformed/empty Start/End, makes the day carry
// zero capacity.
type WorkdayHours struct {
	Enabled bool
	Start   string // "HH:MM"
	End     string // "HH:MM"
	Breaks  []BreakInterval
}

// ScheduleSettings holds a user's weekly capacity configuration.
//
// WeeklyWorkHours is indexed Sunday=0..Saturday=6, the same convention
// time.Weekday uses, so the capacity lookup for a given date is simply
// WeeklyWorkHours[date.Weekday()].
type ScheduleSettings struct {
	UserID               uuid.UUID
	WeeklyWorkHours      [7]WorkdayHours
	BufferHours          float64
	BreakAfterTaskMinutes int
}

// ScheduleDefaults holds the weekday-shape and buffer values used to seed
// a user's settings when none are configured. Callers typically source
// this from process configuration rather than hardcoding it.
type ScheduleDefaults struct {
	WorkdayStart          string // "HH:MM"
	WorkdayEnd            string // "HH:MM"
	BufferHours           float64
	BreakAfterTaskMinutes int
}

// StandardScheduleDefaults is the built-in fallback: weekdays 9:00-18:00,
// a 1 hour buffer, and a 5 minute gap after each placed block.
var StandardScheduleDefaults = ScheduleDefaults{
	WorkdayStart:          "09:00",
	WorkdayEnd:            "18:00",
	BufferHours:           1,
	BreakAfterTaskMinutes: 5,
}

// NewDefaultScheduleSettings builds the fallback settings used when a user
// has none configured (ScheduleSettingsRepository.Get returns nil),
// applying defaults to every weekday and leaving weekends closed. A stored
// list whose length is not 7 does not fall back to these defaults: the
// repositories decode it into the 7-entry array, so missing days stay
// disabled and extra entries are dropped, and JSON that does not decode
// makes Get return an error.
func NewDefaultScheduleSettings(userID uuid.UUID, defaults ScheduleDefaults) ScheduleSettings {
	weekday := WorkdayHours{Enabled: true, Start: defaults.WorkdayStart, End: defaults.WorkdayEnd}
	weekend := WorkdayHours{Enabled: false}
	return ScheduleSettings{
		UserID: userID,
		// Indexed Sunday=0..Saturday=6, matching time.Weekday.
		WeeklyWorkHours: [7]WorkdayHours{
			weekend, weekday, weekday, weekday, weekday, weekday, weekend,
		},
		BufferHours:           defaults.BufferHours,
		BreakAfterTaskMinutes: defaults.BreakAfterTaskMinutes,
	}
}

// DefaultScheduleSettings builds the fallback settings using
// StandardScheduleDefaults.
func DefaultScheduleSettings(userID uuid.UUID) ScheduleSettings {
	return NewDefaultScheduleSettings(userID, StandardScheduleDefaults)
}
