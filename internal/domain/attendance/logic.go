package attendance

import (
	"time"

	"ems/internal/domain/calendar"
)

// MarkableStatus reports whether status may be set by a manual mark.
func MarkableStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// CountsAsPresent is the single rule for which statuses count toward
// attendance rates.
func CountsAsPresent(status string) bool {
	return status == StatusPresent || status == StatusCompleted
}

// Rate is present/working as a percentage with one decimal.
func Rate(presentDays, workingDays int) float64 {
	return calendar.Percent(presentDays, workingDays, 1)
}

// TotalHours is the worked span in hours rounded to two decimals.
func TotalHours(clockIn, clockOut time.Time) float64 {
	return calendar.Round(clockOut.Sub(clockIn).Seconds()/3600, 2)
}

// ClockState derives the clock state of a day from its record. A record
// marked by an administrator without a clock-in counts as completed.
func ClockState(rec *Record) string {
	switch {
	case rec == nil:
		return ClockNone
	case rec.ClockIn != nil && rec.ClockOut == nil:
		return ClockedIn
	default:
		return ClockCompleted
	}
}

func clockTime(t time.Time) string {
	return t.Format("03:04 PM")
}
