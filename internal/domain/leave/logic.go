package leave

import (
	"errors"
	"strings"
	"time"

	"ems/internal/domain/calendar"
)

// AnnualAllocation is the single yearly leave bucket in days.
const AnnualAllocation = 20

type TypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var Types = []TypeOption{
	{Value: "vacation", Label: "Annual Leave/Vacation"},
	{Value: "sick", Label: "Sick Leave"},
	{Value: "personal", Label: "Personal Leave"},
	{Value: "emergency", Label: "Emergency Leave"},
	{Value: "maternity", Label: "Maternity Leave"},
	{Value: "paternity", Label: "Paternity Leave"},
	{Value: "bereavement", Label: "Bereavement Leave"},
	{Value: "other", Label: "Other"},
}

func ValidType(value string) bool {
	for _, t := range Types {
		if t.Value == value {
			return true
		}
	}
	return false
}

// TypeLabel returns the display label of a leave type, or the value in
// title case when it is unknown.
func TypeLabel(value string) string {
	for _, t := range Types {
		if t.Value == value {
			return t.Label
		}
	}
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusApproved || status == StatusRejected
}

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (int, error) {
	start, end = calendar.Day(start), calendar.Day(end)
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return calendar.DaysInclusive(start, end), nil
}

// Overlaps reports whether two inclusive date ranges share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Remaining is the balance left after used approved days.
func Remaining(used int) int {
	return max(0, AnnualAllocation-used)
}
