package dashboard

import (
	"time"

	"ems/internal/domain/calendar"
)

// PickEmployeeOfMonth returns the tally with the most present days. Ties
// go to the lowest employee id.
func PickEmployeeOfMonth(tallies []presentTally) EmployeeOfMonth {
	var best *presentTally
	for i := range tallies {
		t := &tallies[i]
		if t.Count <= 0 {
			continue
		}
		if best == nil || t.Count > best.Count || (t.Count == best.Count && t.ID < best.ID) {
			best = t
		}
	}
	if best == nil {
		return EmployeeOfMonth{Name: noData}
	}
	return EmployeeOfMonth{ID: best.ID, Name: best.Name, PresentCount: best.Count}
}

// LeaveTrend fills every day from the start of the month through today.
func LeaveTrend(today time.Time, counts map[string]int) []DailyLeaveCount {
	out := []DailyLeaveCount{}
	for d := calendar.MonthStart(today); !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(calendar.DateLayout)
		out = append(out, DailyLeaveCount{Day: d.Format("02"), Date: key, Count: counts[key]})
	}
	return out
}

// AttendanceTrend is the weekday-only daily rate series for the month.
func AttendanceTrend(today time.Time, present map[string]int, total int) []AttendancePoint {
	out := []AttendancePoint{}
	for d := calendar.MonthStart(today); !d.After(today); d = d.AddDate(0, 0, 1) {
		if !calendar.IsWorkday(d) {
			continue
		}
		key := d.Format(calendar.DateLayout)
		count := present[key]
		out = append(out, AttendancePoint{
			Date:           d.Format("01/02"),
			Day:            d.Format("02"),
			Rate:           calendar.Percent(count, total, 1),
			PresentCount:   count,
			TotalEmployees: total,
			FullDate:       key,
		})
	}
	return out
}
