package calendar

import (
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Day returns the calendar date of t as midnight UTC. All date arithmetic
// in the ledger runs on values produced by Day so DST never shifts a count.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD.
func ParseDay(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

func IsWorkday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkingDays counts Monday to Friday dates in [start, end].
func WorkingDays(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return 0
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			count++
		}
	}
	return count
}

// DaysInclusive is (end - start) + 1 in whole days.
func DaysInclusive(start, end time.Time) int {
	return int(Day(end).Sub(Day(start)).Hours()/24) + 1
}

func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

func YearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Round rounds half away from zero to the given number of decimals.
func Round(value float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(value*p) / p
}

// Percent is num/den*100 rounded to places; zero when den is zero.
func Percent(num, den, places int) float64 {
	if den <= 0 {
		return 0
	}
	return Round(float64(num)/float64(den)*100, places)
}
