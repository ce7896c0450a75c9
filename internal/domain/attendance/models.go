package attendance

import "time"

const (
	StatusPresent   = "present"
	StatusAbsent    = "absent"
	StatusLate      = "late"
	StatusCompleted = "completed"
)

// Clock states for one employee and date.
const (
	ClockNone      = "none"
	ClockedIn      = "clocked_in"
	ClockCompleted = "completed"
)

type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	Status     string     `json:"status"`
	ClockIn    *time.Time `json:"clock_in_time,omitempty"`
	ClockOut   *time.Time `json:"clock_out_time,omitempty"`
	TotalHours *float64   `json:"total_hours,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type MarkResult struct {
	Record  Record `json:"record"`
	Created bool   `json:"created"`
}

type BulkResult struct {
	SuccessCount    int      `json:"success_count"`
	FailedCount     int      `json:"failed_count"`
	FailedEmployees []string `json:"failed_employees"`
}

type Stats struct {
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	PresentDays    int     `json:"present_days"`
	WorkingDays    int     `json:"working_days"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type FilterParams struct {
	EmployeeID string
	Status     string
	Start      *time.Time
	End        *time.Time
}

type FilterRow struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReportRow struct {
	EmployeeID           string  `json:"employee_id"`
	Name                 string  `json:"name"`
	Department           string  `json:"department"`
	Position             string  `json:"position"`
	PresentDays          int     `json:"present_days"`
	AbsentDays           int     `json:"absent_days"`
	LateDays             int     `json:"late_days"`
	TotalMarkedDays      int     `json:"total_marked_days"`
	WorkingDays          int     `json:"working_days"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

type ReportSummary struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	WorkingDays    int    `json:"working_days"`
	TotalEmployees int    `json:"total_employees"`
}

type Report struct {
	Rows    []ReportRow   `json:"data"`
	Summary ReportSummary `json:"summary"`
}

type TodaySummary struct {
	Date      string `json:"date"`
	Total     int    `json:"total_employees"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
	Late      int    `json:"late"`
	NotMarked int    `json:"not_marked"`
}

type ClockResult struct {
	Action     string   `json:"action"`
	Record     Record   `json:"record"`
	Time       string   `json:"time"`
	TotalHours *float64 `json:"total_hours,omitempty"`
	Message    string   `json:"message"`
}

type ClockStatus struct {
	Date   string  `json:"date"`
	State  string  `json:"state"`
	Record *Record `json:"record,omitempty"`
}

// statusCounts tallies records for one employee over a range.
type statusCounts struct {
	Present int
	Absent  int
	Late    int
	Total   int
}
