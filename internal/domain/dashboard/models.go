package dashboard

import (
	"encoding/json"
	"time"

	"ems/internal/domain/attendance"
	"ems/internal/domain/leave"
)

const noData = "No Data"

type EmployeeOfMonth struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	PresentCount int    `json:"present_count"`
}

type DailyLeaveCount struct {
	Day   string `json:"day"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AttendancePoint struct {
	Date           string  `json:"date"`
	Day            string  `json:"day"`
	Rate           float64 `json:"rate"`
	PresentCount   int     `json:"present_count"`
	TotalEmployees int     `json:"total_employees"`
	FullDate       string  `json:"full_date"`
}

type Admin struct {
	TotalEmployees        int                     `json:"total_employees"`
	ActiveEmployees       int                     `json:"active_employees"`
	Today                 attendance.TodaySummary `json:"attendance_today"`
	PendingLeaveRequests  int                     `json:"pending_leave_requests"`
	OverallAttendanceRate float64                 `json:"overall_attendance_rate"`
	EmployeeOfMonth       EmployeeOfMonth         `json:"employee_of_month"`
	MonthlyLeaveTrends    []DailyLeaveCount       `json:"monthly_leave_trends"`
	AttendanceTrends      []AttendancePoint       `json:"attendance_trends"`
	CurrentMonth          string                  `json:"current_month"`
	Timestamp             *time.Time              `json:"timestamp,omitempty"`
}

type Employee struct {
	Attendance          attendance.Stats       `json:"attendance"`
	AttendanceTrend     float64                `json:"attendance_trend"`
	LeaveBalance        int                    `json:"leave_balance"`
	PendingRequests     int                    `json:"pending_requests"`
	TeamSize            int                    `json:"team_size"`
	Today               attendance.ClockStatus `json:"today_attendance"`
	RecentLeaveRequests []leave.Request        `json:"recent_leave_requests"`
	CurrentMonth        string                 `json:"current_month"`
	Timestamp           *time.Time             `json:"timestamp,omitempty"`
}

type JobRun struct {
	ID          string          `json:"id"`
	JobType     string          `json:"job_type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
}

type JobRunFilter struct {
	JobType string
	Status  string
	Limit   int
	Offset  int
}

// presentTally is one employee's present days in a range.
type presentTally struct {
	ID    string
	Name  string
	Count int
}
