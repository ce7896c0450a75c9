package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a leave request. Employee fields are filled on joined reads.
type Request struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employee_id"`
	LeaveType     string    `json:"leave_type"`
	TypeLabel     string    `json:"leave_type_label"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Days          int       `json:"days"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	EmployeeName  string    `json:"employee_name,omitempty"`
	EmployeeEmail string    `json:"employee_email,omitempty"`
	Department    string    `json:"department,omitempty"`
	Position      string    `json:"position,omitempty"`
}

type CreateInput struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

type ListFilter struct {
	Status     string
	EmployeeID string
	Limit      int
	Offset     int
}

type Stats struct {
	Total    int            `json:"total"`
	Pending  int            `json:"pending"`
	Approved int            `json:"approved"`
	Rejected int            `json:"rejected"`
	ByType   map[string]int `json:"by_type"`
}

type Balance struct {
	Year       int `json:"year"`
	Allocation int `json:"allocation"`
	Used       int `json:"used"`
	Remaining  int `json:"remaining"`
}

type EmployeeStats struct {
	TotalRequested   int `json:"total_requested"`
	ApprovedDays     int `json:"approved_days"`
	PendingRequests  int `json:"pending_requests"`
	RemainingBalance int `json:"remaining_balance"`
}

// yearSummary is the raw per-year aggregate behind EmployeeStats.
type yearSummary struct {
	RequestedDays int
	ApprovedDays  int
	Pending       int
}
