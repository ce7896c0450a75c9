package employees

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	Phone      string    `json:"phone"`
	Image      string    `json:"image"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}

type CreateInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department string
	Position   string
	Phone      string
	Image      string
}

// UpdateInput carries a partial update; nil fields keep their stored value.
type UpdateInput struct {
	Name       string
	Email      *string
	Password   *string
	Role       *string
	Department *string
	Position   *string
	Phone      *string
	Image      *string
	Status     *string
}

type ListFilter struct {
	Search     string
	Department string
	Role       string
	Status     string
	Limit      int
	Offset     int
}

// Profile is the display projection of an employee.
type Profile struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	HireDate   string `json:"hire_date"`
	CreatedAt  string `json:"created_at"`
	Image      string `json:"image"`
}
