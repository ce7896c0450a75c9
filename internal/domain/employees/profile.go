package employees

import (
	"strings"
	"time"
	"unicode"
)

const (
	notAssigned = "Not assigned"
	notProvided = "Not provided"
)

// SplitName returns the first and last word of name. A single word has no
// last name; an empty name becomes "Employee".
func SplitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "Employee", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[len(parts)-1]
	}
}

// FormatPhone renders the digits of phone in a North American style when
// the length allows it and returns the input unchanged otherwise.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	d := b.String()
	switch {
	case len(d) == 11 && d[0] == '1':
		return d[:1] + "-" + d[1:4] + "-" + d[4:7] + "-" + d[7:]
	case len(d) == 10:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	case len(d) == 7:
		return d[:3] + "-" + d[3:]
	case len(d) > 7:
		return d[:3] + "-" + d[3:6] + "-" + d[6:]
	default:
		return phone
	}
}

func normalizeProfileStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "active", "inactive", "pending":
		return status
	default:
		return "active"
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func BuildProfile(emp Employee) Profile {
	first, last := SplitName(emp.Name)
	fullName := strings.TrimSpace(emp.Name)
	if fullName == "" {
		fullName = strings.TrimSpace(first + " " + last)
	}

	shortID := "N/A"
	if emp.ID != "" {
		shortID = emp.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		shortID += "..."
	}

	phone := notProvided
	if strings.TrimSpace(emp.Phone) != "" {
		phone = FormatPhone(emp.Phone)
	}

	var hireDate, createdAt string
	if !emp.CreatedAt.IsZero() {
		hireDate = emp.CreatedAt.UTC().Format("2006-01-02")
		createdAt = emp.CreatedAt.UTC().Format(time.RFC3339)
	}

	role := emp.Role
	if role == "" {
		role = "employee"
	}

	return Profile{
		ID:         emp.ID,
		EmployeeID: shortID,
		FirstName:  first,
		LastName:   last,
		FullName:   fullName,
		Name:       strings.TrimSpace(emp.Name),
		Email:      emp.Email,
		Phone:      phone,
		Position:   orDefault(emp.Position, notAssigned),
		Department: orDefault(emp.Department, notAssigned),
		Role:       role,
		Status:     normalizeProfileStatus(emp.Status),
		HireDate:   hireDate,
		CreatedAt:  createdAt,
		Image:      emp.Image,
	}
}
