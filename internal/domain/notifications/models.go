package notifications

import (
	"context"
	"errors"
	"time"
)

// ErrMailerDisabled is returned by a mailer that has no SMTP credentials.
var ErrMailerDisabled = errors.New("smtp not configured")

type Message struct {
	From    string
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Draft is a notification to be queued.
type Draft struct {
	EmployeeID     string
	Type           string
	Title          string
	Message        string
	HTML           string
	RecipientEmail string
	RecipientName  string
}

type Notification struct {
	ID             string     `json:"id"`
	EmployeeID     *string    `json:"employee_id,omitempty"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	RecipientEmail string     `json:"recipient_email"`
	RecipientName  string     `json:"recipient_name"`
	Status         string     `json:"status"`
	EmailSent      bool       `json:"email_sent"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"last_error,omitempty"`
	NextAttemptAt  time.Time  `json:"next_attempt_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// outboxItem is a claimed row awaiting delivery.
type outboxItem struct {
	ID             string
	Title          string
	Message        string
	HTML           string
	RecipientEmail string
	RecipientName  string
	Attempts       int
}

type DispatchResult struct {
	Claimed  int `json:"claimed"`
	Sent     int `json:"sent"`
	Retrying int `json:"retrying"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred"`
}
