package notifications

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// LeaveEmail describes a leave request for a status email.
type LeaveEmail struct {
	EmployeeID    string
	EmployeeName  string
	EmployeeEmail string
	LeaveType     string
	Status        string
	StartDate     string
	EndDate       string
	Reason        string
}

type leaveView struct {
	LeaveEmail
	Heading string
	Lead    string
	Closing string
	Accent  string
}

var leaveViews = map[string]leaveView{
	"approved": {
		Heading: "Leave Request Approved",
		Lead:    "We are pleased to inform you that your leave request has been APPROVED.",
		Closing: "Important: Please ensure all your pending tasks are completed or properly delegated before your leave period begins.",
		Accent:  "#1A237E",
	},
	"rejected": {
		Heading: "Leave Request Rejected",
		Lead:    "We regret to inform you that your leave request has been REJECTED.",
		Closing: "Next Steps: Please contact HR if you have any questions or would like to discuss this decision.",
		Accent:  "#B71C1C",
	},
	"pending": {
		Heading: "Leave Request Submitted",
		Lead:    "Your leave request has been submitted and is currently under review.",
		Closing: "Status Update: You will be notified via email once a decision has been made.",
		Accent:  "#F57C00",
	},
}

var leaveText = texttemplate.Must(texttemplate.New("leave_text").Parse(`Dear {{.EmployeeName}},

{{.Lead}}

Leave Details:
• Leave Type: {{.LeaveType}}
• Start Date: {{.StartDate}}
• End Date: {{.EndDate}}
• Reason: {{.Reason}}

{{.Closing}}

Best regards,
HR Department
Employee Management System
`))

var leaveHTML = htmltemplate.Must(htmltemplate.New("leave_html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Heading}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: {{.Accent}}; font-size: 24px;">{{.Heading}}</h1>
  <p>Dear <strong>{{.EmployeeName}}</strong>,</p>
  <p>{{.Lead}}</p>
  <div style="background-color: #f8f9fa; padding: 20px; border-left: 4px solid {{.Accent}};">
    <h3 style="margin-top: 0;">Leave Details:</h3>
    <table style="width: 100%;">
      <tr><td><strong>Leave Type:</strong></td><td>{{.LeaveType}}</td></tr>
      <tr><td><strong>Start Date:</strong></td><td>{{.StartDate}}</td></tr>
      <tr><td><strong>End Date:</strong></td><td>{{.EndDate}}</td></tr>
      <tr><td><strong>Reason:</strong></td><td>{{.Reason}}</td></tr>
    </table>
  </div>
  <p>{{.Closing}}</p>
  <p>Best regards,<br>HR Department<br>Employee Management System</p>
</body>
</html>
`))

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// LeaveStatusSubject is "Leave Request <Status> - <leave type>".
func LeaveStatusSubject(status, leaveType string) string {
	return "Leave Request " + titleCase(status) + " - " + leaveType
}

// LeaveStatusDraft renders the status email for a leave request. Unknown
// statuses use the pending wording.
func LeaveStatusDraft(e LeaveEmail) (Draft, error) {
	view, ok := leaveViews[e.Status]
	if !ok {
		view = leaveViews["pending"]
	}
	view.LeaveEmail = e
	if strings.TrimSpace(view.Reason) == "" {
		view.Reason = "Not specified"
	}

	var text, html strings.Builder
	if err := leaveText.Execute(&text, view); err != nil {
		return Draft{}, err
	}
	if err := leaveHTML.Execute(&html, view); err != nil {
		return Draft{}, err
	}
	return Draft{
		EmployeeID:     e.EmployeeID,
		Type:           TypeLeaveStatus,
		Title:          LeaveStatusSubject(e.Status, e.LeaveType),
		Message:        text.String(),
		HTML:           html.String(),
		RecipientEmail: e.EmployeeEmail,
		RecipientName:  e.EmployeeName,
	}, nil
}
