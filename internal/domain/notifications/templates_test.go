package notifications

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveStatusSubject(t *testing.T) {
	assert.Equal(t, "Leave Request Approved - vacation", LeaveStatusSubject("approved", "vacation"))
	assert.Equal(t, "Leave Request Pending - sick", LeaveStatusSubject("PENDING", "sick"))
}

func TestLeaveStatusDraft(t *testing.T) {
	tests := []struct {
		status  string
		lead    string
		closing string
	}{
		{"approved", "has been APPROVED", "Important: Please ensure all your pending tasks"},
		{"rejected", "has been REJECTED", "Next Steps: Please contact HR"},
		{"pending", "currently under review", "Status Update: You will be notified"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			d, err := LeaveStatusDraft(LeaveEmail{
				EmployeeID:    "emp-1",
				EmployeeName:  "Jane <Doe>",
				EmployeeEmail: "jane@example.com",
				LeaveType:     "vacation",
				Status:        tt.status,
				StartDate:     "2025-03-15",
				EndDate:       "2025-03-17",
			})
			require.NoError(t, err)
			assert.Equal(t, TypeLeaveStatus, d.Type)
			assert.Equal(t, "jane@example.com", d.RecipientEmail)
			assert.True(t, strings.HasPrefix(d.Message, "Dear Jane <Doe>,"))
			assert.Contains(t, d.Message, tt.lead)
			assert.Contains(t, d.Message, tt.closing)
			assert.Contains(t, d.Message, "• Reason: Not specified")
			assert.True(t, strings.HasSuffix(d.Message, "Best regards,\nHR Department\nEmployee Management System\n"))
			assert.Contains(t, d.HTML, "Jane &lt;Doe&gt;")
		})
	}
}
