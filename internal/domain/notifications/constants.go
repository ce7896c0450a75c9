package notifications

const (
	TypeLeaveStatus = "leave_status"
	TypeClock       = "clock"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Delivery outcomes reported to metrics.
const (
	OutcomeSent     = "sent"
	OutcomeRetry    = "retry"
	OutcomeFailed   = "failed"
	OutcomeDeferred = "deferred"
)
