package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusPendingAssignment    IssueStatus = "PENDING_ASSIGNMENT"
	IssueStatusAssigned             IssueStatus = "ASSIGNED"
	IssueStatusInProgress           IssueStatus = "IN_PROGRESS"
	IssueStatusOnHold               IssueStatus = "ON_HOLD"
	IssueStatusAwaitingConfirmation IssueStatus = "AWAITING_CONFIRMATION"
	IssueStatusReopened             IssueStatus = "REOPENED"
	IssueStatusClosed               IssueStatus = "CLOSED"
	IssueStatusAutoClosed           IssueStatus = "AUTO_CLOSED"
	IssueStatusRejected             IssueStatus = "REJECTED"
)

// IssuePriority drives selection and escalation timing.
type IssuePriority string

const (
	IssuePriorityNormal IssuePriority = "NORMAL"
	IssuePriorityHigh   IssuePriority = "HIGH"
	IssuePriorityUrgent IssuePriority = "URGENT"
)

// CategoryType distinguishes resident unit issues from community-area issues.
type CategoryType string

const (
	CategoryTypeResident  CategoryType = "RESIDENT"
	CategoryTypeCommunity CategoryType = "COMMUNITY"
)

// Issue is the aggregate for reported maintenance and community problems.
type Issue struct {
	ID            string
	Code          string
	CommunityID   string
	ReporterID    string
	CategoryType  CategoryType
	Category      string
	OtherCategory *string
	Description   string
	Status        IssueStatus
	Priority      IssuePriority
	Location      string
	WorkerID      *string
	AutoAssigned  bool
	Deadline      *time.Time
	Remarks       *string
	ResolvedAt    *time.Time
	Rating        *int
	Feedback      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}

// terminalStatuses are states no operation may leave.
var terminalStatuses = map[IssueStatus]struct{}{
	IssueStatusClosed:     {},
	IssueStatusAutoClosed: {},
	IssueStatusRejected:   {},
}

// completedStatuses are states in which (re)assignment is never legal.
var completedStatuses = map[IssueStatus]struct{}{
	IssueStatusAwaitingConfirmation: {},
	IssueStatusClosed:               {},
	IssueStatusAutoClosed:           {},
	IssueStatusRejected:             {},
}

// IsTerminal reports whether the status permits no further transitions.
func (s IssueStatus) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsCompleted reports whether the issue is past the point of assignment.
func (s IssueStatus) IsCompleted() bool {
	_, ok := completedStatuses[s]
	return ok
}

// OpenStatuses lists every state counted as "not yet closed" for duplicate
// detection and worker load.
func OpenStatuses() []IssueStatus {
	return []IssueStatus{
		IssueStatusPendingAssignment,
		IssueStatusAssigned,
		IssueStatusInProgress,
		IssueStatusOnHold,
		IssueStatusAwaitingConfirmation,
		IssueStatusReopened,
	}
}

// ValidPriority reports whether p is a known priority label.
func ValidPriority(p IssuePriority) bool {
	switch p {
	case IssuePriorityNormal, IssuePriorityHigh, IssuePriorityUrgent:
		return true
	}
	return false
}
