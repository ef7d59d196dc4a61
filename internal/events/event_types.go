package events

import (
	"time"

	"github.com/spec-kit/property-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueRaised        EventType = "issue_raised"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueEscalated     EventType = "issue_escalated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind domain.ActorKind `json:"kind"`
	ID   *string          `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueRaisedPayload payload.
type IssueRaisedPayload struct {
	CommunityID  string               `json:"community_id"`
	CategoryType domain.CategoryType  `json:"category_type"`
	Category     string               `json:"category"`
	Priority     domain.IssuePriority `json:"priority"`
	Location     string               `json:"location"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	WorkerID     *string `json:"worker_id,omitempty"`
	OldWorkerID  *string `json:"old_worker_id,omitempty"`
	AutoAssigned bool    `json:"auto_assigned"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Comment   string             `json:"comment,omitempty"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Sweep     string             `json:"sweep"`
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Reason    string             `json:"reason"`
}
