package domain

import "time"

// IssueChangeType captures what changed in a history entry.
type IssueChangeType string

const (
	ChangeTypeStatus     IssueChangeType = "STATUS_CHANGE"
	ChangeTypeWorker     IssueChangeType = "WORKER_CHANGE"
	ChangeTypeEscalation IssueChangeType = "ESCALATION"
)

// ActorKind identifies who applied a change.
type ActorKind string

const (
	ActorKindResident ActorKind = "RESIDENT"
	ActorKindWorker   ActorKind = "WORKER"
	ActorKindStaff    ActorKind = "STAFF"
	ActorKindSystem   ActorKind = "SYSTEM"
)

// IssueHistory is an immutable audit trail entry.
type IssueHistory struct {
	ID            string
	IssueID       string
	ChangedByKind ActorKind
	ChangedByID   *string
	ChangeType    IssueChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
