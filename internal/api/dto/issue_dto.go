package dto

import (
	"time"

	"github.com/spec-kit/property-service/internal/domain"
)

// RaiseIssueRequest is the payload for reporting an issue.
type RaiseIssueRequest struct {
	CategoryType  string  `json:"category_type"`
	Category      string  `json:"category"`
	OtherCategory *string `json:"other_category,omitempty"`
	Description   string  `json:"description"`
	Location      string  `json:"location,omitempty"`
	Priority      string  `json:"priority,omitempty"`
}

// AssignWorkerRequest attaches or moves a worker.
type AssignWorkerRequest struct {
	WorkerID string     `json:"worker_id"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Remarks  *string    `json:"remarks,omitempty"`
}

// ConfirmResolutionRequest carries the optional resident rating.
type ConfirmResolutionRequest struct {
	Rating   *int    `json:"rating,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
}

// RejectResolutionRequest carries the optional rejection feedback.
type RejectResolutionRequest struct {
	Feedback *string `json:"feedback,omitempty"`
}

// HoldIssueRequest carries the manager's hold remark.
type HoldIssueRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

// IssueResponse is the public representation of an issue.
type IssueResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	CommunityID   string     `json:"community_id"`
	ReporterID    string     `json:"reporter_id"`
	CategoryType  string     `json:"category_type"`
	Category      string     `json:"category"`
	OtherCategory *string    `json:"other_category,omitempty"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Location      string     `json:"location"`
	WorkerID      *string    `json:"worker_id,omitempty"`
	AutoAssigned  bool       `json:"auto_assigned"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Remarks       *string    `json:"remarks,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	Rating        *int       `json:"rating,omitempty"`
	Feedback      *string    `json:"feedback,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// IssueFromDomain maps a domain issue to its response shape.
func IssueFromDomain(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:            issue.ID,
		Code:          issue.Code,
		CommunityID:   issue.CommunityID,
		ReporterID:    issue.ReporterID,
		CategoryType:  string(issue.CategoryType),
		Category:      issue.Category,
		OtherCategory: issue.OtherCategory,
		Description:   issue.Description,
		Status:        string(issue.Status),
		Priority:      string(issue.Priority),
		Location:      issue.Location,
		WorkerID:      issue.WorkerID,
		AutoAssigned:  issue.AutoAssigned,
		Deadline:      issue.Deadline,
		Remarks:       issue.Remarks,
		ResolvedAt:    issue.ResolvedAt,
		Rating:        issue.Rating,
		Feedback:      issue.Feedback,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
		ClosedAt:      issue.ClosedAt,
	}
}

// IssuesFromDomain maps a slice of issues.
func IssuesFromDomain(issues []domain.Issue) []IssueResponse {
	result := make([]IssueResponse, len(issues))
	for i := range issues {
		result[i] = IssueFromDomain(&issues[i])
	}
	return result
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID            string         `json:"id"`
	IssueID       string         `json:"issue_id"`
	ChangedByKind string         `json:"changed_by_kind"`
	ChangedByID   *string        `json:"changed_by_id,omitempty"`
	ChangeType    string         `json:"change_type"`
	OldValue      map[string]any `json:"old_value,omitempty"`
	NewValue      map[string]any `json:"new_value,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// HistoryFromDomain maps audit entries.
func HistoryFromDomain(entries []domain.IssueHistory) []HistoryResponse {
	result := make([]HistoryResponse, len(entries))
	for i, entry := range entries {
		result[i] = HistoryResponse{
			ID:            entry.ID,
			IssueID:       entry.IssueID,
			ChangedByKind: string(entry.ChangedByKind),
			ChangedByID:   entry.ChangedByID,
			ChangeType:    string(entry.ChangeType),
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		}
	}
	return result
}
