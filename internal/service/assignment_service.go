package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/routing"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// AssignmentService runs the auto-assignment pipeline: category routing,
// tiered candidate lookup, deterministic selection, atomic commit.
type AssignmentService struct {
	issues     repository.IssueRepository
	workers    repository.WorkerRepository
	history    repository.IssueHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	tieBreak   TieBreak
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	IssueRepo   repository.IssueRepository
	WorkerRepo  repository.WorkerRepository
	HistoryRepo repository.IssueHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	TieBreak    TieBreak
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		issues:     deps.IssueRepo,
		workers:    deps.WorkerRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		tieBreak:   deps.TieBreak,
	}
}

// AutoAssign routes the issue to a worker without human intervention.
// Candidate tiers are tried in strict order: exact skill, fallback skill,
// any active worker. The current assignee, if any, is excluded and
// detached in the same transaction that attaches the replacement. When
// all tiers are empty the issue is parked in PENDING_ASSIGNMENT with a
// diagnostic remark and a NO_ELIGIBLE_WORKER error is returned alongside
// the parked issue.
func (s *AssignmentService) AutoAssign(ctx context.Context, issue *domain.Issue, reason string) (*domain.Issue, error) {
	required := routing.RequiredSkill(issue.CategoryType, issue.Category)
	tiers := [][]domain.Skill{{required}}
	if required != routing.FallbackSkill {
		tiers = append(tiers, []domain.Skill{routing.FallbackSkill})
	}
	tiers = append(tiers, nil) // any active worker

	var pick *domain.Worker
	for _, skills := range tiers {
		active := true
		candidates, err := s.workers.List(ctx, repository.WorkerFilter{
			CommunityID: &issue.CommunityID,
			SkillsAny:   skills,
			Active:      &active,
		})
		if err != nil {
			return nil, apperrors.NewStorageUnavailable(err)
		}
		candidates = excludeWorker(candidates, issue.WorkerID)
		if pick = SelectWorker(candidates, issue.Priority, s.tieBreak); pick != nil {
			break
		}
	}

	guard := repository.IssueGuard{Status: issue.Status, WorkerID: issue.WorkerID, CheckWorker: true}
	oldWorker := issue.WorkerID
	oldStatus := issue.Status

	if pick == nil {
		return s.parkUnassignable(ctx, issue, guard, reason)
	}

	updated := *issue
	updated.Status = domain.IssueStatusAssigned
	updated.WorkerID = &pick.ID
	updated.AutoAssigned = true

	if err := s.issues.CommitAssignment(ctx, &updated, guard, oldWorker, &pick.ID); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperrors.NewConflict("issue changed concurrently", map[string]any{"issue_id": issue.ID})
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}

	s.recordWorkerChange(ctx, updated.ID, oldWorker, updated.WorkerID, reason)
	if oldStatus != updated.Status {
		s.recordStatusChange(ctx, updated.ID, oldStatus, updated.Status, reason)
	}
	s.publishAssigned(ctx, &updated, oldWorker)
	return &updated, nil
}

// parkUnassignable detaches any current worker and leaves the issue
// pending with a diagnostic remark.
func (s *AssignmentService) parkUnassignable(ctx context.Context, issue *domain.Issue, guard repository.IssueGuard, reason string) (*domain.Issue, error) {
	remark := "no eligible worker available"
	if reason != "" {
		remark += " (" + reason + ")"
	}

	updated := *issue
	updated.Status = domain.IssueStatusPendingAssignment
	updated.WorkerID = nil
	updated.AutoAssigned = false
	updated.Remarks = &remark

	if err := s.issues.CommitAssignment(ctx, &updated, guard, issue.WorkerID, nil); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperrors.NewConflict("issue changed concurrently", map[string]any{"issue_id": issue.ID})
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}

	if issue.WorkerID != nil {
		s.recordWorkerChange(ctx, updated.ID, issue.WorkerID, nil, remark)
	}
	if issue.Status != updated.Status {
		s.recordStatusChange(ctx, updated.ID, issue.Status, updated.Status, remark)
	}
	s.logger.Warn("no eligible worker for issue",
		zap.String("issue_id", issue.ID),
		zap.String("category", issue.Category),
		zap.String("reason", reason))

	return &updated, apperrors.NewNoEligibleWorker(map[string]any{
		"issue_id": issue.ID,
		"category": issue.Category,
	})
}

func excludeWorker(candidates []domain.Worker, workerID *string) []domain.Worker {
	if workerID == nil {
		return candidates
	}
	filtered := candidates[:0]
	for _, candidate := range candidates {
		if candidate.ID != *workerID {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

func (s *AssignmentService) recordWorkerChange(ctx context.Context, issueID string, oldWorker, newWorker *string, comment string) {
	if s.history == nil {
		return
	}
	entry := &domain.IssueHistory{
		IssueID:       issueID,
		ChangedByKind: domain.ActorKindSystem,
		ChangeType:    domain.ChangeTypeWorker,
		OldValue:      map[string]any{"worker_id": oldWorker},
		NewValue:      map[string]any{"worker_id": newWorker, "comment": comment},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record worker change", zap.String("issue_id", issueID), zap.Error(err))
	}
}

func (s *AssignmentService) recordStatusChange(ctx context.Context, issueID string, oldStatus, newStatus domain.IssueStatus, comment string) {
	if s.history == nil {
		return
	}
	entry := &domain.IssueHistory{
		IssueID:       issueID,
		ChangedByKind: domain.ActorKindSystem,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": newStatus, "comment": comment},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record status change", zap.String("issue_id", issueID), zap.Error(err))
	}
}

func (s *AssignmentService) publishAssigned(ctx context.Context, issue *domain.Issue, oldWorker *string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventIssueAssigned,
		IssueID:   issue.ID,
		Actor:     events.Actor{Kind: domain.ActorKindSystem},
		Timestamp: time.Now(),
		Payload: events.IssueAssignedPayload{
			WorkerID:     issue.WorkerID,
			OldWorkerID:  oldWorker,
			AutoAssigned: true,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
