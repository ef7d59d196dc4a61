package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/observability"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/routing"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// IssueService is the lifecycle orchestrator: it validates transitions,
// applies manual operations and hands off to the assignment pipeline.
type IssueService struct {
	issues      repository.IssueRepository
	workers     repository.WorkerRepository
	communities repository.CommunityRepository
	history     repository.IssueHistoryRepository
	duplicates  *DuplicateDetector
	assigner    *AssignmentService
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	clock       Clock
}

// IssueDependencies bundles collaborators for the orchestrator.
type IssueDependencies struct {
	IssueRepo     repository.IssueRepository
	WorkerRepo    repository.WorkerRepository
	CommunityRepo repository.CommunityRepository
	HistoryRepo   repository.IssueHistoryRepository
	Duplicates    *DuplicateDetector
	Assigner      *AssignmentService
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         Clock
}

// NewIssueService constructs the orchestrator.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &IssueService{
		issues:      deps.IssueRepo,
		workers:     deps.WorkerRepo,
		communities: deps.CommunityRepo,
		history:     deps.HistoryRepo,
		duplicates:  deps.Duplicates,
		assigner:    deps.Assigner,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		clock:       clock,
	}
}

// Reporter identifies who raises an issue.
type Reporter struct {
	Kind        domain.ActorKind
	ID          string
	CommunityID string
	UnitCode    string
}

// RaiseIssueInput describes a new report.
type RaiseIssueInput struct {
	CategoryType  domain.CategoryType
	Category      string
	OtherCategory *string
	Description   string
	Location      string
	Priority      domain.IssuePriority
}

// RaiseIssue validates and creates a ticket, then attempts auto-routing.
// A NO_ELIGIBLE_WORKER outcome is not an error for the reporter: the
// issue is created and parked with a diagnostic remark.
func (s *IssueService) RaiseIssue(ctx context.Context, reporter Reporter, input RaiseIssueInput) (*domain.Issue, error) {
	if input.Priority == "" {
		input.Priority = domain.IssuePriorityNormal
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if !routing.ValidCategory(input.CategoryType, input.Category) {
		return nil, apperrors.NewValidationError("unknown category for type", map[string]any{
			"category_type": input.CategoryType,
			"category":      input.Category,
		})
	}
	if input.Category == routing.CategoryOther {
		if input.OtherCategory == nil || strings.TrimSpace(*input.OtherCategory) == "" {
			return nil, apperrors.NewValidationError("other_category required for catch-all category", nil)
		}
	} else if input.OtherCategory != nil {
		return nil, apperrors.NewValidationError("other_category only allowed for catch-all category", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	var location string
	switch input.CategoryType {
	case domain.CategoryTypeResident:
		if reporter.Kind != domain.ActorKindResident {
			return nil, apperrors.NewForbidden("resident issues must be raised by a resident")
		}
		// unit code is derived from the reporting resident, never
		// supplied by the caller.
		location = reporter.UnitCode
	case domain.CategoryTypeCommunity:
		if reporter.Kind == domain.ActorKindResident {
			return nil, apperrors.NewForbidden("community issues are raised by staff")
		}
		location = strings.TrimSpace(input.Location)
		if location == "" {
			return nil, apperrors.NewValidationError("location required for community issues", nil)
		}
	default:
		return nil, apperrors.NewValidationError("unknown category type", nil)
	}

	community, err := s.communities.GetByID(ctx, reporter.CommunityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("community", map[string]any{"community_id": reporter.CommunityID})
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	if !community.IsActive {
		return nil, apperrors.NewConflict("community inactive", map[string]any{"community_id": community.ID})
	}

	issue := &domain.Issue{
		Code:          generateIssueCode(),
		CommunityID:   reporter.CommunityID,
		ReporterID:    reporter.ID,
		CategoryType:  input.CategoryType,
		Category:      input.Category,
		OtherCategory: input.OtherCategory,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.IssueStatusPendingAssignment,
		Priority:      input.Priority,
		Location:      location,
	}

	if err := s.duplicates.Check(ctx, issue); err != nil {
		s.metrics.RecordTransition("raise", "duplicate")
		return nil, err
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	s.metrics.RecordTransition("raise", "ok")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueRaised,
		IssueID: issue.ID,
		Actor:   events.Actor{Kind: reporter.Kind, ID: &reporter.ID},
		Payload: events.IssueRaisedPayload{
			CommunityID:  issue.CommunityID,
			CategoryType: issue.CategoryType,
			Category:     issue.Category,
			Priority:     issue.Priority,
			Location:     issue.Location,
		},
	})

	assigned, err := s.assigner.AutoAssign(ctx, issue, "initial routing")
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNoEligibleWorker) && assigned != nil {
			return assigned, nil
		}
		// the report itself is committed; routing problems surface via
		// the pending queue, not to the reporter.
		s.logger.Warn("auto-assignment failed after raise", zap.String("issue_id", issue.ID), zap.Error(err))
		return issue, nil
	}
	return assigned, nil
}

// Actor identifies who applies a manual operation.
type Actor struct {
	Kind domain.ActorKind
	ID   string
}

// AssignInput carries optional assignment metadata.
type AssignInput struct {
	Deadline *time.Time
	Remarks  *string
}

// AssignWorker manually attaches a worker to an unassigned issue.
func (s *IssueService) AssignWorker(ctx context.Context, actor Actor, issueID, workerID string, input AssignInput) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsCompleted() {
		s.metrics.RecordTransition("assign", "invalid")
		return nil, apperrors.NewInvalidTransition("cannot assign a completed or closed issue",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}
	if issue.WorkerID != nil {
		s.metrics.RecordTransition("assign", "invalid")
		return nil, apperrors.NewAlreadyAssigned(issueID, *issue.WorkerID)
	}
	if issue.Status != domain.IssueStatusPendingAssignment && issue.Status != domain.IssueStatusReopened {
		s.metrics.RecordTransition("assign", "invalid")
		return nil, apperrors.NewInvalidTransition("issue not awaiting assignment",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	worker, err := s.getEligibleWorker(ctx, issue, workerID)
	if err != nil {
		return nil, err
	}

	updated := *issue
	updated.Status = domain.IssueStatusAssigned
	updated.WorkerID = &worker.ID
	updated.AutoAssigned = false
	if input.Deadline != nil {
		updated.Deadline = input.Deadline
	}
	if input.Remarks != nil {
		updated.Remarks = input.Remarks
	}

	guard := repository.IssueGuard{Status: issue.Status, WorkerID: nil, CheckWorker: true}
	if err := s.issues.CommitAssignment(ctx, &updated, guard, nil, &worker.ID); err != nil {
		return nil, s.commitError(ctx, err, issueID, "assign")
	}
	s.metrics.RecordTransition("assign", "ok")
	s.recordWorkerChange(ctx, actor, updated.ID, nil, updated.WorkerID, "manual assignment")
	s.recordStatusChange(ctx, actor, updated.ID, issue.Status, updated.Status, "manual assignment")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: updated.ID,
		Actor:   events.Actor{Kind: actor.Kind, ID: &actor.ID},
		Payload: events.IssueAssignedPayload{WorkerID: updated.WorkerID, AutoAssigned: false},
	})
	return &updated, nil
}

// ReassignWorker moves an assigned issue to a different worker.
func (s *IssueService) ReassignWorker(ctx context.Context, actor Actor, issueID, newWorkerID string, input AssignInput) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsCompleted() {
		s.metrics.RecordTransition("reassign", "invalid")
		return nil, apperrors.NewInvalidTransition("cannot reassign a completed or closed issue",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}
	if issue.WorkerID == nil {
		s.metrics.RecordTransition("reassign", "invalid")
		return nil, apperrors.NewNoWorkerToReassign(issueID)
	}
	if *issue.WorkerID == newWorkerID {
		s.metrics.RecordTransition("reassign", "invalid")
		return nil, apperrors.NewSameWorker(newWorkerID)
	}

	worker, err := s.getEligibleWorker(ctx, issue, newWorkerID)
	if err != nil {
		return nil, err
	}

	oldWorker := issue.WorkerID
	updated := *issue
	updated.Status = domain.IssueStatusAssigned
	updated.WorkerID = &worker.ID
	updated.AutoAssigned = false
	if input.Deadline != nil {
		updated.Deadline = input.Deadline
	}
	if input.Remarks != nil {
		updated.Remarks = input.Remarks
	}

	guard := repository.IssueGuard{Status: issue.Status, WorkerID: oldWorker, CheckWorker: true}
	if err := s.issues.CommitAssignment(ctx, &updated, guard, oldWorker, &worker.ID); err != nil {
		return nil, s.commitError(ctx, err, issueID, "reassign")
	}
	s.metrics.RecordTransition("reassign", "ok")
	s.recordWorkerChange(ctx, actor, updated.ID, oldWorker, updated.WorkerID, "manual reassignment")
	if issue.Status != updated.Status {
		s.recordStatusChange(ctx, actor, updated.ID, issue.Status, updated.Status, "manual reassignment")
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: updated.ID,
		Actor:   events.Actor{Kind: actor.Kind, ID: &actor.ID},
		Payload: events.IssueAssignedPayload{WorkerID: updated.WorkerID, OldWorkerID: oldWorker, AutoAssigned: false},
	})
	return &updated, nil
}

// StartWork moves an assigned issue into progress. Workers may only start
// their own issues.
func (s *IssueService) StartWork(ctx context.Context, actor Actor, issueID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignee(issue, actor); err != nil {
		return nil, err
	}
	if issue.Status != domain.IssueStatusAssigned {
		s.metrics.RecordTransition("start", "invalid")
		return nil, apperrors.NewInvalidTransition("work can only start on an assigned issue",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	updated := *issue
	updated.Status = domain.IssueStatusInProgress
	return s.commitStatusOnly(ctx, actor, issue, &updated, "start", "work started")
}

// ResolveWork completes the work. Resident issues wait for the reporter's
// confirmation; community issues close immediately since no single
// resident owns the confirmation.
func (s *IssueService) ResolveWork(ctx context.Context, actor Actor, issueID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignee(issue, actor); err != nil {
		return nil, err
	}
	if issue.Status != domain.IssueStatusInProgress {
		s.metrics.RecordTransition("resolve", "invalid")
		return nil, apperrors.NewInvalidTransition("only in-progress issues can be resolved",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	now := s.clock.Now()
	updated := *issue
	updated.ResolvedAt = &now

	if issue.CategoryType == domain.CategoryTypeResident {
		updated.Status = domain.IssueStatusAwaitingConfirmation
		return s.commitStatusOnly(ctx, actor, issue, &updated, "resolve", "awaiting resident confirmation")
	}

	updated.Status = domain.IssueStatusClosed
	updated.ClosedAt = &now
	return s.commitWithDetach(ctx, actor, issue, &updated, "resolve", "community issue closed on resolution")
}

// ConfirmResolution lets the reporting resident accept the fix.
func (s *IssueService) ConfirmResolution(ctx context.Context, actor Actor, issueID string, rating *int, feedback *string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.CategoryType != domain.CategoryTypeResident {
		s.metrics.RecordTransition("confirm", "invalid")
		return nil, apperrors.NewWrongCategoryType("community issues have no confirmation owner",
			map[string]any{"issue_id": issueID})
	}
	if issue.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporter can confirm resolution")
	}
	if issue.Status != domain.IssueStatusAwaitingConfirmation {
		s.metrics.RecordTransition("confirm", "invalid")
		return nil, apperrors.NewInvalidTransition("issue is not awaiting confirmation",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	now := s.clock.Now()
	updated := *issue
	updated.Status = domain.IssueStatusClosed
	updated.ClosedAt = &now
	updated.Rating = rating
	updated.Feedback = feedback
	return s.commitWithDetach(ctx, actor, issue, &updated, "confirm", "resolution confirmed by resident")
}

// RejectResolution lets the reporting resident reopen the issue.
func (s *IssueService) RejectResolution(ctx context.Context, actor Actor, issueID string, feedback *string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.CategoryType != domain.CategoryTypeResident {
		s.metrics.RecordTransition("reject", "invalid")
		return nil, apperrors.NewWrongCategoryType("community issues have no confirmation owner",
			map[string]any{"issue_id": issueID})
	}
	if issue.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporter can reject resolution")
	}
	if issue.Status != domain.IssueStatusAwaitingConfirmation {
		s.metrics.RecordTransition("reject", "invalid")
		return nil, apperrors.NewInvalidTransition("issue is not awaiting confirmation",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	updated := *issue
	updated.Status = domain.IssueStatusReopened
	// the next assignment is tracked as fresh.
	updated.AutoAssigned = false
	updated.ResolvedAt = nil
	updated.Feedback = feedback
	return s.commitStatusOnly(ctx, actor, issue, &updated, "reject", "resolution rejected by resident")
}

// HoldIssue is a manager override, legal from any non-terminal state.
func (s *IssueService) HoldIssue(ctx context.Context, actor Actor, issueID, remarks string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsTerminal() {
		s.metrics.RecordTransition("hold", "invalid")
		return nil, apperrors.NewInvalidTransition("cannot hold a closed issue",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	updated := *issue
	updated.Status = domain.IssueStatusOnHold
	if strings.TrimSpace(remarks) != "" {
		remark := strings.TrimSpace(remarks)
		updated.Remarks = &remark
	}
	return s.commitStatusOnly(ctx, actor, issue, &updated, "hold", "manager hold")
}

// CloseIssue is an administrative force-close from any non-terminal state.
func (s *IssueService) CloseIssue(ctx context.Context, actor Actor, issueID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsTerminal() {
		s.metrics.RecordTransition("close", "invalid")
		return nil, apperrors.NewInvalidTransition("issue already closed",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	now := s.clock.Now()
	updated := *issue
	updated.Status = domain.IssueStatusClosed
	updated.ClosedAt = &now
	return s.commitWithDetach(ctx, actor, issue, &updated, "close", "administrative close")
}

// RejectIssue dismisses an invalid report. Terminal; any attached worker
// is released.
func (s *IssueService) RejectIssue(ctx context.Context, actor Actor, issueID, remarks string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsTerminal() {
		s.metrics.RecordTransition("reject_report", "invalid")
		return nil, apperrors.NewInvalidTransition("issue already closed",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	now := s.clock.Now()
	updated := *issue
	updated.Status = domain.IssueStatusRejected
	updated.ClosedAt = &now
	if strings.TrimSpace(remarks) != "" {
		remark := strings.TrimSpace(remarks)
		updated.Remarks = &remark
	}
	return s.commitWithDetach(ctx, actor, issue, &updated, "reject_report", "report rejected by staff")
}

// FlagMisassigned detaches the current worker and re-runs the full
// auto-assignment pipeline.
func (s *IssueService) FlagMisassigned(ctx context.Context, actor Actor, issueID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.IsCompleted() {
		s.metrics.RecordTransition("flag_misassigned", "invalid")
		return nil, apperrors.NewInvalidTransition("cannot reroute a completed or closed issue",
			map[string]any{"issue_id": issueID, "status": issue.Status})
	}

	assigned, err := s.assigner.AutoAssign(ctx, issue, "flagged as misassigned")
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNoEligibleWorker) && assigned != nil {
			s.metrics.RecordTransition("flag_misassigned", "parked")
			return assigned, nil
		}
		return nil, err
	}
	s.metrics.RecordTransition("flag_misassigned", "ok")
	return assigned, nil
}

// GetIssue fetches one issue.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	return s.getIssue(ctx, issueID)
}

// ListIssues returns issues matching the filter.
func (s *IssueService) ListIssues(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	issues, err := s.issues.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return issues, nil
}

// ListHistory returns the audit trail for an issue.
func (s *IssueService) ListHistory(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueHistory, error) {
	if s.history == nil {
		return []domain.IssueHistory{}, nil
	}
	if _, err := s.getIssue(ctx, issueID); err != nil {
		return nil, err
	}
	return s.history.ListByIssue(ctx, issueID, limit, offset)
}

func (s *IssueService) getIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewIssueNotFound(issueID)
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return issue, nil
}

func (s *IssueService) getEligibleWorker(ctx context.Context, issue *domain.Issue, workerID string) (*domain.Worker, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewWorkerNotFound(workerID)
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	if !worker.Active {
		return nil, apperrors.NewConflict("worker inactive", map[string]any{"worker_id": workerID})
	}
	if worker.CommunityID != issue.CommunityID {
		return nil, apperrors.NewForbidden("worker belongs to a different community")
	}
	return worker, nil
}

// requireAssignee restricts worker-side operations to the current
// assignee; staff actors pass through.
func (s *IssueService) requireAssignee(issue *domain.Issue, actor Actor) error {
	if actor.Kind != domain.ActorKindWorker {
		return nil
	}
	if issue.WorkerID == nil || *issue.WorkerID != actor.ID {
		return apperrors.NewForbidden("issue is not assigned to this worker")
	}
	return nil
}

// commitStatusOnly applies a transition that does not touch worker load
// lists, guarded on the observed status.
func (s *IssueService) commitStatusOnly(ctx context.Context, actor Actor, old, updated *domain.Issue, operation, comment string) (*domain.Issue, error) {
	guard := repository.IssueGuard{Status: old.Status}
	if err := s.issues.UpdateWithGuard(ctx, updated, guard); err != nil {
		return nil, s.commitError(ctx, err, old.ID, operation)
	}
	s.metrics.RecordTransition(operation, "ok")
	s.recordStatusChange(ctx, actor, updated.ID, old.Status, updated.Status, comment)
	s.publishStatusChanged(ctx, actor, updated.ID, old.Status, updated.Status, comment)
	return updated, nil
}

// commitWithDetach closes out a transition that removes the issue from
// its worker's load list while keeping the worker reference for audit.
func (s *IssueService) commitWithDetach(ctx context.Context, actor Actor, old, updated *domain.Issue, operation, comment string) (*domain.Issue, error) {
	guard := repository.IssueGuard{Status: old.Status, WorkerID: old.WorkerID, CheckWorker: true}
	if err := s.issues.CommitAssignment(ctx, updated, guard, old.WorkerID, nil); err != nil {
		return nil, s.commitError(ctx, err, old.ID, operation)
	}
	s.metrics.RecordTransition(operation, "ok")
	s.recordStatusChange(ctx, actor, updated.ID, old.Status, updated.Status, comment)
	s.publishStatusChanged(ctx, actor, updated.ID, old.Status, updated.Status, comment)
	return updated, nil
}

// commitError maps a guarded-write failure to a typed outcome. On a stale
// precondition the issue is re-read so the caller learns what it raced
// against.
func (s *IssueService) commitError(ctx context.Context, err error, issueID, operation string) error {
	if !errors.Is(err, repository.ErrStale) {
		return apperrors.NewStorageUnavailable(err)
	}
	s.metrics.RecordTransition(operation, "conflict")
	fresh, getErr := s.issues.GetByID(ctx, issueID)
	if getErr != nil {
		if errors.Is(getErr, pgx.ErrNoRows) {
			return apperrors.NewIssueNotFound(issueID)
		}
		return apperrors.NewStorageUnavailable(getErr)
	}
	if operation == "assign" && fresh.WorkerID != nil {
		return apperrors.NewAlreadyAssigned(issueID, *fresh.WorkerID)
	}
	if fresh.Status.IsCompleted() {
		return apperrors.NewInvalidTransition("issue already completed",
			map[string]any{"issue_id": issueID, "status": fresh.Status})
	}
	return apperrors.NewConflict("issue was modified concurrently",
		map[string]any{"issue_id": issueID, "status": fresh.Status})
}

func (s *IssueService) recordStatusChange(ctx context.Context, actor Actor, issueID string, oldStatus, newStatus domain.IssueStatus, comment string) {
	if s.history == nil {
		return
	}
	actorID := actor.ID
	entry := &domain.IssueHistory{
		IssueID:       issueID,
		ChangedByKind: actor.Kind,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": newStatus, "comment": comment},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record status change", zap.String("issue_id", issueID), zap.Error(err))
	}
}

func (s *IssueService) recordWorkerChange(ctx context.Context, actor Actor, issueID string, oldWorker, newWorker *string, comment string) {
	if s.history == nil {
		return
	}
	actorID := actor.ID
	entry := &domain.IssueHistory{
		IssueID:       issueID,
		ChangedByKind: actor.Kind,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeWorker,
		OldValue:      map[string]any{"worker_id": oldWorker},
		NewValue:      map[string]any{"worker_id": newWorker, "comment": comment},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record worker change", zap.String("issue_id", issueID), zap.Error(err))
	}
}

func (s *IssueService) publishStatusChanged(ctx context.Context, actor Actor, issueID string, oldStatus, newStatus domain.IssueStatus, comment string) {
	actorID := actor.ID
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: issueID,
		Actor:   events.Actor{Kind: actor.Kind, ID: &actorID},
		Payload: events.IssueStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateIssueCode() string {
	return "ISS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
