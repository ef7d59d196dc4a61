package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/config"
	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/observability"
	"github.com/spec-kit/property-service/internal/repository"
)

// EscalationService runs the time-based sweeps: stuck assignments are
// rerouted, unconfirmed resolutions auto-close, stalled work is put on
// hold for manager attention. Sweeps are idempotent and tolerate
// concurrent manual operations by re-checking every issue before
// mutating it.
type EscalationService struct {
	issues     repository.IssueRepository
	assigner   *AssignmentService
	history    repository.IssueHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      Clock
	cfg        config.EscalationConfig
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	IssueRepo   repository.IssueRepository
	Assigner    *AssignmentService
	HistoryRepo repository.IssueHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       Clock
	Config      config.EscalationConfig
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &EscalationService{
		issues:     deps.IssueRepo,
		assigner:   deps.Assigner,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		clock:      clock,
		cfg:        deps.Config,
	}
}

// SweepStuckAssignments reroutes auto-assigned issues that sat in
// ASSIGNED without the worker starting. Manually assigned issues are a
// manager's deliberate choice and are left alone. The timeout depends on
// when the sweep runs: business hours expect a faster pickup, off-hours
// a slower one, and priority shortens the wait further.
func (s *EscalationService) SweepStuckAssignments(ctx context.Context) error {
	now := s.clock.Now()
	autoAssigned := true
	candidates, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		Statuses:      []domain.IssueStatus{domain.IssueStatusAssigned},
		AutoAssigned:  &autoAssigned,
		UpdatedBefore: s.earliestStuckCutoff(now),
		Limit:         s.batchSize(),
	})
	if err != nil {
		return err
	}

	escalated := 0
	for i := range candidates {
		issue := &candidates[i]
		cutoff := s.stuckCutoff(now, issue.Priority)
		if !issue.UpdatedAt.Before(cutoff) {
			continue
		}
		fresh, err := s.refetch(ctx, issue.ID)
		if err != nil {
			s.logger.Warn("stuck sweep: refetch failed", zap.String("issue_id", issue.ID), zap.Error(err))
			continue
		}
		if fresh == nil || fresh.Status != domain.IssueStatusAssigned || fresh.UpdatedAt.After(issue.UpdatedAt) {
			continue
		}
		oldStatus := fresh.Status
		assigned, err := s.assigner.AutoAssign(ctx, fresh, "stuck assignment escalation")
		if err != nil && assigned == nil {
			s.logger.Warn("stuck sweep: reroute failed", zap.String("issue_id", fresh.ID), zap.Error(err))
			continue
		}
		escalated++
		s.recordEscalation(ctx, assigned.ID, oldStatus, assigned.Status, "stuck", "assignment not started in time")
	}
	s.metrics.RecordSweep("stuck", escalated)
	if escalated > 0 {
		s.logger.Info("stuck sweep completed", zap.Int("escalated", escalated))
	}
	return nil
}

// SweepConfirmationTimeouts auto-closes resident issues that waited too
// long for the reporter's confirmation.
func (s *EscalationService) SweepConfirmationTimeouts(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.cfg.ConfirmationTimeout)
	candidates, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		Statuses:       []domain.IssueStatus{domain.IssueStatusAwaitingConfirmation},
		ResolvedBefore: &cutoff,
		Limit:          s.batchSize(),
	})
	if err != nil {
		return err
	}

	escalated := 0
	for i := range candidates {
		issue := &candidates[i]
		fresh, err := s.refetch(ctx, issue.ID)
		if err != nil {
			s.logger.Warn("confirm sweep: refetch failed", zap.String("issue_id", issue.ID), zap.Error(err))
			continue
		}
		if fresh == nil || fresh.Status != domain.IssueStatusAwaitingConfirmation {
			continue
		}
		if fresh.ResolvedAt == nil || !fresh.ResolvedAt.Before(cutoff) {
			continue
		}

		now := s.clock.Now()
		updated := *fresh
		updated.Status = domain.IssueStatusAutoClosed
		updated.ClosedAt = &now

		guard := repository.IssueGuard{Status: fresh.Status, WorkerID: fresh.WorkerID, CheckWorker: true}
		if err := s.issues.CommitAssignment(ctx, &updated, guard, fresh.WorkerID, nil); err != nil {
			if !errors.Is(err, repository.ErrStale) {
				s.logger.Warn("confirm sweep: close failed", zap.String("issue_id", fresh.ID), zap.Error(err))
			}
			continue
		}
		escalated++
		s.recordEscalation(ctx, updated.ID, fresh.Status, updated.Status, "confirmation", "no resident confirmation within window")
	}
	s.metrics.RecordSweep("confirmation", escalated)
	if escalated > 0 {
		s.logger.Info("confirmation sweep completed", zap.Int("auto_closed", escalated))
	}
	return nil
}

// SweepStalledProgress parks long-running IN_PROGRESS issues ON_HOLD so
// a manager reviews them.
func (s *EscalationService) SweepStalledProgress(ctx context.Context) error {
	now := s.clock.Now()
	// query with the shortest window; per-issue windows filter below.
	shortest := now.Add(-stalledWindow(domain.IssuePriorityUrgent))
	candidates, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		Statuses:      []domain.IssueStatus{domain.IssueStatusInProgress},
		UpdatedBefore: &shortest,
		Limit:         s.batchSize(),
	})
	if err != nil {
		return err
	}

	escalated := 0
	for i := range candidates {
		issue := &candidates[i]
		cutoff := now.Add(-stalledWindow(issue.Priority))
		if !issue.UpdatedAt.Before(cutoff) {
			continue
		}
		fresh, err := s.refetch(ctx, issue.ID)
		if err != nil {
			s.logger.Warn("stalled sweep: refetch failed", zap.String("issue_id", issue.ID), zap.Error(err))
			continue
		}
		if fresh == nil || fresh.Status != domain.IssueStatusInProgress || fresh.UpdatedAt.After(issue.UpdatedAt) {
			continue
		}

		remark := "work stalled in progress, parked for manager review"
		updated := *fresh
		updated.Status = domain.IssueStatusOnHold
		updated.Remarks = &remark

		guard := repository.IssueGuard{Status: fresh.Status}
		if err := s.issues.UpdateWithGuard(ctx, &updated, guard); err != nil {
			if !errors.Is(err, repository.ErrStale) {
				s.logger.Warn("stalled sweep: hold failed", zap.String("issue_id", fresh.ID), zap.Error(err))
			}
			continue
		}
		escalated++
		s.recordEscalation(ctx, updated.ID, fresh.Status, updated.Status, "stalled", remark)
	}
	s.metrics.RecordSweep("stalled", escalated)
	if escalated > 0 {
		s.logger.Info("stalled sweep completed", zap.Int("held", escalated))
	}
	return nil
}

// stuckCutoff computes the last-touched instant before which an ASSIGNED
// issue counts as stuck at the given sweep time.
func (s *EscalationService) stuckCutoff(now time.Time, priority domain.IssuePriority) time.Time {
	base := s.cfg.StuckBaseTimeout
	hour := now.Hour()
	switch {
	case hour >= 9 && hour < 17:
		base = s.cfg.StuckBusinessTimeout
	case hour < 8 || hour >= 22:
		base = s.cfg.StuckOffHoursTimeout
	}
	switch priority {
	case domain.IssuePriorityUrgent:
		base = base / 2
	case domain.IssuePriorityHigh:
		base = base * 3 / 4
	}
	return now.Add(-base)
}

// earliestStuckCutoff is the loosest cutoff for the query; per-issue
// priorities tighten it during the walk.
func (s *EscalationService) earliestStuckCutoff(now time.Time) *time.Time {
	cutoff := s.stuckCutoff(now, domain.IssuePriorityUrgent)
	return &cutoff
}

// stalledWindow is how long an IN_PROGRESS issue may go untouched.
func stalledWindow(priority domain.IssuePriority) time.Duration {
	switch priority {
	case domain.IssuePriorityUrgent:
		return 2 * time.Hour
	case domain.IssuePriorityHigh:
		return 4 * time.Hour
	case domain.IssuePriorityNormal:
		return 6 * time.Hour
	default:
		return 8 * time.Hour
	}
}

func (s *EscalationService) batchSize() int {
	if s.cfg.SweepBatchSize > 0 {
		return s.cfg.SweepBatchSize
	}
	return 200
}

func (s *EscalationService) refetch(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return issue, nil
}

func (s *EscalationService) recordEscalation(ctx context.Context, issueID string, oldStatus, newStatus domain.IssueStatus, sweep, reason string) {
	if s.history != nil {
		entry := &domain.IssueHistory{
			IssueID:       issueID,
			ChangedByKind: domain.ActorKindSystem,
			ChangeType:    domain.ChangeTypeEscalation,
			OldValue:      map[string]any{"status": oldStatus},
			NewValue:      map[string]any{"status": newStatus, "sweep": sweep, "reason": reason},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			s.logger.Warn("failed to record escalation", zap.String("issue_id", issueID), zap.Error(err))
		}
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventIssueEscalated,
			IssueID:   issueID,
			Actor:     events.Actor{Kind: domain.ActorKindSystem},
			Timestamp: s.clock.Now(),
			Payload: events.IssueEscalatedPayload{
				Sweep:     sweep,
				OldStatus: oldStatus,
				NewStatus: newStatus,
				Reason:    reason,
			},
		})
	}
}
