package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-service/internal/config"
	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/observability"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/routing"
)

func escalationConfig() config.EscalationConfig {
	return config.EscalationConfig{
		StuckSweepInterval:   10 * time.Minute,
		ConfirmSweepInterval: time.Hour,
		StalledSweepInterval: 30 * time.Minute,
		ConfirmationTimeout:  48 * time.Hour,
		StuckBaseTimeout:     2 * time.Hour,
		StuckBusinessTimeout: 90 * time.Minute,
		StuckOffHoursTimeout: 4 * time.Hour,
		SweepBatchSize:       200,
	}
}

type escalationFixture struct {
	clock      *fakeClock
	issues     *fakeIssueRepo
	workers    *fakeWorkerRepo
	history    *fakeHistoryRepo
	dispatcher *recordingDispatcher
	metrics    *observability.Metrics
	svc        *EscalationService
}

func newEscalationFixture(t *testing.T, start time.Time) *escalationFixture {
	t.Helper()
	clock := newFakeClock(start)
	workers := newFakeWorkerRepo()
	issues := newFakeIssueRepo(workers, clock)
	history := newFakeHistoryRepo()
	dispatcher := newRecordingDispatcher()
	metrics := observability.NewMetrics()

	assigner := NewAssignmentService(AssignmentDependencies{
		IssueRepo:   issues,
		WorkerRepo:  workers,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
	})
	svc := NewEscalationService(EscalationDependencies{
		IssueRepo:   issues,
		Assigner:    assigner,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Clock:       clock,
		Config:      escalationConfig(),
	})
	return &escalationFixture{
		clock:      clock,
		issues:     issues,
		workers:    workers,
		history:    history,
		dispatcher: dispatcher,
		metrics:    metrics,
		svc:        svc,
	}
}

func (f *escalationFixture) addWorker(t *testing.T, id string, skills ...domain.Skill) {
	t.Helper()
	require.NoError(t, f.workers.Create(context.Background(), &domain.Worker{
		ID:          id,
		CommunityID: "c-001",
		JobRoles:    skills,
		Active:      true,
	}))
}

func (f *escalationFixture) seedAssigned(t *testing.T, workerID string, priority domain.IssuePriority) *domain.Issue {
	t.Helper()
	issue := &domain.Issue{
		Code:         "ISS-ESC" + workerID,
		CommunityID:  "c-001",
		ReporterID:   "r-001",
		CategoryType: domain.CategoryTypeResident,
		Category:     routing.ResidentCategoryPlumbing,
		Description:  "leak",
		Status:       domain.IssueStatusAssigned,
		Priority:     priority,
		Location:     "A-101",
		WorkerID:     &workerID,
		AutoAssigned: true,
	}
	require.NoError(t, f.issues.Create(context.Background(), issue))
	require.NoError(t, f.workers.attach(issue.ID, workerID))
	return issue
}

// 12:00 UTC is inside business hours: urgent pickup threshold is
// 90m * 0.5 = 45m.
func TestStuckSweepUrgentBusinessHours(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Run("untouched before threshold", func(t *testing.T) {
		f := newEscalationFixture(t, start)
		f.addWorker(t, "w-001", domain.SkillPlumber)
		f.addWorker(t, "w-002", domain.SkillPlumber)
		issue := f.seedAssigned(t, "w-001", domain.IssuePriorityUrgent)

		f.clock.Advance(35 * time.Minute)
		require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))

		fresh, err := f.issues.GetByID(context.Background(), issue.ID)
		require.NoError(t, err)
		require.Equal(t, "w-001", *fresh.WorkerID)
		require.Equal(t, int64(0), f.metrics.SweepCount("stuck", "escalated"))
	})

	t.Run("rerouted after threshold", func(t *testing.T) {
		f := newEscalationFixture(t, start)
		f.addWorker(t, "w-001", domain.SkillPlumber)
		f.addWorker(t, "w-002", domain.SkillPlumber)
		issue := f.seedAssigned(t, "w-001", domain.IssuePriorityUrgent)

		f.clock.Advance(50 * time.Minute)
		require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))

		fresh, err := f.issues.GetByID(context.Background(), issue.ID)
		require.NoError(t, err)
		require.Equal(t, "w-002", *fresh.WorkerID, "stuck issue must move to another worker")
		require.Equal(t, int64(1), f.metrics.SweepCount("stuck", "escalated"))
		require.Len(t, f.dispatcher.byType(events.EventIssueEscalated), 1)
	})
}

func TestStuckSweepNormalUsesFullWindow(t *testing.T) {
	// normal priority in business hours waits the full 90m
	start := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, start)
	f.addWorker(t, "w-001", domain.SkillPlumber)
	f.addWorker(t, "w-002", domain.SkillPlumber)
	issue := f.seedAssigned(t, "w-001", domain.IssuePriorityNormal)

	f.clock.Advance(80 * time.Minute)
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))
	fresh, err := f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, "w-001", *fresh.WorkerID)

	f.clock.Advance(15 * time.Minute)
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))
	fresh, err = f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, "w-002", *fresh.WorkerID)
}

func TestStuckSweepOffHoursWindow(t *testing.T) {
	// 23:00 is off-hours: normal priority waits 4h
	start := time.Date(2026, time.March, 10, 23, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, start)
	f.addWorker(t, "w-001", domain.SkillPlumber)
	f.addWorker(t, "w-002", domain.SkillPlumber)
	issue := f.seedAssigned(t, "w-001", domain.IssuePriorityNormal)

	f.clock.Advance(3 * time.Hour) // 02:00, still off-hours
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))
	fresh, err := f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, "w-001", *fresh.WorkerID)

	f.clock.Advance(90 * time.Minute) // 03:30, past the 4h window
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))
	fresh, err = f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, "w-002", *fresh.WorkerID)
}

func TestStuckSweepParksWhenNoReplacement(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, start)
	f.addWorker(t, "w-001", domain.SkillPlumber)
	issue := f.seedAssigned(t, "w-001", domain.IssuePriorityUrgent)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))

	fresh, err := f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusPendingAssignment, fresh.Status)
	require.Nil(t, fresh.WorkerID)
}

func TestConfirmationSweep(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, start)
	f.addWorker(t, "w-001", domain.SkillPlumber)

	workerID := "w-001"
	resolvedAt := start
	issue := &domain.Issue{
		Code:         "ISS-CONF0001",
		CommunityID:  "c-001",
		ReporterID:   "r-001",
		CategoryType: domain.CategoryTypeResident,
		Category:     routing.ResidentCategoryPlumbing,
		Description:  "leak",
		Status:       domain.IssueStatusAwaitingConfirmation,
		Priority:     domain.IssuePriorityNormal,
		Location:     "A-101",
		WorkerID:     &workerID,
		ResolvedAt:   &resolvedAt,
	}
	require.NoError(t, f.issues.Create(context.Background(), issue))
	require.NoError(t, f.workers.attach(issue.ID, workerID))

	f.clock.Advance(47 * time.Hour)
	require.NoError(t, f.svc.SweepConfirmationTimeouts(context.Background()))
	fresh, err := f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusAwaitingConfirmation, fresh.Status)

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.svc.SweepConfirmationTimeouts(context.Background()))
	fresh, err = f.issues.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusAutoClosed, fresh.Status)
	require.NotNil(t, fresh.ClosedAt)
	require.NotNil(t, fresh.WorkerID, "auto-close keeps the worker reference for audit")

	assignee, err := f.workers.GetByID(context.Background(), workerID)
	require.NoError(t, err)
	require.Empty(t, assignee.AssignedIssues)
}

func TestStalledSweepWindowsByPriority(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, start)
	f.addWorker(t, "w-001", domain.SkillPlumber)
	f.addWorker(t, "w-002", domain.SkillPlumber)

	urgent := f.seedAssigned(t, "w-001", domain.IssuePriorityUrgent)
	normal := f.seedAssigned(t, "w-002", domain.IssuePriorityNormal)
	for _, issue := range []*domain.Issue{urgent, normal} {
		updated, err := f.issues.GetByID(context.Background(), issue.ID)
		require.NoError(t, err)
		updated.Status = domain.IssueStatusInProgress
		require.NoError(t, f.issues.UpdateWithGuard(context.Background(), updated, repository.IssueGuard{Status: domain.IssueStatusAssigned}))
	}

	// 3h later: urgent (2h window) stalls, normal (6h window) does not
	f.clock.Advance(3 * time.Hour)
	require.NoError(t, f.svc.SweepStalledProgress(context.Background()))

	fresh, err := f.issues.GetByID(context.Background(), urgent.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusOnHold, fresh.Status)
	require.NotNil(t, fresh.Remarks)
	require.NotNil(t, fresh.WorkerID, "hold keeps the assignment")

	fresh, err = f.issues.GetByID(context.Background(), normal.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusInProgress, fresh.Status)

	// 4h more: normal passes its window too
	f.clock.Advance(4 * time.Hour)
	require.NoError(t, f.svc.SweepStalledProgress(context.Background()))
	fresh, err = f.issues.GetByID(context.Background(), normal.ID)
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusOnHold, fresh.Status)
}

func TestSweepsAreIdempotent(t *testing.T) {
	start := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, start)
	f.addWorker(t, "w-001", domain.SkillPlumber)
	f.addWorker(t, "w-002", domain.SkillPlumber)
	f.seedAssigned(t, "w-001", domain.IssuePriorityUrgent)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))
	require.Equal(t, int64(1), f.metrics.SweepCount("stuck", "escalated"))

	// the reroute refreshed updated_at, so an immediate re-run is a no-op
	require.NoError(t, f.svc.SweepStuckAssignments(context.Background()))
	require.Equal(t, int64(1), f.metrics.SweepCount("stuck", "escalated"))
	require.Equal(t, int64(2), f.metrics.SweepCount("stuck", "runs"))
}
