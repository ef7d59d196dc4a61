package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/repository"
)

// fakeClock is a settable clock for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeWorkerRepo is an in-memory roster.
type fakeWorkerRepo struct {
	mu      sync.Mutex
	workers map[string]*domain.Worker
	nextID  int
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{workers: make(map[string]*domain.Worker)}
}

func (r *fakeWorkerRepo) Create(_ context.Context, worker *domain.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if worker.ID == "" {
		worker.ID = fmt.Sprintf("w-%03d", r.nextID)
	}
	if worker.AssignedIssues == nil {
		worker.AssignedIssues = []string{}
	}
	clone := *worker
	r.workers[worker.ID] = &clone
	return nil
}

func (r *fakeWorkerRepo) Update(_ context.Context, worker *domain.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.workers[worker.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Name = worker.Name
	stored.Email = worker.Email
	stored.JobRoles = worker.JobRoles
	stored.Active = worker.Active
	return nil
}

func (r *fakeWorkerRepo) GetByID(_ context.Context, id string) (*domain.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	worker, ok := r.workers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *worker
	clone.AssignedIssues = append([]string{}, worker.AssignedIssues...)
	return &clone, nil
}

func (r *fakeWorkerRepo) List(_ context.Context, filter repository.WorkerFilter) ([]domain.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []domain.Worker
	for _, id := range ids {
		worker := r.workers[id]
		if filter.CommunityID != nil && worker.CommunityID != *filter.CommunityID {
			continue
		}
		if filter.Active != nil && worker.Active != *filter.Active {
			continue
		}
		if len(filter.SkillsAny) > 0 && !hasAnySkill(worker, filter.SkillsAny) {
			continue
		}
		clone := *worker
		clone.AssignedIssues = append([]string{}, worker.AssignedIssues...)
		result = append(result, clone)
	}
	return result, nil
}

func (r *fakeWorkerRepo) attach(issueID, workerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	worker, ok := r.workers[workerID]
	if !ok || !worker.Active {
		return repository.ErrStale
	}
	worker.AssignedIssues = removeString(worker.AssignedIssues, issueID)
	worker.AssignedIssues = append(worker.AssignedIssues, issueID)
	return nil
}

func (r *fakeWorkerRepo) detach(issueID, workerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if worker, ok := r.workers[workerID]; ok {
		worker.AssignedIssues = removeString(worker.AssignedIssues, issueID)
	}
}

func hasAnySkill(worker *domain.Worker, skills []domain.Skill) bool {
	for _, skill := range skills {
		if worker.HasSkill(skill) {
			return true
		}
	}
	return false
}

func removeString(list []string, value string) []string {
	result := list[:0]
	for _, item := range list {
		if item != value {
			result = append(result, item)
		}
	}
	return result
}

// fakeIssueRepo is an in-memory issue store honoring the guard CAS.
type fakeIssueRepo struct {
	mu      sync.Mutex
	issues  map[string]*domain.Issue
	workers *fakeWorkerRepo
	clock   Clock
	nextID  int
}

func newFakeIssueRepo(workers *fakeWorkerRepo, clock Clock) *fakeIssueRepo {
	return &fakeIssueRepo{
		issues:  make(map[string]*domain.Issue),
		workers: workers,
		clock:   clock,
	}
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	issue.ID = fmt.Sprintf("i-%03d", r.nextID)
	issue.CreatedAt = r.clock.Now()
	issue.UpdatedAt = issue.CreatedAt
	clone := *issue
	r.issues[issue.ID] = &clone
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *issue
	return &clone, nil
}

func (r *fakeIssueRepo) GetByCode(_ context.Context, code string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, issue := range r.issues {
		if issue.Code == code {
			clone := *issue
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeIssueRepo) ListWithFilter(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.issues))
	for id := range r.issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []domain.Issue
	for _, id := range ids {
		issue := r.issues[id]
		if !matchesFilter(issue, filter) {
			continue
		}
		clone := *issue
		result = append(result, clone)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func matchesFilter(issue *domain.Issue, filter repository.IssueFilter) bool {
	if filter.CommunityID != nil && issue.CommunityID != *filter.CommunityID {
		return false
	}
	if filter.ReporterID != nil && issue.ReporterID != *filter.ReporterID {
		return false
	}
	if filter.WorkerID != nil && (issue.WorkerID == nil || *issue.WorkerID != *filter.WorkerID) {
		return false
	}
	if filter.CategoryType != nil && issue.CategoryType != *filter.CategoryType {
		return false
	}
	if len(filter.Categories) > 0 && !containsString(filter.Categories, issue.Category) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, issue.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, issue.Priority) {
		return false
	}
	if filter.Location != nil && issue.Location != *filter.Location {
		return false
	}
	if filter.AutoAssigned != nil && issue.AutoAssigned != *filter.AutoAssigned {
		return false
	}
	if filter.CreatedFrom != nil && issue.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && issue.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.UpdatedBefore != nil && !issue.UpdatedAt.Before(*filter.UpdatedBefore) {
		return false
	}
	if filter.ResolvedBefore != nil && (issue.ResolvedAt == nil || !issue.ResolvedAt.Before(*filter.ResolvedBefore)) {
		return false
	}
	return true
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsStatus(list []domain.IssueStatus, value domain.IssueStatus) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.IssuePriority, value domain.IssuePriority) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func (r *fakeIssueRepo) UpdateWithGuard(_ context.Context, issue *domain.Issue, guard repository.IssueGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyGuarded(issue, guard)
}

func (r *fakeIssueRepo) CommitAssignment(_ context.Context, issue *domain.Issue, guard repository.IssueGuard, detachWorkerID, attachWorkerID *string) error {
	r.mu.Lock()
	snapshot := r.snapshot(issue.ID)
	err := r.applyGuarded(issue, guard)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if detachWorkerID != nil {
		r.workers.detach(issue.ID, *detachWorkerID)
	}
	if attachWorkerID != nil {
		if err := r.workers.attach(issue.ID, *attachWorkerID); err != nil {
			// roll the issue row back so the commit stays atomic
			r.mu.Lock()
			if snapshot != nil {
				r.issues[issue.ID] = snapshot
			}
			r.mu.Unlock()
			if detachWorkerID != nil {
				r.workers.attach(issue.ID, *detachWorkerID) //nolint:errcheck
			}
			return err
		}
	}
	return nil
}

func (r *fakeIssueRepo) snapshot(id string) *domain.Issue {
	if issue, ok := r.issues[id]; ok {
		clone := *issue
		return &clone
	}
	return nil
}

func (r *fakeIssueRepo) applyGuarded(issue *domain.Issue, guard repository.IssueGuard) error {
	stored, ok := r.issues[issue.ID]
	if !ok {
		return repository.ErrStale
	}
	if guard.Status != "" && stored.Status != guard.Status {
		return repository.ErrStale
	}
	if guard.CheckWorker {
		if guard.WorkerID == nil && stored.WorkerID != nil {
			return repository.ErrStale
		}
		if guard.WorkerID != nil && (stored.WorkerID == nil || *stored.WorkerID != *guard.WorkerID) {
			return repository.ErrStale
		}
	}

	stored.Status = issue.Status
	stored.Priority = issue.Priority
	stored.WorkerID = issue.WorkerID
	stored.AutoAssigned = issue.AutoAssigned
	stored.Deadline = issue.Deadline
	stored.Remarks = issue.Remarks
	stored.ResolvedAt = issue.ResolvedAt
	stored.Rating = issue.Rating
	stored.Feedback = issue.Feedback
	stored.ClosedAt = issue.ClosedAt
	stored.UpdatedAt = r.clock.Now()
	issue.UpdatedAt = stored.UpdatedAt
	return nil
}

// touch rewrites UpdatedAt directly, bypassing the guard, so tests can
// age issues.
func (r *fakeIssueRepo) touch(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if issue, ok := r.issues[id]; ok {
		issue.UpdatedAt = at
	}
}

// fakeHistoryRepo records audit entries in order.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.IssueHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.IssueHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("h-%03d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByIssue(_ context.Context, issueID string, limit, offset int) ([]domain.IssueHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.IssueHistory
	for _, entry := range r.entries {
		if entry.IssueID == issueID {
			result = append(result, entry)
		}
	}
	if offset > 0 {
		if offset >= len(result) {
			return nil, nil
		}
		result = result[offset:]
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeHistoryRepo) byType(changeType domain.IssueChangeType) []domain.IssueHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.IssueHistory
	for _, entry := range r.entries {
		if entry.ChangeType == changeType {
			result = append(result, entry)
		}
	}
	return result
}

// fakeCommunityRepo holds communities.
type fakeCommunityRepo struct {
	mu          sync.Mutex
	communities map[string]*domain.Community
}

func newFakeCommunityRepo(communities ...*domain.Community) *fakeCommunityRepo {
	repo := &fakeCommunityRepo{communities: make(map[string]*domain.Community)}
	for _, community := range communities {
		repo.communities[community.ID] = community
	}
	return repo
}

func (r *fakeCommunityRepo) GetByID(_ context.Context, id string) (*domain.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	community, ok := r.communities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *community
	return &clone, nil
}

func (r *fakeCommunityRepo) List(_ context.Context, _, _ int) ([]domain.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Community
	for _, community := range r.communities {
		result = append(result, *community)
	}
	return result, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{}
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
