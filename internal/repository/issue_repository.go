package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/property-service/internal/domain"
)

// ErrStale is returned when a guarded update matched no row: the issue
// either no longer exists or has moved past the expected precondition.
var ErrStale = errors.New("issue state changed concurrently")

// IssueFilter captures issue search parameters.
type IssueFilter struct {
	CommunityID    *string
	ReporterID     *string
	WorkerID       *string
	CategoryType   *domain.CategoryType
	Categories     []string
	Statuses       []domain.IssueStatus
	Priorities     []domain.IssuePriority
	Location       *string
	AutoAssigned   *bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	UpdatedBefore  *time.Time
	ResolvedBefore *time.Time
	Limit          int
	Offset         int
}

// IssueGuard pins the precondition a mutation must observe. A zero-value
// guard matches only by ID.
type IssueGuard struct {
	Status   domain.IssueStatus
	WorkerID *string
	// CheckWorker enables the worker predicate even when WorkerID is nil
	// (i.e. "must currently be unassigned").
	CheckWorker bool
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	GetByCode(ctx context.Context, code string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	// UpdateWithGuard persists the mutable issue fields iff the row still
	// satisfies the guard. Returns ErrStale on a zero-row match.
	UpdateWithGuard(ctx context.Context, issue *domain.Issue, guard IssueGuard) error
	// CommitAssignment applies a worker change atomically: the issue row
	// and the affected worker load lists commit in one transaction, or
	// not at all. The issue is removed from detachWorkerID's load list
	// and appended to attachWorkerID's; either may be nil. Terminal
	// closes detach without attaching even though the issue keeps its
	// worker reference for audit.
	CommitAssignment(ctx context.Context, issue *domain.Issue, guard IssueGuard, detachWorkerID, attachWorkerID *string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, code, community_id, reporter_id, category_type, category, other_category,
               description, status, priority, location, worker_id, auto_assigned,
               deadline, remarks, resolved_at, rating, feedback, created_at, updated_at, closed_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (code, community_id, reporter_id, category_type, category, other_category,
                            description, status, priority, location, worker_id, auto_assigned, deadline, remarks)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Code,
		issue.CommunityID,
		issue.ReporterID,
		issue.CategoryType,
		issue.Category,
		issue.OtherCategory,
		issue.Description,
		issue.Status,
		issue.Priority,
		issue.Location,
		issue.WorkerID,
		issue.AutoAssigned,
		issue.Deadline,
		issue.Remarks,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *issueRepository) GetByCode(ctx context.Context, code string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE code=$1`, issueColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *issueRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Issue, error) {
	var issue domain.Issue
	if err := scanIssue(r.pool.QueryRow(ctx, query, arg), &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) UpdateWithGuard(ctx context.Context, issue *domain.Issue, guard IssueGuard) error {
	query, args := guardedUpdate(issue, guard)
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

func (r *issueRepository) CommitAssignment(ctx context.Context, issue *domain.Issue, guard IssueGuard, detachWorkerID, attachWorkerID *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query, args := guardedUpdate(issue, guard)
	cmd, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStale
	}

	if detachWorkerID != nil {
		const detach = `
            UPDATE workers SET assigned_issues = array_remove(assigned_issues, $1), updated_at = NOW()
            WHERE id = $2`
		if _, err := tx.Exec(ctx, detach, issue.ID, *detachWorkerID); err != nil {
			return err
		}
	}
	if attachWorkerID != nil {
		// remove-then-append keeps the list duplicate-free even if the
		// same issue is re-attached.
		const attach = `
            UPDATE workers
            SET assigned_issues = array_append(array_remove(assigned_issues, $1), $1), updated_at = NOW()
            WHERE id = $2 AND active_flag = TRUE`
		cmd, err := tx.Exec(ctx, attach, issue.ID, *attachWorkerID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrStale
		}
	}

	return tx.Commit(ctx)
}

// guardedUpdate builds the conditional UPDATE for the issue's mutable
// fields. The guard predicates status and, optionally, the current worker
// reference, so racing writers lose with zero rows affected.
func guardedUpdate(issue *domain.Issue, guard IssueGuard) (string, []any) {
	args := []any{
		issue.Status,
		issue.Priority,
		issue.WorkerID,
		issue.AutoAssigned,
		issue.Deadline,
		issue.Remarks,
		issue.ResolvedAt,
		issue.Rating,
		issue.Feedback,
		issue.ClosedAt,
		issue.ID,
	}
	query := `
        UPDATE issues
        SET status=$1, priority=$2, worker_id=$3, auto_assigned=$4, deadline=$5, remarks=$6,
            resolved_at=$7, rating=$8, feedback=$9, closed_at=$10, updated_at=NOW()
        WHERE id=$11`
	if guard.Status != "" {
		args = append(args, guard.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if guard.CheckWorker {
		if guard.WorkerID == nil {
			query += " AND worker_id IS NULL"
		} else {
			args = append(args, *guard.WorkerID)
			query += fmt.Sprintf(" AND worker_id=$%d", len(args))
		}
	}
	return query, args
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := fmt.Sprintf(`SELECT %s FROM issues`, issueColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CommunityID != nil {
		args = append(args, *filter.CommunityID)
		clauses = append(clauses, fmt.Sprintf("community_id=$%d", len(args)))
	}
	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		clauses = append(clauses, fmt.Sprintf("worker_id=$%d", len(args)))
	}
	if filter.CategoryType != nil {
		args = append(args, *filter.CategoryType)
		clauses = append(clauses, fmt.Sprintf("category_type=$%d", len(args)))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Location != nil {
		args = append(args, *filter.Location)
		clauses = append(clauses, fmt.Sprintf("location=$%d", len(args)))
	}
	if filter.AutoAssigned != nil {
		args = append(args, *filter.AutoAssigned)
		clauses = append(clauses, fmt.Sprintf("auto_assigned=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.UpdatedBefore != nil {
		args = append(args, *filter.UpdatedBefore)
		clauses = append(clauses, fmt.Sprintf("updated_at < $%d", len(args)))
	}
	if filter.ResolvedBefore != nil {
		args = append(args, *filter.ResolvedBefore)
		clauses = append(clauses, fmt.Sprintf("resolved_at < $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner, issue *domain.Issue) error {
	return row.Scan(
		&issue.ID,
		&issue.Code,
		&issue.CommunityID,
		&issue.ReporterID,
		&issue.CategoryType,
		&issue.Category,
		&issue.OtherCategory,
		&issue.Description,
		&issue.Status,
		&issue.Priority,
		&issue.Location,
		&issue.WorkerID,
		&issue.AutoAssigned,
		&issue.Deadline,
		&issue.Remarks,
		&issue.ResolvedAt,
		&issue.Rating,
		&issue.Feedback,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.ClosedAt,
	)
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := scanIssue(rows, &issue); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
