package service

import (
	"context"
	"time"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/routing"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// duplicateWindow is how far back a matching open issue blocks a new one.
const duplicateWindow = 24 * time.Hour

// DuplicateDetector refuses issues that look like re-reports of an open
// issue raised within the window.
type DuplicateDetector struct {
	issues repository.IssueRepository
	clock  Clock
}

// NewDuplicateDetector constructs the detector.
func NewDuplicateDetector(issues repository.IssueRepository, clock Clock) *DuplicateDetector {
	if clock == nil {
		clock = SystemClock()
	}
	return &DuplicateDetector{issues: issues, clock: clock}
}

// Check returns a DUPLICATE_ISSUE error when a matching open issue exists.
// Resident issues match on reporter+category, and additionally on
// location+related-category because reporters routinely miscategorize.
// Community issues match on location+category.
func (d *DuplicateDetector) Check(ctx context.Context, issue *domain.Issue) error {
	windowStart := d.clock.Now().Add(-duplicateWindow)

	var filters []repository.IssueFilter
	switch issue.CategoryType {
	case domain.CategoryTypeResident:
		filters = append(filters, repository.IssueFilter{
			CommunityID:  &issue.CommunityID,
			ReporterID:   &issue.ReporterID,
			CategoryType: &issue.CategoryType,
			Categories:   []string{issue.Category},
			Statuses:     domain.OpenStatuses(),
			CreatedFrom:  &windowStart,
			Limit:        1,
		})
		related := routing.RelatedCategories(issue.CategoryType, issue.Category)
		if len(related) > 1 && issue.Location != "" {
			filters = append(filters, repository.IssueFilter{
				CommunityID:  &issue.CommunityID,
				CategoryType: &issue.CategoryType,
				Categories:   related,
				Location:     &issue.Location,
				Statuses:     domain.OpenStatuses(),
				CreatedFrom:  &windowStart,
				Limit:        1,
			})
		}
	case domain.CategoryTypeCommunity:
		filters = append(filters, repository.IssueFilter{
			CommunityID:  &issue.CommunityID,
			CategoryType: &issue.CategoryType,
			Categories:   []string{issue.Category},
			Location:     &issue.Location,
			Statuses:     domain.OpenStatuses(),
			CreatedFrom:  &windowStart,
			Limit:        1,
		})
	}

	for _, filter := range filters {
		existing, err := d.issues.ListWithFilter(ctx, filter)
		if err != nil {
			return apperrors.NewStorageUnavailable(err)
		}
		if len(existing) > 0 {
			return apperrors.NewDuplicateIssue(map[string]any{
				"existing_issue_id":   existing[0].ID,
				"existing_issue_code": existing[0].Code,
			})
		}
	}
	return nil
}
