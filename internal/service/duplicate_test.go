package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/routing"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

func newDuplicateFixture(t *testing.T) (*fakeIssueRepo, *DuplicateDetector, *fakeClock) {
	t.Helper()
	clock := newFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	issues := newFakeIssueRepo(newFakeWorkerRepo(), clock)
	return issues, NewDuplicateDetector(issues, clock), clock
}

func residentIssue(reporterID, category, location string) *domain.Issue {
	return &domain.Issue{
		CommunityID:  "c-001",
		ReporterID:   reporterID,
		CategoryType: domain.CategoryTypeResident,
		Category:     category,
		Status:       domain.IssueStatusPendingAssignment,
		Priority:     domain.IssuePriorityNormal,
		Location:     location,
	}
}

func TestDuplicateSameReporterSameCategory(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	existing := residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101")
	require.NoError(t, issues.Create(context.Background(), existing))

	clock.Advance(23 * time.Hour)
	err := detector.Check(context.Background(), residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101"))
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateIssue))
}

func TestDuplicateWindowExpired(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	existing := residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101")
	require.NoError(t, issues.Create(context.Background(), existing))

	clock.Advance(25 * time.Hour)
	err := detector.Check(context.Background(), residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101"))
	require.NoError(t, err)
}

func TestDuplicateClosedIssueDoesNotBlock(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	existing := residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101")
	existing.Status = domain.IssueStatusClosed
	require.NoError(t, issues.Create(context.Background(), existing))

	clock.Advance(time.Hour)
	err := detector.Check(context.Background(), residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101"))
	require.NoError(t, err)
}

func TestDuplicateRelatedCategorySameLocation(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	// a different reporter in the same unit reported the related category
	existing := residentIssue("r-001", routing.ResidentCategoryElectrical, "A-101")
	require.NoError(t, issues.Create(context.Background(), existing))

	clock.Advance(time.Hour)
	err := detector.Check(context.Background(), residentIssue("r-002", routing.ResidentCategoryPlumbing, "A-101"))
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateIssue))
}

func TestDuplicateUnrelatedCategoryPasses(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	existing := residentIssue("r-001", routing.ResidentCategoryCarpentry, "A-101")
	require.NoError(t, issues.Create(context.Background(), existing))

	clock.Advance(time.Hour)
	err := detector.Check(context.Background(), residentIssue("r-002", routing.ResidentCategoryPlumbing, "A-101"))
	require.NoError(t, err)
}

func TestDuplicateDifferentLocationPasses(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	existing := residentIssue("r-001", routing.ResidentCategoryPlumbing, "A-101")
	require.NoError(t, issues.Create(context.Background(), existing))

	clock.Advance(time.Hour)
	err := detector.Check(context.Background(), residentIssue("r-002", routing.ResidentCategoryPlumbing, "B-202"))
	require.NoError(t, err)
}

func TestDuplicateCommunityLocationCategory(t *testing.T) {
	issues, detector, clock := newDuplicateFixture(t)

	existing := &domain.Issue{
		CommunityID:  "c-001",
		ReporterID:   "s-001",
		CategoryType: domain.CategoryTypeCommunity,
		Category:     routing.CommunityCategoryStreetlight,
		Status:       domain.IssueStatusAssigned,
		Priority:     domain.IssuePriorityNormal,
		Location:     "Block B entrance",
	}
	require.NoError(t, issues.Create(context.Background(), existing))
	clock.Advance(time.Hour)

	dup := *existing
	dup.ReporterID = "s-002"
	err := detector.Check(context.Background(), &dup)
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateIssue))

	other := *existing
	other.Location = "Block C entrance"
	require.NoError(t, detector.Check(context.Background(), &other))
}
