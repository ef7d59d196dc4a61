package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-service/internal/domain"
)

func TestRequiredSkill(t *testing.T) {
	cases := []struct {
		name         string
		categoryType domain.CategoryType
		category     string
		want         domain.Skill
	}{
		{"resident plumbing", domain.CategoryTypeResident, ResidentCategoryPlumbing, domain.SkillPlumber},
		{"resident electrical", domain.CategoryTypeResident, ResidentCategoryElectrical, domain.SkillElectrician},
		{"resident pest control", domain.CategoryTypeResident, ResidentCategoryPestControl, domain.SkillPestControl},
		{"resident other", domain.CategoryTypeResident, ResidentCategoryOther, domain.SkillGeneralMaintenance},
		{"community streetlight", domain.CategoryTypeCommunity, CommunityCategoryStreetlight, domain.SkillElectrician},
		{"community elevator", domain.CategoryTypeCommunity, CommunityCategoryElevator, domain.SkillGeneralMaintenance},
		{"community garden", domain.CategoryTypeCommunity, CommunityCategoryGarden, domain.SkillGardener},
		{"community parking", domain.CategoryTypeCommunity, CommunityCategoryParking, domain.SkillSecurity},
		{"community drainage", domain.CategoryTypeCommunity, CommunityCategoryDrainage, domain.SkillPlumber},
		{"unknown category falls back", domain.CategoryTypeResident, "NOT_A_CATEGORY", FallbackSkill},
		{"unknown type falls back", domain.CategoryType("BOGUS"), ResidentCategoryPlumbing, FallbackSkill},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RequiredSkill(tc.categoryType, tc.category))
		})
	}
}

func TestValidCategory(t *testing.T) {
	require.True(t, ValidCategory(domain.CategoryTypeResident, ResidentCategoryCarpentry))
	require.True(t, ValidCategory(domain.CategoryTypeCommunity, CommunityCategoryDrainage))

	// categories do not cross table boundaries
	require.False(t, ValidCategory(domain.CategoryTypeResident, CommunityCategoryStreetlight))
	require.False(t, ValidCategory(domain.CategoryTypeCommunity, ResidentCategoryPlumbing))

	// SECURITY, CLEANING and OTHER exist in both tables
	require.True(t, ValidCategory(domain.CategoryTypeResident, ResidentCategorySecurity))
	require.True(t, ValidCategory(domain.CategoryTypeCommunity, CommunityCategorySecurity))
	require.True(t, ValidCategory(domain.CategoryTypeResident, CategoryOther))
	require.True(t, ValidCategory(domain.CategoryTypeCommunity, CategoryOther))

	require.False(t, ValidCategory(domain.CategoryType("BOGUS"), ResidentCategoryPlumbing))
}

func TestRelatedCategories(t *testing.T) {
	require.ElementsMatch(t,
		[]string{ResidentCategoryPlumbing, ResidentCategoryElectrical},
		RelatedCategories(domain.CategoryTypeResident, ResidentCategoryPlumbing))
	require.ElementsMatch(t,
		[]string{ResidentCategoryCleaning, ResidentCategoryPestControl},
		RelatedCategories(domain.CategoryTypeResident, ResidentCategoryCleaning))

	// no related set means just the category itself
	require.Equal(t, []string{ResidentCategoryCarpentry},
		RelatedCategories(domain.CategoryTypeResident, ResidentCategoryCarpentry))

	// community categories never expand
	require.Equal(t, []string{CommunityCategoryStreetlight},
		RelatedCategories(domain.CategoryTypeCommunity, CommunityCategoryStreetlight))
}
