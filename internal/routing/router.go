// Package routing maps issue categories to the worker skill required to
// resolve them. The tables are compile-time constants; the functions are
// pure and perform no I/O.
package routing

import "github.com/spec-kit/property-service/internal/domain"

// Resident issue categories.
const (
	ResidentCategoryPlumbing    = "PLUMBING"
	ResidentCategoryElectrical  = "ELECTRICAL"
	ResidentCategoryCarpentry   = "CARPENTRY"
	ResidentCategorySecurity    = "SECURITY"
	ResidentCategoryCleaning    = "CLEANING"
	ResidentCategoryPestControl = "PEST_CONTROL"
	ResidentCategoryOther       = "OTHER"
)

// Community issue categories.
const (
	CommunityCategoryStreetlight = "STREETLIGHT"
	CommunityCategoryElevator    = "ELEVATOR"
	CommunityCategoryGarden      = "GARDEN"
	CommunityCategorySecurity    = "SECURITY"
	CommunityCategoryParking     = "PARKING"
	CommunityCategoryDrainage    = "DRAINAGE"
	CommunityCategoryCleaning    = "CLEANING"
	CommunityCategoryOther       = "OTHER"
)

// CategoryOther is the catch-all value shared by both tables.
const CategoryOther = "OTHER"

// FallbackSkill is tried when no worker holds the precise skill.
const FallbackSkill = domain.SkillGeneralMaintenance

var residentSkills = map[string]domain.Skill{
	ResidentCategoryPlumbing:    domain.SkillPlumber,
	ResidentCategoryElectrical:  domain.SkillElectrician,
	ResidentCategoryCarpentry:   domain.SkillCarpenter,
	ResidentCategorySecurity:    domain.SkillSecurity,
	ResidentCategoryCleaning:    domain.SkillHousekeeping,
	ResidentCategoryPestControl: domain.SkillPestControl,
	ResidentCategoryOther:       domain.SkillGeneralMaintenance,
}

var communitySkills = map[string]domain.Skill{
	CommunityCategoryStreetlight: domain.SkillElectrician,
	CommunityCategoryElevator:    domain.SkillGeneralMaintenance,
	CommunityCategoryGarden:      domain.SkillGardener,
	CommunityCategorySecurity:    domain.SkillSecurity,
	CommunityCategoryParking:     domain.SkillSecurity,
	CommunityCategoryDrainage:    domain.SkillPlumber,
	CommunityCategoryCleaning:    domain.SkillHousekeeping,
	CommunityCategoryOther:       domain.SkillGeneralMaintenance,
}

// relatedResidentCategories groups categories reporters routinely confuse;
// the duplicate detector treats them as equivalent within its window.
var relatedResidentCategories = map[string][]string{
	ResidentCategoryPlumbing:    {ResidentCategoryElectrical},
	ResidentCategoryElectrical:  {ResidentCategoryPlumbing},
	ResidentCategoryCleaning:    {ResidentCategoryPestControl},
	ResidentCategoryPestControl: {ResidentCategoryCleaning},
}

// RequiredSkill resolves the skill needed for a category. Unknown
// categories fall back to general maintenance.
func RequiredSkill(categoryType domain.CategoryType, category string) domain.Skill {
	var table map[string]domain.Skill
	switch categoryType {
	case domain.CategoryTypeResident:
		table = residentSkills
	case domain.CategoryTypeCommunity:
		table = communitySkills
	default:
		return FallbackSkill
	}
	if skill, ok := table[category]; ok {
		return skill
	}
	return FallbackSkill
}

// ValidCategory reports whether category belongs to the table for the
// given type.
func ValidCategory(categoryType domain.CategoryType, category string) bool {
	switch categoryType {
	case domain.CategoryTypeResident:
		_, ok := residentSkills[category]
		return ok
	case domain.CategoryTypeCommunity:
		_, ok := communitySkills[category]
		return ok
	}
	return false
}

// RelatedCategories returns the category itself plus any related
// categories considered equivalent for duplicate detection. Only Resident
// issues carry related sets.
func RelatedCategories(categoryType domain.CategoryType, category string) []string {
	result := []string{category}
	if categoryType != domain.CategoryTypeResident {
		return result
	}
	return append(result, relatedResidentCategories[category]...)
}
