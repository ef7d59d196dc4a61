package domain

import "time"

// Skill labels a worker competency matched against issue categories.
type Skill string

const (
	SkillPlumber            Skill = "PLUMBER"
	SkillElectrician        Skill = "ELECTRICIAN"
	SkillCarpenter          Skill = "CARPENTER"
	SkillSecurity           Skill = "SECURITY"
	SkillHousekeeping       Skill = "HOUSEKEEPING"
	SkillPestControl        Skill = "PEST_CONTROL"
	SkillGardener           Skill = "GARDENER"
	SkillGeneralMaintenance Skill = "GENERAL_MAINTENANCE"
)

// ValidSkill reports whether s is a known skill label.
func ValidSkill(s Skill) bool {
	switch s {
	case SkillPlumber, SkillElectrician, SkillCarpenter, SkillSecurity,
		SkillHousekeeping, SkillPestControl, SkillGardener, SkillGeneralMaintenance:
		return true
	}
	return false
}

// Worker models a maintenance worker eligible for issue assignment.
type Worker struct {
	ID             string
	CommunityID    string
	Name           string
	Email          string
	JobRoles       []Skill
	AssignedIssues []string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Load is the open-ticket count used by the selector.
func (w *Worker) Load() int {
	return len(w.AssignedIssues)
}

// HasSkill reports whether the worker holds the given skill label.
func (w *Worker) HasSkill(skill Skill) bool {
	for _, role := range w.JobRoles {
		if role == skill {
			return true
		}
	}
	return false
}
