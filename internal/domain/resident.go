package domain

import "time"

// Resident is the domain model for unit occupants who report issues.
type Resident struct {
	ID          string
	CommunityID string
	Name        string
	Email       string
	UnitCode    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
