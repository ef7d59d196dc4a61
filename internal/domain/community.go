package domain

import "time"

// Community represents a managed property (the tenancy boundary).
type Community struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
