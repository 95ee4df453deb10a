package service

import "github.com/peibanapp/peiban-api/internal/models"

// Actor represents the authenticated principal performing an operation.
// Authentication itself happens at the transport layer; services only ever
// see a resolved id and role.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor carries the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
