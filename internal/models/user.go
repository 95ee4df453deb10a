package models

import "time"

// User roles recognised by the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application account identified by a phone number.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Phone     string     `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Nickname  string     `gorm:"size:64;not null" json:"nickname"`
	AvatarURL string     `gorm:"size:512" json:"avatar_url"`
	Role      string     `gorm:"size:16;not null;default:user" json:"role"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user carries the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
