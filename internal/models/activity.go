package models

import "time"

// Activity lifecycle states.
const (
	ActivityStatusScheduled = "scheduled"
	ActivityStatusOngoing   = "ongoing"
	ActivityStatusCompleted = "completed"
	ActivityStatusCancelled = "cancelled"
)

// Participant states. A cancelled row is retained for history and never
// counts against capacity or the single-membership rule.
const (
	ParticipantStatusRegistered = "registered"
	ParticipantStatusAttended   = "attended"
	ParticipantStatusCancelled  = "cancelled"
)

// Activity is a capacity-bounded group event. MaxParticipants nil means the
// activity is unbounded.
type Activity struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrganizerID     uint      `gorm:"index;not null" json:"organizer_id"`
	Title           string    `gorm:"size:128;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Category        string    `gorm:"size:32" json:"category"`
	Location        string    `gorm:"size:255" json:"location"`
	IsOnline        bool      `gorm:"not null;default:false" json:"is_online"`
	StartTime       time.Time `gorm:"index;not null" json:"start_time"`
	EndTime         time.Time `gorm:"not null" json:"end_time"`
	MaxParticipants *int      `json:"max_participants"`
	Status          string    `gorm:"size:16;index;not null;default:scheduled" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ActivityParticipant links a user to an activity. At most one row per
// (activity, user) pair may be in a non-cancelled state at any time; the
// uniqueness predicate is status-based, deliberately not a unique index, so
// that rejoining after cancellation inserts a fresh row.
type ActivityParticipant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"index;not null" json:"activity_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Status     string    `gorm:"size:16;index;not null;default:registered" json:"status"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
