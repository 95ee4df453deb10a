package models

import "time"

// Guide difficulty levels.
const (
	GuideDifficultyBeginner     = "beginner"
	GuideDifficultyIntermediate = "intermediate"
	GuideDifficultyAdvanced     = "advanced"
)

// Guide is a how-to article made of ordered steps.
type Guide struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	AuthorID    uint        `gorm:"index;not null" json:"author_id"`
	Title       string      `gorm:"size:128;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Category    string      `gorm:"size:32;index" json:"category"`
	Difficulty  string      `gorm:"size:16;not null;default:beginner" json:"difficulty"`
	IsPublished bool        `gorm:"index;not null;default:false" json:"is_published"`
	Steps       []GuideStep `gorm:"constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// GuideStep is one ordered step of a guide. Content is sanitized HTML.
type GuideStep struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GuideID     uint      `gorm:"index;not null" json:"guide_id"`
	Order       int       `gorm:"column:step_order;not null" json:"order"`
	Title       string    `gorm:"size:128;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Content     string    `gorm:"type:text" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
