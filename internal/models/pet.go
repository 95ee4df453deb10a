package models

import "time"

// Pet vitality bounds and leveling cost base.
const (
	PetVitalityMin   = 0
	PetVitalityMax   = 100
	PetLevelCostBase = 100
)

// Pet is a virtual companion owned by exactly one user. Health and happiness
// stay within [PetVitalityMin, PetVitalityMax]; experience is consumed by
// level-ups so that experience < level*PetLevelCostBase always holds.
type Pet struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Breed       string    `gorm:"size:64" json:"breed"`
	Age         *int      `json:"age"`
	Description string    `gorm:"type:text" json:"description"`
	Level       int       `gorm:"not null;default:1" json:"level"`
	Health      float64   `gorm:"not null;default:100" json:"health"`
	Happiness   float64   `gorm:"not null;default:100" json:"happiness"`
	Experience  int       `gorm:"not null;default:0" json:"experience"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PetInteraction is an immutable event applied to a pet. It records the
// effect deltas as submitted; the resulting pet state lives on the Pet row.
type PetInteraction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PetID           uint      `gorm:"index;not null" json:"pet_id"`
	Type            string    `gorm:"size:32;not null" json:"type"`
	Description     string    `gorm:"type:text" json:"description"`
	HealthEffect    int       `gorm:"not null;default:0" json:"health_effect"`
	HappinessEffect int       `gorm:"not null;default:0" json:"happiness_effect"`
	ExperienceGain  int       `gorm:"not null;default:0" json:"experience_gain"`
	CreatedAt       time.Time `json:"created_at"`
}
