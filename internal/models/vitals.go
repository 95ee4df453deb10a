package models

import (
	"time"

	"gorm.io/datatypes"
)

// Health record types accepted by the API. Weight, sleep and medication are
// stored but never threshold-evaluated.
const (
	RecordTypeBloodPressure = "blood_pressure"
	RecordTypeHeartRate     = "heart_rate"
	RecordTypeBloodSugar    = "blood_sugar"
	RecordTypeTemperature   = "temperature"
	RecordTypeWeight        = "weight"
	RecordTypeSleep         = "sleep"
	RecordTypeMedication    = "medication"
)

// Alert lifecycle states. Resolved and dismissed are terminal.
const (
	AlertStatusActive    = "active"
	AlertStatusResolved  = "resolved"
	AlertStatusDismissed = "dismissed"
)

// Alert severities.
const (
	AlertSeverityLow    = "low"
	AlertSeverityMedium = "medium"
	AlertSeverityHigh   = "high"
)

// AlertTypeVitalSigns marks alerts derived from threshold evaluation.
const AlertTypeVitalSigns = "abnormal_vital_signs"

// HealthRecord is a single measurement reported for a user. Value is kept as
// the raw wire string: scalar types carry a decimal number, blood pressure a
// "systolic/diastolic" pair, medication free text.
type HealthRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	RecordType string    `gorm:"size:32;index;not null" json:"record_type"`
	Value      string    `gorm:"size:64;not null" json:"value"`
	Unit       string    `gorm:"size:16;not null" json:"unit"`
	MeasuredAt time.Time `gorm:"index;not null" json:"measured_at"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HealthAlert is created as a side effect of measurement evaluation. Its
// lifecycle is active -> resolved|dismissed, stamping ResolvedAt on the way out.
type HealthAlert struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     uint              `gorm:"index;not null" json:"user_id"`
	AlertType  string            `gorm:"size:32;not null" json:"alert_type"`
	Severity   string            `gorm:"size:16;not null" json:"severity"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	Status     string            `gorm:"size:16;index;not null;default:active" json:"status"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
	ResolvedAt *time.Time        `json:"resolved_at"`
}
