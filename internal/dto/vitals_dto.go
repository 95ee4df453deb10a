package dto

import (
	"time"

	"github.com/peibanapp/peiban-api/internal/models"
)

// HealthRecordCreateRequest describes the payload for recording a measurement.
// Value keeps the wire format: a decimal number for scalar types, a
// "systolic/diastolic" pair for blood pressure, free text for medication.
type HealthRecordCreateRequest struct {
	UserID     uint   `json:"user_id" validate:"required"`
	RecordType string `json:"record_type" validate:"required,oneof=blood_pressure heart_rate blood_sugar temperature weight sleep medication"`
	Value      string `json:"value" validate:"required,max=64"`
	Unit       string `json:"unit" validate:"required,max=16"`
	MeasuredAt string `json:"measured_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Notes      string `json:"notes" validate:"omitempty,max=2000"`
}

// HealthRecordUpdateRequest describes an administrative correction.
type HealthRecordUpdateRequest struct {
	Value      *string `json:"value" validate:"omitempty,max=64"`
	Unit       *string `json:"unit" validate:"omitempty,max=16"`
	MeasuredAt *string `json:"measured_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

// AlertStatusUpdateRequest moves an active alert to a terminal state.
type AlertStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=resolved dismissed"`
}

// HealthRecordResponse is the serialized representation returned to API clients.
type HealthRecordResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	RecordType string    `json:"record_type"`
	Value      string    `json:"value"`
	Unit       string    `json:"unit"`
	MeasuredAt time.Time `json:"measured_at"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// HealthAlertResponse is the serialized alert returned to API clients.
type HealthAlertResponse struct {
	ID         uint                   `json:"id"`
	UserID     uint                   `json:"user_id"`
	AlertType  string                 `json:"alert_type"`
	Severity   string                 `json:"severity"`
	Message    string                 `json:"message"`
	Status     string                 `json:"status"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	ResolvedAt *time.Time             `json:"resolved_at"`
}

// HealthStatsResponse summarises measurements over a window.
type HealthStatsResponse struct {
	UserID     uint                   `json:"user_id"`
	RecordType string                 `json:"record_type"`
	StartDate  time.Time              `json:"start_date"`
	EndDate    time.Time              `json:"end_date"`
	Data       []HealthRecordResponse `json:"data"`
	Summary    HealthStatsSummary     `json:"summary"`
}

// HealthStatsSummary carries the aggregate figures. Min/Max/Avg are omitted
// for count-only types such as medication.
type HealthStatsSummary struct {
	Count int      `json:"count"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
}

// NewHealthRecordResponse converts a model into a DTO.
func NewHealthRecordResponse(model models.HealthRecord) HealthRecordResponse {
	return HealthRecordResponse{
		ID:         model.ID,
		UserID:     model.UserID,
		RecordType: model.RecordType,
		Value:      model.Value,
		Unit:       model.Unit,
		MeasuredAt: model.MeasuredAt,
		Notes:      model.Notes,
		CreatedAt:  model.CreatedAt,
	}
}

// NewHealthRecordResponseSlice converts a slice of models into DTOs.
func NewHealthRecordResponseSlice(records []models.HealthRecord) []HealthRecordResponse {
	responses := make([]HealthRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewHealthRecordResponse(record))
	}

	return responses
}

// NewHealthAlertResponse converts a model into a DTO.
func NewHealthAlertResponse(model models.HealthAlert) HealthAlertResponse {
	return HealthAlertResponse{
		ID:         model.ID,
		UserID:     model.UserID,
		AlertType:  model.AlertType,
		Severity:   model.Severity,
		Message:    model.Message,
		Status:     model.Status,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
		ResolvedAt: model.ResolvedAt,
	}
}

// NewHealthAlertResponseSlice converts a slice of models into DTOs.
func NewHealthAlertResponseSlice(alerts []models.HealthAlert) []HealthAlertResponse {
	responses := make([]HealthAlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, NewHealthAlertResponse(alert))
	}

	return responses
}
