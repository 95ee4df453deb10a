package dto

import (
	"time"

	"github.com/peibanapp/peiban-api/internal/models"
)

// ActivityCreateRequest describes the payload for creating a new activity.
type ActivityCreateRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=128"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
	Category        string `json:"category" validate:"omitempty,oneof=exercise entertainment education travel social other"`
	Location        string `json:"location" validate:"omitempty,max=255"`
	IsOnline        bool   `json:"is_online"`
	StartTime       string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime         string `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxParticipants *int   `json:"max_participants" validate:"omitempty,gt=0"`
}

// ActivityUpdateRequest describes the payload for updating an activity.
type ActivityUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=128"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	Category        *string `json:"category" validate:"omitempty,oneof=exercise entertainment education travel social other"`
	Location        *string `json:"location" validate:"omitempty,max=255"`
	IsOnline        *bool   `json:"is_online"`
	StartTime       *string `json:"start_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime         *string `json:"end_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxParticipants *int    `json:"max_participants" validate:"omitempty,gt=0"`
	Status          *string `json:"status" validate:"omitempty,oneof=scheduled ongoing completed cancelled"`
}

// ActivityResponse is the serialized representation returned to API clients.
type ActivityResponse struct {
	ID              uint      `json:"id"`
	OrganizerID     uint      `json:"organizer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Location        string    `json:"location"`
	IsOnline        bool      `json:"is_online"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	MaxParticipants *int      `json:"max_participants"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ParticipantResponse is the serialized membership row.
type ParticipantResponse struct {
	ID         uint      `json:"id"`
	ActivityID uint      `json:"activity_id"`
	UserID     uint      `json:"user_id"`
	Status     string    `json:"status"`
	JoinedAt   time.Time `json:"joined_at"`
}

// NewActivityResponse converts a model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:              model.ID,
		OrganizerID:     model.OrganizerID,
		Title:           model.Title,
		Description:     model.Description,
		Category:        model.Category,
		Location:        model.Location,
		IsOnline:        model.IsOnline,
		StartTime:       model.StartTime,
		EndTime:         model.EndTime,
		MaxParticipants: model.MaxParticipants,
		Status:          model.Status,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewActivityResponseSlice converts a slice of models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}

// NewParticipantResponse converts a model into a DTO.
func NewParticipantResponse(model models.ActivityParticipant) ParticipantResponse {
	return ParticipantResponse{
		ID:         model.ID,
		ActivityID: model.ActivityID,
		UserID:     model.UserID,
		Status:     model.Status,
		JoinedAt:   model.JoinedAt,
	}
}

// NewParticipantResponseSlice converts a slice of models into DTOs.
func NewParticipantResponseSlice(participants []models.ActivityParticipant) []ParticipantResponse {
	responses := make([]ParticipantResponse, 0, len(participants))
	for _, participant := range participants {
		responses = append(responses, NewParticipantResponse(participant))
	}

	return responses
}
