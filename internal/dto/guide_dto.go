package dto

import (
	"time"

	"github.com/peibanapp/peiban-api/internal/models"
)

// GuideCreateRequest describes the payload for creating a guide.
type GuideCreateRequest struct {
	Title       string                   `json:"title" validate:"required,min=1,max=128"`
	Description string                   `json:"description" validate:"omitempty,max=5000"`
	Category    string                   `json:"category" validate:"omitempty,max=32"`
	Difficulty  string                   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Steps       []GuideStepCreateRequest `json:"steps" validate:"omitempty,dive"`
}

// GuideUpdateRequest describes the payload for updating guide metadata.
type GuideUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Category    *string `json:"category" validate:"omitempty,max=32"`
	Difficulty  *string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	IsPublished *bool   `json:"is_published"`
}

// GuideStepCreateRequest describes one step of a guide.
type GuideStepCreateRequest struct {
	Order       int    `json:"order" validate:"gte=0"`
	Title       string `json:"title" validate:"required,min=1,max=128"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Content     string `json:"content" validate:"omitempty,max=20000"`
}

// GuideStepUpdateRequest describes the payload for updating a step.
type GuideStepUpdateRequest struct {
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Content     *string `json:"content" validate:"omitempty,max=20000"`
}

// GuideResponse is the serialized representation returned to API clients.
type GuideResponse struct {
	ID          uint                `json:"id"`
	AuthorID    uint                `json:"author_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Difficulty  string              `json:"difficulty"`
	IsPublished bool                `json:"is_published"`
	Steps       []GuideStepResponse `json:"steps,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// GuideStepResponse is the serialized step.
type GuideStepResponse struct {
	ID          uint   `json:"id"`
	GuideID     uint   `json:"guide_id"`
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// NewGuideResponse converts a model into a DTO.
func NewGuideResponse(model models.Guide) GuideResponse {
	response := GuideResponse{
		ID:          model.ID,
		AuthorID:    model.AuthorID,
		Title:       model.Title,
		Description: model.Description,
		Category:    model.Category,
		Difficulty:  model.Difficulty,
		IsPublished: model.IsPublished,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	for _, step := range model.Steps {
		response.Steps = append(response.Steps, NewGuideStepResponse(step))
	}

	return response
}

// NewGuideResponseSlice converts a slice of models into DTOs.
func NewGuideResponseSlice(guides []models.Guide) []GuideResponse {
	responses := make([]GuideResponse, 0, len(guides))
	for _, guide := range guides {
		responses = append(responses, NewGuideResponse(guide))
	}

	return responses
}

// NewGuideStepResponse converts a model into a DTO.
func NewGuideStepResponse(model models.GuideStep) GuideStepResponse {
	return GuideStepResponse{
		ID:          model.ID,
		GuideID:     model.GuideID,
		Order:       model.Order,
		Title:       model.Title,
		Description: model.Description,
		Content:     model.Content,
	}
}
