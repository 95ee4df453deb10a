package dto

import (
	"time"

	"github.com/peibanapp/peiban-api/internal/models"
)

// PetCreateRequest describes the payload for creating a new pet.
type PetCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=64"`
	Type        string `json:"type" validate:"required,oneof=cat dog bird rabbit other"`
	Breed       string `json:"breed" validate:"omitempty,max=64"`
	Age         *int   `json:"age" validate:"omitempty,gte=0"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// PetUpdateRequest describes the payload for updating a pet's profile fields.
// Vitality state is never updated directly; it only moves through interactions.
type PetUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=64"`
	Breed       *string `json:"breed" validate:"omitempty,max=64"`
	Age         *int    `json:"age" validate:"omitempty,gte=0"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// PetInteractionRequest describes an interaction applied to a pet.
type PetInteractionRequest struct {
	Type            string `json:"type" validate:"required,min=1,max=32"`
	Description     string `json:"description" validate:"omitempty,max=2000"`
	HealthEffect    int    `json:"health_effect"`
	HappinessEffect int    `json:"happiness_effect"`
	ExperienceGain  int    `json:"experience_gain"`
}

// PetResponse is the serialized representation returned to API clients.
type PetResponse struct {
	ID          uint      `json:"id"`
	OwnerID     uint      `json:"owner_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Breed       string    `json:"breed"`
	Age         *int      `json:"age"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	Health      float64   `json:"health"`
	Happiness   float64   `json:"happiness"`
	Experience  int       `json:"experience"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PetInteractionResponse is the serialized interaction record.
type PetInteractionResponse struct {
	ID              uint         `json:"id"`
	PetID           uint         `json:"pet_id"`
	Type            string       `json:"type"`
	Description     string       `json:"description"`
	HealthEffect    int          `json:"health_effect"`
	HappinessEffect int          `json:"happiness_effect"`
	ExperienceGain  int          `json:"experience_gain"`
	CreatedAt       time.Time    `json:"created_at"`
	Pet             *PetResponse `json:"pet,omitempty"`
}

// NewPetResponse converts a model into a DTO.
func NewPetResponse(model models.Pet) PetResponse {
	return PetResponse{
		ID:          model.ID,
		OwnerID:     model.OwnerID,
		Name:        model.Name,
		Type:        model.Type,
		Breed:       model.Breed,
		Age:         model.Age,
		Description: model.Description,
		Level:       model.Level,
		Health:      model.Health,
		Happiness:   model.Happiness,
		Experience:  model.Experience,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewPetResponseSlice converts a slice of models into DTOs.
func NewPetResponseSlice(pets []models.Pet) []PetResponse {
	responses := make([]PetResponse, 0, len(pets))
	for _, pet := range pets {
		responses = append(responses, NewPetResponse(pet))
	}

	return responses
}

// NewPetInteractionResponse converts a model into a DTO, optionally attaching
// the resulting pet state.
func NewPetInteractionResponse(model models.PetInteraction, pet *models.Pet) PetInteractionResponse {
	response := PetInteractionResponse{
		ID:              model.ID,
		PetID:           model.PetID,
		Type:            model.Type,
		Description:     model.Description,
		HealthEffect:    model.HealthEffect,
		HappinessEffect: model.HappinessEffect,
		ExperienceGain:  model.ExperienceGain,
		CreatedAt:       model.CreatedAt,
	}
	if pet != nil {
		converted := NewPetResponse(*pet)
		response.Pet = &converted
	}

	return response
}

// NewPetInteractionResponseSlice converts a slice of models into DTOs.
func NewPetInteractionResponseSlice(interactions []models.PetInteraction) []PetInteractionResponse {
	responses := make([]PetInteractionResponse, 0, len(interactions))
	for _, interaction := range interactions {
		responses = append(responses, NewPetInteractionResponse(interaction, nil))
	}

	return responses
}
