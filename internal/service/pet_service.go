package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/observability"
	"github.com/peibanapp/peiban-api/internal/repository"
	"github.com/peibanapp/peiban-api/internal/utils"
)

var (
	// ErrPetNotFound indicates the requested pet does not exist.
	ErrPetNotFound = errors.New("pet not found")
	// ErrPetAccessDenied indicates the actor does not own the pet.
	ErrPetAccessDenied = errors.New("not allowed to access this pet")
	// ErrPetLimitReached indicates the owner already has the maximum number of pets.
	ErrPetLimitReached = errors.New("pet limit reached")
)

// PetService exposes pet profile and vitality use cases.
type PetService interface {
	Create(ctx context.Context, actor Actor, payload dto.PetCreateRequest) (dto.PetResponse, error)
	ListOwn(ctx context.Context, actor Actor, limit, offset int) ([]dto.PetResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.PetResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.PetUpdateRequest) (dto.PetResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Interact(ctx context.Context, actor Actor, id uint, payload dto.PetInteractionRequest) (dto.PetInteractionResponse, error)
	ListInteractions(ctx context.Context, actor Actor, id uint, limit, offset int) ([]dto.PetInteractionResponse, error)
}

type petService struct {
	pets      repository.PetRepository
	validator *validator.Validate
	logger    zerolog.Logger
	maxPets   int
}

// NewPetService builds the pet service. maxPets caps the number of pets a
// single owner may keep; zero or negative disables the cap.
func NewPetService(pets repository.PetRepository, validate *validator.Validate, maxPets int, logger zerolog.Logger) PetService {
	return &petService{
		pets:      pets,
		validator: validate,
		logger:    logger.With().Str("component", "pet_service").Logger(),
		maxPets:   maxPets,
	}
}

func (s *petService) Create(ctx context.Context, actor Actor, payload dto.PetCreateRequest) (dto.PetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PetResponse{}, err
	}

	if s.maxPets > 0 {
		count, err := s.pets.CountByOwner(ctx, actor.ID)
		if err != nil {
			return dto.PetResponse{}, err
		}
		if count >= int64(s.maxPets) {
			return dto.PetResponse{}, ErrPetLimitReached
		}
	}

	pet := models.Pet{
		OwnerID:     actor.ID,
		Name:        payload.Name,
		Type:        payload.Type,
		Breed:       payload.Breed,
		Age:         payload.Age,
		Description: payload.Description,
		Level:       1,
		Health:      models.PetVitalityMax,
		Happiness:   models.PetVitalityMax,
	}

	if err := s.pets.Create(ctx, &pet); err != nil {
		return dto.PetResponse{}, err
	}

	s.logger.Info().Uint("pet_id", pet.ID).Uint("owner_id", actor.ID).Msg("pet created")

	return dto.NewPetResponse(pet), nil
}

func (s *petService) ListOwn(ctx context.Context, actor Actor, limit, offset int) ([]dto.PetResponse, error) {
	pets, err := s.pets.ListByOwner(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewPetResponseSlice(pets), nil
}

func (s *petService) Get(ctx context.Context, actor Actor, id uint) (dto.PetResponse, error) {
	pet, err := s.ownedPet(ctx, actor, id)
	if err != nil {
		return dto.PetResponse{}, err
	}

	return dto.NewPetResponse(pet), nil
}

func (s *petService) Update(ctx context.Context, actor Actor, id uint, payload dto.PetUpdateRequest) (dto.PetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PetResponse{}, err
	}

	pet, err := s.ownedPet(ctx, actor, id)
	if err != nil {
		return dto.PetResponse{}, err
	}

	if payload.Name != nil {
		pet.Name = *payload.Name
	}
	if payload.Breed != nil {
		pet.Breed = *payload.Breed
	}
	if payload.Age != nil {
		pet.Age = payload.Age
	}
	if payload.Description != nil {
		pet.Description = *payload.Description
	}

	if err := s.pets.Update(ctx, &pet); err != nil {
		return dto.PetResponse{}, err
	}

	return dto.NewPetResponse(pet), nil
}

func (s *petService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.ownedPet(ctx, actor, id); err != nil {
		return err
	}

	return s.pets.Delete(ctx, id)
}

// Interact applies an interaction's effects to the pet's vitality state and
// persists both atomically. Health and happiness clamp to [0, 100] whatever
// the effect magnitudes; experience overflow cascades through level-ups.
func (s *petService) Interact(ctx context.Context, actor Actor, id uint, payload dto.PetInteractionRequest) (dto.PetInteractionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PetInteractionResponse{}, err
	}

	pet, err := s.ownedPet(ctx, actor, id)
	if err != nil {
		return dto.PetInteractionResponse{}, err
	}

	pet.Health = utils.Clamp(pet.Health+float64(payload.HealthEffect), models.PetVitalityMin, models.PetVitalityMax)
	pet.Happiness = utils.Clamp(pet.Happiness+float64(payload.HappinessEffect), models.PetVitalityMin, models.PetVitalityMax)

	pet.Experience += payload.ExperienceGain
	for pet.Experience >= pet.Level*models.PetLevelCostBase {
		pet.Experience -= pet.Level * models.PetLevelCostBase
		pet.Level++
	}

	interaction := models.PetInteraction{
		PetID:           pet.ID,
		Type:            payload.Type,
		Description:     payload.Description,
		HealthEffect:    payload.HealthEffect,
		HappinessEffect: payload.HappinessEffect,
		ExperienceGain:  payload.ExperienceGain,
	}

	if err := s.pets.SaveInteraction(ctx, &pet, &interaction); err != nil {
		return dto.PetInteractionResponse{}, err
	}

	observability.PetInteractions().WithLabelValues(interaction.Type).Inc()

	s.logger.Info().
		Uint("pet_id", pet.ID).
		Str("type", interaction.Type).
		Int("level", pet.Level).
		Msg("pet interaction applied")

	return dto.NewPetInteractionResponse(interaction, &pet), nil
}

func (s *petService) ListInteractions(ctx context.Context, actor Actor, id uint, limit, offset int) ([]dto.PetInteractionResponse, error) {
	if _, err := s.ownedPet(ctx, actor, id); err != nil {
		return nil, err
	}

	interactions, err := s.pets.ListInteractions(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewPetInteractionResponseSlice(interactions), nil
}

// ownedPet loads the pet and checks ownership. Admins may read any pet.
func (s *petService) ownedPet(ctx context.Context, actor Actor, id uint) (models.Pet, error) {
	pet, err := s.pets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Pet{}, ErrPetNotFound
		}
		return models.Pet{}, err
	}

	if pet.OwnerID != actor.ID && !actor.IsAdmin() {
		return models.Pet{}, ErrPetAccessDenied
	}

	return pet, nil
}
