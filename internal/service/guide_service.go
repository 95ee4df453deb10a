package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
)

var (
	// ErrGuideNotFound indicates the requested guide does not exist.
	ErrGuideNotFound = errors.New("guide not found")
	// ErrGuideStepNotFound indicates the requested step does not exist.
	ErrGuideStepNotFound = errors.New("guide step not found")
	// ErrGuideAccessDenied indicates the actor is not the author.
	ErrGuideAccessDenied = errors.New("not allowed to modify this guide")
)

// GuideService exposes how-to guide use cases.
type GuideService interface {
	Create(ctx context.Context, actor Actor, payload dto.GuideCreateRequest) (dto.GuideResponse, error)
	List(ctx context.Context, filter repository.GuideFilter) ([]dto.GuideResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.GuideResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.GuideUpdateRequest) (dto.GuideResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	AddStep(ctx context.Context, actor Actor, guideID uint, payload dto.GuideStepCreateRequest) (dto.GuideStepResponse, error)
	UpdateStep(ctx context.Context, actor Actor, guideID, stepID uint, payload dto.GuideStepUpdateRequest) (dto.GuideStepResponse, error)
	DeleteStep(ctx context.Context, actor Actor, guideID, stepID uint) error
}

type guideService struct {
	guides    repository.GuideRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewGuideService builds the guide service. Step content is author-supplied
// rich text, so it passes through a UGC sanitizer before persistence.
func NewGuideService(guides repository.GuideRepository, validate *validator.Validate, logger zerolog.Logger) GuideService {
	return &guideService{
		guides:    guides,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "guide_service").Logger(),
	}
}

func (s *guideService) Create(ctx context.Context, actor Actor, payload dto.GuideCreateRequest) (dto.GuideResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GuideResponse{}, err
	}

	guide := models.Guide{
		AuthorID:    actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Difficulty:  payload.Difficulty,
	}

	for _, step := range payload.Steps {
		guide.Steps = append(guide.Steps, models.GuideStep{
			Order:       step.Order,
			Title:       step.Title,
			Description: step.Description,
			Content:     s.sanitizer.Sanitize(step.Content),
		})
	}

	if err := s.guides.Create(ctx, &guide); err != nil {
		return dto.GuideResponse{}, err
	}

	s.logger.Info().Uint("guide_id", guide.ID).Uint("author_id", actor.ID).Msg("guide created")

	return dto.NewGuideResponse(guide), nil
}

func (s *guideService) List(ctx context.Context, filter repository.GuideFilter) ([]dto.GuideResponse, int64, error) {
	guides, total, err := s.guides.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewGuideResponseSlice(guides), total, nil
}

func (s *guideService) Get(ctx context.Context, id uint) (dto.GuideResponse, error) {
	guide, err := s.guides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GuideResponse{}, ErrGuideNotFound
		}
		return dto.GuideResponse{}, err
	}

	return dto.NewGuideResponse(guide), nil
}

func (s *guideService) Update(ctx context.Context, actor Actor, id uint, payload dto.GuideUpdateRequest) (dto.GuideResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GuideResponse{}, err
	}

	guide, err := s.authoredGuide(ctx, actor, id)
	if err != nil {
		return dto.GuideResponse{}, err
	}

	if payload.Title != nil {
		guide.Title = *payload.Title
	}
	if payload.Description != nil {
		guide.Description = *payload.Description
	}
	if payload.Category != nil {
		guide.Category = *payload.Category
	}
	if payload.Difficulty != nil {
		guide.Difficulty = *payload.Difficulty
	}
	if payload.IsPublished != nil {
		guide.IsPublished = *payload.IsPublished
	}

	if err := s.guides.Update(ctx, &guide); err != nil {
		return dto.GuideResponse{}, err
	}

	return dto.NewGuideResponse(guide), nil
}

func (s *guideService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.authoredGuide(ctx, actor, id); err != nil {
		return err
	}

	return s.guides.Delete(ctx, id)
}

func (s *guideService) AddStep(ctx context.Context, actor Actor, guideID uint, payload dto.GuideStepCreateRequest) (dto.GuideStepResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GuideStepResponse{}, err
	}

	if _, err := s.authoredGuide(ctx, actor, guideID); err != nil {
		return dto.GuideStepResponse{}, err
	}

	step := models.GuideStep{
		GuideID:     guideID,
		Order:       payload.Order,
		Title:       payload.Title,
		Description: payload.Description,
		Content:     s.sanitizer.Sanitize(payload.Content),
	}

	if err := s.guides.CreateStep(ctx, &step); err != nil {
		return dto.GuideStepResponse{}, err
	}

	return dto.NewGuideStepResponse(step), nil
}

func (s *guideService) UpdateStep(ctx context.Context, actor Actor, guideID, stepID uint, payload dto.GuideStepUpdateRequest) (dto.GuideStepResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GuideStepResponse{}, err
	}

	if _, err := s.authoredGuide(ctx, actor, guideID); err != nil {
		return dto.GuideStepResponse{}, err
	}

	step, err := s.guides.GetStep(ctx, guideID, stepID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GuideStepResponse{}, ErrGuideStepNotFound
		}
		return dto.GuideStepResponse{}, err
	}

	if payload.Order != nil {
		step.Order = *payload.Order
	}
	if payload.Title != nil {
		step.Title = *payload.Title
	}
	if payload.Description != nil {
		step.Description = *payload.Description
	}
	if payload.Content != nil {
		step.Content = s.sanitizer.Sanitize(*payload.Content)
	}

	if err := s.guides.UpdateStep(ctx, &step); err != nil {
		return dto.GuideStepResponse{}, err
	}

	return dto.NewGuideStepResponse(step), nil
}

func (s *guideService) DeleteStep(ctx context.Context, actor Actor, guideID, stepID uint) error {
	if _, err := s.authoredGuide(ctx, actor, guideID); err != nil {
		return err
	}

	if err := s.guides.DeleteStep(ctx, guideID, stepID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGuideStepNotFound
		}
		return err
	}

	return nil
}

func (s *guideService) authoredGuide(ctx context.Context, actor Actor, id uint) (models.Guide, error) {
	guide, err := s.guides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Guide{}, ErrGuideNotFound
		}
		return models.Guide{}, err
	}

	if guide.AuthorID != actor.ID && !actor.IsAdmin() {
		return models.Guide{}, ErrGuideAccessDenied
	}

	return guide, nil
}
