package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/observability"
	"github.com/peibanapp/peiban-api/internal/repository"
)

var (
	// ErrActivityNotFound indicates the requested activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityAccessDenied indicates the actor is not the organizer.
	ErrActivityAccessDenied = errors.New("not allowed to modify this activity")
	// ErrActivityNotJoinable indicates the activity is not open for registration.
	ErrActivityNotJoinable = errors.New("activity is not open for registration")
	// ErrActivityFull indicates every slot is taken.
	ErrActivityFull = errors.New("activity is full")
	// ErrAlreadyJoined indicates the actor already holds a live membership.
	ErrAlreadyJoined = errors.New("already joined this activity")
	// ErrNotParticipant indicates no live membership exists to cancel.
	ErrNotParticipant = errors.New("not a participant of this activity")
	// ErrInvalidTimeRange indicates the end time is not after the start time.
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)

// ActivityService exposes activity and membership use cases.
type ActivityService interface {
	Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	List(ctx context.Context, limit, offset int) ([]dto.ActivityResponse, int64, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]dto.ActivityResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Join(ctx context.Context, actor Actor, id uint) (dto.ParticipantResponse, error)
	Leave(ctx context.Context, actor Actor, id uint) error
	Participants(ctx context.Context, id uint) ([]dto.ParticipantResponse, error)
}

type activityService struct {
	activities repository.ActivityRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewActivityService builds the activity service.
func NewActivityService(activities repository.ActivityRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		validator:  validate,
		logger:     logger.With().Str("component", "activity_service").Logger(),
		now:        time.Now,
	}
}

func (s *activityService) Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	startTime, err := time.Parse(time.RFC3339, payload.StartTime)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	endTime, err := time.Parse(time.RFC3339, payload.EndTime)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	if !endTime.After(startTime) {
		return dto.ActivityResponse{}, ErrInvalidTimeRange
	}

	activity := models.Activity{
		OrganizerID:     actor.ID,
		Title:           payload.Title,
		Description:     payload.Description,
		Category:        payload.Category,
		Location:        payload.Location,
		IsOnline:        payload.IsOnline,
		StartTime:       startTime,
		EndTime:         endTime,
		MaxParticipants: payload.MaxParticipants,
		Status:          models.ActivityStatusScheduled,
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Uint("organizer_id", actor.ID).Msg("activity created")

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context, limit, offset int) ([]dto.ActivityResponse, int64, error) {
	activities, total, err := s.activities.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewActivityResponseSlice(activities), total, nil
}

func (s *activityService) ListAvailable(ctx context.Context, limit, offset int) ([]dto.ActivityResponse, error) {
	activities, err := s.activities.ListAvailable(ctx, s.now(), limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *activityService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Update(ctx context.Context, actor Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.organizedActivity(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if payload.Title != nil {
		activity.Title = *payload.Title
	}
	if payload.Description != nil {
		activity.Description = *payload.Description
	}
	if payload.Category != nil {
		activity.Category = *payload.Category
	}
	if payload.Location != nil {
		activity.Location = *payload.Location
	}
	if payload.IsOnline != nil {
		activity.IsOnline = *payload.IsOnline
	}
	if payload.StartTime != nil {
		startTime, err := time.Parse(time.RFC3339, *payload.StartTime)
		if err != nil {
			return dto.ActivityResponse{}, err
		}
		activity.StartTime = startTime
	}
	if payload.EndTime != nil {
		endTime, err := time.Parse(time.RFC3339, *payload.EndTime)
		if err != nil {
			return dto.ActivityResponse{}, err
		}
		activity.EndTime = endTime
	}
	if !activity.EndTime.After(activity.StartTime) {
		return dto.ActivityResponse{}, ErrInvalidTimeRange
	}
	if payload.MaxParticipants != nil {
		activity.MaxParticipants = payload.MaxParticipants
	}
	if payload.Status != nil {
		activity.Status = *payload.Status
	}

	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.organizedActivity(ctx, actor, id); err != nil {
		return err
	}

	return s.activities.Delete(ctx, id)
}

// Join registers the actor for an activity. The repository runs the capacity
// check and the insert in one transaction; here we only gate on the activity
// being open and map the repository verdicts.
func (s *activityService) Join(ctx context.Context, actor Actor, id uint) (dto.ParticipantResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.ActivityJoins().WithLabelValues("not_found").Inc()
			return dto.ParticipantResponse{}, ErrActivityNotFound
		}
		return dto.ParticipantResponse{}, err
	}

	if activity.Status != models.ActivityStatusScheduled {
		observability.ActivityJoins().WithLabelValues("not_joinable").Inc()
		return dto.ParticipantResponse{}, ErrActivityNotJoinable
	}

	participant, err := s.activities.Join(ctx, id, actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateParticipant):
			observability.ActivityJoins().WithLabelValues("duplicate").Inc()
			return dto.ParticipantResponse{}, ErrAlreadyJoined
		case errors.Is(err, repository.ErrCapacityExceeded):
			observability.ActivityJoins().WithLabelValues("full").Inc()
			return dto.ParticipantResponse{}, ErrActivityFull
		case errors.Is(err, gorm.ErrRecordNotFound):
			observability.ActivityJoins().WithLabelValues("not_found").Inc()
			return dto.ParticipantResponse{}, ErrActivityNotFound
		default:
			return dto.ParticipantResponse{}, err
		}
	}

	observability.ActivityJoins().WithLabelValues("joined").Inc()

	s.logger.Info().Uint("activity_id", id).Uint("user_id", actor.ID).Msg("participant joined")

	return dto.NewParticipantResponse(participant), nil
}

// Leave cancels the actor's live membership. The row is kept with status
// cancelled so a later rejoin creates a fresh row.
func (s *activityService) Leave(ctx context.Context, actor Actor, id uint) error {
	participant, err := s.activities.FindActiveParticipant(ctx, id, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotParticipant
		}
		return err
	}

	participant.Status = models.ParticipantStatusCancelled
	if err := s.activities.UpdateParticipant(ctx, &participant); err != nil {
		return err
	}

	s.logger.Info().Uint("activity_id", id).Uint("user_id", actor.ID).Msg("participant left")

	return nil
}

func (s *activityService) Participants(ctx context.Context, id uint) ([]dto.ParticipantResponse, error) {
	if _, err := s.activities.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	participants, err := s.activities.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	return dto.NewParticipantResponseSlice(participants), nil
}

func (s *activityService) organizedActivity(ctx context.Context, actor Actor, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	if activity.OrganizerID != actor.ID && !actor.IsAdmin() {
		return models.Activity{}, ErrActivityAccessDenied
	}

	return activity, nil
}
