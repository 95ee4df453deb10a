package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peibanapp/peiban-api/internal/models"
)

var (
	// ErrDuplicateParticipant indicates a non-cancelled membership already exists.
	ErrDuplicateParticipant = errors.New("participant already registered")
	// ErrCapacityExceeded indicates the activity has no free slot left.
	ErrCapacityExceeded = errors.New("activity capacity exceeded")
)

// ActivityRepository defines persistence operations for activities and memberships.
type ActivityRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.Activity, int64, error)
	ListAvailable(ctx context.Context, now time.Time, limit, offset int) ([]models.Activity, error)
	ListByOrganizer(ctx context.Context, organizerID uint, limit, offset int) ([]models.Activity, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id uint) error
	Join(ctx context.Context, activityID, userID uint) (models.ActivityParticipant, error)
	FindActiveParticipant(ctx context.Context, activityID, userID uint) (models.ActivityParticipant, error)
	UpdateParticipant(ctx context.Context, participant *models.ActivityParticipant) error
	ListParticipants(ctx context.Context, activityID uint) ([]models.ActivityParticipant, error)
	CountActiveParticipants(ctx context.Context, activityID uint) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates a GORM-backed repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) List(ctx context.Context, limit, offset int) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []models.Activity
	if err := query.Order("start_time ASC").Offset(normalizeOffset(offset)).Limit(normalizeLimit(limit)).Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) ListAvailable(ctx context.Context, now time.Time, limit, offset int) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.WithContext(ctx).
		Where("status = ? AND start_time > ?", models.ActivityStatusScheduled, now).
		Order("start_time ASC").
		Offset(normalizeOffset(offset)).
		Limit(normalizeLimit(limit)).
		Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) ListByOrganizer(ctx context.Context, organizerID uint, limit, offset int) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("start_time ASC").
		Offset(normalizeOffset(offset)).
		Limit(normalizeLimit(limit)).
		Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Activity{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Join runs the capacity check and membership insert as one transaction.
// The activity row is locked FOR UPDATE on postgres so that two concurrent
// joins racing for the last slot serialize; sqlite already serializes writers.
func (r *activityRepository) Join(ctx context.Context, activityID, userID uint) (models.ActivityParticipant, error) {
	var participant models.ActivityParticipant

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var activity models.Activity
		if err := query.First(&activity, activityID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.ActivityParticipant{}).
			Where("activity_id = ? AND user_id = ? AND status <> ?", activityID, userID, models.ParticipantStatusCancelled).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateParticipant
		}

		if activity.MaxParticipants != nil {
			var registered int64
			if err := tx.Model(&models.ActivityParticipant{}).
				Where("activity_id = ? AND status <> ?", activityID, models.ParticipantStatusCancelled).
				Count(&registered).Error; err != nil {
				return err
			}
			if registered >= int64(*activity.MaxParticipants) {
				return ErrCapacityExceeded
			}
		}

		participant = models.ActivityParticipant{
			ActivityID: activityID,
			UserID:     userID,
			Status:     models.ParticipantStatusRegistered,
		}

		return tx.Create(&participant).Error
	})
	if err != nil {
		return models.ActivityParticipant{}, err
	}

	return participant, nil
}

func (r *activityRepository) FindActiveParticipant(ctx context.Context, activityID, userID uint) (models.ActivityParticipant, error) {
	var participant models.ActivityParticipant
	if err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_id = ? AND status <> ?", activityID, userID, models.ParticipantStatusCancelled).
		First(&participant).Error; err != nil {
		return models.ActivityParticipant{}, err
	}

	return participant, nil
}

func (r *activityRepository) UpdateParticipant(ctx context.Context, participant *models.ActivityParticipant) error {
	return r.db.WithContext(ctx).Save(participant).Error
}

func (r *activityRepository) ListParticipants(ctx context.Context, activityID uint) ([]models.ActivityParticipant, error) {
	var participants []models.ActivityParticipant
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *activityRepository) CountActiveParticipants(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityParticipant{}).
		Where("activity_id = ? AND status <> ?", activityID, models.ParticipantStatusCancelled).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
