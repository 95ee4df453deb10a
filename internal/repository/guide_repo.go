package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/models"
)

// GuideFilter narrows guide listings.
type GuideFilter struct {
	Category      string
	PublishedOnly bool
	Limit         int
	Offset        int
}

// GuideRepository defines persistence operations for guides and their steps.
type GuideRepository interface {
	List(ctx context.Context, filter GuideFilter) ([]models.Guide, int64, error)
	GetByID(ctx context.Context, id uint) (models.Guide, error)
	Create(ctx context.Context, guide *models.Guide) error
	Update(ctx context.Context, guide *models.Guide) error
	Delete(ctx context.Context, id uint) error
	GetStep(ctx context.Context, guideID, stepID uint) (models.GuideStep, error)
	CreateStep(ctx context.Context, step *models.GuideStep) error
	UpdateStep(ctx context.Context, step *models.GuideStep) error
	DeleteStep(ctx context.Context, guideID, stepID uint) error
}

type guideRepository struct {
	db *gorm.DB
}

// NewGuideRepository instantiates a GORM-backed repository.
func NewGuideRepository(db *gorm.DB) GuideRepository {
	return &guideRepository{db: db}
}

func (r *guideRepository) List(ctx context.Context, filter GuideFilter) ([]models.Guide, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Guide{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var guides []models.Guide
	if err := query.Order("created_at DESC").
		Offset(normalizeOffset(filter.Offset)).
		Limit(normalizeLimit(filter.Limit)).
		Find(&guides).Error; err != nil {
		return nil, 0, err
	}

	return guides, total, nil
}

func (r *guideRepository) GetByID(ctx context.Context, id uint) (models.Guide, error) {
	var guide models.Guide
	if err := r.db.WithContext(ctx).Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order ASC")
	}).First(&guide, id).Error; err != nil {
		return models.Guide{}, err
	}

	return guide, nil
}

func (r *guideRepository) Create(ctx context.Context, guide *models.Guide) error {
	return r.db.WithContext(ctx).Create(guide).Error
}

func (r *guideRepository) Update(ctx context.Context, guide *models.Guide) error {
	return r.db.WithContext(ctx).Omit("Steps").Save(guide).Error
}

func (r *guideRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guide_id = ?", id).Delete(&models.GuideStep{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Guide{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *guideRepository) GetStep(ctx context.Context, guideID, stepID uint) (models.GuideStep, error) {
	var step models.GuideStep
	if err := r.db.WithContext(ctx).
		Where("guide_id = ?", guideID).
		First(&step, stepID).Error; err != nil {
		return models.GuideStep{}, err
	}

	return step, nil
}

func (r *guideRepository) CreateStep(ctx context.Context, step *models.GuideStep) error {
	return r.db.WithContext(ctx).Create(step).Error
}

func (r *guideRepository) UpdateStep(ctx context.Context, step *models.GuideStep) error {
	return r.db.WithContext(ctx).Save(step).Error
}

func (r *guideRepository) DeleteStep(ctx context.Context, guideID, stepID uint) error {
	result := r.db.WithContext(ctx).
		Where("guide_id = ?", guideID).
		Delete(&models.GuideStep{}, stepID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
