package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/models"
)

// HealthAlertRepository defines persistence operations for health alerts.
type HealthAlertRepository interface {
	Create(ctx context.Context, alert *models.HealthAlert) error
	GetByID(ctx context.Context, id uint) (models.HealthAlert, error)
	Update(ctx context.Context, alert *models.HealthAlert) error
	ListActive(ctx context.Context, userID *uint, limit, offset int) ([]models.HealthAlert, error)
}

type healthAlertRepository struct {
	db *gorm.DB
}

// NewHealthAlertRepository instantiates a GORM-backed repository.
func NewHealthAlertRepository(db *gorm.DB) HealthAlertRepository {
	return &healthAlertRepository{db: db}
}

func (r *healthAlertRepository) Create(ctx context.Context, alert *models.HealthAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *healthAlertRepository) GetByID(ctx context.Context, id uint) (models.HealthAlert, error) {
	var alert models.HealthAlert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return models.HealthAlert{}, err
	}

	return alert, nil
}

func (r *healthAlertRepository) Update(ctx context.Context, alert *models.HealthAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *healthAlertRepository) ListActive(ctx context.Context, userID *uint, limit, offset int) ([]models.HealthAlert, error) {
	query := r.db.WithContext(ctx).Where("status = ?", models.AlertStatusActive)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var alerts []models.HealthAlert
	if err := query.Order("created_at DESC").
		Offset(normalizeOffset(offset)).
		Limit(normalizeLimit(limit)).
		Find(&alerts).Error; err != nil {
		return nil, err
	}

	return alerts, nil
}
