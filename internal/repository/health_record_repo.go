package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/models"
)

// HealthRecordFilter narrows record listings by type and measurement window.
type HealthRecordFilter struct {
	RecordType string
	Start      *time.Time
	End        *time.Time
	Limit      int
	Offset     int
}

// HealthRecordRepository defines persistence operations for health records.
type HealthRecordRepository interface {
	Create(ctx context.Context, record *models.HealthRecord) error
	GetByID(ctx context.Context, id uint) (models.HealthRecord, error)
	Update(ctx context.Context, record *models.HealthRecord) error
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint, filter HealthRecordFilter) ([]models.HealthRecord, error)
}

type healthRecordRepository struct {
	db *gorm.DB
}

// NewHealthRecordRepository instantiates a GORM-backed repository.
func NewHealthRecordRepository(db *gorm.DB) HealthRecordRepository {
	return &healthRecordRepository{db: db}
}

func (r *healthRecordRepository) Create(ctx context.Context, record *models.HealthRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *healthRecordRepository) GetByID(ctx context.Context, id uint) (models.HealthRecord, error) {
	var record models.HealthRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.HealthRecord{}, err
	}

	return record, nil
}

func (r *healthRecordRepository) Update(ctx context.Context, record *models.HealthRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *healthRecordRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.HealthRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *healthRecordRepository) ListByUser(ctx context.Context, userID uint, filter HealthRecordFilter) ([]models.HealthRecord, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	order := "measured_at DESC"
	if filter.RecordType != "" {
		query = query.Where("record_type = ?", filter.RecordType)
		order = "measured_at ASC"
	}
	if filter.Start != nil {
		query = query.Where("measured_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("measured_at <= ?", *filter.End)
	}

	var records []models.HealthRecord
	if err := query.Order(order).
		Offset(normalizeOffset(filter.Offset)).
		Limit(normalizeLimit(filter.Limit)).
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
