package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/models"
)

// PetRepository defines persistence operations for pets and their interactions.
type PetRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.Pet, error)
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.Pet, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	GetByID(ctx context.Context, id uint) (models.Pet, error)
	Create(ctx context.Context, pet *models.Pet) error
	Update(ctx context.Context, pet *models.Pet) error
	Delete(ctx context.Context, id uint) error
	SaveInteraction(ctx context.Context, pet *models.Pet, interaction *models.PetInteraction) error
	ListInteractions(ctx context.Context, petID uint, limit, offset int) ([]models.PetInteraction, error)
}

type petRepository struct {
	db *gorm.DB
}

// NewPetRepository instantiates a GORM-backed repository.
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) List(ctx context.Context, limit, offset int) ([]models.Pet, error) {
	var pets []models.Pet
	if err := r.db.WithContext(ctx).Order("created_at ASC").Offset(normalizeOffset(offset)).Limit(normalizeLimit(limit)).Find(&pets).Error; err != nil {
		return nil, err
	}

	return pets, nil
}

func (r *petRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.Pet, error) {
	var pets []models.Pet
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Offset(normalizeOffset(offset)).
		Limit(normalizeLimit(limit)).
		Find(&pets).Error; err != nil {
		return nil, err
	}

	return pets, nil
}

func (r *petRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Pet{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *petRepository) GetByID(ctx context.Context, id uint) (models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, id).Error; err != nil {
		return models.Pet{}, err
	}

	return pet, nil
}

func (r *petRepository) Create(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Create(pet).Error
}

func (r *petRepository) Update(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Save(pet).Error
}

func (r *petRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Pet{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveInteraction persists the updated pet state together with the interaction
// that caused it. Both rows commit or neither does; an interaction row must
// never exist without its effect applied to the pet.
func (r *petRepository) SaveInteraction(ctx context.Context, pet *models.Pet, interaction *models.PetInteraction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(interaction).Error; err != nil {
			return err
		}

		return tx.Save(pet).Error
	})
}

func (r *petRepository) ListInteractions(ctx context.Context, petID uint, limit, offset int) ([]models.PetInteraction, error) {
	var interactions []models.PetInteraction
	if err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("created_at DESC").
		Offset(normalizeOffset(offset)).
		Limit(normalizeLimit(limit)).
		Find(&interactions).Error; err != nil {
		return nil, err
	}

	return interactions, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
