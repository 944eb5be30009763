package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/joaoc-dev/blueledger-sub001/internal/models"
)

// GroupRepository defines the interface for group data operations.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	// UpdateOwnerID rebuilds the cached owner projection after an
	// ownership transfer. Only the transfer transaction may call this.
	UpdateOwnerID(ctx context.Context, groupID, ownerID uint) error
	GetByIDs(ctx context.Context, ids []uint) ([]models.Group, error)
}

type gormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a GroupRepository backed by GORM.
func NewGormGroupRepository(db *gorm.DB) GroupRepository {
	return &gormGroupRepository{db: db}
}

func (r *gormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *gormGroupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *gormGroupRepository) UpdateOwnerID(ctx context.Context, groupID, ownerID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id = ?", groupID).
		Update("owner_id", ownerID).Error
}

func (r *gormGroupRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Group, error) {
	var groups []models.Group
	if len(ids) == 0 {
		return groups, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error
	return groups, err
}
