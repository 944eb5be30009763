package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/joaoc-dev/blueledger-sub001/internal/models"
)

// MembershipRepository defines the interface for group membership data
// operations.
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.GroupMembership) error
	GetByID(ctx context.Context, id uint) (*models.GroupMembership, error)
	// Find looks up the single record for (groupID, userID). Returns nil
	// without error when no record exists.
	Find(ctx context.Context, groupID, userID uint) (*models.GroupMembership, error)
	// UpdateIf applies the patch only while the record still has the
	// expected status. Reports whether a row was updated.
	UpdateIf(ctx context.Context, id uint, expected models.MembershipStatus, patch map[string]interface{}) (bool, error)
	// UpdateRoleIf swaps the role only while the record still holds the
	// expected role in accepted status. Reports whether a row was updated.
	UpdateRoleIf(ctx context.Context, id uint, expected, next models.MembershipRole) (bool, error)
	// GetAcceptedOwner returns the group's single accepted owner
	// membership. This is the source of truth for owner identity.
	GetAcceptedOwner(ctx context.Context, groupID uint) (*models.GroupMembership, error)
	CountAcceptedOwners(ctx context.Context, groupID uint) (int64, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.GroupMembership, error)
	ListAcceptedForUser(ctx context.Context, userID uint) ([]models.GroupMembership, error)
}

type gormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a MembershipRepository backed by GORM.
func NewGormMembershipRepository(db *gorm.DB) MembershipRepository {
	return &gormMembershipRepository{db: db}
}

func (r *gormMembershipRepository) Create(ctx context.Context, membership *models.GroupMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *gormMembershipRepository) GetByID(ctx context.Context, id uint) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	if err := r.db.WithContext(ctx).First(&membership, id).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *gormMembershipRepository) Find(ctx context.Context, groupID, userID uint) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *gormMembershipRepository) UpdateIf(ctx context.Context, id uint, expected models.MembershipStatus, patch map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormMembershipRepository) UpdateRoleIf(ctx context.Context, id uint, expected, next models.MembershipRole) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("id = ? AND role = ? AND status = ?", id, expected, models.MembershipStatusAccepted).
		Update("role", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormMembershipRepository) GetAcceptedOwner(ctx context.Context, groupID uint) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND role = ? AND status = ?", groupID, models.RoleOwner, models.MembershipStatusAccepted).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *gormMembershipRepository) CountAcceptedOwners(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("group_id = ? AND role = ? AND status = ?", groupID, models.RoleOwner, models.MembershipStatusAccepted).
		Count(&count).Error
	return count, err
}

func (r *gormMembershipRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.GroupMembership, error) {
	var memberships []models.GroupMembership
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Find(&memberships).Error
	return memberships, err
}

func (r *gormMembershipRepository) ListAcceptedForUser(ctx context.Context, userID uint) ([]models.GroupMembership, error) {
	var memberships []models.GroupMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.MembershipStatusAccepted).
		Find(&memberships).Error
	return memberships, err
}
