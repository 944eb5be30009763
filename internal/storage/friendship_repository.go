package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/joaoc-dev/blueledger-sub001/internal/models"
)

// FriendshipRepository defines the interface for friendship data operations.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id uint) (*models.Friendship, error)
	// FindByPair looks up the single record for the unordered user pair.
	// Returns nil without error when no record exists.
	FindByPair(ctx context.Context, userA, userB uint) (*models.Friendship, error)
	// UpdateIf applies the patch only while the record still has the
	// expected status. Reports whether a row was updated; a false result
	// means a concurrent transition won the race.
	UpdateIf(ctx context.Context, id uint, expected models.FriendshipStatus, patch map[string]interface{}) (bool, error)
	ListAcceptedForUser(ctx context.Context, userID uint) ([]models.Friendship, error)
	ListPendingForRecipient(ctx context.Context, userID uint) ([]models.Friendship, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a FriendshipRepository backed by GORM.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

// Create inserts a new friendship record. It assumes EnsureCanonicalPair has
// been called; the unique pair index turns a concurrent duplicate insert
// into gorm.ErrDuplicatedKey.
func (r *gormFriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	return r.db.WithContext(ctx).Create(friendship).Error
}

func (r *gormFriendshipRepository) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).First(&friendship, id).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (r *gormFriendshipRepository) FindByPair(ctx context.Context, userA, userB uint) (*models.Friendship, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	var friendship models.Friendship
	err := r.db.WithContext(ctx).
		Where("user_lo_id = ? AND user_hi_id = ?", lo, hi).
		First(&friendship).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &friendship, nil
}

func (r *gormFriendshipRepository) UpdateIf(ctx context.Context, id uint, expected models.FriendshipStatus, patch map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendshipRepository) ListAcceptedForUser(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, models.FriendshipStatusAccepted).
		Find(&friendships).Error
	return friendships, err
}

func (r *gormFriendshipRepository) ListPendingForRecipient(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", userID, models.FriendshipStatusPending).
		Find(&friendships).Error
	return friendships, err
}
