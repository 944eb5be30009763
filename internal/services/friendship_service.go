package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
	"github.com/joaoc-dev/blueledger-sub001/internal/models"
	"github.com/joaoc-dev/blueledger-sub001/internal/policy"
	"github.com/joaoc-dev/blueledger-sub001/internal/storage"
)

// FriendshipWithCounterpart is a DTO pairing a friendship record with basic
// info about the other party, for listing endpoints.
type FriendshipWithCounterpart struct {
	models.Friendship
	Counterpart *models.UserBasicInfo `json:"counterpart"`
}

// FriendshipService is the transition engine for the user-to-user
// relationship lifecycle. Every mutation is a conditional update guarded by
// the record's current status, so concurrent duplicate transitions race
// safely: one succeeds, the rest observe a stale precondition and fail with
// a conflict.
type FriendshipService interface {
	RequestFriendship(ctx context.Context, requesterID, recipientID uint) (*models.Friendship, error)
	AcceptFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error)
	DeclineFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error)
	CancelFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error)
	RemoveFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error)
	ListFriends(ctx context.Context, userID uint) ([]*FriendshipWithCounterpart, error)
	ListPendingRequests(ctx context.Context, userID uint) ([]*FriendshipWithCounterpart, error)
}

type friendshipService struct {
	friendshipRepo storage.FriendshipRepository
	userRepo       storage.UserRepository
	notifier       NotificationService
	now            func() time.Time
}

// NewFriendshipService creates a new FriendshipService instance.
func NewFriendshipService(
	friendshipRepo storage.FriendshipRepository,
	userRepo storage.UserRepository,
	notifier NotificationService,
) FriendshipService {
	return &friendshipService{
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

// RequestFriendship creates (or supersedes) the pair's single relationship
// record in pending state and notifies the recipient. A non-terminal record
// for the pair, in either direction, is a conflict and produces no
// notification.
func (s *friendshipService) RequestFriendship(ctx context.Context, requesterID, recipientID uint) (*models.Friendship, error) {
	if requesterID == recipientID {
		return nil, apperr.SelfReferencef("user %d cannot befriend themself", requesterID)
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user %d", recipientID)
		}
		return nil, apperr.Internalf("checking recipient %d: %v", recipientID, err)
	}

	existing, err := s.friendshipRepo.FindByPair(ctx, requesterID, recipientID)
	if err != nil {
		return nil, apperr.Internalf("looking up friendship for pair (%d, %d): %v", requesterID, recipientID, err)
	}

	var friendship *models.Friendship
	switch {
	case existing == nil:
		friendship = &models.Friendship{
			RequesterID: requesterID,
			RecipientID: recipientID,
			Status:      models.FriendshipStatusPending,
		}
		friendship.EnsureCanonicalPair()
		if err := s.friendshipRepo.Create(ctx, friendship); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race against a simultaneous request for the
				// same pair; the unique pair index is the arbiter.
				return nil, apperr.Conflictf("a relationship between users %d and %d already exists", requesterID, recipientID)
			}
			return nil, apperr.Internalf("creating friendship: %v", err)
		}
	case !existing.Status.Terminal():
		return nil, apperr.Conflictf("a %s relationship between users %d and %d already exists", existing.Status, requesterID, recipientID)
	default:
		// A declined/canceled/removed record is superseded in place so the
		// pair keeps a single row. Direction may flip: the new requester
		// need not match the old one.
		updated, err := s.friendshipRepo.UpdateIf(ctx, existing.ID, existing.Status, map[string]interface{}{
			"requester_id": requesterID,
			"recipient_id": recipientID,
			"status":       models.FriendshipStatusPending,
			"accepted_at":  nil,
		})
		if err != nil {
			return nil, apperr.Internalf("superseding friendship %d: %v", existing.ID, err)
		}
		if !updated {
			return nil, apperr.Conflictf("friendship %d changed concurrently", existing.ID)
		}
		friendship = existing
		friendship.RequesterID = requesterID
		friendship.RecipientID = recipientID
		friendship.Status = models.FriendshipStatusPending
		friendship.AcceptedAt = nil
	}

	s.notifier.NotifyTransition(ctx, recipientID, requesterID, models.NotificationTypeFriendRequest)
	return friendship, nil
}

func (s *friendshipService) AcceptFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	return s.transition(ctx, actorID, friendshipID, policy.ActionAccept)
}

func (s *friendshipService) DeclineFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	return s.transition(ctx, actorID, friendshipID, policy.ActionDecline)
}

func (s *friendshipService) CancelFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	return s.transition(ctx, actorID, friendshipID, policy.ActionCancel)
}

func (s *friendshipService) RemoveFriendship(ctx context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	return s.transition(ctx, actorID, friendshipID, policy.ActionRemove)
}

// transition applies one single-record state change: policy gate, then a
// conditional update keyed on the status the policy just validated. The
// conditional update is the sole concurrency guard.
func (s *friendshipService) transition(ctx context.Context, actorID, friendshipID uint, action policy.Action) (*models.Friendship, error) {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("friendship %d", friendshipID)
		}
		return nil, apperr.Internalf("loading friendship %d: %v", friendshipID, err)
	}

	if err := policy.CheckFriendship(actorID, friendship, action); err != nil {
		return nil, err
	}

	next, ok := policy.NextFriendshipStatus(action)
	if !ok {
		return nil, apperr.Internalf("no next status for action %q", action)
	}

	patch := map[string]interface{}{"status": next}
	var acceptedAt *time.Time
	if action == policy.ActionAccept {
		// AcceptedAt is set exactly once, here, and never overwritten.
		now := s.now()
		acceptedAt = &now
		patch["accepted_at"] = now
	}

	updated, err := s.friendshipRepo.UpdateIf(ctx, friendship.ID, friendship.Status, patch)
	if err != nil {
		return nil, apperr.Internalf("updating friendship %d: %v", friendship.ID, err)
	}
	if !updated {
		return nil, apperr.Conflictf("friendship %d is no longer %s", friendship.ID, friendship.Status)
	}

	friendship.Status = next
	if acceptedAt != nil {
		friendship.AcceptedAt = acceptedAt
	}
	return friendship, nil
}

func (s *friendshipService) ListFriends(ctx context.Context, userID uint) ([]*FriendshipWithCounterpart, error) {
	friendships, err := s.friendshipRepo.ListAcceptedForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internalf("listing friends for user %d: %v", userID, err)
	}
	return s.withCounterparts(ctx, userID, friendships)
}

func (s *friendshipService) ListPendingRequests(ctx context.Context, userID uint) ([]*FriendshipWithCounterpart, error) {
	friendships, err := s.friendshipRepo.ListPendingForRecipient(ctx, userID)
	if err != nil {
		return nil, apperr.Internalf("listing pending requests for user %d: %v", userID, err)
	}
	return s.withCounterparts(ctx, userID, friendships)
}

func (s *friendshipService) withCounterparts(ctx context.Context, userID uint, friendships []models.Friendship) ([]*FriendshipWithCounterpart, error) {
	ids := make([]uint, 0, len(friendships))
	for _, friendship := range friendships {
		ids = append(ids, friendship.CounterpartOf(userID))
	}
	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internalf("loading counterpart profiles for user %d: %v", userID, err)
	}
	byID := make(map[uint]*models.UserBasicInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	result := []*FriendshipWithCounterpart{}
	for _, friendship := range friendships {
		counterpart, ok := byID[friendship.CounterpartOf(userID)]
		if !ok {
			// A missing counterpart profile should not sink the whole
			// listing; skip the row.
			continue
		}
		f := friendship
		result = append(result, &FriendshipWithCounterpart{Friendship: f, Counterpart: counterpart})
	}
	return result, nil
}
