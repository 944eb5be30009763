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

// GroupService is the transition engine for the group membership lifecycle.
// Single-record transitions use conditional updates like friendships do;
// ownership transfer is the one multi-record operation and runs inside a
// storage transaction with the role swap ordered before the cached owner
// pointer rebuild.
type GroupService interface {
	CreateGroup(ctx context.Context, ownerID uint, name, description string) (*models.Group, error)
	InviteToGroup(ctx context.Context, inviterID, recipientID, groupID uint) (*models.GroupMembership, error)
	AcceptGroupInvite(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error)
	DeclineGroupInvite(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error)
	CancelGroupInvite(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error)
	KickMember(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error)
	LeaveGroup(ctx context.Context, actorID, groupID uint) (*models.GroupMembership, error)
	TransferOwnership(ctx context.Context, actorID, fromMembershipID, toMembershipID uint) error
	ListMembers(ctx context.Context, actorID, groupID uint) ([]models.GroupMembership, error)
	ListUserGroups(ctx context.Context, userID uint) ([]models.Group, error)
}

type groupService struct {
	groupRepo      storage.GroupRepository
	membershipRepo storage.MembershipRepository
	userRepo       storage.UserRepository
	txManager      storage.TxManager
	notifier       NotificationService
	now            func() time.Time
}

// NewGroupService creates a new GroupService instance.
func NewGroupService(
	groupRepo storage.GroupRepository,
	membershipRepo storage.MembershipRepository,
	userRepo storage.UserRepository,
	txManager storage.TxManager,
	notifier NotificationService,
) GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		notifier:       notifier,
		now:            time.Now,
	}
}

// CreateGroup creates the group together with its accepted owner membership
// in one transaction, so the owner-singularity invariant holds from the
// first moment the group exists.
func (s *groupService) CreateGroup(ctx context.Context, ownerID uint, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, apperr.Conflictf("group name must not be empty")
	}
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user %d", ownerID)
		}
		return nil, apperr.Internalf("checking owner %d: %v", ownerID, err)
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Status:      models.GroupStatusActive,
	}
	err := s.txManager.WithinTransaction(ctx, func(tx storage.RelationshipTx) error {
		if err := tx.Groups().Create(ctx, group); err != nil {
			return err
		}
		acceptedAt := s.now()
		return tx.Memberships().Create(ctx, &models.GroupMembership{
			GroupID:     group.ID,
			UserID:      ownerID,
			InvitedByID: ownerID,
			Role:        models.RoleOwner,
			Status:      models.MembershipStatusAccepted,
			AcceptedAt:  &acceptedAt,
		})
	})
	if err != nil {
		return nil, apperr.Internalf("creating group %q: %v", name, err)
	}
	return group, nil
}

// InviteToGroup creates (or supersedes) the recipient's membership record in
// pending state and notifies them. Superseding reuses the prior record's
// row, never inserting a second one for the (group, user) pair.
func (s *groupService) InviteToGroup(ctx context.Context, inviterID, recipientID, groupID uint) (*models.GroupMembership, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("group %d", groupID)
		}
		return nil, apperr.Internalf("loading group %d: %v", groupID, err)
	}
	if group.Status != models.GroupStatusActive {
		return nil, apperr.Conflictf("group %d is not active", groupID)
	}

	ownerID, err := s.ownerOf(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if inviterID != ownerID {
		return nil, apperr.Forbiddenf("user %d is not the owner of group %d", inviterID, groupID)
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user %d", recipientID)
		}
		return nil, apperr.Internalf("checking recipient %d: %v", recipientID, err)
	}

	existing, err := s.membershipRepo.Find(ctx, groupID, recipientID)
	if err != nil {
		return nil, apperr.Internalf("looking up membership (%d, %d): %v", groupID, recipientID, err)
	}

	var membership *models.GroupMembership
	switch {
	case existing == nil:
		membership = &models.GroupMembership{
			GroupID:     groupID,
			UserID:      recipientID,
			InvitedByID: inviterID,
			Role:        models.RoleMember,
			Status:      models.MembershipStatusPending,
		}
		if err := s.membershipRepo.Create(ctx, membership); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperr.Conflictf("user %d already has a membership in group %d", recipientID, groupID)
			}
			return nil, apperr.Internalf("creating membership: %v", err)
		}
	case !existing.Status.Terminal():
		return nil, apperr.Conflictf("user %d already has a %s membership in group %d", recipientID, existing.Status, groupID)
	default:
		updated, err := s.membershipRepo.UpdateIf(ctx, existing.ID, existing.Status, map[string]interface{}{
			"invited_by_id": inviterID,
			"role":          models.RoleMember,
			"status":        models.MembershipStatusPending,
			"accepted_at":   nil,
		})
		if err != nil {
			return nil, apperr.Internalf("superseding membership %d: %v", existing.ID, err)
		}
		if !updated {
			return nil, apperr.Conflictf("membership %d changed concurrently", existing.ID)
		}
		membership = existing
		membership.InvitedByID = inviterID
		membership.Role = models.RoleMember
		membership.Status = models.MembershipStatusPending
		membership.AcceptedAt = nil
	}

	s.notifier.NotifyTransition(ctx, recipientID, inviterID, models.NotificationTypeGroupInvite)
	return membership, nil
}

func (s *groupService) AcceptGroupInvite(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error) {
	return s.transition(ctx, actorID, membershipID, policy.ActionAccept)
}

func (s *groupService) DeclineGroupInvite(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error) {
	return s.transition(ctx, actorID, membershipID, policy.ActionDecline)
}

func (s *groupService) CancelGroupInvite(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error) {
	return s.transition(ctx, actorID, membershipID, policy.ActionCancel)
}

func (s *groupService) KickMember(ctx context.Context, actorID, membershipID uint) (*models.GroupMembership, error) {
	return s.transition(ctx, actorID, membershipID, policy.ActionKick)
}

// LeaveGroup transitions the actor's own accepted membership to left. The
// owner cannot leave; ownership must be transferred first.
func (s *groupService) LeaveGroup(ctx context.Context, actorID, groupID uint) (*models.GroupMembership, error) {
	membership, err := s.membershipRepo.Find(ctx, groupID, actorID)
	if err != nil {
		return nil, apperr.Internalf("looking up membership (%d, %d): %v", groupID, actorID, err)
	}
	if membership == nil {
		return nil, apperr.NotFoundf("user %d has no membership in group %d", actorID, groupID)
	}
	return s.transition(ctx, actorID, membership.ID, policy.ActionLeave)
}

// transition applies one single-record membership state change: policy gate
// with the owner derived from the membership table, then a conditional
// update keyed on the status the policy just validated.
func (s *groupService) transition(ctx context.Context, actorID, membershipID uint, action policy.Action) (*models.GroupMembership, error) {
	membership, err := s.membershipRepo.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("membership %d", membershipID)
		}
		return nil, apperr.Internalf("loading membership %d: %v", membershipID, err)
	}

	ownerID, err := s.ownerOf(ctx, membership.GroupID)
	if err != nil {
		return nil, err
	}

	if err := policy.CheckMembership(actorID, membership, ownerID, action); err != nil {
		return nil, err
	}

	next, ok := policy.NextMembershipStatus(action)
	if !ok {
		return nil, apperr.Internalf("no next status for action %q", action)
	}

	patch := map[string]interface{}{"status": next}
	var acceptedAt *time.Time
	if action == policy.ActionAccept {
		now := s.now()
		acceptedAt = &now
		patch["accepted_at"] = now
	}

	updated, err := s.membershipRepo.UpdateIf(ctx, membership.ID, membership.Status, patch)
	if err != nil {
		return nil, apperr.Internalf("updating membership %d: %v", membership.ID, err)
	}
	if !updated {
		return nil, apperr.Conflictf("membership %d is no longer %s", membership.ID, membership.Status)
	}

	membership.Status = next
	if acceptedAt != nil {
		membership.AcceptedAt = acceptedAt
	}
	return membership, nil
}

// TransferOwnership atomically demotes the current owner membership,
// promotes the target member membership, and rebuilds the group's cached
// owner pointer. A retried call that finds the roles already swapped but
// the pointer stale resumes at the pointer rebuild instead of failing, so
// an interrupted transfer converges instead of corrupting the invariant.
func (s *groupService) TransferOwnership(ctx context.Context, actorID, fromMembershipID, toMembershipID uint) error {
	return s.txManager.WithinTransaction(ctx, func(tx storage.RelationshipTx) error {
		from, err := tx.Memberships().GetByID(ctx, fromMembershipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("membership %d", fromMembershipID)
			}
			return apperr.Internalf("loading membership %d: %v", fromMembershipID, err)
		}
		to, err := tx.Memberships().GetByID(ctx, toMembershipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("membership %d", toMembershipID)
			}
			return apperr.Internalf("loading membership %d: %v", toMembershipID, err)
		}
		group, err := tx.Groups().GetByID(ctx, from.GroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("group %d", from.GroupID)
			}
			return apperr.Internalf("loading group %d: %v", from.GroupID, err)
		}

		// Resume path: a prior attempt swapped the roles but did not reach
		// the pointer rebuild. Restarting the swap would fail its
		// conditional updates, so finish the remaining step instead.
		if from.GroupID == to.GroupID &&
			from.Role == models.RoleMember && to.Role == models.RoleOwner &&
			to.Status == models.MembershipStatusAccepted {
			if actorID != from.UserID {
				return apperr.Forbiddenf("user %d did not initiate this transfer", actorID)
			}
			if group.OwnerID != to.UserID {
				if err := tx.Groups().UpdateOwnerID(ctx, group.ID, to.UserID); err != nil {
					return apperr.Internalf("rebuilding owner pointer for group %d: %v", group.ID, err)
				}
				return nil
			}
			return apperr.Conflictf("membership %d no longer holds the owner role", from.ID)
		}

		if err := policy.CheckTransfer(actorID, from, to); err != nil {
			return err
		}

		demoted, err := tx.Memberships().UpdateRoleIf(ctx, from.ID, models.RoleOwner, models.RoleMember)
		if err != nil {
			return apperr.Internalf("demoting membership %d: %v", from.ID, err)
		}
		if !demoted {
			return apperr.Conflictf("membership %d no longer holds the owner role", from.ID)
		}

		promoted, err := tx.Memberships().UpdateRoleIf(ctx, to.ID, models.RoleMember, models.RoleOwner)
		if err != nil {
			return apperr.Internalf("promoting membership %d: %v", to.ID, err)
		}
		if !promoted {
			return apperr.Conflictf("membership %d is no longer an accepted member", to.ID)
		}

		if err := tx.Groups().UpdateOwnerID(ctx, group.ID, to.UserID); err != nil {
			return apperr.Internalf("rebuilding owner pointer for group %d: %v", group.ID, err)
		}
		return nil
	})
}

func (s *groupService) ListMembers(ctx context.Context, actorID, groupID uint) ([]models.GroupMembership, error) {
	membership, err := s.membershipRepo.Find(ctx, groupID, actorID)
	if err != nil {
		return nil, apperr.Internalf("looking up membership (%d, %d): %v", groupID, actorID, err)
	}
	if membership == nil || membership.Status != models.MembershipStatusAccepted {
		return nil, apperr.Forbiddenf("user %d is not an accepted member of group %d", actorID, groupID)
	}
	members, err := s.membershipRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internalf("listing members of group %d: %v", groupID, err)
	}
	return members, nil
}

func (s *groupService) ListUserGroups(ctx context.Context, userID uint) ([]models.Group, error) {
	memberships, err := s.membershipRepo.ListAcceptedForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internalf("listing memberships for user %d: %v", userID, err)
	}
	ids := make([]uint, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.GroupID)
	}
	groups, err := s.groupRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internalf("loading groups for user %d: %v", userID, err)
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

// ownerOf derives the group's owner identity from the accepted owner
// membership, never from the cached Group.OwnerID projection.
func (s *groupService) ownerOf(ctx context.Context, groupID uint) (uint, error) {
	owner, err := s.membershipRepo.GetAcceptedOwner(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.Internalf("group %d has no accepted owner membership", groupID)
		}
		return 0, apperr.Internalf("looking up owner of group %d: %v", groupID, err)
	}
	return owner.UserID, nil
}
