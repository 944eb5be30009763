package policy

import (
	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
	"github.com/joaoc-dev/blueledger-sub001/internal/models"
)

// membershipRule is one row of the membership transition table. ownerID is
// the user holding the accepted owner membership of the record's group,
// derived from the membership table by the caller.
type membershipRule struct {
	from    models.MembershipStatus
	to      models.MembershipStatus
	allowed func(actorID uint, m *models.GroupMembership, ownerID uint) bool
	// state reports whether the record satisfies the rule's precondition
	// beyond the status match. Nil means status alone decides.
	state func(m *models.GroupMembership) bool
}

var membershipRules = map[Action]membershipRule{
	ActionAccept: {
		from:    models.MembershipStatusPending,
		to:      models.MembershipStatusAccepted,
		allowed: membershipSelf,
	},
	ActionDecline: {
		from:    models.MembershipStatusPending,
		to:      models.MembershipStatusDeclined,
		allowed: membershipSelf,
	},
	ActionCancel: {
		from:    models.MembershipStatusPending,
		to:      models.MembershipStatusCanceled,
		allowed: membershipGroupOwner,
	},
	ActionKick: {
		from: models.MembershipStatusAccepted,
		to:   models.MembershipStatusRemoved,
		allowed: func(actorID uint, m *models.GroupMembership, ownerID uint) bool {
			// The owner may not kick their own membership.
			return actorID == ownerID && actorID != m.UserID
		},
		state: notOwnerRole,
	},
	ActionLeave: {
		from:    models.MembershipStatusAccepted,
		to:      models.MembershipStatusLeft,
		allowed: membershipSelf,
		state:   notOwnerRole,
	},
}

func membershipSelf(actorID uint, m *models.GroupMembership, _ uint) bool {
	return m.UserID == actorID
}

func membershipGroupOwner(actorID uint, _ *models.GroupMembership, ownerID uint) bool {
	return actorID == ownerID
}

func notOwnerRole(m *models.GroupMembership) bool {
	return m.Role != models.RoleOwner
}

// CheckMembership decides whether the actor may apply the action to the
// membership record. ownerID identifies the group's current owner as derived
// from the accepted owner membership. Entitlement is checked before state.
func CheckMembership(actorID uint, m *models.GroupMembership, ownerID uint, action Action) error {
	rule, ok := membershipRules[action]
	if !ok {
		return apperr.Forbiddenf("action %q is not a membership transition", action)
	}
	if !rule.allowed(actorID, m, ownerID) {
		return apperr.Forbiddenf("user %d may not %s membership %d", actorID, action, m.ID)
	}
	if m.Status != rule.from {
		return apperr.Conflictf("membership %d is %s, not %s", m.ID, m.Status, rule.from)
	}
	if rule.state != nil && !rule.state(m) {
		return apperr.Conflictf("membership %d holds the owner role", m.ID)
	}
	return nil
}

// CanTransitionMembership is the boolean form of CheckMembership.
func CanTransitionMembership(actorID uint, m *models.GroupMembership, ownerID uint, action Action) bool {
	return CheckMembership(actorID, m, ownerID, action) == nil
}

// NextMembershipStatus returns the status the action transitions to.
func NextMembershipStatus(action Action) (models.MembershipStatus, bool) {
	rule, ok := membershipRules[action]
	if !ok {
		return "", false
	}
	return rule.to, true
}

// CheckTransfer validates an ownership transfer between two memberships of
// the same group. It is the one multi-record rule: the source must be the
// actor's accepted owner membership, the target an accepted plain member.
func CheckTransfer(actorID uint, from, to *models.GroupMembership) error {
	if from.GroupID != to.GroupID {
		return apperr.Conflictf("memberships %d and %d belong to different groups", from.ID, to.ID)
	}
	if from.ID == to.ID {
		return apperr.SelfReferencef("cannot transfer ownership of membership %d to itself", from.ID)
	}
	if from.UserID != actorID {
		return apperr.Forbiddenf("user %d does not hold membership %d", actorID, from.ID)
	}
	if from.Status != models.MembershipStatusAccepted || from.Role != models.RoleOwner {
		return apperr.Conflictf("membership %d is not an accepted owner membership", from.ID)
	}
	if to.Status != models.MembershipStatusAccepted || to.Role != models.RoleMember {
		return apperr.Conflictf("membership %d is not an accepted member membership", to.ID)
	}
	return nil
}
