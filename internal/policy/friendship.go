package policy

import (
	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
	"github.com/joaoc-dev/blueledger-sub001/internal/models"
)

// friendshipRule is one row of the friendship transition table.
type friendshipRule struct {
	from    models.FriendshipStatus
	to      models.FriendshipStatus
	allowed func(actorID uint, f *models.Friendship) bool
}

var friendshipRules = map[Action]friendshipRule{
	ActionAccept: {
		from:    models.FriendshipStatusPending,
		to:      models.FriendshipStatusAccepted,
		allowed: friendshipRecipient,
	},
	ActionDecline: {
		from:    models.FriendshipStatusPending,
		to:      models.FriendshipStatusDeclined,
		allowed: friendshipRecipient,
	},
	ActionCancel: {
		from:    models.FriendshipStatusPending,
		to:      models.FriendshipStatusCanceled,
		allowed: friendshipRequester,
	},
	ActionRemove: {
		from:    models.FriendshipStatusAccepted,
		to:      models.FriendshipStatusRemoved,
		allowed: friendshipParty,
	},
}

func friendshipRecipient(actorID uint, f *models.Friendship) bool {
	return f.RecipientID == actorID
}

func friendshipRequester(actorID uint, f *models.Friendship) bool {
	return f.RequesterID == actorID
}

func friendshipParty(actorID uint, f *models.Friendship) bool {
	return f.Involves(actorID)
}

// CheckFriendship decides whether the actor may apply the action to the
// friendship record. Entitlement is checked before state so that a wrong
// party always gets Forbidden regardless of the record's current status.
func CheckFriendship(actorID uint, f *models.Friendship, action Action) error {
	rule, ok := friendshipRules[action]
	if !ok {
		return apperr.Forbiddenf("action %q is not a friendship transition", action)
	}
	if !rule.allowed(actorID, f) {
		return apperr.Forbiddenf("user %d may not %s friendship %d", actorID, action, f.ID)
	}
	if f.Status != rule.from {
		return apperr.Conflictf("friendship %d is %s, not %s", f.ID, f.Status, rule.from)
	}
	return nil
}

// CanTransitionFriendship is the boolean form of CheckFriendship, usable for
// capability checks (e.g. whether to render a Remove button).
func CanTransitionFriendship(actorID uint, f *models.Friendship, action Action) bool {
	return CheckFriendship(actorID, f, action) == nil
}

// NextFriendshipStatus returns the status the action transitions to.
func NextFriendshipStatus(action Action) (models.FriendshipStatus, bool) {
	rule, ok := friendshipRules[action]
	if !ok {
		return "", false
	}
	return rule.to, true
}
