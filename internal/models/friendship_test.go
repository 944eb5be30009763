package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCanonicalPair(t *testing.T) {
	f := Friendship{RequesterID: 7, RecipientID: 3}
	f.EnsureCanonicalPair()
	assert.EqualValues(t, 3, f.UserLoID)
	assert.EqualValues(t, 7, f.UserHiID)

	// The reverse direction maps to the same key.
	g := Friendship{RequesterID: 3, RecipientID: 7}
	g.EnsureCanonicalPair()
	assert.Equal(t, f.UserLoID, g.UserLoID)
	assert.Equal(t, f.UserHiID, g.UserHiID)
}

func TestCounterpartOf(t *testing.T) {
	f := Friendship{RequesterID: 3, RecipientID: 7}
	assert.EqualValues(t, 7, f.CounterpartOf(3))
	assert.EqualValues(t, 3, f.CounterpartOf(7))
	assert.EqualValues(t, 0, f.CounterpartOf(9))
}

func TestFriendshipStatusTerminal(t *testing.T) {
	assert.False(t, FriendshipStatusPending.Terminal())
	assert.False(t, FriendshipStatusAccepted.Terminal())
	assert.True(t, FriendshipStatusDeclined.Terminal())
	assert.True(t, FriendshipStatusCanceled.Terminal())
	assert.True(t, FriendshipStatusRemoved.Terminal())
}

func TestMembershipStatusTerminal(t *testing.T) {
	assert.False(t, MembershipStatusPending.Terminal())
	assert.False(t, MembershipStatusAccepted.Terminal())
	assert.True(t, MembershipStatusDeclined.Terminal())
	assert.True(t, MembershipStatusCanceled.Terminal())
	assert.True(t, MembershipStatusRemoved.Terminal())
	assert.True(t, MembershipStatusLeft.Terminal())
}
