package models

import "time"

// FriendshipStatus is the lifecycle state of a Friendship record.
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	FriendshipStatusDeclined FriendshipStatus = "declined"
	FriendshipStatusCanceled FriendshipStatus = "canceled"
	FriendshipStatusRemoved  FriendshipStatus = "removed"
)

// Terminal reports whether the status permits no further transition other
// than a fresh request superseding the record.
func (s FriendshipStatus) Terminal() bool {
	switch s {
	case FriendshipStatusDeclined, FriendshipStatusCanceled, FriendshipStatusRemoved:
		return true
	}
	return false
}

// Friendship represents the single relationship record between two users.
// Direction (who asked whom) is kept in RequesterID/RecipientID; uniqueness
// is enforced on the canonical unordered pair (UserLoID, UserHiID) so two
// users requesting each other concurrently cannot create duplicate rows.
type Friendship struct {
	BaseModel
	RequesterID uint             `gorm:"not null" json:"requesterId"`
	RecipientID uint             `gorm:"not null" json:"recipientId"`
	UserLoID    uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	UserHiID    uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptedAt  *time.Time       `json:"acceptedAt,omitempty"`
}

// EnsureCanonicalPair fills the unordered pair key from the directional
// fields. Must be called before creating a Friendship record.
func (f *Friendship) EnsureCanonicalPair() {
	lo, hi := f.RequesterID, f.RecipientID
	if lo > hi {
		lo, hi = hi, lo
	}
	f.UserLoID, f.UserHiID = lo, hi
}

// Involves reports whether the given user is a party to this friendship.
func (f *Friendship) Involves(userID uint) bool {
	return f.RequesterID == userID || f.RecipientID == userID
}

// CounterpartOf returns the other party's ID. Returns 0 if the given user is
// not a party to the friendship.
func (f *Friendship) CounterpartOf(userID uint) uint {
	switch userID {
	case f.RequesterID:
		return f.RecipientID
	case f.RecipientID:
		return f.RequesterID
	}
	return 0
}
