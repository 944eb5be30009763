package models

import "time"

// MembershipRole is the role a user holds within a group.
type MembershipRole string

const (
	RoleOwner  MembershipRole = "owner"
	RoleMember MembershipRole = "member"
)

// MembershipStatus is the lifecycle state of a GroupMembership record.
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusAccepted MembershipStatus = "accepted"
	MembershipStatusDeclined MembershipStatus = "declined"
	MembershipStatusCanceled MembershipStatus = "canceled"
	MembershipStatusRemoved  MembershipStatus = "removed"
	MembershipStatusLeft     MembershipStatus = "left"
)

// Terminal reports whether the status permits no further transition other
// than a fresh invite superseding the record.
func (s MembershipStatus) Terminal() bool {
	switch s {
	case MembershipStatusDeclined, MembershipStatusCanceled, MembershipStatusRemoved, MembershipStatusLeft:
		return true
	}
	return false
}

// GroupMembership links a user to a group with a role and lifecycle status.
// The (GroupID, UserID) pair is unique; a terminal record is superseded in
// place by a fresh invite rather than inserted again.
type GroupMembership struct {
	BaseModel
	GroupID     uint             `gorm:"not null;uniqueIndex:idx_membership_group_user" json:"groupId"`
	UserID      uint             `gorm:"not null;uniqueIndex:idx_membership_group_user" json:"userId"`
	InvitedByID uint             `gorm:"not null" json:"invitedById"`
	Role        MembershipRole   `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status      MembershipStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptedAt  *time.Time       `json:"acceptedAt,omitempty"`
}

// TableName sets the table name for the GroupMembership model.
func (GroupMembership) TableName() string {
	return "group_memberships"
}
