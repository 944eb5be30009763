package models

// NotificationType identifies what kind of event a notification announces.
type NotificationType string

const (
	NotificationTypeFriendRequest  NotificationType = "FRIEND_REQUEST"
	NotificationTypeGroupInvite    NotificationType = "GROUP_INVITE"
	NotificationTypeAddedToExpense NotificationType = "ADDED_TO_EXPENSE"
)

// Notification is a durable per-recipient record created once per qualifying
// transition. It is strictly downstream: a notification never triggers a
// transition itself.
type Notification struct {
	BaseModel
	UserID     uint             `gorm:"not null;index" json:"userId"`
	FromUserID uint             `gorm:"not null" json:"fromUserId"`
	Type       NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	IsRead     bool             `gorm:"not null;default:false" json:"isRead"`
}
