package models

// User represents an account in the system. The relationship core only
// references users by ID; profile fields live here for API responses.
type User struct {
	BaseModel
	Username  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email     string `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname  string `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	AvatarURL string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
}

// UserBasicInfo holds minimal public information about a user.
// Used when embedding counterpart info in friendship and invite listings.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName sets the table name for the User model.
func (User) TableName() string {
	return "users"
}
