package models

// GroupStatus marks whether a group is live or archived.
type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "active"
	GroupStatusInactive GroupStatus = "inactive"
)

// Group represents a shared-expense group. OwnerID is a cached projection of
// the single accepted owner membership; it is rebuilt transactionally on
// ownership transfer and never consulted alone for authorization decisions.
type Group struct {
	BaseModel
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	OwnerID     uint        `gorm:"not null" json:"ownerId"`
	Status      GroupStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName sets the table name for the Group model.
func (Group) TableName() string {
	return "groups"
}
