package models

import "time"

// Group is identified publicly by its share code, never by its internal ID.
// The unique index on GroupCode is what makes concurrent code allocation
// safe: two racing creators cannot both commit the same code.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupCode string    `gorm:"uniqueIndex;size:8;not null" json:"group_code"`
	CreatedBy uint      `gorm:"index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
	Photos  []Photo       `gorm:"foreignKey:GroupID" json:"-"`
}

// TableName avoids the reserved word GROUPS in PostgreSQL.
func (Group) TableName() string { return "photo_groups" }

// GroupMember links a user to a group. The composite unique index closes the
// check-then-insert race on concurrent joins; the application-level existence
// check only exists to return a friendly 409.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_group_members_user_group" json:"user_id"`
	GroupID   uint      `gorm:"not null;index;uniqueIndex:uk_group_members_user_group" json:"group_id"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"-"`
}
