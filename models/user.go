package models

import "time"

// User represents a registered account. Accounts are keyed internally by ID;
// the phone number is what the ban ledger tracks, so it is required.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	PhoneNumber  string    `gorm:"size:32;not null;index" json:"phone_number"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	IsSuperAdmin bool      `gorm:"default:false" json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`

	// Relations
	Memberships []GroupMember `gorm:"foreignKey:UserID" json:"-"`
	Photos      []Photo       `gorm:"foreignKey:UserID" json:"-"`
}

// BannedUser is a standing block entry keyed by phone number. It is
// deliberately independent of the User row: the ban survives deletion of the
// account it was issued against, and registration checks it by phone number.
type BannedUser struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"size:32;not null;index" json:"phone_number"`
	Username    string    `gorm:"size:64" json:"username"`
	Reason      string    `json:"reason"`
	BannedAt    time.Time `gorm:"autoCreateTime" json:"banned_at"`
}
