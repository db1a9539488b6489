package models

import "time"

// Photo is one uploaded media item (image or video). FileName is the stored
// name under the upload directory, already sanitized and made unique at
// upload time. Membership of the uploader is checked at upload time only.
type Photo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	CreatedAt time.Time `json:"upload_date"`
	UpdatedAt time.Time `json:"-"`
}
