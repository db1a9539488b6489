package models

import "time"

// Report status values. A report only ever exists in the pending state: every
// admin action on it is terminal and removes the row.
const ReportStatusPending = "pending"

// Moderation actions accepted by the resolve endpoint.
const (
	ReportActionDismiss       = "dismiss"
	ReportActionDeleteContent = "delete_content"
	ReportActionBanUser       = "ban_user"
)

// Ban reasons recorded in the ledger.
const (
	BanReasonReportedContent = "Reported Content"
	BanReasonManual          = "Manual Ban by Admin"
)

// ContentReport is one pending entry in the moderation ledger. UploaderID is
// captured at report time so the report stays actionable even if the photo
// row vanishes before an admin gets to it.
type ContentReport struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReporterID uint      `gorm:"not null;index" json:"reporter_id"`
	PhotoID    uint      `gorm:"not null;index" json:"photo_id"`
	UploaderID uint      `gorm:"not null;index" json:"uploader_id"`
	Reason     string    `gorm:"not null" json:"reason"`
	Status     string    `gorm:"size:16;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"-"`
}
