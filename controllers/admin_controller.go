package controller

import (
	"errors"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"photogroup/config"
	"photogroup/models"
	"photogroup/utils"
)

type AdminController struct {
	DB     *gorm.DB
	Config *config.Config
	Store  *utils.FileStore
	Mailer *utils.ReportMailer
	Logger *log.Logger
}

func NewAdminController(db *gorm.DB, cfg *config.Config, store *utils.FileStore, mailer *utils.ReportMailer, logger *log.Logger) *AdminController {
	return &AdminController{DB: db, Config: cfg, Store: store, Mailer: mailer, Logger: logger}
}

type ReportContentRequest struct {
	PhotoID uint   `json:"photo_id" validate:"required"`
	Reason  string `json:"reason" validate:"required,max=500"`
}

type ResolveReportRequest struct {
	ReportID uint   `json:"report_id" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=dismiss delete_content ban_user"`
}

type UnbanUserRequest struct {
	BannedID uint `json:"banned_id" validate:"required"`
}

type ManualBanRequest struct {
	TargetID uint   `json:"target_id"`
	Phone    string `json:"phone"`
}

var errSelfBan = errors.New("admins cannot ban themselves")

// requireSuperAdmin returns the caller if they hold the super-admin flag,
// or nil after writing the 403.
func requireSuperAdmin(c *fiber.Ctx) *models.User {
	user := c.Locals("user").(*models.User)
	if !user.IsSuperAdmin {
		_ = utils.ErrorResponse(c, fiber.StatusForbidden, "Unauthorized", nil)
		return nil
	}
	return user
}

// ReportContent files a report against a photo. Any authenticated user can
// report; the uploader is captured now so the report survives the photo.
func (ac *AdminController) ReportContent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req ReportContentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var photo models.Photo
	if err := ac.DB.First(&photo, req.PhotoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Photo not found", nil)
		}
		ac.Logger.Printf("Failed to look up photo %d: %v", req.PhotoID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit report", nil)
	}

	report := models.ContentReport{
		ReporterID: user.ID,
		PhotoID:    photo.ID,
		UploaderID: photo.UserID,
		Reason:     req.Reason,
		Status:     models.ReportStatusPending,
	}
	if err := ac.DB.Create(&report).Error; err != nil {
		ac.Logger.Printf("Failed to create report: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit report", nil)
	}

	if err := ac.Mailer.Notify(user.Username, photo.FileName, req.Reason); err != nil {
		ac.Logger.Printf("Failed to send report notification: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Report submitted successfully"})
}

// ReportItem is one entry in the moderation queue listing.
type ReportItem struct {
	ReportID         uint   `json:"report_id"`
	Reason           string `json:"reason"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	ReporterID       uint   `json:"reporter_id"`
	ReporterUsername string `json:"reporter_username"`
	UploaderID       uint   `json:"uploader_id"`
	UploaderUsername string `json:"uploader_username"`
	UploaderPhone    string `json:"uploader_phone"`
	PhotoID          uint   `json:"photo_id"`
	PhotoFilename    string `json:"photo_filename"`
	PhotoURL         string `json:"photo_url"`
	MediaType        string `json:"media_type"`
}

// GetReports returns the pending moderation queue for a super admin.
func (ac *AdminController) GetReports(c *fiber.Ctx) error {
	if requireSuperAdmin(c) == nil {
		return nil
	}

	type reportRow struct {
		ID               uint
		Reason           string
		Status           string
		CreatedAt        time.Time
		ReporterID       uint
		ReporterUsername string
		UploaderID       uint
		UploaderUsername string
		UploaderPhone    string
		PhotoID          uint
		PhotoFilename    string
	}
	var rows []reportRow
	err := ac.DB.Model(&models.ContentReport{}).
		Select(`content_reports.id, content_reports.reason, content_reports.status,
			content_reports.created_at, content_reports.reporter_id,
			u1.username AS reporter_username, content_reports.uploader_id,
			u2.username AS uploader_username, u2.phone_number AS uploader_phone,
			content_reports.photo_id, p.file_name AS photo_filename`).
		Joins("JOIN users u1 ON content_reports.reporter_id = u1.id").
		Joins("JOIN users u2 ON content_reports.uploader_id = u2.id").
		Joins("JOIN photos p ON content_reports.photo_id = p.id").
		Order("content_reports.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		ac.Logger.Printf("Failed to fetch reports: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch reports", nil)
	}

	reports := make([]ReportItem, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, ReportItem{
			ReportID:         row.ID,
			Reason:           row.Reason,
			Status:           row.Status,
			CreatedAt:        row.CreatedAt.UTC().Format(time.RFC3339),
			ReporterID:       row.ReporterID,
			ReporterUsername: row.ReporterUsername,
			UploaderID:       row.UploaderID,
			UploaderUsername: row.UploaderUsername,
			UploaderPhone:    row.UploaderPhone,
			PhotoID:          row.PhotoID,
			PhotoFilename:    row.PhotoFilename,
			PhotoURL:         c.BaseURL() + "/uploads/" + row.PhotoFilename,
			MediaType:        utils.MediaType(row.PhotoFilename),
		})
	}

	return c.JSON(reports)
}

// ResolveReport applies exactly one terminal action to a pending report. All
// row effects run in a single transaction; stale references (photo or
// uploader already gone) are tolerated and still consume the report. Stored
// files are removed only after the transaction commits.
func (ac *AdminController) ResolveReport(c *fiber.Ctx) error {
	admin := requireSuperAdmin(c)
	if admin == nil {
		return nil
	}

	var req ResolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	rlog := logrus.WithFields(logrus.Fields{
		"admin_id":  admin.ID,
		"report_id": req.ReportID,
		"action":    req.Action,
	})

	var filesToRemove []string
	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		var report models.ContentReport
		if err := tx.First(&report, req.ReportID).Error; err != nil {
			return err
		}

		switch req.Action {
		case models.ReportActionDismiss:
			// No other effect.

		case models.ReportActionDeleteContent:
			var photo models.Photo
			err := tx.First(&photo, report.PhotoID).Error
			if err == nil {
				filesToRemove = append(filesToRemove, photo.FileName, utils.ThumbPrefix+photo.FileName)
				if err := tx.Delete(&models.Photo{}, photo.ID).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

		case models.ReportActionBanUser:
			// Same self-ban guard as the manual path.
			if report.UploaderID == admin.ID {
				return errSelfBan
			}
			var target models.User
			err := tx.First(&target, report.UploaderID).Error
			if err == nil {
				ban := models.BannedUser{
					PhoneNumber: target.PhoneNumber,
					Username:    target.Username,
					Reason:      models.BanReasonReportedContent,
				}
				if err := tx.Create(&ban).Error; err != nil {
					return err
				}
				if err := tx.Where("user_id = ?", target.ID).Delete(&models.GroupMember{}).Error; err != nil {
					return err
				}
				if err := tx.Delete(&models.User{}, target.ID).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		// Every action is terminal: the report row goes away.
		return tx.Delete(&models.ContentReport{}, report.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Report not found", nil)
		}
		if errors.Is(err, errSelfBan) {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot ban yourself", nil)
		}
		rlog.WithError(err).Error("Failed to resolve report")
		sentry.CaptureException(err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve report", nil)
	}

	for _, name := range filesToRemove {
		if err := ac.Store.Remove(name); err != nil {
			rlog.WithError(err).WithField("file", name).Warn("Failed to remove stored file")
			sentry.CaptureException(err)
		}
	}

	rlog.Info("Report resolved")
	return c.JSON(fiber.Map{"message": "Action completed"})
}

// GetBannedUsers returns the ban ledger, newest first.
func (ac *AdminController) GetBannedUsers(c *fiber.Ctx) error {
	if requireSuperAdmin(c) == nil {
		return nil
	}

	var banned []models.BannedUser
	if err := ac.DB.Order("banned_at DESC").Find(&banned).Error; err != nil {
		ac.Logger.Printf("Failed to fetch banned users: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch banned users", nil)
	}

	return c.JSON(banned)
}

// UnbanUser removes one entry from the ban ledger.
func (ac *AdminController) UnbanUser(c *fiber.Ctx) error {
	if requireSuperAdmin(c) == nil {
		return nil
	}

	var req UnbanUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := ac.DB.Delete(&models.BannedUser{}, req.BannedID).Error; err != nil {
		ac.Logger.Printf("Failed to unban %d: %v", req.BannedID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unban user", nil)
	}

	return c.JSON(fiber.Map{"message": "User unbanned"})
}

// ManualBan bans a user picked by id or phone number: records the ban and
// deletes the account with its memberships in one transaction.
func (ac *AdminController) ManualBan(c *fiber.Ctx) error {
	admin := requireSuperAdmin(c)
	if admin == nil {
		return nil
	}

	var req ManualBanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.TargetID == 0 && req.Phone == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Phone number or ID required", nil)
	}

	var target models.User
	var err error
	if req.TargetID != 0 {
		err = ac.DB.First(&target, req.TargetID).Error
	} else {
		err = ac.DB.Where("phone_number = ?", req.Phone).First(&target).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
		}
		ac.Logger.Printf("Failed to look up ban target: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to ban user", nil)
	}

	if target.ID == admin.ID {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot ban yourself", nil)
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		ban := models.BannedUser{
			PhoneNumber: target.PhoneNumber,
			Username:    target.Username,
			Reason:      models.BanReasonManual,
		}
		if err := tx.Create(&ban).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", target.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, target.ID).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"admin_id":  admin.ID,
			"target_id": target.ID,
		}).WithError(err).Error("Failed to ban user")
		sentry.CaptureException(err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to ban user", nil)
	}

	return c.JSON(fiber.Map{"message": "User banned and deleted"})
}
