package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"photogroup/config"
	"photogroup/models"
	"photogroup/utils"
)

type PhotoController struct {
	DB     *gorm.DB
	Config *config.Config
	Store  *utils.FileStore
	Logger *log.Logger
}

func NewPhotoController(db *gorm.DB, cfg *config.Config, store *utils.FileStore, logger *log.Logger) *PhotoController {
	return &PhotoController{DB: db, Config: cfg, Store: store, Logger: logger}
}

// PhotoItem is one entry in a group's media listing.
type PhotoItem struct {
	ID         uint   `json:"id"`
	URL        string `json:"url"`
	UploadedBy string `json:"uploaded_by"`
	UserAvatar string `json:"user_avatar,omitempty"`
	Date       string `json:"date"`
	MediaType  string `json:"media_type"`
}

// UploadPhoto stores a media file into a group. The uploader must be a member
// of the target group; on any refusal no Photo row is written.
func (pc *PhotoController) UploadPhoto(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	file, err := c.FormFile("photo")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file part", nil)
	}
	groupCode := c.FormValue("group_code")
	if file.Filename == "" || groupCode == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing data", nil)
	}

	if !utils.IsAllowedMedia(file.Filename) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File type not allowed", nil)
	}
	if file.Size > int64(pc.Config.UploadMaxMB)<<20 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File too large", nil)
	}

	var group models.Group
	if err := pc.DB.Where("group_code = ?", groupCode).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Group not found", nil)
		}
		pc.Logger.Printf("Failed to look up group %s: %v", groupCode, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}

	member, err := isGroupMember(pc.DB, user.ID, group.ID)
	if err != nil {
		pc.Logger.Printf("Failed to check membership: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}
	if !member {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "You are not a member of this group", nil)
	}

	src, err := file.Open()
	if err != nil {
		pc.Logger.Printf("Failed to open upload: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}
	defer src.Close()

	storedName := utils.UniqueFilename(file.Filename)
	if err := pc.Store.Save(storedName, src); err != nil {
		pc.Logger.Printf("Failed to store upload %s: %v", storedName, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}

	// Thumbnails are best-effort: an image we cannot decode still uploads.
	if err := pc.Store.MakeThumbnail(storedName); err != nil {
		pc.Logger.Printf("Failed to build thumbnail for %s: %v", storedName, err)
	}

	photo := models.Photo{FileName: storedName, UserID: user.ID, GroupID: group.ID}
	if err := pc.DB.Create(&photo).Error; err != nil {
		// No row, no file: do not leave an orphan behind on the disk.
		_ = pc.Store.Remove(storedName)
		_ = pc.Store.Remove(utils.ThumbPrefix + storedName)
		pc.Logger.Printf("Failed to record upload %s: %v", storedName, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Upload failed", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "File uploaded successfully",
		"filename": storedName,
		"group_id": group.ID,
	})
}

// GetGroupPhotos lists a group's media for a member, newest first.
func (pc *PhotoController) GetGroupPhotos(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	groupCode := c.Query("group_code")
	if groupCode == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "group_code is required", nil)
	}

	var group models.Group
	if err := pc.DB.Where("group_code = ?", groupCode).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Group not found", nil)
		}
		pc.Logger.Printf("Failed to look up group %s: %v", groupCode, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch photos", nil)
	}

	member, err := isGroupMember(pc.DB, user.ID, group.ID)
	if err != nil {
		pc.Logger.Printf("Failed to check membership: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch photos", nil)
	}
	if !member {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "You are not authorized to view this group's photos", nil)
	}

	type photoRow struct {
		ID           uint
		FileName     string
		CreatedAt    time.Time
		Username     string
		ProfileImage *string
	}
	var rows []photoRow
	err = pc.DB.Model(&models.Photo{}).
		Select("photos.id, photos.file_name, photos.created_at, users.username, users.profile_image").
		Joins("JOIN users ON users.id = photos.user_id").
		Where("photos.group_id = ?", group.ID).
		Order("photos.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		pc.Logger.Printf("Failed to fetch photos for group %d: %v", group.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch photos", nil)
	}

	items := make([]PhotoItem, 0, len(rows))
	for _, row := range rows {
		item := PhotoItem{
			ID:         row.ID,
			URL:        c.BaseURL() + "/uploads/" + row.FileName,
			UploadedBy: row.Username,
			Date:       row.CreatedAt.UTC().Format(time.RFC3339),
			MediaType:  utils.MediaType(row.FileName),
		}
		if row.ProfileImage != nil {
			item.UserAvatar = *row.ProfileImage
		}
		items = append(items, item)
	}

	return c.JSON(items)
}

// ServeUpload serves a stored file by name. Membership is not re-checked
// here; a media URL, once handed out, keeps working.
func (pc *PhotoController) ServeUpload(c *fiber.Ctx) error {
	name := utils.SanitizeFilename(c.Params("filename"))
	if name == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file name", nil)
	}
	if !pc.Store.Exists(name) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Photo not found", nil)
	}
	return c.SendFile(pc.Store.Path(name))
}
