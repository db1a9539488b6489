package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"photogroup/models"
	"photogroup/utils"
)

type GroupController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewGroupController(db *gorm.DB, logger *log.Logger) *GroupController {
	return &GroupController{DB: db, Logger: logger}
}

type JoinGroupRequest struct {
	GroupCode string `json:"group_code" validate:"required,len=8"`
}

// allocateGroupCode finds a share code that is free at the moment of the
// check. The unique index on groups.group_code is the real guarantee; if a
// concurrent creator wins the race for the same code, the surrounding insert
// fails with a duplicate-key error and the whole create is retried.
func allocateGroupCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < utils.MaxCodeAttempts; attempt++ {
		code, err := utils.GenerateGroupCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&models.Group{}).Where("group_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", utils.ErrCodeSpaceExhausted
}

// isGroupMember reports whether the user has a membership row for the group.
func isGroupMember(db *gorm.DB, userID, groupID uint) (bool, error) {
	var count int64
	err := db.Model(&models.GroupMember{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	return count > 0, err
}

// CreateGroup allocates a fresh share code and creates the group with the
// caller as its first, admin member. Group row and membership row commit as
// one unit so a group can never exist without an admin.
func (gc *GroupController) CreateGroup(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var group models.Group
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = gc.DB.Transaction(func(tx *gorm.DB) error {
			code, txErr := allocateGroupCode(tx)
			if txErr != nil {
				return txErr
			}

			group = models.Group{GroupCode: code, CreatedBy: user.ID}
			if txErr := tx.Create(&group).Error; txErr != nil {
				return txErr
			}

			member := models.GroupMember{UserID: user.ID, GroupID: group.ID, IsAdmin: true}
			return tx.Create(&member).Error
		})
		// A duplicate-key error here means a concurrent creator committed the
		// same code between our check and insert. At 36^8 possible codes one
		// straight retry is enough.
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		group = models.Group{}
	}
	if err != nil {
		if errors.Is(err, utils.ErrCodeSpaceExhausted) {
			gc.Logger.Printf("Group code allocation exhausted after %d attempts", utils.MaxCodeAttempts)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Could not allocate a group code", nil)
		}
		gc.Logger.Printf("Failed to create group for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create group", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Group created successfully",
		"group_code": group.GroupCode,
		"group_id":   group.ID,
		"is_admin":   true,
	})
}

// JoinGroup adds the caller to the group behind a share code as a non-admin
// member. Joining twice is a conflict, reported either by the explicit check
// or, under concurrency, by the composite unique index.
func (gc *GroupController) JoinGroup(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req JoinGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var group models.Group
	if err := gc.DB.Where("group_code = ?", req.GroupCode).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Group not found", nil)
		}
		gc.Logger.Printf("Failed to look up group %s: %v", req.GroupCode, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to join group", nil)
	}

	member, err := isGroupMember(gc.DB, user.ID, group.ID)
	if err != nil {
		gc.Logger.Printf("Failed to check membership: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to join group", nil)
	}
	if member {
		return utils.ErrorResponse(c, fiber.StatusConflict, "You are already a member of this group", nil)
	}

	newMember := models.GroupMember{UserID: user.ID, GroupID: group.ID, IsAdmin: false}
	if err := gc.DB.Create(&newMember).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "You are already a member of this group", nil)
		}
		gc.Logger.Printf("Failed to add member %d to group %d: %v", user.ID, group.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to join group", nil)
	}

	return c.JSON(fiber.Map{
		"message":  "Joined group successfully",
		"group_id": group.ID,
		"is_admin": false,
	})
}

// MyGroups lists the groups the caller belongs to, with their admin flag.
func (gc *GroupController) MyGroups(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	type groupRow struct {
		GroupID   uint   `json:"group_id"`
		GroupCode string `json:"group_code"`
		IsAdmin   bool   `json:"is_admin"`
	}

	var rows []groupRow
	err := gc.DB.Model(&models.GroupMember{}).
		Select("group_members.group_id, photo_groups.group_code, group_members.is_admin").
		Joins("JOIN photo_groups ON photo_groups.id = group_members.group_id").
		Where("group_members.user_id = ?", user.ID).
		Order("group_members.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		gc.Logger.Printf("Failed to list groups for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list groups", nil)
	}

	return c.JSON(utils.SuccessResponse(rows))
}
