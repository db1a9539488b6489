package controller

import (
	"errors"
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"photogroup/config"
	"photogroup/models"
	"photogroup/utils"
)

type AuthController struct {
	DB     *gorm.DB
	Config *config.Config
	Store  *utils.FileStore
	Logger *log.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, store *utils.FileStore, logger *log.Logger) *AuthController {
	return &AuthController{DB: db, Config: cfg, Store: store, Logger: logger}
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Register creates a new account. Registration is refused outright when the
// phone number appears in the ban ledger.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "email must be a valid email", nil)
	}

	var banCount int64
	if err := ac.DB.Model(&models.BannedUser{}).Where("phone_number = ?", req.PhoneNumber).Count(&banCount).Error; err != nil {
		ac.Logger.Printf("Failed to check ban ledger: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create account", nil)
	}
	if banCount > 0 {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "This phone number is banned", nil)
	}

	var existing models.User
	if err := ac.DB.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "User with this email or username already exists", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		ac.Logger.Printf("Failed to hash password: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create account", nil)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		PhoneNumber:  req.PhoneNumber,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		// The unique indexes are the backstop for concurrent registrations
		// that slip past the existence check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "User with this email or username already exists", nil)
		}
		ac.Logger.Printf("Failed to create user: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create account", nil)
	}

	accessToken, refreshToken, err := utils.GenerateJWTToken(&user, ac.Config.EncryptionKey)
	if err != nil {
		ac.Logger.Printf("Failed to generate tokens for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tokens", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

// Login verifies credentials and returns a token pair.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", nil)
	}

	accessToken, refreshToken, err := utils.GenerateJWTToken(&user, ac.Config.EncryptionKey)
	if err != nil {
		ac.Logger.Printf("Failed to generate tokens for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tokens", nil)
	}

	return c.JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

// RefreshToken exchanges a refresh token for a new pair.
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	accessToken, refreshToken, err := utils.RefreshTokens(ac.DB, req.RefreshToken, ac.Config.EncryptionKey)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token", nil)
	}

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// GetCurrentUser returns the authenticated user's profile.
func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(user)
}

// UpdateProfile updates profile fields and optionally the avatar image,
// posted as multipart form data.
func (ac *AuthController) UpdateProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	updates := map[string]interface{}{}
	if v := c.FormValue("username"); v != "" {
		updates["username"] = v
	}
	if v := c.FormValue("email"); v != "" {
		if err := checkmail.ValidateFormat(v); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "email must be a valid email", nil)
		}
		updates["email"] = v
	}
	if v := c.FormValue("phone_number"); v != "" {
		updates["phone_number"] = v
	}

	if file, err := c.FormFile("profile_image"); err == nil {
		if !utils.IsAllowedImage(file.Filename) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "File type not allowed", nil)
		}
		src, err := file.Open()
		if err != nil {
			ac.Logger.Printf("Failed to open profile image upload: %v", err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save profile image", nil)
		}
		defer src.Close()

		storedName := utils.UniqueFilename(file.Filename)
		if err := ac.Store.Save(storedName, src); err != nil {
			ac.Logger.Printf("Failed to store profile image: %v", err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save profile image", nil)
		}
		updates["profile_image"] = storedName
	}

	if len(updates) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Nothing to update", nil)
	}

	if err := ac.DB.Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Username or email already taken", nil)
		}
		ac.Logger.Printf("Failed to update profile for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Profile updated successfully"}))
}

// DeleteAccount removes the caller's memberships and then the account itself
// in one transaction. Their uploads stay behind in the groups they were
// shared with.
func (ac *AuthController) DeleteAccount(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		ac.Logger.Printf("Failed to delete account %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete account", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Account deleted successfully"}))
}
