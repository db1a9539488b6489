package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"photogroup/config"
	controller "photogroup/controllers"
	"photogroup/middleware"
	"photogroup/utils"
)

// SetupRoutes wires every endpoint of the API onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, store *utils.FileStore) {
	requestLog := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	authController := controller.NewAuthController(db, cfg, store, log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile))
	groupController := controller.NewGroupController(db, log.New(os.Stdout, "GROUP: ", log.LstdFlags))
	photoController := controller.NewPhotoController(db, cfg, store, log.New(os.Stdout, "PHOTO: ", log.LstdFlags))
	adminController := controller.NewAdminController(db, cfg, store, utils.NewReportMailer(cfg), log.New(os.Stdout, "ADMIN: ", log.LstdFlags))

	protected := middleware.Protected(db, cfg.EncryptionKey)

	// Public auth endpoints (no authentication required)
	auth := app.Group("/auth", requestLog)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", protected)
	protectedAuth.Get("/me", authController.GetCurrentUser)
	protectedAuth.Post("/update-profile", authController.UpdateProfile)
	protectedAuth.Delete("/delete-account", authController.DeleteAccount)

	// Group registry
	groups := app.Group("/groups", requestLog, protected)
	groups.Post("/create", groupController.CreateGroup)
	groups.Post("/join", groupController.JoinGroup)
	groups.Get("/mine", groupController.MyGroups)

	// Media
	photos := app.Group("/photos", requestLog, protected)
	photos.Post("/upload", middleware.UploadRateLimiter(cfg), photoController.UploadPhoto)
	photos.Get("/group", photoController.GetGroupPhotos)

	// Stored files are public by name; membership is checked at listing
	// time, not at retrieval time.
	app.Get("/uploads/:filename", photoController.ServeUpload)

	// Moderation
	app.Post("/reports", requestLog, protected, adminController.ReportContent)

	admin := app.Group("/admin", requestLog, protected)
	admin.Get("/get-reports", adminController.GetReports)
	admin.Post("/resolve-report", adminController.ResolveReport)
	admin.Get("/get-banned-users", adminController.GetBannedUsers)
	admin.Post("/unban-user", adminController.UnbanUser)
	admin.Post("/manual-ban", adminController.ManualBan)
}
