package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"photogroup/models"
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment     string        `json:"environment"`
	ServerPort      string        `json:"server_port"`
	EncryptionKey   string        `json:"-"`
	DBHost          string        `json:"db_host"`
	DBPort          string        `json:"db_port"`
	DBUser          string        `json:"db_user"`
	DBPassword      string        `json:"-"`
	DBName          string        `json:"db_name"`
	DBSSLMode       string        `json:"db_ssl_mode"`
	DBMaxIdleConns  int           `json:"db_max_idle_conns"`
	DBMaxOpenConns  int           `json:"db_max_open_conns"`
	UploadDir       string        `json:"upload_dir"`
	UploadMaxMB     int           `json:"upload_max_mb"`
	RateLimitUpload int           `json:"rate_limit_upload"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	SentryDSN       string        `json:"-"`
	Redis           RedisConfig   `json:"redis"`
	SMTPHost        string        `json:"smtp_host"`
	SMTPPort        int           `json:"smtp_port"`
	SMTPUsername    string        `json:"smtp_username"`
	SMTPPassword    string        `json:"-"`
	FromEmail       string        `json:"from_email"`
	AdminEmail      string        `json:"admin_email"`
}

// Load reads configuration from the environment (and .env if present) and
// returns it as an explicit value; nothing in this package is kept global.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServerPort:      getEnv("SERVER_PORT", "5000"),
		EncryptionKey:   getEnv("ENCRYPTION_KEY", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "photogroup"),
		DBSSLMode:       getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns:  getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxMB:     getEnvAsInt("UPLOAD_MAX_MB", 50),
		RateLimitUpload: getEnvAsInt("RATE_LIMIT_UPLOAD", 30),
		CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 6*time.Hour),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ADDRESS", "") != "",
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", ""),
		AdminEmail:   getEnv("ADMIN_EMAIL", ""),
	}

	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}

	logConfig(cfg)
	return cfg, nil
}

// ConnectDB opens the pooled database connection and runs migrations.
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("🔄 Starting database migration...")
	if err := MigrateDB(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return db, nil
}

// MigrateDB creates/updates the schema for every model. The unique indexes on
// groups.group_code and group_members(user_id, group_id) come from the model
// tags and are required for correctness, not just speed.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Photo{},
		&models.ContentReport{},
		&models.BannedUser{},
	)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return d
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig(cfg *Config) {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Server Port: %s", cfg.ServerPort)
	log.Printf("Database: %s@%s:%s/%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	log.Printf("Upload dir: %s (max %dMB per file)", cfg.UploadDir, cfg.UploadMaxMB)
	log.Printf("Redis rate-limit storage: %t", cfg.Redis.Enabled)
	log.Printf("Report notifications: %t", cfg.SMTPHost != "" && cfg.AdminEmail != "")
}
