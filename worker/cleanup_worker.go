package worker

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"photogroup/models"
	"photogroup/utils"
)

// minFileAge keeps the sweeper away from uploads whose database row may not
// have committed yet.
const minFileAge = 24 * time.Hour

// CleanupWorker periodically removes files in the upload directory that no
// photo row or user avatar references anymore, e.g. leftovers from deleted
// content whose file removal failed.
type CleanupWorker struct {
	DB       *gorm.DB
	Store    *utils.FileStore
	Logger   *log.Logger
	Interval time.Duration
}

func NewCleanupWorker(db *gorm.DB, store *utils.FileStore, interval time.Duration, logger *log.Logger) *CleanupWorker {
	return &CleanupWorker{
		DB:       db,
		Store:    store,
		Logger:   logger,
		Interval: interval,
	}
}

func (cw *CleanupWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	cw.Logger.Println("Cleanup worker started")

	ticker := time.NewTicker(cw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cw.Logger.Println("Cleanup worker shutting down...")
			return
		case <-ticker.C:
			cw.sweepOrphans()
		}
	}
}

// referencedNames collects every stored file name the database still knows
// about, including derived thumbnails.
func (cw *CleanupWorker) referencedNames() (map[string]bool, error) {
	referenced := make(map[string]bool)

	var photoNames []string
	if err := cw.DB.Model(&models.Photo{}).Pluck("file_name", &photoNames).Error; err != nil {
		return nil, err
	}
	for _, name := range photoNames {
		referenced[name] = true
		referenced[utils.ThumbPrefix+name] = true
	}

	var avatarNames []string
	if err := cw.DB.Model(&models.User{}).
		Where("profile_image IS NOT NULL").
		Pluck("profile_image", &avatarNames).Error; err != nil {
		return nil, err
	}
	for _, name := range avatarNames {
		referenced[name] = true
	}

	return referenced, nil
}

func (cw *CleanupWorker) sweepOrphans() {
	referenced, err := cw.referencedNames()
	if err != nil {
		cw.Logger.Printf("Error collecting referenced files: %v", err)
		return
	}

	entries, err := os.ReadDir(cw.Store.Root)
	if err != nil {
		cw.Logger.Printf("Error reading upload directory: %v", err)
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || referenced[name] {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < minFileAge {
			continue
		}
		if err := os.Remove(filepath.Join(cw.Store.Root, name)); err != nil {
			cw.Logger.Printf("Error removing orphaned file %s: %v", name, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		cw.Logger.Printf("Removed %d orphaned file(s)", removed)
	}
}
