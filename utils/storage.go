package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ThumbPrefix is prepended to a stored file name to derive its thumbnail name.
const ThumbPrefix = "thumb_"

const thumbMaxSize = 320

var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

var videoExtensions = map[string]bool{
	"mp4": true,
	"mov": true,
	"avi": true,
	"m4v": true,
}

// FileStore is the single accessor for everything under the upload directory.
// All handler file I/O goes through it so that path sanitization cannot be
// bypassed.
type FileStore struct {
	Root string
}

// NewFileStore creates the upload directory if needed and returns the store.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &FileStore{Root: root}, nil
}

// SanitizeFilename strips any directory components from a client-supplied
// name. An empty result means the name was nothing but path noise.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// UniqueFilename builds a collision-free stored name for an upload,
// preserving the original (sanitized) name for readability.
func UniqueFilename(original string) string {
	base := SanitizeFilename(original)
	if base == "" {
		base = "upload"
	}
	return uuid.NewString()[:8] + "_" + base
}

// FileExtension returns the lowercased extension without the dot.
func FileExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return strings.TrimPrefix(ext, ".")
}

// IsAllowedImage reports whether the file name has a permitted image extension.
func IsAllowedImage(name string) bool {
	return imageExtensions[FileExtension(name)]
}

// IsAllowedMedia reports whether the file name has a permitted image or video
// extension.
func IsAllowedMedia(name string) bool {
	ext := FileExtension(name)
	return imageExtensions[ext] || videoExtensions[ext]
}

// MediaType classifies a stored file as "image" or "video" by extension.
func MediaType(name string) string {
	if videoExtensions[FileExtension(name)] {
		return "video"
	}
	return "image"
}

// Path returns the absolute location of a stored file. The name is sanitized
// again so a crafted value can never escape the root.
func (fs *FileStore) Path(name string) string {
	return filepath.Join(fs.Root, SanitizeFilename(name))
}

// Save writes the content of r under the given stored name.
func (fs *FileStore) Save(name string, r io.Reader) error {
	clean := SanitizeFilename(name)
	if clean == "" {
		return fmt.Errorf("invalid file name %q", name)
	}
	dst, err := os.Create(filepath.Join(fs.Root, clean))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, r)
	return err
}

// Exists reports whether a stored file is present.
func (fs *FileStore) Exists(name string) bool {
	_, err := os.Stat(fs.Path(name))
	return err == nil
}

// Remove deletes a stored file. A missing file is not an error: the caller
// only cares that the file is gone.
func (fs *FileStore) Remove(name string) error {
	err := os.Remove(fs.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MakeThumbnail renders a thumb_<name> preview for a stored image. Videos and
// undecodable files are skipped without error; a thumbnail is a nicety, not
// part of the upload contract.
func (fs *FileStore) MakeThumbnail(name string) error {
	if !IsAllowedImage(name) {
		return nil
	}
	img, err := imaging.Open(fs.Path(name))
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, thumbMaxSize, thumbMaxSize, imaging.Lanczos)
	return imaging.Save(thumb, fs.Path(ThumbPrefix+name))
}
