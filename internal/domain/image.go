package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload limits for review images.
const (
	// MaxFileSize is the maximum allowed size per file (5 MB).
	MaxFileSize int64 = 5 * 1024 * 1024
	// MaxUploadFiles is the maximum number of files per upload request.
	MaxUploadFiles = 5
)

// AllowedContentTypes lists the accepted image MIME types.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedExtensions lists the accepted file extensions (lowercase, with dot).
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Image represents an image attached to a review.
type Image struct {
	ID          string    `json:"id"`
	ReviewID    string    `json:"review_id"`
	URL         string    `json:"url"`
	ObjectKey   string    `json:"object_key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	AltText     *string   `json:"alt_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewImage creates an image row with a generated ID.
func NewImage(reviewID, url, objectKey, filename, contentType string, size int64) *Image {
	return &Image{
		ID:          uuid.New().String(),
		ReviewID:    reviewID,
		URL:         url,
		ObjectKey:   objectKey,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}
}

// IsAllowedContentType checks whether the given content type is accepted.
func IsAllowedContentType(contentType string) bool {
	return AllowedContentTypes[contentType]
}

// IsAllowedExtension checks whether the filename carries an accepted image
// extension. Matching is case-insensitive.
func IsAllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SanitizeFilename strips any path components from an uploaded filename,
// leaving only the base name. Browsers and clients may send full paths.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return filepath.Base(name)
}

// ValidateUpload checks a single uploaded file against the size, type, and
// extension rules. It returns a reason string when the file is not acceptable.
func ValidateUpload(filename, contentType string, size int64) (ok bool, reason string) {
	if size <= 0 {
		return false, "empty file"
	}
	if size > MaxFileSize {
		return false, "file exceeds 5MB limit"
	}
	if !IsAllowedContentType(contentType) {
		return false, "unsupported content type"
	}
	if !IsAllowedExtension(filename) {
		return false, "unsupported file extension"
	}
	return true, ""
}
