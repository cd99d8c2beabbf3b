package domain

import "time"

// PhotoType distinguishes before/after photos on a work log.
type PhotoType string

const (
	PhotoTypeBefore PhotoType = "before"
	PhotoTypeAfter  PhotoType = "after"
)

// ValidPhotoType reports whether t is a known photo type.
func ValidPhotoType(t PhotoType) bool {
	return t == PhotoTypeBefore || t == PhotoTypeAfter
}

// WorkLogPhoto is stored photo metadata attached to a work log. The file
// bytes live in external storage under StorageKey.
type WorkLogPhoto struct {
	ID           int64
	WorkLogID    int64
	Type         PhotoType
	FileName     string
	OriginalName string
	StorageKey   string
	ThumbnailKey string
	FileSize     int64
	MimeType     string
	SortOrder    int
	CreatedBy    *int64
	CreatedAt    time.Time
}
