package publish

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when no publish has the requested id.
var ErrNotFound = errors.New("publish not found")

// File is a published file record.
type File struct {
	ID                int64     `json:"id"`
	Code              string    `json:"code"`
	Path              string    `json:"path"`
	PublishedFileType string    `json:"published_file_type"`
	VersionNumber     int       `json:"version_number"`
	Entity            string    `json:"entity,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	PublishedFileType string
	Entity            string
}

// normalize fills defaults and rejects records that cannot be loaded.
func (f *File) normalize() error {
	f.Path = strings.TrimSpace(f.Path)
	if f.Path == "" {
		return errors.New("publish path is required")
	}
	f.PublishedFileType = strings.TrimSpace(f.PublishedFileType)
	if f.PublishedFileType == "" {
		return errors.New("published file type is required")
	}
	if f.VersionNumber < 0 {
		return errors.New("version number must not be negative")
	}
	f.Code = strings.TrimSpace(f.Code)
	if f.Code == "" {
		f.Code = filepath.Base(f.Path)
	}
	f.Entity = strings.TrimSpace(f.Entity)
	return nil
}
