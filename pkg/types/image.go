package types

import (
	"path/filepath"
	"time"
)

// ImageRef identifies one image in the open directory. Path is the unique
// key; everything else is optional metadata filled in by the scanner.
type ImageRef struct {
	Path      string    `yaml:"path" json:"path"`
	SizeBytes int64     `yaml:"size_bytes,omitempty" json:"sizeBytes,omitempty"`
	SizeKnown bool      `yaml:"size_known,omitempty" json:"sizeKnown,omitempty"`
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"createdAt,omitempty"`
}

// Name returns the base name of the image file.
func (i ImageRef) Name() string {
	return filepath.Base(i.Path)
}

// DirectoryRef identifies a subdirectory of the open directory.
type DirectoryRef struct {
	Path string `yaml:"path" json:"path"`
}

// Name returns the base name of the directory.
func (d DirectoryRef) Name() string {
	return filepath.Base(d.Path)
}
