package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"galleria/internal/trash"
	"galleria/internal/watch"
	"galleria/pkg/types"
)

// ScanDirectory lists the images and subdirectories of dir. Hidden entries
// and the trash directory are skipped. Metadata that cannot be read leaves
// the image with an unknown size rather than dropping it.
func ScanDirectory(dir string) ([]types.ImageRef, []types.DirectoryRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var images []types.ImageRef
	var dirs []types.DirectoryRef
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == trash.DefaultDirName {
			continue
		}
		full := filepath.Join(dir, name)
		if entry.IsDir() {
			dirs = append(dirs, types.DirectoryRef{Path: full})
			continue
		}
		if !watch.IsImagePath(name) {
			continue
		}
		img := types.ImageRef{Path: full}
		if info, err := entry.Info(); err == nil {
			img.SizeBytes = info.Size()
			img.SizeKnown = true
			img.CreatedAt = info.ModTime()
		}
		images = append(images, img)
	}
	return images, dirs, nil
}

// StatImage builds an ImageRef for a single file, used when the watcher
// reports a new image.
func StatImage(path string) types.ImageRef {
	img := types.ImageRef{Path: path}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		img.SizeBytes = info.Size()
		img.SizeKnown = true
		img.CreatedAt = info.ModTime()
	}
	return img
}
