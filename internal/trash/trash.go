// Package trash implements the delete collaborator. The default
// implementation moves files into a trash directory next to them instead of
// unlinking, so a slip of the delete hotkey is recoverable.
package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"galleria/internal/errors"
)

// DefaultDirName is the trash directory created alongside deleted images.
const DefaultDirName = ".galleria-trash"

// Deleter removes an image file. From the engine's perspective a delete is
// atomic: either it succeeds and all in-memory references go with it, or it
// fails and nothing changes.
type Deleter interface {
	Delete(path string) error
}

// Trash moves deleted files into a sibling trash directory.
type Trash struct {
	DirName string
}

// New returns a Trash using the default directory name.
func New() *Trash {
	return &Trash{DirName: DefaultDirName}
}

// Delete moves path into the trash directory, renaming on collision.
func (t *Trash) Delete(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewImageError("cannot delete image", path, errors.DeleteFailed, err)
	}
	if info.IsDir() {
		return errors.NewImageError("refusing to delete a directory", path, errors.DeleteFailed, nil)
	}

	dirName := t.DirName
	if dirName == "" {
		dirName = DefaultDirName
	}
	trashDir := filepath.Join(filepath.Dir(path), dirName)
	if err := os.MkdirAll(trashDir, 0755); err != nil {
		return errors.NewImageError("cannot create trash directory", path, errors.DeleteFailed, err)
	}

	dest, err := uniqueName(filepath.Join(trashDir, filepath.Base(path)))
	if err != nil {
		return errors.NewImageError("cannot pick trash name", path, errors.DeleteFailed, err)
	}
	if err := os.Rename(path, dest); err != nil {
		return errors.NewImageError("cannot move image to trash", path, errors.DeleteFailed, err)
	}
	return nil
}

// uniqueName finds a destination that does not collide with an existing
// trashed file, appending _1, _2, ... before the extension.
func uniqueName(dest string) (string, error) {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest, nil
	}
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for i := 1; i < 1000; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free trash name for %s", dest)
}
