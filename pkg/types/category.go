package types

import (
	"sort"
	"time"
)

// CategoryUncategorized is the pseudo category id that filters for images
// with no assignments at all.
const CategoryUncategorized = "uncategorized"

// Category is a user-defined tag that can be assigned to images.
type Category struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"` // hex string, e.g. "#7B61FF"
}

// CategoryAssignment records one category attached to one image. AssignedAt
// preserves assignment chronology; the slice order in AssignmentMap matches
// insertion order.
type CategoryAssignment struct {
	CategoryID string    `yaml:"category_id" json:"categoryId"`
	AssignedAt time.Time `yaml:"assigned_at" json:"assignedAt"`
}

// AssignmentMap maps an image path to its ordered category assignments.
// No duplicate category id may appear within one image's list.
type AssignmentMap map[string][]CategoryAssignment

// Has reports whether the image at path carries the given category.
func (m AssignmentMap) Has(path, categoryID string) bool {
	for _, a := range m[path] {
		if a.CategoryID == categoryID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Mutations always go through copies so that
// snapshots handed out earlier stay valid.
func (m AssignmentMap) Clone() AssignmentMap {
	if m == nil {
		return nil
	}
	out := make(AssignmentMap, len(m))
	for path, list := range m {
		cp := make([]CategoryAssignment, len(list))
		copy(cp, list)
		out[path] = cp
	}
	return out
}

// Paths returns all image paths with at least one assignment, sorted so
// that callers iterating the map get a deterministic order.
func (m AssignmentMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
