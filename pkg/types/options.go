package types

import "strings"

// SortOption selects the primary sort key for the resolved view.
type SortOption string

const (
	SortByName SortOption = "name"
	SortByDate SortOption = "date"
	SortBySize SortOption = "size"
)

// SortDirection selects ascending or descending order for the primary key.
// Ties are always broken by ascending path, regardless of direction.
type SortDirection string

const (
	Ascending  SortDirection = "ascending"
	Descending SortDirection = "descending"
)

// NameOperator is the comparison applied by the name filter.
type NameOperator string

const (
	NameContains   NameOperator = "contains"
	NameStartsWith NameOperator = "startsWith"
	NameEndsWith   NameOperator = "endsWith"
	NameEquals     NameOperator = "equals"
)

// SizeOperator is the comparison applied by the size filter.
type SizeOperator string

const (
	SizeLargerThan  SizeOperator = "largerThan"
	SizeSmallerThan SizeOperator = "smallerThan"
	SizeBetween     SizeOperator = "between"
	SizeEquals      SizeOperator = "equals"
)

// FilterOptions narrows the resolved view. Zero values mean "no filter" for
// the respective dimension.
type FilterOptions struct {
	CategoryID   string       `yaml:"category_id,omitempty" json:"categoryId,omitempty"`
	NamePattern  string       `yaml:"name_pattern,omitempty" json:"namePattern,omitempty"`
	NameOperator NameOperator `yaml:"name_operator,omitempty" json:"nameOperator,omitempty"`
	SizeOperator SizeOperator `yaml:"size_operator,omitempty" json:"sizeOperator,omitempty"`
	SizeValue    int64        `yaml:"size_value,omitempty" json:"sizeValue,omitempty"`
	SizeValue2   int64        `yaml:"size_value2,omitempty" json:"sizeValue2,omitempty"`
}

// CategoryFilterActive reports whether a category filter is in effect,
// which is what arms the deferred-refilter protection for the modal image.
func (f FilterOptions) CategoryFilterActive() bool {
	return f.CategoryID != ""
}

// MatchCategory applies the category filter against one image's assignments.
func (f FilterOptions) MatchCategory(assignments []CategoryAssignment) bool {
	switch f.CategoryID {
	case "":
		return true
	case CategoryUncategorized:
		return len(assignments) == 0
	default:
		for _, a := range assignments {
			if a.CategoryID == f.CategoryID {
				return true
			}
		}
		return false
	}
}

// MatchName applies the name filter against a file's base name,
// case-insensitively.
func (f FilterOptions) MatchName(name string) bool {
	if f.NamePattern == "" {
		return true
	}
	name = strings.ToLower(name)
	pattern := strings.ToLower(f.NamePattern)
	switch f.NameOperator {
	case NameStartsWith:
		return strings.HasPrefix(name, pattern)
	case NameEndsWith:
		return strings.HasSuffix(name, pattern)
	case NameEquals:
		return name == pattern
	default: // contains is the default operator
		return strings.Contains(name, pattern)
	}
}

// MatchSize applies the size filter. Images without a known size are
// excluded from a size-filtered result: the filter asks about a known size
// and guessing would skew the counts.
func (f FilterOptions) MatchSize(img ImageRef) bool {
	if f.SizeOperator == "" {
		return true
	}
	if !img.SizeKnown {
		return false
	}
	switch f.SizeOperator {
	case SizeLargerThan:
		return img.SizeBytes > f.SizeValue
	case SizeSmallerThan:
		return img.SizeBytes < f.SizeValue
	case SizeBetween:
		return img.SizeBytes >= f.SizeValue && img.SizeBytes <= f.SizeValue2
	case SizeEquals:
		return img.SizeBytes == f.SizeValue
	default:
		return false
	}
}

// Match applies all filter dimensions to one image.
func (f FilterOptions) Match(img ImageRef, assignments []CategoryAssignment) bool {
	return f.MatchCategory(assignments) && f.MatchName(img.Name()) && f.MatchSize(img)
}
