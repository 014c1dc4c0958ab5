// Package resolve turns the session's raw collection into the ordered,
// filtered sequence the view renders. One canonical comparator defines the
// order; an external sorter may compute it faster but never differently.
package resolve

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"galleria/internal/log"
	"galleria/pkg/types"
)

// Sorter is the external sorting collaborator. It may be absent (nil) or
// fail; the resolver then falls back to the local implementation.
type Sorter interface {
	Sort(images []types.ImageRef, opt types.SortOption, dir types.SortDirection, assignments types.AssignmentMap, filter *types.FilterOptions) ([]types.ImageRef, error)
}

// Result is one resolved view: the filtered, ordered images and
// directories plus the cache key derived from the inputs.
type Result struct {
	Images      []types.ImageRef
	Directories []types.DirectoryRef
	Key         string
	Op          uint64
}

// Resolver computes resolved views. Every invocation is tagged with a
// monotonically increasing operation id; a resolve that completes after a
// newer one was issued reports itself stale and its result must not be
// applied to the session.
type Resolver struct {
	sorter Sorter
	lastOp atomic.Uint64
}

// New returns a resolver using the given external sorter, which may be nil.
func New(sorter Sorter) *Resolver {
	return &Resolver{sorter: sorter}
}

// Resolve computes the ordered, filtered view. The boolean is false when a
// newer resolve was issued while this one ran; callers must then discard
// the result.
func (r *Resolver) Resolve(images []types.ImageRef, dirs []types.DirectoryRef, opt types.SortOption, direction types.SortDirection, filter types.FilterOptions, assignments types.AssignmentMap) (Result, bool) {
	op := r.lastOp.Add(1)

	filtered := make([]types.ImageRef, 0, len(images))
	for _, img := range images {
		if filter.Match(img, assignments[img.Path]) {
			filtered = append(filtered, img)
		}
	}

	ordered := r.sortImages(filtered, opt, direction, assignments, filter)

	orderedDirs := make([]types.DirectoryRef, len(dirs))
	copy(orderedDirs, dirs)
	sortDirectories(orderedDirs, opt, direction)

	if r.lastOp.Load() != op {
		return Result{}, false
	}
	return Result{
		Images:      ordered,
		Directories: orderedDirs,
		Key:         Key(opt, direction, filter, assignments),
		Op:          op,
	}, true
}

// sortImages runs the external sorter when available and verifies its
// output against the canonical comparator. Equivalence is a correctness
// contract: a sorter result that is not in canonical order counts as a
// sorter failure and the local sort is used instead.
func (r *Resolver) sortImages(images []types.ImageRef, opt types.SortOption, direction types.SortDirection, assignments types.AssignmentMap, filter types.FilterOptions) []types.ImageRef {
	if r.sorter != nil {
		out, err := r.sorter.Sort(images, opt, direction, assignments, &filter)
		if err == nil && canonicalOrder(out, images, opt, direction) {
			return out
		}
		if err != nil {
			log.With(log.F("error", err)).Warn("external sorter failed, using local sort")
		} else {
			log.Warn("external sorter returned non-canonical order, using local sort")
		}
	}
	out := make([]types.ImageRef, len(images))
	copy(out, images)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j], opt, direction)
	})
	return out
}

// canonicalOrder checks that out is a permutation of in sorted by the
// canonical comparator. The comparator defines a total order, so any
// correctly sorted permutation is byte-identical to the local result.
func canonicalOrder(out, in []types.ImageRef, opt types.SortOption, direction types.SortDirection) bool {
	if len(out) != len(in) {
		return false
	}
	seen := make(map[string]int, len(in))
	for _, img := range in {
		seen[img.Path]++
	}
	for _, img := range out {
		seen[img.Path]--
		if seen[img.Path] < 0 {
			return false
		}
	}
	for i := 1; i < len(out); i++ {
		if Less(out[i], out[i-1], opt, direction) {
			return false
		}
	}
	return true
}

// Less is THE comparator. Both the local sort and the external-sorter
// verification use it, so the two paths cannot diverge. The primary key
// follows the sort option and direction; ties always break by ascending
// byte-wise path comparison, guaranteeing a deterministic total order with
// no locale sensitivity.
func Less(a, b types.ImageRef, opt types.SortOption, direction types.SortDirection) bool {
	cmp := 0
	switch opt {
	case types.SortByDate:
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			cmp = -1
		case a.CreatedAt.After(b.CreatedAt):
			cmp = 1
		}
	case types.SortBySize:
		switch {
		case a.SizeBytes < b.SizeBytes:
			cmp = -1
		case a.SizeBytes > b.SizeBytes:
			cmp = 1
		}
	default: // name
		cmp = strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	}

	if direction == types.Descending {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	return a.Path < b.Path
}

// sortDirectories orders directories with the same key family where it
// applies. Directories only carry a path, so name sorting honors the
// direction and everything else falls back to ascending name.
func sortDirectories(dirs []types.DirectoryRef, opt types.SortOption, direction types.SortDirection) {
	sort.SliceStable(dirs, func(i, j int) bool {
		cmp := strings.Compare(strings.ToLower(dirs[i].Name()), strings.ToLower(dirs[j].Name()))
		if opt == types.SortByName && direction == types.Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return dirs[i].Path < dirs[j].Path
	})
}

// Key derives the sort/filter cache key. It is a deterministic function of
// the sort option, direction, filter options, and assignment map; the map
// entries are serialized sorted by path so the key does not depend on
// iteration order.
func Key(opt types.SortOption, direction types.SortDirection, filter types.FilterOptions, assignments types.AssignmentMap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "sort=%s:%s|filter=%s:%s:%s:%s:%d:%d|cats=",
		opt, direction,
		filter.CategoryID, filter.NamePattern, filter.NameOperator,
		filter.SizeOperator, filter.SizeValue, filter.SizeValue2)
	for _, path := range assignments.Paths() {
		b.WriteString(path)
		b.WriteByte('[')
		for i, a := range assignments[path] {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s@%d", a.CategoryID, a.AssignedAt.UnixNano())
		}
		b.WriteString("];")
	}
	return b.String()
}
