// Package session holds the single source of truth for one browsing
// session. The ViewSession is pure data plus invariants; it is mutated only
// through the coordinators (category coordinator, modal navigator, engine
// commands), never directly by UI layers.
package session

import (
	"sync"

	"galleria/pkg/types"
)

// ViewSession is the mutable state of one open directory.
//
// ModalIndex and ModalPath are written only by the modal navigator.
// SuppressRefilter and CachedSnapshot implement the deferred-refilter
// protocol: while suppression is active, resolvers must consult
// EffectiveCategories instead of the live assignment map so the image
// currently being edited in the modal does not vanish from its own
// filtered view.
type ViewSession struct {
	Images          []types.ImageRef
	Directories     []types.DirectoryRef
	Categories      []types.Category
	ImageCategories types.AssignmentMap

	SortOption    types.SortOption
	SortDirection types.SortDirection
	Filter        types.FilterOptions

	ModalIndex int // -1 when the modal is closed
	ModalPath  string

	SuppressRefilter bool
	CachedSnapshot   types.AssignmentMap // nil unless suppression captured one

	ResetVersion uint64
}

// ModalOpen reports whether the single-image viewer is open.
func (s ViewSession) ModalOpen() bool {
	return s.ModalIndex >= 0
}

// EffectiveCategories returns the assignment map the resolver must use:
// the frozen snapshot while refiltering is suppressed, the live map
// otherwise.
func (s ViewSession) EffectiveCategories() types.AssignmentMap {
	if s.SuppressRefilter && s.CachedSnapshot != nil {
		return s.CachedSnapshot
	}
	return s.ImageCategories
}

// CategoryByID looks up a category in the session's category list.
func (s ViewSession) CategoryByID(id string) (types.Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return types.Category{}, false
}

// HasImage reports whether path is part of the session's collection.
func (s ViewSession) HasImage(path string) bool {
	for _, img := range s.Images {
		if img.Path == path {
			return true
		}
	}
	return false
}

// Store guards a ViewSession. All access goes through View (read a copy)
// or Update (mutate under the lock); there is exactly one store per session
// and notification to observers is synchronous, driven by the engine after
// each command.
type Store struct {
	mu sync.RWMutex
	s  ViewSession
}

// NewStore returns a store with an empty, closed-modal session.
func NewStore() *Store {
	return &Store{
		s: ViewSession{
			ModalIndex:      -1,
			ImageCategories: types.AssignmentMap{},
		},
	}
}

// View returns a copy of the current session. The slices and maps inside
// are shared with the live session and must be treated as read-only;
// mutations go through Update with copy-on-write.
func (st *Store) View() ViewSession {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// Update runs fn with exclusive access to the session.
func (st *Store) Update(fn func(*ViewSession)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
}

// Reset replaces the session contents for a newly opened directory (or an
// explicit reset). The modal closes, suppression state clears, and
// ResetVersion increments so observers can detect the identity change.
func (st *Store) Reset(images []types.ImageRef, dirs []types.DirectoryRef, categories []types.Category, assignments types.AssignmentMap) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if assignments == nil {
		assignments = types.AssignmentMap{}
	}
	st.s = ViewSession{
		Images:          images,
		Directories:     dirs,
		Categories:      categories,
		ImageCategories: assignments,
		SortOption:      st.s.SortOption,
		SortDirection:   st.s.SortDirection,
		ModalIndex:      -1,
		ResetVersion:    st.s.ResetVersion + 1,
	}
}
