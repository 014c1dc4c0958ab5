package engine

import "galleria/pkg/types"

// Snapshot is the consistent read model handed to observers. UI layers
// only ever see snapshots and issue commands; they never touch session
// fields directly.
type Snapshot struct {
	Directory string

	Directories []types.DirectoryRef
	Page        []types.ImageRef // the visible prefix of the resolved sequence
	TotalImages int              // length of the full resolved sequence
	Visible     int

	SortOption    types.SortOption
	SortDirection types.SortDirection
	Filter        types.FilterOptions

	Categories  []types.Category
	Assignments types.AssignmentMap

	ModalOpen  bool
	ModalIndex int
	ModalPath  string

	SuppressRefilter bool
	ResetVersion     uint64
}

// Images returns the full (unfiltered, unpaginated) image collection,
// used by batch operations like rule application.
func (e *Engine) Images() []types.ImageRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.store.View()
	out := make([]types.ImageRef, len(v.Images))
	copy(out, v.Images)
	return out
}

// Snapshot returns the current read model.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	v := e.store.View()
	visible := e.pager.Visible()
	if visible > len(e.resolved.Images) {
		visible = len(e.resolved.Images)
	}
	page := make([]types.ImageRef, visible)
	copy(page, e.resolved.Images[:visible])

	dirs := make([]types.DirectoryRef, len(e.resolved.Directories))
	copy(dirs, e.resolved.Directories)

	cats := make([]types.Category, len(v.Categories))
	copy(cats, v.Categories)

	return Snapshot{
		Directory:        e.dir,
		Directories:      dirs,
		Page:             page,
		TotalImages:      len(e.resolved.Images),
		Visible:          visible,
		SortOption:       v.SortOption,
		SortDirection:    v.SortDirection,
		Filter:           v.Filter,
		Categories:       cats,
		Assignments:      v.ImageCategories.Clone(),
		ModalOpen:        v.ModalOpen(),
		ModalIndex:       v.ModalIndex,
		ModalPath:        v.ModalPath,
		SuppressRefilter: v.SuppressRefilter,
		ResetVersion:     v.ResetVersion,
	}
}
