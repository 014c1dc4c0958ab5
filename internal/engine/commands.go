package engine

import (
	"galleria/internal/errors"
	"galleria/internal/hotkey"
	"galleria/internal/log"
	"galleria/internal/session"
	"galleria/pkg/types"
)

// SetSortOption changes the sort key and direction. The derived cache key
// changes, so pagination resets to the first batch.
func (e *Engine) SetSortOption(opt types.SortOption, direction types.SortDirection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Update(func(s *session.ViewSession) {
		s.SortOption = opt
		s.SortDirection = direction
	})
	e.refreshLocked()
	e.notifyLocked()
}

// SetFilterOptions replaces the filter options.
func (e *Engine) SetFilterOptions(f types.FilterOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Update(func(s *session.ViewSession) {
		s.Filter = f
	})
	e.refreshLocked()
	e.notifyLocked()
}

// ExtendPage handles the viewport-proximity signal: grow the visible
// window by one batch unless an extension is already in flight.
func (e *Engine) ExtendPage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pager.Extend() {
		return false
	}
	e.notifyLocked()
	e.pager.ExtendDone()
	return true
}

// AssignCategory adds a category to an image.
func (e *Engine) AssignCategory(path, categoryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.coordinator.Assign(path, categoryID)
	e.refreshLocked()
	e.notifyLocked()
	return err
}

// RemoveCategory removes a category from an image.
func (e *Engine) RemoveCategory(path, categoryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.coordinator.Remove(path, categoryID)
	e.refreshLocked()
	e.notifyLocked()
	return err
}

// ToggleCategory flips a category on an image and reports whether it is
// now present.
func (e *Engine) ToggleCategory(path, categoryID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	present, err := e.coordinator.Toggle(path, categoryID)
	e.refreshLocked()
	e.notifyLocked()
	return present, err
}

// AddCategory adds a new category to the session and persists it.
func (e *Engine) AddCategory(cat types.Category) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cat.ID == "" || cat.ID == types.CategoryUncategorized {
		return errors.NewCategoryError("invalid category id", cat.ID, errors.DuplicateCategory, nil)
	}
	var dup bool
	e.store.Update(func(s *session.ViewSession) {
		if _, ok := s.CategoryByID(cat.ID); ok {
			dup = true
			return
		}
		s.Categories = append(append([]types.Category{}, s.Categories...), cat)
	})
	if dup {
		return errors.NewCategoryError("category already exists", cat.ID, errors.DuplicateCategory, nil)
	}
	err := e.persistState()
	e.notifyLocked()
	return err
}

// DeleteCategory removes a category everywhere: the category list, every
// image's assignments (empty entries dropped), and the action of any
// hotkey referencing it (cleared, not deleted).
func (e *Engine) DeleteCategory(categoryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.coordinator.DeleteCategory(categoryID); err != nil {
		return err
	}
	scrubbed := e.dispatcher.ScrubCategory(categoryID)
	if scrubbed > 0 {
		log.With(log.F("category", categoryID), log.F("hotkeys", scrubbed)).
			Debug("scrubbed hotkeys for deleted category")
	}
	err := e.persistState()
	e.refreshLocked()
	e.notifyLocked()
	return err
}

// OpenModal opens the single-image viewer at an index into the resolved
// sequence; out-of-range indices are a no-op.
func (e *Engine) OpenModal(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	opened := e.navigator.Open(index)
	if opened {
		e.notifyLocked()
	}
	return opened
}

// CloseModal closes the viewer and, with suppression cleared, refilters.
func (e *Engine) CloseModal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.navigator.Close()
	e.refreshLocked()
	e.notifyLocked()
}

// NextImage advances the modal. Successful navigation ends any deferred
// refilter, so the view is re-resolved against live assignments.
func (e *Engine) NextImage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextImageLocked()
}

func (e *Engine) nextImageLocked() bool {
	moved := e.navigator.Next()
	if moved {
		e.refreshLocked()
	}
	e.notifyLocked()
	return moved
}

// PreviousImage moves the modal back, with the same refilter contract as
// NextImage.
func (e *Engine) PreviousImage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	moved := e.navigator.Previous()
	if moved {
		e.refreshLocked()
	}
	e.notifyLocked()
	return moved
}

// ToggleCategoryOnModal toggles a category on the image open in the modal.
func (e *Engine) ToggleCategoryOnModal(categoryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.coordinator.ToggleOnModal(categoryID)
	e.refreshLocked()
	e.notifyLocked()
	return err
}

// AssignCategoryToModal assigns a category to the image open in the modal.
func (e *Engine) AssignCategoryToModal(categoryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.coordinator.AssignToModal(categoryID)
	e.refreshLocked()
	e.notifyLocked()
	return err
}

// ToggleCategoryOnModalAndNext toggles a category on the modal image, then
// advances to the next image.
func (e *Engine) ToggleCategoryOnModalAndNext(categoryID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.coordinator.ToggleOnModal(categoryID)
	if err != nil {
		e.notifyLocked()
		return err
	}
	e.nextImageLocked()
	return nil
}

// DeleteImageAndNext deletes the modal image through the trash collaborator
// and shows the image that slides into its position. The delete is atomic
// from the engine's perspective: on failure nothing in memory changes.
func (e *Engine) DeleteImageAndNext() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.store.View()
	if !v.ModalOpen() || v.ModalPath == "" {
		return errors.New("no modal image open")
	}
	path := v.ModalPath

	if err := e.deleter.Delete(path); err != nil {
		return err
	}
	e.removeImageLocked(path)

	if err := e.persistState(); err != nil {
		log.With(log.F("path", path), log.F("error", err)).
			Error("failed to persist after delete")
		e.notifyLocked()
		return errors.NewConfigError("failed to save after delete", "", errors.SaveFailed, err)
	}
	e.notifyLocked()
	return nil
}

// ToggleHelp forwards the "?" default shortcut to the UI layer.
func (e *Engine) ToggleHelp() {
	e.mu.Lock()
	fn := e.onHelp
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// HandleKey routes one captured key event through the hotkey dispatcher.
// The dispatcher calls back into the engine's command surface, so HandleKey
// itself takes no lock.
func (e *Engine) HandleKey(ev hotkey.Event) bool {
	return e.dispatcher.Dispatch(ev)
}

// Hotkeys returns the current hotkey bindings.
func (e *Engine) Hotkeys() []types.Hotkey {
	return e.dispatcher.Hotkeys()
}

// AddImage inserts a newly discovered image (from the directory watcher)
// into the session.
func (e *Engine) AddImage(img types.ImageRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var added bool
	e.store.Update(func(s *session.ViewSession) {
		if s.HasImage(img.Path) {
			return
		}
		s.Images = append(append([]types.ImageRef{}, s.Images...), img)
		added = true
	})
	if !added {
		return
	}
	e.refreshLocked()
	e.notifyLocked()
}

// RemoveImage drops an image that disappeared from disk. Its persisted
// assignments are left on file in case the image comes back; only the
// in-memory state is pruned to keep the session invariants.
func (e *Engine) RemoveImage(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.View().HasImage(path) {
		return
	}
	e.removeImageLocked(path)
	e.notifyLocked()
}

// removeImageLocked prunes path from every in-memory collection: the image
// list, the assignment map, the loaded-image cache, and (via refresh) the
// resolved sequence and modal cursor.
func (e *Engine) removeImageLocked(path string) {
	e.store.Update(func(s *session.ViewSession) {
		kept := make([]types.ImageRef, 0, len(s.Images))
		for _, img := range s.Images {
			if img.Path != path {
				kept = append(kept, img)
			}
		}
		s.Images = kept

		if _, ok := s.ImageCategories[path]; ok {
			next := s.ImageCategories.Clone()
			delete(next, path)
			s.ImageCategories = next
		}
	})
	e.navigator.Invalidate(path)
	e.refreshLocked()
}
