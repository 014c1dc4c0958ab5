// Package category implements the category assignment coordinator: every
// add/remove/toggle of a category tag goes through here, including the
// deferred-refilter protocol that keeps the image open in the modal from
// disappearing out of its own filtered view mid-edit.
package category

import (
	"time"

	"galleria/internal/errors"
	"galleria/internal/log"
	"galleria/internal/session"
	"galleria/pkg/types"
)

type mutation int

const (
	opAssign mutation = iota
	opRemove
	opToggle
)

// Coordinator mutates the session's assignment map with copy-on-write and
// triggers persistence for mutations that actually changed membership.
type Coordinator struct {
	store *session.Store

	// persist saves the session's category state through the config store.
	// The in-memory mutation is the source of truth: a save failure is
	// surfaced to the caller but never rolled back.
	persist func() error

	// onModalEvicted asks the modal navigator to advance when a mutation on
	// a non-modal image pushed the modal image out of the filtered set.
	onModalEvicted func()

	now func() time.Time
}

// NewCoordinator returns a coordinator bound to the session store.
func NewCoordinator(store *session.Store) *Coordinator {
	return &Coordinator{
		store: store,
		now:   time.Now,
	}
}

// SetPersist installs the persistence hook.
func (c *Coordinator) SetPersist(fn func() error) {
	c.persist = fn
}

// SetEvictionHandler installs the modal-advance command. The coordinator
// never writes modal state itself; it only issues this command.
func (c *Coordinator) SetEvictionHandler(fn func()) {
	c.onModalEvicted = fn
}

// Assign adds categoryID to the image at path. Assigning an already-present
// category is a no-op and triggers no save.
func (c *Coordinator) Assign(path, categoryID string) error {
	_, err := c.apply(path, categoryID, opAssign)
	return err
}

// Remove removes categoryID from the image at path. Removing an absent
// category is a no-op and triggers no save.
func (c *Coordinator) Remove(path, categoryID string) error {
	_, err := c.apply(path, categoryID, opRemove)
	return err
}

// Toggle flips categoryID on the image at path and reports whether the
// category is now present.
func (c *Coordinator) Toggle(path, categoryID string) (bool, error) {
	return c.apply(path, categoryID, opToggle)
}

// AssignToModal assigns categoryID to the image currently open in the modal.
func (c *Coordinator) AssignToModal(categoryID string) error {
	path, err := c.modalPath()
	if err != nil {
		return err
	}
	return c.Assign(path, categoryID)
}

// ToggleOnModal toggles categoryID on the image currently open in the modal.
func (c *Coordinator) ToggleOnModal(categoryID string) (bool, error) {
	path, err := c.modalPath()
	if err != nil {
		return false, err
	}
	return c.Toggle(path, categoryID)
}

func (c *Coordinator) modalPath() (string, error) {
	v := c.store.View()
	if !v.ModalOpen() || v.ModalPath == "" {
		return "", errors.New("no modal image open")
	}
	return v.ModalPath, nil
}

func (c *Coordinator) apply(path, categoryID string, op mutation) (present bool, err error) {
	if categoryID == "" || categoryID == types.CategoryUncategorized {
		return false, errors.NewCategoryError("category cannot be assigned", categoryID, errors.CategoryNotFound, nil)
	}

	var changed bool
	var badImage, badCategory bool
	c.store.Update(func(s *session.ViewSession) {
		if !s.HasImage(path) {
			badImage = true
			return
		}
		if _, ok := s.CategoryByID(categoryID); !ok {
			badCategory = true
			return
		}

		has := s.ImageCategories.Has(path, categoryID)
		add := (op == opAssign && !has) || (op == opToggle && !has)
		remove := (op == opRemove && has) || (op == opToggle && has)
		present = has
		if !add && !remove {
			return
		}

		// Deferred refilter: editing the modal image under an active
		// category filter freezes the resolver's view of the assignments.
		// The snapshot depth is exactly one; a second suppressed mutation
		// reuses the existing snapshot.
		if path == s.ModalPath && s.ModalOpen() && s.Filter.CategoryFilterActive() {
			if s.CachedSnapshot == nil {
				s.CachedSnapshot = s.ImageCategories.Clone()
			}
			s.SuppressRefilter = true
		}

		next := s.ImageCategories.Clone()
		if next == nil {
			next = types.AssignmentMap{}
		}
		if add {
			next[path] = append(next[path], types.CategoryAssignment{
				CategoryID: categoryID,
				AssignedAt: c.now(),
			})
			present = true
		} else {
			list := next[path]
			kept := list[:0]
			for _, a := range list {
				if a.CategoryID != categoryID {
					kept = append(kept, a)
				}
			}
			if len(kept) == 0 {
				delete(next, path)
			} else {
				next[path] = kept
			}
			present = false
		}
		s.ImageCategories = next
		changed = true
	})

	if badImage {
		return false, errors.NewImageError("image not in session", path, errors.ImageNotFound, nil)
	}
	if badCategory {
		return false, errors.NewCategoryError("unknown category", categoryID, errors.CategoryNotFound, nil)
	}
	if !changed {
		return present, nil
	}

	c.checkModalEviction(path)

	if c.persist != nil {
		if err := c.persist(); err != nil {
			log.With(log.F("path", path), log.F("category", categoryID), log.F("error", err)).
				Error("failed to persist category change")
			return present, errors.NewConfigError("failed to save category change", "", errors.SaveFailed, err)
		}
	}
	return present, nil
}

// checkModalEviction advances the modal when a mutation on another image
// pushed the modal image out of the active category filter. Suppressed
// sessions are left alone: the snapshot is already protecting the modal.
func (c *Coordinator) checkModalEviction(mutatedPath string) {
	v := c.store.View()
	if !v.ModalOpen() || v.ModalPath == "" || v.ModalPath == mutatedPath {
		return
	}
	if v.SuppressRefilter || !v.Filter.CategoryFilterActive() {
		return
	}
	if v.Filter.MatchCategory(v.ImageCategories[v.ModalPath]) {
		return
	}
	if c.onModalEvicted != nil {
		c.onModalEvicted()
	}
}

// DeleteCategory removes the category from the session's category list and
// strips every assignment referencing it; images whose assignment list
// becomes empty are dropped from the map entirely. Hotkey scrubbing and
// persistence are composed by the engine around this call.
func (c *Coordinator) DeleteCategory(categoryID string) error {
	var found bool
	c.store.Update(func(s *session.ViewSession) {
		kept := s.Categories[:0:0]
		for _, cat := range s.Categories {
			if cat.ID == categoryID {
				found = true
				continue
			}
			kept = append(kept, cat)
		}
		if !found {
			return
		}
		s.Categories = kept

		next := types.AssignmentMap{}
		for path, list := range s.ImageCategories {
			filtered := make([]types.CategoryAssignment, 0, len(list))
			for _, a := range list {
				if a.CategoryID != categoryID {
					filtered = append(filtered, a)
				}
			}
			if len(filtered) > 0 {
				next[path] = filtered
			}
		}
		s.ImageCategories = next

		if s.Filter.CategoryID == categoryID {
			s.Filter.CategoryID = ""
		}
	})

	if !found {
		return errors.NewCategoryError("category not found", categoryID, errors.CategoryNotFound, nil)
	}
	return nil
}
