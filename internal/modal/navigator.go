// Package modal drives the single-image viewer. It is the only writer of
// the session's modal cursor, and every asynchronous image load is tagged
// with a request id so a stale completion can never overwrite newer state.
package modal

import (
	"os"
	"sync"
	"sync/atomic"

	"galleria/internal/errors"
	"galleria/internal/log"
	"galleria/internal/session"
	"galleria/pkg/types"
)

// Loader is the external image-loading collaborator.
type Loader interface {
	Load(path string) ([]byte, error)
}

// FileLoader reads image bytes straight from disk. Decoding and
// thumbnailing happen elsewhere; the engine only moves bytes.
type FileLoader struct{}

// Load implements Loader.
func (FileLoader) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewImageError("failed to load image", path, errors.ImageLoadFailed, err)
	}
	return data, nil
}

// LoadedFunc is called when an image load settles. A per-image load
// failure renders an error placeholder; it never aborts anything else.
type LoadedFunc func(path string, data []byte, err error)

// Navigator opens, advances, and closes the modal viewer.
type Navigator struct {
	store  *session.Store
	loader Loader

	// resolved returns the current resolved image sequence; installed by
	// the engine so the navigator always indexes into the view the user
	// actually sees.
	resolved func() []types.ImageRef

	onLoaded LoadedFunc

	reqSeq atomic.Uint64

	mu    sync.Mutex
	cache map[string][]byte
}

// NewNavigator returns a navigator bound to the session store.
func NewNavigator(store *session.Store, loader Loader) *Navigator {
	return &Navigator{
		store:  store,
		loader: loader,
		cache:  map[string][]byte{},
	}
}

// SetResolved installs the resolved-sequence accessor.
func (n *Navigator) SetResolved(fn func() []types.ImageRef) {
	n.resolved = fn
}

// SetOnLoaded installs the load-completion callback.
func (n *Navigator) SetOnLoaded(fn LoadedFunc) {
	n.onLoaded = fn
}

// Open opens the modal at index in the resolved sequence. Out-of-range
// indices are a no-op. Modal state is set optimistically; the image bytes
// arrive asynchronously and a completion that lost the race to a newer
// Open is discarded.
func (n *Navigator) Open(index int) bool {
	imgs := n.resolved()
	if index < 0 || index >= len(imgs) {
		return false
	}
	n.show(index, imgs[index].Path)
	return true
}

// Next advances the modal by one. A successful navigation clears the
// deferred-refilter suppression: the edit the snapshot was protecting is
// over.
func (n *Navigator) Next() bool {
	return n.step(1)
}

// Previous moves the modal back by one, with the same suppression-clearing
// contract as Next.
func (n *Navigator) Previous() bool {
	return n.step(-1)
}

func (n *Navigator) step(delta int) bool {
	imgs := n.resolved()
	v := n.store.View()
	if !v.ModalOpen() {
		return false
	}
	target := v.ModalIndex + delta
	if target < 0 || target >= len(imgs) {
		return false
	}
	path := imgs[target].Path
	n.store.Update(func(s *session.ViewSession) {
		s.SuppressRefilter = false
		s.CachedSnapshot = nil
		s.ModalIndex = target
		s.ModalPath = path
	})
	n.ensureLoaded(target, path)
	return true
}

// Close closes the modal and hides the overlay. Suppression state is
// cleared too: with no modal image there is nothing left to protect and a
// lingering snapshot would keep the filtered view stale.
func (n *Navigator) Close() {
	n.store.Update(func(s *session.ViewSession) {
		s.ModalIndex = -1
		s.ModalPath = ""
		s.SuppressRefilter = false
		s.CachedSnapshot = nil
	})
}

// Reindex realigns the modal cursor after the resolved sequence changed.
// The open image keeps the modal if it is still present; an evicted image
// hands the modal to whatever now occupies its position (the next image
// that satisfies the filter), and an emptied sequence closes the modal.
func (n *Navigator) Reindex(imgs []types.ImageRef) {
	v := n.store.View()
	if !v.ModalOpen() {
		return
	}
	for i, img := range imgs {
		if img.Path == v.ModalPath {
			if i != v.ModalIndex {
				n.store.Update(func(s *session.ViewSession) {
					s.ModalIndex = i
				})
			}
			return
		}
	}
	if len(imgs) == 0 {
		n.Close()
		return
	}
	idx := v.ModalIndex
	if idx >= len(imgs) {
		idx = len(imgs) - 1
	}
	n.show(idx, imgs[idx].Path)
}

func (n *Navigator) show(index int, path string) {
	n.store.Update(func(s *session.ViewSession) {
		s.ModalIndex = index
		s.ModalPath = path
	})
	n.ensureLoaded(index, path)
}

func (n *Navigator) ensureLoaded(index int, path string) {
	req := n.reqSeq.Add(1)
	if data, ok := n.Cached(path); ok {
		if n.onLoaded != nil {
			n.onLoaded(path, data, nil)
		}
		return
	}
	go n.load(req, index, path)
}

func (n *Navigator) load(req uint64, index int, path string) {
	data, err := n.loader.Load(path)

	// A newer request or a moved modal means this completion is stale; it
	// must not touch visible state.
	if n.reqSeq.Load() != req {
		log.Debug("discarding stale image load for %s", path)
		return
	}
	v := n.store.View()
	if v.ModalIndex != index || v.ModalPath != path {
		log.Debug("discarding image load for %s: modal moved", path)
		return
	}

	if err != nil {
		log.With(log.F("path", path), log.F("error", err)).Warn("image load failed")
		if n.onLoaded != nil {
			n.onLoaded(path, nil, err)
		}
		return
	}

	n.mu.Lock()
	n.cache[path] = data
	n.mu.Unlock()
	if n.onLoaded != nil {
		n.onLoaded(path, data, nil)
	}
}

// Cached returns the cached bytes for path, if any.
func (n *Navigator) Cached(path string) ([]byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	data, ok := n.cache[path]
	return data, ok
}

// Invalidate drops one path from the loaded-image cache.
func (n *Navigator) Invalidate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.cache, path)
}

// ClearCache drops the whole loaded-image cache, used on session reset.
func (n *Navigator) ClearCache() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cache = map[string][]byte{}
}
