package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"galleria/internal/config"
	"galleria/internal/hotkey"
	"galleria/internal/trash"
	"galleria/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps gallery state in memory and counts saves.
type memStore struct {
	mu       sync.Mutex
	cfg      *config.Config
	saves    int
	failSave bool
}

func (m *memStore) Load(dir string) (*config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return config.New(), nil
	}
	return m.cfg, nil
}

func (m *memStore) Save(dir string, cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return fmt.Errorf("save rejected")
	}
	m.cfg = cfg
	m.saves++
	return nil
}

func (m *memStore) saved() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// nopLoader keeps modal opens off the filesystem.
type nopLoader struct{}

func (nopLoader) Load(path string) ([]byte, error) { return []byte(path), nil }

type failDeleter struct{}

func (failDeleter) Delete(string) error { return fmt.Errorf("delete rejected") }

// gallery creates a directory with n jpg files named img_00.jpg onward and
// returns the directory and the sorted file paths.
func gallery(t *testing.T, n int) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("img_%02d.jpg", i)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		paths[i] = path
	}
	return dir, paths
}

func newEngine(t *testing.T, n int, opts ...Option) (*Engine, *memStore, []string) {
	t.Helper()
	dir, paths := gallery(t, n)
	store := &memStore{}
	opts = append([]Option{WithConfigStore(store), WithLoader(nopLoader{})}, opts...)
	e := New(opts...)
	require.NoError(t, e.Open(dir))
	return e, store, paths
}

func pagePaths(snap Snapshot) []string {
	out := make([]string, len(snap.Page))
	for i, img := range snap.Page {
		out[i] = img.Path
	}
	return out
}

func TestOpenAndPagination(t *testing.T) {
	e, _, paths := newEngine(t, 45)

	snap := e.Snapshot()
	assert.Equal(t, 45, snap.TotalImages)
	assert.Equal(t, 30, snap.Visible, "first batch only")
	assert.Equal(t, paths[:30], pagePaths(snap))

	require.True(t, e.ExtendPage())
	snap = e.Snapshot()
	assert.Equal(t, 45, snap.Visible)
	assert.Equal(t, paths, pagePaths(snap))

	assert.False(t, e.ExtendPage(), "nothing left to extend")

	e.SetSortOption(types.SortByName, types.Descending)
	snap = e.Snapshot()
	assert.Equal(t, 30, snap.Visible, "a sort change resets pagination")
	assert.Equal(t, paths[44], snap.Page[0].Path)

	e.SetFilterOptions(types.FilterOptions{NamePattern: "img_0", NameOperator: types.NameStartsWith})
	snap = e.Snapshot()
	assert.Equal(t, 10, snap.TotalImages, "a filter change re-resolves and re-batches")
	assert.Equal(t, 10, snap.Visible)
}

func TestDirectoriesPrecedeImages(t *testing.T) {
	dir, _ := gallery(t, 3)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "albums"), 0755))

	store := &memStore{}
	e := New(WithConfigStore(store), WithLoader(nopLoader{}))
	require.NoError(t, e.Open(dir))

	for _, opt := range []types.SortOption{types.SortByName, types.SortByDate, types.SortBySize} {
		e.SetSortOption(opt, types.Descending)
		snap := e.Snapshot()
		require.Len(t, snap.Directories, 1, "directories are listed ahead of the page for every sort")
		assert.Equal(t, filepath.Join(dir, "albums"), snap.Directories[0].Path)
		assert.Equal(t, 3, snap.TotalImages)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	e, store, paths := newEngine(t, 3)

	require.NoError(t, e.AddCategory(types.Category{ID: "pets", Name: "Pets"}))
	err := e.AddCategory(types.Category{ID: "pets"})
	assert.Error(t, err, "duplicate id")
	assert.Error(t, e.AddCategory(types.Category{ID: types.CategoryUncategorized}))

	require.NoError(t, e.AssignCategory(paths[0], "pets"))
	snap := e.Snapshot()
	assert.True(t, snap.Assignments.Has(paths[0], "pets"))

	saved := store.saved()
	require.NotNil(t, saved)
	assert.True(t, saved.AssignmentMap().Has(paths[0], "pets"), "assignments are persisted")
	assert.Len(t, saved.Categories, 1)

	present, err := e.ToggleCategory(paths[0], "pets")
	require.NoError(t, err)
	assert.False(t, present)
	assert.False(t, e.Snapshot().Assignments.Has(paths[0], "pets"))
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	e, store, paths := newEngine(t, 2)
	require.NoError(t, e.AddCategory(types.Category{ID: "pets"}))
	store.failSave = true

	err := e.AssignCategory(paths[0], "pets")
	require.Error(t, err)
	assert.True(t, e.Snapshot().Assignments.Has(paths[0], "pets"),
		"the in-memory assignment survives a failed save")
}

func TestDeferredRefilter(t *testing.T) {
	e, _, paths := newEngine(t, 3)
	require.NoError(t, e.AddCategory(types.Category{ID: "pets"}))
	e.SetFilterOptions(types.FilterOptions{CategoryID: types.CategoryUncategorized})

	require.True(t, e.OpenModal(1))
	require.NoError(t, e.AssignCategory(paths[1], "pets"))

	snap := e.Snapshot()
	assert.True(t, snap.SuppressRefilter)
	assert.Equal(t, paths[1], snap.ModalPath, "the edited image stays in the modal")
	assert.Contains(t, pagePaths(snap), paths[1],
		"the filtered view is frozen while the edit is in progress")
	assert.True(t, snap.Assignments.Has(paths[1], "pets"),
		"the live assignment map already carries the change")

	require.True(t, e.NextImage())
	snap = e.Snapshot()
	assert.False(t, snap.SuppressRefilter, "navigation ends the deferred refilter")
	assert.NotContains(t, pagePaths(snap), paths[1])
	assert.Equal(t, paths[2], snap.ModalPath)
	assert.Equal(t, 1, snap.ModalIndex, "the modal index realigns with the refiltered sequence")
}

func TestCloseModalEndsSuppression(t *testing.T) {
	e, _, paths := newEngine(t, 3)
	require.NoError(t, e.AddCategory(types.Category{ID: "pets"}))
	e.SetFilterOptions(types.FilterOptions{CategoryID: types.CategoryUncategorized})

	require.True(t, e.OpenModal(0))
	require.NoError(t, e.ToggleCategoryOnModal("pets"))
	require.True(t, e.Snapshot().SuppressRefilter)

	e.CloseModal()
	snap := e.Snapshot()
	assert.False(t, snap.ModalOpen)
	assert.False(t, snap.SuppressRefilter)
	assert.NotContains(t, pagePaths(snap), paths[0], "closing refilters against live assignments")
}

func TestToggleCategoryOnModalAndNext(t *testing.T) {
	e, _, paths := newEngine(t, 3)
	require.NoError(t, e.AddCategory(types.Category{ID: "pets"}))

	require.True(t, e.OpenModal(0))
	require.NoError(t, e.ToggleCategoryOnModalAndNext("pets"))

	snap := e.Snapshot()
	assert.True(t, snap.Assignments.Has(paths[0], "pets"))
	assert.Equal(t, paths[1], snap.ModalPath)

	assert.Error(t, e.ToggleCategoryOnModalAndNext("ghosts"),
		"a failed toggle must not advance the modal")
	assert.Equal(t, paths[1], e.Snapshot().ModalPath)
}

func TestDeleteCategoryScrubsEverything(t *testing.T) {
	e, store, paths := newEngine(t, 2)
	require.NoError(t, e.AddCategory(types.Category{ID: "pets"}))
	require.NoError(t, e.AssignCategory(paths[0], "pets"))
	e.SetFilterOptions(types.FilterOptions{CategoryID: "pets"})

	hotkeys := append(e.Hotkeys(), types.Hotkey{Key: "1", Action: "toggle_category_pets"})
	cfg := config.FromSession(e.Snapshot().Categories, e.Snapshot().Assignments, hotkeys)
	store.cfg = cfg
	require.NoError(t, e.ResetSession())

	require.NoError(t, e.DeleteCategory("pets"))
	snap := e.Snapshot()
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.Assignments)

	for _, hk := range e.Hotkeys() {
		if hk.Key == "1" {
			assert.Empty(t, hk.Action, "hotkeys referencing the category are scrubbed")
		}
	}
	saved := store.saved()
	require.NotNil(t, saved)
	assert.Empty(t, saved.Categories, "the deletion is persisted")

	assert.Error(t, e.DeleteCategory("pets"))
}

func TestDeleteImageAndNext(t *testing.T) {
	t.Run("moves the file to trash and advances", func(t *testing.T) {
		e, store, paths := newEngine(t, 3)
		require.True(t, e.OpenModal(1))

		require.NoError(t, e.DeleteImageAndNext())

		_, err := os.Stat(paths[1])
		assert.True(t, os.IsNotExist(err))
		trashed := filepath.Join(filepath.Dir(paths[1]), trash.DefaultDirName, filepath.Base(paths[1]))
		_, err = os.Stat(trashed)
		assert.NoError(t, err, "deleted images land in the trash directory")

		snap := e.Snapshot()
		assert.Equal(t, 2, snap.TotalImages)
		assert.Equal(t, paths[2], snap.ModalPath, "the successor slides into the modal")
		assert.NotNil(t, store.saved())
	})

	t.Run("a failed delete changes nothing", func(t *testing.T) {
		e, _, paths := newEngine(t, 3, WithDeleter(failDeleter{}))
		require.True(t, e.OpenModal(1))

		require.Error(t, e.DeleteImageAndNext())

		snap := e.Snapshot()
		assert.Equal(t, 3, snap.TotalImages)
		assert.Equal(t, paths[1], snap.ModalPath)
		_, err := os.Stat(paths[1])
		assert.NoError(t, err)
	})

	t.Run("requires an open modal", func(t *testing.T) {
		e, _, _ := newEngine(t, 1)
		assert.Error(t, e.DeleteImageAndNext())
	})
}

func TestHandleKey(t *testing.T) {
	e, _, paths := newEngine(t, 3)
	require.True(t, e.OpenModal(0))

	// "n" comes from the default hotkey set installed on first load
	assert.True(t, e.HandleKey(hotkey.Event{Key: "n"}))
	assert.Equal(t, paths[1], e.Snapshot().ModalPath)

	assert.True(t, e.HandleKey(hotkey.Event{Key: "left"}))
	assert.Equal(t, paths[0], e.Snapshot().ModalPath)

	assert.True(t, e.HandleKey(hotkey.Event{Key: "escape"}))
	assert.False(t, e.Snapshot().ModalOpen)

	assert.False(t, e.HandleKey(hotkey.Event{Key: "z"}))
}

func TestHelpHandler(t *testing.T) {
	e, _, _ := newEngine(t, 1)
	toggles := 0
	e.SetHelpHandler(func() { toggles++ })

	assert.True(t, e.HandleKey(hotkey.Event{Key: "?"}))
	assert.Equal(t, 1, toggles)
}

func TestWatcherFeed(t *testing.T) {
	e, store, paths := newEngine(t, 2)

	t.Run("new image joins the resolved view", func(t *testing.T) {
		extra := filepath.Join(filepath.Dir(paths[0]), "img_99.jpg")
		e.AddImage(types.ImageRef{Path: extra, SizeKnown: true})
		snap := e.Snapshot()
		assert.Equal(t, 3, snap.TotalImages)
		assert.Contains(t, pagePaths(snap), extra)

		e.AddImage(types.ImageRef{Path: extra})
		assert.Equal(t, 3, e.Snapshot().TotalImages, "duplicates are ignored")
	})

	t.Run("vanished image is pruned without a save", func(t *testing.T) {
		require.NoError(t, e.AddCategory(types.Category{ID: "pets"}))
		require.NoError(t, e.AssignCategory(paths[0], "pets"))
		savesBefore := store.saves

		e.RemoveImage(paths[0])
		snap := e.Snapshot()
		assert.NotContains(t, pagePaths(snap), paths[0])
		assert.False(t, snap.Assignments.Has(paths[0], "pets"))
		assert.Equal(t, savesBefore, store.saves,
			"persisted assignments survive in case the file comes back")

		e.RemoveImage(paths[0])
		assert.Equal(t, savesBefore, store.saves)
	})
}

func TestSubscribe(t *testing.T) {
	e, _, _ := newEngine(t, 2)

	var got []Snapshot
	unsubscribe := e.Subscribe(func(s Snapshot) { got = append(got, s) })

	e.SetSortOption(types.SortBySize, types.Ascending)
	require.Len(t, got, 1)
	assert.Equal(t, types.SortBySize, got[0].SortOption)

	unsubscribe()
	e.SetSortOption(types.SortByName, types.Ascending)
	assert.Len(t, got, 1, "unsubscribed observers receive nothing")
}

func TestResetSession(t *testing.T) {
	e, _, _ := newEngine(t, 3)
	e.SetSortOption(types.SortBySize, types.Descending)
	require.True(t, e.OpenModal(0))
	before := e.Snapshot()

	require.NoError(t, e.ResetSession())
	snap := e.Snapshot()
	assert.False(t, snap.ModalOpen, "reset closes the modal")
	assert.Equal(t, types.SortBySize, snap.SortOption, "sort preferences survive a reset")
	assert.Greater(t, snap.ResetVersion, before.ResetVersion)
}
