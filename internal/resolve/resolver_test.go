package resolve

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"galleria/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func img(path string, size int64, created int64) types.ImageRef {
	return types.ImageRef{
		Path:      path,
		SizeBytes: size,
		SizeKnown: true,
		CreatedAt: time.Unix(created, 0),
	}
}

func paths(imgs []types.ImageRef) []string {
	out := make([]string, len(imgs))
	for i, im := range imgs {
		out[i] = im.Path
	}
	return out
}

func TestResolveSorting(t *testing.T) {
	images := []types.ImageRef{
		img("/g/banana.jpg", 300, 20),
		img("/g/Apple.jpg", 100, 30),
		img("/g/cherry.jpg", 200, 10),
	}

	r := New(nil)

	t.Run("by name is case-insensitive", func(t *testing.T) {
		res, ok := r.Resolve(images, nil, types.SortByName, types.Ascending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/Apple.jpg", "/g/banana.jpg", "/g/cherry.jpg"}, paths(res.Images))
	})

	t.Run("descending inverts the primary key", func(t *testing.T) {
		res, ok := r.Resolve(images, nil, types.SortByName, types.Descending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/cherry.jpg", "/g/banana.jpg", "/g/Apple.jpg"}, paths(res.Images))
	})

	t.Run("by date", func(t *testing.T) {
		res, ok := r.Resolve(images, nil, types.SortByDate, types.Ascending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/cherry.jpg", "/g/banana.jpg", "/g/Apple.jpg"}, paths(res.Images))
	})

	t.Run("by size", func(t *testing.T) {
		res, ok := r.Resolve(images, nil, types.SortBySize, types.Descending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/banana.jpg", "/g/cherry.jpg", "/g/Apple.jpg"}, paths(res.Images))
	})

	t.Run("ties break by ascending path regardless of direction", func(t *testing.T) {
		tied := []types.ImageRef{
			img("/g/b/pic.jpg", 100, 10),
			img("/g/a/pic.jpg", 100, 10),
		}
		res, ok := r.Resolve(tied, nil, types.SortBySize, types.Descending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/a/pic.jpg", "/g/b/pic.jpg"}, paths(res.Images))

		res, ok = r.Resolve(tied, nil, types.SortBySize, types.Ascending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/a/pic.jpg", "/g/b/pic.jpg"}, paths(res.Images))
	})
}

func TestResolveFiltering(t *testing.T) {
	images := []types.ImageRef{
		img("/g/cat_one.jpg", 100, 1),
		img("/g/cat_two.jpg", 5000, 2),
		img("/g/dog.jpg", 100, 3),
	}
	assignments := types.AssignmentMap{
		"/g/cat_one.jpg": {{CategoryID: "pets"}},
	}

	r := New(nil)

	t.Run("name and category filters compose", func(t *testing.T) {
		f := types.FilterOptions{
			NamePattern:  "cat",
			NameOperator: types.NameContains,
			CategoryID:   types.CategoryUncategorized,
		}
		res, ok := r.Resolve(images, nil, types.SortByName, types.Ascending, f, assignments)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/cat_two.jpg"}, paths(res.Images))
	})

	t.Run("size filter", func(t *testing.T) {
		f := types.FilterOptions{SizeOperator: types.SizeLargerThan, SizeValue: 1000}
		res, ok := r.Resolve(images, nil, types.SortByName, types.Ascending, f, assignments)
		require.True(t, ok)
		assert.Equal(t, []string{"/g/cat_two.jpg"}, paths(res.Images))
	})
}

func TestResolveDirectories(t *testing.T) {
	dirs := []types.DirectoryRef{
		{Path: "/g/zoo"},
		{Path: "/g/Arch"},
	}
	r := New(nil)

	res, ok := r.Resolve(nil, dirs, types.SortByName, types.Ascending, types.FilterOptions{}, nil)
	require.True(t, ok)
	require.Len(t, res.Directories, 2)
	assert.Equal(t, "/g/Arch", res.Directories[0].Path)

	res, ok = r.Resolve(nil, dirs, types.SortByName, types.Descending, types.FilterOptions{}, nil)
	require.True(t, ok)
	assert.Equal(t, "/g/zoo", res.Directories[0].Path)

	// non-name sorts leave directories in ascending name order
	res, ok = r.Resolve(nil, dirs, types.SortBySize, types.Descending, types.FilterOptions{}, nil)
	require.True(t, ok)
	assert.Equal(t, "/g/Arch", res.Directories[0].Path)
}

// reversingSorter returns the canonical order reversed, which must be
// rejected and replaced with the local sort.
type reversingSorter struct{}

func (reversingSorter) Sort(images []types.ImageRef, opt types.SortOption, dir types.SortDirection, _ types.AssignmentMap, _ *types.FilterOptions) ([]types.ImageRef, error) {
	out := make([]types.ImageRef, len(images))
	for i, im := range images {
		out[len(images)-1-i] = im
	}
	return out, nil
}

type failingSorter struct{}

func (failingSorter) Sort([]types.ImageRef, types.SortOption, types.SortDirection, types.AssignmentMap, *types.FilterOptions) ([]types.ImageRef, error) {
	return nil, fmt.Errorf("sorter crashed")
}

type droppingSorter struct{}

func (droppingSorter) Sort(images []types.ImageRef, _ types.SortOption, _ types.SortDirection, _ types.AssignmentMap, _ *types.FilterOptions) ([]types.ImageRef, error) {
	return images[:len(images)-1], nil
}

func TestExternalSorterFallback(t *testing.T) {
	images := []types.ImageRef{
		img("/g/b.jpg", 2, 2),
		img("/g/a.jpg", 1, 1),
		img("/g/c.jpg", 3, 3),
	}
	want := []string{"/g/a.jpg", "/g/b.jpg", "/g/c.jpg"}

	tests := []struct {
		name   string
		sorter Sorter
	}{
		{"failing sorter falls back to local sort", failingSorter{}},
		{"non-canonical order counts as a sorter failure", reversingSorter{}},
		{"dropped elements count as a sorter failure", droppingSorter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.sorter)
			res, ok := r.Resolve(images, nil, types.SortByName, types.Ascending, types.FilterOptions{}, nil)
			require.True(t, ok)
			assert.Equal(t, want, paths(res.Images))
		})
	}

	t.Run("canonical sorter output is accepted", func(t *testing.T) {
		// the local comparator itself produces canonical output, so a
		// sorter that runs it must be accepted verbatim
		r := New(localSorter{})
		res, ok := r.Resolve(images, nil, types.SortByName, types.Ascending, types.FilterOptions{}, nil)
		require.True(t, ok)
		assert.Equal(t, want, paths(res.Images))
	})
}

type localSorter struct{}

func (localSorter) Sort(images []types.ImageRef, opt types.SortOption, dir types.SortDirection, _ types.AssignmentMap, _ *types.FilterOptions) ([]types.ImageRef, error) {
	out := make([]types.ImageRef, len(images))
	copy(out, images)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && Less(out[j], out[j-1], opt, dir); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// blockingSorter parks its first Sort call until released; later calls pass
// straight through, letting a test overlap two Resolve calls
// deterministically.
type blockingSorter struct {
	entered chan struct{}
	release chan struct{}
	first   atomic.Bool
}

func (s *blockingSorter) Sort(images []types.ImageRef, opt types.SortOption, dir types.SortDirection, _ types.AssignmentMap, _ *types.FilterOptions) ([]types.ImageRef, error) {
	if s.first.CompareAndSwap(false, true) {
		close(s.entered)
		<-s.release
	}
	return nil, fmt.Errorf("defer to local sort")
}

func TestStaleResolveDiscarded(t *testing.T) {
	sorter := &blockingSorter{entered: make(chan struct{}), release: make(chan struct{})}
	r := New(sorter)
	images := []types.ImageRef{img("/g/a.jpg", 1, 1)}

	type outcome struct {
		res Result
		ok  bool
	}
	first := make(chan outcome, 1)
	go func() {
		res, ok := r.Resolve(images, nil, types.SortByName, types.Ascending, types.FilterOptions{}, nil)
		first <- outcome{res, ok}
	}()

	<-sorter.entered

	// a second resolve issued while the first is still inside its sorter
	res, ok := r.Resolve(images, nil, types.SortByName, types.Descending, types.FilterOptions{}, nil)
	require.True(t, ok, "the newest resolve always lands")
	assert.Len(t, res.Images, 1)

	close(sorter.release)
	got := <-first
	assert.False(t, got.ok, "the superseded resolve must report itself stale")
}

func TestKey(t *testing.T) {
	assignments := types.AssignmentMap{
		"/g/b.jpg": {{CategoryID: "pets", AssignedAt: time.Unix(5, 0)}},
		"/g/a.jpg": {{CategoryID: "trips", AssignedAt: time.Unix(9, 0)}},
	}
	filter := types.FilterOptions{CategoryID: "pets"}

	t.Run("deterministic across map iteration order", func(t *testing.T) {
		k1 := Key(types.SortByName, types.Ascending, filter, assignments)
		for i := 0; i < 50; i++ {
			assert.Equal(t, k1, Key(types.SortByName, types.Ascending, filter, assignments.Clone()))
		}
	})

	t.Run("changes with any input", func(t *testing.T) {
		base := Key(types.SortByName, types.Ascending, filter, assignments)
		assert.NotEqual(t, base, Key(types.SortBySize, types.Ascending, filter, assignments))
		assert.NotEqual(t, base, Key(types.SortByName, types.Descending, filter, assignments))
		assert.NotEqual(t, base, Key(types.SortByName, types.Ascending, types.FilterOptions{}, assignments))
		assert.NotEqual(t, base, Key(types.SortByName, types.Ascending, filter, nil))
	})
}
