// Package engine wires the session store, resolver, pagination controller,
// category coordinator, modal navigator, and hotkey dispatcher into the
// command surface the UI talks to. Commands are serialized behind one
// mutex, the Go rendition of the original single-threaded event loop:
// long-running collaborator calls run outside the lock and their results
// are discarded when stale rather than aborted.
package engine

import (
	"sync"

	"galleria/internal/category"
	"galleria/internal/config"
	"galleria/internal/hotkey"
	"galleria/internal/log"
	"galleria/internal/modal"
	"galleria/internal/page"
	"galleria/internal/resolve"
	"galleria/internal/session"
	"galleria/internal/trash"
	"galleria/pkg/types"
)

// Engine owns one browsing session for one directory.
type Engine struct {
	mu sync.Mutex

	dir string

	store       *session.Store
	resolver    *resolve.Resolver
	pager       *page.Controller
	coordinator *category.Coordinator
	navigator   *modal.Navigator
	dispatcher  *hotkey.Dispatcher

	configStore config.Store
	deleter     trash.Deleter

	resolved resolve.Result

	subscribers []func(Snapshot)
	onHelp      func()
}

// Option configures collaborators at construction time.
type Option func(*options)

type options struct {
	sorter      resolve.Sorter
	loader      modal.Loader
	configStore config.Store
	deleter     trash.Deleter
	batchSize   int
}

// WithSorter installs an external sorter; the resolver falls back locally
// when it is absent or fails.
func WithSorter(s resolve.Sorter) Option {
	return func(o *options) { o.sorter = s }
}

// WithLoader replaces the image loader collaborator.
func WithLoader(l modal.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithConfigStore replaces the persistence collaborator.
func WithConfigStore(s config.Store) Option {
	return func(o *options) { o.configStore = s }
}

// WithDeleter replaces the delete/trash collaborator.
func WithDeleter(d trash.Deleter) Option {
	return func(o *options) { o.deleter = d }
}

// WithBatchSize overrides the pagination batch size, mainly for tests.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// New builds an engine with default collaborators: file-backed config
// store, direct file loader, move-to-trash deleter, local-only sorter.
func New(opts ...Option) *Engine {
	o := &options{
		loader:      modal.FileLoader{},
		configStore: config.NewFileStore(),
		deleter:     trash.New(),
	}
	for _, opt := range opts {
		opt(o)
	}

	store := session.NewStore()
	e := &Engine{
		store:       store,
		resolver:    resolve.New(o.sorter),
		configStore: o.configStore,
		deleter:     o.deleter,
	}
	if o.batchSize > 0 {
		e.pager = page.NewWithBatchSize(o.batchSize)
	} else {
		e.pager = page.New()
	}

	e.coordinator = category.NewCoordinator(store)
	e.coordinator.SetPersist(e.persistState)
	e.coordinator.SetEvictionHandler(e.refreshLocked)

	e.navigator = modal.NewNavigator(store, o.loader)
	e.navigator.SetResolved(func() []types.ImageRef { return e.resolved.Images })

	e.dispatcher = hotkey.NewDispatcher(e)
	return e
}

// Open loads the directory's gallery state and scans its contents,
// replacing any previous session.
func (e *Engine) Open(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openLocked(dir)
}

func (e *Engine) openLocked(dir string) error {
	cfg, err := e.configStore.Load(dir)
	if err != nil {
		return err
	}
	images, dirs, err := ScanDirectory(dir)
	if err != nil {
		return err
	}

	e.dir = dir
	e.store.Reset(images, dirs, cfg.Categories, cfg.AssignmentMap())
	e.dispatcher.SetHotkeys(cfg.Hotkeys)
	e.navigator.ClearCache()
	e.pager.Reset()
	e.refreshLocked()
	e.notifyLocked()

	log.With(log.F("directory", dir), log.F("images", len(images)), log.F("dirs", len(dirs))).
		Info("opened directory")
	return nil
}

// ResetSession re-opens the current directory from scratch, bumping the
// session's reset version.
func (e *Engine) ResetSession() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dir == "" {
		return nil
	}
	return e.openLocked(e.dir)
}

// Subscribe registers a read-model observer. Notification is synchronous
// and in registration order after every command; observers must not call
// back into the engine from the callback.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
	idx := len(e.subscribers) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subscribers[idx] = nil
	}
}

// SetImageLoadedHandler registers the callback for settled image loads.
// It fires from loader goroutines; handlers must do their own
// synchronization (the TUI posts a message to its own loop).
func (e *Engine) SetImageLoadedHandler(fn modal.LoadedFunc) {
	e.navigator.SetOnLoaded(fn)
}

// SetHelpHandler registers the UI hook behind the "?" default shortcut.
func (e *Engine) SetHelpHandler(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onHelp = fn
}

// refreshLocked re-runs the resolver against the session's effective
// assignment map (the frozen snapshot while refiltering is suppressed),
// re-syncs pagination, and realigns the modal cursor. Callers hold e.mu.
func (e *Engine) refreshLocked() {
	v := e.store.View()
	res, ok := e.resolver.Resolve(v.Images, v.Directories, v.SortOption, v.SortDirection, v.Filter, v.EffectiveCategories())
	if !ok {
		// a newer resolve superseded this one; its result never lands
		return
	}
	e.resolved = res
	e.pager.Sync(res.Key, len(res.Images))
	e.navigator.Reindex(res.Images)
}

func (e *Engine) notifyLocked() {
	snap := e.snapshotLocked()
	for _, fn := range e.subscribers {
		if fn != nil {
			fn(snap)
		}
	}
}

// persistState saves categories, assignments, and hotkeys through the
// config store. The in-memory session is the source of truth: a failed
// save is reported but never rolled back.
func (e *Engine) persistState() error {
	if e.dir == "" {
		return nil
	}
	v := e.store.View()
	cfg := config.FromSession(v.Categories, v.ImageCategories, e.dispatcher.Hotkeys())
	return e.configStore.Save(e.dir, cfg)
}
