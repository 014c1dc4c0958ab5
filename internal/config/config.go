// Package config persists per-directory gallery state: the category list,
// image-to-category assignments, and the hotkey bindings. The state lives in
// a YAML file inside the directory being browsed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"galleria/internal/log"
	"galleria/pkg/types"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the gallery state file created inside a browsed
// directory.
const DefaultFilename = ".galleria.yaml"

// ImageEntry is the persisted form of one image's category assignments.
type ImageEntry struct {
	Path       string                     `yaml:"path"`
	Categories []types.CategoryAssignment `yaml:"categories"`
}

// Config is the persisted gallery state for one directory.
type Config struct {
	Categories []types.Category `yaml:"categories"`
	Images     []ImageEntry     `yaml:"images"`
	Hotkeys    []types.Hotkey   `yaml:"hotkeys"`
}

// New returns an empty configuration with the default hotkey set.
func New() *Config {
	return &Config{
		Categories: []types.Category{},
		Images:     []ImageEntry{},
		Hotkeys:    DefaultHotkeys(),
	}
}

// DefaultHotkeys is the hotkey set created for a directory that has never
// been configured. The modal navigation defaults (arrows, escape, delete)
// are part of the dispatcher itself; these are the extras users most often
// expect.
func DefaultHotkeys() []types.Hotkey {
	return []types.Hotkey{
		{Key: "n", Action: "next_image"},
		{Key: "p", Action: "previous_image"},
		{Key: "d", Modifiers: []string{"ctrl"}, Action: "delete_image_and_next"},
	}
}

// LoadFile loads gallery state from a specific file path. A missing file is
// not an error: it means no saved state, so defaults are returned.
func LoadFile(path string) (*Config, error) {
	cfg, _, err := loadFile(path)
	return cfg, err
}

// loadFile additionally reports whether the file existed, so FileStore.Load
// can tell a fresh directory apart from one whose saved state lacks hotkeys.
func loadFile(path string) (*Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), false, nil
		}
		return nil, false, fmt.Errorf("error reading gallery file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, false, fmt.Errorf("error parsing gallery file: %w", err)
	}
	if cfg.Categories == nil {
		cfg.Categories = []types.Category{}
	}
	if cfg.Images == nil {
		cfg.Images = []ImageEntry{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid gallery file: %w", err)
	}
	return &cfg, true, nil
}

// SaveFile writes gallery state to the given path, creating parent
// directories if needed.
func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal gallery state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write gallery file: %w", err)
	}
	return nil
}

// Validate checks structural invariants of the persisted state.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	seen := map[string]bool{}
	for i, cat := range c.Categories {
		if cat.ID == "" {
			return fmt.Errorf("category %d: id is required", i)
		}
		if cat.ID == types.CategoryUncategorized {
			return fmt.Errorf("category %d: %q is reserved", i, cat.ID)
		}
		if seen[cat.ID] {
			return fmt.Errorf("duplicate category id: %s", cat.ID)
		}
		seen[cat.ID] = true
	}

	for _, entry := range c.Images {
		if entry.Path == "" {
			return fmt.Errorf("image entry with empty path")
		}
		ids := map[string]bool{}
		for _, a := range entry.Categories {
			if a.CategoryID == "" {
				return fmt.Errorf("image %s: empty category id", entry.Path)
			}
			if ids[a.CategoryID] {
				return fmt.Errorf("image %s: duplicate category %s", entry.Path, a.CategoryID)
			}
			ids[a.CategoryID] = true
		}
	}

	for i, hk := range c.Hotkeys {
		if hk.Key == "" {
			return fmt.Errorf("hotkey %d: key is required", i)
		}
	}

	return nil
}

// AssignmentMap converts the persisted image entries to the in-memory map.
func (c *Config) AssignmentMap() types.AssignmentMap {
	m := make(types.AssignmentMap, len(c.Images))
	for _, entry := range c.Images {
		if len(entry.Categories) == 0 {
			continue
		}
		list := make([]types.CategoryAssignment, len(entry.Categories))
		copy(list, entry.Categories)
		m[entry.Path] = list
	}
	return m
}

// FromSession builds a persistable Config from live session state. Image
// entries are emitted sorted by path so the file, like the sort/filter cache
// key, is independent of map iteration order.
func FromSession(categories []types.Category, assignments types.AssignmentMap, hotkeys []types.Hotkey) *Config {
	cfg := &Config{
		Categories: append([]types.Category{}, categories...),
		Images:     []ImageEntry{},
		Hotkeys:    append([]types.Hotkey{}, hotkeys...),
	}
	for _, path := range assignments.Paths() {
		list := assignments[path]
		if len(list) == 0 {
			continue
		}
		entry := ImageEntry{Path: path, Categories: make([]types.CategoryAssignment, len(list))}
		copy(entry.Categories, list)
		cfg.Images = append(cfg.Images, entry)
	}
	return cfg
}

// Store abstracts the persistence collaborator so the engine can be tested
// without touching the filesystem.
type Store interface {
	Load(dir string) (*Config, error)
	Save(dir string, cfg *Config) error
}

// FileStore persists gallery state as a YAML file inside the directory.
type FileStore struct {
	Filename string
}

// NewFileStore returns a FileStore using the default filename.
func NewFileStore() *FileStore {
	return &FileStore{Filename: DefaultFilename}
}

func (s *FileStore) filePath(dir string) string {
	name := s.Filename
	if name == "" {
		name = DefaultFilename
	}
	return filepath.Join(dir, name)
}

// Load reads the gallery state for dir. When no state file exists yet, or
// one exists without hotkeys, the default hotkey set is installed in memory
// and persisted best-effort: a failed save is logged but the defaults
// remain usable.
func (s *FileStore) Load(dir string) (*Config, error) {
	cfg, found, err := loadFile(s.filePath(dir))
	if err != nil {
		return nil, err
	}
	if !found || len(cfg.Hotkeys) == 0 {
		cfg.Hotkeys = DefaultHotkeys()
		if err := s.Save(dir, cfg); err != nil {
			log.With(log.F("directory", dir), log.F("error", err)).
				Warn("could not persist default hotkeys")
		}
	}
	return cfg, nil
}

// Save writes the gallery state for dir.
func (s *FileStore) Save(dir string, cfg *Config) error {
	return SaveFile(s.filePath(dir), cfg)
}
