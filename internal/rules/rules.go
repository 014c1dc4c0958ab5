// Package rules applies glob-based auto-categorization: a rule file maps
// filename patterns to category ids, and Apply pushes the matching
// assignments through the category coordinator so persistence and the
// session invariants hold.
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"galleria/internal/log"
	"galleria/pkg/types"
)

// Rule maps one glob pattern to one category id.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// RuleSet is a loaded rule file.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads and validates a rule file.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return &rs, nil
}

// Validate checks every rule has a compilable pattern and a category.
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("rules file has no rules")
	}
	for i, r := range rs.Rules {
		if r.Pattern == "" {
			return fmt.Errorf("rule %d: pattern is required", i)
		}
		if r.Category == "" {
			return fmt.Errorf("rule %d: category is required", i)
		}
		if _, err := glob.Compile(strings.ToLower(r.Pattern)); err != nil {
			return fmt.Errorf("rule %d: bad pattern %q: %w", i, r.Pattern, err)
		}
	}
	return nil
}

// Assigner is the slice of the category coordinator the rules engine needs.
type Assigner interface {
	Assign(path, categoryID string) error
}

// Apply assigns categories to every image whose base name matches a rule
// pattern (case-insensitively). Images already carrying the category are
// skipped. Per-image failures are logged and do not abort the rest; the
// count of new assignments is returned.
func (rs *RuleSet) Apply(images []types.ImageRef, assignments types.AssignmentMap, assigner Assigner) (int, error) {
	type compiledRule struct {
		g        glob.Glob
		category string
	}
	compiled := make([]compiledRule, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		g, err := glob.Compile(strings.ToLower(r.Pattern))
		if err != nil {
			return 0, fmt.Errorf("bad pattern %q: %w", r.Pattern, err)
		}
		compiled = append(compiled, compiledRule{g: g, category: r.Category})
	}

	applied := 0
	for _, img := range images {
		name := strings.ToLower(img.Name())
		for _, cr := range compiled {
			if !cr.g.Match(name) {
				continue
			}
			if assignments.Has(img.Path, cr.category) {
				continue
			}
			if err := assigner.Assign(img.Path, cr.category); err != nil {
				log.With(log.F("path", img.Path), log.F("category", cr.category), log.F("error", err)).
					Warn("rule assignment failed")
				continue
			}
			applied++
		}
	}
	return applied, nil
}
