package types

import "strings"

// Hotkey binds a key combination to an engine action. The action grammar is
// parsed by the hotkey dispatcher; an empty action is a scrubbed binding
// that matches nothing.
type Hotkey struct {
	Key       string   `yaml:"key" json:"key"`
	Modifiers []string `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	Action    string   `yaml:"action" json:"action"`
}

// Matches reports whether the captured key event matches this binding.
// The key comparison is case-insensitive and the modifier comparison is an
// exact set comparison: a binding for Ctrl must not fire on Ctrl+Shift.
func (h Hotkey) Matches(key string, modifiers []string) bool {
	if !strings.EqualFold(h.Key, key) {
		return false
	}
	want := normalizeModifiers(h.Modifiers)
	got := normalizeModifiers(modifiers)
	if len(want) != len(got) {
		return false
	}
	for mod := range want {
		if !got[mod] {
			return false
		}
	}
	return true
}

func normalizeModifiers(mods []string) map[string]bool {
	set := make(map[string]bool, len(mods))
	for _, m := range mods {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			set[m] = true
		}
	}
	return set
}
