// Package hotkey routes captured key events onto coordinator and navigator
// commands. Bindings use an exact modifier-set comparison and a
// case-insensitive key comparison; the action grammar is the small string
// language persisted in the gallery config.
package hotkey

import (
	"strings"
	"sync"

	"galleria/internal/log"
	"galleria/pkg/types"
)

// Event is one captured key combination.
type Event struct {
	Key       string
	Modifiers []string
	// FromTextInput marks events whose focus target is a text input,
	// textarea, or contenteditable element. Configured hotkeys are skipped
	// for those, the modal navigation defaults are not.
	FromTextInput bool
}

// Commands is the surface the dispatcher drives. It is an explicit
// interface owned by the engine, not a mutable callback slot.
type Commands interface {
	NextImage() bool
	PreviousImage() bool
	CloseModal()
	DeleteImageAndNext() error
	ToggleHelp()
	ToggleCategoryOnModal(categoryID string) error
	ToggleCategoryOnModalAndNext(categoryID string) error
}

type actionKind int

const (
	actionUnknown actionKind = iota
	actionNone               // scrubbed binding, matches nothing
	actionNextImage
	actionPreviousImage
	actionDeleteAndNext
	actionToggleCategory
	actionToggleCategoryNext
)

// Dispatcher matches events against the registered hotkeys and the built-in
// modal navigation defaults.
type Dispatcher struct {
	mu       sync.Mutex
	hotkeys  []types.Hotkey
	commands Commands
}

// NewDispatcher returns a dispatcher driving the given commands.
func NewDispatcher(commands Commands) *Dispatcher {
	return &Dispatcher{commands: commands}
}

// SetHotkeys replaces the registered bindings.
func (d *Dispatcher) SetHotkeys(hotkeys []types.Hotkey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hotkeys = append([]types.Hotkey{}, hotkeys...)
}

// Hotkeys returns a copy of the registered bindings.
func (d *Dispatcher) Hotkeys() []types.Hotkey {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.Hotkey{}, d.hotkeys...)
}

// ScrubCategory clears (does not delete) the action of every binding
// referencing the category id, covering all grammar variants. Returns the
// number of scrubbed bindings.
func (d *Dispatcher) ScrubCategory(categoryID string) int {
	targets := map[string]bool{
		"toggle_category_" + categoryID:            true,
		"toggle_category_next_" + categoryID:       true,
		"assign_category_" + categoryID:            true,
		"assign_category_" + categoryID + "_image": true,
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	scrubbed := 0
	for i := range d.hotkeys {
		if targets[d.hotkeys[i].Action] {
			d.hotkeys[i].Action = ""
			scrubbed++
		}
	}
	return scrubbed
}

// Dispatch routes one event. It reports whether the event was handled.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if !ev.FromTextInput {
		d.mu.Lock()
		hotkeys := append([]types.Hotkey{}, d.hotkeys...)
		d.mu.Unlock()
		for _, hk := range hotkeys {
			if !hk.Matches(ev.Key, ev.Modifiers) {
				continue
			}
			kind, categoryID := parseAction(hk.Action)
			switch kind {
			case actionNone:
				continue
			case actionUnknown:
				log.With(log.F("action", hk.Action), log.F("key", hk.Key)).
					Warn("unknown hotkey action ignored")
				continue
			default:
				d.run(kind, categoryID)
				return true
			}
		}
	}

	// The modal navigation defaults stay live even while a text input has
	// focus.
	if len(ev.Modifiers) != 0 {
		return false
	}
	switch strings.ToLower(ev.Key) {
	case "right", "arrowright":
		d.commands.NextImage()
	case "left", "arrowleft":
		d.commands.PreviousImage()
	case "escape", "esc":
		d.commands.CloseModal()
	case "delete":
		d.run(actionDeleteAndNext, "")
	case "?":
		d.commands.ToggleHelp()
	default:
		return false
	}
	return true
}

func (d *Dispatcher) run(kind actionKind, categoryID string) {
	var err error
	switch kind {
	case actionNextImage:
		d.commands.NextImage()
	case actionPreviousImage:
		d.commands.PreviousImage()
	case actionDeleteAndNext:
		err = d.commands.DeleteImageAndNext()
	case actionToggleCategory:
		err = d.commands.ToggleCategoryOnModal(categoryID)
	case actionToggleCategoryNext:
		err = d.commands.ToggleCategoryOnModalAndNext(categoryID)
	}
	if err != nil {
		log.With(log.F("error", err)).Error("hotkey action failed")
	}
}

// parseAction decodes the persisted action grammar. assign_category_<id>
// is a legacy alias that behaves as toggle, as does its _image variant.
func parseAction(action string) (actionKind, string) {
	switch action {
	case "":
		return actionNone, ""
	case "next_image":
		return actionNextImage, ""
	case "previous_image":
		return actionPreviousImage, ""
	case "delete_image_and_next":
		return actionDeleteAndNext, ""
	}
	if id, ok := strings.CutPrefix(action, "toggle_category_next_"); ok && id != "" {
		return actionToggleCategoryNext, id
	}
	if id, ok := strings.CutPrefix(action, "toggle_category_"); ok && id != "" {
		return actionToggleCategory, id
	}
	if id, ok := strings.CutPrefix(action, "assign_category_"); ok && id != "" {
		id = strings.TrimSuffix(id, "_image")
		if id != "" {
			return actionToggleCategory, id
		}
	}
	return actionUnknown, ""
}
