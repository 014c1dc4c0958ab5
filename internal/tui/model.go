// Package tui is the terminal front end for the browsing engine. It renders
// the visible page and the modal overlay from engine snapshots and maps
// terminal keys into the hotkey dispatcher. All state lives in the engine;
// the model only holds the latest snapshot and input widgets.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"galleria/internal/engine"
	"galleria/internal/hotkey"
	"galleria/pkg/types"
)

// proximityMargin is how close the cursor must get to the bottom of the
// visible window before the viewport-proximity signal fires.
const proximityMargin = 5

type snapshotMsg engine.Snapshot

type imageLoadedMsg struct {
	path string
	size int
	err  error
}

// KeyMap holds the built-in browser bindings; the configurable hotkeys live
// in the engine's dispatcher.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Filter    key.Binding
	CycleSort key.Binding
	Reset     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open image")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "name filter")),
		CycleSort: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset session")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the bubbletea model for the gallery browser.
type Model struct {
	eng  *engine.Engine
	keys KeyMap

	snap   engine.Snapshot
	cursor int

	filterInput textinput.Model
	filtering   bool

	modalBytes int
	modalErr   error

	showHelp bool
	status   string
	width    int
	height   int

	updates chan engine.Snapshot
	loads   chan imageLoadedMsg
}

// New wires a model to the engine. The engine's synchronous notifications
// are bridged into the bubbletea loop through a channel so observers never
// call back into the engine from the callback.
func New(eng *engine.Engine) *Model {
	ti := textinput.New()
	ti.Placeholder = "name filter"
	ti.CharLimit = 64

	m := &Model{
		eng:         eng,
		keys:        defaultKeyMap(),
		filterInput: ti,
		updates:     make(chan engine.Snapshot, 8),
		loads:       make(chan imageLoadedMsg, 8),
	}

	eng.Subscribe(func(s engine.Snapshot) {
		// newest wins: on a full buffer, drop a stale queued snapshot
		// rather than the one just produced
		for {
			select {
			case m.updates <- s:
				return
			default:
				select {
				case <-m.updates:
				default:
				}
			}
		}
	})
	eng.SetImageLoadedHandler(func(path string, data []byte, err error) {
		select {
		case m.loads <- imageLoadedMsg{path: path, size: len(data), err: err}:
		default:
		}
	})
	eng.SetHelpHandler(func() {})

	m.snap = eng.Snapshot()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), m.waitLoad())
}

func (m *Model) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates)
	}
}

func (m *Model) waitLoad() tea.Cmd {
	return func() tea.Msg {
		return <-m.loads
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = engine.Snapshot(msg)
		if m.cursor >= len(m.snap.Page) {
			m.cursor = len(m.snap.Page) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, m.waitSnapshot()

	case imageLoadedMsg:
		if msg.path == m.snap.ModalPath {
			m.modalBytes = msg.size
			m.modalErr = msg.err
		}
		return m, m.waitLoad()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && !m.filtering {
		return m, tea.Quit
	}

	// While the filter input has focus, configured hotkeys must not fire,
	// but the modal navigation defaults stay live.
	if m.filtering {
		switch msg.String() {
		case "enter":
			m.filtering = false
			m.filterInput.Blur()
			m.applyNameFilter(m.filterInput.Value())
			return m, nil
		case "esc":
			m.filtering = false
			m.filterInput.Blur()
			m.filterInput.SetValue("")
			m.applyNameFilter("")
			return m, nil
		}
		if ev, ok := keyEvent(msg, true); ok && m.eng.HandleKey(ev) {
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Up):
		if m.snap.ModalOpen {
			break // arrows belong to the modal while it is open
		}
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.snap.ModalOpen {
			break
		}
		if m.cursor < len(m.snap.Page)-1 {
			m.cursor++
			m.maybeExtend()
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if !m.snap.ModalOpen && len(m.snap.Page) > 0 {
			m.modalBytes = 0
			m.modalErr = nil
			m.eng.OpenModal(m.cursor)
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleSort):
		m.cycleSort()
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		if err := m.eng.ResetSession(); err != nil {
			m.status = err.Error()
		} else {
			m.status = "session reset"
		}
		return m, nil
	}

	if ev, ok := keyEvent(msg, false); ok {
		if m.eng.HandleKey(ev) {
			return m, nil
		}
	}
	return m, nil
}

// maybeExtend emits the viewport-proximity signal when the cursor nears
// the end of the visible window.
func (m *Model) maybeExtend() {
	if len(m.snap.Page)-m.cursor <= proximityMargin {
		m.eng.ExtendPage()
	}
}

func (m *Model) applyNameFilter(pattern string) {
	f := m.snap.Filter
	f.NamePattern = pattern
	f.NameOperator = types.NameContains
	m.eng.SetFilterOptions(f)
}

func (m *Model) cycleSort() {
	order := []types.SortOption{types.SortByName, types.SortByDate, types.SortBySize}
	next := order[0]
	for i, opt := range order {
		if opt == m.snap.SortOption {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.eng.SetSortOption(next, m.snap.SortDirection)
	m.status = fmt.Sprintf("sorted by %s", next)
}

// keyEvent translates a terminal key into a dispatcher event. Combinations
// arrive as "ctrl+d"; the last token is the key, everything before it is a
// modifier.
func keyEvent(msg tea.KeyMsg, fromTextInput bool) (hotkey.Event, bool) {
	s := msg.String()
	if s == "" {
		return hotkey.Event{}, false
	}
	parts := strings.Split(s, "+")
	k := parts[len(parts)-1]
	mods := parts[:len(parts)-1]
	return hotkey.Event{Key: k, Modifiers: mods, FromTextInput: fromTextInput}, true
}

// View implements tea.Model.
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("galleria — "+m.snap.Directory) + "\n")
	sb.WriteString(m.renderStatusLine() + "\n\n")

	if m.snap.ModalOpen {
		sb.WriteString(m.renderModal())
	} else {
		sb.WriteString(m.renderListing())
	}

	if m.filtering {
		sb.WriteString("\n" + m.filterInput.View())
	}
	if m.status != "" {
		sb.WriteString("\n" + statusStyle.Render(m.status))
	}
	if m.showHelp {
		sb.WriteString("\n" + m.renderHelp())
	}
	sb.WriteString("\n" + helpStyle.Render("[enter] view  [/] filter  [s] sort  [?] help  [q] quit"))

	return appStyle.Render(sb.String())
}

func (m *Model) renderStatusLine() string {
	filter := "none"
	if m.snap.Filter.CategoryID != "" {
		filter = "category:" + m.snap.Filter.CategoryID
	}
	if m.snap.Filter.NamePattern != "" {
		filter += " name:" + m.snap.Filter.NamePattern
	}
	return statusStyle.Render(fmt.Sprintf("%d/%d images shown · sort %s %s · filter %s",
		m.snap.Visible, m.snap.TotalImages, m.snap.SortOption, m.snap.SortDirection, filter))
}

func (m *Model) renderListing() string {
	var sb strings.Builder
	for _, d := range m.snap.Directories {
		sb.WriteString(dirStyle.Render("▸ "+d.Name()) + "\n")
	}
	for i, img := range m.snap.Page {
		line := img.Name()
		if tags := m.renderTags(img.Path); tags != "" {
			line += "  " + tags
		}
		if i == m.cursor {
			sb.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			sb.WriteString(unselectedStyle.Render("  "+line) + "\n")
		}
	}
	if len(m.snap.Page) == 0 && len(m.snap.Directories) == 0 {
		sb.WriteString(statusStyle.Render("(no images match)") + "\n")
	}
	return sb.String()
}

func (m *Model) renderTags(path string) string {
	assignments := m.snap.Assignments[path]
	if len(assignments) == 0 {
		return ""
	}
	names := make([]string, 0, len(assignments))
	for _, a := range assignments {
		name := a.CategoryID
		for _, c := range m.snap.Categories {
			if c.ID == a.CategoryID {
				name = c.Name
				break
			}
		}
		names = append(names, name)
	}
	return tagStyle.Render("[" + strings.Join(names, " ") + "]")
}

func (m *Model) renderModal() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s  (%d of %d)\n", m.snap.ModalPath, m.snap.ModalIndex+1, m.snap.TotalImages))
	if m.modalErr != nil {
		sb.WriteString(errorStyle.Render("⚠ failed to load image") + "\n")
	} else if m.modalBytes > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("%d bytes loaded", m.modalBytes)) + "\n")
	} else {
		sb.WriteString(statusStyle.Render("loading…") + "\n")
	}
	if tags := m.renderTags(m.snap.ModalPath); tags != "" {
		sb.WriteString(tags + "\n")
	}
	sb.WriteString(helpStyle.Render("[←/→] navigate  [esc] close  [delete] trash"))
	return modalStyle.Render(sb.String())
}

func (m *Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(helpStyle.Render("hotkeys:") + "\n")
	for _, hk := range m.eng.Hotkeys() {
		if hk.Action == "" {
			continue
		}
		combo := hk.Key
		if len(hk.Modifiers) > 0 {
			combo = strings.Join(hk.Modifiers, "+") + "+" + combo
		}
		sb.WriteString(helpStyle.Render(fmt.Sprintf("  %-12s %s", combo, hk.Action)) + "\n")
	}
	return sb.String()
}
