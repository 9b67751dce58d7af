// Package editor provides a Bubble Tea authoring tool for event
// interchange files. Every edit is re-validated against the rule
// registry immediately, so authoring mistakes show up while typing,
// not at world load.
package editor

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/save"
	"github.com/selka/planetcore/types"
)

type focusArea int

const (
	focusList focusArea = iota
	focusDetail
)

// Model is the Bubble Tea model for the event editor.
type Model struct {
	path string
	recs []types.EventRecord

	focus       focusArea
	cursor      int // selected event
	fieldCursor int // selected field in the detail pane
	fields      []field

	editing bool
	input   textinput.Model

	width  int
	height int
	status string
	dirty  bool

	quitting bool
}

// New creates an editor model over the given records. path is where
// ctrl+s writes them back.
func New(path string, recs []types.EventRecord) Model {
	ti := textinput.New()
	ti.Prompt = "= "
	ti.CharLimit = 256

	m := Model{path: path, recs: recs, input: ti}
	m.rebuildFields()
	return m
}

// Load reads an interchange file and opens an editor over it. A missing
// file starts an empty editing session that will create it on save.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(path, nil), nil
	}
	if err != nil {
		return Model{}, err
	}
	recs, err := save.DecodeEvents(data)
	if err != nil {
		return Model{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return New(path, recs), nil
}

// Run starts the Bubble Tea program.
func Run(path string) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+s":
			m.saveFile()
			return m, nil
		}
		if m.focus == focusList {
			return m.updateList(msg)
		}
		return m.updateDetail(msg)
	}
	return m, nil
}

// updateList handles keys while the event list has focus.
func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.rebuildFields()
		}
	case "down", "j":
		if m.cursor < len(m.recs)-1 {
			m.cursor++
			m.rebuildFields()
		}
	case "enter", "tab", "right", "l":
		if len(m.recs) > 0 {
			m.focus = focusDetail
			m.fieldCursor = 0
		}
	case "n":
		m.recs = append(m.recs, types.EventRecord{
			ID:          fmt.Sprintf("event_%d", len(m.recs)+1),
			Probability: "Random",
		})
		m.cursor = len(m.recs) - 1
		m.rebuildFields()
		m.dirty = true
		m.status = "New event added."
	case "x":
		if len(m.recs) > 0 {
			m.recs = append(m.recs[:m.cursor], m.recs[m.cursor+1:]...)
			if m.cursor >= len(m.recs) && m.cursor > 0 {
				m.cursor--
			}
			m.rebuildFields()
			m.dirty = true
			m.status = "Event deleted."
		}
	}
	return m, nil
}

// updateDetail handles keys while the field pane has focus.
func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "left", "h":
		m.focus = focusList
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(m.fields)-1 {
			m.fieldCursor++
		}
	case "enter":
		if len(m.fields) > 0 {
			f := m.fields[m.fieldCursor]
			m.editing = true
			m.input.SetValue(f.get(m.rec()))
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		}
	case "a":
		m.rec().Conditions = append(m.rec().Conditions, types.ConditionRecord{})
		m.rebuildFields()
		m.dirty = true
	case "A":
		m.rec().Effects = append(m.rec().Effects, types.EffectRecord{})
		m.rebuildFields()
		m.dirty = true
	case "x":
		m.deleteRuleAtCursor()
	}
	return m, nil
}

// updateEditing handles keys while a field value is being typed.
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		f := m.fields[m.fieldCursor]
		f.set(m.rec(), strings.TrimSpace(m.input.Value()))
		m.editing = false
		m.input.Blur()
		m.rebuildFields()
		m.dirty = true
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// rec returns the selected record, or nil when the list is empty.
func (m *Model) rec() *types.EventRecord {
	if len(m.recs) == 0 {
		return nil
	}
	return &m.recs[m.cursor]
}

// rebuildFields regenerates the detail field list for the selected
// record and clamps the field cursor.
func (m *Model) rebuildFields() {
	if r := m.rec(); r != nil {
		m.fields = eventFields(r)
	} else {
		m.fields = nil
	}
	if m.fieldCursor >= len(m.fields) {
		m.fieldCursor = len(m.fields) - 1
	}
	if m.fieldCursor < 0 {
		m.fieldCursor = 0
	}
}

// deleteRuleAtCursor removes the condition or effect the field cursor
// sits on. Metadata fields are not deletable.
func (m *Model) deleteRuleAtCursor() {
	if len(m.fields) == 0 {
		return
	}
	label := m.fields[m.fieldCursor].label
	r := m.rec()
	var idx int
	switch {
	case strings.HasPrefix(label, "when["):
		fmt.Sscanf(label, "when[%d]", &idx)
		r.Conditions = append(r.Conditions[:idx], r.Conditions[idx+1:]...)
	case strings.HasPrefix(label, "effects["):
		fmt.Sscanf(label, "effects[%d]", &idx)
		r.Effects = append(r.Effects[:idx], r.Effects[idx+1:]...)
	default:
		return
	}
	m.rebuildFields()
	m.dirty = true
}

// saveFile writes the records back to disk in the interchange format.
func (m *Model) saveFile() {
	evs := make([]types.Event, 0, len(m.recs))
	for _, rec := range m.recs {
		ev, err := rules.CompileEvent(rec)
		if err != nil {
			m.status = fmt.Sprintf("Not saved: %s is invalid (%v).", rec.ID, err)
			return
		}
		evs = append(evs, ev)
	}
	data, err := save.EncodeEvents(evs)
	if err != nil {
		m.status = fmt.Sprintf("Save failed: %v", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		m.status = fmt.Sprintf("Save failed: %v", err)
		return
	}
	m.dirty = false
	m.status = fmt.Sprintf("Saved %d event(s) to %s.", len(evs), m.path)
}

// violations returns the live validation results for the selected
// record.
func (m Model) violations() []rules.SchemaViolation {
	if r := m.rec(); r != nil {
		return rules.ValidateEvent(*r)
	}
	return nil
}

// View renders the list pane, the detail pane, and the status line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	listWidth := 28
	detailWidth := m.width - listWidth - 3
	if detailWidth < 20 {
		detailWidth = 20
	}

	list := m.renderList(listWidth)
	detail := m.renderDetail(detailWidth)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)

	return panes + "\n" + m.renderStatusLine()
}

func (m Model) renderList(width int) string {
	var b strings.Builder
	b.WriteString(stylePaneTitle.Render("Events"))
	b.WriteString("\n")
	for i, rec := range m.recs {
		label := rec.ID
		if label == "" {
			label = "(unnamed)"
		}
		if len(rules.ValidateEvent(rec)) > 0 {
			label = "! " + label
		} else {
			label = "  " + label
		}
		line := truncate(label, width)
		if i == m.cursor {
			if m.focus == focusList {
				line = styleSelected.Render(line)
			} else {
				line = styleSelectedBlurred.Render(line)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.recs) == 0 {
		b.WriteString(styleHint.Render("(none; press n)"))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (m Model) renderDetail(width int) string {
	var b strings.Builder
	b.WriteString(stylePaneTitle.Render("Event"))
	b.WriteString("\n")

	r := m.rec()
	if r == nil {
		b.WriteString(styleHint.Render("No event selected."))
		return lipgloss.NewStyle().Width(width).Render(b.String())
	}

	for i, f := range m.fields {
		line := fmt.Sprintf("%-22s %s", f.label, f.get(r))
		line = truncate(line, width)
		if i == m.fieldCursor && m.focus == focusDetail {
			if m.editing {
				line = fmt.Sprintf("%-22s %s", f.label, m.input.View())
			} else {
				line = styleSelected.Render(line)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.focus == focusDetail && !m.editing && len(m.fields) > 0 {
		if hint := kindHint(m.fields[m.fieldCursor].label); hint != "" {
			b.WriteString(styleHint.Render(truncate("legal: "+hint, width)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	violations := m.violations()
	if len(violations) == 0 {
		b.WriteString(styleValid.Render("valid"))
	} else {
		for _, v := range violations {
			b.WriteString(styleInvalid.Render(truncate("✗ "+v.Detail, width)))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (m Model) renderStatusLine() string {
	marker := ""
	if m.dirty {
		marker = " [modified]"
	}
	left := fmt.Sprintf(" %s%s", m.path, marker)
	help := "n new  x delete  enter edit  a/+cond  A/+effect  ctrl+s save  q quit "
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		return styleStatusLine.Width(m.width).Render(left + " " + m.status)
	}
	bar := left + strings.Repeat(" ", gap) + help
	if m.status != "" {
		bar = left + "  " + m.status
		pad := m.width - lipgloss.Width(bar)
		if pad > 0 {
			bar += strings.Repeat(" ", pad)
		}
	}
	return styleStatusLine.Width(m.width).Render(bar)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// Styles for the editor panes.
var (
	stylePaneTitle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.Color("24")).
			Foreground(lipgloss.Color("255"))

	styleSelectedBlurred = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(lipgloss.Color("252"))

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleValid = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleInvalid = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleStatusLine = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))
)
