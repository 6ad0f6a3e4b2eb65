package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/notionsync/internal/diff"
)

// DiffAction represents the action to perform after viewing diffs.
type DiffAction int

const (
	// DiffActionNone means no action was taken (user quit).
	DiffActionNone DiffAction = iota
	// DiffActionBack means the user wants to go back to selection.
	DiffActionBack
)

// DiffEntry is one file shown in the diff viewer.
type DiffEntry struct {
	Title string
	Path  string
	// Exists is false when the file would be created; Old is then empty.
	Exists bool
	Old    string
	New    string
}

// syncDiffKeyMap defines the key bindings for the diff viewer.
type syncDiffKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Next key.Binding
	Prev key.Binding
	Back key.Binding
	Help key.Binding
	Quit key.Binding
}

func defaultSyncDiffKeyMap() syncDiffKeyMap {
	return syncDiffKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next file"),
		),
		Prev: key.NewBinding(
			key.WithKeys("N", "left", "h"),
			key.WithHelp("N/←", "previous file"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// SyncDiffModel is the BubbleTea model for reviewing line diffs.
type SyncDiffModel struct {
	viewport viewport.Model
	entries  []DiffEntry
	index    int
	keys     syncDiffKeyMap
	result   DiffAction
	showHelp bool
	width    int
	height   int
	quitting bool
	ready    bool
}

// Styles for the diff viewer TUI.
var syncDiffStyles = struct {
	Title      lipgloss.Style
	Help       lipgloss.Style
	Status     lipgloss.Style
	Added      lipgloss.Style
	Removed    lipgloss.Style
	Unchanged  lipgloss.Style
	SectionHdr lipgloss.Style
	Info       lipgloss.Style
}{
	Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	Added:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	Removed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	Unchanged:  lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	SectionHdr: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Padding(1, 0),
	Info:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
}

// NewSyncDiffModel creates a diff viewer over entries.
func NewSyncDiffModel(entries []DiffEntry) SyncDiffModel {
	return SyncDiffModel{
		entries: entries,
		keys:    defaultSyncDiffKeyMap(),
	}
}

// Init implements tea.Model.
func (m SyncDiffModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SyncDiffModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Title + spacing
		footerHeight := 3 // Status + help
		viewportHeight := max(msg.Height-headerHeight-footerHeight, 5)

		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, viewportHeight)
			m.viewport.SetContent(m.buildDiffContent())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = viewportHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.result = DiffActionNone
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Back):
			m.result = DiffActionBack
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			if m.index < len(m.entries)-1 {
				m.index++
				m.resetContent()
			}
			return m, nil

		case key.Matches(msg, m.keys.Prev):
			if m.index > 0 {
				m.index--
				m.resetContent()
			}
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *SyncDiffModel) resetContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.buildDiffContent())
	m.viewport.GotoTop()
}

func (m SyncDiffModel) current() (DiffEntry, bool) {
	if m.index < 0 || m.index >= len(m.entries) {
		return DiffEntry{}, false
	}
	return m.entries[m.index], true
}

func (m SyncDiffModel) buildDiffContent() string {
	entry, ok := m.current()
	if !ok {
		return syncDiffStyles.Info.Render("  Nothing to review")
	}

	var b strings.Builder

	b.WriteString(syncDiffStyles.SectionHdr.Render("File"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Title: %s\n", entry.Title))
	b.WriteString(fmt.Sprintf("  Path:  %s\n", entry.Path))
	b.WriteString("\n")

	lines := diff.Lines(entry.Old, entry.New)
	switch {
	case !entry.Exists:
		b.WriteString(syncDiffStyles.Info.Render("  This is a NEW file - it will be created"))
	case !diff.Changed(lines):
		b.WriteString(syncDiffStyles.Info.Render("  Contents are identical - the file will be rewritten unchanged"))
	default:
		b.WriteString(syncDiffStyles.Info.Render("  " + diff.Summary(lines)))
	}
	b.WriteString("\n\n")

	b.WriteString(syncDiffStyles.SectionHdr.Render("Changes"))
	b.WriteString("\n")
	b.WriteString(formatDiffLines(lines))

	return b.String()
}

func formatDiffLines(lines []diff.Line) string {
	var b strings.Builder
	for i, line := range lines {
		style := syncDiffStyles.Unchanged
		switch line.Tag {
		case diff.Added:
			style = syncDiffStyles.Added
		case diff.Removed:
			style = syncDiffStyles.Removed
		}
		b.WriteString(syncDiffStyles.Unchanged.Render(fmt.Sprintf("%4d │ ", i+1)))
		b.WriteString(style.Render(line.String()))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View implements tea.Model.
func (m SyncDiffModel) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	entry, _ := m.current()
	title := syncDiffStyles.Title.Render(fmt.Sprintf("Review: %s", entry.Title))
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	status := fmt.Sprintf("File %d of %d • Scroll: %d%%", m.index+1, len(m.entries), scrollPercent)
	b.WriteString(syncDiffStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func (m SyncDiffModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ scroll",
		"n/N next/prev",
		"b back",
		"? help",
		"q quit",
	}
	return syncDiffStyles.Help.Render(strings.Join(keys, " • "))
}

func (m SyncDiffModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Scroll up
  ↓/j      Scroll down
  PgUp     Page up
  PgDown   Page down
  n/→      Next file
  N/←      Previous file

Actions:
  b/Esc    Go back

General:
  ?        Toggle full help
  q        Quit`
	return syncDiffStyles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m SyncDiffModel) Result() DiffAction {
	return m.result
}

// Index returns the position of the entry being shown.
func (m SyncDiffModel) Index() int {
	return m.index
}

// RunSyncDiff runs the interactive diff viewer and returns the result.
func RunSyncDiff(entries []DiffEntry) (DiffAction, error) {
	if len(entries) == 0 {
		return DiffActionNone, nil
	}

	mdl := NewSyncDiffModel(entries)
	finalModel, err := Run(mdl, tea.WithAltScreen())
	if err != nil {
		return DiffActionNone, err
	}

	if m, ok := finalModel.(SyncDiffModel); ok {
		return m.Result(), nil
	}

	return DiffActionNone, nil
}
