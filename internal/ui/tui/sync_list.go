package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/notionsync/internal/sync"
)

// SelectionAction represents what the user chose in the selection list.
type SelectionAction int

const (
	// SelectionNone means no action was taken (user quit).
	SelectionNone SelectionAction = iota
	// SelectionConfirm means the user approved the selected items.
	SelectionConfirm
	// SelectionPreview means the user wants to see the diff of one item.
	SelectionPreview
)

// SelectionResult contains the result of the selection list interaction.
type SelectionResult struct {
	Action SelectionAction
	// Items is the full candidate list with the user's Selected and
	// Overwrite flags applied, in the original order.
	Items []sync.FileSelectionItem
	// Preview is the index into Items to preview, or -1.
	Preview int
}

// syncListKeyMap defines the key bindings for the selection list.
type syncListKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Overwrite key.Binding
	ToggleAll key.Binding
	Preview   key.Binding
	Confirm   key.Binding
	Filter    key.Binding
	ClearFlt  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultSyncListKeyMap() syncListKeyMap {
	return syncListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "tab"),
			key.WithHelp("space/tab", "toggle"),
		),
		Overwrite: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle overwrite"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p", "d"),
			key.WithHelp("p/d", "preview diff"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter/y", "apply selected"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFlt: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
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

// SyncListModel is the BubbleTea model for approving candidate files.
type SyncListModel struct {
	table        table.Model
	items        []sync.FileSelectionItem
	filtered     []int // indexes into items
	keys         syncListKeyMap
	result       SelectionResult
	filter       string
	filtering    bool
	showHelp     bool
	confirmMode  bool
	width        int
	height       int
	quitting     bool
	folder       string
	columnWidths syncListColumnWidths
}

// Styles for the selection list TUI.
var syncListStyles = struct {
	Title       lipgloss.Style
	Help        lipgloss.Style
	Filter      lipgloss.Style
	FilterInput lipgloss.Style
	Confirm     lipgloss.Style
	Status      lipgloss.Style
	DetailBox   lipgloss.Style
	DetailTitle lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Filter:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	FilterInput: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	Confirm:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(1, 2),
	Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	DetailBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	DetailTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
}

const (
	syncListCheckboxWidth = 3
	syncListNameWidth     = 30
	syncListActionWidth   = 10
	syncListPathWidth     = 40
	syncListColumnPadding = 2
	syncListColumnCount   = 4
	syncListDetailLines   = 3
	syncListDetailGap     = 1
	syncListDetailHeight  = syncListDetailLines + 1 + 2 // title + content + border
)

type syncListColumnWidths struct {
	name   int
	action int
	path   int
}

func syncListColumns(totalWidth int) ([]table.Column, syncListColumnWidths) {
	widths := syncListColumnWidths{
		name:   syncListNameWidth,
		action: syncListActionWidth,
		path:   syncListPathWidth,
	}

	if totalWidth > 0 {
		baseTotal := syncListCheckboxWidth + widths.name + widths.action + widths.path +
			(syncListColumnPadding * syncListColumnCount)
		extra := totalWidth - baseTotal
		if extra > 0 {
			nameExtra := extra / 2
			widths.name += nameExtra
			widths.path += extra - nameExtra
		}
	}

	columns := []table.Column{
		{Title: " ", Width: syncListCheckboxWidth}, // Checkbox column
		{Title: "File", Width: widths.name},
		{Title: "Action", Width: widths.action},
		{Title: "Path", Width: widths.path},
	}

	return columns, widths
}

// NewSyncListModel creates a selection list over items. The items are
// copied; the caller's slice is never modified.
func NewSyncListModel(items []sync.FileSelectionItem, folder string) SyncListModel {
	columns, columnWidths := syncListColumns(0)

	own := append([]sync.FileSelectionItem(nil), items...)
	filtered := make([]int, len(own))
	for i := range own {
		filtered[i] = i
	}

	m := SyncListModel{
		items:        own,
		filtered:     filtered,
		keys:         defaultSyncListKeyMap(),
		result:       SelectionResult{Preview: -1},
		folder:       folder,
		columnWidths: columnWidths,
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.itemsToRows()),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	return m
}

// actionLabel names what applying item would do.
func actionLabel(item sync.FileSelectionItem) string {
	switch item.Action() {
	case sync.ActionCreated:
		return "create"
	case sync.ActionUpdated:
		return "overwrite"
	default:
		return "keep"
	}
}

func (m SyncListModel) itemsToRows() []table.Row {
	rows := make([]table.Row, len(m.filtered))
	for i, idx := range m.filtered {
		item := m.items[idx]
		checkbox := "[ ]"
		if item.Selected {
			checkbox = "[✓]"
		}

		rows[i] = table.Row{
			checkbox,
			truncateText(item.Filename, m.columnWidths.name),
			truncateText(actionLabel(item), m.columnWidths.action),
			truncateText(item.Path, m.columnWidths.path),
		}
	}
	return rows
}

func (m *SyncListModel) refreshRows() {
	m.table.SetRows(m.itemsToRows())
}

func (m *SyncListModel) updateColumns(totalWidth int) {
	columns, widths := syncListColumns(totalWidth)
	m.columnWidths = widths
	m.table.SetColumns(columns)
}

func (m SyncListModel) detailPanelWidth() int {
	if m.width > 0 {
		return m.width
	}
	return syncListCheckboxWidth + m.columnWidths.name + m.columnWidths.action + m.columnWidths.path +
		(syncListColumnPadding * syncListColumnCount)
}

func (m SyncListModel) renderDetailPanel() string {
	width := m.detailPanelWidth()
	contentWidth := max(width-4, 10)

	var lines []string
	if idx, ok := m.current(); ok {
		item := m.items[idx]
		lines = append(lines,
			formatDetail("Title: ", item.Record.Title, contentWidth),
			formatDetail("Record: ", item.Record.ID, contentWidth),
			formatDetail("Last edited: ", item.Record.LastEditedTime, contentWidth),
		)
	}
	for len(lines) < syncListDetailLines {
		lines = append(lines, "")
	}

	header := syncListStyles.DetailTitle.Render("Record (selected)")
	content := append([]string{header}, lines[:syncListDetailLines]...)

	return syncListStyles.DetailBox.Width(width).Render(strings.Join(content, "\n"))
}

// Init implements tea.Model.
func (m SyncListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SyncListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve space for title, help, status, detail
		newHeight := max(msg.Height-10-syncListDetailHeight-syncListDetailGap, 5)
		m.table.SetHeight(newHeight)
		m.updateColumns(msg.Width)
		m.refreshRows()

	case tea.KeyMsg:
		if m.confirmMode {
			switch msg.String() {
			case "y", "Y", "enter":
				m.finish(SelectionConfirm, -1)
				return m, tea.Quit
			case "n", "N", "esc":
				m.confirmMode = false
				return m, nil
			}
			return m, nil
		}

		if m.filtering {
			switch msg.String() {
			case "enter":
				m.filtering = false
				return m, nil
			case "esc":
				m.filter = ""
				m.filtering = false
				m.applyFilter()
				return m, nil
			case "backspace":
				if len(m.filter) > 0 {
					m.filter = m.filter[:len(m.filter)-1]
					m.applyFilter()
				}
				return m, nil
			default:
				if len(msg.Runes) > 0 {
					m.filter += string(msg.Runes)
					m.applyFilter()
				}
				return m, nil
			}
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.finish(SelectionNone, -1)
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, nil

		case key.Matches(msg, m.keys.ClearFlt):
			m.filter = ""
			m.applyFilter()
			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			if idx, ok := m.current(); ok {
				m.items[idx].Selected = !m.items[idx].Selected
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, m.keys.Overwrite):
			// Overwrite only matters for files that already exist.
			if idx, ok := m.current(); ok && m.items[idx].Exists {
				m.items[idx].Overwrite = !m.items[idx].Overwrite
				m.refreshRows()
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleAll):
			selectedCount := 0
			for _, idx := range m.filtered {
				if m.items[idx].Selected {
					selectedCount++
				}
			}
			// If all or most are selected, deselect all; otherwise select all
			selectAll := selectedCount < len(m.filtered)/2+1
			for _, idx := range m.filtered {
				m.items[idx].Selected = selectAll
			}
			m.refreshRows()
			return m, nil

		case key.Matches(msg, m.keys.Preview):
			if idx, ok := m.current(); ok {
				m.finish(SelectionPreview, idx)
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, m.keys.Confirm):
			m.confirmMode = true
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *SyncListModel) finish(action SelectionAction, preview int) {
	m.result = SelectionResult{
		Action:  action,
		Items:   append([]sync.FileSelectionItem(nil), m.items...),
		Preview: preview,
	}
	m.quitting = true
}

func (m *SyncListModel) applyFilter() {
	filtered := make([]int, 0, len(m.items))
	lowerFilter := strings.ToLower(m.filter)
	for i, item := range m.items {
		if lowerFilter == "" ||
			strings.Contains(strings.ToLower(item.Filename), lowerFilter) ||
			strings.Contains(strings.ToLower(item.Path), lowerFilter) ||
			strings.Contains(strings.ToLower(item.Record.Title), lowerFilter) {
			filtered = append(filtered, i)
		}
	}
	m.filtered = filtered
	m.refreshRows()
	if m.table.Cursor() >= len(m.filtered) {
		m.table.SetCursor(max(len(m.filtered)-1, 0))
	}
}

// current returns the items index under the cursor.
func (m SyncListModel) current() (int, bool) {
	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.filtered) {
		return m.filtered[cursor], true
	}
	return 0, false
}

func (m SyncListModel) selectedCount() int {
	n := 0
	for _, item := range m.items {
		if item.Selected {
			n++
		}
	}
	return n
}

// View implements tea.Model.
func (m SyncListModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := syncListStyles.Title.Render(fmt.Sprintf("Sync into %s", displayFolder(m.folder)))
	b.WriteString(title)
	b.WriteString("\n\n")

	if m.filter != "" || m.filtering {
		filterStr := syncListStyles.Filter.Render("Filter: ")
		filterVal := syncListStyles.FilterInput.Render(m.filter)
		if m.filtering {
			filterVal += "█"
		}
		b.WriteString(filterStr + filterVal + "\n\n")
	}

	if m.confirmMode {
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
		confirmMsg := fmt.Sprintf("Apply %d file(s) to %s? (y/n)", m.selectedCount(), displayFolder(m.folder))
		b.WriteString(syncListStyles.Confirm.Render(confirmMsg))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	b.WriteString(m.renderDetailPanel())
	b.WriteString("\n")

	status := fmt.Sprintf("%d file(s) selected of %d", m.selectedCount(), len(m.items))
	if m.filter != "" {
		status = fmt.Sprintf("%d selected, %d of %d shown (filtered)", m.selectedCount(), len(m.filtered), len(m.items))
	}
	b.WriteString(syncListStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func displayFolder(folder string) string {
	if folder == "" {
		return "vault root"
	}
	return folder
}

func (m SyncListModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ navigate",
		"space toggle",
		"o overwrite",
		"a toggle all",
		"p preview",
		"enter apply",
		"/ filter",
		"? help",
		"q quit",
	}
	return syncListStyles.Help.Render(strings.Join(keys, " • "))
}

func (m SyncListModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down
  g/Home   Go to top
  G/End    Go to bottom

Selection:
  Space/Tab  Toggle current file
  o          Toggle overwrite for an existing file
  a          Toggle all files

Actions:
  p/d        Preview diff for current file
  Enter/y    Apply selected files

Filter:
  /        Start filtering (by file name, path, or title)
  Esc      Clear filter
  Enter    Finish filtering

General:
  ?        Toggle full help
  q        Quit without writing anything`
	return syncListStyles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m SyncListModel) Result() SelectionResult {
	return m.result
}

// RunSyncList runs the interactive selection list and returns the result.
func RunSyncList(items []sync.FileSelectionItem, folder string) (SelectionResult, error) {
	if len(items) == 0 {
		return SelectionResult{Preview: -1}, nil
	}

	mdl := NewSyncListModel(items, folder)
	finalModel, err := Run(mdl, tea.WithAltScreen())
	if err != nil {
		return SelectionResult{Preview: -1}, err
	}

	if m, ok := finalModel.(SyncListModel); ok {
		return m.Result(), nil
	}

	return SelectionResult{Preview: -1}, nil
}
