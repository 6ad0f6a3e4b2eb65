package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/notionsync/internal/backup"
	"github.com/klauern/notionsync/internal/render"
)

// BackupAction is what the user chose to do with the highlighted backup.
type BackupAction int

const (
	// BackupActionNone means the browser was closed without a choice.
	BackupActionNone BackupAction = iota
	// BackupActionRestore writes the backup over its note.
	BackupActionRestore
	// BackupActionDelete removes the backup.
	BackupActionDelete
	// BackupActionVerify checks the backup against its hash.
	BackupActionVerify
)

// BackupListResult is the outcome of the backup browser.
type BackupListResult struct {
	Action   BackupAction
	BackupID string
	Backup   backup.Metadata
}

// PreviewFunc loads the saved content of a backup.
type PreviewFunc func(backupID string) (string, error)

const previewLines = 6

type backupListKeyMap struct {
	Restore key.Binding
	Delete  key.Binding
	Verify  key.Binding
	Preview key.Binding
	Latest  key.Binding
	Filter  key.Binding
	Clear   key.Binding
	Quit    key.Binding
}

func defaultBackupListKeyMap() backupListKeyMap {
	return backupListKeyMap{
		Restore: key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "restore")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Verify:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify")),
		Preview: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Latest:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "latest per note")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var backupListStyles = struct {
	Title   lipgloss.Style
	Mode    lipgloss.Style
	Detail  lipgloss.Style
	Label   lipgloss.Style
	Preview lipgloss.Style
	Confirm lipgloss.Style
	Help    lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Mode:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	Detail:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Preview: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true),
	Confirm: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(0, 1),
	Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
}

// BackupListModel browses the saved versions of vault notes.
type BackupListModel struct {
	table      table.Model
	all        []backup.Metadata
	visible    []backup.Metadata
	keys       backupListKeyMap
	filter     textinput.Model
	filtering  bool
	latestOnly bool

	load        PreviewFunc
	showPreview bool
	previewID   string
	previewText string
	previewErr  error

	pending BackupAction
	result  BackupListResult
	width   int
	done    bool
}

// NewBackupListModel creates the browser over backups, which are expected
// newest first. load may be nil, in which case previews are unavailable.
func NewBackupListModel(backups []backup.Metadata, load PreviewFunc) BackupListModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Note", Width: 36},
			{Title: "Record", Width: 14},
			{Title: "Edited in Notion", Width: 16},
			{Title: "Backed up", Width: 16},
			{Title: "Size", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "note, record or backup id"

	m := BackupListModel{
		table:  t,
		all:    backups,
		keys:   defaultBackupListKeyMap(),
		filter: filter,
		load:   load,
	}
	m.refresh()
	return m
}

// refresh recomputes the visible backups from the filter and the
// latest-per-note switch.
func (m *BackupListModel) refresh() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	seen := make(map[string]bool)

	m.visible = make([]backup.Metadata, 0, len(m.all))
	for _, b := range m.all {
		if m.latestOnly {
			if seen[b.SourcePath] {
				continue
			}
			seen[b.SourcePath] = true
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(b.SourcePath), query) &&
			!strings.Contains(strings.ToLower(b.RecordID), query) &&
			!strings.Contains(strings.ToLower(b.ID), query) {
			continue
		}
		m.visible = append(m.visible, b)
	}

	rows := make([]table.Row, len(m.visible))
	for i, b := range m.visible {
		record := b.RecordID
		if record == "" {
			record = "-"
		}
		rows[i] = table.Row{
			truncateLeft(b.SourcePath, 36),
			truncateText(record, 14),
			formatEdited(b.LastEdited),
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
			formatSize(b.Size),
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
	m.loadPreview()
}

func (m *BackupListModel) loadPreview() {
	if !m.showPreview || m.load == nil {
		return
	}
	selected, ok := m.selected()
	if !ok || selected.ID == m.previewID {
		return
	}
	m.previewID = selected.ID
	content, err := m.load(selected.ID)
	m.previewErr = err
	m.previewText = excerpt(content, previewLines)
}

func (m BackupListModel) selected() (backup.Metadata, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return backup.Metadata{}, false
	}
	return m.visible[i], true
}

// Init implements tea.Model.
func (m BackupListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m BackupListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(msg.Height-14, 4))
		return m, nil

	case tea.KeyMsg:
		if m.pending != BackupActionNone {
			return m.confirm(msg)
		}
		if m.filtering {
			return m.updateFilter(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.result = BackupListResult{}
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			cmd := m.filter.Focus()
			return m, cmd
		case key.Matches(msg, m.keys.Clear):
			m.filter.SetValue("")
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Latest):
			m.latestOnly = !m.latestOnly
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Preview):
			m.showPreview = !m.showPreview
			m.previewID = ""
			m.loadPreview()
			return m, nil
		case key.Matches(msg, m.keys.Restore):
			m.pending = m.choose(BackupActionRestore)
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			m.pending = m.choose(BackupActionDelete)
			return m, nil
		case key.Matches(msg, m.keys.Verify):
			if m.choose(BackupActionVerify) != BackupActionNone {
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.loadPreview()
	return m, cmd
}

// choose records action against the highlighted backup. It returns
// BackupActionNone when nothing is highlighted.
func (m *BackupListModel) choose(action BackupAction) BackupAction {
	selected, ok := m.selected()
	if !ok {
		return BackupActionNone
	}
	m.result = BackupListResult{Action: action, BackupID: selected.ID, Backup: selected}
	return action
}

func (m BackupListModel) confirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.done = true
		return m, tea.Quit
	case "n", "N", "esc":
		m.pending = BackupActionNone
		m.result = BackupListResult{}
	}
	return m, nil
}

func (m BackupListModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

// View implements tea.Model.
func (m BackupListModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("Note backups (%d of %d)", len(m.visible), len(m.all))
	b.WriteString(backupListStyles.Title.Render(title))
	if m.latestOnly {
		b.WriteString(backupListStyles.Mode.Render("latest per note"))
	}
	b.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if selected, ok := m.selected(); ok {
		b.WriteString(backupListStyles.Detail.Render(m.renderDetail(selected)))
		b.WriteString("\n")
	}

	if m.pending != BackupActionNone {
		b.WriteString(backupListStyles.Confirm.Render(m.confirmMessage()))
		return b.String()
	}
	b.WriteString(backupListStyles.Help.Render(
		"↑/↓ move • r restore • d delete • v verify • p preview • l latest per note • / filter • q quit"))
	return b.String()
}

func (m BackupListModel) renderDetail(sel backup.Metadata) string {
	width := 60
	if m.width > 10 {
		width = m.width - 6
	}
	label := func(s string) string { return backupListStyles.Label.Render(s) }

	lines := []string{
		label("Note:      ") + sel.SourcePath,
		label("Record:    ") + orDash(sel.RecordID),
		label("Edited:    ") + orDash(sel.LastEdited),
		label("Backed up: ") + fmt.Sprintf("%s (%s)", sel.CreatedAt.Local().Format("2006-01-02 15:04:05"), formatSize(sel.Size)),
		label("Backup:    ") + sel.ID,
	}

	if m.showPreview {
		switch {
		case m.load == nil:
			lines = append(lines, "", label("Preview unavailable"))
		case m.previewErr != nil:
			lines = append(lines, "", formatDetail("Preview failed: ", m.previewErr.Error(), width))
		case m.previewText == "":
			lines = append(lines, "", label("(empty note body)"))
		default:
			lines = append(lines, "", backupListStyles.Preview.Render(m.previewText))
		}
	}
	return strings.Join(lines, "\n")
}

func (m BackupListModel) confirmMessage() string {
	sel := m.result.Backup
	when := sel.CreatedAt.Local().Format("2006-01-02 15:04")
	switch m.pending {
	case BackupActionRestore:
		return fmt.Sprintf("Overwrite %s with the copy from %s? (y/n)", sel.SourcePath, when)
	case BackupActionDelete:
		return fmt.Sprintf("Delete the %s backup of %s? (y/n)", when, sel.SourcePath)
	}
	return ""
}

// Result returns the user's choice.
func (m BackupListModel) Result() BackupListResult {
	return m.result
}

// excerpt returns the first n non-blank body lines of a note, without its
// frontmatter.
func excerpt(content string, n int) string {
	body := render.Split(content).Body
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return strings.Join(out, "\n")
}

// formatEdited shortens a remote timestamp for the table.
func formatEdited(ts string) string {
	if ts == "" {
		return "-"
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.Local().Format("2006-01-02 15:04")
	}
	return truncateText(ts, 16)
}

func truncateLeft(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return "..." + s[len(s)-width+3:]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// RunBackupList shows the backup browser and returns the user's choice.
func RunBackupList(backups []backup.Metadata, load PreviewFunc) (BackupListResult, error) {
	if len(backups) == 0 {
		return BackupListResult{}, nil
	}

	final, err := Run(NewBackupListModel(backups, load), tea.WithAltScreen())
	if err != nil {
		return BackupListResult{}, err
	}
	if m, ok := final.(BackupListModel); ok {
		return m.Result(), nil
	}
	return BackupListResult{}, nil
}
