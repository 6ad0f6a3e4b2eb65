package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/klauern/notionsync/internal/backup"
)

func testBackups() []backup.Metadata {
	now := time.Now()
	return []backup.Metadata{
		{
			ID:         "20240103-090000-aaaa0001",
			SourcePath: "Notion/Hello World.md",
			RecordID:   "rec-hello",
			LastEdited: "2024-05-03T08:00:00.000Z",
			CreatedAt:  now,
			Size:       1024,
		},
		{
			ID:         "20240102-130000-def67890",
			SourcePath: "Notion/Reading List.md",
			RecordID:   "rec-reading",
			CreatedAt:  now.Add(-24 * time.Hour),
			Size:       2048,
		},
		{
			ID:         "20240101-120000-abc12345",
			SourcePath: "Notion/Hello World.md",
			RecordID:   "rec-hello",
			LastEdited: "2024-05-01T10:00:00.000Z",
			CreatedAt:  now.Add(-48 * time.Hour),
			Size:       900,
		},
	}
}

var testContents = map[string]string{
	"20240103-090000-aaaa0001": "---\nnotion_id: rec-hello\n---\n\n# Hello World\n\nsecond draft\n",
	"20240102-130000-def67890": "---\nnotion_id: rec-reading\n---\n",
}

func loadTestContent(id string) (string, error) {
	content, ok := testContents[id]
	if !ok {
		return "", errors.New("backup file corrupted")
	}
	return content, nil
}

func pressBackup(m BackupListModel, msgs ...tea.KeyMsg) (BackupListModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(BackupListModel)
	}
	return m, cmd
}

func TestBackupListModel_Rows(t *testing.T) {
	m := NewBackupListModel(testBackups(), nil)

	if len(m.visible) != 3 {
		t.Fatalf("expected 3 visible backups, got %d", len(m.visible))
	}

	rows := m.table.Rows()
	if rows[0][0] != "Notion/Hello World.md" || rows[0][1] != "rec-hello" {
		t.Errorf("first row = %v", rows[0])
	}
	if rows[1][2] != "-" {
		t.Errorf("missing last-edited anchor should render as '-', got %q", rows[1][2])
	}
	if rows[1][4] != "2.0 KB" {
		t.Errorf("size column = %q", rows[1][4])
	}
}

func TestBackupListModel_DetailShowsAnchors(t *testing.T) {
	view := NewBackupListModel(testBackups(), nil).View()

	for _, want := range []string{"Notion/Hello World.md", "rec-hello", "2024-05-03T08:00:00.000Z", "20240103-090000-aaaa0001"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBackupListModel_Filter(t *testing.T) {
	tests := map[string]struct {
		query string
		want  []string
	}{
		"by note":   {query: "reading", want: []string{"20240102-130000-def67890"}},
		"by record": {query: "rec-hello", want: []string{"20240103-090000-aaaa0001", "20240101-120000-abc12345"}},
		"by id":     {query: "abc123", want: []string{"20240101-120000-abc12345"}},
		"no match":  {query: "zzz"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m, _ := pressBackup(NewBackupListModel(testBackups(), nil), runes("/"), runes(tt.query))
			if !m.filtering {
				t.Fatal("expected filter input to be active")
			}

			var got []string
			for _, b := range m.visible {
				got = append(got, b.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("visible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackupListModel_FilterKeysDoNotTriggerActions(t *testing.T) {
	m, _ := pressBackup(NewBackupListModel(testBackups(), nil), runes("/"), runes("q"), runes("r"))
	if m.done || m.pending != BackupActionNone {
		t.Fatalf("typing in the filter should not act: done=%v pending=%v", m.done, m.pending)
	}
	if m.filter.Value() != "qr" {
		t.Errorf("filter = %q, want %q", m.filter.Value(), "qr")
	}

	m, _ = pressBackup(m, keyEsc)
	if m.filtering || len(m.visible) != 3 {
		t.Errorf("esc should clear the filter: filtering=%v visible=%d", m.filtering, len(m.visible))
	}
}

func TestBackupListModel_LatestPerNote(t *testing.T) {
	m, _ := pressBackup(NewBackupListModel(testBackups(), nil), runes("l"))

	if len(m.visible) != 2 {
		t.Fatalf("expected one backup per note, got %d", len(m.visible))
	}
	if m.visible[0].ID != "20240103-090000-aaaa0001" {
		t.Errorf("newest backup of a note should be kept, got %s", m.visible[0].ID)
	}
	if !strings.Contains(m.View(), "latest per note") {
		t.Error("view should show the latest-per-note mode")
	}

	m, _ = pressBackup(m, runes("l"))
	if len(m.visible) != 3 {
		t.Errorf("toggling again should show every backup, got %d", len(m.visible))
	}
}

func TestBackupListModel_Preview(t *testing.T) {
	m, _ := pressBackup(NewBackupListModel(testBackups(), loadTestContent), runes("p"))

	view := m.View()
	if !strings.Contains(view, "# Hello World") || !strings.Contains(view, "second draft") {
		t.Errorf("preview missing note body:\n%s", view)
	}
	if strings.Contains(view, "notion_id: rec-hello") {
		t.Errorf("preview should not include frontmatter:\n%s", view)
	}

	m, _ = pressBackup(m, keyDown)
	if !strings.Contains(m.View(), "(empty note body)") {
		t.Errorf("expected empty body notice:\n%s", m.View())
	}

	m, _ = pressBackup(m, keyDown)
	if !strings.Contains(m.View(), "Preview failed: backup file corrupted") {
		t.Errorf("expected load error in preview:\n%s", m.View())
	}

	m, _ = pressBackup(NewBackupListModel(testBackups(), nil), runes("p"))
	if !strings.Contains(m.View(), "Preview unavailable") {
		t.Errorf("expected unavailable preview:\n%s", m.View())
	}
}

func TestBackupListModel_RestoreConfirm(t *testing.T) {
	m, _ := pressBackup(NewBackupListModel(testBackups(), nil), runes("r"))
	if m.pending != BackupActionRestore {
		t.Fatal("expected a pending restore")
	}
	if !strings.Contains(m.View(), "Overwrite Notion/Hello World.md with the copy from") {
		t.Errorf("unexpected confirm view:\n%s", m.View())
	}

	m, cmd := pressBackup(m, runes("y"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	result := m.Result()
	if result.Action != BackupActionRestore || result.BackupID != "20240103-090000-aaaa0001" {
		t.Errorf("result = %+v", result)
	}
}

func TestBackupListModel_CancelThenQuit(t *testing.T) {
	m, _ := pressBackup(NewBackupListModel(testBackups(), nil), runes("d"))
	if !strings.Contains(m.View(), "backup of Notion/Hello World.md?") {
		t.Errorf("unexpected confirm view:\n%s", m.View())
	}

	m, _ = pressBackup(m, runes("n"), runes("q"))
	if got := m.Result().Action; got != BackupActionNone {
		t.Errorf("Action = %v, want BackupActionNone", got)
	}
}

func TestBackupListModel_Verify(t *testing.T) {
	m, cmd := pressBackup(NewBackupListModel(testBackups(), nil), keyDown, runes("v"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	result := m.Result()
	if result.Action != BackupActionVerify || result.BackupID != "20240102-130000-def67890" {
		t.Errorf("result = %+v", result)
	}
}

func TestBackupListModel_NoMatchIgnoresActions(t *testing.T) {
	m, _ := pressBackup(NewBackupListModel(testBackups(), nil), runes("/"), runes("zzz"), keyEnter, runes("r"))
	if m.pending != BackupActionNone {
		t.Errorf("restore with nothing highlighted should do nothing, pending = %v", m.pending)
	}
}

func TestFormatEdited(t *testing.T) {
	if got := formatEdited(""); got != "-" {
		t.Errorf("formatEdited(\"\") = %q", got)
	}
	if got := formatEdited("not a time"); got != "not a time" {
		t.Errorf("formatEdited() = %q", got)
	}
	ts := "2024-05-01T10:00:00.000Z"
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Local().Format("2006-01-02 15:04")
	if got := formatEdited(ts); got != want {
		t.Errorf("formatEdited(%q) = %q, want %q", ts, got, want)
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		3 * 1024 * 1024: "3.0 MB",
	}
	for in, want := range tests {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", in, got, want)
		}
	}
}
