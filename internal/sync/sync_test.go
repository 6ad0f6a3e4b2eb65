package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/template"
)

// fakeSource serves records in pages of pageSize.
type fakeSource struct {
	records  []model.Record
	pageSize int
	err      error
	calls    []string
}

func (f *fakeSource) QueryPage(_ context.Context, databaseID, cursor string) (model.RecordPage, error) {
	f.calls = append(f.calls, cursor)
	if f.err != nil {
		return model.RecordPage{}, f.err
	}

	start := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "c%d", &start); err != nil {
			return model.RecordPage{}, err
		}
	}
	size := f.pageSize
	if size <= 0 {
		size = len(f.records)
	}
	end := min(start+size, len(f.records))

	page := model.RecordPage{Records: f.records[start:end]}
	if end < len(f.records) {
		page.NextCursor = fmt.Sprintf("c%d", end)
	}
	return page, nil
}

// failingStore fails Create or Write for one path.
type failingStore struct {
	storage.Storage
	failPath string
}

func (f *failingStore) Create(path, content string) error {
	if path == f.failPath {
		return errors.New("disk full")
	}
	return f.Storage.Create(path, content)
}

func (f *failingStore) Write(path, content string) error {
	if path == f.failPath {
		return errors.New("disk full")
	}
	return f.Storage.Write(path, content)
}

func newRecord(id, title, status string) model.Record {
	return model.Record{
		ID:             id,
		LastEditedTime: "2024-05-01T10:00:00.000Z",
		Title:          title,
		Properties: map[string]model.PropertyValue{
			"Name":   {Type: model.KindTitle, Title: []model.RichText{{PlainText: title}}},
			"Status": {Type: model.KindSelect, Select: &model.SelectOption{Name: status}},
		},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.DatabaseID = "db1"
	opts.Folder = "Notion"
	opts.Mappings = []model.PropertyMapping{
		{RemoteProperty: "Name", RemoteKind: model.KindTitle, LocalField: "name", SyncEnabled: false},
		{RemoteProperty: "Status", RemoteKind: model.KindSelect, LocalField: "status", SyncEnabled: true},
	}
	return opts
}

func runAll(t *testing.T, s *Synchronizer, opts Options) *Result {
	t.Helper()
	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	result, err := s.Execute(context.Background(), plan, plan.Candidates)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return result
}

func TestSynchronizer_HelloWorld(t *testing.T) {
	src := &fakeSource{records: []model.Record{newRecord("abc123", "Hello World", "Done")}}
	vault := storage.NewMemory()
	s := New(src, vault)

	opts := testOptions()
	opts.Rules = []model.SyncRule{{Property: "Status", Condition: model.ConditionEquals, Value: "done"}}

	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if s.Stage() != StageAwaitingSelection {
		t.Errorf("Stage() = %s, want %s", s.Stage(), StageAwaitingSelection)
	}
	if len(plan.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(plan.Candidates))
	}
	item := plan.Candidates[0]
	if item.Path != "Notion/Hello World.md" || item.Exists || !item.Selected || !item.Overwrite {
		t.Errorf("candidate = %+v", item)
	}

	result, err := s.Execute(context.Background(), plan, plan.Candidates)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if s.Stage() != StageReported {
		t.Errorf("Stage() = %s, want %s", s.Stage(), StageReported)
	}
	if len(result.Created) != 1 || result.Created[0] != "Hello World" {
		t.Errorf("Created = %v", result.Created)
	}

	content, err := vault.Read("Notion/Hello World.md")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for _, want := range []string{"status: Done\n", "notion_id: abc123\n", "notion_last_edited: 2024-05-01T10:00:00.000Z\n", "# Hello World"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
}

func TestSynchronizer_SecondRunReportsIdenticalUpdate(t *testing.T) {
	src := &fakeSource{records: []model.Record{newRecord("id-x", "X", "Done")}}
	s := New(src, storage.NewMemory())
	opts := testOptions()

	first := runAll(t, s, opts)
	if len(first.Created) != 1 || first.Created[0] != "X" || len(first.Updated) != 0 {
		t.Fatalf("first run = %+v", first)
	}

	second := runAll(t, s, opts)
	if len(second.Created) != 0 {
		t.Errorf("second run created %v", second.Created)
	}
	if len(second.Updated) != 1 {
		t.Fatalf("second run updated %d files, want 1", len(second.Updated))
	}
	u := second.Updated[0]
	if u.Filename != "X" || u.OldContent != u.NewContent {
		t.Errorf("update = %+v", u)
	}
	if second.UnchangedCount != 0 {
		t.Errorf("UnchangedCount = %d, want 0", second.UnchangedCount)
	}
}

func TestSynchronizer_SkipStrategyCountsUnchanged(t *testing.T) {
	vault := storage.NewMemory()
	if err := vault.Write("Notion/X.md", "local edits"); err != nil {
		t.Fatal(err)
	}
	s := New(&fakeSource{records: []model.Record{newRecord("id-x", "X", "Done")}}, vault)

	opts := testOptions()
	opts.Strategy = StrategySkip

	result := runAll(t, s, opts)
	if result.UnchangedCount != 1 || len(result.Updated) != 0 || len(result.Created) != 0 {
		t.Errorf("result = %+v", result)
	}
	if got, _ := vault.Read("Notion/X.md"); got != "local edits" {
		t.Errorf("file changed to %q", got)
	}
}

func TestSynchronizer_RulesAndSelection(t *testing.T) {
	src := &fakeSource{records: []model.Record{
		newRecord("1", "One", "Done"),
		newRecord("2", "Two", "Draft"),
		newRecord("3", "Three", "Done"),
		newRecord("4", "Four", "Done"),
	}}
	vault := storage.NewMemory()
	s := New(src, vault)

	opts := testOptions()
	opts.Rules = []model.SyncRule{{Property: "Status", Condition: model.ConditionEquals, Value: "DONE"}}

	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if plan.Fetched != 4 || plan.Skipped != 1 || len(plan.Candidates) != 3 {
		t.Fatalf("plan fetched=%d skipped=%d candidates=%d", plan.Fetched, plan.Skipped, len(plan.Candidates))
	}

	plan.Candidates[1].Selected = false
	result, err := s.Execute(context.Background(), plan, plan.Candidates)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Created) != 2 {
		t.Errorf("Created = %v", result.Created)
	}
	if result.SkippedCount != 2 {
		t.Errorf("SkippedCount = %d, want 2 (one by rule, one unapproved)", result.SkippedCount)
	}
	if ok, _ := vault.Exists("Notion/Three.md"); ok {
		t.Error("unapproved item was written")
	}
}

func TestSynchronizer_NothingEligible(t *testing.T) {
	src := &fakeSource{records: []model.Record{newRecord("1", "One", "Draft")}}
	s := New(src, storage.NewMemory())

	opts := testOptions()
	opts.Rules = []model.SyncRule{{Property: "Publish", Condition: model.ConditionIsTrue}}

	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !plan.Empty() || plan.Skipped != 1 {
		t.Errorf("plan = %+v, want empty with one skipped", plan)
	}
	if s.Stage() != StageRuleFiltering {
		t.Errorf("Stage() = %s, want %s", s.Stage(), StageRuleFiltering)
	}
}

func TestSynchronizer_FetchFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("unauthorized")}
	vault := storage.NewMemory()
	s := New(src, vault)

	plan, err := s.Prepare(context.Background(), testOptions())
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("Prepare() error = %v, want transport error", err)
	}
	if plan != nil {
		t.Error("Prepare() should not return a plan on failure")
	}
	if s.Stage() != StageFailed {
		t.Errorf("Stage() = %s, want %s", s.Stage(), StageFailed)
	}
	if files, _ := vault.List(); len(files) != 0 {
		t.Errorf("files written after fetch failure: %v", files)
	}
}

func TestSynchronizer_Pagination(t *testing.T) {
	var records []model.Record
	for i := range 5 {
		records = append(records, newRecord(fmt.Sprint(i), fmt.Sprintf("Note %d", i), "Done"))
	}
	src := &fakeSource{records: records, pageSize: 2}
	s := New(src, storage.NewMemory())

	var pages []int
	opts := testOptions()
	opts.Progress = func(e ProgressEvent) error {
		if e.Type == ProgressEventPage {
			pages = append(pages, e.Total)
		}
		return nil
	}

	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if plan.Fetched != 5 {
		t.Errorf("Fetched = %d, want 5", plan.Fetched)
	}
	if got := strings.Join(src.calls, ","); got != ",c2,c4" {
		t.Errorf("cursors = %q", got)
	}
	if fmt.Sprint(pages) != "[2 4 5]" {
		t.Errorf("page events = %v", pages)
	}
}

func TestSynchronizer_ProgressCancel(t *testing.T) {
	src := &fakeSource{records: []model.Record{newRecord("1", "One", "Done")}}
	s := New(src, storage.NewMemory())

	cancel := errors.New("stop")
	opts := testOptions()
	opts.Progress = func(e ProgressEvent) error {
		if e.Type == ProgressEventStage && e.Stage == StageRuleFiltering {
			return cancel
		}
		return nil
	}

	if _, err := s.Prepare(context.Background(), opts); !errors.Is(err, cancel) {
		t.Errorf("Prepare() error = %v, want cancellation", err)
	}
	if s.Stage() != StageFailed {
		t.Errorf("Stage() = %s, want %s", s.Stage(), StageFailed)
	}
}

func TestSynchronizer_StorageFailureKeepsAppliedWrites(t *testing.T) {
	src := &fakeSource{records: []model.Record{
		newRecord("1", "A", "Done"),
		newRecord("2", "B", "Done"),
		newRecord("3", "C", "Done"),
	}}
	vault := storage.NewMemory()
	s := New(src, &failingStore{Storage: vault, failPath: "Notion/B.md"})

	plan, err := s.Prepare(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	result, err := s.Execute(context.Background(), plan, plan.Candidates)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute() error = %v, want *ExecutionError", err)
	}
	if execErr.Filename != "B" || execErr.Applied != 1 {
		t.Errorf("ExecutionError = %+v", execErr)
	}
	if result == nil || len(result.Created) != 1 || result.Created[0] != "A" {
		t.Errorf("partial result = %+v", result)
	}
	if ok, _ := vault.Exists("Notion/A.md"); !ok {
		t.Error("applied write was rolled back")
	}
	if ok, _ := vault.Exists("Notion/C.md"); ok {
		t.Error("batch continued after failure")
	}
	if s.Stage() != StageFailed {
		t.Errorf("Stage() = %s, want %s", s.Stage(), StageFailed)
	}
}

func TestSynchronizer_CollisionOverwritesWithinRun(t *testing.T) {
	tests := map[string]struct {
		strategy Strategy
	}{
		"overwrite strategy": {strategy: StrategyOverwrite},
		"skip strategy":      {strategy: StrategySkip},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			src := &fakeSource{records: []model.Record{
				newRecord("1", "a/b", "Done"),
				newRecord("2", "a:b", "Draft"),
			}}
			vault := storage.NewMemory()
			s := New(src, vault)

			opts := testOptions()
			opts.Strategy = tt.strategy
			result := runAll(t, s, opts)
			if len(result.Created) != 1 || len(result.Updated) != 1 || result.UnchangedCount != 0 {
				t.Fatalf("result = %+v", result)
			}
			if len(result.Warnings) != 1 {
				t.Errorf("Warnings = %v, want one ownership warning", result.Warnings)
			}
			content, _ := vault.Read("Notion/a_b.md")
			if !strings.Contains(content, "notion_id: 2") {
				t.Errorf("last record should win:\n%s", content)
			}
		})
	}
}

func TestSynchronizer_UnknownConditionMatches(t *testing.T) {
	src := &fakeSource{records: []model.Record{newRecord("1", "Kept", "Todo")}}
	s := New(src, storage.NewMemory())

	opts := testOptions()
	opts.Rules = []model.SyncRule{{Property: "Status", Condition: "startsWith", Value: "D"}}

	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(src.calls) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(src.calls))
	}
	if len(plan.Candidates) != 1 || plan.Skipped != 0 {
		t.Errorf("Candidates = %d, Skipped = %d; want the record included", len(plan.Candidates), plan.Skipped)
	}

	// A missing property still fails the rule whatever its condition.
	opts.Rules = []model.SyncRule{{Property: "Priority", Condition: "startsWith"}}
	plan, err = s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !plan.Empty() || plan.Skipped != 1 {
		t.Errorf("Candidates = %d, Skipped = %d; want the record skipped", len(plan.Candidates), plan.Skipped)
	}
}

func TestSynchronizer_UsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Options{Level: logging.LevelDebug, Output: &buf})
	ctx := logging.NewContext(context.Background(), logger.With(slog.String("folder", "Notion")))

	src := &fakeSource{records: []model.Record{newRecord("1", "Logged", "Done")}}
	s := New(src, storage.NewMemory())
	opts := testOptions()
	opts.Rules = []model.SyncRule{{Property: "Status", Condition: "matches"}}

	plan, err := s.Prepare(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Execute(ctx, plan, plan.Candidates); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"unknown rule condition always matches",
		"condition=matches",
		"fetched records",
		"created file",
		"sync run completed",
		"folder=Notion",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSynchronizer_BackupBeforeOverwrite(t *testing.T) {
	vault := storage.NewMemory()
	if err := vault.Write("Notion/X.md", "previous"); err != nil {
		t.Fatal(err)
	}
	s := New(&fakeSource{records: []model.Record{newRecord("x", "X", "Done")}}, vault)

	backups := map[string]string{}
	opts := testOptions()
	opts.Backup = func(path, content string) error {
		backups[path] = content
		return nil
	}

	runAll(t, s, opts)
	if backups["Notion/X.md"] != "previous" {
		t.Errorf("backups = %v", backups)
	}

	opts.Backup = func(string, string) error { return errors.New("no space") }
	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Execute(context.Background(), plan, plan.Candidates); err == nil {
		t.Error("Execute() should fail when the backup fails")
	}
}

func TestSynchronizer_TemplateFromVault(t *testing.T) {
	vault := storage.NewMemory()
	if err := vault.Write("templates/note.md", "# {{title}} ({{status}})"); err != nil {
		t.Fatal(err)
	}
	s := New(&fakeSource{records: []model.Record{newRecord("x", "X", "Done")}}, vault)

	opts := testOptions()
	opts.Folder = ""
	opts.Template = template.Source{Path: "templates/note.md"}
	opts.Mappings[1].TemplateEligible = true

	runAll(t, s, opts)
	if got, _ := vault.Read("X.md"); got != "# X (Done)" {
		t.Errorf("content = %q", got)
	}

	opts.Template = template.Source{Path: "templates/missing.md"}
	if _, err := s.Prepare(context.Background(), opts); err == nil {
		t.Error("Prepare() should fail for a missing template file")
	}
}

func TestSynchronizer_FilenameProperty(t *testing.T) {
	rec := newRecord("x", "Long Title", "Done")
	rec.Properties["Slug"] = model.PropertyValue{Type: model.KindRichText, RichText: []model.RichText{{PlainText: "short"}}}
	s := New(&fakeSource{records: []model.Record{rec}}, storage.NewMemory())

	opts := testOptions()
	opts.FilenameProperty = "Slug"
	opts.Mappings = append(opts.Mappings, model.PropertyMapping{RemoteProperty: "Slug", LocalField: "slug", SyncEnabled: true})

	plan, err := s.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Candidates[0].Path != "Notion/short.md" {
		t.Errorf("Path = %q", plan.Candidates[0].Path)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*Options)
		wantErr bool
	}{
		"valid":            {mutate: func(*Options) {}},
		"missing database": {mutate: func(o *Options) { o.DatabaseID = "" }, wantErr: true},
		"bad strategy":     {mutate: func(o *Options) { o.Strategy = "newer" }, wantErr: true},
		"empty strategy":   {mutate: func(o *Options) { o.Strategy = "" }},
		"unknown condition": {
			mutate: func(o *Options) { o.Rules = []model.SyncRule{{Property: "Status", Condition: "contains"}} },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("error %v does not wrap ErrInvalidOptions", err)
			}
		})
	}

	s := New(&fakeSource{}, storage.NewMemory())
	opts := testOptions()
	opts.DatabaseID = ""
	if _, err := s.Prepare(context.Background(), opts); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Prepare() error = %v, want ErrInvalidOptions", err)
	}
	if s.Stage() != StageIdle {
		t.Errorf("Stage() = %s, want %s after a configuration error", s.Stage(), StageIdle)
	}
}
