package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/klauern/notionsync/internal/model"
)

func TestFrontmatter(t *testing.T) {
	num := 3.5
	record := model.Record{
		ID:             "abc123",
		LastEditedTime: "2024-05-01T10:00:00.000Z",
		Properties:     map[string]model.PropertyValue{
			"Status": {Type: model.KindStatus, Status: &model.SelectOption{Name: "Done"}},
			"Tags":   {Type: model.KindMultiSelect, MultiSelect: []model.SelectOption{
				{Name: "go"}, {Name: `say "hi"`},
			}},
			"Score":   {Type: model.KindNumber, Number: &num},
			"Publish": {Type: model.KindCheckbox, Checkbox: true},
			"Summary": {Type: model.KindRichText, RichText: []model.RichText{{PlainText: `time: "now"`}}},
			"Empty":   {Type: model.KindRichText},
			"Hidden":  {Type: model.KindRichText, RichText: []model.RichText{{PlainText: "secret"}}},
		},
	}
	mappings := []model.PropertyMapping{
		{RemoteProperty: "Status", LocalField: "status", SyncEnabled: true},
		{RemoteProperty: "Tags", LocalField: "tags", SyncEnabled: true},
		{RemoteProperty: "Score", LocalField: "score", SyncEnabled: true},
		{RemoteProperty: "Publish", LocalField: "publish", SyncEnabled: true},
		{RemoteProperty: "Summary", LocalField: "summary", SyncEnabled: true},
		{RemoteProperty: "Empty", LocalField: "empty", SyncEnabled: true},
		{RemoteProperty: "Hidden", LocalField: "hidden", SyncEnabled: false},
		{RemoteProperty: "Absent", LocalField: "absent", SyncEnabled: true},
	}

	got := Frontmatter(record, mappings)
	want := strings.Join([]string{
		"status: Done",
		`tags: ["go", "say \"hi\""]`,
		"score: 3.5",
		"publish: true",
		`summary: "time: \"now\""`,
		"notion_id: abc123",
		"notion_last_edited: 2024-05-01T10:00:00.000Z",
	}, "\n")

	if got != want {
		t.Errorf("Frontmatter() =\n%s\nwant\n%s", got, want)
	}
}

func TestFrontmatterOnlyAnchors(t *testing.T) {
	record := model.Record{ID: "id-1", LastEditedTime: "ts"}
	got := Frontmatter(record, nil)
	want := "notion_id: id-1\nnotion_last_edited: ts"
	if got != want {
		t.Errorf("Frontmatter() = %q, want %q", got, want)
	}
}

// Rollup array elements are written as their raw JSON, each one quoted.
func TestFrontmatterRollupKeepsRawElements(t *testing.T) {
	record := model.Record{
		ID:             "r1",
		LastEditedTime: "ts",
		Properties: map[string]model.PropertyValue{
			"Totals": {Type: model.KindRollup, Rollup: &model.RollupValue{
				Type: "array",
				Array: []json.RawMessage{
					json.RawMessage(`{"type":"number","number":2}`),
					json.RawMessage(`{"type":"title","title":[]}`),
				},
			}},
			"None": {Type: model.KindRollup},
		},
	}
	mappings := []model.PropertyMapping{
		{RemoteProperty: "Totals", LocalField: "totals", SyncEnabled: true},
		{RemoteProperty: "None", LocalField: "none", SyncEnabled: true},
	}

	got := Frontmatter(record, mappings)
	want := strings.Join([]string{
		`totals: ["{\"type\":\"number\",\"number\":2}", "{\"type\":\"title\",\"title\":[]}"]`,
		"none: []",
		"notion_id: r1",
		"notion_last_edited: ts",
	}, "\n")
	if got != want {
		t.Errorf("Frontmatter() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatValue(t *testing.T) {
	tests := map[string]struct {
		in   any
		want string
	}{
		"plain string":  {in: "hello", want: "hello"},
		"colon":         {in: "a: b", want: `"a: b"`},
		"hash":          {in: "#tag", want: `"#tag"`},
		"brackets":      {in: "[x]", want: `"[x]"`},
		"pipe":          {in: "a | b", want: `"a | b"`},
		"ampersand":     {in: "a & b", want: `"a & b"`},
		"bang":          {in: "wow!", want: `"wow!"`},
		"newline":       {in: "a\nb", want: "\"a\nb\""},
		"inner quote":   {in: `he said "x": y`, want: `"he said \"x\": y"`},
		"quote no trig": {in: `a "b"`, want: `a "b"`},
		"integer":       {in: float64(42), want: "42"},
		"false":         {in: false, want: "false"},
		"empty list":    {in: []string{}, want: "[]"},
		"list":          {in: []string{"a", "b"}, want: `["a", "b"]`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
