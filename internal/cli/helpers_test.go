package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauern/notionsync/internal/util"
)

// runCLI runs the application with args and returns what it printed to
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	runErr := Run(context.Background(), args)

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old
	<-done
	_ = r.Close()

	return buf.String(), runErr
}

const testSchema = `{
  "object": "database",
  "id": "db1",
  "title": [{"plain_text": "Reading List"}],
  "properties": {
    "Name":   {"id": "title", "name": "Name", "type": "title"},
    "Status": {"id": "s1", "name": "Status", "type": "select"},
    "Tags":   {"id": "t1", "name": "Tags", "type": "multi_select"}
  }
}`

var testPages = map[string]string{
	"": `{
  "results": [
    {"id": "p1", "last_edited_time": "2024-05-01T10:00:00.000Z",
     "properties": {
       "Name":   {"type": "title", "title": [{"plain_text": "Hello World"}]},
       "Status": {"type": "select", "select": {"name": "Done"}},
       "Tags":   {"type": "multi_select", "multi_select": [{"name": "go"}, {"name": "cli"}]}
     }},
    {"id": "p2", "last_edited_time": "2024-05-02T10:00:00.000Z",
     "properties": {
       "Name":   {"type": "title", "title": [{"plain_text": "Draft: ideas"}]},
       "Status": {"type": "select", "select": {"name": "Todo"}}
     }}
  ],
  "next_cursor": "c2",
  "has_more": true
}`,
	"c2": `{
  "results": [
    {"id": "p3", "last_edited_time": "2024-05-03T10:00:00.000Z",
     "properties": {
       "Name":   {"type": "title", "title": [{"plain_text": "Third"}]},
       "Status": {"type": "select", "select": {"name": "Done"}}
     }}
  ],
  "next_cursor": null,
  "has_more": false
}`,
}

// notionServer emulates the database endpoints used by the client.
type notionServer struct {
	*httptest.Server
	schemaRequests atomic.Int32
	queryRequests  atomic.Int32
}

func newNotionServer(t *testing.T) *notionServer {
	t.Helper()

	ns := &notionServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/databases/{id}", func(w http.ResponseWriter, r *http.Request) {
		ns.schemaRequests.Add(1)
		_, _ = w.Write([]byte(testSchema))
	})
	mux.HandleFunc("POST /v1/databases/{id}/query", func(w http.ResponseWriter, r *http.Request) {
		ns.queryRequests.Add(1)
		var req struct {
			StartCursor string `json:"start_cursor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, ok := testPages[req.StartCursor]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(body))
	})

	ns.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(ns.Close)
	return ns
}

// testEnv is a vault, backup and cache directory plus a config file pointing
// at a fake API server.
type testEnv struct {
	dir        string
	vault      string
	backups    string
	cache      string
	configPath string
	server     *notionServer
}

func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()

	dir := util.CreateTempDir(t)
	env := &testEnv{
		dir:        dir,
		vault:      filepath.Join(dir, "vault"),
		backups:    filepath.Join(dir, "backups"),
		cache:      filepath.Join(dir, "cache"),
		configPath: filepath.Join(dir, "config.yaml"),
		server:     newNotionServer(t),
	}
	if err := os.MkdirAll(env.vault, 0o750); err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	cfg := fmt.Sprintf(`notion:
  token: secret
  database_id: db1
  base_url: %s
sync:
  vault: %s
  folder: Notes
backup:
  enabled: true
  location: %s
  max_backups: 5
cache:
  enabled: true
  location: %s
  ttl: 1h
mappings:
  - remote_property: Status
    remote_kind: select
    local_field: status
    sync_enabled: true
  - remote_property: Tags
    remote_kind: multi_select
    local_field: tags
    sync_enabled: true
%s`, env.server.URL, env.vault, env.backups, env.cache, strings.TrimLeft(extra, "\n"))

	util.WriteFile(t, env.configPath, cfg)
	return env
}

// run invokes the CLI with the environment's config file.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"notionsync", "--no-color", "--config", e.configPath}, args...)
	return runCLI(t, full...)
}

func (e *testEnv) note(name string) string {
	return filepath.Join(e.vault, "Notes", name)
}
