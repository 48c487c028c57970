package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dataviews/internal/config"
	"dataviews/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const tasksYAML = `
id: tasks
name: Tasks
icon: "📋"
fields:
  - id: title
    name: Title
    type: text
    isPrimary: true
  - id: status
    name: Status
    type: select
    options:
      - {id: todo, name: To Do, color: gray}
      - {id: done, name: Done, color: green}
  - id: dueDate
    name: Due Date
    type: date
`

const plainYAML = `
id: tasks
name: Tasks
fields:
  - id: title
    name: Title
    type: text
    isPrimary: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()

	schema, err := LoadSchema(writeFile(t, dir, "tasks.yaml", tasksYAML))
	require.NoError(t, err)
	assert.Equal(t, "tasks", schema.ID)
	assert.Equal(t, "📋", schema.Icon)
	require.Len(t, schema.Fields, 3)
	assert.Equal(t, domain.FieldSelect, schema.Fields[1].Type)
	assert.Equal(t, "green", schema.Fields[1].Options[1].Color)

	schema, err = LoadSchema(writeFile(t, dir, "tasks.json",
		`{"id":"t","name":"T","fields":[{"id":"title","name":"Title","type":"text","isPrimary":true}]}`))
	require.NoError(t, err)
	assert.Equal(t, "t", schema.ID)

	_, err = LoadSchema(writeFile(t, dir, "tasks.toml", "id = 1"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = LoadSchema(writeFile(t, dir, "broken.yaml", "id: [unclosed"))
	assert.Error(t, err)

	_, err = LoadSchema(writeFile(t, dir, "empty.yaml", "id: x\nname: X\nfields: []\n"))
	assert.ErrorContains(t, err, "invalid schema")

	_, err = LoadSchema(writeFile(t, dir, "noids.yaml", `
id: tasks
name: Tasks
fields:
  - {id: title, name: Title, type: text, isPrimary: true}
  - id: status
    name: Status
    type: select
    options:
      - {name: To Do}
      - {name: Done}
`))
	assert.ErrorContains(t, err, "missing id")

	_, err = LoadSchema(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSchemaWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "schema.yaml", tasksYAML)

	changes := make(chan *domain.TableSchema, 1)
	w, err := NewSchemaWatcher(path, func(s *domain.TableSchema) {
		select {
		case changes <- s:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	// Invalid content is skipped.
	writeFile(t, dir, "schema.yaml", "id: x\nfields: []\n")
	// Other files in the directory are ignored.
	writeFile(t, dir, "other.yaml", plainYAML)
	writeFile(t, dir, "schema.yaml", plainYAML)

	select {
	case s := <-changes:
		assert.Len(t, s.Fields, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("schema change not observed")
	}
}

func newTestApp(t *testing.T, watch bool) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Addr: "127.0.0.1:0"},
		Schema: config.SchemaConfig{Path: writeFile(t, dir, "schema.yaml", tasksYAML), Watch: watch},
		Backend: domain.BackendConfig{
			Driver: domain.BackendSQLite,
			DSN:    filepath.Join(dir, "records.db"),
			Table:  "records",
		},
		Views: domain.ViewsConfig{DefaultView: domain.ViewKanban, Language: "en"},
	}
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, dir
}

func TestNew_MountsRecords(t *testing.T) {
	a, _ := newTestApp(t, false)
	assert.True(t, a.Service().Loaded())
	assert.Empty(t, a.Service().Records())
	assert.Equal(t, domain.ViewKanban, a.Service().ActiveView())
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Schema:  config.SchemaConfig{Path: filepath.Join(dir, "missing.yaml")},
		Backend: domain.BackendConfig{Driver: domain.BackendMemory},
	}
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg.Schema.Path = writeFile(t, dir, "schema.yaml", tasksYAML)
	cfg.Backend = domain.BackendConfig{Driver: domain.BackendMemory, Table: "bad table"}
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestServe_HTTPAndShutdown(t *testing.T) {
	a, dir := newTestApp(t, true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/api/tables")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Post(base+"/api/tables/tasks/records", "application/json",
		strings.NewReader(`{"fields":{"title":"persisted","status":"Done"}}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, err = client.Get(base + "/api/kanban")
	require.NoError(t, err)
	var board struct {
		Columns []struct {
			ID    string            `json:"id"`
			Cards []json.RawMessage `json:"cards"`
		} `json:"columns"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	resp.Body.Close()
	require.NotEmpty(t, board.Columns)

	// Editing the schema file drops the select field; kanban becomes unavailable.
	writeFile(t, dir, "schema.yaml", plainYAML)
	require.Eventually(t, func() bool {
		return a.Service().ActiveView() == domain.ViewGrid
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	// Records survive a restart on the same sqlite file.
	cfg := *a.cfg
	cfg.Schema.Watch = false
	require.NoError(t, a.Close())
	b, err := New(context.Background(), &cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	require.Len(t, b.Service().Records(), 1)
	assert.Equal(t, "persisted", b.Service().Records()[0].Fields["title"])
}

func TestServe_InvalidSchedule(t *testing.T) {
	a, _ := newTestApp(t, false)
	a.cfg.Sync.Schedule = "every now and then"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	err = a.Serve(context.Background(), ln)
	assert.ErrorContains(t, err, "invalid sync schedule")
}
