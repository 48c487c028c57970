package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
	"dataviews/internal/service"
	"dataviews/internal/storage"
)

func newRenderService(t *testing.T) *service.DataViewsService {
	t.Helper()
	schema := &domain.TableSchema{
		ID:   "tasks",
		Name: "Tasks",
		Fields: []domain.FieldSchema{
			{ID: "title", Name: "Title", Type: domain.FieldText, IsPrimary: true},
			{ID: "status", Name: "Status", Type: domain.FieldSelect, Options: []domain.FieldOption{
				{ID: "todo", Name: "To Do"},
				{ID: "done", Name: "Done"},
			}},
			{ID: "dueDate", Name: "Due Date", Type: domain.FieldDate},
		},
	}
	svc := service.NewDataViewsService(schema, storage.NewMemoryStore(0), service.Options{
		Now: func() time.Time { return time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC) },
	})
	ctx := context.Background()
	svc.Mount(ctx)
	for _, title := range []string{"b", "a"} {
		_, err := svc.CreateRecord(ctx, domain.Fields{"title": title, "status": "Done", "dueDate": "2024-04-02"})
		require.NoError(t, err)
	}
	return svc
}

func TestRenderView(t *testing.T) {
	svc := newRenderService(t)
	t.Cleanup(func() { renderSort, renderDesc, renderMonth = "", false, "" })

	for _, name := range []string{"grid", "kanban", "calendar", "gallery", "form", "state"} {
		out, err := renderView(svc, name)
		require.NoError(t, err, name)
		_, err = json.Marshal(out)
		require.NoError(t, err, name)
	}

	renderSort, renderDesc = "title", true
	out, err := renderView(svc, "grid")
	require.NoError(t, err)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Less(t, bytes.Index(data, []byte(`"b"`)), bytes.Index(data, []byte(`"a"`)))

	renderMonth = "2024-04"
	out, err = renderView(svc, "calendar")
	require.NoError(t, err)
	data, err = json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-04-02")

	renderMonth = "April"
	_, err = renderView(svc, "calendar")
	assert.Error(t, err)

	_, err = renderView(svc, "timeline")
	assert.ErrorContains(t, err, "unknown view")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`
id: tasks
name: Tasks
fields:
  - {id: title, name: Title, type: text, isPrimary: true}
  - id: status
    name: Status
    type: select
    options:
      - {id: todo, name: To Do}
`), 0o644))
	cfgPath := filepath.Join(dir, "dataviews.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("schema:\n  path: "+schemaPath+"\nbackend:\n  driver: memory\n"), 0o644))

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"--config", cfgPath, "render", "kanban"})
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})
	require.NoError(t, RootCmd.Execute())

	var board struct {
		Columns []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &board))
	require.NotEmpty(t, board.Columns)
	assert.Equal(t, "todo", board.Columns[0].ID)
}
