package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
	"dataviews/internal/etl"
)

func tasksSchema() *domain.TableSchema {
	return &domain.TableSchema{
		ID:   "tasks",
		Name: "Tasks",
		Fields: []domain.FieldSchema{
			{ID: "title", Name: "Title", Type: domain.FieldText, IsPrimary: true},
			{ID: "status", Name: "Status", Type: domain.FieldSelect, Options: []domain.FieldOption{
				{ID: "todo", Name: "To Do"},
				{ID: "done", Name: "Done"},
			}},
			{ID: "points", Name: "Points", Type: domain.FieldNumber},
			{ID: "completed", Name: "Completed", Type: domain.FieldCheckbox},
		},
	}
}

type recordingCreator struct {
	created []domain.Fields
}

func (c *recordingCreator) CreateRecord(_ context.Context, fields domain.Fields) (*domain.Record, error) {
	if fields["title"] == "boom" {
		return nil, errors.New("rejected")
	}
	c.created = append(c.created, fields)
	return &domain.Record{ID: "id", Fields: fields}, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readAll(t *testing.T, typ string, cfg etl.SourceConfig) ([]etl.Row, error) {
	t.Helper()
	src, err := etl.GetSource(typ)
	require.NoError(t, err)
	rowCh, errCh := src.Read(context.Background(), cfg)
	var rows []etl.Row
	for r := range rowCh {
		rows = append(rows, r)
	}
	return rows, <-errCh
}

func TestRegistry(t *testing.T) {
	var types []string
	for _, s := range etl.ListSources() {
		types = append(types, s.Type)
	}
	assert.Equal(t, []string{"csv_file", "http", "json_file"}, types)

	for loc, want := range map[string]string{
		"tasks.csv":                "csv_file",
		"TASKS.TSV":                "csv_file",
		"tasks.json":               "json_file",
		"https://example.com/rows": "http",
	} {
		got, err := etl.DetectSource(loc)
		require.NoError(t, err, loc)
		assert.Equal(t, want, got, loc)
	}
	_, err := etl.DetectSource("tasks.xlsx")
	assert.Error(t, err)
	_, err = etl.GetSource("ftp")
	assert.Error(t, err)
}

func TestCSVSource(t *testing.T) {
	path := writeFile(t, "tasks.csv", "\ufeffTitle,Status,Points\nwrite,todo,3\nship,Done\n")
	rows, err := readAll(t, "csv_file", etl.SourceConfig{"filePath": path})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"Title": "write", "Status": "todo", "Points": "3"}, rows[0].Data)
	assert.Equal(t, map[string]any{"Title": "ship", "Status": "Done"}, rows[1].Data)

	path = writeFile(t, "tasks.tsv", "a\tb\n")
	rows, err = readAll(t, "csv_file", etl.SourceConfig{"filePath": path, "hasHeader": "false"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"col_1": "a", "col_2": "b"}, rows[0].Data)

	_, err = readAll(t, "csv_file", etl.SourceConfig{"filePath": writeFile(t, "empty.csv", "")})
	assert.Error(t, err)
	_, err = readAll(t, "csv_file", etl.SourceConfig{})
	assert.Error(t, err)
}

func TestJSONSource(t *testing.T) {
	path := writeFile(t, "tasks.json", `{"data":{"items":[{"title":"a","meta":{"x":1},"tags":["p","q"]},"skip",{"title":"b"}]}}`)
	rows, err := readAll(t, "json_file", etl.SourceConfig{"filePath": path, "dataPath": "data.items"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `{"x":1}`, rows[0].Data["meta"])
	assert.Equal(t, []any{"p", "q"}, rows[0].Data["tags"])

	_, err = readAll(t, "json_file", etl.SourceConfig{"filePath": path, "dataPath": "data.items.more"})
	assert.Error(t, err)
	_, err = readAll(t, "json_file", etl.SourceConfig{"filePath": writeFile(t, "bad.json", "{")})
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "secret" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"title":"remote","points":5}]`))
	}))
	defer srv.Close()

	rows, err := readAll(t, "http", etl.SourceConfig{"url": srv.URL, "headers": `{"X-Token":"secret"}`})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(5), rows[0].Data["points"])

	_, err = readAll(t, "http", etl.SourceConfig{"url": srv.URL})
	assert.ErrorContains(t, err, "http 403")
}

func TestEngineRun(t *testing.T) {
	path := writeFile(t, "tasks.csv", "title,status,points,completed,owner\n"+
		"write,todo,3,no,ann\n"+
		"write,done,1,yes,bob\n"+
		"boom,done,2,,cid\n"+
		",,,,dan\n"+
		"ship,Done,8,x,eve\n")
	engine := etl.NewEngine(nil)
	schema := tasksSchema()

	target := &recordingCreator{}
	res, err := engine.Run(context.Background(), schema, target, etl.Job{
		SourceType: "csv_file",
		SourceCfg:  etl.SourceConfig{"filePath": path},
		DedupeKey:  "title",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.RowsRead)
	assert.Equal(t, 2, res.RowsWritten)
	assert.Equal(t, 2, res.RowsSkipped, "duplicate title and empty row")
	assert.Equal(t, 1, res.RowsFailed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 3")

	require.Len(t, target.created, 2)
	assert.Equal(t, domain.Fields{"title": "write", "status": "To Do", "points": float64(3), "completed": false}, target.created[0])
	assert.Equal(t, domain.Fields{"title": "ship", "status": "Done", "points": float64(8), "completed": true}, target.created[1])

	dry := &recordingCreator{}
	res, err = engine.Run(context.Background(), schema, dry, etl.Job{
		SourceType: "csv_file",
		SourceCfg:  etl.SourceConfig{"filePath": path},
		Limit:      1,
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.Empty(t, dry.created)
	require.Len(t, res.Preview, 1)
	assert.Equal(t, "write", res.Preview[0]["title"])

	_, err = engine.Run(context.Background(), schema, dry, etl.Job{SourceType: "csv_file", SourceCfg: etl.SourceConfig{"filePath": path}, DedupeKey: "owner"})
	assert.ErrorIs(t, err, domain.ErrBadInput)

	_, err = engine.Run(context.Background(), schema, dry, etl.Job{SourceType: "csv_file", SourceCfg: etl.SourceConfig{"filePath": "/nope.csv"}})
	assert.Error(t, err)
}
