package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"dataviews/internal/etl"
)

// ── JSON File Source ────────────────────────────────────────
// Reads rows from a local JSON file: an array of objects, a single object,
// or either nested under dataPath.

type jsonFileSource struct{}

func init() { etl.RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:       "json_file",
		Label:      "JSON File",
		Extensions: []string{".json"},
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Path to the JSON file"},
			{Key: "dataPath", Label: "Data Path", Help: "Dot-separated path to the array (e.g. 'data.items'). Leave empty if root is an array."},
		},
	}
}

func (s *jsonFileSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Row, <-chan error) {
	return streamRows(ctx, func() ([]etl.Row, error) { return readJSONFile(cfg) })
}

func readJSONFile(cfg etl.SourceConfig) ([]etl.Row, error) {
	filePath := cfg.String("filePath")
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return rowsAt(raw, cfg.String("dataPath"))
}
