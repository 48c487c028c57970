package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dataviews/internal/domain"
)

// LoadSchema reads a table schema from a YAML or JSON file and validates it.
func LoadSchema(path string) (*domain.TableSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema domain.TableSchema
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("failed to parse YAML schema: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("failed to parse JSON schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema file format: %s", ext)
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return &schema, nil
}
