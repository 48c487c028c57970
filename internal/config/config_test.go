package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, domain.BackendMemory, cfg.Backend.Driver)
	assert.Equal(t, 300*time.Millisecond, cfg.Backend.Latency)
	assert.Equal(t, "records", cfg.Backend.Table)
	assert.Equal(t, domain.ViewGrid, cfg.Views.DefaultView)
	assert.Equal(t, "en", cfg.Views.Language)
	assert.True(t, cfg.Schema.Watch)
	assert.Empty(t, cfg.Sync.Schedule)
}

func TestReadFile_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataviews.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
schema:
  path: tasks.yaml
backend:
  driver: sqlite
  dsn: data/records.db
  latency: 0s
views:
  defaultView: kanban
  language: fr
sync:
  schedule: "@every 30s"
`), 0o644))
	t.Setenv("DATAVIEWS_VIEWS_LANGUAGE", "de")

	v := viper.New()
	SetDefaults(v)
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "tasks.yaml", cfg.Schema.Path)
	assert.Equal(t, domain.BackendSQLite, cfg.Backend.Driver)
	assert.Equal(t, "data/records.db", cfg.Backend.DSN)
	assert.Zero(t, cfg.Backend.Latency)
	assert.Equal(t, domain.ViewKanban, cfg.Views.DefaultView)
	assert.Equal(t, "de", cfg.Views.Language, "env overrides file")
	assert.Equal(t, "@every 30s", cfg.Sync.Schedule)
}

func TestReadFile_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	_, err := ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestReadFile_NoFileFoundIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	SetDefaults(v)
	used, err := ReadFile(v, "")
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown driver", "backend.driver", "oracle"},
		{"postgres without dsn", "backend.driver", "postgres"},
		{"unknown view", "views.defaultView", "timeline"},
		{"empty schema path", "schema.path", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
