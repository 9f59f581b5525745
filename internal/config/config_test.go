package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SABLE_HOME", dir)
	t.Setenv("SABLE_DB", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	return dir
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:37778", cfg.ListenAddr())
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 4000
classifier:
  timeout: 3s
memory:
  expected_max_impact: 3
log:
  level: debug
`), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 3.0, cfg.Memory.ExpectedMaxImpact)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 0.8, cfg.Memory.SignificanceThreshold)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SABLE_SERVER_PORT", "5555")
	t.Setenv("SABLE_DB", "/tmp/elsewhere.db")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5555, cfg.Server.Port)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.Database.Path)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.AnthropicKey)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"provider", func(c *Config) { c.LLM.Provider = "gpt" }},
		{"timeout", func(c *Config) { c.Classifier.Timeout = 0 }},
		{"threshold", func(c *Config) { c.Memory.SignificanceThreshold = 1.5 }},
		{"expected max", func(c *Config) { c.Memory.ExpectedMaxImpact = 0 }},
		{"occurrences", func(c *Config) { c.Markers.MinOccurrences = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, validate(&cfg))
		})
	}

	cfg := Default()
	assert.NoError(t, validate(&cfg))
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, WriteDefault(path))
	assert.Error(t, WriteDefault(path), "refuses to overwrite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestResolvedPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	db, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sable.db"), db)

	lb, err := cfg.LogbookDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logbook"), lb)

	cfg.Database.Path = "/data/x.db"
	db, _ = cfg.DatabasePath()
	assert.Equal(t, "/data/x.db", db)
}

func TestPolicy(t *testing.T) {
	p := Default().Memory.Policy()
	assert.Equal(t, 0.8, p.SignificanceThreshold)
	assert.Equal(t, 90*24*time.Hour, p.ArchiveAfter)
}
