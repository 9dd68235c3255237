package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
)

func TestPathFunctions(t *testing.T) {
	cfg := &Config{CacheDir: "/test/cache"}

	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"TestEdgesPath", cfg.TestEdgesPath, "/test/cache/test_edges"},
		{"EdgeAttrsPath", cfg.EdgeAttrsPath, "/test/cache/edge_attributes"},
		{"IndexDBPath", cfg.IndexDBPath, "/test/cache/cache_index.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn())
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ConfigFile))
	require.NoError(t, err)
	assert.True(t, cfg.UseEdgeAttrs)
	assert.Equal(t, edgecache.NoDayLimit, cfg.RerunEdgeAttrsDayLimit)
}

func TestLoad_Valid(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFile)
	content := `data_dir: clean
cache_dir: /abs/cache
use_edge_attrs: false
rerun_edge_attrs_day_limit: 12
find_test_edges: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "clean"), cfg.DataDir, "relative to config file")
	assert.Equal(t, "/abs/cache", cfg.CacheDir)
	assert.False(t, cfg.UseEdgeAttrs)
	assert.Equal(t, 12, cfg.RerunEdgeAttrsDayLimit)
	assert.True(t, cfg.FindTestEdges)
	// untouched keys keep their defaults
	assert.True(t, cfg.Scale)

	ec := cfg.EdgeCache()
	assert.Equal(t, 12, ec.DayLimit)
	assert.False(t, ec.UseEdgeAttrs)
	assert.True(t, ec.FindTestEdges)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFile)

	cfg := Default()
	cfg.DataDir = filepath.Join(tmpDir, "data")
	cfg.Seed = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DataDir, loaded.DataDir)
	assert.Equal(t, uint64(7), loaded.Seed)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataDir, "/env/data")
	t.Setenv(EnvSeed, "99")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, uint64(99), cfg.Seed)

	t.Setenv(EnvSeed, "not-a-number")
	assert.Error(t, cfg.ApplyEnv())
}

func TestValidate(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"missing data dir", func(c *Config) { c.DataDir = filepath.Join(tmpDir, "nope") }, true},
		{"data dir is a file", func(c *Config) { c.DataDir = file }, true},
		{"bad day limit", func(c *Config) { c.RerunEdgeAttrsDayLimit = -5 }, true},
		{"day limit zero", func(c *Config) { c.RerunEdgeAttrsDayLimit = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.DataDir = tmpDir
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Sentinels(t *testing.T) {
	cfg := Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "nope")
	assert.ErrorIs(t, cfg.Validate(), ErrDataDirMissing)

	cfg.DataDir = t.TempDir()
	cfg.RerunEdgeAttrsDayLimit = -2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidDayLimit)
}

func TestFindConfig(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("{}"), 0644))

	got, err := FindConfig(nested)
	require.NoError(t, err)
	want, _ := filepath.Abs(filepath.Join(tmpDir, ConfigFile))
	assert.Equal(t, want, got)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, "/abs", ExpandPath("/abs"))
	assert.Equal(t, "", ExpandPath(""))
}
