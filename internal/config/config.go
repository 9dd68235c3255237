// Package config handles project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
	"github.com/theodtasia/sna-recommendation-system/internal/features"
)

// Config represents project configuration stored in sna.yml.
type Config struct {
	DataDir        string `yaml:"data_dir" json:"data_dir"`                                   // Directory of Graph_{day} files
	CacheDir       string `yaml:"cache_dir" json:"cache_dir"`                                 // Root of the test edge and edge attribute caches
	NodeAttributes string `yaml:"node_attributes,omitempty" json:"node_attributes,omitempty"` // Node attributes JSONL; empty disables node features

	UseEdgeAttrs           bool `yaml:"use_edge_attrs" json:"use_edge_attrs"`
	RerunEdgeAttrsDayLimit int  `yaml:"rerun_edge_attrs_day_limit" json:"rerun_edge_attrs_day_limit"` // -1 means every day
	FindTestEdges          bool `yaml:"find_test_edges" json:"find_test_edges"`
	RerunEdgeAttrs         bool `yaml:"rerun_edge_attrs" json:"rerun_edge_attrs"`

	ExtractAttrs            bool `yaml:"extract_attrs" json:"extract_attrs"`
	TurnToNumeric           bool `yaml:"turn_to_numeric" json:"turn_to_numeric"`
	Scale                   bool `yaml:"scale" json:"scale"`
	ExtractTopologicalAttrs bool `yaml:"extract_topological_attrs" json:"extract_topological_attrs"`

	Seed     uint64 `yaml:"seed" json:"seed"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

const (
	ConfigFile       = "sna.yml"
	TestEdgesDirName = "test_edges"
	EdgeAttrsDirName = "edge_attributes"
	IndexDBFile      = "cache_index.db"
)

// Environment variables that override the config file.
const (
	EnvDataDir  = "SNA_DATA_DIR"
	EnvCacheDir = "SNA_CACHE_DIR"
	EnvLogLevel = "SNA_LOG_LEVEL"
	EnvSeed     = "SNA_SEED"
)

var (
	// ErrDataDirMissing is returned when data_dir is unset or does not exist.
	ErrDataDirMissing = errors.New("data_dir missing")
	// ErrInvalidDayLimit is returned for day limits below -1.
	ErrInvalidDayLimit = errors.New("rerun_edge_attrs_day_limit must be -1 or a day index")
)

// Default returns the configuration used for keys absent from sna.yml.
func Default() *Config {
	return &Config{
		DataDir:                "data",
		CacheDir:               "cache",
		UseEdgeAttrs:           true,
		RerunEdgeAttrsDayLimit: edgecache.NoDayLimit,
		ExtractAttrs:           true,
		TurnToNumeric:          true,
		Scale:                  true,
		LogLevel:               "info",
	}
}

// Load reads configuration from path on top of Default.
// A missing file yields the defaults, not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Relative paths are relative to the config file
	base := filepath.Dir(path)
	cfg.DataDir = resolve(base, cfg.DataDir)
	cfg.CacheDir = resolve(base, cfg.CacheDir)
	cfg.NodeAttributes = resolve(base, cfg.NodeAttributes)

	return cfg, nil
}

// Save writes configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from SNA_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = ExpandPath(v)
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.CacheDir = ExpandPath(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirMissing
	}
	info, err := os.Stat(c.DataDir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDataDirMissing, c.DataDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("data_dir is not a directory: %s", c.DataDir)
	}
	if c.RerunEdgeAttrsDayLimit < edgecache.NoDayLimit {
		return fmt.Errorf("%w: %d", ErrInvalidDayLimit, c.RerunEdgeAttrsDayLimit)
	}
	return nil
}

// TestEdgesPath returns the test edge cache directory.
func (c *Config) TestEdgesPath() string {
	return filepath.Join(c.CacheDir, TestEdgesDirName)
}

// EdgeAttrsPath returns the edge attribute cache directory.
func (c *Config) EdgeAttrsPath() string {
	return filepath.Join(c.CacheDir, EdgeAttrsDirName)
}

// IndexDBPath returns the path of the SQLite cache index.
func (c *Config) IndexDBPath() string {
	return filepath.Join(c.CacheDir, IndexDBFile)
}

// EdgeCache returns the edge cache settings.
func (c *Config) EdgeCache() edgecache.Config {
	return edgecache.Config{
		TestEdgesDir:   c.TestEdgesPath(),
		EdgeAttrsDir:   c.EdgeAttrsPath(),
		UseEdgeAttrs:   c.UseEdgeAttrs,
		DayLimit:       c.RerunEdgeAttrsDayLimit,
		FindTestEdges:  c.FindTestEdges,
		RerunEdgeAttrs: c.RerunEdgeAttrs,
	}
}

// Features returns the feature extraction settings.
func (c *Config) Features() features.Options {
	return features.Options{
		ExtractAttrs:            c.ExtractAttrs,
		TurnToNumeric:           c.TurnToNumeric,
		Scale:                   c.Scale,
		ExtractTopologicalAttrs: c.ExtractTopologicalAttrs,
	}
}

// FindConfig walks up from start looking for sna.yml.
// Returns the config path, or an error if none is found.
func FindConfig(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		candidate := filepath.Join(abs, ConfigFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("no %s found from %s", ConfigFile, start)
		}
		abs = parent
	}
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

func resolve(base, path string) string {
	if path == "" {
		return ""
	}
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
