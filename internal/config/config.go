package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPageSize            = 50
	DefaultMaxPages            = 4
	DefaultWorkers             = 1
	DefaultSearchRatePerMinute = 10
	DefaultProbeTimeout        = 4 * time.Second
	DefaultPageTimeout         = 30 * time.Second
	DefaultProbeWorkers        = 4
	DefaultCloneWorkers        = 2
	DefaultCloneDepth          = 1
	DefaultOutputDir           = "leakwatch-reports"
)

// FileConfig is the on-disk YAML configuration shape for leakwatch. Nil
// fields were not set and fall back to the next source.
type FileConfig struct {
	Tokens              []string `yaml:"tokens"`
	Rules               *string  `yaml:"rules"`
	APIURL              *string  `yaml:"api_url"`
	PageSize            *int     `yaml:"page_size"`
	MaxPages            *int     `yaml:"max_pages"`
	Workers             *int     `yaml:"workers"`
	SearchRatePerMinute *int     `yaml:"search_rate_per_minute"`
	QuotaWait           *string  `yaml:"quota_wait"`
	PageTimeout         *string  `yaml:"page_timeout"`
	ProbeTimeout        *string  `yaml:"probe_timeout"`
	ProbeWorkers        *int     `yaml:"probe_workers"`
	ReportToReview      *bool    `yaml:"report_to_review"`
	OutputDir           *string  `yaml:"output_dir"`
	Audit               *bool    `yaml:"audit"`

	PublicMailServices     []string `yaml:"public_mail_services"`
	ExcludeRepositoryRules []string `yaml:"exclude_repository_rules"`
	ExcludeRepositoryGlobs []string `yaml:"exclude_repository_globs"`
	ExcludeCodesRules      []string `yaml:"exclude_codes_rules"`

	HashStore *HashStoreConfig `yaml:"hash_store"`
	Clone     *CloneConfig     `yaml:"clone"`
}

// HashStoreConfig selects where processed shas are kept.
type HashStoreConfig struct {
	// Driver is "file" (JSON) or "sqlite".
	Driver *string `yaml:"driver"`
	Path   *string `yaml:"path"`
}

// CloneConfig controls cloning of repositories behind reported hits.
type CloneConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Dir     *string `yaml:"dir"`
	Workers *int    `yaml:"workers"`
	Depth   *int    `yaml:"depth"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a config file in dir.
// It supports .leakwatch.yml/.yaml and leakwatch.yml/.yaml.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".leakwatch.yml", ".leakwatch.yaml", "leakwatch.yml", "leakwatch.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalDir is $XDG_CONFIG_HOME/leakwatch, falling back to ~/.config.
func GlobalDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "leakwatch")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	dir := GlobalDir()
	if dir == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(dir, "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// GetHashStore returns the hash store settings with defaults applied.
func (fc FileConfig) GetHashStore() (driver, path string) {
	driver, path = "file", ""
	if fc.HashStore != nil {
		if fc.HashStore.Driver != nil && *fc.HashStore.Driver != "" {
			driver = *fc.HashStore.Driver
		}
		if fc.HashStore.Path != nil {
			path = *fc.HashStore.Path
		}
	}
	if path == "" {
		name := "hashes.json"
		if driver == "sqlite" {
			name = "hashes.db"
		}
		path = filepath.Join(GlobalDir(), name)
	}
	return driver, path
}

// CloneSettings is CloneConfig with defaults applied.
type CloneSettings struct {
	Enabled bool
	Dir     string
	Workers int
	Depth   int
}

// GetClone returns the clone settings. Cloning is off unless enabled.
func (fc FileConfig) GetClone() CloneSettings {
	s := CloneSettings{Dir: "leakwatch-clones", Workers: DefaultCloneWorkers, Depth: DefaultCloneDepth}
	c := fc.Clone
	if c == nil {
		return s
	}
	if c.Enabled != nil {
		s.Enabled = *c.Enabled
	}
	if c.Dir != nil && *c.Dir != "" {
		s.Dir = *c.Dir
	}
	if c.Workers != nil && *c.Workers > 0 {
		s.Workers = *c.Workers
	}
	if c.Depth != nil && *c.Depth >= 0 {
		s.Depth = *c.Depth
	}
	return s
}

// ParseDuration parses s, returning def when s is empty.
func ParseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	return d, nil
}
