// Package config handles the repository-level config.yml: the mapping
// between Sigma data model IDs and local files, plus tool settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the well-known config file at the repository root.
const FileName = "config.yml"

// Config is the top-level configuration for the data model tooling.
type Config struct {
	// DefaultFolderID is the Sigma folder new data models are created in
	// when the spec itself carries none.
	DefaultFolderID string `yaml:"default_folder_id,omitempty"`

	// DataModels maps Sigma data model IDs to their local files.
	DataModels map[string]ModelMapping `yaml:"data_models,omitempty"`

	Archive ArchiveConfig `yaml:"archive,omitempty"`
}

// ModelMapping records where one data model lives locally and when it was
// last exchanged with Sigma.
type ModelMapping struct {
	File       string `yaml:"file"`
	Name       string `yaml:"name,omitempty"`
	LastSynced string `yaml:"last_synced,omitempty"`
	LastPulled string `yaml:"last_pulled,omitempty"`
}

// ArchiveConfig selects the spec archive backend.
type ArchiveConfig struct {
	Backend   string `yaml:"backend,omitempty"` // local, s3, gcs; empty disables archiving
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`   // S3-compatible stores
	AccessKey string `yaml:"access_key,omitempty"` // static S3 credentials; default chain when empty
	SecretKey string `yaml:"secret_key,omitempty"`
	LocalPath string `yaml:"local_path,omitempty"`
}

// DefaultConfig returns an empty but usable Config.
func DefaultConfig() *Config {
	return &Config{
		DataModels: map[string]ModelMapping{},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

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
	if cfg.DataModels == nil {
		cfg.DataModels = map[string]ModelMapping{}
	}

	return cfg, nil
}

// Save writes the config back to disk.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ModelIDForFile looks up the Sigma data model ID mapped to a local file
// name, returning "" when the file is unmapped.
func (c *Config) ModelIDForFile(file string) string {
	base := filepath.Base(file)
	for id, m := range c.DataModels {
		if m.File == base {
			return id
		}
	}
	return ""
}

// RecordSync updates the mapping after a successful push to Sigma.
func (c *Config) RecordSync(id, file, name string, at time.Time) {
	m := c.DataModels[id]
	m.File = filepath.Base(file)
	m.Name = name
	m.LastSynced = at.UTC().Format(time.RFC3339)
	c.DataModels[id] = m
}

// RecordPull updates the mapping after a successful export from Sigma.
func (c *Config) RecordPull(id, file, name string, at time.Time) {
	m := c.DataModels[id]
	m.File = filepath.Base(file)
	m.Name = name
	m.LastPulled = at.UTC().Format(time.RFC3339)
	c.DataModels[id] = m
}
