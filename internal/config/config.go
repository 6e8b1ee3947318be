// Package config loads the skema.yaml project configuration.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up in the project root.
const DefaultFile = "skema.yaml"

// Config holds the project layout settings.
type Config struct {
	// MigrationsDir is the directory holding .cue migration files.
	MigrationsDir string `yaml:"migrations"`

	// OutputPath is where the generated schema module is written.
	OutputPath string `yaml:"output"`

	// StorePath is the SQLite migration ledger location.
	StorePath string `yaml:"store"`
}

// Default returns the configuration used when no skema.yaml exists.
func Default() Config {
	return Config{
		MigrationsDir: "migrations",
		OutputPath:    filepath.Join("generated", "schema.js"),
		StorePath:     filepath.Join(".skema", "ledger.db"),
	}
}

// Load reads a config file, filling unset fields with defaults.
// A missing file is not an error: the defaults apply unchanged.
// Unknown fields are rejected to catch typos.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if file.MigrationsDir != "" {
		cfg.MigrationsDir = file.MigrationsDir
	}
	if file.OutputPath != "" {
		cfg.OutputPath = file.OutputPath
	}
	if file.StorePath != "" {
		cfg.StorePath = file.StorePath
	}
	return cfg, nil
}
