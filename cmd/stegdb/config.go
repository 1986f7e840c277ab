package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is looked up in the home directory when --config is not
// given.
const DefaultConfigName = ".stegdb.yaml"

// Config is the CLI configuration file.
//
//	database: ./cover.png
//	compression: zstd
//	codec: go-json
//	log_level: info
//	snapshot_dir: ./backups
//	snapshot_io_limit: 1048576
type Config struct {
	Database        string `yaml:"database"`
	Compression     string `yaml:"compression"`
	Codec           string `yaml:"codec"`
	LogLevel        string `yaml:"log_level"`
	SnapshotDir     string `yaml:"snapshot_dir"`
	SnapshotIOLimit int64  `yaml:"snapshot_io_limit"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Compression: "none",
		Codec:       "go-json",
		LogLevel:    "warn",
		SnapshotDir: "data",
	}
}

// LoadConfig reads the YAML file at path on top of DefaultConfig. An empty
// path means ~/.stegdb.yaml, which may be absent.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, DefaultConfigName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
