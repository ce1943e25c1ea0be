package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up in the working directory
// when no --config flag is given.
const DefaultConfigFile = "padwatch.yaml"

// ErrConfigNotFound is returned when no configuration file can be located.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load reads the configuration file at path, expands environment variables,
// applies defaults for unset values and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(os.ExpandEnv(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes a YAML document on top of the default configuration.
// Unknown keys are rejected so that typos do not go unnoticed.
// Parse does not expand environment variables and does not validate.
func Parse(doc string) (*Config, error) {
	cfg := NewDefaultConfig()

	dec := yaml.NewDecoder(strings.NewReader(doc))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if cfg.Repo.Path == "" {
		cfg.Repo.Path = XDGDataDir()
	}
	return cfg, nil
}

// FindConfigFile locates the configuration file.
//
// Search order:
//  1. The explicit path, if provided
//  2. DefaultConfigFile in the current working directory
//  3. padwatch/config.yaml under the XDG config directories
func FindConfigFile(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
			}
			return "", fmt.Errorf("failed to access config file %s: %w", configPath, err)
		}
		return configPath, nil
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}

	path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml"))
	if err != nil {
		return "", ErrConfigNotFound
	}
	return path, nil
}

// DefaultConfigPath is where `padwatch init` writes the template when no
// output path is given.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigDir(), "config.yaml")
}
