// Package project locates and loads tsbridge.toml, the tool-level
// configuration. Path aliases live in tsconfig.json and are handled by
// the tsconfig package; tsbridge.toml only configures the tool itself.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the manifest looked up while walking parent
// directories.
const ConfigFileName = "tsbridge.toml"

// Config is the loaded tool configuration. Zero fields keep their
// defaults.
type Config struct {
	Resolver ResolverConfig `toml:"resolver"`
	Trace    TraceConfig    `toml:"trace"`
}

// ResolverConfig configures the fallback resolver.
type ResolverConfig struct {
	// Conditions is the default export-condition set.
	Conditions []string `toml:"conditions"`
	// CacheSize bounds the path-resolution cache.
	CacheSize int `toml:"cache_size"`
}

// TraceConfig configures the tracing sink.
type TraceConfig struct {
	// Level is off|phase|detail|debug.
	Level string `toml:"level"`
	// Output is a file path, or "-" for stderr.
	Output string `toml:"output"`
}

// Find walks up from startDir to locate tsbridge.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses a tsbridge.toml.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return &cfg, nil
}

// Discover finds and loads the nearest config. Returns a zero Config
// when none exists.
func Discover(startDir string) (*Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return &Config{}, "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
