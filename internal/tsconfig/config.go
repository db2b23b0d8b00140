// Package tsconfig loads compiler path-mapping configuration and
// matches import specifiers against it.
package tsconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the file looked up while walking parent directories.
const ConfigFileName = "tsconfig.json"

// ErrCyclicExtends indicates that an extends chain loops back on itself.
var ErrCyclicExtends = errors.New("cyclic extends chain")

// Pattern is one alias entry: a pattern with at most one '*' wildcard
// and its ordered replacement templates.
type Pattern struct {
	Raw          string
	Replacements []string
}

// Table is the loaded alias configuration for one discovered config
// file. Immutable after load.
type Table struct {
	// ConfigPath is the file the table was loaded from.
	ConfigPath string
	// BaseDir is the directory replacement templates resolve against:
	// the config's directory joined with compilerOptions.baseUrl.
	BaseDir string
	// Patterns preserves declaration order; matching is first-wins.
	Patterns []Pattern
}

type compilerOptions struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
}

type configFile struct {
	Extends         string          `json:"extends"`
	CompilerOptions compilerOptions `json:"compilerOptions"`
}

// Load reads a config file, following extends chains. Fields of the
// including file take precedence; paths merge shallowly (a pattern
// declared in the including file replaces the base file's entry).
func Load(path string) (*Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("tsconfig: %w", err)
	}
	seen := make(map[string]bool)
	cfg, order, err := loadFile(abs, seen)
	if err != nil {
		return nil, err
	}
	baseURL := cfg.CompilerOptions.BaseURL
	if baseURL == "" {
		baseURL = "."
	}
	table := &Table{
		ConfigPath: abs,
		BaseDir:    filepath.Join(filepath.Dir(abs), filepath.FromSlash(baseURL)),
	}
	for _, raw := range order {
		table.Patterns = append(table.Patterns, Pattern{
			Raw:          raw,
			Replacements: append([]string(nil), cfg.CompilerOptions.Paths[raw]...),
		})
	}
	return table, nil
}

func loadFile(path string, seen map[string]bool) (configFile, []string, error) {
	if seen[path] {
		return configFile{}, nil, fmt.Errorf("%s: %w", path, ErrCyclicExtends)
	}
	seen[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return configFile{}, nil, fmt.Errorf("tsconfig: %w", err)
	}
	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return configFile{}, nil, fmt.Errorf("%s: failed to parse JSON: %w", path, err)
	}
	order, err := pathsKeyOrder(data)
	if err != nil {
		return configFile{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Extends == "" {
		return cfg, order, nil
	}

	basePath := cfg.Extends
	if !filepath.IsAbs(basePath) {
		basePath = filepath.Join(filepath.Dir(path), filepath.FromSlash(basePath))
	}
	if filepath.Ext(basePath) == "" {
		basePath += ".json"
	}
	base, baseOrder, err := loadFile(basePath, seen)
	if err != nil {
		return configFile{}, nil, err
	}
	return mergeConfigs(base, baseOrder, cfg, order)
}

// mergeConfigs overlays child on top of base: scalar fields of the
// child win when set, paths merge per-pattern with child entries
// replacing base entries of the same pattern.
func mergeConfigs(base configFile, baseOrder []string, child configFile, childOrder []string) (configFile, []string, error) {
	merged := base
	merged.Extends = ""
	if child.CompilerOptions.BaseURL != "" {
		merged.CompilerOptions.BaseURL = child.CompilerOptions.BaseURL
	}
	paths := make(map[string][]string, len(base.CompilerOptions.Paths)+len(child.CompilerOptions.Paths))
	order := make([]string, 0, len(baseOrder)+len(childOrder))
	for _, k := range baseOrder {
		paths[k] = base.CompilerOptions.Paths[k]
		order = append(order, k)
	}
	for _, k := range childOrder {
		if _, exists := paths[k]; !exists {
			order = append(order, k)
		}
		paths[k] = child.CompilerOptions.Paths[k]
	}
	merged.CompilerOptions.Paths = paths
	return merged, order, nil
}

// pathsKeyOrder re-decodes just compilerOptions.paths with a token
// stream to recover declaration order.
func pathsKeyOrder(data []byte) ([]string, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, err
	}
	co, ok := outer["compilerOptions"]
	if !ok {
		return nil, nil
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(co, &inner); err != nil {
		return nil, err
	}
	raw, ok := inner["paths"]
	if !ok {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("compilerOptions.paths: expected object")
	}
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("compilerOptions.paths: expected string key")
		}
		order = append(order, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return order, nil
}
