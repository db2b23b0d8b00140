package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), "")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok {
		t.Fatalf("expected to find config from %s", nested)
	}
	if path != filepath.Join(root, ConfigFileName) {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestFindMiss(t *testing.T) {
	_, ok, err := Find(t.TempDir())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if ok {
		t.Fatalf("expected no config in empty tree")
	}
}

func TestLoadFullConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	writeFile(t, path, `
[resolver]
conditions = ["import", "node", "development"]
cache_size = 256

[trace]
level = "detail"
output = "-"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Resolver.Conditions) != 3 || cfg.Resolver.Conditions[2] != "development" {
		t.Fatalf("conditions = %v", cfg.Resolver.Conditions)
	}
	if cfg.Resolver.CacheSize != 256 {
		t.Fatalf("cache_size = %d", cfg.Resolver.CacheSize)
	}
	if cfg.Trace.Level != "detail" || cfg.Trace.Output != "-" {
		t.Fatalf("trace = %+v", cfg.Trace)
	}
}

func TestLoadBadTOML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	writeFile(t, path, "[resolver\nconditions = [")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDiscoverDefaultsWhenMissing(t *testing.T) {
	cfg, path, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if path != "" {
		t.Fatalf("expected empty path, got %s", path)
	}
	if cfg.Resolver.CacheSize != 0 || len(cfg.Resolver.Conditions) != 0 {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestDiscoverLoadsNearest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), "[resolver]\ncache_size = 32\n")
	inner := filepath.Join(root, "pkg")
	writeFile(t, filepath.Join(inner, ConfigFileName), "[resolver]\ncache_size = 64\n")

	cfg, path, err := Discover(inner)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if path != filepath.Join(inner, ConfigFileName) {
		t.Fatalf("expected inner config, got %s", path)
	}
	if cfg.Resolver.CacheSize != 64 {
		t.Fatalf("cache_size = %d", cfg.Resolver.CacheSize)
	}
}
