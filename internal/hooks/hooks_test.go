package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tsbridge/internal/introspect"
	"tsbridge/internal/resolver"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveHookFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "module.ts"), "")
	h := New(Options{})
	rctx := resolver.Context{ParentURL: filepath.Join(dir, "main.ts"), Conditions: []string{"import", "node"}}
	res, err := h.Resolve("./module", rctx, func(specifier string, ctx resolver.Context) (resolver.Resolution, error) {
		return resolver.Resolution{}, resolver.NewError(resolver.CodeModuleNotFound, "nope")
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.URL != "file://"+filepath.ToSlash(filepath.Join(dir, "module.ts")) {
		t.Fatalf("got %q", res.URL)
	}
}

func TestLoadHookRewritesModuleTypescript(t *testing.T) {
	loader := introspect.LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		return []string{"b"}, nil
	})
	h := New(Options{Loader: loader})
	native := func(ctx context.Context, url string) (LoadResult, error) {
		return LoadResult{
			Format: resolver.FormatModuleTS,
			Source: []byte(`import { A, b } from 'pkg';`),
		}, nil
	}
	res, err := h.Load(context.Background(), "file:///proj/x.mts", native)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(res.Source) != `import { b } from 'pkg';` {
		t.Fatalf("got %q", res.Source)
	}
	if res.Format != resolver.FormatModuleTS {
		t.Fatal("format must pass through")
	}
}

func TestLoadHookSkipsCommonJSTypescript(t *testing.T) {
	h := New(Options{Loader: introspect.LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		t.Error("commonjs sources must never be probed")
		return nil, nil
	})})
	src := []byte(`import { A } from 'pkg';`)
	res, err := h.Load(context.Background(), "file:///proj/x.cts", func(ctx context.Context, url string) (LoadResult, error) {
		return LoadResult{Format: resolver.FormatCommonJSTS, Source: src}, nil
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(res.Source) != string(src) {
		t.Fatalf("got %q", res.Source)
	}
}

func TestLoadHookPropagatesNativeError(t *testing.T) {
	h := New(Options{})
	nativeErr := errors.New("io failure")
	_, err := h.Load(context.Background(), "file:///x.mts", func(ctx context.Context, url string) (LoadResult, error) {
		return LoadResult{}, nativeErr
	})
	if !errors.Is(err, nativeErr) {
		t.Fatalf("expected native error, got %v", err)
	}
}

func TestNilLoaderFailsOpen(t *testing.T) {
	h := New(Options{})
	src := []byte(`import { Ghost } from 'pkg';`)
	res, err := h.Load(context.Background(), "file:///x.mts", func(ctx context.Context, url string) (LoadResult, error) {
		return LoadResult{Format: resolver.FormatModuleTS, Source: src}, nil
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(res.Source) != string(src) {
		t.Fatalf("without a loader the source must pass through, got %q", res.Source)
	}
}

func TestClearCachesIsolatesInstances(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mod.ts"), "")
	h := New(Options{})
	rctx := resolver.Context{ParentURL: filepath.Join(dir, "main.ts"), Conditions: []string{"import", "node"}}
	native := func(specifier string, ctx resolver.Context) (resolver.Resolution, error) {
		return resolver.Resolution{}, resolver.NewError(resolver.CodeModuleNotFound, "nope")
	}
	if _, err := h.Resolve("./mod", rctx, native); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "mod.ts")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	h.ClearCaches()
	if _, err := h.Resolve("./mod", rctx, native); err == nil {
		t.Fatal("after ClearCaches the stale resolution must be gone")
	}
}
