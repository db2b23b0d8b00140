package resolver

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tsbridge/internal/pathcache"
	"tsbridge/internal/pool"
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

func newResolver() *Resolver {
	return New(pool.New(nil), pathcache.New(64), nil)
}

func failWith(code Code) NativeResolve {
	return func(specifier string, ctx Context) (Resolution, error) {
		return Resolution{}, NewError(code, "cannot find %q", specifier)
	}
}

func TestNativeSuccessPassesThrough(t *testing.T) {
	r := newResolver()
	want := Resolution{URL: "file:///native/hit.js", Format: "module"}
	native := func(specifier string, ctx Context) (Resolution, error) {
		return want, nil
	}
	got, err := r.Resolve("./anything", Context{}, native)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("native result must pass through verbatim, got %+v", got)
	}
}

func TestUnclassifiedErrorRethrownUnchanged(t *testing.T) {
	r := newResolver()
	orig := NewError("EACCES", "permission denied")
	called := 0
	native := func(specifier string, ctx Context) (Resolution, error) {
		called++
		return Resolution{}, orig
	}
	_, err := r.Resolve("./file", Context{ParentURL: "/proj/a.ts"}, native)
	if err != orig {
		t.Fatalf("expected original error identity, got %v", err)
	}
	if called != 1 {
		t.Fatalf("fallback must not re-invoke native for unrecoverable codes, calls=%d", called)
	}
}

func TestBuiltinAndURLNeverFallBack(t *testing.T) {
	r := newResolver()
	for _, spec := range []string{"node:fs", "fs", "fs/promises", "http://x.test/mod.js", "data:text/javascript,1"} {
		orig := NewError(CodeModuleNotFound, "not found")
		native := func(specifier string, ctx Context) (Resolution, error) {
			return Resolution{}, orig
		}
		if _, err := r.Resolve(spec, Context{}, native); err != orig {
			t.Fatalf("%s: expected original error, got %v", spec, err)
		}
	}
}

func TestFallbackResolvesAlias(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tsconfig.json"), `{
		"compilerOptions": {"baseUrl": ".", "paths": {"@lib/*": ["lib/*"]}}
	}`)
	writeFile(t, filepath.Join(dir, "lib", "helper.ts"), "")
	r := newResolver()
	rctx := Context{ParentURL: filepath.Join(dir, "src", "main.ts"), Conditions: pool.DefaultConditions}
	writeFile(t, rctx.ParentURL, "")
	got, err := r.Resolve("@lib/helper", rctx, failWith(CodeModuleNotFound))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.URL != fileURL(filepath.Join(dir, "lib", "helper.ts")) {
		t.Fatalf("got %q", got.URL)
	}
	if !got.ShortCircuit {
		t.Fatal("custom resolutions must short-circuit")
	}
}

func TestFallbackMissReturnsOriginalError(t *testing.T) {
	dir := t.TempDir()
	r := newResolver()
	orig := NewError(CodeModuleNotFound, "cannot find ./ghost")
	native := func(specifier string, ctx Context) (Resolution, error) {
		return Resolution{}, orig
	}
	_, err := r.Resolve("./ghost", Context{ParentURL: filepath.Join(dir, "main.ts")}, native)
	if err != orig {
		t.Fatalf("miss must surface the original native error, got %v", err)
	}
}

func TestSecondResolutionServedFromCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "module.ts"), "")
	r := newResolver()
	rctx := Context{ParentURL: filepath.Join(dir, "main.ts"), Conditions: pool.DefaultConditions}

	first, err := r.Resolve("./module", rctx, failWith(CodeModuleNotFound))
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	// удаляем файл: второй вызов может ответить только из кеша
	if err := os.Remove(filepath.Join(dir, "module.ts")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := r.Resolve("./module", rctx, failWith(CodeModuleNotFound))
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first.URL != second.URL {
		t.Fatalf("cached result differs: %q vs %q", first.URL, second.URL)
	}
}

func TestEntryPointNormalization(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "entry.ts"), "")
	r := newResolver()
	// абсолютный путь без parent context: entry-point случай
	got, err := r.Resolve(filepath.Join(dir, "entry.js"), Context{Conditions: pool.DefaultConditions}, failWith(CodeModuleNotFound))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.URL != fileURL(filepath.Join(dir, "entry.ts")) {
		t.Fatalf("got %q", got.URL)
	}
}

func TestTypesConditionRetrySynthesizesInertModule(t *testing.T) {
	r := newResolver()
	orig := NewError(CodePackagePathNotExported, "no exported subpath")
	native := func(specifier string, ctx Context) (Resolution, error) {
		for _, c := range ctx.Conditions {
			if c == typesCondition {
				return Resolution{URL: "file:///proj/node_modules/pkg/types/index.d.ts"}, nil
			}
		}
		return Resolution{}, orig
	}
	got, err := r.Resolve("pkg/types", Context{ParentURL: "/proj/main.ts", Conditions: []string{"import"}}, native)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.URL != inertModuleURL {
		t.Fatalf("expected inert module, got %q", got.URL)
	}
	if !got.ShortCircuit {
		t.Fatal("inert resolution must short-circuit")
	}
}

func TestTypesConditionRetryOutsideNodeModulesFallsThrough(t *testing.T) {
	r := newResolver()
	orig := NewError(CodePackagePathNotExported, "no exported subpath")
	native := func(specifier string, ctx Context) (Resolution, error) {
		for _, c := range ctx.Conditions {
			if c == typesCondition {
				return Resolution{URL: "file:///proj/src/local.d.ts"}, nil
			}
		}
		return Resolution{}, orig
	}
	_, err := r.Resolve("pkg/types", Context{ParentURL: "/proj/main.ts"}, native)
	if err != orig {
		t.Fatalf("declaration outside node_modules must not synthesize, got %v", err)
	}
}

func TestBlockingAndSuspendingVariantsAgree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib", "mod.ts"), "")
	writeFile(t, filepath.Join(dir, "tsconfig.json"), `{
		"compilerOptions": {"baseUrl": ".", "paths": {"#x/*": ["lib/*"]}}
	}`)
	rctx := Context{ParentURL: filepath.Join(dir, "main.ts"), Conditions: pool.DefaultConditions}

	blocking := newResolver()
	b, err := blocking.Resolve("#x/mod", rctx, failWith(CodeModuleNotFound))
	if err != nil {
		t.Fatalf("blocking: %v", err)
	}
	suspending := newResolver()
	s, err := suspending.ResolveContext(context.Background(), "#x/mod", rctx,
		func(ctx context.Context, specifier string, rctx Context) (Resolution, error) {
			return Resolution{}, NewError(CodeModuleNotFound, "cannot find %q", specifier)
		})
	if err != nil {
		t.Fatalf("suspending: %v", err)
	}
	if !reflect.DeepEqual(b, s) {
		t.Fatalf("variants disagree: %+v vs %+v", b, s)
	}
}

func TestFormatResolution(t *testing.T) {
	cases := []struct {
		path   string
		format string
		attr   string
	}{
		{"/p/data.json", FormatJSON, "json"},
		{"/p/mod.wasm", FormatWasm, "wasm"},
		{"/p/mod.mts", FormatModuleTS, ""},
		{"/p/mod.cts", FormatCommonJSTS, ""},
		{"/p/mod.d.ts", "", ""},
		{"/p/mod.d.mts", "", ""},
		{"/p/mod.ts", "", ""},
		{"/p/mod.js", "", ""},
	}
	for _, c := range cases {
		res := formatResolution(c.path)
		if res.Format != c.format {
			t.Fatalf("%s: format = %q, want %q", c.path, res.Format, c.format)
		}
		if c.attr != "" && res.ImportAttributes["type"] != c.attr {
			t.Fatalf("%s: attributes = %v", c.path, res.ImportAttributes)
		}
		if !res.ShortCircuit {
			t.Fatalf("%s: must short-circuit", c.path)
		}
	}
}

func TestClassifySpecifier(t *testing.T) {
	cases := map[string]SpecifierKind{
		"node:fs":            SpecifierBuiltin,
		"fs":                 SpecifierBuiltin,
		"fs/promises":        SpecifierBuiltin,
		"https://x.test/m":   SpecifierURL,
		"data:text/js,":      SpecifierURL,
		"./mod":              SpecifierPath,
		"../mod":             SpecifierPath,
		"/abs/mod":           SpecifierPath,
		"file:///abs/mod.ts": SpecifierPath,
		"lodash":             SpecifierBare,
		"@scope/pkg/sub":     SpecifierBare,
	}
	for spec, want := range cases {
		if got := ClassifySpecifier(spec); got != want {
			t.Fatalf("ClassifySpecifier(%q) = %v, want %v", spec, got, want)
		}
	}
}
