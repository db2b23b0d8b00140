// Package resolver implements the resolution fallback protocol: native
// resolution passes through untouched, classified failures fall back to
// tsconfig aliases, extension probing, and conditional engine
// resolution, and everything else is rethrown unchanged.
package resolver

import (
	"context"
	"path/filepath"
	"strings"

	"tsbridge/internal/pathcache"
	"tsbridge/internal/pool"
	"tsbridge/internal/trace"
)

// Delivery formats attached to successful resolutions.
const (
	FormatJSON       = "json"
	FormatWasm       = "wasm"
	FormatModuleTS   = "module-typescript"
	FormatCommonJSTS = "commonjs-typescript"
)

// inertModuleURL is an empty, side-effect-free module body. Resolutions
// that turn out to be type-only are pointed here so the host imports
// nothing at runtime.
const inertModuleURL = "data:text/javascript,"

// typesCondition is appended to the active conditions when retrying a
// package-path-not-exported failure: many packages publish their
// declaration files under this export condition only.
const typesCondition = "types"

// Resolution is a successful hook outcome.
type Resolution struct {
	URL              string
	Format           string
	ImportAttributes map[string]string
	// ShortCircuit tells the host to stop trying other resolvers.
	ShortCircuit bool
}

// Context carries the per-call resolution inputs. Not persisted.
type Context struct {
	// ParentURL is the importing module's location (file URL or path),
	// empty for entry points.
	ParentURL string
	// Conditions is the ordered active export-condition set.
	Conditions []string
}

// NativeResolve is the host's own resolution capability, blocking form.
type NativeResolve func(specifier string, ctx Context) (Resolution, error)

// NativeResolveContext is the suspending form used by asynchronous
// call sites.
type NativeResolveContext func(ctx context.Context, specifier string, rctx Context) (Resolution, error)

// Resolver runs the fallback protocol over a shared pool and cache.
// Construct one per hook registration; there are no package-level
// singletons.
type Resolver struct {
	pool   *pool.Pool
	cache  *pathcache.Cache
	tracer trace.Tracer
}

// New creates a Resolver. A nil tracer disables tracing.
func New(p *pool.Pool, cache *pathcache.Cache, tracer trace.Tracer) *Resolver {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Resolver{pool: p, cache: cache, tracer: tracer}
}

// Resolve runs the protocol with a blocking native resolver.
func (r *Resolver) Resolve(specifier string, rctx Context, native NativeResolve) (Resolution, error) {
	res, err := native(specifier, rctx)
	if err == nil {
		return res, nil
	}
	return r.recover(specifier, rctx, err, func(conditions []string) (Resolution, error) {
		return native(specifier, Context{ParentURL: rctx.ParentURL, Conditions: conditions})
	})
}

// ResolveContext runs the protocol with a suspending native resolver.
// The decision logic is identical to Resolve: both variants funnel into
// the same recovery path, with the native retry closure as the only
// difference.
func (r *Resolver) ResolveContext(ctx context.Context, specifier string, rctx Context, native NativeResolveContext) (Resolution, error) {
	res, err := native(ctx, specifier, rctx)
	if err == nil {
		return res, nil
	}
	return r.recover(specifier, rctx, err, func(conditions []string) (Resolution, error) {
		return native(ctx, specifier, Context{ParentURL: rctx.ParentURL, Conditions: conditions})
	})
}

// recover classifies a native failure and attempts custom resolution.
// On ultimate miss the original native error is returned, never a
// substitute.
func (r *Resolver) recover(specifier string, rctx Context, nativeErr error, retry func([]string) (Resolution, error)) (Resolution, error) {
	code := CodeOf(nativeErr)
	if !code.Recoverable() {
		return Resolution{}, nativeErr
	}

	switch ClassifySpecifier(specifier) {
	case SpecifierBuiltin, SpecifierURL:
		// никогда не подменяем built-in и сетевые/data модули
		return Resolution{}, nativeErr
	}

	spec, parentDir := normalize(specifier, rctx.ParentURL)

	if code == CodePackagePathNotExported {
		if res, ok := r.retryWithTypes(rctx, retry); ok {
			trace.Point(r.tracer, trace.ScopeResolve, "resolve:"+specifier, "type-only export, inert module")
			return res, nil
		}
	}

	key := pathcache.Key{
		Specifier:  spec,
		ParentDir:  parentDir,
		Conditions: pathcache.ConditionsKey(rctx.Conditions),
	}
	if path, ok := r.cache.Get(key); ok {
		trace.Point(r.tracer, trace.ScopeResolve, "resolve:"+specifier, "cache hit")
		return formatResolution(path), nil
	}

	path, ok := r.pool.Resolve(spec, parentDir, rctx.Conditions)
	if !ok {
		return Resolution{}, nativeErr
	}
	r.cache.Set(key, path)
	trace.Point(r.tracer, trace.ScopeResolve, "resolve:"+specifier, "fallback hit: "+path)
	return formatResolution(path), nil
}

// retryWithTypes re-runs the native resolver with the types condition
// appended. A hit on a declaration file inside a dependency install
// directory means the import is type-only and needs no runtime code.
func (r *Resolver) retryWithTypes(rctx Context, retry func([]string) (Resolution, error)) (Resolution, bool) {
	conditions := make([]string, 0, len(rctx.Conditions)+1)
	conditions = append(conditions, rctx.Conditions...)
	conditions = append(conditions, typesCondition)
	res, err := retry(conditions)
	if err != nil {
		return Resolution{}, false
	}
	if !isInstalledDeclaration(res.URL) {
		return Resolution{}, false
	}
	return Resolution{
		URL:          inertModuleURL,
		ShortCircuit: true,
	}, true
}

// normalize derives the parent directory for fallback resolution. An
// absolute file locator with no parent context is the entry-point
// case: its own directory becomes the parent and the specifier shrinks
// to the bare filename.
func normalize(specifier, parentURL string) (spec, parentDir string) {
	parent := pathOfLocator(parentURL)
	if parent == "" {
		if p := pathOfLocator(specifier); filepath.IsAbs(p) {
			return "./" + filepath.Base(p), filepath.Dir(p)
		}
		return specifier, "."
	}
	return specifier, filepath.Dir(parent)
}

// isInstalledDeclaration reports whether a resolved locator points at a
// type-declaration file under a dependency install directory.
func isInstalledDeclaration(locator string) bool {
	path := filepath.ToSlash(pathOfLocator(locator))
	if !strings.Contains(path, "/node_modules/") {
		return false
	}
	return strings.HasSuffix(path, ".d.ts") ||
		strings.HasSuffix(path, ".d.mts") ||
		strings.HasSuffix(path, ".d.cts")
}

// formatResolution maps a resolved path to its delivery format. All
// custom-resolution successes short-circuit so the host does not keep
// trying other resolvers.
func formatResolution(path string) Resolution {
	res := Resolution{URL: fileURL(path), ShortCircuit: true}
	switch {
	case strings.HasSuffix(path, ".d.ts"),
		strings.HasSuffix(path, ".d.mts"),
		strings.HasSuffix(path, ".d.cts"):
		// чистая декларация: формат не навязываем
	case strings.HasSuffix(path, ".json"):
		res.Format = FormatJSON
		res.ImportAttributes = map[string]string{"type": "json"}
	case strings.HasSuffix(path, ".wasm"):
		res.Format = FormatWasm
		res.ImportAttributes = map[string]string{"type": "wasm"}
	case strings.HasSuffix(path, ".mts"):
		res.Format = FormatModuleTS
	case strings.HasSuffix(path, ".cts"):
		res.Format = FormatCommonJSTS
	}
	return res
}
