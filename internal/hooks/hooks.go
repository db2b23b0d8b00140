// Package hooks is the host-facing surface: one Hooks object bundles
// the resolver pool, caches, introspector, and elider, and is threaded
// through every hook call. Nothing here is a package-level singleton,
// so tests get clean init/teardown boundaries by constructing and
// discarding Hooks values.
package hooks

import (
	"context"

	"tsbridge/internal/elide"
	"tsbridge/internal/introspect"
	"tsbridge/internal/pathcache"
	"tsbridge/internal/pool"
	"tsbridge/internal/resolver"
	"tsbridge/internal/trace"
)

// Options configures a Hooks instance.
type Options struct {
	// Conditions is the default export-condition set (pool default
	// when nil).
	Conditions []string
	// CacheSize bounds the path-resolution cache
	// (pathcache.DefaultCapacity when zero).
	CacheSize int
	// Loader probes packages for their runtime exports. Required for
	// elision; with a nil Loader every introspection yields the
	// unavailable sentinel and elision becomes a no-op.
	Loader introspect.Loader
	// Tracer receives resolution and elision events (off when nil).
	Tracer trace.Tracer
}

// Hooks is the explicit per-registration context object.
type Hooks struct {
	pool     *pool.Pool
	cache    *pathcache.Cache
	resolver *resolver.Resolver
	intr     *introspect.Introspector
	elider   *elide.Elider
	tracer   trace.Tracer
}

// New constructs a fully wired Hooks instance.
func New(opts Options) *Hooks {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	loader := opts.Loader
	if loader == nil {
		loader = introspect.LoaderFunc(func(context.Context, string) ([]string, error) {
			return nil, errNoLoader
		})
	}
	p := pool.New(opts.Conditions)
	cache := pathcache.New(opts.CacheSize)
	intr := introspect.New(loader, tracer)
	return &Hooks{
		pool:     p,
		cache:    cache,
		resolver: resolver.New(p, cache, tracer),
		intr:     intr,
		elider:   elide.New(intr, tracer),
		tracer:   tracer,
	}
}

// Resolve is the blocking resolution hook.
func (h *Hooks) Resolve(specifier string, rctx resolver.Context, native resolver.NativeResolve) (resolver.Resolution, error) {
	return h.resolver.Resolve(specifier, rctx, native)
}

// ResolveContext is the suspending resolution hook. Decisions are
// identical to Resolve for identical inputs.
func (h *Hooks) ResolveContext(ctx context.Context, specifier string, rctx resolver.Context, native resolver.NativeResolveContext) (resolver.Resolution, error) {
	return h.resolver.ResolveContext(ctx, specifier, rctx, native)
}

// LoadResult is the load hook payload. Fields other than Source pass
// through unchanged.
type LoadResult struct {
	Format string
	Source []byte
}

// NativeLoad is the host's own load capability.
type NativeLoad func(ctx context.Context, url string) (LoadResult, error)

// Load runs the native load and, for ESM typed sources, replaces the
// body with its elided rewrite. Elision failures leave the source
// untouched; a broken rewrite must never break an otherwise-valid
// load.
func (h *Hooks) Load(ctx context.Context, url string, native NativeLoad) (LoadResult, error) {
	res, err := native(ctx, url)
	if err != nil {
		return res, err
	}
	if res.Format != resolver.FormatModuleTS || res.Source == nil {
		return res, nil
	}
	rewritten, rerr := h.elider.Rewrite(ctx, res.Source)
	if rerr != nil {
		trace.Point(h.tracer, trace.ScopeLoad, "load:"+url, "elision skipped: "+rerr.Error())
		return res, nil
	}
	res.Source = rewritten
	return res, nil
}

// Introspector exposes the export-record cache, e.g. for persistence.
func (h *Hooks) Introspector() *introspect.Introspector { return h.intr }

// ClearCaches drops the path-resolution cache and propagates to every
// pooled resolver instance.
func (h *Hooks) ClearCaches() {
	h.cache.Clear()
	h.pool.ClearCache()
}

type noLoaderError struct{}

func (noLoaderError) Error() string { return "no module loader configured" }

var errNoLoader = noLoaderError{}
