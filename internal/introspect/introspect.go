// Package introspect determines a package's actual runtime-exported
// names by dynamically loading it through an injectable Loader.
//
// Results are cached for the process lifetime, including failures: a
// probe that throws is recorded as "unavailable" and never retried, so
// elision simply skips that package instead of breaking the build.
package introspect

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"tsbridge/internal/trace"
)

// Loader is the external "load module and enumerate its bindings"
// capability. Implementations talk to the host runtime; tests inject
// fakes.
type Loader interface {
	Load(ctx context.Context, specifier string) ([]string, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, specifier string) ([]string, error)

func (f LoaderFunc) Load(ctx context.Context, specifier string) ([]string, error) {
	return f(ctx, specifier)
}

// record is a cached introspection result. names == nil is the
// null sentinel: introspection failed or is unavailable.
type record struct {
	names map[string]bool
}

// Introspector caches runtime export sets per bare specifier and
// deduplicates concurrent first-time probes.
type Introspector struct {
	loader Loader
	tracer trace.Tracer

	mu      sync.Mutex
	records map[string]record

	// group guarantees at most one underlying probe per specifier;
	// settled keys are removed from the in-flight table by
	// construction, success or failure.
	group singleflight.Group
}

// New creates an Introspector over the given loader. A nil tracer
// disables tracing.
func New(loader Loader, tracer trace.Tracer) *Introspector {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Introspector{
		loader:  loader,
		tracer:  tracer,
		records: make(map[string]record),
	}
}

// Exports returns the runtime export-name set for a bare specifier.
// ok is false when introspection is unavailable for this package (the
// cached null sentinel). Probe failures are absorbed here and never
// surface to the caller.
func (i *Introspector) Exports(ctx context.Context, specifier string) (names map[string]bool, ok bool) {
	i.mu.Lock()
	if rec, cached := i.records[specifier]; cached {
		i.mu.Unlock()
		return rec.names, rec.names != nil
	}
	i.mu.Unlock()

	v, _, _ := i.group.Do(specifier, func() (any, error) {
		rec := i.probe(ctx, specifier)
		i.mu.Lock()
		// повторная запись того же значения безвредна: записи
		// после вычисления не меняются
		i.records[specifier] = rec
		i.mu.Unlock()
		return rec, nil
	})
	rec := v.(record)
	return rec.names, rec.names != nil
}

func (i *Introspector) probe(ctx context.Context, specifier string) record {
	exported, err := i.loader.Load(ctx, specifier)
	if err != nil {
		trace.Point(i.tracer, trace.ScopeProbe, "probe:"+specifier, "failed: "+err.Error())
		return record{}
	}
	names := make(map[string]bool, len(exported))
	for _, name := range exported {
		names[name] = true
	}
	trace.Point(i.tracer, trace.ScopeProbe, "probe:"+specifier, strings.Join(exported, ","))
	return record{names: names}
}

// Len returns the number of cached records, null sentinels included.
func (i *Introspector) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.records)
}

// Seed pre-populates a record, used when restoring a persisted cache.
// names == nil seeds the null sentinel.
func (i *Introspector) Seed(specifier string, exported []string) {
	var names map[string]bool
	if exported != nil {
		names = make(map[string]bool, len(exported))
		for _, name := range exported {
			names[name] = true
		}
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, cached := i.records[specifier]; !cached {
		i.records[specifier] = record{names: names}
	}
}

// Snapshot returns every cached record for persistence. A nil slice
// value marks the null sentinel.
func (i *Introspector) Snapshot() map[string][]string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make(map[string][]string, len(i.records))
	for specifier, rec := range i.records {
		if rec.names == nil {
			out[specifier] = nil
			continue
		}
		names := make([]string, 0, len(rec.names))
		for name := range rec.names {
			names = append(names, name)
		}
		out[specifier] = names
	}
	return out
}
