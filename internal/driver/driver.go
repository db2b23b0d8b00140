// Package driver orchestrates batch runs over a project tree: it wires
// the hooks bundle to the filesystem, restores and persists the
// export-record cache, and runs rewrites in parallel.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tsbridge/internal/dcache"
	"tsbridge/internal/hooks"
	"tsbridge/internal/introspect"
	"tsbridge/internal/resolver"
	"tsbridge/internal/trace"
)

// Options configures a Driver.
type Options struct {
	// Conditions is the default export-condition set.
	Conditions []string
	// CacheSize bounds the path-resolution cache.
	CacheSize int
	// Loader probes packages for runtime exports. Nil disables elision.
	Loader introspect.Loader
	// Tracer receives run events (off when nil).
	Tracer trace.Tracer
	// Disk persists export records between runs. Nil disables
	// persistence.
	Disk *dcache.DiskCache
	// ProjectRoot keys the disk cache; defaults to the working
	// directory.
	ProjectRoot string
	// Jobs caps rewrite parallelism; GOMAXPROCS when zero.
	Jobs int
}

// Driver owns one run's hooks bundle and persistence wiring.
type Driver struct {
	hooks  *hooks.Hooks
	disk   *dcache.DiskCache
	root   string
	jobs   int
	tracer trace.Tracer
}

// New wires a Driver. The export cache is restored from disk when a
// disk cache is configured.
func New(opts Options) (*Driver, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine project root: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}
	d := &Driver{
		hooks: hooks.New(hooks.Options{
			Conditions: opts.Conditions,
			CacheSize:  opts.CacheSize,
			Loader:     opts.Loader,
			Tracer:     tracer,
		}),
		disk:   opts.Disk,
		root:   abs,
		jobs:   opts.Jobs,
		tracer: tracer,
	}
	if err := d.restoreExports(); err != nil {
		// Повреждённый кеш не должен валить запуск.
		trace.Point(tracer, trace.ScopeDriver, "dcache.restore.failed", err.Error())
	}
	return d, nil
}

// Hooks exposes the wired bundle for direct resolve/load calls.
func (d *Driver) Hooks() *hooks.Hooks { return d.hooks }

// ProjectRoot returns the absolute root keying the disk cache.
func (d *Driver) ProjectRoot() string { return d.root }

// Resolve runs the fallback protocol for a single specifier with the
// stub native resolver: everything funnels into alias resolution.
func (d *Driver) Resolve(ctx context.Context, specifier, parentDir string) (resolver.Resolution, error) {
	rctx := resolver.Context{}
	if parentDir != "" {
		abs, err := filepath.Abs(parentDir)
		if err != nil {
			return resolver.Resolution{}, fmt.Errorf("failed to resolve parent %q: %w", parentDir, err)
		}
		rctx.ParentURL = filepath.Join(abs, "import.ts")
	}
	return d.hooks.ResolveContext(ctx, specifier, rctx, stubNative)
}

// stubNative stands in for the host resolver in standalone runs: it
// fails every specifier as not found, handing control to the fallback.
func stubNative(_ context.Context, specifier string, _ resolver.Context) (resolver.Resolution, error) {
	return resolver.Resolution{}, resolver.NewError(resolver.CodeModuleNotFound, "cannot find module %q", specifier)
}

// restoreExports seeds the introspector from the persisted snapshot.
func (d *Driver) restoreExports() error {
	if d.disk == nil {
		return nil
	}
	snap, ok, err := d.disk.Get(d.root)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	intr := d.hooks.Introspector()
	for specifier, names := range snap.Exports {
		intr.Seed(specifier, names)
	}
	for _, specifier := range snap.Failed {
		intr.Seed(specifier, nil)
	}
	return nil
}

// PersistExports writes the current export records back to disk.
func (d *Driver) PersistExports() error {
	if d.disk == nil {
		return nil
	}
	records := d.hooks.Introspector().Snapshot()
	snap := &dcache.Snapshot{Exports: make(map[string][]string, len(records))}
	for specifier, names := range records {
		if names == nil {
			snap.Failed = append(snap.Failed, specifier)
			continue
		}
		snap.Exports[specifier] = names
	}
	if err := d.disk.Put(d.root, snap); err != nil {
		return fmt.Errorf("failed to persist export cache: %w", err)
	}
	return nil
}
