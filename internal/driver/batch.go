package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"tsbridge/internal/hooks"
	"tsbridge/internal/resolver"
	"tsbridge/internal/trace"
)

// FileResult is the outcome of rewriting one source file.
type FileResult struct {
	// Path is relative to the batch root.
	Path string
	// Output is the rewritten source; the input buffer when unchanged.
	Output []byte
	// Changed reports whether any specifier was elided.
	Changed bool
	// Err records a per-file read failure. Rewrite itself fails open.
	Err error
}

// sourceExts are the file kinds subject to load-time rewriting.
var sourceExts = map[string]bool{
	".ts":  true,
	".tsx": true,
	".mts": true,
}

// listSourceFiles returns a sorted list of rewritable files under dir,
// relative to dir. node_modules and declaration files are skipped.
func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExts[filepath.Ext(path)] {
			return nil
		}
		// Файлы деклараций не содержат кода для выполнения.
		if strings.HasSuffix(path, ".d.ts") || strings.HasSuffix(path, ".d.mts") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// RewriteFile rewrites a single source file in place of the batch walk.
func (d *Driver) RewriteFile(ctx context.Context, path string) FileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	out, err := d.hooks.Load(ctx, "file://"+filepath.ToSlash(abs), func(context.Context, string) (hooks.LoadResult, error) {
		return hooks.LoadResult{Format: resolver.FormatModuleTS, Source: src}, nil
	})
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	changed := len(src) > 0 && len(out.Source) > 0 && &out.Source[0] != &src[0]
	return FileResult{Path: path, Output: out.Source, Changed: changed}
}

// RewriteDir rewrites every source file under dir in parallel. Results
// are ordered by path. Read failures are recorded per file; only walk
// and cancellation errors abort the batch.
func (d *Driver) RewriteDir(ctx context.Context, dir string) ([]FileResult, error) {
	files, err := listSourceFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	jobs := d.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Индекс уникален для каждой горутины, мьютекс не нужен.
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, rel := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res := d.RewriteFile(gctx, filepath.Join(dir, rel))
			res.Path = rel
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	trace.Point(d.tracer, trace.ScopeDriver, "rewrite.dir", fmt.Sprintf("%d files", len(files)))
	return results, nil
}

// WriteResults writes changed outputs back under dir.
func WriteResults(dir string, results []FileResult) (written int, err error) {
	for _, res := range results {
		if res.Err != nil || !res.Changed {
			continue
		}
		abs := filepath.Join(dir, res.Path)
		if err := os.WriteFile(abs, res.Output, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", res.Path, err)
		}
		written++
	}
	return written, nil
}
