// Package engine implements filesystem-based module resolution for one
// fixed condition set. The resolver pool owns one Instance per distinct
// set of export conditions; an Instance is never mutated after creation,
// only queried.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports that no file satisfied the specifier.
var ErrNotFound = errors.New("module not found")

// DefaultExtensions is the extension try order for extensionless
// specifiers. Typed sources come first so ./module prefers module.ts
// over module.js when both exist.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".json"}

// DefaultExtensionAlias redirects compiled-output extensions to their
// typed source twins. The twin is tried before the literal path, so a
// specifier written as ./module.js still lands on module.ts when both
// exist.
var DefaultExtensionAlias = map[string][]string{
	".js":  {".ts", ".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// Options configures an Instance. Zero fields take the defaults above.
type Options struct {
	Conditions     []string
	Extensions     []string
	ExtensionAlias map[string][]string
}

// Instance resolves specifiers against the real filesystem under one
// fixed condition set.
type Instance struct {
	conditions []string
	extensions []string
	extAlias   map[string][]string

	// package.json parse memo, dropped by ClearCache.
	pkgCache map[string]*packageJSON
}

// New creates a resolver instance. The options are copied; the caller
// may reuse the Options value.
func New(opts Options) *Instance {
	in := &Instance{
		conditions: append([]string(nil), opts.Conditions...),
		extensions: append([]string(nil), opts.Extensions...),
		extAlias:   make(map[string][]string, len(opts.ExtensionAlias)),
		pkgCache:   make(map[string]*packageJSON),
	}
	if len(in.extensions) == 0 {
		in.extensions = append([]string(nil), DefaultExtensions...)
	}
	alias := opts.ExtensionAlias
	if alias == nil {
		alias = DefaultExtensionAlias
	}
	for k, v := range alias {
		in.extAlias[k] = append([]string(nil), v...)
	}
	return in
}

// Conditions returns the condition set the instance was created with.
func (in *Instance) Conditions() []string { return in.conditions }

// ClearCache drops memoized package metadata.
func (in *Instance) ClearCache() {
	in.pkgCache = make(map[string]*packageJSON)
}

// Resolve maps a specifier to an absolute file path, or ErrNotFound.
func (in *Instance) Resolve(specifier, baseDir string) (string, error) {
	switch {
	case specifier == "":
		return "", fmt.Errorf("%w: empty specifier", ErrNotFound)
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		return in.resolvePath(filepath.Join(baseDir, filepath.FromSlash(specifier)))
	case filepath.IsAbs(specifier):
		return in.resolvePath(filepath.Clean(specifier))
	default:
		return in.resolveBare(specifier, baseDir)
	}
}

// resolvePath resolves a filesystem path: the literal file, extension
// aliases, appended extensions, then directory fallbacks. A regular
// file always beats a same-named directory.
func (in *Instance) resolvePath(path string) (string, error) {
	if ext := filepath.Ext(path); ext != "" {
		// typed twin first, literal second
		for _, alias := range in.extAlias[ext] {
			candidate := strings.TrimSuffix(path, ext) + alias
			if isFile(candidate) {
				return candidate, nil
			}
		}
	}
	if isFile(path) {
		return path, nil
	}
	for _, ext := range in.extensions {
		if candidate := path + ext; isFile(candidate) {
			return candidate, nil
		}
	}
	if isDir(path) {
		return in.resolveDir(path)
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// resolveDir handles a directory specifier: package.json main, then
// index files in extension order.
func (in *Instance) resolveDir(dir string) (string, error) {
	if pkg := in.loadPackageJSON(dir); pkg != nil && pkg.Main != "" {
		main := filepath.Join(dir, filepath.FromSlash(pkg.Main))
		if resolved, err := in.resolvePath(main); err == nil {
			return resolved, nil
		}
	}
	for _, ext := range in.extensions {
		if candidate := filepath.Join(dir, "index"+ext); isFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, dir)
}

// resolveBare resolves a bare package specifier by walking node_modules
// directories upward from baseDir.
func (in *Instance) resolveBare(specifier, baseDir string) (string, error) {
	name, subpath := splitPackageSpecifier(specifier)
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, specifier)
	}
	dir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, specifier)
	}
	for {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
		if isDir(pkgDir) {
			if resolved, err := in.resolveInPackage(pkgDir, subpath); err == nil {
				return resolved, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, specifier)
}

func (in *Instance) resolveInPackage(pkgDir, subpath string) (string, error) {
	pkg := in.loadPackageJSON(pkgDir)
	if pkg != nil && pkg.Exports != nil {
		target, ok := resolveExports(pkg.Exports, subpath, in.conditions)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, subpath)
		}
		return in.resolvePath(filepath.Join(pkgDir, filepath.FromSlash(target)))
	}
	if subpath != "." {
		return in.resolvePath(filepath.Join(pkgDir, filepath.FromSlash(subpath)))
	}
	return in.resolveDir(pkgDir)
}

// splitPackageSpecifier separates a bare specifier into the package
// name (one or two segments for scoped packages) and the "./"-rooted
// subpath.
func splitPackageSpecifier(specifier string) (name, subpath string) {
	parts := strings.Split(specifier, "/")
	take := 1
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 {
			return "", ""
		}
		take = 2
	}
	name = strings.Join(parts[:take], "/")
	if len(parts) == take {
		return name, "."
	}
	return name, "./" + strings.Join(parts[take:], "/")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
