package resolver

import (
	"path/filepath"
	"strings"
)

// SpecifierKind tags a specifier at decision time.
type SpecifierKind uint8

const (
	SpecifierBuiltin SpecifierKind = iota + 1
	SpecifierURL
	SpecifierPath
	SpecifierBare
)

func (k SpecifierKind) String() string {
	switch k {
	case SpecifierBuiltin:
		return "builtin"
	case SpecifierURL:
		return "url"
	case SpecifierPath:
		return "path"
	case SpecifierBare:
		return "bare"
	default:
		return "unknown"
	}
}

// nodeBuiltins lists the host runtime's built-in module names
// addressable without the node: prefix.
var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"timers": true, "tls": true, "trace_events": true, "tty": true, "url": true,
	"util": true, "v8": true, "vm": true, "wasi": true, "worker_threads": true,
	"zlib": true,
}

// ClassifySpecifier tags a specifier as builtin, URL, filesystem path,
// or bare package reference.
func ClassifySpecifier(specifier string) SpecifierKind {
	switch {
	case strings.HasPrefix(specifier, "node:"):
		return SpecifierBuiltin
	case nodeBuiltins[firstSegment(specifier)]:
		return SpecifierBuiltin
	case strings.HasPrefix(specifier, "http:"),
		strings.HasPrefix(specifier, "https:"),
		strings.HasPrefix(specifier, "data:"):
		return SpecifierURL
	case strings.HasPrefix(specifier, "file:"):
		return SpecifierPath
	case strings.HasPrefix(specifier, "./"),
		strings.HasPrefix(specifier, "../"),
		specifier == ".", specifier == "..":
		return SpecifierPath
	case filepath.IsAbs(specifier), strings.HasPrefix(specifier, "/"):
		return SpecifierPath
	default:
		return SpecifierBare
	}
}

// firstSegment strips any subpath: "fs/promises" is still builtin fs.
func firstSegment(specifier string) string {
	if i := strings.IndexByte(specifier, '/'); i >= 0 {
		return specifier[:i]
	}
	return specifier
}

// pathOfLocator turns a file URL or plain path into a filesystem path.
func pathOfLocator(locator string) string {
	if after, ok := strings.CutPrefix(locator, "file://"); ok {
		return after
	}
	return locator
}

// fileURL renders an absolute path as a file URL.
func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
