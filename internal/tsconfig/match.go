package tsconfig

import "strings"

// Match is a successful pattern match: the pattern that won and the
// text captured by its wildcard (empty for exact patterns).
type Match struct {
	Pattern  Pattern
	Captured string
}

// MatchSpecifier scans the table's patterns in declaration order and
// returns the first that matches. Scanning stops at the first match;
// later patterns are never consulted even if their replacements fail
// to resolve downstream.
func (t *Table) MatchSpecifier(specifier string) (Match, bool) {
	for _, p := range t.Patterns {
		captured, ok := matchPattern(p.Raw, specifier)
		if ok {
			return Match{Pattern: p, Captured: captured}, true
		}
	}
	return Match{}, false
}

// matchPattern matches specifier against a pattern holding at most one
// '*'. Without a wildcard the match is exact string equality. With one,
// the specifier must carry the pattern's prefix and suffix without
// overlap; the capture is whatever lies between.
func matchPattern(pattern, specifier string) (captured string, ok bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return "", pattern == specifier
	}
	prefix := pattern[:star]
	suffix := pattern[star+1:]
	if len(specifier) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	return specifier[len(prefix) : len(specifier)-len(suffix)], true
}

// ExpandReplacement substitutes captured into the template's wildcard
// position. Templates without a wildcard are returned as-is.
func ExpandReplacement(template, captured string) string {
	star := strings.IndexByte(template, '*')
	if star < 0 {
		return template
	}
	return template[:star] + captured + template[star+1:]
}
