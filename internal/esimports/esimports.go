// Package esimports extracts top-level import declarations, with byte
// offsets, from ECMAScript/TypeScript source text.
//
// This is not a full parser: only enough structure is recovered to
// locate import statements and their specifier clauses. Strings,
// template literals, and comments are skipped so an import-looking
// sequence inside them is never misread; anything at brace depth > 0
// (including dynamic import() and import.meta) is ignored.
package esimports

// Specifier is one named import binding.
type Specifier struct {
	// Imported is the name on the target module; Local the binding
	// name in this file (equal unless "as" renames it).
	Imported string
	Local    string
	// TypeOnly marks "import { type X }" specifiers.
	TypeOnly bool
	// Start/End is the byte span of the specifier text, separators
	// excluded.
	Start uint32
	End   uint32
}

// Decl is one top-level import declaration.
type Decl struct {
	// Start/End covers the whole statement, trailing semicolon
	// included when present.
	Start uint32
	End   uint32
	// Source is the module specifier with quotes stripped.
	Source string
	// TypeOnly marks "import type ..." declarations.
	TypeOnly bool

	DefaultName   string
	NamespaceName string
	Named         []Specifier
	// ClauseStart/ClauseEnd covers the named-import braces, both
	// zero when the declaration has no named clause.
	ClauseStart uint32
	ClauseEnd   uint32
}

// HasDefaultOrNamespace reports whether the declaration binds a default
// or namespace import besides any named specifiers.
func (d *Decl) HasDefaultOrNamespace() bool {
	return d.DefaultName != "" || d.NamespaceName != ""
}

// Text returns the declaration's original text within src.
func (d *Decl) Text(src []byte) string {
	if int(d.End) > len(src) || d.Start > d.End {
		return ""
	}
	return string(src[d.Start:d.End])
}

// Scan walks src and returns every top-level import declaration in
// source order. Malformed declarations are skipped, not reported:
// the host runtime is the authority on syntax errors.
func Scan(src []byte) []Decl {
	s := &scanner{src: src}
	var decls []Decl
	for !s.eof() {
		s.skipTrivia()
		if s.eof() {
			break
		}
		ch := s.peek()
		switch {
		case ch == '\'' || ch == '"':
			s.skipString(ch)
		case ch == '`':
			s.skipTemplate()
		case ch == '{' || ch == '(' || ch == '[':
			s.depth++
			s.off++
		case ch == '}' || ch == ')' || ch == ']':
			if s.depth > 0 {
				s.depth--
			}
			s.off++
		case isIdentStart(ch):
			start := s.off
			word := s.scanWord()
			if word == "import" && s.depth == 0 {
				if decl, ok := s.parseImport(start); ok {
					decls = append(decls, decl)
				}
			}
		default:
			s.off++
		}
	}
	return decls
}
