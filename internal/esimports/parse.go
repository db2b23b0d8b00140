package esimports

// parseImport parses one import declaration. The "import" keyword is
// already consumed; start is its byte offset. Returns ok=false for
// dynamic import, import.meta, and anything malformed — the scanner
// then just keeps going.
func (s *scanner) parseImport(start int) (Decl, bool) {
	s.skipTrivia()
	ch := s.peek()
	if ch == '(' || ch == '.' {
		return Decl{}, false
	}

	decl := Decl{Start: pos(start)}

	// side-effect import: import 'x';
	if ch == '\'' || ch == '"' {
		source, ok := s.scanStringLiteral()
		if !ok {
			return Decl{}, false
		}
		decl.Source = source
		decl.End = pos(s.statementEnd())
		return decl, true
	}

	// 1) необязательный префикс `type` и default-имя
	if isIdentStart(ch) {
		word := s.scanWord()
		s.skipTrivia()
		if word == "type" {
			switch {
			case s.peek() == '{' || s.peek() == '*':
				decl.TypeOnly = true
			case isIdentStart(s.peek()):
				save := s.off
				next := s.scanWord()
				if next == "from" {
					// `import type from 'x'` — default с именем type
					s.off = save
					decl.DefaultName = "type"
				} else {
					decl.TypeOnly = true
					decl.DefaultName = next
				}
				s.skipTrivia()
			default:
				return Decl{}, false
			}
		} else {
			decl.DefaultName = word
		}
		if decl.DefaultName != "" {
			if s.peek() == ',' {
				s.off++
				s.skipTrivia()
			}
		}
	}

	// 2) namespace или named clause
	switch s.peek() {
	case '*':
		s.off++
		s.skipTrivia()
		if !s.tryWord("as") {
			return Decl{}, false
		}
		s.skipTrivia()
		if !isIdentStart(s.peek()) {
			return Decl{}, false
		}
		decl.NamespaceName = s.scanWord()
		s.skipTrivia()
	case '{':
		if !s.parseNamedClause(&decl) {
			return Decl{}, false
		}
		s.skipTrivia()
	}

	// 3) from 'source'
	if !s.tryWord("from") {
		return Decl{}, false
	}
	s.skipTrivia()
	source, ok := s.scanStringLiteral()
	if !ok {
		return Decl{}, false
	}
	decl.Source = source
	decl.End = pos(s.statementEnd())
	return decl, true
}

// parseNamedClause parses `{ spec, spec, ... }`, recording the clause
// span braces included.
func (s *scanner) parseNamedClause(decl *Decl) bool {
	decl.ClauseStart = pos(s.off)
	s.off++ // '{'
	for {
		s.skipTrivia()
		if s.eof() {
			return false
		}
		if s.peek() == '}' {
			s.off++
			decl.ClauseEnd = pos(s.off)
			return true
		}
		spec, ok := s.parseSpecifier()
		if !ok {
			return false
		}
		decl.Named = append(decl.Named, spec)
		s.skipTrivia()
		if s.peek() == ',' {
			s.off++
		}
	}
}

// parseSpecifier parses one named specifier: [type] name [as alias].
// The imported name may be a string literal ("not-an-ident" as x).
func (s *scanner) parseSpecifier() (Specifier, bool) {
	start := s.off
	spec := Specifier{}

	readName := func() (string, bool) {
		if ch := s.peek(); ch == '\'' || ch == '"' {
			return s.scanStringLiteral()
		}
		if !isIdentStart(s.peek()) {
			return "", false
		}
		return s.scanWord(), true
	}

	name, ok := readName()
	if !ok {
		return Specifier{}, false
	}
	if name == "type" {
		s.skipTrivia()
		// `type X` — type-only specifier; `type as t` и голый `type`
		// остаются value-импортом имени "type"
		if ch := s.peek(); (isIdentStart(ch) || ch == '\'' || ch == '"') && !s.wordAhead("as") {
			spec.TypeOnly = true
			name, ok = readName()
			if !ok {
				return Specifier{}, false
			}
		}
	}
	spec.Imported = name
	spec.Local = name
	// конец спана — последний поглощённый токен, не lookahead-пробелы
	end := s.off

	s.skipTrivia()
	if s.tryWord("as") {
		s.skipTrivia()
		if !isIdentStart(s.peek()) {
			return Specifier{}, false
		}
		spec.Local = s.scanWord()
		end = s.off
	}
	spec.Start = pos(start)
	spec.End = pos(end)
	return spec, true
}

// tryWord consumes the given identifier word if it is next.
func (s *scanner) tryWord(w string) bool {
	if !s.wordAhead(w) {
		return false
	}
	s.off += len(w)
	return true
}

// wordAhead reports whether the next token is exactly the identifier w.
func (s *scanner) wordAhead(w string) bool {
	if s.off+len(w) > len(s.src) {
		return false
	}
	if string(s.src[s.off:s.off+len(w)]) != w {
		return false
	}
	return !isIdentContinue(s.peekAt(len(w)))
}

// statementEnd consumes an optional trailing semicolon and returns the
// end offset of the declaration. Trivia between the source literal and
// the semicolon is included only when the semicolon is present.
func (s *scanner) statementEnd() int {
	end := s.off
	save := s.off
	s.skipTrivia()
	if s.peek() == ';' {
		s.off++
		return s.off
	}
	s.off = save
	return end
}
