package esimports

import "fortio.org/safecast"

type scanner struct {
	src   []byte
	off   int
	depth int // скобочная глубина вне строк и комментариев
}

func (s *scanner) eof() bool { return s.off >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.off]
}

func (s *scanner) peekAt(delta int) byte {
	if s.off+delta >= len(s.src) {
		return 0
	}
	return s.src[s.off+delta]
}

func pos(i int) uint32 {
	v, err := safecast.Conv[uint32](i)
	if err != nil {
		return 0
	}
	return v
}

// skipTrivia advances past whitespace and comments.
func (s *scanner) skipTrivia() {
	for !s.eof() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.off++
		case ch == '/' && s.peekAt(1) == '/':
			for !s.eof() && s.peek() != '\n' {
				s.off++
			}
		case ch == '/' && s.peekAt(1) == '*':
			s.off += 2
			for !s.eof() {
				if s.peek() == '*' && s.peekAt(1) == '/' {
					s.off += 2
					break
				}
				s.off++
			}
		default:
			return
		}
	}
}

// skipString advances past a quoted string, honoring escapes.
func (s *scanner) skipString(quote byte) {
	s.off++ // открывающая кавычка
	for !s.eof() {
		ch := s.peek()
		if ch == '\\' {
			s.off += 2
			continue
		}
		s.off++
		if ch == quote || ch == '\n' {
			return
		}
	}
}

// skipTemplate advances past a template literal, recursing into ${}
// interpolations so braces inside them do not desynchronize depth.
func (s *scanner) skipTemplate() {
	s.off++ // открывающий backtick
	for !s.eof() {
		ch := s.peek()
		switch {
		case ch == '\\':
			s.off += 2
		case ch == '`':
			s.off++
			return
		case ch == '$' && s.peekAt(1) == '{':
			s.off += 2
			s.skipInterpolation()
		default:
			s.off++
		}
	}
}

// skipInterpolation consumes a ${...} body up to its matching brace.
func (s *scanner) skipInterpolation() {
	depth := 1
	for !s.eof() && depth > 0 {
		ch := s.peek()
		switch ch {
		case '\'', '"':
			s.skipString(ch)
		case '`':
			s.skipTemplate()
		case '{':
			depth++
			s.off++
		case '}':
			depth--
			s.off++
		default:
			s.off++
		}
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		ch >= 0x80
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func (s *scanner) scanWord() string {
	start := s.off
	for !s.eof() && isIdentContinue(s.peek()) {
		s.off++
	}
	return string(s.src[start:s.off])
}

// scanStringLiteral reads a quoted literal and returns its unquoted
// value.
func (s *scanner) scanStringLiteral() (string, bool) {
	quote := s.peek()
	if quote != '\'' && quote != '"' {
		return "", false
	}
	s.off++
	start := s.off
	for !s.eof() {
		ch := s.peek()
		if ch == '\\' {
			s.off += 2
			continue
		}
		if ch == quote {
			value := string(s.src[start:s.off])
			s.off++
			return value, true
		}
		if ch == '\n' {
			break
		}
		s.off++
	}
	return "", false
}
