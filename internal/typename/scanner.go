package typename

import "strings"

// Scanner splits a type name into tokens.
type Scanner struct {
	src  string
	offs int

	tok    Token
	lit    string
	tokPos Pos

	errh func(pos Pos, msg string)
}

// NewScanner creates a scanner for src. errh is called for each lexical
// error; if nil, errors are ignored.
func NewScanner(src string, errh func(pos Pos, msg string)) *Scanner {
	return &Scanner{src: src, errh: errh}
}

// Next advances to the next token.
func (s *Scanner) Next() {
	s.skipWhitespace()
	s.tokPos = NewPos(uint32(s.offs + 1))
	s.lit = ""
	if s.offs >= len(s.src) {
		s.tok = _EOF
		return
	}
	c := s.src[s.offs]
	switch c {
	case '+':
		s.tok = _Plus
	case ',':
		s.tok = _Comma
	case '[':
		s.tok = _Lbrack
	case ']':
		s.tok = _Rbrack
	case '*':
		s.tok = _Star
	case '&':
		s.tok = _Amp
	case '=':
		s.tok = _Assign
	default:
		s.scanName()
		return
	}
	s.lit = string(c)
	s.offs++
}

// Token returns the current token.
func (s *Scanner) Token() Token { return s.tok }

// Literal returns the current token's text. For names, escapes are
// decoded and surrounding spaces removed.
func (s *Scanner) Literal() string { return s.lit }

// Pos returns the start position of the current token.
func (s *Scanner) Pos() Pos { return s.tokPos }

func (s *Scanner) skipWhitespace() {
	for s.offs < len(s.src) && isWhitespace(s.src[s.offs]) {
		s.offs++
	}
}

// scanName scans up to the next unescaped special character.
func (s *Scanner) scanName() {
	var buf strings.Builder
	for s.offs < len(s.src) {
		c := s.src[s.offs]
		if c == '\\' {
			if s.offs+1 >= len(s.src) {
				s.error(NewPos(uint32(s.offs+1)), "escape at end of name")
				s.offs++
				break
			}
			buf.WriteByte(s.src[s.offs+1])
			s.offs += 2
			continue
		}
		if special(c) {
			break
		}
		buf.WriteByte(c)
		s.offs++
	}
	s.tok = _Name
	s.lit = strings.TrimRight(buf.String(), " \t")
}

func (s *Scanner) error(pos Pos, msg string) {
	if s.errh != nil {
		s.errh(pos, msg)
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
