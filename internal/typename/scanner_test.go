package typename

import "testing"

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		tokens []Token
		lits   []string
	}{
		{"simple", "System.Int32", []Token{_Name}, []string{"System.Int32"}},
		{"mangled", "List`1", []Token{_Name}, []string{"List`1"}},
		{"nested", "Outer+Inner", []Token{_Name, _Plus, _Name}, []string{"Outer", "+", "Inner"}},
		{"vector", "T[]", []Token{_Name, _Lbrack, _Rbrack}, []string{"T", "[", "]"}},
		{"pointer_byref", "T*&", []Token{_Name, _Star, _Amp}, []string{"T", "*", "&"}},
		{"qualified", "T, Asm", []Token{_Name, _Comma, _Name}, []string{"T", ",", "Asm"}},
		{"property", "Version=1.0", []Token{_Name, _Assign, _Name}, []string{"Version", "=", "1.0"}},
		{"escaped_plus", `A\+B`, []Token{_Name}, []string{"A+B"}},
		{"escaped_comma", `A\,B+C`, []Token{_Name, _Plus, _Name}, []string{"A,B", "+", "C"}},
		{"trailing_space", "My Lib , X", []Token{_Name, _Comma, _Name}, []string{"My Lib", ",", "X"}},
		{"empty", "", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.src, func(pos Pos, msg string) {
				t.Errorf("unexpected error at %s: %s", pos, msg)
			})
			for i, want := range tt.tokens {
				s.Next()
				if s.Token() != want {
					t.Fatalf("token %d = %s, want %s", i, s.Token(), want)
				}
				if s.Literal() != tt.lits[i] {
					t.Errorf("literal %d = %q, want %q", i, s.Literal(), tt.lits[i])
				}
			}
			s.Next()
			if s.Token() != _EOF {
				t.Errorf("final token = %s, want EOF", s.Token())
			}
		})
	}
}

func TestScanPositions(t *testing.T) {
	s := NewScanner("A, B", nil)
	want := []uint32{1, 2, 4, 5}
	for i, col := range want {
		s.Next()
		if got := s.Pos().Col(); got != col {
			t.Errorf("token %d at col %d, want %d", i, got, col)
		}
	}
}

func TestScanDanglingEscape(t *testing.T) {
	var msgs []string
	s := NewScanner(`A\`, func(pos Pos, msg string) {
		msgs = append(msgs, pos.String()+": "+msg)
	})
	s.Next()
	if s.Token() != _Name || s.Literal() != "A" {
		t.Errorf("got %s %q, want name \"A\"", s.Token(), s.Literal())
	}
	if len(msgs) != 1 || msgs[0] != "col 2: escape at end of name" {
		t.Errorf("errors = %v", msgs)
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{_EOF, "EOF"},
		{_Name, "name"},
		{_Lbrack, "["},
		{_Assign, "="},
		{Token(99), "Token(99)"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("Token(%d).String() = %q, want %q", tt.tok, got, tt.want)
		}
	}
}
