// Package typename parses serialized type names and assembly display
// names, as they appear in custom attribute arguments:
//
//	Namespace.Outer`1+Inner[[Arg, Asm]][]*&, Asm, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null
package typename

import "fmt"

// Token is the type of a lexical token.
type Token uint

const (
	_EOF    Token = iota
	_Name         // run of name characters, escapes decoded
	_Plus         // +
	_Comma        // ,
	_Lbrack       // [
	_Rbrack       // ]
	_Star         // *
	_Amp          // &
	_Assign       // =
)

var tokenNames = [...]string{
	_EOF:    "EOF",
	_Name:   "name",
	_Plus:   "+",
	_Comma:  ",",
	_Lbrack: "[",
	_Rbrack: "]",
	_Star:   "*",
	_Amp:    "&",
	_Assign: "=",
}

func (t Token) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("Token(%d)", t)
}

// special reports whether c delimits names. A special character is part
// of a name only when escaped with a backslash.
func special(c byte) bool {
	switch c {
	case '+', ',', '[', ']', '*', '&', '=', '\\':
		return true
	}
	return false
}
