package typename

import (
	"strconv"
	"strings"
)

// Maximum number of errors before aborting the parse.
const maxErrors = 10

// SyntaxError is a malformed type or assembly name.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Parser parses type names and assembly names.
type Parser struct {
	scanner *Scanner

	tok Token
	lit string
	pos Pos

	errh   func(pos Pos, msg string)
	errcnt int
	first  error
	abort  bool
}

// NewParser creates a parser for src. errh is called for each error; if
// nil, only the first error is kept.
func NewParser(src string, errh func(pos Pos, msg string)) *Parser {
	p := &Parser{errh: errh}
	p.scanner = NewScanner(src, p.syntaxErrorAt)
	p.next()
	return p
}

// ParseTypeName parses an optionally assembly-qualified type name.
func ParseTypeName(s string) (*TypeSpec, error) {
	p := NewParser(s, nil)
	spec := p.Parse()
	if err := p.FirstError(); err != nil {
		return nil, err
	}
	return spec, nil
}

// ParseAssemblyName parses an assembly display name.
func ParseAssemblyName(s string) (*AssemblyName, error) {
	p := NewParser(s, nil)
	a := p.ParseAssembly()
	if err := p.FirstError(); err != nil {
		return nil, err
	}
	return a, nil
}

// ----------------------------------------------------------------------------
// Token navigation

func (p *Parser) next() {
	p.scanner.Next()
	p.tok = p.scanner.Token()
	p.lit = p.scanner.Literal()
	p.pos = p.scanner.Pos()
}

func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.syntaxError("expected " + tok.String() + ", found " + p.tok.String())
		p.advance()
	}
}

// ----------------------------------------------------------------------------
// Error handling

func (p *Parser) syntaxError(msg string) {
	p.syntaxErrorAt(p.pos, msg)
}

func (p *Parser) syntaxErrorAt(pos Pos, msg string) {
	if p.abort {
		return
	}
	if p.errcnt == 0 {
		p.first = &SyntaxError{Pos: pos, Msg: msg}
	}
	p.errcnt++
	if p.errh != nil {
		p.errh(pos, msg)
	}
	if p.errcnt >= maxErrors {
		p.abort = true
		p.tok = _EOF
	}
}

// advance skips to the end of the current bracket or argument.
func (p *Parser) advance() {
	for p.tok != _EOF && p.tok != _Rbrack && p.tok != _Comma {
		p.next()
	}
}

// Errors returns the number of errors encountered.
func (p *Parser) Errors() int { return p.errcnt }

// FirstError returns the first error encountered, or nil.
func (p *Parser) FirstError() error { return p.first }

// ----------------------------------------------------------------------------
// Entry points

// Parse parses a complete type name.
func (p *Parser) Parse() *TypeSpec {
	spec := p.typeSpec(true)
	if p.tok != _EOF {
		p.syntaxError("unexpected " + p.tok.String() + " after type name")
	}
	return spec
}

// ParseAssembly parses a complete assembly display name.
func (p *Parser) ParseAssembly() *AssemblyName {
	a := p.assemblyName()
	if p.tok != _EOF {
		p.syntaxError("unexpected " + p.tok.String() + " after assembly name")
	}
	return a
}

// ----------------------------------------------------------------------------
// Type names

// typeSpec parses a type expression, followed by an assembly name if
// qualified is set.
func (p *Parser) typeSpec(qualified bool) *TypeSpec {
	spec := &TypeSpec{}
	spec.pos = p.pos
	spec.Type = p.typeExpr()
	if qualified && p.got(_Comma) {
		spec.Assembly = p.assemblyName()
	}
	return spec
}

func (p *Parser) typeExpr() Expr {
	pos := p.pos
	named := p.named()
	var x Expr = named
	for first := true; ; first = false {
		switch p.tok {
		case _Lbrack:
			p.next()
			if first && (p.tok == _Lbrack || p.tok == _Name) {
				x = p.genericArgs(pos, named)
				continue
			}
			x = p.arraySuffix(pos, x)
		case _Star:
			p.next()
			ptr := &Pointer{Elem: x}
			ptr.pos = pos
			x = ptr
		case _Amp:
			p.next()
			ref := &ByRef{Elem: x}
			ref.pos = pos
			x = ref
		default:
			return x
		}
	}
}

// named parses Namespace.Name`n+Nested`m.
func (p *Parser) named() *Named {
	n := &Named{}
	n.pos = p.pos
	if p.tok != _Name || p.lit == "" {
		p.syntaxError("expected type name, found " + p.tok.String())
		p.advance()
		n.Segments = []Segment{{}}
		return n
	}
	full := p.lit
	p.next()
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		n.Namespace, full = full[:i], full[i+1:]
	}
	n.Segments = append(n.Segments, segment(full))
	for p.got(_Plus) {
		if p.tok != _Name || p.lit == "" {
			p.syntaxError("expected nested type name, found " + p.tok.String())
			break
		}
		n.Segments = append(n.Segments, segment(p.lit))
		p.next()
	}
	return n
}

// segment splits the arity suffix off a mangled name. A suffix that is not
// a number is part of the name.
func segment(mangled string) Segment {
	i := strings.LastIndexByte(mangled, '`')
	if i < 0 {
		return Segment{Name: mangled}
	}
	n, err := strconv.Atoi(mangled[i+1:])
	if err != nil || n < 0 {
		return Segment{Name: mangled}
	}
	return Segment{Name: mangled[:i], Arity: n}
}

// genericArgs parses the arguments after the opening bracket. Bracketed
// arguments may be assembly-qualified.
func (p *Parser) genericArgs(pos Pos, named *Named) *Generic {
	g := &Generic{Type: named}
	g.pos = pos
	for {
		if p.got(_Lbrack) {
			g.Args = append(g.Args, p.typeSpec(true))
			p.want(_Rbrack)
		} else {
			g.Args = append(g.Args, p.typeSpec(false))
		}
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rbrack)
	if n := named.Arity(); n != len(g.Args) {
		p.syntaxErrorAt(pos, strconv.Itoa(len(g.Args))+" type arguments for generic arity "+strconv.Itoa(n))
	}
	return g
}

// arraySuffix parses the rest of [], [*], or [,,] after the opening
// bracket.
func (p *Parser) arraySuffix(pos Pos, elem Expr) Expr {
	if p.got(_Rbrack) {
		v := &Vector{Elem: elem}
		v.pos = pos
		return v
	}
	a := &Array{Elem: elem, Rank: 1}
	a.pos = pos
	if p.got(_Star) {
		p.want(_Rbrack)
		return a
	}
	for p.got(_Comma) {
		a.Rank++
	}
	p.want(_Rbrack)
	return a
}

// ----------------------------------------------------------------------------
// Assembly names

func (p *Parser) assemblyName() *AssemblyName {
	a := &AssemblyName{}
	a.pos = p.pos
	if p.tok != _Name || p.lit == "" {
		p.syntaxError("expected assembly name, found " + p.tok.String())
		p.advance()
		return a
	}
	a.Name = p.lit
	p.next()
	for p.got(_Comma) {
		if p.tok != _Name || p.lit == "" {
			p.syntaxError("expected assembly property, found " + p.tok.String())
			p.advance()
			continue
		}
		prop := Property{Key: p.lit}
		p.next()
		p.want(_Assign)
		if p.tok == _Name {
			prop.Value = p.lit
			p.next()
		}
		a.Properties = append(a.Properties, prop)
	}
	return a
}
