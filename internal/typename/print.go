package typename

import (
	"strconv"
	"strings"
)

// String renders the type name in canonical form: generic arguments are
// always bracketed and special characters in names are escaped.
func (s *TypeSpec) String() string {
	var buf strings.Builder
	writeSpec(&buf, s)
	return buf.String()
}

// String renders the assembly display name.
func (a *AssemblyName) String() string {
	var buf strings.Builder
	writeAssembly(&buf, a)
	return buf.String()
}

func writeSpec(buf *strings.Builder, s *TypeSpec) {
	writeExpr(buf, s.Type)
	if s.Assembly != nil {
		buf.WriteString(", ")
		writeAssembly(buf, s.Assembly)
	}
}

func writeExpr(buf *strings.Builder, x Expr) {
	switch x := x.(type) {
	case *Named:
		if x.Namespace != "" {
			writeName(buf, x.Namespace)
			buf.WriteByte('.')
		}
		for i, s := range x.Segments {
			if i > 0 {
				buf.WriteByte('+')
			}
			writeName(buf, s.Name)
			if s.Arity > 0 {
				buf.WriteByte('`')
				buf.WriteString(strconv.Itoa(s.Arity))
			}
		}
	case *Generic:
		writeExpr(buf, x.Type)
		buf.WriteByte('[')
		for i, a := range x.Args {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			writeSpec(buf, a)
			buf.WriteByte(']')
		}
		buf.WriteByte(']')
	case *Vector:
		writeExpr(buf, x.Elem)
		buf.WriteString("[]")
	case *Array:
		writeExpr(buf, x.Elem)
		if x.Rank == 1 {
			buf.WriteString("[*]")
		} else {
			buf.WriteByte('[')
			buf.WriteString(strings.Repeat(",", x.Rank-1))
			buf.WriteByte(']')
		}
	case *Pointer:
		writeExpr(buf, x.Elem)
		buf.WriteByte('*')
	case *ByRef:
		writeExpr(buf, x.Elem)
		buf.WriteByte('&')
	}
}

func writeAssembly(buf *strings.Builder, a *AssemblyName) {
	writeName(buf, a.Name)
	for _, p := range a.Properties {
		buf.WriteString(", ")
		buf.WriteString(p.Key)
		buf.WriteByte('=')
		buf.WriteString(p.Value)
	}
}

func writeName(buf *strings.Builder, name string) {
	for i := 0; i < len(name); i++ {
		if special(name[i]) {
			buf.WriteByte('\\')
		}
		buf.WriteByte(name[i])
	}
}
