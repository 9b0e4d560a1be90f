package typename

import "strings"

// Node is implemented by all syntax nodes.
type Node interface {
	Pos() Pos
	aNode()
}

// Expr is a type expression.
type Expr interface {
	Node
	aExpr()
}

type node struct {
	pos Pos
}

func (n *node) Pos() Pos { return n.pos }
func (*node) aNode()     {}

type expr struct{ node }

func (*expr) aExpr() {}

// TypeSpec is a type expression optionally qualified by an assembly.
type TypeSpec struct {
	node
	Type     Expr
	Assembly *AssemblyName // nil if unqualified
}

// Segment is one name of a nesting chain: Name`Arity.
type Segment struct {
	Name  string
	Arity int
}

// Named is a namespace type, or a chain of nested types: Ns.Outer+Inner.
type Named struct {
	expr
	Namespace string
	Segments  []Segment // outermost first
}

// Arity returns the total generic arity of the chain.
func (n *Named) Arity() int {
	var a int
	for _, s := range n.Segments {
		a += s.Arity
	}
	return a
}

// Generic is a named type applied to arguments: Named[[A],[B]].
type Generic struct {
	expr
	Type *Named
	Args []*TypeSpec
}

// Vector is a single-dimensional zero-based array: Elem[].
type Vector struct {
	expr
	Elem Expr
}

// Array is a multi-dimensional array: Elem[*] or Elem[,].
type Array struct {
	expr
	Elem Expr
	Rank int
}

// Pointer is an unmanaged pointer: Elem*.
type Pointer struct {
	expr
	Elem Expr
}

// ByRef is a managed pointer: Elem&.
type ByRef struct {
	expr
	Elem Expr
}

// Property is a Key=Value pair of an assembly name.
type Property struct {
	Key   string
	Value string
}

// AssemblyName is an assembly display name: Name, Key=Value, ...
type AssemblyName struct {
	node
	Name       string
	Properties []Property
}

// Lookup returns the value of the property called key, ignoring case.
func (a *AssemblyName) Lookup(key string) (string, bool) {
	for _, p := range a.Properties {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}
