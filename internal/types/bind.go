package types

import (
	"errors"
	"fmt"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/typename"
)

// ErrTypeName reports a parsed type name that does not denote a type.
var ErrTypeName = errors.New("malformed type name")

// Bind returns the canonical reference a parsed type name denotes. Names
// without an assembly are looked up in scope, or in the core assembly if
// scope is nil.
func (u *Universe) Bind(spec *typename.TypeSpec, scope identity.UnitIdentity) (TypeReference, error) {
	if scope == nil {
		scope = u.core
	}
	if spec.Assembly != nil {
		id, err := spec.Assembly.Identity("")
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", spec, err)
		}
		scope = id
	}
	return u.bindExpr(spec.Type, scope)
}

// ParseType parses and binds a serialized type name.
func (u *Universe) ParseType(s string, scope identity.UnitIdentity) (TypeReference, error) {
	spec, err := typename.ParseTypeName(s)
	if err != nil {
		return nil, fmt.Errorf("type name %q: %w", s, err)
	}
	return u.Bind(spec, scope)
}

func (u *Universe) bindExpr(x typename.Expr, scope identity.UnitIdentity) (TypeReference, error) {
	switch x := x.(type) {
	case *typename.Named:
		return u.bindNamed(x, nil, scope)
	case *typename.Generic:
		args := make([]TypeReference, len(x.Args))
		for i, a := range x.Args {
			t, err := u.Bind(a, scope)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return u.bindNamed(x.Type, args, scope)
	case *typename.Vector:
		elem, err := u.bindExpr(x.Elem, scope)
		if err != nil {
			return nil, err
		}
		return u.Vector(elem), nil
	case *typename.Array:
		elem, err := u.bindExpr(x.Elem, scope)
		if err != nil {
			return nil, err
		}
		return u.Matrix(elem, x.Rank, nil, nil), nil
	case *typename.Pointer:
		elem, err := u.bindExpr(x.Elem, scope)
		if err != nil {
			return nil, err
		}
		return u.Pointer(elem), nil
	case *typename.ByRef:
		elem, err := u.bindExpr(x.Elem, scope)
		if err != nil {
			return nil, err
		}
		return u.ManagedPointer(elem), nil
	}
	return nil, fmt.Errorf("bind %T: %w", x, ErrTypeName)
}

// bindNamed binds a nesting chain. The arguments are distributed over the
// segments by their arities, outermost first, and each generic segment is
// instantiated before the next is nested in it.
func (u *Universe) bindNamed(n *typename.Named, args []TypeReference, scope identity.UnitIdentity) (TypeReference, error) {
	if n.Arity() != len(args) {
		return nil, fmt.Errorf("%d type arguments for generic arity %d: %w", len(args), n.Arity(), ErrTypeName)
	}
	var t TypeReference
	for i, seg := range n.Segments {
		if seg.Name == "" {
			return nil, fmt.Errorf("empty type name: %w", ErrTypeName)
		}
		if i == 0 {
			t = u.NamespaceTypeRef(scope, n.Namespace, seg.Name, seg.Arity)
		} else {
			t = u.NestedTypeRef(t, seg.Name, seg.Arity)
		}
		if seg.Arity > 0 {
			t = u.GenericInstance(t, args[:seg.Arity]...)
			args = args[seg.Arity:]
		}
	}
	return t, nil
}
