package types

import (
	"errors"
	"fmt"

	"github.com/you-not-fish/metaid/internal/intern"
)

var (
	// ErrParameterIndex reports a generic parameter whose index is out of
	// range of the arguments it is substituted from.
	ErrParameterIndex = errors.New("generic parameter index out of range")

	// ErrForeignMember reports a member that does not belong to the
	// template of the context it is specialized in.
	ErrForeignMember = errors.New("member does not belong to the generic context")
)

// SpecializationError describes a failed specialization.
type SpecializationError struct {
	Member  string
	Context string
	Err     error
}

func (e *SpecializationError) Error() string {
	return fmt.Sprintf("specialize %s in %s: %v", e.Member, e.Context, e.Err)
}

func (e *SpecializationError) Unwrap() error { return e.Err }

// Specialize returns m as a member of ctx, which must be a
// *GenericTypeInstance or a *SpecializedNestedType whose template defines
// m. A member that is already specialized is re-derived from its
// unspecialized version. Field and method references are resolved first.
func (u *Universe) Specialize(m Member, ctx TypeDefinition) (Member, error) {
	switch r := m.(type) {
	case *FieldRef:
		m = r.ResolvedField()
	case *MethodRef:
		m = r.ResolvedMethod()
	case *GenericMethodInstance:
		gm, err := u.Specialize(r.generic, ctx)
		if err != nil {
			return nil, err
		}
		args := make([]TypeReference, len(r.args))
		for i, a := range r.args {
			if args[i], err = u.substitute(a, ctx, nil); err != nil {
				return nil, err
			}
		}
		return u.GenericMethodInstance(gm.(Method), args...)
	}
	if u.fallbacks.IsFallback(m) {
		return m, nil
	}
	switch ctx.(type) {
	case *GenericTypeInstance, *SpecializedNestedType:
	default:
		return nil, &SpecializationError{
			Member:  describeMember(m),
			Context: ctx.String(),
			Err:     fmt.Errorf("%s is not a generic context: %w", ctx.Kind(), ErrForeignMember),
		}
	}
	return u.specializeMember(m, ctx)
}

// unspecialized returns the member as defined on its template.
func unspecialized(m Member) Member {
	switch m := m.(type) {
	case Field:
		return m.UnspecializedVersion()
	case Method:
		return m.UnspecializedVersion()
	case NestedType:
		return m.UnspecializedVersion()
	}
	return m
}

// specializeMember specializes m in ctx, caching the result per context.
func (u *Universe) specializeMember(m Member, ctx TypeDefinition) (Member, error) {
	base := unspecialized(m)
	set := contextMembers(ctx)
	if v, ok := set.specialized.Load(base); ok {
		return v.(Member), nil
	}
	tk := templateKey(ctx)
	if ck := base.ContainingType().InternedKey(); tk == intern.NoKey || ck != tk {
		return nil, &SpecializationError{Member: describeMember(base), Context: ctx.String(), Err: ErrForeignMember}
	}
	var (
		s   Member
		err error
	)
	switch b := base.(type) {
	case *FieldDef:
		s, err = u.newSpecializedField(b, ctx)
	case *MethodDef:
		s, err = u.newSpecializedMethod(b, ctx)
	case *NestedTypeDef:
		s = u.specializedNested(b, ctx)
	default:
		err = fmt.Errorf("unsupported %s: %w", memberKind(base), ErrForeignMember)
	}
	if err != nil {
		return nil, &SpecializationError{Member: describeMember(base), Context: ctx.String(), Err: err}
	}
	v, _ := set.specialized.LoadOrStore(base, s)
	return v.(Member), nil
}

func contextMembers(ctx TypeDefinition) *memberSet {
	switch c := ctx.(type) {
	case *GenericTypeInstance:
		return &c.members
	case *SpecializedNestedType:
		return &c.members
	}
	return nil
}

// templateKey returns the key of the definition whose generic parameters
// ctx binds, or NoKey if ctx is not a generic context.
func templateKey(ctx TypeDefinition) intern.Key {
	switch c := ctx.(type) {
	case *GenericTypeInstance:
		if s, ok := c.template().(*SpecializedNestedType); ok {
			return s.unspecialized.InternedKey()
		}
		return c.template().InternedKey()
	case *SpecializedNestedType:
		return c.unspecialized.InternedKey()
	}
	return intern.NoKey
}

// outer returns the next enclosing generic context of ctx, or nil.
func outer(ctx TypeDefinition) TypeDefinition {
	switch c := ctx.(type) {
	case *GenericTypeInstance:
		if s, ok := c.template().(*SpecializedNestedType); ok {
			return s
		}
	case *SpecializedNestedType:
		return c.container
	}
	return nil
}

// methodContext binds the generic parameters of owner to args.
type methodContext struct {
	owner Method
	args  []TypeReference
}

// substitute replaces the generic parameters bound by ctx and mc in t.
// Types that contain no bound parameter are returned unchanged.
func (u *Universe) substitute(t TypeReference, ctx TypeDefinition, mc *methodContext) (TypeReference, error) {
	switch t := t.(type) {
	case *GenericTypeParameter:
		return u.substituteTypeParam(t, ctx)

	case *GenericMethodParameter:
		if mc == nil || mc.owner != t.method {
			return t, nil
		}
		if t.index >= len(mc.args) {
			return nil, &SpecializationError{
				Member:  describeMember(mc.owner),
				Context: typeArgs(mc.args),
				Err:     fmt.Errorf("method parameter %d: %w", t.index, ErrParameterIndex),
			}
		}
		return mc.args[t.index], nil

	case *Vector:
		e, err := u.substitute(t.elem, ctx, mc)
		if err != nil || e == t.elem {
			return t, err
		}
		return u.Vector(e), nil

	case *Matrix:
		e, err := u.substitute(t.elem, ctx, mc)
		if err != nil || e == t.elem {
			return t, err
		}
		return u.Matrix(e, t.rank, t.sizes, t.lowerBounds), nil

	case *Pointer:
		e, err := u.substitute(t.target, ctx, mc)
		if err != nil || e == t.target {
			return t, err
		}
		return u.Pointer(e), nil

	case *ManagedPointer:
		e, err := u.substitute(t.target, ctx, mc)
		if err != nil || e == t.target {
			return t, err
		}
		return u.ManagedPointer(e), nil

	case *Modified:
		e, err := u.substitute(t.underlying, ctx, mc)
		if err != nil || e == t.underlying {
			return t, err
		}
		return u.Modified(e, t.mods...), nil

	case *FunctionPointer:
		ret, err := u.substitute(t.ret, ctx, mc)
		if err != nil {
			return nil, err
		}
		changed := ret != t.ret
		params, pc, err := u.substituteParams(t.params, ctx, mc)
		if err != nil {
			return nil, err
		}
		extra, ec, err := u.substituteParams(t.extra, ctx, mc)
		if err != nil {
			return nil, err
		}
		if !changed && !pc && !ec {
			return t, nil
		}
		return u.FunctionPointer(t.conv, ret, params, extra), nil

	case *GenericTypeInstance:
		gen, err := u.substitute(t.generic, ctx, mc)
		if err != nil {
			return nil, err
		}
		changed := gen != t.generic
		args := make([]TypeReference, len(t.args))
		for i, a := range t.args {
			if args[i], err = u.substitute(a, ctx, mc); err != nil {
				return nil, err
			}
			changed = changed || args[i] != a
		}
		if !changed {
			return t, nil
		}
		return u.GenericInstance(gen, args...), nil

	case *TypeRef:
		if t.container == nil {
			return t, nil
		}
		c, err := u.substitute(t.container, ctx, mc)
		if err != nil || c == t.container {
			return t, err
		}
		return u.NestedTypeRef(c, t.name, t.arity), nil

	case *NestedTypeDef:
		if s, ok := u.specializedContainer(t, ctx); ok {
			return s, nil
		}
		return t, nil

	case *SpecializedNestedType:
		c, err := u.substitute(t.container, ctx, mc)
		if err != nil || c == t.container {
			return t, err
		}
		if def, ok := c.(TypeDefinition); ok {
			return u.specializedNested(t.unspecialized, def), nil
		}
		return t, nil
	}
	return t, nil
}

func (u *Universe) substituteParams(ps []SignatureParam, ctx TypeDefinition, mc *methodContext) ([]SignatureParam, bool, error) {
	if len(ps) == 0 {
		return ps, false, nil
	}
	out := make([]SignatureParam, len(ps))
	changed := false
	for i, p := range ps {
		t, err := u.substitute(p.Type, ctx, mc)
		if err != nil {
			return nil, false, err
		}
		out[i] = SignatureParam{Type: t, ByRef: p.ByRef, Modifiers: p.Modifiers}
		changed = changed || t != p.Type
	}
	return out, changed, nil
}

// substituteTypeParam walks the context chain outward looking for the
// context that binds p. A nested type that does not inherit its
// container's generic parameters ends the walk.
func (u *Universe) substituteTypeParam(p *GenericTypeParameter, ctx TypeDefinition) (TypeReference, error) {
	owner := p.owner.InternedKey()
	if s, ok := p.owner.(*SpecializedNestedType); ok {
		owner = s.unspecialized.InternedKey()
	}
	if owner == intern.NoKey {
		return p, nil
	}
	for c := ctx; c != nil; {
		switch c := c.(type) {
		case *SpecializedNestedType:
			if c.unspecialized.InternedKey() == owner {
				if p.index >= len(c.params) {
					return nil, paramIndexError(p, c, len(c.params))
				}
				return c.params[p.index], nil
			}
			if c.unspecialized.DoesNotInheritGenericParameters() {
				return p, nil
			}
		case *GenericTypeInstance:
			if templateKey(c) == owner {
				if p.index >= len(c.args) {
					return nil, paramIndexError(p, c, len(c.args))
				}
				return c.args[p.index], nil
			}
		}
		c = outer(c)
	}
	return p, nil
}

func paramIndexError(p *GenericTypeParameter, ctx TypeDefinition, n int) error {
	return &SpecializationError{
		Member:  "generic parameter " + p.String() + " of " + p.owner.String(),
		Context: ctx.String(),
		Err:     fmt.Errorf("index %d of %d: %w", p.index, n, ErrParameterIndex),
	}
}

// specializedContainer returns the specialization of the nested type nd
// whose container is bound somewhere in the context chain.
func (u *Universe) specializedContainer(nd *NestedTypeDef, ctx TypeDefinition) (TypeDefinition, bool) {
	ck := nd.container.InternedKey()
	if ck == intern.NoKey || ctx == nil {
		return nil, false
	}
	for c := ctx; c != nil; c = outer(c) {
		if templateKey(c) == ck {
			return u.specializedNested(nd, c), true
		}
	}
	if parent, ok := nd.container.(*NestedTypeDef); ok {
		if pc, ok := u.specializedContainer(parent, ctx); ok {
			return u.specializedNested(nd, pc), true
		}
	}
	return nil, false
}
