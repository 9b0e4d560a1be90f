package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/you-not-fish/metaid/internal/intern"
)

// memberSet holds the members of a generic context, materialized on first
// use from the template's members.
type memberSet struct {
	once       sync.Once
	fields     []Field
	methods    []Method
	nested     []NestedType
	bases      []TypeReference
	ifaces     []TypeReference
	underlying TypeReference
	err        error

	// specialized maps an unspecialized member to its specialization in
	// this context.
	specialized sync.Map
}

// load specializes every member of template against ctx. A malformed
// parameter index in the template panics with a *SpecializationError, on
// the first use and on every use after it.
func (s *memberSet) load(u *Universe, ctx, template TypeDefinition) *memberSet {
	s.once.Do(func() { s.err = s.fill(u, ctx, template) })
	if s.err != nil {
		panic(s.err)
	}
	return s
}

func (s *memberSet) fill(u *Universe, ctx, template TypeDefinition) error {
	for _, f := range template.Fields() {
		m, err := u.specializeMember(f, ctx)
		if err != nil {
			return err
		}
		s.fields = append(s.fields, m.(Field))
	}
	for _, mt := range template.Methods() {
		m, err := u.specializeMember(mt, ctx)
		if err != nil {
			return err
		}
		s.methods = append(s.methods, m.(Method))
	}
	for _, n := range template.NestedTypes() {
		m, err := u.specializeMember(n, ctx)
		if err != nil {
			return err
		}
		s.nested = append(s.nested, m.(NestedType))
	}
	for _, b := range template.BaseClasses() {
		t, err := u.substitute(b, ctx, nil)
		if err != nil {
			return err
		}
		s.bases = append(s.bases, t)
	}
	for _, i := range template.Interfaces() {
		t, err := u.substitute(i, ctx, nil)
		if err != nil {
			return err
		}
		s.ifaces = append(s.ifaces, t)
	}
	s.underlying = template.UnderlyingType()
	return nil
}

// GenericTypeInstance is a generic type applied to type arguments.
type GenericTypeInstance struct {
	typeBase
	generic TypeReference
	args    []TypeReference
	key     intern.Key
	members memberSet
}

// GenericInstance returns the canonical instance of generic applied to
// args.
func (u *Universe) GenericInstance(generic TypeReference, args ...TypeReference) *GenericTypeInstance {
	build := func(key intern.Key) *GenericTypeInstance {
		g := &GenericTypeInstance{generic: generic, args: args, key: key}
		g.u = u
		return g
	}
	gk := generic.InternedKey()
	ak, ok := keysOf(args)
	if gk == intern.NoKey || !ok {
		return build(intern.NoKey)
	}
	key := u.table.GenericInstance(gk, ak)
	return canonical(u, key, func() *GenericTypeInstance { return build(key) })
}

func (*GenericTypeInstance) aTypeDefinition() {}

// Kind implements TypeReference.
func (*GenericTypeInstance) Kind() TypeKind { return GenericInstanceKind }

// GenericType returns the instantiated generic type.
func (g *GenericTypeInstance) GenericType() TypeReference { return g.generic }

// GenericArguments returns the type arguments in order.
func (g *GenericTypeInstance) GenericArguments() []TypeReference { return g.args }

// InternedKey implements TypeReference.
func (g *GenericTypeInstance) InternedKey() intern.Key { return g.key }

// template returns the definition whose members the instance specializes.
func (g *GenericTypeInstance) template() TypeDefinition { return g.generic.ResolvedType() }

func (g *GenericTypeInstance) load() *memberSet {
	return g.members.load(g.u, g, g.template())
}

// GenericParameters implements TypeDefinition. An instance has none.
func (*GenericTypeInstance) GenericParameters() []*GenericTypeParameter { return nil }

// Fields implements TypeDefinition.
func (g *GenericTypeInstance) Fields() []Field { return g.load().fields }

// Methods implements TypeDefinition.
func (g *GenericTypeInstance) Methods() []Method { return g.load().methods }

// NestedTypes implements TypeDefinition.
func (g *GenericTypeInstance) NestedTypes() []NestedType { return g.load().nested }

// BaseClasses implements TypeDefinition.
func (g *GenericTypeInstance) BaseClasses() []TypeReference { return g.load().bases }

// Interfaces implements TypeDefinition.
func (g *GenericTypeInstance) Interfaces() []TypeReference { return g.load().ifaces }

// IsValueType implements TypeDefinition.
func (g *GenericTypeInstance) IsValueType() bool { return g.template().IsValueType() }

// IsInterface implements TypeDefinition.
func (g *GenericTypeInstance) IsInterface() bool { return g.template().IsInterface() }

// IsEnum implements TypeDefinition.
func (g *GenericTypeInstance) IsEnum() bool { return g.template().IsEnum() }

// UnderlyingType implements TypeDefinition.
func (g *GenericTypeInstance) UnderlyingType() TypeReference { return g.load().underlying }

// ResolvedType implements TypeReference.
func (g *GenericTypeInstance) ResolvedType() TypeDefinition { return g }

// String returns "Generic<Arg1,Arg2>".
func (g *GenericTypeInstance) String() string {
	return g.generic.String() + typeArgs(g.args)
}

func typeArgs(args []TypeReference) string {
	var buf strings.Builder
	buf.WriteString("<")
	for i, a := range args {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(a.String())
	}
	buf.WriteString(">")
	return buf.String()
}

// GenericMethodInstance is a generic method applied to type arguments.
type GenericMethodInstance struct {
	entity
	generic Method
	args    []TypeReference
	key     intern.Key

	once   sync.Once
	params []*Parameter
	ret    TypeReference
	err    error
}

// GenericMethodInstance returns the instance of the generic method m
// applied to args. The number of arguments must match m's generic
// parameters.
func (u *Universe) GenericMethodInstance(m Method, args ...TypeReference) (*GenericMethodInstance, error) {
	if n := len(m.GenericParameters()); n == 0 || n != len(args) {
		return nil, &SpecializationError{
			Member:  describeMember(m),
			Context: typeArgs(args),
			Err:     fmt.Errorf("%d arguments for %d generic parameters: %w", len(args), n, ErrParameterIndex),
		}
	}
	gi := &GenericMethodInstance{entity: entity{u: u}, generic: m, args: args}
	mk := m.InternedKey()
	if ak, ok := keysOf(args); ok && mk != intern.NoKey {
		gi.key = u.table.GenericMethodInstance(mk, ak)
	}
	return gi, nil
}

func (*GenericMethodInstance) aMember() {}

// GenericMethod returns the instantiated generic method.
func (gi *GenericMethodInstance) GenericMethod() Method { return gi.generic }

// GenericArguments returns the type arguments in order.
func (gi *GenericMethodInstance) GenericArguments() []TypeReference { return gi.args }

// Name returns the method name.
func (gi *GenericMethodInstance) Name() string { return gi.generic.Name() }

// ContainingType implements Member.
func (gi *GenericMethodInstance) ContainingType() TypeDefinition { return gi.generic.ContainingType() }

// GenericParameters implements Method. An instance has none.
func (*GenericMethodInstance) GenericParameters() []*GenericMethodParameter { return nil }

func (gi *GenericMethodInstance) load() {
	gi.once.Do(func() { gi.err = gi.fill() })
	if gi.err != nil {
		panic(gi.err)
	}
}

func (gi *GenericMethodInstance) fill() error {
	mc := &methodContext{owner: gi.generic, args: gi.args}
	ret, err := gi.u.substitute(gi.generic.ReturnType(), nil, mc)
	if err != nil {
		return err
	}
	gi.ret = ret
	for i, p := range gi.generic.Parameters() {
		t, err := gi.u.substitute(p.typ, nil, mc)
		if err != nil {
			return err
		}
		gi.params = append(gi.params, newParameter(gi.u, gi, i, p.name, t, p.byRef, p.mods))
	}
	return nil
}

// Parameters implements Method.
func (gi *GenericMethodInstance) Parameters() []*Parameter {
	gi.load()
	return gi.params
}

// ReturnType implements Method.
func (gi *GenericMethodInstance) ReturnType() TypeReference {
	gi.load()
	return gi.ret
}

// CallingConvention implements Method.
func (gi *GenericMethodInstance) CallingConvention() CallingConvention {
	return gi.generic.CallingConvention()
}

func (gi *GenericMethodInstance) IsStatic() bool   { return gi.generic.IsStatic() }
func (gi *GenericMethodInstance) IsVirtual() bool  { return gi.generic.IsVirtual() }
func (gi *GenericMethodInstance) IsAbstract() bool { return gi.generic.IsAbstract() }

// UnspecializedVersion implements Method.
func (gi *GenericMethodInstance) UnspecializedVersion() Method {
	return gi.generic.UnspecializedVersion()
}

// InternedKey implements Member.
func (gi *GenericMethodInstance) InternedKey() intern.Key { return gi.key }

// String returns the generic method followed by its arguments.
func (gi *GenericMethodInstance) String() string {
	return gi.generic.ContainingType().String() + "::" + gi.generic.Name() + typeArgs(gi.args)
}
