package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/you-not-fish/metaid/internal/intern"
)

// Member is a field, method, or nested type of a type definition.
type Member interface {
	NamedEntity
	ContainingType() TypeDefinition
	InternedKey() intern.Key
	Universe() *Universe
	String() string
	aMember()
}

// Field is a field definition or a specialization of one.
type Field interface {
	Member
	Type() TypeReference
	IsStatic() bool
	IsLiteral() bool
	IsReadOnly() bool
	IsNotSerialized() bool

	// UnspecializedVersion returns the field as defined on the generic
	// template, or the field itself.
	UnspecializedVersion() Field
}

// Method is a method definition, a specialization of one, or a generic
// method instance.
type Method interface {
	Member
	GenericParameters() []*GenericMethodParameter
	Parameters() []*Parameter
	ReturnType() TypeReference
	CallingConvention() CallingConvention
	IsStatic() bool
	IsVirtual() bool
	IsAbstract() bool

	// UnspecializedVersion returns the method as defined on the generic
	// template, or the method itself.
	UnspecializedVersion() Method
}

// NestedType is a nested type definition or a specialization of one.
type NestedType interface {
	TypeDefinition
	Member
	DoesNotInheritGenericParameters() bool

	// UnspecializedVersion returns the nested type as defined on the
	// generic template, or the type itself.
	UnspecializedVersion() NestedType
}

// FieldFlags describe a field.
type FieldFlags uint32

const (
	StaticField FieldFlags = 1 << iota
	LiteralField
	ReadOnlyField
	NotSerializedField
)

// MethodFlags describe a method.
type MethodFlags uint32

const (
	StaticMethod MethodFlags = 1 << iota
	VirtualMethod
	AbstractMethod
)

// CallingConvention is the calling convention byte of a signature.
type CallingConvention uint8

const (
	DefaultCall  CallingConvention = 0x00
	CCall        CallingConvention = 0x01
	StdCall      CallingConvention = 0x02
	ThisCall     CallingConvention = 0x03
	FastCall     CallingConvention = 0x04
	VarArgCall   CallingConvention = 0x05
	GenericCall  CallingConvention = 0x10
	HasThis      CallingConvention = 0x20
	ExplicitThis CallingConvention = 0x40
)

// FieldDef is a field defined on a type.
type FieldDef struct {
	entity
	container TypeDefinition
	name      string
	typ       TypeReference
	flags     FieldFlags
	attrs     []*CustomAttribute
	key       lazyKey
}

func newFieldDef(u *Universe, container TypeDefinition, name string, typ TypeReference, flags FieldFlags) *FieldDef {
	if typ == nil {
		typ = u.fallbacks.TypeReference
	}
	return &FieldDef{entity: entity{u: u}, container: container, name: name, typ: typ, flags: flags}
}

func (*FieldDef) aMember() {}

// Name returns the field name.
func (f *FieldDef) Name() string { return f.name }

// ContainingType implements Member.
func (f *FieldDef) ContainingType() TypeDefinition { return f.container }

// Type returns the field type.
func (f *FieldDef) Type() TypeReference { return f.typ }

// Flags returns the field flags.
func (f *FieldDef) Flags() FieldFlags { return f.flags }

func (f *FieldDef) IsStatic() bool        { return f.flags&StaticField != 0 }
func (f *FieldDef) IsLiteral() bool       { return f.flags&LiteralField != 0 }
func (f *FieldDef) IsReadOnly() bool      { return f.flags&ReadOnlyField != 0 }
func (f *FieldDef) IsNotSerialized() bool { return f.flags&NotSerializedField != 0 }

// UnspecializedVersion implements Field.
func (f *FieldDef) UnspecializedVersion() Field { return f }

// Attributes implements HasAttributes.
func (f *FieldDef) Attributes() []*CustomAttribute { return f.attrs }

// AddAttribute attaches an attribute.
func (f *FieldDef) AddAttribute(a *CustomAttribute) { f.attrs = append(f.attrs, a) }

// InternedKey implements Member.
func (f *FieldDef) InternedKey() intern.Key {
	return f.key.get(&f.entity, func() intern.Key {
		return f.u.keys.field(f.container.InternedKey(), f.name, f.typ.InternedKey())
	})
}

// String returns "Container::name".
func (f *FieldDef) String() string {
	return f.container.String() + "::" + f.name
}

// MethodDef is a method defined on a type.
type MethodDef struct {
	entity
	container TypeDefinition
	name      string
	gparams   []*GenericMethodParameter
	params    []*Parameter
	ret       TypeReference
	conv      CallingConvention
	flags     MethodFlags
	attrs     []*CustomAttribute
	key       lazyKey
}

func newMethodDef(u *Universe, container TypeDefinition, name string, genericParams []string) *MethodDef {
	m := &MethodDef{entity: entity{u: u}, container: container, name: name}
	for i, p := range genericParams {
		m.gparams = append(m.gparams, newGenericMethodParameter(u, m, i, p))
	}
	if len(genericParams) > 0 {
		m.conv = GenericCall
	}
	return m
}

func (*MethodDef) aMember() {}

// Name returns the method name.
func (m *MethodDef) Name() string { return m.name }

// ContainingType implements Member.
func (m *MethodDef) ContainingType() TypeDefinition { return m.container }

// GenericParameters implements Method.
func (m *MethodDef) GenericParameters() []*GenericMethodParameter { return m.gparams }

// Parameters implements Method.
func (m *MethodDef) Parameters() []*Parameter { return m.params }

// ReturnType implements Method. A method without a return type set
// returns the fallback reference.
func (m *MethodDef) ReturnType() TypeReference {
	if m.ret == nil {
		return m.u.fallbacks.TypeReference
	}
	return m.ret
}

// CallingConvention implements Method.
func (m *MethodDef) CallingConvention() CallingConvention { return m.conv }

// Flags returns the method flags.
func (m *MethodDef) Flags() MethodFlags { return m.flags }

func (m *MethodDef) IsStatic() bool   { return m.flags&StaticMethod != 0 }
func (m *MethodDef) IsVirtual() bool  { return m.flags&VirtualMethod != 0 }
func (m *MethodDef) IsAbstract() bool { return m.flags&AbstractMethod != 0 }

// UnspecializedVersion implements Method.
func (m *MethodDef) UnspecializedVersion() Method { return m }

// SetFlags replaces the method flags. Instance methods get the HasThis
// calling convention bit.
func (m *MethodDef) SetFlags(f MethodFlags) {
	m.flags = f
	if f&StaticMethod == 0 {
		m.conv |= HasThis
	} else {
		m.conv &^= HasThis
	}
}

// SetCallingConvention replaces the calling convention.
func (m *MethodDef) SetCallingConvention(c CallingConvention) { m.conv = c }

// SetReturnType sets the return type.
func (m *MethodDef) SetReturnType(t TypeReference) { m.ret = t }

// AddParameter appends a parameter.
func (m *MethodDef) AddParameter(name string, typ TypeReference, byRef bool, mods ...*CustomModifier) *Parameter {
	p := newParameter(m.u, m, len(m.params), name, typ, byRef, mods)
	m.params = append(m.params, p)
	return p
}

// Attributes implements HasAttributes.
func (m *MethodDef) Attributes() []*CustomAttribute { return m.attrs }

// AddAttribute attaches an attribute.
func (m *MethodDef) AddAttribute(a *CustomAttribute) { m.attrs = append(m.attrs, a) }

// InternedKey implements Member.
func (m *MethodDef) InternedKey() intern.Key {
	return m.key.get(&m.entity, func() intern.Key {
		return m.u.methodKey(m.container.InternedKey(), m)
	})
}

// String implements Member.
func (m *MethodDef) String() string { return methodString(m) }

func methodString(m Method) string {
	var buf strings.Builder
	buf.WriteString(m.ReturnType().String())
	buf.WriteString(" ")
	buf.WriteString(m.ContainingType().String())
	buf.WriteString("::")
	buf.WriteString(m.Name())
	if gps := m.GenericParameters(); len(gps) > 0 {
		buf.WriteString("<")
		for i, p := range gps {
			if i > 0 {
				buf.WriteString(",")
			}
			buf.WriteString(p.String())
		}
		buf.WriteString(">")
	}
	buf.WriteString("(")
	for i, p := range m.Parameters() {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p.String())
	}
	buf.WriteString(")")
	return buf.String()
}

// methodKey interns m's signature over container. Occurrences of m's own
// generic parameters are keyed as method type variables.
func (u *Universe) methodKey(container intern.Key, m Method) intern.Key {
	if container == intern.NoKey {
		return intern.NoKey
	}
	slots := make([]TypeReference, len(m.GenericParameters()))
	for i := range slots {
		slots[i] = u.MethodTypeVar(i)
	}
	mc := &methodContext{owner: m, args: slots}
	ret, err := u.substitute(m.ReturnType(), nil, mc)
	if err != nil {
		return intern.NoKey
	}
	params := make([]SignatureParam, len(m.Parameters()))
	for i, p := range m.Parameters() {
		t, err := u.substitute(p.typ, nil, mc)
		if err != nil {
			return intern.NoKey
		}
		params[i] = SignatureParam{Type: t, ByRef: p.byRef, Modifiers: p.mods}
	}
	sig, ok := u.keys.signature(m.CallingConvention(), ret, false, nil, params, nil)
	if !ok {
		return intern.NoKey
	}
	return u.table.Method(intern.MethodShape{
		Containing:   container,
		Name:         m.Name(),
		GenericArity: len(m.GenericParameters()),
		Signature:    sig,
	})
}

// Parameter is a parameter of a method signature.
type Parameter struct {
	entity
	method Method
	index  int
	name   string
	typ    TypeReference
	byRef  bool
	mods   []*CustomModifier
}

func newParameter(u *Universe, m Method, index int, name string, typ TypeReference, byRef bool, mods []*CustomModifier) *Parameter {
	if typ == nil {
		typ = u.fallbacks.TypeReference
	}
	return &Parameter{entity: entity{u: u}, method: m, index: index, name: name, typ: typ, byRef: byRef, mods: mods}
}

// ContainingSignature returns the method the parameter belongs to.
func (p *Parameter) ContainingSignature() Method { return p.method }

// Index returns the zero-based position of the parameter.
func (p *Parameter) Index() int { return p.index }

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Type returns the parameter type.
func (p *Parameter) Type() TypeReference { return p.typ }

// IsByReference reports whether the parameter is passed by reference.
func (p *Parameter) IsByReference() bool { return p.byRef }

// CustomModifiers returns the parameter's custom modifiers.
func (p *Parameter) CustomModifiers() []*CustomModifier { return p.mods }

// String returns "Type name", with & for by-reference parameters.
func (p *Parameter) String() string {
	s := p.typ.String()
	if p.byRef {
		s += "&"
	}
	if p.name != "" {
		s += " " + p.name
	}
	return s
}

// GenericTypeParameter is a generic parameter of a type definition.
type GenericTypeParameter struct {
	structural
	owner TypeDefinition
	index int
	name  string
	key   lazyKey
}

func newGenericTypeParameter(u *Universe, owner TypeDefinition, index int, name string) *GenericTypeParameter {
	p := &GenericTypeParameter{owner: owner, index: index, name: name}
	p.u = u
	return p
}

// Kind implements TypeReference.
func (*GenericTypeParameter) Kind() TypeKind { return GenericTypeParamKind }

// Name returns the parameter name.
func (p *GenericTypeParameter) Name() string { return p.name }

// Index returns the position of the parameter.
func (p *GenericTypeParameter) Index() int { return p.index }

// DefiningType returns the type that declares the parameter.
func (p *GenericTypeParameter) DefiningType() TypeDefinition { return p.owner }

// InternedKey implements TypeReference.
func (p *GenericTypeParameter) InternedKey() intern.Key {
	return p.key.get(&p.entity, func() intern.Key {
		return p.u.keys.genericTypeParam(p.owner.InternedKey(), p.index)
	})
}

// ResolvedType implements TypeReference.
func (p *GenericTypeParameter) ResolvedType() TypeDefinition { return p }

// String returns the parameter name, or !index if it has none.
func (p *GenericTypeParameter) String() string {
	if p.name != "" {
		return p.name
	}
	return "!" + strconv.Itoa(p.index)
}

// GenericMethodParameter is a generic parameter of a method.
type GenericMethodParameter struct {
	structural
	method Method
	index  int
	name   string
	key    lazyKey
}

func newGenericMethodParameter(u *Universe, m Method, index int, name string) *GenericMethodParameter {
	p := &GenericMethodParameter{method: m, index: index, name: name}
	p.u = u
	return p
}

// Kind implements TypeReference.
func (*GenericMethodParameter) Kind() TypeKind { return GenericMethodParamKind }

// Name returns the parameter name.
func (p *GenericMethodParameter) Name() string { return p.name }

// Index returns the position of the parameter.
func (p *GenericMethodParameter) Index() int { return p.index }

// DefiningMethod returns the method that declares the parameter.
func (p *GenericMethodParameter) DefiningMethod() Method { return p.method }

// InternedKey implements TypeReference.
func (p *GenericMethodParameter) InternedKey() intern.Key {
	return p.key.get(&p.entity, func() intern.Key {
		return p.u.keys.genericMethodParam(p.method.InternedKey(), p.index)
	})
}

// ResolvedType implements TypeReference.
func (p *GenericMethodParameter) ResolvedType() TypeDefinition { return p }

// String returns the parameter name, or !!index if it has none.
func (p *GenericMethodParameter) String() string {
	if p.name != "" {
		return p.name
	}
	return "!!" + strconv.Itoa(p.index)
}

// MethodTypeVar is a positional method type variable as it appears in a
// method reference signature, not bound to any particular method.
type MethodTypeVar struct {
	structural
	index int
	key   intern.Key
}

// MethodTypeVar returns the canonical method type variable at index.
func (u *Universe) MethodTypeVar(index int) *MethodTypeVar {
	key := u.table.MethodTypeVar(index)
	return canonical(u, key, func() *MethodTypeVar {
		v := &MethodTypeVar{index: index, key: key}
		v.u = u
		return v
	})
}

// Kind implements TypeReference.
func (*MethodTypeVar) Kind() TypeKind { return MethodTypeVarKind }

// Index returns the position of the variable.
func (v *MethodTypeVar) Index() int { return v.index }

// InternedKey implements TypeReference.
func (v *MethodTypeVar) InternedKey() intern.Key { return v.key }

// ResolvedType implements TypeReference.
func (v *MethodTypeVar) ResolvedType() TypeDefinition { return v }

// String returns !!index.
func (v *MethodTypeVar) String() string { return "!!" + strconv.Itoa(v.index) }

// describeMember is used in error messages.
func describeMember(m Member) string {
	return fmt.Sprintf("%s %s", memberKind(m), m)
}

func memberKind(m Member) string {
	switch m.(type) {
	case Field:
		return "field"
	case Method:
		return "method"
	case NestedType:
		return "nested type"
	}
	return "member"
}
