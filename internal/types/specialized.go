package types

import "github.com/you-not-fish/metaid/internal/intern"

// SpecializedField is a field of a generic context whose type has the
// context's arguments substituted.
type SpecializedField struct {
	entity
	unspecialized *FieldDef
	container     TypeDefinition
	typ           TypeReference
	key           lazyKey
}

func (u *Universe) newSpecializedField(f *FieldDef, ctx TypeDefinition) (*SpecializedField, error) {
	typ, err := u.substitute(f.typ, ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SpecializedField{entity: entity{u: u}, unspecialized: f, container: ctx, typ: typ}, nil
}

func (*SpecializedField) aMember() {}

// Name returns the field name.
func (f *SpecializedField) Name() string { return f.unspecialized.name }

// ContainingType implements Member.
func (f *SpecializedField) ContainingType() TypeDefinition { return f.container }

// Type returns the specialized field type.
func (f *SpecializedField) Type() TypeReference { return f.typ }

func (f *SpecializedField) IsStatic() bool        { return f.unspecialized.IsStatic() }
func (f *SpecializedField) IsLiteral() bool       { return f.unspecialized.IsLiteral() }
func (f *SpecializedField) IsReadOnly() bool      { return f.unspecialized.IsReadOnly() }
func (f *SpecializedField) IsNotSerialized() bool { return f.unspecialized.IsNotSerialized() }

// UnspecializedVersion implements Field.
func (f *SpecializedField) UnspecializedVersion() Field { return f.unspecialized }

// Attributes implements HasAttributes.
func (f *SpecializedField) Attributes() []*CustomAttribute { return f.unspecialized.attrs }

// InternedKey implements Member. The key is that of a reference to the
// field through the specialized container.
func (f *SpecializedField) InternedKey() intern.Key {
	return f.key.get(&f.entity, func() intern.Key {
		return f.u.keys.field(f.container.InternedKey(), f.unspecialized.name, f.unspecialized.typ.InternedKey())
	})
}

// String returns "Container::name".
func (f *SpecializedField) String() string {
	return f.container.String() + "::" + f.unspecialized.name
}

// SpecializedMethod is a method of a generic context. Its signature has the
// context's arguments substituted, and it declares its own copies of the
// template's generic method parameters.
type SpecializedMethod struct {
	entity
	unspecialized *MethodDef
	container     TypeDefinition
	gparams       []*GenericMethodParameter
	params        []*Parameter
	ret           TypeReference
	key           lazyKey
}

func (u *Universe) newSpecializedMethod(m *MethodDef, ctx TypeDefinition) (*SpecializedMethod, error) {
	s := &SpecializedMethod{entity: entity{u: u}, unspecialized: m, container: ctx}
	mc := &methodContext{owner: m}
	for i, p := range m.gparams {
		gp := newGenericMethodParameter(u, s, i, p.name)
		s.gparams = append(s.gparams, gp)
		mc.args = append(mc.args, gp)
	}
	var err error
	if s.ret, err = u.substitute(m.ReturnType(), ctx, mc); err != nil {
		return nil, err
	}
	for i, p := range m.params {
		t, err := u.substitute(p.typ, ctx, mc)
		if err != nil {
			return nil, err
		}
		s.params = append(s.params, newParameter(u, s, i, p.name, t, p.byRef, p.mods))
	}
	return s, nil
}

func (*SpecializedMethod) aMember() {}

// Name returns the method name.
func (m *SpecializedMethod) Name() string { return m.unspecialized.name }

// ContainingType implements Member.
func (m *SpecializedMethod) ContainingType() TypeDefinition { return m.container }

// GenericParameters implements Method.
func (m *SpecializedMethod) GenericParameters() []*GenericMethodParameter { return m.gparams }

// Parameters implements Method.
func (m *SpecializedMethod) Parameters() []*Parameter { return m.params }

// ReturnType implements Method.
func (m *SpecializedMethod) ReturnType() TypeReference { return m.ret }

// CallingConvention implements Method.
func (m *SpecializedMethod) CallingConvention() CallingConvention { return m.unspecialized.conv }

func (m *SpecializedMethod) IsStatic() bool   { return m.unspecialized.IsStatic() }
func (m *SpecializedMethod) IsVirtual() bool  { return m.unspecialized.IsVirtual() }
func (m *SpecializedMethod) IsAbstract() bool { return m.unspecialized.IsAbstract() }

// UnspecializedVersion implements Method.
func (m *SpecializedMethod) UnspecializedVersion() Method { return m.unspecialized }

// Attributes implements HasAttributes.
func (m *SpecializedMethod) Attributes() []*CustomAttribute { return m.unspecialized.attrs }

// InternedKey implements Member. The signature part of the key is the
// template's, so the key does not depend on the fresh parameters.
func (m *SpecializedMethod) InternedKey() intern.Key {
	return m.key.get(&m.entity, func() intern.Key {
		return m.u.methodKey(m.container.InternedKey(), m.unspecialized)
	})
}

// String implements Member.
func (m *SpecializedMethod) String() string { return methodString(m) }

// SpecializedNestedType is a nested type of a generic context. Its
// ContainingType is the context, not the template's container.
type SpecializedNestedType struct {
	typeBase
	unspecialized *NestedTypeDef
	container     TypeDefinition
	params        []*GenericTypeParameter
	key           intern.Key
	members       memberSet
}

// specializedNested returns the canonical specialization of nd in
// container.
func (u *Universe) specializedNested(nd *NestedTypeDef, container TypeDefinition) *SpecializedNestedType {
	build := func(key intern.Key) *SpecializedNestedType {
		s := &SpecializedNestedType{unspecialized: nd, container: container, key: key}
		s.u = u
		for i, p := range nd.params {
			s.params = append(s.params, newGenericTypeParameter(u, s, i, p.name))
		}
		return s
	}
	ck := container.InternedKey()
	if ck == intern.NoKey {
		return build(intern.NoKey)
	}
	key := u.table.NestedType(ck, nd.name, len(nd.params))
	return canonical(u, key, func() *SpecializedNestedType { return build(key) })
}

func (*SpecializedNestedType) aTypeDefinition() {}
func (*SpecializedNestedType) aMember()         {}

// Kind implements TypeReference.
func (*SpecializedNestedType) Kind() TypeKind { return SpecializedNestedKind }

// Name returns the unmangled type name.
func (s *SpecializedNestedType) Name() string { return s.unspecialized.name }

// GenericParameterCount returns the number of generic parameters.
func (s *SpecializedNestedType) GenericParameterCount() int { return len(s.params) }

// ContainingType implements Member.
func (s *SpecializedNestedType) ContainingType() TypeDefinition { return s.container }

// DoesNotInheritGenericParameters implements NestedType.
func (s *SpecializedNestedType) DoesNotInheritGenericParameters() bool {
	return s.unspecialized.DoesNotInheritGenericParameters()
}

// UnspecializedVersion implements NestedType.
func (s *SpecializedNestedType) UnspecializedVersion() NestedType { return s.unspecialized }

// InternedKey implements TypeReference.
func (s *SpecializedNestedType) InternedKey() intern.Key { return s.key }

func (s *SpecializedNestedType) load() *memberSet {
	return s.members.load(s.u, s, s.unspecialized)
}

// GenericParameters implements TypeDefinition.
func (s *SpecializedNestedType) GenericParameters() []*GenericTypeParameter { return s.params }

// Fields implements TypeDefinition.
func (s *SpecializedNestedType) Fields() []Field { return s.load().fields }

// Methods implements TypeDefinition.
func (s *SpecializedNestedType) Methods() []Method { return s.load().methods }

// NestedTypes implements TypeDefinition.
func (s *SpecializedNestedType) NestedTypes() []NestedType { return s.load().nested }

// BaseClasses implements TypeDefinition.
func (s *SpecializedNestedType) BaseClasses() []TypeReference { return s.load().bases }

// Interfaces implements TypeDefinition.
func (s *SpecializedNestedType) Interfaces() []TypeReference { return s.load().ifaces }

// IsValueType implements TypeDefinition.
func (s *SpecializedNestedType) IsValueType() bool { return s.unspecialized.IsValueType() }

// IsInterface implements TypeDefinition.
func (s *SpecializedNestedType) IsInterface() bool { return s.unspecialized.IsInterface() }

// IsEnum implements TypeDefinition.
func (s *SpecializedNestedType) IsEnum() bool { return s.unspecialized.IsEnum() }

// UnderlyingType implements TypeDefinition.
func (s *SpecializedNestedType) UnderlyingType() TypeReference { return s.load().underlying }

// Attributes implements HasAttributes.
func (s *SpecializedNestedType) Attributes() []*CustomAttribute { return s.unspecialized.attrs }

// ResolvedType implements TypeReference.
func (s *SpecializedNestedType) ResolvedType() TypeDefinition { return s }

// String returns the container-qualified mangled name.
func (s *SpecializedNestedType) String() string {
	return s.container.String() + "+" + mangle(s.unspecialized.name, len(s.params))
}
