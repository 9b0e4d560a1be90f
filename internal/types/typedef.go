package types

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/metaid/internal/intern"
)

// TypeFlags describe a type definition.
type TypeFlags uint32

const (
	ValueType TypeFlags = 1 << iota
	InterfaceType
	EnumType
	Sealed
	Abstract

	// DoesNotInheritGenericParameters marks a nested type whose generic
	// parameters are independent of its container's.
	DoesNotInheritGenericParameters
)

// mangle returns name with a generic arity suffix.
func mangle(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "`" + strconv.Itoa(arity)
}

// typeDef holds the state shared by namespace and nested type definitions.
type typeDef struct {
	typeBase
	self TypeDefinition

	name       string
	params     []*GenericTypeParameter
	flags      TypeFlags
	fields     []Field
	methods    []Method
	nested     []NestedType
	nestedBy   map[typeName]*NestedTypeDef
	bases      []TypeReference
	ifaces     []TypeReference
	underlying TypeReference
	attrs      []*CustomAttribute
	locs       []Location
	key        lazyKey
}

func (d *typeDef) init(u *Universe, self TypeDefinition, name string, params []string) {
	d.u = u
	d.self = self
	d.name = name
	d.nestedBy = make(map[typeName]*NestedTypeDef)
	for i, p := range params {
		d.params = append(d.params, newGenericTypeParameter(u, self, i, p))
	}
}

func (typeDef) aTypeDefinition() {}

// Name returns the unmangled type name.
func (d *typeDef) Name() string { return d.name }

// GenericParameterCount returns the number of generic parameters.
func (d *typeDef) GenericParameterCount() int { return len(d.params) }

// GenericParameters implements TypeDefinition.
func (d *typeDef) GenericParameters() []*GenericTypeParameter { return d.params }

// Fields implements TypeDefinition.
func (d *typeDef) Fields() []Field { return d.fields }

// Methods implements TypeDefinition.
func (d *typeDef) Methods() []Method { return d.methods }

// NestedTypes implements TypeDefinition.
func (d *typeDef) NestedTypes() []NestedType { return d.nested }

// BaseClasses implements TypeDefinition.
func (d *typeDef) BaseClasses() []TypeReference { return d.bases }

// Interfaces implements TypeDefinition.
func (d *typeDef) Interfaces() []TypeReference { return d.ifaces }

// Flags returns the type flags.
func (d *typeDef) Flags() TypeFlags { return d.flags }

// SetFlags replaces the type flags.
func (d *typeDef) SetFlags(f TypeFlags) { d.flags = f }

// IsValueType implements TypeDefinition.
func (d *typeDef) IsValueType() bool { return d.flags&(ValueType|EnumType) != 0 }

// IsInterface implements TypeDefinition.
func (d *typeDef) IsInterface() bool { return d.flags&InterfaceType != 0 }

// IsEnum implements TypeDefinition.
func (d *typeDef) IsEnum() bool { return d.flags&EnumType != 0 }

// UnderlyingType implements TypeDefinition.
func (d *typeDef) UnderlyingType() TypeReference {
	if d.underlying == nil {
		return d.u.fallbacks.TypeReference
	}
	return d.underlying
}

// SetUnderlyingType sets the underlying integral type of an enum.
func (d *typeDef) SetUnderlyingType(t TypeReference) { d.underlying = t }

// AddBaseClass appends a base class.
func (d *typeDef) AddBaseClass(t TypeReference) { d.bases = append(d.bases, t) }

// AddInterface appends an implemented interface.
func (d *typeDef) AddInterface(t TypeReference) { d.ifaces = append(d.ifaces, t) }

// Attributes implements HasAttributes.
func (d *typeDef) Attributes() []*CustomAttribute { return d.attrs }

// AddAttribute attaches an attribute.
func (d *typeDef) AddAttribute(a *CustomAttribute) { d.attrs = append(d.attrs, a) }

// Locations implements HasLocations.
func (d *typeDef) Locations() []Location { return d.locs }

// AddLocation records where the definition was read from.
func (d *typeDef) AddLocation(l Location) { d.locs = append(d.locs, l) }

// NewField defines a field of type typ.
func (d *typeDef) NewField(name string, typ TypeReference, flags FieldFlags) (*FieldDef, error) {
	for _, f := range d.fields {
		if f.Name() == name {
			return nil, fmt.Errorf("field %s in %s: %w", name, d.self, ErrDuplicateType)
		}
	}
	f := newFieldDef(d.u, d.self, name, typ, flags)
	d.fields = append(d.fields, f)
	return f, nil
}

// NewMethod defines a method with the given generic parameter names. Its
// signature is set through the returned definition.
func (d *typeDef) NewMethod(name string, genericParams ...string) *MethodDef {
	m := newMethodDef(d.u, d.self, name, genericParams)
	d.methods = append(d.methods, m)
	return m
}

// NewNestedType defines a type nested in this one.
func (d *typeDef) NewNestedType(name string, genericParams ...string) (*NestedTypeDef, error) {
	k := typeName{name, len(genericParams)}
	if _, ok := d.nestedBy[k]; ok {
		return nil, fmt.Errorf("nested type %s in %s: %w", mangle(name, k.arity), d.self, ErrDuplicateType)
	}
	n := &NestedTypeDef{container: d.self}
	n.init(d.u, n, name, genericParams)
	d.nestedBy[k] = n
	d.nested = append(d.nested, n)
	return n, nil
}

// LookupNestedType returns the nested type called name with arity generic
// parameters.
func (d *typeDef) LookupNestedType(name string, arity int) (*NestedTypeDef, bool) {
	n, ok := d.nestedBy[typeName{name, arity}]
	return n, ok
}

// NamespaceTypeDef is a type defined directly in a namespace.
type NamespaceTypeDef struct {
	typeDef
	ns *Namespace
}

func newNamespaceTypeDef(ns *Namespace, name string, params []string) *NamespaceTypeDef {
	t := &NamespaceTypeDef{ns: ns}
	t.init(ns.u, t, name, params)
	return t
}

// Kind implements TypeReference.
func (*NamespaceTypeDef) Kind() TypeKind { return NamespaceTypeKind }

// ContainingNamespace returns the namespace the type is defined in.
func (t *NamespaceTypeDef) ContainingNamespace() *Namespace { return t.ns }

// InternedKey implements TypeReference.
func (t *NamespaceTypeDef) InternedKey() intern.Key {
	return t.key.get(&t.entity, func() intern.Key {
		return t.u.keys.namespaceType(t.ns.InternedKey(), t.name, len(t.params))
	})
}

// TypeCode implements TypeReference.
func (t *NamespaceTypeDef) TypeCode() PrimitiveTypeCode {
	code := primitiveCode(t.ns.FullName(), t.name, len(t.params))
	if code == NotPrimitive {
		return code
	}
	if asm, ok := t.ns.Unit().(*Assembly); ok && t.u.IsCoreAssembly(asm.identity) {
		return code
	}
	return NotPrimitive
}

// ResolvedType implements TypeReference.
func (t *NamespaceTypeDef) ResolvedType() TypeDefinition { return t }

// String returns the namespace-qualified mangled name.
func (t *NamespaceTypeDef) String() string {
	if ns := t.ns.FullName(); ns != "" {
		return ns + "." + mangle(t.name, len(t.params))
	}
	return mangle(t.name, len(t.params))
}

// NestedTypeDef is a type defined inside another type.
type NestedTypeDef struct {
	typeDef
	container TypeDefinition
}

func (*NestedTypeDef) aMember() {}

// Kind implements TypeReference.
func (*NestedTypeDef) Kind() TypeKind { return NestedTypeKind }

// ContainingType implements Member.
func (n *NestedTypeDef) ContainingType() TypeDefinition { return n.container }

// DoesNotInheritGenericParameters reports whether the type's generic
// parameters are independent of its container's.
func (n *NestedTypeDef) DoesNotInheritGenericParameters() bool {
	return n.flags&DoesNotInheritGenericParameters != 0
}

// UnspecializedVersion implements NestedType.
func (n *NestedTypeDef) UnspecializedVersion() NestedType { return n }

// InternedKey implements TypeReference.
func (n *NestedTypeDef) InternedKey() intern.Key {
	return n.key.get(&n.entity, func() intern.Key {
		return n.u.keys.nestedType(n.container.InternedKey(), n.name, len(n.params))
	})
}

// ResolvedType implements TypeReference.
func (n *NestedTypeDef) ResolvedType() TypeDefinition { return n }

// String returns the container-qualified mangled name.
func (n *NestedTypeDef) String() string {
	return n.container.String() + "+" + mangle(n.name, len(n.params))
}
