// Package types implements the metadata object model: type references and
// definitions, members, namespaces, and units, all owned by a Universe that
// interns their structural identities.
//
// Every getter returns a usable value. Lookups that cannot be satisfied
// return the Universe's fallback objects rather than nil.
package types

import (
	"fmt"
	"sync/atomic"

	"github.com/you-not-fish/metaid/internal/intern"
)

// TypeKind identifies the concrete kind of a type reference.
type TypeKind int

const (
	InvalidKind TypeKind = iota
	NamespaceTypeKind
	NestedTypeKind
	GenericInstanceKind
	SpecializedNestedKind
	VectorKind
	MatrixKind
	PointerKind
	ManagedPointerKind
	FunctionPointerKind
	GenericTypeParamKind
	GenericMethodParamKind
	MethodTypeVarKind
	ModifiedKind
)

var typeKindNames = [...]string{
	InvalidKind:            "invalid",
	NamespaceTypeKind:      "namespace type",
	NestedTypeKind:         "nested type",
	GenericInstanceKind:    "generic instance",
	SpecializedNestedKind:  "specialized nested type",
	VectorKind:             "vector",
	MatrixKind:             "matrix",
	PointerKind:            "pointer",
	ManagedPointerKind:     "managed pointer",
	FunctionPointerKind:    "function pointer",
	GenericTypeParamKind:   "generic type parameter",
	GenericMethodParamKind: "generic method parameter",
	MethodTypeVarKind:      "method type variable",
	ModifiedKind:           "modified type",
}

// String returns the kind name.
func (k TypeKind) String() string {
	if k >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// TypeReference is implemented by every type in the model.
type TypeReference interface {
	// Kind returns the concrete kind.
	Kind() TypeKind

	// InternedKey returns the structural key of the type, or intern.NoKey
	// for fallbacks and types built over them.
	InternedKey() intern.Key

	// TypeCode returns the primitive type code, or NotPrimitive.
	TypeCode() PrimitiveTypeCode

	// IsAlias reports whether the reference resolves to an alias (an
	// exported or forwarded type) rather than a definition.
	IsAlias() bool

	// AliasForType returns the first alias hop, or the fallback alias.
	AliasForType() *AliasForType

	// ResolvedType returns the definition the reference denotes, following
	// aliases, or the fallback definition.
	ResolvedType() TypeDefinition

	// Universe returns the owning universe.
	Universe() *Universe

	String() string

	aTypeReference()
}

// TypeDefinition is a type whose members are known.
type TypeDefinition interface {
	TypeReference

	GenericParameters() []*GenericTypeParameter
	Fields() []Field
	Methods() []Method
	NestedTypes() []NestedType
	BaseClasses() []TypeReference
	Interfaces() []TypeReference

	IsValueType() bool
	IsInterface() bool
	IsEnum() bool

	// UnderlyingType returns the underlying integral type of an enum, or
	// the fallback reference.
	UnderlyingType() TypeReference

	aTypeDefinition()
}

// NamedTypeReference is a type reference that carries a name.
type NamedTypeReference interface {
	TypeReference
	NamedEntity
	GenericParameterCount() int
}

// NamedEntity is implemented by everything with a name.
type NamedEntity interface {
	Name() string
}

// HasAttributes is implemented by entities that carry custom attributes.
type HasAttributes interface {
	Attributes() []*CustomAttribute
}

// HasLocations is implemented by entities that record where they were
// read from.
type HasLocations interface {
	Locations() []Location
}

// Location is a position in a unit's source document.
type Location struct {
	Document string
	Offset   uint32
}

// String returns "document+offset".
func (l Location) String() string {
	return fmt.Sprintf("%s+%#x", l.Document, l.Offset)
}

// CustomAttribute is an attribute applied to an entity.
type CustomAttribute struct {
	typ  TypeReference
	args []string
}

// NewCustomAttribute creates an attribute of type typ with serialized
// constructor arguments.
func (u *Universe) NewCustomAttribute(typ TypeReference, args ...string) *CustomAttribute {
	if typ == nil {
		typ = u.fallbacks.TypeReference
	}
	return &CustomAttribute{typ: typ, args: args}
}

// Type returns the attribute type.
func (a *CustomAttribute) Type() TypeReference { return a.typ }

// Arguments returns the serialized constructor arguments.
func (a *CustomAttribute) Arguments() []string { return a.args }

// entity is the base of every model object.
type entity struct {
	u        *Universe
	fallback bool
}

// Universe returns the owning universe.
func (e *entity) Universe() *Universe { return e.u }

// lazyKey caches an interned key computed on first use. Racing
// computations produce the same key, so the first store wins.
type lazyKey struct {
	v atomic.Uint32
}

func (l *lazyKey) get(e *entity, compute func() intern.Key) intern.Key {
	if e.fallback {
		return intern.NoKey
	}
	if k := l.v.Load(); k != 0 {
		return intern.Key(k)
	}
	l.v.CompareAndSwap(0, uint32(compute()))
	return intern.Key(l.v.Load())
}

// typeBase provides the defaults shared by every type.
type typeBase struct {
	entity
}

func (typeBase) aTypeReference() {}

// IsAlias implements TypeReference.
func (*typeBase) IsAlias() bool { return false }

// AliasForType implements TypeReference.
func (t *typeBase) AliasForType() *AliasForType { return t.u.fallbacks.AliasForType }

// TypeCode implements TypeReference.
func (*typeBase) TypeCode() PrimitiveTypeCode { return NotPrimitive }

// structural provides the TypeDefinition defaults for types that have no
// members of their own.
type structural struct {
	typeBase
}

func (structural) aTypeDefinition() {}

// GenericParameters implements TypeDefinition.
func (*structural) GenericParameters() []*GenericTypeParameter { return nil }

// Fields implements TypeDefinition.
func (*structural) Fields() []Field { return nil }

// Methods implements TypeDefinition.
func (*structural) Methods() []Method { return nil }

// NestedTypes implements TypeDefinition.
func (*structural) NestedTypes() []NestedType { return nil }

// BaseClasses implements TypeDefinition.
func (*structural) BaseClasses() []TypeReference { return nil }

// Interfaces implements TypeDefinition.
func (*structural) Interfaces() []TypeReference { return nil }

// IsValueType implements TypeDefinition.
func (*structural) IsValueType() bool { return false }

// IsInterface implements TypeDefinition.
func (*structural) IsInterface() bool { return false }

// IsEnum implements TypeDefinition.
func (*structural) IsEnum() bool { return false }

// UnderlyingType implements TypeDefinition.
func (s *structural) UnderlyingType() TypeReference { return s.u.fallbacks.TypeReference }
