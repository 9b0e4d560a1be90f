package types

import (
	"reflect"

	"github.com/you-not-fish/metaid/internal/identity"
)

// Fallbacks holds the objects returned when a lookup cannot be satisfied.
// Every reference-typed getter of a fallback returns another fallback and
// every slice getter returns an empty slice, so a chain of getters never
// reaches nil. Fallbacks have no interned key.
//
// Documented defaults: Method.IsStatic is true, Field.IsNotSerialized is
// true, identities have an empty name and version 0.0.0.0.
type Fallbacks struct {
	TypeReference          *TypeRef
	TypeDefinition         *NamespaceTypeDef
	NestedType             *NestedTypeDef
	GenericTypeInstance    *GenericTypeInstance
	GenericTypeParameter   *GenericTypeParameter
	GenericMethodParameter *GenericMethodParameter
	Field                  *FieldDef
	Method                 *MethodDef
	Parameter              *Parameter
	Assembly               *Assembly
	Module                 *Module
	Namespace              *Namespace
	AliasForType           *AliasForType
	CustomModifier         *CustomModifier
	AssemblyIdentity       *identity.AssemblyIdentity
	ModuleIdentity         *identity.ModuleIdentity

	set map[any]struct{}
}

// newFallbacks builds the fallback graph of u. The objects refer to each
// other, so they are allocated first and linked afterwards.
func newFallbacks(u *Universe) *Fallbacks {
	e := entity{u: u, fallback: true}
	f := &Fallbacks{
		TypeReference:          &TypeRef{},
		TypeDefinition:         &NamespaceTypeDef{},
		NestedType:             &NestedTypeDef{},
		GenericTypeInstance:    &GenericTypeInstance{},
		GenericTypeParameter:   &GenericTypeParameter{},
		GenericMethodParameter: &GenericMethodParameter{},
		Field:                  &FieldDef{entity: e},
		Method:                 &MethodDef{entity: e},
		Parameter:              &Parameter{entity: e},
		Assembly:               &Assembly{entity: e},
		Module:                 &Module{entity: e},
		Namespace:              &Namespace{entity: e},
		AliasForType:           &AliasForType{entity: e},
		CustomModifier:         &CustomModifier{entity: e},
		ModuleIdentity:         identity.EmptyModuleIdentity(),
	}
	f.AssemblyIdentity = f.ModuleIdentity.ContainingAssembly()

	f.TypeReference.entity = e
	f.TypeReference.scope = f.AssemblyIdentity

	f.TypeDefinition.entity = e
	f.TypeDefinition.self = f.TypeDefinition
	f.TypeDefinition.ns = f.Namespace
	f.TypeDefinition.nestedBy = map[typeName]*NestedTypeDef{}

	f.NestedType.entity = e
	f.NestedType.self = f.NestedType
	f.NestedType.container = f.TypeDefinition
	f.NestedType.nestedBy = map[typeName]*NestedTypeDef{}

	f.GenericTypeInstance.entity = e
	f.GenericTypeInstance.generic = f.TypeReference

	f.GenericTypeParameter.entity = e
	f.GenericTypeParameter.owner = f.TypeDefinition

	f.GenericMethodParameter.entity = e
	f.GenericMethodParameter.method = f.Method

	f.Field.container = f.TypeDefinition
	f.Field.typ = f.TypeReference
	f.Field.flags = NotSerializedField

	f.Method.container = f.TypeDefinition
	f.Method.flags = StaticMethod

	f.Parameter.method = f.Method
	f.Parameter.typ = f.TypeReference

	f.Assembly.identity = f.AssemblyIdentity
	f.Assembly.root = f.Namespace

	f.Module.identity = f.ModuleIdentity

	f.Namespace.unit = f.Assembly
	f.Namespace.children = map[string]*Namespace{}
	f.Namespace.types = map[typeName]*NamespaceTypeDef{}
	f.Namespace.aliases = map[typeName]*AliasForType{}

	f.AliasForType.aliased = f.TypeReference

	f.CustomModifier.modifier = f.TypeReference

	f.set = make(map[any]struct{})
	for _, v := range []any{
		f.TypeReference, f.TypeDefinition, f.NestedType, f.GenericTypeInstance,
		f.GenericTypeParameter, f.GenericMethodParameter, f.Field, f.Method,
		f.Parameter, f.Assembly, f.Module, f.Namespace, f.AliasForType,
		f.CustomModifier, f.AssemblyIdentity, f.ModuleIdentity,
	} {
		f.set[v] = struct{}{}
	}
	return f
}

// IsFallback reports whether v is one of the fallback objects.
func (f *Fallbacks) IsFallback(v any) bool {
	if v == nil || !reflect.TypeOf(v).Comparable() {
		return false
	}
	_, ok := f.set[v]
	return ok
}
