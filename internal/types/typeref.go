package types

import (
	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/intern"
)

// TypeRef is a reference to a named type by scope, namespace, name, and
// generic arity. It is resolved lazily against the units loaded in the
// universe.
type TypeRef struct {
	typeBase
	scope     identity.UnitIdentity
	namespace string
	container TypeReference
	name      string
	arity     int
	key       intern.Key
}

// NamespaceTypeRef returns the canonical reference to the type called name
// in namespace of the unit scope.
func (u *Universe) NamespaceTypeRef(scope identity.UnitIdentity, namespace, name string, arity int) *TypeRef {
	var unit intern.Key
	switch id := scope.(type) {
	case *identity.AssemblyIdentity:
		unit = u.table.Assembly(id)
	case *identity.ModuleIdentity:
		unit = u.table.Module(id)
	default:
		return u.fallbacks.TypeReference
	}
	key := u.keys.namespaceType(u.keys.namespacePath(u.keys.rootNamespace(unit), namespace), name, arity)
	return canonical(u, key, func() *TypeRef {
		r := &TypeRef{scope: scope, namespace: namespace, name: name, arity: arity, key: key}
		r.u = u
		return r
	})
}

// NestedTypeRef returns the canonical reference to the type called name
// nested in container. The container of a type nested in a generic type
// is usually an instance of it.
func (u *Universe) NestedTypeRef(container TypeReference, name string, arity int) *TypeRef {
	build := func(key intern.Key) *TypeRef {
		r := &TypeRef{container: container, name: name, arity: arity, key: key}
		r.u = u
		return r
	}
	ck := container.InternedKey()
	if ck == intern.NoKey {
		return build(intern.NoKey)
	}
	key := u.table.NestedType(ck, name, arity)
	return canonical(u, key, func() *TypeRef { return build(key) })
}

// Kind implements TypeReference.
func (r *TypeRef) Kind() TypeKind {
	if r.container != nil {
		return NestedTypeKind
	}
	return NamespaceTypeKind
}

// Name returns the unmangled type name.
func (r *TypeRef) Name() string { return r.name }

// GenericParameterCount returns the generic arity.
func (r *TypeRef) GenericParameterCount() int { return r.arity }

// Namespace returns the dotted namespace of a namespace type reference.
func (r *TypeRef) Namespace() string { return r.namespace }

// IsNested reports whether r refers to a nested type.
func (r *TypeRef) IsNested() bool { return r.container != nil }

// ContainingType returns the container of a nested type reference, or the
// fallback reference.
func (r *TypeRef) ContainingType() TypeReference {
	if r.container == nil {
		return r.u.fallbacks.TypeReference
	}
	return r.container
}

// Scope returns the identity of the unit the reference points into.
func (r *TypeRef) Scope() identity.UnitIdentity {
	if r.container == nil {
		return r.scope
	}
	return scopeOf(r.container)
}

func scopeOf(t TypeReference) identity.UnitIdentity {
	switch t := t.(type) {
	case *TypeRef:
		return t.Scope()
	case *NamespaceTypeDef:
		return t.ns.Unit().UnitIdentity()
	case *NestedTypeDef:
		return scopeOf(t.container)
	case *GenericTypeInstance:
		return scopeOf(t.generic)
	case *SpecializedNestedType:
		return scopeOf(t.container)
	}
	return t.Universe().fallbacks.AssemblyIdentity
}

// InternedKey implements TypeReference.
func (r *TypeRef) InternedKey() intern.Key { return r.key }

// TypeCode implements TypeReference.
func (r *TypeRef) TypeCode() PrimitiveTypeCode {
	if r.container != nil {
		return NotPrimitive
	}
	code := primitiveCode(r.namespace, r.name, r.arity)
	if code == NotPrimitive {
		return code
	}
	if asm, ok := r.scope.(*identity.AssemblyIdentity); ok && r.u.IsCoreAssembly(asm) {
		return code
	}
	return NotPrimitive
}

// IsAlias implements TypeReference.
func (r *TypeRef) IsAlias() bool {
	_, alias := r.u.locate(r)
	return alias != nil
}

// AliasForType implements TypeReference.
func (r *TypeRef) AliasForType() *AliasForType {
	if _, alias := r.u.locate(r); alias != nil {
		return alias
	}
	return r.u.fallbacks.AliasForType
}

// ResolvedType implements TypeReference.
func (r *TypeRef) ResolvedType() TypeDefinition { return r.u.Resolve(r) }

// String returns the reference in "[Scope]Namespace.Name`n" form.
func (r *TypeRef) String() string {
	if r.container != nil {
		return r.container.String() + "+" + mangle(r.name, r.arity)
	}
	var prefix string
	if r.scope != nil && r.scope.Name() != "" {
		prefix = "[" + r.scope.Name() + "]"
	}
	if r.namespace == "" {
		return prefix + mangle(r.name, r.arity)
	}
	return prefix + r.namespace + "." + mangle(r.name, r.arity)
}

// FieldRef is a reference to a field by container, name, and type.
type FieldRef struct {
	entity
	container TypeReference
	name      string
	typ       TypeReference
	key       intern.Key
}

// FieldRef returns a reference to the field called name of type typ in
// container. typ is written as on the unspecialized definition.
func (u *Universe) FieldRef(container TypeReference, name string, typ TypeReference) *FieldRef {
	key := u.keys.field(container.InternedKey(), name, typ.InternedKey())
	return &FieldRef{entity: entity{u: u}, container: container, name: name, typ: typ, key: key}
}

func (*FieldRef) aMember() {}

// Name returns the field name.
func (r *FieldRef) Name() string { return r.name }

// Container returns the referenced containing type.
func (r *FieldRef) Container() TypeReference { return r.container }

// ContainingType implements Member.
func (r *FieldRef) ContainingType() TypeDefinition { return r.container.ResolvedType() }

// Type returns the field type.
func (r *FieldRef) Type() TypeReference { return r.typ }

// InternedKey implements Member.
func (r *FieldRef) InternedKey() intern.Key { return r.key }

// ResolvedField returns the field of the resolved container that the
// reference matches, or the fallback field.
func (r *FieldRef) ResolvedField() Field {
	ck := r.container.InternedKey()
	if r.key == intern.NoKey {
		return r.u.fallbacks.Field
	}
	for _, f := range r.container.ResolvedType().Fields() {
		if f.Name() != r.name {
			continue
		}
		if r.u.keys.field(ck, f.Name(), f.UnspecializedVersion().Type().InternedKey()) == r.key {
			return f
		}
	}
	r.u.logger.Debug("unresolved field reference", "field", r.String())
	return r.u.fallbacks.Field
}

// String returns "Container::name".
func (r *FieldRef) String() string { return r.container.String() + "::" + r.name }

// MethodRef is a reference to a method by container, name, generic arity,
// and signature. Occurrences of the method's own generic parameters in the
// signature are written as method type variables.
type MethodRef struct {
	entity
	container TypeReference
	name      string
	arity     int
	conv      CallingConvention
	ret       TypeReference
	params    []SignatureParam
	key       intern.Key
}

// MethodRef returns a reference to a method of container.
func (u *Universe) MethodRef(container TypeReference, name string, arity int, conv CallingConvention, ret TypeReference, params ...SignatureParam) *MethodRef {
	r := &MethodRef{entity: entity{u: u}, container: container, name: name, arity: arity, conv: conv, ret: ret, params: params}
	ck := container.InternedKey()
	sig, ok := u.keys.signature(conv, ret, false, nil, params, nil)
	if ck != intern.NoKey && ok {
		r.key = u.table.Method(intern.MethodShape{Containing: ck, Name: name, GenericArity: arity, Signature: sig})
	}
	return r
}

func (*MethodRef) aMember() {}

// Name returns the method name.
func (r *MethodRef) Name() string { return r.name }

// Container returns the referenced containing type.
func (r *MethodRef) Container() TypeReference { return r.container }

// ContainingType implements Member.
func (r *MethodRef) ContainingType() TypeDefinition { return r.container.ResolvedType() }

// GenericParameterCount returns the number of generic parameters.
func (r *MethodRef) GenericParameterCount() int { return r.arity }

// CallingConvention returns the signature's calling convention.
func (r *MethodRef) CallingConvention() CallingConvention { return r.conv }

// ReturnType returns the return type.
func (r *MethodRef) ReturnType() TypeReference { return r.ret }

// Parameters returns the signature parameters.
func (r *MethodRef) Parameters() []SignatureParam { return r.params }

// InternedKey implements Member.
func (r *MethodRef) InternedKey() intern.Key { return r.key }

// ResolvedMethod returns the method of the resolved container whose
// signature matches the reference, or the fallback method.
func (r *MethodRef) ResolvedMethod() Method {
	if r.key == intern.NoKey {
		return r.u.fallbacks.Method
	}
	ck := r.container.InternedKey()
	for _, m := range r.container.ResolvedType().Methods() {
		if m.Name() != r.name || len(m.GenericParameters()) != r.arity {
			continue
		}
		if r.u.methodKey(ck, m.UnspecializedVersion()) == r.key {
			return m
		}
	}
	r.u.logger.Debug("unresolved method reference", "method", r.String())
	return r.u.fallbacks.Method
}

// String returns "Container::name".
func (r *MethodRef) String() string {
	return r.container.String() + "::" + mangle(r.name, r.arity)
}
