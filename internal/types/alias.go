package types

import "fmt"

// AliasForType stands in for a type that a unit exports but that is
// defined elsewhere. Aliases of nested types are members of the alias of
// their container.
type AliasForType struct {
	entity
	name      string
	arity     int
	aliased   NamedTypeReference
	namespace *Namespace
	container *AliasForType
	members   []*AliasForType
}

func newAliasForType(u *Universe, name string, arity int, aliased NamedTypeReference) *AliasForType {
	if aliased == nil {
		aliased = u.fallbacks.TypeReference
	}
	return &AliasForType{entity: entity{u: u}, name: name, arity: arity, aliased: aliased}
}

// Name returns the name of the aliased type.
func (a *AliasForType) Name() string { return a.name }

// GenericParameterCount returns the generic arity of the aliased type.
func (a *AliasForType) GenericParameterCount() int { return a.arity }

// AliasedType returns the next link of the chain, which may itself be an
// alias.
func (a *AliasForType) AliasedType() NamedTypeReference { return a.aliased }

// Members returns the aliases of nested types.
func (a *AliasForType) Members() []*AliasForType { return a.members }

// ContainingNamespace returns the namespace the alias is recorded in, or
// the fallback namespace for a nested alias.
func (a *AliasForType) ContainingNamespace() *Namespace {
	if a.namespace == nil {
		return a.u.fallbacks.Namespace
	}
	return a.namespace
}

// ContainingAlias returns the alias of the enclosing type, or the fallback
// alias for a namespace-level alias.
func (a *AliasForType) ContainingAlias() *AliasForType {
	if a.container == nil {
		return a.u.fallbacks.AliasForType
	}
	return a.container
}

// NewMember records an alias for a type nested in the aliased type.
func (a *AliasForType) NewMember(name string, arity int, aliased NamedTypeReference) (*AliasForType, error) {
	if a.fallback {
		return nil, fmt.Errorf("alias %s: container is a fallback: %w", name, ErrDuplicateType)
	}
	if _, ok := a.LookupMember(name, arity); ok {
		return nil, fmt.Errorf("alias %s`%d in %s: %w", name, arity, a.name, ErrDuplicateType)
	}
	m := newAliasForType(a.u, name, arity, aliased)
	m.container = a
	a.members = append(a.members, m)
	return m, nil
}

// LookupMember returns the nested alias called name with arity generic
// parameters.
func (a *AliasForType) LookupMember(name string, arity int) (*AliasForType, bool) {
	for _, m := range a.members {
		if m.name == name && m.arity == arity {
			return m, true
		}
	}
	return nil, false
}

// String returns "alias Name -> target".
func (a *AliasForType) String() string {
	return fmt.Sprintf("alias %s -> %s", mangle(a.name, a.arity), a.aliased)
}
