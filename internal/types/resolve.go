package types

// Resolve returns the definition r denotes. Aliases are followed to the end
// of their chain. A reference that cannot be located, a chain that loops,
// and a chain with a dangling link all resolve to the fallback definition.
func (u *Universe) Resolve(r TypeReference) TypeDefinition {
	var seen map[*TypeRef]bool
	for {
		ref, ok := r.(*TypeRef)
		if !ok {
			if def, ok := r.(TypeDefinition); ok {
				return def
			}
			return u.fallbacks.TypeDefinition
		}
		if ref.fallback {
			return u.fallbacks.TypeDefinition
		}
		def, alias := u.locate(ref)
		if def != nil {
			return def
		}
		if alias == nil {
			u.logger.Debug("unresolved type reference", "type", ref.String())
			return u.fallbacks.TypeDefinition
		}
		if seen == nil {
			seen = make(map[*TypeRef]bool)
		}
		if seen[ref] {
			u.logger.Debug("alias cycle", "type", ref.String())
			return u.fallbacks.TypeDefinition
		}
		seen[ref] = true
		next := alias.AliasedType()
		if next == u.fallbacks.TypeReference {
			u.logger.Debug("dangling alias", "type", ref.String(), "alias", alias.String())
			return u.fallbacks.TypeDefinition
		}
		r = next
	}
}

// locate finds what r names in its scope: a definition, an alias, or
// neither.
func (u *Universe) locate(r *TypeRef) (TypeDefinition, *AliasForType) {
	if r.fallback {
		return nil, nil
	}
	if r.container == nil {
		unit, ok := u.ResolveUnit(r.scope)
		if !ok {
			return nil, nil
		}
		ns, ok := unit.RootNamespace().LookupNamespace(r.namespace)
		if !ok {
			return nil, nil
		}
		if t, ok := ns.LookupType(r.name, r.arity); ok {
			return t, nil
		}
		if a, ok := ns.LookupAlias(r.name, r.arity); ok {
			return nil, a
		}
		return nil, nil
	}

	var container TypeDefinition
	if c, ok := r.container.(*TypeRef); ok {
		def, alias := u.locate(c)
		if alias != nil {
			if m, ok := alias.LookupMember(r.name, r.arity); ok {
				return nil, m
			}
			def = u.Resolve(c)
		}
		container = def
	} else {
		container = r.container.ResolvedType()
	}
	if container == nil || u.fallbacks.IsFallback(container) {
		return nil, nil
	}
	for _, n := range container.NestedTypes() {
		if n.Name() == r.name && len(n.GenericParameters()) == r.arity {
			return n, nil
		}
	}
	return nil, nil
}
