package types

import "github.com/you-not-fish/metaid/internal/intern"

// TypesAreEquivalent reports whether x and y denote the same type. Types
// with equal interned keys are equivalent; otherwise both are resolved and
// the definitions compared. Fallbacks are never equivalent to anything.
func TypesAreEquivalent(x, y TypeReference) bool {
	if x == nil || y == nil {
		return false
	}
	xk, yk := x.InternedKey(), y.InternedKey()
	if xk != intern.NoKey && xk == yk {
		return true
	}
	xd, yd := x.ResolvedType(), y.ResolvedType()
	f := x.Universe().fallbacks
	if f.IsFallback(xd) || f.IsFallback(yd) {
		return false
	}
	if xd == yd {
		return true
	}
	xk, yk = xd.InternedKey(), yd.InternedKey()
	return xk != intern.NoKey && xk == yk
}

// DerivesFrom reports whether t is base, or extends or implements it
// through its base classes and interfaces.
func DerivesFrom(t, base TypeReference) bool {
	seen := make(map[TypeDefinition]bool)
	var walk func(TypeReference) bool
	walk = func(t TypeReference) bool {
		if TypesAreEquivalent(t, base) {
			return true
		}
		def := t.ResolvedType()
		if seen[def] {
			return false
		}
		seen[def] = true
		for _, b := range def.BaseClasses() {
			if walk(b) {
				return true
			}
		}
		for _, i := range def.Interfaces() {
			if walk(i) {
				return true
			}
		}
		return false
	}
	return walk(t)
}

// IsPrimitive reports whether t is one of the core assembly's primitive
// types.
func IsPrimitive(t TypeReference) bool {
	code := t.TypeCode()
	return code != NotPrimitive && code != Invalid && code != PointerCode && code != ReferenceCode
}

// IsReferenceType reports whether values of t are object references.
func IsReferenceType(t TypeReference) bool {
	switch t := t.(type) {
	case *Vector, *Matrix:
		return true
	case *Pointer, *ManagedPointer, *FunctionPointer,
		*GenericTypeParameter, *GenericMethodParameter, *MethodTypeVar:
		return false
	case *Modified:
		return IsReferenceType(t.underlying)
	}
	if t.TypeCode() == String {
		return true
	}
	if IsPrimitive(t) {
		return false
	}
	def := t.ResolvedType()
	if def.Universe().fallbacks.IsFallback(def) {
		return false
	}
	return !def.IsValueType()
}

// IsGeneric reports whether t declares generic parameters.
func IsGeneric(t TypeReference) bool {
	if n, ok := t.(NamedTypeReference); ok {
		return n.GenericParameterCount() > 0
	}
	return false
}
