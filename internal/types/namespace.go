package types

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/you-not-fish/metaid/internal/intern"
)

// ErrDuplicateType is returned when a namespace or type already has a
// member with the same name and generic arity.
var ErrDuplicateType = errors.New("type already defined")

// typeName is the lookup key of a type within its container.
type typeName struct {
	name  string
	arity int
}

// Namespace is a named group of types within a unit. Namespaces form a
// tree rooted at the unit's root namespace.
type Namespace struct {
	entity
	unit   Unit
	parent *Namespace
	name   string
	key    lazyKey

	children map[string]*Namespace
	types    map[typeName]*NamespaceTypeDef
	aliases  map[typeName]*AliasForType
}

func newRootNamespace(u *Universe, unit Unit) *Namespace {
	return &Namespace{
		entity:   entity{u: u},
		unit:     unit,
		children: make(map[string]*Namespace),
		types:    make(map[typeName]*NamespaceTypeDef),
		aliases:  make(map[typeName]*AliasForType),
	}
}

// Name returns the last segment of the namespace name. The root namespace
// has an empty name.
func (ns *Namespace) Name() string { return ns.name }

// FullName returns the dotted namespace name.
func (ns *Namespace) FullName() string {
	if ns.parent == nil || ns.parent.parent == nil {
		return ns.name
	}
	return ns.parent.FullName() + "." + ns.name
}

// IsRoot reports whether ns is a unit's root namespace.
func (ns *Namespace) IsRoot() bool { return ns.parent == nil }

// Unit returns the unit the namespace belongs to.
func (ns *Namespace) Unit() Unit {
	if ns.unit == nil {
		return ns.u.fallbacks.Assembly
	}
	return ns.unit
}

// Parent returns the enclosing namespace, or the fallback namespace for a
// root namespace.
func (ns *Namespace) Parent() *Namespace {
	if ns.parent == nil {
		return ns.u.fallbacks.Namespace
	}
	return ns.parent
}

// InternedKey returns the structural key of the namespace.
func (ns *Namespace) InternedKey() intern.Key {
	return ns.key.get(&ns.entity, func() intern.Key {
		if ns.parent == nil {
			return ns.u.keys.rootNamespace(ns.unit.InternedKey())
		}
		return ns.u.keys.namespace(ns.parent.InternedKey(), ns.name)
	})
}

// Namespace returns the namespace at the dotted path below ns, creating
// missing segments.
func (ns *Namespace) Namespace(path string) *Namespace {
	cur := ns
	if path == "" {
		return cur
	}
	for _, seg := range strings.Split(path, ".") {
		child, ok := cur.children[seg]
		if !ok {
			child = newRootNamespace(ns.u, ns.unit)
			child.parent = cur
			child.name = seg
			cur.children[seg] = child
		}
		cur = child
	}
	return cur
}

// LookupNamespace returns the namespace at the dotted path below ns.
func (ns *Namespace) LookupNamespace(path string) (*Namespace, bool) {
	cur := ns
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, ".") {
		child, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// NewType defines a type in ns with the given generic parameter names.
func (ns *Namespace) NewType(name string, genericParams ...string) (*NamespaceTypeDef, error) {
	if ns.fallback {
		return nil, fmt.Errorf("type %s: namespace is a fallback: %w", name, ErrDuplicateType)
	}
	k := typeName{name, len(genericParams)}
	if _, ok := ns.types[k]; ok {
		return nil, fmt.Errorf("type %s`%d in namespace %q: %w", name, k.arity, ns.FullName(), ErrDuplicateType)
	}
	if _, ok := ns.aliases[k]; ok {
		return nil, fmt.Errorf("type %s`%d in namespace %q is exported elsewhere: %w", name, k.arity, ns.FullName(), ErrDuplicateType)
	}
	t := newNamespaceTypeDef(ns, name, genericParams)
	ns.types[k] = t
	return t, nil
}

// LookupType returns the type called name with arity generic parameters.
func (ns *Namespace) LookupType(name string, arity int) (*NamespaceTypeDef, bool) {
	t, ok := ns.types[typeName{name, arity}]
	return t, ok
}

// NewAlias records that the type called name with arity generic
// parameters is defined elsewhere, as aliased.
func (ns *Namespace) NewAlias(name string, arity int, aliased NamedTypeReference) (*AliasForType, error) {
	if ns.fallback {
		return nil, fmt.Errorf("alias %s: namespace is a fallback: %w", name, ErrDuplicateType)
	}
	k := typeName{name, arity}
	if _, ok := ns.types[k]; ok {
		return nil, fmt.Errorf("alias %s`%d in namespace %q: %w", name, arity, ns.FullName(), ErrDuplicateType)
	}
	if _, ok := ns.aliases[k]; ok {
		return nil, fmt.Errorf("alias %s`%d in namespace %q: %w", name, arity, ns.FullName(), ErrDuplicateType)
	}
	a := newAliasForType(ns.u, name, arity, aliased)
	a.namespace = ns
	ns.aliases[k] = a
	if asm, ok := ns.unit.(*Assembly); ok {
		asm.exported = append(asm.exported, a)
	}
	return a, nil
}

// LookupAlias returns the alias called name with arity generic parameters.
func (ns *Namespace) LookupAlias(name string, arity int) (*AliasForType, bool) {
	a, ok := ns.aliases[typeName{name, arity}]
	return a, ok
}

// Namespaces returns the nested namespaces ordered by name.
func (ns *Namespace) Namespaces() []*Namespace {
	list := make([]*Namespace, 0, len(ns.children))
	for _, c := range ns.children {
		list = append(list, c)
	}
	slices.SortFunc(list, func(a, b *Namespace) int { return cmp.Compare(a.name, b.name) })
	return list
}

// Types returns the types defined directly in ns ordered by name and
// arity.
func (ns *Namespace) Types() []*NamespaceTypeDef {
	list := make([]*NamespaceTypeDef, 0, len(ns.types))
	for _, t := range ns.types {
		list = append(list, t)
	}
	slices.SortFunc(list, func(a, b *NamespaceTypeDef) int {
		return cmp.Or(cmp.Compare(a.name, b.name), cmp.Compare(len(a.params), len(b.params)))
	})
	return list
}

// Aliases returns the aliases recorded directly in ns ordered by name and
// arity.
func (ns *Namespace) Aliases() []*AliasForType {
	list := make([]*AliasForType, 0, len(ns.aliases))
	for _, a := range ns.aliases {
		list = append(list, a)
	}
	slices.SortFunc(list, func(a, b *AliasForType) int {
		return cmp.Or(cmp.Compare(a.name, b.name), cmp.Compare(a.arity, b.arity))
	})
	return list
}

// String returns a tree dump of the namespace for debugging.
func (ns *Namespace) String() string {
	var buf strings.Builder
	ns.writeTo(&buf, 0)
	return buf.String()
}

func (ns *Namespace) writeTo(buf *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	name := ns.FullName()
	if ns.IsRoot() {
		name = "<root>"
	}
	fmt.Fprintf(buf, "%snamespace %s {\n", prefix, name)
	for _, t := range ns.Types() {
		fmt.Fprintf(buf, "%s  type %s\n", prefix, t)
	}
	for _, a := range ns.Aliases() {
		fmt.Fprintf(buf, "%s  alias %s -> %s\n", prefix, a.Name(), a.AliasedType())
	}
	for _, child := range ns.Namespaces() {
		child.writeTo(buf, indent+1)
	}
	fmt.Fprintf(buf, "%s}\n", prefix)
}
