package types

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/intern"
)

// Unit is an independently produced unit of metadata: an assembly or a
// standalone module.
type Unit interface {
	NamedEntity
	UnitIdentity() identity.UnitIdentity
	RootNamespace() *Namespace
	InternedKey() intern.Key
	Universe() *Universe
	String() string
	aUnit()
}

// Assembly is a unit made of one or more modules, the first of which holds
// the manifest.
type Assembly struct {
	entity
	identity *identity.AssemblyIdentity
	key      lazyKey
	root     *Namespace
	modules  []*Module
	exported []*AliasForType
	attrs    []*CustomAttribute
}

func newAssembly(u *Universe, id *identity.AssemblyIdentity) *Assembly {
	a := &Assembly{entity: entity{u: u}, identity: id}
	a.root = newRootNamespace(u, a)
	mid, err := identity.NewModuleIdentity(id.Name()+".dll", id.Location(), id)
	if err != nil {
		panic(err) // the assembly name was validated by its identity
	}
	a.modules = []*Module{newModule(u, mid, a, moduleVersionID(id.DisplayName()))}
	return a
}

func (*Assembly) aUnit() {}

// Name returns the assembly name.
func (a *Assembly) Name() string { return a.identity.Name() }

// Identity returns the assembly identity.
func (a *Assembly) Identity() *identity.AssemblyIdentity { return a.identity }

// UnitIdentity implements Unit.
func (a *Assembly) UnitIdentity() identity.UnitIdentity { return a.identity }

// RootNamespace implements Unit.
func (a *Assembly) RootNamespace() *Namespace { return a.root }

// InternedKey implements Unit.
func (a *Assembly) InternedKey() intern.Key {
	return a.key.get(&a.entity, func() intern.Key { return a.u.table.Assembly(a.identity) })
}

// Modules returns the assembly's modules, manifest module first.
func (a *Assembly) Modules() []*Module { return a.modules }

// ManifestModule returns the module holding the assembly manifest.
func (a *Assembly) ManifestModule() *Module {
	if len(a.modules) == 0 {
		return a.u.fallbacks.Module
	}
	return a.modules[0]
}

// NewModule adds a module to the assembly. A nil mvid is replaced by a
// random one.
func (a *Assembly) NewModule(name string, mvid uuid.UUID) (*Module, error) {
	mid, err := identity.NewModuleIdentity(name, a.identity.Location(), a.identity)
	if err != nil {
		return nil, err
	}
	for _, m := range a.modules {
		if m.identity.Equal(mid) {
			return nil, fmt.Errorf("module %s in %s: %w", name, a.identity.Name(), ErrDuplicateUnit)
		}
	}
	if mvid == uuid.Nil {
		mvid = uuid.New()
	}
	m := newModule(a.u, mid, a, mvid)
	a.modules = append(a.modules, m)
	return m, nil
}

// ExportedTypes returns the aliases the assembly exports for types
// defined elsewhere.
func (a *Assembly) ExportedTypes() []*AliasForType { return a.exported }

// Attributes implements HasAttributes.
func (a *Assembly) Attributes() []*CustomAttribute { return a.attrs }

// AddAttribute attaches an attribute to the assembly.
func (a *Assembly) AddAttribute(attr *CustomAttribute) { a.attrs = append(a.attrs, attr) }

// String returns the identity display form.
func (a *Assembly) String() string { return a.identity.String() }

// Module is a single file of metadata.
type Module struct {
	entity
	identity *identity.ModuleIdentity
	assembly *Assembly
	mvid     uuid.UUID
	root     *Namespace
	key      lazyKey
}

func newModule(u *Universe, id *identity.ModuleIdentity, a *Assembly, mvid uuid.UUID) *Module {
	return &Module{entity: entity{u: u}, identity: id, assembly: a, mvid: mvid}
}

// moduleVersionID derives a stable module version id from seed.
func moduleVersionID(seed string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("metaid:module:"+seed))
}

func (*Module) aUnit() {}

// Name returns the module name.
func (m *Module) Name() string { return m.identity.Name() }

// Identity returns the module identity.
func (m *Module) Identity() *identity.ModuleIdentity { return m.identity }

// UnitIdentity implements Unit.
func (m *Module) UnitIdentity() identity.UnitIdentity { return m.identity }

// MVID returns the module version id.
func (m *Module) MVID() uuid.UUID { return m.mvid }

// ContainingAssembly returns the assembly the module belongs to, or the
// fallback assembly for a standalone module.
func (m *Module) ContainingAssembly() *Assembly {
	if m.assembly == nil {
		return m.u.fallbacks.Assembly
	}
	return m.assembly
}

// RootNamespace implements Unit. Modules of an assembly share the
// assembly's namespaces.
func (m *Module) RootNamespace() *Namespace {
	if m.assembly != nil {
		return m.assembly.root
	}
	if m.root == nil {
		return m.u.fallbacks.Namespace
	}
	return m.root
}

// InternedKey implements Unit.
func (m *Module) InternedKey() intern.Key {
	return m.key.get(&m.entity, func() intern.Key { return m.u.table.Module(m.identity) })
}

// String returns the identity display form.
func (m *Module) String() string { return m.identity.String() }
