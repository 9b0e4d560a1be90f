package types

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/intern"
)

// ErrDuplicateUnit is returned when a unit with the same identity is
// added to a universe twice.
var ErrDuplicateUnit = errors.New("unit already loaded")

// UnitResolver locates the loaded assembly a reference denotes.
type UnitResolver interface {
	ResolveAssembly(ref *identity.AssemblyIdentity) (*Assembly, bool)
}

// Unifier maps a referenced assembly identity to the identity bound at
// load time. A UnitResolver that also implements Unifier is consulted when
// deciding whether an identity denotes the core assembly.
type Unifier interface {
	Unify(ref *identity.AssemblyIdentity) *identity.AssemblyIdentity
}

// DefaultCoreAssembly is the core assembly used when none is configured.
var DefaultCoreAssembly = identity.MustAssemblyIdentity("System.Runtime", "",
	identity.NewVersion(8, 0, 0, 0), []byte{0xb0, 0x3f, 0x5f, 0x7f, 0x11, 0xd5, 0x0a, 0x3a}, "")

// Universe owns the intern table, the fallback objects, and every unit
// loaded into it.
//
// Building units is not safe for concurrent use. Once built, a universe
// may be queried from any number of goroutines.
type Universe struct {
	table     *intern.Table
	keys      keyer
	logger    *slog.Logger
	resolver  UnitResolver
	core      *identity.AssemblyIdentity
	ptrSize   int64
	fallbacks *Fallbacks
	platform  *PlatformTypes
	sizes     *Sizes

	canon      sync.Map // canonKey -> canonical object
	assemblies sync.Map // intern.Key -> *Assembly
	modules    sync.Map // intern.Key -> *Module
}

// Option configures a Universe.
type Option func(*Universe)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(u *Universe) { u.logger = l }
}

// WithTable interns shapes in t instead of a private table.
func WithTable(t *intern.Table) Option {
	return func(u *Universe) { u.table = t }
}

// WithResolver routes assembly lookups through r instead of the universe's
// own registry.
func WithResolver(r UnitResolver) Option {
	return func(u *Universe) { u.resolver = r }
}

// WithCoreAssembly sets the identity of the assembly that defines the
// platform types.
func WithCoreAssembly(id *identity.AssemblyIdentity) Option {
	return func(u *Universe) { u.core = id }
}

// WithPointerSize sets the size of pointers in bytes. The default is 8.
func WithPointerSize(n int64) Option {
	return func(u *Universe) { u.ptrSize = n }
}

// NewUniverse creates an empty universe. Its fallback objects are built
// before it is returned.
func NewUniverse(opts ...Option) *Universe {
	u := &Universe{ptrSize: 8}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	if u.table == nil {
		u.table = intern.New()
	}
	if u.core == nil {
		u.core = DefaultCoreAssembly
	}
	u.keys = keyer{u.table}
	u.fallbacks = newFallbacks(u)
	u.sizes = &Sizes{u: u, PointerSize: u.ptrSize}
	u.platform = newPlatformTypes(u)
	return u
}

// Table returns the intern table.
func (u *Universe) Table() *intern.Table { return u.table }

// Logger returns the universe's logger.
func (u *Universe) Logger() *slog.Logger { return u.logger }

// Fallbacks returns the fallback registry.
func (u *Universe) Fallbacks() *Fallbacks { return u.fallbacks }

// CoreAssembly returns the identity of the core assembly.
func (u *Universe) CoreAssembly() *identity.AssemblyIdentity { return u.core }

// Platform returns references to the platform types.
func (u *Universe) Platform() *PlatformTypes { return u.platform }

// Sizes returns the size calculator for this universe.
func (u *Universe) Sizes() *Sizes { return u.sizes }

// canonKey distinguishes objects of different Go types that share a
// structural key, such as a nested type reference and the specialized
// nested type it denotes.
type canonKey struct {
	key intern.Key
	typ reflect.Type
}

// canonical returns the T registered under key, registering the result of
// build if there is none. The first registration wins.
func canonical[T any](u *Universe, key intern.Key, build func() T) T {
	ck := canonKey{key, reflect.TypeFor[T]()}
	if v, ok := u.canon.Load(ck); ok {
		return v.(T)
	}
	v, _ := u.canon.LoadOrStore(ck, build())
	return v.(T)
}

// NewAssembly creates an assembly with a manifest module and registers it.
func (u *Universe) NewAssembly(id *identity.AssemblyIdentity) (*Assembly, error) {
	if id == nil {
		return nil, fmt.Errorf("new assembly: %w", identity.ErrInvalidIdentity)
	}
	a := newAssembly(u, id)
	if prev, loaded := u.assemblies.LoadOrStore(a.InternedKey(), a); loaded {
		return nil, fmt.Errorf("assembly %s: %w", prev.(*Assembly).identity, ErrDuplicateUnit)
	}
	u.logger.Debug("assembly loaded", "assembly", id.DisplayName(), "location", id.Location())
	return a, nil
}

// NewModule creates a module that does not belong to an assembly and
// registers it.
func (u *Universe) NewModule(id *identity.ModuleIdentity) (*Module, error) {
	if id == nil {
		return nil, fmt.Errorf("new module: %w", identity.ErrInvalidIdentity)
	}
	if id.ContainingAssembly() != nil {
		return nil, fmt.Errorf("module %s belongs to an assembly: %w", id.Name(), identity.ErrInvalidIdentity)
	}
	m := newModule(u, id, nil, moduleVersionID(id.String()))
	m.root = newRootNamespace(u, m)
	if prev, loaded := u.modules.LoadOrStore(m.InternedKey(), m); loaded {
		return nil, fmt.Errorf("module %s: %w", prev.(*Module).identity, ErrDuplicateUnit)
	}
	u.logger.Debug("module loaded", "module", id.Name(), "location", id.Location())
	return m, nil
}

// LookupAssembly returns the registered assembly whose identity equals id.
func (u *Universe) LookupAssembly(id *identity.AssemblyIdentity) (*Assembly, bool) {
	if id == nil || id.Name() == "" {
		return nil, false
	}
	if v, ok := u.assemblies.Load(u.table.Assembly(id)); ok {
		return v.(*Assembly), true
	}
	var found *Assembly
	u.assemblies.Range(func(_, v any) bool {
		a := v.(*Assembly)
		if a.identity.Equal(id) {
			found = a
			return false
		}
		return true
	})
	return found, found != nil
}

// ResolveAssembly locates the assembly ref denotes through the configured
// resolver.
func (u *Universe) ResolveAssembly(ref *identity.AssemblyIdentity) (*Assembly, bool) {
	if u.resolver != nil {
		return u.resolver.ResolveAssembly(ref)
	}
	return u.LookupAssembly(ref)
}

// ResolveUnit locates the unit id denotes.
func (u *Universe) ResolveUnit(id identity.UnitIdentity) (Unit, bool) {
	switch id := id.(type) {
	case *identity.AssemblyIdentity:
		if a, ok := u.ResolveAssembly(id); ok {
			return a, true
		}
	case *identity.ModuleIdentity:
		if asm := id.ContainingAssembly(); asm != nil {
			if a, ok := u.ResolveAssembly(asm); ok {
				return a, true
			}
			return nil, false
		}
		if id.Name() == "" {
			return nil, false
		}
		if v, ok := u.modules.Load(u.table.Module(id)); ok {
			return v.(*Module), true
		}
	}
	return nil, false
}

// Assemblies returns the registered assemblies ordered by display name.
func (u *Universe) Assemblies() []*Assembly {
	var list []*Assembly
	u.assemblies.Range(func(_, v any) bool {
		list = append(list, v.(*Assembly))
		return true
	})
	slices.SortFunc(list, func(a, b *Assembly) int {
		return cmp.Compare(a.identity.DisplayName(), b.identity.DisplayName())
	})
	return list
}

// Modules returns the registered standalone modules ordered by name.
func (u *Universe) Modules() []*Module {
	var list []*Module
	u.modules.Range(func(_, v any) bool {
		list = append(list, v.(*Module))
		return true
	})
	slices.SortFunc(list, func(a, b *Module) int {
		return cmp.Compare(a.identity.String(), b.identity.String())
	})
	return list
}

// IsCoreAssembly reports whether id denotes the core assembly.
func (u *Universe) IsCoreAssembly(id *identity.AssemblyIdentity) bool {
	if id == nil {
		return false
	}
	if un, ok := u.resolver.(Unifier); ok {
		id = un.Unify(id)
	}
	return id.Equal(u.core)
}

// PlatformTypes holds references to the core assembly's platform types.
type PlatformTypes struct {
	u          *Universe
	primitives map[PrimitiveTypeCode]*TypeRef

	SystemObject    *TypeRef
	SystemValueType *TypeRef
	SystemEnum      *TypeRef
	SystemArray     *TypeRef
}

func newPlatformTypes(u *Universe) *PlatformTypes {
	p := &PlatformTypes{u: u, primitives: make(map[PrimitiveTypeCode]*TypeRef)}
	for _, prim := range primitives {
		if prim.name == "" {
			continue
		}
		p.primitives[prim.code] = u.NamespaceTypeRef(u.core, "System", prim.name, 0)
	}
	p.SystemObject = u.NamespaceTypeRef(u.core, "System", "Object", 0)
	p.SystemValueType = u.NamespaceTypeRef(u.core, "System", "ValueType", 0)
	p.SystemEnum = u.NamespaceTypeRef(u.core, "System", "Enum", 0)
	p.SystemArray = u.NamespaceTypeRef(u.core, "System", "Array", 0)
	return p
}

// Primitive returns the reference to the primitive type with code c, or
// the fallback reference if c has no System type.
func (p *PlatformTypes) Primitive(c PrimitiveTypeCode) *TypeRef {
	if r, ok := p.primitives[c]; ok {
		return r
	}
	return p.u.fallbacks.TypeReference
}
