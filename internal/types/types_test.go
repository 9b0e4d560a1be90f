package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/intern"
)

// fixture is a universe with a loaded core assembly.
type fixture struct {
	u    *Universe
	core *Assembly
	sys  *Namespace
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	u := NewUniverse(opts...)
	core, err := u.NewAssembly(u.CoreAssembly())
	require.NoError(t, err)
	f := &fixture{u: u, core: core, sys: core.RootNamespace().Namespace("System")}
	obj := f.define(t, f.sys, "Object", 0)
	for _, name := range []string{"ValueType", "Enum", "Array", "String"} {
		f.define(t, f.sys, name, 0).AddBaseClass(obj)
	}
	for _, name := range []string{"Boolean", "Byte", "Int16", "Int32", "Int64", "Double", "IntPtr"} {
		f.define(t, f.sys, name, ValueType)
	}
	return f
}

func (f *fixture) define(t *testing.T, ns *Namespace, name string, flags TypeFlags, params ...string) *NamespaceTypeDef {
	t.Helper()
	d, err := ns.NewType(name, params...)
	require.NoError(t, err)
	d.SetFlags(flags)
	return d
}

func (f *fixture) prim(c PrimitiveTypeCode) *TypeRef { return f.u.Platform().Primitive(c) }

// library loads an assembly called name with a single namespace.
func (f *fixture) library(t *testing.T, name, ns string) (*Assembly, *Namespace) {
	t.Helper()
	id := identity.MustAssemblyIdentity(name, "", identity.NewVersion(1, 0, 0, 0), nil, "")
	a, err := f.u.NewAssembly(id)
	require.NoError(t, err)
	return a, a.RootNamespace().Namespace(ns)
}

func TestTypeKindString(t *testing.T) {
	tests := []struct {
		kind TypeKind
		want string
	}{
		{NamespaceTypeKind, "namespace type"},
		{GenericInstanceKind, "generic instance"},
		{MethodTypeVarKind, "method type variable"},
		{TypeKind(99), "TypeKind(99)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("TypeKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestPrimitiveTypeCodes(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		code PrimitiveTypeCode
		name string
		info PrimitiveInfo
	}{
		{Boolean, "Boolean", IsBoolean},
		{Int32, "Int32", IsInteger},
		{UInt8, "Byte", IsInteger | IsUnsigned},
		{Float64, "Double", IsFloat},
		{String, "String", IsString},
		{IntPtr, "IntPtr", IsInteger | IsPointer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := f.prim(tt.code)
			if ref.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", ref.Name(), tt.name)
			}
			if got := ref.TypeCode(); got != tt.code {
				t.Errorf("TypeCode() = %v, want %v", got, tt.code)
			}
			if got := tt.code.Info(); got != tt.info {
				t.Errorf("Info() = %v, want %v", got, tt.info)
			}
			if tt.code.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.code.String(), tt.name)
			}
		})
	}
}

func TestTypeCodeOutsideCore(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Shim", "System")
	def := f.define(t, ns, "Int32", ValueType)

	assert.Equal(t, NotPrimitive, def.TypeCode())
	ref := f.u.NamespaceTypeRef(identity.MustAssemblyIdentity("Shim", "", identity.NewVersion(1, 0, 0, 0), nil, ""), "System", "Int32", 0)
	assert.Equal(t, NotPrimitive, ref.TypeCode())

	coreDef, ok := f.sys.LookupType("Int32", 0)
	require.True(t, ok)
	assert.Equal(t, Int32, coreDef.TypeCode())
}

func TestNamespaceTypeRefCanonical(t *testing.T) {
	f := newFixture(t)
	a := f.u.NamespaceTypeRef(f.u.CoreAssembly(), "System", "Int32", 0)
	b := f.u.NamespaceTypeRef(f.u.CoreAssembly().WithLocation("/other/path"), "System", "Int32", 0)

	assert.Same(t, a, b)
	assert.Same(t, a, f.prim(Int32))
	assert.NotEqual(t, intern.NoKey, a.InternedKey())

	def := a.ResolvedType()
	assert.Equal(t, a.InternedKey(), def.InternedKey())
	assert.Equal(t, "[System.Runtime]System.Int32", a.String())
	assert.Equal(t, "System.Int32", def.String())
}

func TestNamespaceTypeRefBadScope(t *testing.T) {
	u := NewUniverse()
	r := u.NamespaceTypeRef(nil, "System", "Int32", 0)
	assert.Same(t, u.Fallbacks().TypeReference, r)
}

func TestCompositeCanonical(t *testing.T) {
	f := newFixture(t)
	i32 := f.prim(Int32)

	tests := []struct {
		name string
		make func() TypeReference
		kind TypeKind
		str  string
	}{
		{"vector", func() TypeReference { return f.u.Vector(i32) }, VectorKind, "[System.Runtime]System.Int32[]"},
		{"vector of vector", func() TypeReference { return f.u.Vector(f.u.Vector(i32)) }, VectorKind, "[System.Runtime]System.Int32[][]"},
		{"matrix rank 1", func() TypeReference { return f.u.Matrix(i32, 1, nil, nil) }, MatrixKind, "[System.Runtime]System.Int32[*]"},
		{"matrix bounds", func() TypeReference { return f.u.Matrix(i32, 2, []uint64{3}, []int64{1}) }, MatrixKind, "[System.Runtime]System.Int32[1...3,]"},
		{"pointer", func() TypeReference { return f.u.Pointer(i32) }, PointerKind, "[System.Runtime]System.Int32*"},
		{"managed pointer", func() TypeReference { return f.u.ManagedPointer(i32) }, ManagedPointerKind, "[System.Runtime]System.Int32&"},
		{"function pointer", func() TypeReference {
			return f.u.FunctionPointer(DefaultCall, f.prim(Void), []SignatureParam{{Type: i32}}, nil)
		}, FunctionPointerKind, "method [System.Runtime]System.Void *([System.Runtime]System.Int32)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.make(), tt.make()
			assert.Same(t, x, y)
			assert.NotEqual(t, intern.NoKey, x.InternedKey())
			assert.Equal(t, tt.kind, x.Kind())
			assert.Equal(t, tt.str, x.String())
		})
	}
}

func TestMatrixShapeDistinguishesKeys(t *testing.T) {
	f := newFixture(t)
	i32 := f.prim(Int32)

	rank1 := f.u.Matrix(i32, 1, nil, nil)
	vec := f.u.Vector(i32)
	rank2 := f.u.Matrix(i32, 2, nil, nil)
	sized := f.u.Matrix(i32, 2, []uint64{4, 4}, nil)

	keys := map[intern.Key]string{}
	for name, k := range map[string]intern.Key{
		"rank1": rank1.InternedKey(), "vector": vec.InternedKey(),
		"rank2": rank2.InternedKey(), "sized": sized.InternedKey(),
	} {
		if prev, ok := keys[k]; ok {
			t.Fatalf("%s and %s share key %d", prev, name, k)
		}
		keys[k] = name
	}
}

func TestModifiedType(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Interop", "System.Runtime.CompilerServices")
	isVolatile := f.define(t, ns, "IsVolatile", 0)

	i32 := f.prim(Int32)
	req := f.u.NewCustomModifier(isVolatile, false)
	opt := f.u.NewCustomModifier(isVolatile, true)

	a := f.u.Modified(i32, req)
	assert.Same(t, a, f.u.Modified(i32, f.u.NewCustomModifier(isVolatile, false)))
	assert.NotEqual(t, a.InternedKey(), f.u.Modified(i32, opt).InternedKey())
	assert.NotEqual(t, a.InternedKey(), i32.InternedKey())
	assert.Equal(t, Int32, a.TypeCode())
	assert.Equal(t, "[System.Runtime]System.Int32 modreq(System.Runtime.CompilerServices.IsVolatile)", a.String())
}

func TestVectorBaseClass(t *testing.T) {
	f := newFixture(t)
	v := f.u.Vector(f.prim(String))
	require.Len(t, v.BaseClasses(), 1)
	assert.Same(t, f.u.Platform().SystemArray, v.BaseClasses()[0])
	assert.True(t, DerivesFrom(v, f.u.Platform().SystemObject))
}

func TestGenericInstanceCanonical(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Coll", "Coll")
	list := f.define(t, ns, "List", 0, "T")

	ref := f.u.NamespaceTypeRef(list.ContainingNamespace().Unit().UnitIdentity(), "Coll", "List", 1)
	a := f.u.GenericInstance(list, f.prim(Int32))
	b := f.u.GenericInstance(ref, f.prim(Int32))
	c := f.u.GenericInstance(ref, f.prim(String))

	assert.Same(t, a, b)
	assert.NotEqual(t, a.InternedKey(), c.InternedKey())
	assert.Equal(t, "Coll.List`1<[System.Runtime]System.Int32>", a.String())
	assert.True(t, IsGeneric(list))
	assert.False(t, IsGeneric(a))
}

func TestDuplicateDefinitions(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Dup", "Dup")
	outer := f.define(t, ns, "Outer", 0)

	_, err := ns.NewType("Outer")
	assert.ErrorIs(t, err, ErrDuplicateType)

	// Same name with a different arity is a different type.
	_, err = ns.NewType("Outer", "T")
	assert.NoError(t, err)

	_, err = outer.NewNestedType("Inner")
	require.NoError(t, err)
	_, err = outer.NewNestedType("Inner")
	assert.ErrorIs(t, err, ErrDuplicateType)

	_, err = outer.NewField("x", f.prim(Int32), 0)
	require.NoError(t, err)
	_, err = outer.NewField("x", f.prim(Int64), 0)
	assert.ErrorIs(t, err, ErrDuplicateType)

	_, err = ns.NewAlias("Outer", 0, f.prim(Int32))
	assert.ErrorIs(t, err, ErrDuplicateType)

	_, err = f.u.NewAssembly(identity.MustAssemblyIdentity("DUP", "", identity.NewVersion(1, 0, 0, 0), nil, "/elsewhere"))
	assert.ErrorIs(t, err, ErrDuplicateUnit)
}

func TestNamespaceTree(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Tree", "A.B.C")

	assert.Equal(t, "A.B.C", ns.FullName())
	assert.Equal(t, "C", ns.Name())
	assert.Equal(t, "A.B", ns.Parent().FullName())
	assert.False(t, ns.IsRoot())

	root := ns.Unit().RootNamespace()
	assert.True(t, root.IsRoot())
	got, ok := root.LookupNamespace("A.B.C")
	require.True(t, ok)
	assert.Same(t, ns, got)
	_, ok = root.LookupNamespace("A.X")
	assert.False(t, ok)

	// Namespace keys are structural: the same path in another unit differs.
	_, other := f.library(t, "Tree2", "A.B.C")
	assert.NotEqual(t, ns.InternedKey(), other.InternedKey())
}

func TestAssemblyModules(t *testing.T) {
	f := newFixture(t)
	a, _ := f.library(t, "Multi", "Multi")

	require.Len(t, a.Modules(), 1)
	assert.Equal(t, "Multi.dll", a.ManifestModule().Name())
	assert.Same(t, a, a.ManifestModule().ContainingAssembly())
	assert.Same(t, a.RootNamespace(), a.ManifestModule().RootNamespace())

	m, err := a.NewModule("Multi.Extra.netmodule", uuid.Nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.MVID())
	_, err = a.NewModule("multi.extra.NETMODULE", uuid.Nil)
	assert.ErrorIs(t, err, ErrDuplicateUnit)

	// The manifest module id is stable across universes.
	g := newFixture(t)
	b, _ := g.library(t, "Multi", "Multi")
	assert.Equal(t, a.ManifestModule().MVID(), b.ManifestModule().MVID())
}

func TestStandaloneModule(t *testing.T) {
	u := NewUniverse()
	id, err := identity.NewModuleIdentity("Loose.netmodule", "/tmp/Loose.netmodule", nil)
	require.NoError(t, err)
	m, err := u.NewModule(id)
	require.NoError(t, err)

	ns := m.RootNamespace().Namespace("Loose")
	def, err := ns.NewType("Thing")
	require.NoError(t, err)

	ref := u.NamespaceTypeRef(id, "Loose", "Thing", 0)
	assert.Same(t, def, ref.ResolvedType())
	assert.Same(t, u.Fallbacks().Assembly, m.ContainingAssembly())

	_, err = u.NewModule(id)
	assert.ErrorIs(t, err, ErrDuplicateUnit)
}

func TestMethodTypeVarCanonical(t *testing.T) {
	u := NewUniverse()
	assert.Same(t, u.MethodTypeVar(2), u.MethodTypeVar(2))
	assert.NotEqual(t, u.MethodTypeVar(0).InternedKey(), u.MethodTypeVar(1).InternedKey())
	assert.Equal(t, "!!2", u.MethodTypeVar(2).String())
}

func TestSharedTable(t *testing.T) {
	table := intern.New()
	u1 := NewUniverse(WithTable(table))
	u2 := NewUniverse(WithTable(table))

	a := u1.Vector(u1.Platform().Primitive(Int32))
	b := u2.Vector(u2.Platform().Primitive(Int32))
	assert.NotSame(t, a, b)
	assert.Equal(t, a.InternedKey(), b.InternedKey())
}
