package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/typename"
)

func TestParseTypeCanonical(t *testing.T) {
	f := newFixture(t)
	i32 := f.prim(Int32)

	tests := []struct {
		src  string
		want TypeReference
	}{
		{"System.Int32", i32},
		{"System.Int32[]", f.u.Vector(i32)},
		{"System.Int32[][]", f.u.Vector(f.u.Vector(i32))},
		{"System.Int32[*]", f.u.Matrix(i32, 1, nil, nil)},
		{"System.Int32[,]", f.u.Matrix(i32, 2, nil, nil)},
		{"System.Int32*", f.u.Pointer(i32)},
		{"System.Int32&", f.u.ManagedPointer(i32)},
		{"System.Int32*[]&", f.u.ManagedPointer(f.u.Vector(f.u.Pointer(i32)))},
		{"System.Int32, System.Runtime, Version=8.0.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a", i32},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := f.u.ParseType(tt.src, nil)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestParseTypeGeneric(t *testing.T) {
	f := newFixture(t)
	coll := libraryID("Coll")

	got, err := f.u.ParseType("Coll.Dictionary`2[[System.String, System.Runtime, Version=8.0.0.0, PublicKeyToken=b03f5f7f11d50a3a],[System.Int32, System.Runtime, Version=8.0.0.0, PublicKeyToken=b03f5f7f11d50a3a]]", coll)
	require.NoError(t, err)
	inst, ok := got.(*GenericTypeInstance)
	require.True(t, ok, "got %T", got)
	assert.Same(t, f.u.NamespaceTypeRef(coll, "Coll", "Dictionary", 2), inst.GenericType())
	require.Len(t, inst.GenericArguments(), 2)
	assert.Same(t, f.prim(String), inst.GenericArguments()[0])
	assert.Same(t, f.prim(Int32), inst.GenericArguments()[1])

	// Unqualified arguments are bound in the same scope as the generic.
	got, err = f.u.ParseType("Coll.List`1[Coll.Item]", coll)
	require.NoError(t, err)
	assert.Same(t, f.u.GenericInstance(
		f.u.NamespaceTypeRef(coll, "Coll", "List", 1),
		f.u.NamespaceTypeRef(coll, "Coll", "Item", 0),
	), got)
}

func TestParseTypeNestedGeneric(t *testing.T) {
	f := newFixture(t)
	coll := libraryID("Coll")
	a := f.u.NamespaceTypeRef(coll, "", "A", 0)
	b := f.u.NamespaceTypeRef(coll, "", "B", 0)

	got, err := f.u.ParseType("Ns.Outer`1+Mid+Inner`1[A,B]", coll)
	require.NoError(t, err)

	outer := f.u.GenericInstance(f.u.NamespaceTypeRef(coll, "Ns", "Outer", 1), a)
	mid := f.u.NestedTypeRef(outer, "Mid", 0)
	want := f.u.GenericInstance(f.u.NestedTypeRef(mid, "Inner", 1), b)
	assert.Same(t, want, got)
	assert.Equal(t, "[Coll]Ns.Outer`1<[Coll]A>+Mid+Inner`1<[Coll]B>", got.String())
}

func TestParseTypeResolves(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Coll", "Coll")
	list := f.define(t, ns, "List", 0, "T")
	_, err := list.NewField("items", f.u.Vector(list.GenericParameters()[0]), 0)
	require.NoError(t, err)

	got, err := f.u.ParseType("Coll.List`1[[System.Int64, System.Runtime, Version=8.0.0.0, PublicKeyToken=b03f5f7f11d50a3a]]", libraryID("Coll"))
	require.NoError(t, err)
	def := got.ResolvedType()
	require.Len(t, def.Fields(), 1)
	assert.Same(t, f.u.Vector(f.prim(Int64)), def.Fields()[0].Type())
}

func TestBindScope(t *testing.T) {
	f := newFixture(t)
	mod, err := identity.NewModuleIdentity("Loose.netmodule", "/tmp/Loose.netmodule", nil)
	require.NoError(t, err)

	got, err := f.u.ParseType("Loose.Thing", mod)
	require.NoError(t, err)
	ref, ok := got.(*TypeRef)
	require.True(t, ok)
	assert.Same(t, mod, ref.Scope())

	got, err = f.u.ParseType("Lib.Widget, Lib, Version=1.2.3.4, Culture=de-DE", mod)
	require.NoError(t, err)
	ref = got.(*TypeRef)
	asm, ok := ref.Scope().(*identity.AssemblyIdentity)
	require.True(t, ok)
	assert.Equal(t, "Lib", asm.Name())
	assert.Equal(t, identity.NewVersion(1, 2, 3, 4), asm.Version())
	assert.Equal(t, "de-DE", asm.Culture())
}

func TestBindErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.u.ParseType("List`1[", nil)
	assert.Error(t, err)

	_, err = f.u.ParseType("Lib.Widget, Lib, PublicKeyToken=xyz", nil)
	assert.ErrorIs(t, err, identity.ErrInvalidIdentity)

	// Hand-built trees can carry an arity the parser would reject.
	spec := &typename.TypeSpec{Type: &typename.Generic{
		Type: &typename.Named{Namespace: "Coll", Segments: []typename.Segment{{Name: "Map", Arity: 2}}},
		Args: []*typename.TypeSpec{{Type: &typename.Named{Segments: []typename.Segment{{Name: "K"}}}}},
	}}
	_, err = f.u.Bind(spec, nil)
	assert.ErrorIs(t, err, ErrTypeName)

	_, err = f.u.Bind(&typename.TypeSpec{Type: &typename.Named{Segments: []typename.Segment{{Name: ""}}}}, nil)
	assert.ErrorIs(t, err, ErrTypeName)
}
