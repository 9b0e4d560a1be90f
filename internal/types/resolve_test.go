package types

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/metaid/internal/identity"
)

func libraryID(name string) *identity.AssemblyIdentity {
	return identity.MustAssemblyIdentity(name, "", identity.NewVersion(1, 0, 0, 0), nil, "")
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestResolveAliasChain(t *testing.T) {
	for _, hops := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d hops", hops), func(t *testing.T) {
			f := newFixture(t)
			_, ns := f.library(t, "Impl", "Lib")
			widget := f.define(t, ns, "Widget", 0)

			next := libraryID("Impl")
			for i := hops; i > 0; i-- {
				name := fmt.Sprintf("Facade%d", i)
				_, fns := f.library(t, name, "Lib")
				_, err := fns.NewAlias("Widget", 0, f.u.NamespaceTypeRef(next, "Lib", "Widget", 0))
				require.NoError(t, err)
				next = libraryID(name)
			}

			ref := f.u.NamespaceTypeRef(next, "Lib", "Widget", 0)
			assert.True(t, ref.IsAlias())
			assert.Equal(t, "Widget", ref.AliasForType().Name())
			assert.Same(t, widget, ref.ResolvedType())
			assert.Same(t, widget, f.u.Resolve(ref))
		})
	}
}

func TestResolveDirect(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Direct", "Lib")
	def := f.define(t, ns, "Thing", 0)

	ref := f.u.NamespaceTypeRef(libraryID("Direct"), "Lib", "Thing", 0)
	assert.False(t, ref.IsAlias())
	assert.Same(t, f.u.Fallbacks().AliasForType, ref.AliasForType())
	assert.Same(t, def, ref.ResolvedType())

	// Definitions and structural types resolve to themselves.
	assert.Same(t, def, f.u.Resolve(def))
	v := f.u.Vector(ref)
	assert.Same(t, v, f.u.Resolve(v))
}

func TestResolveFailures(t *testing.T) {
	var logs bytes.Buffer
	f := newFixture(t, WithLogger(debugLogger(&logs)))

	_, a := f.library(t, "CycleA", "Lib")
	_, b := f.library(t, "CycleB", "Lib")
	_, err := a.NewAlias("Loop", 0, f.u.NamespaceTypeRef(libraryID("CycleB"), "Lib", "Loop", 0))
	require.NoError(t, err)
	_, err = b.NewAlias("Loop", 0, f.u.NamespaceTypeRef(libraryID("CycleA"), "Lib", "Loop", 0))
	require.NoError(t, err)

	_, d := f.library(t, "Dangling", "Lib")
	_, err = d.NewAlias("ToNowhere", 0, f.u.NamespaceTypeRef(libraryID("NotLoaded"), "Lib", "ToNowhere", 0))
	require.NoError(t, err)
	_, err = d.NewAlias("Empty", 0, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  TypeReference
		log  string
	}{
		{"cycle", f.u.NamespaceTypeRef(libraryID("CycleA"), "Lib", "Loop", 0), "alias cycle"},
		{"unloaded target", f.u.NamespaceTypeRef(libraryID("Dangling"), "Lib", "ToNowhere", 0), "unresolved type reference"},
		{"nil target", f.u.NamespaceTypeRef(libraryID("Dangling"), "Lib", "Empty", 0), "dangling alias"},
		{"missing type", f.u.NamespaceTypeRef(libraryID("Dangling"), "Lib", "Missing", 0), "unresolved type reference"},
		{"missing namespace", f.u.NamespaceTypeRef(libraryID("Dangling"), "Nope", "Missing", 0), "unresolved type reference"},
		{"wrong arity", f.u.NamespaceTypeRef(f.u.CoreAssembly(), "System", "Int32", 1), "unresolved type reference"},
		{"fallback", f.u.Fallbacks().TypeReference, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			assert.Same(t, f.u.Fallbacks().TypeDefinition, f.u.Resolve(tt.ref))
			if tt.log != "" {
				assert.Contains(t, logs.String(), tt.log)
			}
		})
	}
}

func TestResolveNested(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Impl", "Lib")
	outer := f.define(t, ns, "Outer", 0)
	inner, err := outer.NewNestedType("Inner")
	require.NoError(t, err)
	deep, err := inner.NewNestedType("Deep", "T")
	require.NoError(t, err)

	impl := libraryID("Impl")
	outerRef := f.u.NamespaceTypeRef(impl, "Lib", "Outer", 0)
	innerRef := f.u.NestedTypeRef(outerRef, "Inner", 0)
	deepRef := f.u.NestedTypeRef(innerRef, "Deep", 1)

	assert.Same(t, inner, innerRef.ResolvedType())
	assert.Same(t, deep, deepRef.ResolvedType())
	assert.Equal(t, inner.InternedKey(), innerRef.InternedKey())
	assert.Equal(t, NestedTypeKind, innerRef.Kind())
	assert.Same(t, outerRef, innerRef.ContainingType())
	assert.Equal(t, impl.Name(), deepRef.Scope().Name())
	assert.Equal(t, "[Impl]Lib.Outer+Inner+Deep`1", deepRef.String())
	assert.Same(t, f.u.Fallbacks().TypeDefinition, f.u.NestedTypeRef(outerRef, "Nope", 0).ResolvedType())

	// A forwarder without member aliases forwards nested types with their
	// container.
	_, fwd := f.library(t, "Facade", "Lib")
	_, err = fwd.NewAlias("Outer", 0, outerRef)
	require.NoError(t, err)
	viaFacade := f.u.NestedTypeRef(f.u.NamespaceTypeRef(libraryID("Facade"), "Lib", "Outer", 0), "Inner", 0)
	assert.Same(t, inner, viaFacade.ResolvedType())
	assert.False(t, viaFacade.IsAlias())
}

func TestResolveNestedAlias(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Impl", "Lib")
	moved := f.define(t, ns, "Moved", 0)

	// Facade exports Outer+Inner, where Inner now lives at Lib.Moved.
	_, fwd := f.library(t, "Facade", "Lib")
	outerAlias, err := fwd.NewAlias("Outer", 0, f.u.NamespaceTypeRef(libraryID("Impl"), "Lib", "Outer", 0))
	require.NoError(t, err)
	member, err := outerAlias.NewMember("Inner", 0, f.u.NamespaceTypeRef(libraryID("Impl"), "Lib", "Moved", 0))
	require.NoError(t, err)
	assert.Same(t, outerAlias, member.ContainingAlias())

	ref := f.u.NestedTypeRef(f.u.NamespaceTypeRef(libraryID("Facade"), "Lib", "Outer", 0), "Inner", 0)
	assert.True(t, ref.IsAlias())
	assert.Same(t, member, ref.AliasForType())
	assert.Same(t, moved, ref.ResolvedType())

	_, err = outerAlias.NewMember("Inner", 0, nil)
	assert.ErrorIs(t, err, ErrDuplicateType)
}

func TestResolveNestedInGenericInstance(t *testing.T) {
	f := newFixture(t)
	_, ns := f.library(t, "Coll", "Coll")
	dict := f.define(t, ns, "Dictionary", 0, "K", "V")
	entry, err := dict.NewNestedType("Entry")
	require.NoError(t, err)
	_, err = entry.NewField("key", dict.GenericParameters()[0], 0)
	require.NoError(t, err)

	dictRef := f.u.NamespaceTypeRef(libraryID("Coll"), "Coll", "Dictionary", 2)
	inst := f.u.GenericInstance(dictRef, f.prim(String), f.prim(Int32))
	ref := f.u.NestedTypeRef(inst, "Entry", 0)

	def, ok := ref.ResolvedType().(*SpecializedNestedType)
	require.True(t, ok, "resolved to %T", ref.ResolvedType())
	assert.Same(t, inst, def.ContainingType())
	assert.Same(t, entry, def.UnspecializedVersion())
	assert.Equal(t, ref.InternedKey(), def.InternedKey())
	require.Len(t, def.Fields(), 1)
	assert.Same(t, f.prim(String), def.Fields()[0].Type())
}

func TestResolveThroughCustomResolver(t *testing.T) {
	r := &redirectResolver{from: "Old", to: libraryID("New")}
	u := NewUniverse(WithResolver(r))
	r.u = u

	a, err := u.NewAssembly(libraryID("New"))
	require.NoError(t, err)
	def, err := a.RootNamespace().Namespace("Lib").NewType("Thing")
	require.NoError(t, err)

	ref := u.NamespaceTypeRef(libraryID("Old"), "Lib", "Thing", 0)
	assert.Same(t, def, ref.ResolvedType())
}

// redirectResolver sends references to one assembly name to another
// identity.
type redirectResolver struct {
	u    *Universe
	from string
	to   *identity.AssemblyIdentity
}

func (r *redirectResolver) ResolveAssembly(ref *identity.AssemblyIdentity) (*Assembly, bool) {
	if ref.Name() == r.from {
		ref = r.to
	}
	return r.u.LookupAssembly(ref)
}
