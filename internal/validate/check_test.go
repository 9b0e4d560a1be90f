package validate

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/types"
)

type env struct {
	u  *types.Universe
	ns *types.Namespace // namespace "Lib" of assembly "Lib"
}

func newEnv(t *testing.T) *env {
	t.Helper()
	u := types.NewUniverse()
	core, err := u.NewAssembly(u.CoreAssembly())
	require.NoError(t, err)
	sys := core.RootNamespace().Namespace("System")
	obj, err := sys.NewType("Object")
	require.NoError(t, err)
	for _, name := range []string{"ValueType", "Enum", "String", "Int32"} {
		d, err := sys.NewType(name)
		require.NoError(t, err)
		d.AddBaseClass(obj)
	}
	return &env{u: u, ns: library(t, u, "Lib")}
}

func library(t *testing.T, u *types.Universe, name string) *types.Namespace {
	t.Helper()
	a, err := u.NewAssembly(identity.MustAssemblyIdentity(name, "", identity.NewVersion(1, 0, 0, 0), nil, ""))
	require.NoError(t, err)
	return a.RootNamespace().Namespace("Lib")
}

func (e *env) int32() types.TypeReference { return e.u.Platform().Primitive(types.Int32) }

func (e *env) missing(name string) *types.TypeRef {
	return e.u.NamespaceTypeRef(identity.MustAssemblyIdentity("NotLoaded", "", identity.Version{}, nil, ""), "Lib", name, 0)
}

// check runs the checker over e's universe and returns every message.
func (e *env) check(t *testing.T) []string {
	t.Helper()
	var msgs []string
	conf := &Config{Error: func(subject, msg string) {
		msgs = append(msgs, subject+": "+msg)
	}}
	err := Check(e.u, conf)
	assert.Equal(t, len(msgs) > 0, err != nil)
	return msgs
}

func TestCheckClean(t *testing.T) {
	e := newEnv(t)
	list, err := e.ns.NewType("List", "T")
	require.NoError(t, err)
	T := list.GenericParameters()[0]
	list.AddBaseClass(e.u.Platform().SystemObject)
	_, err = list.NewField("items", e.u.Vector(T), 0)
	require.NoError(t, err)

	get := list.NewMethod("Get")
	get.SetReturnType(T)
	get.AddParameter("index", e.int32(), false)

	mapm := list.NewMethod("Map", "U")
	mapm.SetReturnType(mapm.GenericParameters()[0])
	mapm.AddParameter("item", T, false)

	enum, err := list.NewNestedType("Enumerator")
	require.NoError(t, err)
	_, err = enum.NewField("current", T, 0)
	require.NoError(t, err)

	color, err := e.ns.NewType("Color")
	require.NoError(t, err)
	color.SetFlags(types.EnumType)
	color.SetUnderlyingType(e.int32())

	_, err = e.ns.NewAlias("Forwarded", 1, e.u.NamespaceTypeRef(identity.MustAssemblyIdentity("Lib", "", identity.NewVersion(1, 0, 0, 0), nil, ""), "Lib", "List", 1))
	require.NoError(t, err)

	assert.Empty(t, e.check(t))
}

func TestCheckProblems(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, e *env)
		want  string
	}{
		{"alias cycle", func(t *testing.T, e *env) {
			other := library(t, e.u, "Other")
			_, err := e.ns.NewAlias("Loop", 0, e.u.NamespaceTypeRef(other.Unit().UnitIdentity(), "Lib", "Loop", 0))
			require.NoError(t, err)
			_, err = other.NewAlias("Loop", 0, e.u.NamespaceTypeRef(e.ns.Unit().UnitIdentity(), "Lib", "Loop", 0))
			require.NoError(t, err)
		}, "alias cycle through"},
		{"dangling alias", func(t *testing.T, e *env) {
			_, err := e.ns.NewAlias("Empty", 0, nil)
			require.NoError(t, err)
		}, "has no target"},
		{"unresolved alias target", func(t *testing.T, e *env) {
			_, err := e.ns.NewAlias("Gone", 0, e.missing("Gone"))
			require.NoError(t, err)
		}, "alias target [NotLoaded]Lib.Gone does not resolve"},
		{"unresolved field type", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("Holder")
			require.NoError(t, err)
			_, err = d.NewField("x", e.u.Vector(e.missing("Thing")), 0)
			require.NoError(t, err)
		}, "unresolved reference [NotLoaded]Lib.Thing"},
		{"generic parameter out of scope", func(t *testing.T, e *env) {
			a, err := e.ns.NewType("A", "T")
			require.NoError(t, err)
			b, err := e.ns.NewType("B")
			require.NoError(t, err)
			_, err = b.NewField("x", a.GenericParameters()[0], 0)
			require.NoError(t, err)
		}, "is not in scope"},
		{"outer parameter in non-inheriting nested type", func(t *testing.T, e *env) {
			outer, err := e.ns.NewType("Outer", "T")
			require.NoError(t, err)
			inner, err := outer.NewNestedType("Inner")
			require.NoError(t, err)
			inner.SetFlags(types.DoesNotInheritGenericParameters)
			_, err = inner.NewField("x", outer.GenericParameters()[0], 0)
			require.NoError(t, err)
		}, "is not in scope"},
		{"method parameter out of scope", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("D")
			require.NoError(t, err)
			m1 := d.NewMethod("M1", "U")
			m1.SetReturnType(e.int32())
			m2 := d.NewMethod("M2")
			m2.SetReturnType(m1.GenericParameters()[0])
		}, "method generic parameter"},
		{"method type variable out of range", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("D")
			require.NoError(t, err)
			m := d.NewMethod("M", "U")
			m.SetReturnType(e.u.MethodTypeVar(2))
		}, "out of range, method has 1 generic parameters"},
		{"method type variable in field", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("D")
			require.NoError(t, err)
			_, err = d.NewField("x", e.u.MethodTypeVar(0), 0)
			require.NoError(t, err)
		}, "outside a method signature"},
		{"names differing in case", func(t *testing.T, e *env) {
			_, err := e.ns.NewType("Widget")
			require.NoError(t, err)
			_, err = e.ns.NewType("widget")
			require.NoError(t, err)
		}, "differs only in case"},
		{"duplicate method", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("D")
			require.NoError(t, err)
			for range 2 {
				m := d.NewMethod("M")
				m.SetReturnType(e.int32())
				m.AddParameter("x", e.int32(), false)
			}
		}, "duplicate of"},
		{"return type not set", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("D")
			require.NoError(t, err)
			d.NewMethod("M")
		}, "return type not set"},
		{"enum without underlying type", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("Color")
			require.NoError(t, err)
			d.SetFlags(types.EnumType)
		}, "enum has no underlying type"},
		{"enum over a class", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("Color")
			require.NoError(t, err)
			d.SetFlags(types.EnumType)
			d.SetUnderlyingType(e.u.Platform().SystemObject)
		}, "is not integral"},
		{"own base class", func(t *testing.T, e *env) {
			d, err := e.ns.NewType("Self")
			require.NoError(t, err)
			d.AddBaseClass(d)
		}, "type is its own base class"},
		{"empty name", func(t *testing.T, e *env) {
			_, err := e.ns.NewType("")
			require.NoError(t, err)
		}, "empty type name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			tt.build(t, e)
			msgs := e.check(t)
			require.NotEmpty(t, msgs)
			found := false
			for _, m := range msgs {
				if strings.Contains(m, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "want %q in %q", tt.want, msgs)
		})
	}
}

func TestCheckReportsReferenceOnce(t *testing.T) {
	e := newEnv(t)
	d, err := e.ns.NewType("Holder")
	require.NoError(t, err)
	gone := e.missing("Gone")
	for _, name := range []string{"a", "b", "c"} {
		_, err = d.NewField(name, gone, 0)
		require.NoError(t, err)
	}
	assert.Len(t, e.check(t), 1)
}

func TestCheckFirstError(t *testing.T) {
	e := newEnv(t)
	_, err := e.ns.NewAlias("Empty", 0, nil)
	require.NoError(t, err)
	_, err = e.ns.NewType("")
	require.NoError(t, err)

	var logs bytes.Buffer
	c := NewChecker(e.u, &Config{Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))})
	require.NoError(t, c.Err())
	c.CheckUnit(e.ns.Unit())
	assert.Equal(t, 2, c.Errors())

	var verr *Error
	require.True(t, errors.As(c.Err(), &verr))
	assert.Equal(t, "empty type name", verr.Msg)
	assert.Equal(t, verr.Subject+": "+verr.Msg, verr.Error())
	assert.Contains(t, logs.String(), "unit checked")
	assert.Contains(t, logs.String(), "problems=2")
}
