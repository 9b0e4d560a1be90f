package validate

import (
	"fmt"
	"log/slog"

	"github.com/you-not-fish/metaid/internal/identity"
	"github.com/you-not-fish/metaid/internal/intern"
	"github.com/you-not-fish/metaid/internal/types"
)

// Config specifies how problems are reported.
type Config struct {
	// Error is called for each problem.
	// If nil, only the first problem is returned.
	Error ErrorHandler

	// Logger receives a summary per checked unit. The default is
	// slog.Default().
	Logger *slog.Logger
}

// Checker walks units and reports what it finds.
type Checker struct {
	conf *Config
	u    *types.Universe

	// References already reported as unresolved, so each is reported once
	// per check.
	unresolved map[types.TypeReference]bool

	// Error tracking
	errors int
	first  *Error
}

// NewChecker creates a checker for units of u.
func NewChecker(u *types.Universe, conf *Config) *Checker {
	if conf == nil {
		conf = &Config{}
	}
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}
	return &Checker{conf: conf, u: u, unresolved: make(map[types.TypeReference]bool)}
}

// Check validates every assembly and standalone module of u. It returns
// the first problem found, if any.
func Check(u *types.Universe, conf *Config) error {
	c := NewChecker(u, conf)
	for _, a := range u.Assemblies() {
		c.CheckUnit(a)
	}
	for _, m := range u.Modules() {
		c.CheckUnit(m)
	}
	return c.Err()
}

// Err returns the first problem found so far, or nil.
func (c *Checker) Err() error {
	if c.errors > 0 {
		return c.first
	}
	return nil
}

// Errors returns the number of problems found so far.
func (c *Checker) Errors() int { return c.errors }

// CheckUnit validates one unit.
func (c *Checker) CheckUnit(unit types.Unit) {
	before := c.errors
	c.checkNamespace(unit.RootNamespace())
	c.conf.Logger.Debug("unit checked", "unit", unit.Name(), "problems", c.errors-before)
}

func (c *Checker) checkNamespace(ns *types.Namespace) {
	// Type names that differ only in case cannot be told apart by
	// case-insensitive consumers.
	folded := make(map[string]*types.NamespaceTypeDef)
	for _, t := range ns.Types() {
		k := fmt.Sprintf("%s`%d", identity.Fold(t.Name()), t.GenericParameterCount())
		if prev, ok := folded[k]; ok {
			c.errorf(t, "name differs only in case from %s", prev)
		} else {
			folded[k] = t
		}
		c.checkType(t)
	}
	for _, a := range ns.Aliases() {
		c.checkAlias(a)
	}
	for _, child := range ns.Namespaces() {
		c.checkNamespace(child)
	}
}

func (c *Checker) checkType(t types.TypeDefinition) {
	if n, ok := t.(types.NamedEntity); ok && n.Name() == "" {
		c.errorf(t, "empty type name")
	}
	for i, p := range t.GenericParameters() {
		if p.Index() != i || p.DefiningType() != t {
			c.errorf(t, "generic parameter %s is listed at %d but has index %d", p, i, p.Index())
		}
	}

	for _, b := range t.BaseClasses() {
		c.checkRef(t, b, scope{def: t})
		if b.ResolvedType() == t {
			c.errorf(t, "type is its own base class")
		}
	}
	for _, i := range t.Interfaces() {
		c.checkRef(t, i, scope{def: t})
	}
	if t.IsEnum() {
		if u := t.UnderlyingType(); c.u.Fallbacks().IsFallback(u) {
			c.errorf(t, "enum has no underlying type")
		} else if u.TypeCode().Info()&types.IsInteger == 0 {
			c.errorf(t, "enum underlying type %s is not integral", u)
		}
	}

	for _, f := range t.Fields() {
		if f.ContainingType() != t {
			c.errorf(f, "field disagrees about its container: %s", f.ContainingType())
		}
		if f.Name() == "" {
			c.errorf(f, "empty field name")
		}
		c.checkRef(f, f.Type(), scope{def: t})
	}

	methods := make(map[intern.Key]types.Method)
	for _, m := range t.Methods() {
		if m.ContainingType() != t {
			c.errorf(m, "method disagrees about its container: %s", m.ContainingType())
		}
		if m.Name() == "" {
			c.errorf(m, "empty method name")
		}
		if k := m.InternedKey(); k != intern.NoKey {
			if prev, ok := methods[k]; ok {
				c.errorf(m, "duplicate of %s", prev)
			} else {
				methods[k] = m
			}
		}
		sc := scope{def: t, method: m}
		if ret := m.ReturnType(); c.u.Fallbacks().IsFallback(ret) {
			c.errorf(m, "return type not set")
		} else {
			c.checkRef(m, ret, sc)
		}
		for _, p := range m.Parameters() {
			c.checkRef(m, p.Type(), sc)
		}
	}

	for _, n := range t.NestedTypes() {
		if n.ContainingType() != t {
			c.errorf(n, "nested type disagrees about its container: %s", n.ContainingType())
		}
		c.checkType(n)
	}
}

// checkAlias follows the chain that starts at a and reports dangling
// links, cycles, and targets that do not resolve.
func (c *Checker) checkAlias(a *types.AliasForType) {
	fb := c.u.Fallbacks()
	seen := map[*types.AliasForType]bool{a: true}
	for cur := a; ; {
		next := cur.AliasedType()
		if fb.IsFallback(next) {
			c.errorf(a, "alias link %s has no target", cur)
			break
		}
		if !next.IsAlias() {
			if fb.IsFallback(next.ResolvedType()) {
				c.errorf(a, "alias target %s does not resolve", next)
			}
			break
		}
		cur = next.AliasForType()
		if seen[cur] {
			c.errorf(a, "alias cycle through %s", cur)
			break
		}
		seen[cur] = true
	}
	for _, m := range a.Members() {
		if m.ContainingAlias() != a {
			c.errorf(m, "alias member disagrees about its container")
		}
		c.checkAlias(m)
	}
}

// scope is the context a signature type appears in.
type scope struct {
	def    types.TypeDefinition
	method types.Method // nil outside method signatures
}

// inherits reports whether def or one of its containers is owner. A
// nested type that does not inherit generic parameters hides those of its
// containers.
func (s scope) inherits(owner types.TypeDefinition) bool {
	for def := s.def; def != nil; {
		if def == owner {
			return true
		}
		n, ok := def.(types.NestedType)
		if !ok || n.DoesNotInheritGenericParameters() {
			return false
		}
		def = n.ContainingType()
	}
	return false
}

// checkRef walks the structure of t, as used by subject, and reports
// generic parameters used out of scope and references that do not
// resolve.
func (c *Checker) checkRef(subject fmt.Stringer, t types.TypeReference, s scope) {
	switch t := t.(type) {
	case nil:
		c.errorf(subject, "missing type")
	case *types.TypeRef:
		if t.IsNested() {
			c.checkRef(subject, t.ContainingType(), s)
		}
		if c.unresolved[t] {
			return
		}
		if c.u.Fallbacks().IsFallback(t) || c.u.Fallbacks().IsFallback(t.ResolvedType()) {
			c.unresolved[t] = true
			c.errorf(subject, "unresolved reference %s", t)
		}
	case *types.GenericTypeInstance:
		c.checkRef(subject, t.GenericType(), s)
		for _, a := range t.GenericArguments() {
			c.checkRef(subject, a, s)
		}
	case *types.Vector:
		c.checkRef(subject, t.Elem(), s)
	case *types.Matrix:
		c.checkRef(subject, t.Elem(), s)
	case *types.Pointer:
		c.checkRef(subject, t.Target(), s)
	case *types.ManagedPointer:
		c.checkRef(subject, t.Target(), s)
	case *types.Modified:
		c.checkRef(subject, t.UnmodifiedType(), s)
		for _, m := range t.CustomModifiers() {
			c.checkRef(subject, m.Modifier(), s)
		}
	case *types.FunctionPointer:
		c.checkRef(subject, t.ReturnType(), s)
		for _, p := range t.Parameters() {
			c.checkRef(subject, p.Type, s)
		}
		for _, p := range t.ExtraArguments() {
			c.checkRef(subject, p.Type, s)
		}
	case *types.GenericTypeParameter:
		owner := t.DefiningType()
		if !s.inherits(owner) {
			c.errorf(subject, "generic parameter %s of %s is not in scope", t, owner)
		} else if params := owner.GenericParameters(); t.Index() >= len(params) || params[t.Index()] != t {
			c.errorf(subject, "generic parameter %s has index %d, %s has %d", t, t.Index(), owner, len(params))
		}
	case *types.GenericMethodParameter:
		if s.method == nil || t.DefiningMethod() != s.method {
			c.errorf(subject, "method generic parameter %s of %s is not in scope", t, t.DefiningMethod())
		}
	case *types.MethodTypeVar:
		switch {
		case s.method == nil:
			c.errorf(subject, "method type variable %s outside a method signature", t)
		case t.Index() >= len(s.method.GenericParameters()):
			c.errorf(subject, "method type variable %s out of range, method has %d generic parameters", t, len(s.method.GenericParameters()))
		}
	default:
		if c.u.Fallbacks().IsFallback(t) {
			c.errorf(subject, "unresolved reference")
		}
	}
}
