// Package intern assigns canonical keys to structural type shapes.
//
// A shape is composed of the keys of its components, so interning is
// O(depth) rather than O(size). Equal shapes get equal keys regardless of
// which goroutine interned them first; keys stay valid for the lifetime of
// the table.
package intern

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/you-not-fish/metaid/internal/identity"
)

// Key is an interned shape key. The zero value is NoKey and is never
// assigned to a shape.
type Key uint32

// NoKey is the key of nothing.
const NoKey Key = 0

// Kind identifies the kind of shape a key was assigned to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAssembly
	KindModule
	KindRootNamespace
	KindNamespace
	KindNamespaceType
	KindNestedType
	KindVector
	KindMatrix
	KindGenericInstance
	KindPointer
	KindManagedPointer
	KindFunctionPointer
	KindGenericTypeParam
	KindGenericMethodParam
	KindMethodTypeVar
	KindModified
	KindField
	KindMethod
	KindGenericMethodInstance
	numKinds
)

var kindNames = [...]string{
	KindInvalid:               "invalid",
	KindAssembly:              "assembly",
	KindModule:                "module",
	KindRootNamespace:         "root_namespace",
	KindNamespace:             "namespace",
	KindNamespaceType:         "namespace_type",
	KindNestedType:            "nested_type",
	KindVector:                "vector",
	KindMatrix:                "matrix",
	KindGenericInstance:       "generic_instance",
	KindPointer:               "pointer",
	KindManagedPointer:        "managed_pointer",
	KindFunctionPointer:       "function_pointer",
	KindGenericTypeParam:      "generic_type_param",
	KindGenericMethodParam:    "generic_method_param",
	KindMethodTypeVar:         "method_type_var",
	KindModified:              "modified",
	KindField:                 "field",
	KindMethod:                "method",
	KindGenericMethodInstance: "generic_method_instance",
}

// String returns the kind name used in metric labels.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// InvariantError reports a shape that violates the table's input contract,
// such as a missing component key. The table panics with it.
type InvariantError struct {
	Kind Kind
	Msg  string
}

// Error implements error.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("intern %s: %s", e.Kind, e.Msg)
}

func invariant(kind Kind, format string, args ...any) {
	panic(&InvariantError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// shape is the structural map key. Variable-length parts are packed into
// list so the struct stays comparable.
type shape struct {
	kind Kind
	a, b Key
	n    int64
	name string
	list string
}

// Table is a concurrent shape registry.
type Table struct {
	shapes sync.Map // shape -> Key
	byKey  sync.Map // Key -> shape
	next   atomic.Uint32
	count  atomic.Int64

	metrics *metrics
}

// Option configures a Table.
type Option func(*Table)

// WithRegisterer registers the table's metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(t *Table) {
		t.metrics = newMetrics(reg)
	}
}

// New creates an empty table.
func New(opts ...Option) *Table {
	t := &Table{}
	for _, opt := range opts {
		opt(t)
	}
	if t.metrics == nil {
		t.metrics = newMetrics(prometheus.NewRegistry())
	}
	return t
}

// Len returns the number of interned shapes.
func (t *Table) Len() int {
	return int(t.count.Load())
}

// intern returns the key of s, assigning one if s is new.
func (t *Table) intern(s shape) Key {
	if k, ok := t.shapes.Load(s); ok {
		t.metrics.hit(s.kind)
		return k.(Key)
	}
	// A racing loser leaves its key number unused.
	k := Key(t.next.Add(1))
	if k == NoKey {
		invariant(s.kind, "key space exhausted")
	}
	// k is visible through KindOf and Describe before any caller can
	// receive it.
	t.byKey.Store(k, s)
	if prev, loaded := t.shapes.LoadOrStore(s, k); loaded {
		t.byKey.Delete(k)
		t.metrics.hit(s.kind)
		return prev.(Key)
	}
	t.count.Add(1)
	t.metrics.miss(s.kind)
	return k
}

// KindOf returns the kind of shape k was assigned to, or KindInvalid.
func (t *Table) KindOf(k Key) Kind {
	if s, ok := t.byKey.Load(k); ok {
		return s.(shape).kind
	}
	return KindInvalid
}

func need(kind Kind, what string, k Key) {
	if k == NoKey {
		invariant(kind, "%s key is missing", what)
	}
}

func needIndex(kind Kind, what string, i int) {
	if i < 0 {
		invariant(kind, "%s %d is negative", what, i)
	}
}

func needKeys(kind Kind, what string, keys []Key) {
	for i, k := range keys {
		if k == NoKey {
			invariant(kind, "%s %d key is missing", what, i)
		}
	}
}

func packKeys(buf []byte, keys []Key) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(keys)))
	for _, k := range keys {
		buf = binary.AppendUvarint(buf, uint64(k))
	}
	return buf
}

// Assembly interns an assembly identity. The key is strict: identities
// that differ only by one side lacking a public key token get different
// keys even though they compare Equal.
func (t *Table) Assembly(id *identity.AssemblyIdentity) Key {
	if id == nil || id.Name() == "" {
		invariant(KindAssembly, "identity is missing")
	}
	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, id.Version().Packed())
	buf = append(buf, id.PublicKeyToken()...)
	return t.intern(shape{
		kind: KindAssembly,
		name: id.NameKey() + "\x00" + id.CultureKey(),
		list: string(buf),
	})
}

// Module interns a module identity.
func (t *Table) Module(id *identity.ModuleIdentity) Key {
	if id == nil || id.Name() == "" {
		invariant(KindModule, "identity is missing")
	}
	if asm := id.ContainingAssembly(); asm != nil {
		return t.intern(shape{kind: KindModule, a: t.Assembly(asm), name: id.NameKey()})
	}
	return t.intern(shape{kind: KindModule, name: id.NameKey(), list: id.LocationKey()})
}

// RootNamespace interns the root namespace of the unit with key unit.
func (t *Table) RootNamespace(unit Key) Key {
	need(KindRootNamespace, "unit", unit)
	return t.intern(shape{kind: KindRootNamespace, a: unit})
}

// Namespace interns the namespace called name inside parent.
func (t *Table) Namespace(parent Key, name string) Key {
	need(KindNamespace, "parent", parent)
	return t.intern(shape{kind: KindNamespace, a: parent, name: name})
}

// NamespaceType interns a type reference keyed by its namespace, name, and
// generic parameter count.
func (t *Table) NamespaceType(namespace Key, name string, arity int) Key {
	need(KindNamespaceType, "namespace", namespace)
	needIndex(KindNamespaceType, "arity", arity)
	return t.intern(shape{kind: KindNamespaceType, a: namespace, name: name, n: int64(arity)})
}

// NestedType interns a nested type reference keyed by its containing type,
// name, and generic parameter count.
func (t *Table) NestedType(containing Key, name string, arity int) Key {
	need(KindNestedType, "containing type", containing)
	needIndex(KindNestedType, "arity", arity)
	return t.intern(shape{kind: KindNestedType, a: containing, name: name, n: int64(arity)})
}

// Vector interns a zero-based single-dimensional array of elem.
func (t *Table) Vector(elem Key) Key {
	need(KindVector, "element", elem)
	return t.intern(shape{kind: KindVector, a: elem})
}

// Matrix interns a multi-dimensional array.
func (t *Table) Matrix(elem Key, rank int, sizes []uint64, lowerBounds []int64) Key {
	need(KindMatrix, "element", elem)
	if rank <= 0 {
		invariant(KindMatrix, "rank %d is not positive", rank)
	}
	if len(sizes) > rank || len(lowerBounds) > rank {
		invariant(KindMatrix, "%d sizes and %d lower bounds exceed rank %d", len(sizes), len(lowerBounds), rank)
	}
	var buf []byte
	buf = binary.AppendUvarint(buf, uint64(len(sizes)))
	for _, s := range sizes {
		buf = binary.AppendUvarint(buf, s)
	}
	buf = binary.AppendUvarint(buf, uint64(len(lowerBounds)))
	for _, lb := range lowerBounds {
		buf = binary.AppendVarint(buf, lb)
	}
	return t.intern(shape{kind: KindMatrix, a: elem, n: int64(rank), list: string(buf)})
}

// GenericInstance interns generic applied to args in order.
func (t *Table) GenericInstance(generic Key, args []Key) Key {
	need(KindGenericInstance, "generic type", generic)
	if len(args) == 0 {
		invariant(KindGenericInstance, "no type arguments")
	}
	needKeys(KindGenericInstance, "argument", args)
	return t.intern(shape{kind: KindGenericInstance, a: generic, list: string(packKeys(nil, args))})
}

// Pointer interns an unmanaged pointer to target.
func (t *Table) Pointer(target Key) Key {
	need(KindPointer, "target", target)
	return t.intern(shape{kind: KindPointer, a: target})
}

// ManagedPointer interns a managed (by-reference) pointer to target.
func (t *Table) ManagedPointer(target Key) Key {
	need(KindManagedPointer, "target", target)
	return t.intern(shape{kind: KindManagedPointer, a: target})
}

// GenericTypeParam interns the index-th generic parameter of definingType.
func (t *Table) GenericTypeParam(definingType Key, index int) Key {
	need(KindGenericTypeParam, "defining type", definingType)
	needIndex(KindGenericTypeParam, "index", index)
	return t.intern(shape{kind: KindGenericTypeParam, a: definingType, n: int64(index)})
}

// GenericMethodParam interns the index-th generic parameter of
// definingMethod.
func (t *Table) GenericMethodParam(definingMethod Key, index int) Key {
	need(KindGenericMethodParam, "defining method", definingMethod)
	needIndex(KindGenericMethodParam, "index", index)
	return t.intern(shape{kind: KindGenericMethodParam, a: definingMethod, n: int64(index)})
}

// MethodTypeVar interns the index-th method type variable as it appears
// inside a method signature, independent of the method itself. Method
// keys are computed over these slots so a method key never depends on the
// keys of its own generic parameters.
func (t *Table) MethodTypeVar(index int) Key {
	needIndex(KindMethodTypeVar, "index", index)
	return t.intern(shape{kind: KindMethodTypeVar, n: int64(index)})
}

// ModifierShape is one custom modifier of a modified type.
type ModifierShape struct {
	Modifier Key
	Optional bool
}

func packModifiers(kind Kind, buf []byte, mods []ModifierShape) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(mods)))
	for i, m := range mods {
		if m.Modifier == NoKey {
			invariant(kind, "modifier %d key is missing", i)
		}
		buf = binary.AppendUvarint(buf, uint64(m.Modifier))
		buf = appendBool(buf, m.Optional)
	}
	return buf
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// Modified interns underlying with the ordered custom modifiers.
func (t *Table) Modified(underlying Key, modifiers []ModifierShape) Key {
	need(KindModified, "underlying", underlying)
	if len(modifiers) == 0 {
		invariant(KindModified, "no modifiers")
	}
	return t.intern(shape{kind: KindModified, a: underlying, list: string(packModifiers(KindModified, nil, modifiers))})
}

// ParamShape is one parameter of a signature.
type ParamShape struct {
	Type      Key
	ByRef     bool
	Modifiers []ModifierShape
}

// SignatureShape is a calling convention with parameters and a return
// type.
type SignatureShape struct {
	CallingConvention uint8
	Params            []ParamShape
	ExtraArgs         []ParamShape
	Return            Key
	ReturnByRef       bool
	ReturnModifiers   []ModifierShape
}

func (s *SignatureShape) pack(kind Kind, buf []byte) []byte {
	need(kind, "return type", s.Return)
	buf = append(buf, s.CallingConvention)
	buf = binary.AppendUvarint(buf, uint64(s.Return))
	buf = appendBool(buf, s.ReturnByRef)
	buf = packModifiers(kind, buf, s.ReturnModifiers)
	for _, params := range [][]ParamShape{s.Params, s.ExtraArgs} {
		buf = binary.AppendUvarint(buf, uint64(len(params)))
		for i, p := range params {
			if p.Type == NoKey {
				invariant(kind, "parameter %d key is missing", i)
			}
			buf = binary.AppendUvarint(buf, uint64(p.Type))
			buf = appendBool(buf, p.ByRef)
			buf = packModifiers(kind, buf, p.Modifiers)
		}
	}
	return buf
}

// FunctionPointer interns a function pointer type with signature sig.
func (t *Table) FunctionPointer(sig SignatureShape) Key {
	return t.intern(shape{kind: KindFunctionPointer, list: string(sig.pack(KindFunctionPointer, nil))})
}

// Field interns a field reference by containing type, name, and the
// unspecialized field type.
func (t *Table) Field(containing Key, name string, typ Key) Key {
	need(KindField, "containing type", containing)
	need(KindField, "field type", typ)
	return t.intern(shape{kind: KindField, a: containing, b: typ, name: name})
}

// MethodShape describes a method reference. Occurrences of the method's
// own generic parameters in Signature must use MethodTypeVar keys.
type MethodShape struct {
	Containing   Key
	Name         string
	GenericArity int
	Signature    SignatureShape
}

// Method interns a method reference.
func (t *Table) Method(m MethodShape) Key {
	need(KindMethod, "containing type", m.Containing)
	needIndex(KindMethod, "generic arity", m.GenericArity)
	return t.intern(shape{
		kind: KindMethod,
		a:    m.Containing,
		n:    int64(m.GenericArity),
		name: m.Name,
		list: string(m.Signature.pack(KindMethod, nil)),
	})
}

// GenericMethodInstance interns method applied to args in order.
func (t *Table) GenericMethodInstance(method Key, args []Key) Key {
	need(KindGenericMethodInstance, "generic method", method)
	if len(args) == 0 {
		invariant(KindGenericMethodInstance, "no type arguments")
	}
	needKeys(KindGenericMethodInstance, "argument", args)
	return t.intern(shape{kind: KindGenericMethodInstance, a: method, list: string(packKeys(nil, args))})
}

// Describe renders the shape behind k for diagnostics. Component keys are
// shown as #n.
func (t *Table) Describe(k Key) string {
	v, ok := t.byKey.Load(k)
	if !ok {
		return fmt.Sprintf("#%d(unknown)", k)
	}
	s := v.(shape)
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d=%s(", k, s.kind)
	var parts []string
	if s.a != NoKey {
		parts = append(parts, fmt.Sprintf("#%d", s.a))
	}
	if s.b != NoKey {
		parts = append(parts, fmt.Sprintf("#%d", s.b))
	}
	if s.name != "" {
		parts = append(parts, fmt.Sprintf("%q", strings.ReplaceAll(s.name, "\x00", ",")))
	}
	switch s.kind {
	case KindNamespaceType, KindNestedType, KindMethod:
		parts = append(parts, fmt.Sprintf("arity=%d", s.n))
	case KindGenericTypeParam, KindGenericMethodParam, KindMethodTypeVar:
		parts = append(parts, fmt.Sprintf("index=%d", s.n))
	case KindMatrix:
		parts = append(parts, fmt.Sprintf("rank=%d", s.n))
	case KindGenericInstance, KindGenericMethodInstance:
		parts = append(parts, "args="+describeKeys(s.list))
	}
	sb.WriteString(strings.Join(parts, " "))
	sb.WriteString(")")
	return sb.String()
}

func describeKeys(list string) string {
	buf := []byte(list)
	n, w := binary.Uvarint(buf)
	buf = buf[w:]
	parts := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		k, w := binary.Uvarint(buf)
		buf = buf[w:]
		parts = append(parts, fmt.Sprintf("#%d", k))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
