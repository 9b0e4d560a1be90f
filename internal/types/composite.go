package types

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/metaid/internal/intern"
)

// Vector represents a zero-based single-dimensional array T[].
type Vector struct {
	structural
	elem TypeReference
	key  intern.Key
}

// Vector returns the canonical vector of elem.
func (u *Universe) Vector(elem TypeReference) *Vector {
	build := func(key intern.Key) *Vector {
		v := &Vector{elem: elem, key: key}
		v.u = u
		return v
	}
	ek := elem.InternedKey()
	if ek == intern.NoKey {
		return build(intern.NoKey)
	}
	key := u.table.Vector(ek)
	return canonical(u, key, func() *Vector { return build(key) })
}

// Kind implements TypeReference.
func (*Vector) Kind() TypeKind { return VectorKind }

// Elem returns the element type.
func (v *Vector) Elem() TypeReference { return v.elem }

// InternedKey implements TypeReference.
func (v *Vector) InternedKey() intern.Key { return v.key }

// BaseClasses implements TypeDefinition.
func (v *Vector) BaseClasses() []TypeReference { return []TypeReference{v.u.platform.SystemArray} }

// ResolvedType implements TypeReference.
func (v *Vector) ResolvedType() TypeDefinition { return v }

// String implements TypeReference.
func (v *Vector) String() string { return v.elem.String() + "[]" }

// Matrix represents a multi-dimensional array.
type Matrix struct {
	structural
	elem        TypeReference
	rank        int
	sizes       []uint64
	lowerBounds []int64
	key         intern.Key
}

// Matrix returns the canonical array of elem with the given rank. Sizes
// and lower bounds are given for leading dimensions only.
func (u *Universe) Matrix(elem TypeReference, rank int, sizes []uint64, lowerBounds []int64) *Matrix {
	build := func(key intern.Key) *Matrix {
		m := &Matrix{elem: elem, rank: rank, sizes: sizes, lowerBounds: lowerBounds, key: key}
		m.u = u
		return m
	}
	ek := elem.InternedKey()
	if ek == intern.NoKey {
		return build(intern.NoKey)
	}
	key := u.table.Matrix(ek, rank, sizes, lowerBounds)
	return canonical(u, key, func() *Matrix { return build(key) })
}

// Kind implements TypeReference.
func (*Matrix) Kind() TypeKind { return MatrixKind }

// Elem returns the element type.
func (m *Matrix) Elem() TypeReference { return m.elem }

// Rank returns the number of dimensions.
func (m *Matrix) Rank() int { return m.rank }

// Sizes returns the sizes of the leading dimensions.
func (m *Matrix) Sizes() []uint64 { return m.sizes }

// LowerBounds returns the lower bounds of the leading dimensions.
func (m *Matrix) LowerBounds() []int64 { return m.lowerBounds }

// InternedKey implements TypeReference.
func (m *Matrix) InternedKey() intern.Key { return m.key }

// BaseClasses implements TypeDefinition.
func (m *Matrix) BaseClasses() []TypeReference { return []TypeReference{m.u.platform.SystemArray} }

// ResolvedType implements TypeReference.
func (m *Matrix) ResolvedType() TypeDefinition { return m }

// String implements TypeReference.
func (m *Matrix) String() string {
	if m.rank == 1 && len(m.sizes) == 0 && len(m.lowerBounds) == 0 {
		return m.elem.String() + "[*]"
	}
	dims := make([]string, m.rank)
	for i := range dims {
		var lb int64
		if i < len(m.lowerBounds) {
			lb = m.lowerBounds[i]
		}
		switch {
		case i < len(m.sizes):
			dims[i] = fmt.Sprintf("%d...%d", lb, lb+int64(m.sizes[i])-1)
		case i < len(m.lowerBounds):
			dims[i] = fmt.Sprintf("%d...", lb)
		}
	}
	return m.elem.String() + "[" + strings.Join(dims, ",") + "]"
}

// Pointer represents an unmanaged pointer T*.
type Pointer struct {
	structural
	target TypeReference
	key    intern.Key
}

// Pointer returns the canonical unmanaged pointer to target.
func (u *Universe) Pointer(target TypeReference) *Pointer {
	build := func(key intern.Key) *Pointer {
		p := &Pointer{target: target, key: key}
		p.u = u
		return p
	}
	tk := target.InternedKey()
	if tk == intern.NoKey {
		return build(intern.NoKey)
	}
	key := u.table.Pointer(tk)
	return canonical(u, key, func() *Pointer { return build(key) })
}

// Kind implements TypeReference.
func (*Pointer) Kind() TypeKind { return PointerKind }

// Target returns the type pointed to.
func (p *Pointer) Target() TypeReference { return p.target }

// InternedKey implements TypeReference.
func (p *Pointer) InternedKey() intern.Key { return p.key }

// TypeCode implements TypeReference.
func (*Pointer) TypeCode() PrimitiveTypeCode { return PointerCode }

// ResolvedType implements TypeReference.
func (p *Pointer) ResolvedType() TypeDefinition { return p }

// String implements TypeReference.
func (p *Pointer) String() string { return p.target.String() + "*" }

// ManagedPointer represents a managed pointer T&.
type ManagedPointer struct {
	structural
	target TypeReference
	key    intern.Key
}

// ManagedPointer returns the canonical managed pointer to target.
func (u *Universe) ManagedPointer(target TypeReference) *ManagedPointer {
	build := func(key intern.Key) *ManagedPointer {
		p := &ManagedPointer{target: target, key: key}
		p.u = u
		return p
	}
	tk := target.InternedKey()
	if tk == intern.NoKey {
		return build(intern.NoKey)
	}
	key := u.table.ManagedPointer(tk)
	return canonical(u, key, func() *ManagedPointer { return build(key) })
}

// Kind implements TypeReference.
func (*ManagedPointer) Kind() TypeKind { return ManagedPointerKind }

// Target returns the type referred to.
func (p *ManagedPointer) Target() TypeReference { return p.target }

// InternedKey implements TypeReference.
func (p *ManagedPointer) InternedKey() intern.Key { return p.key }

// TypeCode implements TypeReference.
func (*ManagedPointer) TypeCode() PrimitiveTypeCode { return ReferenceCode }

// ResolvedType implements TypeReference.
func (p *ManagedPointer) ResolvedType() TypeDefinition { return p }

// String implements TypeReference.
func (p *ManagedPointer) String() string { return p.target.String() + "&" }

// CustomModifier is a required or optional modifier attached to a type.
type CustomModifier struct {
	entity
	modifier TypeReference
	optional bool
}

// NewCustomModifier creates a modifier of type modifier.
func (u *Universe) NewCustomModifier(modifier TypeReference, optional bool) *CustomModifier {
	if modifier == nil {
		modifier = u.fallbacks.TypeReference
	}
	return &CustomModifier{entity: entity{u: u}, modifier: modifier, optional: optional}
}

// Modifier returns the modifier type.
func (c *CustomModifier) Modifier() TypeReference { return c.modifier }

// IsOptional reports whether the modifier is modopt rather than modreq.
func (c *CustomModifier) IsOptional() bool { return c.optional }

// String returns "modopt(T)" or "modreq(T)".
func (c *CustomModifier) String() string {
	if c.optional {
		return "modopt(" + c.modifier.String() + ")"
	}
	return "modreq(" + c.modifier.String() + ")"
}

// Modified represents a type with custom modifiers.
type Modified struct {
	structural
	underlying TypeReference
	mods       []*CustomModifier
	key        intern.Key
}

// Modified returns the canonical modified type.
func (u *Universe) Modified(underlying TypeReference, mods ...*CustomModifier) *Modified {
	build := func(key intern.Key) *Modified {
		m := &Modified{underlying: underlying, mods: mods, key: key}
		m.u = u
		return m
	}
	uk := underlying.InternedKey()
	shapes, ok := u.keys.modifiers(mods)
	if uk == intern.NoKey || !ok || len(mods) == 0 {
		return build(intern.NoKey)
	}
	key := u.table.Modified(uk, shapes)
	return canonical(u, key, func() *Modified { return build(key) })
}

// Kind implements TypeReference.
func (*Modified) Kind() TypeKind { return ModifiedKind }

// UnmodifiedType returns the underlying type.
func (m *Modified) UnmodifiedType() TypeReference { return m.underlying }

// CustomModifiers returns the modifiers in order.
func (m *Modified) CustomModifiers() []*CustomModifier { return m.mods }

// InternedKey implements TypeReference.
func (m *Modified) InternedKey() intern.Key { return m.key }

// TypeCode implements TypeReference.
func (m *Modified) TypeCode() PrimitiveTypeCode { return m.underlying.TypeCode() }

// ResolvedType implements TypeReference.
func (m *Modified) ResolvedType() TypeDefinition { return m }

// String implements TypeReference.
func (m *Modified) String() string {
	var buf strings.Builder
	buf.WriteString(m.underlying.String())
	for _, mod := range m.mods {
		buf.WriteString(" ")
		buf.WriteString(mod.String())
	}
	return buf.String()
}

// SignatureParam is a parameter of a function pointer signature.
type SignatureParam struct {
	Type      TypeReference
	ByRef     bool
	Modifiers []*CustomModifier
}

// FunctionPointer represents a pointer to a function with a given
// signature.
type FunctionPointer struct {
	structural
	conv   CallingConvention
	ret    TypeReference
	params []SignatureParam
	extra  []SignatureParam
	key    intern.Key
}

// FunctionPointer returns the canonical function pointer type. extra
// holds the extra arguments of a vararg call site.
func (u *Universe) FunctionPointer(conv CallingConvention, ret TypeReference, params, extra []SignatureParam) *FunctionPointer {
	build := func(key intern.Key) *FunctionPointer {
		f := &FunctionPointer{conv: conv, ret: ret, params: params, extra: extra, key: key}
		f.u = u
		return f
	}
	sig, ok := u.keys.signature(conv, ret, false, nil, params, extra)
	if !ok {
		return build(intern.NoKey)
	}
	key := u.table.FunctionPointer(sig)
	return canonical(u, key, func() *FunctionPointer { return build(key) })
}

// Kind implements TypeReference.
func (*FunctionPointer) Kind() TypeKind { return FunctionPointerKind }

// CallingConvention returns the signature's calling convention.
func (f *FunctionPointer) CallingConvention() CallingConvention { return f.conv }

// ReturnType returns the return type.
func (f *FunctionPointer) ReturnType() TypeReference { return f.ret }

// Parameters returns the declared parameters.
func (f *FunctionPointer) Parameters() []SignatureParam { return f.params }

// ExtraArguments returns the extra vararg arguments.
func (f *FunctionPointer) ExtraArguments() []SignatureParam { return f.extra }

// InternedKey implements TypeReference.
func (f *FunctionPointer) InternedKey() intern.Key { return f.key }

// ResolvedType implements TypeReference.
func (f *FunctionPointer) ResolvedType() TypeDefinition { return f }

// String implements TypeReference.
func (f *FunctionPointer) String() string {
	var buf strings.Builder
	buf.WriteString("method ")
	buf.WriteString(f.ret.String())
	buf.WriteString(" *(")
	for i, p := range f.params {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p.Type.String())
		if p.ByRef {
			buf.WriteString("&")
		}
	}
	if len(f.extra) > 0 {
		buf.WriteString(", ...")
		for _, p := range f.extra {
			buf.WriteString(", ")
			buf.WriteString(p.Type.String())
		}
	}
	buf.WriteString(")")
	return buf.String()
}
