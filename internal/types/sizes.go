package types

// Sizes provides size and alignment calculations for types. Reference
// types occupy one pointer. Value types are laid out sequentially with
// natural alignment.
type Sizes struct {
	u           *Universe
	PointerSize int64
}

// Sizeof returns the size of t in bytes, or 0 if it cannot be determined.
func (s *Sizes) Sizeof(t TypeReference) int64 {
	size, _ := s.sizeAlign(t, nil)
	return size
}

// Alignof returns the alignment of t in bytes.
func (s *Sizes) Alignof(t TypeReference) int64 {
	_, a := s.sizeAlign(t, nil)
	return a
}

// Offsetsof returns the offsets of the instance fields of a value type, in
// declaration order. Static fields are skipped.
func (s *Sizes) Offsetsof(def TypeDefinition) []int64 {
	l := s.layout(def, map[TypeDefinition]bool{})
	return l.offsets
}

type layout struct {
	size, align int64
	offsets     []int64
}

func (s *Sizes) sizeAlign(t TypeReference, visiting map[TypeDefinition]bool) (int64, int64) {
	ptr := s.PointerSize
	switch code := t.TypeCode(); code {
	case NotPrimitive:
	case IntPtr, UIntPtr, PointerCode, ReferenceCode, String:
		return ptr, ptr
	case TypedReference:
		return 2 * ptr, ptr
	case Void, Invalid:
		return 0, 1
	default:
		if n := primitives[code].size; n > 0 {
			return n, n
		}
		return 0, 1
	}

	switch t := t.(type) {
	case *Modified:
		return s.sizeAlign(t.underlying, visiting)
	case *Vector, *Matrix, *FunctionPointer:
		return ptr, ptr
	case *GenericTypeParameter, *GenericMethodParameter, *MethodTypeVar:
		return 0, 1
	}

	def := t.ResolvedType()
	if s.u.fallbacks.IsFallback(def) {
		return 0, 1
	}
	switch {
	case def.IsEnum():
		return s.sizeAlign(def.UnderlyingType(), visiting)
	case def.IsValueType():
		if visiting == nil {
			visiting = map[TypeDefinition]bool{}
		}
		l := s.layout(def, visiting)
		return l.size, l.align
	}
	return ptr, ptr
}

// layout computes the sequential layout of a value type. A value type that
// contains itself has no layout.
func (s *Sizes) layout(def TypeDefinition, visiting map[TypeDefinition]bool) layout {
	if visiting[def] {
		return layout{align: 1}
	}
	visiting[def] = true
	defer delete(visiting, def)

	var offset int64
	var maxAlign int64 = 1
	var offsets []int64
	for _, f := range def.Fields() {
		if f.IsStatic() || f.IsLiteral() {
			continue
		}
		size, a := s.sizeAlign(f.Type(), visiting)
		offset = align(offset, a)
		offsets = append(offsets, offset)
		offset += size
		if a > maxAlign {
			maxAlign = a
		}
	}
	size := align(offset, maxAlign)
	if size == 0 {
		size = 1
	}
	return layout{size: size, align: maxAlign, offsets: offsets}
}

// align returns x rounded up to a multiple of a.
func align(x, a int64) int64 {
	if a <= 1 {
		return x
	}
	return (x + a - 1) &^ (a - 1)
}
