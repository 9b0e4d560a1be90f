package types

// PrimitiveTypeCode identifies the platform's primitive types.
type PrimitiveTypeCode int

const (
	NotPrimitive PrimitiveTypeCode = iota

	Boolean
	Char
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	IntPtr
	UIntPtr
	Float32
	Float64
	String
	Void
	TypedReference

	// PointerCode and ReferenceCode classify unmanaged and managed
	// pointer types.
	PointerCode
	ReferenceCode

	Invalid
)

// PrimitiveInfo describes properties of a primitive type.
type PrimitiveInfo int

const (
	IsBoolean PrimitiveInfo = 1 << iota
	IsInteger
	IsUnsigned
	IsFloat
	IsString
	IsPointer
	IsNumeric = IsInteger | IsFloat
)

type primitive struct {
	code PrimitiveTypeCode
	name string // name in the System namespace
	info PrimitiveInfo
	size int64 // 0 when the size depends on the platform
}

// primitives is indexed by PrimitiveTypeCode.
var primitives = []primitive{
	NotPrimitive:   {code: NotPrimitive},
	Boolean:        {code: Boolean, name: "Boolean", info: IsBoolean, size: 1},
	Char:           {code: Char, name: "Char", info: IsInteger | IsUnsigned, size: 2},
	Int8:           {code: Int8, name: "SByte", info: IsInteger, size: 1},
	Int16:          {code: Int16, name: "Int16", info: IsInteger, size: 2},
	Int32:          {code: Int32, name: "Int32", info: IsInteger, size: 4},
	Int64:          {code: Int64, name: "Int64", info: IsInteger, size: 8},
	UInt8:          {code: UInt8, name: "Byte", info: IsInteger | IsUnsigned, size: 1},
	UInt16:         {code: UInt16, name: "UInt16", info: IsInteger | IsUnsigned, size: 2},
	UInt32:         {code: UInt32, name: "UInt32", info: IsInteger | IsUnsigned, size: 4},
	UInt64:         {code: UInt64, name: "UInt64", info: IsInteger | IsUnsigned, size: 8},
	IntPtr:         {code: IntPtr, name: "IntPtr", info: IsInteger | IsPointer},
	UIntPtr:        {code: UIntPtr, name: "UIntPtr", info: IsInteger | IsUnsigned | IsPointer},
	Float32:        {code: Float32, name: "Single", info: IsFloat, size: 4},
	Float64:        {code: Float64, name: "Double", info: IsFloat, size: 8},
	String:         {code: String, name: "String", info: IsString},
	Void:           {code: Void, name: "Void"},
	TypedReference: {code: TypedReference, name: "TypedReference"},
	PointerCode:    {code: PointerCode, info: IsPointer},
	ReferenceCode:  {code: ReferenceCode, info: IsPointer},
	Invalid:        {code: Invalid},
}

// primitiveByName maps System type names to their codes.
var primitiveByName = func() map[string]PrimitiveTypeCode {
	m := make(map[string]PrimitiveTypeCode)
	for _, p := range primitives {
		if p.name != "" {
			m[p.name] = p.code
		}
	}
	return m
}()

// Info returns the properties of the primitive type.
func (c PrimitiveTypeCode) Info() PrimitiveInfo {
	if c >= 0 && int(c) < len(primitives) {
		return primitives[c].info
	}
	return 0
}

// String returns the System type name, or a description for codes that
// have none.
func (c PrimitiveTypeCode) String() string {
	switch {
	case c == NotPrimitive:
		return "not primitive"
	case c == PointerCode:
		return "pointer"
	case c == ReferenceCode:
		return "reference"
	case c >= 0 && int(c) < len(primitives) && primitives[c].name != "":
		return primitives[c].name
	}
	return "invalid"
}

// primitiveCode returns the code of the type called name in the System
// namespace of the core assembly.
func primitiveCode(namespace, name string, arity int) PrimitiveTypeCode {
	if namespace != "System" || arity != 0 {
		return NotPrimitive
	}
	return primitiveByName[name]
}
