package ir

import "github.com/mtbaldry/pdbextract/internal/tpi"

// PrimitiveKind enumerates the built-in scalar types a member field or
// bitfield can bottom out in.
type PrimitiveKind uint8

const (
	PrimitiveVoid PrimitiveKind = iota
	PrimitiveChar
	PrimitiveUChar
	PrimitiveRChar
	PrimitiveRChar16
	PrimitiveRChar32
	PrimitiveWChar
	PrimitiveI8
	PrimitiveU8
	PrimitiveI16
	PrimitiveU16
	PrimitiveI32
	PrimitiveU32
	PrimitiveI64
	PrimitiveU64
	PrimitiveI128
	PrimitiveU128
	PrimitiveF16
	PrimitiveF32
	PrimitiveF32PP
	PrimitiveF48
	PrimitiveF64
	PrimitiveF80
	PrimitiveF128
	PrimitiveBool8
	PrimitiveBool16
	PrimitiveBool32
	PrimitiveBool64
	PrimitiveHResult
)

// Size returns the primitive's size in bytes, per the CodeView simple-type
// table.
func (k PrimitiveKind) Size() uint64 {
	switch k {
	case PrimitiveVoid:
		return 0
	case PrimitiveChar, PrimitiveUChar, PrimitiveRChar, PrimitiveI8, PrimitiveU8, PrimitiveBool8:
		return 1
	case PrimitiveRChar16, PrimitiveI16, PrimitiveU16, PrimitiveF16, PrimitiveBool16:
		return 2
	case PrimitiveRChar32, PrimitiveWChar, PrimitiveI32, PrimitiveU32, PrimitiveF32, PrimitiveBool32, PrimitiveHResult:
		return 4
	case PrimitiveF48:
		return 6
	case PrimitiveI64, PrimitiveU64, PrimitiveF64, PrimitiveBool64:
		return 8
	case PrimitiveF80:
		return 10
	case PrimitiveI128, PrimitiveU128, PrimitiveF128:
		return 16
	case PrimitiveF32PP:
		return 4
	default:
		return 0
	}
}

// String names the primitive the way it is rendered in generated source.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveVoid:
		return "void"
	case PrimitiveChar:
		return "char"
	case PrimitiveUChar:
		return "unsigned char"
	case PrimitiveRChar:
		return "char"
	case PrimitiveRChar16:
		return "char16"
	case PrimitiveRChar32:
		return "char32"
	case PrimitiveWChar:
		return "wchar"
	case PrimitiveI8:
		return "int8"
	case PrimitiveU8:
		return "uint8"
	case PrimitiveI16:
		return "int16"
	case PrimitiveU16:
		return "uint16"
	case PrimitiveI32:
		return "int32"
	case PrimitiveU32:
		return "uint32"
	case PrimitiveI64:
		return "int64"
	case PrimitiveU64:
		return "uint64"
	case PrimitiveI128:
		return "int128"
	case PrimitiveU128:
		return "uint128"
	case PrimitiveF16:
		return "float16"
	case PrimitiveF32:
		return "float32"
	case PrimitiveF32PP:
		return "float32pp"
	case PrimitiveF48:
		return "float48"
	case PrimitiveF64:
		return "float64"
	case PrimitiveF80:
		return "float80"
	case PrimitiveF128:
		return "float128"
	case PrimitiveBool8:
		return "bool8"
	case PrimitiveBool16:
		return "bool16"
	case PrimitiveBool32:
		return "bool32"
	case PrimitiveBool64:
		return "bool64"
	case PrimitiveHResult:
		return "hresult"
	default:
		return "unknown"
	}
}

// IsBool reports whether k is one of the BoolN family, which need the
// generated BoolN wrapper type rather than a native bool.
func (k PrimitiveKind) IsBool() bool {
	switch k {
	case PrimitiveBool8, PrimitiveBool16, PrimitiveBool32, PrimitiveBool64:
		return true
	default:
		return false
	}
}

// primitiveKindFromSimple maps a CodeView SimpleTypeKind (the Direct-mode
// case; pointer-mode simple indices are handled by the caller) onto a
// PrimitiveKind, reporting false for kinds this graph has no use for.
func primitiveKindFromSimple(kind tpi.SimpleTypeKind) (PrimitiveKind, bool) {
	switch kind {
	case tpi.SimpleTypeVoid:
		return PrimitiveVoid, true
	case tpi.SimpleTypeSignedChar, tpi.SimpleTypeNarrowChar:
		return PrimitiveChar, true
	case tpi.SimpleTypeUnsignedChar:
		return PrimitiveUChar, true
	case tpi.SimpleTypeChar8:
		return PrimitiveRChar, true
	case tpi.SimpleTypeChar16:
		return PrimitiveRChar16, true
	case tpi.SimpleTypeChar32:
		return PrimitiveRChar32, true
	case tpi.SimpleTypeWideChar:
		return PrimitiveWChar, true
	case tpi.SimpleTypeSByte:
		return PrimitiveI8, true
	case tpi.SimpleTypeByte:
		return PrimitiveU8, true
	case tpi.SimpleTypeInt16, tpi.SimpleTypeInt16Short:
		return PrimitiveI16, true
	case tpi.SimpleTypeUInt16, tpi.SimpleTypeUInt16Short:
		return PrimitiveU16, true
	case tpi.SimpleTypeInt32, tpi.SimpleTypeInt32Long:
		return PrimitiveI32, true
	case tpi.SimpleTypeUInt32, tpi.SimpleTypeUInt32Long:
		return PrimitiveU32, true
	case tpi.SimpleTypeInt64, tpi.SimpleTypeInt64Quad:
		return PrimitiveI64, true
	case tpi.SimpleTypeUInt64, tpi.SimpleTypeUInt64Quad:
		return PrimitiveU64, true
	case tpi.SimpleTypeInt128, tpi.SimpleTypeInt128Oct:
		return PrimitiveI128, true
	case tpi.SimpleTypeUInt128, tpi.SimpleTypeUInt128Oct:
		return PrimitiveU128, true
	case tpi.SimpleTypeFloat16:
		return PrimitiveF16, true
	case tpi.SimpleTypeFloat32:
		return PrimitiveF32, true
	case tpi.SimpleTypeFloat32PP:
		return PrimitiveF32PP, true
	case tpi.SimpleTypeFloat48:
		return PrimitiveF48, true
	case tpi.SimpleTypeFloat64:
		return PrimitiveF64, true
	case tpi.SimpleTypeFloat80:
		return PrimitiveF80, true
	case tpi.SimpleTypeFloat128:
		return PrimitiveF128, true
	case tpi.SimpleTypeBool8:
		return PrimitiveBool8, true
	case tpi.SimpleTypeBool16:
		return PrimitiveBool16, true
	case tpi.SimpleTypeBool32:
		return PrimitiveBool32, true
	case tpi.SimpleTypeBool64:
		return PrimitiveBool64, true
	case tpi.SimpleTypeHResult:
		return PrimitiveHResult, true
	default:
		return 0, false
	}
}
