package ir

import (
	"fmt"
	"math"
)

// ClassKind distinguishes a C++ struct (default-public) from a class
// (default-private); both carry the same shape.
type ClassKind uint8

const (
	ClassKindStruct ClassKind = iota
	ClassKindClass
)

func (k ClassKind) String() string {
	if k == ClassKindClass {
		return "class"
	}
	return "struct"
}

// Properties mirrors the PDB's class/struct/union property bitfield: mostly
// informational, but ForwardReference and Packed feed directly into graph
// construction and layout decisions.
type Properties struct {
	Packed              bool
	HasConstructor       bool
	HasOverloadedOps     bool
	IsNested             bool
	ContainsNestedTypes  bool
	HasOverloadedAssign  bool
	HasCastOperator      bool
	ForwardReference     bool
	Scoped               bool
	HasUniqueName        bool
	Sealed               bool
	Hfa                  uint8
	Intrinsic            bool
	Mocom                uint8
}

// Attributes carries the per-member access/virtual flags recorded on an
// LF_ONEMETHOD/LF_VFUNCTAB-derived member or base class.
type Attributes struct {
	Static       bool
	Virtual      bool
	PureVirtual  bool
	IntroVirtual bool
}

// Any reports whether any attribute is set.
func (a Attributes) Any() bool {
	return a.Static || a.Virtual || a.PureVirtual || a.IntroVirtual
}

// Class is a struct, class, or the unwrapped body of an anonymous
// union/struct synthesized by the layout rewriter.
type Class struct {
	Name       Name
	Kind       ClassKind
	Members    []ClassMember
	Properties Properties
	Size       uint64
	Alignment  Alignment
}

// ClassMember is one element of a Class's member list: a vtable pointer
// slot, a base class, a virtual base class, or a named field.
type ClassMember interface {
	classMember()
	memberOffset() int
	Size(a *Arena) uint64
}

// VtableMember marks the implicit vtable pointer slot a polymorphic class
// carries at offset 0.
type VtableMember struct{}

func (VtableMember) classMember()    {}
func (VtableMember) memberOffset() int { return 0 }

// BaseClassMember records a non-virtual base class subobject.
type BaseClassMember struct {
	Attributes Attributes
	Offset     int
	Base       ClassIndex
}

func (b BaseClassMember) classMember()      {}
func (b BaseClassMember) memberOffset() int { return b.Offset }

// VirtualBaseClassMember records a virtual base class subobject, reached
// indirectly through the vbtable.
type VirtualBaseClassMember struct {
	Direct            bool
	Attributes        Attributes
	Base              ClassIndex
	BasePointerOffset int
	VirtualBaseOffset int
}

func (v VirtualBaseClassMember) classMember() {}
func (v VirtualBaseClassMember) memberOffset() int { return v.BasePointerOffset }

// Field is a named data member - the payload of both a ClassMember and a
// Union's field list.
type Field struct {
	Attributes Attributes
	Name       Name
	Offset     int
	Kind       ClassFieldKind
	// MaxSize is a known upper bound on this field's element count (Padding
	// sets it to the padding length). Zero means "no hint available". The
	// Writer does not read it: array dimensions are emitted as converted.
	MaxSize int
}

func (f Field) classMember()      {}
func (f Field) memberOffset() int { return f.Offset }

// ClassFieldKind is the shape of a single field: a scalar, a nested
// aggregate, or a compound type built on one of those.
type ClassFieldKind interface {
	classFieldKind()
	Size(a *Arena) uint64
}

type KindPrimitive struct{ Value PrimitiveKind }
type KindEnum struct{ Value EnumIndex }
type KindPointer struct{ Value *Pointer }
type KindClass struct{ Value ClassIndex }
type KindUnion struct{ Value UnionIndex }
type KindBitfield struct{ Value Bitfield }
type KindArray struct{ Value *Array }
type KindModifier struct{ Value *Modifier }
type KindProcedure struct{}
type KindMemberFunction struct{}
type KindMethod struct{}

func (KindPrimitive) classFieldKind()     {}
func (KindEnum) classFieldKind()          {}
func (KindPointer) classFieldKind()       {}
func (KindClass) classFieldKind()         {}
func (KindUnion) classFieldKind()         {}
func (KindBitfield) classFieldKind()      {}
func (KindArray) classFieldKind()         {}
func (KindModifier) classFieldKind()      {}
func (KindProcedure) classFieldKind()     {}
func (KindMemberFunction) classFieldKind() {}
func (KindMethod) classFieldKind()        {}

// Pointer is a pointer-to-T field: T may itself be any ClassFieldKind,
// including another pointer.
type Pointer struct {
	Underlying  ClassFieldKind
	KindTag     uint8 // raw CodeView pointer kind (near32, far64, ...)
	IsConst     bool
	IsReference bool
	Size        uint64
}

// Array is a fixed-size array field. Dimensions holds the element count of
// each nested level, outermost first, after dividing the PDB's cumulative
// byte size down through each level's element size.
type Array struct {
	ElementType ClassFieldKind
	Dimensions  []uint64
}

// Modifier wraps a field with a const/volatile/unaligned qualifier.
type Modifier struct {
	Underlying ClassFieldKind
	Const      bool
	Volatile   bool
	Unaligned  bool
}

// BitfieldUnderlying is the scalar type a bitfield run is carved out of.
type BitfieldUnderlying interface {
	bitfieldUnderlying()
	Size(a *Arena) uint64
}

type UnderlyingPrimitive struct{ Value PrimitiveKind }
type UnderlyingEnum struct{ Value EnumIndex }

func (UnderlyingPrimitive) bitfieldUnderlying() {}
func (UnderlyingEnum) bitfieldUnderlying()      {}

// BitfieldField is one coalesced bit-range within a fused bitfield run.
type BitfieldField struct {
	Underlying BitfieldUnderlying
	Length     int
	Position   int
}

// Bitfield is a run of consecutive bitfield members, fused by the layout
// rewriter into a single storage unit.
type Bitfield struct {
	Fields []BitfieldField
}

// transformUnions scans a class's (already offset-ordered) member list for
// runs of members repeating the same offset and collapses each run into a
// single synthesized anonymous union, mirroring what the PDB-producing
// compiler does for a real source-level "union { ... } name;" member: the
// union's arms become sibling classes carrying the fields observed between
// successive repeats of the same base offset.
func transformUnions(arena *Arena, owner Name, members []ClassMember) []ClassMember {
	res := make([]ClassMember, 0, len(members))
	unionNumber := 0

	for len(members) > 0 {
		member := members[0]
		members = members[1:]
		offset := member.memberOffset()

		if indexOfOffset(members, offset, 0) < 0 {
			res = append(res, member)
			continue
		}

		members = append([]ClassMember{member}, members...)

		var unionFields []Field
		maxSize := uint64(0)

		for {
			p := indexOfOffset(members, offset, 1)
			if p < 0 {
				break
			}
			arm := append([]ClassMember(nil), members[:p]...)
			members = members[p:]

			last := arm[len(arm)-1]
			size := uint64(last.memberOffset()-offset) + last.Size(arena)
			if size > maxSize {
				maxSize = size
			}

			armIdx := arena.InsertCustomClass(Class{
				Name:    ParseName(fmt.Sprintf("%s_Union%d_Struct%d", owner.Ident, unionNumber, len(unionFields))),
				Kind:    ClassKindStruct,
				Members: arm,
				Size:    size,
			})
			unionFields = append(unionFields, Field{
				Name: ParseName(fmt.Sprintf("struct%d", len(unionFields))),
				Kind: KindClass{Value: armIdx},
			})
		}

		var finalArm []ClassMember
		if maxSize == 0 {
			// Every arm measured zero bytes, so the run's extent is
			// unknown: take just the next member as the final arm rather
			// than losing the rest of the class silently. No warning is
			// recorded for this case.
			finalArm = []ClassMember{members[0]}
			members = members[1:]
		} else {
			end := indexOfOffsetAtLeast(members, offset+int(maxSize))
			if end < 0 {
				end = len(members)
			}
			finalArm = append([]ClassMember(nil), members[:end]...)
			members = members[end:]
		}

		armIdx := arena.InsertCustomClass(Class{
			Name:    ParseName(fmt.Sprintf("%s_Union%d_Struct%d", owner.Ident, unionNumber, len(unionFields))),
			Kind:    ClassKindStruct,
			Members: finalArm,
			Size:    maxSize,
		})
		unionFields = append(unionFields, Field{
			Name: ParseName(fmt.Sprintf("struct%d", len(unionFields))),
			Kind: KindClass{Value: armIdx},
		})

		unionNumber++
		unionIdx := arena.InsertCustomUnion(Union{
			Name:   ParseName(fmt.Sprintf("%s_Union%d", owner.Ident, unionNumber)),
			Fields: unionFields,
			Size:   maxSize,
		})
		res = append(res, Field{
			Name:   ParseName(fmt.Sprintf("union%d", unionNumber)),
			Offset: offset,
			Kind:   KindUnion{Value: unionIdx},
		})
	}

	return res
}

func indexOfOffset(members []ClassMember, offset, skip int) int {
	for i := skip; i < len(members); i++ {
		if members[i].memberOffset() == offset {
			return i
		}
	}
	return -1
}

func indexOfOffsetAtLeast(members []ClassMember, threshold int) int {
	for i, m := range members {
		if m.memberOffset() >= threshold {
			return i
		}
	}
	return -1
}

// transformBitfields scans a class's member list for consecutive runs of
// KindBitfield fields (the PDB emits one member per declared bitfield, each
// carrying a single BitfieldField) and fuses each run into one member
// holding every BitfieldField seen, the way a single storage unit backs
// several adjacent C bitfield declarations. A run ends either when a
// non-bitfield member is seen, or when a bitfield's bit position resets
// lower than the previous one - signalling the compiler started a new
// storage unit at the same byte offset.
func transformBitfields(members []ClassMember) []ClassMember {
	res := make([]ClassMember, 0, len(members))
	bitfieldNumber := 0
	lastPos := math.MaxInt
	offset := 0
	var fields []BitfieldField

	flush := func() {
		if len(fields) == 0 {
			return
		}
		res = append(res, Field{
			Name:   ParseName(fmt.Sprintf("bitfield%d", bitfieldNumber)),
			Offset: offset,
			Kind:   KindBitfield{Value: Bitfield{Fields: fields}},
		})
		bitfieldNumber++
		fields = nil
		lastPos = math.MaxInt
	}

	for _, member := range members {
		field, ok := member.(Field)
		var bf KindBitfield
		if ok {
			bf, ok = field.Kind.(KindBitfield)
		}
		if !ok || len(bf.Value.Fields) == 0 {
			flush()
			res = append(res, member)
			continue
		}

		next := bf.Value.Fields[0]
		if next.Position < lastPos && len(fields) > 0 {
			flush()
		}
		offset = field.Offset
		lastPos = next.Position
		fields = append(fields, next)
	}
	flush()

	return res
}
