package ir

import (
	"fmt"
	"strings"

	"github.com/mtbaldry/pdbextract/internal/tpi"
	"github.com/mtbaldry/pdbextract/pdb"
)

// Converter walks a PDB's type stream and builds an Arena of classes,
// unions, and enums, fully resolving every member's type transitively.
type Converter struct {
	types *pdb.TypeTable
	arena *Arena
	diag  *Diagnostics
}

// NewConverter prepares a Converter over an already-parsed type stream.
func NewConverter(types *pdb.TypeTable) *Converter {
	return &Converter{types: types, arena: NewArena(), diag: &Diagnostics{}}
}

// Arena returns the graph built so far.
func (c *Converter) Arena() *Arena { return c.arena }

// Diagnostics returns warnings accumulated during conversion.
func (c *Converter) Diagnostics() *Diagnostics { return c.diag }

// Populate converts every named, fully-defined class, struct, union, and
// enum in the type stream, along with everything each one transitively
// references. Compiler-generated anonymous types (no name, or a name
// starting with '<') are never converted as roots - they only ever appear
// nested inside a named owner's member list.
func (c *Converter) Populate() error {
	for t := range c.types.All() {
		name, isForwardRef, isAggregate := aggregateIdentity(t)
		if !isAggregate || isForwardRef || !usableName(name) {
			continue
		}
		if _, err := c.convertAggregate(t.Index()); err != nil {
			return &ConvertError{Subject: name, Err: err}
		}
	}
	return nil
}

func usableName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "<")
}

func aggregateIdentity(t pdb.Type) (name string, isForwardRef, isAggregate bool) {
	switch v := t.(type) {
	case *pdb.ClassType:
		return v.Name(), v.IsForwardRef(), true
	case *pdb.StructType:
		return v.Name(), v.IsForwardRef(), true
	case *pdb.UnionType:
		return v.Name(), v.IsForwardRef(), true
	case *pdb.EnumType:
		return v.Name(), v.IsForwardRef(), true
	default:
		return "", false, false
	}
}

// convertAggregate resolves ti (a class/struct/union/enum raw type index)
// to its arena TypeIndex, converting it on first encounter. A forward
// declaration is redirected to its full definition, found by name, before
// conversion; both raw indices are then memoized to the same node.
func (c *Converter) convertAggregate(ti pdb.TypeIndex) (TypeIndex, error) {
	if idx, ok := c.arena.TypeIndexFor(ti); ok {
		return idx, nil
	}

	t, err := c.types.ByIndex(ti)
	if err != nil {
		return TypeIndex{}, err
	}

	name, isForwardRef, _ := aggregateIdentity(t)
	resolvedTi, resolvedT := ti, t
	if isForwardRef && name != "" {
		if fullTi, fullT, ok := c.findFullDefinition(name); ok {
			resolvedTi, resolvedT = fullTi, fullT
		} else {
			c.diag.warn("convert", name, "forward reference never resolved to a full definition")
		}
	}

	if resolvedTi != ti {
		if idx, ok := c.arena.TypeIndexFor(resolvedTi); ok {
			c.arena.alias(ti, idx)
			return idx, nil
		}
	}

	var idx TypeIndex
	switch v := resolvedT.(type) {
	case *pdb.ClassType:
		cidx, err := c.convertClass(resolvedTi, v.Name(), v.FieldList(), v.Properties(), v.Size(), ClassKindClass)
		if err != nil {
			return TypeIndex{}, err
		}
		idx = ClassTypeIndex(cidx)
	case *pdb.StructType:
		cidx, err := c.convertClass(resolvedTi, v.Name(), v.FieldList(), v.Properties(), v.Size(), ClassKindStruct)
		if err != nil {
			return TypeIndex{}, err
		}
		idx = ClassTypeIndex(cidx)
	case *pdb.UnionType:
		uidx, err := c.convertUnion(resolvedTi, v)
		if err != nil {
			return TypeIndex{}, err
		}
		idx = UnionTypeIndex(uidx)
	case *pdb.EnumType:
		eidx, err := c.convertEnum(resolvedTi, v)
		if err != nil {
			return TypeIndex{}, err
		}
		idx = EnumTypeIndex(eidx)
	default:
		return TypeIndex{}, fmt.Errorf("%w: %T", ErrNotAggregate, resolvedT)
	}

	if resolvedTi != ti {
		c.arena.alias(ti, idx)
	}
	return idx, nil
}

func (c *Converter) findFullDefinition(name string) (pdb.TypeIndex, pdb.Type, bool) {
	for candidate := range c.types.ByName(name) {
		if _, isForwardRef, isAggregate := aggregateIdentity(candidate); isAggregate && !isForwardRef {
			return candidate.Index(), candidate, true
		}
	}
	return 0, nil, false
}

// convertClass reserves a ClassIndex (registering it in the arena's index
// map immediately, before resolving any member), so that a field pointing
// back at this same class - directly legal only through a pointer or array
// - resolves to a valid, if not yet fully populated, handle instead of
// recursing forever. The real member list is filled in once built, and the
// name/size dedup bookkeeping reruns against the real data.
func (c *Converter) convertClass(ti pdb.TypeIndex, rawName string, fieldList pdb.TypeIndex, props tpi.ClassProperties, size uint64, kind ClassKind) (ClassIndex, error) {
	name := ParseName(rawName)
	idx := c.arena.InsertClass(Class{Name: name, Kind: kind, Properties: propertiesFrom(props)}, ti)

	members, err := c.buildMembers(fieldList)
	if err != nil {
		return idx, &ConvertError{Subject: rawName, Err: err}
	}

	members = transformUnions(c.arena, name, members)
	members = transformBitfields(members)

	c.arena.replaceClass(idx, Class{
		Name:       name,
		Kind:       kind,
		Members:    members,
		Properties: propertiesFrom(props),
		Size:       size,
	})
	return idx, nil
}

func (c *Converter) buildMembers(fieldList pdb.TypeIndex) ([]ClassMember, error) {
	list, err := c.types.FieldListMembers(fieldList)
	if err != nil {
		return nil, err
	}

	var members []ClassMember
	for _, raw := range list.Members {
		switch m := raw.(type) {
		case *tpi.MemberRecord:
			kind, err := c.fieldKindFrom(pdb.TypeIndex(m.Type))
			if err != nil {
				return nil, err
			}
			members = append(members, Field{
				Name:   ParseName(m.Name),
				Offset: int(m.Offset),
				Kind:   kind,
			})

		case *tpi.BaseClassRecord:
			baseIdx, err := c.convertAggregate(pdb.TypeIndex(m.Type))
			if err != nil {
				return nil, err
			}
			members = append(members, BaseClassMember{
				Offset: int(m.Offset),
				Base:   baseIdx.Class(),
			})

		case *tpi.VirtualBaseClassRecord:
			baseIdx, err := c.convertAggregate(pdb.TypeIndex(m.BaseType))
			if err != nil {
				return nil, err
			}
			members = append(members, VirtualBaseClassMember{
				Direct:            !m.Indirect,
				Base:              baseIdx.Class(),
				BasePointerOffset: int(m.PointerOffset),
				VirtualBaseOffset: int(m.BaseOffset),
			})

		case *tpi.VFuncTabRecord:
			members = append(members, VtableMember{})

		case *tpi.StaticMemberRecord, *tpi.EnumerateRecord, *tpi.NestedTypeRecord,
			*tpi.MethodRecord, *tpi.OneMethodRecord:
			// None of these occupy space in the instance layout.
		}
	}
	return members, nil
}

func (c *Converter) convertUnion(ti pdb.TypeIndex, ut *pdb.UnionType) (UnionIndex, error) {
	name := ParseName(ut.Name())
	idx := c.arena.InsertUnion(Union{Name: name, Properties: propertiesFrom(ut.Properties())}, ti)

	list, err := c.types.FieldListMembers(ut.FieldList())
	if err != nil {
		return idx, &ConvertError{Subject: ut.Name(), Err: err}
	}

	var fields []Field
	for _, raw := range list.Members {
		m, ok := raw.(*tpi.MemberRecord)
		if !ok {
			continue
		}
		kind, err := c.fieldKindFrom(pdb.TypeIndex(m.Type))
		if err != nil {
			return idx, &ConvertError{Subject: ut.Name(), Err: err}
		}
		fields = append(fields, Field{
			Name:   ParseName(m.Name),
			Offset: int(m.Offset),
			Kind:   kind,
		})
	}

	fields = transformInlineStructs(c.arena, name, fields)

	c.arena.replaceUnion(idx, Union{
		Name:       name,
		Fields:     fields,
		Size:       ut.Size(),
		Properties: propertiesFrom(ut.Properties()),
	})
	return idx, nil
}

func (c *Converter) convertEnum(ti pdb.TypeIndex, et *pdb.EnumType) (EnumIndex, error) {
	name := ParseName(et.Name())

	underlying, err := c.fieldKindFrom(et.UnderlyingType())
	if err != nil {
		return 0, &ConvertError{Subject: et.Name(), Err: err}
	}
	prim, ok := underlying.(KindPrimitive)
	if !ok {
		return 0, &ConvertError{Subject: et.Name(), Err: fmt.Errorf("%w: enum underlying type is not a primitive", ErrUnimplementedKind)}
	}

	var variants []Variant
	if et.Count() > 0 {
		list, err := c.types.FieldListMembers(et.FieldList())
		if err != nil {
			return 0, &ConvertError{Subject: et.Name(), Err: err}
		}
		for _, raw := range list.Members {
			e, ok := raw.(*tpi.EnumerateRecord)
			if !ok {
				continue
			}
			variants = append(variants, Variant{Name: ParseName(e.Name), Value: e.Value})
		}
	}

	return c.arena.InsertEnum(Enum{Name: name, Underlying: prim.Value, Variants: variants}, ti), nil
}

// fieldKindFrom resolves the field type at ti into a ClassFieldKind,
// recursing into pointers, arrays, and modifiers, and into convertAggregate
// for nested classes, unions, and enums.
func (c *Converter) fieldKindFrom(ti pdb.TypeIndex) (ClassFieldKind, error) {
	raw := tpi.TypeIndex(ti)
	if raw.IsSimpleType() {
		kind, ok := primitiveKindFromSimple(raw.SimpleKind())
		if !ok {
			return nil, fmt.Errorf("%w: simple type 0x%x", ErrUnknownPrimitive, uint32(ti))
		}
		mode := raw.SimpleMode()
		if mode == tpi.SimpleModeDirect {
			return KindPrimitive{Value: kind}, nil
		}
		return KindPointer{Value: &Pointer{
			Underlying: KindPrimitive{Value: kind},
			Size:       simplePointerModeSize(mode),
		}}, nil
	}

	t, err := c.types.ByIndex(ti)
	if err != nil {
		return nil, err
	}

	switch v := t.(type) {
	case *pdb.PointerType:
		underlying, err := c.fieldKindFrom(v.ReferentType())
		if err != nil {
			return nil, err
		}
		size := v.Size()
		if size == 0 {
			size = 4
		}
		return KindPointer{Value: &Pointer{
			Underlying:  underlying,
			KindTag:     uint8(v.KindTag()),
			IsConst:     v.IsConst(),
			IsReference: v.IsReference() || v.IsRValueRef(),
			Size:        size,
		}}, nil

	case *pdb.ArrayType:
		elemKind, err := c.fieldKindFrom(v.ElementType())
		if err != nil {
			return nil, err
		}
		elemSize := elemKind.Size(c.arena)
		var count uint64
		if elemSize > 0 {
			count = v.Size() / elemSize
		}
		dims := []uint64{count}
		if nested, ok := elemKind.(KindArray); ok {
			dims = append(dims, nested.Value.Dimensions...)
			elemKind = nested.Value.ElementType
		}
		return KindArray{Value: &Array{ElementType: elemKind, Dimensions: dims}}, nil

	case *pdb.ModifierType:
		underlying, err := c.fieldKindFrom(v.ModifiedType())
		if err != nil {
			return nil, err
		}
		return KindModifier{Value: &Modifier{
			Underlying: underlying,
			Const:      v.IsConst(),
			Volatile:   v.IsVolatile(),
			Unaligned:  v.IsUnaligned(),
		}}, nil

	case *pdb.BitfieldType:
		underlying, err := c.bitfieldUnderlyingFrom(v.UnderlyingType())
		if err != nil {
			return nil, err
		}
		return KindBitfield{Value: Bitfield{Fields: []BitfieldField{{
			Underlying: underlying,
			Length:     int(v.Length()),
			Position:   int(v.Position()),
		}}}}, nil

	case *pdb.ClassType, *pdb.StructType, *pdb.UnionType, *pdb.EnumType:
		idx, err := c.convertAggregate(ti)
		if err != nil {
			return nil, err
		}
		switch {
		case idx.IsClass():
			return KindClass{Value: idx.Class()}, nil
		case idx.IsUnion():
			return KindUnion{Value: idx.Union()}, nil
		default:
			return KindEnum{Value: idx.Enum()}, nil
		}

	case *pdb.FunctionType:
		return KindProcedure{}, nil

	case *pdb.MemberFunctionType:
		return KindMemberFunction{}, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnimplementedKind, t)
	}
}

func (c *Converter) bitfieldUnderlyingFrom(ti pdb.TypeIndex) (BitfieldUnderlying, error) {
	kind, err := c.fieldKindFrom(ti)
	if err != nil {
		return nil, err
	}
	return bitfieldUnderlyingFromKind(kind)
}

// bitfieldUnderlyingFromKind unwraps const/volatile modifiers to reach the
// scalar a bitfield run is actually carved out of.
func bitfieldUnderlyingFromKind(k ClassFieldKind) (BitfieldUnderlying, error) {
	for {
		switch v := k.(type) {
		case KindPrimitive:
			return UnderlyingPrimitive{Value: v.Value}, nil
		case KindEnum:
			return UnderlyingEnum{Value: v.Value}, nil
		case KindModifier:
			k = v.Value.Underlying
		default:
			return nil, fmt.Errorf("%w: bitfield underlying is not a scalar", ErrUnimplementedKind)
		}
	}
}

func propertiesFrom(p tpi.ClassProperties) Properties {
	return Properties{
		Packed:              p.IsPacked(),
		HasConstructor:      p.HasCtor(),
		HasOverloadedOps:    p.HasOverloadedOps(),
		IsNested:            p.IsNested(),
		ContainsNestedTypes: p.ContainsNested(),
		HasOverloadedAssign: p.HasOverloadedAssign(),
		HasCastOperator:     p.HasCastOperator(),
		ForwardReference:    p.IsForwardRef(),
		Scoped:              p.IsScoped(),
		HasUniqueName:       p.HasUniqueName(),
		Sealed:              p.IsSealed(),
		Hfa:                 p.Hfa(),
		Intrinsic:           p.IsIntrinsic(),
		Mocom:               p.Mocom(),
	}
}

// simplePointerModeSize returns the pointer size implied by a CodeView
// simple-type pointer mode (used only for the rare simple-type-index
// encoding of "pointer to <primitive>", which carries no separate LF_POINTER
// record to read a size from).
func simplePointerModeSize(mode tpi.SimpleTypeMode) uint64 {
	switch mode {
	case tpi.SimpleModeNearPointer, tpi.SimpleModeNearPointer32:
		return 4
	case tpi.SimpleModeNearPointer64:
		return 8
	case tpi.SimpleModeNearPointer128:
		return 16
	case tpi.SimpleModeFarPointer, tpi.SimpleModeHugePointer:
		return 4
	case tpi.SimpleModeFarPointer32:
		return 4
	default:
		return 4
	}
}
