package ir

// Size implementations for every ClassMember and ClassFieldKind variant.
// Kept in its own file because, unlike the rest of the graph's shape, size
// computation recurses through the Arena to resolve named references
// (Class/Enum/Union) to their largest-variant definition.

func (VtableMember) Size(a *Arena) uint64 { return 4 }

func (b BaseClassMember) Size(a *Arena) uint64 {
	return a.Class(a.GetLargestClassIndex(b.Base)).Size
}

func (v VirtualBaseClassMember) Size(a *Arena) uint64 {
	return a.Class(a.GetLargestClassIndex(v.Base)).Size
}

func (f Field) Size(a *Arena) uint64 {
	return f.Kind.Size(a)
}

func (k KindPrimitive) Size(a *Arena) uint64 { return k.Value.Size() }

func (k KindEnum) Size(a *Arena) uint64 {
	return a.Enum(a.GetLargestEnumIndex(k.Value)).Size(a)
}

func (k KindPointer) Size(a *Arena) uint64 { return k.Value.Size }

func (k KindClass) Size(a *Arena) uint64 {
	return a.Class(a.GetLargestClassIndex(k.Value)).Size
}

func (k KindUnion) Size(a *Arena) uint64 {
	return a.Union(a.GetLargestUnionIndex(k.Value)).Size
}

func (k KindBitfield) Size(a *Arena) uint64 { return k.Value.Size(a) }

func (k KindArray) Size(a *Arena) uint64 { return k.Value.Size(a) }

func (k KindModifier) Size(a *Arena) uint64 { return k.Value.Size(a) }

func (KindProcedure) Size(a *Arena) uint64     { return 0 }
func (KindMemberFunction) Size(a *Arena) uint64 { return 0 }
func (KindMethod) Size(a *Arena) uint64        { return 0 }

func (arr *Array) Size(a *Arena) uint64 {
	total := arr.ElementType.Size(a)
	for _, d := range arr.Dimensions {
		total *= d
	}
	return total
}

func (m *Modifier) Size(a *Arena) uint64 {
	return m.Underlying.Size(a)
}

// Size is the widest single bit-range's backing storage, since every field
// in a fused run shares one storage unit.
func (bf Bitfield) Size(a *Arena) uint64 {
	var max uint64
	for _, f := range bf.Fields {
		if s := f.Underlying.Size(a); s > max {
			max = s
		}
	}
	return max
}

func (u UnderlyingPrimitive) Size(a *Arena) uint64 { return u.Value.Size() }

func (u UnderlyingEnum) Size(a *Arena) uint64 {
	return a.Enum(a.GetLargestEnumIndex(u.Value)).Size(a)
}
