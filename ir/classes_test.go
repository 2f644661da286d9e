package ir

import "testing"

func i32Field(name string, offset int) Field {
	return Field{Name: ParseName(name), Offset: offset, Kind: KindPrimitive{Value: PrimitiveI32}}
}

func u32Field(name string, offset int) Field {
	return Field{Name: ParseName(name), Offset: offset, Kind: KindPrimitive{Value: PrimitiveU32}}
}

// Anonymous union scenario from the end-to-end suite: members
// a@0, ba@0, bb@4, ca@0, cb@4, cc@8. The repeating offset (0) opens arms
// [a], [ba,bb], and [ca,cb] (the third repeat of offset 0 starts, rather
// than extends, its own arm); the union's declared size is capped at the
// first arm run's max size (8), so cc@8 falls past it and survives as a
// trailing top-level class member rather than joining an arm.
func TestTransformUnionsCollapsesRepeatedOffsets(t *testing.T) {
	arena := NewArena()
	owner := ParseName("Foo")

	members := []ClassMember{
		i32Field("a", 0),
		i32Field("ba", 0),
		i32Field("bb", 4),
		i32Field("ca", 0),
		i32Field("cb", 4),
		i32Field("cc", 8),
	}

	result := transformUnions(arena, owner, members)
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 (the union field, plus the leaked cc member)", len(result))
	}

	field, ok := result[0].(Field)
	if !ok {
		t.Fatalf("result[0] is a %T, want Field", result[0])
	}
	kind, ok := field.Kind.(KindUnion)
	if !ok {
		t.Fatalf("result[0].Kind is a %T, want KindUnion", field.Kind)
	}
	if leaked, ok := result[1].(Field); !ok || leaked.Name.Raw != "cc" {
		t.Fatalf("result[1] = %+v, want the leaked cc field", result[1])
	}

	union := arena.Union(kind.Value)
	if len(union.Fields) != 3 {
		t.Fatalf("len(union.Fields) = %d, want 3 arms", len(union.Fields))
	}

	wantSizes := []uint64{4, 8, 8}
	for i, f := range union.Fields {
		armIdx := f.Kind.(KindClass).Value
		arm := arena.Class(armIdx)
		if arm.Size != wantSizes[i] {
			t.Errorf("arm %d size = %d, want %d", i, arm.Size, wantSizes[i])
		}
	}
	if union.Size != 8 {
		t.Errorf("union.Size = %d, want max(arm sizes during the repeat run) = 8", union.Size)
	}
}

func TestTransformUnionsLeavesNonOverlappingMembersAlone(t *testing.T) {
	arena := NewArena()
	members := []ClassMember{i32Field("a", 0), i32Field("b", 4)}
	result := transformUnions(arena, ParseName("Flat"), members)
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 (no offsets repeat)", len(result))
	}
}

func offsetsNonDecreasing(t *testing.T, members []ClassMember) {
	t.Helper()
	last := -1
	for _, m := range members {
		off := m.memberOffset()
		if off < last {
			t.Errorf("offsets not non-decreasing: saw %d after %d", off, last)
		}
		last = off
	}
}

func TestTransformUnionsProducesNonDecreasingOffsets(t *testing.T) {
	arena := NewArena()
	members := []ClassMember{
		i32Field("a", 0),
		i32Field("ba", 0),
		i32Field("bb", 4),
		i32Field("tail", 12),
	}
	result := transformUnions(arena, ParseName("Foo"), members)
	offsetsNonDecreasing(t, result)
}

// Adjacent bitfields scenario: flag_a pos=0 len=1 u32, flag_b pos=1 len=3
// u32 at the same storage offset as flag_c pos=0 len=8 u8 (a new storage
// unit, since its position resets to 0) fuse into two runs.
func TestTransformBitfieldsCoalescesUntilPositionResets(t *testing.T) {
	bitfieldMember := func(name string, offset, pos, length int, underlying PrimitiveKind) Field {
		return Field{
			Name:   ParseName(name),
			Offset: offset,
			Kind: KindBitfield{Value: Bitfield{Fields: []BitfieldField{
				{Underlying: UnderlyingPrimitive{Value: underlying}, Position: pos, Length: length},
			}}},
		}
	}

	members := []ClassMember{
		bitfieldMember("flag_a", 0, 0, 1, PrimitiveU32),
		bitfieldMember("flag_b", 0, 1, 3, PrimitiveU32),
		bitfieldMember("flag_c", 0, 0, 8, PrimitiveU8),
	}

	result := transformBitfields(members)
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 fused bitfield runs", len(result))
	}

	first := result[0].(Field).Kind.(KindBitfield).Value
	second := result[1].(Field).Kind.(KindBitfield).Value
	if len(first.Fields) != 2 {
		t.Errorf("first run has %d fields, want 2 (flag_a, flag_b)", len(first.Fields))
	}
	if len(second.Fields) != 1 {
		t.Errorf("second run has %d fields, want 1 (flag_c)", len(second.Fields))
	}
}

func TestTransformBitfieldsFlushesTrailingRun(t *testing.T) {
	// A run that is still open when the member list ends must still be
	// flushed, not silently dropped.
	member := Field{
		Name:   ParseName("flag"),
		Offset: 0,
		Kind: KindBitfield{Value: Bitfield{Fields: []BitfieldField{
			{Underlying: UnderlyingPrimitive{Value: PrimitiveU32}, Position: 0, Length: 1},
		}}},
	}
	result := transformBitfields([]ClassMember{member})
	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1 (the trailing run must be flushed)", len(result))
	}
}

func TestTransformBitfieldsPassesThroughNonBitfieldMembers(t *testing.T) {
	members := []ClassMember{i32Field("a", 0), i32Field("b", 4)}
	result := transformBitfields(members)
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 (no bitfields present)", len(result))
	}
}
