package ir

import "testing"

func TestTransformInlineStructsSplicesTrailingRun(t *testing.T) {
	arena := NewArena()
	fields := []Field{
		i32Field("a", 0),
		i32Field("b", 0),
		i32Field("c", 4),
	}

	result := transformInlineStructs(arena, ParseName("Foo"), fields)
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 (a plus the synthesized struct)", len(result))
	}

	structField := result[1]
	kind, ok := structField.Kind.(KindClass)
	if !ok {
		t.Fatalf("result[1].Kind is a %T, want KindClass", structField.Kind)
	}
	synth := arena.Class(kind.Value)
	if len(synth.Members) != 2 {
		t.Fatalf("synthesized struct has %d members, want 2 (b, c)", len(synth.Members))
	}
	if want := uint64(8); synth.Size != want {
		t.Errorf("synthesized struct size = %d, want %d (last_member.offset + size)", synth.Size, want)
	}
}

func TestTransformInlineStructsSplicesWholeListStartingAtZero(t *testing.T) {
	arena := NewArena()
	fields := []Field{i32Field("a", 0), i32Field("b", 4)}
	result := transformInlineStructs(arena, ParseName("Foo"), fields)
	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1 (a@0 followed by b@4 is one inline struct)", len(result))
	}
	if _, ok := result[0].Kind.(KindClass); !ok {
		t.Fatalf("result[0].Kind is a %T, want KindClass", result[0].Kind)
	}
}
