package ir

import "testing"

func TestInsertClassKeepsLargerVariant(t *testing.T) {
	a := NewArena()

	smallIdx := a.InsertCustomClass(Class{
		Name:    ParseName("Foo"),
		Members: []ClassMember{Field{}, Field{}},
		Size:    8,
	})
	largeIdx := a.InsertCustomClass(Class{
		Name: ParseName("Foo"),
		Members: []ClassMember{
			Field{}, Field{}, Field{}, Field{}, Field{},
		},
		Size: 16,
	})

	winner, ok := a.TypeByName("Foo")
	if !ok || !winner.IsClass() || winner.Class() != largeIdx {
		t.Fatalf("TypeByName(Foo) = %v, want the 16-byte/5-field variant", winner)
	}

	// Both remain reachable by their own ClassIndex.
	if a.Class(smallIdx).Size != 8 {
		t.Errorf("small variant's own size changed: got %d", a.Class(smallIdx).Size)
	}
	if a.Class(largeIdx).Size != 16 {
		t.Errorf("large variant's own size changed: got %d", a.Class(largeIdx).Size)
	}
}

func TestInsertClassKeepsLargerVariantRegardlessOfOrder(t *testing.T) {
	a := NewArena()
	largeIdx := a.InsertCustomClass(Class{
		Name:    ParseName("Bar"),
		Members: []ClassMember{Field{}, Field{}, Field{}},
		Size:    16,
	})
	a.InsertCustomClass(Class{
		Name:    ParseName("Bar"),
		Members: []ClassMember{Field{}},
		Size:    4,
	})

	winner, _ := a.TypeByName("Bar")
	if winner.Class() != largeIdx {
		t.Fatalf("inserting a smaller variant after the larger one must not steal the name")
	}
}

func TestGetLargestClassIndexIsIdempotent(t *testing.T) {
	a := NewArena()
	a.InsertCustomClass(Class{Name: ParseName("Baz"), Size: 4})
	largeIdx := a.InsertCustomClass(Class{Name: ParseName("Baz"), Size: 8, Members: []ClassMember{Field{}}})

	once := a.GetLargestClassIndex(largeIdx)
	twice := a.GetLargestClassIndex(once)
	if once != twice {
		t.Fatalf("GetLargestClassIndex is not idempotent: %v then %v", once, twice)
	}
	if once != largeIdx {
		t.Fatalf("GetLargestClassIndex(%v) = %v, want %v", largeIdx, once, largeIdx)
	}
}

func TestGetLargestClassIndexAnonymousIsIdentity(t *testing.T) {
	a := NewArena()
	idx := a.InsertCustomClass(Class{Size: 4})
	if got := a.GetLargestClassIndex(idx); got != idx {
		t.Fatalf("anonymous class must resolve to itself, got %v", got)
	}
}
