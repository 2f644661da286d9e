package ir

import (
	"bytes"
	"strings"
	"testing"
)

func buildFlatStructArena() (*Arena, ClassIndex) {
	a := NewArena()
	idx := a.InsertCustomClass(Class{
		Name: ParseName("Foo"),
		Kind: ClassKindStruct,
		Members: []ClassMember{
			i32Field("a", 0),
			i32Field("b", 4),
		},
		Size: 8,
	})
	return a, idx
}

// Flat struct scenario: class Foo with fields {a:i32@0, b:i32@4}, size 8
// emits one struct with two fields and matching offset/size assertions.
func TestWriteFlatStruct(t *testing.T) {
	arena, _ := buildFlatStructArena()

	var buf bytes.Buffer
	w := NewWriter(&buf, arena)
	if err := w.Write("Foo"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "type Foo struct {") {
		t.Errorf("output missing struct declaration:\n%s", out)
	}
	if !strings.Contains(out, "a int32") || !strings.Contains(out, "b int32") {
		t.Errorf("output missing expected fields:\n%s", out)
	}
	if !strings.Contains(out, "unsafe.Offsetof(v.a); got != 0") {
		t.Errorf("output missing offset assertion for a:\n%s", out)
	}
	if !strings.Contains(out, "unsafe.Offsetof(v.b); got != 4") {
		t.Errorf("output missing offset assertion for b:\n%s", out)
	}
	if !strings.Contains(out, "unsafe.Sizeof(v); got != 8") {
		t.Errorf("output missing size assertion:\n%s", out)
	}
}

func TestWriteIsIdempotent(t *testing.T) {
	arena, _ := buildFlatStructArena()

	var first, second bytes.Buffer
	w1 := NewWriter(&first, arena)
	if err := w1.Write("Foo"); err != nil {
		t.Fatalf("Write (1st): %v", err)
	}
	w1.Finish()

	w2 := NewWriter(&second, arena)
	if err := w2.Write("Foo"); err != nil {
		t.Fatalf("Write (2nd): %v", err)
	}
	w2.Finish()

	if first.String() != second.String() {
		t.Errorf("output is not byte-identical across runs:\n--- first ---\n%s\n--- second ---\n%s", first.String(), second.String())
	}
}

// Pointer cycle scenario: class Node with field next: *Node emits Node
// once as a full declaration, with no duplicate and no stub (it was
// reached through its own root).
func TestWritePointerCycleEmitsOnce(t *testing.T) {
	arena := NewArena()
	nodeIdx := arena.InsertCustomClass(Class{Name: ParseName("Node")})
	arena.replaceClass(nodeIdx, Class{
		Name: ParseName("Node"),
		Members: []ClassMember{
			Field{Name: ParseName("next"), Kind: KindPointer{Value: &Pointer{
				Underlying: KindClass{Value: nodeIdx},
				Size:       8,
			}}},
		},
		Size: 8,
	})

	var buf bytes.Buffer
	w := NewWriter(&buf, arena)
	if err := w.Write("Node"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Finish()

	out := buf.String()
	if strings.Count(out, "type Node struct {") != 1 {
		t.Errorf("Node must be declared exactly once, got:\n%s", out)
	}
	if strings.Contains(out, "its full layout was not requested") {
		t.Errorf("Node was reached by its own root; it must not be stubbed:\n%s", out)
	}
	if !strings.Contains(out, "next *Node") {
		t.Errorf("output missing self-referential pointer field:\n%s", out)
	}
}

// A type reached only through a pointer from elsewhere (never requested by
// name) is emitted as an opaque stub, unless Recursive is set.
func TestWritePointerOnlyDependencyIsStubbedByDefault(t *testing.T) {
	arena := NewArena()
	leafIdx := arena.InsertCustomClass(Class{Name: ParseName("Leaf"), Size: 4})
	arena.InsertCustomClass(Class{
		Name: ParseName("Root"),
		Members: []ClassMember{
			Field{Name: ParseName("leaf"), Kind: KindPointer{Value: &Pointer{
				Underlying: KindClass{Value: leafIdx},
				Size:       8,
			}}},
		},
		Size: 8,
	})

	var buf bytes.Buffer
	w := NewWriter(&buf, arena)
	if err := w.Write("Root"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Finish()

	out := buf.String()
	if !strings.Contains(out, "type Leaf struct{}") {
		t.Errorf("pointer-only dependency Leaf must be stubbed:\n%s", out)
	}
}

func TestWriteRecursiveExpandsPointerOnlyDependency(t *testing.T) {
	arena := NewArena()
	leafIdx := arena.InsertCustomClass(Class{
		Name:    ParseName("Leaf"),
		Members: []ClassMember{i32Field("value", 0)},
		Size:    4,
	})
	arena.InsertCustomClass(Class{
		Name: ParseName("Root"),
		Members: []ClassMember{
			Field{Name: ParseName("leaf"), Kind: KindPointer{Value: &Pointer{
				Underlying: KindClass{Value: leafIdx},
				Size:       8,
			}}},
		},
		Size: 8,
	})

	var buf bytes.Buffer
	w := NewWriter(&buf, arena)
	w.Recursive = true
	if err := w.Write("Root"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.WriteRest(); err != nil {
		t.Fatalf("WriteRest: %v", err)
	}
	w.Finish()

	out := buf.String()
	if !strings.Contains(out, "type Leaf struct {") {
		t.Errorf("recursive run must fully expand Leaf, not stub it:\n%s", out)
	}
	if strings.Contains(out, "its full layout was not requested") {
		t.Errorf("recursive run left a stub behind:\n%s", out)
	}
}

func TestWriteIgnorePrefixPlaceholdersField(t *testing.T) {
	arena := NewArena()
	internalIdx := arena.InsertCustomClass(Class{Name: ParseName("FInternalDetail"), Size: 4})
	arena.InsertCustomClass(Class{
		Name: ParseName("Root"),
		Members: []ClassMember{
			Field{Name: ParseName("detail"), Kind: KindClass{Value: internalIdx}, Offset: 0},
		},
		Size: 4,
	})

	var buf bytes.Buffer
	w := NewWriter(&buf, arena)
	w.Ignore("FInternal")
	if err := w.Write("Root"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Finish()

	out := buf.String()
	if strings.Contains(out, "FInternalDetail") {
		t.Errorf("ignored type must never be named in the output:\n%s", out)
	}
	if !strings.Contains(out, "detail [4]byte") {
		t.Errorf("ignored-by-value field must become a same-sized byte placeholder:\n%s", out)
	}
}

func TestEnsureBoolEmittedOnce(t *testing.T) {
	arena := NewArena()
	arena.InsertCustomClass(Class{
		Name: ParseName("Flags"),
		Members: []ClassMember{
			Field{Name: ParseName("a"), Kind: KindPrimitive{Value: PrimitiveBool32}, Offset: 0},
			Field{Name: ParseName("b"), Kind: KindPrimitive{Value: PrimitiveBool32}, Offset: 4},
		},
		Size: 8,
	})

	var buf bytes.Buffer
	w := NewWriter(&buf, arena)
	if err := w.Write("Flags"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Finish()

	out := buf.String()
	if strings.Count(out, "type Bool32 uint32") != 1 {
		t.Errorf("Bool32 must be emitted exactly once, got:\n%s", out)
	}
	if !strings.Contains(out, "func (b Bool32) Bool() bool { return b != 0 }") {
		t.Errorf("missing BoolN conversion helper:\n%s", out)
	}
}
