package ir

import (
	"reflect"
	"testing"
)

func TestParseNamePlain(t *testing.T) {
	n := ParseName("FVector")
	if n.Ident != "FVector" {
		t.Errorf("Ident = %q, want %q", n.Ident, "FVector")
	}
	if len(n.Generics) != 0 {
		t.Errorf("Generics = %v, want empty", n.Generics)
	}
}

func TestParseNameTemplate(t *testing.T) {
	// Vector<int> with member data: *int, size: i32, capacity: i32: the
	// generics list is parsed as ["int"], then discarded by the primitive
	// blacklist.
	n := ParseName("Vector<int>")
	if len(n.Generics) != 0 {
		t.Errorf("Generics = %v, want empty (int is a primitive blacklist entry)", n.Generics)
	}
}

func TestParseNameTemplateWithTypeArgument(t *testing.T) {
	n := ParseName("TArray<FString>")
	if !reflect.DeepEqual(n.Generics, []string{"FString"}) {
		t.Errorf("Generics = %v, want [FString]", n.Generics)
	}
}

func TestParseNameNestedTemplate(t *testing.T) {
	n := ParseName("TMap<FName,TArray<int>>")
	if !reflect.DeepEqual(n.Generics, []string{"FName", "TArray<int>"}) {
		t.Errorf("Generics = %v, want [FName TArray<int>]", n.Generics)
	}
}

func TestParseNameDropsNonTypeArguments(t *testing.T) {
	n := ParseName("TAlignedBytes<16,8>")
	if len(n.Generics) != 0 {
		t.Errorf("Generics = %v, want empty (both arguments are integer literals)", n.Generics)
	}
}

func TestParseNameStarAndAmpDistinguishPointerFromValue(t *testing.T) {
	value := ParseName("Foo")
	pointer := ParseName("Foo*")
	if pointer.Ident == value.Ident {
		t.Fatalf("Foo and Foo* collapsed to the same identifier %q", pointer.Ident)
	}
	if pointer.Ident != "Foostar" {
		t.Errorf("Ident = %q, want %q", pointer.Ident, "Foostar")
	}

	ref := ParseName("Foo&")
	if ref.Ident != "Fooamp" {
		t.Errorf("Ident = %q, want %q", ref.Ident, "Fooamp")
	}
}

func TestParseNameGenericPointerArgumentGetsStarSuffix(t *testing.T) {
	n := ParseName("TArray<FString *>")
	if !reflect.DeepEqual(n.Generics, []string{"FString star"}) {
		t.Errorf("Generics = %v, want [FString star]", n.Generics)
	}
}

func TestParseNameIdentCollapsesSpecialChars(t *testing.T) {
	n := ParseName("std::vector<int>")
	if n.Ident == "" || n.Ident == n.Raw {
		t.Errorf("Ident = %q, want a collapsed identifier distinct from Raw %q", n.Ident, n.Raw)
	}
	for _, r := range n.Ident {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Fatalf("Ident %q contains non Go-safe rune %q", n.Ident, r)
		}
	}
}
