package ir

import "testing"

func buildThreeFieldClass() Class {
	return Class{
		Name: ParseName("Foo"),
		Members: []ClassMember{
			i32Field("a", 0),
			i32Field("b", 4),
			i32Field("c", 8),
		},
		Size: 12,
	}
}

func TestFindFieldLocatesByName(t *testing.T) {
	c := buildThreeFieldClass()
	if idx := FindField(c.Members, "b"); idx != 1 {
		t.Errorf("FindField(b) = %d, want 1", idx)
	}
	if idx := FindField(c.Members, "nope"); idx != -1 {
		t.Errorf("FindField(nope) = %d, want -1", idx)
	}
}

func TestGetStartGetEndEmptyNameMeansWholeRange(t *testing.T) {
	c := buildThreeFieldClass()
	if got := GetStart(c.Members, ""); got != 0 {
		t.Errorf("GetStart(\"\") = %d, want 0", got)
	}
	if got := GetEnd(c.Members, ""); got != len(c.Members) {
		t.Errorf("GetEnd(\"\") = %d, want %d", got, len(c.Members))
	}
}

func TestDeleteBetweenRemovesRange(t *testing.T) {
	c := buildThreeFieldClass()
	result := DeleteBetween(c.Members, 1, 2)
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2", len(result))
	}
	if result[0].(Field).Name.Raw != "a" || result[1].(Field).Name.Raw != "c" {
		t.Errorf("DeleteBetween left wrong members: %+v", result)
	}
}

func TestReplaceWithPaddingCollapsesRunIntoOneField(t *testing.T) {
	c := buildThreeFieldClass()
	c.ReplaceWithPadding("b", "", 0, 8)

	if len(c.Members) != 2 {
		t.Fatalf("len(c.Members) = %d, want 2 (a, then the padding field)", len(c.Members))
	}
	pad, ok := c.Members[1].(Field)
	if !ok {
		t.Fatalf("c.Members[1] is a %T, want Field", c.Members[1])
	}
	if pad.Name.Raw != "_pad0" {
		t.Errorf("padding field name = %q, want _pad0", pad.Name.Raw)
	}
	if pad.Offset != 4 {
		t.Errorf("padding offset = %d, want 4 (b's original offset)", pad.Offset)
	}
	arr, ok := pad.Kind.(KindArray)
	if !ok {
		t.Fatalf("padding Kind is a %T, want KindArray", pad.Kind)
	}
	if len(arr.Value.Dimensions) != 1 || arr.Value.Dimensions[0] != 8 {
		t.Errorf("padding dimensions = %v, want [8]", arr.Value.Dimensions)
	}
}

func TestInsertPaddingAfterPlacesFieldRightAfterTarget(t *testing.T) {
	c := buildThreeFieldClass()
	c.InsertPaddingAfter("a", 0, 4)

	if len(c.Members) != 4 {
		t.Fatalf("len(c.Members) = %d, want 4", len(c.Members))
	}
	pad := c.Members[1].(Field)
	if pad.Name.Raw != "_pad0" {
		t.Errorf("inserted member = %+v, want the padding field", pad)
	}
	if pad.Offset != 0 {
		t.Errorf("padding offset = %d, want 0 (a's own offset)", pad.Offset)
	}
	if c.Members[2].(Field).Name.Raw != "b" {
		t.Errorf("field after padding = %+v, want b", c.Members[2])
	}
}

func TestInsertPaddingBeforePlacesFieldRightBeforeTarget(t *testing.T) {
	c := buildThreeFieldClass()
	c.InsertPaddingBefore("c", 0, 4)

	if len(c.Members) != 4 {
		t.Fatalf("len(c.Members) = %d, want 4", len(c.Members))
	}
	pad := c.Members[2].(Field)
	if pad.Name.Raw != "_pad0" {
		t.Errorf("inserted member = %+v, want the padding field", pad)
	}
	if pad.Offset != 8 {
		t.Errorf("padding offset = %d, want 8 (c's original offset)", pad.Offset)
	}
}

func TestSetAlignmentOverridesClassAlignment(t *testing.T) {
	c := buildThreeFieldClass()
	if !c.Alignment.IsNone() {
		t.Fatalf("fresh class should start at AlignNone")
	}
	c.SetAlignment(AlignBoth(16))
	if c.Alignment.IsNone() {
		t.Errorf("SetAlignment did not take effect")
	}
}

func TestInferAlignmentFromPaddingNameParsesSizeAndAlign(t *testing.T) {
	align, ok := InferAlignmentFromPaddingName("TAlignedBytes<16, 8>::TPadding")
	if !ok {
		t.Fatalf("expected a match")
	}
	if align != 8 {
		t.Errorf("align = %d, want 8", align)
	}
}

func TestInferAlignmentFromPaddingNameRejectsOtherNames(t *testing.T) {
	if _, ok := InferAlignmentFromPaddingName("FQuat"); ok {
		t.Errorf("expected no match for an unrelated name")
	}
}
