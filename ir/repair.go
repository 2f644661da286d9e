package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// This file exposes ad-hoc post-parse mutation of a Class's member list:
// some binaries carry debug info that is structurally present but wrong
// (a field the linker padded out, a union the compiler over-aligned) and
// the only practical fix is to patch the graph by hand before emission.
// None of this reconciles Size or Alignment automatically - the caller
// owns that.

// FindField returns the index of the named Field within members, or -1 if
// none matches. Only Field members are considered; vtable/base-class slots
// are skipped.
func FindField(members []ClassMember, name string) int {
	for i, m := range members {
		if f, ok := m.(Field); ok && f.Name.Raw == name {
			return i
		}
	}
	return -1
}

func mustFindField(members []ClassMember, name string) int {
	idx := FindField(members, name)
	if idx < 0 {
		panic(fmt.Sprintf("ir: no field named %q", name))
	}
	return idx
}

// GetStart resolves an optional field name to a starting index: the
// field's own index, or 0 if name is empty.
func GetStart(members []ClassMember, name string) int {
	if name == "" {
		return 0
	}
	return mustFindField(members, name)
}

// GetEnd resolves an optional field name to an ending index (exclusive):
// the field's own index, or len(members) if name is empty.
func GetEnd(members []ClassMember, name string) int {
	if name == "" {
		return len(members)
	}
	return mustFindField(members, name)
}

// DeleteBetween removes members[from:to] in place.
func DeleteBetween(members []ClassMember, from, to int) []ClassMember {
	return append(members[:from:from], members[to:]...)
}

// ReplaceBetween deletes members[from:to] and inserts with in its place.
func ReplaceBetween(members []ClassMember, from, to int, with ClassMember) []ClassMember {
	members = DeleteBetween(members, from, to)
	return InsertAt(members, from, with)
}

// InsertAt inserts element at position i.
func InsertAt(members []ClassMember, i int, element ClassMember) []ClassMember {
	members = append(members, nil)
	copy(members[i+1:], members[i:])
	members[i] = element
	return members
}

// InsertBefore inserts element immediately before the named field.
func InsertBefore(members []ClassMember, before string, element ClassMember) []ClassMember {
	return InsertAt(members, mustFindField(members, before), element)
}

// InsertAfter inserts element immediately after the named field.
func InsertAfter(members []ClassMember, after string, element ClassMember) []ClassMember {
	return InsertAt(members, mustFindField(members, after)+1, element)
}

// Padding synthesizes a byte-array field standing in for size bytes of
// unaccounted-for or deliberately blanked-out storage at offset.
func Padding(padNum, size, offset int) Field {
	return Field{
		Name:   ParseName(fmt.Sprintf("_pad%d", padNum)),
		Offset: offset,
		Kind: KindArray{Value: &Array{
			ElementType: KindPrimitive{Value: PrimitiveU8},
			Dimensions:  []uint64{uint64(size)},
		}},
		MaxSize: size,
	}
}

// ReplaceWithPadding replaces every member from (inclusive, empty = start)
// to (exclusive, empty = end) with a single padding field of size bytes,
// at the run's starting offset.
func (c *Class) ReplaceWithPadding(from, to string, padNum, size int) {
	start := GetStart(c.Members, from)
	end := GetEnd(c.Members, to)
	offset := c.Members[start].memberOffset()
	c.Members = ReplaceBetween(c.Members, start, end, Padding(padNum, size, offset))
}

// InsertPaddingAfter inserts a size-byte padding field immediately after
// the named field, reusing that field's own offset (the caller is
// patching in a run the debug info already accounted for elsewhere, not
// appending fresh bytes).
func (c *Class) InsertPaddingAfter(after string, padNum, size int) {
	idx := mustFindField(c.Members, after)
	prior := c.Members[idx]
	c.Members = InsertAt(c.Members, idx+1, Padding(padNum, size, prior.memberOffset()))
}

// InsertPaddingBefore inserts a size-byte padding field immediately before
// the named field, at that field's own offset.
func (c *Class) InsertPaddingBefore(before string, padNum, size int) {
	idx := mustFindField(c.Members, before)
	c.Members = InsertAt(c.Members, idx, Padding(padNum, size, c.Members[idx].memberOffset()))
}

// SetAlignment overrides c's Alignment outright.
func (c *Class) SetAlignment(a Alignment) { c.Alignment = a }

// SetAlignment overrides u's Alignment outright.
func (u *Union) SetAlignment(a Alignment) { u.Alignment = a }

// InferAlignmentFromPaddingName recognizes the
// "TAlignedBytes<Size,Align>::TPadding" name shape a certain compiler
// emits for an explicit alignas buffer, and returns the alignment it
// encodes. ok is false for any other name.
func InferAlignmentFromPaddingName(rawName string) (align int, ok bool) {
	rest, ok := cutPrefix(rawName, "TAlignedBytes<")
	if !ok {
		return 0, false
	}
	rest, ok = cutSuffix(rest, ">::TPadding")
	if !ok {
		return 0, false
	}
	parts := strings.Split(rest, ",")
	if len(parts) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func cutSuffix(s, suffix string) (string, bool) {
	if !strings.HasSuffix(s, suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}
