package ir

import "fmt"

// Union is a union type: a flat list of arms sharing offset 0, each either
// a plain field or a synthesized sibling Class standing in for a run of
// fields the source declared as an anonymous nested struct.
type Union struct {
	Name       Name
	Fields     []Field
	Size       uint64
	Properties Properties
	Alignment  Alignment
}

// transformInlineStructs scans a union's field list for a field at a
// nonzero offset following one at offset 0 - the signature of an anonymous
// "struct { ... };" declared directly inside the union - and splices the
// run into a single synthesized sibling Class, replacing the raw run with
// one field naming that class.
func transformInlineStructs(arena *Arena, owner Name, fields []Field) []Field {
	res := make([]Field, 0, len(fields))
	structNumber := 0

	for len(fields) > 0 {
		field := fields[0]
		fields = fields[1:]

		if field.Offset != 0 || len(fields) == 0 || fields[0].Offset == 0 {
			res = append(res, field)
			continue
		}

		run := []Field{field}
		for len(fields) > 0 && fields[0].Offset != 0 {
			run = append(run, fields[0])
			fields = fields[1:]
		}

		last := run[len(run)-1]
		size := uint64(last.Offset) + last.Kind.Size(arena)

		structIdx := arena.InsertCustomClass(Class{
			Name:    ParseName(fmt.Sprintf("%s_Struct%d", owner.Ident, structNumber)),
			Kind:    ClassKindStruct,
			Members: fieldsToMembers(run),
			Size:    size,
		})
		res = append(res, Field{
			Name: ParseName(fmt.Sprintf("struct%d", structNumber)),
			Kind: KindClass{Value: structIdx},
		})
		structNumber++
	}

	return res
}

func fieldsToMembers(fields []Field) []ClassMember {
	members := make([]ClassMember, len(fields))
	for i, f := range fields {
		members[i] = f
	}
	return members
}
