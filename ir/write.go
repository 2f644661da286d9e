package ir

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// ReplaceRule renames every emitted identifier matching Pattern, the way
// the CLI's repeatable --replace PATTERN=REPLACEMENT flag is applied.
type ReplaceRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Writer renders a subset of an Arena's graph as Go struct/union/enum
// declarations plus unsafe.Offsetof/Sizeof layout assertions, writing each
// referenced type at most once. A type reached only through a pointer is
// left as an opaque stub unless Recursive is set, keeping a non-recursive
// run's output limited to what the caller actually asked for while still
// producing code that type-checks.
type Writer struct {
	out     io.Writer
	arena   *Arena
	diag    *Diagnostics

	Recursive bool

	replace []ReplaceRule
	ignore  []string

	todo    []TypeIndex
	queued  map[TypeIndex]bool
	written map[TypeIndex]bool
	stubs   map[TypeIndex]bool

	boolEmitted map[int]bool

	preludeWritten bool
}

// NewWriter returns a Writer that streams declarations to out as they are
// resolved.
func NewWriter(out io.Writer, arena *Arena) *Writer {
	return &Writer{
		out:         out,
		arena:       arena,
		diag:        &Diagnostics{},
		queued:      make(map[TypeIndex]bool),
		written:     make(map[TypeIndex]bool),
		stubs:       make(map[TypeIndex]bool),
		boolEmitted: make(map[int]bool),
	}
}

func (w *Writer) Diagnostics() *Diagnostics { return w.diag }

// SetReplacements installs the identifier rename rules, applied in order to
// every emitted type and field name.
func (w *Writer) SetReplacements(rules []ReplaceRule) { w.replace = rules }

// Ignore marks name (matched as an exact name or a leading-prefix) so that
// a reference to it is rendered as a same-sized byte-array placeholder
// instead of expanding or stubbing the real type.
func (w *Writer) Ignore(name string) { w.ignore = append(w.ignore, name) }

func (w *Writer) isIgnored(name string) bool {
	for _, prefix := range w.ignore {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (w *Writer) rename(ident string) string {
	for _, rule := range w.replace {
		ident = rule.Pattern.ReplaceAllString(ident, rule.Replacement)
	}
	return ident
}

// Write resolves name to its largest-variant node and emits it, along with
// every type it depends on by value. Pointer-only dependencies are queued
// as stubs unless Recursive is set.
func (w *Writer) Write(name string) error {
	idx, ok := w.arena.TypeByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNameNotFound, name)
	}
	if w.isIgnored(name) {
		return fmt.Errorf("ir: %q was requested and ignored in the same run", name)
	}
	w.enqueueFull(idx)
	return w.drain()
}

// WriteRest drains any stub placeholders promoted to full dependencies
// because Recursive is set, plus anything still queued from a prior Write.
func (w *Writer) WriteRest() error {
	return w.drain()
}

// Finish emits an opaque declaration for every type that ended up only
// stubbed, plus any BoolN helper types used along the way. Call this once,
// after every Write/WriteRest call for the run.
func (w *Writer) Finish() error {
	var pending []TypeIndex
	for t, still := range w.stubs {
		if still && !w.written[t] {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return w.identOf(pending[i]) < w.identOf(pending[j])
	})
	if len(pending) > 0 {
		w.ensurePrelude()
	}
	for _, t := range pending {
		w.written[t] = true
		ident := w.rename(w.identOf(t))
		fmt.Fprintf(w.out, "// %s is referenced only through a pointer; its full layout was not requested.\ntype %s struct{}\n\n", ident, ident)
	}
	return nil
}

// ensurePrelude writes the package clause and the single shared import the
// generated file needs, once, before the first declaration. A harmless
// reference to unsafe.Sizeof keeps the import live even for a run whose
// requested types happen to produce no layout assertion (e.g. a lone enum).
func (w *Writer) ensurePrelude() {
	if w.preludeWritten {
		return
	}
	w.preludeWritten = true
	fmt.Fprintln(w.out, "package extracted")
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "import (")
	fmt.Fprintln(w.out, "\t\"testing\"")
	fmt.Fprintln(w.out, "\t\"unsafe\"")
	fmt.Fprintln(w.out, ")")
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "var (")
	fmt.Fprintln(w.out, "\t_ = unsafe.Sizeof(struct{}{})")
	fmt.Fprintln(w.out, "\t_ *testing.T")
	fmt.Fprintln(w.out, ")")
	fmt.Fprintln(w.out)
}

func (w *Writer) identOf(t TypeIndex) string {
	switch {
	case t.IsClass():
		return w.arena.Class(t.Class()).Name.Ident
	case t.IsUnion():
		return w.arena.Union(t.Union()).Name.Ident
	default:
		return w.arena.Enum(t.Enum()).Name.Ident
	}
}

func (w *Writer) nameOf(t TypeIndex) string {
	switch {
	case t.IsClass():
		return w.arena.Class(t.Class()).Name.Raw
	case t.IsUnion():
		return w.arena.Union(t.Union()).Name.Raw
	default:
		return w.arena.Enum(t.Enum()).Name.Raw
	}
}

func (w *Writer) enqueueFull(t TypeIndex) {
	t = w.arena.GetLargestTypeIndex(t)
	if w.written[t] || w.queued[t] {
		return
	}
	w.queued[t] = true
	delete(w.stubs, t)
	w.todo = append(w.todo, t)
}

func (w *Writer) enqueueStub(t TypeIndex) {
	t = w.arena.GetLargestTypeIndex(t)
	if w.written[t] || w.queued[t] {
		return
	}
	if w.Recursive {
		w.enqueueFull(t)
		return
	}
	w.stubs[t] = true
}

func (w *Writer) drain() error {
	for len(w.todo) > 0 {
		t := w.todo[0]
		w.todo = w.todo[1:]
		if w.written[t] {
			continue
		}
		var err error
		switch {
		case t.IsClass():
			err = w.emitClass(t.Class())
		case t.IsUnion():
			err = w.emitUnion(t.Union())
		default:
			err = w.emitEnum(t.Enum())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type emittedField struct {
	name   string
	offset int
	size   uint64
}

func (w *Writer) emitClass(idx ClassIndex) error {
	idx = w.arena.GetLargestClassIndex(idx)
	t := ClassTypeIndex(idx)
	if w.written[t] {
		return nil
	}
	w.written[t] = true

	class := w.arena.Class(idx)
	if w.isIgnored(class.Name.Raw) {
		return nil
	}
	// ensurePrelude runs up front, and every field's Go type is rendered
	// before a single byte of "type X struct {" is written: rendering a
	// field can itself emit a standalone declaration (a BoolN wrapper,
	// the first time one is needed), which must land as a top-level decl
	// before this struct, never spliced into its still-open body.
	w.ensurePrelude()

	type renderedField struct {
		name   string
		goType string
	}
	used := map[string]int{}
	var rendered []renderedField
	var fields []emittedField

	for _, m := range class.Members {
		switch v := m.(type) {
		case VtableMember:
			name := w.uniqueName(used, "vtable")
			rendered = append(rendered, renderedField{name, "uintptr"})
			fields = append(fields, emittedField{name, 0, v.Size(w.arena)})

		case BaseClassMember:
			w.enqueueFull(ClassTypeIndex(v.Base))
			base := w.arena.Class(w.arena.GetLargestClassIndex(v.Base))
			name := w.uniqueName(used, base.Name.Ident)
			rendered = append(rendered, renderedField{name, w.rename(base.Name.Ident)})
			fields = append(fields, emittedField{name, v.Offset, v.Size(w.arena)})

		case VirtualBaseClassMember:
			w.enqueueFull(ClassTypeIndex(v.Base))
			base := w.arena.Class(w.arena.GetLargestClassIndex(v.Base))
			name := w.uniqueName(used, "v"+base.Name.Ident)
			rendered = append(rendered, renderedField{name, w.rename(base.Name.Ident)})
			fields = append(fields, emittedField{name, v.BasePointerOffset, v.Size(w.arena)})

		case Field:
			name := w.uniqueName(used, fieldIdent(v.Name))
			goType := w.fieldTypeName(v.Kind)
			w.noteDependencies(v.Kind)
			rendered = append(rendered, renderedField{name, goType})
			fields = append(fields, emittedField{name, v.Offset, v.Kind.Size(w.arena)})
		}
	}

	ident := w.rename(class.Name.Ident)
	fmt.Fprintf(w.out, "type %s struct {\n", ident)
	for _, r := range rendered {
		fmt.Fprintf(w.out, "\t%s %s\n", r.name, r.goType)
	}
	fmt.Fprintln(w.out, "}")
	fmt.Fprintln(w.out)

	w.emitLayoutAssertion(ident, class.Size, fields)
	return nil
}

func (w *Writer) emitUnion(idx UnionIndex) error {
	idx = w.arena.GetLargestUnionIndex(idx)
	t := UnionTypeIndex(idx)
	if w.written[t] {
		return nil
	}
	w.written[t] = true

	union := w.arena.Union(idx)
	if w.isIgnored(union.Name.Raw) {
		return nil
	}
	w.ensurePrelude()

	ident := w.rename(union.Name.Ident)
	// Go has no native union; every arm is rendered at offset 0 over a
	// byte array sized to the union, with typed accessor methods so each
	// arm can still be read/written without unsafe casts at every call
	// site.
	fmt.Fprintf(w.out, "type %s struct {\n\tdata [%d]byte\n}\n\n", ident, union.Size)

	used := map[string]int{}
	for _, f := range union.Fields {
		name := w.uniqueName(used, fieldIdent(f.Name))
		goType := w.fieldTypeName(f.Kind)
		w.noteDependencies(f.Kind)
		fmt.Fprintf(w.out, "func (v *%s) %s() *%s {\n\treturn (*%s)(unsafe.Pointer(&v.data[0]))\n}\n\n",
			ident, exportedIdent(name), goType, goType)
	}

	w.emitLayoutAssertion(ident, union.Size, nil)
	return nil
}

func (w *Writer) emitEnum(idx EnumIndex) error {
	idx = w.arena.GetLargestEnumIndex(idx)
	t := EnumTypeIndex(idx)
	if w.written[t] {
		return nil
	}
	w.written[t] = true

	enum := w.arena.Enum(idx)
	if w.isIgnored(enum.Name.Raw) {
		return nil
	}
	w.ensurePrelude()

	ident := w.rename(enum.Name.Ident)
	underlying := w.primitiveTypeName(enum.Underlying)
	fmt.Fprintf(w.out, "type %s %s\n\n", ident, underlying)

	if len(enum.Variants) > 0 {
		fmt.Fprintln(w.out, "const (")
		used := map[string]int{}
		for _, v := range enum.Variants {
			name := w.uniqueName(used, v.Name.Ident)
			fmt.Fprintf(w.out, "\t%s %s = %d\n", w.rename(name), ident, v.Value)
		}
		fmt.Fprintln(w.out, ")")
		fmt.Fprintln(w.out)
	}
	return nil
}

// noteDependencies walks k, enqueuing every by-value aggregate it embeds as
// a full dependency (Go requires the field's type to be completely defined)
// and every aggregate reached only through a pointer as a stub candidate.
func (w *Writer) noteDependencies(k ClassFieldKind) {
	w.collectDependencies(k, true)
}

func (w *Writer) collectDependencies(k ClassFieldKind, byValue bool) {
	switch v := k.(type) {
	case KindClass:
		w.dependOn(ClassTypeIndex(v.Value), byValue)
	case KindUnion:
		w.dependOn(UnionTypeIndex(v.Value), byValue)
	case KindEnum:
		w.dependOn(EnumTypeIndex(v.Value), byValue)
	case KindArray:
		w.collectDependencies(v.Value.ElementType, byValue)
	case KindModifier:
		w.collectDependencies(v.Value.Underlying, byValue)
	case KindPointer:
		w.collectDependencies(v.Value.Underlying, false)
	case KindBitfield:
		for _, f := range v.Value.Fields {
			if u, ok := f.Underlying.(UnderlyingEnum); ok {
				w.dependOn(EnumTypeIndex(u.Value), true)
			}
		}
	}
}

func (w *Writer) dependOn(t TypeIndex, byValue bool) {
	if w.isIgnored(w.nameOf(t)) {
		return
	}
	if byValue {
		w.enqueueFull(t)
	} else {
		w.enqueueStub(t)
	}
}

// fieldTypeName renders k as a Go type expression, without side effects on
// the dependency queues (see noteDependencies for that).
func (w *Writer) fieldTypeName(k ClassFieldKind) string {
	switch v := k.(type) {
	case KindPrimitive:
		return w.primitiveTypeName(v.Value)
	case KindEnum:
		if w.isIgnored(w.nameOf(EnumTypeIndex(v.Value))) {
			return placeholderType(k.Size(w.arena))
		}
		return w.rename(w.arena.Enum(w.arena.GetLargestEnumIndex(v.Value)).Name.Ident)
	case KindClass:
		if w.isIgnored(w.nameOf(ClassTypeIndex(v.Value))) {
			return placeholderType(k.Size(w.arena))
		}
		return w.rename(w.arena.Class(w.arena.GetLargestClassIndex(v.Value)).Name.Ident)
	case KindUnion:
		if w.isIgnored(w.nameOf(UnionTypeIndex(v.Value))) {
			return placeholderType(k.Size(w.arena))
		}
		return w.rename(w.arena.Union(w.arena.GetLargestUnionIndex(v.Value)).Name.Ident)
	case KindPointer:
		return "*" + w.fieldTypeName(v.Value.Underlying)
	case KindArray:
		dims := ""
		for _, d := range v.Value.Dimensions {
			dims += fmt.Sprintf("[%d]", d)
		}
		return dims + w.fieldTypeName(v.Value.ElementType)
	case KindModifier:
		return w.fieldTypeName(v.Value.Underlying)
	case KindBitfield:
		return w.bitfieldTypeName(v.Value)
	case KindProcedure, KindMemberFunction, KindMethod:
		return "uintptr"
	default:
		return "[0]byte"
	}
}

func (w *Writer) bitfieldTypeName(bf Bitfield) string {
	if len(bf.Fields) == 0 {
		return "[0]byte"
	}
	switch u := bf.Fields[0].Underlying.(type) {
	case UnderlyingPrimitive:
		return w.primitiveTypeName(u.Value)
	case UnderlyingEnum:
		return w.rename(w.arena.Enum(w.arena.GetLargestEnumIndex(u.Value)).Name.Ident)
	default:
		return "uint32"
	}
}

func placeholderType(size uint64) string {
	return fmt.Sprintf("[%d]byte", size)
}

func (w *Writer) primitiveTypeName(k PrimitiveKind) string {
	if k.IsBool() {
		n := int(k.Size()) * 8
		return w.ensureBool(n)
	}
	switch k {
	case PrimitiveVoid:
		return "[0]byte"
	case PrimitiveChar, PrimitiveRChar:
		return "int8"
	case PrimitiveUChar, PrimitiveU8:
		return "uint8"
	case PrimitiveRChar16:
		return "uint16"
	case PrimitiveRChar32, PrimitiveWChar:
		return "uint32"
	case PrimitiveI8:
		return "int8"
	case PrimitiveI16:
		return "int16"
	case PrimitiveU16:
		return "uint16"
	case PrimitiveI32:
		return "int32"
	case PrimitiveU32, PrimitiveHResult:
		return "uint32"
	case PrimitiveI64:
		return "int64"
	case PrimitiveU64:
		return "uint64"
	case PrimitiveI128:
		return "[16]byte"
	case PrimitiveU128:
		return "[16]byte"
	case PrimitiveF16:
		return "[2]byte"
	case PrimitiveF32, PrimitiveF32PP:
		return "float32"
	case PrimitiveF48:
		return "[6]byte"
	case PrimitiveF64:
		return "float64"
	case PrimitiveF80:
		return "[10]byte"
	case PrimitiveF128:
		return "[16]byte"
	default:
		return "[0]byte"
	}
}

// ensureBool emits the BoolN(n bits) wrapper type the first time it is
// needed - a PDB Bool8/16/32/64 is not ABI-compatible with Go's bool (which
// carries no guaranteed width), so it gets its own byte-exact newtype with
// the same "any nonzero is true" conversion rule as the source language.
func (w *Writer) ensureBool(bits int) string {
	name := fmt.Sprintf("Bool%d", bits)
	if w.boolEmitted[bits] {
		return name
	}
	w.boolEmitted[bits] = true
	w.ensurePrelude()

	var storage string
	switch bits {
	case 8:
		storage = "uint8"
	case 16:
		storage = "uint16"
	case 32:
		storage = "uint32"
	case 64:
		storage = "uint64"
	default:
		storage = "uint8"
	}

	fmt.Fprintf(w.out, "type %s %s\n\n", name, storage)
	fmt.Fprintf(w.out, "func (b %s) Bool() bool { return b != 0 }\n\n", name)
	return name
}

func (w *Writer) uniqueName(used map[string]int, base string) string {
	if base == "" {
		base = "field"
	}
	if used[base] == 0 {
		used[base]++
		return base
	}
	for n := used[base]; ; n++ {
		candidate := fmt.Sprintf("%s%d", base, n)
		if _, taken := used[candidate]; !taken {
			used[base]++
			used[candidate] = 1
			return candidate
		}
	}
}

func fieldIdent(n Name) string {
	if n.Ident == "" {
		return "field"
	}
	return n.Ident
}

func exportedIdent(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// emitLayoutAssertion writes a Test function asserting that ident's
// in-memory layout - its size, and the offset of every field in fields -
// matches the layout recorded in the debug info.
func (w *Writer) emitLayoutAssertion(ident string, size uint64, fields []emittedField) {
	fmt.Fprintf(w.out, "func TestLayout_%s(t *testing.T) {\n", ident)
	fmt.Fprintf(w.out, "\tvar v %s\n", ident)
	fmt.Fprintf(w.out, "\tif got := unsafe.Sizeof(v); got != %d {\n\t\tt.Fatalf(\"size = %%d, want %d\", got)\n\t}\n", size, size)
	for _, f := range fields {
		fmt.Fprintf(w.out, "\tif got := unsafe.Offsetof(v.%s); got != %d {\n\t\tt.Fatalf(\"%s offset = %%d, want %d\", got)\n\t}\n",
			f.name, f.offset, f.name, f.offset)
	}
	fmt.Fprintln(w.out, "}")
	fmt.Fprintln(w.out)
}
