package ir

import "github.com/mtbaldry/pdbextract/pdb"

// ClassIndex, EnumIndex, and UnionIndex are 0-based positions into an
// Arena's corresponding slice.
type ClassIndex int
type EnumIndex int
type UnionIndex int

type typeIndexKind uint8

const (
	typeIndexClass typeIndexKind = iota
	typeIndexEnum
	typeIndexUnion
)

// TypeIndex is a tagged handle naming exactly one node in an Arena: a class,
// an enum, or a union.
type TypeIndex struct {
	kind  typeIndexKind
	class ClassIndex
	enum  EnumIndex
	union UnionIndex
}

// ClassTypeIndex wraps a ClassIndex as a TypeIndex.
func ClassTypeIndex(i ClassIndex) TypeIndex { return TypeIndex{kind: typeIndexClass, class: i} }

// EnumTypeIndex wraps an EnumIndex as a TypeIndex.
func EnumTypeIndex(i EnumIndex) TypeIndex { return TypeIndex{kind: typeIndexEnum, enum: i} }

// UnionTypeIndex wraps a UnionIndex as a TypeIndex.
func UnionTypeIndex(i UnionIndex) TypeIndex { return TypeIndex{kind: typeIndexUnion, union: i} }

func (t TypeIndex) IsClass() bool { return t.kind == typeIndexClass }
func (t TypeIndex) IsEnum() bool  { return t.kind == typeIndexEnum }
func (t TypeIndex) IsUnion() bool { return t.kind == typeIndexUnion }

func (t TypeIndex) Class() ClassIndex { return t.class }
func (t TypeIndex) Enum() EnumIndex   { return t.enum }
func (t TypeIndex) Union() UnionIndex { return t.union }

type alignmentKind uint8

const (
	alignNone alignmentKind = iota
	alignBoth
	alignWindows
	alignLinux
)

// Alignment overrides the natural (ABI) alignment of a class, union, or
// enum node. Graph construction always leaves a node at AlignNone; only the
// repair facade sets an explicit override.
type Alignment struct {
	kind  alignmentKind
	Bytes int
}

// AlignNone means "use the natural alignment computed from the node's own
// members".
var AlignNone = Alignment{kind: alignNone}

// AlignBoth forces the same alignment on every target platform.
func AlignBoth(n int) Alignment { return Alignment{kind: alignBoth, Bytes: n} }

// AlignWindows overrides alignment only for the MSVC ABI.
func AlignWindows(n int) Alignment { return Alignment{kind: alignWindows, Bytes: n} }

// AlignLinux overrides alignment only for the Itanium ABI.
func AlignLinux(n int) Alignment { return Alignment{kind: alignLinux, Bytes: n} }

func (a Alignment) IsNone() bool { return a.kind == alignNone }

// Arena owns every Class, Enum, and Union node produced while converting a
// PDB's type stream, plus the indexes needed to dedupe and cross-reference
// them: a name -> node map (collapsing forward declarations into their
// largest definition) and a raw PDB type index -> node map (memoizing
// already-converted nodes during graph construction).
type Arena struct {
	classes []Class
	enums   []Enum
	unions  []Union

	typeNames map[string]TypeIndex
	indexMap  map[pdb.TypeIndex]TypeIndex
}

// NewArena returns an empty Arena ready to receive converted nodes.
func NewArena() *Arena {
	return &Arena{
		typeNames: make(map[string]TypeIndex),
		indexMap:  make(map[pdb.TypeIndex]TypeIndex),
	}
}

func (a *Arena) Class(i ClassIndex) *Class { return &a.classes[i] }
func (a *Arena) Enum(i EnumIndex) *Enum    { return &a.enums[i] }
func (a *Arena) Union(i UnionIndex) *Union { return &a.unions[i] }

func (a *Arena) Classes() []Class { return a.classes }
func (a *Arena) Enums() []Enum    { return a.enums }
func (a *Arena) Unions() []Union  { return a.unions }

// TypeIndexFor returns the node converted from the given raw PDB type
// index, if any.
func (a *Arena) TypeIndexFor(raw pdb.TypeIndex) (TypeIndex, bool) {
	idx, ok := a.indexMap[raw]
	return idx, ok
}

// TypeByName returns the node currently registered under name - the
// largest-variant winner when multiple definitions share a name.
func (a *Arena) TypeByName(name string) (TypeIndex, bool) {
	idx, ok := a.typeNames[name]
	return idx, ok
}

// InsertClass records class as the conversion of raw, and returns its
// index. If a node with the same name was already registered, it keeps the
// name only if it is at least as large in both size and member count;
// otherwise the new node takes the name. The loser is still
// appended to the arena and reachable by its own ClassIndex, just not by
// name.
func (a *Arena) InsertClass(class Class, raw pdb.TypeIndex) ClassIndex {
	idx := a.InsertCustomClass(class)
	a.indexMap[raw] = ClassTypeIndex(idx)
	return idx
}

// InsertCustomClass appends a class with no corresponding raw PDB type
// index (e.g. one synthesized by the layout rewriter).
func (a *Arena) InsertCustomClass(class Class) ClassIndex {
	idx := ClassIndex(len(a.classes))
	a.classes = append(a.classes, class)
	if class.Name.Raw != "" {
		a.insertName(class.Name.Raw, ClassTypeIndex(idx), class.Size, len(class.Members))
	}
	return idx
}

func (a *Arena) InsertEnum(enum Enum, raw pdb.TypeIndex) EnumIndex {
	idx := a.InsertCustomEnum(enum)
	a.indexMap[raw] = EnumTypeIndex(idx)
	return idx
}

func (a *Arena) InsertCustomEnum(enum Enum) EnumIndex {
	idx := EnumIndex(len(a.enums))
	a.enums = append(a.enums, enum)
	if enum.Name.Raw != "" {
		a.insertName(enum.Name.Raw, EnumTypeIndex(idx), enum.Size(a), len(enum.Variants))
	}
	return idx
}

func (a *Arena) InsertUnion(union Union, raw pdb.TypeIndex) UnionIndex {
	idx := a.InsertCustomUnion(union)
	a.indexMap[raw] = UnionTypeIndex(idx)
	return idx
}

func (a *Arena) InsertCustomUnion(union Union) UnionIndex {
	idx := UnionIndex(len(a.unions))
	a.unions = append(a.unions, union)
	if union.Name.Raw != "" {
		a.insertName(union.Name.Raw, UnionTypeIndex(idx), union.Size, len(union.Fields))
	}
	return idx
}

// insertName registers index under name, unless an existing registrant is
// already at least as large in both size and field count - PDBs commonly
// carry both a forward declaration and a full definition of the same type,
// and the full definition must win regardless of which one is seen first.
func (a *Arena) insertName(name string, index TypeIndex, size uint64, fieldCount int) {
	if old, ok := a.typeNames[name]; ok {
		oldSize, oldFields := a.sizeAndCount(old)
		if oldSize >= size && oldFields >= fieldCount {
			return
		}
	}
	a.typeNames[name] = index
}

func (a *Arena) sizeAndCount(t TypeIndex) (uint64, int) {
	switch {
	case t.IsClass():
		c := a.Class(t.Class())
		return c.Size, len(c.Members)
	case t.IsEnum():
		e := a.Enum(t.Enum())
		return e.Size(a), len(e.Variants)
	default:
		u := a.Union(t.Union())
		return u.Size, len(u.Fields)
	}
}

// replaceClass overwrites an already-reserved slot with the fully populated
// class, then re-runs the largest-variant name check now that real size and
// member data are available.
func (a *Arena) replaceClass(idx ClassIndex, c Class) {
	a.classes[idx] = c
	if c.Name.Raw != "" {
		a.insertName(c.Name.Raw, ClassTypeIndex(idx), c.Size, len(c.Members))
	}
}

func (a *Arena) replaceUnion(idx UnionIndex, u Union) {
	a.unions[idx] = u
	if u.Name.Raw != "" {
		a.insertName(u.Name.Raw, UnionTypeIndex(idx), u.Size, len(u.Fields))
	}
}

// alias registers an additional raw PDB type index (typically a forward
// declaration) as resolving to an already-converted node.
func (a *Arena) alias(raw pdb.TypeIndex, idx TypeIndex) {
	a.indexMap[raw] = idx
}

// GetLargestClassIndex resolves index to the largest class node registered
// under its name (itself, if it is already the winner or is anonymous).
func (a *Arena) GetLargestClassIndex(index ClassIndex) ClassIndex {
	class := a.Class(index)
	if class.Name.Raw == "" {
		return index
	}
	winner, ok := a.typeNames[class.Name.Raw]
	if !ok || !winner.IsClass() {
		return index
	}
	return winner.Class()
}

func (a *Arena) GetLargestEnumIndex(index EnumIndex) EnumIndex {
	enum := a.Enum(index)
	if enum.Name.Raw == "" {
		return index
	}
	winner, ok := a.typeNames[enum.Name.Raw]
	if !ok || !winner.IsEnum() {
		return index
	}
	return winner.Enum()
}

func (a *Arena) GetLargestUnionIndex(index UnionIndex) UnionIndex {
	union := a.Union(index)
	if union.Name.Raw == "" {
		return index
	}
	winner, ok := a.typeNames[union.Name.Raw]
	if !ok || !winner.IsUnion() {
		return index
	}
	return winner.Union()
}

// GetLargestTypeIndex resolves t to the largest-variant winner sharing its
// node's name.
func (a *Arena) GetLargestTypeIndex(t TypeIndex) TypeIndex {
	switch {
	case t.IsClass():
		return ClassTypeIndex(a.GetLargestClassIndex(t.Class()))
	case t.IsEnum():
		return EnumTypeIndex(a.GetLargestEnumIndex(t.Enum()))
	default:
		return UnionTypeIndex(a.GetLargestUnionIndex(t.Union()))
	}
}
