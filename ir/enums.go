package ir

// Variant is one named constant of an Enum.
type Variant struct {
	Name  Name
	Value int64
}

// Enum is an enumeration type: a name, an underlying integer primitive, and
// its variants in declaration order.
type Enum struct {
	Name       Name
	Underlying PrimitiveKind
	Variants   []Variant
	Properties Properties
	Alignment  Alignment
}

// Size is the underlying primitive's size - an enum never has a layout of
// its own.
func (e Enum) Size(a *Arena) uint64 {
	return e.Underlying.Size()
}
