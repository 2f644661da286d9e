package ir

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced while walking the PDB type graph or emitting
// target-language declarations.
var (
	ErrUnimplementedKind = errors.New("ir: unimplemented pdb type record kind")
	ErrUnknownPrimitive  = errors.New("ir: unrecognized primitive type")
	ErrNotAggregate      = errors.New("ir: type index does not resolve to a class, union, or enum")
	ErrFieldNotFound     = errors.New("ir: no field with that name in class")
	ErrNameNotFound      = errors.New("ir: no type registered under that name")
)

// ConvertError wraps a failure encountered while turning a single PDB type
// record into an IR node, identifying which record was being processed.
type ConvertError struct {
	Subject string // raw PDB name or type index, for diagnostics
	Err     error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("ir: convert %s: %v", e.Subject, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// EmitError wraps a failure encountered while writing out a type's
// declaration or its layout assertions.
type EmitError struct {
	Subject string
	Err     error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("ir: emit %s: %v", e.Subject, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }
