package compiler

import (
	"errors"
	"fmt"
)

// ParseError reports a malformed statement or an unknown section kind.
type ParseError struct {
	Offset   int    // byte offset in the raw source
	Fragment string // the statement being parsed, whitespace removed
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s (in %q)", e.Offset, e.Reason, e.Fragment)
}

// UnresolvedVariableError reports a read of a variable that has not been
// assigned earlier in the compilation unit.
type UnresolvedVariableError struct {
	Name   string
	Offset int
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable %s at offset %d", e.Name, e.Offset)
}

// UnknownFunctionError reports a call to a name missing from the registry.
type UnknownFunctionError struct {
	Name   string
	Offset int
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %s at offset %d", e.Name, e.Offset)
}

// DanglingAssignError reports an assignment whose right-hand side did not
// produce a value.
type DanglingAssignError struct {
	Name   string
	Offset int
}

func (e *DanglingAssignError) Error() string {
	return fmt.Sprintf("assignment to %s at offset %d has no value to assign", e.Name, e.Offset)
}

// UnsupportedError reports a command kind that parses but cannot be compiled.
type UnsupportedError struct {
	Kind   Kind
	Name   string
	Offset int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s on %s at offset %d is not supported", e.Kind, e.Name, e.Offset)
}

// SlotOverflowError reports a compilation unit that needs more slots than
// a 16-bit id can address.
type SlotOverflowError struct {
	Space string // "temporary" or "static"
}

func (e *SlotOverflowError) Error() string {
	return fmt.Sprintf("too many %s slots (limit 65535)", e.Space)
}

// ErrorOffset returns the source byte offset carried by a compiler error.
func ErrorOffset(err error) (int, bool) {
	var (
		pe *ParseError
		ve *UnresolvedVariableError
		fe *UnknownFunctionError
		de *DanglingAssignError
		ue *UnsupportedError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Offset, true
	case errors.As(err, &ve):
		return ve.Offset, true
	case errors.As(err, &fe):
		return fe.Offset, true
	case errors.As(err, &de):
		return de.Offset, true
	case errors.As(err, &ue):
		return ue.Offset, true
	}
	return 0, false
}
