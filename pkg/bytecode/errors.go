package bytecode

import "fmt"

// DecodeError reports a truncated or malformed bytecode stream.
type DecodeError struct {
	Offset int // byte offset of the offending instruction header
	Kind   Kind
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: offset %d (%s): %s", e.Offset, e.Kind, e.Reason)
}

// EncodeError reports an instruction that cannot be represented in the
// 16-bit wire format.
type EncodeError struct {
	Index  int // position in the instruction sequence
	Kind   Kind
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode: instruction %d (%s): %s", e.Index, e.Kind, e.Reason)
}

// RegistryError reports an inconsistent function registry.
type RegistryError struct {
	Name   string
	ID     uint16
	Reason string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: function %q (id %d): %s", e.Name, e.ID, e.Reason)
}
