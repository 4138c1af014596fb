package vm

import (
	"fmt"

	"github.com/chazu/rbsl/pkg/bytecode"
)

// UndefinedVariableError reports a FuncCall operand naming a slot that was
// never written.
type UndefinedVariableError struct {
	Kind  bytecode.SlotKind
	Slot  uint16
	Index int // instruction index
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("instruction %d: %s slot %d is undefined", e.Index, e.Kind, e.Slot)
}

// UndefinedTemporaryError reports an Assign reading an unwritten temporary.
type UndefinedTemporaryError struct {
	Slot  uint16
	Index int
}

func (e *UndefinedTemporaryError) Error() string {
	return fmt.Sprintf("instruction %d: temporary %d is undefined", e.Index, e.Slot)
}

// InvalidOperandKindError reports an operand whose slot-kind byte is
// neither temporary nor static.
type InvalidOperandKindError struct {
	Kind  bytecode.SlotKind
	Index int
}

func (e *InvalidOperandKindError) Error() string {
	return fmt.Sprintf("instruction %d: invalid operand kind %d", e.Index, byte(e.Kind))
}

// UnknownFunctionError reports a FuncCall whose id has no native binding.
type UnknownFunctionError struct {
	Func  uint16
	Index int
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("instruction %d: unknown function id %d", e.Index, e.Func)
}

// InvalidInstructionError reports an instruction kind with no execution
// semantics.
type InvalidInstructionError struct {
	Kind  bytecode.Kind
	Index int
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("instruction %d: cannot execute %s", e.Index, e.Kind)
}
