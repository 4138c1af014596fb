// Package bytecode defines the RBSL instruction set, its binary encoding,
// and the function registry shared by the compiler and the VM.
//
// A program is a flat sequence of self-describing instructions:
//
//	[kind:1] [body_len:2] [body:body_len]
//
// All integers are unsigned 16-bit little-endian. The body length counts
// the bytes strictly after the length field, so a decoder can step over
// instruction kinds it does not understand.
//
// # Slots
//
// Instructions move string values between two stores. Temporary slots hold
// the result of a Return or FuncCall and are read by the command that
// consumes it. Static slots hold named variables and live for the whole
// run. Slot ids start at 1; id 0 (NoSlot) means "unset".
//
// # Registry
//
// FuncCall instructions name functions by numeric id. The Registry maps
// source names ("$print") to ids and ids to the VM builtin that implements
// them. It is passed explicitly to both sides rather than held globally,
// and carries a version so that a cache or a loader can refuse bytecode
// compiled against a different table.
package bytecode
