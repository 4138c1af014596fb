// Package vm executes RBSL bytecode.
//
// The machine is a straight-line interpreter over a decoded instruction
// sequence. It keeps two string-valued stores indexed by slot id:
//   - temporaries, written by Return and by builtins
//   - statics, written by Assign
//
// Function ids are bound to native Go functions through the same
// bytecode.Registry the compiler used.
package vm
