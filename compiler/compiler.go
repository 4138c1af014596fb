// Package compiler turns RBSL source text into bytecode instructions.
//
// Compilation runs in four passes over in-memory data: Segment splits the
// source into statements, the Parser builds a command tree per statement,
// Flatten orders the forest so producers precede consumers, and the
// Resolver assigns slot and function ids in one pass.
package compiler

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/rbsl/pkg/bytecode"
)

var log = commonlog.GetLogger("rbsl.compiler")

// Unit is the result of compiling one source text.
type Unit struct {
	Statements []*Command             // parsed command trees, one per statement
	Commands   []*Command             // flattened command sequence
	Program    []bytecode.Instruction // resolved instructions
	Statics    map[string]uint16      // variable name -> static slot
	Registry   *bytecode.Registry
}

// Compile parses and resolves src against reg. A nil registry means the
// default built-in table.
func Compile(src string, reg *bytecode.Registry) (*Unit, error) {
	if reg == nil {
		reg = bytecode.DefaultRegistry()
	}

	stmts, err := Parse(src)
	if err != nil {
		return nil, err
	}
	log.Debugf("parsed %d statements", len(stmts))

	seq := Flatten(stmts)
	log.Debugf("flattened to %d commands", len(seq))

	r := NewResolver(reg)
	prog, err := r.Resolve(seq)
	if err != nil {
		return nil, err
	}
	log.Debugf("resolved %d instructions against registry v%d", len(prog), reg.Version)

	return &Unit{
		Statements: stmts,
		Commands:   seq,
		Program:    prog,
		Statics:    r.Statics(),
		Registry:   reg,
	}, nil
}

// Build compiles src and encodes the result. No bytes are returned unless
// every stage succeeds.
func Build(src string, reg *bytecode.Registry) ([]byte, error) {
	unit, err := Compile(src, reg)
	if err != nil {
		return nil, err
	}
	return bytecode.Encode(unit.Program)
}
