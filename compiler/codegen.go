package compiler

import (
	"github.com/chazu/rbsl/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Pointer resolution: flat commands to instructions
// ---------------------------------------------------------------------------

// Resolver assigns slot ids and function ids to a flattened command
// sequence in a single left-to-right pass. A Resolver is good for one
// compilation unit.
type Resolver struct {
	registry *bytecode.Registry

	// Last allocated ids. Both start at NoSlot so the first id handed out
	// is 1 and 0 stays free to mean "unset".
	lastTmp    uint16
	lastStatic uint16

	statics map[string]uint16   // variable name -> static slot, first assignment wins
	temps   map[*Command]uint16 // value-producing command -> its temporary slot
}

// NewResolver creates a resolver bound to a function registry.
func NewResolver(reg *bytecode.Registry) *Resolver {
	return &Resolver{
		registry:   reg,
		lastTmp:    bytecode.NoSlot,
		lastStatic: bytecode.NoSlot,
		statics:    make(map[string]uint16),
		temps:      make(map[*Command]uint16),
	}
}

// Statics returns the variable name to static slot assignments made so far.
func (r *Resolver) Statics() map[string]uint16 {
	out := make(map[string]uint16, len(r.statics))
	for name, slot := range r.statics {
		out[name] = slot
	}
	return out
}

// Resolve compiles a flattened sequence. It stops at the first error and
// returns no instructions in that case.
func (r *Resolver) Resolve(seq []*Command) ([]bytecode.Instruction, error) {
	prog := make([]bytecode.Instruction, 0, len(seq))

	for i, cmd := range seq {
		switch cmd.Kind {
		case KindEmpty:
			// No value, no instruction. A following assignment fails below.
			continue

		case KindReturn:
			tmp, err := r.allocTmp()
			if err != nil {
				return nil, err
			}
			r.temps[cmd] = tmp
			prog = append(prog, bytecode.Return(tmp, cmd.Literal))

		case KindFuncCall:
			in, err := r.resolveCall(cmd)
			if err != nil {
				return nil, err
			}
			prog = append(prog, in)

		case KindAssign:
			in, err := r.resolveAssign(seq, i)
			if err != nil {
				return nil, err
			}
			prog = append(prog, in)

		case KindMethodCall:
			return nil, &UnsupportedError{Kind: cmd.Kind, Name: cmd.Target, Offset: cmd.Offset}

		default:
			return nil, &UnsupportedError{Kind: cmd.Kind, Offset: cmd.Offset}
		}
	}
	return prog, nil
}

func (r *Resolver) resolveCall(cmd *Command) (bytecode.Instruction, error) {
	fn, ok := r.registry.Lookup(cmd.Name)
	if !ok {
		return bytecode.Instruction{}, &UnknownFunctionError{Name: cmd.Name, Offset: cmd.Offset}
	}

	var operands []bytecode.Operand
	for _, arg := range cmd.Args {
		if arg.IsVar() {
			slot, ok := r.statics[arg.Var]
			if !ok {
				return bytecode.Instruction{}, &UnresolvedVariableError{Name: arg.Var, Offset: cmd.Offset}
			}
			operands = append(operands, bytecode.Static(slot))
			continue
		}
		slot, ok := r.temps[arg.Sub]
		if !ok {
			return bytecode.Instruction{}, &ParseError{
				Offset:   arg.Sub.Offset,
				Fragment: cmd.String(),
				Reason:   "argument produces no value",
			}
		}
		operands = append(operands, bytecode.Temp(slot))
	}

	tmp, err := r.allocTmp()
	if err != nil {
		return bytecode.Instruction{}, err
	}
	r.temps[cmd] = tmp
	return bytecode.FuncCall(fn.ID, tmp, operands...), nil
}

// resolveAssign binds seq[i]'s target to a static slot fed by the
// temporary of the command right before it.
func (r *Resolver) resolveAssign(seq []*Command, i int) (bytecode.Instruction, error) {
	cmd := seq[i]
	static, err := r.staticFor(cmd.Target)
	if err != nil {
		return bytecode.Instruction{}, err
	}

	if i == 0 || !seq[i-1].Kind.ProducesValue() {
		return bytecode.Instruction{}, &DanglingAssignError{Name: cmd.Target, Offset: cmd.Offset}
	}
	src, ok := r.temps[seq[i-1]]
	if !ok {
		return bytecode.Instruction{}, &DanglingAssignError{Name: cmd.Target, Offset: cmd.Offset}
	}
	return bytecode.Assign(static, src), nil
}

func (r *Resolver) staticFor(name string) (uint16, error) {
	if slot, ok := r.statics[name]; ok {
		return slot, nil
	}
	if r.lastStatic == bytecode.MaxSlot {
		return 0, &SlotOverflowError{Space: "static"}
	}
	r.lastStatic++
	r.statics[name] = r.lastStatic
	return r.lastStatic, nil
}

func (r *Resolver) allocTmp() (uint16, error) {
	if r.lastTmp == bytecode.MaxSlot {
		return 0, &SlotOverflowError{Space: "temporary"}
	}
	r.lastTmp++
	return r.lastTmp, nil
}
