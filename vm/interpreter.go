package vm

import (
	"io"

	"github.com/chazu/rbsl/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// State: the two value stores of one run
// ---------------------------------------------------------------------------

// State holds the value stores of a single execution. Entries are created
// on first write and live until the run ends.
type State struct {
	temps   map[uint16]string
	statics map[uint16]string
	out     io.Writer
}

func newState(out io.Writer) *State {
	return &State{
		temps:   make(map[uint16]string),
		statics: make(map[uint16]string),
		out:     out,
	}
}

// Temp returns the value of a temporary slot.
func (st *State) Temp(slot uint16) (string, bool) {
	v, ok := st.temps[slot]
	return v, ok
}

// Static returns the value of a static slot.
func (st *State) Static(slot uint16) (string, bool) {
	v, ok := st.statics[slot]
	return v, ok
}

// SetTemp writes a temporary slot. Natives use it to publish results.
func (st *State) SetTemp(slot uint16, v string) {
	st.temps[slot] = v
}

// Output is the writer natives print to.
func (st *State) Output() io.Writer {
	return st.out
}

// Statics returns a copy of the static store.
func (st *State) Statics() map[uint16]string {
	out := make(map[uint16]string, len(st.statics))
	for k, v := range st.statics {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Execute runs prog from start to end against fresh stores. The first
// failing instruction aborts the run; the partial state is returned with
// the error so callers can inspect it.
func (m *VM) Execute(prog []bytecode.Instruction) (*State, error) {
	st := newState(m.out)
	for i, in := range prog {
		if err := m.step(st, i, in); err != nil {
			log.Debugf("run aborted at instruction %d: %s", i, err)
			return st, err
		}
	}
	log.Debugf("ran %d instructions, %d statics bound", len(prog), len(st.statics))
	return st, nil
}

func (m *VM) step(st *State, i int, in bytecode.Instruction) error {
	switch in.Kind {
	case bytecode.KindReturn:
		st.temps[in.Tmp] = in.Content
		return nil

	case bytecode.KindAssign:
		src := in.Source()
		v, ok := st.temps[src]
		if !ok {
			return &UndefinedTemporaryError{Slot: src, Index: i}
		}
		st.statics[in.Static] = v
		return nil

	case bytecode.KindFuncCall:
		args, err := st.operands(i, in.Operands)
		if err != nil {
			return err
		}
		native, ok := m.table[in.Func]
		if !ok {
			return &UnknownFunctionError{Func: in.Func, Index: i}
		}
		return native(st, args, in.Tmp)

	default:
		return &InvalidInstructionError{Kind: in.Kind, Index: i}
	}
}

func (st *State) operands(i int, ops []bytecode.Operand) ([]string, error) {
	args := make([]string, 0, len(ops))
	for _, op := range ops {
		var store map[uint16]string
		switch op.Kind {
		case bytecode.SlotTemporary:
			store = st.temps
		case bytecode.SlotStatic:
			store = st.statics
		default:
			return nil, &InvalidOperandKindError{Kind: op.Kind, Index: i}
		}
		v, ok := store[op.Slot]
		if !ok {
			return nil, &UndefinedVariableError{Kind: op.Kind, Slot: op.Slot, Index: i}
		}
		args = append(args, v)
	}
	return args, nil
}
