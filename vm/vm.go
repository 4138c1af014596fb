package vm

import (
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/rbsl/pkg/bytecode"
)

var log = commonlog.GetLogger("rbsl.vm")

// ---------------------------------------------------------------------------
// VM: native table bound to a registry
// ---------------------------------------------------------------------------

// Native is a host function reachable from bytecode. It receives the
// resolved argument values and the destination temporary, and writes its
// result (if any) into st itself.
type Native func(st *State, args []string, dest uint16) error

// VM binds a registry's function ids to natives. A VM holds no run state
// and may execute any number of programs; each Execute call gets fresh
// stores.
type VM struct {
	registry *bytecode.Registry
	out      io.Writer
	natives  map[string]Native // by builtin name
	table    map[uint16]Native // by function id
}

// Option configures a VM.
type Option func(*VM)

// WithOutput sets where print writes. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(m *VM) { m.out = w }
}

// WithNative registers or replaces the builtin called name. Registry
// entries refer to natives by this name.
func WithNative(name string, fn Native) Option {
	return func(m *VM) { m.natives[name] = fn }
}

// New builds a VM for reg. A nil registry means the default one. Every
// registry entry must name a known builtin.
func New(reg *bytecode.Registry, opts ...Option) (*VM, error) {
	if reg == nil {
		reg = bytecode.DefaultRegistry()
	}
	m := &VM{
		registry: reg,
		out:      os.Stdout,
		natives:  builtins(),
		table:    make(map[uint16]Native, reg.Len()),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, fn := range reg.Functions() {
		native, ok := m.natives[fn.Builtin]
		if !ok || native == nil {
			return nil, &bytecode.RegistryError{Name: fn.Name, ID: fn.ID, Reason: "unknown builtin " + fn.Builtin}
		}
		m.table[fn.ID] = native
	}
	return m, nil
}

// Registry returns the registry the VM was built from.
func (m *VM) Registry() *bytecode.Registry {
	return m.registry
}

// Run decodes data and executes it.
func (m *VM) Run(data []byte) (*State, error) {
	prog, err := bytecode.Decode(data)
	if err != nil {
		return nil, err
	}
	return m.Execute(prog)
}
