package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/rbsl/compiler"
	"github.com/chazu/rbsl/pkg/bytecode"
)

func newTestVM(t *testing.T, opts ...Option) (*VM, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	m, err := New(bytecode.DefaultRegistry(), append([]Option{WithOutput(&out)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return m, &out
}

// ---------------------------------------------------------------------------
// End-to-end: source through compiler, encoder, decoder and VM
// ---------------------------------------------------------------------------

func TestScenarioOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"A: print literal", `$print("hi");`, "hi\n"},
		{"B: print variable", `#x="a";$print(#x);`, "a\n"},
		{"C: concat", `#x="a";#y=$concat(#x,"b");$print(#y);`, "ab\n"},
		{"nested call", `#x="a";$print($concat(#x,"b",#x));`, "aba\n"},
		{"reassignment", `#x="a";#x="b";$print(#x);`, "b\n"},
		{"empty print", `$print();`, "\n"},
		{"extra print args ignored", `$print("a","b");`, "a\n"},
		{"whitespace in literal", `#g = "hello world" ; $print( #g );`, "hello world\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := compiler.Build(tt.input, nil)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			m, out := newTestVM(t)
			if _, err := m.Run(data); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScenarioCBindings(t *testing.T) {
	data, err := compiler.Build(`#x="a";#y=$concat(#x,"b");`, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, _ := newTestVM(t)
	st, err := m.Run(data)
	if err != nil {
		t.Fatal(err)
	}
	want := map[uint16]string{1: "a", 2: "ab"}
	if diff := cmp.Diff(want, st.Statics()); diff != "" {
		t.Errorf("statics mismatch (-want +got):\n%s", diff)
	}
	if v, ok := st.Temp(3); !ok || v != "ab" {
		t.Errorf("Temp(3) = %q, %v; want \"ab\", true", v, ok)
	}
}

func TestScenarioETruncatedBytecode(t *testing.T) {
	data, err := compiler.Build(`$print("hi");`, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, out := newTestVM(t)
	_, err = m.Run(data[:len(data)-1])
	var de *bytecode.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Run error = %v, want *bytecode.DecodeError", err)
	}
	if out.Len() != 0 {
		t.Errorf("truncated program produced output %q", out.String())
	}
}

// ---------------------------------------------------------------------------
// Runtime errors
// ---------------------------------------------------------------------------

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name  string
		prog  []bytecode.Instruction
		check func(error) bool
	}{
		{
			name: "assign from unwritten temporary",
			prog: []bytecode.Instruction{bytecode.Assign(1, 9)},
			check: func(err error) bool {
				var e *UndefinedTemporaryError
				return errors.As(err, &e) && e.Slot == 9 && e.Index == 0
			},
		},
		{
			name: "call reads unwritten static",
			prog: []bytecode.Instruction{
				bytecode.FuncCall(bytecode.FuncPrint, 1, bytecode.Static(4)),
			},
			check: func(err error) bool {
				var e *UndefinedVariableError
				return errors.As(err, &e) && e.Kind == bytecode.SlotStatic && e.Slot == 4
			},
		},
		{
			name: "call reads unwritten temporary",
			prog: []bytecode.Instruction{
				bytecode.Return(1, "a"),
				bytecode.FuncCall(bytecode.FuncConcat, 2, bytecode.Temp(1), bytecode.Temp(7)),
			},
			check: func(err error) bool {
				var e *UndefinedVariableError
				return errors.As(err, &e) && e.Kind == bytecode.SlotTemporary && e.Slot == 7 && e.Index == 1
			},
		},
		{
			name: "corrupt operand kind",
			prog: []bytecode.Instruction{
				bytecode.Return(1, "a"),
				bytecode.FuncCall(bytecode.FuncPrint, 2, bytecode.Operand{Kind: 5, Slot: 1}),
			},
			check: func(err error) bool {
				var e *InvalidOperandKindError
				return errors.As(err, &e) && e.Kind == 5
			},
		},
		{
			name: "unknown function id",
			prog: []bytecode.Instruction{bytecode.FuncCall(99, 1)},
			check: func(err error) bool {
				var e *UnknownFunctionError
				return errors.As(err, &e) && e.Func == 99
			},
		},
		{
			name: "method call has no semantics",
			prog: []bytecode.Instruction{{Kind: bytecode.KindMethodCall}},
			check: func(err error) bool {
				var e *InvalidInstructionError
				return errors.As(err, &e) && e.Kind == bytecode.KindMethodCall
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestVM(t)
			_, err := m.Execute(tt.prog)
			if !tt.check(err) {
				t.Errorf("Execute error = %v", err)
			}
		})
	}
}

func TestExecuteStopsAtFirstError(t *testing.T) {
	m, out := newTestVM(t)
	prog := []bytecode.Instruction{
		bytecode.Return(1, "before"),
		bytecode.FuncCall(bytecode.FuncPrint, 2, bytecode.Temp(1)),
		bytecode.Assign(1, 42),
		bytecode.FuncCall(bytecode.FuncPrint, 3, bytecode.Temp(1)),
	}
	st, err := m.Execute(prog)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := out.String(); got != "before\n" {
		t.Errorf("output = %q, want only the first print", got)
	}
	if _, ok := st.Static(1); ok {
		t.Error("failed assign should not bind")
	}
}

func TestExecuteFreshStoresPerRun(t *testing.T) {
	m, _ := newTestVM(t)
	first, err := m.Execute([]bytecode.Instruction{bytecode.Return(1, "a"), bytecode.Assign(1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := first.Static(1); !ok {
		t.Fatal("static 1 not bound")
	}

	_, err = m.Execute([]bytecode.Instruction{
		bytecode.FuncCall(bytecode.FuncPrint, 1, bytecode.Static(1)),
	})
	var e *UndefinedVariableError
	if !errors.As(err, &e) {
		t.Errorf("second run saw state from the first: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Natives and registries
// ---------------------------------------------------------------------------

func TestWithNative(t *testing.T) {
	reg, err := bytecode.NewRegistry(2,
		bytecode.Function{Name: "$concat", ID: 1, Builtin: BuiltinConcat},
		bytecode.Function{Name: "$print", ID: 2, Builtin: BuiltinPrint},
		bytecode.Function{Name: "$upper", ID: 3, Builtin: "upper"},
	)
	if err != nil {
		t.Fatal(err)
	}
	upper := func(st *State, args []string, dest uint16) error {
		st.SetTemp(dest, strings.ToUpper(strings.Join(args, "")))
		return nil
	}

	var out bytes.Buffer
	m, err := New(reg, WithOutput(&out), WithNative("upper", upper))
	if err != nil {
		t.Fatal(err)
	}
	data, err := compiler.Build(`#x=$upper("ab","c");$print(#x);`, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Run(data); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "ABC\n" {
		t.Errorf("output = %q, want ABC", got)
	}
}

func TestNativeErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	m, _ := newTestVM(t, WithNative(BuiltinPrint, func(*State, []string, uint16) error { return boom }))
	_, err := m.Execute([]bytecode.Instruction{bytecode.FuncCall(bytecode.FuncPrint, 1)})
	if !errors.Is(err, boom) {
		t.Errorf("Execute error = %v, want %v", err, boom)
	}
}

func TestNewRejectsUnknownBuiltin(t *testing.T) {
	reg, err := bytecode.NewRegistry(1, bytecode.Function{Name: "$shout", ID: 1, Builtin: "shout"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(reg)
	var e *bytecode.RegistryError
	if !errors.As(err, &e) || e.Name != "$shout" {
		t.Errorf("New error = %v, want *bytecode.RegistryError for $shout", err)
	}
}

func TestNewNilRegistry(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Registry().Fingerprint() != bytecode.DefaultRegistry().Fingerprint() {
		t.Error("nil registry should mean the default registry")
	}
}
