package compiler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/rbsl/pkg/bytecode"
)

func TestScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []bytecode.Instruction
	}{
		{
			name:  "A: print literal",
			input: `$print("hi");`,
			want: []bytecode.Instruction{
				bytecode.Return(1, "hi"),
				bytecode.FuncCall(bytecode.FuncPrint, 2, bytecode.Temp(1)),
			},
		},
		{
			name:  "B: assign then print",
			input: `#x="a";$print(#x);`,
			want: []bytecode.Instruction{
				bytecode.Return(1, "a"),
				bytecode.Assign(1, 1),
				bytecode.FuncCall(bytecode.FuncPrint, 2, bytecode.Static(1)),
			},
		},
		{
			name:  "C: concat into new variable",
			input: `#x="a";#y=$concat(#x,"b");$print(#y);`,
			want: []bytecode.Instruction{
				bytecode.Return(1, "a"),
				bytecode.Assign(1, 1),
				bytecode.Return(2, "b"),
				bytecode.FuncCall(bytecode.FuncConcat, 3, bytecode.Static(1), bytecode.Temp(2)),
				bytecode.Assign(2, 3),
				bytecode.FuncCall(bytecode.FuncPrint, 4, bytecode.Static(2)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileProgram(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("program mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScenarioDUndefinedVariableProducesNoBytecode(t *testing.T) {
	data, err := Build(`$print(#z);`, bytecode.DefaultRegistry())
	var e *UnresolvedVariableError
	if !errors.As(err, &e) {
		t.Fatalf("Build error = %v, want *UnresolvedVariableError", err)
	}
	if e.Name != "#z" {
		t.Errorf("Name = %q, want #z", e.Name)
	}
	if data != nil {
		t.Errorf("Build returned %d bytes on failure", len(data))
	}
}

func TestBuildEncodesScenarioA(t *testing.T) {
	data, err := Build(`$print("hi");`, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x00, 0x04, 0x00, 0x01, 0x00, 'h', 'i',
		0x03, 0x07, 0x00, 0x02, 0x00, 0x02, 0x00, 0x00, 0x01, 0x00,
	}
	if !bytes.Equal(data, want) {
		t.Errorf("Build = % X\nwant    % X", data, want)
	}
}

func TestCompileDeterministic(t *testing.T) {
	src := "#greeting = \"hello\";\n" +
		"#name = \"world\";\n" +
		"#msg = $concat(#greeting, \", \", #name, \"!\");\n" +
		"$print(#msg);\n" +
		"$print($concat(#msg, \" again\"));\n"
	first, err := Build(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Build(src, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("build %d differs from the first", i+1)
		}
	}

	a, _ := Compile(src, nil)
	b, _ := Compile(src, nil)
	if diff := cmp.Diff(a.Program, b.Program); diff != "" {
		t.Errorf("slot assignment differs between runs:\n%s", diff)
	}
}

func TestBuildRoundTripsThroughDecoder(t *testing.T) {
	src := `#x="a";#y=$concat(#x,"b",$concat(#x,#x));$print(#y);`
	unit, err := Compile(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := bytecode.Encode(unit.Program)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := bytecode.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(unit.Program, decoded); diff != "" {
		t.Errorf("decode(encode(program)) mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileEmptySource(t *testing.T) {
	unit, err := Compile("  \n ; ;", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(unit.Program) != 0 {
		t.Errorf("got %d instructions, want 0", len(unit.Program))
	}
}

func TestCompileMultilineScript(t *testing.T) {
	src := "#first = \"Hello\";\r\n#second = \" there\";\r\n#both = $concat(#first, #second);\r\n$print(#both);\r\n"
	prog := compileProgram(t, src)
	if len(prog) != 7 {
		t.Fatalf("got %d instructions, want 7", len(prog))
	}
	last := prog[len(prog)-1]
	if last.Kind != bytecode.KindFuncCall || last.Func != bytecode.FuncPrint {
		t.Errorf("last instruction = %+v, want print call", last)
	}
	if diff := cmp.Diff([]bytecode.Operand{bytecode.Static(3)}, last.Operands); diff != "" {
		t.Errorf("print operands mismatch (-want +got):\n%s", diff)
	}
}
