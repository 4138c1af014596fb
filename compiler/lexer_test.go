package compiler

import (
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"spaces outside strings", `#x = "a" ;`, `#x="a";`},
		{"newlines and returns", "#x=\"a\";\r\n$print(#x);\n", `#x="a";$print(#x);`},
		{"whitespace kept inside strings", `$print( "a b  c" )`, `$print("a b  c")`},
		{"newline kept inside strings", "#x=\"a\nb\"", "#x=\"a\nb\""},
		{"tabs are not whitespace", "#x=\t\"a\"", "#x=\t\"a\""},
		// A backslash-quote closes the string, so the space after it is
		// outside and dropped, and the next quote opens a new string.
		{"escaped quote closes", `"a\" b"`, `"a\"b"`},
		{"leading quote", `"a b"`, `"a b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input).Text
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanOrigin(t *testing.T) {
	src := "  #x = \"a\";"
	s := Clean(src)
	if s.Text != `#x="a";` {
		t.Fatalf("Clean = %q", s.Text)
	}
	wantOrigins := []int{2, 3, 5, 7, 8, 9, 10}
	for i, want := range wantOrigins {
		if got := s.Origin(i); got != want {
			t.Errorf("Origin(%d) = %d, want %d", i, got, want)
		}
	}
	if got := s.Origin(len(s.Text)); got != len(src) {
		t.Errorf("Origin(end) = %d, want %d", got, len(src))
	}
	if got := s.Origin(-1); got != 0 {
		t.Errorf("Origin(-1) = %d, want 0", got)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single with delimiter", `$print("hi");`, []string{`$print("hi")`, ""}},
		{"single without delimiter", `$print("hi")`, []string{`$print("hi")`}},
		{"two statements", `#x="a";$print(#x);`, []string{`#x="a"`, `$print(#x)`, ""}},
		{"delimiter inside string", `$print("a;b");`, []string{`$print("a;b")`, ""}},
		{"escaped delimiter", `#x="a"\;$print(#x)`, []string{`#x="a"\;$print(#x)`}},
		{"empty statements kept", `;;`, []string{"", "", ""}},
		{"empty input", ``, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags := Segment(tt.input)
			if len(frags) != len(tt.want) {
				t.Fatalf("Segment(%q) returned %d fragments, want %d: %v", tt.input, len(frags), len(tt.want), frags)
			}
			for i, f := range frags {
				if f.Text != tt.want[i] {
					t.Errorf("fragment %d = %q, want %q", i, f.Text, tt.want[i])
				}
			}
		})
	}
}

func TestFragmentPositions(t *testing.T) {
	src := "#x = \"a\";\n  $print(#x);"
	frags := Segment(src)
	if len(frags) != 3 {
		t.Fatalf("got %d fragments", len(frags))
	}

	if frags[0].Start != 0 || frags[0].Pos(0) != 0 {
		t.Errorf("first fragment Start=%d Pos(0)=%d", frags[0].Start, frags[0].Pos(0))
	}
	// "$print" starts at raw offset 12 after the newline and indentation.
	if got := frags[1].Pos(0); got != 12 {
		t.Errorf("second fragment Pos(0) = %d, want 12", got)
	}
	if !frags[2].Empty() {
		t.Errorf("trailing fragment = %q, want empty", frags[2].Text)
	}
}

func TestQuoteToggleAsymmetry(t *testing.T) {
	// `\"` never opens a string; it always leaves string state.
	frags := Segment(`$print(\"a;b");`)
	// The first quote is escaped and does not open a string, so the
	// delimiter after "a" splits; the second quote then opens a string
	// that swallows the final delimiter.
	if len(frags) != 2 {
		t.Fatalf("got %d fragments: %v", len(frags), frags)
	}
	if frags[0].Text != `$print(\"a` {
		t.Errorf("fragment 0 = %q", frags[0].Text)
	}
	if frags[1].Text != `b");` {
		t.Errorf("fragment 1 = %q", frags[1].Text)
	}
}
