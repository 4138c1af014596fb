package compiler

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorOffset(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int
	}{
		{"parse", "#x=\"a\";\n @Thing;", 9},
		{"unresolved", `#x="a";$print(#nope);`, 7},
		{"unknown function", `#x="a"; $nope();`, 8},
		{"dangling", `#x="a";#y=#x;`, 7},
		{"unsupported", `#x="a";#x.m();`, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.input, nil)
			if err == nil {
				t.Fatal("Compile succeeded, want error")
			}
			// Wrapping must not hide the offset.
			got, ok := ErrorOffset(fmt.Errorf("compiling: %w", err))
			if !ok {
				t.Fatalf("ErrorOffset(%v) found no offset", err)
			}
			if got != tt.offset {
				t.Errorf("ErrorOffset = %d, want %d", got, tt.offset)
			}
		})
	}
}

func TestErrorOffsetWithoutPosition(t *testing.T) {
	if _, ok := ErrorOffset(&SlotOverflowError{Space: "static"}); ok {
		t.Error("SlotOverflowError has no source position")
	}
	if _, ok := ErrorOffset(errors.New("other")); ok {
		t.Error("foreign errors have no source position")
	}
}
