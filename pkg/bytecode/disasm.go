package bytecode

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ListingEntry is one disassembled instruction in structured form.
type ListingEntry struct {
	Index    int       `yaml:"index"`
	Offset   int       `yaml:"offset"`
	Op       string    `yaml:"op"`
	Tmp      uint16    `yaml:"tmp,omitempty"`
	Static   uint16    `yaml:"static,omitempty"`
	Func     uint16    `yaml:"func,omitempty"`
	FuncName string    `yaml:"func_name,omitempty"`
	Content  *string   `yaml:"content,omitempty"`
	Operands []Operand `yaml:"operands,omitempty"`
}

// Listing is a structured disassembly of a program.
type Listing struct {
	RegistryVersion uint16         `yaml:"registry_version"`
	Instructions    []ListingEntry `yaml:"instructions"`
	Bytes           int            `yaml:"bytes"`
}

// NewListing builds a structured listing. Offsets are those the program
// has when encoded with Encode. reg may be nil, in which case function
// names are left empty.
func NewListing(prog []Instruction, reg *Registry) *Listing {
	return newListing(prog, nil, reg)
}

// NewListingFromBytes decodes data and builds a listing whose offsets
// point into data itself, so instructions the decoder skipped show up as
// gaps rather than shifting everything after them.
func NewListingFromBytes(data []byte, reg *Registry) (*Listing, []Instruction, error) {
	prog, offsets, err := DecodeWithOffsets(data)
	if err != nil {
		return nil, nil, err
	}
	l := newListing(prog, offsets, reg)
	l.Bytes = len(data)
	return l, prog, nil
}

// newListing uses offsets when given, otherwise re-encoded offsets.
func newListing(prog []Instruction, offsets []int, reg *Registry) *Listing {
	l := &Listing{Instructions: make([]ListingEntry, 0, len(prog))}
	if reg != nil {
		l.RegistryVersion = reg.Version
	}
	offset := 0
	for i, in := range prog {
		if offsets != nil {
			offset = offsets[i]
		}
		e := ListingEntry{
			Index:  i,
			Offset: offset,
			Op:     in.Kind.String(),
			Tmp:    in.Tmp,
			Static: in.Static,
			Func:   in.Func,
		}
		if in.Kind == KindReturn {
			content := in.Content
			e.Content = &content
		}
		if len(in.Operands) > 0 {
			e.Operands = append([]Operand(nil), in.Operands...)
		}
		if reg != nil && in.Kind == KindFuncCall {
			if fn, ok := reg.ByID(in.Func); ok {
				e.FuncName = fn.Name
			}
		}
		l.Instructions = append(l.Instructions, e)
		offset += headerSize + in.BodyLen()
	}
	l.Bytes = offset
	return l
}

// Disassemble returns a human-readable listing of prog.
func Disassemble(prog []Instruction, reg *Registry) string {
	return DisassembleWithName(prog, reg, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(prog []Instruction, reg *Registry, name string) string {
	return render(NewListing(prog, reg), prog, reg, name)
}

// DisassembleBytes decodes data and returns a listing whose offsets are
// positions in data.
func DisassembleBytes(data []byte, reg *Registry, name string) (string, error) {
	l, prog, err := NewListingFromBytes(data, reg)
	if err != nil {
		return "", err
	}
	return render(l, prog, reg, name), nil
}

func render(l *Listing, prog []Instruction, reg *Registry, name string) string {
	var sb strings.Builder
	if name != "" {
		fmt.Fprintf(&sb, "; === %s ===\n", name)
	}
	fmt.Fprintf(&sb, "; RBSL bytecode, %d instructions, %d bytes\n", len(prog), l.Bytes)
	if reg != nil {
		fmt.Fprintf(&sb, "; Registry v%d\n", reg.Version)
	}
	sb.WriteString("\n")

	for i, e := range l.Instructions {
		fmt.Fprintf(&sb, "%04X  %s\n", e.Offset, formatInstruction(prog[i], e.FuncName))
	}
	return sb.String()
}

func formatInstruction(in Instruction, funcName string) string {
	switch in.Kind {
	case KindReturn:
		display := in.Content
		if utf8.RuneCountInString(display) > 40 {
			display = string([]rune(display)[:37]) + "..."
		}
		return fmt.Sprintf("%-10s tmp:%d %q", in.Kind, in.Tmp, display)
	case KindAssign:
		return fmt.Sprintf("%-10s static:%d <- tmp:%d", in.Kind, in.Static, in.Source())
	case KindFuncCall:
		fn := fmt.Sprintf("#%d", in.Func)
		if funcName != "" {
			fn = fmt.Sprintf("%s#%d", funcName, in.Func)
		}
		return fmt.Sprintf("%-10s tmp:%d <- %s(%s)", in.Kind, in.Tmp, fn, formatOperands(in.Operands))
	default:
		return in.Kind.String()
	}
}

func formatOperands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprintf("%s:%d", op.Kind, op.Slot)
	}
	return strings.Join(parts, ", ")
}
