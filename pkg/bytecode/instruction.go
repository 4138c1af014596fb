package bytecode

// NoSlot is the slot id that means "unset". Allocation always starts at 1,
// so a zero id never names a real slot.
const NoSlot uint16 = 0

// MaxSlot is the largest slot, function id or body length a 16-bit field
// can carry.
const MaxSlot = 0xFFFF

const (
	headerSize  = 3 // kind byte + 16-bit body length
	operandSize = 3 // slot-kind byte + 16-bit slot id
)

// Operand references a value store entry.
type Operand struct {
	Kind SlotKind `yaml:"kind"`
	Slot uint16   `yaml:"slot"`
}

// Instruction is one compiled command. Which fields are meaningful depends
// on Kind:
//
//	Return:   Tmp, Content
//	Assign:   Static, Operands[0] (the source temporary)
//	FuncCall: Func, Tmp, Operands
type Instruction struct {
	Kind     Kind
	Tmp      uint16
	Static   uint16
	Func     uint16
	Content  string
	Operands []Operand
}

// Return builds a Return instruction.
func Return(tmp uint16, content string) Instruction {
	return Instruction{Kind: KindReturn, Tmp: tmp, Content: content}
}

// Assign builds an Assign instruction copying temporary src into static.
func Assign(static, src uint16) Instruction {
	return Instruction{
		Kind:     KindAssign,
		Static:   static,
		Operands: []Operand{{Kind: SlotTemporary, Slot: src}},
	}
}

// FuncCall builds a FuncCall instruction.
func FuncCall(fn, tmp uint16, operands ...Operand) Instruction {
	in := Instruction{Kind: KindFuncCall, Func: fn, Tmp: tmp}
	if len(operands) > 0 {
		in.Operands = append([]Operand(nil), operands...)
	}
	return in
}

// Temp is shorthand for a temporary operand.
func Temp(slot uint16) Operand { return Operand{Kind: SlotTemporary, Slot: slot} }

// Static is shorthand for a static operand.
func Static(slot uint16) Operand { return Operand{Kind: SlotStatic, Slot: slot} }

// Source returns the temporary slot an Assign reads from, or NoSlot.
func (in Instruction) Source() uint16 {
	if in.Kind != KindAssign || len(in.Operands) == 0 {
		return NoSlot
	}
	return in.Operands[0].Slot
}

// BodyLen returns the encoded body length of the instruction.
func (in Instruction) BodyLen() int {
	switch in.Kind {
	case KindReturn:
		return 2 + len(in.Content)
	case KindAssign:
		return 4
	case KindFuncCall:
		return 4 + operandSize*len(in.Operands)
	default:
		return 0
	}
}
