package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("rbsl.bytecode")

// Encode serializes a program. Layout per instruction:
//
//	[kind:1] [body_len:2 LE] [body:body_len]
//
//	Return:   [tmp:2] [content...]
//	Assign:   [static:2] [src_tmp:2]
//	FuncCall: [func:2] [tmp:2] argc * ([slot_kind:1] [slot:2])
//
// Nothing is returned on error; a program is either encoded whole or not at all.
func Encode(prog []Instruction) ([]byte, error) {
	size := 0
	for i, in := range prog {
		if !in.Kind.Known() {
			return nil, &EncodeError{Index: i, Kind: in.Kind, Reason: "kind has no encoding"}
		}
		if in.Kind == KindAssign && len(in.Operands) != 1 {
			return nil, &EncodeError{Index: i, Kind: in.Kind,
				Reason: fmt.Sprintf("assign needs exactly one operand, got %d", len(in.Operands))}
		}
		if in.Kind == KindAssign && in.Operands[0].Kind != SlotTemporary {
			return nil, &EncodeError{Index: i, Kind: in.Kind,
				Reason: fmt.Sprintf("assign source must be a tmp slot, got %s", in.Operands[0].Kind)}
		}
		n := in.BodyLen()
		if n > MaxSlot {
			return nil, &EncodeError{Index: i, Kind: in.Kind,
				Reason: fmt.Sprintf("body of %d bytes exceeds %d", n, MaxSlot)}
		}
		size += headerSize + n
	}

	buf := make([]byte, 0, size)
	for _, in := range prog {
		buf = AppendInstruction(buf, in)
	}
	log.Debugf("encoded %d instructions into %d bytes", len(prog), len(buf))
	return buf, nil
}

// AppendInstruction appends the encoding of a single instruction. The
// caller must have checked that the instruction is encodable.
func AppendInstruction(buf []byte, in Instruction) []byte {
	buf = append(buf, byte(in.Kind))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(in.BodyLen()))

	switch in.Kind {
	case KindReturn:
		buf = binary.LittleEndian.AppendUint16(buf, in.Tmp)
		buf = append(buf, in.Content...)
	case KindAssign:
		buf = binary.LittleEndian.AppendUint16(buf, in.Static)
		buf = binary.LittleEndian.AppendUint16(buf, in.Source())
	case KindFuncCall:
		buf = binary.LittleEndian.AppendUint16(buf, in.Func)
		buf = binary.LittleEndian.AppendUint16(buf, in.Tmp)
		for _, op := range in.Operands {
			buf = append(buf, byte(op.Kind))
			buf = binary.LittleEndian.AppendUint16(buf, op.Slot)
		}
	}
	return buf
}

// Decode parses a program produced by Encode. Body boundaries come only
// from the length field; kinds the decoder does not understand are skipped.
func Decode(data []byte) ([]Instruction, error) {
	prog, _, err := DecodeWithOffsets(data)
	return prog, err
}

// DecodeWithOffsets is Decode that also reports the byte offset in data
// at which each returned instruction starts. Skipped instructions leave
// gaps in the offsets.
func DecodeWithOffsets(data []byte) ([]Instruction, []int, error) {
	var (
		prog    []Instruction
		offsets []int
	)
	skipped := 0

	for pos := 0; pos < len(data); {
		kind := Kind(data[pos])
		if len(data)-pos < headerSize {
			return nil, nil, &DecodeError{Offset: pos, Kind: kind,
				Reason: fmt.Sprintf("truncated header: %d of %d bytes", len(data)-pos, headerSize)}
		}
		n := int(binary.LittleEndian.Uint16(data[pos+1:]))
		start := pos + headerSize
		if n > len(data)-start {
			return nil, nil, &DecodeError{Offset: pos, Kind: kind,
				Reason: fmt.Sprintf("body length %d exceeds remaining %d bytes", n, len(data)-start)}
		}
		body := data[start : start+n]

		if !kind.Known() {
			log.Debugf("skipping %s instruction at offset %d (%d bytes)", kind, pos, n)
			skipped++
			pos = start + n
			continue
		}
		if !kind.ValidBodyLen(n) {
			return nil, nil, &DecodeError{Offset: pos, Kind: kind,
				Reason: fmt.Sprintf("invalid body length %d", n)}
		}

		prog = append(prog, decodeBody(kind, body))
		offsets = append(offsets, pos)
		pos = start + n
	}

	log.Debugf("decoded %d instructions (%d skipped)", len(prog), skipped)
	return prog, offsets, nil
}

// decodeBody assumes the body length has been validated for kind.
func decodeBody(kind Kind, body []byte) Instruction {
	in := Instruction{Kind: kind}
	switch kind {
	case KindReturn:
		in.Tmp = binary.LittleEndian.Uint16(body)
		in.Content = string(body[2:])
	case KindAssign:
		in.Static = binary.LittleEndian.Uint16(body)
		in.Operands = []Operand{{Kind: SlotTemporary, Slot: binary.LittleEndian.Uint16(body[2:])}}
	case KindFuncCall:
		in.Func = binary.LittleEndian.Uint16(body)
		in.Tmp = binary.LittleEndian.Uint16(body[2:])
		for off := 4; off < len(body); off += operandSize {
			in.Operands = append(in.Operands, Operand{
				Kind: SlotKind(body[off]),
				Slot: binary.LittleEndian.Uint16(body[off+1:]),
			})
		}
	}
	return in
}
