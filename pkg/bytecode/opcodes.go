package bytecode

import "fmt"

// Kind is the one-byte tag that starts every instruction in a program.
type Kind byte

const (
	KindReturn     Kind = 0 // Write a literal into a temporary slot
	KindAssign     Kind = 1 // Copy a temporary slot into a static slot
	KindMethodCall Kind = 2 // Reserved; parsed but never compiled
	KindFuncCall   Kind = 3 // Call a native function, result in a temporary slot
)

// KindInfo describes the body layout of an instruction kind.
type KindInfo struct {
	Name string
	// MinBody is the smallest valid body length in bytes.
	MinBody int
	// FixedBody is true when every body of this kind is exactly MinBody bytes.
	FixedBody bool
	// Stride is the size of each repeated element after MinBody, or 0.
	Stride int
	// Encodable is false for reserved kinds that have no body layout yet.
	Encodable bool
}

var kindInfo = map[Kind]KindInfo{
	KindReturn:     {Name: "RETURN", MinBody: 2, Encodable: true},
	KindAssign:     {Name: "ASSIGN", MinBody: 4, FixedBody: true, Encodable: true},
	KindMethodCall: {Name: "METHOD_CALL"},
	KindFuncCall:   {Name: "FUNC_CALL", MinBody: 4, Stride: operandSize, Encodable: true},
}

// GetKindInfo returns metadata for a kind. Unknown kinds get a placeholder
// name and are not encodable.
func GetKindInfo(k Kind) KindInfo {
	if info, ok := kindInfo[k]; ok {
		return info
	}
	return KindInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(k))}
}

// String returns the mnemonic for the kind.
func (k Kind) String() string {
	return GetKindInfo(k).Name
}

// Known reports whether the decoder understands bodies of this kind.
func (k Kind) Known() bool {
	return GetKindInfo(k).Encodable
}

// ValidBodyLen reports whether n is a well-formed body length for k.
func (k Kind) ValidBodyLen(n int) bool {
	info := GetKindInfo(k)
	if !info.Encodable || n < info.MinBody {
		return false
	}
	if info.FixedBody {
		return n == info.MinBody
	}
	if info.Stride > 0 {
		return (n-info.MinBody)%info.Stride == 0
	}
	return true
}

// AllKinds returns every defined kind, reserved ones included.
func AllKinds() []Kind {
	return []Kind{KindReturn, KindAssign, KindMethodCall, KindFuncCall}
}

// SlotKind selects which value store an operand is read from.
type SlotKind byte

const (
	SlotTemporary SlotKind = 0
	SlotStatic    SlotKind = 1
)

// String returns a short name for the slot kind.
func (s SlotKind) String() string {
	switch s {
	case SlotTemporary:
		return "tmp"
	case SlotStatic:
		return "static"
	default:
		return fmt.Sprintf("SlotKind(%d)", byte(s))
	}
}

// MarshalYAML renders the slot kind by name in listings.
func (s SlotKind) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
