package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Command tree
// ---------------------------------------------------------------------------

// Kind identifies what a command does.
type Kind int

const (
	// KindEmpty is the "no value" command produced for an expression the
	// parser does not recognize. It never compiles to an instruction.
	KindEmpty Kind = iota
	KindReturn
	KindAssign
	KindMethodCall
	KindFuncCall
)

var kindNames = map[Kind]string{
	KindEmpty:      "empty",
	KindReturn:     "return",
	KindAssign:     "assign",
	KindMethodCall: "method call",
	KindFuncCall:   "function call",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ProducesValue reports whether a command of this kind leaves its result
// in a temporary slot.
func (k Kind) ProducesValue() bool {
	return k == KindReturn || k == KindFuncCall
}

// Arg is one function-call argument: either a variable reference such as
// "#x" or a nested command whose result is passed by temporary slot.
type Arg struct {
	Var string
	Sub *Command
}

// IsVar reports whether the argument names a static variable.
func (a Arg) IsVar() bool { return a.Sub == nil }

// Command is a node in the parsed command tree.
type Command struct {
	Kind Kind

	// Name is the function name for KindFuncCall ("$print") and the text
	// after the dot for KindMethodCall.
	Name string

	// Target is the variable written by KindAssign or the receiver of
	// KindMethodCall, including its leading '#'.
	Target string

	// Literal is the string value of KindReturn.
	Literal string

	// Args holds KindFuncCall arguments in call order.
	Args []Arg

	// Subs are the owned child commands: the right-hand side of an
	// assignment, or the nested arguments of a call in order.
	Subs []*Command

	// Offset is the byte offset of the command in the raw source.
	Offset int
}

// Vars returns the variable references among the call's arguments.
func (c *Command) Vars() []string {
	var vars []string
	for _, a := range c.Args {
		if a.IsVar() {
			vars = append(vars, a.Var)
		}
	}
	return vars
}

// String renders the command in source form.
func (c *Command) String() string {
	switch c.Kind {
	case KindReturn:
		return `"` + c.Literal + `"`
	case KindAssign:
		rhs := ""
		if len(c.Subs) > 0 {
			rhs = c.Subs[0].String()
		}
		return c.Target + "=" + rhs
	case KindMethodCall:
		return c.Target + "." + c.Name
	case KindFuncCall:
		s := c.Name + "("
		for i, a := range c.Args {
			if i > 0 {
				s += ","
			}
			if a.IsVar() {
				s += a.Var
			} else {
				s += a.Sub.String()
			}
		}
		return s + ")"
	default:
		return ""
	}
}
