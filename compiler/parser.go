package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: statement fragments to command trees
// ---------------------------------------------------------------------------

// Section markers.
const (
	varMarker    = '#'
	funcMarker   = '$'
	classMarker  = '@'
	stringMarker = '"'
)

// Parser turns one fragment into a command tree.
type Parser struct {
	frag Fragment
	text string
}

// NewParser creates a parser for a single statement fragment.
func NewParser(f Fragment) *Parser {
	return &Parser{frag: f, text: f.Text}
}

// errorf builds a ParseError located at offset i of the fragment.
func (p *Parser) errorf(i int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Offset:   p.frag.Pos(i),
		Fragment: p.text,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// ParseStatement parses one fragment.
func ParseStatement(f Fragment) (*Command, error) {
	return NewParser(f).ParseStatement()
}

// ParseStatement dispatches on the first character of the fragment.
func (p *Parser) ParseStatement() (*Command, error) {
	if p.text == "" {
		return nil, p.errorf(0, "empty statement")
	}

	switch p.text[0] {
	case varMarker:
		return p.parseVariable()
	case funcMarker:
		return p.parseCall(0, len(p.text))
	case classMarker:
		return nil, p.errorf(0, "class sections are not supported")
	default:
		return nil, p.errorf(0, "undefined section beginning %q", p.text[0])
	}
}

// parseVariable handles "#name=<expr>" and "#name.<method>".
func (p *Parser) parseVariable() (*Command, error) {
	i := strings.IndexAny(p.text, "=.")
	if i < 0 {
		return nil, p.errorf(0, "expected '=' or '.' after variable name")
	}
	name := p.text[:i]
	if len(name) < 2 {
		return nil, p.errorf(0, "missing variable name")
	}

	if p.text[i] == '.' {
		return &Command{
			Kind:   KindMethodCall,
			Target: name,
			Name:   p.text[i+1:],
			Offset: p.frag.Pos(0),
		}, nil
	}

	rhs, err := p.parseSubsection(i+1, len(p.text))
	if err != nil {
		return nil, err
	}
	return &Command{
		Kind:   KindAssign,
		Target: name,
		Subs:   []*Command{rhs},
		Offset: p.frag.Pos(0),
	}, nil
}

// parseSubsection parses the expression in text[start:end]. Anything other
// than a string literal or a function call yields a KindEmpty command.
func (p *Parser) parseSubsection(start, end int) (*Command, error) {
	if start >= end {
		return &Command{Kind: KindEmpty, Offset: p.frag.Pos(start)}, nil
	}

	switch p.text[start] {
	case stringMarker:
		if end-start < 2 || p.text[end-1] != stringMarker {
			return nil, p.errorf(start, "unterminated string literal")
		}
		return &Command{
			Kind:    KindReturn,
			Literal: p.text[start+1 : end-1],
			Offset:  p.frag.Pos(start),
		}, nil
	case funcMarker:
		return p.parseCall(start, end)
	default:
		return &Command{Kind: KindEmpty, Offset: p.frag.Pos(start)}, nil
	}
}

// parseCall parses "$name(arg,arg,...)" in text[start:end]. Text after the
// closing parenthesis is ignored.
func (p *Parser) parseCall(start, end int) (*Command, error) {
	open := strings.IndexByte(p.text[start:end], '(')
	if open < 0 {
		return nil, p.errorf(start, "expected '(' after function name")
	}
	open += start
	name := p.text[start:open]
	if len(name) < 2 {
		return nil, p.errorf(start, "missing function name")
	}

	spans, err := p.splitArgs(open, end)
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		Kind:   KindFuncCall,
		Name:   name,
		Offset: p.frag.Pos(start),
	}
	for _, sp := range spans {
		arg, err := p.parseArg(sp[0], sp[1])
		if err != nil {
			return nil, err
		}
		cmd.Args = append(cmd.Args, arg)
		if arg.Sub != nil {
			cmd.Subs = append(cmd.Subs, arg.Sub)
		}
	}
	return cmd, nil
}

// splitArgs returns the [start,end) spans of the arguments between the
// parenthesis at open and its match. Commas split only at depth 0 and
// outside strings.
func (p *Parser) splitArgs(open, end int) ([][2]int, error) {
	var spans [][2]int
	argStart := open + 1
	depth := 0
	inString := false

	for i := open + 1; i < end; i++ {
		c := p.text[i]
		if c == stringMarker {
			inString = quoteToggle(inString, p.text, i)
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				continue
			}
			if len(spans) == 0 && i == open+1 {
				return nil, nil // "()"
			}
			return append(spans, [2]int{argStart, i}), nil
		case ',':
			if depth == 0 {
				spans = append(spans, [2]int{argStart, i})
				argStart = i + 1
			}
		}
	}
	return nil, p.errorf(open, "unterminated argument list")
}

// parseArg classifies one argument. Literals and calls become nested
// commands; otherwise the text from the first '#' on is a variable
// reference.
func (p *Parser) parseArg(start, end int) (Arg, error) {
	if start >= end {
		return Arg{}, p.errorf(start, "empty argument")
	}

	switch p.text[start] {
	case stringMarker, funcMarker:
		sub, err := p.parseSubsection(start, end)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Sub: sub}, nil
	}

	arg := p.text[start:end]
	i := strings.IndexByte(arg, varMarker)
	if i < 0 {
		return Arg{}, p.errorf(start, "argument %q produces no value", arg)
	}
	if len(arg)-i < 2 {
		return Arg{}, p.errorf(start+i, "missing variable name")
	}
	return Arg{Var: arg[i:]}, nil
}

// Parse segments src and parses every non-empty statement.
func Parse(src string) ([]*Command, error) {
	var cmds []*Command
	for _, f := range Segment(src) {
		if f.Empty() {
			continue
		}
		cmd, err := ParseStatement(f)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
