package compiler

// ---------------------------------------------------------------------------
// Segmenter: whitespace cleaning and statement splitting
// ---------------------------------------------------------------------------

// Delimiter ends a statement.
const Delimiter = ';'

// Source is script text with whitespace outside strings removed. It
// remembers where each remaining byte came from so errors can point at the
// raw text.
type Source struct {
	Text string

	origin []int // origin[i] is the raw offset of Text[i]
	rawLen int
}

// Origin maps an offset in the cleaned text back to the raw source. An
// offset at or past the end maps to the end of the raw source.
func (s *Source) Origin(i int) int {
	if s == nil {
		return i
	}
	if i < 0 {
		return 0
	}
	if i >= len(s.origin) {
		return s.rawLen
	}
	return s.origin[i]
}

// quoteToggle applies the string-state rule shared by Clean and Split: a
// quote opens a string only when we are outside one and the previous byte
// is not a backslash; every other quote closes. An escaped quote therefore
// ends a string instead of embedding a literal '"'.
func quoteToggle(inString bool, text string, i int) bool {
	return !inString && (i == 0 || text[i-1] != '\\')
}

// Clean drops spaces, carriage returns and newlines that are outside
// double-quoted strings.
func Clean(src string) *Source {
	s := &Source{
		origin: make([]int, 0, len(src)),
		rawLen: len(src),
	}
	buf := make([]byte, 0, len(src))

	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '"' {
			inString = quoteToggle(inString, src, i)
		}
		if !inString && (c == ' ' || c == '\r' || c == '\n') {
			continue
		}
		buf = append(buf, c)
		s.origin = append(s.origin, i)
	}

	s.Text = string(buf)
	return s
}

// Fragment is one statement of a cleaned source, delimiter excluded.
type Fragment struct {
	Text  string
	Start int // offset of Text[0] within the cleaned source

	src *Source
}

// Pos returns the raw source offset of Text[i].
func (f Fragment) Pos(i int) int {
	return f.src.Origin(f.Start + i)
}

// Empty reports whether the fragment holds no statement.
func (f Fragment) Empty() bool {
	return f.Text == ""
}

// Split cuts a cleaned source on every delimiter that is outside a string
// and not preceded by a backslash. The text after the last delimiter is
// kept as a final fragment, even when it is empty.
func Split(s *Source) []Fragment {
	text := s.Text
	var frags []Fragment

	start := 0
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			inString = quoteToggle(inString, text, i)
		}
		if c == Delimiter && !inString && (i == 0 || text[i-1] != '\\') {
			frags = append(frags, Fragment{Text: text[start:i], Start: start, src: s})
			start = i + 1
		}
	}
	frags = append(frags, Fragment{Text: text[start:], Start: start, src: s})
	return frags
}

// Segment cleans src and splits it into statement fragments.
func Segment(src string) []Fragment {
	return Split(Clean(src))
}
