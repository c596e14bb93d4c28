package template

import "strings"

// Mode selects which reference kinds the Tokenizer recognises.
type Mode uint8

const (
	// ScanVariables recognises `${...}` references.
	ScanVariables Mode = 1 << iota
	// ScanMacros recognises `NAME(...)` calls. Without ScanVariables,
	// `${...}` spans are kept as literal text.
	ScanMacros

	// ScanAll recognises both kinds.
	ScanAll = ScanVariables | ScanMacros
)

// Tokenizer produces the nodes of a template one at a time.
//
// The sequence is lazy, finite and cannot be restarted: once Next returns
// false the Tokenizer is exhausted.
type Tokenizer struct {
	src    string
	pos    int
	mode   Mode
	inArg  bool
	issues []Issue

	// closes caches the `)` index for each `(` a failed scan passed
	// through; -1 marks a `(` that is never closed.
	closes map[int]int

	// pending holds a reference found while scanning a literal, returned
	// by the following Next call.
	pending    Node
	pendingEnd int
}

// NewTokenizer returns a Tokenizer over src.
func NewTokenizer(src string, mode Mode) *Tokenizer {
	return &Tokenizer{src: src, mode: mode}
}

// newArgTokenizer returns a Tokenizer for the inside of one macro argument,
// where backtick quoting applies.
func newArgTokenizer(src string, mode Mode) *Tokenizer {
	return &Tokenizer{src: src, mode: mode, inArg: true}
}

// Next returns the next node, or false when the input is exhausted.
func (t *Tokenizer) Next() (Node, bool) {
	if t.pending != nil {
		n := t.pending
		t.pos = t.pendingEnd
		t.pending = nil
		return n, true
	}
	if t.pos >= len(t.src) {
		return nil, false
	}

	start := t.pos
	i := start
	for i < len(t.src) {
		if n, end, ok := t.refAt(i); ok {
			if i == start {
				t.pos = end
				return n, true
			}
			t.pending, t.pendingEnd = n, end
			t.pos = i
			return Literal{Text: t.src[start:i]}, true
		}
		i = t.skip(i)
	}
	t.pos = len(t.src)
	return Literal{Text: t.src[start:]}, true
}

// Issues returns the structural problems seen so far, nested arguments
// included.
func (t *Tokenizer) Issues() []Issue {
	return t.issues
}

// Parse tokenizes src completely.
func Parse(src string, mode Mode) []Node {
	nodes, _ := ParseWithIssues(src, mode)
	return nodes
}

// ParseWithIssues tokenizes src completely and also returns any issues.
func ParseWithIssues(src string, mode Mode) ([]Node, []Issue) {
	t := NewTokenizer(src, mode)
	return drain(t), t.Issues()
}

func drain(t *Tokenizer) []Node {
	var nodes []Node
	for {
		n, ok := t.Next()
		if !ok {
			return nodes
		}
		nodes = append(nodes, n)
	}
}

// refAt reports whether a reference starts at i and, if so, returns it
// along with the index just past it.
func (t *Tokenizer) refAt(i int) (Node, int, bool) {
	s := t.src
	c := s[i]

	switch {
	case c == '$' && i+1 < len(s) && s[i+1] == '{' && t.mode&ScanVariables != 0:
		end, ok := matchBrace(s, i)
		if !ok {
			t.issue(i, "unterminated variable reference")
			return nil, 0, false
		}
		key := s[i+2 : end-1]
		name, argList := SplitKey(key)
		return Variable{Key: key, Name: name, ArgList: argList}, end, true

	case c == '$' && i+1 < len(s) && isIdentStart(s[i+1]) && t.mode&ScanMacros != 0:
		return t.callAt(i+1, true)

	case isIdentStart(c) && t.mode&ScanMacros != 0:
		return t.callAt(i, false)

	case c == '`' && t.inArg:
		j := strings.IndexByte(s[i+1:], '`')
		if j < 0 {
			t.issue(i, "unterminated backtick quote")
			return nil, 0, false
		}
		return Quoted{Text: s[i+1 : i+1+j]}, i + j + 2, true
	}
	return nil, 0, false
}

// skip returns the index of the next position where a reference may start.
func (t *Tokenizer) skip(i int) int {
	s := t.src
	switch {
	case t.mode&ScanMacros != 0 && isIdentChar(s[i]):
		// A call name must begin at the start of a word.
		for i < len(s) && isIdentChar(s[i]) {
			i++
		}
		return i
	case t.mode&ScanVariables == 0 && strings.HasPrefix(s[i:], "${"):
		if end, ok := matchBrace(s, i); ok {
			return end
		}
	}
	return i + 1
}

// callAt parses a macro call whose name starts at i.
func (t *Tokenizer) callAt(i int, dollar bool) (Node, int, bool) {
	s := t.src
	j := i
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	if j >= len(s) || s[j] != '(' {
		return nil, 0, false
	}
	closeIdx, ok := t.closeParen(j)
	if !ok {
		t.issue(i, "unterminated macro call "+s[i:j])
		return nil, 0, false
	}

	spans := splitSpans(s[j+1 : closeIdx])
	args := make([]Arg, len(spans))
	for k, span := range spans {
		at := newArgTokenizer(span, t.mode)
		args[k] = Arg{Raw: span, Parts: drain(at)}
		t.issues = append(t.issues, at.issues...)
	}

	start := i
	if dollar {
		start--
	}
	call := MacroCall{
		Name:   s[i:j],
		Dollar: dollar,
		Args:   args,
		Raw:    s[start : closeIdx+1],
	}
	return call, closeIdx + 1, true
}

func (t *Tokenizer) issue(pos int, msg string) {
	t.issues = append(t.issues, Issue{Pos: pos, Message: msg})
}

// matchBrace returns the index just past the `}` that closes the `${`
// at open.
func matchBrace(s string, open int) (int, bool) {
	depth := 1
	for i := open + 2; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// closeParen returns the index of the `)` that closes the `(` at open.
func (t *Tokenizer) closeParen(open int) (int, bool) {
	if end, ok := t.closes[open]; ok {
		return end, end >= 0
	}
	if t.closes == nil {
		t.closes = make(map[int]int)
	}
	return matchParen(t.src, open, t.closes)
}

// matchParen returns the index of the `)` that closes the `(` at open.
//
// When no `)` closes open, every `(` the scan passed records its own
// outcome in closes: a scan starting there would follow the same path.
func matchParen(s string, open int, closes map[int]int) (int, bool) {
	var stack []int
	fail := func() (int, bool) {
		for _, p := range stack {
			closes[p] = -1
		}
		return 0, false
	}
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == '`':
			j := strings.IndexByte(s[i+1:], '`')
			if j < 0 {
				return fail()
			}
			i += j + 1
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			end, ok := matchBrace(s, i)
			if !ok {
				continue
			}
			i = end - 1
		case c == '(':
			stack = append(stack, i)
		case c == ')':
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
			closes[p] = i
		}
	}
	return fail()
}

// splitSpans splits the inside of a call's parens at top-level commas.
// An empty list yields one empty argument.
func splitSpans(inner string) []string {
	var spans []string
	depth, last := 0, 0
	for i := 0; i < len(inner); i++ {
		switch c := inner[i]; {
		case c == '\\':
			i++
		case c == '`':
			if j := strings.IndexByte(inner[i+1:], '`'); j >= 0 {
				i += j + 1
			}
		case c == '$' && i+1 < len(inner) && inner[i+1] == '{':
			if end, ok := matchBrace(inner, i); ok {
				i = end - 1
			}
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			spans = append(spans, inner[last:i])
			last = i + 1
		}
	}
	return append(spans, inner[last:])
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
