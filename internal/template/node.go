package template

// Node is one span of a tokenized template.
//
// Implemented by Literal, Quoted, Variable and MacroCall. Source returns the
// exact text the node was parsed from, so concatenating the Source of every
// node reproduces the input.
type Node interface {
	Source() string

	// node is a private marker restricting implementers to this package.
	node()
}

// Literal is text that is not a reference.
type Literal struct {
	Text string
}

// Quoted is a backtick-quoted segment inside a macro argument.
// Text excludes the backticks.
type Quoted struct {
	Text string
}

// Variable is a `${key}` reference.
//
// Key is everything between the braces. Name and ArgList are Key split by
// SplitKey: `${clientId(scope)}` has Name "clientId" and ArgList "(scope)".
type Variable struct {
	Key     string
	Name    string
	ArgList string
}

// MacroCall is a `NAME(args)` or `$NAME(args)` invocation.
type MacroCall struct {
	Name   string
	Dollar bool
	Args   []Arg
	Raw    string
}

// Arg is one comma-separated argument of a MacroCall.
// Raw is the unmodified source between the separators; Parts is Raw
// tokenized with backtick quoting recognised.
type Arg struct {
	Raw   string
	Parts []Node
}

func (n Literal) Source() string { return n.Text }
func (n Quoted) Source() string  { return "`" + n.Text + "`" }
func (n Variable) Source() string {
	return "${" + n.Key + "}"
}
func (n MacroCall) Source() string { return n.Raw }

func (Literal) node()   {}
func (Quoted) node()    {}
func (Variable) node()  {}
func (MacroCall) node() {}

// Issue describes a structural problem found while tokenizing.
// Issues never stop tokenization; the offending text becomes a Literal.
type Issue struct {
	Pos     int    `json:"pos"`
	Message string `json:"message"`
}
