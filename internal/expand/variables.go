package expand

import (
	"strings"

	"github.com/roach88/beacon/internal/template"
)

// variables resolves `${...}` references for one expansion.
//
// Values that themselves contain references are expanded with an explicit
// stack of frames, one per nesting level, so a cyclic binding costs at most
// maxDepth+1 frames and never recurses in Go.
type variables struct {
	ec *Context

	// exceeded lists the keys left unexpanded because the budget ran out.
	exceeded []string
}

// frame is one variable value being expanded.
type frame struct {
	tok       *template.Tokenizer
	remaining int
	out       strings.Builder

	// argList and encode finish the frame's result once its value is
	// fully expanded.
	argList string
	encode  bool
}

func (f *frame) result() string {
	s := f.out.String()
	if f.encode {
		s = EncodeVar(s)
	}
	if s != "" {
		s += f.argList
	}
	return s
}

// resolve returns the substitution for ref. Nested values are always
// expanded unencoded; encode applies once, to the outermost value.
func (v *variables) resolve(ref template.Variable, encode bool) string {
	s, child := v.step(ref, v.ec.maxDepth, encode)
	if child == nil {
		return s
	}

	stack := []*frame{child}
	for {
		f := stack[len(stack)-1]
		n, ok := f.tok.Next()
		if !ok {
			s := f.result()
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s
			}
			stack[len(stack)-1].out.WriteString(s)
			continue
		}

		ref, isVar := n.(template.Variable)
		if !isVar {
			f.out.WriteString(n.Source())
			continue
		}
		s, child := v.step(ref, f.remaining, false)
		if child == nil {
			f.out.WriteString(s)
			continue
		}
		stack = append(stack, child)
	}
}

// step resolves ref with remaining levels of budget. A scalar value is
// returned as a frame still to be expanded; everything else resolves
// immediately.
func (v *variables) step(ref template.Variable, remaining int, encode bool) (string, *frame) {
	if remaining < 0 {
		v.exceeded = append(v.exceeded, ref.Key)
		return ref.Source(), nil
	}
	if ref.Key == "" {
		return "", nil
	}
	if v.ec.IsFrozen(ref.Name) {
		return ref.Source(), nil
	}
	b, ok := v.ec.lookup(ref.Name)
	if !ok {
		return "", nil
	}
	if b.isList {
		s := strings.Join(b.list, ",")
		if encode {
			s = EncodeList(b.list)
		}
		if s != "" {
			s += ref.ArgList
		}
		return s, nil
	}
	return "", &frame{
		tok:       template.NewTokenizer(b.scalar, template.ScanVariables),
		remaining: remaining - 1,
		argList:   ref.ArgList,
		encode:    encode,
	}
}
