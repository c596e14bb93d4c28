package expand

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/beacon/internal/ctxlog"
	"github.com/roach88/beacon/internal/macro"
	"github.com/roach88/beacon/internal/resolve"
	"github.com/roach88/beacon/internal/template"
)

// expansion is the state of one Expand call.
type expansion struct {
	registry *macro.Registry
	ec       *Context
	vars     *variables
	logger   *slog.Logger
}

// substitute runs the variable stage over the parsed template.
//
// Variables at the top level are encoded per the Context. Variables inside
// the arguments of a registered macro are substituted raw and backtick
// quoted, so the value reaches the handler as one argument and is encoded
// only once, as part of the macro's result. A value that is itself a
// registered call is left unquoted and evaluated as a nested call. Calls to unregistered macros
// are opaque and copied through untouched.
func (x *expansion) substitute(nodes []template.Node, b *strings.Builder) {
	for _, n := range nodes {
		switch n := n.(type) {
		case template.Variable:
			b.WriteString(x.vars.resolve(n, x.ec.encode))
		case template.MacroCall:
			x.substituteCall(n, b)
		default:
			b.WriteString(n.Source())
		}
	}
}

func (x *expansion) substituteCall(call template.MacroCall, b *strings.Builder) {
	if !x.registry.Has(call.Name) {
		b.WriteString(call.Raw)
		return
	}
	if call.Dollar {
		b.WriteByte('$')
	}
	b.WriteString(call.Name)
	b.WriteByte('(')
	for i, arg := range call.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		for _, p := range arg.Parts {
			switch p := p.(type) {
			case template.Variable:
				b.WriteString(x.argValue(x.vars.resolve(p, false)))
			case template.MacroCall:
				x.substituteCall(p, b)
			default:
				b.WriteString(p.Source())
			}
		}
	}
	b.WriteByte(')')
}

// argValue places a raw variable value inside a macro argument. A value
// that is a call to a registered macro stays unquoted and becomes a nested
// call; anything else is quoted.
func (x *expansion) argValue(s string) string {
	name, argList := template.SplitKey(s)
	if argList != "" && x.registry.Has(strings.TrimPrefix(name, "$")) {
		return s
	}
	return quoteArg(s)
}

// quoteArg protects a raw value placed inside a macro argument. A value
// that itself contains a backtick cannot be quoted and is encoded instead.
func quoteArg(s string) string {
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "`"):
		return EncodeVar(s)
	}
	return "`" + s + "`"
}

// evaluate runs the macro stage. Only results of top-level calls are
// encoded; results consumed by an enclosing call stay raw.
func (x *expansion) evaluate(ctx context.Context, nodes []template.Node) resolve.Value {
	parts := make([]resolve.Value, 0, len(nodes))
	for _, n := range nodes {
		call, ok := n.(template.MacroCall)
		if !ok {
			parts = append(parts, resolve.Now(n.Source()))
			continue
		}
		h, ok := x.registry.Lookup(call.Name)
		if !ok {
			parts = append(parts, resolve.Now(call.Raw))
			continue
		}
		v := x.call(ctx, call, h)
		if x.ec.encode {
			v = v.Map(EncodeComponent)
		}
		parts = append(parts, v)
	}
	return resolve.Join(parts)
}

// call evaluates a registered macro after all of its arguments.
func (x *expansion) call(ctx context.Context, call template.MacroCall, h macro.Handler) resolve.Value {
	args := make([]resolve.Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = x.argument(ctx, arg)
	}
	return resolve.Bind(args, func(vals []string) resolve.Value {
		return x.invoke(ctx, call.Name, h, vals)
	})
}

// argument resolves the nested calls of one argument and assembles it.
// An unregistered nested call is plain text and trims with its neighbours.
func (x *expansion) argument(ctx context.Context, arg template.Arg) resolve.Value {
	var (
		pieces  []template.Piece
		results []resolve.Value
	)
	for _, p := range arg.Parts {
		switch p := p.(type) {
		case template.Quoted:
			pieces = append(pieces, template.Piece{Kind: template.PieceQuoted, Text: p.Text})
		case template.MacroCall:
			h, ok := x.registry.Lookup(p.Name)
			if !ok {
				pieces = append(pieces, template.Piece{Kind: template.PieceText, Text: p.Raw})
				continue
			}
			results = append(results, x.call(ctx, p, h))
			pieces = append(pieces, template.Piece{Kind: template.PieceResult})
		default:
			pieces = append(pieces, template.Piece{Kind: template.PieceText, Text: p.Source()})
		}
	}
	pieces = template.MergeText(pieces)

	return resolve.Combine(results, func(vals []string) string {
		k := 0
		for i := range pieces {
			if pieces[i].Kind == template.PieceResult {
				pieces[i].Text = vals[k]
				k++
			}
		}
		return template.Assemble(pieces)
	})
}

// invoke runs a handler. A panicking handler or a failed deferred result
// yields "" and a warning; the expansion itself always completes.
func (x *expansion) invoke(ctx context.Context, name string, h macro.Handler, args []string) (v resolve.Value) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Warn("macro handler panicked",
				"macro", name,
				"error", fmt.Sprint(r))
			v = resolve.Now("")
		}
	}()

	v = h(ctxlog.WithLogger(ctx, x.logger), args)
	return v.Recover(func(err error) string {
		x.logger.Warn("deferred macro failed",
			"macro", name,
			"error", err)
		return ""
	})
}
