package expand

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/beacon/internal/macro"
	"github.com/roach88/beacon/internal/resolve"
	"github.com/roach88/beacon/internal/template"
)

// Engine expands templates against a macro registry.
//
// Thread-safety: an Engine holds no per-call state and is safe for
// concurrent use, provided the registry is no longer being populated.
type Engine struct {
	registry *macro.Registry
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for warnings. Macro handlers receive it
// through their context.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over registry. A nil registry means no macros are
// known, so every call is kept as literal text.
func New(registry *macro.Registry, opts ...Option) *Engine {
	if registry == nil {
		registry = macro.NewRegistry()
	}
	e := &Engine{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the Engine looks macros up in.
func (e *Engine) Registry() *macro.Registry {
	return e.registry
}

// Expand expands tmpl with the bindings and settings of ec.
//
// The result is deferred only if a macro invoked along the way returned a
// deferred value. Malformed input never fails: unknown variables become "",
// unknown macros and unterminated references stay as written, and
// exhausting the recursion budget leaves the remaining `${...}` in place
// with a warning.
func (e *Engine) Expand(ctx context.Context, tmpl string, ec *Context) resolve.Value {
	x := e.newExpansion(ec, tmpl)

	var b strings.Builder
	x.substitute(template.Parse(tmpl, template.ScanAll), &b)
	e.warnExceeded(x, tmpl)

	return x.evaluate(ctx, template.Parse(b.String(), template.ScanMacros))
}

// ExpandString expands tmpl and waits for any deferred macros.
// The only error is ctx ending first.
func (e *Engine) ExpandString(ctx context.Context, tmpl string, ec *Context) (string, error) {
	return e.Expand(ctx, tmpl, ec).Await(ctx)
}

// ExpandVariables performs only the variable stage over the whole template,
// ignoring macro structure. Macro calls are left for a later pass.
func (e *Engine) ExpandVariables(tmpl string, ec *Context) string {
	x := e.newExpansion(ec, tmpl)

	var b strings.Builder
	for _, n := range template.Parse(tmpl, template.ScanVariables) {
		if v, ok := n.(template.Variable); ok {
			b.WriteString(x.vars.resolve(v, x.ec.encode))
			continue
		}
		b.WriteString(n.Source())
	}
	e.warnExceeded(x, tmpl)
	return b.String()
}

// Check reports what expanding tmpl with ec would fall back on: unknown
// macros, unbound variables, exhausted recursion and malformed references.
// ec may be nil to check structure only. Check invokes no macros.
func (e *Engine) Check(tmpl string, ec *Context) []*Error {
	nodes, issues := template.ParseWithIssues(tmpl, template.ScanAll)

	var errs []*Error
	for _, is := range issues {
		errs = append(errs, &Error{
			Code:    ErrCodeMalformedTemplate,
			Message: is.Message,
			Details: map[string]string{"pos": strconv.Itoa(is.Pos)},
		})
	}

	var walk func([]template.Node)
	walk = func(nodes []template.Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case template.MacroCall:
				if !e.registry.Has(n.Name) {
					errs = append(errs, &Error{
						Code:    ErrCodeUnknownMacro,
						Message: "macro " + n.Name + " is not registered",
						Details: map[string]string{"macro": n.Name},
					})
					continue
				}
				for _, arg := range n.Args {
					walk(arg.Parts)
				}
			case template.Variable:
				if ec == nil || n.Key == "" || ec.IsFrozen(n.Name) || ec.Has(n.Name) {
					continue
				}
				errs = append(errs, &Error{
					Code:    ErrCodeUnresolvedVariable,
					Message: "variable " + n.Name + " is not bound",
					Details: map[string]string{"variable": n.Name},
				})
			}
		}
	}
	walk(nodes)

	if ec != nil {
		x := e.newExpansion(ec, tmpl)
		x.substitute(nodes, &strings.Builder{})
		for _, key := range x.vars.exceeded {
			errs = append(errs, newDepthError(key, ec.maxDepth))
		}
	}
	return errs
}

func (e *Engine) newExpansion(ec *Context, tmpl string) *expansion {
	if ec == nil {
		ec = NewContext(nil)
	}
	ec.start()
	return &expansion{
		registry: e.registry,
		ec:       ec,
		vars:     &variables{ec: ec},
		logger:   e.logger,
	}
}

// warnExceeded logs one warning per expansion that ran out of depth.
func (e *Engine) warnExceeded(x *expansion, tmpl string) {
	if len(x.vars.exceeded) == 0 {
		return
	}
	err := newDepthError(x.vars.exceeded[0], x.ec.maxDepth)
	e.logger.Warn(err.Message,
		"code", string(err.Code),
		"template", tmpl,
		"max_depth", x.ec.maxDepth,
		"variables", x.vars.exceeded)
}
