package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/beacon/internal/expand"
	"github.com/roach88/beacon/internal/resolve"
	"github.com/roach88/beacon/internal/template"
)

// MaxRequestDepth bounds how deeply requests may reference each other.
const MaxRequestDepth = 5

// Request is one expanded request of a configuration.
type Request struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	URL      string `json:"url"`
}

// ResolveRequests substitutes request references in every request.
//
// `${name}` is replaced by the request called name, unencoded, up to
// MaxRequestDepth levels deep. References that are also variables, or that
// name no request, are left in place for variable expansion.
func (a *Analytics) ResolveRequests() map[string]string {
	out := make(map[string]string, len(a.Requests))
	for name, tmpl := range a.Requests {
		out[name] = a.resolveRefs(tmpl, MaxRequestDepth)
	}
	return out
}

func (a *Analytics) resolveRefs(tmpl string, depth int) string {
	if depth == 0 {
		return tmpl
	}
	var b strings.Builder
	for _, n := range template.Parse(tmpl, template.ScanVariables) {
		if ref, ok := a.requestRef(n); ok {
			b.WriteString(a.resolveRefs(ref, depth-1))
			continue
		}
		b.WriteString(n.Source())
	}
	return b.String()
}

// requestRef returns the template of the request n refers to.
func (a *Analytics) requestRef(n template.Node) (string, bool) {
	v, ok := n.(template.Variable)
	if !ok {
		return "", false
	}
	if _, isVar := a.Vars[v.Key]; isVar {
		return "", false
	}
	ref, ok := a.Requests[v.Key]
	return ref, ok
}

// ExpandRequests expands every request of a in name order. Requests are
// expanded concurrently over one shared context.
func ExpandRequests(ctx context.Context, e *expand.Engine, a *Analytics) ([]Request, error) {
	resolved := a.ResolveRequests()
	names := a.RequestNames()
	ec := a.Context()

	values := make([]resolve.Value, len(names))
	for i, name := range names {
		values[i] = e.Expand(ctx, resolved[name], ec)
	}
	urls, err := resolve.All(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("expand requests: %w", err)
	}

	out := make([]Request, len(names))
	for i, name := range names {
		out[i] = Request{Name: name, Template: resolved[name], URL: urls[i]}
	}
	return out, nil
}
