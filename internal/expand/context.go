package expand

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/beacon/internal/resolve"
)

// DefaultMaxDepth is how many levels of nested variable references are
// expanded when the caller does not say otherwise.
const DefaultMaxDepth = 2

// ErrContextInUse is returned by Freeze once the Context has been used for
// an expansion.
var ErrContextInUse = errors.New("expansion context already in use")

// Context holds the bindings and settings for expanding templates.
//
// A Context is configured, then used. Once the first expansion starts it is
// read-only and may be shared by concurrent expansions.
type Context struct {
	vars     map[string]binding
	maxDepth int
	encode   bool

	mu      sync.Mutex
	frozen  map[string]struct{}
	started bool
}

// binding is a normalized variable value: a scalar or a list.
type binding struct {
	scalar string
	list   []string
	isList bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithMaxDepth sets how many levels of variables nested inside variable
// values are expanded. Negative values are treated as 0.
//
// Default: 2 (DefaultMaxDepth)
func WithMaxDepth(n int) ContextOption {
	return func(c *Context) {
		c.maxDepth = max(n, 0)
	}
}

// WithNoEncode disables percent-encoding of substituted values and
// top-level macro results.
func WithNoEncode() ContextOption {
	return func(c *Context) {
		c.encode = false
	}
}

// WithFrozen freezes the named variables, like calling Freeze for each.
func WithFrozen(names ...string) ContextOption {
	return func(c *Context) {
		for _, n := range names {
			c.frozen[n] = struct{}{}
		}
	}
}

// NewContext creates a Context over vars.
//
// Values may be strings, string or any slices (lists), numbers, booleans,
// or nil. Nil leaves the variable unbound. Other values are formatted the
// way a browser would stringify them. The map is copied.
func NewContext(vars map[string]any, opts ...ContextOption) *Context {
	c := &Context{
		vars:     make(map[string]binding, len(vars)),
		maxDepth: DefaultMaxDepth,
		encode:   true,
		frozen:   make(map[string]struct{}),
	}
	for name, v := range vars {
		if b, ok := normalize(v); ok {
			c.vars[name] = b
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalize(v any) (binding, bool) {
	switch x := v.(type) {
	case nil:
		return binding{}, false
	case string:
		return binding{scalar: x}, true
	case []string:
		return binding{list: append([]string(nil), x...), isList: true}, true
	case []any:
		list := make([]string, len(x))
		for i, e := range x {
			list[i] = resolve.Format(e)
		}
		return binding{list: list, isList: true}, true
	}
	return binding{scalar: resolve.Format(v)}, true
}

// Freeze keeps the named variable from being substituted: `${name}` stays
// in the output verbatim. It must be called before the first expansion.
func (c *Context) Freeze(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("freeze %s: %w", name, ErrContextInUse)
	}
	c.frozen[name] = struct{}{}
	return nil
}

// start marks the Context read-only.
func (c *Context) start() {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

// MaxDepth returns the recursion budget.
func (c *Context) MaxDepth() int { return c.maxDepth }

// Encode reports whether values are percent-encoded.
func (c *Context) Encode() bool { return c.encode }

// IsFrozen reports whether name is frozen.
func (c *Context) IsFrozen(name string) bool {
	_, ok := c.frozen[name]
	return ok
}

// Frozen returns the frozen names in sorted order.
func (c *Context) Frozen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.frozen))
	for n := range c.frozen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is bound.
func (c *Context) Has(name string) bool {
	_, ok := c.vars[name]
	return ok
}

func (c *Context) lookup(name string) (binding, bool) {
	b, ok := c.vars[name]
	return b, ok
}
