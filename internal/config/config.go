// Package config loads analytics configurations.
//
// A configuration names a vendor, its variables and its request templates:
//
//	vendor:   "googleanalytics"
//	vars:     {account: "UA-1", tags: ["a", "b"]}
//	requests: {base: "https://example.com/collect?tid=${account}", pageview: "${base}&t=pageview"}
//	freeze:   ["clientId"]
//	maxDepth: 2
//	noEncode: false
//
// Configurations are written in CUE, validated against an embedded schema,
// or as AMP-style JSON, where unrelated keys such as triggers and transport
// are ignored and requests may be objects with a baseUrl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/beacon/internal/expand"
)

// Analytics is one analytics configuration.
type Analytics struct {
	// Vendor is the session type used by SESSION_* macros.
	Vendor string

	// Vars holds strings, numbers, booleans or lists of those.
	Vars map[string]any

	// Requests maps request names to templates.
	Requests map[string]string

	Freeze []string

	// MaxDepth is nil when the configuration leaves the default.
	MaxDepth *int

	NoEncode bool
}

// LoadError reports a problem in a configuration file.
type LoadError struct {
	Path    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
}

// Load reads a configuration, choosing the format by file extension.
func Load(path string) (*Analytics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		return ParseCUE(data, path)
	case ".json":
		return ParseJSON(data, path)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported config format %q", ext)}
	}
}

func newAnalytics() *Analytics {
	return &Analytics{
		Vars:     make(map[string]any),
		Requests: make(map[string]string),
	}
}

// ContextOptions returns the expansion options the configuration sets.
func (a *Analytics) ContextOptions() []expand.ContextOption {
	var opts []expand.ContextOption
	if a.MaxDepth != nil {
		opts = append(opts, expand.WithMaxDepth(*a.MaxDepth))
	}
	if a.NoEncode {
		opts = append(opts, expand.WithNoEncode())
	}
	if len(a.Freeze) > 0 {
		opts = append(opts, expand.WithFrozen(a.Freeze...))
	}
	return opts
}

// Context returns a new expansion context over the configuration's
// variables.
func (a *Analytics) Context() *expand.Context {
	return expand.NewContext(a.Vars, a.ContextOptions()...)
}

// RequestNames returns the request names in sorted order.
func (a *Analytics) RequestNames() []string {
	names := make([]string, 0, len(a.Requests))
	for name := range a.Requests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
