package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// ParseCUE parses a CUE configuration and validates it against the
// #Analytics schema. path is used in error positions.
func ParseCUE(data []byte, path string) (*Analytics, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}
	v = schema.LookupPath(cue.ParsePath("#Analytics")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, err)
	}

	a := newAnalytics()

	if f := v.LookupPath(cue.ParsePath("vendor")); f.Exists() {
		s, err := f.String()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		a.Vendor = s
	}

	if f := v.LookupPath(cue.ParsePath("vars")); f.Exists() {
		iter, err := f.Fields()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		for iter.Next() {
			val, err := cueVar(iter.Value())
			if err != nil {
				return nil, &LoadError{Path: path, Field: "vars." + iter.Selector().Unquoted(), Message: err.Error(), Pos: iter.Value().Pos()}
			}
			a.Vars[iter.Selector().Unquoted()] = val
		}
	}

	if f := v.LookupPath(cue.ParsePath("requests")); f.Exists() {
		iter, err := f.Fields()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		for iter.Next() {
			req, _ := iter.Value().Default()
			if req.Kind() == cue.StructKind {
				req = req.LookupPath(cue.ParsePath("baseUrl"))
			}
			s, err := req.String()
			if err != nil {
				return nil, formatCUEError(path, err)
			}
			a.Requests[iter.Selector().Unquoted()] = s
		}
	}

	if f := v.LookupPath(cue.ParsePath("freeze")); f.Exists() {
		list, err := f.List()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(path, err)
			}
			a.Freeze = append(a.Freeze, s)
		}
	}

	if f := v.LookupPath(cue.ParsePath("maxDepth")); f.Exists() {
		n, err := f.Int64()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		depth := int(n)
		a.MaxDepth = &depth
	}

	if f := v.LookupPath(cue.ParsePath("noEncode")); f.Exists() {
		b, err := f.Bool()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		a.NoEncode = b
	}

	return a, nil
}

// cueVar converts a variable value to a scalar or a []any of scalars.
func cueVar(v cue.Value) (any, error) {
	v, _ = v.Default()
	if v.Kind() != cue.ListKind {
		return cueScalar(v)
	}
	list, err := v.List()
	if err != nil {
		return nil, err
	}
	out := []any{}
	for list.Next() {
		e, err := cueScalar(list.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func cueScalar(v cue.Value) (any, error) {
	v, _ = v.Default()
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		return v.Float64()
	case cue.BoolKind:
		return v.Bool()
	}
	return nil, fmt.Errorf("unsupported value kind %s", v.Kind())
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Path: path, Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
