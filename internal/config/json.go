package config

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// ParseJSON parses an AMP-style JSON configuration. name is used in
// errors.
func ParseJSON(data []byte, name string) (*Analytics, error) {
	if !gjson.ValidBytes(data) {
		return nil, &LoadError{Path: name, Message: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &LoadError{Path: name, Message: "config must be a JSON object"}
	}

	a := newAnalytics()
	fail := func(field, format string, args ...any) error {
		return &LoadError{Path: name, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	if v := root.Get("vendor"); v.Exists() {
		if v.Type != gjson.String {
			return nil, fail("vendor", "must be a string")
		}
		a.Vendor = v.String()
	}

	var err error
	root.Get("vars").ForEach(func(k, v gjson.Result) bool {
		var val any
		if val, err = jsonVar(v); err != nil {
			err = fail("vars."+k.String(), "%v", err)
			return false
		}
		if val != nil {
			a.Vars[k.String()] = val
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	root.Get("requests").ForEach(func(k, v gjson.Result) bool {
		if v.IsObject() {
			v = v.Get("baseUrl")
		}
		if v.Type != gjson.String {
			err = fail("requests."+k.String(), "must be a string or an object with a baseUrl")
			return false
		}
		a.Requests[k.String()] = v.String()
		return true
	})
	if err != nil {
		return nil, err
	}

	if v := root.Get("freeze"); v.Exists() {
		if !v.IsArray() {
			return nil, fail("freeze", "must be an array of strings")
		}
		for _, e := range v.Array() {
			if e.Type != gjson.String {
				return nil, fail("freeze", "must be an array of strings")
			}
			a.Freeze = append(a.Freeze, e.String())
		}
	}

	if v := root.Get("maxDepth"); v.Exists() {
		f := v.Float()
		if v.Type != gjson.Number || f < 0 || f != math.Trunc(f) {
			return nil, fail("maxDepth", "must be a non-negative integer")
		}
		if f > math.MaxInt32 {
			return nil, fail("maxDepth", "must be at most %d", math.MaxInt32)
		}
		depth := int(f)
		a.MaxDepth = &depth
	}

	if v := root.Get("noEncode"); v.Exists() {
		if !v.IsBool() {
			return nil, fail("noEncode", "must be a boolean")
		}
		a.NoEncode = v.Bool()
	}

	return a, nil
}

// jsonVar converts a JSON variable value. null leaves the variable unbound.
func jsonVar(v gjson.Result) (any, error) {
	if !v.IsArray() {
		return jsonScalar(v)
	}
	out := []any{}
	for _, e := range v.Array() {
		s, err := jsonScalar(e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func jsonScalar(v gjson.Result) (any, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.String:
		return v.String(), nil
	case gjson.Number:
		return v.Float(), nil
	case gjson.True, gjson.False:
		return v.Bool(), nil
	}
	return nil, fmt.Errorf("unsupported value %s", v.Raw)
}
