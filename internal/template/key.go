package template

import "regexp"

// keyPattern splits a variable key into a name and a trailing
// parenthesised argument list. The list may not contain `)`, so keys such
// as `AAA(BBB(1))` do not split.
var keyPattern = regexp.MustCompile(`^(?:(\S*)(\([^)]*\))|[\s\S]+)$`)

// SplitKey splits key into a name and its argument list, parentheses
// included. A key without a trailing list is returned whole as the name.
//
//	SplitKey("clientId(scope)") // "clientId", "(scope)"
//	SplitKey("foo bar")         // "foo bar", ""
func SplitKey(key string) (name, argList string) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil || m[2] == "" {
		return key, ""
	}
	return m[1], m[2]
}
