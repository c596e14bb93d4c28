package macro

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/beacon/internal/ctxlog"
)

// RegisterBuiltins registers the string and logic macros that need no
// collaborator.
func RegisterBuiltins(r *Registry) error {
	return registerAll(r, []entry{
		{"IF", Sync(ifMacro)},
		{"DEFAULT", Sync(defaultMacro)},
		{"SUBSTR", Sync(substrMacro)},
		{"TRIM", Sync(func(_ context.Context, args []string) string {
			return strings.TrimSpace(argAt(args, 0))
		})},
		{"TOLOWERCASE", Sync(func(_ context.Context, args []string) string {
			return cases.Lower(language.Und).String(argAt(args, 0))
		})},
		{"TOUPPERCASE", Sync(func(_ context.Context, args []string) string {
			return cases.Upper(language.Und).String(argAt(args, 0))
		})},
		{"NOT", Sync(func(_ context.Context, args []string) string {
			return strconv.FormatBool(argAt(args, 0) == "")
		})},
		{"EQUALS", Sync(func(_ context.Context, args []string) string {
			return strconv.FormatBool(argAt(args, 0) == argAt(args, 1))
		})},
		{"HASH", Sync(hashMacro)},
		{"BASE64", Sync(func(_ context.Context, args []string) string {
			return base64.StdEncoding.EncodeToString([]byte(argAt(args, 0)))
		})},
		{"REPLACE", Sync(replaceMacro)},
		{"MATCH", Sync(matchMacro)},
	})
}

// truthy follows the string coercion of the analytics runtime.
func truthy(s string) bool {
	switch s {
	case "", "false", "null", "undefined":
		return false
	}
	return true
}

func ifMacro(_ context.Context, args []string) string {
	if truthy(argAt(args, 0)) {
		return argAt(args, 1)
	}
	return argAt(args, 2)
}

func defaultMacro(_ context.Context, args []string) string {
	if v := argAt(args, 0); v != "" {
		return v
	}
	return argAt(args, 1)
}

// substrMacro implements SUBSTR(str, start, length?) over code points.
// A negative start counts back from the end.
func substrMacro(ctx context.Context, args []string) string {
	runes := []rune(argAt(args, 0))
	n := len(runes)

	start, ok := parseNumber(argAt(args, 1))
	if !ok {
		warnArg(ctx, "SUBSTR", 1, argAt(args, 1), "SUBSTR start must be a number")
		start = 0
	}
	length := n
	if len(args) > 2 && args[2] != "" {
		l, ok := parseNumber(args[2])
		if !ok {
			warnArg(ctx, "SUBSTR", 2, args[2], "SUBSTR length must be a number")
		} else {
			length = l
		}
	}

	if start < 0 {
		start = max(n+start, 0)
	}
	if start >= n || length <= 0 {
		return ""
	}
	end := min(start+length, n)
	return string(runes[start:end])
}

func hashMacro(_ context.Context, args []string) string {
	sum := sha512.Sum384([]byte(argAt(args, 0)))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// replaceMacro implements REPLACE(str, pattern, replacement?). Every match
// of pattern is replaced; an unparseable pattern is matched literally.
func replaceMacro(ctx context.Context, args []string) string {
	str := argAt(args, 0)
	pattern := argAt(args, 1)
	if pattern == "" {
		warnArg(ctx, "REPLACE", 1, pattern, "REPLACE requires a pattern")
		return str
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		warnArg(ctx, "REPLACE", 1, pattern, "REPLACE pattern is not a valid regular expression, matching literally")
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}
	return re.ReplaceAllString(str, argAt(args, 2))
}

// matchMacro implements MATCH(str, pattern, index?). It returns the full
// first match for index 0 and the index-th capture group otherwise.
func matchMacro(ctx context.Context, args []string) string {
	str := argAt(args, 0)
	pattern := argAt(args, 1)

	index := 0
	if raw := argAt(args, 2); raw != "" {
		n, ok := parseIntPrefix(raw)
		if !ok || n < 0 {
			warnArg(ctx, "MATCH", 2, raw, "Third argument in MATCH macro must be a number >= 0")
			n = 0
		}
		index = n
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("MATCH pattern is not a valid regular expression",
			"code", CodeInvalidArgument,
			"macro", "MATCH",
			"pattern", pattern,
			"error", err)
		return ""
	}
	m := re.FindStringSubmatchIndex(str)
	if m == nil || 2*index+1 >= len(m) || m[2*index] < 0 {
		return ""
	}
	return str[m[2*index]:m[2*index+1]]
}

// parseNumber converts s to an integer the way a numeric coercion followed
// by truncation would. Blank input is 0.
func parseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		if f < 0 {
			return math.MinInt32, true
		}
		return math.MaxInt32, true
	}
	return int(f), true
}

// parseIntPrefix reads a leading base-10 integer, ignoring anything after
// it, so "10px" is 10. ok is false when s has no leading digits.
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n < math.MaxInt32 {
			n = n*10 + int(s[i]-'0')
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
