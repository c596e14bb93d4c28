package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Output = "a=x%20y&b="
	r.Warnings = []Warning{
		{Message: "deferred macro failed", Attrs: map[string]string{"macro": "FAIL", "error": "boom"}},
	}
	r.Diagnostics = []string{"UNKNOWN_MACRO"}
	return r
}

func TestEvaluateAssertionsPass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertOutputContains, Value: "x%20y"},
		{Type: AssertOutputNotContains, Value: "x y"},
		{Type: AssertWarning, Message: "deferred macro failed"},
		{Type: AssertWarning, Message: "deferred macro failed", Attrs: map[string]string{"macro": "FAIL"}},
		{Type: AssertWarningCount, Count: 1},
		{Type: AssertDiagnostic, Code: "UNKNOWN_MACRO"},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertionsFail(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "output contains",
			assertion: Assertion{Type: AssertOutputContains, Value: "zzz"},
			want:      `output containing "zzz"`,
		},
		{
			name:      "output not contains",
			assertion: Assertion{Type: AssertOutputNotContains, Value: "a="},
			want:      `output without "a="`,
		},
		{
			name:      "warning message",
			assertion: Assertion{Type: AssertWarning, Message: "other"},
			want:      `warning "other"`,
		},
		{
			name:      "warning attrs",
			assertion: Assertion{Type: AssertWarning, Message: "deferred macro failed", Attrs: map[string]string{"macro": "SLOW"}},
			want:      "not logged",
		},
		{
			name:      "warning count",
			assertion: Assertion{Type: AssertWarningCount, Count: 0},
			want:      "Actual: 1 warnings",
		},
		{
			name:      "diagnostic",
			assertion: Assertion{Type: AssertDiagnostic, Code: "MALFORMED_TEMPLATE"},
			want:      "diagnostic MALFORMED_TEMPLATE",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "nope"},
			want:      `unknown assertion type "nope"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionErrorIncludesWarnings(t *testing.T) {
	err := &AssertionError{
		Type:     AssertWarningCount,
		Expected: "0 warnings",
		Actual:   "1 warnings",
		Warnings: sampleResult().Warnings,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: warning_count")
	assert.Contains(t, msg, "[1] deferred macro failed")
}

func TestMatchAttrs(t *testing.T) {
	actual := map[string]string{"a": "1", "b": "2"}
	assert.True(t, matchAttrs(actual, nil))
	assert.True(t, matchAttrs(actual, map[string]string{"a": "1"}))
	assert.False(t, matchAttrs(actual, map[string]string{"a": "2"}))
	assert.False(t, matchAttrs(actual, map[string]string{"c": "1"}))
	assert.False(t, matchAttrs(nil, map[string]string{"a": "1"}))
}
