package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string    // Assertion type for categorization
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Warnings []Warning // All warnings for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Warnings) > 0 {
		fmt.Fprintf(&buf, "\nWarnings:\n")
		for i, w := range e.Warnings {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, w.Message, w.Attrs)
		}
	}

	return buf.String()
}

func assertOutputContains(result *Result, assertion Assertion, want bool) error {
	if strings.Contains(result.Output, assertion.Value) == want {
		return nil
	}
	expected := fmt.Sprintf("output containing %q", assertion.Value)
	if !want {
		expected = fmt.Sprintf("output without %q", assertion.Value)
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: expected,
		Actual:   fmt.Sprintf("%q", result.Output),
	}
}

// assertWarning checks that a warning with the message was logged and that
// its attributes include the expected ones.
func assertWarning(warnings []Warning, assertion Assertion) error {
	for _, w := range warnings {
		if w.Message == assertion.Message && matchAttrs(w.Attrs, assertion.Attrs) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertWarning,
		Expected: fmt.Sprintf("warning %q with attrs %v", assertion.Message, assertion.Attrs),
		Actual:   "not logged",
		Warnings: warnings,
	}
}

func assertWarningCount(warnings []Warning, assertion Assertion) error {
	if len(warnings) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertWarningCount,
		Expected: fmt.Sprintf("%d warnings", assertion.Count),
		Actual:   fmt.Sprintf("%d warnings", len(warnings)),
		Warnings: warnings,
	}
}

func assertDiagnostic(diagnostics []string, assertion Assertion) error {
	if slices.Contains(diagnostics, assertion.Code) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Expected: fmt.Sprintf("diagnostic %s", assertion.Code),
		Actual:   fmt.Sprintf("%v", diagnostics),
	}
}

// matchAttrs reports whether actual contains every expected attribute.
// Extra keys in actual are OK (subset match).
func matchAttrs(actual, expected map[string]string) bool {
	for key, want := range expected {
		if got, ok := actual[key]; !ok || got != want {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(result, assertion, true)
		case AssertOutputNotContains:
			err = assertOutputContains(result, assertion, false)
		case AssertWarning:
			err = assertWarning(result.Warnings, assertion)
		case AssertWarningCount:
			err = assertWarningCount(result.Warnings, assertion)
		case AssertDiagnostic:
			err = assertDiagnostic(result.Diagnostics, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
