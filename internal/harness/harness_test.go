package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRunScenarioFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		s, err := LoadScenario(f)
		require.NoError(t, err, f)

		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunOutputMismatch(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "mismatch",
		Description: "wrong expectation",
		Template:    "$TRIM( a )",
		Expect:      strPtr("b"),
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, "a", result.Output)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "output mismatch")
}

func TestRunFailedAssertion(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "assertion",
		Description: "failing assertion",
		Template:    "x",
		Assertions:  []Assertion{{Type: AssertOutputContains, Value: "y"}},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
}

func TestRunWithoutStateLeavesCollaboratorsUnregistered(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "no_state",
		Description: "collaborator macros need state",
		Template:    "c=COOKIE(_ga)",
		Expect:      strPtr("c=COOKIE(_ga)"),
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"UNKNOWN_MACRO"}, result.Diagnostics)
}

func TestRunStubShadowingBuiltinFails(t *testing.T) {
	_, err := Run(&Scenario{
		Name:        "shadow",
		Description: "stubs cannot replace built-ins",
		Template:    "TRIM(x)",
		Macros:      map[string]StubMacro{"TRIM": {Value: "y"}},
		Expect:      strPtr("y"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register macros")
}

func TestRunUnsupportedStateValue(t *testing.T) {
	_, err := Run(&Scenario{
		Name:        "bad_state",
		Description: "linker values must be scalars",
		Template:    "LINKER_PARAM(gl, cid)",
		State: &State{
			Linker: map[string]map[string]any{"gl": {"cid": []any{"a"}}},
		},
		Expect: strPtr(""),
	})
	require.Error(t, err)
}

func TestRunIsDeterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "collaborators.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Warnings, second.Warnings)
}
