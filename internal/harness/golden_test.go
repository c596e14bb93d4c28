package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenScenarios(t *testing.T) {
	for _, name := range []string{
		"builtins",
		"collaborators",
		"deferred_failure",
		"list_variables",
		"nested_variables",
		"unknown_macro",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestMarshalSnapshot(t *testing.T) {
	result := NewResult()
	result.Output = "a=<b>&c"
	result.Warnings = nil
	result.Diagnostics = nil

	data, err := MarshalSnapshot("snap", result)
	require.NoError(t, err)

	want := "{\n" +
		"  \"scenario_name\": \"snap\",\n" +
		"  \"output\": \"a=<b>&c\",\n" +
		"  \"warnings\": [],\n" +
		"  \"diagnostics\": []\n" +
		"}\n"
	assert.Equal(t, want, string(data))
}
