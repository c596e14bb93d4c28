package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures everything observable about a scenario execution.
type Snapshot struct {
	ScenarioName string    `json:"scenario_name"`
	Output       string    `json:"output"`
	Warnings     []Warning `json:"warnings"`
	Diagnostics  []string  `json:"diagnostics"`
}

// MarshalSnapshot renders the result as indented JSON. Map keys are sorted
// and HTML characters are not escaped, so templates stay readable.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Output:       result.Output,
		Warnings:     result.Warnings,
		Diagnostics:  result.Diagnostics,
	}
	if snapshot.Warnings == nil {
		snapshot.Warnings = []Warning{}
	}
	if snapshot.Diagnostics == nil {
		snapshot.Diagnostics = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
