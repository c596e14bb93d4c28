package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one expansion test.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Template is the template to expand.
	Template string `yaml:"template"`

	// Vars are the variable bindings. Values may be scalars or lists.
	Vars map[string]any `yaml:"vars,omitempty"`

	Freeze []string `yaml:"freeze,omitempty"`

	// MaxDepth overrides the default recursion depth when set.
	MaxDepth *int `yaml:"max_depth,omitempty"`

	NoEncode bool `yaml:"no_encode,omitempty"`

	// Macros registers stub macros alongside the built-ins.
	Macros map[string]StubMacro `yaml:"macros,omitempty"`

	// State seeds the collaborator store. When nil, collaborator macros
	// are not registered.
	State *State `yaml:"state,omitempty"`

	// Expect is the expected output. If nil, only assertions are checked.
	Expect *string `yaml:"expect,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// StubMacro is a macro with a fixed result.
type StubMacro struct {
	Value string `yaml:"value"`

	// Deferred makes the macro resolve asynchronously.
	Deferred bool `yaml:"deferred,omitempty"`

	// Error makes a deferred macro fail with this message.
	Error string `yaml:"error,omitempty"`
}

// State is the collaborator state a scenario starts from.
type State struct {
	// Vendor is the default session type for SESSION_* macros.
	Vendor string `yaml:"vendor,omitempty"`

	Cookies map[string]string         `yaml:"cookies,omitempty"`
	Linker  map[string]map[string]any `yaml:"linker,omitempty"`
	Video   map[string]map[string]any `yaml:"video,omitempty"`
	Privacy Privacy                   `yaml:"privacy,omitempty"`
}

// Privacy restricts cookie access.
type Privacy struct {
	CrossOriginFrame bool `yaml:"cross_origin_frame,omitempty"`
	ProxyCache       bool `yaml:"proxy_cache,omitempty"`
	Sandboxed        bool `yaml:"sandboxed,omitempty"`
}

// Assertion validates the output, the warnings or the diagnostics.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": Output contains Value
	// - "output_not_contains": Output does not contain Value
	// - "warning": A warning with Message and Attrs (subset) was logged
	// - "warning_count": Exactly Count warnings were logged
	// - "diagnostic": Check reported Code
	Type string `yaml:"type"`

	// Value is the substring for output assertions.
	Value string `yaml:"value,omitempty"`

	// Message is the warning message (used by warning).
	Message string `yaml:"message,omitempty"`

	// Attrs are expected warning attributes, compared as strings.
	Attrs map[string]string `yaml:"attrs,omitempty"`

	// Count is the expected number of warnings (used by warning_count).
	Count int `yaml:"count,omitempty"`

	// Code is the diagnostic code (used by diagnostic).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains    = "output_contains"
	AssertOutputNotContains = "output_not_contains"
	AssertWarning           = "warning"
	AssertWarningCount      = "warning_count"
	AssertDiagnostic        = "diagnostic"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Template == "" {
		return fmt.Errorf("template is required")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	if s.MaxDepth != nil && *s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	for name, m := range s.Macros {
		if m.Error != "" && !m.Deferred {
			return fmt.Errorf("macros.%s: error requires deferred", name)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains, AssertOutputNotContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertWarning:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for warning", index)
		}
	case AssertWarningCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for warning_count", index)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
