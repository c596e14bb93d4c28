package harness

// Warning is one warning logged while expanding.
type Warning struct {
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Output is the expanded template.
	Output string `json:"output"`

	// Warnings are the warnings logged during expansion, in order.
	Warnings []Warning `json:"warnings"`

	// Diagnostics are the codes Check reported for the template.
	Diagnostics []string `json:"diagnostics"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Warnings:    []Warning{},
		Diagnostics: []string{},
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
