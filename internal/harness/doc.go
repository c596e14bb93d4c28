// Package harness runs template expansion scenarios.
//
// A scenario expands one template against a set of variables, stub macros
// and collaborator state, then checks the output, the warnings that were
// logged and the diagnostics Check reports.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	template: "a=${a}&id=CLIENT_ID(x)&c=COOKIE(_ga)"
//	vars: { a: "x y" }
//	freeze: [frozen]
//	max_depth: 2
//	no_encode: false
//	macros:
//	  CLIENT_ID: { value: "abc" }
//	  SLOW: { value: "later", deferred: true }
//	state:
//	  vendor: googleanalytics
//	  cookies: { _ga: "GA1.2.3" }
//	  linker: { gl: { cid: "abc" } }
//	  video: { v1: { currentTime: 12.5 } }
//	  privacy: { sandboxed: true }
//	expect: "a=x%20y&id=abc&c="
//	assertions:
//	  - type: warning
//	    message: "deferred macro failed"
//	    attrs: { macro: SLOW }
//
// # Assertion Types
//
//   - output_contains: the output contains value
//   - output_not_contains: the output does not contain value
//   - warning: a warning with message was logged; attrs is a subset match
//   - warning_count: exactly count warnings were logged
//   - diagnostic: Check reported a diagnostic with code
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store, a manual clock fixed
// at 2024-01-01T00:00:00Z and a fixed session id, so outputs and warnings
// are identical across runs and can be compared against golden files.
package harness
