package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/roach88/beacon/internal/config"
	"github.com/roach88/beacon/internal/expand"
	"github.com/roach88/beacon/internal/macro"
	"github.com/roach88/beacon/internal/session"
	"github.com/roach88/beacon/internal/store"
	"github.com/roach88/beacon/internal/testutil"
)

// Start is the time every scenario's clock is fixed at.
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SessionID is the id of every session a scenario creates.
const SessionID = "test-session"

// Harness is the scenario execution environment.
type Harness struct {
	store   *store.Store
	clock   *testutil.ManualClock
	ids     *testutil.FixedIDGenerator
	logger  *slog.Logger
	capture *testutil.LogCapture
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and seed collaborator state
// 2. Register built-ins, collaborator macros and stubs
// 3. Collect Check diagnostics
// 4. Expand the template
// 5. Compare the output and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger, capture := testutil.NewLogCapture()
	h := &Harness{
		store:   st,
		clock:   testutil.NewManualClock(Start),
		ids:     testutil.NewFixedIDGenerator(SessionID),
		logger:  logger,
		capture: capture,
	}

	ctx := context.Background()

	reg, err := h.registry(ctx, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to register macros: %w", err)
	}
	eng := expand.New(reg, expand.WithLogger(logger))
	ec := scenario.analytics().Context()

	result := NewResult()
	for _, d := range eng.Check(scenario.Template, ec) {
		result.Diagnostics = append(result.Diagnostics, string(d.Code))
	}

	out, err := eng.ExpandString(ctx, scenario.Template, ec)
	if err != nil {
		return nil, fmt.Errorf("failed to expand template: %w", err)
	}
	result.Output = out
	result.Warnings = h.warnings()

	if scenario.Expect != nil && out != *scenario.Expect {
		result.AddError(fmt.Sprintf("output mismatch\n  Expected: %q\n  Actual: %q", *scenario.Expect, out))
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// analytics returns the scenario's expansion settings as an analytics
// configuration, so scenarios build contexts the way configs do.
func (s *Scenario) analytics() *config.Analytics {
	return &config.Analytics{
		Vars:     s.Vars,
		Freeze:   s.Freeze,
		MaxDepth: s.MaxDepth,
		NoEncode: s.NoEncode,
	}
}

// registry builds a sealed registry for the scenario.
func (h *Harness) registry(ctx context.Context, s *Scenario) (*macro.Registry, error) {
	reg := macro.NewRegistry()
	if err := macro.RegisterBuiltins(reg); err != nil {
		return nil, err
	}

	if s.State != nil {
		if err := h.seed(ctx, s.State); err != nil {
			return nil, err
		}
		err := macro.RegisterCollaborators(reg, macro.Collaborators{
			Linker:  h.store,
			Cookies: h.store,
			Video:   h.store,
			Privacy: macro.Privacy{
				CrossOriginFrame: s.State.Privacy.CrossOriginFrame,
				ProxyCache:       s.State.Privacy.ProxyCache,
				Sandboxed:        s.State.Privacy.Sandboxed,
			},
			Sessions: session.NewManager(h.store,
				session.WithClock(h.clock),
				session.WithIDGenerator(h.ids),
				session.WithLogger(h.logger)),
			Vendor: s.State.Vendor,
		})
		if err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(s.Macros))
	for name := range s.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := reg.Register(name, stub(s.Macros[name])); err != nil {
			return nil, err
		}
	}

	reg.Seal()
	return reg, nil
}

// seed writes the scenario's collaborator state to the store.
func (h *Harness) seed(ctx context.Context, s *State) error {
	for name, value := range s.Cookies {
		if err := h.store.PutCookie(ctx, name, value); err != nil {
			return err
		}
	}
	for ns, params := range s.Linker {
		for key, v := range params {
			if err := h.store.PutLinkerParam(ctx, ns, key, v); err != nil {
				return err
			}
		}
	}
	for id, props := range s.Video {
		for prop, v := range props {
			if err := h.store.PutVideoState(ctx, id, prop, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func stub(m StubMacro) macro.Handler {
	if !m.Deferred {
		return macro.Const(m.Value)
	}
	return macro.Async(func(context.Context, []string) (string, error) {
		if m.Error != "" {
			return "", errors.New(m.Error)
		}
		return m.Value, nil
	})
}

// warnings returns the captured warnings with attributes as strings.
func (h *Harness) warnings() []Warning {
	out := []Warning{}
	for _, r := range h.capture.AtLevel(slog.LevelWarn) {
		w := Warning{Message: r.Message}
		if len(r.Attrs) > 0 {
			w.Attrs = make(map[string]string, len(r.Attrs))
			for k, v := range r.Attrs {
				w.Attrs[k] = fmt.Sprint(v)
			}
		}
		out = append(out, w)
	}
	return out
}
