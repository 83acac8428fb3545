package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/config"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
)

// calls records the order in which mocks were invoked.
type calls []string

type mockDockingController struct {
	log     *calls
	summary *driving.DockingSummary
	err     error
}

func (m *mockDockingController) Run(_ context.Context) (*driving.DockingSummary, error) {
	*m.log = append(*m.log, "dock")
	return m.summary, m.err
}

type mockWashingEngine struct {
	log     *calls
	summary *driving.WashingSummary
	err     error
}

func (m *mockWashingEngine) Run(_ context.Context) (*driving.WashingSummary, error) {
	*m.log = append(*m.log, "wash")
	return m.summary, m.err
}

type mockComplexAssembler struct {
	log     *calls
	summary *driving.AssembleSummary
	err     error
}

func (m *mockComplexAssembler) Assemble(_ context.Context) (*driving.AssembleSummary, error) {
	*m.log = append(*m.log, "assemble")
	return m.summary, m.err
}

type mockStatusReporter struct {
	cp    *domain.Checkpoint
	found bool
	err   error
}

func (m *mockStatusReporter) Status(_ context.Context) (*domain.Checkpoint, bool, error) {
	return m.cp, m.found, m.err
}

type mockSetupValidator struct {
	issues []string
	err    error
}

func (m *mockSetupValidator) Validate(_ context.Context) ([]string, error) {
	return m.issues, m.err
}

// testServices returns mocks sharing one call log.
func testServices() (*Services, *calls) {
	log := &calls{}
	s := &Services{
		Docking: &mockDockingController{log: log, summary: &driving.DockingSummary{RunID: "run-1"}},
		Washing: &mockWashingEngine{log: log, summary: &driving.WashingSummary{}},
		Assembler: &mockComplexAssembler{log: log, summary: &driving.AssembleSummary{
			Ref: domain.NewArtifactRef(domain.ArtifactComplex, "run-1-2"),
		}},
		Status: &mockStatusReporter{cp: domain.NewCheckpoint()},
		Setup:  &mockSetupValidator{},
	}
	s.Reset = func(context.Context) error {
		*log = append(*log, "reset")
		return nil
	}
	return s, log
}

// setupCLITest installs s as the wired services, resets flag state and
// captures output. Everything is restored when the test ends.
func setupCLITest(t *testing.T, s *Services) *bytes.Buffer {
	t.Helper()
	oldServices, oldWire, oldTerminal := services, wireServices, isTerminal

	services = nil
	wireServices = func(context.Context, *config.Config, RunOptions) (*Services, error) {
		return s, nil
	}
	isTerminal = func(io.Writer) bool { return false }
	cfgFile, dryRun, resetCheckpoint, verbose = "", false, false, false
	statusWatch, configForce = false, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		services, wireServices, isTerminal = oldServices, oldWire, oldTerminal
		cfgFile, dryRun, resetCheckpoint, verbose = "", false, false, false
		statusWatch, configForce = false, false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return buf
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
