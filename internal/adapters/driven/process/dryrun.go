package process

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Ensure DryRunRunner implements the interface.
var _ driven.CommandRunner = (*DryRunRunner)(nil)

// DryRunRunner prints planned invocations instead of executing them.
type DryRunRunner struct {
	mu      sync.Mutex
	out     io.Writer
	planned []driven.Command
}

// NewDryRunRunner creates a runner printing to out. A nil out only records.
func NewDryRunRunner(out io.Writer) *DryRunRunner {
	return &DryRunRunner{out: out}
}

// Run records cmd and reports success.
func (r *DryRunRunner) Run(_ context.Context, cmd driven.Command) (driven.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planned = append(r.planned, cmd)
	if r.out != nil {
		fmt.Fprintf(r.out, "[dry-run] %s\n", Describe(cmd))
	}
	return driven.Outcome{}, nil
}

// Planned returns the recorded commands in order.
func (r *DryRunRunner) Planned() []driven.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]driven.Command(nil), r.planned...)
}
