package process

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Ensure MeteredRunner implements the interface.
var _ driven.CommandRunner = (*MeteredRunner)(nil)

// MeteredRunner reports every invocation to a metrics sink.
type MeteredRunner struct {
	next    driven.CommandRunner
	metrics driven.Metrics
}

// NewMeteredRunner wraps next. A nil metrics returns next unchanged.
func NewMeteredRunner(next driven.CommandRunner, metrics driven.Metrics) driven.CommandRunner {
	if metrics == nil {
		return next
	}
	return &MeteredRunner{next: next, metrics: metrics}
}

// Run delegates and records the duration and outcome.
func (r *MeteredRunner) Run(ctx context.Context, cmd driven.Command) (driven.Outcome, error) {
	out, err := r.next.Run(ctx, cmd)
	r.metrics.EngineInvocation(EngineLabel(cmd), out.Duration, err)
	return out, err
}

// EngineLabel names the program behind cmd, including the gmx subcommand.
func EngineLabel(cmd driven.Command) string {
	name := strings.TrimSuffix(filepath.Base(strings.ReplaceAll(cmd.Name, `\`, "/")), ".exe")
	if strings.HasPrefix(name, "gmx") && len(cmd.Args) > 0 {
		return name + "_" + cmd.Args[0]
	}
	return name
}
