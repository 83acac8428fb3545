// Package process runs external engine commands.
//
// LocalRunner executes on the host, WSLRunner forwards commands into a
// Windows Subsystem for Linux distribution, DryRunRunner only records the
// planned invocations and MeteredRunner decorates any runner with metrics.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// stderrTail bounds how much engine stderr is carried into error messages.
const stderrTail = 512

// waitDelay bounds how long output pipes are drained after a kill.
const waitDelay = 2 * time.Second

// Ensure LocalRunner implements the interface.
var _ driven.CommandRunner = (*LocalRunner)(nil)

// LocalRunner executes commands with os/exec.
type LocalRunner struct{}

// NewLocalRunner creates a host runner.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes cmd and waits for it to finish.
func (r *LocalRunner) Run(ctx context.Context, cmd driven.Command) (driven.Outcome, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger.Debug("exec: %s", Describe(cmd))
	start := time.Now()
	err := c.Run()
	out := driven.Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return out, nil
	}

	out.ExitCode = -1
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("%w: %s after %s", domain.ErrEngineTimeout, cmd.Name, out.Duration.Round(time.Millisecond))
	}
	if ctx.Err() != nil {
		return out, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, fmt.Errorf("%w: %s exited with status %d: %s",
			domain.ErrEngineFailed, cmd.Name, out.ExitCode, tail(out.Stderr))
	}
	return out, fmt.Errorf("%w: %s: %v", domain.ErrEngineFailed, cmd.Name, err)
}

// Describe renders cmd as a shell-like line for logs and dry-run output.
func Describe(cmd driven.Command) string {
	var b strings.Builder
	if cmd.Dir != "" {
		b.WriteString("(cd ")
		b.WriteString(quote(cmd.Dir))
		b.WriteString(") ")
	}
	b.WriteString(quote(cmd.Name))
	for _, arg := range cmd.Args {
		b.WriteByte(' ')
		b.WriteString(quote(arg))
	}
	if cmd.Stdin != "" {
		fmt.Fprintf(&b, " <<< %q", strings.TrimRight(cmd.Stdin, "\n"))
	}
	return b.String()
}

// quote single-quotes s for a POSIX shell when it is not a plain word.
func quote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=+,@%", r):
		return false
	}
	return true
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	if s == "" {
		return "no stderr output"
	}
	return s
}
