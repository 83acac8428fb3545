// Package gromacs drives the gmx tool suite for washing cycles.
package gromacs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Group selections answered on stdin.
const (
	systemGroup = "0\n"
	quitMakeNdx = "q\n"
)

// Ensure Engine implements the interface.
var _ driven.MDEngine = (*Engine)(nil)

// Options configures the GROMACS adapter.
type Options struct {
	// Executable is the gmx binary (gmx, gmx_mpi...).
	Executable string

	// MaxWarn is passed to grompp when positive.
	MaxWarn int

	// Timeout bounds each invocation, including mdrun.
	Timeout time.Duration
}

// Engine is the GROMACS adapter.
type Engine struct {
	runner driven.CommandRunner
	opts   Options
}

// New creates a GROMACS adapter running commands through runner.
func New(runner driven.CommandRunner, opts Options) *Engine {
	if opts.Executable == "" {
		opts.Executable = "gmx"
	}
	return &Engine{runner: runner, opts: opts}
}

// Equilibrate runs grompp then mdrun. An mdrun checkpoint left by an
// interrupted attempt of the same cycle is continued.
func (e *Engine) Equilibrate(ctx context.Context, req driven.EquilibrationRequest) error {
	tpr := req.Deffnm + ".tpr"
	args := []string{"grompp", "-f", req.Parameters, "-c", req.Coordinates, "-p", req.Topology, "-o", tpr}
	if req.Index != "" && exists(req.WorkDir, req.Index) {
		args = append(args, "-n", req.Index)
	}
	if e.opts.MaxWarn > 0 {
		args = append(args, "-maxwarn", strconv.Itoa(e.opts.MaxWarn))
	}
	if err := e.run(ctx, req.WorkDir, "", args...); err != nil {
		return err
	}

	args = []string{"mdrun", "-deffnm", req.Deffnm}
	if cpt := req.Deffnm + ".cpt"; exists(req.WorkDir, cpt) {
		logger.Info("Continuing %s from %s", req.Deffnm, cpt)
		args = append(args, "-cpi", cpt, "-append")
	}
	return e.run(ctx, req.WorkDir, "", args...)
}

// ExtractFinalFrame dumps the frame at req.TimePS with trjconv.
func (e *Engine) ExtractFinalFrame(ctx context.Context, req driven.FrameRequest) error {
	return e.run(ctx, req.WorkDir, systemGroup,
		"trjconv",
		"-s", req.Deffnm+".tpr",
		"-f", req.Deffnm+".xtc",
		"-o", req.Output,
		"-dump", engine.FormatFloat(req.TimePS),
	)
}

// RegenerateIndex rebuilds the default index groups with make_ndx.
func (e *Engine) RegenerateIndex(ctx context.Context, workDir, coordinates, index string) error {
	return e.run(ctx, workDir, quitMakeNdx, "make_ndx", "-f", coordinates, "-o", index)
}

// DiscardRunState removes the mdrun checkpoint of deffnm. Once a cycle's
// frame is promoted the atom count changes and continuing from it would fail.
func (e *Engine) DiscardRunState(workDir, deffnm string) error {
	for _, name := range []string{deffnm + ".cpt", deffnm + "_prev.cpt"} {
		path := filepath.Join(workDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func (e *Engine) run(ctx context.Context, dir, stdin string, args ...string) error {
	_, err := e.runner.Run(ctx, driven.Command{
		Name:    e.opts.Executable,
		Args:    args,
		Dir:     dir,
		Stdin:   stdin,
		Timeout: e.opts.Timeout,
	})
	if err != nil {
		return fmt.Errorf("gmx %s: %w", args[0], err)
	}
	return nil
}

func exists(dir, name string) bool {
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	_, err := os.Stat(name)
	return err == nil
}
