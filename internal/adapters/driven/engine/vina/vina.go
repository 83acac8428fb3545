// Package vina drives AutoDock Vina. Vina scores on the fly, so there is no
// grid stage; each invocation writes vina_<seed>.pdbqt with ranked MODEL
// blocks, and MODEL 1 is the best pose.
package vina

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
)

// Name identifies the engine in configuration and metrics.
const Name = "vina"

// Ensure Engine implements the interface.
var _ driven.DockingEngine = (*Engine)(nil)

// Options configures the Vina adapter.
type Options struct {
	WorkDir        string
	Executable     string
	Grid           engine.Grid
	Exhaustiveness int
	NumModes       int
	Timeout        time.Duration

	// MapPath rewrites receptor and ligand paths passed as flags.
	MapPath engine.PathMapper
}

// Engine is the Vina adapter.
type Engine struct {
	runner driven.CommandRunner
	opts   Options
}

// New creates a Vina adapter running commands through runner.
func New(runner driven.CommandRunner, opts Options) *Engine {
	if opts.Executable == "" {
		opts.Executable = Name
	}
	if opts.Grid.Spacing == 0 {
		opts.Grid = engine.DefaultGrid()
	}
	if opts.Exhaustiveness <= 0 {
		opts.Exhaustiveness = 8
	}
	if opts.NumModes <= 0 {
		opts.NumModes = 9
	}
	if opts.MapPath == nil {
		opts.MapPath = engine.Identity
	}
	return &Engine{runner: runner, opts: opts}
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return Name
}

// PrepareGrid is a no-op.
func (e *Engine) PrepareGrid(context.Context, string) error {
	return nil
}

// Dock runs one vina invocation.
func (e *Engine) Dock(ctx context.Context, req driven.DockRequest) (driven.DockResult, error) {
	out := fmt.Sprintf("vina_%d.pdbqt", req.Seed)
	if err := os.MkdirAll(e.opts.WorkDir, 0o755); err != nil {
		return driven.DockResult{}, fmt.Errorf("create work directory: %w", err)
	}

	g := e.opts.Grid
	size := g.Size()
	args := []string{
		"--receptor", e.opts.MapPath(req.Receptor),
		"--ligand", e.opts.MapPath(req.Ligand),
		"--center_x", engine.FormatFloat(g.Center[0]),
		"--center_y", engine.FormatFloat(g.Center[1]),
		"--center_z", engine.FormatFloat(g.Center[2]),
		"--size_x", engine.FormatFloat(size[0]),
		"--size_y", engine.FormatFloat(size[1]),
		"--size_z", engine.FormatFloat(size[2]),
		"--seed", strconv.Itoa(req.Seed),
		"--exhaustiveness", strconv.Itoa(e.opts.Exhaustiveness),
		"--num_modes", strconv.Itoa(e.opts.NumModes),
		"--out", out,
	}
	_, err := e.runner.Run(ctx, driven.Command{
		Name:    e.opts.Executable,
		Args:    args,
		Dir:     e.opts.WorkDir,
		Timeout: e.opts.Timeout,
	})
	if err != nil {
		return driven.DockResult{}, fmt.Errorf("vina seed %d: %w", req.Seed, err)
	}
	return driven.DockResult{Seed: req.Seed, Output: filepath.Join(e.opts.WorkDir, out)}, nil
}

// ExtractBestPose reads MODEL 1 of the output file.
func (e *Engine) ExtractBestPose(_ context.Context, res driven.DockResult) (domain.Structure, error) {
	f, err := os.Open(res.Output)
	if err != nil {
		return domain.Structure{}, fmt.Errorf("%w: output %s: %v", domain.ErrPoseNotFound, res.Output, err)
	}
	defer f.Close()

	pose, err := ExtractBestPose(f)
	if err != nil {
		return domain.Structure{}, fmt.Errorf("%s: %w", filepath.Base(res.Output), err)
	}
	return pose, nil
}

// ExtractBestPose returns the records between MODEL 1 and its ENDMDL.
func ExtractBestPose(r io.Reader) (domain.Structure, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	inModel, found := false, false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		f := strings.Fields(line)
		if len(f) == 2 && f[0] == "MODEL" {
			if found {
				break
			}
			inModel = f[1] == "1"
			found = inModel
			continue
		}
		if len(f) > 0 && f[0] == "ENDMDL" {
			inModel = false
			continue
		}
		if inModel {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Structure{}, fmt.Errorf("reading vina output: %w", err)
	}
	if !found {
		return domain.Structure{}, fmt.Errorf("%w: no MODEL 1", domain.ErrPoseNotFound)
	}

	pose, err := pdbqt.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return domain.Structure{}, err
	}
	if pose.AtomCount() == 0 {
		return domain.Structure{}, fmt.Errorf("%w: MODEL 1 has no atoms", domain.ErrPoseNotFound)
	}
	return pose, nil
}
