// Package autodock drives AutoGrid4 and AutoDock4.
//
// The grid stage renders autogrid.gpf and runs autogrid4 once per receptor
// version. Each docking invocation renders wrapper_<seed>.dpf and writes
// wrapper_<seed>.dlg, from which the Run = 1 pose block is extracted.
package autodock

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine"
	"github.com/custodia-labs/wrapshake/internal/atomicfile"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Name identifies the engine in configuration and metrics.
const Name = "autodock4"

// File names written to the work directory.
const (
	gridParamsFile = "autogrid.gpf"
	gridLogFile    = "autogrid.log"
	mapStem        = "receptor"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{"join": func(s []string) string { return strings.Join(s, " ") }}).
	ParseFS(templateFS, "templates/*.tmpl"))

// DefaultLigandTypes covers the common AutoDock ligand atom types.
var DefaultLigandTypes = []string{"A", "C", "HD", "N", "NA", "OA", "SA"}

// Ensure Engine implements the interface.
var _ driven.DockingEngine = (*Engine)(nil)

// Options configures the AutoDock adapter.
type Options struct {
	// WorkDir receives parameter files, maps and results logs.
	WorkDir string

	// AutoGrid and AutoDock are the executables.
	AutoGrid string
	AutoDock string

	// LigandTypes are the atom types maps are computed for.
	LigandTypes []string

	// ReceptorTypes overrides the types read from the receptor file.
	ReceptorTypes []string

	// ParameterFile is an optional AD4 parameter file, needed when masked
	// atoms use a type the built-in table does not know.
	ParameterFile string

	Grid engine.Grid

	// Runs is the number of GA runs per invocation.
	Runs int

	// NumEvals is the energy evaluation budget per GA run.
	NumEvals int

	// Timeout bounds each autogrid4 and autodock4 invocation.
	Timeout time.Duration

	// MapPath rewrites receptor and ligand paths inside parameter files.
	MapPath engine.PathMapper
}

// Engine is the AutoDock4 adapter.
type Engine struct {
	runner driven.CommandRunner
	opts   Options
}

// New creates an AutoDock adapter running commands through runner.
func New(runner driven.CommandRunner, opts Options) *Engine {
	if opts.AutoGrid == "" {
		opts.AutoGrid = "autogrid4"
	}
	if opts.AutoDock == "" {
		opts.AutoDock = Name
	}
	if len(opts.LigandTypes) == 0 {
		opts.LigandTypes = DefaultLigandTypes
	}
	if opts.Grid.Spacing == 0 {
		opts.Grid = engine.DefaultGrid()
	}
	if opts.Runs <= 0 {
		opts.Runs = 10
	}
	if opts.NumEvals <= 0 {
		opts.NumEvals = 2500000
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

// paramData is the template input shared by the grid and docking files.
type paramData struct {
	ParameterFile string
	Npts          [3]int
	Center        [3]string
	Spacing       string
	GridFld       string
	ReceptorTypes []string
	LigandTypes   []string
	Receptor      string
	Ligand        string
	Maps          []string
	ElecMap       string
	DesolvMap     string
	Seed          int
	Runs          int
	NumEvals      int
}

func (e *Engine) params() paramData {
	g := e.opts.Grid
	maps := make([]string, 0, len(e.opts.LigandTypes))
	for _, t := range e.opts.LigandTypes {
		maps = append(maps, mapStem+"."+t+".map")
	}
	return paramData{
		ParameterFile: e.opts.ParameterFile,
		Npts:          g.Npts,
		Center:        [3]string{engine.FormatFloat(g.Center[0]), engine.FormatFloat(g.Center[1]), engine.FormatFloat(g.Center[2])},
		Spacing:       engine.FormatFloat(g.Spacing),
		GridFld:       mapStem + ".maps.fld",
		LigandTypes:   e.opts.LigandTypes,
		Maps:          maps,
		ElecMap:       mapStem + ".e.map",
		DesolvMap:     mapStem + ".d.map",
		Runs:          e.opts.Runs,
		NumEvals:      e.opts.NumEvals,
	}
}

// PrepareGrid writes autogrid.gpf for receptor and runs autogrid4.
func (e *Engine) PrepareGrid(ctx context.Context, receptor string) error {
	data := e.params()
	data.Receptor = e.opts.MapPath(receptor)
	data.ReceptorTypes = e.receptorTypes(receptor)

	if err := e.render("autogrid.gpf.tmpl", gridParamsFile, data); err != nil {
		return err
	}
	_, err := e.runner.Run(ctx, driven.Command{
		Name:    e.opts.AutoGrid,
		Args:    []string{"-p", gridParamsFile, "-l", gridLogFile},
		Dir:     e.opts.WorkDir,
		Timeout: e.opts.Timeout,
	})
	if err != nil {
		return fmt.Errorf("autogrid: %w", err)
	}
	return nil
}

// Dock writes wrapper_<seed>.dpf and runs autodock4.
func (e *Engine) Dock(ctx context.Context, req driven.DockRequest) (driven.DockResult, error) {
	data := e.params()
	data.Seed = req.Seed
	data.Ligand = e.opts.MapPath(req.Ligand)

	paramsFile := fmt.Sprintf("wrapper_%d.dpf", req.Seed)
	logFile := fmt.Sprintf("wrapper_%d.dlg", req.Seed)
	if err := e.render("docking.dpf.tmpl", paramsFile, data); err != nil {
		return driven.DockResult{}, err
	}

	// Results from an interrupted attempt would otherwise be appended to.
	if err := os.Remove(filepath.Join(e.opts.WorkDir, logFile)); err != nil && !os.IsNotExist(err) {
		return driven.DockResult{}, fmt.Errorf("remove stale results log: %w", err)
	}
	_, err := e.runner.Run(ctx, driven.Command{
		Name:    e.opts.AutoDock,
		Args:    []string{"-p", paramsFile, "-l", logFile},
		Dir:     e.opts.WorkDir,
		Timeout: e.opts.Timeout,
	})
	if err != nil {
		return driven.DockResult{}, fmt.Errorf("autodock seed %d: %w", req.Seed, err)
	}
	return driven.DockResult{Seed: req.Seed, Output: filepath.Join(e.opts.WorkDir, logFile)}, nil
}

// ExtractBestPose reads the Run = 1 block of the results log.
func (e *Engine) ExtractBestPose(_ context.Context, res driven.DockResult) (domain.Structure, error) {
	f, err := os.Open(res.Output)
	if err != nil {
		return domain.Structure{}, fmt.Errorf("%w: results log %s: %v", domain.ErrPoseNotFound, res.Output, err)
	}
	defer f.Close()

	pose, err := ExtractBestPose(f)
	if err != nil {
		return domain.Structure{}, fmt.Errorf("%s: %w", filepath.Base(res.Output), err)
	}
	logger.Debug("Extracted %d atoms from %s", pose.AtomCount(), filepath.Base(res.Output))
	return pose, nil
}

func (e *Engine) render(name, file string, data paramData) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", file, err)
	}
	if err := atomicfile.WriteFile(filepath.Join(e.opts.WorkDir, file), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}

// receptorTypes returns the configured types, or the distinct types found
// in the receptor file. It falls back to the ligand types when the file
// cannot be read, which only happens in dry-run mode.
func (e *Engine) receptorTypes(receptor string) []string {
	if len(e.opts.ReceptorTypes) > 0 {
		return e.opts.ReceptorTypes
	}
	data, err := os.ReadFile(receptor)
	if err != nil {
		logger.Debug("Receptor types unavailable (%v), using ligand types", err)
		return e.opts.LigandTypes
	}
	s, err := pdbqt.ParseBytes(data)
	if err != nil {
		return e.opts.LigandTypes
	}
	seen := make(map[string]bool)
	var types []string
	for _, a := range s.Atoms() {
		if a.Type != "" && !seen[a.Type] {
			seen[a.Type] = true
			types = append(types, a.Type)
		}
	}
	sort.Strings(types)
	return types
}
