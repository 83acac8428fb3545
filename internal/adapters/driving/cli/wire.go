package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/artifacts/filesystem"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/config"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine/autodock"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine/gromacs"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/engine/vina"
	prommetrics "github.com/custodia-labs/wrapshake/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/process"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
	coreservices "github.com/custodia-labs/wrapshake/internal/core/services"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Services aggregates the driving ports the commands use.
type Services struct {
	Docking   driving.DockingController
	Washing   driving.WashingEngine
	Status    driving.StatusReporter
	Assembler driving.ComplexAssembler
	Setup     driving.SetupValidator

	// Reset discards persisted progress.
	Reset func(ctx context.Context) error

	// CheckpointPath is the file the status watcher observes.
	CheckpointPath string

	// Close flushes metrics and releases stores.
	Close func() error
}

// RunOptions are the command-line switches that affect wiring.
type RunOptions struct {
	// DryRun plans engine invocations instead of running them.
	DryRun bool

	// Out receives planned invocations in dry-run mode.
	Out io.Writer
}

// Wire builds stores, runners, engines and services from configuration.
func Wire(ctx context.Context, cfg *config.Config, opts RunOptions) (*Services, error) {
	open := openCheckpointStore
	if opts.DryRun {
		open = func(c config.CheckpointConfig) (driven.CheckpointStore, func() error, error) {
			return snapshotCheckpointStore(ctx, c)
		}
	}
	checkpoints, closeStore, err := open(cfg.Checkpoint)
	if err != nil {
		return nil, err
	}
	artifacts, err := filesystem.NewStore(cfg.Paths.ArtifactDir)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	metrics := prommetrics.New(prometheus.Labels{"run": cfg.Checkpoint.Key})
	runner := newRunner(cfg.Engines, opts, metrics)

	mapPath := engine.Identity
	if cfg.Engines.Platform == config.PlatformWSL {
		mapPath = process.TranslatePath
	}
	docker, err := newDockingEngine(cfg, runner, mapPath)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	md := gromacs.New(runner, gromacs.Options{
		Executable: cfg.Engines.Gmx,
		MaxWarn:    cfg.Engines.GromppMaxWarn,
		Timeout:    cfg.Washing.TimeoutDuration(),
	})

	checkpointSvc := coreservices.NewCheckpointService(checkpoints, opts.DryRun)
	rc := &coreservices.RunContext{
		Checkpoints: checkpointSvc,
		Artifacts:   artifacts,
		Metrics:     metrics,
		DryRun:      opts.DryRun,
	}

	logger.Debug("Wired %s engine on %s platform, checkpoint %s (%s)",
		docker.Name(), cfg.Engines.Platform, cfg.Checkpoint.Path, cfg.Checkpoint.Backend)

	return &Services{
		Docking: coreservices.NewDockingController(rc, docker, coreservices.DockingOptions{
			ReceptorPath:      cfg.Inputs.Receptor,
			LigandPath:        cfg.Inputs.Ligand,
			Seeds:             cfg.Docking.SeedList(),
			MaxAccepted:       cfg.Docking.MaxAccepted,
			MinLigandDistance: cfg.Docking.MinLigandDistance,
			MaskCutoff:        cfg.Docking.MaskCutoff,
			NeutralType:       cfg.Docking.NeutralType,
			Regrid:            cfg.Docking.Regrid,
		}),
		Washing: coreservices.NewWashingService(rc, md, coreservices.WashingOptions{
			WorkDir:            cfg.Washing.WorkDir,
			Cycles:             cfg.Washing.Cycles,
			LigandResName:      cfg.Washing.LigandResName,
			LigandMolecule:     cfg.Washing.LigandMolecule,
			DisplacementCutoff: cfg.Washing.DisplacementCutoff,
			CycleTimeNS:        cfg.Washing.CycleTimeNS,
			DurationTolerance:  cfg.Washing.DurationToleranceNS,
			CoordinateScale:    cfg.Washing.CoordinateScale,
			Topology:           cfg.Washing.Topology,
			Coordinates:        cfg.Washing.Coordinates,
			Parameters:         cfg.Washing.Parameters,
			Index:              cfg.Washing.Index,
		}),
		Status:    checkpointSvc,
		Assembler: coreservices.NewComplexService(rc, cfg.Washing.LigandResName),
		Setup: coreservices.NewSetupService(coreservices.SetupOptions{
			Receptor:       cfg.Inputs.Receptor,
			Ligand:         cfg.Inputs.Ligand,
			WashDir:        cfg.Washing.WorkDir,
			Topology:       cfg.Washing.Topology,
			Coordinates:    cfg.Washing.Coordinates,
			Parameters:     cfg.Washing.Parameters,
			LigandMolecule: cfg.Washing.LigandMolecule,
			CycleTimeNS:    cfg.Washing.CycleTimeNS,
			Tolerance:      cfg.Washing.DurationToleranceNS,
			LigandTypes:    cfg.Inputs.LigandTypeList(),
			NeutralType:    cfg.Docking.NeutralType,
			WSL:            cfg.Engines.Platform == config.PlatformWSL,
			EnginePaths: []string{
				cfg.Inputs.Receptor, cfg.Inputs.Ligand, cfg.Washing.WorkDir,
				cfg.Engines.AutoGrid, cfg.Engines.AutoDock, cfg.Engines.Vina, cfg.Engines.Gmx,
			},
		}),
		Reset:          checkpointSvc.Reset,
		CheckpointPath: cfg.Checkpoint.Path,
		Close: func() error {
			var errs []error
			if cfg.Metrics.Textfile != "" && !opts.DryRun {
				errs = append(errs, metrics.WriteTextfile(cfg.Metrics.Textfile))
			}
			errs = append(errs, closeStore())
			return errors.Join(errs...)
		},
	}, nil
}

// openCheckpointStore opens the configured backend and returns its closer.
func openCheckpointStore(c config.CheckpointConfig) (driven.CheckpointStore, func() error, error) {
	switch c.Backend {
	case config.BackendSQLite:
		db, err := sqlite.NewStore(c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening checkpoint database: %w", err)
		}
		return db.CheckpointStore(c.Key), db.Close, nil
	case config.BackendFile, "":
		store, err := file.NewCheckpointStore(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown checkpoint backend %q", domain.ErrConfig, c.Backend)
	}
}

// snapshotCheckpointStore copies the persisted record into memory and
// releases the backend. A dry run plans from the snapshot and never creates
// or touches checkpoint files.
func snapshotCheckpointStore(ctx context.Context, c config.CheckpointConfig) (driven.CheckpointStore, func() error, error) {
	snapshot := memory.NewCheckpointStore()
	noop := func() error { return nil }
	if _, err := os.Stat(c.Path); errors.Is(err, fs.ErrNotExist) {
		return snapshot, noop, nil
	}

	store, closeStore, err := openCheckpointStore(c)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = closeStore() }()

	cp, err := store.Load(ctx)
	switch {
	case err == nil:
		if err := snapshot.Save(ctx, cp); err != nil {
			return nil, nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
	case errors.Is(err, domain.ErrCheckpointCorrupt):
		logger.Warn("Dry run: checkpoint %s is unreadable (%v), planning a fresh run", c.Path, err)
	default:
		return nil, nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return snapshot, noop, nil
}

// newRunner composes the command runner: dry-run or local, wrapped for WSL
// when configured, and metered outermost so labels use the original command.
func newRunner(c config.EnginesConfig, opts RunOptions, metrics driven.Metrics) driven.CommandRunner {
	var runner driven.CommandRunner
	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		runner = process.NewDryRunRunner(out)
	} else {
		runner = process.NewLocalRunner()
	}
	if c.Platform == config.PlatformWSL {
		runner = process.NewWSLRunner(runner, c.WSLDistro)
	}
	return process.NewMeteredRunner(runner, metrics)
}

func newDockingEngine(cfg *config.Config, runner driven.CommandRunner, mapPath engine.PathMapper) (driven.DockingEngine, error) {
	grid := engine.Grid{Spacing: cfg.Grid.Spacing}
	copy(grid.Npts[:], cfg.Grid.Npts)
	copy(grid.Center[:], cfg.Grid.Center)
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Docking.ValidateNeutralType(); err != nil {
		return nil, err
	}

	switch cfg.Docking.Engine {
	case config.EngineAutoDock:
		return autodock.New(runner, autodock.Options{
			WorkDir:       cfg.DockingDir(),
			AutoGrid:      cfg.Engines.AutoGrid,
			AutoDock:      cfg.Engines.AutoDock,
			LigandTypes:   cfg.Inputs.LigandTypeList(),
			ParameterFile: cfg.Engines.ParameterFile,
			Grid:          grid,
			Runs:          cfg.Docking.Runs,
			Timeout:       cfg.Docking.TimeoutDuration(),
			MapPath:       mapPath,
		}), nil
	case config.EngineVina:
		return vina.New(runner, vina.Options{
			WorkDir:        cfg.DockingDir(),
			Executable:     cfg.Engines.Vina,
			Grid:           grid,
			Exhaustiveness: cfg.Engines.Exhaustiveness,
			NumModes:       cfg.Engines.NumModes,
			Timeout:        cfg.Docking.TimeoutDuration(),
			MapPath:        mapPath,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown docking engine %q", domain.ErrConfig, cfg.Docking.Engine)
	}
}
