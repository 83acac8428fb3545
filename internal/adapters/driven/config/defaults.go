package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// Default values.
const (
	DefaultOutputDir          = "output"
	DefaultLigandTypes        = "A C HD N NA OA SA"
	DefaultSeedCount          = 50
	DefaultSeedBase           = 1
	DefaultMaxAccepted        = 20
	DefaultMinLigandDistance  = 2.0
	DefaultMaskCutoff         = 3.5
	DefaultNeutralType        = "X"
	DefaultVinaNeutralType    = "H"
	DefaultRuns               = 10
	DefaultDockingTimeout     = "2h"
	DefaultSpacing            = 0.375
	DefaultWashDir            = "gmx"
	DefaultCycles             = 5
	DefaultLigandResName      = "LIG"
	DefaultDisplacementCutoff = 6.0
	DefaultCycleTimeNS        = 1.0
	DefaultToleranceNS        = 0.01
	DefaultCoordinateScale    = 10.0
	DefaultWashTimeout        = "6h"
	DefaultCheckpointKey      = "default"
)

// defaults lists every key with a static default. Derived paths are
// filled in by ApplyDefaults.
var defaults = map[string]any{
	"paths.output_dir":              DefaultOutputDir,
	"inputs.ligand_types":           DefaultLigandTypes,
	"docking.engine":                EngineAutoDock,
	"docking.seed_count":            DefaultSeedCount,
	"docking.seed_base":             DefaultSeedBase,
	"docking.max_accepted":          DefaultMaxAccepted,
	"docking.min_ligand_distance":   DefaultMinLigandDistance,
	"docking.mask_cutoff":           DefaultMaskCutoff,
	"docking.regrid":                false,
	"docking.ga_runs":               DefaultRuns,
	"docking.timeout":               DefaultDockingTimeout,
	"grid.npts":                     []int{60, 60, 60},
	"grid.center":                   []float64{0, 0, 0},
	"grid.spacing":                  DefaultSpacing,
	"engines.platform":              PlatformLocal,
	"engines.autogrid":              "autogrid4",
	"engines.autodock":              "autodock4",
	"engines.vina":                  "vina",
	"engines.gmx":                   "gmx",
	"engines.exhaustiveness":        8,
	"engines.num_modes":             9,
	"engines.grompp_maxwarn":        0,
	"washing.work_dir":              DefaultWashDir,
	"washing.cycles":                DefaultCycles,
	"washing.ligand_resname":        DefaultLigandResName,
	"washing.displacement_cutoff":   DefaultDisplacementCutoff,
	"washing.cycle_time_ns":         DefaultCycleTimeNS,
	"washing.duration_tolerance_ns": DefaultToleranceNS,
	"washing.coordinate_scale":      DefaultCoordinateScale,
	"washing.topology":              "topol.top",
	"washing.coordinates":           "npt.gro",
	"washing.parameters":            "annealing.mdp",
	"washing.index":                 "index.ndx",
	"washing.timeout":               DefaultWashTimeout,
	"checkpoint.backend":            BackendFile,
	"checkpoint.key":                DefaultCheckpointKey,
	"logging.level":                 "info",
	"logging.format":                "console",
	// Registered so environment overrides are picked up.
	"inputs.receptor":         "",
	"inputs.ligand":           "",
	"paths.artifact_dir":      "",
	"engines.wsl_distro":      "",
	"docking.neutral_type":    "",
	"engines.parameter_file":  "",
	"washing.ligand_molecule": "",
	"checkpoint.path":         "",
	"metrics.textfile":        "",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := newViper()
	setDefaults(v)
	cfg := &Config{}
	// Decoding static defaults cannot fail.
	_ = v.Unmarshal(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills values derived from other settings.
func ApplyDefaults(cfg *Config) {
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = DefaultOutputDir
	}
	if cfg.Paths.ArtifactDir == "" {
		cfg.Paths.ArtifactDir = filepath.Join(cfg.Paths.OutputDir, "artifacts")
	}
	if cfg.Docking.NeutralType == "" {
		cfg.Docking.NeutralType = DefaultNeutralType
		if cfg.Docking.Engine == EngineVina {
			// Vina skips hydrogens when scoring, so an H atom is invisible to it.
			cfg.Docking.NeutralType = DefaultVinaNeutralType
		}
	}
	if cfg.Washing.LigandMolecule == "" {
		cfg.Washing.LigandMolecule = cfg.Washing.LigandResName
	}
	if cfg.Checkpoint.Key == "" {
		cfg.Checkpoint.Key = DefaultCheckpointKey
	}
	if cfg.Checkpoint.Path == "" {
		name := "checkpoint.json"
		if cfg.Checkpoint.Backend == BackendSQLite {
			name = "checkpoint.db"
		}
		cfg.Checkpoint.Path = filepath.Join(cfg.Paths.OutputDir, name)
	}
}
