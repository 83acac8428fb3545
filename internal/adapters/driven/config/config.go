// Package config loads and validates the wrapshake configuration.
//
// The file is TOML. Every key can be overridden from the environment with
// the WRAPSHAKE_ prefix and underscores for dots, e.g.
// WRAPSHAKE_DOCKING_MAX_ACCEPTED=5.
package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Docking engines.
const (
	EngineAutoDock = "autodock4"
	EngineVina     = "vina"
)

// Engine platforms.
const (
	PlatformLocal = "local"
	PlatformWSL   = "wsl"
)

// Checkpoint backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the complete, validated configuration.
type Config struct {
	Paths      PathsConfig      `mapstructure:"paths" toml:"paths"`
	Inputs     InputsConfig     `mapstructure:"inputs" toml:"inputs"`
	Docking    DockingConfig    `mapstructure:"docking" toml:"docking"`
	Grid       GridConfig       `mapstructure:"grid" toml:"grid"`
	Engines    EnginesConfig    `mapstructure:"engines" toml:"engines"`
	Washing    WashingConfig    `mapstructure:"washing" toml:"washing"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" toml:"checkpoint"`
	Logging    LoggingConfig    `mapstructure:"logging" toml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" toml:"metrics"`
}

// PathsConfig locates run outputs.
type PathsConfig struct {
	OutputDir   string `mapstructure:"output_dir" toml:"output_dir" comment:"Engine work files, checkpoint and artifacts."`
	ArtifactDir string `mapstructure:"artifact_dir" toml:"artifact_dir" comment:"Immutable receptor, pose and complex versions."`
}

// InputsConfig names the docking inputs.
type InputsConfig struct {
	Receptor    string `mapstructure:"receptor" toml:"receptor" comment:"Receptor PDBQT."`
	Ligand      string `mapstructure:"ligand" toml:"ligand" comment:"Ligand PDBQT docked in every iteration."`
	LigandTypes string `mapstructure:"ligand_types" toml:"ligand_types" comment:"Space separated AutoDock atom types of the ligand."`
}

// DockingConfig configures the sequential docking loop.
type DockingConfig struct {
	Engine            string  `mapstructure:"engine" toml:"engine" comment:"autodock4 or vina."`
	Seeds             []int   `mapstructure:"seeds" toml:"seeds,omitempty" comment:"Explicit seeds. When empty, seed_count seeds from seed_base are used."`
	SeedCount         int     `mapstructure:"seed_count" toml:"seed_count"`
	SeedBase          int     `mapstructure:"seed_base" toml:"seed_base"`
	MaxAccepted       int     `mapstructure:"max_accepted" toml:"max_accepted" comment:"Stop after this many accepted poses."`
	MinLigandDistance float64 `mapstructure:"min_ligand_distance" toml:"min_ligand_distance" comment:"Clash threshold between poses, Å."`
	MaskCutoff        float64 `mapstructure:"mask_cutoff" toml:"mask_cutoff" comment:"Receptor atoms within this distance of a pose are masked, Å."`
	NeutralType       string  `mapstructure:"neutral_type" toml:"neutral_type" comment:"Atom type written over masked receptor atoms. Defaults to X for autodock4 and H for vina."`
	Regrid            bool    `mapstructure:"regrid" toml:"regrid" comment:"Recompute grid maps after every masking."`
	Runs              int     `mapstructure:"ga_runs" toml:"ga_runs" comment:"AutoDock GA runs per seed."`
	Timeout           string  `mapstructure:"timeout" toml:"timeout" comment:"Limit per engine invocation. Empty means none."`
}

// GridConfig is the docking search box.
type GridConfig struct {
	Npts    []int     `mapstructure:"npts" toml:"npts"`
	Center  []float64 `mapstructure:"center" toml:"center"`
	Spacing float64   `mapstructure:"spacing" toml:"spacing"`
}

// EnginesConfig locates engine executables.
type EnginesConfig struct {
	Platform       string `mapstructure:"platform" toml:"platform" comment:"local or wsl."`
	WSLDistro      string `mapstructure:"wsl_distro" toml:"wsl_distro" comment:"WSL distribution, empty for the default one."`
	AutoGrid       string `mapstructure:"autogrid" toml:"autogrid"`
	AutoDock       string `mapstructure:"autodock" toml:"autodock"`
	Vina           string `mapstructure:"vina" toml:"vina"`
	Gmx            string `mapstructure:"gmx" toml:"gmx"`
	ParameterFile  string `mapstructure:"parameter_file" toml:"parameter_file" comment:"AD4 parameter file defining the neutral type."`
	Exhaustiveness int    `mapstructure:"exhaustiveness" toml:"exhaustiveness"`
	NumModes       int    `mapstructure:"num_modes" toml:"num_modes"`
	GromppMaxWarn  int    `mapstructure:"grompp_maxwarn" toml:"grompp_maxwarn"`
}

// WashingConfig configures the eviction cycles.
type WashingConfig struct {
	WorkDir             string  `mapstructure:"work_dir" toml:"work_dir" comment:"Directory holding the simulation files below."`
	Cycles              int     `mapstructure:"cycles" toml:"cycles"`
	LigandResName       string  `mapstructure:"ligand_resname" toml:"ligand_resname"`
	LigandMolecule      string  `mapstructure:"ligand_molecule" toml:"ligand_molecule" comment:"Molecule name in the topology. Defaults to ligand_resname."`
	DisplacementCutoff  float64 `mapstructure:"displacement_cutoff" toml:"displacement_cutoff" comment:"Residues moving further are evicted, Å."`
	CycleTimeNS         float64 `mapstructure:"cycle_time_ns" toml:"cycle_time_ns"`
	DurationToleranceNS float64 `mapstructure:"duration_tolerance_ns" toml:"duration_tolerance_ns"`
	CoordinateScale     float64 `mapstructure:"coordinate_scale" toml:"coordinate_scale" comment:"Coordinate unit to Å, 10 for nm."`
	Topology            string  `mapstructure:"topology" toml:"topology"`
	Coordinates         string  `mapstructure:"coordinates" toml:"coordinates"`
	Parameters          string  `mapstructure:"parameters" toml:"parameters"`
	Index               string  `mapstructure:"index" toml:"index"`
	Timeout             string  `mapstructure:"timeout" toml:"timeout"`
}

// CheckpointConfig selects the checkpoint store.
type CheckpointConfig struct {
	Backend string `mapstructure:"backend" toml:"backend" comment:"file or sqlite."`
	Path    string `mapstructure:"path" toml:"path"`
	Key     string `mapstructure:"key" toml:"key" comment:"Run key inside the sqlite database."`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format" comment:"console or json."`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" toml:"textfile" comment:"node_exporter textfile to write after each command. Empty disables it."`
}

// SeedList returns the seeds to dock, in order.
func (d DockingConfig) SeedList() []int {
	if len(d.Seeds) > 0 {
		return append([]int(nil), d.Seeds...)
	}
	seeds := make([]int, 0, d.SeedCount)
	for i := 0; i < d.SeedCount; i++ {
		seeds = append(seeds, d.SeedBase+i)
	}
	return seeds
}

// TimeoutDuration returns the parsed timeout. Validate rejects bad values.
func (d DockingConfig) TimeoutDuration() time.Duration {
	return parseTimeout(d.Timeout)
}

// TimeoutDuration returns the parsed timeout. Validate rejects bad values.
func (w WashingConfig) TimeoutDuration() time.Duration {
	return parseTimeout(w.Timeout)
}

// LigandTypeList splits the ligand types.
func (i InputsConfig) LigandTypeList() []string {
	return strings.Fields(i.LigandTypes)
}

// DockingDir is where docking engines write their files.
func (c *Config) DockingDir() string {
	return filepath.Join(c.Paths.OutputDir, c.Docking.Engine)
}

func parseTimeout(s string) time.Duration {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
