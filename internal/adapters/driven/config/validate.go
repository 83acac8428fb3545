package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// vinaAtomTypes are the receptor atom types vina reads. Unlike AutoDock it
// takes no parameter file, so a custom neutral type cannot be defined.
var vinaAtomTypes = map[string]bool{
	"H": true, "HD": true, "C": true, "A": true, "N": true, "NA": true,
	"OA": true, "SA": true, "S": true, "P": true, "F": true, "Cl": true,
	"Br": true, "I": true, "Si": true, "B": true, "Se": true, "Mg": true,
	"Ca": true, "Mn": true, "Fe": true, "Zn": true,
}

// Validate checks every setting and reports all problems at once.
// Each problem wraps domain.ErrConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrConfig}, args...)...))
	}

	oneOf := func(key, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		bad("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
	}
	positive := func(key string, value float64) {
		if value <= 0 {
			bad("%s must be positive, got %g", key, value)
		}
	}
	duration := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			bad("%s is not a valid duration: %q", key, value)
		}
	}

	oneOf("docking.engine", c.Docking.Engine, EngineAutoDock, EngineVina)
	oneOf("engines.platform", c.Engines.Platform, PlatformLocal, PlatformWSL)
	oneOf("checkpoint.backend", c.Checkpoint.Backend, BackendFile, BackendSQLite)
	oneOf("logging.format", c.Logging.Format, logger.FormatConsole, logger.FormatJSON)
	oneOf("logging.level", strings.ToLower(c.Logging.Level), "debug", "info", "warn", "error")

	positive("docking.min_ligand_distance", c.Docking.MinLigandDistance)
	positive("docking.mask_cutoff", c.Docking.MaskCutoff)
	positive("grid.spacing", c.Grid.Spacing)
	positive("washing.displacement_cutoff", c.Washing.DisplacementCutoff)
	positive("washing.cycle_time_ns", c.Washing.CycleTimeNS)
	positive("washing.coordinate_scale", c.Washing.CoordinateScale)
	if c.Washing.DurationToleranceNS < 0 {
		bad("washing.duration_tolerance_ns must not be negative, got %g", c.Washing.DurationToleranceNS)
	}

	if len(c.Docking.SeedList()) == 0 {
		bad("no seeds: set docking.seeds or docking.seed_count")
	}
	if c.Docking.MaxAccepted < 1 {
		bad("docking.max_accepted must be at least 1, got %d", c.Docking.MaxAccepted)
	}
	if c.Washing.Cycles < 0 {
		bad("washing.cycles must not be negative, got %d", c.Washing.Cycles)
	}
	if c.Docking.Runs < 1 {
		bad("docking.ga_runs must be at least 1, got %d", c.Docking.Runs)
	}
	if err := c.Docking.ValidateNeutralType(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Grid.Npts) != 3 {
		bad("grid.npts needs 3 values, got %d", len(c.Grid.Npts))
	} else {
		for i, n := range c.Grid.Npts {
			if n <= 0 {
				bad("grid.npts[%d] must be positive, got %d", i, n)
			}
		}
	}
	if len(c.Grid.Center) != 3 {
		bad("grid.center needs 3 values, got %d", len(c.Grid.Center))
	}
	if len(c.Inputs.LigandTypeList()) == 0 {
		bad("inputs.ligand_types is empty")
	}

	duration("docking.timeout", c.Docking.Timeout)
	duration("washing.timeout", c.Washing.Timeout)

	return errors.Join(errs...)
}

// ValidateNeutralType checks that the engine can read the neutral type.
func (d DockingConfig) ValidateNeutralType() error {
	if n := len(d.NeutralType); n < 1 || n > 2 {
		return fmt.Errorf("%w: docking.neutral_type must be 1 or 2 characters, got %q", domain.ErrConfig, d.NeutralType)
	}
	if d.Engine == EngineVina && !vinaAtomTypes[d.NeutralType] {
		return fmt.Errorf("%w: docking.neutral_type %q is not a vina atom type; use %q to hide masked atoms from vina",
			domain.ErrConfig, d.NeutralType, DefaultVinaNeutralType)
	}
	return nil
}
