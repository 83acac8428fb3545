// Package engine holds what the docking and MD engine adapters share: the
// search box definition and host-to-engine path mapping.
//
// Each engine lives in its own sub-package and talks to the outside world
// only through a driven.CommandRunner, so the same adapter runs locally,
// through WSL or in dry-run mode.
package engine

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// Grid is the docking search box.
type Grid struct {
	// Npts is the number of grid points along x, y and z.
	Npts [3]int

	// Center is the box centre in Å.
	Center [3]float64

	// Spacing is the distance between grid points in Å.
	Spacing float64
}

// DefaultGrid returns the grid used when none is configured.
func DefaultGrid() Grid {
	return Grid{Npts: [3]int{60, 60, 60}, Spacing: 0.375}
}

// Size returns the box edge lengths in Å.
func (g Grid) Size() [3]float64 {
	return [3]float64{
		float64(g.Npts[0]) * g.Spacing,
		float64(g.Npts[1]) * g.Spacing,
		float64(g.Npts[2]) * g.Spacing,
	}
}

// Validate checks that the grid describes a non-empty box.
func (g Grid) Validate() error {
	for i, n := range g.Npts {
		if n <= 0 {
			return fmt.Errorf("%w: grid npts[%d] must be positive, got %d", domain.ErrConfig, i, n)
		}
	}
	if g.Spacing <= 0 {
		return fmt.Errorf("%w: grid spacing must be positive, got %g", domain.ErrConfig, g.Spacing)
	}
	return nil
}

// PathMapper rewrites host paths into the form the engine process sees.
type PathMapper func(string) string

// Identity leaves paths unchanged.
func Identity(p string) string {
	return p
}

// FormatFloat renders f without trailing zeros for parameter files and flags.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
