package gromacs

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// Params holds the key/value pairs of a .mdp file. Keys are normalised to
// lower case with dashes, matching how grompp treats "_" and "-".
type Params map[string]string

// ParseMDP parses .mdp text. Comments start with ';'.
func ParseMDP(text string) Params {
	p := make(Params)
	for _, line := range splitLines(text) {
		body, _, _ := strings.Cut(line, ";")
		key, value, ok := strings.Cut(body, "=")
		if !ok {
			continue
		}
		key = normaliseKey(key)
		if key == "" {
			continue
		}
		p[key] = strings.TrimSpace(value)
	}
	return p
}

func normaliseKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "-")
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[normaliseKey(key)]
	return v, ok
}

// Steps returns nsteps.
func (p Params) Steps() (int64, error) {
	v, ok := p.Get("nsteps")
	if !ok {
		return 0, fmt.Errorf("%w: nsteps not set", domain.ErrConfig)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: nsteps %q", domain.ErrConfig, v)
	}
	return n, nil
}

// TimeStep returns dt in picoseconds.
func (p Params) TimeStep() (float64, error) {
	v, ok := p.Get("dt")
	if !ok {
		return 0, fmt.Errorf("%w: dt not set", domain.ErrConfig)
	}
	dt, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: dt %q", domain.ErrConfig, v)
	}
	return dt, nil
}

// DurationNS returns nsteps × dt in nanoseconds.
func (p Params) DurationNS() (float64, error) {
	n, err := p.Steps()
	if err != nil {
		return 0, err
	}
	dt, err := p.TimeStep()
	if err != nil {
		return 0, err
	}
	return float64(n) * dt / 1000, nil
}

// CheckDuration fails with ErrDurationMismatch when the configured run
// length differs from want by more than tolerance.
func (p Params) CheckDuration(want, tolerance float64) error {
	got, err := p.DurationNS()
	if err != nil {
		return err
	}
	if math.Abs(got-want) > tolerance {
		return fmt.Errorf("%w: nsteps*dt = %.3f ns, cycle time %.3f ns", domain.ErrDurationMismatch, got, want)
	}
	return nil
}

// Floats parses a whitespace separated list value.
func (p Params) Floats(key string) ([]float64, bool, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, false, nil
	}
	fields := strings.Fields(v)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %s value %q", domain.ErrConfig, key, f)
		}
		out = append(out, x)
	}
	return out, true, nil
}

// LintMDP reports annealing and restraint problems along with any
// duration mismatch against cycleTime.
func LintMDP(p Params, cycleTime, tolerance float64) []string {
	var issues []string
	if err := p.CheckDuration(cycleTime, tolerance); err != nil {
		issues = append(issues, err.Error())
	}

	times, hasTimes, errT := p.Floats("annealing-time")
	temps, hasTemps, errP := p.Floats("annealing-temp")
	switch {
	case errT != nil:
		issues = append(issues, errT.Error())
	case errP != nil:
		issues = append(issues, errP.Error())
	case !hasTimes:
		issues = append(issues, "annealing-time not set")
	case !hasTemps:
		issues = append(issues, "annealing-temp not set")
	default:
		if len(times) != len(temps) {
			issues = append(issues, "annealing-time and annealing-temp have different number of points")
		}
		if !slices.IsSorted(times) {
			issues = append(issues, "annealing-time points are not in chronological order")
		}
	}

	if define, _ := p.Get("define"); !strings.Contains(define, "-DPOSRES") {
		issues = append(issues, "position restraints (-DPOSRES) not enabled in define")
	}
	return issues
}
