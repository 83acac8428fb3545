package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
	"github.com/custodia-labs/wrapshake/internal/formats/gro"
	"github.com/custodia-labs/wrapshake/internal/formats/gromacs"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
)

// Ensure SetupService implements the interface.
var _ driving.SetupValidator = (*SetupService)(nil)

// SetupOptions lists the inputs checked by SetupService.
type SetupOptions struct {
	Receptor string
	Ligand   string

	// Washing inputs. WashDir empty skips the simulation checks.
	WashDir        string
	Topology       string
	Coordinates    string
	Parameters     string
	LigandMolecule string
	CycleTimeNS    float64
	Tolerance      float64

	// LigandTypes and NeutralType are docking atom types.
	LigandTypes []string
	NeutralType string

	// WSL enables path checks for the wsl platform.
	WSL bool

	// EnginePaths are the configured executables and directories.
	EnginePaths []string
}

// SetupService inspects inputs before any engine runs.
type SetupService struct {
	opts SetupOptions
}

// NewSetupService creates a setup validator.
func NewSetupService(opts SetupOptions) *SetupService {
	return &SetupService{opts: opts}
}

// Validate returns every issue found. Only I/O failures other than a
// missing file are returned as errors.
func (s *SetupService) Validate(_ context.Context) ([]string, error) {
	var issues []string

	for _, path := range []string{s.opts.Receptor, s.opts.Ligand} {
		if path == "" {
			continue
		}
		found, err := s.lintPDBQT(path)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}

	for _, t := range s.opts.LigandTypes {
		if t == s.opts.NeutralType {
			issues = append(issues, fmt.Sprintf("neutral type %q is also a ligand type", t))
		}
	}

	if s.opts.WashDir != "" {
		found, err := s.lintSimulation()
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}

	if s.opts.WSL {
		for _, p := range s.opts.EnginePaths {
			if strings.Contains(p, `\`) {
				issues = append(issues, fmt.Sprintf("path %q contains backslashes; use forward slashes under wsl", p))
			}
		}
	}
	return issues, nil
}

func (s *SetupService) lintPDBQT(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []string{fmt.Sprintf("%s: file not found", path)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	found, err := pdbqt.Lint(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lint %s: %w", path, err)
	}
	return prefix(filepath.Base(path), found), nil
}

func (s *SetupService) lintSimulation() ([]string, error) {
	var issues []string
	read := func(name string) (string, bool, error) {
		path := filepath.Join(s.opts.WashDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			issues = append(issues, fmt.Sprintf("%s: file not found", path))
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), true, nil
	}

	if text, ok, err := read(s.opts.Parameters); err != nil {
		return nil, err
	} else if ok {
		found := gromacs.LintMDP(gromacs.ParseMDP(text), s.opts.CycleTimeNS, s.opts.Tolerance)
		issues = append(issues, prefix(s.opts.Parameters, found)...)
	}

	if text, ok, err := read(s.opts.Topology); err != nil {
		return nil, err
	} else if ok {
		issues = append(issues, prefix(s.opts.Topology, gromacs.LintTopology(text, s.opts.LigandMolecule))...)
	}

	if text, ok, err := read(s.opts.Coordinates); err != nil {
		return nil, err
	} else if ok {
		if _, err := gro.ParseBytes([]byte(text)); err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", s.opts.Coordinates, err))
		}
	}
	return issues, nil
}

func prefix(name string, issues []string) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = name + ": " + issue
	}
	return out
}
