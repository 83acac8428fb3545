package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Ensure ComplexService implements the interface.
var _ driving.ComplexAssembler = (*ComplexService)(nil)

// AssembleComplex concatenates receptor and ligand atoms into one record
// set. Ligands are renamed to ligandResName and numbered after the last
// receptor residue in the given order. Serials run 1..N and the set ends
// with END. Non-atom records are dropped.
func AssembleComplex(receptor domain.Structure, ligands []domain.Structure, ligandResName string) domain.Structure {
	var out domain.Structure
	serial := 0
	lastResidue := 0

	add := func(rec domain.Record, atom domain.AtomRecord) {
		serial++
		atom.Serial = serial
		line := pdbqt.SetSerial(rec.Line, serial)
		if rec.Dirty {
			line = pdbqt.RenderTypeCharge(line, atom)
		}
		out.Records = append(out.Records, domain.Record{Line: line, Atom: &atom})
	}

	for _, rec := range receptor.Records {
		if rec.Atom == nil {
			continue
		}
		add(rec, *rec.Atom)
		lastResidue = max(lastResidue, rec.Atom.ResidueID)
	}
	for i, ligand := range ligands {
		resID := lastResidue + i + 1
		for _, rec := range ligand.Records {
			if rec.Atom == nil {
				continue
			}
			atom := *rec.Atom
			if ligandResName != "" {
				atom.ResidueName = ligandResName
				rec.Line = pdbqt.SetResidue(rec.Line, ligandResName, resID)
			} else {
				rec.Line = pdbqt.SetResidue(rec.Line, atom.ResidueName, resID)
			}
			atom.ResidueID = resID
			add(rec, atom)
		}
	}
	out.Records = append(out.Records, domain.Record{Line: "END"})
	return out
}

// ComplexService builds the complex from the persisted docking results.
type ComplexService struct {
	rc            *RunContext
	ligandResName string
}

// NewComplexService creates a complex service.
func NewComplexService(rc *RunContext, ligandResName string) *ComplexService {
	return &ComplexService{rc: rc, ligandResName: ligandResName}
}

// Assemble merges the unmasked receptor with every accepted pose.
func (s *ComplexService) Assemble(ctx context.Context) (*driving.AssembleSummary, error) {
	cp := s.rc.Checkpoints
	if _, err := cp.Load(ctx); err != nil {
		return nil, err
	}
	record := cp.Record()
	if record.SuccessCount == 0 {
		return nil, fmt.Errorf("%w: no accepted poses to assemble", domain.ErrNotFound)
	}

	receptor, err := s.load(ctx, domain.InitialReceptorRef(record.RunID))
	if err != nil {
		return nil, err
	}
	ligands := make([]domain.Structure, 0, len(record.AcceptedPoses))
	for _, ref := range record.AcceptedPoses {
		pose, err := s.load(ctx, ref)
		if err != nil {
			return nil, err
		}
		ligands = append(ligands, pose)
	}

	complexStructure := AssembleComplex(receptor, ligands, s.ligandResName)
	ref := domain.NewArtifactRef(domain.ArtifactComplex, fmt.Sprintf("%s-%d", record.RunID, record.SuccessCount))
	summary := &driving.AssembleSummary{
		Ref:     ref,
		Path:    s.rc.Artifacts.Path(ref),
		Ligands: len(ligands),
		Atoms:   complexStructure.AtomCount(),
	}
	if s.rc.DryRun {
		return summary, nil
	}
	if err := s.rc.Artifacts.Put(ctx, ref, pdbqt.Marshal(complexStructure)); err != nil {
		return nil, fmt.Errorf("store complex: %w", err)
	}
	logger.Info("Assembled %d ligands and %d atoms into %s", summary.Ligands, summary.Atoms, ref)
	return summary, nil
}

func (s *ComplexService) load(ctx context.Context, ref domain.ArtifactRef) (domain.Structure, error) {
	data, err := s.rc.Artifacts.Get(ctx, ref)
	if err != nil {
		return domain.Structure{}, fmt.Errorf("load %s: %w", ref, err)
	}
	st, err := pdbqt.ParseBytes(data)
	if err != nil {
		return domain.Structure{}, fmt.Errorf("parse %s: %w", ref, err)
	}
	return st, nil
}
