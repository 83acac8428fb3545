// Package gro reads and writes GROMACS .gro coordinate snapshots.
//
// Layout: a title line, an atom count line, one fixed-column record per
// atom and a trailing box vector line. Coordinates are in nanometres.
package gro

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// Column ranges (0-based, half-open).
const (
	resIDEnd    = 5
	resNameEnd  = 10
	atomNameEnd = 15
	atomNrEnd   = 20
	xStart      = 20
	coordWidth  = 8
	coordEnd    = 44
)

// Frame is one parsed snapshot.
type Frame struct {
	// Title is the first line.
	Title string

	// Structure holds one record per atom.
	Structure domain.Structure

	// Box is the final box vector line, kept verbatim.
	Box string
}

// Atoms returns the frame atoms.
func (f Frame) Atoms() []domain.AtomRecord {
	return f.Structure.Atoms()
}

// maxCountHint bounds the preallocation taken from the atom count line.
const maxCountHint = 1 << 16

// Parse reads a .gro stream.
func Parse(r io.Reader) (Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimRight(scanner.Text(), "\r"), true
	}

	title, ok := next()
	if !ok {
		return Frame{}, fmt.Errorf("%w: empty gro file", domain.ErrMalformedRecord)
	}
	countLine, ok := next()
	if !ok {
		return Frame{}, fmt.Errorf("%w: missing atom count", domain.ErrMalformedRecord)
	}
	count, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil || count < 0 {
		return Frame{}, fmt.Errorf("%w: atom count %q", domain.ErrMalformedRecord, countLine)
	}

	frame := Frame{Title: title}
	// The count line is untrusted; the slice grows past the hint as atoms arrive.
	frame.Structure.Records = make([]domain.Record, 0, min(count, maxCountHint))
	for i := 0; i < count; i++ {
		line, ok := next()
		if !ok {
			return Frame{}, fmt.Errorf("%w: expected %d atoms, found %d", domain.ErrMalformedRecord, count, i)
		}
		atom, err := ParseAtomLine(line)
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", i+3, err)
		}
		frame.Structure.Records = append(frame.Structure.Records, domain.Record{Line: line, Atom: &atom})
	}
	if box, ok := next(); ok {
		frame.Box = box
	}
	if err := scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("reading gro: %w", err)
	}
	return frame, nil
}

// ParseBytes parses an in-memory .gro document.
func ParseBytes(data []byte) (Frame, error) {
	return Parse(bytes.NewReader(data))
}

// ParseAtomLine parses one fixed-column atom record.
func ParseAtomLine(line string) (domain.AtomRecord, error) {
	if len(line) < coordEnd {
		return domain.AtomRecord{}, fmt.Errorf("%w: gro atom record has %d columns, need %d",
			domain.ErrMalformedRecord, len(line), coordEnd)
	}
	resID, err := strconv.Atoi(strings.TrimSpace(line[:resIDEnd]))
	if err != nil {
		return domain.AtomRecord{}, fmt.Errorf("%w: residue number %q", domain.ErrMalformedRecord, line[:resIDEnd])
	}
	serial, _ := strconv.Atoi(strings.TrimSpace(line[atomNameEnd:atomNrEnd]))

	var coord [3]float64
	for i := range coord {
		start := xStart + i*coordWidth
		v, err := strconv.ParseFloat(strings.TrimSpace(line[start:start+coordWidth]), 64)
		if err != nil {
			return domain.AtomRecord{}, fmt.Errorf("%w: coordinate %q", domain.ErrMalformedRecord, line[start:start+coordWidth])
		}
		coord[i] = v
	}

	return domain.AtomRecord{
		Serial:      serial,
		Name:        strings.TrimSpace(line[resNameEnd:atomNameEnd]),
		ResidueName: strings.TrimSpace(line[resIDEnd:resNameEnd]),
		ResidueID:   resID,
		Coord:       r3.Vec{X: coord[0], Y: coord[1], Z: coord[2]},
	}, nil
}

// Write renders f. The count line always reflects the current atom count.
func Write(w io.Writer, f Frame) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, f.Title)
	fmt.Fprintf(bw, "%5d\n", f.Structure.AtomCount())
	for _, rec := range f.Structure.Records {
		if rec.Atom == nil {
			continue
		}
		fmt.Fprintln(bw, rec.Line)
	}
	fmt.Fprintln(bw, f.Box)
	return bw.Flush()
}

// Marshal renders f into memory.
func Marshal(f Frame) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, f) // bytes.Buffer writes never fail
	return buf.Bytes()
}

// ResidueAtoms groups the atoms of residues named resName by residue id.
func ResidueAtoms(atoms []domain.AtomRecord, resName string) map[int][]domain.AtomRecord {
	groups := make(map[int][]domain.AtomRecord)
	for _, a := range atoms {
		if a.ResidueName == resName {
			groups[a.ResidueID] = append(groups[a.ResidueID], a)
		}
	}
	return groups
}

// RemoveResidues returns a copy of f without the atoms of the given
// residue ids of resName. Serials are not touched; see Renumber.
func RemoveResidues(f Frame, resName string, ids map[int]bool) (Frame, int) {
	out := Frame{Title: f.Title, Box: f.Box}
	removed := 0
	for _, rec := range f.Structure.Records {
		if rec.Atom != nil && rec.Atom.ResidueName == resName && ids[rec.Atom.ResidueID] {
			removed++
			continue
		}
		out.Structure.Records = append(out.Structure.Records, rec)
	}
	return out.cloned(), removed
}

// Renumber rewrites atom numbers contiguously from 1.
// GROMACS wraps the five-column field at 100000.
func Renumber(f Frame) Frame {
	out := f.cloned()
	n := 0
	for i, rec := range out.Structure.Records {
		if rec.Atom == nil {
			continue
		}
		n++
		rec.Atom.Serial = n
		out.Structure.Records[i].Line = rec.Line[:atomNameEnd] + fmt.Sprintf("%5d", n%100000) + rec.Line[atomNrEnd:]
	}
	return out
}

func (f Frame) cloned() Frame {
	return Frame{Title: f.Title, Box: f.Box, Structure: f.Structure.Clone()}
}
