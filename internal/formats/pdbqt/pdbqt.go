// Package pdbqt reads and writes AutoDock PDBQT records.
//
// Atom records use the PDB fixed columns plus a partial charge at
// columns 71-76 and the AutoDock atom type at columns 78-79.
package pdbqt

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
	serialStart  = 6
	serialEnd    = 11
	nameStart    = 12
	nameEnd      = 16
	resNameStart = 17
	resNameEnd   = 20
	resSeqStart  = 22
	resSeqEnd    = 26
	xStart       = 30
	yStart       = 38
	zStart       = 46
	coordEnd     = 54
	chargeStart  = 70
	chargeEnd    = 76
	typeStart    = 77
	typeEnd      = 79
)

// MinAtomLineLength is the shortest record that still carries coordinates.
const MinAtomLineLength = coordEnd

// IsAtomLine reports whether line is an ATOM or HETATM record.
func IsAtomLine(line string) bool {
	return strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM")
}

// Parse reads a PDBQT stream. Non-atom lines are kept verbatim.
func Parse(r io.Reader) (domain.Structure, error) {
	var s domain.Structure
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		rec := domain.Record{Line: line}
		if IsAtomLine(line) {
			atom, err := ParseAtomLine(line)
			if err != nil {
				return domain.Structure{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			rec.Atom = &atom
		}
		s.Records = append(s.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return domain.Structure{}, fmt.Errorf("reading pdbqt: %w", err)
	}
	return s, nil
}

// ParseBytes parses an in-memory PDBQT document.
func ParseBytes(data []byte) (domain.Structure, error) {
	return Parse(bytes.NewReader(data))
}

// ParseAtomLine parses one ATOM/HETATM record. Coordinates are required;
// serial, residue id, charge and type are read when present.
func ParseAtomLine(line string) (domain.AtomRecord, error) {
	if len(line) < MinAtomLineLength {
		return domain.AtomRecord{}, fmt.Errorf("%w: atom record has %d columns, need %d",
			domain.ErrMalformedRecord, len(line), MinAtomLineLength)
	}

	var coord [3]float64
	for i, start := range []int{xStart, yStart, zStart} {
		v, err := strconv.ParseFloat(strings.TrimSpace(line[start:start+8]), 64)
		if err != nil {
			return domain.AtomRecord{}, fmt.Errorf("%w: coordinate %q", domain.ErrMalformedRecord, line[start:start+8])
		}
		coord[i] = v
	}

	atom := domain.AtomRecord{
		Serial:      atoiOrZero(field(line, serialStart, serialEnd)),
		Name:        field(line, nameStart, nameEnd),
		ResidueName: field(line, resNameStart, resNameEnd),
		ResidueID:   atoiOrZero(field(line, resSeqStart, resSeqEnd)),
		Coord:       r3.Vec{X: coord[0], Y: coord[1], Z: coord[2]},
		Type:        field(line, typeStart, typeEnd),
	}
	if c := field(line, chargeStart, chargeEnd); c != "" {
		if v, err := strconv.ParseFloat(c, 64); err == nil {
			atom.Charge = v
			atom.HasCharge = true
		}
	}
	return atom, nil
}

// Write renders s. Clean records are written verbatim; dirty atoms get their
// charge and type columns re-rendered.
func Write(w io.Writer, s domain.Structure) error {
	bw := bufio.NewWriter(w)
	for _, rec := range s.Records {
		line := rec.Line
		if rec.Atom != nil && rec.Dirty {
			line = RenderTypeCharge(line, *rec.Atom)
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Marshal renders s into memory.
func Marshal(s domain.Structure) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, s) // bytes.Buffer writes never fail
	return buf.Bytes()
}

// RenderTypeCharge rewrites the charge and type columns of line from a.
// Short lines are padded to the full record width.
func RenderTypeCharge(line string, a domain.AtomRecord) string {
	line = padTo(line, typeEnd)
	return line[:chargeStart] +
		fmt.Sprintf("%6.3f", a.Charge) +
		" " +
		fmt.Sprintf("%-2s", a.Type) +
		line[typeEnd:]
}

// SetSerial rewrites the serial column.
func SetSerial(line string, serial int) string {
	line = padTo(line, serialEnd)
	return line[:serialStart] + fmt.Sprintf("%5d", serial%100000) + line[serialEnd:]
}

// SetResidue rewrites the residue name and sequence columns.
func SetResidue(line, name string, id int) string {
	line = padTo(line, resSeqEnd)
	return line[:resNameStart] + fmt.Sprintf("%-3.3s", name) + line[resNameEnd:resSeqStart] +
		fmt.Sprintf("%4d", id%10000) + line[resSeqEnd:]
}

func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func padTo(line string, width int) string {
	if len(line) >= width {
		return line
	}
	return line + strings.Repeat(" ", width-len(line))
}
