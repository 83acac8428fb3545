// Package gromacs edits GROMACS topology and run-parameter files.
package gromacs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

var sectionHeader = regexp.MustCompile(`^\s*\[\s*([A-Za-z_]+)\s*\]`)

// moleculeEntry is one "name count" line in the [ molecules ] section.
type moleculeEntry struct {
	line  int
	name  string
	count int
	// byte offsets of the count token within the line
	start, end int
}

// moleculeEntries returns the entries of the [ molecules ] section.
// The second result is false when the section is absent.
func moleculeEntries(lines []string) ([]moleculeEntry, bool) {
	var entries []moleculeEntry
	found, inSection := false, false
	for i, line := range lines {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			inSection = strings.EqualFold(m[1], "molecules")
			found = found || inSection
			continue
		}
		if !inSection {
			continue
		}
		body, _, _ := strings.Cut(line, ";")
		nameStart, nameEnd, ok := nextToken(body, 0)
		if !ok {
			continue
		}
		countStart, countEnd, ok := nextToken(body, nameEnd)
		if !ok {
			continue
		}
		count, err := strconv.Atoi(body[countStart:countEnd])
		if err != nil {
			continue
		}
		entries = append(entries, moleculeEntry{
			line:  i,
			name:  body[nameStart:nameEnd],
			count: count,
			start: countStart,
			end:   countEnd,
		})
	}
	return entries, found
}

// MoleculeCount sums the [ molecules ] counts of the named molecule type.
func MoleculeCount(topology, name string) (int, error) {
	entries, ok := moleculeEntries(splitLines(topology))
	if !ok {
		return 0, fmt.Errorf("%w: topology has no [ molecules ] section", domain.ErrConfig)
	}
	total := 0
	for _, e := range entries {
		if e.name == name {
			total += e.count
		}
	}
	return total, nil
}

// DecrementMolecules lowers the count of the named molecule type by n,
// never below zero. Entries are consumed in file order and only the count
// token is rewritten, so spacing and comments survive.
func DecrementMolecules(topology, name string, n int) (string, error) {
	lines := splitLines(topology)
	entries, ok := moleculeEntries(lines)
	if !ok {
		return "", fmt.Errorf("%w: topology has no [ molecules ] section", domain.ErrConfig)
	}

	matched := false
	remaining := n
	for _, e := range entries {
		if e.name != name {
			continue
		}
		matched = true
		if remaining <= 0 {
			break
		}
		take := min(e.count, remaining)
		remaining -= take
		line := lines[e.line]
		lines[e.line] = line[:e.start] + padCount(strconv.Itoa(e.count-take), e.end-e.start) + line[e.end:]
	}
	if !matched {
		return "", fmt.Errorf("%w: molecule %q not listed in [ molecules ]", domain.ErrConfig, name)
	}
	return strings.Join(lines, "\n"), nil
}

// padCount right-aligns s in the original token width so column layouts hold.
func padCount(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func nextToken(s string, from int) (int, int, bool) {
	start := from
	for start < len(s) && unicode.IsSpace(rune(s[start])) {
		start++
	}
	if start >= len(s) {
		return 0, 0, false
	}
	end := start
	for end < len(s) && !unicode.IsSpace(rune(s[end])) {
		end++
	}
	return start, end, true
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

// LintTopology reports problems with the [ molecules ] section.
func LintTopology(topology, ligand string) []string {
	entries, ok := moleculeEntries(splitLines(topology))
	if !ok {
		return []string{"could not find [ molecules ] section in topology"}
	}
	for _, e := range entries {
		if e.name == ligand {
			return nil
		}
	}
	return []string{fmt.Sprintf("ligand %q not listed in [ molecules ]", ligand)}
}
