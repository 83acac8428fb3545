package pdbqt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Lint reports format problems that AutoDock tolerates poorly: short atom
// records, unparsable charges and missing atom types.
func Lint(r io.Reader) ([]string, error) {
	var issues []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if !IsAtomLine(line) {
			continue
		}
		if len(line) < typeEnd {
			issues = append(issues, fmt.Sprintf("line %d: atom record too short (%d < %d)", lineNo, len(line), typeEnd))
			continue
		}
		if c := strings.TrimSpace(line[chargeStart:chargeEnd]); c != "" {
			if _, err := strconv.ParseFloat(c, 64); err != nil {
				issues = append(issues, fmt.Sprintf("line %d: invalid charge %q", lineNo, c))
			}
		}
		if strings.TrimSpace(line[typeStart:typeEnd]) == "" {
			issues = append(issues, fmt.Sprintf("line %d: missing atom type", lineNo))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pdbqt: %w", err)
	}
	return issues, nil
}
