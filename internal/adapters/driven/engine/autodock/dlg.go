package autodock

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
)

const dockedPrefix = "DOCKED: "

// poseRecords are the torsion-tree records kept alongside atoms.
var poseRecords = []string{"ROOT", "ENDROOT", "BRANCH", "ENDBRANCH", "TORSDOF"}

// ExtractBestPose returns the pose of the Run = 1 block of a results log.
// The block ends at its ENDMDL or at the next run header.
func ExtractBestPose(r io.Reader) (domain.Structure, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	found := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, dockedPrefix) {
			continue
		}
		body := line[len(dockedPrefix):]

		if run, ok := runNumber(body); ok {
			if found {
				break
			}
			found = run == 1
			continue
		}
		if !found {
			continue
		}
		if strings.HasPrefix(body, "ENDMDL") {
			break
		}
		if keepRecord(body) {
			lines = append(lines, body)
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Structure{}, fmt.Errorf("reading results log: %w", err)
	}
	if !found {
		return domain.Structure{}, fmt.Errorf("%w: no Run = 1 block", domain.ErrPoseNotFound)
	}

	pose, err := pdbqt.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return domain.Structure{}, err
	}
	if pose.AtomCount() == 0 {
		return domain.Structure{}, fmt.Errorf("%w: Run = 1 block has no atoms", domain.ErrPoseNotFound)
	}
	return pose, nil
}

// runNumber parses a "USER    Run = N" header.
func runNumber(body string) (int, bool) {
	f := strings.Fields(body)
	if len(f) < 4 || f[0] != "USER" || f[1] != "Run" || f[2] != "=" {
		return 0, false
	}
	n, err := strconv.Atoi(f[3])
	if err != nil {
		return 0, false
	}
	return n, true
}

func keepRecord(body string) bool {
	if pdbqt.IsAtomLine(body) {
		return true
	}
	word, _, _ := strings.Cut(body, " ")
	for _, r := range poseRecords {
		if word == r {
			return true
		}
	}
	return false
}
