//go:build windows

package atomicfile

import "os"

// replace relies on os.Rename, which uses MoveFileEx with
// MOVEFILE_REPLACE_EXISTING on Windows.
func replace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

// syncDir is a no-op on Windows; directory fsync is not available.
func syncDir(string) error { return nil }
