package kb

import "io"

// Destination is where the export tree is materialized. Paths are
// slash-separated and relative to the destination root.
type Destination interface {
	// EnsureDir creates a directory (and any missing parents) under the
	// destination root. Creating an existing directory is not an error,
	// so re-running an export is safe.
	EnsureDir(relPath string) error

	// WriteFile stores the contents of r at relPath, overwriting any
	// existing file. size is the expected byte count, or -1 when unknown
	// (attachment downloads stream without a trusted length).
	WriteFile(relPath string, r io.Reader, size int64) error

	// ValidateSetup verifies that the destination is accessible and
	// writable before any export work starts.
	ValidateSetup() error
}
