// Package destination provides the output backends an export run can
// materialize into: a local directory tree, an S3 bucket, or memory for
// tests.
package destination

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kbdump/internal/kb"
)

// FileSystemDestination materializes the export tree under a local root
// directory. Writes are atomic (temp file + rename) so an interrupted run
// never leaves a half-written README or attachment behind; re-running an
// export simply overwrites the previous output for the same article ids.
type FileSystemDestination struct {
	root string
}

// NewFileSystemDestination creates a destination rooted at the given path,
// creating the root directory if it does not exist.
func NewFileSystemDestination(root string) (*FileSystemDestination, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileSystemDestination{root: root}, nil
}

// Root returns the local root directory of the destination.
func (d *FileSystemDestination) Root() string {
	return d.root
}

// EnsureDir creates a directory under the root. Creating an existing
// directory is not an error.
func (d *FileSystemDestination) EnsureDir(relPath string) error {
	if err := os.MkdirAll(filepath.Join(d.root, filepath.FromSlash(relPath)), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", relPath, err)
	}
	return nil
}

// WriteFile stores the contents of r at relPath, overwriting any existing
// file. size is verified when non-negative.
func (d *FileSystemDestination) WriteFile(relPath string, r io.Reader, size int64) error {
	destPath := filepath.Join(d.root, filepath.FromSlash(relPath))

	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if size >= 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// ValidateSetup verifies that the root exists, is a directory, and is
// writable.
func (d *FileSystemDestination) ValidateSetup() error {
	info, err := os.Stat(d.root)
	if err != nil {
		return fmt.Errorf("output directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", d.root)
	}

	probe, err := os.CreateTemp(d.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

// Compile-time check that FileSystemDestination implements kb.Destination
var _ kb.Destination = (*FileSystemDestination)(nil)
