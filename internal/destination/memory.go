package destination

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"kbdump/internal/kb"
)

// MemoryDestination keeps the exported tree in memory, making it useful
// for testing. It is safe for concurrent use.
type MemoryDestination struct {
	files map[string][]byte
	dirs  map[string]bool
	mu    sync.RWMutex
}

// NewMemoryDestination creates an empty in-memory destination.
func NewMemoryDestination() *MemoryDestination {
	return &MemoryDestination{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// EnsureDir records a directory and all of its parents.
func (m *MemoryDestination) EnsureDir(relPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(strings.Trim(relPath, "/"), "/")
	for i := range parts {
		m.dirs[strings.Join(parts[:i+1], "/")] = true
	}
	return nil
}

// WriteFile stores the contents of r at relPath.
func (m *MemoryDestination) WriteFile(relPath string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[strings.Trim(relPath, "/")] = data
	return nil
}

// ValidateSetup always succeeds for the in-memory destination.
func (m *MemoryDestination) ValidateSetup() error {
	return nil
}

// File returns the stored contents at relPath and whether it exists.
func (m *MemoryDestination) File(relPath string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[strings.Trim(relPath, "/")]
	return data, ok
}

// HasDir reports whether a directory was created at relPath.
func (m *MemoryDestination) HasDir(relPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[strings.Trim(relPath, "/")]
}

// Files returns all stored file paths in sorted order.
func (m *MemoryDestination) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Dirs returns all recorded directories in sorted order.
func (m *MemoryDestination) Dirs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dirs := make([]string, 0, len(m.dirs))
	for d := range m.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Compile-time check that MemoryDestination implements kb.Destination
var _ kb.Destination = (*MemoryDestination)(nil)
