package testutil

import (
	"kbdump/internal/destination"
)

// NewTestDestination returns an empty in-memory destination for exporter
// tests.
func NewTestDestination() *destination.MemoryDestination {
	return destination.NewMemoryDestination()
}
