package destination_test

import (
	"context"
	"path/filepath"
	"testing"

	"kbdump/internal/config"
	"kbdump/internal/destination"
)

func TestNewDestinationFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("filesystem", func(t *testing.T) {
		outputDir := filepath.Join(t.TempDir(), "out")
		d, err := destination.NewDestinationFromConfig(ctx,
			config.DestinationConfig{Type: "filesystem"}, outputDir)
		if err != nil {
			t.Fatalf("factory failed: %v", err)
		}
		if _, ok := d.(*destination.FileSystemDestination); !ok {
			t.Errorf("got %T, want *FileSystemDestination", d)
		}
	})

	t.Run("filesystem requires output dir", func(t *testing.T) {
		_, err := destination.NewDestinationFromConfig(ctx,
			config.DestinationConfig{Type: "filesystem"}, "")
		if err == nil {
			t.Fatal("expected an error for a missing output directory")
		}
	})

	t.Run("memory", func(t *testing.T) {
		d, err := destination.NewDestinationFromConfig(ctx,
			config.DestinationConfig{Type: "memory"}, "")
		if err != nil {
			t.Fatalf("factory failed: %v", err)
		}
		if _, ok := d.(*destination.MemoryDestination); !ok {
			t.Errorf("got %T, want *MemoryDestination", d)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := destination.NewDestinationFromConfig(ctx,
			config.DestinationConfig{Type: "ftp"}, "")
		if err == nil {
			t.Fatal("expected an error for an unknown type")
		}
	})
}
