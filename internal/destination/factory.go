package destination

import (
	"context"
	"fmt"

	"kbdump/internal/config"
	"kbdump/internal/kb"
)

// NewDestinationFromConfig creates a Destination based on the destination
// config type. outputDir is the resolved local output directory, used only
// by the filesystem backend.
func NewDestinationFromConfig(ctx context.Context, cfg config.DestinationConfig, outputDir string) (kb.Destination, error) {
	switch cfg.Type {
	case "filesystem":
		if outputDir == "" {
			return nil, fmt.Errorf("filesystem destination requires an output directory")
		}
		return NewFileSystemDestination(outputDir)
	case "s3":
		return NewS3Destination(ctx, cfg)
	case "memory":
		return NewMemoryDestination(), nil
	default:
		return nil, fmt.Errorf("unknown destination type: %s", cfg.Type)
	}
}
