package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"evault-go/internal/config"
	"evault-go/internal/evault"
)

// NewRegistryFromConfig creates a Registry implementation based on the
// registry config type.
func NewRegistryFromConfig(cfg config.RegistryConfig) (evault.Registry, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite registry")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteRegistry(filepath.Join(cfg.DataDir, "evault.db"))
	case "memory":
		return NewMemoryRegistry(), nil
	default:
		return nil, fmt.Errorf("unknown registry type: %s", cfg.Type)
	}
}
