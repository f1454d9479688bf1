package testutil

import (
	"testing"

	"evault-go/internal/evault"
	"evault-go/internal/registry"
	"evault-go/internal/registry/migrations"
)

// NewTestRegistry creates a new in-memory registry for testing.
func NewTestRegistry() evault.Registry {
	return registry.NewMemoryRegistry()
}

// NewSQLiteTestRegistry creates a new in-memory SQLite registry with
// migrations applied. The registry is automatically closed when the
// test completes.
func NewSQLiteTestRegistry(t *testing.T) evault.Registry {
	t.Helper()

	db, err := registry.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	reg := registry.NewSQLiteRegistryFromDB(db)

	t.Cleanup(func() {
		reg.Close()
	})

	return reg
}
