// Package testing provides test fixtures shared across packages.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/aristath/vigil/internal/database"
)

// InitFunc applies a schema to a freshly opened database
type InitFunc func(db *database.DB) error

// NewTestDB creates a temporary-file SQLite database wrapped in the
// production database.DB type (WAL mode, pooled connections). Each test
// gets its own file so PRAGMAs behave exactly as they do in production.
// The cleanup function closes the connection and removes the file; it is
// idempotent and safe to call multiple times.
func NewTestDB(t *testing.T, name string, init InitFunc) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if init != nil {
		if err := init(db); err != nil {
			_ = db.Close()
			_ = os.Remove(tmpPath)
			t.Fatalf("Failed to apply schema to test database %s: %v", name, err)
		}
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
		// WAL sidecar files may linger after close
		_ = os.Remove(tmpPath + "-wal")
		_ = os.Remove(tmpPath + "-shm")
	}
}
