package repo

import (
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// openTestDB opens an in-memory SQLite database with the full schema applied.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestOpenSQLiteMissingParentDir(t *testing.T) {
	if _, err := OpenSQLite("definitely/missing/dir/app.db"); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestOpenSQLiteTempFile(t *testing.T) {
	path := t.TempDir() + "/app.db"
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
}
