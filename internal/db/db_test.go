package db

import (
	"testing"
)

func TestInitDBCreatesSchema(t *testing.T) {
	t.Setenv("CCDEV_DATA_DIR", t.TempDir())

	dbConn, err := InitDB()
	if err != nil {
		t.Fatalf("InitDB(): %v", err)
	}
	t.Cleanup(func() { _ = dbConn.Close() })

	var n int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		t.Fatalf("query runs table: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty runs table, got %d rows", n)
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Setenv("CCDEV_DATA_DIR", t.TempDir())

	dbConn, err := InitDB()
	if err != nil {
		t.Fatalf("InitDB(): %v", err)
	}
	t.Cleanup(func() { _ = dbConn.Close() })

	if err := ApplyMigrations(dbConn); err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
}
