package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CCDEV_DATA_DIR", dir)

	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir(): %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}
}

func TestDBPathUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CCDEV_DATA_DIR", dir)

	p, err := DBPath()
	if err != nil {
		t.Fatalf("DBPath(): %v", err)
	}
	if filepath.Dir(p) != dir {
		t.Fatalf("db path %q not under %q", p, dir)
	}
	if !strings.HasSuffix(p, "ccdev.db") {
		t.Fatalf("unexpected db file name: %q", p)
	}
}

func TestLogPathUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CCDEV_DATA_DIR", dir)

	p, err := LogPath()
	if err != nil {
		t.Fatalf("LogPath(): %v", err)
	}
	if filepath.Dir(p) != dir {
		t.Fatalf("log path %q not under %q", p, dir)
	}
}
