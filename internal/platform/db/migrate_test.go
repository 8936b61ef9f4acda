package db

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrator := NewMigrator(nil, Migrations, "migrations")
	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 embedded migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_documents.sql" {
		t.Errorf("unexpected first migration %+v", migrations[0])
	}
	if !strings.Contains(migrations[0].SQL, "CREATE TABLE IF NOT EXISTS documents") {
		t.Error("first migration should create the documents table")
	}
}

func TestLoadMigrations_SortAndSkip(t *testing.T) {
	fsys := fstest.MapFS{
		"m/003_third.sql":  {Data: []byte("SELECT 3;")},
		"m/001_first.sql":  {Data: []byte("SELECT 1;")},
		"m/002_second.sql": {Data: []byte("SELECT 2;")},
		"m/README.md":      {Data: []byte("docs")},
		"m/notes.sql":      {Data: []byte("no prefix")},
		"m/abc_bad.sql":    {Data: []byte("non numeric")},
	}

	migrations, err := NewMigrator(nil, fsys, "m").LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	for i, want := range []int{1, 2, 3} {
		if migrations[i].Version != want {
			t.Errorf("position %d: expected version %d, got %d", i, want, migrations[i].Version)
		}
	}
	if migrations[1].SQL != "SELECT 2;" {
		t.Errorf("unexpected SQL content: %s", migrations[1].SQL)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := NewMigrator(nil, fstest.MapFS{}, "nowhere").LoadMigrations()
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPendingAndStatuses(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Name: "001_documents.sql"},
		{Version: 2, Name: "002_documents_indexes.sql"},
	}
	applied := map[int]time.Time{1: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	pending := Pending(migrations, applied)
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("unexpected pending %+v", pending)
	}

	st := statuses(migrations, applied)
	if !st[0].Applied || st[0].AppliedAt == nil {
		t.Error("expected version 1 applied")
	}
	if st[1].Applied || st[1].AppliedAt != nil {
		t.Error("expected version 2 pending")
	}
}
