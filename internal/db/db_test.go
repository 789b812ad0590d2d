package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, FileName)); os.IsNotExist(err) {
		t.Errorf("database file not created")
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='documents'").Scan(&tableName)
	if err != nil {
		t.Fatalf("documents table not found: %v", err)
	}

	version, err := GetUserVersion(db)
	if err != nil {
		t.Fatalf("GetUserVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_Idempotent(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", ".oklch-preview")

	first, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	first.Close()

	second, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	second.Close()
}

func TestConfigurePool(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()
	cfg.DBMaxOpenConns = 1
	cfg.DBMaxIdleConns = 1

	ConfigurePool(database, cfg)
	ConfigurePool(database, nil)

	if got := database.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestInsertAndGet(t *testing.T) {
	database := setupDB(t)

	rec := &Record{
		ID: "01J000000000000000000000A1", NameRaw: "Theme.css", NameNorm: "theme.css",
		Text: "a { color: oklch(0.5 0.1 30) }", TextChars: 30, CreatedAt: 100, UpdatedAt: 100,
	}
	if err := Insert(database, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	byID, err := GetByID(database, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if *byID != *rec {
		t.Errorf("GetByID() = %+v, want %+v", byID, rec)
	}

	byName, err := GetByName(database, "theme.css")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if byName.ID != rec.ID {
		t.Errorf("GetByName().ID = %q, want %q", byName.ID, rec.ID)
	}

	dup := *rec
	dup.ID = "01J000000000000000000000A2"
	err = Insert(database, &dup)
	if !errors.Is(err, errors.ErrNameAlreadyExists) {
		t.Errorf("duplicate Insert() error = %v, want NAME_ALREADY_EXISTS", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	database := setupDB(t)

	if _, err := GetByID(database, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want NOT_FOUND", err)
	}
	if _, err := GetByName(database, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByName() error = %v, want NOT_FOUND", err)
	}
}

func TestListAndCount(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	for i, name := range []string{"a.css", "b.css", "c.css"} {
		rec := &Record{
			ID: "01J00000000000000000000" + string(rune('A'+i)) + "00", NameRaw: name, NameNorm: name,
			Text: "x", TextChars: 1, CreatedAt: int64(i), UpdatedAt: int64(i),
		}
		if err := Insert(database, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", name, err)
		}
	}

	n, err := Count(ctx, database)
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v; want 3", n, err)
	}

	page, err := List(ctx, database, 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 || page[0].NameRaw != "c.css" || page[1].NameRaw != "b.css" {
		t.Errorf("List() = %+v, want c.css, b.css", page)
	}
	if page[0].Text != "" {
		t.Errorf("List() should not load text")
	}

	rest, err := List(ctx, database, 2, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rest) != 1 || rest[0].NameRaw != "a.css" {
		t.Errorf("List(offset=2) = %+v, want a.css", rest)
	}
}

func TestUpdateTextAndDelete(t *testing.T) {
	database := setupDB(t)

	rec := &Record{ID: "01J000000000000000000000B1", NameRaw: "x", NameNorm: "x", Text: "old", TextChars: 3}
	if err := Insert(database, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	rec.Text = "oklch(1 0 0)"
	rec.TextChars = 12
	if err := UpdateText(database, rec); err != nil {
		t.Fatalf("UpdateText() error = %v", err)
	}
	if rec.UpdatedAt == 0 {
		t.Error("UpdatedAt should be set")
	}

	got, err := GetByID(database, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Text != "oklch(1 0 0)" || got.TextChars != 12 {
		t.Errorf("after update got %+v", got)
	}

	if err := Delete(database, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := Delete(database, rec.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want NOT_FOUND", err)
	}
	missing := &Record{ID: rec.ID, Text: "y"}
	if err := UpdateText(database, missing); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateText() on deleted error = %v, want NOT_FOUND", err)
	}
}
