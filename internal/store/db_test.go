package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMemory(t *testing.T) {
	db := testDB(t)
	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sable.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.Close()

	// Reopening an existing database must not re-run migrations.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion = %d, want %d", v, len(migrations))
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 6 {
		t.Errorf("SchemaVersion = %d, want 6", v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{
		"schema_versions", "body_states", "emotions", "events", "memories",
		"somatic_markers", "decay_config", "identity_traits",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestBodyStateConstraints(t *testing.T) {
	db := testDB(t)

	_, err := db.Exec(`
		INSERT INTO body_states (timestamp, energy, stress, arousal, valence, tension, fatigue, pain, hunger)
		VALUES (1000, 0.7, 0.3, 0.5, -0.4, 0.3, 0.2, 0, 0.3)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Energy out of range
	_, err = db.Exec(`
		INSERT INTO body_states (timestamp, energy, stress, arousal, valence, tension, fatigue, pain, hunger)
		VALUES (1000, 1.4, 0.3, 0.5, 0.1, 0.3, 0.2, 0, 0.3)
	`)
	if err == nil {
		t.Error("expected error for energy > 1, got nil")
	}

	// Valence below -1
	_, err = db.Exec(`
		INSERT INTO body_states (timestamp, energy, stress, arousal, valence, tension, fatigue, pain, hunger)
		VALUES (1000, 0.7, 0.3, 0.5, -1.2, 0.3, 0.2, 0, 0.3)
	`)
	if err == nil {
		t.Error("expected error for valence < -1, got nil")
	}
}

func TestMemoryRequiresEvent(t *testing.T) {
	db := testDB(t)

	_, err := db.Exec(`
		INSERT INTO memories (event_id, emotional_salience, consolidation_level, last_accessed, last_decayed, created_at)
		VALUES (999, 0.5, 0.5, 1000, 1000, 1000)
	`)
	if err == nil {
		t.Error("expected foreign key error for missing event, got nil")
	}
}

func TestDecayConfigSeeded(t *testing.T) {
	db := testDB(t)

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM decay_config").Scan(&n); err != nil {
		t.Fatalf("count decay_config: %v", err)
	}
	if n != 8 {
		t.Errorf("decay_config rows = %d, want 8", n)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 6 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 6", v)
	}
}

func TestWALMode(t *testing.T) {
	db := testDB(t)

	var mode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	// In-memory databases may use "memory" mode instead of WAL
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db := testDB(t)

	var fk int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestUpdateRollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Update(ctx, func(c *Conn) error {
		if err := c.SetTrait(ctx, "curiosity", 0.9, fixedNow); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update err = %v, want boom", err)
	}

	traits, err := db.Conn().Traits(ctx)
	if err != nil {
		t.Fatalf("Traits: %v", err)
	}
	if len(traits) != 0 {
		t.Errorf("traits after rollback = %v, want none", traits)
	}
}
