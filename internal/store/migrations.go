package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "body_states: proto-self snapshots",
		SQL: `
CREATE TABLE body_states (
    id         INTEGER PRIMARY KEY,
    timestamp  INTEGER NOT NULL,
    energy     REAL NOT NULL CHECK (energy  BETWEEN 0 AND 1),
    stress     REAL NOT NULL CHECK (stress  BETWEEN 0 AND 1),
    arousal    REAL NOT NULL CHECK (arousal BETWEEN 0 AND 1),
    valence    REAL NOT NULL CHECK (valence BETWEEN -1 AND 1),
    tension    REAL NOT NULL CHECK (tension BETWEEN 0 AND 1),
    fatigue    REAL NOT NULL CHECK (fatigue BETWEEN 0 AND 1),
    pain       REAL NOT NULL CHECK (pain    BETWEEN 0 AND 1),
    hunger     REAL NOT NULL CHECK (hunger  BETWEEN 0 AND 1)
);

CREATE INDEX idx_body_timestamp ON body_states(timestamp DESC);
`,
	},
	{
		Version:     2,
		Description: "emotions: decaying emotion instances",
		SQL: `
CREATE TABLE emotions (
    id                INTEGER PRIMARY KEY,
    type              TEXT NOT NULL,
    intensity         REAL NOT NULL CHECK (intensity BETWEEN 0 AND 1),
    initial_intensity REAL NOT NULL CHECK (initial_intensity BETWEEN 0 AND 1),
    cause             TEXT,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL,
    decayed           INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_emotions_active  ON emotions(decayed, intensity DESC);
CREATE INDEX idx_emotions_created ON emotions(created_at DESC);
`,
	},
	{
		Version:     3,
		Description: "events and memories: autobiographical store",
		SQL: `
CREATE TABLE events (
    id               INTEGER PRIMARY KEY,
    description      TEXT NOT NULL,
    context          TEXT,
    emotional_impact TEXT NOT NULL DEFAULT '{}',
    created_at       INTEGER NOT NULL
);

CREATE INDEX idx_events_created ON events(created_at DESC);

CREATE TABLE memories (
    id                  INTEGER PRIMARY KEY,
    event_id            INTEGER NOT NULL UNIQUE,
    emotional_salience  REAL NOT NULL CHECK (emotional_salience BETWEEN 0 AND 1),
    consolidation_level REAL NOT NULL CHECK (consolidation_level BETWEEN 0 AND 1),
    access_count        INTEGER NOT NULL DEFAULT 0,
    last_accessed       INTEGER NOT NULL,
    last_decayed        INTEGER NOT NULL,
    identity_relevance  REAL NOT NULL DEFAULT 0.5 CHECK (identity_relevance BETWEEN 0 AND 1),
    narrative_role      TEXT,
    associated_emotions TEXT NOT NULL DEFAULT '[]',
    archived            INTEGER NOT NULL DEFAULT 0,
    logbook_path        TEXT,
    created_at          INTEGER NOT NULL,

    FOREIGN KEY (event_id) REFERENCES events(id)
);

CREATE INDEX idx_memories_salience ON memories(archived, emotional_salience DESC);
CREATE INDEX idx_memories_accessed ON memories(last_accessed);
`,
	},
	{
		Version:     4,
		Description: "somatic_markers: learned cue to emotion associations",
		SQL: `
CREATE TABLE somatic_markers (
    id                  INTEGER PRIMARY KEY,
    cue_pattern         TEXT NOT NULL UNIQUE,
    emotion_profile     TEXT NOT NULL DEFAULT '{}',
    valence             REAL NOT NULL DEFAULT 0,
    strength            REAL NOT NULL CHECK (strength BETWEEN 0 AND 1),
    support_count       INTEGER NOT NULL DEFAULT 0,
    reinforcement_count INTEGER NOT NULL DEFAULT 0,
    last_activated      INTEGER,
    created_at          INTEGER NOT NULL,
    updated_at          INTEGER NOT NULL
);

CREATE INDEX idx_markers_strength ON somatic_markers(strength DESC);
`,
	},
	{
		Version:     5,
		Description: "decay_config: homeostatic baselines and half-lives",
		SQL: `
CREATE TABLE decay_config (
    param     TEXT PRIMARY KEY,
    baseline  REAL NOT NULL,
    half_life REAL NOT NULL CHECK (half_life > 0)
);

INSERT INTO decay_config (param, baseline, half_life) VALUES
    ('energy',  0.7, 3600),
    ('stress',  0.2, 1800),
    ('arousal', 0.5, 600),
    ('valence', 0.1, 1200),
    ('tension', 0.2, 1800),
    ('fatigue', 0.1, 7200),
    ('pain',    0.0, 3600),
    ('hunger',  0.3, 14400);
`,
	},
	{
		Version:     6,
		Description: "identity_traits: static reactivity configuration",
		SQL: `
CREATE TABLE identity_traits (
    name       TEXT PRIMARY KEY,
    strength   REAL NOT NULL CHECK (strength BETWEEN 0 AND 1),
    updated_at INTEGER NOT NULL
);
`,
	},
	{
		Version:     7,
		Description: "somatic_markers: reinforcement offset survives rescans",
		SQL: `
ALTER TABLE somatic_markers ADD COLUMN reinforcement_delta REAL NOT NULL DEFAULT 0;
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
