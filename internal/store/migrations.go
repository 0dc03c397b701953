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
		Description: "turns: append-only conversation log",
		SQL: `
CREATE TABLE turns (
    id          INTEGER PRIMARY KEY,
    session_id  TEXT NOT NULL,
    ts          INTEGER NOT NULL,
    role        TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    text        TEXT NOT NULL
);

CREATE INDEX idx_turns_session_ts ON turns(session_id, ts);
`,
	},
	{
		Version:     2,
		Description: "memories: mid/long tier entities",
		SQL: `
CREATE TABLE memories (
    id            INTEGER PRIMARY KEY,
    layer         TEXT NOT NULL CHECK (layer IN ('mid', 'long')),
    content       TEXT NOT NULL,
    created_at    INTEGER NOT NULL,
    last_seen_at  INTEGER,
    hits          INTEGER NOT NULL DEFAULT 0,
    score         REAL NOT NULL DEFAULT 0.0,
    importance    INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived', 'deleted')),
    tags_json     TEXT
);

CREATE INDEX idx_mem_layer_score ON memories(layer, score DESC);
CREATE INDEX idx_mem_last_seen   ON memories(last_seen_at);
`,
	},
	{
		Version:     3,
		Description: "memory_links: memory <-> turn provenance",
		SQL: `
CREATE TABLE memory_links (
    memory_id  INTEGER NOT NULL,
    turn_id    INTEGER NOT NULL,
    reason     TEXT,
    PRIMARY KEY (memory_id, turn_id),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (turn_id)   REFERENCES turns(id)    ON DELETE CASCADE
);
`,
	},
	{
		Version:     4,
		Description: "mem_events: lifecycle action log per memory",
		SQL: `
CREATE TABLE mem_events (
    id          INTEGER PRIMARY KEY,
    memory_id   INTEGER NOT NULL,
    action      TEXT NOT NULL,
    detail      TEXT,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE INDEX idx_events_memory ON mem_events(memory_id, created_at DESC);
`,
	},
}

// ftsSchema keeps a contentless-delta FTS5 index in sync with memories via
// triggers. Applied outside the version table with IF NOT EXISTS so a
// database created by an FTS-less build picks the index up later.
const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
    content,
    content='memories',
    content_rowid='id',
    tokenize='unicode61'
);
CREATE TRIGGER IF NOT EXISTS trg_mem_ai AFTER INSERT ON memories BEGIN
    INSERT INTO memories_fts(rowid, content) VALUES (new.id, new.content);
END;
CREATE TRIGGER IF NOT EXISTS trg_mem_ad AFTER DELETE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;
CREATE TRIGGER IF NOT EXISTS trg_mem_au AFTER UPDATE OF content ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content) VALUES ('delete', old.id, old.content);
    INSERT INTO memories_fts(rowid, content) VALUES (new.id, new.content);
END;
`

func (db *DB) migrate() error {
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

	if db.fts {
		if _, err := db.Exec(ftsSchema); err != nil {
			return fmt.Errorf("fts schema: %w", err)
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
