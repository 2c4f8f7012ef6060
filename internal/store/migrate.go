package store

import (
	"context"
	"database/sql"
	"fmt"
)

// The partial unique index on (root_id) WHERE is_accepted backs the
// single-live-version invariant at the schema level; AcceptGeneration still
// flips flags inside one transaction so no reader sees two live nodes.
const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id                 TEXT PRIMARY KEY,
	parent_id          TEXT REFERENCES generations(id),
	root_id            TEXT NOT NULL,
	story_id           TEXT NOT NULL DEFAULT '',
	chapter_number     INT,
	part_number        INT,
	synopsis           TEXT NOT NULL DEFAULT '',
	style_note         TEXT NOT NULL DEFAULT '',
	requested_length   INT NOT NULL DEFAULT 0,
	prompt             TEXT NOT NULL DEFAULT '',
	generated_text     TEXT NOT NULL DEFAULT '',
	iteration_feedback TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'PROPOSED',
	is_accepted        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_generations_root
	ON generations (root_id);

CREATE INDEX IF NOT EXISTS idx_generations_story_created
	ON generations (story_id, created_at DESC);

CREATE UNIQUE INDEX IF NOT EXISTS idx_generations_live_per_root
	ON generations (root_id) WHERE is_accepted;

CREATE INDEX IF NOT EXISTS idx_generations_fts
	ON generations USING GIN (to_tsvector('english', synopsis || ' ' || generated_text));
`

// EnsureSchema applies the generations schema. All statements are idempotent
// so it is safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
