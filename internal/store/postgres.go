package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrGenerationRejected is returned when a lineage transition targets a node
// that was already rejected.
var ErrGenerationRejected = errors.New("generation is rejected")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const generationColumns = `id, parent_id, root_id, story_id, chapter_number, part_number,
	synopsis, style_note, requested_length, prompt, generated_text,
	iteration_feedback, status, is_accepted, created_at`

func scanGeneration(row interface{ Scan(...any) error }) (Generation, error) {
	var g Generation
	err := row.Scan(
		&g.ID, &g.ParentID, &g.RootID, &g.StoryID, &g.ChapterNumber, &g.PartNumber,
		&g.Synopsis, &g.StyleNote, &g.RequestedLength, &g.Prompt, &g.GeneratedText,
		&g.IterationFeedback, &g.Status, &g.IsAccepted, &g.CreatedAt,
	)
	return g, err
}

func (s *PostgresStore) InsertGeneration(ctx context.Context, g Generation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			id, parent_id, root_id, story_id, chapter_number, part_number,
			synopsis, style_note, requested_length, prompt, generated_text,
			iteration_feedback, status, is_accepted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, g.ID, g.ParentID, g.RootID, g.StoryID, g.ChapterNumber, g.PartNumber,
		g.Synopsis, g.StyleNote, g.RequestedLength, g.Prompt, g.GeneratedText,
		g.IterationFeedback, g.Status, g.IsAccepted)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGeneration(ctx context.Context, id string) (Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE id = $1`, id)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, err
	}
	if err != nil {
		return Generation{}, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

// ListBranch returns every node sharing a root ancestor, oldest first.
func (s *PostgresStore) ListBranch(ctx context.Context, rootID string) ([]Generation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE root_id = $1 ORDER BY created_at, id`, rootID)
	if err != nil {
		return nil, fmt.Errorf("list branch: %w", err)
	}
	defer rows.Close()
	return collectGenerations(rows)
}

// AcceptGeneration makes the target the single live node of its branch. The
// flag flip is one transaction scoped by root_id, so no reader observes two
// live nodes. Accepting an already-live node is a no-op; accepting a rejected
// node fails with ErrGenerationRejected; a missing id fails with
// sql.ErrNoRows.
func (s *PostgresStore) AcceptGeneration(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept: %w", err)
	}
	defer tx.Rollback()

	var rootID, status string
	err = tx.QueryRowContext(ctx,
		`SELECT root_id, status FROM generations WHERE id = $1 FOR UPDATE`, id).
		Scan(&rootID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err != nil {
		return fmt.Errorf("lock generation: %w", err)
	}
	if status == StatusRejected {
		return ErrGenerationRejected
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE generations SET is_accepted = FALSE WHERE root_id = $1 AND is_accepted`, rootID); err != nil {
		return fmt.Errorf("clear live flag: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE generations SET is_accepted = TRUE, status = $2 WHERE id = $1`, id, StatusAccepted); err != nil {
		return fmt.Errorf("set live flag: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept: %w", err)
	}
	return nil
}

// RejectGeneration marks a proposed node rejected. It reports whether the row
// transitioned; a node already in a terminal state is left untouched.
func (s *PostgresStore) RejectGeneration(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generations SET status = $2, is_accepted = FALSE WHERE id = $1 AND status = $3`,
		id, StatusRejected, StatusProposed)
	if err != nil {
		return false, fmt.Errorf("reject generation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reject generation rows: %w", err)
	}
	return affected > 0, nil
}

// History walks parent links from the target up to its root and returns the
// path ordered root first.
func (s *PostgresStore) History(ctx context.Context, id string) ([]Generation, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE lineage AS (
			SELECT g.*, 0 AS depth FROM generations g WHERE g.id = $1
			UNION ALL
			SELECT p.*, l.depth + 1 FROM generations p
			JOIN lineage l ON p.id = l.parent_id
		)
		SELECT `+generationColumns+` FROM lineage ORDER BY depth DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("lineage history: %w", err)
	}
	defer rows.Close()
	return collectGenerations(rows)
}

// ListRecent lists a story's generations newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, storyID string, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE story_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		storyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	return collectGenerations(rows)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func collectGenerations(rows *sql.Rows) ([]Generation, error) {
	items := make([]Generation, 0)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return items, nil
}
