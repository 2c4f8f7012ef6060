package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries the generations table with plainto_tsquery and ts_rank,
// using ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	where := fmt.Sprintf("to_tsvector('english', g.synopsis || ' ' || g.generated_text) @@ %s", tsQuery)
	if q.FilterStoryID != "" {
		where += fmt.Sprintf(" AND g.story_id = $%d", argN)
		args = append(args, q.FilterStoryID)
		argN++
	}
	if q.FilterStatus != "" {
		where += fmt.Sprintf(" AND g.status = $%d", argN)
		args = append(args, q.FilterStatus)
		argN++
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM generations g WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT g.id, g.story_id, g.synopsis, g.status,
			ts_headline('english', g.generated_text, %s, 'MaxFragments=1,MaxWords=30') AS snippet
		FROM generations g
		WHERE %s
		ORDER BY ts_rank(to_tsvector('english', g.synopsis || ' ' || g.generated_text), %s) DESC
		LIMIT %d OFFSET %d`,
		tsQuery, where, tsQuery, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.StoryID, &r.Synopsis, &r.Status, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all generations as search records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]GenerationRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, story_id, synopsis, generated_text, status
		FROM generations
	`)
	if err != nil {
		return nil, fmt.Errorf("load generations: %w", err)
	}
	defer rows.Close()

	records := make([]GenerationRecord, 0)
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(&rec.ID, &rec.StoryID, &rec.Synopsis, &rec.Text, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return records, nil
}
