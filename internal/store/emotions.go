package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lazypower/sable/internal/affect"
)

const emotionColumns = `id, type, intensity, initial_intensity, cause, created_at, updated_at, decayed`

// InsertEmotion persists a new instance and sets its ID.
func (c *Conn) InsertEmotion(ctx context.Context, e *affect.Emotion) error {
	res, err := c.q.ExecContext(ctx, `
		INSERT INTO emotions (type, intensity, initial_intensity, cause, created_at, updated_at, decayed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), affect.ClampUnit(e.Intensity), affect.ClampUnit(e.InitialIntensity),
		nullString(e.Cause), toMillis(e.CreatedAt), toMillis(e.UpdatedAt), boolInt(e.Decayed),
	)
	if err != nil {
		return fmt.Errorf("insert emotion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert emotion id: %w", err)
	}
	e.ID = id
	return nil
}

// UpdateEmotion writes back decayed intensity and the decayed flag.
func (c *Conn) UpdateEmotion(ctx context.Context, e affect.Emotion) error {
	_, err := c.q.ExecContext(ctx,
		`UPDATE emotions SET intensity = ?, updated_at = ?, decayed = ? WHERE id = ?`,
		affect.ClampUnit(e.Intensity), toMillis(e.UpdatedAt), boolInt(e.Decayed), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update emotion %d: %w", e.ID, err)
	}
	return nil
}

// ActiveEmotions returns instances not yet flagged decayed, oldest first.
func (c *Conn) ActiveEmotions(ctx context.Context) ([]affect.Emotion, error) {
	return c.queryEmotions(ctx,
		`SELECT `+emotionColumns+` FROM emotions WHERE decayed = 0 ORDER BY created_at ASC, id ASC`)
}

// RecentEmotions returns the newest instances including decayed history.
func (c *Conn) RecentEmotions(ctx context.Context, limit int) ([]affect.Emotion, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.queryEmotions(ctx,
		`SELECT `+emotionColumns+` FROM emotions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (c *Conn) queryEmotions(ctx context.Context, query string, args ...any) ([]affect.Emotion, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emotions: %w", err)
	}
	defer rows.Close()

	var out []affect.Emotion
	for rows.Next() {
		var e affect.Emotion
		var kind string
		var cause sql.NullString
		var created, updated int64
		var decayed int
		if err := rows.Scan(&e.ID, &kind, &e.Intensity, &e.InitialIntensity, &cause,
			&created, &updated, &decayed); err != nil {
			return nil, fmt.Errorf("scan emotion: %w", err)
		}
		e.Kind = affect.Kind(kind)
		e.Cause = cause.String
		e.CreatedAt = fromMillis(created)
		e.UpdatedAt = fromMillis(updated)
		e.Decayed = decayed != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
