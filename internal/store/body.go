package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// BodySnapshot is one persisted proto-self row.
type BodySnapshot struct {
	ID        int64
	Timestamp time.Time
	Body      affect.Body
}

const bodyColumns = `id, timestamp, energy, stress, arousal, valence, tension, fatigue, pain, hunger`

// LatestBody returns the most recent snapshot, or nil if none exists.
func (c *Conn) LatestBody(ctx context.Context) (*BodySnapshot, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+bodyColumns+` FROM body_states ORDER BY timestamp DESC, id DESC LIMIT 1`)
	s, err := scanBody(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest body: %w", err)
	}
	return s, nil
}

// SaveBody appends a snapshot taken at ts.
func (c *Conn) SaveBody(ctx context.Context, ts time.Time, b affect.Body) (int64, error) {
	b.Clamp()
	res, err := c.q.ExecContext(ctx, `
		INSERT INTO body_states (timestamp, energy, stress, arousal, valence, tension, fatigue, pain, hunger)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		toMillis(ts), b.Energy, b.Stress, b.Arousal, b.Valence, b.Tension, b.Fatigue, b.Pain, b.Hunger,
	)
	if err != nil {
		return 0, fmt.Errorf("save body: %w", err)
	}
	return res.LastInsertId()
}

// BodyHistory returns up to limit snapshots, newest first.
func (c *Conn) BodyHistory(ctx context.Context, limit int) ([]BodySnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+bodyColumns+` FROM body_states ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("body history: %w", err)
	}
	defer rows.Close()

	var out []BodySnapshot
	for rows.Next() {
		s, err := scanBody(rows)
		if err != nil {
			return nil, fmt.Errorf("scan body: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBody(s scanner) (*BodySnapshot, error) {
	var snap BodySnapshot
	var ts int64
	b := &snap.Body
	if err := s.Scan(&snap.ID, &ts, &b.Energy, &b.Stress, &b.Arousal, &b.Valence,
		&b.Tension, &b.Fatigue, &b.Pain, &b.Hunger); err != nil {
		return nil, err
	}
	snap.Timestamp = fromMillis(ts)
	return &snap, nil
}
