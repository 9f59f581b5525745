package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// Event is something that happened, with its emotional impact.
type Event struct {
	ID          int64         `json:"id"`
	Description string        `json:"description"`
	Context     string        `json:"context,omitempty"`
	Impact      affect.Impact `json:"emotional_impact"`
	CreatedAt   time.Time     `json:"created_at"`
}

// InsertEvent persists an event and sets its ID.
func (c *Conn) InsertEvent(ctx context.Context, ev *Event) error {
	impact, err := marshalImpact(ev.Impact)
	if err != nil {
		return err
	}
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO events (description, context, emotional_impact, created_at) VALUES (?, ?, ?, ?)`,
		ev.Description, nullString(ev.Context), impact, toMillis(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert event id: %w", err)
	}
	ev.ID = id
	return nil
}

// GetEvent retrieves an event by ID. Returns nil, nil if not found.
func (c *Conn) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var ev Event
	var evCtx sql.NullString
	var impact string
	var created int64
	err := c.q.QueryRowContext(ctx,
		`SELECT id, description, context, emotional_impact, created_at FROM events WHERE id = ?`, id,
	).Scan(&ev.ID, &ev.Description, &evCtx, &impact, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	ev.Context = evCtx.String
	ev.CreatedAt = fromMillis(created)
	if ev.Impact, err = unmarshalImpact(impact); err != nil {
		return nil, err
	}
	return &ev, nil
}

// CountEvents returns the number of recorded events.
func (c *Conn) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := c.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func marshalImpact(im affect.Impact) (string, error) {
	if im == nil {
		im = affect.Impact{}
	}
	b, err := json.Marshal(im)
	if err != nil {
		return "", fmt.Errorf("marshal impact: %w", err)
	}
	return string(b), nil
}

func unmarshalImpact(s string) (affect.Impact, error) {
	im := affect.Impact{}
	if s == "" {
		return im, nil
	}
	if err := json.Unmarshal([]byte(s), &im); err != nil {
		return nil, fmt.Errorf("unmarshal impact: %w", err)
	}
	return im, nil
}
