package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// Trait is a named identity trait with a strength in [0,1].
type Trait struct {
	Name      string    `json:"name"`
	Strength  float64   `json:"strength"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetTrait creates or updates a trait.
func (c *Conn) SetTrait(ctx context.Context, name string, strength float64, at time.Time) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO identity_traits (name, strength, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET strength = excluded.strength, updated_at = excluded.updated_at`,
		name, affect.ClampUnit(strength), toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("set trait %q: %w", name, err)
	}
	return nil
}

// Traits returns every trait ordered by name.
func (c *Conn) Traits(ctx context.Context) ([]Trait, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT name, strength, updated_at FROM identity_traits ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list traits: %w", err)
	}
	defer rows.Close()

	var out []Trait
	for rows.Next() {
		var t Trait
		var updated int64
		if err := rows.Scan(&t.Name, &t.Strength, &updated); err != nil {
			return nil, fmt.Errorf("scan trait: %w", err)
		}
		t.UpdatedAt = fromMillis(updated)
		out = append(out, t)
	}
	return out, rows.Err()
}

// TraitStrength returns a trait's strength and whether it is set.
func (c *Conn) TraitStrength(ctx context.Context, name string) (float64, bool, error) {
	var s float64
	err := c.q.QueryRowContext(ctx, `SELECT strength FROM identity_traits WHERE name = ?`, name).Scan(&s)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get trait %q: %w", name, err)
	}
	return s, true, nil
}
